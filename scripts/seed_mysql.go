package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/gigmile/lending-service/internal/application/service"
	"github.com/gigmile/lending-service/internal/config"
	"github.com/gigmile/lending-service/internal/domain"
	"github.com/gigmile/lending-service/internal/infrastructure/persistence"
	sqlrepository "github.com/gigmile/lending-service/internal/infrastructure/repository/mysql"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Seeds a product with its fees and a handful of fake customers through the
// catalogue service, so every row passes the same validation as the API.
func main() {
	customers := flag.Int("customers", 5, "number of customers to create")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()
	db, err := persistence.OpenMySQL(ctx, cfg.MySQL, zap.NewNop())
	if err != nil {
		log.Fatalf("Failed to connect to MySQL: %v\nDSN host: %s/%s", err, cfg.MySQL.Host, cfg.MySQL.Database)
	}
	if err := persistence.Migrate(db); err != nil {
		log.Fatalf("Failed to migrate: %v", err)
	}
	fmt.Println("Connected to MySQL successfully")

	repos := sqlrepository.NewRepositories(db, nil, cfg.Cache, zap.NewNop())
	catalogue := service.NewCatalogueService(repos.Customer, repos.Product, zap.NewNop())

	product, err := catalogue.CreateProduct(ctx, domain.NewProductParams{
		Name:                   "Quarterly Installment Loan",
		Description:            "Three monthly installments",
		TenureType:             domain.TenureMonths,
		TenureValue:            3,
		DaysAfterDueForLateFee: 1,
		IsFixedTerm:            true,
		NotificationsEnabled:   true,
	})
	if err != nil {
		log.Fatalf("Failed to seed product: %v", err)
	}

	fees := []domain.NewFeeParams{
		{Name: "Service fee", Type: domain.FeeTypeService, CalculationType: domain.CalculationPercentage, Value: decimal.RequireFromString("0.02"), IsActive: true},
		{Name: "Processing fee", Type: domain.FeeTypeService, CalculationType: domain.CalculationFixed, Value: decimal.NewFromInt(10), IsActive: true},
		{Name: "Late fee", Type: domain.FeeTypeLatePayment, CalculationType: domain.CalculationFixed, Value: decimal.NewFromInt(50), ApplicationTiming: domain.TimingPostDisbursement, IsActive: true},
	}
	for _, params := range fees {
		fee, err := catalogue.CreateFee(ctx, params)
		if err != nil {
			log.Fatalf("Failed to seed fee %s: %v", params.Name, err)
		}
		if _, err := catalogue.AttachFee(ctx, product.ID, fee.ID); err != nil {
			log.Fatalf("Failed to attach fee %s: %v", params.Name, err)
		}
		fmt.Printf("Seeded fee: %s (%s %s)\n", fee.Name, fee.CalculationType, fee.Value)
	}
	fmt.Printf("Seeded product: %s (%s)\n", product.Name, product.ID)

	faker := gofakeit.New(0)
	for i := 0; i < *customers; i++ {
		params := domain.NewCustomerParams{
			FirstName:    faker.FirstName(),
			LastName:     faker.LastName(),
			Email:        faker.Email(),
			Phone:        fmt.Sprintf("2547%08d", faker.Number(0, 99999999)),
			IDNumber:     fmt.Sprintf("%08d", faker.Number(10000000, 99999999)),
			LoanLimit:    decimal.NewFromInt(int64(faker.Number(5, 50)) * 1000),
			BillingCycle: domain.BillingCycleIndividual,
			Channels:     []domain.NotificationChannel{domain.ChannelSMS, domain.ChannelEmail},
		}
		if faker.Bool() {
			params.BillingCycle = domain.BillingCycleConsolidated
			params.PreferredBillingDay = faker.Number(1, 28)
		}

		customer, err := catalogue.CreateCustomer(ctx, params)
		if errors.Is(err, domain.ErrDuplicateCustomer) {
			continue
		}
		if err != nil {
			log.Fatalf("Failed to seed customer: %v", err)
		}
		fmt.Printf("Seeded customer: %s %s (phone %s, limit %s)\n",
			customer.FirstName, customer.LastName, customer.Phone, customer.LoanLimit)
	}

	fmt.Println("\nSeed completed successfully!")
}
