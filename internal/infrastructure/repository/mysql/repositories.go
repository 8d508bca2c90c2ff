package sqlrepository

import (
	"github.com/gigmile/lending-service/internal/config"
	"github.com/gigmile/lending-service/internal/domain"
	redisrepository "github.com/gigmile/lending-service/internal/infrastructure/repository/redis"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Repositories struct {
	Transactor   domain.Transactor
	Customer     domain.CustomerRepository
	Product      domain.ProductRepository
	Loan         domain.LoanRepository
	Installment  domain.InstallmentRepository
	Payment      domain.PaymentRepository
	LoanFee      domain.LoanFeeRepository
	Notification domain.NotificationRepository
}

// NewRepositories builds the GORM repositories. With a nil redisClient the
// customer, product and payment-code caches are disabled.
func NewRepositories(db *gorm.DB, redisClient *redis.Client, ttl config.CacheConfig, logger *zap.Logger) *Repositories {
	var (
		customers customerCache
		products  productCache
		payments  paymentCache
	)
	if redisClient != nil {
		customers = redisrepository.NewRedisCustomerCache(redisClient, ttl.CustomerTTL)
		products = redisrepository.NewRedisProductCache(redisClient, ttl.ProductTTL)
		payments = redisrepository.NewRedisPaymentCache(redisClient, ttl.PaymentTTL)
	}

	return &Repositories{
		Transactor:   NewTransactor(db),
		Customer:     NewCustomerRepository(db, customers, logger),
		Product:      NewProductRepository(db, products, logger),
		Loan:         NewLoanRepository(db, logger),
		Installment:  NewInstallmentRepository(db, logger),
		Payment:      NewPaymentRepository(db, payments, logger),
		LoanFee:      NewLoanFeeRepository(db, logger),
		Notification: NewNotificationRepository(db, logger),
	}
}
