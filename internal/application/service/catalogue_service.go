package service

import (
	"context"
	"fmt"

	"github.com/gigmile/lending-service/internal/domain"
	"go.uber.org/zap"
)

// CatalogueService manages the customers, products and fees loans are
// issued against.
type CatalogueService struct {
	customerRepo domain.CustomerRepository
	productRepo  domain.ProductRepository
	logger       *zap.Logger
}

func NewCatalogueService(customerRepo domain.CustomerRepository, productRepo domain.ProductRepository, logger *zap.Logger) *CatalogueService {
	return &CatalogueService{
		customerRepo: customerRepo,
		productRepo:  productRepo,
		logger:       logger,
	}
}

func (s *CatalogueService) CreateCustomer(ctx context.Context, params domain.NewCustomerParams) (*domain.Customer, error) {
	customer, err := domain.NewCustomer(params)
	if err != nil {
		return nil, err
	}

	exists, err := s.customerRepo.ExistsByContact(ctx, customer.Email, customer.Phone, customer.IDNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing customer: %w", err)
	}
	if exists {
		return nil, domain.ErrDuplicateCustomer
	}

	if err := s.customerRepo.Create(ctx, customer); err != nil {
		s.logger.Error("failed to create customer", zap.Error(err), zap.String("phone", customer.Phone))
		return nil, err
	}

	s.logger.Info("customer created",
		zap.String("customer_id", customer.ID),
		zap.String("billing_cycle", string(customer.BillingCycle)),
	)

	return customer, nil
}

func (s *CatalogueService) GetCustomer(ctx context.Context, id string) (*domain.Customer, error) {
	return s.customerRepo.FindByID(ctx, id)
}

func (s *CatalogueService) CreateProduct(ctx context.Context, params domain.NewProductParams) (*domain.Product, error) {
	product, err := domain.NewProduct(params)
	if err != nil {
		return nil, err
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		s.logger.Error("failed to create product", zap.Error(err), zap.String("name", product.Name))
		return nil, err
	}

	s.logger.Info("product created",
		zap.String("product_id", product.ID),
		zap.String("tenure_type", string(product.TenureType)),
		zap.Int("tenure_value", product.TenureValue),
	)

	return product, nil
}

func (s *CatalogueService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return s.productRepo.FindByID(ctx, id)
}

func (s *CatalogueService) CreateFee(ctx context.Context, params domain.NewFeeParams) (*domain.Fee, error) {
	fee, err := domain.NewFee(params)
	if err != nil {
		return nil, err
	}

	if err := s.productRepo.CreateFee(ctx, fee); err != nil {
		s.logger.Error("failed to create fee", zap.Error(err), zap.String("name", fee.Name))
		return nil, err
	}

	s.logger.Info("fee created",
		zap.String("fee_id", fee.ID),
		zap.String("type", string(fee.Type)),
		zap.String("calculation", string(fee.CalculationType)),
	)

	return fee, nil
}

// AttachFee adds fee to the product's fee set.
func (s *CatalogueService) AttachFee(ctx context.Context, productID, feeID string) (*domain.Product, error) {
	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return nil, err
	}
	if _, err := s.productRepo.FindFeeByID(ctx, feeID); err != nil {
		return nil, err
	}

	attached, err := s.productRepo.HasFee(ctx, productID, feeID)
	if err != nil {
		return nil, fmt.Errorf("failed to check product fee: %w", err)
	}
	if attached {
		return nil, domain.ErrFeeAlreadyAttached
	}

	if err := s.productRepo.AttachFee(ctx, productID, feeID); err != nil {
		return nil, err
	}

	s.logger.Info("fee attached to product",
		zap.String("product_id", productID),
		zap.String("fee_id", feeID),
	)

	return s.productRepo.FindByID(ctx, productID)
}
