package sqlrepository

import (
	"context"
	"errors"
	"fmt"

	"github.com/gigmile/lending-service/internal/domain"
	"github.com/gigmile/lending-service/internal/infrastructure/persistence"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type productCache interface {
	Get(ctx context.Context, productID string) (*domain.Product, error)
	Set(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, productID string) error
}

// GORMProductRepository stores products, fee definitions and the product
// fee set. Products are read through the cache with their fees attached.
type GORMProductRepository struct {
	db     *gorm.DB
	cache  productCache // Optional - can be nil
	logger *zap.Logger
}

func NewProductRepository(db *gorm.DB, cache productCache, logger *zap.Logger) *GORMProductRepository {
	return &GORMProductRepository{
		db:     db,
		cache:  cache,
		logger: logger,
	}
}

func (r *GORMProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	if r.cache != nil {
		if cached, err := r.cache.Get(ctx, id); err == nil {
			return cached, nil
		}
	}

	db := conn(ctx, r.db)

	var model persistence.ProductModel
	if err := db.First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	var fees []persistence.FeeModel
	err := db.
		Joins("JOIN product_fees ON product_fees.fee_id = fees.id").
		Where("product_fees.product_id = ?", id).
		Order("product_fees.created_at ASC").
		Find(&fees).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load product fees: %w", err)
	}

	product := model.ToDomain(fees)
	if r.cache != nil {
		if err := r.cache.Set(ctx, product); err != nil {
			r.logger.Warn("failed to cache product", zap.Error(err), zap.String("product_id", id))
		}
	}
	return product, nil
}

func (r *GORMProductRepository) Create(ctx context.Context, product *domain.Product) error {
	if err := conn(ctx, r.db).Create(persistence.ProductModelFromDomain(product)).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

func (r *GORMProductRepository) CreateFee(ctx context.Context, fee *domain.Fee) error {
	if err := conn(ctx, r.db).Create(persistence.FeeModelFromDomain(fee)).Error; err != nil {
		return fmt.Errorf("failed to create fee: %w", err)
	}
	return nil
}

func (r *GORMProductRepository) FindFeeByID(ctx context.Context, id string) (*domain.Fee, error) {
	var model persistence.FeeModel
	if err := conn(ctx, r.db).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrFeeNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return model.ToDomain(), nil
}

func (r *GORMProductRepository) AttachFee(ctx context.Context, productID, feeID string) error {
	if r.cache != nil {
		if err := r.cache.Delete(ctx, productID); err != nil {
			r.logger.Warn("failed to invalidate product cache", zap.Error(err), zap.String("product_id", productID))
		}
	}

	err := conn(ctx, r.db).Create(&persistence.ProductFeeModel{ProductID: productID, FeeID: feeID}).Error
	if err != nil {
		if isDuplicateError(err) {
			return domain.ErrFeeAlreadyAttached
		}
		return fmt.Errorf("failed to attach fee: %w", err)
	}
	return nil
}

func (r *GORMProductRepository) HasFee(ctx context.Context, productID, feeID string) (bool, error) {
	var count int64
	err := conn(ctx, r.db).
		Model(&persistence.ProductFeeModel{}).
		Where("product_id = ? AND fee_id = ?", productID, feeID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("database error: %w", err)
	}
	return count > 0, nil
}
