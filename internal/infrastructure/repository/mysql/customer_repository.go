package sqlrepository

import (
	"context"
	"errors"
	"fmt"

	"github.com/gigmile/lending-service/internal/domain"
	"github.com/gigmile/lending-service/internal/infrastructure/persistence"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type customerCache interface {
	Get(ctx context.Context, customerID string) (*domain.Customer, error)
	Set(ctx context.Context, customer *domain.Customer) error
	Delete(ctx context.Context, customerID string) error
}

type GORMCustomerRepository struct {
	db     *gorm.DB
	cache  customerCache // Optional - can be nil
	logger *zap.Logger
}

func NewCustomerRepository(db *gorm.DB, cache customerCache, logger *zap.Logger) *GORMCustomerRepository {
	return &GORMCustomerRepository{
		db:     db,
		cache:  cache,
		logger: logger,
	}
}

func (r *GORMCustomerRepository) FindByID(ctx context.Context, id string) (*domain.Customer, error) {
	if r.cache != nil {
		if cached, err := r.cache.Get(ctx, id); err == nil {
			r.logger.Debug("customer cache hit", zap.String("customer_id", id))
			return cached, nil
		}
	}

	var model persistence.CustomerModel
	result := conn(ctx, r.db).Preload("Channels").First(&model, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCustomerNotFound
		}
		r.logger.Error("failed to query customer", zap.Error(result.Error))
		return nil, fmt.Errorf("database error: %w", result.Error)
	}

	customer := model.ToDomain()
	if r.cache != nil {
		if err := r.cache.Set(ctx, customer); err != nil {
			r.logger.Warn("failed to cache customer", zap.Error(err), zap.String("customer_id", id))
		}
	}
	return customer, nil
}

// FindByIDForUpdate skips the cache so the lock is taken on the current row.
// Loan origination holds it to serialize the open-loan check per customer.
func (r *GORMCustomerRepository) FindByIDForUpdate(ctx context.Context, id string) (*domain.Customer, error) {
	if !inTransaction(ctx) {
		r.logger.Warn("row lock requested outside a transaction", zap.String("customer_id", id))
	}

	var model persistence.CustomerModel
	result := conn(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Channels").
		First(&model, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrCustomerNotFound
		}
		r.logger.Error("failed to lock customer", zap.Error(result.Error), zap.String("customer_id", id))
		return nil, fmt.Errorf("database error: %w", result.Error)
	}
	return model.ToDomain(), nil
}

// Create stores the customer together with its notification channels.
func (r *GORMCustomerRepository) Create(ctx context.Context, customer *domain.Customer) error {
	model := persistence.CustomerModelFromDomain(customer)

	result := conn(ctx, r.db).Create(model)
	if result.Error != nil {
		if isDuplicateError(result.Error) {
			return domain.ErrDuplicateCustomer
		}
		r.logger.Error("failed to create customer", zap.Error(result.Error))
		return fmt.Errorf("failed to create customer: %w", result.Error)
	}

	r.logger.Debug("customer saved", zap.String("customer_id", customer.ID))
	return nil
}

func (r *GORMCustomerRepository) ExistsByContact(ctx context.Context, email, phone, idNumber string) (bool, error) {
	query := conn(ctx, r.db).Model(&persistence.CustomerModel{}).Where("phone = ?", phone)
	if email != "" {
		query = query.Or("email = ?", email)
	}
	if idNumber != "" {
		query = query.Or("id_number = ?", idNumber)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, fmt.Errorf("database error: %w", err)
	}
	return count > 0, nil
}
