package sqlrepository

import (
	"context"
	"errors"
	"fmt"

	"github.com/gigmile/lending-service/internal/domain"
	"github.com/gigmile/lending-service/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type paymentCache interface {
	Get(ctx context.Context, code string) (*domain.Payment, error)
	Set(ctx context.Context, payment *domain.Payment) error
}

type GORMPaymentRepository struct {
	db     *gorm.DB
	cache  paymentCache // Optional - can be nil
	logger *zap.Logger
}

func NewPaymentRepository(db *gorm.DB, cache paymentCache, logger *zap.Logger) *GORMPaymentRepository {
	return &GORMPaymentRepository{
		db:     db,
		cache:  cache,
		logger: logger,
	}
}

// Save inserts the payment. The unique index on payment_code is the final
// guard against two requests racing with the same code.
func (r *GORMPaymentRepository) Save(ctx context.Context, payment *domain.Payment) error {
	if payment.ID == "" {
		payment.ID = uuid.New().String()
	}

	model := persistence.PaymentModelFromDomain(payment)

	result := conn(ctx, r.db).Create(model)
	if result.Error != nil {
		if isDuplicateError(result.Error) {
			return domain.ErrDuplicatePaymentCode
		}

		r.logger.Error("failed to save payment", zap.Error(result.Error))
		return fmt.Errorf("database error: %w", result.Error)
	}

	r.logger.Debug("payment saved",
		zap.String("payment_id", payment.ID),
		zap.String("payment_code", payment.PaymentCode),
	)

	return nil
}

func (r *GORMPaymentRepository) FindByPaymentCode(ctx context.Context, code string) (*domain.Payment, error) {
	if r.cache != nil {
		if cached, err := r.cache.Get(ctx, code); err == nil {
			r.logger.Debug("payment code found in cache", zap.String("payment_code", code))
			return cached, nil
		}
	}

	var model persistence.PaymentModel

	result := conn(ctx, r.db).
		Where("payment_code = ?", code).
		First(&model)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("database error: %w", result.Error)
	}

	payment := model.ToDomain()

	if r.cache != nil {
		go func() {
			if err := r.cache.Set(context.Background(), payment); err != nil {
				r.logger.Warn("failed to cache payment", zap.Error(err), zap.String("payment_code", code))
			}
		}()
	}

	return payment, nil
}

func (r *GORMPaymentRepository) FindByLoanID(ctx context.Context, loanID string) ([]*domain.Payment, error) {
	var models []persistence.PaymentModel

	result := conn(ctx, r.db).
		Where("loan_id = ?", loanID).
		Order("payment_date ASC, created_at ASC").
		Find(&models)

	if result.Error != nil {
		r.logger.Error("failed to fetch payments by loan ID",
			zap.Error(result.Error),
			zap.String("loan_id", loanID),
		)
		return nil, fmt.Errorf("database error: %w", result.Error)
	}

	payments := make([]*domain.Payment, len(models))
	for i := range models {
		payments[i] = models[i].ToDomain()
	}

	return payments, nil
}

func (r *GORMPaymentRepository) SumCompletedByLoanID(ctx context.Context, loanID string) (decimal.Decimal, error) {
	var total decimal.Decimal

	err := conn(ctx, r.db).
		Model(&persistence.PaymentModel{}).
		Where("loan_id = ? AND status = ?", loanID, string(domain.PaymentStatusCompleted)).
		Select("COALESCE(SUM(amount), 0)").
		Row().
		Scan(&total)

	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to calculate total: %w", err)
	}

	return total, nil
}
