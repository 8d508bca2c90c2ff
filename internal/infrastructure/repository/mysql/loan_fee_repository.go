package sqlrepository

import (
	"context"
	"fmt"
	"time"

	"github.com/gigmile/lending-service/internal/domain"
	"github.com/gigmile/lending-service/internal/infrastructure/persistence"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type GORMLoanFeeRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewLoanFeeRepository(db *gorm.DB, logger *zap.Logger) *GORMLoanFeeRepository {
	return &GORMLoanFeeRepository{
		db:     db,
		logger: logger,
	}
}

// Create records an applied fee. A second late fee for the same loan, fee and
// day hits idx_loan_fee_day and comes back as ErrDuplicateFeeApplied.
func (r *GORMLoanFeeRepository) Create(ctx context.Context, loanFee *domain.LoanFee) error {
	err := conn(ctx, r.db).Create(persistence.LoanFeeModelFromDomain(loanFee)).Error
	if err != nil {
		if isDuplicateError(err) {
			return domain.ErrDuplicateFeeApplied
		}
		r.logger.Error("failed to record loan fee", zap.Error(err), zap.String("loan_id", loanFee.LoanID))
		return fmt.Errorf("database error: %w", err)
	}
	return nil
}

func (r *GORMLoanFeeRepository) Exists(ctx context.Context, loanID, feeID string, appliedAt time.Time) (bool, error) {
	var count int64
	err := conn(ctx, r.db).
		Model(&persistence.LoanFeeModel{}).
		Where("loan_id = ? AND fee_id = ? AND applied_at = ?", loanID, feeID, appliedAt).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("database error: %w", err)
	}
	return count > 0, nil
}

func (r *GORMLoanFeeRepository) FindByLoanID(ctx context.Context, loanID string) ([]*domain.LoanFee, error) {
	var models []persistence.LoanFeeModel
	err := conn(ctx, r.db).
		Where("loan_id = ?", loanID).
		Order("applied_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	fees := make([]*domain.LoanFee, len(models))
	for i := range models {
		fees[i] = models[i].ToDomain()
	}
	return fees, nil
}
