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

type GORMInstallmentRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewInstallmentRepository(db *gorm.DB, logger *zap.Logger) *GORMInstallmentRepository {
	return &GORMInstallmentRepository{
		db:     db,
		logger: logger,
	}
}

func (r *GORMInstallmentRepository) CreateBatch(ctx context.Context, installments []*domain.Installment) error {
	if len(installments) == 0 {
		return nil
	}

	models := make([]*persistence.InstallmentModel, len(installments))
	for i, inst := range installments {
		models[i] = persistence.InstallmentModelFromDomain(inst)
	}

	if err := conn(ctx, r.db).Create(&models).Error; err != nil {
		r.logger.Error("failed to create installments", zap.Error(err), zap.Int("count", len(models)))
		return fmt.Errorf("failed to create installments: %w", err)
	}
	return nil
}

// SaveAll writes the paid amount and status of each installment.
func (r *GORMInstallmentRepository) SaveAll(ctx context.Context, installments []*domain.Installment) error {
	db := conn(ctx, r.db)
	now := time.Now()

	for _, inst := range installments {
		err := db.Model(&persistence.InstallmentModel{}).
			Where("id = ?", inst.ID).
			Updates(map[string]interface{}{
				"amount_paid": inst.AmountPaid,
				"status":      string(inst.Status),
				"updated_at":  now,
			}).Error
		if err != nil {
			return fmt.Errorf("failed to update installment %s: %w", inst.ID, err)
		}
	}
	return nil
}

func (r *GORMInstallmentRepository) FindByLoanID(ctx context.Context, loanID string) ([]*domain.Installment, error) {
	return r.find(conn(ctx, r.db).Where("loan_id = ?", loanID))
}

func (r *GORMInstallmentRepository) FindByLoanAndStatus(ctx context.Context, loanID string, status domain.InstallmentStatus) ([]*domain.Installment, error) {
	return r.find(conn(ctx, r.db).Where("loan_id = ? AND status = ?", loanID, string(status)))
}

func (r *GORMInstallmentRepository) CountByLoanStatusDueBefore(ctx context.Context, loanID string, status domain.InstallmentStatus, before time.Time) (int64, error) {
	var count int64
	err := conn(ctx, r.db).
		Model(&persistence.InstallmentModel{}).
		Where("loan_id = ? AND status = ? AND due_date < ?", loanID, string(status), before).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("database error: %w", err)
	}
	return count, nil
}

func (r *GORMInstallmentRepository) FindDueBetween(ctx context.Context, loanStatus domain.LoanStatus, status domain.InstallmentStatus, from, to time.Time) ([]*domain.Installment, error) {
	return r.find(conn(ctx, r.db).
		Joins("JOIN loans ON loans.id = installments.loan_id").
		Where("loans.status = ? AND installments.status = ?", string(loanStatus), string(status)).
		Where("installments.due_date >= ? AND installments.due_date <= ?", from, to))
}

func (r *GORMInstallmentRepository) find(query *gorm.DB) ([]*domain.Installment, error) {
	var models []persistence.InstallmentModel
	if err := query.Order("installments.due_date ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	installments := make([]*domain.Installment, len(models))
	for i := range models {
		installments[i] = models[i].ToDomain()
	}
	return installments, nil
}
