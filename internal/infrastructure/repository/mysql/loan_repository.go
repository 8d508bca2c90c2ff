package sqlrepository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gigmile/lending-service/internal/domain"
	"github.com/gigmile/lending-service/internal/infrastructure/persistence"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GORMLoanRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewLoanRepository(db *gorm.DB, logger *zap.Logger) *GORMLoanRepository {
	return &GORMLoanRepository{
		db:     db,
		logger: logger,
	}
}

func (r *GORMLoanRepository) Create(ctx context.Context, loan *domain.Loan) error {
	if loan.Version == 0 {
		loan.Version = 1
	}
	if err := conn(ctx, r.db).Create(persistence.LoanModelFromDomain(loan)).Error; err != nil {
		r.logger.Error("failed to create loan", zap.Error(err), zap.String("loan_id", loan.ID))
		return fmt.Errorf("failed to create loan: %w", err)
	}
	return nil
}

// Save writes the loan's mutable state guarded by its version. A concurrent
// writer that got there first makes it fail with ErrOptimisticLock.
func (r *GORMLoanRepository) Save(ctx context.Context, loan *domain.Loan) error {
	result := conn(ctx, r.db).
		Model(&persistence.LoanModel{}).
		Where("id = ? AND version = ?", loan.ID, loan.Version).
		Updates(map[string]interface{}{
			"current_balance": loan.CurrentBalance,
			"status":          string(loan.Status),
			"description":     loan.Description,
			"version":         gorm.Expr("version + 1"),
			"updated_at":      time.Now(),
		})

	if result.Error != nil {
		r.logger.Error("failed to update loan", zap.Error(result.Error), zap.String("loan_id", loan.ID))
		return fmt.Errorf("database error: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return domain.ErrOptimisticLock
	}

	loan.Version++

	r.logger.Debug("loan saved",
		zap.String("loan_id", loan.ID),
		zap.String("status", string(loan.Status)),
		zap.Int64("version", loan.Version),
	)

	return nil
}

func (r *GORMLoanRepository) FindByID(ctx context.Context, id string) (*domain.Loan, error) {
	return r.first(conn(ctx, r.db).Where("id = ?", id))
}

// FindByIDForUpdate locks the loan row until the surrounding transaction ends.
func (r *GORMLoanRepository) FindByIDForUpdate(ctx context.Context, id string) (*domain.Loan, error) {
	return r.first(r.locked(ctx).Where("id = ?", id))
}

// FindPayableByCodeForUpdate locks the newest payable loan with the code.
func (r *GORMLoanRepository) FindPayableByCodeForUpdate(ctx context.Context, loanCode string) (*domain.Loan, error) {
	return r.first(r.locked(ctx).
		Where("loan_code = ? AND status IN ?", loanCode, statusStrings(domain.PayableStatuses)).
		Order("created_at DESC"))
}

func (r *GORMLoanRepository) FindLatestByCode(ctx context.Context, loanCode string) (*domain.Loan, error) {
	return r.first(conn(ctx, r.db).Where("loan_code = ?", loanCode).Order("created_at DESC"))
}

func (r *GORMLoanRepository) ExistsByCustomerAndStatuses(ctx context.Context, customerID string, statuses []domain.LoanStatus) (bool, error) {
	var count int64
	err := conn(ctx, r.db).
		Model(&persistence.LoanModel{}).
		Where("customer_id = ? AND status IN ?", customerID, statusStrings(statuses)).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("database error: %w", err)
	}
	return count > 0, nil
}

func (r *GORMLoanRepository) FindByStatusAndDueDateBefore(ctx context.Context, status domain.LoanStatus, before time.Time) ([]*domain.Loan, error) {
	return r.find(conn(ctx, r.db).Where("status = ? AND due_date < ?", string(status), before))
}

func (r *GORMLoanRepository) FindByStatusAndDueDateBetween(ctx context.Context, status domain.LoanStatus, from, to time.Time) ([]*domain.Loan, error) {
	return r.find(conn(ctx, r.db).Where("status = ? AND due_date >= ? AND due_date <= ?", string(status), from, to))
}

// locked applies SELECT ... FOR UPDATE. It only holds inside a transaction.
func (r *GORMLoanRepository) locked(ctx context.Context) *gorm.DB {
	if !inTransaction(ctx) {
		r.logger.Warn("row lock requested outside a transaction")
	}
	return conn(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"})
}

func (r *GORMLoanRepository) first(query *gorm.DB) (*domain.Loan, error) {
	var model persistence.LoanModel
	if err := query.First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrLoanNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return model.ToDomain(), nil
}

func (r *GORMLoanRepository) find(query *gorm.DB) ([]*domain.Loan, error) {
	var models []persistence.LoanModel
	if err := query.Order("due_date ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	loans := make([]*domain.Loan, len(models))
	for i := range models {
		loans[i] = models[i].ToDomain()
	}
	return loans, nil
}

func statusStrings(statuses []domain.LoanStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
