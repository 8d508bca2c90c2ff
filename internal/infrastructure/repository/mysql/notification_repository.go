package sqlrepository

import (
	"context"
	"fmt"

	"github.com/gigmile/lending-service/internal/domain"
	"github.com/gigmile/lending-service/internal/infrastructure/persistence"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type GORMNotificationRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewNotificationRepository(db *gorm.DB, logger *zap.Logger) *GORMNotificationRepository {
	return &GORMNotificationRepository{
		db:     db,
		logger: logger,
	}
}

func (r *GORMNotificationRepository) Create(ctx context.Context, notification *domain.Notification) error {
	if err := conn(ctx, r.db).Create(persistence.NotificationModelFromDomain(notification)).Error; err != nil {
		r.logger.Error("failed to store notification", zap.Error(err), zap.String("loan_id", notification.LoanID))
		return fmt.Errorf("database error: %w", err)
	}
	return nil
}

func (r *GORMNotificationRepository) FindByLoanID(ctx context.Context, loanID string) ([]*domain.Notification, error) {
	var models []persistence.NotificationModel
	err := conn(ctx, r.db).
		Where("loan_id = ?", loanID).
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	notifications := make([]*domain.Notification, len(models))
	for i := range models {
		notifications[i] = models[i].ToDomain()
	}
	return notifications, nil
}
