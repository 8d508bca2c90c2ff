package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gigmile/lending-service/internal/domain"
	"go.uber.org/zap"
)

// NotificationService renders requested notifications and records one
// delivery per customer channel.
type NotificationService struct {
	customerRepo     domain.CustomerRepository
	notificationRepo domain.NotificationRepository
	settings         NotificationSettings
	logger           *zap.Logger
}

func NewNotificationService(
	customerRepo domain.CustomerRepository,
	notificationRepo domain.NotificationRepository,
	settings NotificationSettings,
	logger *zap.Logger,
) *NotificationService {
	return &NotificationService{
		customerRepo:     customerRepo,
		notificationRepo: notificationRepo,
		settings:         settings,
		logger:           logger,
	}
}

// HandleNotificationRequested handles notification requested events
func (s *NotificationService) HandleNotificationRequested(ctx context.Context, event domain.DomainEvent) error {
	requested, ok := event.(*domain.NotificationRequestedEvent)
	if !ok {
		return fmt.Errorf("invalid event type")
	}

	s.logger.Info("handling notification request",
		zap.String("event_id", event.GetEventID()),
		zap.String("loan_id", requested.Payload.LoanID),
		zap.String("type", string(requested.Payload.Type)),
	)

	_, err := s.Deliver(ctx, requested.Payload)
	return err
}

// Deliver renders req and records it on every active channel of the
// customer, falling back to the default channel.
func (s *NotificationService) Deliver(ctx context.Context, req domain.NotificationRequest) ([]*domain.Notification, error) {
	template, ok := s.settings.Templates[req.Type]
	if !ok || template == "" {
		return nil, fmt.Errorf("no template configured for %s", req.Type)
	}
	content := Render(template, req.Variables)

	customer, err := s.customerRepo.FindByID(ctx, req.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}

	channels := customer.Channels
	if len(channels) == 0 {
		s.logger.Info("no channels for customer, using default",
			zap.String("customer_id", customer.ID),
			zap.String("channel", string(s.settings.DefaultChannel)),
		)
		channels = []domain.NotificationChannel{s.settings.DefaultChannel}
	}

	notifications := make([]*domain.Notification, 0, len(channels))
	for _, channel := range channels {
		notification := domain.NewNotification(req, channel, content)

		// Provider integration is out of process; a logged send counts as sent.
		s.logger.Info("notification sent",
			zap.String("customer_id", customer.ID),
			zap.String("channel", string(channel)),
			zap.String("type", string(req.Type)),
			zap.String("message", content),
		)
		notification.MarkSent(time.Now())

		if err := s.notificationRepo.Create(ctx, notification); err != nil {
			return notifications, fmt.Errorf("failed to save notification: %w", err)
		}
		notifications = append(notifications, notification)
	}

	return notifications, nil
}

// Render substitutes {{name}} placeholders with vars. Unknown placeholders are
// left as they are.
func Render(template string, vars map[string]string) string {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
