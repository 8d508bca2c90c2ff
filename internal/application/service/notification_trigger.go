package service

import (
	"context"

	"github.com/gigmile/lending-service/internal/domain"
	"go.uber.org/zap"
)

// DateLayout renders dates in notification content, e.g. "March 5, 2024".
const DateLayout = "January 2, 2006"

// NotificationSettings holds the per-type switches and templates.
type NotificationSettings struct {
	DefaultChannel domain.NotificationChannel
	Enabled        map[domain.NotificationType]bool
	Templates      map[domain.NotificationType]string
}

func (s NotificationSettings) IsEnabled(t domain.NotificationType) bool {
	return s.Enabled[t]
}

// NotificationTrigger turns loan events into notification requests. It never
// fails the caller: every problem is logged and reported as not delivered.
type NotificationTrigger struct {
	customerRepo domain.CustomerRepository
	productRepo  domain.ProductRepository
	notifier     domain.Notifier
	settings     NotificationSettings
	logger       *zap.Logger
}

func NewNotificationTrigger(
	customerRepo domain.CustomerRepository,
	productRepo domain.ProductRepository,
	notifier domain.Notifier,
	settings NotificationSettings,
	logger *zap.Logger,
) *NotificationTrigger {
	return &NotificationTrigger{
		customerRepo: customerRepo,
		productRepo:  productRepo,
		notifier:     notifier,
		settings:     settings,
		logger:       logger,
	}
}

// Fire requests the notification mapped to event and reports whether it was
// handed off for delivery.
func (t *NotificationTrigger) Fire(ctx context.Context, event domain.LoanEvent) bool {
	loan := event.Loan
	notificationType, ok := event.Type.NotificationType()
	if !ok {
		t.logger.Warn("no notification mapped to loan event",
			zap.String("event", string(event.Type)),
			zap.String("loan_id", loan.ID),
		)
		return false
	}

	if !t.settings.IsEnabled(notificationType) {
		t.logger.Debug("notification type disabled",
			zap.String("type", string(notificationType)),
			zap.String("loan_id", loan.ID),
		)
		return false
	}

	customer, err := t.customerRepo.FindByID(ctx, loan.CustomerID)
	if err != nil {
		t.logger.Error("failed to load customer for notification",
			zap.Error(err),
			zap.String("loan_id", loan.ID),
			zap.String("customer_id", loan.CustomerID),
		)
		return false
	}

	product, err := t.productRepo.FindByID(ctx, loan.ProductID)
	if err != nil {
		t.logger.Error("failed to load product for notification",
			zap.Error(err),
			zap.String("loan_id", loan.ID),
			zap.String("product_id", loan.ProductID),
		)
		return false
	}

	if !product.NotificationsEnabled {
		t.logger.Debug("notifications disabled for product",
			zap.String("product_id", product.ID),
			zap.String("type", string(notificationType)),
		)
		return false
	}

	req := domain.NotificationRequest{
		LoanID:     loan.ID,
		CustomerID: customer.ID,
		Type:       notificationType,
		Variables:  templateVariables(event, customer, product),
	}

	delivered, err := t.notifier.Notify(ctx, req)
	if err != nil {
		t.logger.Error("failed to send notification",
			zap.Error(err),
			zap.String("type", string(notificationType)),
			zap.String("loan_id", loan.ID),
		)
		return false
	}

	t.logger.Info("notification requested",
		zap.String("type", string(notificationType)),
		zap.String("loan_id", loan.ID),
		zap.Bool("delivered", delivered),
	)

	return delivered
}

func templateVariables(event domain.LoanEvent, customer *domain.Customer, product *domain.Product) map[string]string {
	loan := event.Loan
	vars := map[string]string{
		"customerName":   customer.FullName(),
		"firstName":      customer.FirstName,
		"loanCode":       loan.LoanCode,
		"loanId":         loan.LoanCode,
		"loanAmount":     loan.Principal.StringFixed(2),
		"paymentAmount":  event.PaymentAmount.StringFixed(2),
		"currentBalance": loan.CurrentBalance.StringFixed(2),
		"lateFeeAmount":  event.LateFeeAmount.StringFixed(2),
		"dueDate":        loan.DueDate.Format(DateLayout),
		"productName":    product.Name,
	}

	if inst := event.Installment; inst != nil {
		vars["installmentAmount"] = inst.Outstanding().StringFixed(2)
		vars["installmentDueDate"] = inst.DueDate.Format(DateLayout)
	}

	return vars
}
