package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationLoanCreation        NotificationType = "LOAN_CREATION"
	NotificationPaymentReminder     NotificationType = "PAYMENT_REMINDER"
	NotificationInstallmentReminder NotificationType = "INSTALLMENT_REMINDER"
	NotificationPaymentReceived     NotificationType = "PAYMENT_RECEIVED"
	NotificationLoanOverdue         NotificationType = "LOAN_OVERDUE"
	NotificationLoanDefault         NotificationType = "LOAN_DEFAULT"
	NotificationLoanWrittenOff      NotificationType = "LOAN_WRITTEN_OFF"
	NotificationLoanClosed          NotificationType = "LOAN_CLOSED"
	NotificationFeeApplied          NotificationType = "FEE_APPLIED"
)

type NotificationChannel string

const (
	ChannelEmail NotificationChannel = "EMAIL"
	ChannelSMS   NotificationChannel = "SMS"
	ChannelPush  NotificationChannel = "PUSH"
)

func (c NotificationChannel) Valid() bool {
	return c == ChannelEmail || c == ChannelSMS || c == ChannelPush
}

type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "PENDING"
	NotificationStatusSent    NotificationStatus = "SENT"
	NotificationStatusFailed  NotificationStatus = "FAILED"
)

// Notification is a rendered message persisted per delivery channel.
type Notification struct {
	ID         string
	CustomerID string
	LoanID     string
	Type       NotificationType
	Channel    NotificationChannel
	Content    string
	Status     NotificationStatus
	SentAt     *time.Time
	CreatedAt  time.Time
}

func NewNotification(req NotificationRequest, channel NotificationChannel, content string) *Notification {
	return &Notification{
		ID:         uuid.New().String(),
		CustomerID: req.CustomerID,
		LoanID:     req.LoanID,
		Type:       req.Type,
		Channel:    channel,
		Content:    content,
		Status:     NotificationStatusPending,
		CreatedAt:  time.Now(),
	}
}

func (n *Notification) MarkSent(at time.Time) {
	n.Status = NotificationStatusSent
	n.SentAt = &at
}

// NotificationRequest is what the engine hands to the notification
// collaborator: who, which loan, what kind, and the template variables.
type NotificationRequest struct {
	LoanID     string            `json:"loan_id"`
	CustomerID string            `json:"customer_id"`
	Type       NotificationType  `json:"type"`
	Variables  map[string]string `json:"variables"`
}

// Notifier delivers notification requests. The returned bool reports whether
// the request was accepted for delivery.
type Notifier interface {
	Notify(ctx context.Context, req NotificationRequest) (bool, error)
}
