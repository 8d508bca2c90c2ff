package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Stream event types
const (
	EventTypeNotificationRequested = "notification.requested"
)

// LoanEventType names a lifecycle or payment event on a loan.
type LoanEventType string

const (
	LoanEventCreated         LoanEventType = "LOAN_CREATED"
	LoanEventPaymentDue      LoanEventType = "PAYMENT_DUE"
	LoanEventInstallmentDue  LoanEventType = "INSTALLMENT_DUE"
	LoanEventPaymentReceived LoanEventType = "PAYMENT_RECEIVED"
	LoanEventOverdue         LoanEventType = "LOAN_OVERDUE"
	LoanEventDefaulted       LoanEventType = "LOAN_DEFAULTED"
	LoanEventWrittenOff      LoanEventType = "LOAN_WRITTEN_OFF"
	LoanEventClosed          LoanEventType = "LOAN_CLOSED"
	LoanEventFeeApplied      LoanEventType = "FEE_APPLIED"
)

var notificationTypes = map[LoanEventType]NotificationType{
	LoanEventCreated:         NotificationLoanCreation,
	LoanEventPaymentDue:      NotificationPaymentReminder,
	LoanEventInstallmentDue:  NotificationInstallmentReminder,
	LoanEventPaymentReceived: NotificationPaymentReceived,
	LoanEventOverdue:         NotificationLoanOverdue,
	LoanEventDefaulted:       NotificationLoanDefault,
	LoanEventWrittenOff:      NotificationLoanWrittenOff,
	LoanEventClosed:          NotificationLoanClosed,
	LoanEventFeeApplied:      NotificationFeeApplied,
}

func (e LoanEventType) NotificationType() (NotificationType, bool) {
	t, ok := notificationTypes[e]
	return t, ok
}

// LoanEvent carries the per-call values a notification needs. PaymentAmount
// is the amount of the payment that raised the event, not a running total.
type LoanEvent struct {
	Type          LoanEventType
	Loan          *Loan
	PaymentAmount decimal.Decimal
	LateFeeAmount decimal.Decimal
	Installment   *Installment
}

// DomainEvent represents a domain event
type DomainEvent interface {
	GetEventID() string
	GetEventType() string
	GetAggregateID() string
	GetOccurredAt() time.Time
	GetPayload() interface{}
}

// BaseEvent provides common event fields
type BaseEvent struct {
	EventID     string    `json:"event_id"`
	EventType   string    `json:"event_type"`
	AggregateID string    `json:"aggregate_id"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func (e BaseEvent) GetEventID() string       { return e.EventID }
func (e BaseEvent) GetEventType() string     { return e.EventType }
func (e BaseEvent) GetAggregateID() string   { return e.AggregateID }
func (e BaseEvent) GetOccurredAt() time.Time { return e.OccurredAt }

// NotificationRequestedEvent - a notification should be rendered and sent
type NotificationRequestedEvent struct {
	BaseEvent
	Payload NotificationRequest `json:"payload"`
}

func (e NotificationRequestedEvent) GetPayload() interface{} { return e.Payload }

func NewNotificationRequestedEvent(req NotificationRequest) *NotificationRequestedEvent {
	return &NotificationRequestedEvent{
		BaseEvent: BaseEvent{
			EventID:     uuid.New().String(),
			EventType:   EventTypeNotificationRequested,
			AggregateID: req.LoanID,
			OccurredAt:  time.Now(),
		},
		Payload: req,
	}
}

// EventPublisher interface
type EventPublisher interface {
	Publish(ctx context.Context, event DomainEvent) error
}

// EventSubscriber interface
type EventSubscriber interface {
	Subscribe(ctx context.Context, eventType string, handler EventHandler) error
}

// EventHandler processes events
type EventHandler func(ctx context.Context, event DomainEvent) error
