package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Payment struct {
	ID          string
	LoanID      string
	Amount      decimal.Decimal
	PaymentDate time.Time
	Method      PaymentMethod
	Status      PaymentStatus
	PaymentCode string
	CreatedAt   time.Time
}

var ErrOptimisticLock = fmt.Errorf("%w: version mismatch - optimistic lock failed", ErrConflictingState)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusRefunded  PaymentStatus = "REFUNDED"
)

type PaymentMethod string

const (
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodCard         PaymentMethod = "CARD"
	PaymentMethodMobileMoney  PaymentMethod = "MOBILE_MONEY"
	PaymentMethodCash         PaymentMethod = "CASH"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodBankTransfer, PaymentMethodCard, PaymentMethodMobileMoney, PaymentMethodCash:
		return true
	}
	return false
}

// NewPayment builds a completed payment against loanID.
func NewPayment(loanID string, amount decimal.Decimal, method PaymentMethod, paymentCode string, paymentDate time.Time) (*Payment, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if strings.TrimSpace(paymentCode) == "" {
		return nil, ErrInvalidPaymentCode
	}
	if !method.Valid() {
		return nil, ErrInvalidPaymentMethod
	}

	return &Payment{
		ID:          uuid.New().String(),
		LoanID:      loanID,
		Amount:      amount,
		PaymentDate: paymentDate,
		Method:      method,
		Status:      PaymentStatusCompleted,
		PaymentCode: paymentCode,
		CreatedAt:   time.Now(),
	}, nil
}
