package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type LoanStatus string

const (
	LoanStatusPending    LoanStatus = "PENDING"
	LoanStatusOpen       LoanStatus = "OPEN"
	LoanStatusOverdue    LoanStatus = "OVERDUE"
	LoanStatusDefaulted  LoanStatus = "DEFAULTED"
	LoanStatusWrittenOff LoanStatus = "WRITTEN_OFF"
	LoanStatusClosed     LoanStatus = "CLOSED"
	LoanStatusCancelled  LoanStatus = "CANCELLED"
)

// PayableStatuses are the statuses in which a loan accepts payments.
var PayableStatuses = []LoanStatus{LoanStatusOpen, LoanStatusOverdue, LoanStatusDefaulted}

func (s LoanStatus) Payable() bool {
	return s == LoanStatusOpen || s == LoanStatusOverdue || s == LoanStatusDefaulted
}

func (s LoanStatus) Terminal() bool {
	return s == LoanStatusClosed || s == LoanStatusWrittenOff || s == LoanStatusCancelled
}

func (s LoanStatus) Delinquent() bool {
	return s == LoanStatusOverdue || s == LoanStatusDefaulted
}

var transitions = map[LoanStatus][]LoanStatus{
	LoanStatusPending:   {LoanStatusOpen, LoanStatusCancelled},
	LoanStatusOpen:      {LoanStatusOverdue, LoanStatusClosed, LoanStatusCancelled},
	LoanStatusOverdue:   {LoanStatusDefaulted, LoanStatusOpen, LoanStatusClosed},
	LoanStatusDefaulted: {LoanStatusWrittenOff, LoanStatusOpen, LoanStatusClosed},
}

func (s LoanStatus) CanTransitionTo(next LoanStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type StructureType string

const (
	StructureLumpSum     StructureType = "LUMP_SUM"
	StructureInstallment StructureType = "INSTALLMENT"
)

func (t StructureType) Valid() bool {
	return t == StructureLumpSum || t == StructureInstallment
}

// Loan is the aggregate root. CurrentBalance always equals the principal plus
// applied fees minus applied payments.
type Loan struct {
	ID               string
	LoanCode         string
	CustomerID       string
	ProductID        string
	Principal        decimal.Decimal
	DisbursementDate time.Time
	DueDate          time.Time
	StructureType    StructureType
	Status           LoanStatus
	CurrentBalance   decimal.Decimal
	Description      string
	Version          int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type NewLoanParams struct {
	Principal        decimal.Decimal
	StructureType    StructureType
	Description      string
	DisbursementDate time.Time
}

// NewLoan opens a loan for customer under product. The due date is the
// disbursement date plus the product tenure, aligned to the customer's
// billing day when they use consolidated billing.
func NewLoan(customer *Customer, product *Product, p NewLoanParams) (*Loan, error) {
	if !p.Principal.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if !p.StructureType.Valid() {
		return nil, ErrInvalidStructureType
	}
	if !customer.CanBorrow(p.Principal) {
		return nil, ErrLoanLimitExceeded
	}
	if p.DisbursementDate.IsZero() {
		return nil, ValidationError("disbursement date is required")
	}

	disbursed := Date(p.DisbursementDate)
	dueDate := customer.AlignDueDate(AddTenure(disbursed, product.TenureType, product.TenureValue))

	now := time.Now()
	return &Loan{
		ID:               uuid.New().String(),
		LoanCode:         customer.Phone,
		CustomerID:       customer.ID,
		ProductID:        product.ID,
		Principal:        p.Principal,
		DisbursementDate: disbursed,
		DueDate:          dueDate,
		StructureType:    p.StructureType,
		Status:           LoanStatusOpen,
		CurrentBalance:   p.Principal,
		Description:      p.Description,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

func (l *Loan) IsInstallment() bool {
	return l.StructureType == StructureInstallment
}

// ApplyFee adds a fee amount to the balance. Fees never fail for balance
// reasons.
func (l *Loan) ApplyFee(amount decimal.Decimal) {
	l.CurrentBalance = l.CurrentBalance.Add(amount)
	l.UpdatedAt = time.Now()
}

func (l *Loan) ApplyPayment(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !l.Status.Payable() {
		return ErrLoanNotPayable
	}
	l.CurrentBalance = l.CurrentBalance.Sub(amount)
	l.UpdatedAt = time.Now()
	return nil
}

// TransitionTo moves the loan along the lifecycle graph and records reason
// as the description.
func (l *Loan) TransitionTo(next LoanStatus, reason string) error {
	if !l.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, l.Status, next)
	}
	l.Status = next
	if reason != "" {
		l.Description = reason
	}
	l.UpdatedAt = time.Now()
	return nil
}

// SettleAfterPayment recomputes the status once a payment has been applied.
// A non-positive balance closes the loan. A delinquent loan with no past-due
// unpaid installment is cured back to OPEN. It returns the previous status
// and whether the status changed.
func (l *Loan) SettleAfterPayment(hasPastDueUnpaid bool) (LoanStatus, bool) {
	prev := l.Status
	switch {
	case !l.CurrentBalance.IsPositive():
		l.Status = LoanStatusClosed
		l.Description = "Loan fully repaid"
	case l.Status.Delinquent() && !hasPastDueUnpaid:
		l.Status = LoanStatusOpen
		l.Description = "Loan brought current by payment"
	}
	if prev != l.Status {
		l.UpdatedAt = time.Now()
	}
	return prev, prev != l.Status
}

// DaysLate is how many days the loan is past its due date on date.
func (l *Loan) DaysLate(on time.Time) int {
	return DaysBetween(l.DueDate, on)
}

// PastDueBy reports whether dueDate < executionDate - thresholdDays.
func (l *Loan) PastDueBy(executionDate time.Time, thresholdDays int) bool {
	return l.DueDate.Before(ThresholdDate(executionDate, thresholdDays))
}

func ThresholdDate(executionDate time.Time, thresholdDays int) time.Time {
	return Date(executionDate).AddDate(0, 0, -thresholdDays)
}
