package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type CustomerRepository interface {
	FindByID(ctx context.Context, id string) (*Customer, error)
	// FindByIDForUpdate reads the customer from the store of record and locks
	// the row until the surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, id string) (*Customer, error)
	Create(ctx context.Context, customer *Customer) error
	ExistsByContact(ctx context.Context, email, phone, idNumber string) (bool, error)
}

type ProductRepository interface {
	FindByID(ctx context.Context, id string) (*Product, error)
	Create(ctx context.Context, product *Product) error
	CreateFee(ctx context.Context, fee *Fee) error
	FindFeeByID(ctx context.Context, id string) (*Fee, error)
	AttachFee(ctx context.Context, productID, feeID string) error
	HasFee(ctx context.Context, productID, feeID string) (bool, error)
}

type LoanRepository interface {
	Create(ctx context.Context, loan *Loan) error
	Save(ctx context.Context, loan *Loan) error
	FindByID(ctx context.Context, id string) (*Loan, error)
	// FindByIDForUpdate locks the loan row for the surrounding transaction.
	FindByIDForUpdate(ctx context.Context, id string) (*Loan, error)
	// FindPayableByCodeForUpdate returns the locked loan for code in one of
	// the payable statuses.
	FindPayableByCodeForUpdate(ctx context.Context, code string) (*Loan, error)
	FindLatestByCode(ctx context.Context, code string) (*Loan, error)
	ExistsByCustomerAndStatuses(ctx context.Context, customerID string, statuses []LoanStatus) (bool, error)
	FindByStatusAndDueDateBefore(ctx context.Context, status LoanStatus, before time.Time) ([]*Loan, error)
	FindByStatusAndDueDateBetween(ctx context.Context, status LoanStatus, from, to time.Time) ([]*Loan, error)
}

type InstallmentRepository interface {
	CreateBatch(ctx context.Context, installments []*Installment) error
	SaveAll(ctx context.Context, installments []*Installment) error
	FindByLoanID(ctx context.Context, loanID string) ([]*Installment, error)
	FindByLoanAndStatus(ctx context.Context, loanID string, status InstallmentStatus) ([]*Installment, error)
	CountByLoanStatusDueBefore(ctx context.Context, loanID string, status InstallmentStatus, before time.Time) (int64, error)
	// FindDueBetween returns installments in status whose loan is in
	// loanStatus and whose due date is within [from, to].
	FindDueBetween(ctx context.Context, loanStatus LoanStatus, status InstallmentStatus, from, to time.Time) ([]*Installment, error)
}

type PaymentRepository interface {
	Save(ctx context.Context, payment *Payment) error
	FindByPaymentCode(ctx context.Context, code string) (*Payment, error)
	FindByLoanID(ctx context.Context, loanID string) ([]*Payment, error)
	SumCompletedByLoanID(ctx context.Context, loanID string) (decimal.Decimal, error)
}

type LoanFeeRepository interface {
	Create(ctx context.Context, loanFee *LoanFee) error
	Exists(ctx context.Context, loanID, feeID string, appliedAt time.Time) (bool, error)
	FindByLoanID(ctx context.Context, loanID string) ([]*LoanFee, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, notification *Notification) error
	FindByLoanID(ctx context.Context, loanID string) ([]*Notification, error)
}

// Transactor runs fn in a single store transaction. Repositories called with
// the ctx passed to fn take part in it.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// BatchLocker grants a leased mutual-exclusion lock per batch name.
type BatchLocker interface {
	TryLock(ctx context.Context, name string, ttl time.Duration) (release func(context.Context) error, acquired bool, err error)
}
