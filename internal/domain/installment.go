package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type InstallmentStatus string

const (
	InstallmentUnpaid        InstallmentStatus = "UNPAID"
	InstallmentPartiallyPaid InstallmentStatus = "PARTIALLY_PAID"
	InstallmentPaid          InstallmentStatus = "PAID"
	InstallmentOverdue       InstallmentStatus = "OVERDUE"
)

type Installment struct {
	ID         string
	LoanID     string
	Amount     decimal.Decimal
	AmountPaid decimal.Decimal
	DueDate    time.Time
	Status     InstallmentStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Outstanding is what remains to settle the installment.
func (i *Installment) Outstanding() decimal.Decimal {
	return i.Amount.Sub(i.AmountPaid)
}

// consume applies up to funds to the installment and returns what is left.
// markPartial controls whether an under-settled installment is flagged
// PARTIALLY_PAID.
func (i *Installment) consume(funds decimal.Decimal, markPartial bool) decimal.Decimal {
	due := i.Outstanding()
	if funds.GreaterThanOrEqual(due) {
		i.AmountPaid = i.Amount
		i.Status = InstallmentPaid
		i.UpdatedAt = time.Now()
		return funds.Sub(due)
	}
	i.AmountPaid = i.AmountPaid.Add(funds)
	if markPartial {
		i.Status = InstallmentPartiallyPaid
	}
	i.UpdatedAt = time.Now()
	return decimal.Zero
}

// GenerateSchedule splits balance into the product's installment count. The
// first generated due date is the loan due date and each further one is a
// month earlier, aligned to the customer's billing day when applicable. The
// result is sorted by due date ascending. The installment due on the loan
// due date absorbs the rounding remainder so the amounts sum to balance.
func GenerateSchedule(loan *Loan, product *Product, customer *Customer, balance decimal.Decimal) []*Installment {
	count := product.InstallmentCount()
	each := balance.Div(decimal.NewFromInt(int64(count))).Round(2)
	now := time.Now()

	schedule := make([]*Installment, 0, count)
	due := Date(loan.DueDate)
	for i := 0; i < count; i++ {
		if i > 0 {
			due = customer.AlignDueDate(AddMonths(due, -1))
		}
		schedule = append(schedule, &Installment{
			ID:         uuid.New().String(),
			LoanID:     loan.ID,
			Amount:     each,
			AmountPaid: decimal.Zero,
			DueDate:    due,
			Status:     InstallmentUnpaid,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}

	final := schedule[0]
	final.Amount = balance.Sub(each.Mul(decimal.NewFromInt(int64(count - 1))))

	SortByDueDate(schedule)
	return schedule
}

func SortByDueDate(installments []*Installment) {
	sort.SliceStable(installments, func(a, b int) bool {
		return installments[a].DueDate.Before(installments[b].DueDate)
	})
}

// Allocation is the outcome of running a payment through the waterfall.
type Allocation struct {
	Touched   []*Installment
	Unapplied decimal.Decimal
}

// Allocate runs the repayment waterfall: partially paid installments first,
// then unpaid ones, each by due date ascending. Installments in the partial
// pass keep their status when still under-settled; an unpaid installment
// that receives less than it owes becomes PARTIALLY_PAID. Funds left after
// both passes are returned as Unapplied.
func Allocate(partial, unpaid []*Installment, amount decimal.Decimal) Allocation {
	remaining := amount
	var touched []*Installment

	for _, pass := range []struct {
		installments []*Installment
		markPartial  bool
	}{
		{partial, false},
		{unpaid, true},
	} {
		ordered := append([]*Installment(nil), pass.installments...)
		SortByDueDate(ordered)
		for _, inst := range ordered {
			if !remaining.IsPositive() {
				break
			}
			remaining = inst.consume(remaining, pass.markPartial)
			touched = append(touched, inst)
		}
	}

	return Allocation{Touched: touched, Unapplied: remaining}
}
