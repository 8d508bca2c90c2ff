package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func sumAmounts(installments []*Installment) decimal.Decimal {
	total := decimal.Zero
	for _, inst := range installments {
		total = total.Add(inst.Amount)
	}
	return total
}

func TestInstallmentCount(t *testing.T) {
	tests := []struct {
		tenure TenureType
		value  int
		want   int
	}{
		{TenureDays, 14, 1},
		{TenureDays, 45, 1},
		{TenureDays, 90, 3},
		{TenureMonths, 6, 6},
		{TenureYears, 1, 12},
		{TenureYears, 2, 24},
	}

	for _, tt := range tests {
		p := &Product{TenureType: tt.tenure, TenureValue: tt.value}
		assert.Equal(t, tt.want, p.InstallmentCount(), "%s %d", tt.tenure, tt.value)
	}
}

func TestGenerateSchedule_EvenSplit(t *testing.T) {
	// Arrange
	customer := &Customer{BillingCycle: BillingCycleIndividual}
	product := &Product{TenureType: TenureMonths, TenureValue: 3}
	loan := &Loan{ID: "loan-1", DueDate: day(2024, 4, 15)}

	// Act
	schedule := GenerateSchedule(loan, product, customer, dec("930"))

	// Assert
	require.Len(t, schedule, 3)
	assert.Equal(t, day(2024, 2, 15), schedule[0].DueDate)
	assert.Equal(t, day(2024, 3, 15), schedule[1].DueDate)
	assert.Equal(t, day(2024, 4, 15), schedule[2].DueDate)
	for _, inst := range schedule {
		assert.True(t, inst.Amount.Equal(dec("310")), "amount %s", inst.Amount)
		assert.True(t, inst.AmountPaid.IsZero())
		assert.Equal(t, InstallmentUnpaid, inst.Status)
		assert.Equal(t, "loan-1", inst.LoanID)
	}
}

func TestGenerateSchedule_FinalInstallmentAbsorbsRemainder(t *testing.T) {
	customer := &Customer{BillingCycle: BillingCycleIndividual}
	product := &Product{TenureType: TenureMonths, TenureValue: 3}
	loan := &Loan{ID: "loan-1", DueDate: day(2024, 4, 15)}

	schedule := GenerateSchedule(loan, product, customer, dec("100"))

	require.Len(t, schedule, 3)
	assert.True(t, schedule[0].Amount.Equal(dec("33.33")))
	assert.True(t, schedule[1].Amount.Equal(dec("33.33")))
	assert.True(t, schedule[2].Amount.Equal(dec("33.34")))
	assert.True(t, sumAmounts(schedule).Equal(dec("100")))
}

func TestGenerateSchedule_RoundsHalfUp(t *testing.T) {
	customer := &Customer{BillingCycle: BillingCycleIndividual}
	product := &Product{TenureType: TenureMonths, TenureValue: 2}
	loan := &Loan{DueDate: day(2024, 4, 15)}

	schedule := GenerateSchedule(loan, product, customer, dec("100.01"))

	require.Len(t, schedule, 2)
	// 50.005 rounds up to 50.01; the last takes 50.00.
	assert.True(t, schedule[0].Amount.Equal(dec("50.01")))
	assert.True(t, schedule[1].Amount.Equal(dec("50.00")))
}

func TestGenerateSchedule_ConsolidatedBillingAlignsEachDueDate(t *testing.T) {
	customer := &Customer{BillingCycle: BillingCycleConsolidated, PreferredBillingDay: 31}
	product := &Product{TenureType: TenureMonths, TenureValue: 3}
	loan := &Loan{DueDate: day(2024, 4, 30)}

	schedule := GenerateSchedule(loan, product, customer, dec("300"))

	require.Len(t, schedule, 3)
	assert.Equal(t, day(2024, 2, 29), schedule[0].DueDate)
	assert.Equal(t, day(2024, 3, 31), schedule[1].DueDate)
	assert.Equal(t, day(2024, 4, 30), schedule[2].DueDate)
}

func TestGenerateSchedule_SingleInstallmentForShortDayTenure(t *testing.T) {
	customer := &Customer{}
	product := &Product{TenureType: TenureDays, TenureValue: 14}
	loan := &Loan{DueDate: day(2024, 1, 15)}

	schedule := GenerateSchedule(loan, product, customer, dec("512.50"))

	require.Len(t, schedule, 1)
	assert.True(t, schedule[0].Amount.Equal(dec("512.50")))
	assert.Equal(t, day(2024, 1, 15), schedule[0].DueDate)
}

func TestAllocate_PartialBeforeUnpaid(t *testing.T) {
	// Arrange
	a := &Installment{ID: "A", Amount: dec("100"), AmountPaid: dec("70"), DueDate: day(2024, 1, 1), Status: InstallmentPartiallyPaid}
	b := &Installment{ID: "B", Amount: dec("100"), AmountPaid: decimal.Zero, DueDate: day(2024, 2, 1), Status: InstallmentUnpaid}

	// Act
	result := Allocate([]*Installment{a}, []*Installment{b}, dec("50"))

	// Assert
	assert.Equal(t, InstallmentPaid, a.Status)
	assert.True(t, a.AmountPaid.Equal(dec("100")))
	assert.Equal(t, InstallmentPartiallyPaid, b.Status)
	assert.True(t, b.AmountPaid.Equal(dec("20")))
	assert.True(t, result.Unapplied.IsZero())
	assert.Len(t, result.Touched, 2)
}

func TestAllocate_OrdersByDueDate(t *testing.T) {
	later := &Installment{ID: "later", Amount: dec("100"), AmountPaid: decimal.Zero, DueDate: day(2024, 3, 1), Status: InstallmentUnpaid}
	earlier := &Installment{ID: "earlier", Amount: dec("100"), AmountPaid: decimal.Zero, DueDate: day(2024, 2, 1), Status: InstallmentUnpaid}

	result := Allocate(nil, []*Installment{later, earlier}, dec("100"))

	assert.Equal(t, InstallmentPaid, earlier.Status)
	assert.Equal(t, InstallmentUnpaid, later.Status)
	require.Len(t, result.Touched, 1)
	assert.Equal(t, "earlier", result.Touched[0].ID)
}

func TestAllocate_PartialPassKeepsStatus(t *testing.T) {
	a := &Installment{Amount: dec("100"), AmountPaid: dec("20"), DueDate: day(2024, 1, 1), Status: InstallmentPartiallyPaid}
	b := &Installment{Amount: dec("100"), AmountPaid: decimal.Zero, DueDate: day(2024, 2, 1), Status: InstallmentUnpaid}

	result := Allocate([]*Installment{a}, []*Installment{b}, dec("10"))

	assert.Equal(t, InstallmentPartiallyPaid, a.Status)
	assert.True(t, a.AmountPaid.Equal(dec("30")))
	assert.Equal(t, InstallmentUnpaid, b.Status)
	assert.True(t, b.AmountPaid.IsZero())
	assert.True(t, result.Unapplied.IsZero())
}

func TestAllocate_Overpayment(t *testing.T) {
	a := &Installment{Amount: dec("310"), AmountPaid: decimal.Zero, DueDate: day(2024, 2, 15), Status: InstallmentUnpaid}

	result := Allocate(nil, []*Installment{a}, dec("400"))

	assert.Equal(t, InstallmentPaid, a.Status)
	assert.True(t, result.Unapplied.Equal(dec("90")))
}

func TestAllocate_ExactPaymentLeavesNothing(t *testing.T) {
	a := &Installment{Amount: dec("310"), AmountPaid: decimal.Zero, DueDate: day(2024, 2, 15), Status: InstallmentUnpaid}
	b := &Installment{Amount: dec("310"), AmountPaid: decimal.Zero, DueDate: day(2024, 3, 15), Status: InstallmentUnpaid}

	result := Allocate(nil, []*Installment{a, b}, dec("310"))

	assert.Equal(t, InstallmentPaid, a.Status)
	assert.Equal(t, InstallmentUnpaid, b.Status)
	assert.Len(t, result.Touched, 1)
	assert.True(t, result.Unapplied.IsZero())
}
