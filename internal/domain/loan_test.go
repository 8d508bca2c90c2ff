package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCustomer() *Customer {
	return &Customer{
		ID:           "cust-1",
		FirstName:    "Ada",
		LastName:     "Obi",
		Phone:        "254700000001",
		LoanLimit:    dec("1000"),
		BillingCycle: BillingCycleIndividual,
		Status:       CustomerStatusActive,
	}
}

func testProduct() *Product {
	return &Product{ID: "prod-1", Name: "Quick Loan", TenureType: TenureMonths, TenureValue: 3, Status: ProductStatusActive}
}

func TestNewLoan_Success(t *testing.T) {
	// Act
	loan, err := NewLoan(testCustomer(), testProduct(), NewLoanParams{
		Principal:        dec("900"),
		StructureType:    StructureInstallment,
		Description:      "school fees",
		DisbursementDate: day(2024, 1, 15),
	})

	// Assert
	require.NoError(t, err)
	assert.NotEmpty(t, loan.ID)
	assert.Equal(t, "254700000001", loan.LoanCode)
	assert.Equal(t, LoanStatusOpen, loan.Status)
	assert.True(t, loan.CurrentBalance.Equal(dec("900")))
	assert.Equal(t, day(2024, 4, 15), loan.DueDate)
	assert.Equal(t, day(2024, 1, 15), loan.DisbursementDate)
}

func TestNewLoan_AlignsDueDateForConsolidatedBilling(t *testing.T) {
	customer := testCustomer()
	customer.BillingCycle = BillingCycleConsolidated
	customer.PreferredBillingDay = 5

	loan, err := NewLoan(customer, testProduct(), NewLoanParams{
		Principal:        dec("500"),
		StructureType:    StructureLumpSum,
		DisbursementDate: day(2024, 1, 15),
	})

	require.NoError(t, err)
	assert.Equal(t, day(2024, 5, 5), loan.DueDate)
}

func TestNewLoan_LimitExceeded(t *testing.T) {
	_, err := NewLoan(testCustomer(), testProduct(), NewLoanParams{
		Principal:        dec("1000.01"),
		StructureType:    StructureLumpSum,
		DisbursementDate: day(2024, 1, 15),
	})

	assert.True(t, errors.Is(err, ErrLimitExceeded))
}

func TestNewLoan_RejectsNonPositivePrincipal(t *testing.T) {
	_, err := NewLoan(testCustomer(), testProduct(), NewLoanParams{
		Principal:        decimal.Zero,
		StructureType:    StructureLumpSum,
		DisbursementDate: day(2024, 1, 15),
	})

	assert.True(t, errors.Is(err, ErrValidation))
}

func TestLoanTransitions(t *testing.T) {
	loan := &Loan{Status: LoanStatusOpen}

	require.NoError(t, loan.TransitionTo(LoanStatusOverdue, "System identified loan as overdue"))
	assert.Equal(t, "System identified loan as overdue", loan.Description)
	require.NoError(t, loan.TransitionTo(LoanStatusDefaulted, "defaulted"))
	require.NoError(t, loan.TransitionTo(LoanStatusWrittenOff, "written off"))

	err := loan.TransitionTo(LoanStatusOpen, "")
	assert.True(t, errors.Is(err, ErrConflictingState))
	assert.Equal(t, LoanStatusWrittenOff, loan.Status)
}

func TestLoanTransitions_NoSkippingStates(t *testing.T) {
	loan := &Loan{Status: LoanStatusOpen}

	assert.Error(t, loan.TransitionTo(LoanStatusDefaulted, ""))
	assert.Error(t, loan.TransitionTo(LoanStatusWrittenOff, ""))
	assert.Equal(t, LoanStatusOpen, loan.Status)
}

func TestApplyPayment_RejectsClosedLoan(t *testing.T) {
	loan := &Loan{Status: LoanStatusClosed, CurrentBalance: decimal.Zero}

	err := loan.ApplyPayment(dec("10"))

	assert.True(t, errors.Is(err, ErrLoanNotPayable))
}

func TestSettleAfterPayment(t *testing.T) {
	tests := []struct {
		name        string
		status      LoanStatus
		balance     string
		pastDue     bool
		want        LoanStatus
		wantChanged bool
	}{
		{"paid off closes", LoanStatusOpen, "0", false, LoanStatusClosed, true},
		{"overpaid closes", LoanStatusOverdue, "-5", true, LoanStatusClosed, true},
		{"open stays open", LoanStatusOpen, "100", false, LoanStatusOpen, false},
		{"overdue cured", LoanStatusOverdue, "100", false, LoanStatusOpen, true},
		{"defaulted cured", LoanStatusDefaulted, "100", false, LoanStatusOpen, true},
		{"overdue with arrears stays", LoanStatusOverdue, "100", true, LoanStatusOverdue, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loan := &Loan{Status: tt.status, CurrentBalance: dec(tt.balance)}

			prev, changed := loan.SettleAfterPayment(tt.pastDue)

			assert.Equal(t, tt.status, prev)
			assert.Equal(t, tt.wantChanged, changed)
			assert.Equal(t, tt.want, loan.Status)
		})
	}
}

func TestPastDueBy(t *testing.T) {
	loan := &Loan{DueDate: day(2024, 3, 1)}

	assert.False(t, loan.PastDueBy(day(2024, 3, 2), 1))
	assert.True(t, loan.PastDueBy(day(2024, 3, 3), 1))
	assert.False(t, loan.PastDueBy(day(2024, 3, 31), 30))
	assert.True(t, loan.PastDueBy(day(2024, 4, 1), 30))
}

func TestFeeAmountFor(t *testing.T) {
	fixed := &Fee{CalculationType: CalculationFixed, Value: dec("30")}
	pct := &Fee{CalculationType: CalculationPercentage, Value: dec("0.02")}

	assert.True(t, fixed.AmountFor(dec("900")).Equal(dec("30")))
	assert.True(t, pct.AmountFor(dec("900")).Equal(dec("18")))
}

func TestProductFeeSelection(t *testing.T) {
	service := &Fee{ID: "svc", Type: FeeTypeService, IsActive: true}
	inactive := &Fee{ID: "old", Type: FeeTypeService, IsActive: false}
	late := &Fee{ID: "late", Type: FeeTypeLatePayment, IsActive: true}
	product := &Product{Fees: []*Fee{service, inactive, late}}

	assert.Equal(t, []*Fee{service}, product.OriginationFees())
	assert.Equal(t, []*Fee{late}, product.LateFees())
}
