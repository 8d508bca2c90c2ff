package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ProductStatus string

const (
	ProductStatusActive     ProductStatus = "ACTIVE"
	ProductStatusInactive   ProductStatus = "INACTIVE"
	ProductStatusDeprecated ProductStatus = "DEPRECATED"
)

type FeeType string

const (
	FeeTypeService     FeeType = "SERVICE"
	FeeTypeDaily       FeeType = "DAILY"
	FeeTypeLatePayment FeeType = "LATE_PAYMENT"
)

type CalculationType string

const (
	CalculationFixed      CalculationType = "FIXED"
	CalculationPercentage CalculationType = "PERCENTAGE"
)

type ApplicationTiming string

const (
	TimingOrigination      ApplicationTiming = "ORIGINATION"
	TimingPostDisbursement ApplicationTiming = "POST_DISBURSEMENT"
)

// Product defines the repayment term and the fee set of the loans issued
// under it.
type Product struct {
	ID                     string
	Name                   string
	Description            string
	TenureType             TenureType
	TenureValue            int
	DaysAfterDueForLateFee int
	Status                 ProductStatus
	IsFixedTerm            bool
	NotificationsEnabled   bool
	Fees                   []*Fee
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

type NewProductParams struct {
	Name                   string
	Description            string
	TenureType             TenureType
	TenureValue            int
	DaysAfterDueForLateFee int
	IsFixedTerm            bool
	NotificationsEnabled   bool
}

func NewProduct(p NewProductParams) (*Product, error) {
	if strings.TrimSpace(p.Name) == "" {
		return nil, ValidationError("product name is required")
	}
	if !p.TenureType.Valid() {
		return nil, ValidationError("unknown tenure type %q", p.TenureType)
	}
	if p.TenureValue <= 0 {
		return nil, ErrInvalidTenure
	}
	if p.DaysAfterDueForLateFee < 0 {
		return nil, ValidationError("late fee grace days cannot be negative")
	}

	now := time.Now()
	return &Product{
		ID:                     uuid.New().String(),
		Name:                   p.Name,
		Description:            p.Description,
		TenureType:             p.TenureType,
		TenureValue:            p.TenureValue,
		DaysAfterDueForLateFee: p.DaysAfterDueForLateFee,
		Status:                 ProductStatusActive,
		IsFixedTerm:            p.IsFixedTerm,
		NotificationsEnabled:   p.NotificationsEnabled,
		CreatedAt:              now,
		UpdatedAt:              now,
	}, nil
}

// OriginationFees returns the active fees charged when a loan is created.
// Late-payment fees are reserved for the late-fee batch.
func (p *Product) OriginationFees() []*Fee {
	var fees []*Fee
	for _, f := range p.Fees {
		if f.IsActive && f.Type != FeeTypeLatePayment {
			fees = append(fees, f)
		}
	}
	return fees
}

func (p *Product) LateFees() []*Fee {
	var fees []*Fee
	for _, f := range p.Fees {
		if f.IsActive && f.Type == FeeTypeLatePayment {
			fees = append(fees, f)
		}
	}
	return fees
}

// InstallmentCount derives the number of monthly installments from the tenure.
func (p *Product) InstallmentCount() int {
	switch p.TenureType {
	case TenureDays:
		if n := p.TenureValue / 30; n > 1 {
			return n
		}
		return 1
	case TenureMonths:
		return p.TenureValue
	case TenureYears:
		return p.TenureValue * 12
	}
	return 1
}

// Fee is a fee definition. For PERCENTAGE fees Value is a fraction of the
// principal (0.02 means 2%).
type Fee struct {
	ID                string
	Name              string
	Type              FeeType
	CalculationType   CalculationType
	Value             decimal.Decimal
	ApplicationTiming ApplicationTiming
	Description       string
	IsActive          bool
	CreatedAt         time.Time
}

type NewFeeParams struct {
	Name              string
	Type              FeeType
	CalculationType   CalculationType
	Value             decimal.Decimal
	ApplicationTiming ApplicationTiming
	Description       string
	IsActive          bool
}

func NewFee(p NewFeeParams) (*Fee, error) {
	if strings.TrimSpace(p.Name) == "" {
		return nil, ValidationError("fee name is required")
	}
	switch p.Type {
	case FeeTypeService, FeeTypeDaily, FeeTypeLatePayment:
	default:
		return nil, ValidationError("unknown fee type %q", p.Type)
	}
	switch p.CalculationType {
	case CalculationFixed:
		if !p.Value.IsPositive() {
			return nil, ErrInvalidFeeValue
		}
	case CalculationPercentage:
		if !p.Value.IsPositive() || p.Value.GreaterThan(decimal.NewFromInt(1)) {
			return nil, ErrInvalidFeeValue
		}
	default:
		return nil, ErrInvalidCalculation
	}
	timing := p.ApplicationTiming
	if timing == "" {
		timing = TimingOrigination
	}

	return &Fee{
		ID:                uuid.New().String(),
		Name:              p.Name,
		Type:              p.Type,
		CalculationType:   p.CalculationType,
		Value:             p.Value,
		ApplicationTiming: timing,
		Description:       p.Description,
		IsActive:          p.IsActive,
		CreatedAt:         time.Now(),
	}, nil
}

// AmountFor computes the fee charged on a loan of the given principal.
func (f *Fee) AmountFor(principal decimal.Decimal) decimal.Decimal {
	if f.CalculationType == CalculationPercentage {
		return principal.Mul(f.Value).Round(2)
	}
	return f.Value
}

// LoanFee records one application of a fee to a loan. Immutable.
type LoanFee struct {
	ID        string
	LoanID    string
	FeeID     string
	Amount    decimal.Decimal
	AppliedAt time.Time
}

func NewLoanFee(loanID, feeID string, amount decimal.Decimal, appliedAt time.Time) *LoanFee {
	return &LoanFee{
		ID:        uuid.New().String(),
		LoanID:    loanID,
		FeeID:     feeID,
		Amount:    amount,
		AppliedAt: Date(appliedAt),
	}
}
