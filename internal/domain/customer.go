package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CustomerStatus string

const (
	CustomerStatusActive   CustomerStatus = "ACTIVE"
	CustomerStatusInactive CustomerStatus = "INACTIVE"
	CustomerStatusBlocked  CustomerStatus = "BLOCKED"
)

type BillingCycle string

const (
	BillingCycleIndividual   BillingCycle = "INDIVIDUAL"
	BillingCycleConsolidated BillingCycle = "CONSOLIDATED"
)

// Customer is the borrower. LoanLimit caps the principal of any single loan.
type Customer struct {
	ID                  string
	FirstName           string
	MiddleName          string
	LastName            string
	Email               string
	Phone               string
	IDNumber            string
	LoanLimit           decimal.Decimal
	BillingCycle        BillingCycle
	PreferredBillingDay int
	Status              CustomerStatus
	Channels            []NotificationChannel
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

type NewCustomerParams struct {
	FirstName           string
	MiddleName          string
	LastName            string
	Email               string
	Phone               string
	IDNumber            string
	LoanLimit           decimal.Decimal
	BillingCycle        BillingCycle
	PreferredBillingDay int
	Channels            []NotificationChannel
}

func NewCustomer(p NewCustomerParams) (*Customer, error) {
	if strings.TrimSpace(p.FirstName) == "" || strings.TrimSpace(p.LastName) == "" {
		return nil, ValidationError("first and last name are required")
	}
	if strings.TrimSpace(p.Phone) == "" {
		return nil, ValidationError("phone is required")
	}
	if p.LoanLimit.IsNegative() {
		return nil, ValidationError("loan limit cannot be negative")
	}
	if p.PreferredBillingDay < 0 || p.PreferredBillingDay > 31 {
		return nil, ErrInvalidBillingDay
	}
	cycle := p.BillingCycle
	if cycle == "" {
		cycle = BillingCycleIndividual
	}
	if cycle != BillingCycleIndividual && cycle != BillingCycleConsolidated {
		return nil, ValidationError("unknown billing cycle %q", cycle)
	}
	for _, ch := range p.Channels {
		if !ch.Valid() {
			return nil, ValidationError("unknown notification channel %q", ch)
		}
	}

	now := time.Now()
	return &Customer{
		ID:                  uuid.New().String(),
		FirstName:           p.FirstName,
		MiddleName:          p.MiddleName,
		LastName:            p.LastName,
		Email:               p.Email,
		Phone:               p.Phone,
		IDNumber:            p.IDNumber,
		LoanLimit:           p.LoanLimit,
		BillingCycle:        cycle,
		PreferredBillingDay: p.PreferredBillingDay,
		Status:              CustomerStatusActive,
		Channels:            p.Channels,
		CreatedAt:           now,
		UpdatedAt:           now,
	}, nil
}

func (c *Customer) FullName() string {
	parts := []string{c.FirstName}
	if c.MiddleName != "" {
		parts = append(parts, c.MiddleName)
	}
	parts = append(parts, c.LastName)
	return strings.Join(parts, " ")
}

// AlignsBilling reports whether due dates snap to the preferred billing day.
func (c *Customer) AlignsBilling() bool {
	return c.BillingCycle == BillingCycleConsolidated && c.PreferredBillingDay > 0
}

// AlignDueDate applies billing-day alignment when the customer uses it.
func (c *Customer) AlignDueDate(candidate time.Time) time.Time {
	if !c.AlignsBilling() {
		return Date(candidate)
	}
	return AlignToBillingDay(candidate, c.PreferredBillingDay)
}

func (c *Customer) CanBorrow(principal decimal.Decimal) bool {
	return principal.LessThanOrEqual(c.LoanLimit)
}
