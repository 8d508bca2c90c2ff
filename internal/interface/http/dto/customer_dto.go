package dto

import (
	"time"

	"github.com/gigmile/lending-service/internal/domain"
	"github.com/shopspring/decimal"
)

type CreateCustomerRequest struct {
	FirstName           string          `json:"first_name" validate:"required"`
	MiddleName          string          `json:"middle_name"`
	LastName            string          `json:"last_name" validate:"required"`
	Email               string          `json:"email" validate:"omitempty,email"`
	Phone               string          `json:"phone" validate:"required"`
	IDNumber            string          `json:"id_number"`
	LoanLimit           decimal.Decimal `json:"loan_limit"`
	BillingCycle        string          `json:"billing_cycle" validate:"omitempty,oneof=INDIVIDUAL CONSOLIDATED"`
	PreferredBillingDay int             `json:"preferred_billing_day" validate:"gte=0,lte=31"`
	Channels            []string        `json:"channels" validate:"dive,oneof=EMAIL SMS PUSH"`
}

func (r *CreateCustomerRequest) Params() domain.NewCustomerParams {
	channels := make([]domain.NotificationChannel, 0, len(r.Channels))
	for _, ch := range r.Channels {
		channels = append(channels, domain.NotificationChannel(ch))
	}
	return domain.NewCustomerParams{
		FirstName:           r.FirstName,
		MiddleName:          r.MiddleName,
		LastName:            r.LastName,
		Email:               r.Email,
		Phone:               r.Phone,
		IDNumber:            r.IDNumber,
		LoanLimit:           r.LoanLimit,
		BillingCycle:        domain.BillingCycle(r.BillingCycle),
		PreferredBillingDay: r.PreferredBillingDay,
		Channels:            channels,
	}
}

type CustomerResponse struct {
	ID                  string          `json:"id"`
	FirstName           string          `json:"first_name"`
	MiddleName          string          `json:"middle_name,omitempty"`
	LastName            string          `json:"last_name"`
	Email               string          `json:"email,omitempty"`
	Phone               string          `json:"phone"`
	IDNumber            string          `json:"id_number,omitempty"`
	LoanLimit           decimal.Decimal `json:"loan_limit"`
	BillingCycle        string          `json:"billing_cycle"`
	PreferredBillingDay int             `json:"preferred_billing_day"`
	Status              string          `json:"status"`
	Channels            []string        `json:"channels"`
	CreatedAt           time.Time       `json:"created_at"`
}

func NewCustomerResponse(c *domain.Customer) CustomerResponse {
	channels := make([]string, 0, len(c.Channels))
	for _, ch := range c.Channels {
		channels = append(channels, string(ch))
	}
	return CustomerResponse{
		ID:                  c.ID,
		FirstName:           c.FirstName,
		MiddleName:          c.MiddleName,
		LastName:            c.LastName,
		Email:               c.Email,
		Phone:               c.Phone,
		IDNumber:            c.IDNumber,
		LoanLimit:           c.LoanLimit,
		BillingCycle:        string(c.BillingCycle),
		PreferredBillingDay: c.PreferredBillingDay,
		Status:              string(c.Status),
		Channels:            channels,
		CreatedAt:           c.CreatedAt,
	}
}
