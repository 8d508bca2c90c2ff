package dto

import (
	"github.com/gigmile/lending-service/internal/domain"
	"github.com/shopspring/decimal"
)

type CreateProductRequest struct {
	Name                   string `json:"name" validate:"required"`
	Description            string `json:"description"`
	TenureType             string `json:"tenure_type" validate:"required,oneof=DAYS MONTHS YEARS"`
	TenureValue            int    `json:"tenure_value" validate:"gt=0"`
	DaysAfterDueForLateFee int    `json:"days_after_due_for_late_fee" validate:"gte=0"`
	IsFixedTerm            bool   `json:"is_fixed_term"`
	NotificationsEnabled   bool   `json:"notifications_enabled"`
}

func (r *CreateProductRequest) Params() domain.NewProductParams {
	return domain.NewProductParams{
		Name:                   r.Name,
		Description:            r.Description,
		TenureType:             domain.TenureType(r.TenureType),
		TenureValue:            r.TenureValue,
		DaysAfterDueForLateFee: r.DaysAfterDueForLateFee,
		IsFixedTerm:            r.IsFixedTerm,
		NotificationsEnabled:   r.NotificationsEnabled,
	}
}

// CreateFeeRequest creates a fee definition. IsActive defaults to true.
type CreateFeeRequest struct {
	Name              string          `json:"name" validate:"required"`
	Type              string          `json:"type" validate:"required,oneof=SERVICE DAILY LATE_PAYMENT"`
	CalculationType   string          `json:"calculation_type" validate:"required,oneof=FIXED PERCENTAGE"`
	Value             decimal.Decimal `json:"value"`
	ApplicationTiming string          `json:"application_timing" validate:"omitempty,oneof=ORIGINATION POST_DISBURSEMENT"`
	Description       string          `json:"description"`
	IsActive          *bool           `json:"is_active"`
}

func (r *CreateFeeRequest) Params() domain.NewFeeParams {
	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}
	return domain.NewFeeParams{
		Name:              r.Name,
		Type:              domain.FeeType(r.Type),
		CalculationType:   domain.CalculationType(r.CalculationType),
		Value:             r.Value,
		ApplicationTiming: domain.ApplicationTiming(r.ApplicationTiming),
		Description:       r.Description,
		IsActive:          active,
	}
}

type FeeResponse struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	Type              string          `json:"type"`
	CalculationType   string          `json:"calculation_type"`
	Value             decimal.Decimal `json:"value"`
	ApplicationTiming string          `json:"application_timing"`
	Description       string          `json:"description,omitempty"`
	IsActive          bool            `json:"is_active"`
}

func NewFeeResponse(f *domain.Fee) FeeResponse {
	return FeeResponse{
		ID:                f.ID,
		Name:              f.Name,
		Type:              string(f.Type),
		CalculationType:   string(f.CalculationType),
		Value:             f.Value,
		ApplicationTiming: string(f.ApplicationTiming),
		Description:       f.Description,
		IsActive:          f.IsActive,
	}
}

type ProductResponse struct {
	ID                     string        `json:"id"`
	Name                   string        `json:"name"`
	Description            string        `json:"description,omitempty"`
	TenureType             string        `json:"tenure_type"`
	TenureValue            int           `json:"tenure_value"`
	DaysAfterDueForLateFee int           `json:"days_after_due_for_late_fee"`
	Status                 string        `json:"status"`
	IsFixedTerm            bool          `json:"is_fixed_term"`
	NotificationsEnabled   bool          `json:"notifications_enabled"`
	Fees                   []FeeResponse `json:"fees"`
}

func NewProductResponse(p *domain.Product) ProductResponse {
	fees := make([]FeeResponse, 0, len(p.Fees))
	for _, f := range p.Fees {
		fees = append(fees, NewFeeResponse(f))
	}
	return ProductResponse{
		ID:                     p.ID,
		Name:                   p.Name,
		Description:            p.Description,
		TenureType:             string(p.TenureType),
		TenureValue:            p.TenureValue,
		DaysAfterDueForLateFee: p.DaysAfterDueForLateFee,
		Status:                 string(p.Status),
		IsFixedTerm:            p.IsFixedTerm,
		NotificationsEnabled:   p.NotificationsEnabled,
		Fees:                   fees,
	}
}
