package dto

import (
	"time"

	"github.com/gigmile/lending-service/internal/application/service"
	"github.com/gigmile/lending-service/internal/domain"
	"github.com/shopspring/decimal"
)

// CreateLoanRequest originates a loan. DisbursementDate defaults to today.
type CreateLoanRequest struct {
	CustomerID       string          `json:"customer_id" validate:"required"`
	ProductID        string          `json:"product_id" validate:"required"`
	Principal        decimal.Decimal `json:"principal"`
	StructureType    string          `json:"structure_type" validate:"required,oneof=LUMP_SUM INSTALLMENT"`
	Description      string          `json:"description"`
	DisbursementDate string          `json:"disbursement_date" validate:"omitempty,datetime=2006-01-02"`
}

func (r *CreateLoanRequest) ToService(now time.Time) (service.CreateLoanRequest, error) {
	disbursed, err := ParseDate(r.DisbursementDate, now)
	if err != nil {
		return service.CreateLoanRequest{}, err
	}
	return service.CreateLoanRequest{
		CustomerID:       r.CustomerID,
		ProductID:        r.ProductID,
		Principal:        r.Principal,
		StructureType:    domain.StructureType(r.StructureType),
		Description:      r.Description,
		DisbursementDate: disbursed,
	}, nil
}

type LoanResponse struct {
	ID               string          `json:"id"`
	LoanCode         string          `json:"loan_code"`
	CustomerID       string          `json:"customer_id"`
	ProductID        string          `json:"product_id"`
	Principal        decimal.Decimal `json:"principal"`
	CurrentBalance   decimal.Decimal `json:"current_balance"`
	StructureType    string          `json:"structure_type"`
	Status           string          `json:"status"`
	DisbursementDate string          `json:"disbursement_date"`
	DueDate          string          `json:"due_date"`
	Description      string          `json:"description,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

func NewLoanResponse(l *domain.Loan) LoanResponse {
	return LoanResponse{
		ID:               l.ID,
		LoanCode:         l.LoanCode,
		CustomerID:       l.CustomerID,
		ProductID:        l.ProductID,
		Principal:        l.Principal,
		CurrentBalance:   l.CurrentBalance,
		StructureType:    string(l.StructureType),
		Status:           string(l.Status),
		DisbursementDate: formatDate(l.DisbursementDate),
		DueDate:          formatDate(l.DueDate),
		Description:      l.Description,
		CreatedAt:        l.CreatedAt,
	}
}

type InstallmentResponse struct {
	ID         string          `json:"id"`
	Amount     decimal.Decimal `json:"amount"`
	AmountPaid decimal.Decimal `json:"amount_paid"`
	DueDate    string          `json:"due_date"`
	Status     string          `json:"status"`
}

type LoanFeeResponse struct {
	ID        string          `json:"id"`
	FeeID     string          `json:"fee_id"`
	Amount    decimal.Decimal `json:"amount"`
	AppliedAt string          `json:"applied_at"`
}

type LoanDetailsResponse struct {
	LoanResponse
	TotalPaid    decimal.Decimal         `json:"total_paid"`
	Installments []InstallmentResponse   `json:"installments"`
	Fees         []LoanFeeResponse       `json:"fees"`
	Payments     []PaymentRecordResponse `json:"payments"`
}

func NewLoanDetailsResponse(d *service.LoanDetails) LoanDetailsResponse {
	resp := LoanDetailsResponse{
		LoanResponse: NewLoanResponse(d.Loan),
		TotalPaid:    d.TotalPaid,
		Installments: make([]InstallmentResponse, 0, len(d.Installments)),
		Fees:         make([]LoanFeeResponse, 0, len(d.Fees)),
		Payments:     make([]PaymentRecordResponse, 0, len(d.Payments)),
	}
	for _, i := range d.Installments {
		resp.Installments = append(resp.Installments, InstallmentResponse{
			ID:         i.ID,
			Amount:     i.Amount,
			AmountPaid: i.AmountPaid,
			DueDate:    formatDate(i.DueDate),
			Status:     string(i.Status),
		})
	}
	for _, f := range d.Fees {
		resp.Fees = append(resp.Fees, LoanFeeResponse{
			ID:        f.ID,
			FeeID:     f.FeeID,
			Amount:    f.Amount,
			AppliedAt: formatDate(f.AppliedAt),
		})
	}
	for _, p := range d.Payments {
		resp.Payments = append(resp.Payments, NewPaymentRecordResponse(p))
	}
	return resp
}

type LoanStatusResponse struct {
	LoanID         string          `json:"loan_id"`
	LoanCode       string          `json:"loan_code"`
	Status         string          `json:"status"`
	CurrentBalance decimal.Decimal `json:"current_balance"`
	DueDate        string          `json:"due_date"`
}

func NewLoanStatusResponse(l *domain.Loan) LoanStatusResponse {
	return LoanStatusResponse{
		LoanID:         l.ID,
		LoanCode:       l.LoanCode,
		Status:         string(l.Status),
		CurrentBalance: l.CurrentBalance,
		DueDate:        formatDate(l.DueDate),
	}
}
