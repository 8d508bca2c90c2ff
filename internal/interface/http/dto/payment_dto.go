package dto

import (
	"time"

	"github.com/gigmile/lending-service/internal/application/service"
	"github.com/gigmile/lending-service/internal/domain"
	"github.com/shopspring/decimal"
)

type PaymentRequest struct {
	LoanCode    string          `json:"loan_code" validate:"required"`
	Amount      decimal.Decimal `json:"amount"`
	Method      string          `json:"method" validate:"required,oneof=BANK_TRANSFER CARD MOBILE_MONEY CASH"`
	PaymentCode string          `json:"payment_code" validate:"required"`
	PaymentDate string          `json:"payment_date" validate:"required,datetime=2006-01-02"`
}

func (r *PaymentRequest) ToService() (service.RecordPaymentRequest, error) {
	paidOn, err := time.Parse(DateLayout, r.PaymentDate)
	if err != nil {
		return service.RecordPaymentRequest{}, domain.ValidationError("invalid payment date %q", r.PaymentDate)
	}
	return service.RecordPaymentRequest{
		LoanCode:    r.LoanCode,
		Amount:      r.Amount,
		Method:      domain.PaymentMethod(r.Method),
		PaymentCode: r.PaymentCode,
		PaymentDate: paidOn,
	}, nil
}

type PaymentRecordResponse struct {
	ID          string          `json:"id"`
	LoanID      string          `json:"loan_id"`
	Amount      decimal.Decimal `json:"amount"`
	PaymentDate string          `json:"payment_date"`
	Method      string          `json:"method"`
	Status      string          `json:"status"`
	PaymentCode string          `json:"payment_code"`
}

func NewPaymentRecordResponse(p *domain.Payment) PaymentRecordResponse {
	return PaymentRecordResponse{
		ID:          p.ID,
		LoanID:      p.LoanID,
		Amount:      p.Amount,
		PaymentDate: formatDate(p.PaymentDate),
		Method:      string(p.Method),
		Status:      string(p.Status),
		PaymentCode: p.PaymentCode,
	}
}

type PaymentResponse struct {
	Payment        PaymentRecordResponse `json:"payment"`
	LoanStatus     string                `json:"loan_status"`
	PreviousStatus string                `json:"previous_status,omitempty"`
	CurrentBalance decimal.Decimal       `json:"current_balance"`
	Unapplied      decimal.Decimal       `json:"unapplied"`
	Duplicate      bool                  `json:"duplicate"`
}

func NewPaymentResponse(r *service.RecordPaymentResult) PaymentResponse {
	resp := PaymentResponse{
		Payment:        NewPaymentRecordResponse(r.Payment),
		PreviousStatus: string(r.PreviousStatus),
		Unapplied:      r.Unapplied,
		Duplicate:      r.Duplicate,
	}
	if r.Loan != nil {
		resp.LoanStatus = string(r.Loan.Status)
		resp.CurrentBalance = r.Loan.CurrentBalance
	}
	return resp
}
