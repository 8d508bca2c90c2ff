package handler

import (
	"fmt"
	"net/http"

	"github.com/gigmile/lending-service/internal/application/command"
	"github.com/gigmile/lending-service/internal/application/service"
	"github.com/gigmile/lending-service/internal/interface/http/dto"
	"go.uber.org/zap"
)

type PaymentHandler struct {
	dispatcher Dispatcher
	logger     *zap.Logger
}

func NewPaymentHandler(dispatcher Dispatcher, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// RecordPayment handles an incoming remittance. A replayed payment code
// answers 200 with the stored payment instead of 201.
func (h *PaymentHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	var req dto.PaymentRequest
	if err := decode(r, &req); err != nil {
		respondError(w, h.logger, "invalid payment", err)
		return
	}

	paymentReq, err := req.ToService()
	if err != nil {
		respondError(w, h.logger, "invalid payment", err)
		return
	}

	result, err := h.dispatcher.Dispatch(r.Context(), command.RecordPaymentCommand{RecordPaymentRequest: paymentReq})
	if err != nil {
		h.logger.Warn("failed to record payment",
			zap.Error(err),
			zap.String("loan_code", req.LoanCode),
			zap.String("payment_code", req.PaymentCode),
		)
		respondError(w, h.logger, "failed to record payment", err)
		return
	}

	recorded, ok := result.(*service.RecordPaymentResult)
	if !ok {
		respondError(w, h.logger, "failed to record payment", fmt.Errorf("unexpected result %T", result))
		return
	}

	status := http.StatusCreated
	if recorded.Duplicate {
		status = http.StatusOK
	}
	respondJSON(w, status, dto.NewPaymentResponse(recorded))
}
