package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gigmile/lending-service/internal/application/command"
	"github.com/gigmile/lending-service/internal/application/service"
	"github.com/gigmile/lending-service/internal/interface/http/dto"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type LoanHandler struct {
	loans      LoanQueryService
	dispatcher Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

func NewLoanHandler(loans LoanQueryService, dispatcher Dispatcher, logger *zap.Logger) *LoanHandler {
	return &LoanHandler{
		loans:      loans,
		dispatcher: dispatcher,
		logger:     logger,
		now:        time.Now,
	}
}

// CreateLoan originates a loan through the CREATE_LOAN command.
func (h *LoanHandler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateLoanRequest
	if err := decode(r, &req); err != nil {
		respondError(w, h.logger, "invalid loan request", err)
		return
	}

	createReq, err := req.ToService(h.now().UTC())
	if err != nil {
		respondError(w, h.logger, "invalid loan request", err)
		return
	}

	result, err := h.dispatcher.Dispatch(r.Context(), command.CreateLoanCommand{CreateLoanRequest: createReq})
	if err != nil {
		h.logger.Warn("failed to create loan",
			zap.Error(err),
			zap.String("customer_id", req.CustomerID),
			zap.String("product_id", req.ProductID),
		)
		respondError(w, h.logger, "failed to create loan", err)
		return
	}

	details, ok := result.(*service.LoanDetails)
	if !ok {
		respondError(w, h.logger, "failed to create loan", fmt.Errorf("unexpected result %T", result))
		return
	}

	respondJSON(w, http.StatusCreated, dto.NewLoanDetailsResponse(details))
}

func (h *LoanHandler) GetLoan(w http.ResponseWriter, r *http.Request) {
	details, err := h.loans.GetLoan(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, h.logger, "failed to get loan", err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewLoanDetailsResponse(details))
}

// GetLoanStatus returns the most recent loan issued under a loan code.
func (h *LoanHandler) GetLoanStatus(w http.ResponseWriter, r *http.Request) {
	loan, err := h.loans.GetLoanStatus(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		respondError(w, h.logger, "failed to get loan status", err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewLoanStatusResponse(loan))
}
