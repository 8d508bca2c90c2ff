package handler

import (
	"net/http"

	"github.com/gigmile/lending-service/internal/interface/http/dto"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ScoringHandler struct {
	scoring ScoringService
	logger  *zap.Logger
}

func NewScoringHandler(scoring ScoringService, logger *zap.Logger) *ScoringHandler {
	return &ScoringHandler{
		scoring: scoring,
		logger:  logger,
	}
}

// InitiateScoring asks the scoring service to score a customer by phone.
func (h *ScoringHandler) InitiateScoring(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "id")

	token, err := h.scoring.InitiateScoring(r.Context(), customerID)
	if err != nil {
		respondError(w, h.logger, "failed to initiate scoring", err)
		return
	}

	respondJSON(w, http.StatusAccepted, dto.ScoringInitiatedResponse{
		CustomerID: customerID,
		Token:      token,
	})
}

// GetScore answers 202 while the score is still being computed.
func (h *ScoringHandler) GetScore(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	score, err := h.scoring.GetScore(r.Context(), token)
	if err != nil {
		respondError(w, h.logger, "failed to get score", err)
		return
	}

	status := http.StatusOK
	if score == nil {
		status = http.StatusAccepted
	}
	respondJSON(w, status, dto.NewScoreResponse(token, score))
}
