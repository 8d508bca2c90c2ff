package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gigmile/lending-service/internal/application/command"
	"github.com/gigmile/lending-service/internal/application/service"
	"github.com/gigmile/lending-service/internal/domain"
	"github.com/gigmile/lending-service/internal/interface/http/dto"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// JobHandler runs a batch pass on demand, for back-fills and re-runs.
type JobHandler struct {
	dispatcher Dispatcher
	defaults   map[command.Operation]int
	logger     *zap.Logger
	now        func() time.Time
}

func NewJobHandler(dispatcher Dispatcher, defaults map[command.Operation]int, logger *zap.Logger) *JobHandler {
	return &JobHandler{
		dispatcher: dispatcher,
		defaults:   defaults,
		logger:     logger,
		now:        time.Now,
	}
}

func (h *JobHandler) RunJob(w http.ResponseWriter, r *http.Request) {
	op, err := command.ParseOperation(chi.URLParam(r, "operation"))
	if err != nil {
		respondError(w, h.logger, "unknown operation", err)
		return
	}

	// The body is optional.
	var req dto.BatchJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, h.logger, "invalid job request", domain.ValidationError("invalid request body: %v", err))
		return
	}
	if err := dto.Validate(&req); err != nil {
		respondError(w, h.logger, "invalid job request", err)
		return
	}

	executionDate, err := dto.ParseDate(req.ExecutionDate, h.now().UTC())
	if err != nil {
		respondError(w, h.logger, "invalid job request", err)
		return
	}
	threshold := h.defaults[op]
	if req.ThresholdDays != nil {
		threshold = *req.ThresholdDays
	}

	cmd, err := command.NewBatchCommand(op, executionDate, threshold)
	if err != nil {
		respondError(w, h.logger, "invalid job request", err)
		return
	}

	h.logger.Info("batch job requested",
		zap.String("operation", string(op)),
		zap.Time("execution_date", cmd.ExecutionDate),
		zap.Int("threshold_days", threshold),
	)

	result, err := h.dispatcher.Dispatch(r.Context(), cmd)
	if err != nil {
		respondError(w, h.logger, "batch job failed", err)
		return
	}

	batch, ok := result.(*service.BatchResult)
	if !ok {
		respondError(w, h.logger, "batch job failed", fmt.Errorf("unexpected result %T", result))
		return
	}
	respondJSON(w, http.StatusOK, batch)
}
