package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gigmile/lending-service/internal/domain"
	"github.com/gigmile/lending-service/internal/interface/http/dto"
	"go.uber.org/zap"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// respondError maps the engine's error categories to HTTP statuses. Anything
// uncategorised is a 500 and its detail stays in the log.
func respondError(w http.ResponseWriter, logger *zap.Logger, message string, err error) {
	status := statusFor(err)
	response := dto.ErrorResponse{Error: message}

	if status == http.StatusInternalServerError {
		logger.Error(message, zap.Error(err))
	} else if err != nil {
		response.Message = err.Error()
	}

	respondJSON(w, status, response)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrLimitExceeded):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrConflictingState):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUnsupportedOperation), errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// decode reads a JSON body into req and runs its validation tags.
func decode(r *http.Request, req interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		return domain.ValidationError("invalid request body: %v", err)
	}
	return dto.Validate(req)
}
