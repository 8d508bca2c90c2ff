package dto

// BatchJobRequest triggers one batch pass. An empty ExecutionDate means
// today and a nil ThresholdDays means the configured threshold.
type BatchJobRequest struct {
	ExecutionDate string `json:"execution_date" validate:"omitempty,datetime=2006-01-02"`
	ThresholdDays *int   `json:"threshold_days" validate:"omitempty,gte=0"`
}
