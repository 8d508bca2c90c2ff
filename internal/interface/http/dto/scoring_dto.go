package dto

import (
	"github.com/gigmile/lending-service/internal/domain"
	"github.com/shopspring/decimal"
)

type ScoringInitiatedResponse struct {
	CustomerID string `json:"customer_id"`
	Token      string `json:"token"`
}

// ScoreResponse carries the score once ready; Status is PENDING until then.
type ScoreResponse struct {
	Token           string           `json:"token"`
	Status          string           `json:"status"`
	ID              int64            `json:"id,omitempty"`
	CustomerNumber  string           `json:"customer_number,omitempty"`
	Score           int              `json:"score,omitempty"`
	LimitAmount     *decimal.Decimal `json:"limit_amount,omitempty"`
	Exclusion       string           `json:"exclusion,omitempty"`
	ExclusionReason string           `json:"exclusion_reason,omitempty"`
}

func NewScoreResponse(token string, score *domain.CreditScore) ScoreResponse {
	if score == nil {
		return ScoreResponse{Token: token, Status: "PENDING"}
	}
	return ScoreResponse{
		Token:           token,
		Status:          "READY",
		ID:              score.ID,
		CustomerNumber:  score.CustomerNumber,
		Score:           score.Score,
		LimitAmount:     &score.LimitAmount,
		Exclusion:       score.Exclusion,
		ExclusionReason: score.ExclusionReason,
	}
}
