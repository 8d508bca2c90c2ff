package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// CreditScore is the scoring service's verdict on a customer.
type CreditScore struct {
	ID              int64           `json:"id"`
	CustomerNumber  string          `json:"customerNumber"`
	Score           int             `json:"score"`
	LimitAmount     decimal.Decimal `json:"limitAmount"`
	Exclusion       string          `json:"exclusion"`
	ExclusionReason string          `json:"exclusionReason"`
}

// ScoringClient talks to the external scoring service. GetScore returns a
// nil score and no error while the score is still being computed.
type ScoringClient interface {
	InitiateScoring(ctx context.Context, customerNumber string) (string, error)
	GetScore(ctx context.Context, token string) (*CreditScore, error)
}
