package service

import (
	"context"
	"fmt"

	"github.com/gigmile/lending-service/internal/domain"
	"go.uber.org/zap"
)

type ScoringService struct {
	customerRepo domain.CustomerRepository
	client       domain.ScoringClient
	logger       *zap.Logger
}

func NewScoringService(customerRepo domain.CustomerRepository, client domain.ScoringClient, logger *zap.Logger) *ScoringService {
	return &ScoringService{
		customerRepo: customerRepo,
		client:       client,
		logger:       logger,
	}
}

// InitiateScoring starts a scoring run for the customer and returns the token
// to poll with. The customer's phone is their number with the scoring service.
func (s *ScoringService) InitiateScoring(ctx context.Context, customerID string) (string, error) {
	customer, err := s.customerRepo.FindByID(ctx, customerID)
	if err != nil {
		return "", err
	}

	token, err := s.client.InitiateScoring(ctx, customer.Phone)
	if err != nil {
		s.logger.Error("failed to initiate scoring",
			zap.Error(err),
			zap.String("customer_id", customerID),
		)
		return "", fmt.Errorf("failed to initiate scoring: %w", err)
	}

	s.logger.Info("scoring initiated", zap.String("customer_id", customerID))
	return token, nil
}

// GetScore returns the score for token, or nil while it is not ready.
func (s *ScoringService) GetScore(ctx context.Context, token string) (*domain.CreditScore, error) {
	score, err := s.client.GetScore(ctx, token)
	if err != nil {
		s.logger.Error("failed to get score", zap.Error(err))
		return nil, fmt.Errorf("failed to get score: %w", err)
	}
	if score == nil {
		s.logger.Info("score not ready yet")
	}
	return score, nil
}
