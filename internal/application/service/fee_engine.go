package service

import (
	"context"
	"fmt"
	"time"

	"github.com/gigmile/lending-service/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// FeeEngine prices fees and records their application against a loan. It
// mutates the loan balance in memory; callers persist the loan.
type FeeEngine struct {
	loanFeeRepo domain.LoanFeeRepository
	logger      *zap.Logger
}

func NewFeeEngine(loanFeeRepo domain.LoanFeeRepository, logger *zap.Logger) *FeeEngine {
	return &FeeEngine{
		loanFeeRepo: loanFeeRepo,
		logger:      logger,
	}
}

func (e *FeeEngine) CalculateFeeAmount(loan *domain.Loan, fee *domain.Fee) decimal.Decimal {
	return fee.AmountFor(loan.Principal)
}

// ApplyFee records one application of fee and adds it to the balance.
func (e *FeeEngine) ApplyFee(ctx context.Context, loan *domain.Loan, fee *domain.Fee, appliedAt time.Time) (decimal.Decimal, error) {
	amount := e.CalculateFeeAmount(loan, fee)

	record := domain.NewLoanFee(loan.ID, fee.ID, amount, appliedAt)
	if err := e.loanFeeRepo.Create(ctx, record); err != nil {
		return decimal.Zero, fmt.Errorf("failed to record fee %s: %w", fee.ID, err)
	}

	loan.ApplyFee(amount)

	e.logger.Info("fee applied",
		zap.String("loan_id", loan.ID),
		zap.String("fee_id", fee.ID),
		zap.String("fee_type", string(fee.Type)),
		zap.String("amount", amount.StringFixed(2)),
		zap.String("balance", loan.CurrentBalance.StringFixed(2)),
	)

	return amount, nil
}

// ApplyOriginationFees charges every origination fee of product.
func (e *FeeEngine) ApplyOriginationFees(ctx context.Context, loan *domain.Loan, product *domain.Product, appliedAt time.Time) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, fee := range product.OriginationFees() {
		amount, err := e.ApplyFee(ctx, loan, fee, appliedAt)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(amount)
	}
	return total, nil
}

// ApplyLateFees charges each active late-payment fee of product once per
// application day. Fees already recorded for appliedAt are skipped, so a
// re-run on the same day adds nothing.
func (e *FeeEngine) ApplyLateFees(ctx context.Context, loan *domain.Loan, product *domain.Product, appliedAt time.Time) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, fee := range product.LateFees() {
		exists, err := e.loanFeeRepo.Exists(ctx, loan.ID, fee.ID, domain.Date(appliedAt))
		if err != nil {
			return decimal.Zero, fmt.Errorf("failed to check fee application: %w", err)
		}
		if exists {
			e.logger.Debug("late fee already applied",
				zap.String("loan_id", loan.ID),
				zap.String("fee_id", fee.ID),
			)
			continue
		}

		amount, err := e.ApplyFee(ctx, loan, fee, appliedAt)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(amount)
	}
	return total, nil
}
