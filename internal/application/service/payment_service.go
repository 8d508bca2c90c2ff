package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gigmile/lending-service/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type PaymentService struct {
	tx              domain.Transactor
	loanRepo        domain.LoanRepository
	installmentRepo domain.InstallmentRepository
	paymentRepo     domain.PaymentRepository
	trigger         *NotificationTrigger
	logger          *zap.Logger
}

func NewPaymentService(
	tx domain.Transactor,
	loanRepo domain.LoanRepository,
	installmentRepo domain.InstallmentRepository,
	paymentRepo domain.PaymentRepository,
	trigger *NotificationTrigger,
	logger *zap.Logger,
) *PaymentService {
	return &PaymentService{
		tx:              tx,
		loanRepo:        loanRepo,
		installmentRepo: installmentRepo,
		paymentRepo:     paymentRepo,
		trigger:         trigger,
		logger:          logger,
	}
}

type RecordPaymentRequest struct {
	LoanCode    string
	Amount      decimal.Decimal
	Method      domain.PaymentMethod
	PaymentCode string
	PaymentDate time.Time
}

type RecordPaymentResult struct {
	Payment        *domain.Payment
	Loan           *domain.Loan
	PreviousStatus domain.LoanStatus
	Unapplied      decimal.Decimal
	Duplicate      bool
}

// RecordPayment applies a remittance to the payable loan for req.LoanCode.
// The loan row stays locked for the whole allocation so payments and batch
// transitions on the same loan never interleave. A payment code that was
// already recorded returns the stored payment without applying it again.
func (s *PaymentService) RecordPayment(ctx context.Context, req RecordPaymentRequest) (*RecordPaymentResult, error) {
	if !req.Amount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	if req.PaymentCode == "" {
		return nil, domain.ErrInvalidPaymentCode
	}
	if !req.Method.Valid() {
		return nil, domain.ErrInvalidPaymentMethod
	}
	paymentDate := req.PaymentDate
	if paymentDate.IsZero() {
		paymentDate = time.Now()
	}

	result := &RecordPaymentResult{Unapplied: decimal.Zero}

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.paymentRepo.FindByPaymentCode(ctx, req.PaymentCode)
		if err == nil {
			result.Payment = existing
			result.Duplicate = true
			return nil
		}
		if !errors.Is(err, domain.ErrPaymentNotFound) {
			return fmt.Errorf("failed to check payment code: %w", err)
		}

		loan, err := s.loanRepo.FindPayableByCodeForUpdate(ctx, req.LoanCode)
		if err != nil {
			if errors.Is(err, domain.ErrLoanNotFound) {
				return s.explainUnpayable(ctx, req.LoanCode, err)
			}
			return err
		}

		payment, err := domain.NewPayment(loan.ID, req.Amount, req.Method, req.PaymentCode, paymentDate)
		if err != nil {
			return err
		}
		if err := s.paymentRepo.Save(ctx, payment); err != nil {
			return fmt.Errorf("failed to save payment: %w", err)
		}

		if err := loan.ApplyPayment(req.Amount); err != nil {
			return err
		}

		if loan.IsInstallment() {
			unapplied, err := s.allocate(ctx, loan, req.Amount)
			if err != nil {
				return err
			}
			result.Unapplied = unapplied
		} else if loan.CurrentBalance.IsNegative() {
			result.Unapplied = loan.CurrentBalance.Neg()
		}

		if result.Unapplied.IsPositive() {
			s.logger.Warn("overpayment received",
				zap.String("loan_id", loan.ID),
				zap.String("payment_code", req.PaymentCode),
				zap.String("unapplied", result.Unapplied.StringFixed(2)),
			)
		}

		pastDue, err := s.hasPastDueUnpaid(ctx, loan, paymentDate)
		if err != nil {
			return err
		}
		result.PreviousStatus, _ = loan.SettleAfterPayment(pastDue)

		if err := s.loanRepo.Save(ctx, loan); err != nil {
			return fmt.Errorf("failed to save loan: %w", err)
		}

		result.Payment = payment
		result.Loan = loan
		return nil
	})
	if errors.Is(err, domain.ErrDuplicatePaymentCode) {
		// Lost a race with a concurrent submission of the same code.
		existing, ferr := s.paymentRepo.FindByPaymentCode(ctx, req.PaymentCode)
		if ferr == nil {
			result = &RecordPaymentResult{Payment: existing, Duplicate: true, Unapplied: decimal.Zero}
			err = nil
		}
	}
	if err != nil {
		s.logger.Error("failed to record payment",
			zap.Error(err),
			zap.String("loan_code", req.LoanCode),
			zap.String("payment_code", req.PaymentCode),
		)
		return nil, err
	}

	if result.Duplicate {
		s.logger.Info("duplicate payment code - already processed",
			zap.String("loan_code", req.LoanCode),
			zap.String("payment_code", req.PaymentCode),
		)
		loan, err := s.loanRepo.FindByID(ctx, result.Payment.LoanID)
		if err != nil {
			return nil, fmt.Errorf("failed to get loan for duplicate payment: %w", err)
		}
		result.Loan = loan
		result.PreviousStatus = loan.Status
		return result, nil
	}

	loan := result.Loan
	s.logger.Info("payment recorded",
		zap.String("loan_id", loan.ID),
		zap.String("payment_code", req.PaymentCode),
		zap.String("amount", req.Amount.StringFixed(2)),
		zap.String("balance", loan.CurrentBalance.StringFixed(2)),
		zap.String("status", string(loan.Status)),
	)

	s.trigger.Fire(ctx, domain.LoanEvent{
		Type:          domain.LoanEventPaymentReceived,
		Loan:          loan,
		PaymentAmount: req.Amount,
	})
	if loan.Status == domain.LoanStatusClosed && result.PreviousStatus != domain.LoanStatusClosed {
		s.trigger.Fire(ctx, domain.LoanEvent{
			Type:          domain.LoanEventClosed,
			Loan:          loan,
			PaymentAmount: req.Amount,
		})
	}

	return result, nil
}

// allocate runs the waterfall over the loan's outstanding installments and
// persists the ones it touched. It returns the amount no installment took.
func (s *PaymentService) allocate(ctx context.Context, loan *domain.Loan, amount decimal.Decimal) (decimal.Decimal, error) {
	partial, err := s.installmentRepo.FindByLoanAndStatus(ctx, loan.ID, domain.InstallmentPartiallyPaid)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get partially paid installments: %w", err)
	}

	unpaid, err := s.installmentRepo.FindByLoanAndStatus(ctx, loan.ID, domain.InstallmentUnpaid)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get unpaid installments: %w", err)
	}

	allocation := domain.Allocate(partial, unpaid, amount)
	if len(allocation.Touched) > 0 {
		if err := s.installmentRepo.SaveAll(ctx, allocation.Touched); err != nil {
			return decimal.Zero, fmt.Errorf("failed to save installments: %w", err)
		}
	}

	return allocation.Unapplied, nil
}

func (s *PaymentService) hasPastDueUnpaid(ctx context.Context, loan *domain.Loan, on time.Time) (bool, error) {
	if !loan.IsInstallment() || !loan.Status.Delinquent() {
		return false, nil
	}
	n, err := s.installmentRepo.CountByLoanStatusDueBefore(ctx, loan.ID, domain.InstallmentUnpaid, domain.Date(on))
	if err != nil {
		return false, fmt.Errorf("failed to count past due installments: %w", err)
	}
	return n > 0, nil
}

// explainUnpayable distinguishes an unknown loan code from a loan that exists
// but no longer accepts payments.
func (s *PaymentService) explainUnpayable(ctx context.Context, loanCode string, notFound error) error {
	latest, err := s.loanRepo.FindLatestByCode(ctx, loanCode)
	if err != nil {
		return notFound
	}
	return fmt.Errorf("%w: loan %s is %s", domain.ErrLoanNotPayable, loanCode, latest.Status)
}
