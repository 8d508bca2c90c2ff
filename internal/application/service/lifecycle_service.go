package service

import (
	"context"
	"fmt"
	"time"

	"github.com/gigmile/lending-service/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Batch job names. They double as the batch lock names.
const (
	JobMarkOverdue              = "mark-overdue"
	JobMarkDefaulted            = "mark-defaulted"
	JobMarkWrittenOff           = "mark-written-off"
	JobApplyLateFees            = "apply-late-fees"
	JobSendPaymentReminders     = "send-payment-reminders"
	JobSendInstallmentReminders = "send-installment-reminders"
)

// BatchResult summarises one batch run.
type BatchResult struct {
	Job           string    `json:"job"`
	ExecutionDate time.Time `json:"execution_date"`
	Eligible      int       `json:"eligible"`
	Processed     int       `json:"processed"`
	Failed        int       `json:"failed"`
	Skipped       bool      `json:"skipped"`
}

type transitionRule struct {
	job    string
	from   domain.LoanStatus
	to     domain.LoanStatus
	event  domain.LoanEventType
	reason string
}

var (
	overdueRule = transitionRule{
		job:    JobMarkOverdue,
		from:   domain.LoanStatusOpen,
		to:     domain.LoanStatusOverdue,
		event:  domain.LoanEventOverdue,
		reason: "System identified loan as overdue",
	}
	defaultRule = transitionRule{
		job:    JobMarkDefaulted,
		from:   domain.LoanStatusOverdue,
		to:     domain.LoanStatusDefaulted,
		event:  domain.LoanEventDefaulted,
		reason: "System identified loan as defaulted",
	}
	writeOffRule = transitionRule{
		job:    JobMarkWrittenOff,
		from:   domain.LoanStatusDefaulted,
		to:     domain.LoanStatusWrittenOff,
		event:  domain.LoanEventWrittenOff,
		reason: "System wrote off defaulted loan",
	}
)

// LifecycleService runs the periodic batch passes. Each pass takes its
// execution date as a parameter and processes every loan in its own
// transaction, so a failure on one loan leaves the others advanced.
type LifecycleService struct {
	tx              domain.Transactor
	loanRepo        domain.LoanRepository
	installmentRepo domain.InstallmentRepository
	productRepo     domain.ProductRepository
	feeEngine       *FeeEngine
	trigger         *NotificationTrigger
	locker          domain.BatchLocker // Optional - can be nil
	lockTTL         time.Duration
	logger          *zap.Logger
}

func NewLifecycleService(
	tx domain.Transactor,
	loanRepo domain.LoanRepository,
	installmentRepo domain.InstallmentRepository,
	productRepo domain.ProductRepository,
	feeEngine *FeeEngine,
	trigger *NotificationTrigger,
	locker domain.BatchLocker,
	lockTTL time.Duration,
	logger *zap.Logger,
) *LifecycleService {
	return &LifecycleService{
		tx:              tx,
		loanRepo:        loanRepo,
		installmentRepo: installmentRepo,
		productRepo:     productRepo,
		feeEngine:       feeEngine,
		trigger:         trigger,
		locker:          locker,
		lockTTL:         lockTTL,
		logger:          logger,
	}
}

// MarkOverdue moves OPEN loans due before executionDate - thresholdDays to OVERDUE.
func (s *LifecycleService) MarkOverdue(ctx context.Context, executionDate time.Time, thresholdDays int) (*BatchResult, error) {
	return s.transition(ctx, overdueRule, executionDate, thresholdDays)
}

// MarkDefaulted moves OVERDUE loans due before executionDate - thresholdDays to DEFAULTED.
func (s *LifecycleService) MarkDefaulted(ctx context.Context, executionDate time.Time, thresholdDays int) (*BatchResult, error) {
	return s.transition(ctx, defaultRule, executionDate, thresholdDays)
}

// MarkWrittenOff moves DEFAULTED loans due before executionDate - thresholdDays to WRITTEN_OFF.
func (s *LifecycleService) MarkWrittenOff(ctx context.Context, executionDate time.Time, thresholdDays int) (*BatchResult, error) {
	return s.transition(ctx, writeOffRule, executionDate, thresholdDays)
}

func (s *LifecycleService) transition(ctx context.Context, rule transitionRule, executionDate time.Time, thresholdDays int) (*BatchResult, error) {
	return s.exclusive(ctx, rule.job, executionDate, func(ctx context.Context, result *BatchResult) error {
		threshold := domain.ThresholdDate(executionDate, thresholdDays)

		candidates, err := s.loanRepo.FindByStatusAndDueDateBefore(ctx, rule.from, threshold)
		if err != nil {
			return fmt.Errorf("failed to find %s loans: %w", rule.from, err)
		}
		result.Eligible = len(candidates)

		for _, candidate := range candidates {
			if err := ctx.Err(); err != nil {
				return err
			}

			var advanced *domain.Loan
			err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
				loan, err := s.loanRepo.FindByIDForUpdate(ctx, candidate.ID)
				if err != nil {
					return err
				}
				// Re-check under the lock: a payment may have moved it.
				if loan.Status != rule.from || !loan.DueDate.Before(threshold) {
					return nil
				}
				if err := loan.TransitionTo(rule.to, rule.reason); err != nil {
					return err
				}
				if err := s.loanRepo.Save(ctx, loan); err != nil {
					return err
				}
				advanced = loan
				return nil
			})
			if err != nil {
				result.Failed++
				s.logger.Error("failed to advance loan",
					zap.Error(err),
					zap.String("job", rule.job),
					zap.String("loan_id", candidate.ID),
				)
				continue
			}
			if advanced == nil {
				continue
			}

			result.Processed++
			s.trigger.Fire(ctx, domain.LoanEvent{Type: rule.event, Loan: advanced})
		}
		return nil
	})
}

// ApplyLateFees charges the product's late-payment fees on OVERDUE loans
// that are past due on executionDate by at least the product's grace days.
func (s *LifecycleService) ApplyLateFees(ctx context.Context, executionDate time.Time) (*BatchResult, error) {
	return s.exclusive(ctx, JobApplyLateFees, executionDate, func(ctx context.Context, result *BatchResult) error {
		candidates, err := s.loanRepo.FindByStatusAndDueDateBefore(ctx, domain.LoanStatusOverdue, domain.Date(executionDate))
		if err != nil {
			return fmt.Errorf("failed to find overdue loans: %w", err)
		}

		for _, candidate := range candidates {
			if err := ctx.Err(); err != nil {
				return err
			}

			product, err := s.productRepo.FindByID(ctx, candidate.ProductID)
			if err != nil {
				result.Failed++
				s.logger.Error("failed to load product for late fees",
					zap.Error(err),
					zap.String("loan_id", candidate.ID),
					zap.String("product_id", candidate.ProductID),
				)
				continue
			}

			if candidate.DaysLate(executionDate) < product.DaysAfterDueForLateFee {
				continue
			}
			if len(product.LateFees()) == 0 {
				s.logger.Debug("no active late fees for product", zap.String("product_id", product.ID))
				continue
			}
			result.Eligible++

			var charged *domain.Loan
			lateFee := decimal.Zero
			err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
				loan, err := s.loanRepo.FindByIDForUpdate(ctx, candidate.ID)
				if err != nil {
					return err
				}
				if loan.Status != domain.LoanStatusOverdue {
					return nil
				}
				total, err := s.feeEngine.ApplyLateFees(ctx, loan, product, executionDate)
				if err != nil {
					return err
				}
				if total.IsZero() {
					return nil
				}
				if err := s.loanRepo.Save(ctx, loan); err != nil {
					return err
				}
				charged, lateFee = loan, total
				return nil
			})
			if err != nil {
				result.Failed++
				s.logger.Error("failed to apply late fees",
					zap.Error(err),
					zap.String("loan_id", candidate.ID),
				)
				continue
			}
			if charged == nil {
				continue
			}

			result.Processed++
			s.trigger.Fire(ctx, domain.LoanEvent{
				Type:          domain.LoanEventFeeApplied,
				Loan:          charged,
				LateFeeAmount: lateFee,
			})
		}
		return nil
	})
}

// SendPaymentReminders notifies OPEN loans due within reminderDays of executionDate.
func (s *LifecycleService) SendPaymentReminders(ctx context.Context, executionDate time.Time, reminderDays int) (*BatchResult, error) {
	return s.exclusive(ctx, JobSendPaymentReminders, executionDate, func(ctx context.Context, result *BatchResult) error {
		from := domain.Date(executionDate)
		loans, err := s.loanRepo.FindByStatusAndDueDateBetween(ctx, domain.LoanStatusOpen, from, from.AddDate(0, 0, reminderDays))
		if err != nil {
			return fmt.Errorf("failed to find loans due soon: %w", err)
		}
		result.Eligible = len(loans)

		for _, loan := range loans {
			if s.trigger.Fire(ctx, domain.LoanEvent{Type: domain.LoanEventPaymentDue, Loan: loan}) {
				result.Processed++
			}
		}
		return nil
	})
}

// SendInstallmentReminders notifies UNPAID installments of OPEN loans due
// within reminderDays of executionDate.
func (s *LifecycleService) SendInstallmentReminders(ctx context.Context, executionDate time.Time, reminderDays int) (*BatchResult, error) {
	return s.exclusive(ctx, JobSendInstallmentReminders, executionDate, func(ctx context.Context, result *BatchResult) error {
		from := domain.Date(executionDate)
		installments, err := s.installmentRepo.FindDueBetween(ctx, domain.LoanStatusOpen, domain.InstallmentUnpaid, from, from.AddDate(0, 0, reminderDays))
		if err != nil {
			return fmt.Errorf("failed to find installments due soon: %w", err)
		}
		result.Eligible = len(installments)

		loans := make(map[string]*domain.Loan)
		for _, inst := range installments {
			loan, ok := loans[inst.LoanID]
			if !ok {
				loan, err = s.loanRepo.FindByID(ctx, inst.LoanID)
				if err != nil {
					result.Failed++
					s.logger.Error("failed to load loan for installment reminder",
						zap.Error(err),
						zap.String("installment_id", inst.ID),
						zap.String("loan_id", inst.LoanID),
					)
					continue
				}
				loans[inst.LoanID] = loan
			}

			if s.trigger.Fire(ctx, domain.LoanEvent{Type: domain.LoanEventInstallmentDue, Loan: loan, Installment: inst}) {
				result.Processed++
			}
		}
		return nil
	})
}

// exclusive runs fn under the batch lock for job. A run that finds the lock
// held is reported as skipped.
func (s *LifecycleService) exclusive(ctx context.Context, job string, executionDate time.Time, fn func(context.Context, *BatchResult) error) (*BatchResult, error) {
	result := &BatchResult{Job: job, ExecutionDate: domain.Date(executionDate)}

	if s.locker != nil {
		release, acquired, err := s.locker.TryLock(ctx, job, s.lockTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to acquire batch lock: %w", err)
		}
		if !acquired {
			s.logger.Warn("batch already running, skipping", zap.String("job", job))
			result.Skipped = true
			return result, nil
		}
		defer func() {
			if err := release(context.Background()); err != nil {
				s.logger.Warn("failed to release batch lock", zap.Error(err), zap.String("job", job))
			}
		}()
	}

	s.logger.Info("batch started",
		zap.String("job", job),
		zap.Time("execution_date", result.ExecutionDate),
	)

	if err := fn(ctx, result); err != nil {
		s.logger.Error("batch aborted", zap.Error(err), zap.String("job", job))
		return result, err
	}

	s.logger.Info("batch finished",
		zap.String("job", job),
		zap.Int("eligible", result.Eligible),
		zap.Int("processed", result.Processed),
		zap.Int("failed", result.Failed),
	)

	return result, nil
}
