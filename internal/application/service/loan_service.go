package service

import (
	"context"
	"fmt"
	"time"

	"github.com/gigmile/lending-service/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type LoanService struct {
	tx              domain.Transactor
	customerRepo    domain.CustomerRepository
	productRepo     domain.ProductRepository
	loanRepo        domain.LoanRepository
	installmentRepo domain.InstallmentRepository
	loanFeeRepo     domain.LoanFeeRepository
	paymentRepo     domain.PaymentRepository
	feeEngine       *FeeEngine
	trigger         *NotificationTrigger
	logger          *zap.Logger
}

func NewLoanService(
	tx domain.Transactor,
	customerRepo domain.CustomerRepository,
	productRepo domain.ProductRepository,
	loanRepo domain.LoanRepository,
	installmentRepo domain.InstallmentRepository,
	loanFeeRepo domain.LoanFeeRepository,
	paymentRepo domain.PaymentRepository,
	feeEngine *FeeEngine,
	trigger *NotificationTrigger,
	logger *zap.Logger,
) *LoanService {
	return &LoanService{
		tx:              tx,
		customerRepo:    customerRepo,
		productRepo:     productRepo,
		loanRepo:        loanRepo,
		installmentRepo: installmentRepo,
		loanFeeRepo:     loanFeeRepo,
		paymentRepo:     paymentRepo,
		feeEngine:       feeEngine,
		trigger:         trigger,
		logger:          logger,
	}
}

type CreateLoanRequest struct {
	CustomerID       string
	ProductID        string
	Principal        decimal.Decimal
	StructureType    domain.StructureType
	Description      string
	DisbursementDate time.Time
}

// LoanDetails is a loan together with everything it owns.
type LoanDetails struct {
	Loan         *domain.Loan
	Installments []*domain.Installment
	Fees         []*domain.LoanFee
	Payments     []*domain.Payment
	TotalPaid    decimal.Decimal
}

// CreateLoan originates a loan: it applies the product's origination fees and,
// for installment loans, builds the repayment schedule from the fee-adjusted
// balance. Everything is written in one transaction.
func (s *LoanService) CreateLoan(ctx context.Context, req CreateLoanRequest) (*LoanDetails, error) {
	if !req.Principal.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	if !req.StructureType.Valid() {
		return nil, domain.ErrInvalidStructureType
	}

	details := &LoanDetails{TotalPaid: decimal.Zero}

	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		// the customer row lock keeps concurrent originations from both
		// passing the open-loan check
		customer, err := s.customerRepo.FindByIDForUpdate(ctx, req.CustomerID)
		if err != nil {
			return err
		}
		if customer.Status != domain.CustomerStatusActive {
			return domain.ErrInactiveCustomer
		}

		product, err := s.productRepo.FindByID(ctx, req.ProductID)
		if err != nil {
			return err
		}
		if product.Status != domain.ProductStatusActive {
			return domain.ErrInactiveProduct
		}

		if !customer.CanBorrow(req.Principal) {
			return fmt.Errorf("%w: requested %s, limit %s",
				domain.ErrLoanLimitExceeded, req.Principal.StringFixed(2), customer.LoanLimit.StringFixed(2))
		}

		hasOpen, err := s.loanRepo.ExistsByCustomerAndStatuses(ctx, customer.ID, domain.PayableStatuses)
		if err != nil {
			return fmt.Errorf("failed to check open loans: %w", err)
		}
		if hasOpen {
			return domain.ErrOpenLoanExists
		}

		loan, err := domain.NewLoan(customer, product, domain.NewLoanParams{
			Principal:        req.Principal,
			StructureType:    req.StructureType,
			Description:      req.Description,
			DisbursementDate: req.DisbursementDate,
		})
		if err != nil {
			return err
		}

		if err := s.loanRepo.Create(ctx, loan); err != nil {
			return fmt.Errorf("failed to create loan: %w", err)
		}

		if _, err := s.feeEngine.ApplyOriginationFees(ctx, loan, product, loan.DisbursementDate); err != nil {
			return err
		}

		if loan.IsInstallment() {
			schedule := domain.GenerateSchedule(loan, product, customer, loan.CurrentBalance)
			if err := s.installmentRepo.CreateBatch(ctx, schedule); err != nil {
				return fmt.Errorf("failed to create installments: %w", err)
			}
			details.Installments = schedule
		}

		if err := s.loanRepo.Save(ctx, loan); err != nil {
			return fmt.Errorf("failed to save loan: %w", err)
		}

		details.Loan = loan
		return nil
	})
	if err != nil {
		s.logger.Error("failed to create loan",
			zap.Error(err),
			zap.String("customer_id", req.CustomerID),
			zap.String("product_id", req.ProductID),
		)
		return nil, err
	}

	loan := details.Loan
	s.logger.Info("loan created",
		zap.String("loan_id", loan.ID),
		zap.String("loan_code", loan.LoanCode),
		zap.String("structure", string(loan.StructureType)),
		zap.String("principal", loan.Principal.StringFixed(2)),
		zap.String("balance", loan.CurrentBalance.StringFixed(2)),
		zap.Time("due_date", loan.DueDate),
		zap.Int("installments", len(details.Installments)),
	)

	s.trigger.Fire(ctx, domain.LoanEvent{Type: domain.LoanEventCreated, Loan: loan})

	return details, nil
}

// GetLoan returns the loan with its schedule, fees and payments.
func (s *LoanService) GetLoan(ctx context.Context, loanID string) (*LoanDetails, error) {
	loan, err := s.loanRepo.FindByID(ctx, loanID)
	if err != nil {
		return nil, err
	}

	installments, err := s.installmentRepo.FindByLoanID(ctx, loan.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get installments: %w", err)
	}

	fees, err := s.loanFeeRepo.FindByLoanID(ctx, loan.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get loan fees: %w", err)
	}

	payments, err := s.paymentRepo.FindByLoanID(ctx, loan.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get payments: %w", err)
	}

	totalPaid, err := s.paymentRepo.SumCompletedByLoanID(ctx, loan.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum payments: %w", err)
	}

	return &LoanDetails{
		Loan:         loan,
		Installments: installments,
		Fees:         fees,
		Payments:     payments,
		TotalPaid:    totalPaid,
	}, nil
}

// GetLoanStatus returns the most recent loan issued under code.
func (s *LoanService) GetLoanStatus(ctx context.Context, loanCode string) (*domain.Loan, error) {
	return s.loanRepo.FindLatestByCode(ctx, loanCode)
}
