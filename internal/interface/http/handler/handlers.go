package handler

import (
	"context"
	"net/http"

	"github.com/gigmile/lending-service/internal/application/command"
	"github.com/gigmile/lending-service/internal/application/service"
	"github.com/gigmile/lending-service/internal/domain"
	"go.uber.org/zap"
)

type CatalogueService interface {
	CreateCustomer(ctx context.Context, params domain.NewCustomerParams) (*domain.Customer, error)
	GetCustomer(ctx context.Context, id string) (*domain.Customer, error)
	CreateProduct(ctx context.Context, params domain.NewProductParams) (*domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	CreateFee(ctx context.Context, params domain.NewFeeParams) (*domain.Fee, error)
	AttachFee(ctx context.Context, productID, feeID string) (*domain.Product, error)
}

type LoanQueryService interface {
	GetLoan(ctx context.Context, loanID string) (*service.LoanDetails, error)
	GetLoanStatus(ctx context.Context, loanCode string) (*domain.Loan, error)
}

type ScoringService interface {
	InitiateScoring(ctx context.Context, customerID string) (string, error)
	GetScore(ctx context.Context, token string) (*domain.CreditScore, error)
}

// Dispatcher runs loan commands. Loan creation, payments and batch passes all
// go through it.
type Dispatcher interface {
	Dispatch(ctx context.Context, cmd command.Command) (interface{}, error)
}

type Dependencies struct {
	Catalogue  CatalogueService
	Loans      LoanQueryService
	Scoring    ScoringService
	Dispatcher Dispatcher
	// BatchDefaults holds the configured threshold per batch operation.
	BatchDefaults map[command.Operation]int
}

type Handlers struct {
	Catalogue *CatalogueHandler
	Loan      *LoanHandler
	Payment   *PaymentHandler
	Job       *JobHandler
	Scoring   *ScoringHandler
}

func NewHandlers(deps Dependencies, logger *zap.Logger) *Handlers {
	return &Handlers{
		Catalogue: NewCatalogueHandler(deps.Catalogue, logger),
		Loan:      NewLoanHandler(deps.Loans, deps.Dispatcher, logger),
		Payment:   NewPaymentHandler(deps.Dispatcher, logger),
		Job:       NewJobHandler(deps.Dispatcher, deps.BatchDefaults, logger),
		Scoring:   NewScoringHandler(deps.Scoring, logger),
	}
}

// HealthCheck handles health check endpoint
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
