package router

import (
	"net/http"
	"time"

	"github.com/gigmile/lending-service/internal/interface/http/handler"
	"github.com/gigmile/lending-service/internal/interface/http/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Options holds the optional parts of the router. A nil Limiter disables rate
// limiting and a nil Metrics handler leaves the scrape endpoint unmounted.
type Options struct {
	Limiter     *middleware.RateLimiter
	Metrics     http.Handler
	MetricsPath string
}

func NewRouter(handlers *handler.Handlers, opts Options, logger *zap.Logger) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(chimiddleware.Compress(5))
	r.Use(chimiddleware.Timeout(30 * time.Second))

	// Routes
	r.Get("/health", handlers.HealthCheck)
	if opts.Metrics != nil {
		path := opts.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Method(http.MethodGet, path, opts.Metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		if opts.Limiter != nil {
			r.Use(opts.Limiter.Handler)
		}

		r.Post("/customers", handlers.Catalogue.CreateCustomer)
		r.Get("/customers/{id}", handlers.Catalogue.GetCustomer)
		r.Post("/customers/{id}/scoring", handlers.Scoring.InitiateScoring)
		r.Get("/scoring/{token}", handlers.Scoring.GetScore)

		r.Post("/products", handlers.Catalogue.CreateProduct)
		r.Get("/products/{id}", handlers.Catalogue.GetProduct)
		r.Post("/products/{id}/fees/{feeId}", handlers.Catalogue.AttachFee)
		r.Post("/fees", handlers.Catalogue.CreateFee)

		r.Post("/loans", handlers.Loan.CreateLoan)
		r.Get("/loans/status/{code}", handlers.Loan.GetLoanStatus)
		r.Get("/loans/{id}", handlers.Loan.GetLoan)

		r.Post("/payments", handlers.Payment.RecordPayment)

		r.Post("/jobs/{operation}", handlers.Job.RunJob)
	})

	return r
}
