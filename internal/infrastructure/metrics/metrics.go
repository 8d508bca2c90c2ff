// Package metrics exposes command and batch job counters in the Prometheus
// text format.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gigmile/lending-service/internal/application/command"
	"github.com/gigmile/lending-service/internal/application/service"
	"github.com/gigmile/lending-service/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "lending"

// Outcome labels for commands_total.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Metrics owns a private registry so tests and multiple binaries never clash
// on the global one.
type Metrics struct {
	registry *prometheus.Registry

	commandsTotal   *prometheus.CounterVec
	commandDuration *prometheus.HistogramVec
	batchLoansTotal *prometheus.CounterVec
	batchSkipsTotal *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		commandsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "commands_total",
				Help:      "Commands dispatched, by operation and outcome.",
			},
			[]string{"operation", "outcome"},
		),
		commandDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "command_duration_seconds",
				Help:      "Time spent executing a command.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		batchLoansTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "batch_loans_total",
				Help:      "Loans touched by batch jobs, by job and result.",
			},
			[]string{"job", "result"},
		),
		batchSkipsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "batch_skipped_total",
				Help:      "Batch runs skipped because another instance held the lock.",
			},
			[]string{"job"},
		),
	}

	m.registry.MustRegister(
		m.commandsTotal,
		m.commandDuration,
		m.batchLoansTotal,
		m.batchSkipsTotal,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveCommand records one dispatched command.
func (m *Metrics) ObserveCommand(op command.Operation, elapsed time.Duration, err error) {
	m.commandsTotal.WithLabelValues(string(op), outcome(err)).Inc()
	m.commandDuration.WithLabelValues(string(op)).Observe(elapsed.Seconds())
}

// ObserveBatch records the per-loan tallies of a finished batch run.
func (m *Metrics) ObserveBatch(res *service.BatchResult) {
	if res == nil {
		return
	}
	if res.Skipped {
		m.batchSkipsTotal.WithLabelValues(res.Job).Inc()
		return
	}
	m.batchLoansTotal.WithLabelValues(res.Job, "processed").Add(float64(res.Processed))
	m.batchLoansTotal.WithLabelValues(res.Job, "failed").Add(float64(res.Failed))
}

// outcome separates caller mistakes from server faults.
func outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrLimitExceeded),
		errors.Is(err, domain.ErrConflictingState),
		errors.Is(err, domain.ErrUnsupportedOperation):
		return OutcomeRejected
	default:
		return OutcomeError
	}
}

type dispatcher interface {
	Dispatch(ctx context.Context, cmd command.Command) (interface{}, error)
}

// InstrumentedDispatcher times every command passing through next.
type InstrumentedDispatcher struct {
	next    dispatcher
	metrics *Metrics
}

func NewInstrumentedDispatcher(next dispatcher, m *Metrics) *InstrumentedDispatcher {
	return &InstrumentedDispatcher{next: next, metrics: m}
}

func (d *InstrumentedDispatcher) Dispatch(ctx context.Context, cmd command.Command) (interface{}, error) {
	start := time.Now()
	result, err := d.next.Dispatch(ctx, cmd)
	d.metrics.ObserveCommand(cmd.Operation(), time.Since(start), err)

	if res, ok := result.(*service.BatchResult); ok && err == nil {
		d.metrics.ObserveBatch(res)
	}
	return result, err
}
