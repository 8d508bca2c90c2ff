package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/gigmile/lending-service/internal/application/command"
	"github.com/gigmile/lending-service/internal/application/service"
	"github.com/gigmile/lending-service/internal/config"
	"github.com/gigmile/lending-service/internal/domain"
	"go.uber.org/zap"
)

type Dispatcher interface {
	Dispatch(ctx context.Context, cmd command.Command) (interface{}, error)
}

// Job is one batch pass fired at Hour:Minute UTC. A DayOfMonth above zero
// makes the job monthly.
type Job struct {
	Name          string
	Operation     command.Operation
	Hour          int
	Minute        int
	DayOfMonth    int
	ThresholdDays int
}

// due reports whether the job should have fired by now today.
func (j Job) due(now time.Time) bool {
	if j.DayOfMonth > 0 && now.Day() != j.DayOfMonth {
		return false
	}
	return now.Hour()*60+now.Minute() >= j.Hour*60+j.Minute
}

var jobOperations = map[string]command.Operation{
	service.JobMarkOverdue:              command.OpMarkLoansOverdue,
	service.JobApplyLateFees:            command.OpApplyLateFees,
	service.JobSendPaymentReminders:     command.OpSendPaymentReminders,
	service.JobSendInstallmentReminders: command.OpSendInstallmentReminders,
	service.JobMarkDefaulted:            command.OpMarkLoansDefaulted,
	service.JobMarkWrittenOff:           command.OpMarkLoansWrittenOff,
}

// JobsFromConfig builds the job table, ordered by time of day.
func JobsFromConfig(cfg config.BatchConfig) ([]Job, error) {
	thresholds := cfg.Thresholds()
	jobs := make([]Job, 0, len(jobOperations))

	for name, op := range jobOperations {
		hour, minute, err := config.ParseClock(cfg.Schedules[name])
		if err != nil {
			return nil, fmt.Errorf("invalid schedule for %s: %w", name, err)
		}
		job := Job{
			Name:          name,
			Operation:     op,
			Hour:          hour,
			Minute:        minute,
			ThresholdDays: thresholds[name],
		}
		if name == service.JobMarkWrittenOff {
			job.DayOfMonth = cfg.WriteOffDayOfMonth
		}
		jobs = append(jobs, job)
	}

	sort.Slice(jobs, func(i, k int) bool {
		a, b := jobs[i], jobs[k]
		if a.Hour*60+a.Minute != b.Hour*60+b.Minute {
			return a.Hour*60+a.Minute < b.Hour*60+b.Minute
		}
		return a.Name < b.Name
	})
	return jobs, nil
}

// Scheduler fires each job at most once per calendar day through the
// dispatcher. It is the only place that reads the wall clock.
type Scheduler struct {
	jobs          []Job
	checkInterval time.Duration
	dispatcher    Dispatcher
	logger        *zap.Logger
	now           func() time.Time

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
	lastRun   map[string]string
}

func New(jobs []Job, checkInterval time.Duration, dispatcher Dispatcher, logger *zap.Logger) *Scheduler {
	if checkInterval <= 0 {
		checkInterval = time.Minute
	}
	return &Scheduler{
		jobs:          jobs,
		checkInterval: checkInterval,
		dispatcher:    dispatcher,
		logger:        logger,
		now:           time.Now,
		lastRun:       make(map[string]string),
	}
}

func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.runLoop(ctx)

	s.logger.Info("batch scheduler started",
		zap.Int("jobs", len(s.jobs)),
		zap.Duration("check_interval", s.checkInterval),
	)

	return nil
}

func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("batch scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) runLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.checkAndTrigger(ctx)
		}
	}
}

func (s *Scheduler) checkAndTrigger(ctx context.Context) {
	now := s.now().UTC()
	today := now.Format("2006-01-02")

	for _, job := range s.jobs {
		if ctx.Err() != nil {
			return
		}

		s.mu.Lock()
		ran := s.lastRun[job.Name] == today
		s.mu.Unlock()
		if ran || !job.due(now) {
			continue
		}

		s.mu.Lock()
		s.lastRun[job.Name] = today
		s.mu.Unlock()

		s.trigger(ctx, job, now)
	}
}

func (s *Scheduler) trigger(ctx context.Context, job Job, now time.Time) {
	cmd, err := command.NewBatchCommand(job.Operation, domain.Date(now), job.ThresholdDays)
	if err != nil {
		s.logger.Error("invalid batch job", zap.String("job", job.Name), zap.Error(err))
		return
	}

	s.logger.Info("triggering batch job",
		zap.String("job", job.Name),
		zap.Time("execution_date", cmd.ExecutionDate),
		zap.Int("threshold_days", job.ThresholdDays),
	)

	result, err := s.dispatcher.Dispatch(ctx, cmd)
	if err != nil {
		s.logger.Error("batch job failed", zap.String("job", job.Name), zap.Error(err))
		return
	}

	if res, ok := result.(*service.BatchResult); ok {
		s.logger.Info("batch job finished",
			zap.String("job", job.Name),
			zap.Int("eligible", res.Eligible),
			zap.Int("processed", res.Processed),
			zap.Int("failed", res.Failed),
			zap.Bool("skipped", res.Skipped),
		)
	}
}
