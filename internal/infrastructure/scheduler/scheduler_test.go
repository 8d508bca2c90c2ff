package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gigmile/lending-service/internal/application/command"
	"github.com/gigmile/lending-service/internal/application/service"
	"github.com/gigmile/lending-service/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) Dispatch(ctx context.Context, cmd command.Command) (interface{}, error) {
	args := m.Called(ctx, cmd)
	return args.Get(0), args.Error(1)
}

func testBatchConfig() config.BatchConfig {
	return config.BatchConfig{
		OverdueDays:             1,
		PaymentReminderDays:     3,
		InstallmentReminderDays: 3,
		DefaultDays:             30,
		WriteOffDays:            90,
		WriteOffDayOfMonth:      2,
		Schedules: map[string]string{
			service.JobMarkOverdue:              "00:00",
			service.JobApplyLateFees:            "00:30",
			service.JobSendPaymentReminders:     "01:00",
			service.JobSendInstallmentReminders: "01:30",
			service.JobMarkDefaulted:            "02:00",
			service.JobMarkWrittenOff:           "00:30",
		},
	}
}

func newTestScheduler(t *testing.T, dispatcher Dispatcher, clock *time.Time) *Scheduler {
	t.Helper()
	jobs, err := JobsFromConfig(testBatchConfig())
	require.NoError(t, err)
	s := New(jobs, time.Minute, dispatcher, zap.NewNop())
	s.now = func() time.Time { return *clock }
	return s
}

func batchFor(op command.Operation, date time.Time, threshold int) command.BatchCommand {
	return command.BatchCommand{Op: op, ExecutionDate: date, ThresholdDays: threshold}
}

func TestJobsFromConfig_OrderedByTime(t *testing.T) {
	jobs, err := JobsFromConfig(testBatchConfig())
	require.NoError(t, err)
	require.Len(t, jobs, 6)

	assert.Equal(t, service.JobMarkOverdue, jobs[0].Name)
	assert.Equal(t, service.JobMarkDefaulted, jobs[5].Name)

	for _, job := range jobs {
		if job.Name == service.JobMarkWrittenOff {
			assert.Equal(t, 2, job.DayOfMonth)
			assert.Equal(t, 90, job.ThresholdDays)
		} else {
			assert.Zero(t, job.DayOfMonth)
		}
	}
}

func TestJobsFromConfig_InvalidSchedule(t *testing.T) {
	cfg := testBatchConfig()
	cfg.Schedules[service.JobApplyLateFees] = "half past midnight"

	_, err := JobsFromConfig(cfg)
	assert.Error(t, err)
}

func TestScheduler_FiresDueJobsOncePerDay(t *testing.T) {
	dispatcher := new(MockDispatcher)
	clock := time.Date(2024, time.February, 1, 0, 45, 0, 0, time.UTC)
	s := newTestScheduler(t, dispatcher, &clock)
	ctx := context.Background()
	feb1 := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)

	dispatcher.On("Dispatch", mock.Anything, batchFor(command.OpMarkLoansOverdue, feb1, 1)).
		Return(&service.BatchResult{Job: service.JobMarkOverdue}, nil).Once()
	dispatcher.On("Dispatch", mock.Anything, batchFor(command.OpApplyLateFees, feb1, 0)).
		Return(&service.BatchResult{Job: service.JobApplyLateFees}, nil).Once()

	s.checkAndTrigger(ctx)
	s.checkAndTrigger(ctx)

	dispatcher.AssertExpectations(t)
	dispatcher.AssertNumberOfCalls(t, "Dispatch", 2)
}

func TestScheduler_NextDayRunsAgain(t *testing.T) {
	dispatcher := new(MockDispatcher)
	clock := time.Date(2024, time.February, 1, 0, 5, 0, 0, time.UTC)
	s := newTestScheduler(t, dispatcher, &clock)
	ctx := context.Background()

	dispatcher.On("Dispatch", mock.Anything, mock.Anything).Return(&service.BatchResult{}, nil)

	s.checkAndTrigger(ctx)
	clock = time.Date(2024, time.February, 2, 0, 5, 0, 0, time.UTC)
	s.checkAndTrigger(ctx)

	dispatcher.AssertNumberOfCalls(t, "Dispatch", 2)
	dispatcher.AssertCalled(t, "Dispatch", mock.Anything,
		batchFor(command.OpMarkLoansOverdue, time.Date(2024, time.February, 2, 0, 0, 0, 0, time.UTC), 1))
}

func TestScheduler_WriteOffOnlyOnConfiguredDay(t *testing.T) {
	dispatcher := new(MockDispatcher)
	clock := time.Date(2024, time.March, 1, 3, 0, 0, 0, time.UTC)
	s := newTestScheduler(t, dispatcher, &clock)
	ctx := context.Background()

	dispatcher.On("Dispatch", mock.Anything, mock.Anything).Return(&service.BatchResult{}, nil)

	s.checkAndTrigger(ctx)
	dispatcher.AssertNumberOfCalls(t, "Dispatch", 5)
	dispatcher.AssertNotCalled(t, "Dispatch", mock.Anything,
		batchFor(command.OpMarkLoansWrittenOff, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), 90))

	clock = time.Date(2024, time.March, 2, 0, 40, 0, 0, time.UTC)
	s.checkAndTrigger(ctx)
	dispatcher.AssertCalled(t, "Dispatch", mock.Anything,
		batchFor(command.OpMarkLoansWrittenOff, time.Date(2024, time.March, 2, 0, 0, 0, 0, time.UTC), 90))
}

func TestScheduler_FailedJobIsNotRetriedSameDay(t *testing.T) {
	dispatcher := new(MockDispatcher)
	clock := time.Date(2024, time.February, 1, 0, 10, 0, 0, time.UTC)
	s := newTestScheduler(t, dispatcher, &clock)
	ctx := context.Background()

	dispatcher.On("Dispatch", mock.Anything, mock.Anything).Return(nil, errors.New("database unavailable"))

	s.checkAndTrigger(ctx)
	s.checkAndTrigger(ctx)

	dispatcher.AssertNumberOfCalls(t, "Dispatch", 1)
}

func TestScheduler_StartStop(t *testing.T) {
	s := New(nil, 10*time.Millisecond, new(MockDispatcher), zap.NewNop())

	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Start(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	require.NoError(t, s.Stop(ctx))
}
