package command

import (
	"context"
	"testing"
	"time"

	"github.com/gigmile/lending-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDispatch_UnregisteredOperation(t *testing.T) {
	d := NewDispatcher(zap.NewNop())

	_, err := d.Dispatch(context.Background(), BatchCommand{Op: OpMarkLoansOverdue})

	assert.ErrorIs(t, err, domain.ErrUnsupportedOperation)
}

func TestDispatch_RoutesToTypedHandler(t *testing.T) {
	d := NewDispatcher(zap.NewNop())
	var got BatchCommand
	d.Register(OpApplyLateFees, Typed(func(_ context.Context, cmd BatchCommand) (interface{}, error) {
		got = cmd
		return "done", nil
	}))

	cmd, err := NewBatchCommand(OpApplyLateFees, time.Date(2024, 2, 4, 13, 45, 0, 0, time.UTC), 0)
	require.NoError(t, err)

	out, err := d.Dispatch(context.Background(), cmd)

	require.NoError(t, err)
	assert.Equal(t, "done", out)
	assert.Equal(t, time.Date(2024, 2, 4, 0, 0, 0, 0, time.UTC), got.ExecutionDate)
}

func TestDispatch_PayloadTypeMismatch(t *testing.T) {
	d := NewDispatcher(zap.NewNop())
	d.Register(OpRecordPayment, Typed(func(_ context.Context, cmd RecordPaymentCommand) (interface{}, error) {
		return nil, nil
	}))

	// a batch command claiming the payment operation
	_, err := d.Dispatch(context.Background(), BatchCommand{Op: OpRecordPayment})

	assert.ErrorIs(t, err, domain.ErrUnsupportedOperation)
}

func TestParseOperation(t *testing.T) {
	tests := []struct {
		in      string
		want    Operation
		wantErr bool
	}{
		{"MARK_LOANS_OVERDUE", OpMarkLoansOverdue, false},
		{"mark-loans-defaulted", OpMarkLoansDefaulted, false},
		{" apply_late_fees ", OpApplyLateFees, false},
		{"record-payment", OpRecordPayment, false},
		{"refund-payment", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			op, err := ParseOperation(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrUnsupportedOperation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, op)
		})
	}
}

func TestNewBatchCommand(t *testing.T) {
	_, err := NewBatchCommand(OpCreateLoan, time.Now(), 0)
	assert.ErrorIs(t, err, domain.ErrUnsupportedOperation)

	_, err = NewBatchCommand(OpMarkLoansOverdue, time.Now(), -1)
	assert.ErrorIs(t, err, domain.ErrValidation)

	cmd, err := NewBatchCommand(OpMarkLoansWrittenOff, time.Now(), 90)
	require.NoError(t, err)
	assert.True(t, cmd.Operation().IsBatch())
	assert.Equal(t, 90, cmd.ThresholdDays)
}
