package command

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gigmile/lending-service/internal/application/service"
	"github.com/gigmile/lending-service/internal/domain"
)

type Operation string

const (
	OpCreateLoan               Operation = "CREATE_LOAN"
	OpRecordPayment            Operation = "RECORD_PAYMENT"
	OpMarkLoansOverdue         Operation = "MARK_LOANS_OVERDUE"
	OpApplyLateFees            Operation = "APPLY_LATE_FEES"
	OpSendPaymentReminders     Operation = "SEND_PAYMENT_REMINDERS"
	OpSendInstallmentReminders Operation = "SEND_INSTALLMENT_REMINDERS"
	OpMarkLoansDefaulted       Operation = "MARK_LOANS_DEFAULTED"
	OpMarkLoansWrittenOff      Operation = "MARK_LOANS_WRITTEN_OFF"
)

var batchOperations = map[Operation]bool{
	OpMarkLoansOverdue:         true,
	OpApplyLateFees:            true,
	OpSendPaymentReminders:     true,
	OpSendInstallmentReminders: true,
	OpMarkLoansDefaulted:       true,
	OpMarkLoansWrittenOff:      true,
}

func (op Operation) IsBatch() bool {
	return batchOperations[op]
}

// ParseOperation accepts both MARK_LOANS_OVERDUE and mark-loans-overdue.
func ParseOperation(s string) (Operation, error) {
	op := Operation(strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_")))
	if op == OpCreateLoan || op == OpRecordPayment || op.IsBatch() {
		return op, nil
	}
	return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedOperation, s)
}

// Command is a business operation with its typed payload.
type Command interface {
	Operation() Operation
}

type CreateLoanCommand struct {
	service.CreateLoanRequest
}

func (CreateLoanCommand) Operation() Operation { return OpCreateLoan }

type RecordPaymentCommand struct {
	service.RecordPaymentRequest
}

func (RecordPaymentCommand) Operation() Operation { return OpRecordPayment }

// BatchCommand runs one batch pass for ExecutionDate. ThresholdDays is the
// pass's day threshold or reminder window; late fees ignore it.
type BatchCommand struct {
	Op            Operation
	ExecutionDate time.Time
	ThresholdDays int
}

func (c BatchCommand) Operation() Operation { return c.Op }

// NewBatchCommand validates op as a batch operation.
func NewBatchCommand(op Operation, executionDate time.Time, thresholdDays int) (BatchCommand, error) {
	if !op.IsBatch() {
		return BatchCommand{}, fmt.Errorf("%w: %s is not a batch operation", domain.ErrUnsupportedOperation, op)
	}
	if thresholdDays < 0 {
		return BatchCommand{}, domain.ValidationError("threshold days cannot be negative")
	}
	return BatchCommand{Op: op, ExecutionDate: domain.Date(executionDate), ThresholdDays: thresholdDays}, nil
}

// RegisterLoanHandlers wires every loan operation to its service.
func RegisterLoanHandlers(d *Dispatcher, loans *service.LoanService, payments *service.PaymentService, lifecycle *service.LifecycleService) {
	d.Register(OpCreateLoan, Typed(func(ctx context.Context, cmd CreateLoanCommand) (interface{}, error) {
		return loans.CreateLoan(ctx, cmd.CreateLoanRequest)
	}))
	d.Register(OpRecordPayment, Typed(func(ctx context.Context, cmd RecordPaymentCommand) (interface{}, error) {
		return payments.RecordPayment(ctx, cmd.RecordPaymentRequest)
	}))

	batches := map[Operation]func(ctx context.Context, cmd BatchCommand) (*service.BatchResult, error){
		OpMarkLoansOverdue: func(ctx context.Context, cmd BatchCommand) (*service.BatchResult, error) {
			return lifecycle.MarkOverdue(ctx, cmd.ExecutionDate, cmd.ThresholdDays)
		},
		OpApplyLateFees: func(ctx context.Context, cmd BatchCommand) (*service.BatchResult, error) {
			return lifecycle.ApplyLateFees(ctx, cmd.ExecutionDate)
		},
		OpSendPaymentReminders: func(ctx context.Context, cmd BatchCommand) (*service.BatchResult, error) {
			return lifecycle.SendPaymentReminders(ctx, cmd.ExecutionDate, cmd.ThresholdDays)
		},
		OpSendInstallmentReminders: func(ctx context.Context, cmd BatchCommand) (*service.BatchResult, error) {
			return lifecycle.SendInstallmentReminders(ctx, cmd.ExecutionDate, cmd.ThresholdDays)
		},
		OpMarkLoansDefaulted: func(ctx context.Context, cmd BatchCommand) (*service.BatchResult, error) {
			return lifecycle.MarkDefaulted(ctx, cmd.ExecutionDate, cmd.ThresholdDays)
		},
		OpMarkLoansWrittenOff: func(ctx context.Context, cmd BatchCommand) (*service.BatchResult, error) {
			return lifecycle.MarkWrittenOff(ctx, cmd.ExecutionDate, cmd.ThresholdDays)
		},
	}
	for op, run := range batches {
		run := run
		d.Register(op, Typed(func(ctx context.Context, cmd BatchCommand) (interface{}, error) {
			return run(ctx, cmd)
		}))
	}
}
