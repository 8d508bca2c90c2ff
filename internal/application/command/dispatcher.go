package command

import (
	"context"
	"fmt"
	"sync"

	"github.com/gigmile/lending-service/internal/domain"
	"go.uber.org/zap"
)

// Handler executes one command and returns its result.
type Handler func(ctx context.Context, cmd Command) (interface{}, error)

// Dispatcher routes commands to the handler registered for their operation.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[Operation]Handler
	logger   *zap.Logger
}

func NewDispatcher(logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		handlers: make(map[Operation]Handler),
		logger:   logger,
	}
}

func (d *Dispatcher) Register(op Operation, handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[op] = handler
}

func (d *Dispatcher) Dispatch(ctx context.Context, cmd Command) (interface{}, error) {
	op := cmd.Operation()

	d.mu.RLock()
	handler, ok := d.handlers[op]
	d.mu.RUnlock()
	if !ok {
		d.logger.Warn("no handler for operation", zap.String("operation", string(op)))
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedOperation, op)
	}

	d.logger.Debug("dispatching command", zap.String("operation", string(op)))
	return handler(ctx, cmd)
}

// Typed adapts a handler for a concrete command type. A command of any other
// type is rejected as unsupported.
func Typed[C Command](fn func(ctx context.Context, cmd C) (interface{}, error)) Handler {
	return func(ctx context.Context, cmd Command) (interface{}, error) {
		typed, ok := cmd.(C)
		if !ok {
			return nil, fmt.Errorf("%w: unexpected payload %T for %s", domain.ErrUnsupportedOperation, cmd, cmd.Operation())
		}
		return fn(ctx, typed)
	}
}
