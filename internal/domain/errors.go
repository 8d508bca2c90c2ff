package domain

import (
	"errors"
	"fmt"
)

// Error categories. Every error the engine returns wraps exactly one of these,
// so callers classify with errors.Is.
var (
	ErrNotFound             = errors.New("not found")
	ErrLimitExceeded        = errors.New("limit exceeded")
	ErrConflictingState     = errors.New("conflicting state")
	ErrUnsupportedOperation = errors.New("unsupported operation")
	ErrValidation           = errors.New("validation failed")
)

var (
	ErrCustomerNotFound = fmt.Errorf("customer %w", ErrNotFound)
	ErrProductNotFound  = fmt.Errorf("product %w", ErrNotFound)
	ErrFeeNotFound      = fmt.Errorf("fee %w", ErrNotFound)
	ErrLoanNotFound     = fmt.Errorf("loan %w", ErrNotFound)
	ErrPaymentNotFound  = fmt.Errorf("payment %w", ErrNotFound)

	ErrLoanLimitExceeded = fmt.Errorf("principal exceeds customer loan %w", ErrLimitExceeded)

	ErrOpenLoanExists       = fmt.Errorf("%w: customer already has an open loan", ErrConflictingState)
	ErrLoanNotPayable       = fmt.Errorf("%w: loan is not open for payments", ErrConflictingState)
	ErrInvalidTransition    = fmt.Errorf("%w: invalid status transition", ErrConflictingState)
	ErrDuplicateCustomer    = fmt.Errorf("%w: customer already exists", ErrConflictingState)
	ErrFeeAlreadyAttached   = fmt.Errorf("%w: fee already attached to product", ErrConflictingState)
	ErrDuplicatePaymentCode = fmt.Errorf("%w: payment code already used", ErrConflictingState)
	ErrDuplicateFeeApplied  = fmt.Errorf("%w: fee already applied", ErrConflictingState)
	ErrInactiveCustomer     = fmt.Errorf("%w: customer is not active", ErrConflictingState)
	ErrInactiveProduct      = fmt.Errorf("%w: product is not active", ErrConflictingState)
	ErrInvalidAmount        = fmt.Errorf("%w: amount must be positive", ErrValidation)
	ErrInvalidPaymentCode   = fmt.Errorf("%w: payment code is required", ErrValidation)
	ErrInvalidTenure        = fmt.Errorf("%w: tenure value must be positive", ErrValidation)
	ErrInvalidFeeValue      = fmt.Errorf("%w: invalid fee value", ErrValidation)
	ErrInvalidBillingDay    = fmt.Errorf("%w: preferred billing day must be between 0 and 31", ErrValidation)
	ErrInvalidStructureType = fmt.Errorf("%w: unknown loan structure type", ErrValidation)
	ErrInvalidPaymentMethod = fmt.Errorf("%w: unknown payment method", ErrValidation)
	ErrInvalidCalculation   = fmt.Errorf("%w: unknown fee calculation type", ErrValidation)
)

// ValidationError wraps ErrValidation with a field-specific message.
func ValidationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
