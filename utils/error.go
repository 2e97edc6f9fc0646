package utils

import "fmt"

// Business-rule failures are local to one request: they roll back the
// current unit of work, leave entity state untouched and are mapped to a
// status code by the HTTP layer. None of them is fatal to the process.

// ValidationError reports a malformed or missing input field.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func NewValidationError(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// NotFoundError reports an entity that is absent or outside the caller's
// business scope. Cross-tenant references surface as NotFound, never as a
// permission error, so existence does not leak.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

func NewNotFoundError(format string, args ...any) error {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// InvalidStateError reports an operation that is not legal for the entity's
// current state (editing a reversed transaction, returning a returned lot).
type InvalidStateError struct {
	Message string
}

func (e *InvalidStateError) Error() string { return e.Message }

func NewInvalidStateError(format string, args ...any) error {
	return &InvalidStateError{Message: fmt.Sprintf(format, args...)}
}

// AlreadyReversedError reports a second reversal of the same record.
type AlreadyReversedError struct {
	Message string
}

func (e *AlreadyReversedError) Error() string { return e.Message }

func NewAlreadyReversedError(format string, args ...any) error {
	return &AlreadyReversedError{Message: fmt.Sprintf(format, args...)}
}

// DuplicateSettlementError reports a second transaction for a bid that
// already has an active one.
type DuplicateSettlementError struct {
	Message string
}

func (e *DuplicateSettlementError) Error() string { return e.Message }

func NewDuplicateSettlementError(format string, args ...any) error {
	return &DuplicateSettlementError{Message: fmt.Sprintf(format, args...)}
}

// InsufficientStockError reports a bag allocation that would drive a lot's
// remaining bags negative.
type InsufficientStockError struct {
	Message string
}

func (e *InsufficientStockError) Error() string { return e.Message }

func NewInsufficientStockError(format string, args ...any) error {
	return &InsufficientStockError{Message: fmt.Sprintf(format, args...)}
}

var ErrorRecordNotFound = &NotFoundError{Message: "record not found"}

func ErrorPanic(err error) {
	if err != nil {
		panic(err)
	}
}
