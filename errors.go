package streampay

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrNotFound     = errors.New("streampay: not found")
	ErrInvalidInput = errors.New("streampay: invalid input")
	ErrUnauthorized = errors.New("streampay: unauthorized")

	// Stream creation errors
	ErrInvalidTimeParameters = errors.New("streampay: invalid time parameters")
	ErrZeroFunds             = errors.New("streampay: stream must be funded with a positive amount")
	ErrSelfStream            = errors.New("streampay: payer and recipient must differ")

	// Withdrawal errors
	ErrStreamNotFound      = errors.New("streampay: stream not found")
	ErrInsufficientBalance = errors.New("streampay: insufficient available balance")
	ErrTransferFailed      = errors.New("streampay: funds transfer failed")

	// Store errors
	ErrStoreNotReady     = errors.New("streampay: store not ready")
	ErrStoreClosed       = errors.New("streampay: store is closed")
	ErrTransactionFailed = errors.New("streampay: transaction failed")
	ErrMigrationFailed   = errors.New("streampay: migration failed")
)

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("streampay: validation failed for %s: %s", e.Field, e.Message)
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrStreamNotFound)
}

// IsValidation returns true if the error is a request validation failure:
// the caller supplied arguments no retry will fix.
func IsValidation(err error) bool {
	if errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInvalidTimeParameters) ||
		errors.Is(err, ErrZeroFunds) ||
		errors.Is(err, ErrSelfStream) {
		return true
	}

	var ve ValidationError

	return errors.As(err, &ve)
}

// IsRetryable returns true if the error is temporary and the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreNotReady) ||
		errors.Is(err, ErrTransactionFailed) ||
		errors.Is(err, ErrTransferFailed)
}
