// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Storage errors.
	ErrNotFound           = errors.New("not found")
	ErrDuplicateRateCode  = errors.New("duplicate rate code")
	ErrPersistenceFailure = errors.New("persistence failure")

	// Rate composition errors.
	ErrRateTypeConflict   = errors.New("rate type conflict")
	ErrRateCycle          = errors.New("rate cycle detected")
	ErrSyncSourceNotFound = errors.New("sync source not found")

	// Configuration errors.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// IsRetryable determines if an error should trigger a retry. Rate code
// allocation races surface as duplicate-code constraint violations and are
// resolved by re-reading the code set and trying again.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrDuplicateRateCode) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return false
}
