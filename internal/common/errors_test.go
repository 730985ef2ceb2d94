package common

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserError(t *testing.T) {
	cause := errors.New("disk full")
	err := NewUserError("failed to open the estimate database", cause)

	assert.Equal(t, "failed to open the estimate database: disk full", err.Error())
	assert.ErrorIs(t, err, cause)

	bare := &UserError{UserMessage: "nothing stored yet"}
	assert.Equal(t, "nothing stored yet", bare.Error())
	assert.Nil(t, bare.Unwrap())
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"duplicate rate code", ErrDuplicateRateCode, true},
		{"wrapped duplicate rate code", fmt.Errorf("save failed: %w", ErrDuplicateRateCode), true},
		{"deadline exceeded", context.DeadlineExceeded, true},
		{"retryable wrapper", &RetryableError{Err: errors.New("transient"), Retryable: true}, true},
		{"non-retryable wrapper", &RetryableError{Err: errors.New("fatal"), Retryable: false}, false},
		{"plain error", errors.New("boom"), false},
		{"not found", ErrNotFound, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}
