package common

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithRetry_SucceedsFirstAttempt(t *testing.T) {
	attempts := 0
	err := WithRetry(context.Background(), func() error {
		attempts++
		return nil
	}, RetryOptions{MaxAttempts: 3})

	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
}

func TestWithRetry_NonRetryableFailsImmediately(t *testing.T) {
	attempts := 0
	boom := errors.New("boom")
	err := WithRetry(context.Background(), func() error {
		attempts++
		return boom
	}, RetryOptions{MaxAttempts: 5, InitialDelay: time.Millisecond})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, attempts)
}

func TestWithRetry_RetriesUntilSuccess(t *testing.T) {
	attempts := 0
	err := WithRetry(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return ErrDuplicateRateCode
		}
		return nil
	}, RetryOptions{MaxAttempts: 5, InitialDelay: time.Millisecond})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestWithRetry_ExhaustsAttempts(t *testing.T) {
	attempts := 0
	err := WithRetry(context.Background(), func() error {
		attempts++
		return &RetryableError{Err: errors.New("transient"), Retryable: true}
	}, RetryOptions{MaxAttempts: 2, InitialDelay: time.Millisecond})

	assert.ErrorIs(t, err, ErrMaxRetries)
	assert.Equal(t, 2, attempts)
}

func TestWithRetry_HonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WithRetry(ctx, func() error {
		return ErrDuplicateRateCode
	}, RetryOptions{MaxAttempts: 5, InitialDelay: time.Minute})

	assert.ErrorIs(t, err, context.Canceled)
}
