package executor

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/varunm24/socialflow/internal/platform"
)

func retryExecutor() *Executor {
	return &Executor{maxAttempts: 3, retryDelay: 0}
}

func TestExecuteWithRetries_SucceedsAfterTransientFailures(t *testing.T) {
	e := retryExecutor()

	calls := 0
	err := e.executeWithRetries(context.Background(), 1, func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestExecuteWithRetries_ExhaustionReturnsLastError(t *testing.T) {
	e := retryExecutor()

	calls := 0
	last := errors.New("still broken")
	err := e.executeWithRetries(context.Background(), 1, func() error {
		calls++
		return fmt.Errorf("%w (attempt %d)", last, calls)
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, last)
	assert.Equal(t, 3, calls)
}

func TestExecuteWithRetries_MediaValidationStopsImmediately(t *testing.T) {
	e := retryExecutor()

	calls := 0
	err := e.executeWithRetries(context.Background(), 1, func() error {
		calls++
		return fmt.Errorf("configure: %w", platform.ErrMediaValidation)
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestExecuteWithRetries_FatalErrorNotRetried(t *testing.T) {
	e := retryExecutor()

	calls := 0
	err := e.executeWithRetries(context.Background(), 1, func() error {
		calls++
		return platform.ErrMissingCredentials
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, platform.ErrMissingCredentials)
	assert.Equal(t, 1, calls)
}

func TestExecuteWithRetries_ContextCancelStopsRetrying(t *testing.T) {
	e := &Executor{maxAttempts: 3, retryDelay: time.Hour}

	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := e.executeWithRetries(ctx, 1, func() error {
		calls++
		cancel()
		return errors.New("transient")
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
