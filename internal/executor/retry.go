package executor

import (
	"context"
	"log/slog"
	"time"

	"github.com/varunm24/socialflow/internal/platform"
)

// executeWithRetries runs one account-level publish attempt up to
// maxAttempts times with a fixed delay in between. The classification of
// each error decides whether to retry, give up, or stop because the upload
// actually went through despite the error.
func (e *Executor) executeWithRetries(ctx context.Context, accountID int64, fn func() error) error {
	var lastErr error

	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}

		switch platform.Classify(err) {
		case platform.TreatAsSuccess:
			slog.Warn("validation error after upload, treating as success",
				"account_id", accountID, "error", err)
			return nil
		case platform.FatalForAccount:
			return err
		}

		lastErr = err
		slog.Warn("publish attempt failed",
			"account_id", accountID, "attempt", attempt, "max_attempts", e.maxAttempts, "error", err)

		if attempt < e.maxAttempts {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(e.retryDelay):
			}
		}
	}

	return lastErr
}
