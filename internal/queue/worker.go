package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/varunm24/socialflow/internal/models"
)

// HandleExecutePostTask is the consumer side of post execution. Returning
// an error makes asynq redeliver the task, so only conditions that a
// redelivery could plausibly fix bubble up.
func (q *Queue) HandleExecutePostTask(ctx context.Context, task *asynq.Task) error {
	var payload ExecutePostPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		// A corrupt payload will never deserialize on redelivery.
		return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	post, err := q.pr.GetByID(ctx, payload.PostID)
	if err != nil {
		return fmt.Errorf("fetch post %d: %w", payload.PostID, err)
	}
	if post == nil {
		slog.Warn("post no longer exists, dropping task", "post_id", payload.PostID)
		return nil
	}

	// Cancelled and already-terminal posts are dropped silently; the user
	// acted between enqueue and pickup.
	switch post.Status {
	case models.PostStatusCancelled, models.PostStatusPosted:
		slog.Info("post not executable, dropping task", "post_id", post.ID, "status", post.Status)
		return nil
	}

	if err := q.runner.Execute(ctx, post); err != nil {
		slog.Error("post execution failed", "post_id", post.ID, "error", err)
		return err
	}

	return nil
}
