package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/varunm24/socialflow/internal/models"
)

// PostStore is the slice of the post repository the scheduler needs: due
// posts and the conditional pending→queued flip.
type PostStore interface {
	ListDue(ctx context.Context, now time.Time) ([]*models.Post, error)
	UpdateStatusIf(ctx context.Context, postID int64, from, to string) (bool, error)
}

// Submitter hands a post over to the durable task queue for immediate
// execution.
type Submitter interface {
	Submit(postID int64) error
}

// Scheduler converts "time has arrived" into "execution has been requested"
// once per due post. It never executes anything itself and never blocks on
// execution.
type Scheduler struct {
	posts    PostStore
	queue    Submitter
	interval time.Duration
}

func New(posts PostStore, queue Submitter, interval time.Duration) *Scheduler {
	return &Scheduler{posts: posts, queue: queue, interval: interval}
}

// Run polls until the context is cancelled. Cycles run strictly one after
// another; a slow cycle delays the next tick rather than overlapping it.
func (s *Scheduler) Run(ctx context.Context) {
	slog.Info("scheduler started", "interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("scheduler stopped")
			return
		case <-ticker.C:
			s.CheckAndDispatch(ctx)
		}
	}
}

// CheckAndDispatch runs one polling cycle. A single post's failure never
// halts the rest of the batch.
func (s *Scheduler) CheckAndDispatch(ctx context.Context) {
	duePosts, err := s.posts.ListDue(ctx, time.Now())
	if err != nil {
		slog.Error("scheduler failed to list due posts", "error", err)
		return
	}

	if len(duePosts) == 0 {
		return
	}

	slog.Info("due posts found", "count", len(duePosts))

	for _, post := range duePosts {
		s.dispatch(ctx, post.ID)
	}
}

func (s *Scheduler) dispatch(ctx context.Context, postID int64) {
	// The conditional update is what makes a second poller (or a repeated
	// cycle racing a slow one) lose cleanly: only the winner submits.
	queued, err := s.posts.UpdateStatusIf(ctx, postID, models.PostStatusPending, models.PostStatusQueued)
	if err != nil {
		slog.Error("failed to mark post queued", "post_id", postID, "error", err)
		return
	}
	if !queued {
		slog.Info("post no longer pending, skipping", "post_id", postID)
		return
	}

	if err := s.queue.Submit(postID); err != nil {
		// The post stays queued; operators resolve this, the loop does not
		// retry on its own.
		slog.Error("failed to submit queued post", "post_id", postID, "error", err)
		return
	}

	slog.Info("post dispatched", "post_id", postID)
}
