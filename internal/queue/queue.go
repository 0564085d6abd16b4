package queue

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// Client wraps the asynq producer side. It satisfies scheduler.Submitter
// and the services' Enqueuer.
type Client struct {
	asynq *asynq.Client
}

func NewClient(asynqClient *asynq.Client) *Client {
	return &Client{asynq: asynqClient}
}

// Submit enqueues a post for execution as soon as a worker is free.
func (c *Client) Submit(postID int64) error {
	return c.enqueue(postID, asynq.ProcessIn(0))
}

// SubmitAt enqueues a post for execution at the given time.
func (c *Client) SubmitAt(postID int64, at time.Time) error {
	return c.enqueue(postID, asynq.ProcessAt(at))
}

func (c *Client) enqueue(postID int64, when asynq.Option) error {
	payload, err := json.Marshal(ExecutePostPayload{PostID: postID})
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypeExecutePost, payload)

	info, err := c.asynq.Enqueue(task, when, asynq.MaxRetry(MaxTaskRetries))
	if err != nil {
		return err
	}

	slog.Info("task enqueued", "task_id", info.ID, "post_id", postID)
	return nil
}
