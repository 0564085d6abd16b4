package queue

import (
	"context"

	"github.com/varunm24/socialflow/internal/models"
	"github.com/varunm24/socialflow/internal/repository"
)

// PostRunner performs the full fan-out for one post. Satisfied by
// executor.Executor.
type PostRunner interface {
	Execute(ctx context.Context, post *models.Post) error
}

type Queue struct {
	pr     repository.PostRepository
	runner PostRunner
}

func NewQueue(pr repository.PostRepository, runner PostRunner) *Queue {
	return &Queue{pr: pr, runner: runner}
}

const TaskTypeExecutePost = "post:execute"

// MaxTaskRetries bounds how often the broker redelivers a task whose
// handler returned an error.
const MaxTaskRetries = 3

type ExecutePostPayload struct {
	PostID int64 `json:"post_id"`
}
