package handlers

import (
	"context"

	"github.com/hibiken/asynq"
)

// IAsynqClient abstracts the asynq client for enqueuing tasks, so handlers can
// be tested without Redis.
type IAsynqClient interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}
