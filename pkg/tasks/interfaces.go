package tasks

import "github.com/hibiken/asynq"

// TaskEnqueuer is the part of *asynq.Client the admin routes need.
type TaskEnqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}
