package repo

import (
	"context"

	"github.com/nhle/flowtask/internal/model"
)

// TaskRepository is the sole contract the rest of the application depends
// on for task persistence. It hides the storage technology and the
// row/domain mapping.
type TaskRepository interface {
	// WatchTasks returns a channel that delivers the current full task
	// list (ordered by position, sub-tasks included) immediately on
	// subscription and again after every underlying change. Emissions
	// are sequential per subscriber. The channel closes when ctx ends.
	WatchTasks(ctx context.Context) <-chan []model.Task

	// GetTaskByID returns a point-in-time snapshot of one task with its
	// sub-tasks, or nil when no such task exists.
	GetTaskByID(ctx context.Context, id int64) (*model.Task, error)

	// UpsertTask atomically writes the task and its full sub-task set,
	// replacing whatever sub-tasks were stored before. A task with a
	// zero ID is inserted and returned with its assigned ID.
	UpsertTask(ctx context.Context, task model.Task) (model.Task, error)

	// DeleteTask removes the task; its sub-tasks go with it. Deleting a
	// since-removed task is a no-op.
	DeleteTask(ctx context.Context, task model.Task) error

	// UpdateTasksOrder bulk-persists the position field of every given
	// task, in the order given.
	UpdateTasksOrder(ctx context.Context, tasks []model.Task) error
}
