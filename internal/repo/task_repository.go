package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/nhle/flowtask/internal/model"
	"github.com/nhle/flowtask/internal/store"
)

// SQLiteTaskRepository implements TaskRepository on top of the SQLite
// entity store.
type SQLiteTaskRepository struct {
	store *store.SQLiteStore
}

// NewTaskRepository creates a repository backed by s.
func NewTaskRepository(s *store.SQLiteStore) *SQLiteTaskRepository {
	return &SQLiteTaskRepository{store: s}
}

var _ TaskRepository = (*SQLiteTaskRepository)(nil)

// WatchTasks subscribes to store changes and re-emits the full ordered
// task list after every committed write. A single goroutine owns the
// subscription, so emissions to one subscriber never reorder.
func (r *SQLiteTaskRepository) WatchTasks(ctx context.Context) <-chan []model.Task {
	out := make(chan []model.Task)
	changes, cancel := r.store.Subscribe()

	go func() {
		defer close(out)
		defer cancel()

		// Initial snapshot before any change lands.
		tasks, err := r.loadAll(ctx)
		if err == nil {
			select {
			case out <- tasks:
			case <-ctx.Done():
				return
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-changes:
				if !ok {
					return
				}
				tasks, err := r.loadAll(ctx)
				if err != nil {
					// The next change signal retries; a transient
					// read failure must not kill the stream.
					continue
				}
				select {
				case out <- tasks:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out
}

// GetTaskByID returns one task with its sub-tasks, or nil when not found.
func (r *SQLiteTaskRepository) GetTaskByID(ctx context.Context, id int64) (*model.Task, error) {
	row, err := r.store.GetTaskByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, nil
	}

	subRows, err := r.store.GetSubTasksByTaskID(ctx, id)
	if err != nil {
		return nil, err
	}

	task := rowToTask(*row, subRows)
	return &task, nil
}

// UpsertTask atomically persists the task and its full sub-task set.
// Sub-tasks without an ID get a fresh UUID first; IDs are assigned once at
// creation and never reassigned afterwards.
func (r *SQLiteTaskRepository) UpsertTask(ctx context.Context, task model.Task) (model.Task, error) {
	subRows := make([]store.SubTaskRow, len(task.SubTasks))
	for i, st := range task.SubTasks {
		if st.ID == "" {
			st.ID = uuid.New().String()
			task.SubTasks[i].ID = st.ID
		}
		subRows[i] = subTaskToRow(st, task.ID)
	}

	id, err := r.store.UpsertTaskWithSubTasks(ctx, taskToRow(task), subRows)
	if err != nil {
		return model.Task{}, fmt.Errorf("upserting task: %w", err)
	}

	task.ID = id
	for i := range task.SubTasks {
		task.SubTasks[i].TaskID = id
	}
	return task, nil
}

// DeleteTask removes the task; the store cascades to its sub-tasks.
func (r *SQLiteTaskRepository) DeleteTask(ctx context.Context, task model.Task) error {
	return r.store.DeleteTask(ctx, task.ID)
}

// UpdateTasksOrder bulk-persists positions in the order given.
func (r *SQLiteTaskRepository) UpdateTasksOrder(ctx context.Context, tasks []model.Task) error {
	rows := make([]store.TaskRow, len(tasks))
	for i, t := range tasks {
		rows[i] = taskToRow(t)
	}
	return r.store.UpdateTaskPositions(ctx, rows)
}

// loadAll queries all tasks and groups their sub-tasks under them, in
// position order.
func (r *SQLiteTaskRepository) loadAll(ctx context.Context) ([]model.Task, error) {
	taskRows, err := r.store.GetTasks(ctx)
	if err != nil {
		return nil, err
	}

	subRows, err := r.store.GetSubTasks(ctx)
	if err != nil {
		return nil, err
	}

	byTask := make(map[int64][]store.SubTaskRow, len(taskRows))
	for _, sr := range subRows {
		byTask[sr.TaskID] = append(byTask[sr.TaskID], sr)
	}

	tasks := make([]model.Task, len(taskRows))
	for i, tr := range taskRows {
		tasks[i] = rowToTask(tr, byTask[tr.ID])
	}
	return tasks, nil
}
