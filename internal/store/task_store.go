package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// UpsertTask inserts or replaces a single task row and returns its
// definitive identifier: the store-assigned rowid when the caller's ID was
// zero, the caller's own ID otherwise. The update path never trusts the
// driver's last-insert value, which is meaningless when no column changed.
func (s *SQLiteStore) UpsertTask(ctx context.Context, row TaskRow) (int64, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	id, err := upsertTaskTx(ctx, tx, row)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing task upsert: %w", err)
	}

	s.watcher.notify()
	return id, nil
}

// UpsertTaskWithSubTasks atomically writes a task together with its full
// sub-task set. Inside one transaction it upserts the parent, resolves the
// effective task ID, deletes every existing sub-task row for that ID,
// re-stamps the incoming rows with it, and bulk-inserts them. If any step
// fails, nothing is written.
//
// Delete-then-reinsert is deliberate: additions, removals, reorders, and
// edits of the sub-task set are all handled uniformly and no orphaned or
// duplicate rows can survive. Sub-task counts are small, so the O(n)
// rewrite per save is acceptable.
func (s *SQLiteStore) UpsertTaskWithSubTasks(
	ctx context.Context,
	task TaskRow,
	subTasks []SubTaskRow,
) (int64, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	rowID, err := upsertTaskTx(ctx, tx, task)
	if err != nil {
		return 0, err
	}

	// Effective ID: the assigned rowid for a brand-new task, otherwise
	// the caller-supplied ID.
	taskID := task.ID
	if taskID == 0 {
		taskID = rowID
	}

	if err := deleteSubTasksTx(ctx, tx, taskID); err != nil {
		return 0, err
	}

	stamped := make([]SubTaskRow, len(subTasks))
	for i, st := range subTasks {
		st.TaskID = taskID
		stamped[i] = st
	}

	if err := insertSubTasksTx(ctx, tx, stamped); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing task upsert: %w", err)
	}

	s.watcher.notify()
	return taskID, nil
}

// DeleteTask removes a task by ID. The subtasks foreign key cascades, so
// all child rows go with it. Deleting an already-removed task affects zero
// rows and is not an error.
func (s *SQLiteStore) DeleteTask(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting task %d: %w", id, err)
	}

	if rows, _ := res.RowsAffected(); rows > 0 {
		s.watcher.notify()
	}
	return nil
}

// UpdateTaskPositions bulk-persists the position field of every given row,
// in one transaction. Rows for since-deleted tasks affect nothing.
func (s *SQLiteStore) UpdateTaskPositions(ctx context.Context, rows []TaskRow) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, "UPDATE tasks SET position = ? WHERE id = ?")
	if err != nil {
		return fmt.Errorf("preparing position update: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, r.Position, r.ID); err != nil {
			return fmt.Errorf("updating position of task %d: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing position updates: %w", err)
	}

	s.watcher.notify()
	return nil
}

// GetTasks retrieves all task rows ordered by position, with insertion
// order (the rowid) breaking ties.
func (s *SQLiteStore) GetTasks(ctx context.Context) ([]TaskRow, error) {
	var rows []TaskRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT id, title, description, is_done, position, priority, due_date
		 FROM tasks ORDER BY position ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}
	return rows, nil
}

// GetTaskByID retrieves a single task row, or nil when no such task exists.
func (s *SQLiteStore) GetTaskByID(ctx context.Context, id int64) (*TaskRow, error) {
	var row TaskRow
	err := s.db.GetContext(ctx, &row,
		`SELECT id, title, description, is_done, position, priority, due_date
		 FROM tasks WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting task %d: %w", id, err)
	}
	return &row, nil
}

// GetSubTasks retrieves all sub-task rows ordered by owning task and
// position, for grouping under their parents.
func (s *SQLiteStore) GetSubTasks(ctx context.Context) ([]SubTaskRow, error) {
	var rows []SubTaskRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT id, task_id, title, description, is_done, priority, due_date, position
		 FROM subtasks ORDER BY task_id ASC, position ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying subtasks: %w", err)
	}
	return rows, nil
}

// GetSubTasksByTaskID retrieves the sub-task rows of one task in position
// order.
func (s *SQLiteStore) GetSubTasksByTaskID(ctx context.Context, taskID int64) ([]SubTaskRow, error) {
	var rows []SubTaskRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT id, task_id, title, description, is_done, priority, due_date, position
		 FROM subtasks WHERE task_id = ? ORDER BY position ASC, id ASC`, taskID)
	if err != nil {
		return nil, fmt.Errorf("querying subtasks of task %d: %w", taskID, err)
	}
	return rows, nil
}

// upsertTaskTx writes one task row inside tx. A zero ID inserts a fresh
// row and returns the assigned rowid; a nonzero ID insert-or-replaces that
// exact row and returns the same ID.
func upsertTaskTx(ctx context.Context, tx *sqlx.Tx, row TaskRow) (int64, error) {
	if row.ID == 0 {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO tasks (title, description, is_done, position, priority, due_date)
			VALUES (?, ?, ?, ?, ?, ?)`,
			row.Title, row.Description, boolToInt(row.IsDone),
			row.Position, row.Priority, row.DueDate,
		)
		if err != nil {
			return 0, fmt.Errorf("inserting task: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("reading assigned task id: %w", err)
		}
		return id, nil
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO tasks (id, title, description, is_done, position, priority, due_date)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			is_done = excluded.is_done,
			position = excluded.position,
			priority = excluded.priority,
			due_date = excluded.due_date`,
		row.ID, row.Title, row.Description, boolToInt(row.IsDone),
		row.Position, row.Priority, row.DueDate,
	)
	if err != nil {
		return 0, fmt.Errorf("upserting task %d: %w", row.ID, err)
	}
	return row.ID, nil
}

// deleteSubTasksTx removes every sub-task row owned by taskID inside tx.
func deleteSubTasksTx(ctx context.Context, tx *sqlx.Tx, taskID int64) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM subtasks WHERE task_id = ?", taskID); err != nil {
		return fmt.Errorf("deleting subtasks of task %d: %w", taskID, err)
	}
	return nil
}

// insertSubTasksTx bulk-inserts sub-task rows inside tx, replacing any row
// with a colliding ID.
func insertSubTasksTx(ctx context.Context, tx *sqlx.Tx, rows []SubTaskRow) error {
	if len(rows) == 0 {
		return nil
	}

	stmt, err := tx.PreparexContext(ctx, `
		INSERT OR REPLACE INTO subtasks (
			id, task_id, title, description, is_done, priority, due_date, position
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing subtask insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		_, err := stmt.ExecContext(ctx,
			r.ID, r.TaskID, r.Title, r.Description,
			boolToInt(r.IsDone), r.Priority, r.DueDate, r.Position,
		)
		if err != nil {
			return fmt.Errorf("inserting subtask %s: %w", r.ID, err)
		}
	}
	return nil
}
