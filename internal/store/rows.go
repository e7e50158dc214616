package store

// TaskRow is the persisted shape of a task. Priority is stored as the
// enum's ordinal index; DueDate as epoch milliseconds.
type TaskRow struct {
	ID          int64  `db:"id"`
	Title       string `db:"title"`
	Description string `db:"description"`
	IsDone      bool   `db:"is_done"`
	Position    int    `db:"position"`
	Priority    int    `db:"priority"`
	DueDate     *int64 `db:"due_date"`
}

// SubTaskRow is the persisted shape of a sub-task. The primary key is a
// client-generated UUID string; TaskID references tasks.id with cascade
// delete.
type SubTaskRow struct {
	ID          string `db:"id"`
	TaskID      int64  `db:"task_id"`
	Title       string `db:"title"`
	Description string `db:"description"`
	IsDone      bool   `db:"is_done"`
	Priority    int    `db:"priority"`
	DueDate     *int64 `db:"due_date"`
	Position    int    `db:"position"`
}
