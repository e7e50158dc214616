package model

// Task is the domain representation of a task with its owned sub-tasks.
// It knows nothing about the database; the store works with row types and
// the repo package maps between the two.
type Task struct {
	// ID is the store-assigned identifier. Zero means the task has not
	// been persisted yet; the store assigns an ID on first insert.
	ID int64 `json:"id"`

	// Title is the display text. Callers must not pass a blank title;
	// the store does not enforce this.
	Title string `json:"title"`

	// Description is optional free-form detail text.
	Description string `json:"description"`

	// IsDone marks the task as completed. Done tasks are hidden from
	// the visible list rather than shown struck-through.
	IsDone bool `json:"is_done"`

	// Position is the sort key. Lower values sort first. Values are not
	// required to be contiguous; a reorder renumbers the visible set to
	// 0..n-1.
	Position int `json:"position"`

	// Priority is persisted as its ordinal index.
	Priority Priority `json:"priority"`

	// DueDate is an optional due timestamp in epoch milliseconds.
	DueDate *int64 `json:"due_date,omitempty"`

	// SubTasks is the ordered set of sub-tasks owned by this task.
	// Sub-tasks are persisted only through the parent's upsert.
	SubTasks []SubTask `json:"sub_tasks,omitempty"`
}

// SubTask is a child item owned by exactly one Task. Its ID is a
// client-generated UUID assigned at creation time and never reassigned.
type SubTask struct {
	ID          string   `json:"id"`
	TaskID      int64    `json:"task_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	IsDone      bool     `json:"is_done"`
	Priority    Priority `json:"priority"`
	DueDate     *int64   `json:"due_date,omitempty"`
	Position    int      `json:"position"`
}
