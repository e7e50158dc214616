package repo

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nhle/flowtask/internal/model"
	"github.com/nhle/flowtask/internal/store"
)

func TestPriorityRoundTrip(t *testing.T) {
	for _, p := range model.Priorities() {
		t.Run(p.String(), func(t *testing.T) {
			assert.Equal(t, p, model.PriorityFromOrdinal(p.Ordinal()))
		})
	}
}

func TestPriorityOutOfRangeFallsBack(t *testing.T) {
	assert.Equal(t, model.PriorityNothing, model.PriorityFromOrdinal(99))
	assert.Equal(t, model.PriorityNothing, model.PriorityFromOrdinal(-1))
	assert.Equal(t, model.PriorityNothing, model.PriorityFromOrdinal(4))
}

func TestTaskRowRoundTrip(t *testing.T) {
	due := int64(1735689600000)
	task := model.Task{
		ID:          7,
		Title:       "write report",
		Description: "quarterly numbers",
		IsDone:      true,
		Position:    3,
		Priority:    model.PriorityHigh,
		DueDate:     &due,
		SubTasks: []model.SubTask{
			{
				ID:       "st-1",
				TaskID:   7,
				Title:    "collect data",
				IsDone:   true,
				Priority: model.PriorityLow,
				Position: 0,
			},
			{
				ID:       "st-2",
				TaskID:   7,
				Title:    "draft",
				Priority: model.PriorityNothing,
				Position: 1,
			},
		},
	}

	row := taskToRow(task)
	assert.Equal(t, model.PriorityHigh.Ordinal(), row.Priority)

	subRows := make([]store.SubTaskRow, len(task.SubTasks))
	for i, st := range task.SubTasks {
		subRows[i] = subTaskToRow(st, task.ID)
	}

	back := rowToTask(row, subRows)
	assert.Equal(t, task, back)
}

func TestRowToTaskToleratesDriftedPriority(t *testing.T) {
	row := store.TaskRow{ID: 1, Title: "from the future", Priority: 99}
	sub := store.SubTaskRow{ID: "st-1", TaskID: 1, Title: "also drifted", Priority: 42}

	task := rowToTask(row, []store.SubTaskRow{sub})
	assert.Equal(t, model.PriorityNothing, task.Priority)
	assert.Equal(t, model.PriorityNothing, task.SubTasks[0].Priority)
}
