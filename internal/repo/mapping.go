package repo

import (
	"github.com/nhle/flowtask/internal/model"
	"github.com/nhle/flowtask/internal/store"
)

// Mapping between persisted rows and domain objects. These are pure
// structural copies; the only rule beyond field-for-field is that a
// stored priority ordinal outside the current enum range maps to
// PriorityNothing rather than failing, which tolerates schema drift in
// either direction. No validation happens here.

func taskToRow(t model.Task) store.TaskRow {
	return store.TaskRow{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		IsDone:      t.IsDone,
		Position:    t.Position,
		Priority:    t.Priority.Ordinal(),
		DueDate:     t.DueDate,
	}
}

func rowToTask(r store.TaskRow, subRows []store.SubTaskRow) model.Task {
	subs := make([]model.SubTask, len(subRows))
	for i, sr := range subRows {
		subs[i] = rowToSubTask(sr)
	}
	return model.Task{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		IsDone:      r.IsDone,
		Position:    r.Position,
		Priority:    model.PriorityFromOrdinal(r.Priority),
		DueDate:     r.DueDate,
		SubTasks:    subs,
	}
}

func subTaskToRow(st model.SubTask, taskID int64) store.SubTaskRow {
	return store.SubTaskRow{
		ID:          st.ID,
		TaskID:      taskID,
		Title:       st.Title,
		Description: st.Description,
		IsDone:      st.IsDone,
		Priority:    st.Priority.Ordinal(),
		DueDate:     st.DueDate,
		Position:    st.Position,
	}
}

func rowToSubTask(r store.SubTaskRow) model.SubTask {
	return model.SubTask{
		ID:          r.ID,
		TaskID:      r.TaskID,
		Title:       r.Title,
		Description: r.Description,
		IsDone:      r.IsDone,
		Priority:    model.PriorityFromOrdinal(r.Priority),
		DueDate:     r.DueDate,
		Position:    r.Position,
	}
}
