package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore creates an in-memory store with all migrations applied.
func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func taskFixture(title string, position int) TaskRow {
	return TaskRow{
		Title:    title,
		Position: position,
		Priority: 1,
	}
}

func subTaskFixture(id, title string, position int) SubTaskRow {
	return SubTaskRow{
		ID:       id,
		Title:    title,
		Position: position,
	}
}

func TestMigrationsApplyOnceAcrossReopens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tasks.db")

	s, err := NewSQLiteStore(path)
	require.NoError(t, err)

	id, err := s.UpsertTask(context.Background(), taskFixture("persisted", 0))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// Reopen: migrations must be skipped, data must survive.
	s, err = NewSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()

	row, err := s.GetTaskByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, "persisted", row.Title)

	var versions []int
	require.NoError(t, s.db.Select(&versions, "SELECT version FROM schema_version ORDER BY version"))
	assert.Equal(t, []int{1, 2, 3, 4}, versions)
}

func TestUpsertTaskAssignsIDOnInsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.UpsertTask(ctx, taskFixture("first", 0))
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))

	id2, err := s.UpsertTask(ctx, taskFixture("second", 1))
	require.NoError(t, err)
	assert.NotEqual(t, id, id2)
}

func TestUpsertTaskKeepsCallerIDOnUpdate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.UpsertTask(ctx, taskFixture("before", 0))
	require.NoError(t, err)

	updated := taskFixture("after", 5)
	updated.ID = id
	gotID, err := s.UpsertTask(ctx, updated)
	require.NoError(t, err)
	assert.Equal(t, id, gotID)

	// A no-op update must still report the caller's ID.
	gotID, err = s.UpsertTask(ctx, updated)
	require.NoError(t, err)
	assert.Equal(t, id, gotID)

	row, err := s.GetTaskByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, "after", row.Title)
	assert.Equal(t, 5, row.Position)
}

func TestUpsertTaskWithSubTasksReplacesChildSet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.UpsertTaskWithSubTasks(ctx, taskFixture("groceries", 0), []SubTaskRow{
		subTaskFixture("st-1", "milk", 0),
		subTaskFixture("st-2", "eggs", 1),
		subTaskFixture("st-3", "bread", 2),
	})
	require.NoError(t, err)

	subs, err := s.GetSubTasksByTaskID(ctx, id)
	require.NoError(t, err)
	require.Len(t, subs, 3)
	for _, st := range subs {
		assert.Equal(t, id, st.TaskID)
	}

	// Re-upsert with a different set: removals, one edit, one addition.
	task := taskFixture("groceries", 0)
	task.ID = id
	_, err = s.UpsertTaskWithSubTasks(ctx, task, []SubTaskRow{
		subTaskFixture("st-2", "a dozen eggs", 0),
		subTaskFixture("st-4", "butter", 1),
	})
	require.NoError(t, err)

	subs, err = s.GetSubTasksByTaskID(ctx, id)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, "st-2", subs[0].ID)
	assert.Equal(t, "a dozen eggs", subs[0].Title)
	assert.Equal(t, "st-4", subs[1].ID)
}

func TestUpsertTaskWithSubTasksIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	task := taskFixture("repeatable", 3)
	subs := []SubTaskRow{
		subTaskFixture("st-1", "one", 0),
		subTaskFixture("st-2", "two", 1),
	}

	id, err := s.UpsertTaskWithSubTasks(ctx, task, subs)
	require.NoError(t, err)

	task.ID = id
	id2, err := s.UpsertTaskWithSubTasks(ctx, task, subs)
	require.NoError(t, err)
	assert.Equal(t, id, id2)

	rows, err := s.GetTasks(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "repeatable", rows[0].Title)
	assert.Equal(t, 3, rows[0].Position)

	got, err := s.GetSubTasksByTaskID(ctx, id)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "one", got[0].Title)
	assert.Equal(t, "two", got[1].Title)
}

func TestCompositeUpsertRollsBackOnMidTransactionFailure(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.UpsertTaskWithSubTasks(ctx, taskFixture("stable", 0), []SubTaskRow{
		subTaskFixture("st-1", "keep me", 0),
	})
	require.NoError(t, err)

	// Drive the same transaction steps the composite upsert runs, but
	// fail the final insert with a foreign key violation after the old
	// sub-tasks are already deleted. The rollback must restore them.
	tx, err := s.db.BeginTxx(ctx, nil)
	require.NoError(t, err)

	task := taskFixture("stable", 0)
	task.ID = id
	_, err = upsertTaskTx(ctx, tx, task)
	require.NoError(t, err)
	require.NoError(t, deleteSubTasksTx(ctx, tx, id))

	bad := subTaskFixture("st-2", "orphan", 0)
	bad.TaskID = id + 999
	err = insertSubTasksTx(ctx, tx, []SubTaskRow{bad})
	require.Error(t, err)
	require.NoError(t, tx.Rollback())

	subs, err := s.GetSubTasksByTaskID(ctx, id)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "st-1", subs[0].ID)
	assert.Equal(t, "keep me", subs[0].Title)
}

func TestSubTaskInsertRejectsMissingParent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tx, err := s.db.BeginTxx(ctx, nil)
	require.NoError(t, err)
	defer tx.Rollback()

	bad := subTaskFixture("st-1", "floating", 0)
	bad.TaskID = 12345
	err = insertSubTasksTx(ctx, tx, []SubTaskRow{bad})
	assert.Error(t, err)
}

func TestDeleteTaskCascadesToSubTasks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.UpsertTaskWithSubTasks(ctx, taskFixture("doomed", 0), []SubTaskRow{
		subTaskFixture("st-1", "child a", 0),
		subTaskFixture("st-2", "child b", 1),
	})
	require.NoError(t, err)

	keepID, err := s.UpsertTaskWithSubTasks(ctx, taskFixture("survivor", 1), []SubTaskRow{
		subTaskFixture("st-3", "child c", 0),
	})
	require.NoError(t, err)

	require.NoError(t, s.DeleteTask(ctx, id))

	subs, err := s.GetSubTasks(ctx)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, keepID, subs[0].TaskID)

	rows, err := s.GetTasks(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "survivor", rows[0].Title)
}

func TestDeleteMissingTaskIsNoop(t *testing.T) {
	s := newTestStore(t)
	assert.NoError(t, s.DeleteTask(context.Background(), 424242))
}

func TestGetTaskByIDNotFound(t *testing.T) {
	s := newTestStore(t)

	row, err := s.GetTaskByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Nil(t, row)
}

func TestGetTasksOrdersByPositionThenID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.UpsertTask(ctx, taskFixture("third", 5))
	require.NoError(t, err)
	_, err = s.UpsertTask(ctx, taskFixture("first", -1))
	require.NoError(t, err)
	_, err = s.UpsertTask(ctx, taskFixture("second", 0))
	require.NoError(t, err)
	_, err = s.UpsertTask(ctx, taskFixture("second-bis", 0))
	require.NoError(t, err)

	rows, err := s.GetTasks(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "first", rows[0].Title)
	assert.Equal(t, "second", rows[1].Title)
	assert.Equal(t, "second-bis", rows[2].Title)
	assert.Equal(t, "third", rows[3].Title)
}

func TestUpdateTaskPositionsBulk(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	idA, err := s.UpsertTask(ctx, taskFixture("a", 0))
	require.NoError(t, err)
	idB, err := s.UpsertTask(ctx, taskFixture("b", 1))
	require.NoError(t, err)

	err = s.UpdateTaskPositions(ctx, []TaskRow{
		{ID: idB, Position: 0},
		{ID: idA, Position: 1},
		{ID: 999, Position: 2}, // since-deleted task: zero rows affected
	})
	require.NoError(t, err)

	rows, err := s.GetTasks(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "b", rows[0].Title)
	assert.Equal(t, "a", rows[1].Title)
}

func TestSubscribeSignalsAfterWrites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	changes, cancel := s.Subscribe()
	defer cancel()

	id, err := s.UpsertTask(ctx, taskFixture("watched", 0))
	require.NoError(t, err)

	select {
	case _, ok := <-changes:
		require.True(t, ok)
	default:
		t.Fatal("expected a change signal after upsert")
	}

	// Multiple writes coalesce into at most one pending signal.
	require.NoError(t, s.UpdateTaskPositions(ctx, []TaskRow{{ID: id, Position: 2}}))
	require.NoError(t, s.DeleteTask(ctx, id))

	select {
	case _, ok := <-changes:
		require.True(t, ok)
	default:
		t.Fatal("expected a coalesced change signal")
	}
	select {
	case <-changes:
		t.Fatal("signals should coalesce, not queue")
	default:
	}
}

func TestSubscribeCancelStopsSignals(t *testing.T) {
	s := newTestStore(t)

	changes, cancel := s.Subscribe()
	cancel()

	_, ok := <-changes
	assert.False(t, ok)

	// Writing after cancel must not panic.
	_, err := s.UpsertTask(context.Background(), taskFixture("late", 0))
	assert.NoError(t, err)
}
