package tasklist

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/flowtask/internal/keys"
	"github.com/nhle/flowtask/internal/model"
	"github.com/nhle/flowtask/internal/repo"
	"github.com/nhle/flowtask/internal/theme"
)

// State is the view state of the task list. The list starts in
// StateLoading until the first snapshot arrives from the repository's
// live stream, then stays in StateReady for every later emission or
// local reorder.
type State int

const (
	StateLoading State = iota
	StateReady
)

// TasksMsg carries a fresh snapshot from the repository's live stream.
type TasksMsg struct {
	Tasks []model.Task
}

// EditTaskMsg asks the root model to open the editor for a task. A zero
// Task.ID means "create new".
type EditTaskMsg struct {
	Task model.Task
}

// OpResultMsg reports the outcome of an asynchronous write (reorder
// persist, toggle, delete).
type OpResultMsg struct {
	Op  string
	Err error
}

// Model is the task list view component. It holds the presented, filtered
// (not-done) task list and implements the optimistic reorder.
type Model struct {
	state  State
	tasks  []model.Task
	cursor int
	repo   repo.TaskRepository
	keys   *keys.KeyMap
	width  int
	height int
	err    error
}

// New creates a task list model. It shows a loading indicator until the
// first TasksMsg arrives.
func New(r repo.TaskRepository, k *keys.KeyMap, width, height int) Model {
	return Model{
		state:  StateLoading,
		repo:   r,
		keys:   k,
		width:  width,
		height: height,
	}
}

// SetSize updates the rendering dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// State returns the current view state.
func (m Model) State() State { return m.state }

// Tasks returns the presented visible task list.
func (m Model) Tasks() []model.Task { return m.tasks }

// SelectedTask returns the task under the cursor.
func (m Model) SelectedTask() (model.Task, bool) {
	if m.cursor < 0 || m.cursor >= len(m.tasks) {
		return model.Task{}, false
	}
	return m.tasks[m.cursor], true
}

// Update handles messages for the task list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case TasksMsg:
		m.ApplySnapshot(msg.Tasks)
		return m, nil

	case OpResultMsg:
		m.err = msg.Err
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)
	}

	return m, nil
}

// handleKeys processes key input for the list.
func (m Model) handleKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.tasks)-1 {
			m.cursor++
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil

	case key.Matches(msg, m.keys.MoveDown):
		return m.reorder(m.cursor, m.cursor+1)

	case key.Matches(msg, m.keys.MoveUp):
		return m.reorder(m.cursor, m.cursor-1)

	case key.Matches(msg, m.keys.New):
		return m, func() tea.Msg {
			return EditTaskMsg{Task: model.Task{Position: m.NewTaskPosition()}}
		}

	case key.Matches(msg, m.keys.Edit):
		task, ok := m.SelectedTask()
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg { return EditTaskMsg{Task: task} }

	case key.Matches(msg, m.keys.Toggle):
		task, ok := m.SelectedTask()
		if !ok {
			return m, nil
		}
		return m, m.toggleDone(task)

	case key.Matches(msg, m.keys.Delete):
		task, ok := m.SelectedTask()
		if !ok {
			return m, nil
		}
		return m, m.deleteTask(task)
	}

	return m, nil
}

// ApplySnapshot filters a repository snapshot down to not-done tasks and
// installs it as the presented list. Snapshots identical to the presented
// list are dropped: after an optimistic reorder the durable write echoes
// back through the live stream, and applying that echo would only cause
// flicker. Returns whether the presented list changed.
func (m *Model) ApplySnapshot(tasks []model.Task) bool {
	visible := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if !t.IsDone {
			visible = append(visible, t)
		}
	}

	first := m.state == StateLoading
	m.state = StateReady

	if !first && tasksEqual(m.tasks, visible) {
		return false
	}

	m.tasks = visible
	if m.cursor >= len(m.tasks) {
		m.cursor = len(m.tasks) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	return true
}

// NewTaskPosition returns the position for a task created now: one less
// than the current minimum visible position, so it sorts to the front
// without renumbering anything else. An empty list yields -1.
func (m Model) NewTaskPosition() int {
	minPos := 0
	for i, t := range m.tasks {
		if i == 0 || t.Position < minPos {
			minPos = t.Position
		}
	}
	return minPos - 1
}

// reorder moves the task at index from to index to: splice the presented
// list, renumber every task's position to its new array index, publish
// immediately, and persist the whole renumbered batch in the background.
// The later stream echo of that write is identical to what is already
// shown, so ApplySnapshot drops it.
func (m Model) reorder(from, to int) (Model, tea.Cmd) {
	if m.state != StateReady {
		return m, nil
	}
	if from < 0 || from >= len(m.tasks) || to < 0 || to >= len(m.tasks) || from == to {
		return m, nil
	}

	reordered := make([]model.Task, 0, len(m.tasks))
	reordered = append(reordered, m.tasks...)

	item := reordered[from]
	reordered = append(reordered[:from], reordered[from+1:]...)
	reordered = append(reordered[:to], append([]model.Task{item}, reordered[to:]...)...)

	for i := range reordered {
		reordered[i].Position = i
	}

	m.tasks = reordered
	m.cursor = to

	r := m.repo
	return m, func() tea.Msg {
		// Fire and forget: teardown must not cancel an in-flight
		// persist, or the order the user sees would be lost.
		err := r.UpdateTasksOrder(context.Background(), reordered)
		return OpResultMsg{Op: "reorder", Err: err}
	}
}

// Reorder exposes the reorder operation for callers outside the key
// handler (and for tests driving gesture indices directly).
func (m Model) Reorder(from, to int) (Model, tea.Cmd) {
	return m.reorder(from, to)
}

// toggleDone flips completion and persists via upsert. The task leaves
// the visible list when the stream re-emits, since done tasks are
// filtered out.
func (m Model) toggleDone(task model.Task) tea.Cmd {
	r := m.repo
	return func() tea.Msg {
		task.IsDone = !task.IsDone
		_, err := r.UpsertTask(context.Background(), task)
		return OpResultMsg{Op: "toggle", Err: err}
	}
}

// deleteTask removes the task; the store cascades to its sub-tasks.
func (m Model) deleteTask(task model.Task) tea.Cmd {
	r := m.repo
	return func() tea.Msg {
		err := r.DeleteTask(context.Background(), task)
		return OpResultMsg{Op: "delete", Err: err}
	}
}

// View renders the visible task list.
func (m Model) View() string {
	if m.state == StateLoading {
		return theme.HelpStyle.Render("loading tasks…")
	}
	if len(m.tasks) == 0 {
		return theme.HelpStyle.Render("no open tasks — press n to add one")
	}

	var b strings.Builder
	for i, t := range m.tasks {
		line := renderTask(t)
		if i == m.cursor {
			b.WriteString(theme.SelectedItemStyle.Render(line))
		} else {
			b.WriteString(theme.ListItemStyle.Render(line))
		}
		b.WriteString("\n")
		for _, st := range t.SubTasks {
			b.WriteString(theme.SubTaskStyle.Render(renderSubTask(st)))
			b.WriteString("\n")
		}
	}

	if m.err != nil {
		b.WriteString(theme.ErrorStyle.Render(fmt.Sprintf("error: %v", m.err)))
		b.WriteString("\n")
	}

	return b.String()
}

// renderTask formats one task line.
func renderTask(t model.Task) string {
	marker := theme.PriorityStyle(t.Priority).Render("●")
	line := fmt.Sprintf("%s %s", marker, t.Title)
	if t.DueDate != nil {
		due := time.UnixMilli(*t.DueDate).Format("Jan 2")
		line += theme.HelpStyle.Render(fmt.Sprintf("  (due %s)", due))
	}
	if n := len(t.SubTasks); n > 0 {
		done := 0
		for _, st := range t.SubTasks {
			if st.IsDone {
				done++
			}
		}
		line += theme.HelpStyle.Render(fmt.Sprintf("  [%d/%d]", done, n))
	}
	return line
}

// renderSubTask formats one sub-task line.
func renderSubTask(st model.SubTask) string {
	box := "☐"
	if st.IsDone {
		box = "☑"
	}
	return fmt.Sprintf("%s %s", box, st.Title)
}

// tasksEqual reports whether two task lists are field-for-field identical,
// sub-tasks included.
func tasksEqual(a, b []model.Task) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !taskEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

func taskEqual(a, b model.Task) bool {
	if a.ID != b.ID || a.Title != b.Title || a.Description != b.Description ||
		a.IsDone != b.IsDone || a.Position != b.Position || a.Priority != b.Priority {
		return false
	}
	if !int64PtrEqual(a.DueDate, b.DueDate) {
		return false
	}
	if len(a.SubTasks) != len(b.SubTasks) {
		return false
	}
	for i := range a.SubTasks {
		if !subTaskEqual(a.SubTasks[i], b.SubTasks[i]) {
			return false
		}
	}
	return true
}

func subTaskEqual(a, b model.SubTask) bool {
	return a.ID == b.ID && a.TaskID == b.TaskID && a.Title == b.Title &&
		a.Description == b.Description && a.IsDone == b.IsDone &&
		a.Priority == b.Priority && a.Position == b.Position &&
		int64PtrEqual(a.DueDate, b.DueDate)
}

func int64PtrEqual(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
