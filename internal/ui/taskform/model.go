package taskform

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/nhle/flowtask/internal/model"
)

// SubmitMsg carries the edited task back to the root model for persisting.
type SubmitMsg struct {
	Task model.Task
}

// CancelMsg signals the form was aborted.
type CancelMsg struct{}

// dueDateLayout is the accepted due date input format.
const dueDateLayout = "2006-01-02"

// Field keys for reading completed form values. The model is copied on
// every bubbletea update, so values are read back through the form by
// key rather than bound to struct fields.
const (
	keyTitle       = "title"
	keyDescription = "description"
	keyPriority    = "priority"
	keyDueDate     = "due_date"
	keySubTasks    = "subtasks"
)

// Model is the create/edit form for a task and its sub-tasks.
type Model struct {
	form     *huh.Form
	original model.Task
}

// New creates a form pre-filled from task. A task with a zero ID is a
// creation; its Position must already be set by the caller.
func New(task model.Task, width int) Model {
	dueDate := ""
	if task.DueDate != nil {
		dueDate = time.UnixMilli(*task.DueDate).Format(dueDateLayout)
	}

	lines := make([]string, len(task.SubTasks))
	for i, st := range task.SubTasks {
		lines[i] = st.Title
	}

	priorityOptions := make([]huh.Option[model.Priority], 0, 4)
	for _, p := range model.Priorities() {
		priorityOptions = append(priorityOptions, huh.NewOption(p.String(), p))
	}

	title := task.Title
	description := task.Description
	priority := task.Priority
	subTasks := strings.Join(lines, "\n")

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key(keyTitle).
				Title("Title").
				Value(&title).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("title must not be empty")
					}
					return nil
				}),
			huh.NewText().
				Key(keyDescription).
				Title("Description").
				Lines(3).
				Value(&description),
			huh.NewSelect[model.Priority]().
				Key(keyPriority).
				Title("Priority").
				Options(priorityOptions...).
				Value(&priority),
			huh.NewInput().
				Key(keyDueDate).
				Title("Due date").
				Description("YYYY-MM-DD, empty for none").
				Placeholder(dueDateLayout).
				Value(&dueDate).
				Validate(validateDueDate),
			huh.NewText().
				Key(keySubTasks).
				Title("Sub-tasks").
				Description("One per line").
				Lines(4).
				Value(&subTasks),
		),
	).WithWidth(width)

	return Model{form: form, original: task}
}

// Init starts the underlying huh form.
func (m Model) Init() tea.Cmd {
	return m.form.Init()
}

// Update drives the form and reports completion or abort upward.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		task := m.buildTask()
		return m, func() tea.Msg { return SubmitMsg{Task: task} }
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// View renders the form.
func (m Model) View() string {
	return m.form.View()
}

// buildTask assembles the edited task from the completed form. Edits
// replace the task's fields and sub-task set wholesale; the repository's
// upsert persists both atomically.
func (m Model) buildTask() model.Task {
	task := m.original
	task.Title = strings.TrimSpace(m.form.GetString(keyTitle))
	task.Description = m.form.GetString(keyDescription)
	if p, ok := m.form.Get(keyPriority).(model.Priority); ok {
		task.Priority = p
	}
	task.DueDate = parseDueDate(m.form.GetString(keyDueDate))
	task.SubTasks = m.buildSubTasks(m.form.GetString(keySubTasks))
	return task
}

// buildSubTasks maps the sub-task lines back to sub-tasks. Lines keep the
// identity and done state of the sub-task previously at the same index;
// extra lines become new sub-tasks whose UUIDs the repository assigns.
func (m Model) buildSubTasks(text string) []model.SubTask {
	var subs []model.SubTask
	pos := 0
	for i, line := range strings.Split(text, "\n") {
		title := strings.TrimSpace(line)
		if title == "" {
			continue
		}
		st := model.SubTask{
			TaskID:   m.original.ID,
			Title:    title,
			Position: pos,
		}
		if i < len(m.original.SubTasks) {
			prev := m.original.SubTasks[i]
			st.ID = prev.ID
			st.IsDone = prev.IsDone
			st.Priority = prev.Priority
			st.DueDate = prev.DueDate
			st.Description = prev.Description
		}
		subs = append(subs, st)
		pos++
	}
	return subs
}

// validateDueDate accepts an empty value or a YYYY-MM-DD date.
func validateDueDate(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	if _, err := time.ParseInLocation(dueDateLayout, strings.TrimSpace(s), time.Local); err != nil {
		return fmt.Errorf("use %s", dueDateLayout)
	}
	return nil
}

// parseDueDate converts a validated due date string to epoch milliseconds.
func parseDueDate(s string) *int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	t, err := time.ParseInLocation(dueDateLayout, s, time.Local)
	if err != nil {
		return nil
	}
	ms := t.UnixMilli()
	return &ms
}
