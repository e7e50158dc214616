package app

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/nhle/flowtask/internal/keys"
	"github.com/nhle/flowtask/internal/model"
	"github.com/nhle/flowtask/internal/repo"
	"github.com/nhle/flowtask/internal/theme"
	"github.com/nhle/flowtask/internal/ui/taskform"
	"github.com/nhle/flowtask/internal/ui/tasklist"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewList ViewState = iota
	ViewForm
)

// Model is the root Bubble Tea model. It routes messages between views
// and owns the subscription to the repository's live task stream.
type Model struct {
	currentView ViewState
	repo        repo.TaskRepository
	keys        *keys.KeyMap
	logger      *log.Logger

	taskList tasklist.Model
	taskForm taskform.Model

	tasksCh     <-chan []model.Task
	cancelWatch context.CancelFunc

	width  int
	height int
}

// New creates the root application model and opens the live task stream.
func New(r repo.TaskRepository, logger *log.Logger) Model {
	k := keys.DefaultKeyMap()

	// The watch subscription lives as long as the program. In-flight
	// writes run on their own background contexts and are never
	// cancelled by teardown.
	ctx, cancel := context.WithCancel(context.Background())

	return Model{
		currentView: ViewList,
		repo:        r,
		keys:        k,
		logger:      logger,
		taskList:    tasklist.New(r, k, 80, 24),
		tasksCh:     r.WatchTasks(ctx),
		cancelWatch: cancel,
	}
}

// Init starts listening on the live task stream.
func (m Model) Init() tea.Cmd {
	return m.waitForTasks()
}

// waitForTasks returns a command that blocks on the next emission from
// the live stream and feeds it into the update loop. After each TasksMsg
// the command is re-issued, keeping a single sequential consumer.
func (m Model) waitForTasks() tea.Cmd {
	ch := m.tasksCh
	return func() tea.Msg {
		tasks, ok := <-ch
		if !ok {
			return nil
		}
		return tasklist.TasksMsg{Tasks: tasks}
	}
}

// Update routes messages to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.taskList.SetSize(msg.Width, msg.Height-2)
		return m, nil

	case tasklist.TasksMsg:
		var cmd tea.Cmd
		m.taskList, cmd = m.taskList.Update(msg)
		return m, tea.Batch(cmd, m.waitForTasks())

	case tasklist.OpResultMsg:
		if msg.Err != nil {
			m.logger.Error("task operation failed", "op", msg.Op, "err", msg.Err)
		}
		var cmd tea.Cmd
		m.taskList, cmd = m.taskList.Update(msg)
		return m, cmd

	case tasklist.EditTaskMsg:
		m.currentView = ViewForm
		m.taskForm = taskform.New(msg.Task, m.formWidth())
		return m, m.taskForm.Init()

	case taskform.SubmitMsg:
		m.currentView = ViewList
		return m, m.saveTask(msg.Task)

	case taskform.CancelMsg:
		m.currentView = ViewList
		return m, nil

	case tea.KeyMsg:
		if m.currentView == ViewList {
			if key.Matches(msg, m.keys.Quit) {
				m.cancelWatch()
				return m, tea.Quit
			}
			var cmd tea.Cmd
			m.taskList, cmd = m.taskList.Update(msg)
			return m, cmd
		}
	}

	if m.currentView == ViewForm {
		var cmd tea.Cmd
		m.taskForm, cmd = m.taskForm.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.taskList, cmd = m.taskList.Update(msg)
	return m, cmd
}

// saveTask persists an edited task through the repository's atomic
// upsert. The live stream echoes the change back into the list.
func (m Model) saveTask(task model.Task) tea.Cmd {
	r := m.repo
	return func() tea.Msg {
		_, err := r.UpsertTask(context.Background(), task)
		return tasklist.OpResultMsg{Op: "save", Err: err}
	}
}

// View renders the active view under the application header.
func (m Model) View() string {
	header := theme.HeaderStyle.Render("flowtask")

	var body string
	switch m.currentView {
	case ViewForm:
		body = m.taskForm.View()
	default:
		body = m.taskList.View()
	}

	help := theme.HelpStyle.Render(
		"n new · enter edit · space done · J/K move · d delete · q quit",
	)

	return lipgloss.JoinVertical(lipgloss.Left, header, body, help)
}

// formWidth bounds the editor form width to the window.
func (m Model) formWidth() int {
	w := m.width - 4
	if w <= 0 || w > 80 {
		w = 80
	}
	return w
}
