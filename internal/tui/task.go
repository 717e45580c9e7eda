package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/avenwick/studiocal/internal/core"
)

// TaskState is the state of the follow-up task dialog.
type TaskState int

const (
	TaskClosed TaskState = iota
	TaskOpen
	TaskSubmitting
)

const (
	taskFieldTitle = iota
	taskFieldDetails
	taskFieldDue
	taskFieldPriority
	taskFieldAssignee
	taskFieldCount
)

const (
	msgTaskTitleRequired = "Task title is required."
	msgAssigneeRequired  = "Choose an assignee."
	msgBadDueDate        = "Due date must look like 2006-01-02 15:04."
)

var priorities = []core.TaskPriority{core.PriorityLow, core.PriorityNormal, core.PriorityHigh}

// TaskModel backs the attach-a-task dialog reachable from an event in edit
// mode. It shares the open/close discipline of the event dialog but has its
// own validation.
type TaskModel struct {
	state TaskState

	eventID   string
	createdBy string

	title   textinput.Model
	details textinput.Model
	due     textinput.Model

	users       []core.User
	assigneeIdx int // -1 until chosen
	priorityIdx int

	focus  int
	errMsg string
	width  int
}

// NewTask returns a closed task dialog.
func NewTask() TaskModel {
	return TaskModel{state: TaskClosed, assigneeIdx: -1, priorityIdx: 1}
}

func (t TaskModel) State() TaskState { return t.state }

func (t TaskModel) Open() bool { return t.state != TaskClosed }

// OpenFor seeds a fresh task draft linked to the event.
func (t TaskModel) OpenFor(eventID, createdBy string, users []core.User) TaskModel {
	width := t.width
	t = NewTask()
	t.width = width
	t.state = TaskOpen
	t.eventID = eventID
	t.createdBy = createdBy
	t.users = users
	t.title = newInput("Task title", 120)
	t.details = newInput("Details (optional)", 500)
	t.due = newInput("2006-01-02 15:04 (optional)", 20)
	t.title.Focus()
	return t
}

// Close resets the dialog to defaults.
func (t TaskModel) Close() TaskModel {
	width := t.width
	t = NewTask()
	t.width = width
	return t
}

// Fail reopens the draft with an inline error after a rejected submit.
func (t TaskModel) Fail(msg string) TaskModel {
	if t.state != TaskSubmitting {
		return t
	}
	t.state = TaskOpen
	if msg == "" {
		msg = "Could not create the task. Please try again."
	}
	t.errMsg = msg
	return t
}

func (t TaskModel) SetWidth(w int) TaskModel {
	t.width = w
	return t
}

// Update handles one message while the dialog is open.
func (t TaskModel) Update(msg tea.Msg) (TaskModel, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return t.updateFocusedInput(msg)
	}

	if t.state == TaskSubmitting {
		if key.String() == "esc" {
			return t.Close(), func() tea.Msg { return taskDismissedMsg{} }
		}
		return t, nil
	}

	switch key.String() {
	case "esc":
		return t.Close(), func() tea.Msg { return taskDismissedMsg{} }
	case "tab", "down":
		return t.moveFocus(1), nil
	case "shift+tab", "up":
		return t.moveFocus(-1), nil
	case "enter":
		return t.submit()
	}

	switch t.focus {
	case taskFieldPriority:
		switch key.String() {
		case "left":
			t.priorityIdx = (t.priorityIdx + len(priorities) - 1) % len(priorities)
			return t, nil
		case "right", " ":
			t.priorityIdx = (t.priorityIdx + 1) % len(priorities)
			return t, nil
		}
	case taskFieldAssignee:
		switch key.String() {
		case "left":
			t.cycleAssignee(-1)
			return t, nil
		case "right", " ":
			t.cycleAssignee(1)
			return t, nil
		}
	}

	return t.updateFocusedInput(msg)
}

func (t TaskModel) updateFocusedInput(msg tea.Msg) (TaskModel, tea.Cmd) {
	var cmd tea.Cmd
	switch t.focus {
	case taskFieldTitle:
		t.title, cmd = t.title.Update(msg)
	case taskFieldDetails:
		t.details, cmd = t.details.Update(msg)
	case taskFieldDue:
		t.due, cmd = t.due.Update(msg)
	}
	return t, cmd
}

func (t TaskModel) moveFocus(delta int) TaskModel {
	t.focusInput(false)
	t.focus = (t.focus + delta + taskFieldCount) % taskFieldCount
	t.focusInput(true)
	return t
}

func (t *TaskModel) focusInput(on bool) {
	inputs := map[int]*textinput.Model{
		taskFieldTitle:   &t.title,
		taskFieldDetails: &t.details,
		taskFieldDue:     &t.due,
	}
	in, ok := inputs[t.focus]
	if !ok {
		return
	}
	if on {
		in.Focus()
	} else {
		in.Blur()
	}
}

func (t *TaskModel) cycleAssignee(delta int) {
	if len(t.users) == 0 {
		return
	}
	t.assigneeIdx += delta
	if t.assigneeIdx >= len(t.users) {
		t.assigneeIdx = 0
	}
	if t.assigneeIdx < 0 {
		t.assigneeIdx = len(t.users) - 1
	}
}

// submit validates the draft and hands a task payload to the controller.
func (t TaskModel) submit() (TaskModel, tea.Cmd) {
	title := strings.TrimSpace(t.title.Value())
	if title == "" {
		t.errMsg = msgTaskTitleRequired
		return t, nil
	}
	if t.assigneeIdx < 0 || t.assigneeIdx >= len(t.users) {
		t.errMsg = msgAssigneeRequired
		return t, nil
	}

	var dueAt *time.Time
	if raw := strings.TrimSpace(t.due.Value()); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02 15:04", raw, time.Local)
		if err != nil {
			t.errMsg = msgBadDueDate
			return t, nil
		}
		dueAt = &parsed
	}

	payload := core.TaskPayload{
		Title:      title,
		Details:    strings.TrimSpace(t.details.Value()),
		DueAt:      dueAt,
		Priority:   priorities[t.priorityIdx],
		AssignedTo: t.users[t.assigneeIdx].ID,
		EventID:    t.eventID,
		CreatedBy:  t.createdBy,
	}

	t.errMsg = ""
	t.state = TaskSubmitting
	return t, func() tea.Msg { return taskSubmittedMsg{payload: payload} }
}

// View renders the dialog panel.
func (t TaskModel) View() string {
	if t.state == TaskClosed {
		return ""
	}

	lines := []string{DialogTitleStyle.Render("Attach a task"), ""}
	lines = append(lines,
		t.renderInput("Title", taskFieldTitle, t.title),
		t.renderInput("Details", taskFieldDetails, t.details),
		t.renderInput("Due", taskFieldDue, t.due),
		t.renderChoice("Priority", taskFieldPriority, string(priorities[t.priorityIdx])),
		t.renderChoice("Assignee", taskFieldAssignee, t.assigneeLabel()),
	)

	if t.state == TaskSubmitting {
		lines = append(lines, "", SavingStyle.Render("Saving…"))
	} else {
		if t.errMsg != "" {
			lines = append(lines, "", FormErrorStyle.Render(t.errMsg))
		}
		lines = append(lines, "", HelpStyle.Render("enter save • tab next field • esc cancel"))
	}

	body := strings.Join(lines, "\n")
	width := t.width
	if width < 40 {
		width = 40
	}
	return DialogStyle.Width(width).Render(body)
}

func (t TaskModel) renderInput(label string, field int, in textinput.Model) string {
	return t.label(label, field) + " " + in.View()
}

func (t TaskModel) renderChoice(label string, field int, value string) string {
	rendered := ValueStyle.Render(value)
	if t.focus == field {
		rendered = lipgloss.NewStyle().Foreground(primaryColor).Bold(true).Render("‹ " + value + " ›")
	}
	return t.label(label, field) + " " + rendered
}

func (t TaskModel) label(text string, field int) string {
	if t.focus == field {
		return FocusedLabelStyle.Render(text)
	}
	return FieldLabelStyle.Render(text)
}

func (t TaskModel) assigneeLabel() string {
	if t.assigneeIdx < 0 || t.assigneeIdx >= len(t.users) {
		return "(choose)"
	}
	return t.users[t.assigneeIdx].Name
}
