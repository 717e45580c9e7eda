package tui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/avenwick/studiocal/internal/core"
)

func openTaskDialog() TaskModel {
	users := []core.User{{ID: "u2", Name: "Sam"}, {ID: "u3", Name: "Riley"}}
	return NewTask().OpenFor("e1", "u1", users)
}

func TestTaskSubmitRequiresTitle(t *testing.T) {
	d := openTaskDialog()

	d, cmd := d.Update(tea.KeyMsg{Type: tea.KeyEnter})

	require.Nil(t, cmd)
	require.Equal(t, TaskOpen, d.State())
	require.Equal(t, msgTaskTitleRequired, d.errMsg)
}

func TestTaskSubmitRequiresAssignee(t *testing.T) {
	d := openTaskDialog()
	d.title.SetValue("Send invoice")

	d, cmd := d.Update(tea.KeyMsg{Type: tea.KeyEnter})

	require.Nil(t, cmd)
	require.Equal(t, msgAssigneeRequired, d.errMsg)
}

func TestTaskSubmitRejectsBadDueDate(t *testing.T) {
	d := openTaskDialog()
	d.title.SetValue("Send invoice")
	d.assigneeIdx = 0
	d.due.SetValue("next tuesday")

	d, cmd := d.Update(tea.KeyMsg{Type: tea.KeyEnter})

	require.Nil(t, cmd)
	require.Equal(t, msgBadDueDate, d.errMsg)
}

func TestTaskSubmitEmitsPayload(t *testing.T) {
	d := openTaskDialog()
	d.title.SetValue("Send invoice")
	d.assigneeIdx = 1
	d.priorityIdx = 2
	d.due.SetValue("2026-03-15 17:00")

	d, cmd := d.Update(tea.KeyMsg{Type: tea.KeyEnter})

	require.Equal(t, TaskSubmitting, d.State())
	require.NotNil(t, cmd)

	msg, ok := cmd().(taskSubmittedMsg)
	require.True(t, ok)
	require.Equal(t, "Send invoice", msg.payload.Title)
	require.Equal(t, "u3", msg.payload.AssignedTo)
	require.Equal(t, core.PriorityHigh, msg.payload.Priority)
	require.Equal(t, "e1", msg.payload.EventID)
	require.Equal(t, "u1", msg.payload.CreatedBy)
	require.NotNil(t, msg.payload.DueAt)
	require.Equal(t, time.Date(2026, 3, 15, 17, 0, 0, 0, time.Local), *msg.payload.DueAt)
}

func TestTaskAssigneeCycleWraps(t *testing.T) {
	d := openTaskDialog()
	d.focus = taskFieldAssignee

	d, _ = d.Update(tea.KeyMsg{Type: tea.KeyRight})
	require.Equal(t, 0, d.assigneeIdx)

	d, _ = d.Update(tea.KeyMsg{Type: tea.KeyRight})
	require.Equal(t, 1, d.assigneeIdx)

	d, _ = d.Update(tea.KeyMsg{Type: tea.KeyRight})
	require.Equal(t, 0, d.assigneeIdx)
}

func TestTaskFailReopensDraft(t *testing.T) {
	d := openTaskDialog()
	d.title.SetValue("Send invoice")
	d.assigneeIdx = 0
	d, _ = d.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, TaskSubmitting, d.State())

	d = d.Fail("Request failed: assignee left the org")

	require.Equal(t, TaskOpen, d.State())
	require.Equal(t, "Send invoice", d.title.Value())
	require.Equal(t, "Request failed: assignee left the org", d.errMsg)
}

func TestTaskDismissResets(t *testing.T) {
	d := openTaskDialog()
	d.title.SetValue("Send invoice")

	d, cmd := d.Update(tea.KeyMsg{Type: tea.KeyEsc})

	require.Equal(t, TaskClosed, d.State())
	require.NotNil(t, cmd)
	_, ok := cmd().(taskDismissedMsg)
	require.True(t, ok)
}
