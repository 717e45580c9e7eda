package tui

import (
	"time"

	"github.com/avenwick/studiocal/internal/core"
)

// Widget boundary events. The rendered calendar surface emits this small
// closed set of domain events and the controller reacts to them; nothing
// below this boundary knows about key bindings or layout.

// RangeSelectedMsg reports a selection on empty space, requesting a new
// booking seeded with the selected range.
type RangeSelectedMsg struct {
	Range core.TimeRange
}

// EventActivatedMsg reports that an existing event was activated for editing.
type EventActivatedMsg struct {
	ID string
}

// EventMovedMsg reports a committed move to a new start/end pair.
type EventMovedMsg struct {
	ID    string
	Start time.Time
	End   time.Time
}

// EventResizedMsg reports a committed change of the end boundary only.
type EventResizedMsg struct {
	ID  string
	End time.Time
}

// ViewWindowChangedMsg reports that the visible window was replaced
// (navigation, jump to today, initial mount).
type ViewWindowChangedMsg struct {
	Window core.Range
}

// Async results flowing back into the update loop.

type sessionLoadedMsg struct {
	user *core.User
	err  error
}

type clientsLoadedMsg struct {
	clients []core.Client
	err     error
}

type assignablesLoadedMsg struct {
	users []core.User
	err   error
}

type eventsLoadedMsg struct {
	window core.Range
	events []core.Event
	err    error
}

type mutationVerb int

const (
	verbCreate mutationVerb = iota
	verbUpdate
	verbMove
	verbResize
	verbDelete
)

func (v mutationVerb) successText() string {
	switch v {
	case verbCreate:
		return "Booking created."
	case verbDelete:
		return "Booking deleted."
	default:
		return "Booking updated."
	}
}

// mutationResolvedMsg carries the remote outcome of a pending optimistic
// mutation. It may arrive after the originating dialog was dismissed; the
// cache is reconciled or rolled back either way.
type mutationResolvedMsg struct {
	pending *core.PendingMutation
	saved   *core.Event
	err     error
	verb    mutationVerb
	// dialogBound marks mutations whose errors surface inline in the event
	// dialog rather than as a toast. formGen records which dialog opening
	// submitted the mutation; a mismatch means the dialog was dismissed and
	// reopened in the meantime.
	dialogBound bool
	formGen     int
}

type taskSavedMsg struct {
	task       *core.Task
	assigneeID string
	eventID    string
	err        error
	taskGen    int
}

type toastExpiredMsg struct {
	id int
}

// Dialog-to-controller messages.

type formSubmittedMsg struct {
	targetID string // empty for create
	payload  core.EventPayload
}

type formDeleteRequestedMsg struct {
	id string
}

type formDismissedMsg struct{}

type taskSubmittedMsg struct {
	payload core.TaskPayload
}

type taskDismissedMsg struct{}
