package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/google/uuid"

	"github.com/avenwick/studiocal/internal/core"
	"github.com/avenwick/studiocal/internal/util"
)

// KeyMap defines the keybindings for the calendar view.
type KeyMap struct {
	Up       key.Binding
	Down     key.Binding
	NextWeek key.Binding
	PrevWeek key.Binding
	Today    key.Binding
	New      key.Binding
	Edit     key.Binding
	Move     key.Binding
	Resize   key.Binding
	Task     key.Binding
	Refresh  key.Binding
	Quit     key.Binding
	Help     key.Binding
}

var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓", "down"),
	),
	NextWeek: key.NewBinding(
		key.WithKeys("right", "l"),
		key.WithHelp("→", "next week"),
	),
	PrevWeek: key.NewBinding(
		key.WithKeys("left", "h"),
		key.WithHelp("←", "prev week"),
	),
	Today: key.NewBinding(
		key.WithKeys("t"),
		key.WithHelp("t", "today"),
	),
	New: key.NewBinding(
		key.WithKeys("n"),
		key.WithHelp("n", "new booking"),
	),
	Edit: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "edit"),
	),
	Move: key.NewBinding(
		key.WithKeys("m"),
		key.WithHelp("m", "move"),
	),
	Resize: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "resize"),
	),
	Task: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "task"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
}

// adjustMode is the active drag adjustment, if any.
type adjustMode int

const (
	adjustNone adjustMode = iota
	adjustMove
	adjustResize
)

const timedStep = 30 * time.Minute

// toast is a transient status line. A new toast replaces the current one; the
// expiry message carries the id so a stale timer cannot clear a newer toast.
type toast struct {
	id    int
	text  string
	isErr bool
}

const toastLifetime = 4 * time.Second

// Deps are the injected collaborators of the calendar view. Everything that
// talks to the outside world enters through here, so tests can substitute
// in-memory fakes.
type Deps struct {
	Store   core.EventStore
	Clients core.ClientDirectory
	Tasks   core.TaskService
	Session core.Session
}

// Model is the Bubble Tea model for the interactive calendar.
//
// The cache is the single source of truth for event rows; m.events is always a
// projection of the cache for the visible window. All writes go through the
// mutation coordinator so optimistic updates and rollbacks stay consistent.
type Model struct {
	deps Deps

	user        *core.User
	clients     []core.Client
	assignables []core.User

	cache   *core.RangeCache
	coord   *core.Coordinator
	visible core.Range
	events  []core.Event

	selectedIdx int
	loading     bool
	err         error

	form FormModel
	task TaskModel
	// formGen and taskGen count dialog openings. A resolution raced by a
	// dismiss-and-reopen carries a stale generation and must not touch the
	// dialog it did not originate from.
	formGen int
	taskGen int

	adjust      adjustMode
	adjustID    string
	adjustStart time.Time
	adjustEnd   time.Time

	toast       *toast
	nextToastID int

	width         int
	height        int
	listWidth     int
	detailWidth   int
	contentHeight int
	keys          KeyMap
	listView      viewport.Model
	detailView    viewport.Model
	viewportReady bool
	showHelp      bool
}

// NewModel creates the calendar model showing the week containing now.
func NewModel(deps Deps) Model {
	cache := core.NewRangeCache()
	return Model{
		deps:    deps,
		cache:   cache,
		coord:   core.NewCoordinator(cache),
		visible: weekWindow(time.Now()),
		keys:    DefaultKeyMap,
		form:    NewForm(),
		task:    NewTask(),
		loading: true,
	}
}

// weekWindow returns the Monday-to-Monday window containing t.
func weekWindow(t time.Time) core.Range {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	offset := (int(day.Weekday()) + 6) % 7 // Monday = 0
	start := day.AddDate(0, 0, -offset)
	return core.Range{Start: start, End: start.AddDate(0, 0, 7)}
}

// Init kicks off the session, directory and first window load.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.loadSession(),
		m.loadClients(),
		m.loadAssignables(),
		announceWindow(m.visible),
	)
}

// Commands

func announceWindow(w core.Range) tea.Cmd {
	return func() tea.Msg { return ViewWindowChangedMsg{Window: w} }
}

func (m Model) loadSession() tea.Cmd {
	return func() tea.Msg {
		user, err := m.deps.Session.CurrentUser(context.Background())
		return sessionLoadedMsg{user: user, err: err}
	}
}

func (m Model) loadClients() tea.Cmd {
	return func() tea.Msg {
		clients, err := m.deps.Clients.ListClients(context.Background())
		return clientsLoadedMsg{clients: clients, err: err}
	}
}

func (m Model) loadAssignables() tea.Cmd {
	return func() tea.Msg {
		users, err := m.deps.Tasks.ListAssignableUsers(context.Background())
		return assignablesLoadedMsg{users: users, err: err}
	}
}

func (m Model) fetchWindow(w core.Range) tea.Cmd {
	return func() tea.Msg {
		events, err := m.deps.Store.FetchEvents(context.Background(), w)
		return eventsLoadedMsg{window: w, events: events, err: err}
	}
}

// runMutation performs the remote half of a pending mutation off the update
// loop and feeds the outcome back for resolution.
func runMutation(p *core.PendingMutation, verb mutationVerb, dialogBound bool, formGen int) tea.Cmd {
	return func() tea.Msg {
		saved, err := p.Run(context.Background())
		return mutationResolvedMsg{pending: p, saved: saved, err: err, verb: verb, dialogBound: dialogBound, formGen: formGen}
	}
}

func (m Model) createTask(p core.TaskPayload, taskGen int) tea.Cmd {
	return func() tea.Msg {
		task, err := m.deps.Tasks.CreateTask(context.Background(), p)
		return taskSavedMsg{task: task, assigneeID: p.AssignedTo, eventID: p.EventID, err: err, taskGen: taskGen}
	}
}

// showToast replaces the current toast and schedules its expiry.
func (m *Model) showToast(text string, isErr bool) tea.Cmd {
	m.nextToastID++
	id := m.nextToastID
	m.toast = &toast{id: id, text: text, isErr: isErr}
	return tea.Tick(toastLifetime, func(time.Time) tea.Msg {
		return toastExpiredMsg{id: id}
	})
}

// refreshVisible re-projects the visible window from the cache.
func (m *Model) refreshVisible() {
	events, ok := m.cache.Lookup(m.visible)
	if !ok {
		return
	}
	m.events = events
	if m.selectedIdx >= len(m.events) {
		m.selectedIdx = len(m.events) - 1
	}
	if m.selectedIdx < 0 {
		m.selectedIdx = 0
	}
	m.updateListContent()
	m.updateDetailContent()
}

func (m Model) selectedEvent() (core.Event, bool) {
	if m.selectedIdx < 0 || m.selectedIdx >= len(m.events) {
		return core.Event{}, false
	}
	return m.events[m.selectedIdx], true
}

func (m Model) currentUser() core.User {
	if m.user == nil {
		return core.User{}
	}
	return *m.user
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.calculateLayout()
		m.form = m.form.SetWidth(m.detailWidth - 4)
		m.task = m.task.SetWidth(m.detailWidth - 4)
		m.updateListContent()
		m.updateDetailContent()
		return m, nil

	case sessionLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.user = msg.user
		return m, nil

	case clientsLoadedMsg:
		if msg.err == nil {
			m.clients = msg.clients
		}
		return m, nil

	case assignablesLoadedMsg:
		if msg.err == nil {
			m.assignables = msg.users
		}
		return m, nil

	case ViewWindowChangedMsg:
		return m.handleWindowChanged(msg)

	case eventsLoadedMsg:
		return m.handleEventsLoaded(msg)

	case RangeSelectedMsg:
		m.formGen++
		m.form = m.form.OpenCreate(msg.Range, m.clients, m.currentUser().ID)
		m.updateDetailContent()
		return m, nil

	case EventActivatedMsg:
		return m.handleActivated(msg)

	case EventMovedMsg:
		return m.handleMoved(msg)

	case EventResizedMsg:
		return m.handleResized(msg)

	case formSubmittedMsg:
		return m.handleFormSubmitted(msg)

	case formDeleteRequestedMsg:
		return m.handleDeleteRequested(msg)

	case formDismissedMsg, taskDismissedMsg:
		m.updateDetailContent()
		return m, nil

	case taskSubmittedMsg:
		return m, m.createTask(msg.payload, m.taskGen)

	case taskSavedMsg:
		return m.handleTaskSaved(msg)

	case mutationResolvedMsg:
		return m.handleMutationResolved(msg)

	case toastExpiredMsg:
		if m.toast != nil && m.toast.id == msg.id {
			m.toast = nil
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	// Non-key messages (cursor blinks) still reach an open dialog.
	if m.form.Open() {
		var cmd tea.Cmd
		m.form, cmd = m.form.Update(msg)
		return m, cmd
	}
	if m.task.Open() {
		var cmd tea.Cmd
		m.task, cmd = m.task.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Ctrl+C always quits, even over a dialog.
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	// An open dialog owns the keyboard.
	if m.task.Open() {
		var cmd tea.Cmd
		m.task, cmd = m.task.Update(msg)
		return m, cmd
	}
	if m.form.Open() {
		var cmd tea.Cmd
		m.form, cmd = m.form.Update(msg)
		return m, cmd
	}

	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	if m.adjust != adjustNone {
		return m.handleAdjustKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if m.selectedIdx > 0 {
			m.selectedIdx--
			m.updateListContent()
			m.updateDetailContent()
			m.detailView.GotoTop()
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.selectedIdx < len(m.events)-1 {
			m.selectedIdx++
			m.updateListContent()
			m.updateDetailContent()
			m.detailView.GotoTop()
		}
		return m, nil

	case key.Matches(msg, m.keys.NextWeek):
		next := core.Range{Start: m.visible.Start.AddDate(0, 0, 7), End: m.visible.End.AddDate(0, 0, 7)}
		return m, announceWindow(next)

	case key.Matches(msg, m.keys.PrevWeek):
		prev := core.Range{Start: m.visible.Start.AddDate(0, 0, -7), End: m.visible.End.AddDate(0, 0, -7)}
		return m, announceWindow(prev)

	case key.Matches(msg, m.keys.Today):
		return m, announceWindow(weekWindow(time.Now()))

	case key.Matches(msg, m.keys.Refresh):
		m.loading = true
		return m, m.fetchWindow(m.visible)

	case key.Matches(msg, m.keys.New):
		seed := m.newBookingSeed()
		return m, func() tea.Msg { return RangeSelectedMsg{Range: seed} }

	case key.Matches(msg, m.keys.Edit):
		if ev, ok := m.selectedEvent(); ok {
			id := ev.ID
			return m, func() tea.Msg { return EventActivatedMsg{ID: id} }
		}
		return m, nil

	case key.Matches(msg, m.keys.Move):
		return m.beginAdjust(adjustMove)

	case key.Matches(msg, m.keys.Resize):
		return m.beginAdjust(adjustResize)

	case key.Matches(msg, m.keys.Task):
		if ev, ok := m.selectedEvent(); ok {
			if len(m.assignables) == 0 {
				return m, m.showToast("No assignable users available.", true)
			}
			m.taskGen++
			m.task = m.task.OpenFor(ev.ID, m.currentUser().ID, m.assignables)
			m.updateDetailContent()
		}
		return m, nil
	}

	return m, nil
}

// newBookingSeed picks a sensible default range for a fresh booking: the next
// full hour if today is on screen, otherwise 09:00 on the window's first day.
func (m Model) newBookingSeed() core.TimeRange {
	now := time.Now()
	if !now.Before(m.visible.Start) && now.Before(m.visible.End) {
		return core.DefaultRange(now)
	}
	start := m.visible.Start.Add(9 * time.Hour)
	return core.TimeRange{Start: start, End: start.Add(core.DefaultDuration)}
}

// beginAdjust enters move/resize mode for the selected event. The capability
// check happens immediately so the user is not strung along.
func (m Model) beginAdjust(mode adjustMode) (tea.Model, tea.Cmd) {
	ev, ok := m.selectedEvent()
	if !ok {
		return m, nil
	}
	if !core.CanEdit(m.currentUser(), ev) {
		return m, m.showToast("You can only change your own bookings.", true)
	}
	m.adjust = mode
	m.adjustID = ev.ID
	m.adjustStart = ev.StartAt
	m.adjustEnd = ev.EndAt
	m.updateDetailContent()
	return m, nil
}

func (m Model) handleAdjustKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ev, ok := m.eventByID(m.adjustID)
	if !ok {
		m.adjust = adjustNone
		return m, nil
	}

	step := timedStep
	if ev.AllDay {
		step = 24 * time.Hour
	}

	switch msg.String() {
	case "esc":
		m.adjust = adjustNone
		m.updateDetailContent()
		return m, nil

	case "up", "k":
		if m.adjust == adjustMove {
			m.adjustStart = m.adjustStart.Add(-step)
			m.adjustEnd = m.adjustEnd.Add(-step)
		} else {
			m.shrinkAdjustEnd(ev, step)
		}
		m.updateDetailContent()
		return m, nil

	case "down", "j":
		if m.adjust == adjustMove {
			m.adjustStart = m.adjustStart.Add(step)
			m.adjustEnd = m.adjustEnd.Add(step)
		} else {
			m.adjustEnd = m.adjustEnd.Add(step)
		}
		m.updateDetailContent()
		return m, nil

	case "left", "h":
		if m.adjust == adjustMove {
			m.adjustStart = m.adjustStart.AddDate(0, 0, -1)
			m.adjustEnd = m.adjustEnd.AddDate(0, 0, -1)
			m.updateDetailContent()
		}
		return m, nil

	case "right", "l":
		if m.adjust == adjustMove {
			m.adjustStart = m.adjustStart.AddDate(0, 0, 1)
			m.adjustEnd = m.adjustEnd.AddDate(0, 0, 1)
			m.updateDetailContent()
		}
		return m, nil

	case "enter":
		mode := m.adjust
		id, start, end := m.adjustID, m.adjustStart, m.adjustEnd
		m.adjust = adjustNone
		m.updateDetailContent()
		if start.Equal(ev.StartAt) && end.Equal(ev.EndAt) {
			return m, nil
		}
		if mode == adjustMove {
			return m, func() tea.Msg { return EventMovedMsg{ID: id, Start: start, End: end} }
		}
		return m, func() tea.Msg { return EventResizedMsg{ID: id, End: end} }
	}

	return m, nil
}

// shrinkAdjustEnd pulls the end boundary in without inverting the range.
func (m *Model) shrinkAdjustEnd(ev core.Event, step time.Duration) {
	proposed := m.adjustEnd.Add(-step)
	min := m.adjustStart.Add(core.MinTimedGap)
	if ev.AllDay {
		min = m.adjustStart.AddDate(0, 0, 1)
	}
	if proposed.Before(min) {
		return
	}
	m.adjustEnd = proposed
}

func (m Model) handleWindowChanged(msg ViewWindowChangedMsg) (tea.Model, tea.Cmd) {
	m.visible = msg.Window
	m.selectedIdx = 0
	if events, ok := m.cache.Lookup(m.visible); ok {
		m.loading = false
		m.events = events
		m.updateListContent()
		m.updateDetailContent()
		return m, nil
	}
	m.loading = true
	return m, m.fetchWindow(m.visible)
}

func (m Model) handleEventsLoaded(msg eventsLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		if core.KeyFor(msg.window) == core.KeyFor(m.visible) {
			m.loading = false
			m.err = msg.err
		}
		return m, nil
	}
	m.cache.Store(msg.window, msg.events)
	if core.KeyFor(msg.window) == core.KeyFor(m.visible) {
		m.loading = false
		m.err = nil
		m.refreshVisible()
	}
	return m, nil
}

func (m Model) handleActivated(msg EventActivatedMsg) (tea.Model, tea.Cmd) {
	ev, ok := m.eventByID(msg.ID)
	if !ok {
		return m, nil
	}
	if !core.CanEdit(m.currentUser(), ev) {
		return m, m.showToast("You can only edit your own bookings.", true)
	}
	m.formGen++
	m.form = m.form.OpenEdit(ev, m.clients)
	m.updateDetailContent()
	return m, nil
}

func (m Model) handleMoved(msg EventMovedMsg) (tea.Model, tea.Cmd) {
	return m.applyReschedule(msg.ID, msg.Start, msg.End, verbMove)
}

func (m Model) handleResized(msg EventResizedMsg) (tea.Model, tea.Cmd) {
	ev, ok := m.eventByID(msg.ID)
	if !ok {
		return m, nil
	}
	return m.applyReschedule(msg.ID, ev.StartAt, msg.End, verbResize)
}

// applyReschedule is the shared path for move and resize: capability gate,
// overlap gate, then an optimistic update through the coordinator.
func (m Model) applyReschedule(id string, start, end time.Time, verb mutationVerb) (tea.Model, tea.Cmd) {
	ev, ok := m.eventByID(id)
	if !ok {
		return m, nil
	}
	if !core.CanEdit(m.currentUser(), ev) {
		return m, m.showToast("You can only change your own bookings.", true)
	}
	if !start.Before(end) {
		return m, m.showToast("End time must be after the start time.", true)
	}
	if core.HasOverlap(m.events, ev.ID, ev.OwnerUserID, start, end) {
		return m, m.showToast("That time overlaps another booking for the same owner.", true)
	}

	updated := ev
	updated.StartAt = start
	updated.EndAt = end

	payload := payloadFrom(updated)
	pending := m.coord.Begin(core.Mutation{
		Patch: core.ReplaceEvent(updated),
		Call: func(ctx context.Context) (*core.Event, error) {
			return m.deps.Store.UpdateEvent(ctx, id, payload)
		},
		Reconcile: core.AdoptSaved(id),
	}, id)
	m.refreshVisible()
	return m, runMutation(pending, verb, false, m.formGen)
}

// payloadFrom serializes an event row back into the wire payload shape.
func payloadFrom(ev core.Event) core.EventPayload {
	return core.EventPayload{
		Title:       ev.Title,
		Description: ev.Description,
		StartAt:     ev.StartAt,
		EndAt:       ev.EndAt,
		AllDay:      ev.AllDay,
		OwnerUserID: ev.OwnerUserID,
		ClientID:    ev.ClientID,
		Location:    ev.Location,
	}
}

func (m Model) handleFormSubmitted(msg formSubmittedMsg) (tea.Model, tea.Cmd) {
	if msg.targetID == "" {
		return m.submitCreate(msg.payload)
	}
	return m.submitUpdate(msg.targetID, msg.payload)
}

func (m Model) submitCreate(p core.EventPayload) (tea.Model, tea.Cmd) {
	tempID := "pending-" + uuid.NewString()
	placeholder := core.Event{
		ID:          tempID,
		Title:       p.Title,
		Description: p.Description,
		StartAt:     p.StartAt,
		EndAt:       p.EndAt,
		AllDay:      p.AllDay,
		OwnerUserID: p.OwnerUserID,
		ClientID:    p.ClientID,
		Location:    p.Location,
	}
	if name, ok := m.clientName(p.ClientID); ok {
		placeholder.ClientName = name
	}

	pending := m.coord.Begin(core.Mutation{
		Patch: core.InsertEvent(placeholder),
		Call: func(ctx context.Context) (*core.Event, error) {
			return m.deps.Store.CreateEvent(ctx, p)
		},
		Reconcile: core.SwapPlaceholder(tempID),
	}, tempID)
	m.refreshVisible()
	return m, runMutation(pending, verbCreate, true, m.formGen)
}

func (m Model) submitUpdate(id string, p core.EventPayload) (tea.Model, tea.Cmd) {
	ev, ok := m.eventByID(id)
	if !ok {
		// The row left the visible window between open and submit; let the
		// server arbitrate from the payload alone.
		ev = core.Event{ID: id}
	}
	updated := ev
	updated.Title = p.Title
	updated.Description = p.Description
	updated.StartAt = p.StartAt
	updated.EndAt = p.EndAt
	updated.AllDay = p.AllDay
	updated.ClientID = p.ClientID
	updated.Location = p.Location
	if name, ok := m.clientName(p.ClientID); ok {
		updated.ClientName = name
	} else {
		updated.ClientName = ""
	}

	pending := m.coord.Begin(core.Mutation{
		Patch: core.ReplaceEvent(updated),
		Call: func(ctx context.Context) (*core.Event, error) {
			return m.deps.Store.UpdateEvent(ctx, id, p)
		},
		Reconcile: core.AdoptSaved(id),
	}, id)
	m.refreshVisible()
	return m, runMutation(pending, verbUpdate, true, m.formGen)
}

func (m Model) handleDeleteRequested(msg formDeleteRequestedMsg) (tea.Model, tea.Cmd) {
	id := msg.id
	pending := m.coord.Begin(core.Mutation{
		Patch: core.RemoveEvent(id),
		Call: func(ctx context.Context) (*core.Event, error) {
			return nil, m.deps.Store.DeleteEvent(ctx, id)
		},
	}, id)
	m.refreshVisible()
	return m, runMutation(pending, verbDelete, true, m.formGen)
}

func (m Model) handleMutationResolved(msg mutationResolvedMsg) (tea.Model, tea.Cmd) {
	err := msg.pending.Resolve(msg.saved, msg.err)
	m.refreshVisible()

	// A resolution from a generation the user already dismissed falls back to
	// the toast path; the currently open dialog is someone else's draft.
	sameDialog := msg.dialogBound && m.form.Open() && msg.formGen == m.formGen

	if err != nil {
		if sameDialog {
			m.form = m.form.Fail(errorText(err))
			return m, nil
		}
		return m, m.showToast(errorText(err), true)
	}

	if sameDialog {
		m.form = m.form.Close()
	}
	m.updateDetailContent()
	return m, m.showToast(msg.verb.successText(), false)
}

func (m Model) handleTaskSaved(msg taskSavedMsg) (tea.Model, tea.Cmd) {
	sameDialog := m.task.Open() && msg.taskGen == m.taskGen

	if msg.err != nil {
		if sameDialog {
			m.task = m.task.Fail(errorText(msg.err))
			return m, nil
		}
		return m, m.showToast(errorText(msg.err), true)
	}

	// Fold the new assignee into every cached copy of the event. The upsert
	// is idempotent so a duplicate task for the same user changes nothing.
	eventID, assigneeID := msg.eventID, msg.assigneeID
	m.cache.Apply(func(_ core.Range, events []core.Event) []core.Event {
		for i, ev := range events {
			if ev.ID == eventID && !ev.HasAssignee(assigneeID) {
				ev.Assignees = append(append([]string(nil), ev.Assignees...), assigneeID)
				events[i] = ev
			}
		}
		return events
	})
	m.refreshVisible()

	if sameDialog {
		m.task = m.task.Close()
	}
	m.updateDetailContent()
	return m, m.showToast("Task created.", false)
}

func (m Model) eventByID(id string) (core.Event, bool) {
	for _, ev := range m.events {
		if ev.ID == id {
			return ev, true
		}
	}
	return core.Event{}, false
}

func (m Model) clientName(id string) (string, bool) {
	if id == "" {
		return "", false
	}
	for _, c := range m.clients {
		if c.ID == id {
			return c.Name, true
		}
	}
	return "", false
}

// errorText flattens an error for display.
func errorText(err error) string {
	if err == nil {
		return ""
	}
	return "Request failed: " + err.Error()
}

// Layout and rendering

func (m *Model) calculateLayout() {
	width := m.width
	height := m.height
	if height < 10 {
		height = 10
	}
	m.contentHeight = height - 6
	if m.contentHeight < 5 {
		m.contentHeight = 5
	}

	if width < 100 {
		m.listWidth = width * 45 / 100
	} else {
		m.listWidth = width * 40 / 100
		if m.listWidth > 60 {
			m.listWidth = 60
		}
	}
	if m.listWidth < 30 {
		m.listWidth = 30
	}
	m.detailWidth = width - m.listWidth - 5
	if m.detailWidth < 35 {
		m.detailWidth = 35
	}

	listViewportHeight := m.contentHeight - 4
	if listViewportHeight < 1 {
		listViewportHeight = 1
	}
	listViewportWidth := m.listWidth - 4
	if listViewportWidth < 10 {
		listViewportWidth = 10
	}
	detailViewportHeight := m.contentHeight - 4
	if detailViewportHeight < 1 {
		detailViewportHeight = 1
	}
	detailViewportWidth := m.detailWidth - 4
	if detailViewportWidth < 10 {
		detailViewportWidth = 10
	}

	if !m.viewportReady {
		m.listView = viewport.New(listViewportWidth, listViewportHeight)
		m.detailView = viewport.New(detailViewportWidth, detailViewportHeight)
		m.viewportReady = true
	} else {
		m.listView.Width = listViewportWidth
		m.listView.Height = listViewportHeight
		m.detailView.Width = detailViewportWidth
		m.detailView.Height = detailViewportHeight
	}
}

// View renders the calendar.
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	header := m.renderHeader()

	var content string
	switch {
	case m.loading:
		content = lipgloss.NewStyle().
			Width(m.width - 4).
			Height(m.contentHeight).
			Align(lipgloss.Center, lipgloss.Center).
			Render("Loading bookings...")
	case m.err != nil:
		content = lipgloss.NewStyle().
			Width(m.width - 4).
			Height(m.contentHeight).
			Foreground(errorColor).
			Render(fmt.Sprintf("Error: %v", m.err))
	default:
		listPanel := m.renderListPanel()
		var rightPanel string
		switch {
		case m.showHelp:
			rightPanel = m.renderHelpPanel()
		case m.task.Open():
			rightPanel = m.task.View()
		case m.form.Open():
			rightPanel = m.form.View()
		default:
			rightPanel = m.renderDetailPanel()
		}
		content = lipgloss.JoinHorizontal(lipgloss.Top, listPanel, " ", rightPanel)
	}

	bottom := m.renderHelp()
	if m.toast != nil {
		style := ToastInfoStyle
		if m.toast.isErr {
			style = ToastErrorStyle
		}
		bottom = style.Render(m.toast.text)
	}

	return AppStyle.Render(
		lipgloss.JoinVertical(lipgloss.Left, header, content, bottom),
	)
}

func (m Model) renderHeader() string {
	title := HeaderStyle.Render("studiocal")
	windowStr := fmt.Sprintf("%s – %s",
		m.visible.Start.Format("Mon, Jan 2"),
		m.visible.End.AddDate(0, 0, -1).Format("Mon, Jan 2, 2006"))
	window := lipgloss.NewStyle().Foreground(mutedColor).Render(windowStr)

	who := ""
	if m.user != nil {
		who = lipgloss.NewStyle().Foreground(secondaryColor).Render("  " + m.user.Name)
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, title, "  ", window, who)
}

// updateListContent rebuilds the week list, grouped by day.
func (m *Model) updateListContent() {
	if !m.viewportReady {
		return
	}

	var items []string
	if len(m.events) == 0 {
		items = append(items, NormalItemStyle.Render("No bookings this week"))
	} else {
		var lastDay string
		for i, ev := range m.events {
			day := ev.StartAt.Format("Monday, Jan 2")
			if day != lastDay {
				if lastDay != "" {
					items = append(items, "")
				}
				items = append(items, DayHeaderStyle.Render(day))
				lastDay = day
			}
			items = append(items, m.renderListItem(ev, i == m.selectedIdx, m.listView.Width))
		}
	}

	m.listView.SetContent(strings.Join(items, "\n"))
}

func (m Model) renderListItem(ev core.Event, selected bool, maxWidth int) string {
	timeStr := ev.StartAt.Format("15:04")
	if ev.AllDay {
		timeStr = "All day"
	}

	adjusting := m.adjust != adjustNone && ev.ID == m.adjustID
	if adjusting {
		timeStr = m.adjustStart.Format("15:04")
		if ev.AllDay {
			timeStr = m.adjustStart.Format("Jan 2")
		}
	}

	timeStyled := TimeStyle.Render(timeStr)
	duration := DurationStyle.Render(formatDuration(ev.Duration()))

	titleWidth := maxWidth - 24
	if titleWidth < 10 {
		titleWidth = 10
	}
	title := util.TruncateText(ev.Title, titleWidth)

	marker := ""
	if strings.HasPrefix(ev.ID, "pending-") {
		marker = " ⋯"
	}
	if adjusting {
		marker = " ◆"
	}

	line := fmt.Sprintf("%s %s %s%s", timeStyled, duration, title, marker)

	if adjusting {
		return PendingMoveStyle.Render(line)
	}
	if selected {
		return SelectedItemStyle.Render(line)
	}
	if ev.EndAt.Before(time.Now()) {
		return PastItemStyle.Render(line)
	}
	return NormalItemStyle.Render(line)
}

// updateDetailContent rebuilds the detail viewport for the selected event.
func (m *Model) updateDetailContent() {
	if !m.viewportReady {
		return
	}
	ev, ok := m.selectedEvent()
	if !ok {
		m.detailView.SetContent("")
		return
	}

	width := m.detailView.Width
	var lines []string

	lines = append(lines, TitleStyle.Render(ansi.Wordwrap(ev.Title, width, "")))
	lines = append(lines, "")

	if m.adjust != adjustNone && ev.ID == m.adjustID {
		verb := "Moving"
		if m.adjust == adjustResize {
			verb = "Resizing"
		}
		lines = append(lines, PendingMoveStyle.Render(fmt.Sprintf("%s: %s → %s",
			verb,
			m.adjustStart.Format("Mon 15:04"),
			m.adjustEnd.Format("Mon 15:04"))))
		lines = append(lines, HelpStyle.Render("↑/↓ shift • ←/→ day • enter confirm • esc cancel"))
		lines = append(lines, "")
	}

	lines = append(lines, renderField("When", formatEventTime(ev.StartAt, ev.EndAt, ev.AllDay)))
	if !ev.AllDay {
		lines = append(lines, renderField("Duration", formatDuration(ev.Duration())))
	}
	if ev.ClientName != "" {
		lines = append(lines, renderField("Client", ev.ClientName))
	}
	if ev.Location != "" {
		lines = append(lines, renderWrappedField("Location", ev.Location, width))
	}
	if ev.OwnerUserID != "" {
		owner := ev.OwnerUserID
		if m.user != nil && ev.OwnerUserID == m.user.ID {
			owner = m.user.Name + " (you)"
		}
		lines = append(lines, renderField("Owner", owner))
	}
	if len(ev.Assignees) > 0 {
		lines = append(lines, renderField("Tasks", fmt.Sprintf("%d assignee(s)", len(ev.Assignees))))
	}
	if ev.Description != "" {
		lines = append(lines, "")
		lines = append(lines, LabelStyle.Render("Notes"))
		lines = append(lines, ValueStyle.Render(ansi.Wordwrap(ev.Description, width, "")))
	}

	m.detailView.SetContent(strings.Join(lines, "\n"))
}

func (m Model) renderListPanel() string {
	scrollInfo := ""
	if m.viewportReady && len(m.events) > 0 {
		scrollInfo = lipgloss.NewStyle().
			Foreground(mutedColor).
			Render(fmt.Sprintf(" (%d/%d)", m.selectedIdx+1, len(m.events)))
	}
	header := lipgloss.NewStyle().
		Foreground(primaryColor).
		Bold(true).
		Render("Bookings") + scrollInfo

	return ListPanelStyle.Width(m.listWidth).Height(m.contentHeight).Render(
		lipgloss.JoinVertical(lipgloss.Left, header, m.listView.View()),
	)
}

func (m Model) renderDetailPanel() string {
	if len(m.events) == 0 {
		return DetailPanelStyle.Width(m.detailWidth).Height(m.contentHeight).Render(
			lipgloss.NewStyle().Foreground(mutedColor).Render("No booking selected"),
		)
	}
	header := lipgloss.NewStyle().
		Foreground(primaryColor).
		Bold(true).
		Render("Booking")

	return DetailPanelStyle.Width(m.detailWidth).Height(m.contentHeight).Render(
		lipgloss.JoinVertical(lipgloss.Left, header, "", m.detailView.View()),
	)
}

func (m Model) renderHelp() string {
	keys := []string{
		HelpKeyStyle.Render("↑/↓") + " nav",
		HelpKeyStyle.Render("←/→") + " week",
		HelpKeyStyle.Render("t") + " today",
		HelpKeyStyle.Render("n") + " new",
		HelpKeyStyle.Render("enter") + " edit",
		HelpKeyStyle.Render("m") + " move",
		HelpKeyStyle.Render("s") + " resize",
		HelpKeyStyle.Render("a") + " task",
		HelpKeyStyle.Render("r") + " refresh",
		HelpKeyStyle.Render("q") + " quit",
	}
	fullLine := strings.Join(keys, "  •  ")
	if lipgloss.Width(fullLine) > m.width-4 {
		return HelpStyle.Render(HelpKeyStyle.Render("?") + " help")
	}
	return HelpStyle.Render(fullLine)
}

func (m Model) renderHelpPanel() string {
	header := lipgloss.NewStyle().
		Foreground(primaryColor).
		Bold(true).
		Render("Keyboard Shortcuts")

	lines := []string{
		"",
		HelpKeyStyle.Render("  ↑ / ↓      ") + " Select booking",
		HelpKeyStyle.Render("  ← / →      ") + " Previous / next week",
		HelpKeyStyle.Render("  t          ") + " Jump to this week",
		HelpKeyStyle.Render("  n          ") + " New booking",
		HelpKeyStyle.Render("  enter      ") + " Edit booking",
		HelpKeyStyle.Render("  m          ") + " Move booking",
		HelpKeyStyle.Render("  s          ") + " Resize booking",
		HelpKeyStyle.Render("  a          ") + " Attach a task",
		HelpKeyStyle.Render("  r          ") + " Refresh",
		HelpKeyStyle.Render("  q / ctrl+c ") + " Quit",
		"",
		lipgloss.NewStyle().Foreground(mutedColor).Italic(true).Render("  Press any key to close"),
	}

	return DetailPanelStyle.Width(m.detailWidth).Height(m.contentHeight).Render(
		lipgloss.JoinVertical(lipgloss.Left, header, strings.Join(lines, "\n")),
	)
}

// Helper functions

func renderField(label, value string) string {
	return LabelStyle.Render(label) + " " + ValueStyle.Render(value)
}

func renderWrappedField(label, value string, maxWidth int) string {
	labelRendered := LabelStyle.Render(label)
	labelWidth := lipgloss.Width(labelRendered) + 1
	valueWidth := maxWidth - labelWidth
	if valueWidth < 10 {
		valueWidth = 10
	}
	wrapped := ansi.Wordwrap(value, valueWidth, "")
	wrapLines := strings.Split(wrapped, "\n")
	indent := strings.Repeat(" ", labelWidth)
	for i := 1; i < len(wrapLines); i++ {
		wrapLines[i] = indent + wrapLines[i]
	}
	return labelRendered + " " + ValueStyle.Render(strings.Join(wrapLines, "\n"))
}

func formatDuration(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60

	if days > 0 {
		if hours > 0 {
			return fmt.Sprintf("%dd %dh", days, hours)
		}
		return fmt.Sprintf("%dd", days)
	}
	if hours > 0 {
		if minutes > 0 {
			return fmt.Sprintf("%dh %dm", hours, minutes)
		}
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dm", minutes)
}

func formatEventTime(start, end time.Time, allDay bool) string {
	if allDay {
		lastDay := end.AddDate(0, 0, -1)
		if lastDay.Equal(start) || lastDay.Before(start) {
			return start.Format("Mon, Jan 2") + " (all day)"
		}
		return fmt.Sprintf("%s – %s (all day)",
			start.Format("Mon, Jan 2"),
			lastDay.Format("Mon, Jan 2"))
	}
	if start.Day() == end.Day() && start.Month() == end.Month() && start.Year() == end.Year() {
		return fmt.Sprintf("%s, %s – %s",
			start.Format("Mon, Jan 2"),
			start.Format("15:04"),
			end.Format("15:04"))
	}
	return fmt.Sprintf("%s – %s",
		start.Format("Mon, Jan 2 15:04"),
		end.Format("Mon, Jan 2 15:04"))
}
