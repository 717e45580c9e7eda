package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/avenwick/studiocal/internal/core"
)

// FormState is the explicit dialog state. Illegal combinations (saving while
// closed, deleting from a create draft) are unrepresentable.
type FormState int

const (
	FormClosed FormState = iota
	FormCreating
	FormEditing
	FormSubmitting
	FormConfirmingDelete
	FormDeleting
)

// Focusable dialog fields, in tab order.
const (
	fieldTitle = iota
	fieldDescription
	fieldLocation
	fieldClient
	fieldAllDay
	fieldStart
	fieldEnd
	fieldCount
)

// Validation and error messages surfaced inline in the dialog.
const (
	msgTitleRequired  = "Event title is required."
	msgEndBeforeStart = "End time must be after the start time."
	msgAllDayTooShort = "All-day events must end on or after the start day."
	msgGenericFailure = "Could not save the booking. Please try again."
)

// FormModel backs the create/edit dialog. It owns a disposable draft that is
// reset whenever the dialog closes; the canonical event list is never touched
// from here. A validated payload is handed to the controller on submit.
type FormModel struct {
	state  FormState
	origin FormState // draft state to fall back to when a mutation fails

	targetID string // event being edited; empty while creating
	ownerID  string

	title       textinput.Model
	description textinput.Model
	location    textinput.Model
	start       textinput.Model
	end         textinput.Model

	clients   []core.Client
	clientIdx int // index into clients, -1 for none

	rng    core.TimeRange
	focus  int
	errMsg string
	width  int
}

// NewForm returns a closed dialog.
func NewForm() FormModel {
	return FormModel{state: FormClosed, clientIdx: -1}
}

func (f FormModel) State() FormState { return f.state }

// Open reports whether the dialog occupies the screen.
func (f FormModel) Open() bool { return f.state != FormClosed }

func newInput(placeholder string, limit int) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = limit
	return in
}

// OpenCreate seeds a fresh draft from the selected range and enters
// CreatingDraft. ownerID is the current user; the server assigns ownership
// authoritatively on create.
func (f FormModel) OpenCreate(seed core.TimeRange, clients []core.Client, ownerID string) FormModel {
	f = f.reset()
	f.state = FormCreating
	f.origin = FormCreating
	f.ownerID = ownerID
	f.clients = clients
	f.rng = seed
	f.syncRangeInputs()
	f.title.Focus()
	return f
}

// OpenEdit seeds the draft verbatim from the target event and enters
// EditingDraft. The all-day exclusive end is converted back to an inclusive
// display value by the boundary formatter.
func (f FormModel) OpenEdit(ev core.Event, clients []core.Client) FormModel {
	f = f.reset()
	f.state = FormEditing
	f.origin = FormEditing
	f.targetID = ev.ID
	f.ownerID = ev.OwnerUserID
	f.clients = clients
	f.rng = core.TimeRange{Start: ev.StartAt, End: ev.EndAt, AllDay: ev.AllDay}

	f.title.SetValue(ev.Title)
	f.description.SetValue(ev.Description)
	f.location.SetValue(ev.Location)
	for i, c := range clients {
		if c.ID == ev.ClientID {
			f.clientIdx = i
			break
		}
	}
	f.syncRangeInputs()
	f.title.Focus()
	return f
}

// reset discards the draft entirely; no stale draft may leak into the next open.
func (f FormModel) reset() FormModel {
	width := f.width
	f = NewForm()
	f.width = width
	f.title = newInput("Booking title", 120)
	f.description = newInput("Notes (optional)", 500)
	f.location = newInput("Location (optional)", 200)
	f.start = newInput("", 20)
	f.end = newInput("", 20)
	return f
}

// Close resets the dialog to its default, closed state.
func (f FormModel) Close() FormModel {
	return f.reset()
}

// Fail returns the dialog from Submitting/Deleting to its originating draft
// state with the error surfaced inline; the draft stays intact.
func (f FormModel) Fail(msg string) FormModel {
	switch f.state {
	case FormSubmitting:
		f.state = f.origin
	case FormDeleting:
		f.state = FormEditing
	default:
		return f
	}
	if msg == "" {
		msg = msgGenericFailure
	}
	f.errMsg = msg
	return f
}

func (f FormModel) SetWidth(w int) FormModel {
	f.width = w
	return f
}

// syncRangeInputs rewrites the boundary inputs from the canonical range.
func (f *FormModel) syncRangeInputs() {
	f.start.SetValue(core.FormatStart(f.rng))
	f.end.SetValue(core.FormatEnd(f.rng))
}

// Update handles one message while the dialog is open.
func (f FormModel) Update(msg tea.Msg) (FormModel, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return f.updateFocusedInput(msg)
	}

	switch f.state {
	case FormSubmitting, FormDeleting:
		// The request is already in flight. Dismissing is allowed; the
		// mutation completes in the background and still reconciles the cache.
		if key.String() == "esc" {
			return f.Close(), dismissForm
		}
		return f, nil

	case FormConfirmingDelete:
		switch key.String() {
		case "y", "Y":
			f.state = FormDeleting
			f.errMsg = ""
			id := f.targetID
			return f, func() tea.Msg { return formDeleteRequestedMsg{id: id} }
		case "n", "N", "esc":
			f.state = FormEditing
			return f, nil
		}
		return f, nil
	}

	switch key.String() {
	case "esc":
		return f.Close(), dismissForm
	case "tab", "down":
		return f.moveFocus(1), nil
	case "shift+tab", "up":
		return f.moveFocus(-1), nil
	case "enter":
		return f.submit()
	case "ctrl+d":
		if f.state == FormEditing {
			f.state = FormConfirmingDelete
			return f, nil
		}
		return f, nil
	}

	switch f.focus {
	case fieldClient:
		switch key.String() {
		case "left":
			f.cycleClient(-1)
			return f, nil
		case "right", " ":
			f.cycleClient(1)
			return f, nil
		}
	case fieldAllDay:
		if key.String() == " " {
			f.rng = core.ToggleAllDay(f.rng, !f.rng.AllDay)
			f.syncRangeInputs()
			return f, nil
		}
	}

	return f.updateFocusedInput(msg)
}

func dismissForm() tea.Msg { return formDismissedMsg{} }

func (f FormModel) updateFocusedInput(msg tea.Msg) (FormModel, tea.Cmd) {
	var cmd tea.Cmd
	switch f.focus {
	case fieldTitle:
		f.title, cmd = f.title.Update(msg)
	case fieldDescription:
		f.description, cmd = f.description.Update(msg)
	case fieldLocation:
		f.location, cmd = f.location.Update(msg)
	case fieldStart:
		f.start, cmd = f.start.Update(msg)
	case fieldEnd:
		f.end, cmd = f.end.Update(msg)
	}
	return f, cmd
}

// moveFocus shifts focus through the tab order, routing boundary edits
// through the normalizer when their field is left.
func (f FormModel) moveFocus(delta int) FormModel {
	f.blurBoundary()
	f.focusInput(false)
	f.focus = (f.focus + delta + fieldCount) % fieldCount
	f.focusInput(true)
	return f
}

// blurBoundary self-corrects the boundary being left: parseable input is
// normalized into the canonical range, unparseable input snaps back to it.
func (f *FormModel) blurBoundary() {
	switch f.focus {
	case fieldStart:
		if next, ok := core.ParseStartInput(f.rng, f.start.Value()); ok {
			f.rng = next
		}
		f.syncRangeInputs()
	case fieldEnd:
		if next, ok := core.ParseEndInput(f.rng, f.end.Value()); ok {
			f.rng = next
		}
		f.syncRangeInputs()
	}
}

func (f *FormModel) focusInput(on bool) {
	inputs := map[int]*textinput.Model{
		fieldTitle:       &f.title,
		fieldDescription: &f.description,
		fieldLocation:    &f.location,
		fieldStart:       &f.start,
		fieldEnd:         &f.end,
	}
	in, ok := inputs[f.focus]
	if !ok {
		return
	}
	if on {
		in.Focus()
	} else {
		in.Blur()
	}
}

func (f *FormModel) cycleClient(delta int) {
	if len(f.clients) == 0 {
		return
	}
	// -1 (none) is part of the cycle.
	f.clientIdx += delta
	if f.clientIdx >= len(f.clients) {
		f.clientIdx = -1
	}
	if f.clientIdx < -1 {
		f.clientIdx = len(f.clients) - 1
	}
}

// submit validates the draft in order and hands a serialized payload to the
// controller. Validation failures keep the current draft state and never
// clear the form.
func (f FormModel) submit() (FormModel, tea.Cmd) {
	title := strings.TrimSpace(f.title.Value())
	if title == "" {
		f.errMsg = msgTitleRequired
		return f, nil
	}

	// Parse the boundary fields as typed, without clamping: an invalid
	// combination the user has not corrected is rejected, not repaired.
	rng, parseErr := f.submittedRange()
	if parseErr != "" {
		f.errMsg = parseErr
		return f, nil
	}
	if !rng.Start.Before(rng.End) {
		if rng.AllDay {
			f.errMsg = msgAllDayTooShort
		} else {
			f.errMsg = msgEndBeforeStart
		}
		return f, nil
	}
	f.rng = rng
	f.syncRangeInputs()

	payload := core.EventPayload{
		Title:       title,
		Description: strings.TrimSpace(f.description.Value()),
		StartAt:     rng.Start,
		EndAt:       rng.End,
		AllDay:      rng.AllDay,
		OwnerUserID: f.ownerID,
		Location:    strings.TrimSpace(f.location.Value()),
	}
	if f.clientIdx >= 0 && f.clientIdx < len(f.clients) {
		payload.ClientID = f.clients[f.clientIdx].ID
	}

	f.errMsg = ""
	f.state = FormSubmitting
	targetID := f.targetID
	return f, func() tea.Msg {
		return formSubmittedMsg{targetID: targetID, payload: payload}
	}
}

// submittedRange rebuilds the range from the raw boundary inputs. A boundary
// that fails to parse falls back to the canonical (already valid) value.
func (f FormModel) submittedRange() (core.TimeRange, string) {
	rng := f.rng

	if t, ok := core.ParseBoundary(f.start.Value(), rng.AllDay, rng.Start.Location()); ok {
		rng.Start = t
	}
	if t, ok := core.ParseBoundary(f.end.Value(), rng.AllDay, rng.End.Location()); ok {
		if rng.AllDay {
			// Inclusive last day on screen, exclusive day-after in storage.
			rng.End = t.AddDate(0, 0, 1)
		} else {
			rng.End = t
		}
	}
	return rng, ""
}

// View renders the dialog panel.
func (f FormModel) View() string {
	if f.state == FormClosed {
		return ""
	}

	header := "New booking"
	if f.targetID != "" {
		header = "Edit booking"
	}

	lines := []string{DialogTitleStyle.Render(header), ""}
	lines = append(lines,
		f.renderInput("Title", fieldTitle, f.title),
		f.renderInput("Notes", fieldDescription, f.description),
		f.renderInput("Location", fieldLocation, f.location),
		f.renderChoice("Client", fieldClient, f.clientLabel()),
		f.renderChoice("All day", fieldAllDay, checkbox(f.rng.AllDay)),
		f.renderInput(f.startLabel(), fieldStart, f.start),
		f.renderInput(f.endLabel(), fieldEnd, f.end),
	)

	switch f.state {
	case FormSubmitting:
		lines = append(lines, "", SavingStyle.Render("Saving…"))
	case FormDeleting:
		lines = append(lines, "", SavingStyle.Render("Deleting…"))
	case FormConfirmingDelete:
		lines = append(lines, "", ConfirmStyle.Render("Delete this booking? (y/n)"))
	default:
		if f.errMsg != "" {
			lines = append(lines, "", FormErrorStyle.Render(f.errMsg))
		}
		hint := "enter save • tab next field • esc cancel"
		if f.state == FormEditing {
			hint += " • ctrl+d delete"
		}
		lines = append(lines, "", HelpStyle.Render(hint))
	}

	body := strings.Join(lines, "\n")
	width := f.width
	if width < 40 {
		width = 40
	}
	return DialogStyle.Width(width).Render(body)
}

func (f FormModel) startLabel() string {
	if f.rng.AllDay {
		return "First day"
	}
	return "Starts"
}

func (f FormModel) endLabel() string {
	if f.rng.AllDay {
		return "Last day"
	}
	return "Ends"
}

func (f FormModel) renderInput(label string, field int, in textinput.Model) string {
	return f.label(label, field) + " " + in.View()
}

func (f FormModel) renderChoice(label string, field int, value string) string {
	rendered := ValueStyle.Render(value)
	if f.focus == field {
		rendered = lipgloss.NewStyle().Foreground(primaryColor).Bold(true).Render("‹ " + value + " ›")
	}
	return f.label(label, field) + " " + rendered
}

func (f FormModel) label(text string, field int) string {
	if f.focus == field {
		return FocusedLabelStyle.Render(text)
	}
	return FieldLabelStyle.Render(text)
}

func (f FormModel) clientLabel() string {
	if f.clientIdx < 0 || f.clientIdx >= len(f.clients) {
		return "(none)"
	}
	return f.clients[f.clientIdx].Name
}

func checkbox(on bool) string {
	if on {
		return "[x]"
	}
	return "[ ]"
}
