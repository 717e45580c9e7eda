package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	"github.com/avenwick/studiocal/internal/core"
)

// Fakes

type fakeStore struct {
	fetch  func(ctx context.Context, r core.Range) ([]core.Event, error)
	create func(ctx context.Context, p core.EventPayload) (*core.Event, error)
	update func(ctx context.Context, id string, p core.EventPayload) (*core.Event, error)
	delete func(ctx context.Context, id string) error
}

func (f *fakeStore) FetchEvents(ctx context.Context, r core.Range) ([]core.Event, error) {
	if f.fetch == nil {
		return nil, nil
	}
	return f.fetch(ctx, r)
}

func (f *fakeStore) CreateEvent(ctx context.Context, p core.EventPayload) (*core.Event, error) {
	return f.create(ctx, p)
}

func (f *fakeStore) UpdateEvent(ctx context.Context, id string, p core.EventPayload) (*core.Event, error) {
	return f.update(ctx, id, p)
}

func (f *fakeStore) DeleteEvent(ctx context.Context, id string) error {
	return f.delete(ctx, id)
}

type fakeTasks struct {
	create func(ctx context.Context, p core.TaskPayload) (*core.Task, error)
}

func (f *fakeTasks) CreateTask(ctx context.Context, p core.TaskPayload) (*core.Task, error) {
	return f.create(ctx, p)
}

func (f *fakeTasks) ListAssignableUsers(context.Context) ([]core.User, error) {
	return []core.User{{ID: "u2", Name: "Sam"}}, nil
}

// Fixtures

var testWindow = core.Range{
	Start: time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC),
	End:   time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC),
}

func testEvent(id, owner string, startHour int) core.Event {
	start := time.Date(2026, 3, 10, startHour, 0, 0, 0, time.UTC)
	return core.Event{
		ID:          id,
		Title:       "Session " + id,
		StartAt:     start,
		EndAt:       start.Add(time.Hour),
		OwnerUserID: owner,
	}
}

func newTestModel(store *fakeStore, events ...core.Event) Model {
	m := NewModel(Deps{Store: store, Tasks: &fakeTasks{}})
	m.user = &core.User{ID: "u1", Name: "Ana"}
	m.visible = testWindow
	m.cache.Store(testWindow, events)
	m.refreshVisible()
	m.loading = false
	return m
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

func cachedEvents(t *testing.T, m Model) []core.Event {
	t.Helper()
	events, ok := m.cache.Lookup(testWindow)
	require.True(t, ok)
	// Copy: the optimistic patches rewrite cached slices in place.
	return append([]core.Event(nil), events...)
}

// Tests

func TestActivationVetoedForForeignEvent(t *testing.T) {
	m := newTestModel(&fakeStore{}, testEvent("e1", "other-user", 10))

	m, _ = update(t, m, EventActivatedMsg{ID: "e1"})

	require.False(t, m.form.Open())
	require.NotNil(t, m.toast)
	require.True(t, m.toast.isErr)
}

func TestActivationOpensEditForOwnEvent(t *testing.T) {
	m := newTestModel(&fakeStore{}, testEvent("e1", "u1", 10))

	m, _ = update(t, m, EventActivatedMsg{ID: "e1"})

	require.Equal(t, FormEditing, m.form.State())
}

func TestAdminCanActivateAnyEvent(t *testing.T) {
	m := newTestModel(&fakeStore{}, testEvent("e1", "other-user", 10))
	m.user.IsAdmin = true

	m, _ = update(t, m, EventActivatedMsg{ID: "e1"})

	require.Equal(t, FormEditing, m.form.State())
}

func TestMoveVetoedForForeignEvent(t *testing.T) {
	e1 := testEvent("e1", "other-user", 10)
	updateCalled := false
	store := &fakeStore{
		update: func(context.Context, string, core.EventPayload) (*core.Event, error) {
			updateCalled = true
			return nil, nil
		},
	}
	m := newTestModel(store, e1)
	before := cachedEvents(t, m)

	m, _ = update(t, m, EventMovedMsg{
		ID:    "e1",
		Start: e1.StartAt.Add(2 * time.Hour),
		End:   e1.EndAt.Add(2 * time.Hour),
	})

	// The veto happens before the optimistic patch: the cache is untouched
	// and the store is never asked.
	require.False(t, updateCalled)
	require.Equal(t, before, cachedEvents(t, m))
	require.NotNil(t, m.toast)
	require.True(t, m.toast.isErr)
}

func TestResizeVetoedForForeignEvent(t *testing.T) {
	e1 := testEvent("e1", "other-user", 10)
	updateCalled := false
	store := &fakeStore{
		update: func(context.Context, string, core.EventPayload) (*core.Event, error) {
			updateCalled = true
			return nil, nil
		},
	}
	m := newTestModel(store, e1)
	before := cachedEvents(t, m)

	m, _ = update(t, m, EventResizedMsg{ID: "e1", End: e1.EndAt.Add(time.Hour)})

	require.False(t, updateCalled)
	require.Equal(t, before, cachedEvents(t, m))
	require.NotNil(t, m.toast)
	require.True(t, m.toast.isErr)
}

func TestMoveVetoedOnOverlapLeavesCacheUntouched(t *testing.T) {
	e1 := testEvent("e1", "u1", 10)
	e2 := testEvent("e2", "u1", 14)
	m := newTestModel(&fakeStore{}, e1, e2)

	before := cachedEvents(t, m)

	// Move e1 onto e2's slot.
	m, cmd := update(t, m, EventMovedMsg{
		ID:    "e1",
		Start: e2.StartAt.Add(30 * time.Minute),
		End:   e2.StartAt.Add(90 * time.Minute),
	})

	require.NotNil(t, m.toast)
	require.True(t, m.toast.isErr)
	require.Equal(t, before, cachedEvents(t, m))
	require.NotNil(t, cmd) // toast expiry timer only
}

func TestMoveAllowedAcrossOwners(t *testing.T) {
	e1 := testEvent("e1", "u1", 10)
	e2 := testEvent("e2", "someone-else", 14)
	store := &fakeStore{
		update: func(_ context.Context, id string, p core.EventPayload) (*core.Event, error) {
			ev := testEvent(id, "u1", 14)
			ev.StartAt = p.StartAt
			ev.EndAt = p.EndAt
			return &ev, nil
		},
	}
	m := newTestModel(store, e1, e2)

	// Same slot as e2, but a different owner; no conflict.
	m, cmd := update(t, m, EventMovedMsg{ID: "e1", Start: e2.StartAt, End: e2.EndAt})

	require.NotNil(t, cmd)
	events := cachedEvents(t, m)
	for _, ev := range events {
		if ev.ID == "e1" {
			require.True(t, ev.StartAt.Equal(e2.StartAt))
		}
	}
}

func TestMoveAppliesOptimisticallyThenReconciles(t *testing.T) {
	e1 := testEvent("e1", "u1", 10)
	newStart := time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC)
	saved := e1
	saved.StartAt = newStart
	saved.EndAt = newStart.Add(time.Hour)

	store := &fakeStore{
		update: func(context.Context, string, core.EventPayload) (*core.Event, error) {
			return &saved, nil
		},
	}
	m := newTestModel(store, e1)

	m, cmd := update(t, m, EventMovedMsg{ID: "e1", Start: saved.StartAt, End: saved.EndAt})

	// Optimistic patch is visible before the remote call resolves.
	events := cachedEvents(t, m)
	require.Len(t, events, 1)
	require.True(t, events[0].StartAt.Equal(newStart))

	resolved, ok := cmd().(mutationResolvedMsg)
	require.True(t, ok)
	m, _ = update(t, m, resolved)

	events = cachedEvents(t, m)
	require.True(t, events[0].StartAt.Equal(newStart))
	require.NotNil(t, m.toast)
	require.False(t, m.toast.isErr)
}

func TestMoveFailureRollsBackExactly(t *testing.T) {
	e1 := testEvent("e1", "u1", 10)
	store := &fakeStore{
		update: func(context.Context, string, core.EventPayload) (*core.Event, error) {
			return nil, errors.New("slot rejected")
		},
	}
	m := newTestModel(store, e1)
	before := cachedEvents(t, m)

	m, cmd := update(t, m, EventMovedMsg{
		ID:    "e1",
		Start: e1.StartAt.Add(2 * time.Hour),
		End:   e1.EndAt.Add(2 * time.Hour),
	})

	// Optimistically moved.
	require.False(t, cachedEvents(t, m)[0].StartAt.Equal(e1.StartAt))

	resolved, ok := cmd().(mutationResolvedMsg)
	require.True(t, ok)
	m, _ = update(t, m, resolved)

	require.Equal(t, before, cachedEvents(t, m))
	require.NotNil(t, m.toast)
	require.True(t, m.toast.isErr)
}

func TestCreateSwapsPlaceholderForSavedRecord(t *testing.T) {
	saved := testEvent("real-id", "u1", 10)
	store := &fakeStore{
		create: func(_ context.Context, p core.EventPayload) (*core.Event, error) {
			saved.Title = p.Title
			return &saved, nil
		},
	}
	m := newTestModel(store)
	m.form = m.form.OpenCreate(core.TimeRange{
		Start: saved.StartAt,
		End:   saved.EndAt,
	}, nil, "u1")

	payload := core.EventPayload{
		Title:       "New session",
		StartAt:     saved.StartAt,
		EndAt:       saved.EndAt,
		OwnerUserID: "u1",
	}
	m, cmd := update(t, m, formSubmittedMsg{payload: payload})

	events := cachedEvents(t, m)
	require.Len(t, events, 1)
	require.Contains(t, events[0].ID, "pending-")

	resolved, ok := cmd().(mutationResolvedMsg)
	require.True(t, ok)
	m, _ = update(t, m, resolved)

	events = cachedEvents(t, m)
	require.Len(t, events, 1)
	require.Equal(t, "real-id", events[0].ID)
	require.Equal(t, FormClosed, m.form.State())
}

func TestCreateFailureSurfacesInDialog(t *testing.T) {
	store := &fakeStore{
		create: func(context.Context, core.EventPayload) (*core.Event, error) {
			return nil, errors.New("room double-booked")
		},
	}
	m := newTestModel(store)
	seed := core.TimeRange{
		Start: time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 3, 10, 11, 0, 0, 0, time.UTC),
	}
	m.form = m.form.OpenCreate(seed, nil, "u1")
	m.form.title.SetValue("New session")
	m.form, _ = m.form.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, FormSubmitting, m.form.State())

	m, cmd := update(t, m, formSubmittedMsg{payload: core.EventPayload{
		Title:   "New session",
		StartAt: seed.Start,
		EndAt:   seed.End,
	}})
	resolved := cmd().(mutationResolvedMsg)
	m, _ = update(t, m, resolved)

	// The dialog survives with the error inline; the placeholder is gone.
	require.Equal(t, FormCreating, m.form.State())
	require.Contains(t, m.form.errMsg, "room double-booked")
	require.Empty(t, cachedEvents(t, m))
}

func TestDeleteRemovesOptimistically(t *testing.T) {
	e1 := testEvent("e1", "u1", 10)
	store := &fakeStore{
		delete: func(context.Context, string) error { return nil },
	}
	m := newTestModel(store, e1)

	m, cmd := update(t, m, formDeleteRequestedMsg{id: "e1"})

	require.Empty(t, cachedEvents(t, m))

	resolved := cmd().(mutationResolvedMsg)
	m, _ = update(t, m, resolved)
	require.Empty(t, cachedEvents(t, m))
	require.NotNil(t, m.toast)
	require.Equal(t, "Booking deleted.", m.toast.text)
}

func TestDismissedDialogMutationStillResolves(t *testing.T) {
	store := &fakeStore{
		delete: func(context.Context, string) error { return errors.New("gone already") },
	}
	e1 := testEvent("e1", "u1", 10)
	m := newTestModel(store, e1)
	before := cachedEvents(t, m)

	m, cmd := update(t, m, formDeleteRequestedMsg{id: "e1"})
	require.Empty(t, cachedEvents(t, m))

	// The user dismissed the dialog while the request was in flight; the
	// failure still rolls the cache back, surfaced as a toast.
	resolved := cmd().(mutationResolvedMsg)
	m, _ = update(t, m, resolved)

	require.Equal(t, before, cachedEvents(t, m))
	require.NotNil(t, m.toast)
	require.True(t, m.toast.isErr)
}

func TestTaskSavedAddsAssigneeOnce(t *testing.T) {
	e1 := testEvent("e1", "u1", 10)
	m := newTestModel(&fakeStore{}, e1)

	msg := taskSavedMsg{task: &core.Task{ID: "t1"}, assigneeID: "u2", eventID: "e1"}
	m, _ = update(t, m, msg)
	m, _ = update(t, m, msg)

	events := cachedEvents(t, m)
	require.Equal(t, []string{"u2"}, events[0].Assignees)
}

func TestWindowChangeHitsCache(t *testing.T) {
	e1 := testEvent("e1", "u1", 10)
	fetches := 0
	store := &fakeStore{
		fetch: func(context.Context, core.Range) ([]core.Event, error) {
			fetches++
			return nil, nil
		},
	}
	m := newTestModel(store, e1)

	m, cmd := update(t, m, ViewWindowChangedMsg{Window: testWindow})

	require.Nil(t, cmd)
	require.False(t, m.loading)
	require.Len(t, m.events, 1)
	require.Zero(t, fetches)
}

func TestWindowChangeFetchesOnMiss(t *testing.T) {
	next := core.Range{Start: testWindow.Start.AddDate(0, 0, 7), End: testWindow.End.AddDate(0, 0, 7)}
	e2 := testEvent("e2", "u1", 10)
	e2.StartAt = e2.StartAt.AddDate(0, 0, 7)
	e2.EndAt = e2.EndAt.AddDate(0, 0, 7)
	store := &fakeStore{
		fetch: func(_ context.Context, r core.Range) ([]core.Event, error) {
			require.True(t, r.Start.Equal(next.Start))
			return []core.Event{e2}, nil
		},
	}
	m := newTestModel(store)

	m, cmd := update(t, m, ViewWindowChangedMsg{Window: next})
	require.True(t, m.loading)
	require.NotNil(t, cmd)

	loaded, ok := cmd().(eventsLoadedMsg)
	require.True(t, ok)
	m, _ = update(t, m, loaded)

	require.False(t, m.loading)
	require.Len(t, m.events, 1)
	require.Equal(t, "e2", m.events[0].ID)
}

func TestRangeSelectedOpensCreateDialog(t *testing.T) {
	m := newTestModel(&fakeStore{})
	seed := core.TimeRange{
		Start: time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 3, 10, 11, 0, 0, 0, time.UTC),
	}

	m, _ = update(t, m, RangeSelectedMsg{Range: seed})

	require.Equal(t, FormCreating, m.form.State())
}

func TestStaleResolutionSkipsReopenedDialog(t *testing.T) {
	store := &fakeStore{
		create: func(context.Context, core.EventPayload) (*core.Event, error) {
			return nil, errors.New("room double-booked")
		},
	}
	m := newTestModel(store)
	seed := core.TimeRange{
		Start: time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 3, 10, 11, 0, 0, 0, time.UTC),
	}
	m, _ = update(t, m, RangeSelectedMsg{Range: seed})
	m, cmd := update(t, m, formSubmittedMsg{payload: core.EventPayload{
		Title:       "First draft",
		StartAt:     seed.Start,
		EndAt:       seed.End,
		OwnerUserID: "u1",
	}})

	// The user dismisses the submitting dialog and starts a fresh draft
	// before the first request resolves.
	m.form = m.form.Close()
	m, _ = update(t, m, RangeSelectedMsg{Range: seed})
	require.Equal(t, FormCreating, m.form.State())

	resolved := cmd().(mutationResolvedMsg)
	m, _ = update(t, m, resolved)

	// The old failure lands as a toast and rolls back its placeholder; the
	// new draft stays pristine.
	require.Equal(t, FormCreating, m.form.State())
	require.Empty(t, m.form.errMsg)
	require.NotNil(t, m.toast)
	require.True(t, m.toast.isErr)
	require.Empty(t, cachedEvents(t, m))
}

func TestNewBookingSeedStartsAtNextFullHour(t *testing.T) {
	m := newTestModel(&fakeStore{})
	now := time.Now()
	m.visible = weekWindow(now)

	seed := m.newBookingSeed()

	require.Zero(t, seed.Start.Minute())
	require.True(t, seed.Start.After(now))
	require.LessOrEqual(t, seed.Start.Sub(now), time.Hour)
	require.Equal(t, core.DefaultDuration, seed.End.Sub(seed.Start))
}

func TestNewBookingSeedOutsideVisibleWindow(t *testing.T) {
	m := newTestModel(&fakeStore{})
	m.visible = core.Range{
		Start: time.Date(2100, 1, 4, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2100, 1, 11, 0, 0, 0, 0, time.UTC),
	}

	seed := m.newBookingSeed()

	require.True(t, seed.Start.Equal(m.visible.Start.Add(9*time.Hour)))
	require.Equal(t, core.DefaultDuration, seed.End.Sub(seed.Start))
}

func TestResizeKeepsStartFixed(t *testing.T) {
	e1 := testEvent("e1", "u1", 10)
	var gotPayload core.EventPayload
	store := &fakeStore{
		update: func(_ context.Context, _ string, p core.EventPayload) (*core.Event, error) {
			gotPayload = p
			ev := e1
			ev.EndAt = p.EndAt
			return &ev, nil
		},
	}
	m := newTestModel(store, e1)

	newEnd := e1.EndAt.Add(30 * time.Minute)
	m, cmd := update(t, m, EventResizedMsg{ID: "e1", End: newEnd})

	resolved := cmd().(mutationResolvedMsg)
	_, _ = update(t, m, resolved)

	require.True(t, gotPayload.StartAt.Equal(e1.StartAt))
	require.True(t, gotPayload.EndAt.Equal(newEnd))
}
