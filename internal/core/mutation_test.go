package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testWindow() Range {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	return Range{Start: start, End: start.AddDate(0, 0, 7)}
}

func seededCache(t *testing.T, events ...Event) (*RangeCache, Range) {
	t.Helper()
	cache := NewRangeCache()
	w := testWindow()
	cache.Store(w, events)
	return cache, w
}

func TestCoordinator_CreateSuccessSwapsPlaceholder(t *testing.T) {
	cache, w := seededCache(t)
	coord := NewCoordinator(cache)

	placeholder := Event{
		ID:      "temp-123",
		Title:   "Shoot",
		StartAt: w.Start.Add(9 * time.Hour),
		EndAt:   w.Start.Add(10 * time.Hour),
	}
	saved := placeholder
	saved.ID = "evt-1"
	saved.OwnerUserID = "u1"

	pending := coord.Begin(Mutation{
		Patch: InsertEvent(placeholder),
		Call: func(ctx context.Context) (*Event, error) {
			return &saved, nil
		},
		Reconcile: SwapPlaceholder("temp-123"),
	}, "temp-123")

	// Optimistic row is visible before the remote call resolves.
	events, ok := cache.Lookup(w)
	require.True(t, ok)
	require.Len(t, events, 1)
	require.Equal(t, "temp-123", events[0].ID)

	got, err := pending.Run(context.Background())
	require.NoError(t, pending.Resolve(got, err))

	events, _ = cache.Lookup(w)
	require.Len(t, events, 1)
	require.Equal(t, "evt-1", events[0].ID)
	require.Equal(t, "u1", events[0].OwnerUserID)
}

func TestCoordinator_FailureRollsBackExactly(t *testing.T) {
	existing := Event{
		ID:          "evt-1",
		Title:       "Portrait session",
		OwnerUserID: "u1",
		StartAt:     testWindow().Start.Add(10 * time.Hour),
		EndAt:       testWindow().Start.Add(11 * time.Hour),
	}
	cache, w := seededCache(t, existing)
	coord := NewCoordinator(cache)
	before := cache.Snapshot()

	placeholder := existing
	placeholder.ID = "temp-123"
	placeholder.StartAt = existing.StartAt.Add(2 * time.Hour)
	placeholder.EndAt = existing.EndAt.Add(2 * time.Hour)

	pending := coord.Begin(Mutation{
		Patch: InsertEvent(placeholder),
		Call: func(ctx context.Context) (*Event, error) {
			return nil, errors.New("backend unavailable")
		},
		Reconcile: SwapPlaceholder("temp-123"),
	}, "temp-123")

	got, err := pending.Run(context.Background())
	require.Error(t, pending.Resolve(got, err))

	// No stray placeholder: the cache equals its pre-mutation snapshot.
	require.Equal(t, before, cache.Snapshot())
	events, _ := cache.Lookup(w)
	require.Len(t, events, 1)
	require.Equal(t, "evt-1", events[0].ID)
}

func TestCoordinator_UpdateRollback(t *testing.T) {
	existing := Event{
		ID:          "evt-1",
		Title:       "Portrait session",
		OwnerUserID: "u1",
		StartAt:     testWindow().Start.Add(10 * time.Hour),
		EndAt:       testWindow().Start.Add(11 * time.Hour),
	}
	cache, w := seededCache(t, existing)
	coord := NewCoordinator(cache)

	moved := existing
	moved.StartAt = existing.StartAt.Add(time.Hour)
	moved.EndAt = existing.EndAt.Add(time.Hour)

	pending := coord.Begin(Mutation{
		Patch: ReplaceEvent(moved),
		Call: func(ctx context.Context) (*Event, error) {
			return nil, errors.New("rejected")
		},
		Reconcile: AdoptSaved("evt-1"),
	}, "evt-1")

	events, _ := cache.Lookup(w)
	require.True(t, events[0].StartAt.Equal(moved.StartAt), "optimistic move not applied")

	got, err := pending.Run(context.Background())
	require.Error(t, pending.Resolve(got, err))

	events, _ = cache.Lookup(w)
	require.True(t, events[0].StartAt.Equal(existing.StartAt), "rollback did not restore the original start")
}

func TestCoordinator_DeleteSuccess(t *testing.T) {
	existing := Event{
		ID:          "evt-1",
		OwnerUserID: "u1",
		StartAt:     testWindow().Start.Add(10 * time.Hour),
		EndAt:       testWindow().Start.Add(11 * time.Hour),
	}
	cache, w := seededCache(t, existing)
	coord := NewCoordinator(cache)

	pending := coord.Begin(Mutation{
		Patch: RemoveEvent("evt-1"),
		Call: func(ctx context.Context) (*Event, error) {
			return nil, nil
		},
	}, "evt-1")

	events, _ := cache.Lookup(w)
	require.Empty(t, events)

	got, err := pending.Run(context.Background())
	require.NoError(t, pending.Resolve(got, err))

	events, _ = cache.Lookup(w)
	require.Empty(t, events)
}

func TestCoordinator_ResolveIdempotent(t *testing.T) {
	cache, w := seededCache(t)
	coord := NewCoordinator(cache)

	placeholder := Event{ID: "temp-1", StartAt: w.Start.Add(time.Hour), EndAt: w.Start.Add(2 * time.Hour)}
	pending := coord.Begin(Mutation{Patch: InsertEvent(placeholder)}, "temp-1")

	require.Error(t, pending.Resolve(nil, errors.New("boom")))
	require.NoError(t, pending.Resolve(nil, errors.New("boom")), "second resolve must be a no-op")
}

func TestCoordinator_RollbackSparesOtherMutations(t *testing.T) {
	w := testWindow()
	evtA := Event{ID: "evt-a", OwnerUserID: "u1", StartAt: w.Start.Add(10 * time.Hour), EndAt: w.Start.Add(11 * time.Hour)}
	evtB := Event{ID: "evt-b", OwnerUserID: "u1", StartAt: w.Start.Add(12 * time.Hour), EndAt: w.Start.Add(13 * time.Hour)}
	cache, _ := seededCache(t, evtA, evtB)
	coord := NewCoordinator(cache)

	movedA := evtA
	movedA.StartAt = w.Start.Add(15 * time.Hour)
	movedA.EndAt = w.Start.Add(16 * time.Hour)
	pendingA := coord.Begin(Mutation{
		Patch:     ReplaceEvent(movedA),
		Reconcile: AdoptSaved("evt-a"),
	}, "evt-a")

	movedB := evtB
	movedB.StartAt = w.Start.Add(14 * time.Hour)
	movedB.EndAt = w.Start.Add(15 * time.Hour)
	pendingB := coord.Begin(Mutation{
		Patch:     ReplaceEvent(movedB),
		Reconcile: AdoptSaved("evt-b"),
	}, "evt-b")

	// B commits first, then A fails. A's rollback must restore only evt-a;
	// evt-b keeps its committed move.
	require.NoError(t, pendingB.Resolve(&movedB, nil))
	require.Error(t, pendingA.Resolve(nil, errors.New("rejected")))

	events, _ := cache.Lookup(w)
	require.Len(t, events, 2)
	byID := map[string]Event{events[0].ID: events[0], events[1].ID: events[1]}
	require.True(t, byID["evt-a"].StartAt.Equal(evtA.StartAt), "failed mutation must revert its own event")
	require.True(t, byID["evt-b"].StartAt.Equal(movedB.StartAt), "rollback must not undo another event's committed move")
}

func TestCoordinator_RollbackSkipsWindowsFetchedAfterBegin(t *testing.T) {
	w := testWindow()
	existing := Event{ID: "evt-1", OwnerUserID: "u1", StartAt: w.Start.Add(10 * time.Hour), EndAt: w.Start.Add(11 * time.Hour)}
	cache, _ := seededCache(t, existing)
	coord := NewCoordinator(cache)

	moved := existing
	moved.StartAt = existing.StartAt.Add(time.Hour)
	moved.EndAt = existing.EndAt.Add(time.Hour)
	pending := coord.Begin(Mutation{
		Patch:     ReplaceEvent(moved),
		Reconcile: AdoptSaved("evt-1"),
	}, "evt-1")

	// A window fetched while the call is in flight carries server truth.
	next := Range{Start: w.End, End: w.End.AddDate(0, 0, 7)}
	fresh := Event{ID: "evt-9", OwnerUserID: "u2", StartAt: next.Start.Add(time.Hour), EndAt: next.Start.Add(2 * time.Hour)}
	cache.Store(next, []Event{fresh})

	require.Error(t, pending.Resolve(nil, errors.New("rejected")))

	events, _ := cache.Lookup(next)
	require.Len(t, events, 1)
	require.Equal(t, "evt-9", events[0].ID, "rollback must leave later fetches alone")
	events, _ = cache.Lookup(w)
	require.True(t, events[0].StartAt.Equal(existing.StartAt))
}

func TestReplaceEvent_MovesAcrossWindowBoundary(t *testing.T) {
	w := testWindow()
	next := Range{Start: w.End, End: w.End.AddDate(0, 0, 7)}

	existing := Event{ID: "evt-1", OwnerUserID: "u1", StartAt: w.Start.Add(time.Hour), EndAt: w.Start.Add(2 * time.Hour)}
	cache := NewRangeCache()
	cache.Store(w, []Event{existing})
	cache.Store(next, nil)

	moved := existing
	moved.StartAt = next.Start.Add(time.Hour)
	moved.EndAt = next.Start.Add(2 * time.Hour)
	cache.Apply(ReplaceEvent(moved))

	events, _ := cache.Lookup(w)
	require.Empty(t, events, "moved event must leave its old window")
	events, _ = cache.Lookup(next)
	require.Len(t, events, 1)
	require.Equal(t, "evt-1", events[0].ID)
}

func TestRangeCache_LookupMiss(t *testing.T) {
	cache := NewRangeCache()
	_, ok := cache.Lookup(testWindow())
	require.False(t, ok)
}
