package core

import (
	"context"
)

// Patch rewrites the cached events of one fetch window. It must return a
// slice it owns; the input may be mutated in place.
type Patch func(window Range, events []Event) []Event

// Reconcile folds the authoritative server record into a cached window after
// the remote call succeeds (e.g. swapping a placeholder id for the real one).
type Reconcile func(events []Event, saved *Event) []Event

// RemoteCall performs the actual persistence and returns the authoritative
// record, or nil for operations without one (delete).
type RemoteCall func(ctx context.Context) (*Event, error)

// Mutation is one optimistic cache operation: the optimistic patch, the
// remote call, and the reconciliation of the server's reply.
type Mutation struct {
	Patch     Patch
	Call      RemoteCall
	Reconcile Reconcile
}

// Coordinator applies mutations to the cache before the network round-trip
// completes and guarantees the cache converges to server truth: reconciled
// on success, rolled back on failure. Rollback is scoped to the rows the
// mutation touched, so concurrent mutations on different events resolve
// independently of one another.
//
// It is the sole writer of the cache besides Store. Rapid repeated edits of
// one event are serialized by the UI, not here.
type Coordinator struct {
	cache *RangeCache
}

// NewCoordinator returns a coordinator writing through to the cache.
func NewCoordinator(cache *RangeCache) *Coordinator {
	return &Coordinator{cache: cache}
}

// Begin applies the optimistic patch immediately and returns the pending
// mutation. affected names the event ids the patch touches (the target id,
// plus the placeholder id on create); only those rows are put back if the
// remote call fails. The caller runs Run (typically off the UI loop) and
// feeds its result to Resolve.
func (c *Coordinator) Begin(m Mutation, affected ...string) *PendingMutation {
	captured := c.cache.CaptureRows(affected)
	c.cache.Apply(m.Patch)
	return &PendingMutation{coord: c, mutation: m, affected: affected, captured: captured}
}

// PendingMutation is a mutation whose optimistic patch is already visible
// but whose remote call has not resolved yet.
type PendingMutation struct {
	coord    *Coordinator
	mutation Mutation
	affected []string
	captured map[RangeKey][]Event
	resolved bool
}

// Run performs the remote call.
func (p *PendingMutation) Run(ctx context.Context) (*Event, error) {
	if p.mutation.Call == nil {
		return nil, nil
	}
	return p.mutation.Call(ctx)
}

// Resolve finalizes the mutation: on error the affected rows are restored to
// their pre-patch state and the error is returned for surfacing; on success
// the authoritative record is reconciled into the cache. Resolve is
// idempotent.
func (p *PendingMutation) Resolve(saved *Event, err error) error {
	if p.resolved {
		return nil
	}
	p.resolved = true

	if err != nil {
		p.coord.cache.RestoreRows(p.affected, p.captured)
		return err
	}

	if p.mutation.Reconcile != nil {
		p.coord.cache.Apply(func(_ Range, events []Event) []Event {
			return p.mutation.Reconcile(events, saved)
		})
	}
	return nil
}

// InsertEvent is the optimistic patch for create: the placeholder row is
// added to every cached window it intersects.
func InsertEvent(placeholder Event) Patch {
	return func(window Range, events []Event) []Event {
		if !window.Contains(placeholder) {
			return events
		}
		return append(events, placeholder)
	}
}

// ReplaceEvent is the optimistic patch for update, move and resize: the
// matching row is rewritten wherever it is cached. A row moved out of a
// window is dropped from that window, and inserted where it newly lands.
func ReplaceEvent(updated Event) Patch {
	return func(window Range, events []Event) []Event {
		out := events[:0]
		found := false
		for _, ev := range events {
			if ev.ID == updated.ID {
				found = true
				if window.Contains(updated) {
					out = append(out, updated)
				}
				continue
			}
			out = append(out, ev)
		}
		if !found && window.Contains(updated) {
			out = append(out, updated)
		}
		return out
	}
}

// RemoveEvent is the optimistic patch for delete.
func RemoveEvent(id string) Patch {
	return func(_ Range, events []Event) []Event {
		out := events[:0]
		for _, ev := range events {
			if ev.ID == id {
				continue
			}
			out = append(out, ev)
		}
		return out
	}
}

// SwapPlaceholder reconciles a create: the temporary row is replaced by the
// authoritative record, carrying the server-assigned id and timestamps.
func SwapPlaceholder(tempID string) Reconcile {
	return func(events []Event, saved *Event) []Event {
		if saved == nil {
			return events
		}
		for i, ev := range events {
			if ev.ID == tempID {
				events[i] = *saved
			}
		}
		return events
	}
}

// AdoptSaved reconciles an update: the optimistic row is replaced by the
// authoritative record under the same id.
func AdoptSaved(id string) Reconcile {
	return func(events []Event, saved *Event) []Event {
		if saved == nil {
			return events
		}
		for i, ev := range events {
			if ev.ID == id {
				events[i] = *saved
			}
		}
		return events
	}
}
