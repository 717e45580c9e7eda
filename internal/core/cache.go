package core

import (
	"sort"
)

// RangeKey identifies a cached fetch window. Two windows with the same
// instants share an entry regardless of wall-clock representation.
type RangeKey struct {
	start int64
	end   int64
}

// KeyFor returns the cache key for a window.
func KeyFor(r Range) RangeKey {
	return RangeKey{start: r.Start.UnixNano(), end: r.End.UnixNano()}
}

type cacheEntry struct {
	window Range
	events []Event
}

// RangeCache holds fetched events keyed by their fetch window, so navigating
// back to a previously seen window needs no second persistence call. There is
// no eviction: windows are few and short-lived within a session.
//
// The cache is the single canonical in-memory event list; only the mutation
// coordinator writes to it outside of Store.
type RangeCache struct {
	entries map[RangeKey]cacheEntry
}

// NewRangeCache returns an empty cache.
func NewRangeCache() *RangeCache {
	return &RangeCache{entries: make(map[RangeKey]cacheEntry)}
}

// Lookup returns the cached events for the window, if fetched before.
func (c *RangeCache) Lookup(r Range) ([]Event, bool) {
	entry, ok := c.entries[KeyFor(r)]
	if !ok {
		return nil, false
	}
	return entry.events, true
}

// Store replaces the cached events for the window.
func (c *RangeCache) Store(r Range, events []Event) {
	sorted := append([]Event(nil), events...)
	sortByStart(sorted)
	c.entries[KeyFor(r)] = cacheEntry{window: r, events: sorted}
}

// Snapshot deep-copies the full cache state for later rollback.
func (c *RangeCache) Snapshot() map[RangeKey][]Event {
	snap := make(map[RangeKey][]Event, len(c.entries))
	for key, entry := range c.entries {
		snap[key] = append([]Event(nil), entry.events...)
	}
	return snap
}

// CaptureRows records, for every window currently cached, the rows whose id
// is in ids. Windows fetched later are deliberately absent from the capture
// so a rollback cannot clobber fresher server state.
func (c *RangeCache) CaptureRows(ids []string) map[RangeKey][]Event {
	captured := make(map[RangeKey][]Event, len(c.entries))
	for key, entry := range c.entries {
		var rows []Event
		for _, ev := range entry.events {
			if containsID(ids, ev.ID) {
				rows = append(rows, ev)
			}
		}
		captured[key] = rows
	}
	return captured
}

// RestoreRows undoes a single mutation's patch: in every captured window the
// affected rows are put back exactly as recorded and rows the patch
// introduced under those ids are dropped. All other rows, and windows
// fetched after the capture, are left alone.
func (c *RangeCache) RestoreRows(ids []string, captured map[RangeKey][]Event) {
	for key, entry := range c.entries {
		rows, ok := captured[key]
		if !ok {
			continue
		}
		out := entry.events[:0]
		for _, ev := range entry.events {
			if containsID(ids, ev.ID) {
				continue
			}
			out = append(out, ev)
		}
		out = append(out, rows...)
		sortByStart(out)
		entry.events = out
		c.entries[key] = entry
	}
}

func containsID(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

// Apply runs the patch against every cached window and re-sorts each entry.
func (c *RangeCache) Apply(patch Patch) {
	if patch == nil {
		return
	}
	for key, entry := range c.entries {
		entry.events = patch(entry.window, entry.events)
		sortByStart(entry.events)
		c.entries[key] = entry
	}
}

func sortByStart(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].StartAt.Before(events[j].StartAt)
	})
}
