package core

import "time"

// HasOverlap reports whether the proposed [start, end) window collides with
// another event owned by the same user. The event identified by excludeID
// (the one being moved or edited) is skipped.
//
// Ranges are half-open, so an event ending exactly when another starts does
// not conflict. An empty ownerUserID degrades to "allow": ownership has not
// been resolved yet on an optimistic placeholder, and this check is a
// UI-level guard over the loaded window, not a security boundary.
func HasOverlap(events []Event, excludeID, ownerUserID string, start, end time.Time) bool {
	if ownerUserID == "" {
		return false
	}

	for _, ev := range events {
		if ev.ID == excludeID {
			continue
		}
		if ev.OwnerUserID != ownerUserID {
			continue
		}
		if ev.StartAt.Before(end) && ev.EndAt.After(start) {
			return true
		}
	}
	return false
}
