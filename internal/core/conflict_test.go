package core

import (
	"testing"
	"time"
)

func eventAt(id, owner string, start, end time.Time) Event {
	return Event{ID: id, Title: id, OwnerUserID: owner, StartAt: start, EndAt: end}
}

func TestHasOverlap_SameOwner(t *testing.T) {
	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	existing := []Event{eventAt("a", "u1", base, base.Add(time.Hour))}

	if !HasOverlap(existing, "", "u1", base.Add(30*time.Minute), base.Add(90*time.Minute)) {
		t.Fatalf("expected overlap for 10:30-11:30 against 10:00-11:00")
	}
}

func TestHasOverlap_Symmetric(t *testing.T) {
	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	a := eventAt("a", "u1", base, base.Add(time.Hour))
	b := eventAt("b", "u1", base.Add(30*time.Minute), base.Add(2*time.Hour))

	ab := HasOverlap([]Event{a}, "", b.OwnerUserID, b.StartAt, b.EndAt)
	ba := HasOverlap([]Event{b}, "", a.OwnerUserID, a.StartAt, a.EndAt)
	if ab != ba {
		t.Fatalf("overlap not symmetric: %v vs %v", ab, ba)
	}
}

func TestHasOverlap_SharedBoundaryExclusive(t *testing.T) {
	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	existing := []Event{eventAt("a", "u1", base, base.Add(time.Hour))}

	// Starts exactly when the other ends.
	if HasOverlap(existing, "", "u1", base.Add(time.Hour), base.Add(2*time.Hour)) {
		t.Fatalf("half-open ranges sharing a boundary must not conflict")
	}
	// Ends exactly when the other starts.
	if HasOverlap(existing, "", "u1", base.Add(-time.Hour), base) {
		t.Fatalf("half-open ranges sharing a boundary must not conflict")
	}
}

func TestHasOverlap_DifferentOwnerIgnored(t *testing.T) {
	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	existing := []Event{eventAt("a", "u2", base, base.Add(time.Hour))}

	if HasOverlap(existing, "", "u1", base, base.Add(time.Hour)) {
		t.Fatalf("events of other owners must not conflict")
	}
}

func TestHasOverlap_ExcludesMovedEvent(t *testing.T) {
	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	existing := []Event{eventAt("a", "u1", base, base.Add(time.Hour))}

	if HasOverlap(existing, "a", "u1", base.Add(15*time.Minute), base.Add(75*time.Minute)) {
		t.Fatalf("the event being moved must not conflict with itself")
	}
}

func TestHasOverlap_UnknownOwnerAllows(t *testing.T) {
	base := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	existing := []Event{eventAt("a", "u1", base, base.Add(time.Hour))}

	if HasOverlap(existing, "", "", base, base.Add(time.Hour)) {
		t.Fatalf("empty owner must degrade to allow")
	}
}

func TestCanEdit(t *testing.T) {
	ev := Event{ID: "e1", OwnerUserID: "u1"}

	if !CanEdit(User{ID: "u1"}, ev) {
		t.Fatalf("owner must be allowed to edit")
	}
	if !CanEdit(User{ID: "u2", IsAdmin: true}, ev) {
		t.Fatalf("admin must be allowed to edit")
	}
	if CanEdit(User{ID: "u2"}, ev) {
		t.Fatalf("non-owner non-admin must not edit")
	}
	if CanEdit(User{}, Event{ID: "e2"}) {
		t.Fatalf("anonymous user must not edit an ownerless placeholder")
	}
}
