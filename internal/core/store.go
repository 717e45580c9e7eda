package core

import (
	"context"
	"time"
)

// Range is a half-open [Start, End) window of the calendar.
type Range struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether the event intersects the window.
func (r Range) Contains(e Event) bool {
	return e.StartAt.Before(r.End) && e.EndAt.After(r.Start)
}

// EventStore is the persistence collaborator for bookings.
type EventStore interface {
	// FetchEvents returns the events intersecting the window.
	FetchEvents(ctx context.Context, r Range) ([]Event, error)
	CreateEvent(ctx context.Context, p EventPayload) (*Event, error)
	UpdateEvent(ctx context.Context, id string, p EventPayload) (*Event, error)
	DeleteEvent(ctx context.Context, id string) error
}

// ClientDirectory resolves bookable clients for the client selector.
type ClientDirectory interface {
	ListClients(ctx context.Context) ([]Client, error)
}

// Session resolves the current user for the capability predicate.
type Session interface {
	CurrentUser(ctx context.Context) (*User, error)
}

// TaskService creates follow-up tasks and lists assignable users.
type TaskService interface {
	CreateTask(ctx context.Context, p TaskPayload) (*Task, error)
	ListAssignableUsers(ctx context.Context) ([]User, error)
}
