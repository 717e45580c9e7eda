package core

import (
	"time"
)

// TaskPriority is the urgency level of a follow-up task.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityNormal TaskPriority = "normal"
	PriorityHigh   TaskPriority = "high"
)

// User is a CRM account that can own events and be assigned tasks.
type User struct {
	ID      string
	Name    string
	Email   string
	IsAdmin bool
}

// Client is a directory entry a booking can be linked to.
type Client struct {
	ID   string
	Name string
}

// Event is a persisted studio booking.
//
// StartAt/EndAt are absolute instants with StartAt < EndAt. For an all-day
// event both are day-aligned and EndAt is exclusive (the day after the last
// included day). OwnerUserID may be empty only on an optimistic placeholder
// that has not been assigned by the server yet.
type Event struct {
	ID          string
	Title       string
	Description string
	StartAt     time.Time
	EndAt       time.Time
	AllDay      bool
	OwnerUserID string
	ClientID    string
	// Denormalized display name for ClientID
	ClientName string
	Location   string
	// IDs of users with tasks attached to this event
	Assignees []string
	CreatedAt *time.Time
	UpdatedAt *time.Time
}

// Duration returns the length of the event.
func (e Event) Duration() time.Duration {
	return e.EndAt.Sub(e.StartAt)
}

// HasAssignee reports whether the user already appears in the assignee set.
func (e Event) HasAssignee(userID string) bool {
	for _, id := range e.Assignees {
		if id == userID {
			return true
		}
	}
	return false
}

// EventPayload is the wire shape accepted by the event storage collaborator.
type EventPayload struct {
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	StartAt     time.Time `json:"start_at"`
	EndAt       time.Time `json:"end_at"`
	AllDay      bool      `json:"all_day"`
	OwnerUserID string    `json:"owner_user_id,omitempty"`
	ClientID    string    `json:"client_id,omitempty"`
	Location    string    `json:"location,omitempty"`
}

// Task is a follow-up task linked to an event.
type Task struct {
	ID         string
	Title      string
	Details    string
	DueAt      *time.Time
	Priority   TaskPriority
	AssignedTo string
	EventID    string
	CreatedBy  string
}

// TaskPayload is the wire shape accepted by the task collaborator.
type TaskPayload struct {
	Title      string       `json:"title"`
	Details    string       `json:"details,omitempty"`
	DueAt      *time.Time   `json:"due_at,omitempty"`
	Priority   TaskPriority `json:"priority"`
	AssignedTo string       `json:"assigned_to"`
	EventID    string       `json:"event_id"`
	CreatedBy  string       `json:"created_by,omitempty"`
}
