package crm

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/avenwick/studiocal/internal/core"
)

type eventDTO struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	StartAt     time.Time  `json:"start_at"`
	EndAt       time.Time  `json:"end_at"`
	AllDay      bool       `json:"all_day"`
	OwnerUserID string     `json:"owner_user_id"`
	ClientID    string     `json:"client_id,omitempty"`
	ClientName  string     `json:"client_name,omitempty"`
	Location    string     `json:"location,omitempty"`
	Assignees   []string   `json:"assignees,omitempty"`
	CreatedAt   *time.Time `json:"created_at,omitempty"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

func (d eventDTO) toCore() core.Event {
	return core.Event{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		StartAt:     d.StartAt,
		EndAt:       d.EndAt,
		AllDay:      d.AllDay,
		OwnerUserID: d.OwnerUserID,
		ClientID:    d.ClientID,
		ClientName:  d.ClientName,
		Location:    d.Location,
		Assignees:   d.Assignees,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// FetchEvents returns the bookings intersecting the window.
func (a *Adapter) FetchEvents(ctx context.Context, r core.Range) ([]core.Event, error) {
	q := url.Values{}
	q.Set("from", r.Start.Format(time.RFC3339))
	q.Set("to", r.End.Format(time.RFC3339))

	var dtos []eventDTO
	if err := a.get(ctx, "/api/v1/events?"+q.Encode(), &dtos); err != nil {
		return nil, err
	}

	events := make([]core.Event, 0, len(dtos))
	for _, d := range dtos {
		events = append(events, d.toCore())
	}
	return events, nil
}

// CreateEvent persists a new booking and returns the authoritative record.
func (a *Adapter) CreateEvent(ctx context.Context, p core.EventPayload) (*core.Event, error) {
	var dto eventDTO
	if err := a.do(ctx, http.MethodPost, "/api/v1/events", p, &dto); err != nil {
		return nil, err
	}
	ev := dto.toCore()
	return &ev, nil
}

// UpdateEvent rewrites an existing booking and returns the authoritative record.
func (a *Adapter) UpdateEvent(ctx context.Context, id string, p core.EventPayload) (*core.Event, error) {
	var dto eventDTO
	if err := a.do(ctx, http.MethodPut, "/api/v1/events/"+url.PathEscape(id), p, &dto); err != nil {
		return nil, err
	}
	ev := dto.toCore()
	return &ev, nil
}

// DeleteEvent removes a booking.
func (a *Adapter) DeleteEvent(ctx context.Context, id string) error {
	return a.do(ctx, http.MethodDelete, "/api/v1/events/"+url.PathEscape(id), nil, nil)
}

var (
	_ core.EventStore      = (*Adapter)(nil)
	_ core.ClientDirectory = (*Adapter)(nil)
	_ core.Session         = (*Adapter)(nil)
	_ core.TaskService     = (*Adapter)(nil)
)
