package crm

import (
	"context"
	"net/http"
	"time"

	"github.com/avenwick/studiocal/internal/core"
)

type taskDTO struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Details    string     `json:"details,omitempty"`
	DueAt      *time.Time `json:"due_at,omitempty"`
	Priority   string     `json:"priority"`
	AssignedTo string     `json:"assigned_to"`
	EventID    string     `json:"event_id"`
	CreatedBy  string     `json:"created_by,omitempty"`
}

// CreateTask creates a follow-up task linked to an event. The server upserts
// the assignee into the event's assignee set as a side effect.
func (a *Adapter) CreateTask(ctx context.Context, p core.TaskPayload) (*core.Task, error) {
	var dto taskDTO
	if err := a.do(ctx, http.MethodPost, "/api/v1/tasks", p, &dto); err != nil {
		return nil, err
	}
	return &core.Task{
		ID:         dto.ID,
		Title:      dto.Title,
		Details:    dto.Details,
		DueAt:      dto.DueAt,
		Priority:   core.TaskPriority(dto.Priority),
		AssignedTo: dto.AssignedTo,
		EventID:    dto.EventID,
		CreatedBy:  dto.CreatedBy,
	}, nil
}

// ListAssignableUsers returns the users a task may be assigned to.
func (a *Adapter) ListAssignableUsers(ctx context.Context) ([]core.User, error) {
	var dtos []userDTO
	if err := a.get(ctx, "/api/v1/users/assignable", &dtos); err != nil {
		return nil, err
	}
	users := make([]core.User, 0, len(dtos))
	for _, d := range dtos {
		users = append(users, d.toCore())
	}
	return users, nil
}
