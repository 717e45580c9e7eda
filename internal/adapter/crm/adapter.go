// Package crm talks to the studio CRM REST API. It implements every
// collaborator interface the calendar core consumes: event storage, the
// client directory, session resolution and task creation.
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"github.com/avenwick/studiocal/internal/core"
)

const defaultTimeout = 15 * time.Second

// Adapter is a CRM API client. All methods are safe for use from a single
// goroutine; the TUI and CLI both construct one per process.
type Adapter struct {
	baseURL    string
	httpClient *http.Client
}

// New returns an adapter for the API at baseURL. A non-empty token is sent
// as a bearer token on every request.
func New(baseURL, token string) *Adapter {
	client := &http.Client{Timeout: defaultTimeout}
	if token != "" {
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		client = oauth2.NewClient(context.Background(), src)
		client.Timeout = defaultTimeout
	}
	return &Adapter{baseURL: baseURL, httpClient: client}
}

type userDTO struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
}

func (d userDTO) toCore() core.User {
	return core.User{ID: d.ID, Name: d.Name, Email: d.Email, IsAdmin: d.IsAdmin}
}

type clientDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CurrentUser resolves the session user behind the API token.
func (a *Adapter) CurrentUser(ctx context.Context) (*core.User, error) {
	var dto userDTO
	if err := a.get(ctx, "/api/v1/me", &dto); err != nil {
		return nil, err
	}
	u := dto.toCore()
	return &u, nil
}

// ListClients returns the bookable client directory.
func (a *Adapter) ListClients(ctx context.Context) ([]core.Client, error) {
	var dtos []clientDTO
	if err := a.get(ctx, "/api/v1/clients", &dtos); err != nil {
		return nil, err
	}
	clients := make([]core.Client, 0, len(dtos))
	for _, d := range dtos {
		clients = append(clients, core.Client{ID: d.ID, Name: d.Name})
	}
	return clients, nil
}

func (a *Adapter) get(ctx context.Context, path string, out any) error {
	return a.do(ctx, http.MethodGet, path, nil, out)
}

func (a *Adapter) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: encode request: %v", ErrUnavailable, err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", ErrUnavailable, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return fmt.Errorf("%w: %s", ErrRejected, errorMessage(resp.Body))
	default:
		return fmt.Errorf("%w: unexpected status %d", ErrUnavailable, resp.StatusCode)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	return nil
}

// errorMessage pulls the server's error string out of a rejection body,
// falling back to a generic message.
func errorMessage(body io.Reader) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(body).Decode(&payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return "the server rejected the request"
}
