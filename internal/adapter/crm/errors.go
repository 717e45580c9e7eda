package crm

import "errors"

var (
	// ErrUnauthorized means the API token was missing, expired or rejected.
	ErrUnauthorized = errors.New("crm: unauthorized")
	// ErrNotFound means the referenced record does not exist (anymore).
	ErrNotFound = errors.New("crm: not found")
	// ErrRejected wraps a server-side rejection; the message is suitable for
	// surfacing to the user.
	ErrRejected = errors.New("crm: request rejected")
	// ErrUnavailable covers transport failures and unexpected status codes.
	ErrUnavailable = errors.New("crm: service unavailable")
)
