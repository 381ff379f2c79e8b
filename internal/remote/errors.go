package remote

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates the requested contact does not exist remotely.
var ErrNotFound = errors.New("contact not found")

// APIError is a directory rejection: a non-2xx response or an envelope with
// success=false. It carries the server's messages for user display; the
// zero-message case renders a generic description.
type APIError struct {
	Status   int
	Messages []string
}

func (e *APIError) Error() string {
	if len(e.Messages) > 0 {
		return e.Messages[0]
	}
	return fmt.Sprintf("directory rejected request (status %d)", e.Status)
}
