package apiclient

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

var (
	// ErrUnauthorized matches any 401 response.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound matches any 404 response.
	ErrNotFound = errors.New("not found")
)

// StatusError is returned for every non-2xx response.
type StatusError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s failed with status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s failed with status %d: %s", e.Op, e.StatusCode, e.Message)
}

func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

// errorMessage pulls a human-readable message out of an error body. The
// service answers with {"detail": ...}; the sandbox with {"error": ...}.
func errorMessage(body []byte) string {
	for _, path := range []string{"detail", "error", "message"} {
		if v := gjson.GetBytes(body, path); v.Exists() {
			return v.String()
		}
	}
	return strings.TrimSpace(string(body))
}
