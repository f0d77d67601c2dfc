package api

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnauthenticated = errors.New("backend rejected session credentials")
	ErrNotFound        = errors.New("backend resource not found")
	ErrUnavailable     = errors.New("backend unavailable")
)

// Error is a non-2xx answer from the backend.
type Error struct {
	StatusCode int
	Message    string
	Fields     map[string][]string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned %d", e.StatusCode)
	}
	return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Message)
}

func (e *Error) Is(target error) bool {
	switch target {
	case ErrUnauthenticated:
		return e.StatusCode == http.StatusUnauthorized
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrUnavailable:
		return e.StatusCode >= http.StatusInternalServerError
	}
	return false
}

// clientSide reports whether the backend blamed the request rather than itself.
func (e *Error) clientSide() bool {
	return e.StatusCode < http.StatusInternalServerError
}
