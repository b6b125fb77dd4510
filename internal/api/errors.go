package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

var (
	// ErrNetwork indicates no response was received (DNS, refused, timeout).
	ErrNetwork = errors.New("network error")
	// ErrUnauthorized matches any *Error with status 401.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrConflict matches any *Error with status 409.
	ErrConflict = errors.New("conflict")
)

// FieldError is one entry of a backend validation error list.
type FieldError struct {
	Field   string
	Message string
}

// Error is a non-2xx (or success=false) response from the backend.
type Error struct {
	StatusCode     int
	Message        string
	FieldErrors    []FieldError
	SessionExpired bool // Set when a 401 cleared the session
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, e.Message)
}

// Is lets errors.Is match status-class sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrConflict:
		return e.StatusCode == http.StatusConflict
	}
	return false
}

// newError builds an *Error from a status code and (possibly empty) envelope.
// errors[] entries may be objects ({field|path|param, message|msg}) or plain strings.
func newError(status int, envelope gjson.Result) *Error {
	e := &Error{
		StatusCode: status,
		Message:    strings.TrimSpace(envelope.Get("message").String()),
	}
	if e.Message == "" {
		e.Message = strings.TrimSpace(envelope.Get("error").String())
	}
	if e.Message == "" && status >= 400 {
		e.Message = http.StatusText(status)
	}

	envelope.Get("errors").ForEach(func(_, item gjson.Result) bool {
		if item.Type == gjson.String {
			e.FieldErrors = append(e.FieldErrors, FieldError{Message: item.String()})
			return true
		}
		e.FieldErrors = append(e.FieldErrors, FieldError{
			Field:   firstString(item, "field", "path", "param"),
			Message: firstString(item, "message", "msg"),
		})
		return true
	})
	return e
}

// IsSessionExpired reports whether err is a 401 that ended the session.
func IsSessionExpired(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.SessionExpired
}

// Message extracts a user-facing message from err.
func Message(err error) string {
	var apiErr *Error
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNetwork):
		return "Unable to reach the server. Please check your connection and try again."
	case errors.As(err, &apiErr):
		if apiErr.StatusCode >= 500 {
			return "Something went wrong on the server. Please try again."
		}
		return apiErr.Message
	default:
		return err.Error()
	}
}
