package client

import (
	"encoding/json"
	"errors"
	"fmt"
)

// HTTPError represents a non-2xx HTTP response from the API.
type HTTPError struct {
	StatusCode int
	Message    string
	// Errors is the raw "errors" member of the response body, if any.
	Errors json.RawMessage
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Display())
}

// Display returns the text shown to a user: the server message, else the
// errors payload as JSON text, else the bare status.
func (e *HTTPError) Display() string {
	if e.Message != "" {
		return e.Message
	}
	if len(e.Errors) > 0 && string(e.Errors) != "null" {
		return string(e.Errors)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// FieldErrors decodes Errors as a field -> messages map. It returns nil when
// the payload is absent or has another shape.
func (e *HTTPError) FieldErrors() map[string][]string {
	if len(e.Errors) == 0 {
		return nil
	}
	var fields map[string][]string
	if err := json.Unmarshal(e.Errors, &fields); err != nil {
		return nil
	}
	return fields
}

// IsStatus returns true if err (or any wrapped error) is an HTTPError with the given status code.
func IsStatus(err error, code int) bool {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == code
	}
	return false
}

// DisplayMessage returns the user-facing text for err, or fallback when err
// is not an HTTPError.
func DisplayMessage(err error, fallback string) string {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Display()
	}
	return fallback
}
