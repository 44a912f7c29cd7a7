package wfclient

import (
	"errors"
	"fmt"
)

// APIError is a well-formed response carrying a non-zero code.
type APIError struct {
	Code int
	Msg  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Code, e.Msg)
}

// StatusError is an HTTP response outside the 2xx range.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return "http status " + e.Status
}

// Message returns the text the service attached to a failed call, or "" when
// the failure happened below the API layer.
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Msg
	}
	return ""
}
