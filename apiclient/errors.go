package apiclient

import (
	"errors"
	"fmt"
	"net/http"
)

// NetworkError means the request produced no response at all.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network failure: %s", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ApplicationError is a non-2xx response. Message is the server supplied
// message, if the body carried one.
type ApplicationError struct {
	Op      string
	Status  int
	Message string
}

func (e *ApplicationError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.Status, e.Message)
}

const GenericFailureMessage = "Error connecting to the server."

// UserMessage renders err for the operator: the server message verbatim when
// there is one, a generic fallback otherwise.
func UserMessage(err error) string {
	var appErr *ApplicationError
	if errors.As(err, &appErr) {
		if appErr.Message != "" {
			return "Error: " + appErr.Message
		}
		return fmt.Sprintf("Error: Request failed with status code %d", appErr.Status)
	}
	return GenericFailureMessage
}

// StatusCode returns the HTTP status of an *ApplicationError, or 0.
func StatusCode(err error) int {
	var appErr *ApplicationError
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	return 0
}

func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}
