package goAuthClient

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrValidation reports input rejected locally or a 400/422 answer from the API.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidCredentials reports a login answered with 401.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrConflict reports a 409 answer (username or email already registered).
	ErrConflict = errors.New("conflict")
	// ErrUnauthorized reports a 401 answer. The session has been cleared when it is returned.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden reports a 403 answer. The session is left untouched.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound reports a 404 answer.
	ErrNotFound = errors.New("not found")
	// ErrServer reports a 5xx answer.
	ErrServer = errors.New("server error")
	// ErrUnexpectedStatus reports a non-2xx answer with no dedicated kind.
	ErrUnexpectedStatus = errors.New("unexpected status")
	// ErrNetwork reports a request that produced no response.
	ErrNetwork = errors.New("network error")
	// ErrMalformedResponse reports a 2xx answer whose body could not be decoded.
	ErrMalformedResponse = errors.New("malformed response")
	// ErrSessionUnavailable reports a session store read or write failure.
	ErrSessionUnavailable = errors.New("session store unavailable")
	// ErrClientNotReady is returned by methods called on a nil or unbuilt Client.
	ErrClientNotReady = errors.New("client not initialized")
)

// APIError is a non-2xx answer from the remote API.
//
// It unwraps to the sentinel for its status class, so callers test it with
// errors.Is(err, ErrForbidden) and read the detail with errors.As.
type APIError struct {
	Method  string
	Path    string
	Status  int
	Message string
	Err     error

	also error
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s %s: %d", e.Method, e.Path, e.Status)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, e.Message)
}

// Unwrap returns the status kind and, for login failures, ErrInvalidCredentials.
func (e *APIError) Unwrap() []error {
	if e.also == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.also}
}

// ErrorMessage returns the server-provided message carried by err, or err.Error()
// when err is not an APIError.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}

func kindForStatus(status int) error {
	switch {
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity:
		return ErrValidation
	case status == http.StatusUnauthorized:
		return ErrUnauthorized
	case status == http.StatusForbidden:
		return ErrForbidden
	case status == http.StatusNotFound:
		return ErrNotFound
	case status == http.StatusConflict:
		return ErrConflict
	case status >= 500 && status <= 599:
		return ErrServer
	default:
		return ErrUnexpectedStatus
	}
}
