package domain

import (
	"errors"
	"strings"
)

// Sentinel errors for domain operations
var (
	// ErrNetworkFailure indicates a request was rejected or returned a non-success response
	ErrNetworkFailure = errors.New("network request failed")

	// ErrNotFound indicates the requested manga, chapter or translator does not exist
	ErrNotFound = errors.New("not found")

	// ErrMalformedCache indicates the persisted cache could not be decoded
	ErrMalformedCache = errors.New("persisted cache is malformed")

	// ErrMalformedResponse indicates the server returned an unexpected shape
	ErrMalformedResponse = errors.New("malformed server response")

	// ErrAuthFailed indicates authentication failed or the session could not be refreshed
	ErrAuthFailed = errors.New("authentication failed")

	// ErrNotSignedIn indicates an operation needs a signed-in user
	ErrNotSignedIn = errors.New("not signed in")

	// ErrInvalidInput indicates a request was rejected before it was sent
	ErrInvalidInput = errors.New("invalid input")

	// ErrPageOutOfRange indicates a page number outside the loaded chapter
	ErrPageOutOfRange = errors.New("page out of range")
)

// APIError is a non-success answer from the backend
type APIError struct {
	Status   int
	Messages []string
	Err      error
}

func (e *APIError) Error() string {
	msg := e.Unwrap().Error()
	if len(e.Messages) > 0 {
		msg += ": " + strings.Join(e.Messages, "; ")
	}
	return msg
}

// Unwrap returns the sentinel the status maps to
func (e *APIError) Unwrap() error {
	if e.Err == nil {
		return ErrNetworkFailure
	}
	return e.Err
}
