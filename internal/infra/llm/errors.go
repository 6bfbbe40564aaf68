package llm

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyModelName is returned by NewClient for a blank model name.
	ErrEmptyModelName = errors.New("model name cannot be empty")

	// ErrEmptyMessages is returned by ChatCompletion for an empty message list.
	ErrEmptyMessages = errors.New("messages cannot be empty")

	// ErrInvalidProvider is returned when the provider is unknown or a
	// required credential is missing from the configuration.
	ErrInvalidProvider = errors.New("invalid provider configuration")
)

// RequestError wraps a transport-level failure (connection refused, DNS,
// context cancellation) — the request never produced an HTTP response.
type RequestError struct {
	Err error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request failed: %v", e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// APIError reports a response the provider itself flagged as an error,
// either a non-2xx status or an explicit error envelope.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error: status %d - %s", e.Status, e.Body)
}

// ParseError reports a response body that does not match the provider's
// expected schema.
type ParseError struct {
	Provider Provider
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s response: %v", e.Provider, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
