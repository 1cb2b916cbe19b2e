package model

import (
	"errors"
	"fmt"
)

// ErrEntryRejected marks a single raw entry that produced no record. Siblings
// in the same page are unaffected.
var ErrEntryRejected = errors.New("entry rejected")

// Reject returns an error wrapping ErrEntryRejected with the given reason.
func Reject(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrEntryRejected, fmt.Sprintf(format, args...))
}

// HTTPError wraps a non-success HTTP status from a source.
type HTTPError struct {
	StatusCode int
	Err        error
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("HTTP %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// FetchError is a network, browser or parse fault for one page. It stops
// pagination for that source only.
type FetchError struct {
	Source string
	Page   int
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s page %d: %v", e.Source, e.Page, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// PublishError means a digest was not accepted by the channel.
type PublishError struct {
	Err error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish: %v", e.Err)
}

func (e *PublishError) Unwrap() error {
	return e.Err
}

// DeleteError is a best-effort cleanup miss. It is terminal for the message.
type DeleteError struct {
	Handle MessageHandle
	Err    error
}

func (e *DeleteError) Error() string {
	return fmt.Sprintf("delete %s/%s: %v", e.Handle.Channel, e.Handle.ID, e.Err)
}

func (e *DeleteError) Unwrap() error {
	return e.Err
}

// StartupError aborts the whole process before any fetch happens.
type StartupError struct {
	Err error
}

func (e *StartupError) Error() string {
	return fmt.Sprintf("startup: %v", e.Err)
}

func (e *StartupError) Unwrap() error {
	return e.Err
}
