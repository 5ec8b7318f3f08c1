package objects

import (
	"errors"
	"fmt"
)

// Public failure reasons. These are the only parts of a store failure
// that reach a client.
const (
	ReasonUpstream           = "upstream failure"
	ReasonNoContents         = "no contents"
	ReasonMissingContentType = "missing content type"
	ReasonTooLarge           = "object too large"
	ReasonReadBody           = "failed to read object body"
)

// ErrMissingPath is returned by Get for an empty path. The store is never called.
var ErrMissingPath = errors.New("missing path")

// ListError is a failed listing. Err holds the raw cause for logs only.
type ListError struct {
	Prefix string
	Reason string
	Err    error
}

func (e *ListError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("list objects %q: %s: %v", e.Prefix, e.Reason, e.Err)
	}
	return fmt.Sprintf("list objects %q: %s", e.Prefix, e.Reason)
}

func (e *ListError) Unwrap() error { return e.Err }

// PublicReason is the message safe to return to a client.
func (e *ListError) PublicReason() string { return e.Reason }

// GetError is a failed object read. Err holds the raw cause for logs only.
type GetError struct {
	Path   string
	Reason string
	Err    error
}

func (e *GetError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("get object %q: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("get object %q: %s", e.Path, e.Reason)
}

func (e *GetError) Unwrap() error { return e.Err }

// PublicReason is the message safe to return to a client.
func (e *GetError) PublicReason() string { return e.Reason }
