package hub

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrStaticDocumentUnreadable is the only fatal resolution failure.
	ErrStaticDocumentUnreadable = errors.New("static document unreadable")

	// ErrRemoteMergeIncomplete means one of the three remote reads came back
	// empty. Resolution falls back to the static document.
	ErrRemoteMergeIncomplete = errors.New("remote merge incomplete")

	// ErrRemoteTransport wraps session or remote store failures. Resolution
	// falls back to the static document.
	ErrRemoteTransport = errors.New("remote transport error")

	// ErrSaveFailed means the remote store rejected a save. Nothing was
	// written and the published snapshot is untouched.
	ErrSaveFailed = errors.New("save failed")

	// ErrRefreshAfterSave means the save was committed but the refetch failed.
	ErrRefreshAfterSave = errors.New("saved, but refresh failed")
)

// ConfigLoadError is returned by Resolve when no snapshot can be produced.
type ConfigLoadError struct {
	Reason string
	Err    error
}

func (e *ConfigLoadError) Error() string {
	if e.Err == nil {
		return "config load: " + e.Reason
	}
	return fmt.Sprintf("config load: %s: %v", e.Reason, e.Err)
}

func (e *ConfigLoadError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrStaticDocumentUnreadable}
	}
	return []error{ErrStaticDocumentUnreadable, e.Err}
}

// SaveError carries the store failure of an admin save.
type SaveError struct {
	Err error
}

func (e *SaveError) Error() string {
	return fmt.Sprintf("save failed: %v", e.Err)
}

func (e *SaveError) Unwrap() []error {
	return []error{ErrSaveFailed, e.Err}
}

// ValidationError lists what is wrong with an edit buffer.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid configuration: " + strings.Join(e.Problems, "; ")
}
