package store

import "errors"

// Notifier surfaces transient user-visible notifications. The UI provides
// the toast bar implementation; tests provide a recorder.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// Validation errors rejected before any network call.
var (
	ErrNoRecipient  = errors.New("no recipient selected")
	ErrEmptyMessage = errors.New("nothing to send")
)
