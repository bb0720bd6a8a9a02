package reconcile

import (
	"errors"
	"fmt"
)

var (
	// ErrNotAuthenticated means no viewer credential was available, or the
	// server rejected it. The caller should send the viewer to sign in.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrRequestFailed means the request did not succeed and the optimistic
	// change was rolled back.
	ErrRequestFailed = errors.New("request failed")

	ErrInvalidReaction = errors.New("reaction must be LIKE or DISLIKE")
)

// ConditionKind classifies a condition reported to the presentation layer.
type ConditionKind string

const (
	NotAuthenticated ConditionKind = "NotAuthenticated"
	RequestFailed    ConditionKind = "RequestFailed"
)

// Event is emitted on the reconciler's event channel for UI feedback.
type Event struct {
	FeedID int64
	Kind   ConditionKind
	Err    error
}

// ConditionError is returned by the toggle operations. It matches
// ErrNotAuthenticated or ErrRequestFailed with errors.Is and unwraps to the
// underlying cause.
type ConditionError struct {
	FeedID int64
	Kind   ConditionKind
	Err    error
}

func (e *ConditionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("feed %d: %s", e.FeedID, e.Kind)
	}
	return fmt.Sprintf("feed %d: %s: %v", e.FeedID, e.Kind, e.Err)
}

func (e *ConditionError) Unwrap() error { return e.Err }

func (e *ConditionError) Is(target error) bool {
	switch target {
	case ErrNotAuthenticated:
		return e.Kind == NotAuthenticated
	case ErrRequestFailed:
		return e.Kind == RequestFailed
	}
	return false
}

func (e *ConditionError) event() Event {
	return Event{FeedID: e.FeedID, Kind: e.Kind, Err: e.Err}
}
