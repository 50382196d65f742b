package domain

import (
	"errors"
	"fmt"
)

type FeedErrorKind string

const (
	FeedUnreachable       FeedErrorKind = "unreachable"
	FeedHTTPStatus        FeedErrorKind = "http_status"
	FeedMalformedResponse FeedErrorKind = "malformed_response"
)

// FeedError reports why a feed produced no snapshot this cycle.
type FeedError struct {
	Feed       string
	Kind       FeedErrorKind
	StatusCode int // set for FeedHTTPStatus
	Err        error
}

func (e *FeedError) Error() string {
	switch e.Kind {
	case FeedHTTPStatus:
		return fmt.Sprintf("%s feed: http status %d", e.Feed, e.StatusCode)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s feed: %s: %v", e.Feed, e.Kind, e.Err)
		}
		return fmt.Sprintf("%s feed: %s", e.Feed, e.Kind)
	}
}

func (e *FeedError) Unwrap() error { return e.Err }

// Is matches another *FeedError by kind so callers can write
// errors.Is(err, &FeedError{Kind: FeedUnreachable}).
func (e *FeedError) Is(target error) bool {
	var t *FeedError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && (t.Feed == "" || t.Feed == e.Feed)
}

// CycleError wraps any unexpected failure that aborted one poll cycle.
type CycleError struct {
	CycleID string
	Err     error
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cycle %s: %v", e.CycleID, e.Err)
}

func (e *CycleError) Unwrap() error { return e.Err }
