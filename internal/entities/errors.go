package entities

import "errors"

var (
	// ErrInvariantViolation marks an inconsistent project state, e.g. an
	// integration candidate whose build never started. Inconsistent states are
	// programmer errors; the logic worker treats this error as fatal.
	ErrInvariantViolation = errors.New("project state invariant violated")
	// ErrStateCorrupt signals an unreadable persisted project snapshot.
	ErrStateCorrupt = errors.New("project state corrupt")
)
