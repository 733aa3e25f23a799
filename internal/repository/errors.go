package repository

import "errors"

var (
	// ErrNavigationFailed covers DNS failures, blocked requests and error pages.
	ErrNavigationFailed = errors.New("navigation failed")
	// ErrNavigationTimeout is returned when a navigation exceeds its deadline.
	ErrNavigationTimeout = errors.New("navigation timed out")
	// ErrContextClosed is returned by backend calls made after the page or
	// browsing context went away. Observers treat it as an expected race.
	ErrContextClosed = errors.New("browsing context closed")
	// ErrInterceptionRace wraps failures of fetch-and-refulfill on a paused request.
	ErrInterceptionRace = errors.New("request interception race")
	// ErrConcurrencyLimitExceeded is returned when the backend rejects a new session.
	ErrConcurrencyLimitExceeded = errors.New("backend concurrency limit exceeded")
	// ErrCorruptArtifact marks a stored document that fails the validity rule.
	ErrCorruptArtifact = errors.New("corrupt artifact")
	// ErrMissingPrerequisite is returned when a domain has no subpage list.
	ErrMissingPrerequisite = errors.New("missing prerequisite")
	// ErrNotFound is returned by stores for unknown keys.
	ErrNotFound = errors.New("not found")
)
