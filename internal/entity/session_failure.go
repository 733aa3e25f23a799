package entity

import "time"

// SessionFailure mirrors the `session_failures` PostgreSQL table schema.
type SessionFailure struct {
	ID                   int64
	Domain               string
	Profile              string
	ErrorType            string
	FailureReason        string
	LastAttemptTimestamp time.Time
	RetryCount           int
}
