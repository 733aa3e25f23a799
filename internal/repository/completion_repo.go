package repository

//go:generate mockgen -source=completion_repo.go -destination=mocks/completion_mocks.go -package=mocks CompletionRepository

import (
	"context"
	"time"
)

// CompletionRepository remembers recently crawled (domain, profile) pairs.
type CompletionRepository interface {
	MarkCompleted(ctx context.Context, profile, domain string, expiry time.Duration) error
	IsCompleted(ctx context.Context, profile, domain string) (bool, error)
	// Clear removes the marker, used for forced re-crawls.
	Clear(ctx context.Context, profile, domain string) error
}
