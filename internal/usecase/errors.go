package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/user/trackscope/internal/repository"
)

// errorType maps an error to the label used in metrics and failure records.
func errorType(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, repository.ErrNavigationTimeout), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, repository.ErrNavigationFailed):
		return "navigation"
	case errors.Is(err, repository.ErrContextClosed), errors.Is(err, repository.ErrInterceptionRace):
		return "context_closed"
	case errors.Is(err, repository.ErrConcurrencyLimitExceeded):
		return "concurrency_limit"
	case errors.Is(err, repository.ErrMissingPrerequisite):
		return "missing_prerequisite"
	case errors.Is(err, repository.ErrCorruptArtifact):
		return "corrupt_artifact"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "unknown"
	}
}

func isTeardownRace(err error) bool {
	return errors.Is(err, repository.ErrContextClosed) ||
		errors.Is(err, repository.ErrInterceptionRace) ||
		errors.Is(err, context.Canceled)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
