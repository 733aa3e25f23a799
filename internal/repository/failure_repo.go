package repository

//go:generate mockgen -source=failure_repo.go -destination=mocks/failure_mocks.go -package=mocks FailureRepository

import (
	"context"

	"github.com/user/trackscope/internal/entity"
)

// FailureRepository keeps track of sessions that could not complete.
type FailureRepository interface {
	// SaveOrUpdate creates or updates a failure record, incrementing its retry count.
	SaveOrUpdate(ctx context.Context, failure *entity.SessionFailure) error
	Find(ctx context.Context, profile, domain string) (*entity.SessionFailure, error)
	// Delete removes a failure record, typically after a successful session.
	Delete(ctx context.Context, profile, domain string) error
}
