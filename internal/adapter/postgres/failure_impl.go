package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/user/trackscope/internal/entity"
	"github.com/user/trackscope/internal/repository"
)

// FailureRepoImpl records failed sessions in the session_failures table.
type FailureRepoImpl struct {
	db DBTX
}

func NewFailureRepo(db DBTX) *FailureRepoImpl {
	return &FailureRepoImpl{db: db}
}

// SaveOrUpdate creates or updates a failure record.
// It increments the retry_count on conflict.
func (r *FailureRepoImpl) SaveOrUpdate(ctx context.Context, failure *entity.SessionFailure) error {
	query := `
		INSERT INTO session_failures (profile, domain, error_type, failure_reason, last_attempt_timestamp, retry_count)
		VALUES ($1, $2, $3, $4, $5, 1)
		ON CONFLICT (profile, domain) DO UPDATE SET
			error_type = EXCLUDED.error_type,
			failure_reason = EXCLUDED.failure_reason,
			last_attempt_timestamp = EXCLUDED.last_attempt_timestamp,
			retry_count = session_failures.retry_count + 1;
	`
	_, err := r.db.Exec(ctx, query,
		failure.Profile,
		failure.Domain,
		failure.ErrorType,
		failure.FailureReason,
		failure.LastAttemptTimestamp,
	)
	return err
}

func (r *FailureRepoImpl) Find(ctx context.Context, profile, domain string) (*entity.SessionFailure, error) {
	query := `
		SELECT id, profile, domain, error_type, failure_reason, last_attempt_timestamp, retry_count
		FROM session_failures
		WHERE profile = $1 AND domain = $2;
	`
	var f entity.SessionFailure
	err := r.db.QueryRow(ctx, query, profile, domain).Scan(
		&f.ID,
		&f.Profile,
		&f.Domain,
		&f.ErrorType,
		&f.FailureReason,
		&f.LastAttemptTimestamp,
		&f.RetryCount,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// Delete removes a failure record, typically after a successful session.
func (r *FailureRepoImpl) Delete(ctx context.Context, profile, domain string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM session_failures WHERE profile = $1 AND domain = $2;`, profile, domain)
	return err
}
