package usecase

//go:generate mockgen -source=job_manager.go -destination=mocks/job_manager_mocks.go -package=mocks JobManager

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/user/trackscope/internal/entity"
	"github.com/user/trackscope/internal/repository"
)

var (
	ErrRecentlyCrawled = errors.New("domain has been crawled recently for this profile and force is false")
	ErrUnknownProfile  = errors.New("unknown profile")
)

// pendingExpiry bounds how long a queued job counts as pending.
const pendingExpiry = 48 * time.Hour

// JobManager defines the interface for submitting and checking crawl jobs.
type JobManager interface {
	Submit(ctx context.Context, domain, profile string, force bool) (string, error)
	GetStatus(ctx context.Context, domain, profile string) (*entity.JobStatus, error)
}

type jobManagerUseCase struct {
	queue      repository.JobQueue
	completion repository.CompletionRepository
	results    repository.ResultStore
	failures   repository.FailureRepository
	profiles   map[string]struct{}
	logger     *zap.Logger
}

// NewJobManager creates a new JobManager use case. failures may be nil.
func NewJobManager(
	queue repository.JobQueue,
	completion repository.CompletionRepository,
	results repository.ResultStore,
	failures repository.FailureRepository,
	profiles []entity.Profile,
	logger *zap.Logger,
) JobManager {
	names := make(map[string]struct{}, len(profiles))
	for _, p := range profiles {
		names[p.Name] = struct{}{}
	}
	return &jobManagerUseCase{
		queue:      queue,
		completion: completion,
		results:    results,
		failures:   failures,
		profiles:   names,
		logger:     logger.Named("jobs"),
	}
}

func (uc *jobManagerUseCase) Submit(ctx context.Context, domain, profile string, force bool) (string, error) {
	if _, ok := uc.profiles[profile]; !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownProfile, profile)
	}
	job := entity.CrawlJob{
		ID:          ulid.Make().String(),
		Domain:      domain,
		Profile:     profile,
		Force:       force,
		SubmittedAt: time.Now().UTC(),
	}

	if force {
		if err := uc.completion.Clear(ctx, profile, domain); err != nil {
			uc.logger.Warn("Failed to clear completion marker for forced crawl", zap.String("domain", domain), zap.Error(err))
		}
	} else {
		done, err := uc.completion.IsCompleted(ctx, profile, domain)
		if err != nil {
			return "", err
		}
		if done {
			return job.ID, ErrRecentlyCrawled
		}
	}

	if err := uc.queue.Push(ctx, job); err != nil {
		return "", err
	}

	// The marker also keeps a second submission from queueing the pair again
	// before the first one runs.
	if err := uc.completion.MarkCompleted(ctx, profile, domain, pendingExpiry); err != nil {
		uc.logger.Error("Failed to mark job as queued", zap.String("domain", domain), zap.Error(err))
	}
	return job.ID, nil
}

func (uc *jobManagerUseCase) GetStatus(ctx context.Context, domain, profile string) (*entity.JobStatus, error) {
	status := &entity.JobStatus{Domain: domain, Profile: profile}

	doc, err := uc.results.Load(ctx, profile, domain)
	switch {
	case err == nil:
		ts := doc.Timestamp
		status.CurrentStatus = "completed"
		status.LastCrawlTimestamp = &ts
		return status, nil
	case errors.Is(err, repository.ErrCorruptArtifact):
		status.CurrentStatus = "failed"
		status.FailureReason = err.Error()
		return status, nil
	case !errors.Is(err, repository.ErrNotFound):
		uc.logger.Error("Error loading result", zap.String("domain", domain), zap.Error(err))
	}

	if uc.failures != nil {
		failure, err := uc.failures.Find(ctx, profile, domain)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			uc.logger.Error("Error finding session failure", zap.String("domain", domain), zap.Error(err))
		}
		if failure != nil {
			ts := failure.LastAttemptTimestamp
			status.CurrentStatus = "failed"
			status.FailureReason = failure.FailureReason
			status.RetryCount = failure.RetryCount
			status.LastCrawlTimestamp = &ts
			return status, nil
		}
	}

	pending, err := uc.completion.IsCompleted(ctx, profile, domain)
	if err != nil {
		return nil, err
	}
	if pending {
		status.CurrentStatus = "pending"
		return status, nil
	}
	status.CurrentStatus = "not_found"
	return status, nil
}
