package usecase

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/user/trackscope/internal/entity"
	"github.com/user/trackscope/internal/repository"
	"github.com/user/trackscope/pkg/config"
	"github.com/user/trackscope/pkg/metrics"
)

// CrawlScheduler runs sessions for many (domain, profile) pairs. At most
// max_sessions sessions hold a backend slot at once, and sessions sharing a
// profile never overlap because they share one browser profile.
type CrawlScheduler struct {
	runner   SessionRunner
	results  repository.ResultStore
	profiles map[string]entity.Profile
	cfg      config.CrawlConfig
	logger   *zap.Logger
	metrics  *metrics.Metrics

	failures      repository.FailureRepository
	completion    repository.CompletionRepository
	completionTTL time.Duration

	sem          *semaphore.Weighted
	mu           sync.Mutex
	profileLocks map[string]*sync.Mutex
	now          func() time.Time
}

// SchedulerOption configures optional collaborators.
type SchedulerOption func(*CrawlScheduler)

// WithFailureRepository records failed sessions and clears them on success.
func WithFailureRepository(r repository.FailureRepository) SchedulerOption {
	return func(s *CrawlScheduler) { s.failures = r }
}

// WithCompletionMarkers refreshes the dedup marker the job manager checks
// after every successful session.
func WithCompletionMarkers(r repository.CompletionRepository, ttl time.Duration) SchedulerOption {
	return func(s *CrawlScheduler) {
		s.completion = r
		s.completionTTL = ttl
	}
}

func NewCrawlScheduler(
	runner SessionRunner,
	results repository.ResultStore,
	profiles []entity.Profile,
	cfg config.CrawlConfig,
	logger *zap.Logger,
	m *metrics.Metrics,
	opts ...SchedulerOption,
) *CrawlScheduler {
	maxSessions := cfg.MaxSessions
	if maxSessions <= 0 {
		maxSessions = 1
	}
	byName := make(map[string]entity.Profile, len(profiles))
	for _, p := range profiles {
		byName[p.Name] = p
	}
	s := &CrawlScheduler{
		runner:       runner,
		results:      results,
		profiles:     byName,
		cfg:          cfg,
		logger:       logger.Named("scheduler"),
		metrics:      m,
		sem:          semaphore.NewWeighted(int64(maxSessions)),
		profileLocks: make(map[string]*sync.Mutex),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Jobs expands domains into one job per profile, in profile-major order.
func Jobs(domains []string, profiles []entity.Profile) []entity.CrawlJob {
	jobs := make([]entity.CrawlJob, 0, len(domains)*len(profiles))
	for _, p := range profiles {
		for rank, d := range domains {
			jobs = append(jobs, entity.CrawlJob{
				ID:      ulid.Make().String(),
				Domain:  d,
				Rank:    rank + 1,
				Profile: p.Name,
			})
		}
	}
	return jobs
}

// RunBatch runs every job and reports per-profile outcomes. A failing job
// never stops the batch; the error return is reserved for cancellation.
func (s *CrawlScheduler) RunBatch(ctx context.Context, jobs []entity.CrawlJob) (*entity.BatchReport, error) {
	report := &entity.BatchReport{
		RunID:     ulid.Make().String(),
		StartedAt: s.now().UTC(),
		Profiles:  make(map[string]*entity.ProfileCounts),
	}
	log := s.logger.With(zap.String("run_id", report.RunID))
	log.Info("Starting batch", zap.Int("jobs", len(jobs)))

	if s.cfg.ShuffleDomains {
		jobs = append([]entity.CrawlJob(nil), jobs...)
		rand.Shuffle(len(jobs), func(i, j int) { jobs[i], jobs[j] = jobs[j], jobs[i] })
	}

	var (
		g  errgroup.Group
		mu sync.Mutex
	)
	for _, job := range jobs {
		g.Go(func() error {
			res := s.RunJob(ctx, job)
			mu.Lock()
			report.Add(res)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	report.FinishedAt = s.now().UTC()
	totals := report.Totals()
	log.Info("Batch finished",
		zap.Int("succeeded", totals.Succeeded),
		zap.Int("failed", totals.Failed),
		zap.Int("skipped", totals.Skipped),
		zap.Duration("elapsed", report.FinishedAt.Sub(report.StartedAt)))
	return report, ctx.Err()
}

// RunJob runs a single session, waiting for its profile and a free slot.
func (s *CrawlScheduler) RunJob(ctx context.Context, job entity.CrawlJob) entity.SessionResult {
	res := entity.SessionResult{Domain: job.Domain, Profile: job.Profile}
	log := s.logger.With(zap.String("domain", job.Domain), zap.String("profile", job.Profile))

	profile, ok := s.profiles[job.Profile]
	if !ok {
		return s.finish(log, res, entity.SessionFailed, fmt.Errorf("unknown profile %q", job.Profile))
	}

	if skip, reason := s.shouldSkip(ctx, job); skip {
		log.Info("Skipping session", zap.String("reason", reason))
		res.Reason = reason
		res.Status = entity.SessionSkipped
		s.observe(res, nil)
		return res
	}

	lock := s.profileLock(job.Profile)
	lock.Lock()
	defer lock.Unlock()

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return s.finish(log, res, entity.SessionFailed, err)
	}
	defer s.sem.Release(1)
	if s.metrics != nil {
		s.metrics.ActiveSessions.Inc()
		defer s.metrics.ActiveSessions.Dec()
	}

	start := s.now()
	doc, err := s.runner.Run(ctx, job.Domain, profile)
	res.Duration = s.now().Sub(start)
	if s.metrics != nil {
		s.metrics.SessionDuration.WithLabelValues(job.Profile).Observe(res.Duration.Seconds())
	}

	switch {
	case errors.Is(err, repository.ErrMissingPrerequisite):
		return s.finish(log, res, entity.SessionSkipped, err)
	case err != nil:
		s.recordFailure(ctx, log, job, err)
		return s.finish(log, res, entity.SessionFailed, err)
	}

	doc.Rank = job.Rank
	if err := s.results.Save(ctx, doc); err != nil {
		err = fmt.Errorf("save result: %w", err)
		s.recordFailure(ctx, log, job, err)
		return s.finish(log, res, entity.SessionFailed, err)
	}
	s.recordSuccess(ctx, log, job)
	return s.finish(log, res, entity.SessionSucceeded, nil)
}

func (s *CrawlScheduler) shouldSkip(ctx context.Context, job entity.CrawlJob) (bool, string) {
	if job.Force {
		return false, ""
	}
	if s.cfg.SkipExisting {
		exists, err := s.results.Exists(ctx, job.Profile, job.Domain)
		if err != nil {
			s.logger.Warn("existence check failed", zap.String("domain", job.Domain), zap.Error(err))
		} else if exists {
			return true, "result exists"
		}
	}
	return false, ""
}

func (s *CrawlScheduler) recordFailure(ctx context.Context, log *zap.Logger, job entity.CrawlJob, sessionErr error) {
	if s.failures == nil {
		return
	}
	failure := &entity.SessionFailure{
		Domain:               job.Domain,
		Profile:              job.Profile,
		ErrorType:            errorType(sessionErr),
		FailureReason:        sessionErr.Error(),
		LastAttemptTimestamp: s.now().UTC(),
	}
	if err := s.failures.SaveOrUpdate(context.WithoutCancel(ctx), failure); err != nil {
		log.Error("Failed to record session failure", zap.Error(err))
	}
}

func (s *CrawlScheduler) recordSuccess(ctx context.Context, log *zap.Logger, job entity.CrawlJob) {
	if s.failures != nil {
		if err := s.failures.Delete(ctx, job.Profile, job.Domain); err != nil && !errors.Is(err, repository.ErrNotFound) {
			log.Warn("Failed to clear session failure", zap.Error(err))
		}
	}
	if s.completion != nil {
		if err := s.completion.MarkCompleted(ctx, job.Profile, job.Domain, s.completionTTL); err != nil {
			log.Warn("Failed to mark session completed", zap.Error(err))
		}
	}
}

func (s *CrawlScheduler) finish(log *zap.Logger, res entity.SessionResult, status entity.SessionStatus, err error) entity.SessionResult {
	res.Status = status
	if err != nil {
		res.Reason = err.Error()
	}
	switch status {
	case entity.SessionSucceeded:
		log.Info("Session succeeded", zap.Duration("duration", res.Duration))
	case entity.SessionSkipped:
		log.Warn("Session skipped", zap.Error(err))
	default:
		log.Error("Session failed", zap.Error(err))
	}
	s.observe(res, err)
	return res
}

func (s *CrawlScheduler) observe(res entity.SessionResult, err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.SessionsTotal.WithLabelValues(res.Profile, string(res.Status), errorType(err)).Inc()
}

func (s *CrawlScheduler) profileLock(name string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.profileLocks[name]
	if !ok {
		l = &sync.Mutex{}
		s.profileLocks[name] = l
	}
	return l
}
