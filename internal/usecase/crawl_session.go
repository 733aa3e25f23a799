package usecase

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/user/trackscope/internal/entity"
	"github.com/user/trackscope/internal/observer"
	"github.com/user/trackscope/internal/repository"
	"github.com/user/trackscope/pkg/config"
	"github.com/user/trackscope/pkg/metrics"
)

const (
	teardownTimeout = 15 * time.Second
	settleTimeout   = 5 * time.Second
)

// SessionRunner crawls one domain under one profile.
type SessionRunner interface {
	Run(ctx context.Context, domain string, profile entity.Profile) (*entity.ResultDocument, error)
}

// CrawlSession runs the configured number of sequential visits of a domain.
// Browser state is cleared before the first visit only, so identifiers set
// in one visit can be observed in the next.
type CrawlSession struct {
	backend   repository.BrowserBackend
	subpages  repository.SubpageRepository
	artifacts repository.ArtifactWriter
	cfg       config.CrawlConfig
	logger    *zap.Logger
	metrics   *metrics.Metrics

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

// NewCrawlSession creates a session runner. It holds no per-session state;
// observers are built fresh for every Run.
func NewCrawlSession(
	backend repository.BrowserBackend,
	subpages repository.SubpageRepository,
	artifacts repository.ArtifactWriter,
	cfg config.CrawlConfig,
	logger *zap.Logger,
	m *metrics.Metrics,
) *CrawlSession {
	if cfg.Visits <= 0 {
		cfg.Visits = 2
	}
	return &CrawlSession{
		backend:   backend,
		subpages:  subpages,
		artifacts: artifacts,
		cfg:       cfg,
		logger:    logger.Named("session"),
		metrics:   m,
		sleep:     sleepCtx,
		now:       time.Now,
	}
}

// sessionRun is the state of a single Run.
type sessionRun struct {
	domain  string
	profile entity.Profile
	urls    []string
	log     *zap.Logger

	network     *observer.NetworkObserver
	fingerprint *observer.FingerprintObserver
	storage     *observer.StorageObserver
	banner      *observer.BannerObserver
}

func (r *sessionRun) observers() []observer.Observer {
	return []observer.Observer{r.network, r.fingerprint, r.storage, r.banner}
}

// Run crawls domain with profile. A domain without a subpage list yields an
// empty document and ErrMissingPrerequisite.
func (s *CrawlSession) Run(ctx context.Context, domain string, profile entity.Profile) (*entity.ResultDocument, error) {
	doc := entity.NewResultDocument(domain, profile.Name, s.now().UTC())
	log := s.logger.With(zap.String("domain", domain), zap.String("profile", profile.Name))

	list, err := s.subpages.Load(ctx, domain)
	if err != nil {
		return doc, fmt.Errorf("load subpages for %s: %w", domain, err)
	}
	urls := list.Pages
	if s.cfg.SubpageCount > 0 && len(urls) > s.cfg.SubpageCount {
		urls = urls[:s.cfg.SubpageCount]
	}
	if len(urls) == 0 {
		return doc, fmt.Errorf("no subpages for %s: %w", domain, repository.ErrMissingPrerequisite)
	}

	opts := []observer.Option{
		observer.WithLogger(log.Named("observer")),
		observer.WithMetrics(s.metrics),
		observer.WithVerbose(s.cfg.Verbose),
	}
	run := &sessionRun{
		domain:      domain,
		profile:     profile,
		urls:        urls,
		log:         log,
		network:     observer.NewNetworkObserver(domain, opts...),
		fingerprint: observer.NewFingerprintObserver(opts...),
		storage:     observer.NewStorageObserver(opts...),
		banner:      observer.NewBannerObserver(domain, profile.Name, s.artifacts, opts...),
	}

	visited := make(map[int][]entity.PageLoad, s.cfg.Visits)
	for visit := 0; visit < s.cfg.Visits; visit++ {
		log.Info("Starting visit", zap.Int("visit", visit), zap.Int("urls", len(urls)))
		loads, err := s.runVisit(ctx, run, visit)
		visited[visit] = loads
		if err != nil {
			s.assemble(doc, run, visited)
			return doc, fmt.Errorf("visit %d of %s: %w", visit, domain, err)
		}
	}

	s.assemble(doc, run, visited)
	return doc, nil
}

func (s *CrawlSession) assemble(doc *entity.ResultDocument, run *sessionRun, visited map[int][]entity.PageLoad) {
	for _, o := range run.observers() {
		o.Contribute(doc)
	}
	for visit, loads := range visited {
		key := entity.VisitKey(visit)
		entry, ok := doc.NetworkData[key]
		if !ok {
			entry = entity.VisitNetworkData{Requests: []entity.NetworkRequest{}, DomainsContacted: []string{}}
		}
		if loads == nil {
			loads = []entity.PageLoad{}
		}
		entry.VisitedURLs = loads
		doc.NetworkData[key] = entry
	}
}

// runVisit owns one browsing context from acquisition to close.
func (s *CrawlSession) runVisit(ctx context.Context, run *sessionRun, visit int) ([]entity.PageLoad, error) {
	bc, err := s.acquire(ctx, run)
	if err != nil {
		return nil, err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), teardownTimeout)
		defer cancel()
		if err := bc.Close(closeCtx); err != nil && !isTeardownRace(err) {
			run.log.Warn("closing browsing context", zap.Int("visit", visit), zap.Error(err))
		}
	}()

	if visit == 0 {
		if err := bc.ClearState(ctx, run.domain); err != nil {
			return nil, fmt.Errorf("clear browser state: %w", err)
		}
	}
	s.closeExtraTabs(ctx, bc, run)

	var unsubs []repository.Unsubscribe
	defer func() {
		for i := len(unsubs) - 1; i >= 0; i-- {
			unsubs[i]()
		}
	}()
	for _, o := range run.observers() {
		unsub, err := o.Attach(ctx, bc, visit)
		if err != nil {
			return nil, fmt.Errorf("attach observer: %w", err)
		}
		unsubs = append(unsubs, unsub)
	}

	var monitor *tabMonitor
	if run.profile.RequiresTabMonitoring() && s.cfg.TabMonitorInterval > 0 {
		monitor = startTabMonitor(ctx, bc, s.cfg.TabMonitorInterval, s.cfg.TabMonitorMaxErrors, run.log.Named("tabs"))
	}

	loads, visitErr := s.visitPages(ctx, bc, run, visit)

	if monitor != nil {
		monitor.Stop()
		if closed, errs := monitor.stats(); closed > 0 || errs > 0 {
			run.log.Debug("tab monitor stopped", zap.Int("closed", closed), zap.Int("errors", errs))
		}
	}
	flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), teardownTimeout)
	defer cancel()
	settleCtx, cancelSettle := context.WithTimeout(flushCtx, settleTimeout)
	if err := bc.Settle(settleCtx); err != nil && !isTeardownRace(err) {
		run.log.Warn("waiting for pending browser events", zap.Int("visit", visit), zap.Error(err))
	}
	cancelSettle()
	for _, o := range run.observers() {
		if err := o.Flush(flushCtx, bc, visit); err != nil && !isTeardownRace(err) {
			run.log.Warn("flushing observer", zap.Int("visit", visit), zap.Error(err))
		}
	}
	return loads, visitErr
}

// acquire opens a browsing context, retrying with linear backoff while the
// backend reports its session limit.
func (s *CrawlSession) acquire(ctx context.Context, run *sessionRun) (repository.BrowsingContext, error) {
	attempts := max(s.cfg.AcquireAttempts, 1)
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		bc, err := s.backend.Open(ctx, run.profile)
		if err == nil {
			return bc, nil
		}
		if !errors.Is(err, repository.ErrConcurrencyLimitExceeded) {
			return nil, fmt.Errorf("open browsing context: %w", err)
		}
		lastErr = err
		if attempt == attempts {
			break
		}
		wait := s.cfg.AcquireBackoff * time.Duration(attempt)
		run.log.Warn("Backend session limit reached, retrying",
			zap.Int("attempt", attempt), zap.Duration("wait", wait))
		if err := s.sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("open browsing context after %d attempts: %w", attempts, lastErr)
}

func (s *CrawlSession) visitPages(ctx context.Context, bc repository.BrowsingContext, run *sessionRun, visit int) ([]entity.PageLoad, error) {
	homepage := "https://" + run.domain
	run.fingerprint.SetPage(0)
	if _, err := s.navigate(ctx, bc, run, homepage, s.cfg.HomepageTimeout); err != nil {
		run.log.Debug("homepage failed", zap.Int("visit", visit), zap.Error(err))
	} else if err := s.sleep(ctx, s.cfg.HomepageSettle); err != nil {
		return nil, err
	}

	loads := make([]entity.PageLoad, 0, len(run.urls))
	for i, u := range run.urls {
		if err := ctx.Err(); err != nil {
			return loads, err
		}
		run.fingerprint.SetPage(i + 1)
		final, err := s.navigate(ctx, bc, run, u, s.cfg.NavigationTimeout)
		if err != nil {
			run.log.Info("Navigation failed", zap.Int("visit", visit), zap.String("url", u), zap.Error(err))
			loads = append(loads, entity.PageLoad{Original: u, Error: err.Error()})
			continue
		}
		loads = append(loads, entity.PageLoad{Original: u, Final: final})

		if i == 0 || s.cfg.StorageEveryPage {
			if _, err := run.storage.Snapshot(ctx, bc, visit); err != nil && !isTeardownRace(err) {
				run.log.Warn("storage snapshot failed", zap.String("url", u), zap.Error(err))
			}
		}
		if i == 0 {
			if _, err := run.banner.Capture(ctx, bc, visit); err != nil && !isTeardownRace(err) {
				run.log.Warn("banner capture failed", zap.String("url", u), zap.Error(err))
			}
		}
		if err := s.sleep(ctx, s.interactionDelay()); err != nil {
			return loads, err
		}
	}
	return loads, nil
}

func (s *CrawlSession) navigate(ctx context.Context, bc repository.BrowsingContext, run *sessionRun, url string, timeout time.Duration) (string, error) {
	navCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		navCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	final, err := bc.Navigate(navCtx, url)
	if err != nil && ctx.Err() == nil && errors.Is(navCtx.Err(), context.DeadlineExceeded) &&
		!errors.Is(err, repository.ErrNavigationTimeout) {
		err = fmt.Errorf("%w: %s after %s", repository.ErrNavigationTimeout, url, timeout)
	}

	status := "success"
	if err != nil {
		status = "failure"
	}
	if s.metrics != nil {
		s.metrics.NavigationsTotal.WithLabelValues(run.profile.Name, status, errorType(err)).Inc()
	}
	if run.profile.RequiresTabMonitoring() {
		s.closeExtraTabs(ctx, bc, run)
	}
	return final, err
}

func (s *CrawlSession) closeExtraTabs(ctx context.Context, bc repository.BrowsingContext, run *sessionRun) {
	n, err := bc.CloseExtraTabs(ctx)
	if err != nil {
		if !isTeardownRace(err) {
			run.log.Warn("closing extra tabs", zap.Error(err))
		}
		return
	}
	if n > 0 {
		run.log.Debug("closed extra tabs", zap.Int("count", n))
	}
}

func (s *CrawlSession) interactionDelay() time.Duration {
	lo, hi := s.cfg.InteractionDelayMin, s.cfg.InteractionDelayMax
	if hi <= lo {
		return lo
	}
	return lo + rand.N(hi-lo)
}
