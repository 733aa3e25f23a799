package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/user/trackscope/internal/adapter/chromedp_browser"
	"github.com/user/trackscope/internal/adapter/dns"
	"github.com/user/trackscope/internal/adapter/filesystem"
	"github.com/user/trackscope/internal/adapter/filterlist"
	"github.com/user/trackscope/internal/adapter/postgres"
	redis_adapter "github.com/user/trackscope/internal/adapter/redis"
	"github.com/user/trackscope/internal/adapter/sqlite"
	"github.com/user/trackscope/internal/classifier"
	"github.com/user/trackscope/internal/entity"
	"github.com/user/trackscope/internal/repository"
	"github.com/user/trackscope/internal/usecase"
	"github.com/user/trackscope/pkg/config"
	"github.com/user/trackscope/pkg/logger"
	"github.com/user/trackscope/pkg/metrics"
)

// app holds the collaborators shared by the subcommands. Connections are
// opened on first use so that e.g. `validate` never needs a browser.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics

	pool    *pgxpool.Pool
	rdb     *redis.Client
	backend *chromedp_browser.Backend
	cookies *sqlite.CookieDefinitionRepo
	closers []func()
}

func newApp() (*app, error) {
	// --- Configuration ---
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	// --- Logger ---
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}

	// --- Metrics ---
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return &app{
		cfg:      cfg,
		logger:   log,
		registry: reg,
		metrics:  metrics.New(reg),
	}, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	_ = a.logger.Sync()
}

func (a *app) postgresPool(ctx context.Context) (*pgxpool.Pool, error) {
	if a.pool != nil {
		return a.pool, nil
	}
	pool, err := postgres.Connect(ctx, a.cfg.Postgres.URL)
	if err != nil {
		return nil, err
	}
	a.logger.Info("PostgreSQL connection pool established")
	a.pool = pool
	a.closers = append(a.closers, pool.Close)
	return pool, nil
}

func (a *app) redisClient(ctx context.Context) (*redis.Client, error) {
	if a.rdb != nil {
		return a.rdb, nil
	}
	if a.cfg.Redis.Addr == "" {
		return nil, errors.New("redis.addr is not configured")
	}
	rdb, err := redis_adapter.NewClient(ctx, a.cfg.Redis)
	if err != nil {
		return nil, err
	}
	a.logger.Info("Redis connection established", zap.String("addr", a.cfg.Redis.Addr))
	a.rdb = rdb
	a.closers = append(a.closers, func() { _ = rdb.Close() })
	return rdb, nil
}

// stores returns the result store and, for the file backend, the mover
// used to quarantine artifacts. failures is nil without Postgres.
type stores struct {
	results  repository.ResultStore
	mover    repository.ArtifactMover
	failures repository.FailureRepository
}

func (a *app) stores(ctx context.Context) (*stores, error) {
	if a.cfg.Storage.Backend == "postgres" {
		pool, err := a.postgresPool(ctx)
		if err != nil {
			return nil, err
		}
		return &stores{
			results:  postgres.NewResultStore(pool),
			failures: postgres.NewFailureRepo(pool),
		}, nil
	}
	fs := filesystem.NewResultStore(a.cfg.Storage.ResultsDir)
	s := &stores{results: fs, mover: fs}
	if a.cfg.Postgres.URL != "" {
		pool, err := a.postgresPool(ctx)
		if err != nil {
			return nil, err
		}
		s.failures = postgres.NewFailureRepo(pool)
	}
	return s, nil
}

func (a *app) browserBackend() *chromedp_browser.Backend {
	if a.backend == nil {
		a.backend = chromedp_browser.NewBackend(a.cfg.Browser, a.logger)
		a.closers = append(a.closers, a.backend.Close)
	}
	return a.backend
}

// profiles loads the profiles file and keeps only the names asked for.
func (a *app) profiles(names []string) ([]entity.Profile, error) {
	all, err := config.LoadProfiles(a.cfg.Crawl.ProfilesFile)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", a.cfg.Crawl.ProfilesFile, err)
	}
	selected, err := config.SelectProfiles(all, names)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", usecase.ErrUnknownProfile, err)
	}
	return selected, nil
}

func (a *app) cnameResolver(ctx context.Context) (repository.CNAMEResolver, error) {
	base := dns.NewResolver(a.cfg.Classifier.DNSTimeout)
	switch a.cfg.Classifier.DNSCache {
	case "none":
		return base, nil
	case "redis":
		rdb, err := a.redisClient(ctx)
		if err != nil {
			return nil, err
		}
		return dns.NewCachingResolver(base, redis_adapter.NewCNAMECache(rdb), a.cfg.Classifier.DNSCacheTTL, a.logger.Named("dns")), nil
	default:
		return dns.NewCachingResolver(base, dns.NewMemoryCache(100_000), a.cfg.Classifier.DNSCacheTTL, a.logger.Named("dns")), nil
	}
}

// trackerClassifier loads every filter list in the filter directory,
// downloading the configured lists first when update is set. It returns
// nil when no rules are available.
func (a *app) trackerClassifier(ctx context.Context, update bool) (*classifier.TrackerClassifier, error) {
	dir := a.cfg.Classifier.FilterDir
	if update && len(a.cfg.Classifier.FilterURLs) > 0 {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
		if _, err := filterlist.NewFetcher(a.logger).FetchAll(ctx, a.cfg.Classifier.FilterURLs, dir); err != nil {
			return nil, fmt.Errorf("update filter lists: %w", err)
		}
	}

	rules := classifier.NewFilterRuleSet()
	counts, err := filterlist.LoadDir(dir, rules)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	if rules.Len() == 0 {
		a.logger.Warn("No filter rules loaded; tracker classification disabled", zap.String("dir", dir))
		return nil, nil
	}
	for list, n := range counts {
		a.logger.Info("Loaded filter list", zap.String("list", list), zap.Int("rules", n))
	}

	resolver, err := a.cnameResolver(ctx)
	if err != nil {
		return nil, err
	}
	opts := []classifier.TrackerOption{
		classifier.WithResolver(resolver),
		classifier.WithTrackerLogger(a.logger),
	}
	if file := a.cfg.Classifier.OrganizationsFile; file != "" {
		orgs, err := filterlist.LoadOrganizations(file)
		if err != nil {
			return nil, err
		}
		opts = append(opts, classifier.WithOrganizations(orgs))
	}
	return classifier.NewTrackerClassifier(rules, opts...), nil
}

// cookieDefinitions opens the cookie database. A missing file is not an
// error; annotation then reports no identified cookies.
func (a *app) cookieDefinitions(create bool) (*sqlite.CookieDefinitionRepo, error) {
	if a.cookies != nil {
		return a.cookies, nil
	}
	path := a.cfg.Classifier.CookieDBPath
	if !create {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
	}
	repo, err := sqlite.Open(path)
	if err != nil {
		return nil, err
	}
	a.cookies = repo
	a.closers = append(a.closers, func() { _ = repo.Close() })
	return repo, nil
}

func (a *app) annotator(ctx context.Context, results repository.ResultStore, updateLists bool) (*usecase.Annotator, *classifier.TrackerClassifier, error) {
	trackers, err := a.trackerClassifier(ctx, updateLists)
	if err != nil {
		return nil, nil, err
	}
	mode, err := classifier.ParseComparisonMode(a.cfg.Classifier.CookieComparison)
	if err != nil {
		return nil, nil, err
	}
	defs, err := a.cookieDefinitions(false)
	if err != nil {
		return nil, nil, err
	}
	var definitions repository.CookieDefinitionRepository
	if defs != nil {
		definitions = defs
	}
	ann := usecase.NewAnnotator(results, trackers, classifier.NewTrackingCookieClassifier(mode), definitions, a.logger, a.metrics)
	return ann, trackers, nil
}

func (a *app) scheduler(s *stores, profiles []entity.Profile, opts ...usecase.SchedulerOption) *usecase.CrawlScheduler {
	session := usecase.NewCrawlSession(
		a.browserBackend(),
		filesystem.NewSubpageRepo(a.cfg.Storage.SitePagesDir),
		filesystem.NewArtifactWriter(a.cfg.Storage.BannerDir),
		a.cfg.Crawl,
		a.logger,
		a.metrics,
	)
	if s.failures != nil {
		opts = append(opts, usecase.WithFailureRepository(s.failures))
	}
	return usecase.NewCrawlScheduler(session, s.results, profiles, a.cfg.Crawl, a.logger, a.metrics, opts...)
}
