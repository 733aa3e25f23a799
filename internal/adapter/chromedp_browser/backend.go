package chromedp_browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/user/trackscope/internal/entity"
	"github.com/user/trackscope/internal/repository"
	"github.com/user/trackscope/pkg/config"
)

// Backend drives one Chrome instance per profile. Local profiles are
// started with an exec allocator on their user data directory; profiles
// with an endpoint attach to an already running browser.
type Backend struct {
	cfg    config.BrowserConfig
	logger *zap.Logger

	mu       sync.Mutex
	browsers map[string]*profileBrowser
	open     int
}

// profileBrowser is the browser behind one profile. Its contexts share
// cookies and storage.
type profileBrowser struct {
	name          string
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc

	launchOnce sync.Once
	launchErr  error

	mu      sync.Mutex
	origins map[string]struct{}
}

func NewBackend(cfg config.BrowserConfig, logger *zap.Logger) *Backend {
	return &Backend{
		cfg:      cfg,
		logger:   logger.Named("chromedp"),
		browsers: make(map[string]*profileBrowser),
	}
}

// Open starts the profile's browser if needed and opens a new tab in it.
func (b *Backend) Open(ctx context.Context, profile entity.Profile) (repository.BrowsingContext, error) {
	pb, err := b.reserve(profile)
	if err != nil {
		return nil, err
	}
	if err := pb.launch(); err != nil {
		b.release()
		b.drop(pb)
		return nil, classifyOpenError(err)
	}

	tabCtx, tabCancel := chromedp.NewContext(pb.browserCtx)
	c := newContext(tabCtx, tabCancel, pb, b, b.logger.With(zap.String("profile", profile.Name)))

	stop := context.AfterFunc(ctx, tabCancel)
	err = chromedp.Run(tabCtx, network.Enable())
	stop()
	if err != nil {
		c.closed = true
		c.events.close()
		tabCancel()
		b.release()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if pb.browserCtx.Err() != nil {
			b.drop(pb)
		}
		return nil, classifyOpenError(err)
	}
	return c, nil
}

// Close shuts down every browser started by the backend.
func (b *Backend) Close() {
	b.mu.Lock()
	browsers := b.browsers
	b.browsers = make(map[string]*profileBrowser)
	b.mu.Unlock()
	for _, pb := range browsers {
		pb.shutdown()
	}
}

func (b *Backend) reserve(profile entity.Profile) (*profileBrowser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cfg.MaxContexts > 0 && b.open >= b.cfg.MaxContexts {
		return nil, fmt.Errorf("%w: %d contexts open", repository.ErrConcurrencyLimitExceeded, b.open)
	}
	pb, ok := b.browsers[profile.Name]
	if ok && pb.browserCtx.Err() != nil {
		b.logger.Warn("Browser went away, restarting", zap.String("profile", profile.Name))
		pb.shutdown()
		ok = false
	}
	if !ok {
		pb = b.start(profile)
		b.browsers[profile.Name] = pb
	}
	b.open++
	return pb, nil
}

func (b *Backend) release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.open > 0 {
		b.open--
	}
}

func (b *Backend) drop(pb *profileBrowser) {
	b.mu.Lock()
	if cur, ok := b.browsers[pb.name]; ok && cur == pb {
		delete(b.browsers, pb.name)
	}
	b.mu.Unlock()
	pb.shutdown()
}

func (b *Backend) start(profile entity.Profile) *profileBrowser {
	var (
		allocCtx    context.Context
		allocCancel context.CancelFunc
	)
	if profile.Endpoint != "" {
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(context.Background(), profile.Endpoint)
	} else {
		allocCtx, allocCancel = chromedp.NewExecAllocator(context.Background(), b.allocatorOptions(profile)...)
	}
	sugar := b.logger.Sugar()
	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(sugar.Debugf),
		chromedp.WithErrorf(sugar.Errorf),
	)
	b.logger.Info("Starting browser",
		zap.String("profile", profile.Name),
		zap.Bool("remote", profile.Endpoint != ""))
	return &profileBrowser{
		name:          profile.Name,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		origins:       make(map[string]struct{}),
	}
}

func (b *Backend) allocatorOptions(profile entity.Profile) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", b.cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if b.cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(b.cfg.ExecPath))
	}
	if profile.UserDataDir != "" {
		opts = append(opts, chromedp.UserDataDir(profile.UserDataDir))
	}
	if profile.ExtensionPath != "" {
		// DefaultExecAllocatorOptions disables extensions entirely.
		opts = append(opts,
			chromedp.Flag("disable-extensions", false),
			chromedp.Flag("disable-extensions-except", profile.ExtensionPath),
			chromedp.Flag("load-extension", profile.ExtensionPath),
		)
	}
	if profile.Proxy != "" {
		opts = append(opts, chromedp.ProxyServer(profile.Proxy))
	}
	if profile.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(profile.UserAgent))
	}
	return opts
}

// launch starts the browser once. Tabs opened before it would each bring
// up a browser of their own.
func (pb *profileBrowser) launch() error {
	pb.launchOnce.Do(func() {
		pb.launchErr = chromedp.Run(pb.browserCtx)
	})
	return pb.launchErr
}

func (pb *profileBrowser) shutdown() {
	pb.browserCancel()
	pb.allocCancel()
}

func (pb *profileBrowser) rememberOrigin(origin string) {
	if origin == "" || origin == "null" {
		return
	}
	pb.mu.Lock()
	pb.origins[origin] = struct{}{}
	pb.mu.Unlock()
}

func (pb *profileBrowser) takeOrigins() []string {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	out := make([]string, 0, len(pb.origins))
	for o := range pb.origins {
		out = append(out, o)
	}
	pb.origins = make(map[string]struct{})
	return out
}

// classifyOpenError recognises remote endpoints refusing another session.
func classifyOpenError(err error) error {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "429") || strings.Contains(msg, "too many") || strings.Contains(msg, "limit") {
		return fmt.Errorf("%w: %v", repository.ErrConcurrencyLimitExceeded, err)
	}
	return translate(err)
}

// translate maps chromedp failures onto the repository error set.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, chromedp.ErrChannelClosed),
		errors.Is(err, chromedp.ErrInvalidContext),
		errors.Is(err, chromedp.ErrInvalidTarget),
		isTargetGone(err):
		return fmt.Errorf("%w: %v", repository.ErrContextClosed, err)
	}
	return err
}

func isTargetGone(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "No target with given id") ||
		strings.Contains(msg, "Target closed") ||
		strings.Contains(msg, "Session with given id not found")
}
