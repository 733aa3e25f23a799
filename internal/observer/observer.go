// Package observer implements the per-session monitors composed by a crawl
// session: network, fingerprinting, storage and banner capture.
package observer

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/user/trackscope/internal/entity"
	"github.com/user/trackscope/internal/repository"
	"github.com/user/trackscope/pkg/metrics"
)

// Observer is attached to a browsing context for the duration of one visit.
type Observer interface {
	// Attach registers the observer's hooks for visit. The returned
	// Unsubscribe releases all of them.
	Attach(ctx context.Context, bc repository.BrowsingContext, visit int) (repository.Unsubscribe, error)
	// Flush seals the visit's state. It runs before the context's pages close.
	Flush(ctx context.Context, bc repository.BrowsingContext, visit int) error
	// Contribute writes everything observed so far into doc.
	Contribute(doc *entity.ResultDocument)
}

type options struct {
	logger  *zap.Logger
	metrics *metrics.Metrics
	verbose bool
}

// Option configures an observer.
type Option func(*options)

func WithLogger(l *zap.Logger) Option { return func(o *options) { o.logger = l } }

func WithMetrics(m *metrics.Metrics) Option { return func(o *options) { o.metrics = m } }

// WithVerbose logs expected teardown races at debug level instead of
// dropping them.
func WithVerbose(v bool) Option { return func(o *options) { o.verbose = v } }

func buildOptions(opts []Option) options {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// unsubscribeAll combines registrations into one idempotent release.
func unsubscribeAll(subs []repository.Unsubscribe) repository.Unsubscribe {
	var once sync.Once
	return func() {
		once.Do(func() {
			for i := len(subs) - 1; i >= 0; i-- {
				subs[i]()
			}
		})
	}
}

// isTeardownRace reports errors caused by the context closing under a
// pending call.
func isTeardownRace(err error) bool {
	return errors.Is(err, repository.ErrContextClosed) ||
		errors.Is(err, repository.ErrInterceptionRace) ||
		errors.Is(err, context.Canceled)
}
