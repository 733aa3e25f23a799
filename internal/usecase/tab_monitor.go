package usecase

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/user/trackscope/internal/repository"
)

const defaultTabMonitorMaxErrors = 10

// tabMonitor periodically closes tabs opened by extensions. It stops on
// Stop, on context cancellation, or after maxErrors consecutive failures.
type tabMonitor struct {
	bc        repository.BrowsingContext
	interval  time.Duration
	maxErrors int
	logger    *zap.Logger

	stopChan chan struct{}
	done     chan struct{}
	once     sync.Once

	mu     sync.Mutex
	closed int
	errors int
}

func startTabMonitor(ctx context.Context, bc repository.BrowsingContext, interval time.Duration, maxErrors int, logger *zap.Logger) *tabMonitor {
	if maxErrors <= 0 {
		maxErrors = defaultTabMonitorMaxErrors
	}
	m := &tabMonitor{
		bc:        bc,
		interval:  interval,
		maxErrors: maxErrors,
		logger:    logger,
		stopChan:  make(chan struct{}),
		done:      make(chan struct{}),
	}
	go m.run(ctx)
	return m
}

func (m *tabMonitor) run(ctx context.Context) {
	defer close(m.done)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	consecutive := 0
	for {
		select {
		case <-m.stopChan:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		n, err := m.bc.CloseExtraTabs(ctx)
		if err != nil {
			if isTeardownRace(err) {
				continue
			}
			consecutive++
			m.mu.Lock()
			m.errors++
			m.mu.Unlock()
			m.logger.Warn("tab monitor check failed", zap.Int("consecutive", consecutive), zap.Error(err))
			if consecutive >= m.maxErrors {
				m.logger.Error("tab monitor giving up", zap.Int("errors", consecutive))
				return
			}
			continue
		}
		consecutive = 0
		if n > 0 {
			m.mu.Lock()
			m.closed += n
			m.mu.Unlock()
			m.logger.Debug("closed extension tabs", zap.Int("count", n))
		}
	}
}

// Stop signals the monitor and waits for it to exit. Safe to call twice.
func (m *tabMonitor) Stop() {
	m.once.Do(func() { close(m.stopChan) })
	<-m.done
}

func (m *tabMonitor) stats() (closed, errs int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed, m.errors
}
