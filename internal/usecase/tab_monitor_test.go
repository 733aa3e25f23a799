package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/user/trackscope/internal/repository"
)

// tabCloser scripts CloseExtraTabs results; calls past the script succeed
// with zero closed tabs.
type tabCloser struct {
	repository.BrowsingContext

	mu     sync.Mutex
	script []tabResult
	calls  int
}

type tabResult struct {
	closed int
	err    error
}

func (c *tabCloser) CloseExtraTabs(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if len(c.script) == 0 {
		return 0, nil
	}
	r := c.script[0]
	if len(c.script) > 1 {
		c.script = c.script[1:]
	}
	return r.closed, r.err
}

func (c *tabCloser) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func waitDone(t *testing.T, m *tabMonitor) {
	t.Helper()
	select {
	case <-m.done:
	case <-time.After(2 * time.Second):
		t.Fatal("tab monitor did not exit")
	}
}

func TestTabMonitorGivesUpAfterConsecutiveErrors(t *testing.T) {
	bc := &tabCloser{script: []tabResult{{err: errors.New("target crashed")}}}
	m := startTabMonitor(context.Background(), bc, time.Millisecond, 3, zap.NewNop())

	waitDone(t, m)
	assert.Equal(t, 3, bc.Calls())
	closed, errs := m.stats()
	assert.Zero(t, closed)
	assert.Equal(t, 3, errs)

	m.Stop()
	m.Stop()
}

func TestTabMonitorIgnoresClosedContext(t *testing.T) {
	closedErr := fmt.Errorf("close tabs: %w", repository.ErrContextClosed)
	bc := &tabCloser{script: []tabResult{{err: closedErr}}}
	m := startTabMonitor(context.Background(), bc, time.Millisecond, 2, zap.NewNop())

	assert.Eventually(t, func() bool { return bc.Calls() >= 5 }, 2*time.Second, time.Millisecond)
	select {
	case <-m.done:
		t.Fatal("teardown races must not stop the monitor")
	default:
	}
	m.Stop()
	_, errs := m.stats()
	assert.Zero(t, errs)
}

func TestTabMonitorSuccessResetsErrorRun(t *testing.T) {
	boom := errors.New("boom")
	bc := &tabCloser{script: []tabResult{
		{err: boom}, {err: boom}, {closed: 2},
		{err: boom}, {err: boom}, {closed: 1},
		{err: boom}, {err: boom}, {err: boom},
	}}
	m := startTabMonitor(context.Background(), bc, time.Millisecond, 3, zap.NewNop())

	waitDone(t, m)
	assert.Equal(t, 9, bc.Calls())
	closed, errs := m.stats()
	assert.Equal(t, 3, closed)
	assert.Equal(t, 7, errs)
}

func TestTabMonitorStopsOnCancel(t *testing.T) {
	bc := &tabCloser{}
	ctx, cancel := context.WithCancel(context.Background())
	m := startTabMonitor(ctx, bc, time.Millisecond, 0, zap.NewNop())
	require.Equal(t, defaultTabMonitorMaxErrors, m.maxErrors)

	assert.Eventually(t, func() bool { return bc.Calls() > 0 }, 2*time.Second, time.Millisecond)
	cancel()
	waitDone(t, m)
	m.Stop()
}
