package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/user/trackscope/internal/adapter/filesystem"
	"github.com/user/trackscope/internal/entity"
	"github.com/user/trackscope/internal/repository"
	"github.com/user/trackscope/internal/repository/mocks"
	"github.com/user/trackscope/pkg/config"
	"github.com/user/trackscope/pkg/metrics"
)

func TestQueueWorkerRunsQueuedJobs(t *testing.T) {
	ctrl := gomock.NewController(t)
	queue := mocks.NewMockJobQueue(ctrl)

	jobs := []*entity.CrawlJob{
		{ID: "1", Domain: "a.com", Profile: "baseline"},
		{ID: "2", Domain: "b.com", Profile: "ublock"},
	}
	popped := 0
	queue.EXPECT().Pop(gomock.Any()).DoAndReturn(func(ctx context.Context) (*entity.CrawlJob, error) {
		if popped < len(jobs) {
			popped++
			return jobs[popped-1], nil
		}
		return nil, repository.ErrNotFound
	}).AnyTimes()
	queue.EXPECT().Size(gomock.Any()).Return(int64(0), nil).AnyTimes()

	done := make(chan string, len(jobs))
	runner := runnerFunc(func(ctx context.Context, domain string, profile entity.Profile) (*entity.ResultDocument, error) {
		done <- domain
		return docFor(domain, profile.Name), nil
	})
	s := NewCrawlScheduler(runner, filesystem.NewResultStore(t.TempDir()), testProfiles, config.CrawlConfig{MaxSessions: 1}, zap.NewNop(), nil)

	w := NewQueueWorker(queue, s, 1, 10*time.Millisecond, zap.NewNop(), metrics.NewNop())
	w.Start(context.Background())

	var got []string
	for range jobs {
		select {
		case d := <-done:
			got = append(got, d)
		case <-time.After(5 * time.Second):
			t.Fatal("queued jobs were not run")
		}
	}
	w.Stop()
	w.Stop()

	assert.Equal(t, []string{"a.com", "b.com"}, got)
	report := w.Report()
	require.Len(t, report.Results, 2)
	assert.Equal(t, 2, report.Totals().Succeeded)
}

func TestQueueWorkerStopsOnCancel(t *testing.T) {
	ctrl := gomock.NewController(t)
	queue := mocks.NewMockJobQueue(ctrl)
	queue.EXPECT().Pop(gomock.Any()).Return(nil, repository.ErrNotFound).AnyTimes()

	s := NewCrawlScheduler(runnerFunc(nil), filesystem.NewResultStore(t.TempDir()), testProfiles, config.CrawlConfig{}, zap.NewNop(), nil)
	w := NewQueueWorker(queue, s, 2, time.Hour, zap.NewNop(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)
	cancel()

	stopped := make(chan struct{})
	go func() {
		w.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("workers did not exit after cancellation")
	}
	assert.Empty(t, w.Report().Results)
}
