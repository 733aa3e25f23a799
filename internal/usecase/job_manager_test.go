package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/user/trackscope/internal/entity"
	"github.com/user/trackscope/internal/repository"
	"github.com/user/trackscope/internal/repository/mocks"
)

type jobManagerMocks struct {
	queue      *mocks.MockJobQueue
	completion *mocks.MockCompletionRepository
	results    *mocks.MockResultStore
	failures   *mocks.MockFailureRepository
}

func newJobManager(t *testing.T) (JobManager, jobManagerMocks) {
	ctrl := gomock.NewController(t)
	m := jobManagerMocks{
		queue:      mocks.NewMockJobQueue(ctrl),
		completion: mocks.NewMockCompletionRepository(ctrl),
		results:    mocks.NewMockResultStore(ctrl),
		failures:   mocks.NewMockFailureRepository(ctrl),
	}
	return NewJobManager(m.queue, m.completion, m.results, m.failures, testProfiles, zap.NewNop()), m
}

func TestJobManagerSubmit(t *testing.T) {
	ctx := context.Background()
	uc, m := newJobManager(t)

	m.completion.EXPECT().IsCompleted(ctx, "ublock", "example.com").Return(false, nil)
	m.queue.EXPECT().Push(ctx, gomock.Any()).DoAndReturn(func(ctx context.Context, job entity.CrawlJob) error {
		assert.Equal(t, "example.com", job.Domain)
		assert.Equal(t, "ublock", job.Profile)
		assert.False(t, job.Force)
		assert.NotEmpty(t, job.ID)
		return nil
	})
	m.completion.EXPECT().MarkCompleted(ctx, "ublock", "example.com", pendingExpiry).Return(nil)

	id, err := uc.Submit(ctx, "example.com", "ublock", false)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
}

func TestJobManagerSubmitRecentlyCrawled(t *testing.T) {
	ctx := context.Background()
	uc, m := newJobManager(t)
	m.completion.EXPECT().IsCompleted(ctx, "baseline", "example.com").Return(true, nil)

	_, err := uc.Submit(ctx, "example.com", "baseline", false)
	assert.ErrorIs(t, err, ErrRecentlyCrawled)
}

func TestJobManagerSubmitForce(t *testing.T) {
	ctx := context.Background()
	uc, m := newJobManager(t)
	gomock.InOrder(
		m.completion.EXPECT().Clear(ctx, "baseline", "example.com").Return(nil),
		m.queue.EXPECT().Push(ctx, gomock.Any()).DoAndReturn(func(ctx context.Context, job entity.CrawlJob) error {
			assert.True(t, job.Force)
			return nil
		}),
		m.completion.EXPECT().MarkCompleted(ctx, "baseline", "example.com", pendingExpiry).Return(nil),
	)

	_, err := uc.Submit(ctx, "example.com", "baseline", true)
	require.NoError(t, err)
}

func TestJobManagerSubmitErrors(t *testing.T) {
	ctx := context.Background()
	uc, m := newJobManager(t)

	_, err := uc.Submit(ctx, "example.com", "ghost", false)
	assert.ErrorIs(t, err, ErrUnknownProfile)

	pushErr := errors.New("redis down")
	m.completion.EXPECT().IsCompleted(ctx, "baseline", "example.com").Return(false, nil)
	m.queue.EXPECT().Push(ctx, gomock.Any()).Return(pushErr)
	_, err = uc.Submit(ctx, "example.com", "baseline", false)
	assert.ErrorIs(t, err, pushErr)
}

func TestJobManagerGetStatus(t *testing.T) {
	ctx := context.Background()
	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("completed", func(t *testing.T) {
		uc, m := newJobManager(t)
		m.results.EXPECT().Load(ctx, "baseline", "a.com").Return(entity.NewResultDocument("a.com", "baseline", ts), nil)

		st, err := uc.GetStatus(ctx, "a.com", "baseline")
		require.NoError(t, err)
		assert.Equal(t, "completed", st.CurrentStatus)
		require.NotNil(t, st.LastCrawlTimestamp)
		assert.Equal(t, ts, *st.LastCrawlTimestamp)
	})

	t.Run("corrupt", func(t *testing.T) {
		uc, m := newJobManager(t)
		m.results.EXPECT().Load(ctx, "baseline", "a.com").Return(nil, repository.ErrCorruptArtifact)

		st, err := uc.GetStatus(ctx, "a.com", "baseline")
		require.NoError(t, err)
		assert.Equal(t, "failed", st.CurrentStatus)
	})

	t.Run("failed", func(t *testing.T) {
		uc, m := newJobManager(t)
		m.results.EXPECT().Load(ctx, "baseline", "a.com").Return(nil, repository.ErrNotFound)
		m.failures.EXPECT().Find(ctx, "baseline", "a.com").Return(&entity.SessionFailure{
			FailureReason: "navigation timed out", RetryCount: 2, LastAttemptTimestamp: ts,
		}, nil)

		st, err := uc.GetStatus(ctx, "a.com", "baseline")
		require.NoError(t, err)
		assert.Equal(t, "failed", st.CurrentStatus)
		assert.Equal(t, 2, st.RetryCount)
		assert.Equal(t, "navigation timed out", st.FailureReason)
	})

	t.Run("pending", func(t *testing.T) {
		uc, m := newJobManager(t)
		m.results.EXPECT().Load(ctx, "baseline", "a.com").Return(nil, repository.ErrNotFound)
		m.failures.EXPECT().Find(ctx, "baseline", "a.com").Return(nil, repository.ErrNotFound)
		m.completion.EXPECT().IsCompleted(ctx, "baseline", "a.com").Return(true, nil)

		st, err := uc.GetStatus(ctx, "a.com", "baseline")
		require.NoError(t, err)
		assert.Equal(t, "pending", st.CurrentStatus)
	})

	t.Run("not found", func(t *testing.T) {
		uc, m := newJobManager(t)
		m.results.EXPECT().Load(ctx, "baseline", "a.com").Return(nil, repository.ErrNotFound)
		m.failures.EXPECT().Find(ctx, "baseline", "a.com").Return(nil, repository.ErrNotFound)
		m.completion.EXPECT().IsCompleted(ctx, "baseline", "a.com").Return(false, nil)

		st, err := uc.GetStatus(ctx, "a.com", "baseline")
		require.NoError(t, err)
		assert.Equal(t, "not_found", st.CurrentStatus)
	})
}
