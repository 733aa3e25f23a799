package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/user/trackscope/internal/entity"
	"github.com/user/trackscope/internal/repository"
	"github.com/user/trackscope/pkg/metrics"
)

// QueueWorker pulls crawl jobs from the job queue and hands them to the
// scheduler.
type QueueWorker struct {
	queue        repository.JobQueue
	scheduler    *CrawlScheduler
	workers      int
	pollInterval time.Duration
	logger       *zap.Logger
	metrics      *metrics.Metrics

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	mu     sync.Mutex
	report *entity.BatchReport
}

func NewQueueWorker(queue repository.JobQueue, scheduler *CrawlScheduler, workers int, pollInterval time.Duration, logger *zap.Logger, m *metrics.Metrics) *QueueWorker {
	if workers <= 0 {
		workers = 1
	}
	return &QueueWorker{
		queue:        queue,
		scheduler:    scheduler,
		workers:      workers,
		pollInterval: pollInterval,
		logger:       logger.Named("queue"),
		metrics:      m,
		stopChan:     make(chan struct{}),
		report:       &entity.BatchReport{Profiles: make(map[string]*entity.ProfileCounts)},
	}
}

func (w *QueueWorker) Start(ctx context.Context) {
	w.report.StartedAt = time.Now().UTC()
	for i := 0; i < w.workers; i++ {
		w.wg.Add(1)
		go w.worker(ctx, i)
	}
}

// Stop waits for in-flight sessions to finish.
func (w *QueueWorker) Stop() {
	w.stopOnce.Do(func() { close(w.stopChan) })
	w.wg.Wait()
}

// Report returns a copy of the outcomes processed so far.
func (w *QueueWorker) Report() entity.BatchReport {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := *w.report
	out.Results = append([]entity.SessionResult(nil), w.report.Results...)
	out.Profiles = make(map[string]*entity.ProfileCounts, len(w.report.Profiles))
	for k, v := range w.report.Profiles {
		c := *v
		out.Profiles[k] = &c
	}
	return out
}

func (w *QueueWorker) worker(ctx context.Context, id int) {
	defer w.wg.Done()
	log := w.logger.With(zap.Int("worker", id))
	for {
		select {
		case <-w.stopChan:
			return
		case <-ctx.Done():
			return
		default:
		}

		job, err := w.queue.Pop(ctx)
		if err != nil {
			if !errors.Is(err, repository.ErrNotFound) && ctx.Err() == nil {
				log.Error("Failed to pop job", zap.Error(err))
			}
			if !w.wait(ctx) {
				return
			}
			continue
		}
		w.updateQueueGauge(ctx)

		res := w.scheduler.RunJob(ctx, *job)
		w.mu.Lock()
		w.report.Add(res)
		w.mu.Unlock()
	}
}

func (w *QueueWorker) wait(ctx context.Context) bool {
	t := time.NewTimer(w.pollInterval)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-w.stopChan:
		return false
	case <-ctx.Done():
		return false
	}
}

func (w *QueueWorker) updateQueueGauge(ctx context.Context) {
	if w.metrics == nil {
		return
	}
	if n, err := w.queue.Size(ctx); err == nil {
		w.metrics.JobsInQueue.Set(float64(n))
	}
}
