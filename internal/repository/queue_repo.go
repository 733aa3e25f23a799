package repository

//go:generate mockgen -source=queue_repo.go -destination=mocks/queue_mocks.go -package=mocks JobQueue

import (
	"context"

	"github.com/user/trackscope/internal/entity"
)

// JobQueue is a FIFO queue of crawl jobs.
type JobQueue interface {
	Push(ctx context.Context, job entity.CrawlJob) error
	// Pop returns ErrNotFound when the queue is empty.
	Pop(ctx context.Context) (*entity.CrawlJob, error)
	Size(ctx context.Context) (int64, error)
}
