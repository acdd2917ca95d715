package queue

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// MemoryQueue is a buffered in-process queue. Ids published while no
// consumer runs wait in the buffer.
type MemoryQueue struct {
	jobs      chan int64
	done      chan struct{}
	closeOnce sync.Once
	logger    *zap.Logger
}

func NewMemoryQueue(size int, logger *zap.Logger) *MemoryQueue {
	if size <= 0 {
		size = 1
	}
	return &MemoryQueue{
		jobs:   make(chan int64, size),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// Publish blocks while the buffer is full.
func (q *MemoryQueue) Publish(ctx context.Context, campaignID int64) error {
	select {
	case <-q.done:
		return ErrClosed
	default:
	}

	select {
	case q.jobs <- campaignID:
		return nil
	case <-q.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *MemoryQueue) Consume(ctx context.Context, handler Handler) error {
	for {
		// stop wins over buffered work
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-q.done:
			return nil
		default:
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-q.done:
			return nil
		case id := <-q.jobs:
			if err := handler(ctx, id); err != nil {
				q.logger.Warn("Queued campaign was not accepted",
					zap.Int64("campaign_id", id),
					zap.Error(err))
			}
		}
	}
}

func (q *MemoryQueue) Ping() error {
	select {
	case <-q.done:
		return ErrClosed
	default:
		return nil
	}
}

// Close stops consumers. Ids still buffered are dropped; the recovery sweep
// picks their campaigns up again from the database.
func (q *MemoryQueue) Close() error {
	q.closeOnce.Do(func() {
		close(q.done)
	})
	return nil
}
