// Package queue hands committed campaign dispatches to the submission pool.
package queue

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/qhosting/cloudsms/internal/config"
)

const (
	DriverMemory = "memory"
	DriverAMQP   = "amqp"
)

var ErrClosed = errors.New("queue is closed")

// Handler processes one dispatched campaign.
type Handler func(ctx context.Context, campaignID int64) error

//go:generate mockgen -source=queue.go -destination=mocks/mock_queue.go -package=mocks

// Queue carries campaign ids from the dispatcher to the submission workers.
type Queue interface {
	Publish(ctx context.Context, campaignID int64) error
	// Consume feeds published ids to handler until ctx is cancelled or the
	// queue is closed.
	Consume(ctx context.Context, handler Handler) error
	Ping() error
	Close() error
}

// Job is the wire payload of a queued dispatch.
type Job struct {
	CampaignID int64 `json:"campaign_id"`
}

// New builds the queue selected by cfg.Driver.
func New(cfg *config.QueueConfig, size int, logger *zap.Logger) (Queue, error) {
	switch cfg.Driver {
	case "", DriverMemory:
		return NewMemoryQueue(size, logger), nil
	case DriverAMQP:
		return NewAMQPQueue(cfg.AMQPURL, cfg.QueueName, logger)
	default:
		return nil, fmt.Errorf("unknown queue driver %q", cfg.Driver)
	}
}
