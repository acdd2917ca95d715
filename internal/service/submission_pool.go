package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/qhosting/cloudsms/internal/config"
	"github.com/qhosting/cloudsms/internal/models"
	"github.com/qhosting/cloudsms/internal/repository"
)

var (
	ErrPoolRunning    = errors.New("submission pool is already running")
	ErrPoolNotRunning = errors.New("submission pool is not running")
)

// PoolOption customizes a submission pool.
type PoolOption func(*submissionPool)

// WithRetryDelay overrides the pause before in-process retry number attempt.
func WithRetryDelay(fn func(attempt int) time.Duration) PoolOption {
	return func(p *submissionPool) {
		p.retryDelay = fn
	}
}

type submissionPool struct {
	cfg     *config.DispatchConfig
	repo    repository.Repository
	carrier CarrierClient
	cache   *ExternalIDCache
	logger  *zap.Logger

	limiter    *rate.Limiter
	retryDelay func(attempt int) time.Duration

	jobs     chan int64
	mu       sync.Mutex
	inFlight map[int64]struct{}
	running  bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

func NewSubmissionPool(
	cfg *config.Config,
	repo repository.Repository,
	carrier CarrierClient,
	cache *ExternalIDCache,
	logger *zap.Logger,
	opts ...PoolOption,
) SubmissionPool {
	queueSize := cfg.Dispatch.QueueSize
	if queueSize <= 0 {
		queueSize = 1
	}

	p := &submissionPool{
		cfg:        &cfg.Dispatch,
		repo:       repo,
		carrier:    carrier,
		cache:      cache,
		logger:     logger,
		limiter:    rate.NewLimiter(limitFor(cfg.Carrier.RatePerSec), burstFor(cfg.Carrier.RatePerSec)),
		retryDelay: defaultRetryDelay,
		jobs:       make(chan int64, queueSize),
		inFlight:   make(map[int64]struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}

	return p
}

func defaultRetryDelay(attempt int) time.Duration {
	return time.Duration(200+100*attempt) * time.Millisecond
}

func limitFor(perSecond int) rate.Limit {
	if perSecond <= 0 {
		return rate.Inf
	}
	return rate.Limit(perSecond)
}

func burstFor(perSecond int) int {
	if perSecond <= 0 {
		return 1
	}
	return perSecond
}

// Start launches the workers. They stop when ctx is cancelled or Stop is called.
func (p *submissionPool) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return ErrPoolRunning
	}

	workers := p.cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	ctx, p.cancel = context.WithCancel(ctx)
	p.running = true

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}

	p.logger.Info("Submission pool started", zap.Int("workers", workers))
	return nil
}

func (p *submissionPool) Stop() error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return ErrPoolNotRunning
	}
	p.running = false
	p.cancel()
	p.mu.Unlock()

	p.wg.Wait()

	p.logger.Info("Submission pool stopped")
	return nil
}

func (p *submissionPool) Enqueue(ctx context.Context, campaignID int64) error {
	p.mu.Lock()
	if _, ok := p.inFlight[campaignID]; ok {
		p.mu.Unlock()
		return nil
	}
	p.inFlight[campaignID] = struct{}{}
	p.mu.Unlock()

	select {
	case p.jobs <- campaignID:
		return nil
	case <-ctx.Done():
		p.release(campaignID)
		return ctx.Err()
	}
}

// SetRate changes the carrier submission rate of running workers.
func (p *submissionPool) SetRate(perSecond int) {
	p.limiter.SetLimit(limitFor(perSecond))
	p.limiter.SetBurst(burstFor(perSecond))
	p.logger.Info("Submission rate updated", zap.Int("rate_per_sec", perSecond))
}

func (p *submissionPool) release(campaignID int64) {
	p.mu.Lock()
	delete(p.inFlight, campaignID)
	p.mu.Unlock()
}

func (p *submissionPool) worker(ctx context.Context) {
	defer p.wg.Done()

	for {
		// fast-exit so stop wins over queued work
		select {
		case <-ctx.Done():
			return
		default:
		}

		select {
		case <-ctx.Done():
			return
		case id := <-p.jobs:
			if err := p.ProcessCampaign(ctx, id); err != nil {
				p.logger.Error("Failed to process campaign",
					zap.Int64("campaign_id", id),
					zap.Error(err))
			}
			p.release(id)
		}
	}
}

func (p *submissionPool) ProcessCampaign(ctx context.Context, campaignID int64) error {
	batchSize := p.cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	start := time.Now()
	submitted := 0

	var afterID int64
	for {
		messages, err := p.repo.Message().GetPendingByCampaign(ctx, campaignID, afterID, batchSize)
		if err != nil {
			return fmt.Errorf("failed to get pending messages: %w", err)
		}
		if len(messages) == 0 {
			break
		}

		for _, msg := range messages {
			if err := p.submit(ctx, msg); err != nil {
				return err
			}
			submitted++
		}
		afterID = messages[len(messages)-1].ID
	}

	status, finalized, err := p.repo.Campaign().Finalize(ctx, campaignID)
	if err != nil {
		return fmt.Errorf("failed to finalize campaign: %w", err)
	}

	fields := []zap.Field{
		zap.Int64("campaign_id", campaignID),
		zap.Int("submitted", submitted),
		zap.Duration("duration", time.Since(start)),
	}
	if !finalized {
		p.logger.Info("Campaign batch processed", fields...)
		return nil
	}

	fields = append(fields, zap.String("status", string(status)))
	counts, err := p.repo.Message().CountByStatus(ctx, campaignID)
	if err != nil {
		p.logger.Warn("Failed to count campaign messages",
			zap.Int64("campaign_id", campaignID),
			zap.Error(err))
	} else {
		fields = append(fields,
			zap.Int("delivered", counts[models.MessageStatusDelivered]),
			zap.Int("failed", counts[models.MessageStatusFailed]),
			zap.Int("awaiting_report", counts[models.MessageStatusSent]))
	}
	p.logger.Info("Campaign finished", fields...)

	return nil
}

// submit hands one message to the carrier. It only returns an error when ctx
// ends; every other failure is recorded on the message.
func (p *submissionPool) submit(ctx context.Context, msg *models.Message) error {
	for attempt := 0; ; attempt++ {
		if err := p.limiter.Wait(ctx); err != nil {
			return err
		}

		externalID, err := p.carrier.Submit(ctx, msg)
		if err == nil {
			p.onAccepted(ctx, msg, externalID)
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, ErrCarrierRejected) {
			p.onRejected(ctx, msg, err.Error())
			return nil
		}
		if attempt >= p.cfg.RetryMax {
			p.onTransient(ctx, msg, err)
			return nil
		}

		delay := p.retryDelay(attempt)
		p.logger.Debug("Carrier submission retry scheduled",
			zap.Int64("message_id", msg.ID),
			zap.Int("attempt", attempt+2),
			zap.Duration("delay", delay),
			zap.Error(err))

		tmr := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			if !tmr.Stop() {
				<-tmr.C
			}
			return ctx.Err()
		case <-tmr.C:
		}
	}
}

// onAccepted caches the external id before committing SENT so that a
// delivery report racing the commit still finds the message.
func (p *submissionPool) onAccepted(ctx context.Context, msg *models.Message, externalID string) {
	ctx = context.WithoutCancel(ctx)

	p.cache.Set(ctx, externalID, msg.ID)

	err := p.repo.WithTx(ctx, func(tx repository.Repository) error {
		changed, err := tx.Message().MarkSent(ctx, msg.ID, externalID)
		if err != nil || !changed {
			return err
		}
		return tx.Campaign().IncrementCounters(ctx, msg.CampaignID, 1, 0, 0)
	})
	if err != nil {
		p.logger.Error("Failed to record accepted message",
			zap.Int64("message_id", msg.ID),
			zap.String("external_id", externalID),
			zap.Error(err))
		return
	}

	p.logger.Debug("Message submitted",
		zap.Int64("message_id", msg.ID),
		zap.String("external_id", externalID))
}

func (p *submissionPool) onRejected(ctx context.Context, msg *models.Message, reason string) {
	ctx = context.WithoutCancel(ctx)

	err := p.repo.WithTx(ctx, func(tx repository.Repository) error {
		changed, err := tx.Message().MarkFailed(ctx, msg.ID, reason)
		if err != nil || !changed {
			return err
		}
		return tx.Campaign().IncrementCounters(ctx, msg.CampaignID, 0, 0, 1)
	})
	if err != nil {
		p.logger.Error("Failed to record rejected message",
			zap.Int64("message_id", msg.ID),
			zap.Error(err))
		return
	}

	p.logger.Warn("Message rejected",
		zap.Int64("message_id", msg.ID),
		zap.String("reason", reason))
}

// onTransient leaves the message PENDING for the recovery sweep, or fails it
// once it has used up its attempts.
func (p *submissionPool) onTransient(ctx context.Context, msg *models.Message, cause error) {
	ctx = context.WithoutCancel(ctx)

	attempts, err := p.repo.Message().RecordAttempt(ctx, msg.ID, cause.Error())
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return
		}
		p.logger.Error("Failed to record submission attempt",
			zap.Int64("message_id", msg.ID),
			zap.Error(err))
		return
	}

	if p.cfg.MaxAttempts > 0 && attempts >= p.cfg.MaxAttempts {
		p.onRejected(ctx, msg, fmt.Sprintf("giving up after %d attempts: %v", attempts, cause))
		return
	}

	p.logger.Warn("Message left pending after transient failure",
		zap.Int64("message_id", msg.ID),
		zap.Int("attempts", attempts),
		zap.Error(cause))
}
