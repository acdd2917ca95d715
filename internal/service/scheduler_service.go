package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/qhosting/cloudsms/internal/config"
	"github.com/qhosting/cloudsms/internal/repository"
	"github.com/qhosting/cloudsms/internal/scheduler"
)

const defaultSweepBatch = 50

// schedulerService runs the recovery sweep: it resubmits campaigns whose
// PENDING messages went stale and closes SENDING campaigns with nothing left
// to submit.
type schedulerService struct {
	cfg       *config.SchedulerConfig
	repo      repository.Repository
	pool      SubmissionPool
	scheduler *scheduler.Scheduler
	logger    *zap.Logger
}

func NewSchedulerService(
	cfg *config.Config,
	repo repository.Repository,
	pool SubmissionPool,
	logger *zap.Logger,
) SchedulerService {
	interval := time.Duration(cfg.Scheduler.IntervalMinutes) * time.Minute
	if interval <= 0 {
		interval = time.Minute
	}

	svc := &schedulerService{
		cfg:    &cfg.Scheduler,
		repo:   repo,
		pool:   pool,
		logger: logger,
	}

	svc.scheduler = scheduler.NewScheduler(logger, interval, svc.Sweep, scheduler.WithName("recovery-sweep"))
	return svc
}

func (s *schedulerService) Start() error {
	ctx := context.Background()
	return s.scheduler.Start(ctx)
}

func (s *schedulerService) Stop() error {
	return s.scheduler.Stop()
}

func (s *schedulerService) IsRunning() bool {
	return s.scheduler.IsRunning()
}

// Sweep performs one recovery pass.
func (s *schedulerService) Sweep(ctx context.Context) error {
	limit := s.cfg.BatchSize
	if limit <= 0 {
		limit = defaultSweepBatch
	}
	staleBefore := time.Now().Add(-time.Duration(s.cfg.StaleAfterSeconds) * time.Second)

	stale, err := s.repo.Campaign().ListWithStalePending(ctx, staleBefore, limit)
	if err != nil {
		return fmt.Errorf("failed to list stale campaigns: %w", err)
	}

	requeued := 0
	for _, id := range stale {
		if err := s.pool.Enqueue(ctx, id); err != nil {
			s.logger.Warn("Failed to requeue stale campaign",
				zap.Int64("campaign_id", id),
				zap.Error(err))
			continue
		}
		requeued++
	}

	sending, err := s.repo.Campaign().ListSending(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to list sending campaigns: %w", err)
	}

	finalized := 0
	for _, id := range sending {
		status, done, err := s.repo.Campaign().Finalize(ctx, id)
		if err != nil {
			s.logger.Error("Failed to finalize campaign",
				zap.Int64("campaign_id", id),
				zap.Error(err))
			continue
		}
		if done {
			finalized++
			s.logger.Info("Campaign finalized by sweep",
				zap.Int64("campaign_id", id),
				zap.String("status", string(status)))
		}
	}

	s.logger.Info("Recovery sweep completed",
		zap.Int("requeued", requeued),
		zap.Int("finalized", finalized))
	return nil
}
