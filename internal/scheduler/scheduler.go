package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task is one run of the scheduled work.
type Task func(ctx context.Context) error

type Option func(*Scheduler)

// WithName labels the scheduler in logs.
func WithName(name string) Option {
	return func(s *Scheduler) {
		s.name = name
	}
}

// WithTaskTimeout bounds a single task run. It defaults to the interval.
func WithTaskTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		s.taskTimeout = d
	}
}

// Scheduler runs a task immediately on start and then every interval.
type Scheduler struct {
	logger      *zap.Logger
	name        string
	interval    time.Duration
	taskTimeout time.Duration
	task        Task
	stopCh      chan struct{}
	doneCh      chan struct{}
	isRunning   bool
	mu          sync.RWMutex
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(logger *zap.Logger, interval time.Duration, task Task, opts ...Option) *Scheduler {
	s := &Scheduler{
		logger:      logger,
		name:        "scheduler",
		interval:    interval,
		taskTimeout: interval,
		task:        task,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(zap.String("scheduler", s.name))

	return s
}

// Start begins the scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return ErrSchedulerAlreadyRunning
	}

	s.isRunning = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})

	go s.run(ctx, s.stopCh, s.doneCh)

	s.logger.Info("Scheduler started", zap.Duration("interval", s.interval))
	return nil
}

// Stop halts the scheduler and waits for a running task to return.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.isRunning = false
	stopCh, doneCh := s.stopCh, s.doneCh
	close(stopCh)
	s.mu.Unlock()

	<-doneCh

	s.logger.Info("Scheduler stopped")
	return nil
}

// IsRunning returns whether the scheduler is currently running.
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

func (s *Scheduler) run(ctx context.Context, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	s.executeTask(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Scheduler context canceled")
			s.markStopped(stopCh)
			return
		case <-stopCh:
			return
		case <-ticker.C:
			s.executeTask(ctx)
		}
	}
}

// markStopped clears the running flag unless a newer run has replaced stopCh.
func (s *Scheduler) markStopped(stopCh <-chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning && s.stopCh == stopCh {
		s.isRunning = false
	}
}

func (s *Scheduler) executeTask(ctx context.Context) {
	start := time.Now()

	taskCtx, cancel := context.WithTimeout(ctx, s.taskTimeout)
	defer cancel()

	if err := s.task(taskCtx); err != nil {
		s.logger.Error("Task execution failed", zap.Error(err))
		return
	}

	s.logger.Debug("Task execution completed", zap.Duration("duration", time.Since(start)))
}
