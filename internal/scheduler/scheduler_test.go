package scheduler_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/qhosting/cloudsms/internal/scheduler"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestScheduler_Start(t *testing.T) {
	tests := []struct {
		name           string
		setupScheduler func() *scheduler.Scheduler
		expectedError  error
	}{
		{
			name: "success",
			setupScheduler: func() *scheduler.Scheduler {
				taskFunc := func(ctx context.Context) error {
					return nil
				}
				return scheduler.NewScheduler(zap.NewNop(), 100*time.Millisecond, taskFunc)
			},
			expectedError: nil,
		},
		{
			name: "already running", setupScheduler: func() *scheduler.Scheduler {
				s := scheduler.NewScheduler(zap.NewNop(), 100*time.Millisecond, func(ctx context.Context) error {
					return nil
				})
				err := s.Start(context.Background())
				assert.NoError(t, err)
				return s
			},
			expectedError: scheduler.ErrSchedulerAlreadyRunning,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.setupScheduler()
			defer func() {
				if s.IsRunning() {
					_ = s.Stop()
				}
			}()

			err := s.Start(context.Background())
			assert.Equal(t, tt.expectedError, err)
		})
	}
}

func TestScheduler_Stop(t *testing.T) {
	tests := []struct {
		name           string
		setupScheduler func() *scheduler.Scheduler
		expectedError  error
	}{
		{
			name: "success",
			setupScheduler: func() *scheduler.Scheduler {
				s := scheduler.NewScheduler(zap.NewNop(), 100*time.Millisecond, func(ctx context.Context) error {
					return nil
				})
				err := s.Start(context.Background())
				assert.NoError(t, err)
				return s
			},
			expectedError: nil,
		},
		{
			name: "not running",
			setupScheduler: func() *scheduler.Scheduler {
				return scheduler.NewScheduler(zap.NewNop(), 100*time.Millisecond, func(ctx context.Context) error {
					return nil
				})
			},
			expectedError: scheduler.ErrSchedulerNotRunning,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.setupScheduler()
			err := s.Stop()
			assert.Equal(t, tt.expectedError, err)
		})
	}
}

func TestScheduler_IsRunning(t *testing.T) {
	tests := []struct {
		name           string
		setupScheduler func() *scheduler.Scheduler
		expected       bool
	}{
		{
			name: "running",
			setupScheduler: func() *scheduler.Scheduler {
				s := scheduler.NewScheduler(zap.NewNop(), 100*time.Millisecond, func(ctx context.Context) error {
					return nil
				})
				err := s.Start(context.Background())
				assert.NoError(t, err)
				return s
			},
			expected: true,
		},
		{
			name: "not running",
			setupScheduler: func() *scheduler.Scheduler {
				return scheduler.NewScheduler(zap.NewNop(), 100*time.Millisecond, func(ctx context.Context) error {
					return nil
				})
			},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.setupScheduler()
			defer func() {
				if s.IsRunning() {
					_ = s.Stop()
				}
			}()

			assert.Equal(t, tt.expected, s.IsRunning())
		})
	}
}

func TestScheduler_TaskExecution(t *testing.T) {
	tests := []struct {
		name         string
		task         scheduler.Task
		interval     time.Duration
		testDuration time.Duration
		minCalls     int32
		maxCalls     int32
	}{
		{
			name: "sweep runs on start and every tick",
			task: func(ctx context.Context) error {
				return nil
			},
			interval:     50 * time.Millisecond,
			testDuration: 230 * time.Millisecond,
			minCalls:     4,
			maxCalls:     6,
		},
		{
			name: "failing sweep keeps the schedule",
			task: func(ctx context.Context) error {
				return errors.New("sweep failed")
			},
			interval:     50 * time.Millisecond,
			testDuration: 130 * time.Millisecond,
			minCalls:     2,
			maxCalls:     4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			task := func(ctx context.Context) error {
				atomic.AddInt32(&calls, 1)
				return tt.task(ctx)
			}

			s := scheduler.NewScheduler(zap.NewNop(), tt.interval, task, scheduler.WithName("recovery"))
			err := s.Start(context.Background())
			assert.NoError(t, err)
			time.Sleep(tt.testDuration)

			err = s.Stop()
			assert.NoError(t, err)

			got := atomic.LoadInt32(&calls)
			assert.GreaterOrEqual(t, got, tt.minCalls)
			assert.LessOrEqual(t, got, tt.maxCalls)
		})
	}
}

func TestScheduler_TaskTimeout(t *testing.T) {
	deadlines := make(chan time.Duration, 1)
	task := func(ctx context.Context) error {
		deadline, ok := ctx.Deadline()
		if ok {
			select {
			case deadlines <- time.Until(deadline):
			default:
			}
		}
		return nil
	}

	s := scheduler.NewScheduler(zap.NewNop(), 10*time.Second, task,
		scheduler.WithTaskTimeout(200*time.Millisecond))
	assert.NoError(t, s.Start(context.Background()))
	defer func() { _ = s.Stop() }()

	select {
	case remaining := <-deadlines:
		assert.LessOrEqual(t, remaining, 200*time.Millisecond)
		assert.Greater(t, remaining, time.Duration(0))
	case <-time.After(time.Second):
		t.Fatal("task did not run")
	}
}

func TestScheduler_SubSecondIntervalGetsLiveContext(t *testing.T) {
	results := make(chan error, 1)
	task := func(ctx context.Context) error {
		select {
		case results <- ctx.Err():
		default:
		}
		return nil
	}

	s := scheduler.NewScheduler(zap.NewNop(), 100*time.Millisecond, task)
	assert.NoError(t, s.Start(context.Background()))
	defer func() { _ = s.Stop() }()

	select {
	case err := <-results:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("task did not run")
	}
}

func TestScheduler_StopWaitsForRunningTask(t *testing.T) {
	started := make(chan struct{})
	var finished int32
	task := func(ctx context.Context) error {
		close(started)
		time.Sleep(100 * time.Millisecond)
		atomic.StoreInt32(&finished, 1)
		return nil
	}

	s := scheduler.NewScheduler(zap.NewNop(), time.Hour, task)
	assert.NoError(t, s.Start(context.Background()))
	<-started

	assert.NoError(t, s.Stop())
	assert.Equal(t, int32(1), atomic.LoadInt32(&finished))
}

func TestScheduler_ConcurrentStop(t *testing.T) {
	s := scheduler.NewScheduler(zap.NewNop(), 50*time.Millisecond, func(ctx context.Context) error {
		return nil
	})
	assert.NoError(t, s.Start(context.Background()))

	var wg sync.WaitGroup
	var stopped, notRunning int32
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			switch err := s.Stop(); err {
			case nil:
				atomic.AddInt32(&stopped, 1)
			case scheduler.ErrSchedulerNotRunning:
				atomic.AddInt32(&notRunning, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), stopped)
	assert.Equal(t, int32(4), notRunning)
	assert.False(t, s.IsRunning())
}

func TestScheduler_Restart(t *testing.T) {
	var calls int32
	s := scheduler.NewScheduler(zap.NewNop(), time.Hour, func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})

	for i := 0; i < 2; i++ {
		assert.NoError(t, s.Start(context.Background()))
		assert.Eventually(t, func() bool {
			return atomic.LoadInt32(&calls) == int32(i+1)
		}, time.Second, 10*time.Millisecond)
		assert.NoError(t, s.Stop())
	}
}

func TestScheduler_ContextCancellation(t *testing.T) {
	var mu sync.Mutex
	taskCalls := 0
	taskFunc := func(ctx context.Context) error {
		mu.Lock()
		taskCalls++
		mu.Unlock()
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := scheduler.NewScheduler(zap.NewNop(), 50*time.Millisecond, taskFunc)

	err := s.Start(ctx)
	assert.NoError(t, err)
	assert.True(t, s.IsRunning())

	// Wait for at least 2 executions
	time.Sleep(120 * time.Millisecond)

	mu.Lock()
	callsBeforeCancel := taskCalls
	mu.Unlock()

	// Should have at least 2 calls (initial + 2 intervals)
	assert.GreaterOrEqual(t, callsBeforeCancel, 2)

	cancel()

	// Wait for scheduler to stop
	time.Sleep(100 * time.Millisecond)
	assert.False(t, s.IsRunning())

	// Get final call count
	mu.Lock()
	finalCalls := taskCalls
	mu.Unlock()

	// Should not have significantly more calls after cancel
	assert.LessOrEqual(t, finalCalls-callsBeforeCancel, 1)
}

func TestScheduler_ConcurrentAccess(t *testing.T) {
	s := scheduler.NewScheduler(zap.NewNop(), 50*time.Millisecond, func(ctx context.Context) error {
		return nil
	})

	done := make(chan bool)
	errors := make(chan error, 10)

	for i := 0; i < 5; i++ {
		go func() {
			if err := s.Start(context.Background()); err != nil && err != scheduler.ErrSchedulerAlreadyRunning {
				errors <- err
			}
			done <- true
		}()
	}

	for i := 0; i < 5; i++ {
		<-done
	}

	assert.True(t, s.IsRunning())
	assert.Len(t, errors, 0)

	err := s.Stop()
	assert.NoError(t, err)
}
