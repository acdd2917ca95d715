package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/qhosting/cloudsms/internal/api"
	"github.com/qhosting/cloudsms/internal/queue"
	"github.com/qhosting/cloudsms/internal/repository"
)

const redisPingTimeout = 2 * time.Second

type healthService struct {
	repo             repository.Repository
	redisClient      *redis.Client
	queue            queue.Queue
	schedulerService SchedulerService
	carrier          CarrierClient
}

func NewHealthService(
	repo repository.Repository,
	redisClient *redis.Client,
	q queue.Queue,
	schedulerService SchedulerService,
	carrier CarrierClient,
) HealthService {
	return &healthService{
		repo:             repo,
		redisClient:      redisClient,
		queue:            q,
		schedulerService: schedulerService,
		carrier:          carrier,
	}
}

// GetHealth reports Unhealthy when a backing store is unreachable and
// Degraded when only the carrier circuit is open.
func (s *healthService) GetHealth() *HealthStatus {
	status := &HealthStatus{
		Status: api.Healthy,
	}

	if s.schedulerService.IsRunning() {
		status.SchedulerStatus = api.HealthResponseSchedulerStatusRunning
	} else {
		status.SchedulerStatus = api.HealthResponseSchedulerStatusStopped
	}

	status.DatabaseStatus = s.checkDatabaseHealth()
	status.RedisStatus = s.checkRedisHealth()
	status.QueueStatus = s.checkQueueHealth()

	state, requests, failures := s.carrier.GetCircuitBreakerStatus()
	status.CircuitBreakerState = state
	if requests > 0 {
		failureRate := float64(failures) / float64(requests) * 100
		status.CircuitBreakerStatus = fmt.Sprintf("Requests: %d, Failures: %d (%.1f%%)", requests, failures, failureRate)
	} else {
		status.CircuitBreakerStatus = "No requests yet"
	}

	switch {
	case status.DatabaseStatus != api.HealthResponseDatabaseStatusConnected,
		status.RedisStatus != api.HealthResponseRedisStatusConnected,
		status.QueueStatus != api.HealthResponseQueueStatusConnected:
		status.Status = api.Unhealthy
	case state == api.Open:
		status.Status = api.Degraded
	}

	return status
}

func (s *healthService) checkDatabaseHealth() api.HealthResponseDatabaseStatus {
	if err := s.repo.Ping(); err != nil {
		return api.HealthResponseDatabaseStatusDisconnected
	}
	return api.HealthResponseDatabaseStatusConnected
}

func (s *healthService) checkRedisHealth() api.HealthResponseRedisStatus {
	if s.redisClient == nil {
		return api.HealthResponseRedisStatusDisconnected
	}

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()

	if err := s.redisClient.Ping(ctx).Err(); err != nil {
		return api.HealthResponseRedisStatusDisconnected
	}
	return api.HealthResponseRedisStatusConnected
}

func (s *healthService) checkQueueHealth() api.HealthResponseQueueStatus {
	if err := s.queue.Ping(); err != nil {
		return api.HealthResponseQueueStatusDisconnected
	}
	return api.HealthResponseQueueStatusConnected
}
