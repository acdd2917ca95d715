package service

import (
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/qhosting/cloudsms/internal/config"
	"github.com/qhosting/cloudsms/internal/queue"
	"github.com/qhosting/cloudsms/internal/repository"
)

type Service struct {
	Estimator CostEstimator
	Ledger    LedgerService
	Dispatch  DispatchService
	Carrier   CarrierClient
	Pool      SubmissionPool
	Delivery  DeliveryService
	Scheduler SchedulerService
	Health    HealthService
}

func NewService(
	cfg *config.Config,
	repo repository.Repository,
	redisClient *redis.Client,
	q queue.Queue,
	logger *zap.Logger,
) *Service {
	cache := NewExternalIDCache(redisClient, time.Duration(cfg.Redis.CacheTTL)*time.Hour, logger)

	estimator := NewCostEstimator(repo, logger)
	ledger := NewLedgerService(repo, logger)
	dispatch := NewDispatchService(&cfg.Dispatch, repo, estimator, ledger, q, logger)
	carrier := NewCarrierClient(&cfg.Carrier, logger)
	pool := NewSubmissionPool(cfg, repo, carrier, cache, logger)
	delivery := NewDeliveryService(repo, cache, logger)
	schedulerService := NewSchedulerService(cfg, repo, pool, logger)
	healthService := NewHealthService(repo, redisClient, q, schedulerService, carrier)

	return &Service{
		Estimator: estimator,
		Ledger:    ledger,
		Dispatch:  dispatch,
		Carrier:   carrier,
		Pool:      pool,
		Delivery:  delivery,
		Scheduler: schedulerService,
		Health:    healthService,
	}
}
