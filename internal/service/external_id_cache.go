package service

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const externalIDKeyPrefix = "sms:external:"

// ExternalIDCache maps carrier ids to message ids so that delivery reports
// skip the database lookup. A nil client disables it.
type ExternalIDCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewExternalIDCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *ExternalIDCache {
	return &ExternalIDCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func (c *ExternalIDCache) Set(ctx context.Context, externalID string, messageID int64) {
	if c == nil || c.client == nil {
		return
	}

	if err := c.client.Set(ctx, externalIDKeyPrefix+externalID, messageID, c.ttl).Err(); err != nil {
		c.logger.Warn("Failed to cache external id in Redis",
			zap.String("externalID", externalID),
			zap.Error(err))
	}
}

func (c *ExternalIDCache) Get(ctx context.Context, externalID string) (int64, bool) {
	if c == nil || c.client == nil {
		return 0, false
	}

	val, err := c.client.Get(ctx, externalIDKeyPrefix+externalID).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("Failed to read external id from Redis",
				zap.String("externalID", externalID),
				zap.Error(err))
		}
		return 0, false
	}

	id, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
