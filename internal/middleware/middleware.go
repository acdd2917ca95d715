package middleware

import (
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Config holds middleware configuration.
type Config struct {
	Logger *zap.Logger

	CORS *CORSConfig

	RateLimit      rate.Limit
	RateLimitBurst int
	// RateLimitExempt lists path prefixes that bypass the per-client limiter.
	// Carrier callbacks arrive in bursts from a handful of addresses.
	RateLimitExempt []string

	RequestTimeout time.Duration
}

// Chain creates a middleware chain with all configured middleware.
func Chain(config *Config) func(http.Handler) http.Handler {
	rateLimiter := NewRateLimiter(config.RateLimit, config.RateLimitBurst).
		Exempt(config.RateLimitExempt...)

	return func(handler http.Handler) http.Handler {
		// Apply middleware in order (inner to outer)
		h := handler

		if config.RequestTimeout > 0 {
			h = Timeout(config.RequestTimeout)(h)
		}

		h = rateLimiter.Middleware()(h)

		if config.CORS != nil {
			h = CORS(config.CORS)(h)
		}

		h = Recovery(config.Logger)(h)

		h = Logger(config.Logger)(h)

		h = RequestID(h)

		return h
	}
}
