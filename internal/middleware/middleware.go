package middleware

import (
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/popeskul/smshub/internal/api"
)

// Config holds middleware configuration.
type Config struct {
	Logger *zap.Logger

	CORS *CORSConfig

	// Auth is nil when the API runs without bearer authentication.
	Auth *AuthConfig

	RateLimit      rate.Limit
	RateLimitBurst int
	// RateLimitExempt lists path prefixes that bypass the limiter.
	RateLimitExempt []string

	RequestTimeout time.Duration
}

// Chain creates the router-level middleware chain.
func Chain(config *Config) func(http.Handler) http.Handler {
	rateLimiter := NewRateLimiter(config.RateLimit, config.RateLimitBurst, config.RateLimitExempt...)

	return func(handler http.Handler) http.Handler {
		// Apply middleware in order (outer to inner)
		h := handler

		if config.RequestTimeout > 0 {
			h = Timeout(config.RequestTimeout)(h)
		}

		h = rateLimiter.Middleware()(h)

		if config.CORS != nil {
			h = CORS(config.CORS)(h)
		}

		h = Recovery(config.Logger)(h)

		h = RequestID(h)

		h = Logger(config.Logger)(h)

		return h
	}
}

// Operations returns middleware that runs per API operation, after the
// generated wrapper has attached the operation's security scopes.
func Operations(config *Config) []api.MiddlewareFunc {
	if config.Auth == nil {
		return nil
	}
	return []api.MiddlewareFunc{Auth(*config.Auth, config.Logger)}
}
