package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/popeskul/smshub/internal/api"
	"github.com/popeskul/smshub/internal/config"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreaker guards calls to one vendor.
type CircuitBreaker struct {
	cb     *gobreaker.CircuitBreaker
	logger *zap.Logger
}

// NewCircuitBreaker trips after cfg.ConsecutiveFails failures in a row, or
// once the window has at least that many requests and the failure share
// reaches cfg.FailureRatio. Cancelled calls are not held against the vendor.
func NewCircuitBreaker(name string, cfg *config.CircuitBreakerConfig, logger *zap.Logger) *CircuitBreaker {
	logger = logger.With(zap.String("provider", name))

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    time.Duration(cfg.Interval) * time.Second,
		Timeout:     time.Duration(cfg.Timeout) * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.ConsecutiveFailures >= cfg.ConsecutiveFails {
				return true
			}
			if counts.Requests < cfg.ConsecutiveFails {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
		OnStateChange: func(_ string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	}

	return &CircuitBreaker{
		cb:     gobreaker.NewCircuitBreaker(settings),
		logger: logger,
	}
}

// Execute runs fn unless the breaker is open. Rejections wrap ErrCircuitOpen.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func() error) error {
	_, err := cb.cb.Execute(func() (interface{}, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, fn()
	})

	switch {
	case errors.Is(err, gobreaker.ErrOpenState):
		cb.logger.Debug("Send blocked by open circuit")
		return ErrCircuitOpen
	case errors.Is(err, gobreaker.ErrTooManyRequests):
		cb.logger.Debug("Send blocked while circuit is probing")
		return fmt.Errorf("%w: too many requests", ErrCircuitOpen)
	default:
		return err
	}
}

func (cb *CircuitBreaker) State() api.CircuitBreakerState {
	switch cb.cb.State() {
	case gobreaker.StateHalfOpen:
		return api.HalfOpen
	case gobreaker.StateOpen:
		return api.Open
	default:
		return api.Closed
	}
}

// Counts returns requests and failures in the current window.
func (cb *CircuitBreaker) Counts() (requests, failures uint32) {
	counts := cb.cb.Counts()
	return counts.Requests, counts.TotalFailures
}

// BreakerSet holds one circuit breaker per provider name, created on first use.
type BreakerSet struct {
	cfg    config.CircuitBreakerConfig
	logger *zap.Logger

	mu       sync.Mutex
	breakers map[string]*CircuitBreaker
}

func NewBreakerSet(cfg config.CircuitBreakerConfig, logger *zap.Logger) *BreakerSet {
	return &BreakerSet{
		cfg:      cfg,
		logger:   logger,
		breakers: make(map[string]*CircuitBreaker),
	}
}

func (s *BreakerSet) For(providerName string) *CircuitBreaker {
	s.mu.Lock()
	defer s.mu.Unlock()

	cb, ok := s.breakers[providerName]
	if !ok {
		cb = NewCircuitBreaker(providerName, &s.cfg, s.logger)
		s.breakers[providerName] = cb
	}
	return cb
}

// Health reports every known breaker, sorted by provider name.
func (s *BreakerSet) Health() []api.ProviderHealth {
	s.mu.Lock()
	defer s.mu.Unlock()

	health := make([]api.ProviderHealth, 0, len(s.breakers))
	for name, cb := range s.breakers {
		requests, failures := cb.Counts()
		health = append(health, api.ProviderHealth{
			Name:                name,
			CircuitBreakerState: cb.State(),
			Requests:            int(requests),
			Failures:            int(failures),
		})
	}

	sort.Slice(health, func(i, j int) bool {
		return health[i].Name < health[j].Name
	})

	return health
}
