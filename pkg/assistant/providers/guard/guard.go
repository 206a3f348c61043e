package guard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/xpanvictor/convoinfer/internal/config"
	"github.com/xpanvictor/convoinfer/pkg/Logger"
	"github.com/xpanvictor/convoinfer/pkg/assistant/adapters"
)

const defaultBreakerTimeout = 30 * time.Second

// GuardedBackend throttles calls to a backend and fails fast once the
// backend keeps failing. For streams only the opening call is counted; errors
// after the stream is open never trip the breaker.
type GuardedBackend struct {
	inner   adapters.Backend
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[any]
}

// Wrap returns inner untouched when both rate limiting and the breaker are
// disabled.
func Wrap(inner adapters.Backend, cfg config.GuardConfig, logger *Logger.Logger) adapters.Backend {
	if cfg.RequestsPerSecond <= 0 && cfg.BreakerMaxFailures == 0 {
		return inner
	}

	g := &GuardedBackend{inner: inner}
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	if cfg.BreakerMaxFailures > 0 {
		timeout := cfg.BreakerTimeout
		if timeout == 0 {
			timeout = defaultBreakerTimeout
		}
		maxFailures := cfg.BreakerMaxFailures
		g.breaker = gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
			Name:        "backend:" + inner.Name(),
			MaxRequests: 1,
			Timeout:     timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= maxFailures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warnw("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
			},
			IsSuccessful: func(err error) bool {
				// the caller giving up says nothing about the backend
				return err == nil || errors.Is(err, context.Canceled)
			},
		})
	}
	return g
}

func (g *GuardedBackend) Name() string { return g.inner.Name() }

func (g *GuardedBackend) Generate(ctx context.Context, req adapters.ContractRequest) (string, error) {
	if err := g.wait(ctx); err != nil {
		return "", err
	}
	if g.breaker == nil {
		return g.inner.Generate(ctx, req)
	}
	res, err := g.breaker.Execute(func() (any, error) {
		return g.inner.Generate(ctx, req)
	})
	if err != nil {
		return "", g.wrap(err)
	}
	return res.(string), nil
}

func (g *GuardedBackend) GenerateStream(ctx context.Context, req adapters.ContractRequest) (adapters.FragmentStream, error) {
	if err := g.wait(ctx); err != nil {
		return nil, err
	}
	if g.breaker == nil {
		return g.inner.GenerateStream(ctx, req)
	}
	res, err := g.breaker.Execute(func() (any, error) {
		return g.inner.GenerateStream(ctx, req)
	})
	if err != nil {
		return nil, g.wrap(err)
	}
	return res.(adapters.FragmentStream), nil
}

func (g *GuardedBackend) State() gobreaker.State {
	if g.breaker == nil {
		return gobreaker.StateClosed
	}
	return g.breaker.State()
}

func (g *GuardedBackend) wait(ctx context.Context) error {
	if g.limiter == nil {
		return nil
	}
	if err := g.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait for %s: %w", g.inner.Name(), err)
	}
	return nil
}

func (g *GuardedBackend) wrap(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("backend %q circuit open: %w", g.inner.Name(), err)
	}
	return err
}
