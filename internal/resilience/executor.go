// Package resilience wraps calls to flaky collaborators (LLM endpoints) with
// bounded retries and a circuit breaker per operation name.
package resilience

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// ErrorClassification says whether a failed attempt may be retried and
// whether it counts against the operation's breaker.
type ErrorClassification struct {
	Retryable     bool
	RecordFailure bool
}

type ErrorClassifier func(err error) ErrorClassification

// permanent: no retry, counted by the breaker.
func permanent(error) ErrorClassification { return ErrorClassification{RecordFailure: true} }

type Executor struct {
	cfg    Config
	logger *slog.Logger

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[struct{}]
}

func NewExecutor(cfg Config, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		cfg:      cfg.withDefaults(),
		logger:   logger,
		breakers: make(map[string]*gobreaker.CircuitBreaker[struct{}]),
	}
}

// Execute runs fn until it succeeds, the classifier marks the error permanent,
// or MaxAttempts is reached. The whole retry loop counts as one breaker call.
// A nil classifier treats every error as permanent.
func (e *Executor) Execute(ctx context.Context, operation string, fn func(context.Context) error, classify ErrorClassifier) error {
	if classify == nil {
		classify = permanent
	}
	cb := e.breaker(operation, classify)
	if cb == nil {
		return e.attempt(ctx, operation, fn, classify)
	}
	_, err := cb.Execute(func() (struct{}, error) {
		return struct{}{}, e.attempt(ctx, operation, fn, classify)
	})
	return err
}

func (e *Executor) attempt(ctx context.Context, op string, fn func(context.Context) error, classify ErrorClassifier) error {
	var last error
	for n := 1; ; n++ {
		if err := ctx.Err(); err != nil {
			if last != nil {
				return last
			}
			return err
		}
		last = fn(ctx)
		if last == nil || n >= e.cfg.MaxAttempts || !classify(last).Retryable {
			return last
		}

		wait := e.cfg.backoff(n)
		e.logger.Warn("resilience.retry", "operation", op, "attempt", n, "backoff_ms", wait.Milliseconds(), "error", last)
		if !sleep(ctx, wait) {
			return last
		}
	}
}

// sleep waits for d and reports false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (e *Executor) breaker(op string, classify ErrorClassifier) *gobreaker.CircuitBreaker[struct{}] {
	if e.cfg.TripAfter == 0 {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	cb, ok := e.breakers[op]
	if !ok {
		cb = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
			Name:    op,
			Timeout: e.cfg.Cooldown,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= e.cfg.TripAfter
			},
			IsSuccessful: func(err error) bool {
				return err == nil || !classify(err).RecordFailure
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				e.logger.Warn("resilience.breaker", "operation", name, "from", from.String(), "to", to.String())
			},
		})
		e.breakers[op] = cb
	}
	return cb
}

// IsCircuitOpen reports whether err was produced by an open or saturated breaker.
func IsCircuitOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
