package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Verdict classifies one failure for the retry loop and the breaker.
type Verdict struct {
	Retryable     bool
	RecordFailure bool
}

// Classifier maps an error to a Verdict. A nil classifier treats every error
// as final and breaker-visible.
type Classifier func(err error) Verdict

// Policy tunes retries and the per-operation circuit breaker.
type Policy struct {
	Attempts       int
	Backoff        time.Duration
	BackoffLimit   time.Duration
	BackoffFactor  float64
	BreakerEnabled bool
	BreakerWindow  uint32  // minimum calls before the breaker may trip
	BreakerRatio   float64 // failure ratio that trips it
	BreakerCooloff time.Duration
	BreakerProbes  uint32 // half-open call budget
}

func DefaultPolicy() Policy {
	return Policy{
		Attempts:       3,
		Backoff:        100 * time.Millisecond,
		BackoffLimit:   400 * time.Millisecond,
		BackoffFactor:  2.0,
		BreakerEnabled: true,
		BreakerWindow:  10,
		BreakerRatio:   0.5,
		BreakerCooloff: 30 * time.Second,
		BreakerProbes:  2,
	}
}

func (p Policy) sane() Policy {
	def := DefaultPolicy()
	if p.Attempts <= 0 {
		p.Attempts = def.Attempts
	}
	if p.Backoff <= 0 {
		p.Backoff = def.Backoff
	}
	if p.BackoffLimit < p.Backoff {
		p.BackoffLimit = p.Backoff
	}
	if p.BackoffFactor < 1.0 {
		p.BackoffFactor = def.BackoffFactor
	}
	if p.BreakerWindow == 0 {
		p.BreakerWindow = def.BreakerWindow
	}
	if p.BreakerRatio <= 0 || p.BreakerRatio > 1 {
		p.BreakerRatio = def.BreakerRatio
	}
	if p.BreakerCooloff <= 0 {
		p.BreakerCooloff = def.BreakerCooloff
	}
	if p.BreakerProbes == 0 {
		p.BreakerProbes = def.BreakerProbes
	}
	return p
}

// Executor runs outbound calls under retry with exponential backoff, behind
// one circuit breaker per operation name.
type Executor struct {
	policy Policy

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[any]
}

func NewExecutor(policy Policy) *Executor {
	return &Executor{
		policy:   policy.sane(),
		breakers: make(map[string]*gobreaker.CircuitBreaker[any]),
	}
}

func (e *Executor) Run(ctx context.Context, operation string, fn func(context.Context) error, classify Classifier) error {
	if fn == nil {
		return fmt.Errorf("resilience: nil operation callback")
	}
	op := strings.TrimSpace(operation)
	if op == "" {
		op = "unknown"
	}
	if classify == nil {
		classify = func(error) Verdict { return Verdict{RecordFailure: true} }
	}

	if !e.policy.BreakerEnabled {
		return e.retry(ctx, op, fn, classify)
	}

	breaker := e.breaker(op, classify)
	_, err := breaker.Execute(func() (any, error) {
		return nil, e.retry(ctx, op, fn, classify)
	})
	return err
}

func (e *Executor) retry(ctx context.Context, operation string, fn func(context.Context) error, classify Classifier) error {
	wait := e.policy.Backoff

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		if !classify(err).Retryable || attempt == e.policy.Attempts {
			return err
		}

		slog.Warn("retry_attempt",
			"operation", operation,
			"attempt", attempt,
			"max_attempts", e.policy.Attempts,
			"backoff", wait.String(),
			"error", err,
		)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return err
		case <-timer.C:
		}

		wait = time.Duration(float64(wait) * e.policy.BackoffFactor)
		if wait > e.policy.BackoffLimit {
			wait = e.policy.BackoffLimit
		}
	}
}

func (e *Executor) breaker(operation string, classify Classifier) *gobreaker.CircuitBreaker[any] {
	e.mu.Lock()
	defer e.mu.Unlock()

	if breaker, ok := e.breakers[operation]; ok {
		return breaker
	}

	breaker := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        operation,
		MaxRequests: e.policy.BreakerProbes,
		Timeout:     e.policy.BreakerCooloff,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < e.policy.BreakerWindow {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= e.policy.BreakerRatio
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !classify(err).RecordFailure
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit_breaker_state_change", "operation", name, "from", from.String(), "to", to.String())
		},
	})
	e.breakers[operation] = breaker
	return breaker
}

func IsCircuitOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
