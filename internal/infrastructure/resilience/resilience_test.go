package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastPolicy() Policy {
	return Policy{
		Attempts:       3,
		Backoff:        time.Millisecond,
		BackoffLimit:   2 * time.Millisecond,
		BackoffFactor:  2.0,
		BreakerEnabled: false,
	}
}

func retryAll(error) Verdict { return Verdict{Retryable: true, RecordFailure: true} }

func TestRunRetriesUntilSuccess(t *testing.T) {
	executor := NewExecutor(fastPolicy())

	attempts := 0
	err := executor.Run(context.Background(), "op", func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("transient")
		}
		return nil
	}, retryAll)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestRunExhaustsAttempts(t *testing.T) {
	executor := NewExecutor(fastPolicy())

	attempts := 0
	failure := errors.New("still down")
	err := executor.Run(context.Background(), "op", func(context.Context) error {
		attempts++
		return failure
	}, retryAll)
	if !errors.Is(err, failure) {
		t.Fatalf("expected final failure, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestRunStopsOnNonRetryable(t *testing.T) {
	executor := NewExecutor(fastPolicy())

	attempts := 0
	err := executor.Run(context.Background(), "op", func(context.Context) error {
		attempts++
		return errors.New("bad request")
	}, func(error) Verdict { return Verdict{Retryable: false, RecordFailure: true} })
	if err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 {
		t.Fatalf("expected single attempt, got %d", attempts)
	}
}

func TestRunHonorsCancelledContext(t *testing.T) {
	executor := NewExecutor(fastPolicy())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	attempts := 0
	err := executor.Run(ctx, "op", func(context.Context) error {
		attempts++
		return nil
	}, retryAll)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
	if attempts != 0 {
		t.Fatalf("expected no attempts after cancel, got %d", attempts)
	}
}

func TestBreakerOpensAfterFailureRatio(t *testing.T) {
	policy := fastPolicy()
	policy.Attempts = 1
	policy.BreakerEnabled = true
	policy.BreakerWindow = 2
	policy.BreakerRatio = 0.5
	policy.BreakerCooloff = time.Minute
	executor := NewExecutor(policy)

	failure := errors.New("down")
	for i := 0; i < 2; i++ {
		if err := executor.Run(context.Background(), "op", func(context.Context) error {
			return failure
		}, retryAll); !errors.Is(err, failure) {
			t.Fatalf("call %d: expected failure, got %v", i, err)
		}
	}

	calls := 0
	err := executor.Run(context.Background(), "op", func(context.Context) error {
		calls++
		return nil
	}, retryAll)
	if !IsCircuitOpen(err) {
		t.Fatalf("expected open circuit, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("expected call rejected by breaker, got %d calls", calls)
	}
}

func TestBreakerIgnoresUnrecordedFailures(t *testing.T) {
	policy := fastPolicy()
	policy.Attempts = 1
	policy.BreakerEnabled = true
	policy.BreakerWindow = 2
	policy.BreakerRatio = 0.5
	executor := NewExecutor(policy)

	benign := func(error) Verdict { return Verdict{Retryable: false, RecordFailure: false} }
	for i := 0; i < 5; i++ {
		_ = executor.Run(context.Background(), "op", func(context.Context) error {
			return errors.New("caller mistake")
		}, benign)
	}

	calls := 0
	if err := executor.Run(context.Background(), "op", func(context.Context) error {
		calls++
		return nil
	}, benign); err != nil {
		t.Fatalf("expected closed circuit, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected call to pass through, got %d", calls)
	}
}

func TestBreakersAreIndependentPerOperation(t *testing.T) {
	policy := fastPolicy()
	policy.Attempts = 1
	policy.BreakerEnabled = true
	policy.BreakerWindow = 2
	policy.BreakerRatio = 0.5
	executor := NewExecutor(policy)

	failure := errors.New("down")
	for i := 0; i < 2; i++ {
		_ = executor.Run(context.Background(), "broken", func(context.Context) error { return failure }, retryAll)
	}
	if err := executor.Run(context.Background(), "broken", func(context.Context) error { return nil }, retryAll); !IsCircuitOpen(err) {
		t.Fatalf("expected broken operation open, got %v", err)
	}

	if err := executor.Run(context.Background(), "healthy", func(context.Context) error { return nil }, retryAll); err != nil {
		t.Fatalf("expected healthy operation unaffected, got %v", err)
	}
}

func TestPolicySaneDefaults(t *testing.T) {
	p := Policy{}.sane()
	def := DefaultPolicy()
	if p.Attempts != def.Attempts || p.Backoff != def.Backoff || p.BreakerWindow != def.BreakerWindow {
		t.Fatalf("expected defaults applied, got %+v", p)
	}
}
