package httpapi

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront/internal/catalog"
	"storefront/internal/order"
)

func TestBackoff_RetriesWithExponentialDelay(t *testing.T) {
	t.Parallel()

	attempts := 0
	var delays []time.Duration

	policy := Backoff{
		MaxAttempts: 3,
		BaseDelay:   10 * time.Millisecond,
		MaxDelay:    50 * time.Millisecond,
		Jitter:      func(d time.Duration) time.Duration { return d },
		Sleep: func(ctx context.Context, d time.Duration) error {
			delays = append(delays, d)
			return nil
		},
		ShouldRetry: func(error) bool { return true },
	}

	err := policy.Do(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("fail")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
	if len(delays) != 2 || delays[0] != 10*time.Millisecond || delays[1] != 20*time.Millisecond {
		t.Fatalf("unexpected delays: %v", delays)
	}
}

func TestBackoff_StopsOnNonRetryable(t *testing.T) {
	t.Parallel()

	attempts := 0
	expected := errors.New("nope")

	policy := Backoff{
		MaxAttempts: 3,
		Sleep:       func(ctx context.Context, d time.Duration) error { return nil },
		ShouldRetry: func(err error) bool { return !errors.Is(err, expected) },
	}

	err := policy.Do(context.Background(), func() error {
		attempts++
		return expected
	})
	if !errors.Is(err, expected) {
		t.Fatalf("expected sentinel error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected a single attempt, got %d", attempts)
	}
}

func TestBreaker_OpensAfterMaxFailures(t *testing.T) {
	t.Parallel()

	now := time.Now()
	breaker := NewBreaker(BreakerConfig{
		MaxFailures:  2,
		ResetTimeout: time.Minute,
		Now:          func() time.Time { return now },
	})

	fail := func() error { return errors.New("boom") }
	_ = breaker.Execute(fail)
	_ = breaker.Execute(fail)

	if err := breaker.Execute(fail); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected open circuit, got %v", err)
	}
}

func TestBreaker_HalfOpenRecovery(t *testing.T) {
	t.Parallel()

	now := time.Now()
	breaker := NewBreaker(BreakerConfig{
		MaxFailures:  1,
		ResetTimeout: time.Second,
		Now:          func() time.Time { return now },
	})

	_ = breaker.Execute(func() error { return errors.New("boom") })
	if err := breaker.Execute(func() error { return nil }); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected open circuit before reset timeout, got %v", err)
	}

	now = now.Add(2 * time.Second)
	if err := breaker.Execute(func() error { return nil }); err != nil {
		t.Fatalf("expected half-open probe to succeed, got %v", err)
	}
	if err := breaker.Execute(func() error { return nil }); err != nil {
		t.Fatalf("expected closed circuit after recovery, got %v", err)
	}
}

type countingSource struct {
	errs  []error
	calls int
}

func (s *countingSource) FetchProducts(ctx context.Context) ([]catalog.Product, error) {
	s.calls++
	if s.calls <= len(s.errs) {
		return nil, s.errs[s.calls-1]
	}
	return []catalog.Product{{ID: "p1"}}, nil
}

func TestReliableProductSource_RetriesFetch(t *testing.T) {
	t.Parallel()

	src := &countingSource{errs: []error{errors.New("one"), errors.New("two")}}
	reliable := NewReliableProductSource(src, nil, Backoff{
		MaxAttempts: 3,
		Sleep:       func(ctx context.Context, d time.Duration) error { return nil },
		ShouldRetry: func(error) bool { return true },
	})

	products, err := reliable.FetchProducts(context.Background())
	if err != nil {
		t.Fatalf("expected eventual success, got %v", err)
	}
	if len(products) != 1 || src.calls != 3 {
		t.Fatalf("unexpected outcome: products=%d calls=%d", len(products), src.calls)
	}
}

type countingSubmitter struct {
	err   error
	calls int
}

func (s *countingSubmitter) SubmitOrder(ctx context.Context, p order.Payload) (order.Receipt, error) {
	s.calls++
	if s.err != nil {
		return order.Receipt{}, s.err
	}
	return order.Receipt{ID: "order-1"}, nil
}

func TestGuardedSubmitter_NeverRetries(t *testing.T) {
	t.Parallel()

	sub := &countingSubmitter{err: errors.New("boom")}
	guarded := NewGuardedSubmitter(sub, NewBreaker(BreakerConfig{MaxFailures: 5}))

	if _, err := guarded.SubmitOrder(context.Background(), order.Payload{}); err == nil {
		t.Fatalf("expected error")
	}
	if sub.calls != 1 {
		t.Fatalf("order submission must be attempted exactly once, got %d", sub.calls)
	}
}

func TestGuardedSubmitter_Success(t *testing.T) {
	t.Parallel()

	sub := &countingSubmitter{}
	guarded := NewGuardedSubmitter(sub, nil)

	receipt, err := guarded.SubmitOrder(context.Background(), order.Payload{})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if receipt.ID != "order-1" {
		t.Fatalf("unexpected receipt: %+v", receipt)
	}
}
