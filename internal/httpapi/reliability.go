package httpapi

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"storefront/internal/catalog"
	"storefront/internal/order"
)

// ErrCircuitOpen indicates the circuit breaker is open.
var ErrCircuitOpen = errors.New("circuit breaker open")

// Backoff controls retry behavior for idempotent upstream calls.
type Backoff struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Jitter      func(time.Duration) time.Duration
	Sleep       func(context.Context, time.Duration) error
	ShouldRetry func(error) bool
}

// Do executes fn with exponential backoff according to the policy.
func (b Backoff) Do(ctx context.Context, fn func() error) error {
	if ctx == nil {
		ctx = context.Background()
	}

	attempts := b.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := b.Sleep
	if sleep == nil {
		sleep = sleepWithContext
	}
	shouldRetry := b.ShouldRetry
	if shouldRetry == nil {
		shouldRetry = func(err error) bool {
			return !errors.Is(err, context.Canceled) &&
				!errors.Is(err, context.DeadlineExceeded) &&
				!errors.Is(err, ErrCircuitOpen)
		}
	}
	jitter := b.Jitter
	if jitter == nil {
		jitter = defaultJitter
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := fn()
		if err == nil {
			return nil
		}
		if attempt == attempts || !shouldRetry(err) {
			return err
		}

		delay := b.BaseDelay
		if delay > 0 {
			delay = delay << (attempt - 1)
		}
		if b.MaxDelay > 0 && delay > b.MaxDelay {
			delay = b.MaxDelay
		}
		delay = jitter(delay)
		if delay > 0 {
			if err := sleep(ctx, delay); err != nil {
				return err
			}
		}
	}
	return nil
}

// BreakerConfig configures a circuit breaker.
type BreakerConfig struct {
	MaxFailures  int
	ResetTimeout time.Duration
	Now          func() time.Time
}

type breakerState int

const (
	breakerClosed breakerState = iota
	breakerOpen
	breakerHalfOpen
)

// Breaker stops upstream calls after repeated failures.
type Breaker struct {
	mu         sync.Mutex
	maxFails   int
	resetAfter time.Duration
	now        func() time.Time

	state          breakerState
	failures       int
	openedAt       time.Time
	halfOpenFlight bool
}

// NewBreaker constructs a circuit breaker with sane defaults.
func NewBreaker(cfg BreakerConfig) *Breaker {
	maxFails := cfg.MaxFailures
	if maxFails < 1 {
		maxFails = 1
	}
	resetAfter := cfg.ResetTimeout
	if resetAfter <= 0 {
		resetAfter = 2 * time.Second
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Breaker{
		maxFails:   maxFails,
		resetAfter: resetAfter,
		now:        now,
		state:      breakerClosed,
	}
}

// Execute runs fn while enforcing breaker state.
func (b *Breaker) Execute(fn func() error) error {
	if b == nil {
		return fn()
	}

	now := b.now()

	b.mu.Lock()
	switch b.state {
	case breakerOpen:
		if now.Sub(b.openedAt) < b.resetAfter {
			b.mu.Unlock()
			return ErrCircuitOpen
		}
		b.state = breakerHalfOpen
	case breakerHalfOpen:
		if b.halfOpenFlight {
			b.mu.Unlock()
			return ErrCircuitOpen
		}
	}
	if b.state == breakerHalfOpen {
		b.halfOpenFlight = true
	}
	b.mu.Unlock()

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == breakerHalfOpen {
		b.halfOpenFlight = false
	}

	if err == nil {
		b.state = breakerClosed
		b.failures = 0
		return nil
	}

	if b.state == breakerHalfOpen {
		b.state = breakerOpen
		b.openedAt = now
		b.failures = 0
		return err
	}

	b.failures++
	if b.failures >= b.maxFails {
		b.state = breakerOpen
		b.openedAt = now
	}
	return err
}

// ReliableProductSource wraps a ProductSource with retry and breaker
// controls. Catalog fetches are idempotent, so retrying is safe.
type ReliableProductSource struct {
	base    catalog.ProductSource
	breaker *Breaker
	backoff Backoff
}

// NewReliableProductSource constructs a reliability-wrapped source.
func NewReliableProductSource(base catalog.ProductSource, breaker *Breaker, backoff Backoff) *ReliableProductSource {
	return &ReliableProductSource{base: base, breaker: breaker, backoff: backoff}
}

// FetchProducts fetches with retries behind the breaker.
func (s *ReliableProductSource) FetchProducts(ctx context.Context) ([]catalog.Product, error) {
	var products []catalog.Product
	err := s.backoff.Do(ctx, func() error {
		attempt := func() error {
			var ferr error
			products, ferr = s.base.FetchProducts(ctx)
			return ferr
		}
		if s.breaker != nil {
			return s.breaker.Execute(attempt)
		}
		return attempt()
	})
	return products, err
}

// GuardedSubmitter wraps a Submitter with breaker control only. Order
// submission must happen at most once, so it is never retried here.
type GuardedSubmitter struct {
	base    order.Submitter
	breaker *Breaker
}

// NewGuardedSubmitter constructs a breaker-guarded submitter.
func NewGuardedSubmitter(base order.Submitter, breaker *Breaker) *GuardedSubmitter {
	return &GuardedSubmitter{base: base, breaker: breaker}
}

// SubmitOrder submits exactly once behind the breaker.
func (s *GuardedSubmitter) SubmitOrder(ctx context.Context, p order.Payload) (order.Receipt, error) {
	var receipt order.Receipt
	attempt := func() error {
		var serr error
		receipt, serr = s.base.SubmitOrder(ctx, p)
		return serr
	}
	if s.breaker != nil {
		if err := s.breaker.Execute(attempt); err != nil {
			return order.Receipt{}, err
		}
		return receipt, nil
	}
	if err := attempt(); err != nil {
		return order.Receipt{}, err
	}
	return receipt, nil
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func defaultJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	half := d / 2
	return half + time.Duration(rand.Int63n(int64(half)+1))
}
