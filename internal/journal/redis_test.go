package journal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type capturedHSet struct {
	key    string
	values []any
}

type stubPipeline struct {
	hsets      []capturedHSet
	expires    map[string]time.Duration
	xadds      []*redis.XAddArgs
	execCalled bool
	execErr    error
}

func (s *stubPipeline) HSet(ctx context.Context, key string, values ...any) *redis.IntCmd {
	s.hsets = append(s.hsets, capturedHSet{key: key, values: values})
	return redis.NewIntCmd(ctx)
}

func (s *stubPipeline) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	if s.expires == nil {
		s.expires = make(map[string]time.Duration)
	}
	s.expires[key] = expiration
	return redis.NewBoolCmd(ctx)
}

func (s *stubPipeline) XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd {
	s.xadds = append(s.xadds, a)
	return redis.NewStringCmd(ctx)
}

func (s *stubPipeline) Exec(ctx context.Context) ([]redis.Cmder, error) {
	s.execCalled = true
	return nil, s.execErr
}

type stubClient struct {
	pipe *stubPipeline
}

func (s *stubClient) Pipeline() Pipeliner { return s.pipe }

func hashOf(values []any) map[string]any {
	if len(values) == 1 {
		if m, ok := values[0].(map[string]any); ok {
			return m
		}
	}
	out := make(map[string]any)
	for i := 0; i+1 < len(values); i += 2 {
		key, _ := values[i].(string)
		out[key] = values[i+1]
	}
	return out
}

func sampleEntry() Entry {
	return Entry{
		OrderID:  "order-1",
		Total:    750,
		Payment:  "online",
		Items:    2,
		PlacedAt: time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC),
	}
}

func TestRedisRecorder_WritesHashAndStream(t *testing.T) {
	t.Parallel()

	pipe := &stubPipeline{}
	rec := NewRedisRecorder(&stubClient{pipe: pipe}, "order_events", 0, 0)

	if err := rec.Record(context.Background(), sampleEntry()); err != nil {
		t.Fatalf("record: %v", err)
	}

	if len(pipe.hsets) != 1 {
		t.Fatalf("expected 1 HSET, got %d", len(pipe.hsets))
	}
	if pipe.hsets[0].key != "order:order-1" {
		t.Fatalf("unexpected hash key %q", pipe.hsets[0].key)
	}

	hash := hashOf(pipe.hsets[0].values)
	if hash["order_id"] != "order-1" || hash["total"] != "750" || hash["payment"] != "online" {
		t.Fatalf("unexpected hash values: %+v", hash)
	}

	if len(pipe.xadds) != 1 {
		t.Fatalf("expected 1 XADD, got %d", len(pipe.xadds))
	}
	if pipe.xadds[0].Stream != "order_events" {
		t.Fatalf("unexpected stream %q", pipe.xadds[0].Stream)
	}
	if len(pipe.expires) != 0 {
		t.Fatalf("expected no TTL when disabled, got %+v", pipe.expires)
	}
	if !pipe.execCalled {
		t.Fatalf("expected Exec to be called")
	}
}

func TestRedisRecorder_TTLMaxLenAndDefaultStream(t *testing.T) {
	t.Parallel()

	pipe := &stubPipeline{}
	rec := NewRedisRecorder(&stubClient{pipe: pipe}, "", time.Minute, 100)

	if err := rec.Record(context.Background(), sampleEntry()); err != nil {
		t.Fatalf("record: %v", err)
	}

	if got := pipe.expires["order:order-1"]; got != time.Minute {
		t.Fatalf("expected TTL of 1m, got %v", got)
	}
	if pipe.xadds[0].Stream != "order_events" {
		t.Fatalf("expected default stream, got %q", pipe.xadds[0].Stream)
	}
	if pipe.xadds[0].MaxLen != 100 || !pipe.xadds[0].Approx {
		t.Fatalf("expected approx maxlen 100, got %+v", pipe.xadds[0])
	}
}

func TestRedisRecorder_ExecError(t *testing.T) {
	t.Parallel()

	pipe := &stubPipeline{execErr: errors.New("conn lost")}
	rec := NewRedisRecorder(&stubClient{pipe: pipe}, "order_events", 0, 0)

	if err := rec.Record(context.Background(), sampleEntry()); err == nil {
		t.Fatalf("expected exec error to surface")
	}
}

func TestRedisRecorder_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pipe := &stubPipeline{}
	rec := NewRedisRecorder(&stubClient{pipe: pipe}, "order_events", 0, 0)
	if err := rec.Record(ctx, sampleEntry()); err == nil {
		t.Fatalf("expected context error")
	}
	if pipe.execCalled {
		t.Fatalf("cancelled context must not reach Exec")
	}
}
