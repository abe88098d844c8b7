package journal

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRecorder keeps the latest receipt per order in a hash and appends
// every placed order to a stream for downstream consumers.
type RedisRecorder struct {
	client    PipelineClient
	stream    string
	keyPrefix string
	ttl       time.Duration
	maxLen    int64
}

// PipelineClient is the minimal client surface used by RedisRecorder.
type PipelineClient interface {
	Pipeline() Pipeliner
}

// Pipeliner is the subset of commands used within a pipeline.
type Pipeliner interface {
	HSet(ctx context.Context, key string, values ...any) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
	Exec(ctx context.Context) ([]redis.Cmder, error)
}

// NewRedisRecorder constructs a Redis-backed order journal.
func NewRedisRecorder(client PipelineClient, stream string, ttl time.Duration, maxLen int64) *RedisRecorder {
	if stream == "" {
		stream = "order_events"
	}
	return &RedisRecorder{
		client:    client,
		stream:    stream,
		keyPrefix: "order:",
		ttl:       ttl,
		maxLen:    maxLen,
	}
}

// Record writes the receipt hash and appends to the order stream.
func (r *RedisRecorder) Record(ctx context.Context, e Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key := r.keyPrefix + e.OrderID
	placedAt := e.PlacedAt.UTC().Format(time.RFC3339Nano)
	fields := map[string]any{
		"order_id":  e.OrderID,
		"total":     strconv.FormatInt(e.Total, 10),
		"payment":   e.Payment,
		"items":     strconv.Itoa(e.Items),
		"placed_at": placedAt,
	}

	pipe := r.client.Pipeline()
	pipe.HSet(ctx, key, fields)
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}

	args := &redis.XAddArgs{
		Stream: r.stream,
		Values: fields,
	}
	if r.maxLen > 0 {
		args.MaxLen = r.maxLen
		args.Approx = true
	}
	pipe.XAdd(ctx, args)

	_, err := pipe.Exec(ctx)
	return err
}

// NewGoRedisClient adapts a go-redis client to the PipelineClient surface.
func NewGoRedisClient(client *redis.Client) PipelineClient {
	return goRedisClient{client: client}
}

type goRedisClient struct {
	client *redis.Client
}

func (a goRedisClient) Pipeline() Pipeliner {
	return goRedisPipeliner{pipe: a.client.Pipeline()}
}

type goRedisPipeliner struct {
	pipe redis.Pipeliner
}

func (p goRedisPipeliner) HSet(ctx context.Context, key string, values ...any) *redis.IntCmd {
	return p.pipe.HSet(ctx, key, values...)
}

func (p goRedisPipeliner) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	return p.pipe.Expire(ctx, key, expiration)
}

func (p goRedisPipeliner) XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd {
	return p.pipe.XAdd(ctx, a)
}

func (p goRedisPipeliner) Exec(ctx context.Context) ([]redis.Cmder, error) {
	return p.pipe.Exec(ctx)
}
