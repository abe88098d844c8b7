package main

import (
	"context"
	"database/sql"
	"os"
	"strings"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"

	"storefront/cmd/server/config"
	ordersdb "storefront/internal/db/orders"
	"storefront/internal/journal"
)

var openJournalDB = func(driver, dsn string) (*sql.DB, error) {
	return sql.Open(driver, dsn)
}

// buildJournal assembles the placed-order journal from env. Redis and
// Postgres are both optional; with neither configured the journal is
// disabled and the recorder is nil.
func buildJournal(ctx context.Context, logf func(format string, args ...any)) (journal.Recorder, func(), error) {
	var (
		recorders []journal.Recorder
		closers   []func()
	)
	cleanup := func() {
		for _, c := range closers {
			c()
		}
	}

	if url := strings.TrimSpace(os.Getenv("REDIS_URL")); url != "" {
		client, rec, err := buildRedisRecorder(ctx)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		recorders = append(recorders, rec)
		closers = append(closers, func() {
			if err := client.Close(); err != nil {
				logf("close redis: %v", err)
			}
		})
	}

	if dsn := strings.TrimSpace(os.Getenv("DATABASE_URL")); dsn != "" {
		db, err := openJournalDB("pgx", dsn)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		pg, err := ordersdb.NewPostgresJournalWithSchema(ctx, db)
		if err != nil {
			_ = db.Close()
			cleanup()
			return nil, nil, err
		}
		recorders = append(recorders, pg)
		closers = append(closers, func() {
			if err := db.Close(); err != nil {
				logf("close orders db: %v", err)
			}
		})
	}

	switch len(recorders) {
	case 0:
		logf("order journal disabled (REDIS_URL and DATABASE_URL not set)")
		return nil, cleanup, nil
	case 1:
		return recorders[0], cleanup, nil
	default:
		return journal.NewMultiRecorder(recorders...), cleanup, nil
	}
}

func buildRedisRecorder(ctx context.Context) (*redis.Client, *journal.RedisRecorder, error) {
	cfg, err := config.LoadRedis()
	if err != nil {
		return nil, nil, err
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, nil, err
	}
	if cfg.DialTimeout != nil {
		opts.DialTimeout = *cfg.DialTimeout
	}
	if cfg.ReadTimeout != nil {
		opts.ReadTimeout = *cfg.ReadTimeout
	}
	if cfg.WriteTimeout != nil {
		opts.WriteTimeout = *cfg.WriteTimeout
	}
	if cfg.PoolSize != nil {
		opts.PoolSize = *cfg.PoolSize
	}
	if cfg.MinIdleConns != nil {
		opts.MinIdleConns = *cfg.MinIdleConns
	}
	if cfg.MaxRetries != nil {
		opts.MaxRetries = *cfg.MaxRetries
	}
	if cfg.TLSConfig != nil {
		opts.TLSConfig = cfg.TLSConfig
	}

	client := redis.NewClient(opts)
	if cfg.EnableOTel {
		if err := redisotel.InstrumentTracing(client); err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		if err := redisotel.InstrumentMetrics(client); err != nil {
			_ = client.Close()
			return nil, nil, err
		}
	}

	pingCtx := ctx
	if pingCtx == nil {
		pingCtx = context.Background()
	}
	if cfg.HealthcheckTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(pingCtx, cfg.HealthcheckTimeout)
		defer cancel()
	}
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, err
	}

	rec := journal.NewRedisRecorder(journal.NewGoRedisClient(client), cfg.Stream, cfg.ReceiptTTL, cfg.StreamMaxLen)
	return client, rec, nil
}
