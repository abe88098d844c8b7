package main

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"storefront/cmd/server/config"
	"storefront/internal/catalog"
	"storefront/internal/httpapi"
	"storefront/internal/order"
)

// buildUpstream assembles the product source and order submitter. With
// SHOP_API_URL unset the server runs self-contained on a demo catalog
// and in-memory order intake.
func buildUpstream(logf func(format string, args ...any)) (catalog.ProductSource, order.Submitter, error) {
	cfg, err := config.LoadUpstream()
	if err != nil {
		return nil, nil, err
	}

	if cfg.URL == "" {
		logf("SHOP_API_URL not set, using demo catalog and in-memory order intake")
		return demoSource{}, order.NewInMemorySubmitter(uuid.NewString), nil
	}

	timeout := 10 * time.Second
	if cfg.Timeout != nil {
		timeout = *cfg.Timeout
	}
	client := httpapi.NewClient(cfg.URL, &http.Client{Timeout: timeout})

	breaker := httpapi.NewBreaker(httpapi.BreakerConfig{
		MaxFailures:  intOr(cfg.BreakerFailures, 5),
		ResetTimeout: durationOr(cfg.BreakerCooldown, 2*time.Second),
	})
	backoff := httpapi.Backoff{
		MaxAttempts: intOr(cfg.RetryAttempts, 3),
		BaseDelay:   durationOr(cfg.RetryBaseDelay, 100*time.Millisecond),
		MaxDelay:    2 * time.Second,
	}

	source := httpapi.NewReliableProductSource(client, breaker, backoff)
	// Submissions are never retried: the order must reach the shop API at
	// most once.
	submitter := httpapi.NewGuardedSubmitter(client, breaker)
	return source, submitter, nil
}

func intOr(v *int, def int) int {
	if v != nil {
		return *v
	}
	return def
}

func durationOr(v *time.Duration, def time.Duration) time.Duration {
	if v != nil {
		return *v
	}
	return def
}

// demoSource serves a small fixed catalog for local runs without a shop
// API behind the server.
type demoSource struct{}

func (demoSource) FetchProducts(ctx context.Context) ([]catalog.Product, error) {
	return []catalog.Product{
		{ID: "demo-mug", Title: "Developer Mug", Description: "Holds coffee and opinions.", Category: "софт-скил", Price: priceOf(750)},
		{ID: "demo-keyboard", Title: "Clacky Keyboard", Description: "Loud enough for the whole office.", Category: "хард-скил", Price: priceOf(15000)},
		{ID: "demo-sticker", Title: "Laptop Sticker", Description: "Priceless, literally.", Category: "другое"},
		{ID: "demo-plus-one", Title: "+1 Button", Description: "Press to agree.", Category: "кнопка", Price: priceOf(250)},
	}, nil
}

func priceOf(v int64) *int64 { return &v }
