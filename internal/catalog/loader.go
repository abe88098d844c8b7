package catalog

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
)

// ErrUnavailable indicates the catalog could not be fetched from upstream.
var ErrUnavailable = errors.New("catalog unavailable")

// ProductSource fetches the product list from the upstream shop API.
type ProductSource interface {
	FetchProducts(ctx context.Context) ([]Product, error)
}

// Loader fetches the catalog once at startup and swaps in new snapshots
// on explicit reload. A failed load keeps the previous snapshot (an empty
// one before the first success); there is no automatic retry.
type Loader struct {
	source ProductSource
	logf   func(format string, args ...any)

	mu      sync.RWMutex
	current *Catalog
}

// NewLoader constructs a Loader over the given source.
func NewLoader(source ProductSource, logf func(format string, args ...any)) *Loader {
	if logf == nil {
		logf = log.Printf
	}
	return &Loader{
		source:  source,
		logf:    logf,
		current: New(nil),
	}
}

// Load fetches products and replaces the snapshot. On failure the existing
// snapshot stays in place and the error wraps ErrUnavailable.
func (l *Loader) Load(ctx context.Context) error {
	products, err := l.source.FetchProducts(ctx)
	if err != nil {
		l.logf("catalog load failed: %v", err)
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	snapshot := New(products)

	l.mu.Lock()
	l.current = snapshot
	l.mu.Unlock()

	l.logf("catalog loaded: %d products", snapshot.Len())
	return nil
}

// Snapshot returns the current catalog snapshot.
func (l *Loader) Snapshot() *Catalog {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}
