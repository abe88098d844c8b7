package journal

import (
	"context"
	"errors"
	"time"
)

// Entry describes one successfully placed order.
type Entry struct {
	OrderID  string    `json:"order_id"`
	Total    int64     `json:"total"`
	Payment  string    `json:"payment"`
	Items    int       `json:"items"`
	PlacedAt time.Time `json:"placed_at"`
}

// Recorder persists placed-order entries.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
}

// MultiRecorder writes entries to several recorders in order.
type MultiRecorder struct {
	recorders []Recorder
}

// NewMultiRecorder constructs a Recorder that records to each target in
// sequence.
func NewMultiRecorder(recorders ...Recorder) *MultiRecorder {
	return &MultiRecorder{recorders: recorders}
}

// Record forwards the entry to each recorder, collecting errors so every
// recorder gets a chance to write.
func (m *MultiRecorder) Record(ctx context.Context, e Entry) error {
	var errs []error
	for _, r := range m.recorders {
		if err := r.Record(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
