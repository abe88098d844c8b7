package journal

import (
	"context"
	"encoding/json"
	"time"
)

// Broadcaster pushes messages to connected clients.
type Broadcaster interface {
	Broadcast(msg []byte)
}

// FanoutRecorder records the entry to storage and then broadcasts it.
type FanoutRecorder struct {
	storage     Recorder
	broadcaster Broadcaster
}

// NewFanoutRecorder constructs a recorder that fans out to storage and
// broadcaster. Either may be nil.
func NewFanoutRecorder(storage Recorder, broadcaster Broadcaster) *FanoutRecorder {
	return &FanoutRecorder{storage: storage, broadcaster: broadcaster}
}

// Record writes to storage then broadcasts the placed order.
func (f *FanoutRecorder) Record(ctx context.Context, e Entry) error {
	if f.storage != nil {
		if err := f.storage.Record(ctx, e); err != nil {
			return err
		}
	}

	payload := struct {
		Type     string    `json:"type"`
		OrderID  string    `json:"order_id"`
		Total    int64     `json:"total"`
		Payment  string    `json:"payment"`
		Items    int       `json:"items"`
		PlacedAt time.Time `json:"placed_at"`
	}{
		Type:     "order_placed",
		OrderID:  e.OrderID,
		Total:    e.Total,
		Payment:  e.Payment,
		Items:    e.Items,
		PlacedAt: e.PlacedAt,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	if f.broadcaster != nil {
		f.broadcaster.Broadcast(data)
	}
	return nil
}
