package order

import (
	"context"
	"sync"
)

// NewInMemorySubmitter constructs an in-memory submitter. It stands in for
// the shop API in local runs and tests.
func NewInMemorySubmitter(newID func() string) *InMemorySubmitter {
	return &InMemorySubmitter{newID: newID}
}

// InMemorySubmitter records submitted orders in memory.
type InMemorySubmitter struct {
	mu     sync.Mutex
	newID  func() string
	orders []Payload
	err    error
}

// SubmitOrder records the payload and returns a generated receipt.
func (s *InMemorySubmitter) SubmitOrder(ctx context.Context, p Payload) (Receipt, error) {
	if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return Receipt{}, s.err
	}
	s.orders = append(s.orders, p)
	id := ""
	if s.newID != nil {
		id = s.newID()
	}
	return Receipt{ID: id}, nil
}

// FailWith makes subsequent submissions return the given error.
func (s *InMemorySubmitter) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Submissions returns the recorded payloads (for testing/inspection).
func (s *InMemorySubmitter) Submissions() []Payload {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Payload, len(s.orders))
	copy(out, s.orders)
	return out
}
