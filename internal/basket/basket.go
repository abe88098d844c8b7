package basket

import (
	"sync"

	"storefront/internal/catalog"
)

// Store is the session basket: an insertion-ordered set of products,
// unique by product id. Priceless products are rejected on add.
type Store struct {
	mu    sync.Mutex
	items []catalog.Product
}

// NewStore constructs an empty basket.
func NewStore() *Store {
	return &Store{}
}

// Add appends the product unless its id is already present or it has no
// price. It reports whether the basket changed.
func (s *Store) Add(p catalog.Product) bool {
	if !p.Priced() {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.items {
		if item.ID == p.ID {
			return false
		}
	}
	s.items = append(s.items, p)
	return true
}

// Remove drops the entry with the given id. An absent id is a no-op.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, item := range s.items {
		if item.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return true
		}
	}
	return false
}

// Has reports whether a product with the given id is in the basket.
func (s *Store) Has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.items {
		if item.ID == id {
			return true
		}
	}
	return false
}

// Items returns a snapshot of the basket in insertion order.
func (s *Store) Items() []catalog.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]catalog.Product, len(s.items))
	copy(out, s.items)
	return out
}

// Total sums the defined prices of all items. An empty basket totals zero.
func (s *Store) Total() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total int64
	for _, item := range s.items {
		total += item.PriceValue()
	}
	return total
}

// Len returns the number of items in the basket.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Clear empties the basket.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
}
