package flow

import "errors"

// ScreenKind identifies the active application screen. All kinds except
// ScreenCatalog are presented on the single shared modal surface.
type ScreenKind string

const (
	ScreenCatalog       ScreenKind = "catalog"
	ScreenProductDetail ScreenKind = "product-detail"
	ScreenBasket        ScreenKind = "basket"
	ScreenOrderAddress  ScreenKind = "order-address"
	ScreenOrderContacts ScreenKind = "order-contacts"
	ScreenSuccess       ScreenKind = "success"
)

// Screen is the single active view state. Exactly one Screen is active at
// a time; it is ephemeral and never persisted.
type Screen struct {
	Kind      ScreenKind `json:"kind"`
	ProductID string     `json:"product_id,omitempty"`
	Message   string     `json:"message,omitempty"`
	Total     int64      `json:"total,omitempty"`
}

// Modal reports whether the screen is shown on the modal surface.
func (s Screen) Modal() bool {
	return s.Kind != ScreenCatalog
}

// Success screen messages.
const (
	MessageOrdered = "order placed"
	MessageRemoved = "item removed from basket"
)

var (
	// ErrUnknownProduct signals an intent referencing a product id that is
	// not in the catalog snapshot.
	ErrUnknownProduct = errors.New("unknown product")

	// ErrWrongScreen signals an intent that does not apply to the active
	// screen.
	ErrWrongScreen = errors.New("intent not allowed on active screen")

	// ErrCheckoutUnavailable signals checkout on an empty or zero-total
	// basket. The transition is rejected locally.
	ErrCheckoutUnavailable = errors.New("checkout unavailable for empty basket")

	// ErrSubmissionInFlight signals pay while a submission is pending.
	ErrSubmissionInFlight = errors.New("order submission already in flight")
)
