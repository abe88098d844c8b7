package web

import (
	"encoding/json"

	"storefront/internal/flow"
	"storefront/internal/realtime"
)

// event is the envelope every pushed message uses. Payload carries the
// full view model for the named surface, so clients can render from any
// single event without history.
type event struct {
	Event   string `json:"event"`
	Payload any    `json:"payload,omitempty"`
}

// hubPresenter forwards controller renders to the session hub as JSON
// events.
type hubPresenter struct {
	hub  *realtime.Hub
	logf func(format string, args ...any)
}

func newHubPresenter(hub *realtime.Hub, logf func(format string, args ...any)) *hubPresenter {
	return &hubPresenter{hub: hub, logf: logf}
}

func (p *hubPresenter) emit(name string, payload any) {
	data, err := json.Marshal(event{Event: name, Payload: payload})
	if err != nil {
		p.logf("encode %s event: %v", name, err)
		return
	}
	p.hub.Broadcast(data)
}

func (p *hubPresenter) ShowCatalog(v flow.CatalogView)       { p.emit("catalog", v) }
func (p *hubPresenter) ShowProduct(v flow.ProductView)       { p.emit("product_detail", v) }
func (p *hubPresenter) ShowBasket(v flow.BasketView)         { p.emit("basket", v) }
func (p *hubPresenter) ShowAddressForm(v flow.AddressForm)   { p.emit("order_address", v) }
func (p *hubPresenter) ShowContactsForm(v flow.ContactsForm) { p.emit("order_contacts", v) }
func (p *hubPresenter) ShowSuccess(v flow.SuccessView)       { p.emit("success", v) }
func (p *hubPresenter) CloseModal()                          { p.emit("modal_closed", nil) }

func (p *hubPresenter) SetBasketCount(count int) {
	p.emit("basket_count", struct {
		Count int `json:"count"`
	}{Count: count})
}
