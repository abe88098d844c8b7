package flow

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"storefront/internal/basket"
	"storefront/internal/catalog"
	"storefront/internal/journal"
	"storefront/internal/order"
)

// CatalogSource provides the current catalog snapshot.
type CatalogSource interface {
	Snapshot() *catalog.Catalog
}

// Config wires a Controller. Catalog, Basket, Draft and Presenter are
// required; the rest defaults to production behavior.
type Config struct {
	Catalog   CatalogSource
	Basket    *basket.Store
	Draft     *order.Draft
	Presenter Presenter

	// Journal, when set, records successfully placed orders.
	Journal journal.Recorder

	// RemovedDelay is how long the "removed" success stays open before
	// auto-returning to the catalog.
	RemovedDelay time.Duration

	// After schedules the auto-return callback. Defaults to time.AfterFunc.
	After func(d time.Duration, fn func())

	// Spawn runs the asynchronous submission. Defaults to go fn().
	Spawn func(fn func())

	Now  func() time.Time
	Logf func(format string, args ...any)
}

// Controller is the screen-flow state machine. It owns the active Screen,
// is the sole writer of the basket and the order draft, and serializes
// every intent under one mutex.
type Controller struct {
	mu        sync.Mutex
	catalog   CatalogSource
	basket    *basket.Store
	draft     *order.Draft
	guard     *SubmissionGuard
	presenter Presenter
	journal   journal.Recorder

	removedDelay time.Duration
	after        func(d time.Duration, fn func())
	spawn        func(fn func())
	now          func() time.Time
	logf         func(format string, args ...any)

	screen   Screen
	lastView any

	// successToken invalidates pending auto-return timers once the user
	// navigates away from a transient success screen.
	successToken uint64
}

// NewController constructs a Controller showing the catalog screen.
func NewController(cfg Config) *Controller {
	c := &Controller{
		catalog:      cfg.Catalog,
		basket:       cfg.Basket,
		draft:        cfg.Draft,
		presenter:    cfg.Presenter,
		journal:      cfg.Journal,
		guard:        NewSubmissionGuard(),
		removedDelay: cfg.RemovedDelay,
		after:        cfg.After,
		spawn:        cfg.Spawn,
		now:          cfg.Now,
		logf:         cfg.Logf,
		screen:       Screen{Kind: ScreenCatalog},
	}
	if c.removedDelay <= 0 {
		c.removedDelay = time.Second
	}
	if c.after == nil {
		c.after = func(d time.Duration, fn func()) { time.AfterFunc(d, fn) }
	}
	if c.spawn == nil {
		c.spawn = func(fn func()) { go fn() }
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.logf == nil {
		c.logf = log.Printf
	}
	return c
}

// Screen returns the active screen.
func (c *Controller) Screen() Screen {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.screen
}

// View returns the most recently rendered view model.
func (c *Controller) View() any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastView
}

// ShowCatalog renders the catalog screen, closing any open modal.
func (c *Controller) ShowCatalog() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.toCatalog()
}

// OpenProduct transitions to the product detail modal.
func (c *Controller) OpenProduct(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.catalog.Snapshot().ByID(id)
	if !ok {
		return ErrUnknownProduct
	}

	c.reopenModal()
	c.screen = Screen{Kind: ScreenProductDetail, ProductID: id}
	c.showProduct(p)
	return nil
}

// ToggleBasket adds the displayed product to the basket, or removes it
// when already present. Removal shows a transient success screen that
// auto-returns to the catalog. Priceless products cannot be toggled.
func (c *Controller) ToggleBasket() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.screen.Kind != ScreenProductDetail {
		return ErrWrongScreen
	}
	p, ok := c.catalog.Snapshot().ByID(c.screen.ProductID)
	if !ok {
		return ErrUnknownProduct
	}
	if !p.Priced() {
		// Viewable but not basketable; the control is disabled client-side.
		return nil
	}

	if c.basket.Has(p.ID) {
		c.basket.Remove(p.ID)
		c.presenter.SetBasketCount(c.basket.Len())
		c.showTransientSuccess(MessageRemoved)
		return nil
	}

	c.basket.Add(p)
	c.presenter.SetBasketCount(c.basket.Len())
	c.showProduct(p)
	return nil
}

// OpenBasket transitions to the basket modal from any screen.
func (c *Controller) OpenBasket() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reopenModal()
	c.screen = Screen{Kind: ScreenBasket}
	c.showBasket()
}

// RemoveFromBasket drops a basket line and re-renders the basket.
func (c *Controller) RemoveFromBasket(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.screen.Kind != ScreenBasket {
		return ErrWrongScreen
	}
	c.basket.Remove(id)
	c.presenter.SetBasketCount(c.basket.Len())
	c.showBasket()
	return nil
}

// Checkout starts the order flow. It is rejected locally when the basket
// is empty or totals zero; no error is surfaced beyond the disabled
// control, but the sentinel lets transport layers answer precisely.
func (c *Controller) Checkout() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.screen.Kind != ScreenBasket {
		return ErrWrongScreen
	}
	if c.basket.Len() == 0 || c.basket.Total() <= 0 {
		return ErrCheckoutUnavailable
	}

	c.reopenModal()
	c.screen = Screen{Kind: ScreenOrderAddress}
	payload := c.draft.Payload()
	c.showAddressForm(AddressForm{Address: payload.Address, Payment: payload.Payment})
	return nil
}

// SubmitAddress stores the address step and advances to contacts. Invalid
// input re-renders the step with errors and does not transition.
func (c *Controller) SubmitAddress(address, payment string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.screen.Kind != ScreenOrderAddress {
		return ErrWrongScreen
	}

	var errs []string
	if strings.TrimSpace(address) == "" {
		errs = append(errs, "enter the delivery address")
	}
	if !order.KnownPayment(payment) {
		errs = append(errs, "choose a payment method")
	}
	if len(errs) > 0 {
		c.showAddressForm(AddressForm{Address: address, Payment: payment, Errors: errs})
		return nil
	}

	c.draft.SetAddress(address)
	c.draft.SetPayment(payment)
	c.screen = Screen{Kind: ScreenOrderContacts}
	c.showContactsForm(nil, false)
	return nil
}

// UpdateEmail stores the email field and re-renders the contacts step.
// It reports per-field validity.
func (c *Controller) UpdateEmail(email string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	valid := c.draft.SetEmail(email)
	if c.screen.Kind == ScreenOrderContacts && !c.guard.InFlight() {
		c.showContactsForm(nil, false)
	}
	return valid
}

// UpdatePhone stores the phone field and re-renders the contacts step.
// It reports per-field validity.
func (c *Controller) UpdatePhone(phone string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	valid := c.draft.SetPhone(phone)
	if c.screen.Kind == ScreenOrderContacts && !c.guard.InFlight() {
		c.showContactsForm(nil, false)
	}
	return valid
}

// Pay stores the final contact values, validates the whole step and
// issues the order submission. Invalid contacts re-render the step with
// field errors. While a submission is in flight further calls are
// rejected; the response settles through the generation-tagged guard so
// a submission superseded by Dismiss cannot mutate state.
func (c *Controller) Pay(ctx context.Context, email, phone string) error {
	c.mu.Lock()

	if c.screen.Kind != ScreenOrderContacts {
		c.mu.Unlock()
		return ErrWrongScreen
	}
	if c.guard.InFlight() {
		c.mu.Unlock()
		return ErrSubmissionInFlight
	}

	c.draft.SetContacts(email, phone)
	if res := c.draft.ValidateContacts(); !res.IsValid {
		c.showContactsForm(res.Errors, false)
		c.mu.Unlock()
		return nil
	}

	generation, ok := c.guard.Begin()
	if !ok {
		c.mu.Unlock()
		return ErrSubmissionInFlight
	}

	// The payload and total are captured under the lock; draft mutations
	// landing after this point cannot alter a submission that was already
	// validated. The total shown on success comes from the basket at this
	// moment, never from the draft or the receipt.
	payload := c.draft.Payload()
	total := c.basket.Total()
	c.showContactsForm(nil, true)
	c.mu.Unlock()

	c.spawn(func() {
		receipt, err := c.draft.SubmitPayload(ctx, payload)
		c.settleSubmission(generation, total, payload, receipt, err)
	})
	return nil
}

// CloseSuccess dismisses the terminal screen and returns to the catalog.
func (c *Controller) CloseSuccess() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.screen.Kind != ScreenSuccess {
		return ErrWrongScreen
	}
	c.toCatalog()
	return nil
}

// Dismiss closes the active modal (close button, outside click or cancel
// key) and returns to the catalog. The basket is never touched; an
// abandoned checkout resets the draft, and any pending submission is
// superseded so its late response is dropped.
func (c *Controller) Dismiss() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.screen.Modal() {
		return
	}
	switch c.screen.Kind {
	case ScreenOrderAddress, ScreenOrderContacts:
		c.guard.Invalidate()
		c.draft.Clear()
	}
	c.toCatalog()
}

// SubmissionInFlight reports whether an order submission is pending.
func (c *Controller) SubmissionInFlight() bool {
	return c.guard.InFlight()
}

func (c *Controller) settleSubmission(generation uint64, total int64, payload order.Payload, receipt order.Receipt, err error) {
	entry, record := c.applySubmission(generation, total, payload, receipt, err)
	if !record {
		return
	}
	// The journal write runs outside the controller lock so a slow
	// recorder cannot stall the session's intents.
	if jerr := c.journal.Record(context.Background(), entry); jerr != nil {
		c.logf("order journal: %v", jerr)
	}
}

// applySubmission mutates the controller state under the lock and returns
// the journal entry to record, if any.
func (c *Controller) applySubmission(generation uint64, total int64, payload order.Payload, receipt order.Receipt, err error) (journal.Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.guard.Settle(generation) {
		c.logf("dropping stale submission response (generation %d)", generation)
		return journal.Entry{}, false
	}

	if err != nil {
		c.logf("order submission failed: %v", err)
		c.showContactsForm([]string{"order submission failed, try again"}, false)
		return journal.Entry{}, false
	}

	items := c.basket.Len()

	// Both stores clear together under the controller lock.
	c.basket.Clear()
	c.draft.Clear()
	c.presenter.SetBasketCount(0)

	c.screen = Screen{Kind: ScreenSuccess, Message: MessageOrdered, Total: total}
	view := SuccessView{Message: MessageOrdered, Total: total, ShowTotal: true}
	c.lastView = view
	c.presenter.ShowSuccess(view)

	if c.journal == nil {
		return journal.Entry{}, false
	}
	return journal.Entry{
		OrderID:  receipt.ID,
		Total:    total,
		Payment:  payload.Payment,
		Items:    items,
		PlacedAt: c.now(),
	}, true
}

// showTransientSuccess presents a success screen that auto-returns to the
// catalog unless the user navigates first.
func (c *Controller) showTransientSuccess(message string) {
	c.reopenModal()
	c.screen = Screen{Kind: ScreenSuccess, Message: message}
	view := SuccessView{Message: message}
	c.lastView = view
	c.presenter.ShowSuccess(view)

	c.successToken++
	token := c.successToken
	c.after(c.removedDelay, func() {
		c.autoClose(token)
	})
}

func (c *Controller) autoClose(token uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.screen.Kind != ScreenSuccess || token != c.successToken {
		return
	}
	c.toCatalog()
}

// reopenModal enforces the single-surface rule: entering a modal state
// while another modal is visible closes it first.
func (c *Controller) reopenModal() {
	if c.screen.Modal() {
		c.presenter.CloseModal()
	}
}

func (c *Controller) toCatalog() {
	if c.screen.Modal() {
		c.presenter.CloseModal()
	}
	c.successToken++
	c.screen = Screen{Kind: ScreenCatalog}
	view := RenderCatalog(c.catalog.Snapshot().All(), c.basket.Has)
	c.lastView = view
	c.presenter.ShowCatalog(view)
}

func (c *Controller) showProduct(p catalog.Product) {
	view := RenderProduct(p, c.basket.Has(p.ID))
	c.lastView = view
	c.presenter.ShowProduct(view)
}

func (c *Controller) showBasket() {
	view := RenderBasket(c.basket.Items(), c.basket.Total())
	c.lastView = view
	c.presenter.ShowBasket(view)
}

func (c *Controller) showAddressForm(view AddressForm) {
	c.lastView = view
	c.presenter.ShowAddressForm(view)
}

func (c *Controller) showContactsForm(errs []string, submitting bool) {
	payload := c.draft.Payload()
	res := c.draft.ValidateContacts()
	view := ContactsForm{
		Email:      payload.Email,
		Phone:      payload.Phone,
		Errors:     errs,
		CanPay:     res.IsValid && !submitting,
		Submitting: submitting,
	}
	c.lastView = view
	c.presenter.ShowContactsForm(view)
}
