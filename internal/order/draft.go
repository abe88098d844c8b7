package order

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
)

// Payment method tokens accepted by the order form.
const (
	PaymentOnline = "online"
	PaymentCash   = "cash"
)

// ErrIncompleteOrder signals Submit was called on a draft that does not
// pass Validate. The screen flow guards against this; hitting it means a
// caller bypassed the flow.
var ErrIncompleteOrder = errors.New("order draft incomplete")

// KnownPayment reports whether the token is an accepted payment method.
func KnownPayment(token string) bool {
	return token == PaymentOnline || token == PaymentCash
}

// Payload is the order body sent to the shop API.
type Payload struct {
	Address string `json:"address"`
	Payment string `json:"payment"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
}

// Complete reports whether the payload passes the whole-draft gate:
// non-empty trimmed address, a known payment token, and valid contacts.
// Contacts are required for every payment method, cash included.
func (p Payload) Complete() bool {
	return strings.TrimSpace(p.Address) != "" &&
		KnownPayment(p.Payment) &&
		ValidEmail(p.Email) &&
		ValidPhone(p.Phone)
}

// Receipt is the shop API confirmation for a submitted order.
type Receipt struct {
	ID    string `json:"id"`
	Total int64  `json:"total"`
}

// Submitter sends a completed order to the shop API.
type Submitter interface {
	SubmitOrder(ctx context.Context, p Payload) (Receipt, error)
}

var (
	emailRe      = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	phoneGroupRe = regexp.MustCompile(`^\+7\s?\d{3}[\s-]?\d{3}[\s-]?\d{2}[\s-]?\d{2}$`)
	phonePlainRe = regexp.MustCompile(`^\+7\d{10}$`)
)

// ValidEmail checks for a single @ with non-whitespace local and domain
// parts and at least one dot in the domain.
func ValidEmail(email string) bool {
	return emailRe.MatchString(email)
}

// ValidPhone accepts +7 followed by ten digits, either unbroken or
// grouped 3-3-2-2 with spaces or hyphens.
func ValidPhone(phone string) bool {
	return phoneGroupRe.MatchString(phone) || phonePlainRe.MatchString(phone)
}

// ContactsResult is the joint validation outcome for the contacts step.
type ContactsResult struct {
	IsValid bool
	Errors  []string
}

// Draft accumulates the checkout form state across steps. Setters store
// raw values; validation is evaluated on demand.
type Draft struct {
	mu        sync.Mutex
	submitter Submitter

	address string
	payment string
	email   string
	phone   string
}

// NewDraft constructs an empty Draft that submits through the given submitter.
func NewDraft(submitter Submitter) *Draft {
	return &Draft{submitter: submitter}
}

// SetAddress stores the delivery address without validating it.
func (d *Draft) SetAddress(address string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.address = address
}

// SetPayment stores the payment method token without validating it.
func (d *Draft) SetPayment(token string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.payment = token
}

// SetEmail stores the raw email and reports its validity.
func (d *Draft) SetEmail(email string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.email = email
	return ValidEmail(email)
}

// SetPhone stores the raw phone and reports its validity.
func (d *Draft) SetPhone(phone string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.phone = phone
	return ValidPhone(phone)
}

// SetContacts stores both contact fields.
func (d *Draft) SetContacts(email, phone string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.email = email
	d.phone = phone
}

// ValidateContacts evaluates email and phone together and returns the
// per-field error messages for the contacts step.
func (d *Draft) ValidateContacts() ContactsResult {
	d.mu.Lock()
	defer d.mu.Unlock()

	var errs []string
	if !ValidEmail(d.email) {
		errs = append(errs, "enter a valid email")
	}
	if !ValidPhone(d.phone) {
		errs = append(errs, "enter a valid phone")
	}
	return ContactsResult{IsValid: len(errs) == 0, Errors: errs}
}

// Validate is the whole-draft gate over the current field values.
func (d *Draft) Validate() bool {
	return d.Payload().Complete()
}

// Payload returns a snapshot of the draft fields.
func (d *Draft) Payload() Payload {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Payload{
		Address: d.address,
		Payment: d.payment,
		Email:   d.email,
		Phone:   d.phone,
	}
}

// Submit snapshots the draft once and sends it to the shop API. It fails
// with ErrIncompleteOrder when Validate does not hold. The returned
// receipt carries the server's order id and total; the draft never
// computes a total itself.
func (d *Draft) Submit(ctx context.Context) (Receipt, error) {
	return d.SubmitPayload(ctx, d.Payload())
}

// SubmitPayload sends a previously captured payload snapshot. Callers
// that validated the draft before suspending submit exactly what they
// validated, even when the draft mutates in between. It fails with
// ErrIncompleteOrder when the snapshot does not pass Complete.
func (d *Draft) SubmitPayload(ctx context.Context, p Payload) (Receipt, error) {
	if !p.Complete() {
		return Receipt{}, ErrIncompleteOrder
	}
	return d.submitter.SubmitOrder(ctx, p)
}

// Clear resets every field to empty.
func (d *Draft) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.address = ""
	d.payment = ""
	d.email = ""
	d.phone = ""
}
