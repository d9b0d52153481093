// Package cart holds the client-local reservation list of one register session.
//
// A Cart is owned by a single session and is not safe for concurrent use. It
// never talks to the inventory store: every bound is computed from the record
// snapshot handed in by the caller, so quantities can go stale until checkout
// settles them against the authoritative counters.
package cart

import (
	"errors"

	"github.com/rl1809/pos-inventory/internal/core/domain"
)

var (
	ErrNotInCart      = errors.New("product not in cart")
	ErrRecordMismatch = errors.New("record belongs to another product")
	ErrEmptyCart      = errors.New("cart is empty")
)

// EntryState tells whether an entry's quantity has been confirmed or is still
// being edited in the quantity field.
type EntryState int

const (
	Confirmed EntryState = iota
	PendingEdit
)

func (s EntryState) String() string {
	switch s {
	case Confirmed:
		return "confirmed"
	case PendingEdit:
		return "pending_edit"
	default:
		return "unknown"
	}
}

type Signal string

const (
	SignalOK               Signal = "ok"
	SignalLimitReached     Signal = "limit_reached"
	SignalReducedToCeiling Signal = "reduced_to_ceiling"
	SignalRaisedToMinimum  Signal = "raised_to_minimum"
	SignalRemoved          Signal = "removed"
)

// Outcome reports what a quantity edit did. Ceiling is the availability the
// decision was made against.
type Outcome struct {
	Signal   Signal
	Quantity int
	Ceiling  int
}

type Entry struct {
	ProductID      string
	Name           string
	UnitPriceCents int64
	Quantity       int
	State          EntryState
}

type Cart struct {
	order   []string
	entries map[string]*Entry
}

func New() *Cart {
	return &Cart{entries: make(map[string]*Entry)}
}

// AddOne adds a single unit of the product if the snapshot still has room for it.
func (c *Cart) AddOne(p domain.Product) Outcome {
	id := p.ID()
	ceiling := p.Record.Available()

	current := 0
	e, ok := c.entries[id]
	if ok {
		current = e.Quantity
	}

	if current+1 > ceiling {
		return Outcome{Signal: SignalLimitReached, Quantity: current, Ceiling: ceiling}
	}

	if !ok {
		e = &Entry{ProductID: id}
		c.entries[id] = e
		c.order = append(c.order, id)
	}
	e.Name = p.Name
	e.UnitPriceCents = p.UnitPriceCents
	e.Quantity = current + 1
	e.State = Confirmed

	return Outcome{Signal: SignalOK, Quantity: e.Quantity, Ceiling: ceiling}
}

// SetQuantity clamps requested into [0, available(rec)] and stores it.
//
// A zero result removes the entry, except while the field is being edited
// (PendingEdit), where the entry is kept at zero. Confirming such a pending
// entry raises it back to one when stock allows, otherwise removes it.
func (c *Cart) SetQuantity(productID string, requested int, rec domain.InventoryRecord, state EntryState) (Outcome, error) {
	if rec.ProductID != productID {
		return Outcome{}, ErrRecordMismatch
	}
	e, ok := c.entries[productID]
	if !ok {
		return Outcome{}, ErrNotInCart
	}

	ceiling := rec.Available()
	q := requested
	signal := SignalOK
	if q < 0 {
		q = 0
	}
	if q > ceiling {
		q = ceiling
		signal = SignalReducedToCeiling
	}

	if q == 0 {
		switch {
		case state == PendingEdit:
			e.Quantity = 0
			e.State = PendingEdit
			return Outcome{Signal: signal, Quantity: 0, Ceiling: ceiling}, nil
		case e.State == PendingEdit && ceiling > 0:
			e.Quantity = 1
			e.State = Confirmed
			return Outcome{Signal: SignalRaisedToMinimum, Quantity: 1, Ceiling: ceiling}, nil
		default:
			c.RemoveAll(productID)
			return Outcome{Signal: SignalRemoved, Quantity: 0, Ceiling: ceiling}, nil
		}
	}

	e.Quantity = q
	e.State = state
	return Outcome{Signal: signal, Quantity: q, Ceiling: ceiling}, nil
}

// Confirm re-validates the entry's current quantity, as when the quantity
// field loses focus.
func (c *Cart) Confirm(productID string, rec domain.InventoryRecord) (Outcome, error) {
	e, ok := c.entries[productID]
	if !ok {
		return Outcome{}, ErrNotInCart
	}
	return c.SetQuantity(productID, e.Quantity, rec, Confirmed)
}

// RemoveOne takes a single unit off the entry; the last unit removes it.
func (c *Cart) RemoveOne(productID string, rec domain.InventoryRecord) (Outcome, error) {
	if rec.ProductID != productID {
		return Outcome{}, ErrRecordMismatch
	}
	e, ok := c.entries[productID]
	if !ok {
		return Outcome{}, ErrNotInCart
	}

	ceiling := rec.Available()
	q := e.Quantity - 1
	if q <= 0 {
		c.RemoveAll(productID)
		return Outcome{Signal: SignalRemoved, Quantity: 0, Ceiling: ceiling}, nil
	}
	if q > ceiling {
		return c.SetQuantity(productID, q, rec, Confirmed)
	}

	e.Quantity = q
	e.State = Confirmed
	return Outcome{Signal: SignalOK, Quantity: q, Ceiling: ceiling}, nil
}

func (c *Cart) RemoveAll(productID string) {
	if _, ok := c.entries[productID]; !ok {
		return
	}
	delete(c.entries, productID)
	for i, id := range c.order {
		if id == productID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

func (c *Cart) Clear() {
	c.order = nil
	c.entries = make(map[string]*Entry)
}

func (c *Cart) Len() int {
	return len(c.order)
}

func (c *Cart) Get(productID string) (Entry, bool) {
	e, ok := c.entries[productID]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Snapshot returns a copy of the entries in insertion order.
func (c *Cart) Snapshot() []Entry {
	out := make([]Entry, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, *c.entries[id])
	}
	return out
}

// Request builds the checkout request, one line per entry with a positive
// quantity.
func (c *Cart) Request(storeID string) (domain.CheckoutRequest, error) {
	req := domain.CheckoutRequest{StoreID: storeID}
	for _, e := range c.Snapshot() {
		if e.Quantity <= 0 {
			continue
		}
		req.Lines = append(req.Lines, domain.CheckoutLine{ProductID: e.ProductID, Quantity: e.Quantity})
	}
	if len(req.Lines) == 0 {
		return domain.CheckoutRequest{}, ErrEmptyCart
	}
	return req, nil
}
