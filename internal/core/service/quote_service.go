package service

import (
	"context"
	"errors"

	"github.com/rl1809/pos-inventory/internal/core/cart"
	"github.com/rl1809/pos-inventory/internal/core/domain"
)

type QuoteLine struct {
	ProductID      string
	Name           string
	Quantity       int
	UnitPriceCents int64
}

// QuotedLine is the quantity the cart accepted for a requested line.
type QuotedLine struct {
	ProductID string
	Requested int
	Quantity  int
	Available int
	Signal    cart.Signal
}

type Quote struct {
	StoreID string
	Lines   []QuotedLine
	Totals  cart.Totals
}

// QuoteService prices a basket the way a register would: each line is added to
// a cart built from a fresh snapshot and clamped to what is available. Nothing
// is reserved.
type QuoteService struct {
	inventory      *InventoryService
	taxBasisPoints int
}

func NewQuoteService(inventory *InventoryService, taxBasisPoints int) *QuoteService {
	return &QuoteService{inventory: inventory, taxBasisPoints: taxBasisPoints}
}

func (s *QuoteService) Quote(ctx context.Context, storeID string, lines []QuoteLine) (Quote, error) {
	req := domain.CheckoutRequest{StoreID: storeID}
	for _, l := range lines {
		req.Lines = append(req.Lines, domain.CheckoutLine{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	if err := ValidateCheckout(req); err != nil {
		return Quote{}, err
	}

	c := cart.New()
	quote := Quote{StoreID: storeID, Lines: make([]QuotedLine, 0, len(lines))}

	for _, l := range lines {
		ql := QuotedLine{ProductID: l.ProductID, Requested: l.Quantity}

		rec, err := s.inventory.Fetch(ctx, storeID, l.ProductID)
		if errors.Is(err, ErrNotFound) {
			ql.Signal = cart.SignalRemoved
			quote.Lines = append(quote.Lines, ql)
			continue
		}
		if err != nil {
			return Quote{}, err
		}
		ql.Available = rec.Available()

		product := domain.Product{Record: rec, Name: l.Name, UnitPriceCents: l.UnitPriceCents}
		if out := c.AddOne(product); out.Signal != cart.SignalOK {
			ql.Signal = out.Signal
			quote.Lines = append(quote.Lines, ql)
			continue
		}

		out, err := c.SetQuantity(l.ProductID, l.Quantity, rec, cart.Confirmed)
		if err != nil {
			return Quote{}, err
		}
		ql.Quantity = out.Quantity
		ql.Signal = out.Signal
		quote.Lines = append(quote.Lines, ql)
	}

	quote.Totals = c.Totals(s.taxBasisPoints)
	return quote, nil
}
