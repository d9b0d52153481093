package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rl1809/pos-inventory/internal/core/cart"
)

func TestQuote_ClampsAndPrices(t *testing.T) {
	repo := newMockInventoryRepo(stocked("coffee", 10, 0), stocked("muffin", 5, 2), stocked("bagel", 2, 2))
	svc := NewQuoteService(NewInventoryService(repo, zaptest.NewLogger(t), time.Second), cart.DefaultTaxBasisPoints)

	quote, err := svc.Quote(context.Background(), "store-1", []QuoteLine{
		{ProductID: "coffee", Quantity: 2, UnitPriceCents: 450},
		{ProductID: "muffin", Quantity: 999, UnitPriceCents: 300},
		{ProductID: "bagel", Quantity: 1, UnitPriceCents: 250},
		{ProductID: "ghost", Quantity: 1, UnitPriceCents: 100},
	})
	require.NoError(t, err)
	require.Len(t, quote.Lines, 4)

	assert.Equal(t, QuotedLine{ProductID: "coffee", Requested: 2, Quantity: 2, Available: 10, Signal: cart.SignalOK}, quote.Lines[0])
	assert.Equal(t, QuotedLine{ProductID: "muffin", Requested: 999, Quantity: 3, Available: 3, Signal: cart.SignalReducedToCeiling}, quote.Lines[1])
	assert.Equal(t, cart.SignalLimitReached, quote.Lines[2].Signal)
	assert.Equal(t, 0, quote.Lines[2].Quantity)
	assert.Equal(t, cart.SignalRemoved, quote.Lines[3].Signal)

	// 2*450 + 3*300 = 1800; 7% tax = 126
	assert.Equal(t, 5, quote.Totals.Items)
	assert.Equal(t, int64(1800), quote.Totals.Subtotal)
	assert.Equal(t, int64(126), quote.Totals.Tax)
	assert.Equal(t, int64(1926), quote.Totals.Total)

	// Quoting reserves nothing.
	assert.Equal(t, 2, repo.record("muffin").SoldCount)
}

func TestQuote_InvalidRequest(t *testing.T) {
	repo := newMockInventoryRepo(stocked("coffee", 10, 0))
	svc := NewQuoteService(NewInventoryService(repo, zaptest.NewLogger(t), time.Second), 0)

	_, err := svc.Quote(context.Background(), "store-1", nil)
	assert.ErrorIs(t, err, ErrEmptyCheckout)

	_, err = svc.Quote(context.Background(), "store-1", []QuoteLine{{ProductID: "coffee", Quantity: 0}})
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}
