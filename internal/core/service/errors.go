package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rl1809/pos-inventory/internal/port"
)

var (
	ErrEmptyCheckout     = errors.New("checkout has no lines")
	ErrMissingStore      = errors.New("store id is required")
	ErrMissingProduct    = errors.New("product id is required")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrDuplicateLine     = errors.New("product appears on more than one line")
	ErrInvalidAmount     = errors.New("restock amount must be positive and within the stock limit")
	ErrInvalidStock      = errors.New("initial stock must be between zero and the stock limit")
	ErrStockLimit        = errors.New("stock would exceed its limit")
	ErrNotFound          = errors.New("product not found")
	ErrAlreadyRegistered = errors.New("product already registered")
	ErrStoreUnavailable  = errors.New("inventory store unavailable")
	ErrSettlementAborted = errors.New("settlement aborted")
)

// storeError maps a repository error onto the service taxonomy. Anything that
// is not a known repository outcome is a fault with an unknown result.
func storeError(op string, err error) error {
	switch {
	case errors.Is(err, port.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case errors.Is(err, port.ErrRecordExists):
		return fmt.Errorf("%s: %w", op, ErrAlreadyRegistered)
	case errors.Is(err, port.ErrCounterLimit):
		return fmt.Errorf("%s: %w", op, ErrStockLimit)
	case errors.Is(err, port.ErrInvalidDelta):
		return fmt.Errorf("%s: %w", op, ErrInvalidQuantity)
	default:
		return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
	}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
