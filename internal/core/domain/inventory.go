package domain

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var ErrInvalidRecord = errors.New("invalid inventory record")

// MaxCounter bounds stock and sold_count in every store. It matches the INT
// columns of the SQL schemas.
const MaxCounter = math.MaxInt32

// InventoryRecord is the stock and sold counters of one product in one store.
type InventoryRecord struct {
	StoreID   string
	ProductID string
	Stock     int
	SoldCount int
	Version   int // bumped on every mutation
	UpdatedAt time.Time
}

// Available returns the sellable quantity, floored at zero.
func Available(stock, soldCount int) int {
	if soldCount >= stock {
		return 0
	}
	return stock - soldCount
}

func (r InventoryRecord) Available() int {
	return Available(r.Stock, r.SoldCount)
}

// Validate checks 0 <= SoldCount <= Stock.
func (r InventoryRecord) Validate() error {
	if r.ProductID == "" {
		return fmt.Errorf("%w: missing product id", ErrInvalidRecord)
	}
	if r.Stock < 0 || r.SoldCount < 0 {
		return fmt.Errorf("%w: negative counter (stock=%d sold=%d)", ErrInvalidRecord, r.Stock, r.SoldCount)
	}
	if r.Stock > MaxCounter {
		return fmt.Errorf("%w: stock %d above limit", ErrInvalidRecord, r.Stock)
	}
	if r.SoldCount > r.Stock {
		return fmt.Errorf("%w: sold %d exceeds stock %d", ErrInvalidRecord, r.SoldCount, r.Stock)
	}
	return nil
}

// Product is the catalog snapshot the cart works from.
type Product struct {
	Record         InventoryRecord
	Name           string
	UnitPriceCents int64
}

func (p Product) ID() string {
	return p.Record.ProductID
}
