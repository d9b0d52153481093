package port

import (
	"context"
	"errors"

	"github.com/rl1809/pos-inventory/internal/core/domain"
)

var (
	ErrRecordNotFound = errors.New("inventory record not found")
	ErrRecordExists   = errors.New("inventory record already exists")
	ErrInvalidDelta   = errors.New("increment must be positive")
	ErrCounterLimit   = errors.New("counter would exceed its limit")
)

// IncrementResult is the outcome of a conditional sold-count increment.
// Record is the state observed by the same atomic operation.
type IncrementResult struct {
	Committed bool
	Record    domain.InventoryRecord
}

type InventoryRepository interface {
	// FetchRecord returns ErrRecordNotFound when the product has no record
	FetchRecord(ctx context.Context, storeID, productID string) (domain.InventoryRecord, error)

	// ConditionalIncrementSold atomically adds quantity to sold_count only if it stays <= stock,
	// ErrInvalidDelta when quantity <= 0
	ConditionalIncrementSold(ctx context.Context, storeID, productID string, quantity int) (IncrementResult, error)

	// IncrementStock atomically adds amount to stock and returns the updated record,
	// ErrCounterLimit when stock would pass domain.MaxCounter
	IncrementStock(ctx context.Context, storeID, productID string, amount int) (domain.InventoryRecord, error)

	// CreateRecord inserts a record with sold_count = 0, ErrRecordExists if present
	CreateRecord(ctx context.Context, storeID, productID string, stock int) (domain.InventoryRecord, error)

	// DeleteRecord removes a record, ErrRecordNotFound if absent
	DeleteRecord(ctx context.Context, storeID, productID string) error
}
