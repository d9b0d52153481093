package storage

import (
	"context"
	"sync"
	"time"

	"github.com/rl1809/pos-inventory/internal/core/domain"
	"github.com/rl1809/pos-inventory/internal/port"
)

type memoryKey struct {
	storeID   string
	productID string
}

// MemoryAdapter keeps inventory records in process. A single mutex serialises
// every mutation, which makes each update linearizable.
type MemoryAdapter struct {
	mu      sync.Mutex
	records map[memoryKey]domain.InventoryRecord
}

func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{records: make(map[memoryKey]domain.InventoryRecord)}
}

func (m *MemoryAdapter) FetchRecord(ctx context.Context, storeID, productID string) (domain.InventoryRecord, error) {
	if err := ctx.Err(); err != nil {
		return domain.InventoryRecord{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[memoryKey{storeID, productID}]
	if !ok {
		return domain.InventoryRecord{}, port.ErrRecordNotFound
	}
	return rec, nil
}

func (m *MemoryAdapter) ConditionalIncrementSold(ctx context.Context, storeID, productID string, quantity int) (port.IncrementResult, error) {
	if err := ctx.Err(); err != nil {
		return port.IncrementResult{}, err
	}
	if quantity <= 0 {
		return port.IncrementResult{}, port.ErrInvalidDelta
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := memoryKey{storeID, productID}
	rec, ok := m.records[key]
	if !ok {
		return port.IncrementResult{}, port.ErrRecordNotFound
	}
	if quantity > rec.Stock-rec.SoldCount {
		return port.IncrementResult{Committed: false, Record: rec}, nil
	}

	rec.SoldCount += quantity
	rec.Version++
	rec.UpdatedAt = time.Now().UTC()
	m.records[key] = rec
	return port.IncrementResult{Committed: true, Record: rec}, nil
}

func (m *MemoryAdapter) IncrementStock(ctx context.Context, storeID, productID string, amount int) (domain.InventoryRecord, error) {
	if err := ctx.Err(); err != nil {
		return domain.InventoryRecord{}, err
	}
	if amount <= 0 {
		return domain.InventoryRecord{}, port.ErrInvalidDelta
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := memoryKey{storeID, productID}
	rec, ok := m.records[key]
	if !ok {
		return domain.InventoryRecord{}, port.ErrRecordNotFound
	}
	if amount > domain.MaxCounter-rec.Stock {
		return domain.InventoryRecord{}, port.ErrCounterLimit
	}

	rec.Stock += amount
	rec.Version++
	rec.UpdatedAt = time.Now().UTC()
	m.records[key] = rec
	return rec, nil
}

func (m *MemoryAdapter) CreateRecord(ctx context.Context, storeID, productID string, stock int) (domain.InventoryRecord, error) {
	if err := ctx.Err(); err != nil {
		return domain.InventoryRecord{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := memoryKey{storeID, productID}
	if _, ok := m.records[key]; ok {
		return domain.InventoryRecord{}, port.ErrRecordExists
	}
	if stock > domain.MaxCounter {
		return domain.InventoryRecord{}, port.ErrCounterLimit
	}

	rec := domain.InventoryRecord{
		StoreID:   storeID,
		ProductID: productID,
		Stock:     stock,
		UpdatedAt: time.Now().UTC(),
	}
	m.records[key] = rec
	return rec, nil
}

func (m *MemoryAdapter) DeleteRecord(ctx context.Context, storeID, productID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := memoryKey{storeID, productID}
	if _, ok := m.records[key]; !ok {
		return port.ErrRecordNotFound
	}
	delete(m.records, key)
	return nil
}

// Seed writes a record directly, bypassing the counters' mutation rules.
func (m *MemoryAdapter) Seed(rec domain.InventoryRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[memoryKey{rec.StoreID, rec.ProductID}] = rec
}
