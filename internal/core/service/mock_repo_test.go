package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rl1809/pos-inventory/internal/core/domain"
	"github.com/rl1809/pos-inventory/internal/port"
)

// Mock InventoryRepository with per-product fault injection.
type mockInventoryRepo struct {
	mu      sync.Mutex
	records map[string]domain.InventoryRecord
	faults  map[string]error
	delay   time.Duration

	fetchGate  chan struct{}
	fetchCalls atomic.Int32
	calls      atomic.Int32
}

func newMockInventoryRepo(records ...domain.InventoryRecord) *mockInventoryRepo {
	m := &mockInventoryRepo{
		records: make(map[string]domain.InventoryRecord),
		faults:  make(map[string]error),
	}
	for _, r := range records {
		m.records[r.ProductID] = r
	}
	return m
}

func (m *mockInventoryRepo) failOn(productID string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.faults[productID] = err
}

func (m *mockInventoryRepo) record(productID string) domain.InventoryRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records[productID]
}

func (m *mockInventoryRepo) enter(ctx context.Context, productID string) error {
	m.calls.Add(1)
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.faults[productID]
}

func (m *mockInventoryRepo) FetchRecord(ctx context.Context, storeID, productID string) (domain.InventoryRecord, error) {
	m.fetchCalls.Add(1)
	if m.fetchGate != nil {
		<-m.fetchGate
	}
	if err := ctx.Err(); err != nil {
		return domain.InventoryRecord{}, err
	}
	if err := m.enter(ctx, productID); err != nil {
		return domain.InventoryRecord{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[productID]
	if !ok {
		return domain.InventoryRecord{}, port.ErrRecordNotFound
	}
	return rec, nil
}

func (m *mockInventoryRepo) ConditionalIncrementSold(ctx context.Context, storeID, productID string, quantity int) (port.IncrementResult, error) {
	if err := m.enter(ctx, productID); err != nil {
		return port.IncrementResult{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[productID]
	if !ok {
		return port.IncrementResult{}, port.ErrRecordNotFound
	}
	if quantity > rec.Stock-rec.SoldCount {
		return port.IncrementResult{Record: rec}, nil
	}
	rec.SoldCount += quantity
	rec.Version++
	m.records[productID] = rec
	return port.IncrementResult{Committed: true, Record: rec}, nil
}

func (m *mockInventoryRepo) IncrementStock(ctx context.Context, storeID, productID string, amount int) (domain.InventoryRecord, error) {
	if err := m.enter(ctx, productID); err != nil {
		return domain.InventoryRecord{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[productID]
	if !ok {
		return domain.InventoryRecord{}, port.ErrRecordNotFound
	}
	if amount > domain.MaxCounter-rec.Stock {
		return domain.InventoryRecord{}, port.ErrCounterLimit
	}
	rec.Stock += amount
	rec.Version++
	m.records[productID] = rec
	return rec, nil
}

func (m *mockInventoryRepo) CreateRecord(ctx context.Context, storeID, productID string, stock int) (domain.InventoryRecord, error) {
	if err := m.enter(ctx, productID); err != nil {
		return domain.InventoryRecord{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[productID]; ok {
		return domain.InventoryRecord{}, port.ErrRecordExists
	}
	rec := domain.InventoryRecord{StoreID: storeID, ProductID: productID, Stock: stock}
	m.records[productID] = rec
	return rec, nil
}

func (m *mockInventoryRepo) DeleteRecord(ctx context.Context, storeID, productID string) error {
	if err := m.enter(ctx, productID); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[productID]; !ok {
		return port.ErrRecordNotFound
	}
	delete(m.records, productID)
	return nil
}

// Mock EventPublisher
type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.Event
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, event domain.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) published() []domain.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.Event, len(p.events))
	copy(out, p.events)
	return out
}

func stocked(productID string, stock, sold int) domain.InventoryRecord {
	return domain.InventoryRecord{StoreID: "store-1", ProductID: productID, Stock: stock, SoldCount: sold}
}
