package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rl1809/pos-inventory/internal/core/domain"
	"github.com/rl1809/pos-inventory/internal/port"
)

type RestockService struct {
	repo         port.InventoryRepository
	events       *EventDispatcher
	logger       *zap.Logger
	storeTimeout time.Duration
}

func NewRestockService(repo port.InventoryRepository, events *EventDispatcher, logger *zap.Logger, storeTimeout time.Duration) *RestockService {
	return &RestockService{
		repo:         repo,
		events:       events,
		logger:       logger,
		storeTimeout: storeTimeout,
	}
}

// Restock adds amount to the product's stock and returns the fresh record so
// the caller can recompute availability without another read.
func (s *RestockService) Restock(ctx context.Context, storeID, productID string, amount int) (domain.InventoryRecord, error) {
	if amount <= 0 || amount > domain.MaxCounter {
		return domain.InventoryRecord{}, ErrInvalidAmount
	}
	if storeID == "" {
		return domain.InventoryRecord{}, ErrMissingStore
	}
	if productID == "" {
		return domain.InventoryRecord{}, ErrMissingProduct
	}

	ctx, cancel := withTimeout(ctx, s.storeTimeout)
	defer cancel()

	rec, err := s.repo.IncrementStock(ctx, storeID, productID, amount)
	if err != nil {
		return domain.InventoryRecord{}, storeError("restock", err)
	}

	s.logger.Info("restocked",
		zap.String("store_id", storeID),
		zap.String("product_id", productID),
		zap.Int("amount", amount),
		zap.Int("stock", rec.Stock),
		zap.Int("available", rec.Available()),
	)

	if s.events != nil {
		s.events.Enqueue(domain.Event{
			ID:         uuid.NewString(),
			Type:       domain.EventStockRestocked,
			StoreID:    storeID,
			ProductID:  productID,
			Quantity:   amount,
			Stock:      rec.Stock,
			SoldCount:  rec.SoldCount,
			OccurredAt: time.Now().UTC(),
		})
	}
	return rec, nil
}
