package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/rl1809/pos-inventory/internal/core/domain"
	"github.com/rl1809/pos-inventory/internal/port"
)

// InventoryService serves fresh record snapshots to registers and manages the
// record lifecycle on behalf of the catalog.
type InventoryService struct {
	repo         port.InventoryRepository
	logger       *zap.Logger
	storeTimeout time.Duration
	group        singleflight.Group
}

func NewInventoryService(repo port.InventoryRepository, logger *zap.Logger, storeTimeout time.Duration) *InventoryService {
	return &InventoryService{
		repo:         repo,
		logger:       logger,
		storeTimeout: storeTimeout,
	}
}

// Fetch reads the current record. Concurrent fetches of the same record share
// one store round trip, which runs detached from any single caller's
// cancellation and is bounded by the store timeout instead.
func (s *InventoryService) Fetch(ctx context.Context, storeID, productID string) (domain.InventoryRecord, error) {
	if storeID == "" {
		return domain.InventoryRecord{}, ErrMissingStore
	}
	if productID == "" {
		return domain.InventoryRecord{}, ErrMissingProduct
	}

	v, err, _ := s.group.Do(storeID+"/"+productID, func() (interface{}, error) {
		ctx, cancel := withTimeout(context.WithoutCancel(ctx), s.storeTimeout)
		defer cancel()
		return s.repo.FetchRecord(ctx, storeID, productID)
	})
	if err != nil {
		return domain.InventoryRecord{}, storeError("fetch", err)
	}

	rec := v.(domain.InventoryRecord)
	if err := rec.Validate(); err != nil {
		s.logger.Error("store returned invalid record",
			zap.String("store_id", storeID),
			zap.String("product_id", productID),
			zap.Error(err),
		)
		return domain.InventoryRecord{}, fmt.Errorf("fetch: %w", err)
	}
	return rec, nil
}

// Register creates the record for a newly added product with nothing sold.
func (s *InventoryService) Register(ctx context.Context, storeID, productID string, stock int) (domain.InventoryRecord, error) {
	if storeID == "" {
		return domain.InventoryRecord{}, ErrMissingStore
	}
	if productID == "" {
		return domain.InventoryRecord{}, ErrMissingProduct
	}
	if stock < 0 || stock > domain.MaxCounter {
		return domain.InventoryRecord{}, ErrInvalidStock
	}

	ctx, cancel := withTimeout(ctx, s.storeTimeout)
	defer cancel()

	rec, err := s.repo.CreateRecord(ctx, storeID, productID, stock)
	if err != nil {
		return domain.InventoryRecord{}, storeError("register", err)
	}

	s.logger.Info("product registered",
		zap.String("store_id", storeID),
		zap.String("product_id", productID),
		zap.Int("stock", stock),
	)
	return rec, nil
}

// Retire deletes the record when the catalog drops the product.
func (s *InventoryService) Retire(ctx context.Context, storeID, productID string) error {
	if storeID == "" {
		return ErrMissingStore
	}
	if productID == "" {
		return ErrMissingProduct
	}

	ctx, cancel := withTimeout(ctx, s.storeTimeout)
	defer cancel()

	if err := s.repo.DeleteRecord(ctx, storeID, productID); err != nil {
		return storeError("retire", err)
	}

	s.logger.Info("product retired",
		zap.String("store_id", storeID),
		zap.String("product_id", productID),
	)
	return nil
}
