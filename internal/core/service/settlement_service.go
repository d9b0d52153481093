package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rl1809/pos-inventory/internal/core/domain"
	"github.com/rl1809/pos-inventory/internal/port"
)

// SettlementService commits checkout lines against the authoritative
// inventory. It is the only writer of sold counts.
type SettlementService struct {
	repo         port.InventoryRepository
	events       *EventDispatcher
	logger       *zap.Logger
	storeTimeout time.Duration
}

func NewSettlementService(repo port.InventoryRepository, events *EventDispatcher, logger *zap.Logger, storeTimeout time.Duration) *SettlementService {
	return &SettlementService{
		repo:         repo,
		events:       events,
		logger:       logger,
		storeTimeout: storeTimeout,
	}
}

// Settle attempts every line once, in order, with one conditional increment
// each. Lines are independent: a rejected line never rolls back a committed
// one. A store fault stops the run; the faulted line is reported as unknown,
// the rest as not attempted, and the partial result is returned with an error
// wrapping ErrStoreUnavailable.
func (s *SettlementService) Settle(ctx context.Context, req domain.CheckoutRequest) (domain.CheckoutResult, error) {
	if err := ValidateCheckout(req); err != nil {
		return domain.CheckoutResult{}, err
	}

	result := domain.CheckoutResult{
		SettlementID: uuid.NewString(),
		StoreID:      req.StoreID,
		Lines:        make([]domain.LineResult, 0, len(req.Lines)),
	}

	for i, line := range req.Lines {
		if err := ctx.Err(); err != nil {
			result.Lines = append(result.Lines, notAttempted(req.Lines[i:])...)
			return result, fmt.Errorf("%w: %w", ErrSettlementAborted, err)
		}

		lr, err := s.settleLine(ctx, result.SettlementID, req.StoreID, line)
		if err != nil {
			result.Lines = append(result.Lines, domain.LineResult{
				ProductID: line.ProductID,
				Requested: line.Quantity,
				Status:    domain.LineUnknown,
			})
			result.Lines = append(result.Lines, notAttempted(req.Lines[i+1:])...)

			s.logger.Error("settlement aborted on store fault",
				zap.String("settlement_id", result.SettlementID),
				zap.String("store_id", req.StoreID),
				zap.String("product_id", line.ProductID),
				zap.Error(err),
			)
			return result, fmt.Errorf("settle %s: %w: %w", line.ProductID, ErrStoreUnavailable, err)
		}
		result.Lines = append(result.Lines, lr)
	}

	s.logger.Info("checkout settled",
		zap.String("settlement_id", result.SettlementID),
		zap.String("store_id", req.StoreID),
		zap.String("status", string(result.Status())),
		zap.Int("lines", len(result.Lines)),
	)
	return result, nil
}

func (s *SettlementService) settleLine(ctx context.Context, settlementID, storeID string, line domain.CheckoutLine) (domain.LineResult, error) {
	lineCtx, cancel := withTimeout(ctx, s.storeTimeout)
	defer cancel()

	res, err := s.repo.ConditionalIncrementSold(lineCtx, storeID, line.ProductID, line.Quantity)
	if errors.Is(err, port.ErrRecordNotFound) {
		return domain.Rejected(line.ProductID, line.Quantity, domain.ReasonNotFound, 0), nil
	}
	if err != nil {
		return domain.LineResult{}, err
	}

	if !res.Committed {
		s.logger.Info("line rejected",
			zap.String("settlement_id", settlementID),
			zap.String("product_id", line.ProductID),
			zap.Int("requested", line.Quantity),
			zap.Int("available", res.Record.Available()),
		)
		return domain.Rejected(line.ProductID, line.Quantity, domain.ReasonInsufficientStock, res.Record.Available()), nil
	}

	if s.events != nil {
		s.events.Enqueue(domain.Event{
			ID:           uuid.NewString(),
			Type:         domain.EventSaleSettled,
			SettlementID: settlementID,
			StoreID:      storeID,
			ProductID:    line.ProductID,
			Quantity:     line.Quantity,
			Stock:        res.Record.Stock,
			SoldCount:    res.Record.SoldCount,
			OccurredAt:   time.Now().UTC(),
		})
	}
	return domain.Committed(line.ProductID, line.Quantity), nil
}

// ValidateCheckout reports the first input error in req without touching the
// store. Settle runs it before any mutation; transports call it before
// claiming an idempotency key so a rejected request never burns the key.
func ValidateCheckout(req domain.CheckoutRequest) error {
	if req.StoreID == "" {
		return ErrMissingStore
	}
	if len(req.Lines) == 0 {
		return ErrEmptyCheckout
	}

	seen := make(map[string]struct{}, len(req.Lines))
	for _, line := range req.Lines {
		if line.ProductID == "" {
			return ErrMissingProduct
		}
		if line.Quantity <= 0 {
			return fmt.Errorf("%w: %s has %d", ErrInvalidQuantity, line.ProductID, line.Quantity)
		}
		if _, dup := seen[line.ProductID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateLine, line.ProductID)
		}
		seen[line.ProductID] = struct{}{}
	}
	return nil
}

func notAttempted(lines []domain.CheckoutLine) []domain.LineResult {
	out := make([]domain.LineResult, 0, len(lines))
	for _, l := range lines {
		out = append(out, domain.LineResult{
			ProductID: l.ProductID,
			Requested: l.Quantity,
			Status:    domain.LineNotAttempted,
		})
	}
	return out
}
