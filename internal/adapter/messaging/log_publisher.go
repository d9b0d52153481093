package messaging

import (
	"context"

	"go.uber.org/zap"

	"github.com/rl1809/pos-inventory/internal/core/domain"
)

// LogPublisher writes events to the log. It stands in for the broker when
// none is configured.
type LogPublisher struct {
	logger *zap.Logger
}

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, event domain.Event) error {
	p.logger.Info("inventory event",
		zap.String("event_id", event.ID),
		zap.String("type", string(event.Type)),
		zap.String("routing_key", RoutingKey(event)),
		zap.String("settlement_id", event.SettlementID),
		zap.String("product_id", event.ProductID),
		zap.Int("quantity", event.Quantity),
		zap.Int("stock", event.Stock),
		zap.Int("sold_count", event.SoldCount),
	)
	return nil
}
