package port

import (
	"context"

	"github.com/rl1809/pos-inventory/internal/core/domain"
)

type EventPublisher interface {
	// Publish delivers one inventory event to the broker
	Publish(ctx context.Context, event domain.Event) error
}
