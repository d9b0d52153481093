package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/rl1809/pos-inventory/internal/core/domain"
)

// Publisher sends inventory events to the topic exchange.
type Publisher struct {
	ch *amqp.Channel
}

func NewPublisher(ch *amqp.Channel) *Publisher {
	return &Publisher{ch: ch}
}

func (p *Publisher) Publish(ctx context.Context, event domain.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("could not marshal event: %w", err)
	}

	return p.ch.PublishWithContext(ctx,
		ExchangeName,      // exchange
		RoutingKey(event), // routing key
		false,             // mandatory
		false,             // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    event.ID,
			Type:         string(event.Type),
			Timestamp:    event.OccurredAt,
			Body:         body,
		},
	)
}

// RoutingKey is inventory.<type>.<store>, e.g. inventory.sale.settled.store-1.
// Dots in the store id would add topic words, so they are replaced.
func RoutingKey(event domain.Event) string {
	return fmt.Sprintf("inventory.%s.%s", event.Type, strings.ReplaceAll(event.StoreID, ".", "_"))
}
