package domain

import "time"

type EventType string

const (
	EventSaleSettled    EventType = "sale.settled"
	EventStockRestocked EventType = "stock.restocked"
)

// Event is published after a committed mutation of an inventory record.
type Event struct {
	ID           string    `json:"id"`
	Type         EventType `json:"type"`
	SettlementID string    `json:"settlement_id,omitempty"`
	StoreID      string    `json:"store_id"`
	ProductID    string    `json:"product_id"`
	Quantity     int       `json:"quantity"`
	Stock        int       `json:"stock"`
	SoldCount    int       `json:"sold_count"`
	OccurredAt   time.Time `json:"occurred_at"`
}
