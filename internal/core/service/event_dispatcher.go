package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rl1809/pos-inventory/internal/core/domain"
	"github.com/rl1809/pos-inventory/internal/port"
)

const publishTimeout = 5 * time.Second

// EventDispatcher hands committed inventory events to a pool of workers that
// publish them off the request path. Events are best effort: a full queue
// drops the event rather than slowing down settlement.
type EventDispatcher struct {
	publisher port.EventPublisher
	logger    *zap.Logger
	queue     chan domain.Event

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewEventDispatcher(publisher port.EventPublisher, queueSize int, logger *zap.Logger) *EventDispatcher {
	return &EventDispatcher{
		publisher: publisher,
		logger:    logger,
		queue:     make(chan domain.Event, queueSize),
	}
}

func (d *EventDispatcher) Start(workers int) {
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go func(id int) {
			defer d.wg.Done()
			d.workerLoop(id)
		}(i)
	}
	d.logger.Info("event workers started", zap.Int("workers", workers))
}

// Enqueue reports whether the event was accepted.
func (d *EventDispatcher) Enqueue(event domain.Event) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return false
	}

	select {
	case d.queue <- event:
		return true
	default:
		d.logger.Warn("event queue full, dropping event",
			zap.String("type", string(event.Type)),
			zap.String("product_id", event.ProductID),
		)
		return false
	}
}

// Close stops accepting events and waits for the workers to drain the queue.
func (d *EventDispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
}

func (d *EventDispatcher) workerLoop(id int) {
	for event := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)

		if err := d.publisher.Publish(ctx, event); err != nil {
			d.logger.Error("publish event failed",
				zap.Int("worker", id),
				zap.String("event_id", event.ID),
				zap.String("type", string(event.Type)),
				zap.Error(err),
			)
		} else {
			d.logger.Debug("published event",
				zap.Int("worker", id),
				zap.String("event_id", event.ID),
				zap.String("type", string(event.Type)),
			)
		}

		cancel()
	}
}
