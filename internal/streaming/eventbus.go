package streaming

import (
	"context"
	"strconv"
	"sync"

	"honeypot-lab/pkg/logger"
)

// Publisher is the broker side of the event bus
type Publisher interface {
	IsConnected() bool
	Publish(ctx context.Context, event *HoneypotEvent) error
	Close()
}

// EventBus distributes honeypot events to local subscribers and, when
// configured, to NATS for other instances
type EventBus struct {
	broker Publisher
	logger *logger.Logger

	mu          sync.RWMutex
	subscribers map[string]chan *HoneypotEvent
	nextID      int
}

// NewEventBus creates a new event bus. broker may be nil.
func NewEventBus(broker Publisher, log *logger.Logger) *EventBus {
	return &EventBus{
		broker:      broker,
		logger:      log.WithComponent("event-bus"),
		subscribers: make(map[string]chan *HoneypotEvent),
	}
}

// Publish publishes an event to all subscribers. Slow subscribers lose events
// instead of blocking the request path.
func (eb *EventBus) Publish(ctx context.Context, event *HoneypotEvent) error {
	if eb.broker != nil && eb.broker.IsConnected() {
		if err := eb.broker.Publish(ctx, event); err != nil {
			eb.logger.Warn().Err(err).Msg("failed to publish to NATS, using local broadcast only")
		}
	}

	eb.mu.RLock()
	defer eb.mu.RUnlock()

	for id, ch := range eb.subscribers {
		select {
		case ch <- event:
		default:
			eb.logger.Debug().Str("subscriber", id).Msg("subscriber channel full, dropping event")
		}
	}

	return nil
}

// Subscribe creates a new local subscription and returns its channel and an
// unsubscribe function
func (eb *EventBus) Subscribe(ctx context.Context, sub *Subscription) (<-chan *HoneypotEvent, func()) {
	eb.mu.Lock()
	eb.nextID++
	id := strconv.Itoa(eb.nextID)
	ch := make(chan *HoneypotEvent, 100)
	eb.subscribers[id] = ch
	eb.mu.Unlock()

	eb.logger.Debug().Str("subscriber_id", id).Msg("new subscriber")

	unsubscribe := func() {
		eb.mu.Lock()
		defer eb.mu.Unlock()
		if _, ok := eb.subscribers[id]; ok {
			close(ch)
			delete(eb.subscribers, id)
			eb.logger.Debug().Str("subscriber_id", id).Msg("subscriber removed")
		}
	}

	return ch, unsubscribe
}

// SubscriberCount returns the number of active subscribers
func (eb *EventBus) SubscriberCount() int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	return len(eb.subscribers)
}

// Close closes the event bus
func (eb *EventBus) Close() {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	for id, ch := range eb.subscribers {
		close(ch)
		delete(eb.subscribers, id)
	}

	if eb.broker != nil {
		eb.broker.Close()
	}
}
