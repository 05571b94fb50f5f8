package streaming

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"honeypot-lab/internal/domain/models"
	"honeypot-lab/pkg/logger"
)

type fakeBroker struct {
	mu        sync.Mutex
	connected bool
	err       error
	published []*HoneypotEvent
	closed    bool
}

func (b *fakeBroker) IsConnected() bool { return b.connected }

func (b *fakeBroker) Publish(_ context.Context, event *HoneypotEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.published = append(b.published, event)
	return b.err
}

func (b *fakeBroker) Close() { b.closed = true }

func receive(t *testing.T, ch <-chan *HoneypotEvent) *HoneypotEvent {
	t.Helper()
	select {
	case event, ok := <-ch:
		require.True(t, ok, "channel closed")
		return event
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestEventBus_LocalDelivery(t *testing.T) {
	bus := NewEventBus(nil, logger.NewNop())
	defer bus.Close()

	ch1, unsub1 := bus.Subscribe(context.Background(), &Subscription{})
	ch2, _ := bus.Subscribe(context.Background(), &Subscription{})
	assert.Equal(t, 2, bus.SubscriberCount())

	event := &HoneypotEvent{ID: "e1", Type: EventTypeEngagementReport}
	require.NoError(t, bus.Publish(context.Background(), event))

	assert.Equal(t, "e1", receive(t, ch1).ID)
	assert.Equal(t, "e1", receive(t, ch2).ID)

	unsub1()
	unsub1()
	assert.Equal(t, 1, bus.SubscriberCount())
	_, ok := <-ch1
	assert.False(t, ok, "unsubscribe closes the channel")
}

func TestEventBus_DropsWhenSubscriberIsFull(t *testing.T) {
	bus := NewEventBus(nil, logger.NewNop())
	defer bus.Close()

	ch, _ := bus.Subscribe(context.Background(), &Subscription{})

	for i := 0; i < 150; i++ {
		require.NoError(t, bus.Publish(context.Background(), &HoneypotEvent{Type: EventTypeIntelligenceExtracted}))
	}
	assert.Equal(t, 100, len(ch))
}

func TestEventBus_Broker(t *testing.T) {
	t.Run("connected broker receives events", func(t *testing.T) {
		broker := &fakeBroker{connected: true}
		bus := NewEventBus(broker, logger.NewNop())

		require.NoError(t, bus.Publish(context.Background(), &HoneypotEvent{ID: "e1"}))
		assert.Len(t, broker.published, 1)

		bus.Close()
		assert.True(t, broker.closed)
	})

	t.Run("disconnected broker is skipped", func(t *testing.T) {
		broker := &fakeBroker{}
		bus := NewEventBus(broker, logger.NewNop())
		defer bus.Close()

		require.NoError(t, bus.Publish(context.Background(), &HoneypotEvent{ID: "e1"}))
		assert.Empty(t, broker.published)
	})

	t.Run("broker errors still reach local subscribers", func(t *testing.T) {
		broker := &fakeBroker{connected: true, err: errors.New("nats down")}
		bus := NewEventBus(broker, logger.NewNop())
		defer bus.Close()

		ch, _ := bus.Subscribe(context.Background(), &Subscription{})
		require.NoError(t, bus.Publish(context.Background(), &HoneypotEvent{ID: "e1"}))
		assert.Equal(t, "e1", receive(t, ch).ID)
	})
}

func TestEventBusPublisher(t *testing.T) {
	bus := NewEventBus(nil, logger.NewNop())
	defer bus.Close()
	ch, _ := bus.Subscribe(context.Background(), &Subscription{})

	pub := NewEventBusPublisher(bus, nil)

	findings := models.NewExtractedIntelligence()
	findings.BankAccounts = []string{"1234567890"}
	require.NoError(t, pub.PublishIntelligence(context.Background(), "c1",
		models.ClassificationResult{IsScam: true, Confidence: 0.6}, findings))

	event := receive(t, ch)
	assert.Equal(t, EventTypeIntelligenceExtracted, event.Type)
	assert.Equal(t, []string{"1234567890"}, event.Intelligence.BankAccounts)

	conv := models.NewConversation("c1", time.Now())
	conv.Append("hi")
	require.NoError(t, pub.PublishEngagementReport(context.Background(), conv, 0.6))

	event = receive(t, ch)
	assert.Equal(t, EventTypeEngagementReport, event.Type)
	assert.Equal(t, 1, event.MessageCount)

	assert.NoError(t, NewEventBusPublisher(nil, nil).PublishEngagementReport(context.Background(), conv, 0))
}
