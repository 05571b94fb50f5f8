package streaming

import (
	"context"

	"honeypot-lab/internal/domain/models"
)

// EventBusPublisher implements services.EventPublisher using the EventBus
// and the WebSocket hub
type EventBusPublisher struct {
	eventBus *EventBus
	wsHub    *WebSocketHub
}

// NewEventBusPublisher creates a new publisher adapter. Either side may be nil.
func NewEventBusPublisher(eventBus *EventBus, wsHub *WebSocketHub) *EventBusPublisher {
	return &EventBusPublisher{
		eventBus: eventBus,
		wsHub:    wsHub,
	}
}

// PublishIntelligence publishes the findings of a single scam turn
func (p *EventBusPublisher) PublishIntelligence(ctx context.Context, conversationID string, result models.ClassificationResult, findings models.ExtractedIntelligence) error {
	return p.publish(ctx, NewIntelligenceEvent(conversationID, result, findings))
}

// PublishEngagementReport publishes the report for a finished engagement
func (p *EventBusPublisher) PublishEngagementReport(ctx context.Context, conv *models.Conversation, confidence float64) error {
	return p.publish(ctx, NewEngagementReport(conv, confidence))
}

func (p *EventBusPublisher) publish(ctx context.Context, event *HoneypotEvent) error {
	// NATS + local subscribers
	if p.eventBus != nil {
		if err := p.eventBus.Publish(ctx, event); err != nil {
			return err
		}
	}

	if p.wsHub != nil {
		p.wsHub.BroadcastEvent(event)
	}

	return nil
}
