package handlers

import (
	"context"

	"honeypot-lab/internal/domain/services"
	"honeypot-lab/internal/streaming"
	"honeypot-lab/pkg/logger"
)

// Handlers holds all API handlers
type Handlers struct {
	Health        *HealthHandler
	Honeypot      *HoneypotHandler
	Conversations *ConversationsHandler
	Stats         *StatsHandler
	Streaming     *StreamingHandler
}

// ReadinessChecker reports failing dependencies by name
type ReadinessChecker interface {
	Check(ctx context.Context) map[string]error
}

// Dependencies holds dependencies for handlers
type Dependencies struct {
	Honeypot     *services.HoneypotService
	Readiness    ReadinessChecker
	WSHub        *streaming.WebSocketHub
	EventBus     *streaming.EventBus
	MaxBodyBytes int64
	Version      string
	Logger       *logger.Logger
}

// NewHandlers creates all handlers
func NewHandlers(deps Dependencies) *Handlers {
	return &Handlers{
		Health:        NewHealthHandler(deps.Readiness, deps.Version, deps.Logger),
		Honeypot:      NewHoneypotHandler(deps.Honeypot, deps.MaxBodyBytes, deps.Logger),
		Conversations: NewConversationsHandler(deps.Honeypot, deps.Logger),
		Stats:         NewStatsHandler(deps.Honeypot, deps.WSHub, deps.EventBus, deps.Logger),
		Streaming:     NewStreamingHandler(deps.WSHub, deps.Logger),
	}
}
