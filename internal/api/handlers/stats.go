package handlers

import (
	"net/http"

	"honeypot-lab/internal/domain/models"
	"honeypot-lab/internal/domain/services"
	"honeypot-lab/internal/streaming"
	"honeypot-lab/pkg/logger"
)

// StatsHandler handles statistics endpoints
type StatsHandler struct {
	service  *services.HoneypotService
	wsHub    *streaming.WebSocketHub
	eventBus *streaming.EventBus
	logger   *logger.Logger
}

// NewStatsHandler creates a new StatsHandler
func NewStatsHandler(service *services.HoneypotService, wsHub *streaming.WebSocketHub, eventBus *streaming.EventBus, log *logger.Logger) *StatsHandler {
	return &StatsHandler{
		service:  service,
		wsHub:    wsHub,
		eventBus: eventBus,
		logger:   log.WithComponent("stats"),
	}
}

// StatsResponse combines pipeline counters with streaming state
type StatsResponse struct {
	models.HoneypotStats
	WebSocketClients    int `json:"websocket_clients"`
	EventBusSubscribers int `json:"event_bus_subscribers"`
}

// Get handles GET /api/v1/stats
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	resp := StatsResponse{HoneypotStats: h.service.Stats()}

	if h.wsHub != nil {
		resp.WebSocketClients = h.wsHub.ClientCount()
	}
	if h.eventBus != nil {
		resp.EventBusSubscribers = h.eventBus.SubscriberCount()
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, resp)
}
