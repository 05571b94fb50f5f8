package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"honeypot-lab/internal/domain/services"
	"honeypot-lab/internal/infrastructure/store"
	"honeypot-lab/pkg/logger"
)

// ConversationsHandler lets operators inspect and forget conversations
type ConversationsHandler struct {
	service *services.HoneypotService
	logger  *logger.Logger
}

// NewConversationsHandler creates a new ConversationsHandler
func NewConversationsHandler(service *services.HoneypotService, log *logger.Logger) *ConversationsHandler {
	return &ConversationsHandler{
		service: service,
		logger:  log.WithComponent("conversations"),
	}
}

// Get handles GET /api/v1/conversations/{id}
func (h *ConversationsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	conv, err := h.service.GetConversation(r.Context(), id)
	if errors.Is(err, store.ErrConversationNotFound) {
		writeError(w, http.StatusNotFound, "conversation not found")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("conversation_id", id).Msg("failed to load conversation")
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	writeJSON(w, http.StatusOK, conv)
}

// Delete handles DELETE /api/v1/conversations/{id}
func (h *ConversationsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	err := h.service.DeleteConversation(r.Context(), id)
	if errors.Is(err, store.ErrConversationNotFound) {
		writeError(w, http.StatusNotFound, "conversation not found")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("conversation_id", id).Msg("failed to delete conversation")
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	h.logger.Info().Str("conversation_id", id).Msg("conversation deleted")
	w.WriteHeader(http.StatusNoContent)
}
