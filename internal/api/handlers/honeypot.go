package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"honeypot-lab/internal/domain/models"
	"honeypot-lab/internal/domain/services"
	"honeypot-lab/pkg/logger"
)

// DefaultMaxBodyBytes bounds the honeypot request body
const DefaultMaxBodyBytes = 64 * 1024

var errInvalidMessage = errors.New("message must be a string or an object with a text field")

// HoneypotHandler serves the scam engagement endpoint
type HoneypotHandler struct {
	service      *services.HoneypotService
	maxBodyBytes int64
	logger       *logger.Logger
}

// NewHoneypotHandler creates a new HoneypotHandler
func NewHoneypotHandler(service *services.HoneypotService, maxBodyBytes int64, log *logger.Logger) *HoneypotHandler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	return &HoneypotHandler{
		service:      service,
		maxBodyBytes: maxBodyBytes,
		logger:       log.WithComponent("honeypot-handler"),
	}
}

// HoneypotRequest is the inbound body. Message and history entries are kept
// raw because clients send either plain strings or message objects.
type HoneypotRequest struct {
	Message             json.RawMessage   `json:"message"`
	SessionID           string            `json:"sessionId"`
	ConversationID      string            `json:"conversation_id"`
	ConversationIDCamel string            `json:"conversationId"`
	ConversationHistory []json.RawMessage `json:"conversationHistory"`
	Metadata            map[string]any    `json:"metadata"`
}

// MessageObject is the structured form of a message
type MessageObject struct {
	Sender    string `json:"sender"`
	Text      string `json:"text"`
	Timestamp any    `json:"timestamp,omitempty"`
}

// HoneypotResponse is the outbound body
type HoneypotResponse struct {
	IsScam                bool                         `json:"is_scam"`
	Confidence            float64                      `json:"confidence"`
	ConversationActive    bool                         `json:"conversation_active"`
	ExtractedIntelligence models.ExtractedIntelligence `json:"extracted_intelligence"`
	AgentReply            string                       `json:"agent_reply"`
	SessionID             string                       `json:"session_id,omitempty"`
}

// Engage handles POST /honeypot
func (h *HoneypotHandler) Engage(w http.ResponseWriter, r *http.Request) {
	req, err := h.decode(w, r)
	if err != nil {
		h.logger.Debug().Err(err).Msg("invalid request body")
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	engage, err := req.toEngageRequest()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.Engage(r.Context(), engage)
	if err != nil {
		h.logger.Error().Err(err).
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("conversation_id", engage.ConversationID).
			Msg("engagement failed")
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	writeJSON(w, http.StatusOK, NewHoneypotResponse(result))
}

// NewHoneypotResponse renders a pipeline result
func NewHoneypotResponse(result *models.EngageResult) HoneypotResponse {
	return HoneypotResponse{
		IsScam:                result.IsScam,
		Confidence:            result.Classification.Confidence,
		ConversationActive:    result.IsScam,
		ExtractedIntelligence: result.Extracted,
		AgentReply:            result.Reply,
		SessionID:             result.ConversationID,
	}
}

// decode reads the body. An empty body is a ping, not an error.
func (h *HoneypotHandler) decode(w http.ResponseWriter, r *http.Request) (*HoneypotRequest, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		return nil, err
	}

	var req HoneypotRequest
	if len(bytes.TrimSpace(body)) == 0 {
		return &req, nil
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

func (req *HoneypotRequest) toEngageRequest() (models.EngageRequest, error) {
	text, ok := messageText(req.Message)
	if !ok {
		return models.EngageRequest{}, errInvalidMessage
	}

	history := make([]string, 0, len(req.ConversationHistory))
	for _, raw := range req.ConversationHistory {
		if t, ok := messageText(raw); ok && t != "" {
			history = append(history, t)
		}
	}

	return models.EngageRequest{
		Message:        models.NewMessage(text),
		ConversationID: req.conversationID(),
		History:        history,
		Metadata:       req.Metadata,
	}, nil
}

func (req *HoneypotRequest) conversationID() string {
	switch {
	case req.SessionID != "":
		return req.SessionID
	case req.ConversationID != "":
		return req.ConversationID
	default:
		return req.ConversationIDCamel
	}
}

// messageText accepts null, a string or a message object
func messageText(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", true
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false
		}
		return s, true
	case '{':
		var obj MessageObject
		if err := json.Unmarshal(raw, &obj); err != nil {
			return "", false
		}
		return obj.Text, true
	default:
		return "", false
	}
}
