package streaming

import (
	"time"

	"github.com/google/uuid"

	"honeypot-lab/internal/domain/models"
)

// EventType represents the type of honeypot event
type EventType string

const (
	EventTypeIntelligenceExtracted EventType = "intelligence_extracted"
	EventTypeEngagementReport      EventType = "engagement_report"
)

// HoneypotEvent is published when a scam turn leaks intelligence or a
// conversation is ready to be reported
type HoneypotEvent struct {
	ID             string                       `json:"id"`
	Type           EventType                    `json:"type"`
	Timestamp      time.Time                    `json:"timestamp"`
	ConversationID string                       `json:"conversation_id,omitempty"`
	Confidence     float64                      `json:"confidence"`
	MessageCount   int                          `json:"message_count,omitempty"`
	Intelligence   models.ExtractedIntelligence `json:"intelligence"`
	Keywords       []string                     `json:"keywords,omitempty"`
	Metadata       map[string]any               `json:"metadata,omitempty"`
}

// NewIntelligenceEvent creates an event for the findings of one turn
func NewIntelligenceEvent(conversationID string, result models.ClassificationResult, findings models.ExtractedIntelligence) *HoneypotEvent {
	return &HoneypotEvent{
		ID:             uuid.New().String(),
		Type:           EventTypeIntelligenceExtracted,
		Timestamp:      time.Now(),
		ConversationID: conversationID,
		Confidence:     result.Confidence,
		Intelligence:   findings.Clone(),
		Keywords:       result.Matched,
	}
}

// NewEngagementReport creates the final report event for a conversation
func NewEngagementReport(conv *models.Conversation, confidence float64) *HoneypotEvent {
	return &HoneypotEvent{
		ID:             uuid.New().String(),
		Type:           EventTypeEngagementReport,
		Timestamp:      time.Now(),
		ConversationID: conv.ID,
		Confidence:     confidence,
		MessageCount:   len(conv.Messages),
		Intelligence:   conv.Extracted.Clone(),
		Metadata: map[string]any{
			"started_at": conv.CreatedAt,
			"duration_s": conv.UpdatedAt.Sub(conv.CreatedAt).Seconds(),
		},
	}
}

// Subscription represents a client's subscription preferences
type Subscription struct {
	// Filter by event types (empty = all)
	Types []EventType `json:"types,omitempty"`

	// Filter by conversation (empty = all)
	ConversationID string `json:"conversation_id,omitempty"`

	// Minimum confidence of the triggering turn
	MinConfidence float64 `json:"min_confidence,omitempty"`
}

// Matches checks if an event matches the subscription filters
func (s *Subscription) Matches(event *HoneypotEvent) bool {
	if len(s.Types) > 0 {
		found := false
		for _, t := range s.Types {
			if t == event.Type {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if s.ConversationID != "" && s.ConversationID != event.ConversationID {
		return false
	}

	return event.Confidence >= s.MinConfidence
}
