// Package store keeps per-conversation honeypot state behind a get-or-create
// interface so the pipeline does not care where conversations live.
package store

import (
	"context"
	"errors"

	"honeypot-lab/internal/domain/models"
)

// ErrConversationNotFound is returned by Get and Delete for unknown ids
var ErrConversationNotFound = errors.New("conversation not found")

// ConversationStore is implemented by every storage driver. Update must be
// atomic per conversation id: concurrent updates of the same id never lose
// appended messages or findings.
type ConversationStore interface {
	// GetOrCreate returns the conversation for id, creating an empty one if needed
	GetOrCreate(ctx context.Context, id string) (*models.Conversation, error)
	// Update applies fn to the (possibly new) conversation and persists the result
	Update(ctx context.Context, id string, fn func(*models.Conversation)) (*models.Conversation, error)
	// Get returns ErrConversationNotFound when id is unknown or expired
	Get(ctx context.Context, id string) (*models.Conversation, error)
	// Delete returns ErrConversationNotFound when id is unknown
	Delete(ctx context.Context, id string) error
}
