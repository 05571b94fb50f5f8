package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"honeypot-lab/internal/domain/models"
	"honeypot-lab/internal/infrastructure/database"
)

// ErrNotFound is returned when no row matches
var ErrNotFound = errors.New("repository: not found")

// ConversationMigrations builds the conversation table
var ConversationMigrations = []database.Migration{
	{
		Version: 1,
		Name:    "create honeypot_conversations",
		SQL: `
CREATE TABLE IF NOT EXISTS honeypot_conversations (
	id            TEXT PRIMARY KEY,
	messages      JSONB       NOT NULL DEFAULT '[]'::jsonb,
	extracted     JSONB       NOT NULL DEFAULT '{}'::jsonb,
	scam_detected BOOLEAN     NOT NULL DEFAULT FALSE,
	reported      BOOLEAN     NOT NULL DEFAULT FALSE,
	created_at    TIMESTAMPTZ NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL,
	expires_at    TIMESTAMPTZ
)`,
	},
	{
		Version: 2,
		Name:    "index conversations by expiry",
		SQL: `
CREATE INDEX IF NOT EXISTS idx_honeypot_conversations_expires_at
	ON honeypot_conversations (expires_at)`,
	},
}

const selectConversation = `
SELECT id, messages, extracted, scam_detected, reported, created_at, updated_at, expires_at
FROM honeypot_conversations
WHERE id = $1`

// ConversationRepository handles conversation persistence
type ConversationRepository struct {
	db *database.PostgresDB
}

// NewConversationRepository creates a new conversation repository
func NewConversationRepository(db *database.PostgresDB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// Migrate brings the conversation table up to date
func (r *ConversationRepository) Migrate(ctx context.Context) error {
	if err := r.db.Migrate(ctx, ConversationMigrations); err != nil {
		return fmt.Errorf("failed to migrate conversations: %w", err)
	}
	return nil
}

// Get loads a conversation that has not expired
func (r *ConversationRepository) Get(ctx context.Context, id string, now time.Time) (*models.Conversation, error) {
	conv, expiresAt, err := scanConversation(r.db.Pool().QueryRow(ctx, selectConversation, id))
	if err != nil {
		return nil, err
	}
	if expired(expiresAt, now) {
		return nil, ErrNotFound
	}
	return conv, nil
}

// Upsert locks the row for id (creating it when missing or expired), applies
// fn and writes the result back in the same transaction
func (r *ConversationRepository) Upsert(ctx context.Context, id string, now time.Time, ttl time.Duration, fn func(*models.Conversation)) (*models.Conversation, error) {
	var result *models.Conversation

	err := r.db.WithTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO honeypot_conversations (id, created_at, updated_at, expires_at)
			VALUES ($1, $2, $2, $3)
			ON CONFLICT (id) DO NOTHING`,
			id, now, expiresAt(now, ttl))
		if err != nil {
			return fmt.Errorf("failed to insert conversation: %w", err)
		}

		conv, exp, err := scanConversation(tx.QueryRow(ctx, selectConversation+" FOR UPDATE", id))
		if err != nil {
			return err
		}
		if expired(exp, now) {
			conv = models.NewConversation(id, now)
		}

		if fn != nil {
			fn(conv)
		}
		conv.UpdatedAt = now

		messages, err := json.Marshal(conv.Messages)
		if err != nil {
			return fmt.Errorf("failed to marshal messages: %w", err)
		}
		extracted, err := json.Marshal(conv.Extracted)
		if err != nil {
			return fmt.Errorf("failed to marshal extracted intelligence: %w", err)
		}

		_, err = tx.Exec(ctx, `
			UPDATE honeypot_conversations
			SET messages = $2, extracted = $3, scam_detected = $4, reported = $5,
			    created_at = $6, updated_at = $7, expires_at = $8
			WHERE id = $1`,
			id, string(messages), string(extracted), conv.ScamDetected, conv.Reported,
			conv.CreatedAt, conv.UpdatedAt, expiresAt(now, ttl))
		if err != nil {
			return fmt.Errorf("failed to update conversation: %w", err)
		}

		result = conv
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// Delete removes a conversation
func (r *ConversationRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Pool().Exec(ctx, `DELETE FROM honeypot_conversations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// PurgeExpired deletes conversations whose TTL has passed
func (r *ConversationRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Pool().Exec(ctx,
		`DELETE FROM honeypot_conversations WHERE expires_at IS NOT NULL AND expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to purge conversations: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanConversation(row pgx.Row) (*models.Conversation, *time.Time, error) {
	var (
		conv      models.Conversation
		messages  []byte
		extracted []byte
		expiresAt *time.Time
	)

	err := row.Scan(&conv.ID, &messages, &extracted, &conv.ScamDetected, &conv.Reported,
		&conv.CreatedAt, &conv.UpdatedAt, &expiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to scan conversation: %w", err)
	}

	if err := json.Unmarshal(messages, &conv.Messages); err != nil {
		return nil, nil, fmt.Errorf("failed to decode messages: %w", err)
	}
	conv.Extracted = models.NewExtractedIntelligence()
	if err := json.Unmarshal(extracted, &conv.Extracted); err != nil {
		return nil, nil, fmt.Errorf("failed to decode extracted intelligence: %w", err)
	}
	normalizeConversation(&conv)

	return &conv, expiresAt, nil
}

// normalizeConversation replaces nil slices left by sparse JSON documents
func normalizeConversation(c *models.Conversation) {
	if c.Messages == nil {
		c.Messages = []string{}
	}
	if c.Extracted.BankAccounts == nil {
		c.Extracted.BankAccounts = []string{}
	}
	if c.Extracted.UPIIDs == nil {
		c.Extracted.UPIIDs = []string{}
	}
	if c.Extracted.PhishingLinks == nil {
		c.Extracted.PhishingLinks = []string{}
	}
	if c.Extracted.PhoneNumbers == nil {
		c.Extracted.PhoneNumbers = []string{}
	}
}

func expiresAt(now time.Time, ttl time.Duration) *time.Time {
	if ttl <= 0 {
		return nil
	}
	t := now.Add(ttl)
	return &t
}

func expired(expiresAt *time.Time, now time.Time) bool {
	return expiresAt != nil && expiresAt.Before(now)
}
