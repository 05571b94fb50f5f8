package store

import (
	"context"
	"errors"
	"time"

	"honeypot-lab/internal/domain/models"
	"honeypot-lab/internal/infrastructure/database/repository"
	"honeypot-lab/pkg/logger"
)

// PostgresStore persists conversations in PostgreSQL. Updates take a row
// lock so concurrent turns of the same conversation are serialized.
type PostgresStore struct {
	repo   *repository.ConversationRepository
	ttl    time.Duration
	now    func() time.Time
	logger *logger.Logger
}

// NewPostgresStore creates a new PostgreSQL-backed store
func NewPostgresStore(repo *repository.ConversationRepository, ttl time.Duration, log *logger.Logger) *PostgresStore {
	return &PostgresStore{
		repo:   repo,
		ttl:    ttl,
		now:    time.Now,
		logger: log.WithComponent("postgres-store"),
	}
}

// GetOrCreate returns the conversation for id, creating it if needed
func (s *PostgresStore) GetOrCreate(ctx context.Context, id string) (*models.Conversation, error) {
	return s.repo.Upsert(ctx, id, s.now(), s.ttl, nil)
}

// Update applies fn inside a transaction holding the row lock
func (s *PostgresStore) Update(ctx context.Context, id string, fn func(*models.Conversation)) (*models.Conversation, error) {
	return s.repo.Upsert(ctx, id, s.now(), s.ttl, fn)
}

// Get loads a conversation
func (s *PostgresStore) Get(ctx context.Context, id string) (*models.Conversation, error) {
	conv, err := s.repo.Get(ctx, id, s.now())
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrConversationNotFound
	}
	return conv, err
}

// Delete removes a conversation
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrConversationNotFound
	}
	return err
}

// Run purges expired rows on every tick until ctx is done
func (s *PostgresStore) Run(ctx context.Context, interval time.Duration) {
	if s.ttl <= 0 || interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.repo.PurgeExpired(ctx, s.now())
			if err != nil {
				s.logger.Warn().Err(err).Msg("failed to purge expired conversations")
				continue
			}
			if n > 0 {
				s.logger.Debug().Int64("removed", n).Msg("expired conversations purged")
			}
		}
	}
}
