package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"honeypot-lab/internal/domain/models"
	"honeypot-lab/internal/infrastructure/cache"
	"honeypot-lab/pkg/logger"
)

const maxRedisTxRetries = 10

// ErrTooManyConflicts is returned when an optimistic update kept losing races
var ErrTooManyConflicts = errors.New("conversation update conflicted too many times")

// RedisStore keeps each conversation as a JSON document with a sliding TTL.
// Updates use WATCH/MULTI so concurrent writers on different instances retry
// instead of overwriting each other.
type RedisStore struct {
	cache  *cache.RedisCache
	ttl    time.Duration
	now    func() time.Time
	logger *logger.Logger
}

// NewRedisStore creates a new Redis-backed store
func NewRedisStore(c *cache.RedisCache, ttl time.Duration, log *logger.Logger) *RedisStore {
	return &RedisStore{
		cache:  c,
		ttl:    ttl,
		now:    time.Now,
		logger: log.WithComponent("redis-store"),
	}
}

func conversationKey(id string) string {
	return cache.KeyConversationPrefix + id
}

// GetOrCreate returns the conversation for id, creating it if needed
func (s *RedisStore) GetOrCreate(ctx context.Context, id string) (*models.Conversation, error) {
	return s.Update(ctx, id, nil)
}

// Update applies fn inside an optimistic transaction
func (s *RedisStore) Update(ctx context.Context, id string, fn func(*models.Conversation)) (*models.Conversation, error) {
	key := conversationKey(id)
	fullKey := s.cache.Key(key)

	var result *models.Conversation
	txf := func(tx *redis.Tx) error {
		now := s.now()

		conv, err := decodeConversation(tx.Get(ctx, fullKey).Bytes())
		if errors.Is(err, redis.Nil) {
			conv = models.NewConversation(id, now)
		} else if err != nil {
			return err
		}

		if fn != nil {
			fn(conv)
			conv.UpdatedAt = now
		}

		data, err := json.Marshal(conv)
		if err != nil {
			return fmt.Errorf("failed to marshal conversation: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, fullKey, data, s.ttl)
			return nil
		})
		if err != nil {
			return err
		}

		result = conv
		return nil
	}

	for attempt := 0; attempt < maxRedisTxRetries; attempt++ {
		err := s.cache.Watch(ctx, txf, key)
		if err == nil {
			return result, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			s.logger.Debug().Str("conversation_id", id).Int("attempt", attempt+1).Msg("conversation update conflict, retrying")
			continue
		}
		return nil, fmt.Errorf("failed to update conversation %s: %w", id, err)
	}

	return nil, ErrTooManyConflicts
}

// Get loads a conversation
func (s *RedisStore) Get(ctx context.Context, id string) (*models.Conversation, error) {
	data, err := s.cache.Get(ctx, conversationKey(id))
	if errors.Is(err, redis.Nil) {
		return nil, ErrConversationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation %s: %w", id, err)
	}
	return decodeConversation([]byte(data), nil)
}

// Delete removes a conversation
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	n, err := s.cache.Delete(ctx, conversationKey(id))
	if err != nil {
		return fmt.Errorf("failed to delete conversation %s: %w", id, err)
	}
	if n == 0 {
		return ErrConversationNotFound
	}
	return nil
}

func decodeConversation(data []byte, err error) (*models.Conversation, error) {
	if err != nil {
		return nil, err
	}
	conv := &models.Conversation{Extracted: models.NewExtractedIntelligence()}
	if err := json.Unmarshal(data, conv); err != nil {
		return nil, fmt.Errorf("failed to decode conversation: %w", err)
	}
	if conv.Messages == nil {
		conv.Messages = []string{}
	}
	if conv.Extracted.PhoneNumbers == nil {
		conv.Extracted.PhoneNumbers = []string{}
	}
	return conv, nil
}
