package store

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"honeypot-lab/internal/domain/models"
	"honeypot-lab/pkg/logger"
)

// MemoryStore is a bounded in-process store. A conversation expires ttl after
// its last update, and once maxEntries is reached the least recently used
// conversation is evicted to make room. Expired entries are reaped in the
// background by the cache.
type MemoryStore struct {
	logger *logger.Logger

	// mu serializes Update so fn runs on one copy at a time
	mu    sync.Mutex
	cache *expirable.LRU[string, *models.Conversation]
}

// MemoryStoreConfig configures the memory store. Zero values disable the bound.
type MemoryStoreConfig struct {
	TTL        time.Duration
	MaxEntries int
}

// NewMemoryStore creates a new memory store
func NewMemoryStore(cfg MemoryStoreConfig, log *logger.Logger) *MemoryStore {
	s := &MemoryStore{logger: log.WithComponent("memory-store")}
	s.cache = expirable.NewLRU[string, *models.Conversation](cfg.MaxEntries, s.onEvict, cfg.TTL)
	return s
}

// GetOrCreate returns a copy of the conversation for id
func (s *MemoryStore) GetOrCreate(ctx context.Context, id string) (*models.Conversation, error) {
	return s.Update(ctx, id, nil)
}

// Update applies fn under the store lock and returns a copy of the result.
// Every call renews the conversation's ttl.
func (s *MemoryStore) Update(_ context.Context, id string, fn func(*models.Conversation)) (*models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	conv, ok := s.cache.Get(id)
	if !ok {
		conv = models.NewConversation(id, now)
	}

	if fn != nil {
		fn(conv)
		conv.UpdatedAt = now
	}
	s.cache.Add(id, conv)

	return conv.Clone(), nil
}

// Get returns a copy of a live conversation. Reads do not renew the ttl.
func (s *MemoryStore) Get(_ context.Context, id string) (*models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.cache.Get(id)
	if !ok {
		return nil, ErrConversationNotFound
	}
	return conv.Clone(), nil
}

// Delete removes a conversation. Expired conversations count as missing.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, live := s.cache.Peek(id)
	if !s.cache.Remove(id) || !live {
		return ErrConversationNotFound
	}
	return nil
}

// Len returns the number of stored conversations, including expired ones
// the reaper has not reached yet
func (s *MemoryStore) Len() int {
	return s.cache.Len()
}

func (s *MemoryStore) onEvict(id string, _ *models.Conversation) {
	s.logger.Debug().Str("conversation_id", id).Msg("conversation evicted")
}
