package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// History persists the exchanges of a conversation.
type History interface {
	Append(ctx context.Context, sessionID string, ex Exchange) error
	List(ctx context.Context, sessionID string) ([]Exchange, error)
	Clear(ctx context.Context, sessionID string) error
}

// MemoryHistory keeps exchanges in process memory.
type MemoryHistory struct {
	mu       sync.RWMutex
	sessions map[string][]Exchange
}

// NewMemoryHistory creates an empty in-memory history.
func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{sessions: make(map[string][]Exchange)}
}

func (h *MemoryHistory) Append(ctx context.Context, sessionID string, ex Exchange) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions[sessionID] = append(h.sessions[sessionID], ex)
	return nil
}

func (h *MemoryHistory) List(ctx context.Context, sessionID string) ([]Exchange, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Exchange, len(h.sessions[sessionID]))
	copy(out, h.sessions[sessionID])
	return out, nil
}

func (h *MemoryHistory) Clear(ctx context.Context, sessionID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.sessions, sessionID)
	return nil
}

// RedisHistory persists exchanges in a Redis list per session, so
// conversations survive restarts.
type RedisHistory struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// RedisOptions configuration for the Redis connection.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string        // Key prefix, default "adaptiverag:"
	TTL      time.Duration // Expiration for histories, default 0 (no expiration)
}

// NewRedisHistory creates a Redis-backed history.
func NewRedisHistory(opts RedisOptions) *RedisHistory {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	prefix := opts.Prefix
	if prefix == "" {
		prefix = "adaptiverag:"
	}

	return &RedisHistory{client: client, prefix: prefix, ttl: opts.TTL}
}

func (h *RedisHistory) historyKey(sessionID string) string {
	return fmt.Sprintf("%shistory:%s", h.prefix, sessionID)
}

func (h *RedisHistory) Append(ctx context.Context, sessionID string, ex Exchange) error {
	data, err := json.Marshal(ex)
	if err != nil {
		return fmt.Errorf("failed to marshal exchange: %w", err)
	}

	key := h.historyKey(sessionID)
	pipe := h.client.Pipeline()
	pipe.RPush(ctx, key, data)
	if h.ttl > 0 {
		pipe.Expire(ctx, key, h.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append history to redis: %w", err)
	}
	return nil
}

func (h *RedisHistory) List(ctx context.Context, sessionID string) ([]Exchange, error) {
	items, err := h.client.LRange(ctx, h.historyKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load history from redis: %w", err)
	}

	exchanges := make([]Exchange, 0, len(items))
	for _, item := range items {
		var ex Exchange
		if err := json.Unmarshal([]byte(item), &ex); err != nil {
			continue
		}
		exchanges = append(exchanges, ex)
	}
	return exchanges, nil
}

func (h *RedisHistory) Clear(ctx context.Context, sessionID string) error {
	if err := h.client.Del(ctx, h.historyKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}
