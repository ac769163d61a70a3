package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sportsconnect/messaging/internal/domain"
)

// ConversationCache keeps recently aggregated conversation lists in Redis so
// repeated list requests do not rescan the whole message log. Entries are
// short-lived and invalidated on every write touching a participant.
type ConversationCache struct {
	cli *redis.Client
	ttl time.Duration
}

func NewConversationCache(cli *redis.Client, ttl time.Duration) *ConversationCache {
	return &ConversationCache{cli: cli, ttl: ttl}
}

func key(userID string) string { return "conversations:" + userID }

// Get returns the cached list for userID, or (nil, false) on a miss.
// Redis errors are treated as misses so the store stays authoritative.
func (c *ConversationCache) Get(ctx context.Context, userID string) ([]*domain.ConversationSummary, bool) {
	b, err := c.cli.Get(ctx, key(userID)).Bytes()
	if err != nil {
		return nil, false
	}
	var out []*domain.ConversationSummary
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, false
	}
	return out, true
}

func (c *ConversationCache) Set(ctx context.Context, userID string, convs []*domain.ConversationSummary) {
	b, err := json.Marshal(convs)
	if err != nil {
		return
	}
	_ = c.cli.Set(ctx, key(userID), b, c.ttl).Err()
}

// Invalidate drops the cached lists of every affected participant.
func (c *ConversationCache) Invalidate(ctx context.Context, userIDs ...string) {
	for _, id := range userIDs {
		_ = c.cli.Del(ctx, key(id)).Err()
	}
}
