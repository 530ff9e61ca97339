package cache

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const uploadGuardKeyPrefix = "coach:upload:inflight:"

// UploadGuard admits at most one in-flight upload per user. The TTL bounds
// how long a crashed holder can block its user.
type UploadGuard struct {
	client *redis.Client
	ttl    time.Duration
}

func NewUploadGuard(client *redis.Client, ttl time.Duration) *UploadGuard {
	return &UploadGuard{client: client, ttl: ttl}
}

func (g *UploadGuard) Acquire(ctx context.Context, userID string) (bool, error) {
	return g.client.SetNX(ctx, uploadGuardKeyPrefix+userID, 1, g.ttl).Result()
}

func (g *UploadGuard) Release(ctx context.Context, userID string) error {
	return g.client.Del(ctx, uploadGuardKeyPrefix+userID).Err()
}

// MemoryGuard is the single-process fallback used when Redis is not
// configured.
type MemoryGuard struct {
	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{inflight: map[string]struct{}{}}
}

func (g *MemoryGuard) Acquire(_ context.Context, userID string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.inflight[userID]; ok {
		return false, nil
	}
	g.inflight[userID] = struct{}{}
	return true, nil
}

func (g *MemoryGuard) Release(_ context.Context, userID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.inflight, userID)
	return nil
}
