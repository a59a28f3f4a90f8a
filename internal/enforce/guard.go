package enforce

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// GuardPrefix is the Redis key prefix for enforcement attempt marks.
	GuardPrefix = "enforce:"

	// GuardTTL is how long an attempt mark lives. Message ids are unique
	// per chat forever, but a day comfortably outlives any redelivery
	// window the transport has.
	GuardTTL = 24 * time.Hour
)

// AttemptGuard decides whether an enforcement action against a message is
// being attempted for the first time. It exists to keep delete and ban
// at-most-once per message even when the transport redelivers an event.
type AttemptGuard interface {
	FirstAttempt(ctx context.Context, key string) bool
}

// RedisGuard marks attempts in Redis with SETNX and a TTL.
type RedisGuard struct {
	client *redis.Client
}

// NewRedisGuard creates a guard backed by the given Redis client.
func NewRedisGuard(client *redis.Client) *RedisGuard {
	return &RedisGuard{client: client}
}

// FirstAttempt returns true when no mark existed for the key and one was
// placed now. On Redis errors it fails open (returns true): a Redis outage
// must degrade to plain best-effort enforcement, not suppress it. The
// worst case is a harmless duplicate delete the platform rejects anyway.
func (g *RedisGuard) FirstAttempt(ctx context.Context, key string) bool {
	ok, err := g.client.SetNX(ctx, GuardPrefix+key, 1, GuardTTL).Result()
	if err != nil {
		log.Printf("[enforce] guard SETNX error key=%s: %v (failing open)", key, err)
		return true
	}
	return ok
}

// nopGuard treats every attempt as the first. Used when no Redis is
// configured.
type nopGuard struct{}

func (nopGuard) FirstAttempt(context.Context, string) bool { return true }

// NopGuard returns a guard that never suppresses an attempt.
func NopGuard() AttemptGuard { return nopGuard{} }
