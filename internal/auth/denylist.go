package auth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const denylistPrefix = "auth:denylist:"

// TokenDenylist invalidates issued tokens ahead of their natural expiry,
// backed by Redis so every instance sees a logout immediately.
type TokenDenylist struct {
	client *redis.Client
}

// NewTokenDenylist wraps a Redis client.
func NewTokenDenylist(client *redis.Client) *TokenDenylist {
	return &TokenDenylist{client: client}
}

// Add stores the token until its expiry. Already-expired tokens are ignored.
func (d *TokenDenylist) Add(ctx context.Context, token string, expiresAt time.Time) error {
	if d == nil || d.client == nil {
		return nil
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return d.client.Set(ctx, denylistPrefix+token, "1", ttl).Err()
}

// Contains reports whether the token was revoked. Redis being unreachable
// fails open so an outage does not lock everyone out.
func (d *TokenDenylist) Contains(ctx context.Context, token string) bool {
	if d == nil || d.client == nil {
		return false
	}
	exists, err := d.client.Exists(ctx, denylistPrefix+token).Result()
	if err != nil {
		return false
	}
	return exists > 0
}
