package utils

import (
	"context"
	"sync"
	"time"
)

// Revoked tokens live in Redis keyed with a TTL matching the token's natural
// expiry. The in-memory map is the fallback for deployments without Redis;
// expired entries are swept on each write.
var (
	blacklist   = map[string]time.Time{}
	blacklistMu sync.RWMutex
)

// BlacklistToken revokes a token until its natural expiration.
func BlacklistToken(token string, expiresAt time.Time) {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return
	}

	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := rc.Set(ctx, "jwt:blacklist:"+token, "1", ttl).Err(); err == nil {
			return
		}
		// Redis write failed; fall through so the revocation still holds
		// on this instance.
	}

	blacklistMu.Lock()
	now := time.Now()
	for t, exp := range blacklist {
		if now.After(exp) {
			delete(blacklist, t)
		}
	}
	blacklist[token] = expiresAt
	blacklistMu.Unlock()
}

// IsTokenBlacklisted reports whether a token was revoked before its natural
// expiry. Redis errors fail open: an unreachable cache must not lock every
// user out.
func IsTokenBlacklisted(token string) bool {
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if n, err := rc.Exists(ctx, "jwt:blacklist:"+token).Result(); err == nil && n > 0 {
			return true
		}
	}

	blacklistMu.RLock()
	exp, ok := blacklist[token]
	blacklistMu.RUnlock()
	return ok && time.Now().Before(exp)
}
