// gib/models/services.go
package models

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// StorageService abstracts where original file content lives. The default
// backend keeps content in the files table itself; the S3 backend stores
// it under a key recorded in files.storage_key.
type StorageService interface {
	SaveFile(key string, data []byte, contentType string) error
	LoadFile(key string) ([]byte, error)
	DeleteFile(key string) error
}

// RateLimiter tracks a token bucket per client IP.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	lastSeen map[string]time.Time

	every  time.Duration
	burst  int
	expire time.Duration
}

// NewRateLimiter creates a rate limiter and starts its pruning loop.
func NewRateLimiter(every time.Duration, burst int, prune, expire time.Duration) *RateLimiter {
	rl := &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		lastSeen: make(map[string]time.Time),
		every:    every,
		burst:    burst,
		expire:   expire,
	}
	go rl.cleanup(prune)
	return rl
}

// GetLimiter retrieves or creates the limiter for a given IP address.
func (rl *RateLimiter) GetLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	limiter, ok := rl.limiters[ip]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(rl.every), rl.burst)
		rl.limiters[ip] = limiter
	}
	rl.lastSeen[ip] = time.Now()
	return limiter
}

// cleanup periodically drops limiters for IPs not seen within the expiry.
func (rl *RateLimiter) cleanup(prune time.Duration) {
	for range time.Tick(prune) {
		rl.mu.Lock()
		cutoff := time.Now().Add(-rl.expire)
		for ip, seen := range rl.lastSeen {
			if seen.Before(cutoff) {
				delete(rl.limiters, ip)
				delete(rl.lastSeen, ip)
			}
		}
		rl.mu.Unlock()
	}
}
