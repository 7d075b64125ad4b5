package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	apiContext "spaces/internal/api/context"
	"spaces/internal/pkg/errors"
	"spaces/internal/platform/config"
)

const (
	ClassRead   = "api_read"
	ClassWrite  = "api_write"
	ClassUpload = "upload"
)

const idleBucketTTL = 10 * time.Minute

type RateLimiter struct {
	store  sync.Map // map[string]*Bucket
	limits map[string]int
	clock  clockwork.Clock
}

type Bucket struct {
	mu         sync.Mutex
	tokens     float64
	lastRefill time.Time
	lastAccess time.Time
}

func NewRateLimiter(cfg config.RateLimitConfig, clock clockwork.Clock) *RateLimiter {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &RateLimiter{
		limits: map[string]int{
			ClassRead:   cfg.APIReadPerMinute,
			ClassWrite:  cfg.APIWritePerMinute,
			ClassUpload: cfg.UploadPerMinute,
		},
		clock: clock,
	}
}

// Run evicts idle buckets until ctx is done.
func (rl *RateLimiter) Run(ctx context.Context) {
	ticker := rl.clock.NewTicker(idleBucketTTL)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			rl.evictIdle()
		}
	}
}

func (rl *RateLimiter) evictIdle() {
	now := rl.clock.Now()
	rl.store.Range(func(key, value interface{}) bool {
		bucket := value.(*Bucket)
		bucket.mu.Lock()
		if now.Sub(bucket.lastAccess) > idleBucketTTL {
			rl.store.Delete(key)
		}
		bucket.mu.Unlock()
		return true
	})
}

func (rl *RateLimiter) limit(class string) int {
	if l := rl.limits[class]; l > 0 {
		return l
	}
	return 100
}

// Allow takes a token from key's bucket. Buckets hold limit tokens and refill
// at limit per minute.
func (rl *RateLimiter) Allow(key string, limit int) bool {
	now := rl.clock.Now()

	val, _ := rl.store.LoadOrStore(key, &Bucket{
		tokens:     float64(limit),
		lastRefill: now,
		lastAccess: now,
	})

	bucket := val.(*Bucket)
	bucket.mu.Lock()
	defer bucket.mu.Unlock()

	bucket.lastAccess = now

	elapsed := now.Sub(bucket.lastRefill)
	if elapsed > 0 {
		bucket.tokens += elapsed.Minutes() * float64(limit)
		if bucket.tokens > float64(limit) {
			bucket.tokens = float64(limit)
		}
		bucket.lastRefill = now
	}

	if bucket.tokens >= 1 {
		bucket.tokens--
		return true
	}
	return false
}

// Limit rate limits a route by class, per organization when one is resolved
// and per client address otherwise.
func (rl *RateLimiter) Limit(class string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			var key string
			if org, ok := apiContext.OrgFrom(r.Context()); ok {
				key = "org:" + org.OrgID + ":" + class
			} else if claims, ok := apiContext.ClaimsFrom(r.Context()); ok {
				key = "user:" + claims.UserID + ":" + class
			} else {
				key = "ip:" + clientIP(r) + ":" + class
			}

			if !rl.Allow(key, rl.limit(class)) {
				w.Header().Set("Retry-After", strconv.Itoa(60/rl.limit(class)+1))
				errors.WriteError(w, http.StatusTooManyRequests, errors.ErrCodeRateLimitExceeded, "Rate limit exceeded", nil)
				return
			}

			next(w, r)
		}
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
