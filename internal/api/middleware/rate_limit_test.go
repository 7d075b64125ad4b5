package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	apiContext "spaces/internal/api/context"
	"spaces/internal/platform/config"
)

func TestRateLimiter_AllowAndRefill(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rl := NewRateLimiter(config.RateLimitConfig{}, clock)

	for i := 0; i < 3; i++ {
		if !rl.Allow("k", 3) {
			t.Fatalf("Expected request %d to be allowed", i+1)
		}
	}
	if rl.Allow("k", 3) {
		t.Fatal("Expected the fourth request to be limited")
	}

	clock.Advance(20 * time.Second)
	if !rl.Allow("k", 3) {
		t.Error("Expected one token to be refilled after 20s")
	}
	if rl.Allow("k", 3) {
		t.Error("Expected only one token to be refilled")
	}

	if !rl.Allow("other", 3) {
		t.Error("Expected keys to have independent buckets")
	}
}

func TestRateLimiter_EvictIdle(t *testing.T) {
	clock := clockwork.NewFakeClock()
	rl := NewRateLimiter(config.RateLimitConfig{}, clock)
	rl.Allow("k", 1)

	clock.Advance(idleBucketTTL + time.Second)
	rl.evictIdle()

	if _, ok := rl.store.Load("k"); ok {
		t.Error("Expected idle bucket to be evicted")
	}
}

func TestRateLimiter_LimitPerOrg(t *testing.T) {
	rl := NewRateLimiter(config.RateLimitConfig{APIWritePerMinute: 1}, clockwork.NewFakeClock())
	handler := rl.Limit(ClassWrite)(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	send := func(orgID string) int {
		req, _ := http.NewRequest("PATCH", "/", nil)
		req = req.WithContext(context.WithValue(req.Context(), apiContext.Org, &apiContext.OrgContext{OrgID: orgID}))
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Code
	}

	if code := send("org_1"); code != http.StatusOK {
		t.Errorf("Expected 200, got %d", code)
	}
	if code := send("org_1"); code != http.StatusTooManyRequests {
		t.Errorf("Expected 429, got %d", code)
	}
	if code := send("org_2"); code != http.StatusOK {
		t.Errorf("Expected another org to be unaffected, got %d", code)
	}
}
