package gateway

import (
	"sync"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func TestRateLimiterStore_Basic(t *testing.T) {
	store := NewRateLimiterStore(1, 2)

	limiter := store.GetLimiter(OpListPlatforms)
	if limiter == nil {
		t.Fatal("expected limiter, got nil")
	}
	if limiter.Limit() != 1 {
		t.Errorf("expected limit 1, got %v", limiter.Limit())
	}
	if limiter.Burst() != 2 {
		t.Errorf("expected burst 2, got %v", limiter.Burst())
	}
}

func TestRateLimiterStore_Unlimited(t *testing.T) {
	store := NewRateLimiterStore(0, 0)

	limiter := store.GetLimiter(OpGetPlatformDetail)
	if limiter.Limit() != rate.Inf {
		t.Errorf("expected unlimited rate, got %v", limiter.Limit())
	}
	for i := range 100 {
		if !limiter.Allow() {
			t.Fatalf("call %d should not be limited", i+1)
		}
	}
}

func TestRateLimiterStore_CustomLimit(t *testing.T) {
	store := NewRateLimiterStore(1, 2)

	store.SetLimiter(OpGetSensorRecords, 5, 10)
	limiter := store.GetLimiter(OpGetSensorRecords)

	if limiter.Limit() != 5 {
		t.Errorf("expected limit 5, got %v", limiter.Limit())
	}
	if limiter.Burst() != 10 {
		t.Errorf("expected burst 10, got %v", limiter.Burst())
	}
	if store.GetLimiter(OpListPlatforms).Limit() != 1 {
		t.Error("expected other operations to keep the default limit")
	}
}

func TestRateLimiterStore_Concurrency(t *testing.T) {
	store := NewRateLimiterStore(10, 5)

	var wg sync.WaitGroup
	limiters := make(chan *rate.Limiter, 100)

	// Launch 100 goroutines that access GetLimiter concurrently
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			limiters <- store.GetLimiter(OpGetPlatformDetail)
		}()
	}

	wg.Wait()
	close(limiters)

	first := store.GetLimiter(OpGetPlatformDetail)
	for l := range limiters {
		if l != first {
			t.Fatal("expected one limiter per operation")
		}
	}
}

func TestRateLimiter_Enforcement(t *testing.T) {
	store := NewRateLimiterStore(2, 2) // 2 events/sec

	limiter := store.GetLimiter(OpGetPlatformDetail)

	// Consume two tokens
	firstTry := limiter.Allow()
	secondTry := limiter.Allow()
	if !firstTry || !secondTry {
		t.Fatal("expected first two calls to be allowed")
	}

	// This call should fail immediately
	if limiter.Allow() {
		t.Error("expected third call to be rate limited")
	}

	// Wait for refill
	time.Sleep(600 * time.Millisecond)
	if !limiter.Allow() {
		t.Error("expected one token to be available after refill")
	}
}
