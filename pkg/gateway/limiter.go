package gateway

import (
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiterStore throttles outbound calls per operation: operation -> rate limiter
type RateLimiterStore struct {
	limiters     map[Operation]*rate.Limiter
	mu           sync.Mutex
	defaultRate  rate.Limit
	defaultBurst int
}

// NewRateLimiterStore builds a store whose limiters allow defaultRate calls per
// second with defaultBurst. A non-positive rate disables throttling.
func NewRateLimiterStore(defaultRate rate.Limit, defaultBurst int) *RateLimiterStore {
	if defaultRate <= 0 {
		defaultRate = rate.Inf
	}
	if defaultBurst < 1 {
		defaultBurst = 1
	}
	return &RateLimiterStore{
		limiters:     make(map[Operation]*rate.Limiter),
		defaultRate:  defaultRate,
		defaultBurst: defaultBurst,
	}
}

func (s *RateLimiterStore) GetLimiter(op Operation) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	limiter, exists := s.limiters[op]
	if !exists {
		limiter = rate.NewLimiter(s.defaultRate, s.defaultBurst)
		s.limiters[op] = limiter
	}
	return limiter
}

func (s *RateLimiterStore) SetLimiter(op Operation, opRate rate.Limit, opBurst int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.limiters[op] = rate.NewLimiter(opRate, opBurst)
}
