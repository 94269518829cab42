package resilience

import (
	"sync"
	"time"
)

// Set lazily creates one Breaker per key with shared settings.
type Set struct {
	mu          sync.Mutex
	breakers    map[string]*Breaker
	maxFailures int
	timeout     time.Duration
	neutral     func(error) bool
}

// NewSet creates a Set. neutral may be nil.
func NewSet(maxFailures int, timeout time.Duration, neutral func(error) bool) *Set {
	return &Set{
		breakers:    make(map[string]*Breaker),
		maxFailures: maxFailures,
		timeout:     timeout,
		neutral:     neutral,
	}
}

// Get returns the breaker for key, creating it on first use.
func (s *Set) Get(key string) *Breaker {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.breakers[key]
	if !ok {
		b = NewBreaker(s.maxFailures, s.timeout)
		b.Neutral = s.neutral
		s.breakers[key] = b
	}
	return b
}

// Forget drops the breaker for key.
func (s *Set) Forget(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.breakers, key)
}

// States returns the current state of every known breaker.
func (s *Set) States() map[string]State {
	s.mu.Lock()
	keys := make(map[string]*Breaker, len(s.breakers))
	for k, b := range s.breakers {
		keys[k] = b
	}
	s.mu.Unlock()

	out := make(map[string]State, len(keys))
	for k, b := range keys {
		out[k] = b.State()
	}
	return out
}
