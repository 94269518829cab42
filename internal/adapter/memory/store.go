// Package memory provides an in-process response store backed by a ring
// buffer. It is the default store when PostgreSQL is not configured.
package memory

import (
	"context"
	"sync"

	"github.com/Strob0t/Principal/internal/domain"
	"github.com/Strob0t/Principal/internal/domain/response"
	"github.com/Strob0t/Principal/internal/port/recorder"
)

// Store keeps the most recent responses up to a fixed capacity.
type Store struct {
	mu    sync.RWMutex
	buf   []*response.Response
	next  int
	count int
}

var _ recorder.Store = (*Store)(nil)

// NewStore creates a store holding at most capacity responses.
func NewStore(capacity int) *Store {
	if capacity < 1 {
		capacity = recorder.DefaultLimit
	}
	return &Store{buf: make([]*response.Response, capacity)}
}

// Record stores resp, evicting the oldest entry when full.
func (s *Store) Record(_ context.Context, resp *response.Response) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf[s.next] = resp
	s.next = (s.next + 1) % len(s.buf)
	if s.count < len(s.buf) {
		s.count++
	}
	return nil
}

// Recent returns up to limit responses, newest first.
func (s *Store) Recent(_ context.Context, limit int) ([]*response.Response, error) {
	limit = recorder.ClampLimit(limit)
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := min(limit, s.count)
	out := make([]*response.Response, 0, n)
	for i := range n {
		out = append(out, s.at(i))
	}
	return out, nil
}

// Get returns the newest response recorded for requestID.
func (s *Store) Get(_ context.Context, requestID string) (*response.Response, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.count {
		if r := s.at(i); r.RequestID == requestID {
			return r, nil
		}
	}
	return nil, domain.ErrNotFound
}

// Len returns the number of stored responses.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count
}

// at returns the i-th newest entry. Caller holds the lock.
func (s *Store) at(i int) *response.Response {
	idx := (s.next - 1 - i + len(s.buf)) % len(s.buf)
	return s.buf[idx]
}
