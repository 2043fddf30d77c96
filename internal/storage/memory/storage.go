package memorystorage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lomoval/murinahi/internal/storage"
)

type item struct {
	value     []byte
	expiresAt time.Time
}

type Storage struct {
	mu   sync.RWMutex
	data map[string]item
	now  func() time.Time
}

func New() *Storage {
	return &Storage{data: make(map[string]item), now: time.Now}
}

// NewWithClock is used by tests that need to move time forward.
func NewWithClock(now func() time.Time) *Storage {
	s := New()
	s.now = now
	return s
}

func (s *Storage) Connect(_ context.Context) error {
	return nil
}

func (s *Storage) Close(_ context.Context) error {
	return nil
}

func (s *Storage) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.data[key]
	if !ok || !it.expiresAt.After(s.now()) {
		return nil, fmt.Errorf("failed to get %q: %w", key, storage.ErrNotFound)
	}
	value := make([]byte, len(it.value))
	copy(value, it.value)
	return value, nil
}

func (s *Storage) SetWithExpiry(_ context.Context, key string, ttl time.Duration, value []byte) error {
	if ttl <= 0 {
		return fmt.Errorf("incorrect ttl %v for %q", ttl, key)
	}
	stored := make([]byte, len(value))
	copy(stored, value)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = item{value: stored, expiresAt: s.now().Add(ttl)}
	return nil
}

// TTL returns the remaining lifetime of key, zero when absent or expired.
func (s *Storage) TTL(key string) time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.data[key]
	if !ok {
		return 0
	}
	left := it.expiresAt.Sub(s.now())
	if left < 0 {
		return 0
	}
	return left
}

func (s *Storage) RemoveExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed int64
	for key, it := range s.data {
		if !it.expiresAt.After(now) {
			delete(s.data, key)
			removed++
		}
	}
	return removed, nil
}
