// Package memory provides an in-process arus.Storage.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/ryanbekhen/arus"
)

// item represents a stored item with its value and expiration time.
type item struct {
	value    []byte
	expireAt time.Time
}

func (i item) expired(now time.Time) bool {
	return !i.expireAt.IsZero() && now.After(i.expireAt)
}

// Storage implements the arus.Storage interface using an in-memory map.
// Expired items read as missing and are swept by a background goroutine
// when a cleanup interval is given.
type Storage struct {
	items map[string]item
	mu    sync.RWMutex

	cleanupTicker *time.Ticker
	stopCleanup   chan struct{}
	closeOnce     sync.Once
}

var _ arus.Storage = (*Storage)(nil)

// New creates a new memory storage instance.
// The cleanupInterval parameter specifies how often to check for and remove expired items.
// If cleanupInterval is zero or negative, automatic cleanup is disabled.
func New(cleanupInterval time.Duration) *Storage {
	s := &Storage{
		items: make(map[string]item),
	}

	if cleanupInterval > 0 {
		s.cleanupTicker = time.NewTicker(cleanupInterval)
		s.stopCleanup = make(chan struct{})

		go func() {
			for {
				select {
				case <-s.cleanupTicker.C:
					s.cleanup()
				case <-s.stopCleanup:
					s.cleanupTicker.Stop()
					return
				}
			}
		}()
	}

	return s
}

// Get returns a copy of the value stored under key, or arus.ErrNotFound.
func (s *Storage) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	it, exists := s.items[key]
	s.mu.RUnlock()

	if !exists || it.expired(time.Now()) {
		return nil, arus.ErrNotFound
	}
	return append([]byte(nil), it.value...), nil
}

// Set stores a copy of value. A positive ttl makes the key expire.
func (s *Storage) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	var expireAt time.Time
	if ttl > 0 {
		expireAt = time.Now().Add(ttl)
	}

	s.mu.Lock()
	s.items[key] = item{
		value:    append([]byte(nil), value...),
		expireAt: expireAt,
	}
	s.mu.Unlock()
	return nil
}

// Delete removes a key from the storage.
func (s *Storage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.items, key)
	s.mu.Unlock()
	return nil
}

// Clear removes all keys from the storage.
func (s *Storage) Clear(_ context.Context) error {
	s.mu.Lock()
	s.items = make(map[string]item)
	s.mu.Unlock()
	return nil
}

// Has reports whether key exists and has not expired.
func (s *Storage) Has(_ context.Context, key string) (bool, error) {
	s.mu.RLock()
	it, exists := s.items[key]
	s.mu.RUnlock()
	return exists && !it.expired(time.Now()), nil
}

// Len returns the number of stored items, expired ones included until
// they are swept.
func (s *Storage) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Keys returns the stored keys in no particular order.
func (s *Storage) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.items))
	for k := range s.items {
		keys = append(keys, k)
	}
	return keys
}

// Close stops the cleanup goroutine if it's running. It is safe to call
// more than once.
func (s *Storage) Close() error {
	s.closeOnce.Do(func() {
		if s.stopCleanup != nil {
			close(s.stopCleanup)
		}
	})
	return nil
}

// cleanup removes expired items from the storage.
func (s *Storage) cleanup() {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, it := range s.items {
		if it.expired(now) {
			delete(s.items, key)
		}
	}
}
