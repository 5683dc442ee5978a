package kv

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryStore keeps entries in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.entries[key]
	if entry.Value != nil {
		entry.Value = append([]byte(nil), entry.Value...)
	}
	return entry, nil
}

func (s *MemoryStore) CompareAndSwap(_ context.Context, key string, version int64, value []byte) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.entries[key]
	if current.Version != version {
		return current.Version, ErrVersionConflict
	}

	next := Entry{Value: append([]byte(nil), value...), Version: version + 1}
	s.entries[key] = next
	return next.Version, nil
}

func (s *MemoryStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range keys {
		delete(s.entries, key)
	}
	return nil
}

func (s *MemoryStore) Keys(_ context.Context, prefix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var keys []string
	for key := range s.entries {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }
