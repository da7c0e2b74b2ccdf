package storage

import (
	"sync"
)

// MemoryStorage is an in-memory Storage implementation backed by a plain map.
// It is safe for concurrent use and primarily serves tests and tools that
// commit against a transient state.
type MemoryStorage struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStorage creates an empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: map[string][]byte{}}
}

func (s *MemoryStorage) Get(key []byte) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data[string(key)], nil
}

func (s *MemoryStorage) MGet(keys [][]byte) ([][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	values := make([][]byte, len(keys))
	for i, key := range keys {
		values[i] = s.data[string(key)]
	}
	return values, nil
}

func (s *MemoryStorage) Set(key, value []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	previous := s.data[string(key)]
	s.data[string(key)] = value
	return previous, nil
}

func (s *MemoryStorage) MSet(entries map[string][]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, value := range entries {
		s.data[key] = value
	}
	return nil
}

func (s *MemoryStorage) Delete(key []byte) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	previous := s.data[string(key)]
	delete(s.data, string(key))
	return previous, nil
}

// Size returns the number of stored entries.
func (s *MemoryStorage) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
