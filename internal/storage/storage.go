// Package storage persists small opaque records by key.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
)

// ErrNotFound is returned by Get when the key holds no record.
var ErrNotFound = errors.New("record not found")

// Store defines the durable key-value operations used for the session snapshot
type Store interface {
	// Get returns the record stored under key, or ErrNotFound
	Get(ctx context.Context, key string) ([]byte, error)

	// Set replaces the record stored under key
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes the record. Deleting a missing key is not an error
	Delete(ctx context.Context, key string) error
}

// MemoryStore keeps records in process memory. Nothing survives a restart.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string][]byte)}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.records[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[key] = append([]byte(nil), value...)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, key)
	return nil
}

// validKey rejects keys that could escape a directory or a key prefix.
func validKey(key string) error {
	if key == "" || key == "." || key == ".." || filepath.Base(key) != key {
		return fmt.Errorf("invalid storage key %q", key)
	}
	return nil
}
