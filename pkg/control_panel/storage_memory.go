package control_panel

import (
	"context"
	"sync"
)

// MemoryStorage keeps values exactly as written, so reads hand back live calendars.
type MemoryStorage struct {
	mu     sync.RWMutex
	values map[string]any
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string]any)}
}

func (s *MemoryStorage) Read(ctx context.Context, id string) (any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[id], nil
}

func (s *MemoryStorage) Write(ctx context.Context, id string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[id] = value
	return nil
}

func (s *MemoryStorage) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, id)
	return nil
}
