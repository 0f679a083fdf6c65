package storage

import (
	"context"
	"errors"
	"sync"

	appfulfillment "github.com/dropship/backend/internal/application/fulfillment"
)

// StubScreenshotStore keeps screenshots in memory. It is used in development
// when no object storage is configured.
type StubScreenshotStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

var _ appfulfillment.ScreenshotStore = (*StubScreenshotStore)(nil)

// NewStubScreenshotStore creates a new StubScreenshotStore
func NewStubScreenshotStore() *StubScreenshotStore {
	return &StubScreenshotStore{objects: make(map[string][]byte)}
}

// Upload keeps a copy of data under key
func (s *StubScreenshotStore) Upload(_ context.Context, key string, data []byte, _ string) error {
	if key == "" {
		return errors.New("storage key is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = append([]byte(nil), data...)
	return nil
}

// Get returns the stored object for key
func (s *StubScreenshotStore) Get(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.objects[key]
	return data, ok
}
