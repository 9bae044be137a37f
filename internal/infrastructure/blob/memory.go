package blob

import (
	"context"
	"errors"
	"sync"
)

var errSaveFailed = errors.New("blob: save failed")

// MemoryStore is an in-process Store used by tests and by runs configured
// without durable storage.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte

	// FailSaves makes every Save report a failure, for exercising the
	// soft-failure persistence path.
	FailSaves bool
	SaveErr   error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		objects: make(map[string][]byte),
	}
}

func (s *MemoryStore) Exists(_ context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.objects[name]

	return ok, nil
}

func (s *MemoryStore) Load(_ context.Context, name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.objects[name]
	if !ok {
		return nil, ErrNotExist
	}

	out := make([]byte, len(data))
	copy(out, data)

	return out, nil
}

func (s *MemoryStore) Save(_ context.Context, name string, data []byte) error {
	if s.FailSaves {
		if s.SaveErr != nil {
			return s.SaveErr
		}
		return errSaveFailed
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := make([]byte, len(data))
	copy(stored, data)
	s.objects[name] = stored

	return nil
}
