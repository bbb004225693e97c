package store

import (
	"sync"

	"dev.rubentxu.ml-cluster/internal/core/domain"
)

// MemoryHandleStore guarda los handles en memoria. Suficiente para pruebas y
// para ejecuciones donde la limpieza fuera de banda no importa.
type MemoryHandleStore struct {
	mu      sync.RWMutex
	handles map[string]domain.WorkerHandle
}

func NewMemoryHandleStore() *MemoryHandleStore {
	return &MemoryHandleStore{handles: make(map[string]domain.WorkerHandle)}
}

func (s *MemoryHandleStore) Put(id string, handle domain.WorkerHandle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handles[id] = handle
	return nil
}

func (s *MemoryHandleStore) Get(id string) (domain.WorkerHandle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	handle, ok := s.handles[id]
	if !ok {
		return domain.WorkerHandle{}, ErrHandleNotFound
	}
	return handle, nil
}

func (s *MemoryHandleStore) List() ([]domain.WorkerHandle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	handles := make([]domain.WorkerHandle, 0, len(s.handles))
	for _, h := range s.handles {
		handles = append(handles, h)
	}
	return handles, nil
}

func (s *MemoryHandleStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.handles[id]; !ok {
		return ErrHandleNotFound
	}
	delete(s.handles, id)
	return nil
}

func (s *MemoryHandleStore) Close() error {
	return nil
}
