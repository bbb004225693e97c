package store

import (
	"fmt"

	"dev.rubentxu.ml-cluster/internal/core/ports"
)

type StoreType string

const (
	MemoryStore     StoreType = "memory"
	PersistentStore StoreType = "persistent"
)

// NewHandleStore crea el store de handles del tipo indicado.
func NewHandleStore(storeType string, name string) (ports.HandleStore, error) {
	switch StoreType(storeType) {
	case MemoryStore:
		return NewMemoryHandleStore(), nil
	case PersistentStore:
		filename := fmt.Sprintf("%s_handles.db", name)
		return NewBoltHandleStore(filename, 0600, "handles")
	default:
		return nil, fmt.Errorf("unsupported store type: %s", storeType)
	}
}
