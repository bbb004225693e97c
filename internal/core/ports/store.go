package ports

import "dev.rubentxu.ml-cluster/internal/core/domain"

// HandleStore persiste los handles lanzados. Si el proceso llamador muere en
// mitad del bootstrap, el store permite localizar y limpiar los procesos
// filtrados fuera de banda.
type HandleStore interface {
	Put(id string, handle domain.WorkerHandle) error
	Get(id string) (domain.WorkerHandle, error)
	List() ([]domain.WorkerHandle, error)
	Delete(id string) error
	Close() error
}
