package ports

import (
	"context"

	"dev.rubentxu.ml-cluster/internal/core/domain"
	"dev.rubentxu.ml-cluster/internal/core/domain/resource"
)

// ComputeFabric define la interfaz del fabric de cómputo compartido.
// El registro (ListActive) es estado externo mantenido por el fabric;
// este módulo únicamente lo consulta.
type ComputeFabric interface {
	// Launch arranca n procesos independientes con la reserva indicada.
	// Si solo arranca una parte, devuelve los handles que sí arrancaron
	// junto con el error; nunca los descarta en silencio.
	Launch(ctx context.Context, n int, req domain.LaunchRequest) ([]domain.WorkerHandle, error)

	// ListActive devuelve la topología actual: los procesos en ejecución
	// con su dirección asignada.
	ListActive(ctx context.Context) ([]domain.RegistryEntry, error)

	// Stop para exactamente los identificadores dados. Un identificador
	// desconocido o ya parado es un no-op por identificador, no un fallo.
	Stop(ctx context.Context, ids ...string) ([]domain.StopResult, error)

	// GetStats retorna las estadísticas de recursos del host del fabric.
	GetStats() resource.HostStats

	// GetHealthStatus retorna el estado de salud actual del fabric.
	GetHealthStatus(ctx context.Context) resource.HealthStatus
}
