package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/multierr"

	"dev.rubentxu.ml-cluster/internal/clock"
	"dev.rubentxu.ml-cluster/internal/core/domain"
	"dev.rubentxu.ml-cluster/internal/core/ports"
)

// SchedulerURLToken es el marcador del comando de worker que se sustituye por
// la URL resuelta del scheduler antes de lanzar el pool.
const SchedulerURLToken = "{{scheduler_url}}"

const (
	defaultPollInterval = 500 * time.Millisecond
	defaultPollTimeout  = 30 * time.Second
)

// Config ajusta los plazos de resolución del bootstrap.
type Config struct {
	SchedulerPort int
	PollInterval  time.Duration
	PollTimeout   time.Duration
}

func (c Config) withDefaults() Config {
	if c.SchedulerPort == 0 {
		c.SchedulerPort = domain.DefaultSchedulerPort
	}
	if c.PollInterval <= 0 {
		c.PollInterval = defaultPollInterval
	}
	if c.PollTimeout <= 0 {
		c.PollTimeout = defaultPollTimeout
	}
	return c
}

// ClusterLifecycle define métodos para orquestar el ciclo de vida del clúster
// ad-hoc: un coordinador, un pool de workers y su teardown.
type ClusterLifecycle interface {
	// LaunchProcesses arranca n procesos en el fabric. Un resultado mixto se
	// comunica con PartialLaunchError junto a los handles que sí arrancaron.
	LaunchProcesses(ctx context.Context, n int, req domain.LaunchRequest) ([]domain.WorkerHandle, error)

	// BootstrapScheduler lanza exactamente un coordinador y resuelve su
	// dirección consultando el registro con un poll acotado.
	BootstrapScheduler(ctx context.Context, req domain.LaunchRequest) (domain.SchedulerInfo, error)

	// BootstrapWorkers lanza n workers parametrizados con el endpoint del
	// coordinador para que se adhieran solos al arrancar.
	BootstrapWorkers(ctx context.Context, endpoint domain.SchedulerEndpoint, n int, req domain.LaunchRequest) ([]domain.WorkerHandle, error)

	// Teardown para exactamente los handles recibidos. Idempotente: un
	// identificador ya parado es un no-op registrado, nunca un fallo.
	Teardown(ctx context.Context, handles []domain.WorkerHandle) ([]domain.StopResult, error)
}

type clusterLifecycleImpl struct {
	fabric ports.ComputeFabric
	store  ports.HandleStore
	logger ports.Logger
	cfg    Config
}

// NewClusterLifecycle crea el caso de uso sobre un fabric y un store de handles.
func NewClusterLifecycle(fabric ports.ComputeFabric, store ports.HandleStore, logger ports.Logger, cfg Config) ClusterLifecycle {
	return &clusterLifecycleImpl{
		fabric: fabric,
		store:  store,
		logger: logger.With("component", "cluster_lifecycle"),
		cfg:    cfg.withDefaults(),
	}
}

func (c *clusterLifecycleImpl) LaunchProcesses(ctx context.Context, n int, req domain.LaunchRequest) ([]domain.WorkerHandle, error) {
	if n < 1 {
		return nil, fmt.Errorf("launch: invalid process count %d", n)
	}

	handles, err := c.fabric.Launch(ctx, n, req)
	for _, h := range handles {
		if putErr := c.store.Put(h.ID, h); putErr != nil {
			c.logger.Error("failed to persist handle", "id", h.ID, "error", putErr)
		}
	}

	if err != nil {
		if len(handles) == 0 {
			return nil, err
		}
		c.logger.Warn("partial launch", "requested", n, "launched", len(handles), "error", err)
		return handles, &domain.PartialLaunchError{Requested: n, Launched: len(handles), Handles: handles, Cause: err}
	}
	if len(handles) < n {
		c.logger.Warn("partial launch", "requested", n, "launched", len(handles))
		return handles, &domain.PartialLaunchError{Requested: n, Launched: len(handles), Handles: handles}
	}

	c.logger.Info("processes launched", "count", len(handles), "cpu", req.CPU, "memory_mb", req.MemoryMB)
	return handles, nil
}

func (c *clusterLifecycleImpl) BootstrapScheduler(ctx context.Context, req domain.LaunchRequest) (domain.SchedulerInfo, error) {
	handles, err := c.LaunchProcesses(ctx, 1, req)
	if err != nil {
		return domain.SchedulerInfo{}, err
	}
	h := handles[0]

	entry, err := c.awaitRegistryEntry(ctx, h.ID)
	if err != nil {
		return domain.SchedulerInfo{}, err
	}

	h.Address = entry.IPAddress
	if entry.AppURL != "" {
		h.AppURL = entry.AppURL
	}
	if domain.ValidStateTransition(h.State, domain.Running) {
		h.State = domain.Running
	}
	if putErr := c.store.Put(h.ID, h); putErr != nil {
		c.logger.Error("failed to persist scheduler handle", "id", h.ID, "error", putErr)
	}

	info := domain.SchedulerInfo{
		Handle:   h,
		Endpoint: domain.SchedulerEndpoint{Host: entry.IPAddress, Port: c.cfg.SchedulerPort},
	}
	c.logger.Info("scheduler ready", "id", h.ID, "url", info.Endpoint.URL())
	return info, nil
}

// awaitRegistryEntry consulta el registro hasta que el identificador lanzado
// aparece con dirección asignada, con intervalo y plazo acotados. El registro
// debe contener exactamente una entrada: un duplicado es una precondición
// violada, nunca se elige la primera a ciegas.
func (c *clusterLifecycleImpl) awaitRegistryEntry(ctx context.Context, id string) (domain.RegistryEntry, error) {
	deadline := clock.Now().Add(c.cfg.PollTimeout)
	for {
		if err := ctx.Err(); err != nil {
			return domain.RegistryEntry{}, err
		}

		entries, err := c.fabric.ListActive(ctx)
		if err != nil {
			c.logger.Warn("registry query failed", "error", err)
		} else {
			var matches []domain.RegistryEntry
			for _, e := range entries {
				if e.ID == id {
					matches = append(matches, e)
				}
			}
			if len(matches) > 1 {
				return domain.RegistryEntry{}, &domain.DuplicateSchedulerError{ID: id, Matches: len(matches)}
			}
			if len(matches) == 1 && matches[0].IPAddress != "" {
				return matches[0], nil
			}
		}

		if !clock.Now().Before(deadline) {
			return domain.RegistryEntry{}, &domain.SchedulerUnreachableError{ID: id, Waited: c.cfg.PollTimeout}
		}
		clock.Sleep(c.cfg.PollInterval)
	}
}

func (c *clusterLifecycleImpl) BootstrapWorkers(ctx context.Context, endpoint domain.SchedulerEndpoint, n int, req domain.LaunchRequest) ([]domain.WorkerHandle, error) {
	if endpoint.Host == "" {
		return nil, fmt.Errorf("bootstrap workers: scheduler endpoint not resolved")
	}

	wreq := req
	wreq.Command = strings.ReplaceAll(req.Command, SchedulerURLToken, endpoint.URL())
	wreq.EnvVars = make(map[string]string, len(req.EnvVars)+1)
	for k, v := range req.EnvVars {
		wreq.EnvVars[k] = v
	}
	wreq.EnvVars["SCHEDULER_URL"] = endpoint.URL()

	handles, err := c.LaunchProcesses(ctx, n, wreq)
	if err != nil {
		return handles, err
	}

	if err := c.awaitWorkersVisible(ctx, handles); err != nil {
		return handles, err
	}
	c.logger.Info("worker pool ready", "count", len(handles), "scheduler", endpoint.URL())
	return handles, nil
}

// awaitWorkersVisible espera a que los workers lanzados aparezcan en el
// registro. A diferencia del scheduler no es un handshake: agotado el plazo
// solo se deja constancia; la certeza de adhesión la da la librería de
// cómputo consultando al coordinador.
func (c *clusterLifecycleImpl) awaitWorkersVisible(ctx context.Context, handles []domain.WorkerHandle) error {
	pending := make(map[string]struct{}, len(handles))
	for _, h := range handles {
		pending[h.ID] = struct{}{}
	}

	deadline := clock.Now().Add(c.cfg.PollTimeout)
	for len(pending) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		entries, err := c.fabric.ListActive(ctx)
		if err != nil {
			c.logger.Warn("registry query failed", "error", err)
		} else {
			for _, e := range entries {
				if _, ok := pending[e.ID]; !ok {
					continue
				}
				delete(pending, e.ID)
				c.markRunning(e)
			}
		}

		if len(pending) == 0 {
			break
		}
		if !clock.Now().Before(deadline) {
			ids := make([]string, 0, len(pending))
			for id := range pending {
				ids = append(ids, id)
			}
			c.logger.Warn("workers not yet visible in registry", "ids", ids, "waited", c.cfg.PollTimeout)
			break
		}
		clock.Sleep(c.cfg.PollInterval)
	}
	return nil
}

func (c *clusterLifecycleImpl) markRunning(entry domain.RegistryEntry) {
	h, err := c.store.Get(entry.ID)
	if err != nil {
		return
	}
	if !domain.ValidStateTransition(h.State, domain.Running) {
		return
	}
	h.State = domain.Running
	h.Address = entry.IPAddress
	if putErr := c.store.Put(h.ID, h); putErr != nil {
		c.logger.Error("failed to persist handle", "id", h.ID, "error", putErr)
	}
}

func (c *clusterLifecycleImpl) Teardown(ctx context.Context, handles []domain.WorkerHandle) ([]domain.StopResult, error) {
	if len(handles) == 0 {
		return nil, nil
	}

	// Exactamente los identificadores recibidos, sin duplicados. Nunca se
	// paran procesos fuera del conjunto aunque pertenezcan al mismo clúster.
	seen := make(map[string]struct{}, len(handles))
	ids := make([]string, 0, len(handles))
	for _, h := range handles {
		if h.ID == "" {
			continue
		}
		if _, ok := seen[h.ID]; ok {
			continue
		}
		seen[h.ID] = struct{}{}
		ids = append(ids, h.ID)
	}

	results, err := c.fabric.Stop(ctx, ids...)
	var errs error
	if err != nil {
		errs = multierr.Append(errs, err)
	}

	for _, r := range results {
		if r.Stopped {
			c.logger.Info("process stopped", "id", r.ID)
		} else {
			c.logger.Warn("teardown no-op: already stopped or unknown", "id", r.ID)
		}
		if delErr := c.store.Delete(r.ID); delErr != nil {
			c.logger.Debug("handle not tracked in store", "id", r.ID, "error", delErr)
		}
	}
	return results, errs
}
