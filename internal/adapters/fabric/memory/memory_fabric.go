package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"dev.rubentxu.ml-cluster/internal/clock"
	"dev.rubentxu.ml-cluster/internal/core/domain"
	"dev.rubentxu.ml-cluster/internal/core/domain/resource"
)

const (
	defaultCPUCapacity      = 64
	defaultMemoryCapacityMB = 262144
)

// Option configura el fabric en memoria.
type Option func(*Fabric)

// WithCapacity fija la capacidad total del fabric en núcleos y MB.
func WithCapacity(cpu int, memoryMB int) Option {
	return func(f *Fabric) {
		f.capCPU = cpu
		f.capMemoryMB = memoryMB
	}
}

// WithRegistrationDelay hace que una entrada tarde n consultas a ListActive
// en aparecer, simulando la asignación asíncrona de direcciones del fabric.
func WithRegistrationDelay(polls int) Option {
	return func(f *Fabric) {
		f.registrationDelay = polls
	}
}

type activeProc struct {
	entry        domain.RegistryEntry
	req          domain.LaunchRequest
	visibleAfter int
}

// Fabric implementa ports.ComputeFabric en memoria. Se usa como backend de
// pruebas y como fabric local cuando no hay docker ni kubernetes a mano.
type Fabric struct {
	mu                sync.Mutex
	capCPU            int
	capMemoryMB       int
	usedCPU           int
	usedMemoryMB      int
	registrationDelay int
	nextHost          int
	active            map[string]*activeProc
	stale             []domain.RegistryEntry
	stopCalls         [][]string
}

// NewFabric crea un fabric en memoria con la capacidad por defecto.
func NewFabric(opts ...Option) *Fabric {
	f := &Fabric{
		capCPU:      defaultCPUCapacity,
		capMemoryMB: defaultMemoryCapacityMB,
		active:      make(map[string]*activeProc),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Fabric) Launch(ctx context.Context, n int, req domain.LaunchRequest) ([]domain.WorkerHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var handles []domain.WorkerHandle
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return handles, err
		}
		if f.usedCPU+req.CPU > f.capCPU || f.usedMemoryMB+req.MemoryMB > f.capMemoryMB {
			return handles, &domain.CapacityError{
				Count:    n - i,
				CPU:      req.CPU,
				MemoryMB: req.MemoryMB,
				Reason:   "insufficient fabric capacity",
			}
		}

		id := uuid.New().String()
		f.nextHost++
		ip := fmt.Sprintf("10.64.0.%d", f.nextHost)
		appURL := fmt.Sprintf("https://%s:8787", ip)

		f.active[id] = &activeProc{
			entry: domain.RegistryEntry{
				ID:        id,
				IPAddress: ip,
				AppURL:    appURL,
				StartedAt: clock.Now(),
			},
			req:          req,
			visibleAfter: f.registrationDelay,
		}
		f.usedCPU += req.CPU
		f.usedMemoryMB += req.MemoryMB

		handles = append(handles, domain.WorkerHandle{
			ID:         id,
			AppURL:     appURL,
			Request:    req,
			State:      domain.Requested,
			LaunchedAt: clock.Now(),
		})
	}
	return handles, nil
}

func (f *Fabric) ListActive(ctx context.Context) ([]domain.RegistryEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	var entries []domain.RegistryEntry
	for _, p := range f.active {
		if p.visibleAfter > 0 {
			p.visibleAfter--
			continue
		}
		entries = append(entries, p.entry)
	}
	entries = append(entries, f.stale...)
	return entries, nil
}

func (f *Fabric) Stop(ctx context.Context, ids ...string) ([]domain.StopResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	f.stopCalls = append(f.stopCalls, append([]string(nil), ids...))

	results := make([]domain.StopResult, 0, len(ids))
	for _, id := range ids {
		p, ok := f.active[id]
		if !ok {
			results = append(results, domain.StopResult{ID: id, Stopped: false})
			continue
		}
		delete(f.active, id)
		f.usedCPU -= p.req.CPU
		f.usedMemoryMB -= p.req.MemoryMB
		results = append(results, domain.StopResult{ID: id, Stopped: true})
	}
	return results, nil
}

func (f *Fabric) GetStats() resource.HostStats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return resource.HostStats{
		CPUStats: resource.CPUStats{AvailableCores: f.capCPU - f.usedCPU},
		MemoryStats: resource.MemoryStats{
			TotalKb: uint64(f.capMemoryMB) * 1024,
			FreeKb:  uint64(f.capMemoryMB-f.usedMemoryMB) * 1024,
		},
	}
}

func (f *Fabric) GetHealthStatus(ctx context.Context) resource.HealthStatus {
	status := resource.NewHealthStatus()
	status.Message = "in-memory fabric"
	return status
}

// AddStaleEntry inyecta una entrada que el fabric aún no ha retirado, por
// ejemplo el coordinador de una ejecución anterior con el mismo identificador.
func (f *Fabric) AddStaleEntry(entry domain.RegistryEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stale = append(f.stale, entry)
}

// StopCalls devuelve cada petición de stop recibida, en orden.
func (f *Fabric) StopCalls() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	calls := make([][]string, len(f.stopCalls))
	for i, c := range f.stopCalls {
		calls[i] = append([]string(nil), c...)
	}
	return calls
}
