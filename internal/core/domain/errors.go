package domain

import (
	"fmt"
	"time"
)

// CapacityError: el fabric no puede satisfacer la reserva de recursos.
type CapacityError struct {
	Count    int
	CPU      int
	MemoryMB int
	Reason   string
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("fabric cannot satisfy %d x (cpu=%d, memory=%dMB): %s",
		e.Count, e.CPU, e.MemoryMB, e.Reason)
}

// PartialLaunchError: arrancaron menos procesos de los solicitados.
// Handles contiene los que sí arrancaron, para que el llamador pueda
// decidir entre reintentar o hacer teardown del estado parcial.
type PartialLaunchError struct {
	Requested int
	Launched  int
	Handles   []WorkerHandle
	Cause     error
}

func (e *PartialLaunchError) Error() string {
	msg := fmt.Sprintf("partial launch: %d of %d processes started", e.Launched, e.Requested)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *PartialLaunchError) Unwrap() error { return e.Cause }

// SchedulerUnreachableError: el scheduler lanzado no apareció en el registro
// dentro del plazo de resolución.
type SchedulerUnreachableError struct {
	ID     string
	Waited time.Duration
}

func (e *SchedulerUnreachableError) Error() string {
	return fmt.Sprintf("scheduler %s not present in registry after %s", e.ID, e.Waited)
}

// DuplicateSchedulerError: el registro devolvió más de una entrada para el
// identificador lanzado. Precondición violada; nunca se elige la primera.
type DuplicateSchedulerError struct {
	ID      string
	Matches int
}

func (e *DuplicateSchedulerError) Error() string {
	return fmt.Sprintf("registry returned %d entries for scheduler %s, expected exactly one", e.Matches, e.ID)
}
