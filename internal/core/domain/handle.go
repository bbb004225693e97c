package domain

import (
	"fmt"
	"strings"
	"time"
)

// Puerto por convención en el que escucha el scheduler dentro del fabric.
const DefaultSchedulerPort = 8786

// LaunchRequest describe la reserva de recursos y el comando de un proceso
// a lanzar en el fabric de cómputo.
type LaunchRequest struct {
	CPU      int               `json:"cpu"`       // núcleos (1 = 1 core)
	MemoryMB int               `json:"memory_mb"` // memoria en MB
	Command  string            `json:"command"`
	EnvVars  map[string]string `json:"env_vars,omitempty"`
	Labels   map[string]string `json:"labels,omitempty"`
}

// WorkerHandle identifica un proceso lanzado en el fabric.
// El ID se rellena en el lanzamiento; Address puede quedar vacío hasta que
// el registro del fabric publique la dirección asignada.
type WorkerHandle struct {
	ID         string        `json:"id"`
	Address    string        `json:"address,omitempty"`
	AppURL     string        `json:"app_url,omitempty"`
	Request    LaunchRequest `json:"request"`
	State      HandleState   `json:"state"`
	LaunchedAt time.Time     `json:"launched_at"`
}

// RegistryEntry es la vista que el registro del fabric expone de un proceso
// activo. El registro es estado externo; este módulo solo lo lee.
type RegistryEntry struct {
	ID        string    `json:"id"`
	IPAddress string    `json:"ip_address"`
	AppURL    string    `json:"app_url,omitempty"`
	StartedAt time.Time `json:"started_at,omitempty"`
}

// StopResult informa del resultado de parar un identificador concreto.
// Stopped=false indica un no-op (identificador desconocido o ya parado).
type StopResult struct {
	ID      string `json:"id"`
	Stopped bool   `json:"stopped"`
}

// SchedulerEndpoint es el punto de conexión del coordinador resuelto tras
// el bootstrap.
type SchedulerEndpoint struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// URL construye la dirección que consume la librería de cómputo distribuido.
func (e SchedulerEndpoint) URL() string {
	return fmt.Sprintf("tcp://%s:%d", e.Host, e.Port)
}

// SchedulerInfo agrupa el handle del coordinador y su endpoint resuelto.
type SchedulerInfo struct {
	Handle   WorkerHandle      `json:"handle"`
	Endpoint SchedulerEndpoint `json:"endpoint"`
}

// DashboardURL deriva la URL del dashboard sustituyendo el esquema del
// app_url publicado por el fabric en el lanzamiento.
func DashboardURL(appURL string) string {
	if appURL == "" {
		return ""
	}
	if i := strings.Index(appURL, "://"); i >= 0 {
		return "http" + appURL[i:]
	}
	return "http://" + appURL
}
