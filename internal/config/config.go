package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"dev.rubentxu.ml-cluster/internal/core/domain"
	"dev.rubentxu.ml-cluster/internal/core/ports"
)

// Config agrupa la configuración del demo y del ciclo de vida del clúster,
// leída del entorno con valores por defecto razonables.
type Config struct {
	Development bool

	FabricType     string
	ClusterID      string
	DockerEndpoint string
	KubeNamespace  string
	Image          string

	SchedulerPort int
	PollInterval  time.Duration
	PollTimeout   time.Duration

	SchedulerCommand  string
	SchedulerCPU      int
	SchedulerMemoryMB int

	WorkerCommand  string
	WorkerCount    int
	WorkerCPU      int
	WorkerMemoryMB int

	StoreType string
	StoreName string

	DatasetPath  string
	DatasetComma string
	TargetColumn string

	SearchDriver     string
	SearchDriverArgs []string
	SearchWorkDir    string
	ExportPath       string
	Search           ports.SearchConfig
}

// Load lee la configuración del entorno.
func Load() Config {
	return Config{
		Development: envBool("MLC_DEV", false),

		FabricType:     envStr("MLC_FABRIC", "memory"),
		ClusterID:      envStr("MLC_CLUSTER_ID", ""),
		DockerEndpoint: envStr("MLC_DOCKER_ENDPOINT", ""),
		KubeNamespace:  envStr("MLC_KUBE_NAMESPACE", "default"),
		Image:          envStr("MLC_IMAGE", "daskdev/dask:latest"),

		SchedulerPort: envInt("MLC_SCHEDULER_PORT", domain.DefaultSchedulerPort),
		PollInterval:  envDuration("MLC_POLL_INTERVAL", 500*time.Millisecond),
		PollTimeout:   envDuration("MLC_POLL_TIMEOUT", 60*time.Second),

		SchedulerCommand:  envStr("MLC_SCHEDULER_COMMAND", "dask-scheduler --port 8786"),
		SchedulerCPU:      envInt("MLC_SCHEDULER_CPU", 1),
		SchedulerMemoryMB: envInt("MLC_SCHEDULER_MEMORY_MB", 2048),

		WorkerCommand:  envStr("MLC_WORKER_COMMAND", "dask-worker {{scheduler_url}} --nworkers 1"),
		WorkerCount:    envInt("MLC_WORKER_COUNT", 3),
		WorkerCPU:      envInt("MLC_WORKER_CPU", 2),
		WorkerMemoryMB: envInt("MLC_WORKER_MEMORY_MB", 4096),

		StoreType: envStr("MLC_STORE", "persistent"),
		StoreName: envStr("MLC_STORE_NAME", "ml-cluster"),

		DatasetPath:  envStr("MLC_DATASET", "data/dataset.csv"),
		DatasetComma: envStr("MLC_DATASET_COMMA", ","),
		TargetColumn: envStr("MLC_TARGET_COLUMN", "target"),

		SearchDriver:     envStr("MLC_SEARCH_DRIVER", "python3"),
		SearchDriverArgs: envList("MLC_SEARCH_DRIVER_ARGS", []string{"automl_driver.py"}),
		SearchWorkDir:    envStr("MLC_SEARCH_WORKDIR", os.TempDir()),
		ExportPath:       envStr("MLC_EXPORT_PATH", "best_pipeline.py"),
		Search: ports.SearchConfig{
			ScoringMetric:  envStr("MLC_SEARCH_SCORING", "accuracy"),
			Generations:    envInt("MLC_SEARCH_GENERATIONS", 10),
			PopulationSize: envInt("MLC_SEARCH_POPULATION", 20),
			Distribute:     envBool("MLC_SEARCH_DISTRIBUTE", true),
			Verbosity:      envInt("MLC_SEARCH_VERBOSITY", 2),
			NJobs:          envInt("MLC_SEARCH_N_JOBS", -1),
		},
	}
}

// Comma devuelve el separador del dataset como rune.
func (c Config) Comma() rune {
	if c.DatasetComma == "" {
		return ','
	}
	return []rune(c.DatasetComma)[0]
}

func envStr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return strings.Fields(v)
	}
	return fallback
}
