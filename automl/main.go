package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"

	"dev.rubentxu.ml-cluster/internal/adapters/dataset"
	"dev.rubentxu.ml-cluster/internal/adapters/fabric"
	"dev.rubentxu.ml-cluster/internal/adapters/fabric/docker"
	"dev.rubentxu.ml-cluster/internal/adapters/fabric/kubernetes"
	"dev.rubentxu.ml-cluster/internal/adapters/logger"
	"dev.rubentxu.ml-cluster/internal/adapters/search"
	"dev.rubentxu.ml-cluster/internal/adapters/store"
	"dev.rubentxu.ml-cluster/internal/config"
	"dev.rubentxu.ml-cluster/internal/core/domain"
	"dev.rubentxu.ml-cluster/internal/core/ports"
	"dev.rubentxu.ml-cluster/internal/core/usecase"
)

// Demo de búsqueda distribuida de pipelines: carga un dataset tabular, lo
// perfila, levanta un clúster ad-hoc (un scheduler y N workers) sobre el
// fabric configurado, delega la búsqueda en la librería AutoML externa y
// desmonta el clúster al terminar (workers primero, scheduler después).
func main() {
	cfg := config.Load()

	zl, err := logger.NewZapLogger(cfg.Development)
	if err != nil {
		os.Exit(1)
	}
	defer func() { _ = zl.Sync() }()
	log := zl.With("app", "automl-demo")

	if err := run(cfg, log); err != nil {
		log.Error("demo failed", "error", err)
		_ = zl.Sync()
		os.Exit(1)
	}
}

func run(cfg config.Config, log ports.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// 1. Cargar y perfilar el dataset
	table, err := dataset.Load(cfg.DatasetPath, cfg.Comma())
	if err != nil {
		return err
	}
	profile := table.Profile()
	log.Info("dataset loaded", "path", cfg.DatasetPath, "rows", profile.Rows, "columns", profile.Cols)
	for _, col := range profile.Columns {
		log.Debug("column profile",
			"name", col.Name, "numeric", col.Numeric, "missing", col.Missing, "mean", col.Mean)
	}

	x, y, err := table.SplitXY(cfg.TargetColumn)
	if err != nil {
		return errors.Wrapf(err, "unable to split dataset on target %s", cfg.TargetColumn)
	}

	// 2. Fabric de cómputo y store de handles
	computeFabric, err := fabric.NewComputeFabric(ctx, fabric.FabricType(cfg.FabricType), fabricConfig(cfg), log)
	if err != nil {
		return errors.Wrapf(err, "unable to create %s fabric", cfg.FabricType)
	}
	stats := computeFabric.GetStats()
	log.Info("fabric capacity",
		"cores", stats.CPUStats.AvailableCores, "memory_kb", stats.MemoryStats.TotalKb)

	handleStore, err := store.NewHandleStore(cfg.StoreType, cfg.StoreName)
	if err != nil {
		return errors.Wrapf(err, "unable to create %s handle store", cfg.StoreType)
	}
	defer func() { _ = handleStore.Close() }()

	lifecycle := usecase.NewClusterLifecycle(computeFabric, handleStore, log, usecase.Config{
		SchedulerPort: cfg.SchedulerPort,
		PollInterval:  cfg.PollInterval,
		PollTimeout:   cfg.PollTimeout,
	})

	// 3. Bootstrap del scheduler y resolución de su dirección
	schedInfo, err := lifecycle.BootstrapScheduler(ctx, domain.LaunchRequest{
		CPU:      cfg.SchedulerCPU,
		MemoryMB: cfg.SchedulerMemoryMB,
		Command:  cfg.SchedulerCommand,
		Labels:   map[string]string{"role": "scheduler"},
	})
	if err != nil {
		return errors.Wrap(err, "scheduler bootstrap failed")
	}
	if url := domain.DashboardURL(schedInfo.Handle.AppURL); url != "" {
		log.Info("cluster dashboard", "url", url)
	}

	// 4. Bootstrap del pool de workers, adheridos al scheduler resuelto
	workers, err := lifecycle.BootstrapWorkers(ctx, schedInfo.Endpoint, cfg.WorkerCount, domain.LaunchRequest{
		CPU:      cfg.WorkerCPU,
		MemoryMB: cfg.WorkerMemoryMB,
		Command:  cfg.WorkerCommand,
		Labels:   map[string]string{"role": "worker"},
	})
	if err != nil {
		var partial *domain.PartialLaunchError
		if errors.As(err, &partial) {
			// Resultado mixto: se sigue con los workers que sí arrancaron.
			log.Warn("continuing with partial worker pool",
				"requested", partial.Requested, "launched", partial.Launched)
		} else {
			teardown(ctx, lifecycle, workers, schedInfo, log)
			return errors.Wrap(err, "worker pool bootstrap failed")
		}
	}
	defer teardown(ctx, lifecycle, workers, schedInfo, log)

	// 5. Búsqueda de pipelines delegada en la librería externa
	searchCfg := cfg.Search
	searchCfg.SchedulerURL = schedInfo.Endpoint.URL()
	searcher := search.NewExecSearch(cfg.SearchDriver, cfg.SearchDriverArgs, cfg.SearchWorkDir, searchCfg, log)

	if err := searcher.Fit(ctx, x, y); err != nil {
		return errors.Wrap(err, "pipeline search failed")
	}
	score, err := searcher.Score(ctx, x, y)
	if err != nil {
		return errors.Wrap(err, "scoring failed")
	}
	log.Info("pipeline search finished", "metric", searchCfg.ScoringMetric, "score", score)

	if err := searcher.Export(ctx, cfg.ExportPath); err != nil {
		return errors.Wrap(err, "pipeline export failed")
	}
	log.Info("pipeline exported", "path", cfg.ExportPath)
	return nil
}

// teardown desmonta primero los workers y después el scheduler. Solo se
// paran los identificadores lanzados en esta ejecución.
func teardown(ctx context.Context, lifecycle usecase.ClusterLifecycle, workers []domain.WorkerHandle, schedInfo domain.SchedulerInfo, log ports.Logger) {
	if len(workers) > 0 {
		if _, err := lifecycle.Teardown(ctx, workers); err != nil {
			log.Error("worker teardown reported errors", "error", err)
		}
	}
	if _, err := lifecycle.Teardown(ctx, []domain.WorkerHandle{schedInfo.Handle}); err != nil {
		log.Error("scheduler teardown reported errors", "error", err)
	}
}

func fabricConfig(cfg config.Config) interface{} {
	switch fabric.FabricType(cfg.FabricType) {
	case fabric.FabricTypeDocker:
		return docker.Config{
			Endpoint:      cfg.DockerEndpoint,
			Image:         cfg.Image,
			ClusterID:     cfg.ClusterID,
			SchedulerPort: cfg.SchedulerPort,
		}
	case fabric.FabricTypeKubernetes:
		return kubernetes.Config{
			Namespace: cfg.KubeNamespace,
			Image:     cfg.Image,
			ClusterID: cfg.ClusterID,
		}
	default:
		return nil
	}
}
