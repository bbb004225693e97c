package docker

import (
	"context"
	"fmt"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/docker/docker/errdefs"
	"github.com/docker/go-connections/nat"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"dev.rubentxu.ml-cluster/internal/core/domain"
	"dev.rubentxu.ml-cluster/internal/core/domain/resource"
	"dev.rubentxu.ml-cluster/internal/core/ports"
)

const clusterLabel = "dev.rubentxu.ml-cluster"

// Config describe un fabric respaldado por un daemon Docker.
type Config struct {
	Endpoint      string // vacío = variables de entorno del daemon
	Image         string // imagen con la que se ejecutan los comandos lanzados
	ClusterID     string
	SchedulerPort int
	DashboardPort int
}

// Fabric implementa ports.ComputeFabric sobre contenedores en una red bridge
// etiquetada. La "capacidad" la impone el daemon vía límites de recursos.
type Fabric struct {
	cli           *client.Client
	logger        ports.Logger
	image         string
	clusterID     string
	networkName   string
	networkID     string
	schedulerPort int
	dashboardPort int
}

// NewFabric crea el cliente Docker y garantiza la red del clúster.
func NewFabric(ctx context.Context, cfg Config, logger ports.Logger) (*Fabric, error) {
	opts := []client.Opt{client.WithAPIVersionNegotiation()}
	if cfg.Endpoint != "" {
		opts = append(opts, client.WithHost(cfg.Endpoint))
	} else {
		opts = append(opts, client.FromEnv)
	}
	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create docker client")
	}

	if cfg.Image == "" {
		return nil, errors.New("docker fabric requires an image")
	}
	if cfg.ClusterID == "" {
		cfg.ClusterID = uuid.New().String()[:8]
	}
	if cfg.SchedulerPort == 0 {
		cfg.SchedulerPort = domain.DefaultSchedulerPort
	}
	if cfg.DashboardPort == 0 {
		cfg.DashboardPort = 8787
	}

	f := &Fabric{
		cli:           cli,
		logger:        logger.With("component", "docker_fabric", "cluster", cfg.ClusterID),
		image:         cfg.Image,
		clusterID:     cfg.ClusterID,
		networkName:   fmt.Sprintf("ml-cluster-%s", cfg.ClusterID),
		schedulerPort: cfg.SchedulerPort,
		dashboardPort: cfg.DashboardPort,
	}
	if err := f.ensureNetwork(ctx); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *Fabric) ensureNetwork(ctx context.Context) error {
	networks, err := f.cli.NetworkList(ctx, network.ListOptions{
		Filters: filters.NewArgs(filters.Arg("name", f.networkName)),
	})
	if err != nil {
		return errors.Wrap(err, "failed to list networks")
	}
	for _, n := range networks {
		if n.Name == f.networkName {
			f.networkID = n.ID
			return nil
		}
	}

	resp, err := f.cli.NetworkCreate(ctx, f.networkName, network.CreateOptions{
		Driver: "bridge",
		Labels: map[string]string{clusterLabel: f.clusterID},
	})
	if err != nil {
		return errors.Wrap(err, "failed to create network")
	}
	f.networkID = resp.ID
	f.logger.Info("cluster network created", "network", f.networkName)
	return nil
}

func (f *Fabric) Launch(ctx context.Context, n int, req domain.LaunchRequest) ([]domain.WorkerHandle, error) {
	exposed := nat.PortSet{
		nat.Port(fmt.Sprintf("%d/tcp", f.schedulerPort)): struct{}{},
		nat.Port(fmt.Sprintf("%d/tcp", f.dashboardPort)): struct{}{},
	}

	labels := map[string]string{clusterLabel: f.clusterID}
	for k, v := range req.Labels {
		labels[k] = v
	}

	var handles []domain.WorkerHandle
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return handles, err
		}

		name := fmt.Sprintf("mlc-%s-%s", f.clusterID, uuid.New().String()[:8])
		config := &container.Config{
			Hostname:     name,
			Image:        f.image,
			Cmd:          []string{"/bin/sh", "-c", req.Command},
			Env:          mapToEnvVars(req.EnvVars),
			Labels:       labels,
			ExposedPorts: exposed,
		}
		hostConfig := &container.HostConfig{
			Resources: container.Resources{
				NanoCPUs: int64(req.CPU) * 1e9,
				Memory:   int64(req.MemoryMB) * 1024 * 1024,
			},
		}
		networkingConfig := &network.NetworkingConfig{
			EndpointsConfig: map[string]*network.EndpointSettings{
				f.networkName: {NetworkID: f.networkID},
			},
		}

		resp, err := f.cli.ContainerCreate(ctx, config, hostConfig, networkingConfig, nil, name)
		if err != nil {
			return handles, f.launchError(n-i, req, err)
		}
		if err := f.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
			_ = f.cli.ContainerRemove(ctx, resp.ID, container.RemoveOptions{Force: true})
			return handles, f.launchError(n-i, req, err)
		}

		handles = append(handles, domain.WorkerHandle{
			ID:         resp.ID,
			Request:    req,
			State:      domain.Requested,
			LaunchedAt: time.Now().UTC(),
		})
		f.logger.Info("container started", "container_id", resp.ID, "name", name)
	}
	return handles, nil
}

// launchError traduce un rechazo del daemon a la taxonomía del dominio. Solo
// un rechazo por recursos (agotamiento del daemon o cuota denegada) es un
// CapacityError; una cancelación se propaga tal cual y cualquier otro fallo
// del API (imagen inexistente, daemon caído) se envuelve como error normal.
func (f *Fabric) launchError(remaining int, req domain.LaunchRequest, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if errdefs.IsSystem(err) || errdefs.IsForbidden(err) {
		return &domain.CapacityError{
			Count:    remaining,
			CPU:      req.CPU,
			MemoryMB: req.MemoryMB,
			Reason:   err.Error(),
		}
	}
	return errors.Wrap(err, "failed to launch container")
}

func (f *Fabric) ListActive(ctx context.Context) ([]domain.RegistryEntry, error) {
	containers, err := f.cli.ContainerList(ctx, container.ListOptions{
		Filters: filters.NewArgs(filters.Arg("label", fmt.Sprintf("%s=%s", clusterLabel, f.clusterID))),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list containers")
	}

	var entries []domain.RegistryEntry
	for _, c := range containers {
		info, err := f.cli.ContainerInspect(ctx, c.ID)
		if err != nil {
			f.logger.Warn("failed to inspect container", "container_id", c.ID, "error", err)
			continue
		}
		entry := domain.RegistryEntry{ID: c.ID}
		if settings, ok := info.NetworkSettings.Networks[f.networkName]; ok {
			entry.IPAddress = settings.IPAddress
		}
		if entry.IPAddress != "" {
			entry.AppURL = fmt.Sprintf("https://%s:%d", entry.IPAddress, f.dashboardPort)
		}
		if started, err := time.Parse(time.RFC3339Nano, info.State.StartedAt); err == nil {
			entry.StartedAt = started
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (f *Fabric) Stop(ctx context.Context, ids ...string) ([]domain.StopResult, error) {
	results := make([]domain.StopResult, 0, len(ids))
	for _, id := range ids {
		err := f.cli.ContainerRemove(ctx, id, container.RemoveOptions{
			Force:         true,
			RemoveVolumes: true,
		})
		if err != nil {
			if client.IsErrNotFound(err) {
				results = append(results, domain.StopResult{ID: id, Stopped: false})
				continue
			}
			return results, errors.Wrapf(err, "failed to remove container %s", id)
		}
		results = append(results, domain.StopResult{ID: id, Stopped: true})
	}
	return results, nil
}

func (f *Fabric) GetStats() resource.HostStats {
	info, err := f.cli.Info(context.Background())
	if err != nil {
		f.logger.Error("failed to get docker info", "error", err)
		return resource.NewHostStats()
	}
	return resource.HostStats{
		CPUStats: resource.CPUStats{AvailableCores: info.NCPU},
		MemoryStats: resource.MemoryStats{
			TotalKb: uint64(info.MemTotal) / 1024,
		},
	}
}

func (f *Fabric) GetHealthStatus(ctx context.Context) resource.HealthStatus {
	if _, err := f.cli.Ping(ctx); err != nil {
		return resource.HealthStatus{
			IsHealthy: false,
			LastCheck: time.Now(),
			Message:   fmt.Sprintf("docker daemon unreachable: %v", err),
		}
	}
	return resource.NewHealthStatus()
}

// Close elimina la red del clúster. Los contenedores se retiran vía Stop;
// aquí solo se limpia la infraestructura compartida.
func (f *Fabric) Close(ctx context.Context) error {
	if f.networkID == "" {
		return nil
	}
	if err := f.cli.NetworkRemove(ctx, f.networkID); err != nil && !client.IsErrNotFound(err) {
		return errors.Wrap(err, "failed to remove network")
	}
	return nil
}

func mapToEnvVars(envVars map[string]string) []string {
	env := make([]string, 0, len(envVars))
	for key, value := range envVars {
		env = append(env, key+"="+value)
	}
	return env
}
