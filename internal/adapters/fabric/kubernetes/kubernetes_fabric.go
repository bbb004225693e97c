package kubernetes

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	corev1 "k8s.io/api/core/v1"
	k8serrors "k8s.io/apimachinery/pkg/api/errors"
	kuberes "k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"

	"dev.rubentxu.ml-cluster/internal/core/domain"
	"dev.rubentxu.ml-cluster/internal/core/domain/resource"
	"dev.rubentxu.ml-cluster/internal/core/ports"
)

const clusterLabel = "ml-cluster-id"

// Config describe un fabric respaldado por un clúster de Kubernetes.
type Config struct {
	Namespace     string // Namespace de Kubernetes
	Proxy         string // URL del proxy (opcional)
	SkipSSL       bool   // Omitir verificación SSL (opcional)
	Image         string
	ClusterID     string
	DashboardPort int
}

// Fabric implementa ports.ComputeFabric lanzando un pod por proceso.
type Fabric struct {
	clientset     *kubernetes.Clientset
	logger        ports.Logger
	namespace     string
	image         string
	clusterID     string
	dashboardPort int
}

// NewFabric construye el cliente in-cluster, igual que el resto de la
// plataforma cuando corre dentro de Kubernetes.
func NewFabric(cfg Config, logger ports.Logger) (*Fabric, error) {
	kubeConfig, err := rest.InClusterConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create in-cluster config")
	}

	if cfg.Proxy != "" {
		proxy, err := url.Parse(cfg.Proxy)
		if err != nil {
			return nil, errors.Wrap(err, "invalid proxy URL")
		}
		kubeConfig.Proxy = http.ProxyURL(proxy)
	}
	if cfg.SkipSSL {
		kubeConfig.TLSClientConfig = rest.TLSClientConfig{Insecure: true}
	}

	clientset, err := kubernetes.NewForConfig(kubeConfig)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Kubernetes client")
	}

	if cfg.Image == "" {
		return nil, errors.New("kubernetes fabric requires an image")
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "default"
	}
	if cfg.ClusterID == "" {
		cfg.ClusterID = uuid.New().String()[:8]
	}
	if cfg.DashboardPort == 0 {
		cfg.DashboardPort = 8787
	}

	return &Fabric{
		clientset:     clientset,
		logger:        logger.With("component", "kubernetes_fabric", "cluster", cfg.ClusterID),
		namespace:     cfg.Namespace,
		image:         cfg.Image,
		clusterID:     cfg.ClusterID,
		dashboardPort: cfg.DashboardPort,
	}, nil
}

func (f *Fabric) Launch(ctx context.Context, n int, req domain.LaunchRequest) ([]domain.WorkerHandle, error) {
	labels := map[string]string{clusterLabel: f.clusterID}
	for k, v := range req.Labels {
		labels[k] = v
	}

	env := make([]corev1.EnvVar, 0, len(req.EnvVars))
	for k, v := range req.EnvVars {
		env = append(env, corev1.EnvVar{Name: k, Value: v})
	}

	resources := corev1.ResourceRequirements{
		Requests: corev1.ResourceList{
			corev1.ResourceCPU:    *kuberes.NewQuantity(int64(req.CPU), kuberes.DecimalSI),
			corev1.ResourceMemory: *kuberes.NewQuantity(int64(req.MemoryMB)*1024*1024, kuberes.BinarySI),
		},
		Limits: corev1.ResourceList{
			corev1.ResourceCPU:    *kuberes.NewQuantity(int64(req.CPU), kuberes.DecimalSI),
			corev1.ResourceMemory: *kuberes.NewQuantity(int64(req.MemoryMB)*1024*1024, kuberes.BinarySI),
		},
	}

	var handles []domain.WorkerHandle
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return handles, err
		}

		name := fmt.Sprintf("mlc-%s-%s", f.clusterID, uuid.New().String()[:8])
		pod := &corev1.Pod{
			ObjectMeta: metav1.ObjectMeta{
				Name:      name,
				Namespace: f.namespace,
				Labels:    labels,
			},
			Spec: corev1.PodSpec{
				RestartPolicy: corev1.RestartPolicyNever,
				Containers: []corev1.Container{{
					Name:      "proc",
					Image:     f.image,
					Command:   []string{"/bin/sh", "-c", req.Command},
					Env:       env,
					Resources: resources,
				}},
			},
		}

		created, err := f.clientset.CoreV1().Pods(f.namespace).Create(ctx, pod, metav1.CreateOptions{})
		if err != nil {
			if k8serrors.IsForbidden(err) {
				// Cuota agotada: el fabric no puede satisfacer la reserva.
				return handles, &domain.CapacityError{
					Count:    n - i,
					CPU:      req.CPU,
					MemoryMB: req.MemoryMB,
					Reason:   err.Error(),
				}
			}
			return handles, errors.Wrap(err, "failed to create pod")
		}

		handles = append(handles, domain.WorkerHandle{
			ID:         created.Name,
			Request:    req,
			State:      domain.Requested,
			LaunchedAt: time.Now().UTC(),
		})
		f.logger.Info("pod created", "pod", created.Name)
	}
	return handles, nil
}

func (f *Fabric) ListActive(ctx context.Context) ([]domain.RegistryEntry, error) {
	pods, err := f.clientset.CoreV1().Pods(f.namespace).List(ctx, metav1.ListOptions{
		LabelSelector: fmt.Sprintf("%s=%s", clusterLabel, f.clusterID),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list pods")
	}

	var entries []domain.RegistryEntry
	for _, pod := range pods.Items {
		if pod.Status.Phase != corev1.PodRunning && pod.Status.Phase != corev1.PodPending {
			continue
		}
		entry := domain.RegistryEntry{
			ID:        pod.Name,
			IPAddress: pod.Status.PodIP,
		}
		if entry.IPAddress != "" {
			entry.AppURL = fmt.Sprintf("https://%s:%d", entry.IPAddress, f.dashboardPort)
		}
		if pod.Status.StartTime != nil {
			entry.StartedAt = pod.Status.StartTime.Time
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (f *Fabric) Stop(ctx context.Context, ids ...string) ([]domain.StopResult, error) {
	results := make([]domain.StopResult, 0, len(ids))
	for _, id := range ids {
		err := f.clientset.CoreV1().Pods(f.namespace).Delete(ctx, id, metav1.DeleteOptions{})
		if err != nil {
			if k8serrors.IsNotFound(err) {
				results = append(results, domain.StopResult{ID: id, Stopped: false})
				continue
			}
			return results, errors.Wrapf(err, "failed to delete pod %s", id)
		}
		results = append(results, domain.StopResult{ID: id, Stopped: true})
	}
	return results, nil
}

func (f *Fabric) GetStats() resource.HostStats {
	nodes, err := f.clientset.CoreV1().Nodes().List(context.Background(), metav1.ListOptions{})
	if err != nil {
		f.logger.Error("failed to list nodes", "error", err)
		return resource.NewHostStats()
	}

	stats := resource.HostStats{}
	for _, node := range nodes.Items {
		stats.CPUStats.AvailableCores += int(node.Status.Capacity.Cpu().Value())
		stats.MemoryStats.TotalKb += uint64(node.Status.Capacity.Memory().Value()) / 1024
	}
	return stats
}

func (f *Fabric) GetHealthStatus(ctx context.Context) resource.HealthStatus {
	if _, err := f.clientset.Discovery().ServerVersion(); err != nil {
		return resource.HealthStatus{
			IsHealthy: false,
			LastCheck: time.Now(),
			Message:   fmt.Sprintf("kubernetes API unreachable: %v", err),
		}
	}
	return resource.NewHealthStatus()
}
