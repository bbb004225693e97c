package fabric

import (
	"context"
	"errors"
	"fmt"

	"dev.rubentxu.ml-cluster/internal/adapters/fabric/docker"
	"dev.rubentxu.ml-cluster/internal/adapters/fabric/kubernetes"
	"dev.rubentxu.ml-cluster/internal/adapters/fabric/memory"
	"dev.rubentxu.ml-cluster/internal/core/ports"
)

type FabricType string

const (
	FabricTypeDocker     FabricType = "docker"
	FabricTypeKubernetes FabricType = "kubernetes"
	FabricTypeMemory     FabricType = "memory"
)

// NewComputeFabric crea el fabric del tipo indicado con su configuración.
func NewComputeFabric(ctx context.Context, fabricType FabricType, config interface{}, logger ports.Logger) (ports.ComputeFabric, error) {
	switch fabricType {
	case FabricTypeDocker:
		dockerCfg, ok := config.(docker.Config)
		if !ok {
			return nil, errors.New("invalid Docker config")
		}
		return docker.NewFabric(ctx, dockerCfg, logger)
	case FabricTypeKubernetes:
		kubeCfg, ok := config.(kubernetes.Config)
		if !ok {
			return nil, errors.New("invalid Kubernetes config")
		}
		return kubernetes.NewFabric(kubeCfg, logger)
	case FabricTypeMemory:
		return memory.NewFabric(), nil
	default:
		return nil, fmt.Errorf("unsupported fabric type: %s", fabricType)
	}
}
