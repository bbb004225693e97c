package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	require.Equal(t, "memory", cfg.FabricType)
	require.Equal(t, 8786, cfg.SchedulerPort)
	require.Equal(t, 500*time.Millisecond, cfg.PollInterval)
	require.Equal(t, 60*time.Second, cfg.PollTimeout)
	require.Equal(t, 3, cfg.WorkerCount)
	require.Contains(t, cfg.WorkerCommand, "{{scheduler_url}}")
	require.Equal(t, "persistent", cfg.StoreType)
	require.Equal(t, "accuracy", cfg.Search.ScoringMetric)
	require.True(t, cfg.Search.Distribute)
	require.Equal(t, -1, cfg.Search.NJobs)
}

func TestLoadOverridesFromEnvironment(t *testing.T) {
	t.Setenv("MLC_FABRIC", "docker")
	t.Setenv("MLC_WORKER_COUNT", "7")
	t.Setenv("MLC_POLL_TIMEOUT", "90s")
	t.Setenv("MLC_SEARCH_DISTRIBUTE", "false")
	t.Setenv("MLC_SEARCH_DRIVER_ARGS", "driver.py --quiet")

	cfg := Load()
	require.Equal(t, "docker", cfg.FabricType)
	require.Equal(t, 7, cfg.WorkerCount)
	require.Equal(t, 90*time.Second, cfg.PollTimeout)
	require.False(t, cfg.Search.Distribute)
	require.Equal(t, []string{"driver.py", "--quiet"}, cfg.SearchDriverArgs)
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("MLC_WORKER_COUNT", "many")
	t.Setenv("MLC_POLL_INTERVAL", "pronto")

	cfg := Load()
	require.Equal(t, 3, cfg.WorkerCount)
	require.Equal(t, 500*time.Millisecond, cfg.PollInterval)
}

func TestComma(t *testing.T) {
	require.Equal(t, ',', Config{}.Comma())
	require.Equal(t, ';', Config{DatasetComma: ";"}.Comma())
}
