package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"dev.rubentxu.ml-cluster/internal/core/domain"
)

func TestLaunchAssignsIdentifiers(t *testing.T) {
	f := NewFabric()
	handles, err := f.Launch(context.Background(), 3, domain.LaunchRequest{CPU: 1, MemoryMB: 512, Command: "sleep 60"})
	require.NoError(t, err)
	require.Len(t, handles, 3)

	seen := map[string]bool{}
	for _, h := range handles {
		require.NotEmpty(t, h.ID)
		require.False(t, seen[h.ID])
		seen[h.ID] = true
		require.Equal(t, domain.Requested, h.State)
	}
}

func TestLaunchHonoursCapacity(t *testing.T) {
	f := NewFabric(WithCapacity(2, 4096))

	handles, err := f.Launch(context.Background(), 3, domain.LaunchRequest{CPU: 1, MemoryMB: 512, Command: "sleep 60"})
	require.Error(t, err)
	require.Len(t, handles, 2)

	var capacity *domain.CapacityError
	require.True(t, errors.As(err, &capacity))
	require.Equal(t, 1, capacity.Count)
}

func TestStopReleasesCapacity(t *testing.T) {
	f := NewFabric(WithCapacity(2, 4096))
	ctx := context.Background()

	handles, err := f.Launch(ctx, 2, domain.LaunchRequest{CPU: 1, MemoryMB: 512, Command: "sleep 60"})
	require.NoError(t, err)

	_, err = f.Stop(ctx, handles[0].ID, handles[1].ID)
	require.NoError(t, err)

	// Con la capacidad liberada se puede volver a lanzar.
	handles, err = f.Launch(ctx, 2, domain.LaunchRequest{CPU: 1, MemoryMB: 512, Command: "sleep 60"})
	require.NoError(t, err)
	require.Len(t, handles, 2)
}

func TestStopUnknownIDIsNoOp(t *testing.T) {
	f := NewFabric()
	results, err := f.Stop(context.Background(), "missing-id")
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.False(t, results[0].Stopped)
}

func TestRegistrationDelayHidesEntries(t *testing.T) {
	f := NewFabric(WithRegistrationDelay(2))
	ctx := context.Background()

	_, err := f.Launch(ctx, 1, domain.LaunchRequest{CPU: 1, MemoryMB: 512, Command: "sleep 60"})
	require.NoError(t, err)

	entries, err := f.ListActive(ctx)
	require.NoError(t, err)
	require.Empty(t, entries)

	entries, err = f.ListActive(ctx)
	require.NoError(t, err)
	require.Empty(t, entries)

	entries, err = f.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NotEmpty(t, entries[0].IPAddress)
	require.NotEmpty(t, entries[0].AppURL)
}

func TestStaleEntriesAppearInRegistry(t *testing.T) {
	f := NewFabric()
	f.AddStaleEntry(domain.RegistryEntry{ID: "ghost", IPAddress: "10.64.0.99"})

	entries, err := f.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "ghost", entries[0].ID)
}

func TestStatsTrackUsage(t *testing.T) {
	f := NewFabric(WithCapacity(8, 8192))
	ctx := context.Background()

	before := f.GetStats()
	require.Equal(t, 8, before.CPUStats.AvailableCores)

	_, err := f.Launch(ctx, 2, domain.LaunchRequest{CPU: 2, MemoryMB: 1024, Command: "sleep 60"})
	require.NoError(t, err)

	after := f.GetStats()
	require.Equal(t, 4, after.CPUStats.AvailableCores)
	require.Equal(t, uint64(6144)*1024, after.MemoryStats.FreeKb)
}
