package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"dev.rubentxu.ml-cluster/internal/core/domain"
	"dev.rubentxu.ml-cluster/internal/core/ports"
)

func sampleHandle(id string) domain.WorkerHandle {
	return domain.WorkerHandle{
		ID:      id,
		Address: "10.64.0.5",
		Request: domain.LaunchRequest{CPU: 2, MemoryMB: 4096, Command: "dask-worker tcp://10.64.0.1:8786"},
		State:   domain.Running,
	}
}

func runHandleStoreTests(t *testing.T, s ports.HandleStore) {
	t.Helper()

	h := sampleHandle("proc-1")
	require.NoError(t, s.Put(h.ID, h))

	got, err := s.Get("proc-1")
	require.NoError(t, err)
	require.Equal(t, h.ID, got.ID)
	require.Equal(t, h.Address, got.Address)
	require.Equal(t, h.State, got.State)
	require.Equal(t, h.Request.Command, got.Request.Command)

	require.NoError(t, s.Put("proc-2", sampleHandle("proc-2")))
	handles, err := s.List()
	require.NoError(t, err)
	require.Len(t, handles, 2)

	require.NoError(t, s.Delete("proc-1"))
	_, err = s.Get("proc-1")
	require.ErrorIs(t, err, ErrHandleNotFound)
	require.ErrorIs(t, s.Delete("proc-1"), ErrHandleNotFound)
}

func TestMemoryHandleStore(t *testing.T) {
	s := NewMemoryHandleStore()
	defer s.Close()
	runHandleStoreTests(t, s)
}

func TestBoltHandleStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "handles.db")
	s, err := NewBoltHandleStore(path, 0600, "handles")
	require.NoError(t, err)
	defer s.Close()
	runHandleStoreTests(t, s)
}

func TestBoltHandleStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "handles.db")

	s, err := NewBoltHandleStore(path, 0600, "handles")
	require.NoError(t, err)
	require.NoError(t, s.Put("proc-1", sampleHandle("proc-1")))
	require.NoError(t, s.Close())

	// Reabrir: los handles persisten para la limpieza fuera de banda.
	s, err = NewBoltHandleStore(path, 0600, "handles")
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Get("proc-1")
	require.NoError(t, err)
	require.Equal(t, "proc-1", got.ID)
}

func TestNewHandleStoreFactory(t *testing.T) {
	s, err := NewHandleStore("memory", "test")
	require.NoError(t, err)
	require.NotNil(t, s)

	_, err = NewHandleStore("redis", "test")
	require.Error(t, err)
}
