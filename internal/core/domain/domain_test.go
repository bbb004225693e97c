package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidStateTransitions(t *testing.T) {
	require.True(t, ValidStateTransition(Requested, Running))
	require.True(t, ValidStateTransition(Requested, Failed))
	require.True(t, ValidStateTransition(Requested, Stopped))
	require.True(t, ValidStateTransition(Running, Stopped))
}

func TestHandlesAreSingleUse(t *testing.T) {
	// No hay vuelta atrás desde un estado final.
	require.False(t, ValidStateTransition(Stopped, Running))
	require.False(t, ValidStateTransition(Stopped, Requested))
	require.False(t, ValidStateTransition(Failed, Running))
	require.False(t, ValidStateTransition(Running, Requested))
	require.False(t, ValidStateTransition(Running, Failed))
}

func TestHandleStateString(t *testing.T) {
	require.Equal(t, "Requested", Requested.String())
	require.Equal(t, "Running", Running.String())
	require.Equal(t, "Stopped", Stopped.String())
	require.Equal(t, "Failed", Failed.String())
	require.Equal(t, "Unknown", HandleState(42).String())
}

func TestSchedulerEndpointURL(t *testing.T) {
	e := SchedulerEndpoint{Host: "10.64.0.7", Port: 8786}
	require.Equal(t, "tcp://10.64.0.7:8786", e.URL())
}

func TestDashboardURLSubstitutesScheme(t *testing.T) {
	require.Equal(t, "http://10.64.0.7:8787", DashboardURL("https://10.64.0.7:8787"))
	require.Equal(t, "http://10.64.0.7:8787", DashboardURL("tcp://10.64.0.7:8787"))
	require.Equal(t, "http://10.64.0.7:8787", DashboardURL("10.64.0.7:8787"))
	require.Empty(t, DashboardURL(""))
}

func TestPartialLaunchErrorWrapsCause(t *testing.T) {
	cause := &CapacityError{Count: 2, CPU: 2, MemoryMB: 4096, Reason: "insufficient fabric capacity"}
	err := &PartialLaunchError{Requested: 5, Launched: 3, Cause: cause}

	require.Contains(t, err.Error(), "3 of 5")
	require.Contains(t, err.Error(), "insufficient fabric capacity")
	require.Equal(t, cause, err.Unwrap())
}
