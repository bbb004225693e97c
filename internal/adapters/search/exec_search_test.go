package search

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"dev.rubentxu.ml-cluster/internal/adapters/logger"
	"dev.rubentxu.ml-cluster/internal/core/ports"
)

func testConfig() ports.SearchConfig {
	return ports.SearchConfig{
		ScoringMetric:  "accuracy",
		Generations:    5,
		PopulationSize: 10,
		Distribute:     true,
		Verbosity:      2,
		NJobs:          -1,
		SchedulerURL:   "tcp://10.64.0.1:8786",
	}
}

func newShellSearch(t *testing.T, script string) *ExecSearch {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell driver not available")
	}
	return NewExecSearch("/bin/sh", []string{"-c", script}, t.TempDir(), testConfig(), logger.NewNopLogger())
}

func sampleXY() (ports.Matrix, ports.Vector) {
	x := ports.Matrix{{1, 2}, {3, 4}, {5, 6}}
	y := ports.Vector{0, 1, 0}
	return x, y
}

func TestBuildEnvCarriesSearchConfig(t *testing.T) {
	s := NewExecSearch("python3", nil, t.TempDir(), testConfig(), logger.NewNopLogger())

	env := s.buildEnv(map[string]string{"SEARCH_TRAIN_PATH": "/tmp/train.csv"})
	require.Contains(t, env, "SEARCH_SCORING=accuracy")
	require.Contains(t, env, "SEARCH_GENERATIONS=5")
	require.Contains(t, env, "SEARCH_POPULATION=10")
	require.Contains(t, env, "SEARCH_DISTRIBUTE=true")
	require.Contains(t, env, "SEARCH_N_JOBS=-1")
	require.Contains(t, env, "SCHEDULER_URL=tcp://10.64.0.1:8786")
	require.Contains(t, env, "SEARCH_TRAIN_PATH=/tmp/train.csv")
}

func TestBuildEnvOmitsEmptySchedulerURL(t *testing.T) {
	cfg := testConfig()
	cfg.SchedulerURL = ""
	s := NewExecSearch("python3", nil, t.TempDir(), cfg, logger.NewNopLogger())

	for _, kv := range s.buildEnv(nil) {
		require.NotContains(t, kv, "SCHEDULER_URL=")
	}
}

func TestFitAndScoreAgainstShellDriver(t *testing.T) {
	s := newShellSearch(t, "echo 0.85")
	x, y := sampleXY()

	require.NoError(t, s.Fit(context.Background(), x, y))

	score, err := s.Score(context.Background(), x, y)
	require.NoError(t, err)
	require.Equal(t, 0.85, score)
}

func TestFitFailsWhenDriverFails(t *testing.T) {
	s := newShellSearch(t, "echo boom >&2; exit 3")
	x, y := sampleXY()

	err := s.Fit(context.Background(), x, y)
	require.Error(t, err)
	require.Contains(t, err.Error(), "boom")
}

func TestFitRejectsMismatchedShapes(t *testing.T) {
	s := newShellSearch(t, "echo ok")
	x, _ := sampleXY()

	require.Error(t, s.Fit(context.Background(), x, ports.Vector{0}))
	require.Error(t, s.Fit(context.Background(), nil, nil))
}

func TestScoreRejectsMismatchedShapes(t *testing.T) {
	s := newShellSearch(t, "echo 0.5")
	x, y := sampleXY()

	require.NoError(t, s.Fit(context.Background(), x, y))

	// Un vector objetivo más corto que la matriz es un error, no un panic.
	_, err := s.Score(context.Background(), x, ports.Vector{0})
	require.Error(t, err)
	require.Contains(t, err.Error(), "mismatched dataset shapes")
	_, err = s.Score(context.Background(), nil, nil)
	require.Error(t, err)
}

func TestPredictRequiresFit(t *testing.T) {
	s := newShellSearch(t, "echo ok")
	x, _ := sampleXY()

	_, err := s.Predict(context.Background(), x)
	require.Error(t, err)
	_, err = s.Score(context.Background(), x, ports.Vector{0, 1, 0})
	require.Error(t, err)
	require.Error(t, s.Export(context.Background(), "out.py"))
}

func TestPredictReadsDriverOutput(t *testing.T) {
	// El driver escribe una predicción por línea en SEARCH_OUT_PATH.
	s := newShellSearch(t, `if [ -n "$SEARCH_OUT_PATH" ]; then printf '0\n1\n0\n' > "$SEARCH_OUT_PATH"; fi`)
	x, y := sampleXY()

	require.NoError(t, s.Fit(context.Background(), x, y))
	preds, err := s.Predict(context.Background(), x)
	require.NoError(t, err)
	require.Equal(t, ports.Vector{0, 1, 0}, preds)
}

func TestWriteXYAndReadVectorRoundTrip(t *testing.T) {
	dir := t.TempDir()
	x, y := sampleXY()

	path := filepath.Join(dir, "train.csv")
	require.NoError(t, writeXY(path, x, y))

	// Cada fila lleva las features más el objetivo al final.
	table, err := readCSVRows(path)
	require.NoError(t, err)
	require.Len(t, table, 3)
	require.Equal(t, []string{"1", "2", "0"}, table[0])

	vecPath := filepath.Join(dir, "vec.txt")
	require.NoError(t, writeVectorFile(vecPath, "0.5\n\n1.5\n"))
	vec, err := readVector(vecPath)
	require.NoError(t, err)
	require.Equal(t, ports.Vector{0.5, 1.5}, vec)
}

func readCSVRows(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return csv.NewReader(f).ReadAll()
}

func writeVectorFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0644)
}

func TestParseScoreUsesLastLine(t *testing.T) {
	score, err := parseScore([]byte("generation 1 done\ngeneration 2 done\n0.9731\n"))
	require.NoError(t, err)
	require.Equal(t, 0.9731, score)

	_, err = parseScore([]byte("no score here"))
	require.Error(t, err)
}
