package search

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"dev.rubentxu.ml-cluster/internal/core/ports"
)

// ExecSearch delega la búsqueda evolutiva de pipelines en el driver externo
// de la librería AutoML, ejecutado como subproceso. El estado del modelo vive
// en el directorio de trabajo del run; este adaptador solo mueve datos,
// arranca el proceso y recoge resultados.
type ExecSearch struct {
	cfg     ports.SearchConfig
	driver  string
	args    []string
	workDir string
	logger  ports.Logger
	runID   string
	fitted  bool
}

// NewExecSearch crea el adaptador. driver es el ejecutable (p.ej. python3) y
// args sus argumentos fijos (el script del driver).
func NewExecSearch(driver string, args []string, workDir string, cfg ports.SearchConfig, logger ports.Logger) *ExecSearch {
	return &ExecSearch{
		cfg:     cfg,
		driver:  driver,
		args:    args,
		workDir: workDir,
		logger:  logger.With("component", "exec_search"),
		runID:   uuid.New().String()[:8],
	}
}

func (s *ExecSearch) Fit(ctx context.Context, x ports.Matrix, y ports.Vector) error {
	if len(x) == 0 || len(x) != len(y) {
		return errors.Errorf("fit: mismatched dataset shapes (%d features rows, %d targets)", len(x), len(y))
	}
	trainPath := s.runFile("train")
	if err := writeXY(trainPath, x, y); err != nil {
		return err
	}

	s.logger.Info("starting pipeline search",
		"generations", s.cfg.Generations,
		"population", s.cfg.PopulationSize,
		"distribute", s.cfg.Distribute,
		"scheduler", s.cfg.SchedulerURL)

	if _, err := s.run(ctx, "fit", map[string]string{"SEARCH_TRAIN_PATH": trainPath}); err != nil {
		return err
	}
	s.fitted = true
	return nil
}

func (s *ExecSearch) Predict(ctx context.Context, x ports.Matrix) (ports.Vector, error) {
	if !s.fitted {
		return nil, errors.New("predict: search has not been fitted")
	}
	inPath := s.runFile("predict-in")
	outPath := s.runFile("predict-out")
	if err := writeX(inPath, x); err != nil {
		return nil, err
	}
	_, err := s.run(ctx, "predict", map[string]string{
		"SEARCH_PREDICT_PATH": inPath,
		"SEARCH_OUT_PATH":     outPath,
	})
	if err != nil {
		return nil, err
	}
	return readVector(outPath)
}

func (s *ExecSearch) Score(ctx context.Context, x ports.Matrix, y ports.Vector) (float64, error) {
	if !s.fitted {
		return 0, errors.New("score: search has not been fitted")
	}
	if len(x) == 0 || len(x) != len(y) {
		return 0, errors.Errorf("score: mismatched dataset shapes (%d features rows, %d targets)", len(x), len(y))
	}
	scorePath := s.runFile("score")
	if err := writeXY(scorePath, x, y); err != nil {
		return 0, err
	}
	out, err := s.run(ctx, "score", map[string]string{"SEARCH_SCORE_PATH": scorePath})
	if err != nil {
		return 0, err
	}
	return parseScore(out)
}

func (s *ExecSearch) Export(ctx context.Context, path string) error {
	if !s.fitted {
		return errors.New("export: search has not been fitted")
	}
	_, err := s.run(ctx, "export", map[string]string{"SEARCH_EXPORT_PATH": path})
	return err
}

func (s *ExecSearch) runFile(kind string) string {
	return filepath.Join(s.workDir, fmt.Sprintf("%s-%s.csv", kind, s.runID))
}

func (s *ExecSearch) run(ctx context.Context, mode string, extra map[string]string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, s.driver, append(append([]string(nil), s.args...), mode)...)
	cmd.Dir = s.workDir
	cmd.Env = append(os.Environ(), s.buildEnv(extra)...)

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		return out.Bytes(), errors.Wrapf(err, "search driver %s failed: %s", mode, tail(out.String()))
	}
	return out.Bytes(), nil
}

// buildEnv traslada la configuración de búsqueda al entorno del driver.
func (s *ExecSearch) buildEnv(extra map[string]string) []string {
	env := []string{
		"SEARCH_RUN_ID=" + s.runID,
		"SEARCH_SCORING=" + s.cfg.ScoringMetric,
		fmt.Sprintf("SEARCH_GENERATIONS=%d", s.cfg.Generations),
		fmt.Sprintf("SEARCH_POPULATION=%d", s.cfg.PopulationSize),
		fmt.Sprintf("SEARCH_DISTRIBUTE=%t", s.cfg.Distribute),
		fmt.Sprintf("SEARCH_VERBOSITY=%d", s.cfg.Verbosity),
		fmt.Sprintf("SEARCH_N_JOBS=%d", s.cfg.NJobs),
	}
	if s.cfg.SchedulerURL != "" {
		env = append(env, "SCHEDULER_URL="+s.cfg.SchedulerURL)
	}
	for k, v := range extra {
		env = append(env, k+"="+v)
	}
	return env
}

func tail(out string) string {
	out = strings.TrimSpace(out)
	if i := strings.LastIndexByte(out, '\n'); i >= 0 {
		return out[i+1:]
	}
	return out
}

func parseScore(out []byte) (float64, error) {
	line := tail(string(out))
	score, err := strconv.ParseFloat(line, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "unable to parse score from driver output %q", line)
	}
	return score, nil
}

func writeXY(path string, x ports.Matrix, y ports.Vector) error {
	return writeCSV(path, func(w *csv.Writer) error {
		for i, row := range x {
			record := make([]string, 0, len(row)+1)
			for _, v := range row {
				record = append(record, strconv.FormatFloat(v, 'g', -1, 64))
			}
			record = append(record, strconv.FormatFloat(y[i], 'g', -1, 64))
			if err := w.Write(record); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeX(path string, x ports.Matrix) error {
	return writeCSV(path, func(w *csv.Writer) error {
		for _, row := range x {
			record := make([]string, 0, len(row))
			for _, v := range row {
				record = append(record, strconv.FormatFloat(v, 'g', -1, 64))
			}
			if err := w.Write(record); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeCSV(path string, fill func(*csv.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "unable to create %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := fill(w); err != nil {
		return errors.Wrapf(err, "unable to write %s", path)
	}
	w.Flush()
	return errors.Wrapf(w.Error(), "unable to flush %s", path)
}

func readVector(path string) (ports.Vector, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open %s", path)
	}
	defer f.Close()

	var vec ports.Vector
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		v, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid prediction %q", line)
		}
		vec = append(vec, v)
	}
	return vec, scanner.Err()
}
