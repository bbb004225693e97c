package ports

import "context"

// Matrix y Vector son las formas mínimas con las que se entrega el dataset
// a la librería de búsqueda. El contenido del dataset es opaco para el core.
type (
	Matrix = [][]float64
	Vector = []float64
)

// SearchConfig replica el registro de configuración que acepta la librería
// de búsqueda automática de pipelines.
type SearchConfig struct {
	ScoringMetric  string `json:"scoring_metric"`
	Generations    int    `json:"generations"`
	PopulationSize int    `json:"population_size"`
	Distribute     bool   `json:"distribute"`
	Verbosity      int    `json:"verbosity"`
	NJobs          int    `json:"n_jobs"` // -1 = todo el paralelismo disponible
	SchedulerURL   string `json:"scheduler_url,omitempty"`
}

// PipelineSearch es el contrato de clasificador que satisface la librería
// de AutoML. Caja negra: fit interno, scoring y export son suyos.
type PipelineSearch interface {
	Fit(ctx context.Context, x Matrix, y Vector) error
	Predict(ctx context.Context, x Matrix) (Vector, error)
	Score(ctx context.Context, x Matrix, y Vector) (float64, error)
	Export(ctx context.Context, path string) error
}
