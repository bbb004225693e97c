package dataset

import (
	"encoding/csv"
	"math"
	"os"
	"strconv"

	"github.com/pkg/errors"

	"dev.rubentxu.ml-cluster/internal/core/ports"
)

// Table es un dataset tabular cargado en memoria: cabecera más filas crudas.
// Colaborador opaco para el core; aquí solo hay carga y perfilado ligero.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Load lee un fichero delimitado con fila de cabecera.
func Load(path string, comma rune) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open dataset %s", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	if comma != 0 {
		r.Comma = comma
	}
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "unable to parse dataset %s", path)
	}
	if len(records) == 0 {
		return nil, errors.Errorf("dataset %s is empty", path)
	}
	return &Table{Columns: records[0], Rows: records[1:]}, nil
}

// ColumnProfile resume una columna del dataset.
type ColumnProfile struct {
	Name    string  `json:"name"`
	Missing int     `json:"missing"`
	Numeric bool    `json:"numeric"`
	Min     float64 `json:"min,omitempty"`
	Max     float64 `json:"max,omitempty"`
	Mean    float64 `json:"mean,omitempty"`
}

// Profile resume el dataset completo.
type Profile struct {
	Rows    int             `json:"rows"`
	Cols    int             `json:"cols"`
	Columns []ColumnProfile `json:"columns"`
}

func isMissing(v string) bool {
	return v == "" || v == "NA" || v == "?"
}

// Profile recorre el dataset una vez y calcula el resumen por columna.
func (t *Table) Profile() Profile {
	p := Profile{
		Rows:    len(t.Rows),
		Cols:    len(t.Columns),
		Columns: make([]ColumnProfile, len(t.Columns)),
	}

	for i, name := range t.Columns {
		col := ColumnProfile{Name: name, Numeric: true, Min: math.Inf(1), Max: math.Inf(-1)}
		var sum float64
		var count int
		for _, row := range t.Rows {
			if i >= len(row) || isMissing(row[i]) {
				col.Missing++
				continue
			}
			v, err := strconv.ParseFloat(row[i], 64)
			if err != nil {
				col.Numeric = false
				continue
			}
			if v < col.Min {
				col.Min = v
			}
			if v > col.Max {
				col.Max = v
			}
			sum += v
			count++
		}
		if !col.Numeric || count == 0 {
			col.Min, col.Max, col.Mean = 0, 0, 0
		} else {
			col.Mean = sum / float64(count)
		}
		p.Columns[i] = col
	}
	return p
}

func (t *Table) columnIndex(name string) (int, error) {
	for i, c := range t.Columns {
		if c == name {
			return i, nil
		}
	}
	return -1, errors.Errorf("column %s not present in dataset", name)
}

// SplitXY separa las columnas numéricas como features y la columna objetivo
// como vector. Los valores ausentes en las features se marcan como NaN; un
// objetivo no numérico o ausente es un error.
func (t *Table) SplitXY(target string) (ports.Matrix, ports.Vector, error) {
	ti, err := t.columnIndex(target)
	if err != nil {
		return nil, nil, err
	}

	profile := t.Profile()
	var featureIdx []int
	for i, col := range profile.Columns {
		if i == ti || !col.Numeric {
			continue
		}
		featureIdx = append(featureIdx, i)
	}
	if len(featureIdx) == 0 {
		return nil, nil, errors.New("dataset has no numeric feature columns")
	}

	x := make(ports.Matrix, 0, len(t.Rows))
	y := make(ports.Vector, 0, len(t.Rows))
	for n, row := range t.Rows {
		if ti >= len(row) || isMissing(row[ti]) {
			return nil, nil, errors.Errorf("row %d: missing target value", n+1)
		}
		tv, err := strconv.ParseFloat(row[ti], 64)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "row %d: non-numeric target", n+1)
		}

		features := make([]float64, len(featureIdx))
		for j, i := range featureIdx {
			if i >= len(row) || isMissing(row[i]) {
				features[j] = math.NaN()
				continue
			}
			v, err := strconv.ParseFloat(row[i], 64)
			if err != nil {
				features[j] = math.NaN()
				continue
			}
			features[j] = v
		}
		x = append(x, features)
		y = append(y, tv)
	}
	return x, y, nil
}
