package dataset

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeDataset(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dataset.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const sampleCSV = `age,income,city,target
25,50000,madrid,0
30,NA,bilbao,1
?,72000,madrid,1
41,68000,,0
`

func TestLoadParsesHeaderAndRows(t *testing.T) {
	table, err := Load(writeDataset(t, sampleCSV), ',')
	require.NoError(t, err)
	require.Equal(t, []string{"age", "income", "city", "target"}, table.Columns)
	require.Len(t, table.Rows, 4)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.csv"), ',')
	require.Error(t, err)
}

func TestLoadEmptyFile(t *testing.T) {
	_, err := Load(writeDataset(t, ""), ',')
	require.Error(t, err)
}

func TestLoadSemicolonSeparated(t *testing.T) {
	table, err := Load(writeDataset(t, "a;b\n1;2\n"), ';')
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, table.Columns)
	require.Equal(t, []string{"1", "2"}, table.Rows[0])
}

func TestProfileCountsMissingAndStats(t *testing.T) {
	table, err := Load(writeDataset(t, sampleCSV), ',')
	require.NoError(t, err)

	p := table.Profile()
	require.Equal(t, 4, p.Rows)
	require.Equal(t, 4, p.Cols)

	age := p.Columns[0]
	require.True(t, age.Numeric)
	require.Equal(t, 1, age.Missing) // el "?"
	require.Equal(t, 25.0, age.Min)
	require.Equal(t, 41.0, age.Max)
	require.InDelta(t, 32.0, age.Mean, 1e-9)

	income := p.Columns[1]
	require.True(t, income.Numeric)
	require.Equal(t, 1, income.Missing) // el "NA"

	city := p.Columns[2]
	require.False(t, city.Numeric)
	require.Equal(t, 1, city.Missing)
	require.Zero(t, city.Mean)
}

func TestSplitXYSelectsNumericFeatures(t *testing.T) {
	table, err := Load(writeDataset(t, sampleCSV), ',')
	require.NoError(t, err)

	x, y, err := table.SplitXY("target")
	require.NoError(t, err)
	require.Len(t, x, 4)
	require.Equal(t, []float64{0, 1, 1, 0}, []float64(y))

	// city no es numérica: quedan age e income como features.
	require.Len(t, x[0], 2)
	require.Equal(t, 25.0, x[0][0])
	// Los valores ausentes se marcan como NaN.
	require.True(t, math.IsNaN(x[1][1]))
	require.True(t, math.IsNaN(x[2][0]))
}

func TestSplitXYUnknownTarget(t *testing.T) {
	table, err := Load(writeDataset(t, sampleCSV), ',')
	require.NoError(t, err)

	_, _, err = table.SplitXY("label")
	require.Error(t, err)
}

func TestSplitXYMissingTargetValue(t *testing.T) {
	table, err := Load(writeDataset(t, "a,target\n1,0\n2,NA\n"), ',')
	require.NoError(t, err)

	_, _, err = table.SplitXY("target")
	require.Error(t, err)
	require.Contains(t, err.Error(), "row 2")
}

func TestSplitXYNonNumericTarget(t *testing.T) {
	table, err := Load(writeDataset(t, "a,target\n1,yes\n"), ',')
	require.NoError(t, err)

	_, _, err = table.SplitXY("target")
	require.Error(t, err)
}
