package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/opencivic/event-siting/internal/siting"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadIndicatorTable_CSV(t *testing.T) {
	path := writeTempFile(t, "indicators.csv", `GEOID,poverty_rate,median_income
48001950100,0.8,30000
48001950200,0.2,
48001950300,0.5,not-a-number
`)

	table, err := LoadIndicatorTable(path, "GEOID")
	require.NoError(t, err)

	assert.Equal(t, []string{"poverty_rate", "median_income"}, table.Columns())
	assert.Equal(t, 3, table.Len())

	row, ok := table.Lookup("48001950100")
	require.True(t, ok)
	assert.Equal(t, map[string]float64{"poverty_rate": 0.8, "median_income": 30000}, row)

	// Empty and non-numeric cells are missing, not zero.
	row, ok = table.Lookup("48001950200")
	require.True(t, ok)
	_, has := row["median_income"]
	assert.False(t, has)

	row, ok = table.Lookup("48001950300")
	require.True(t, ok)
	_, has = row["median_income"]
	assert.False(t, has)

	_, ok = table.Lookup("99999999999")
	assert.False(t, ok)
}

func TestLoadIndicatorTable_CSVGeoidCaseInsensitive(t *testing.T) {
	path := writeTempFile(t, "indicators.csv", "geoid,poverty_rate\nT1,0.4\n")

	table, err := LoadIndicatorTable(path, "GEOID")
	require.NoError(t, err)
	_, ok := table.Lookup("T1")
	assert.True(t, ok)
}

func TestLoadIndicatorTable_XLSX(t *testing.T) {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("tracts")
	require.NoError(t, err)

	header := sheet.AddRow()
	header.AddCell().SetString("GEOID")
	header.AddCell().SetString("poverty_rate")

	row := sheet.AddRow()
	row.AddCell().SetString("48001950100")
	row.AddCell().SetFloat(0.8)

	row = sheet.AddRow()
	row.AddCell().SetString("48001950200")
	row.AddCell().SetString("n/a")

	path := filepath.Join(t.TempDir(), "indicators.xlsx")
	require.NoError(t, file.Save(path))

	table, err := LoadIndicatorTable(path, "GEOID")
	require.NoError(t, err)

	assert.Equal(t, []string{"poverty_rate"}, table.Columns())

	values, ok := table.Lookup("48001950100")
	require.True(t, ok)
	assert.InDelta(t, 0.8, values["poverty_rate"], 1e-9)

	values, ok = table.Lookup("48001950200")
	require.True(t, ok)
	_, has := values["poverty_rate"]
	assert.False(t, has)
}

func TestLoadIndicatorTable_Errors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) string
	}{
		{
			name: "unsupported extension",
			setup: func(t *testing.T) string {
				return writeTempFile(t, "indicators.parquet", "x")
			},
		},
		{
			name: "missing file",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "nope.csv")
			},
		},
		{
			name: "geoid column absent",
			setup: func(t *testing.T) string {
				return writeTempFile(t, "indicators.csv", "tract,poverty_rate\nT1,0.4\n")
			},
		},
		{
			name: "no rows",
			setup: func(t *testing.T) string {
				return writeTempFile(t, "indicators.csv", "GEOID,poverty_rate\n")
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadIndicatorTable(tt.setup(t), "GEOID")
			require.Error(t, err)
			assert.True(t, eris.Is(err, siting.ErrData))
		})
	}
}
