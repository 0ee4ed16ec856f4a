package loader

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/opencivic/event-siting/internal/siting"
)

// IndicatorTable holds tract-level indicator values keyed by GEOID. Cells
// that were empty or non-numeric in the source are simply absent, which the
// engine treats as missing values.
type IndicatorTable struct {
	columns []string
	rows    map[string]map[string]float64
}

// Columns returns the indicator names in the table's schema, in source
// column order. The GEOID column is not included.
func (t *IndicatorTable) Columns() []string { return t.columns }

// Len returns the number of tract rows.
func (t *IndicatorTable) Len() int { return len(t.rows) }

// Lookup returns the indicator values for a tract.
func (t *IndicatorTable) Lookup(geoid string) (map[string]float64, bool) {
	m, ok := t.rows[geoid]
	return m, ok
}

// LoadIndicatorTable reads a tract indicator table from CSV or XLSX,
// dispatching on the file extension.
func LoadIndicatorTable(path, geoidColumn string) (*IndicatorTable, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return loadIndicatorCSV(path, geoidColumn)
	case ".xlsx":
		return loadIndicatorXLSX(path, geoidColumn)
	default:
		return nil, eris.Wrapf(siting.ErrData, "loader: unsupported indicator table format %q (want .csv or .xlsx)", filepath.Ext(path))
	}
}

func loadIndicatorCSV(path, geoidColumn string) (*IndicatorTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(siting.ErrData, "loader: open indicator table %s: %v", path, err)
	}
	defer func() { _ = f.Close() }()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, eris.Wrapf(siting.ErrData, "loader: read indicator header %s: %v", path, err)
	}

	var records [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(siting.ErrData, "loader: read indicator row %s: %v", path, err)
		}
		records = append(records, record)
	}

	return buildTable(path, geoidColumn, header, records)
}

func loadIndicatorXLSX(path, geoidColumn string) (*IndicatorTable, error) {
	xlFile, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(siting.ErrData, "loader: open indicator table %s: %v", path, err)
	}
	if len(xlFile.Sheets) == 0 {
		return nil, eris.Wrapf(siting.ErrData, "loader: indicator table %s has no sheets", path)
	}
	sheet := xlFile.Sheets[0]
	if len(sheet.Rows) < 1 {
		return nil, eris.Wrapf(siting.ErrData, "loader: indicator table %s is empty", path)
	}

	headerRow := sheet.Rows[0]
	header := make([]string, len(headerRow.Cells))
	for i, cell := range headerRow.Cells {
		header[i] = strings.TrimSpace(cell.String())
	}

	records := make([][]string, 0, len(sheet.Rows)-1)
	for rowIdx := 1; rowIdx < len(sheet.Rows); rowIdx++ {
		row := sheet.Rows[rowIdx]
		record := make([]string, len(row.Cells))
		for i, cell := range row.Cells {
			record[i] = strings.TrimSpace(cell.String())
		}
		records = append(records, record)
	}

	return buildTable(path, geoidColumn, header, records)
}

// buildTable assembles an IndicatorTable from a header and string records,
// shared by the CSV and XLSX paths. Non-numeric cells become missing values
// and are counted, not fatal.
func buildTable(path, geoidColumn string, header []string, records [][]string) (*IndicatorTable, error) {
	geoidIdx := -1
	for i, col := range header {
		if strings.EqualFold(col, geoidColumn) {
			geoidIdx = i
			break
		}
	}
	if geoidIdx < 0 {
		return nil, eris.Wrapf(siting.ErrData, "loader: GEOID column %q not found in %s", geoidColumn, path)
	}

	table := &IndicatorTable{rows: make(map[string]map[string]float64, len(records))}
	for i, col := range header {
		if i != geoidIdx && col != "" {
			table.columns = append(table.columns, col)
		}
	}

	var nonNumeric int
	for _, record := range records {
		if geoidIdx >= len(record) {
			continue
		}
		geoid := strings.TrimSpace(record[geoidIdx])
		if geoid == "" {
			continue
		}

		values := make(map[string]float64, len(table.columns))
		for i, col := range header {
			if i == geoidIdx || col == "" || i >= len(record) {
				continue
			}
			cell := strings.TrimSpace(record[i])
			if cell == "" {
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				nonNumeric++
				continue
			}
			values[col] = v
		}
		table.rows[geoid] = values
	}

	if len(table.rows) == 0 {
		return nil, eris.Wrapf(siting.ErrData, "loader: no tract rows in %s", path)
	}

	zap.L().Info("loader: indicator table loaded",
		zap.String("path", path),
		zap.Int("tracts", len(table.rows)),
		zap.Int("indicators", len(table.columns)),
		zap.Int("non_numeric_cells", nonNumeric),
	)
	return table, nil
}
