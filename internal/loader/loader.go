// Package loader reads delimited measurement files into a Dataset.
//
// Two layouts are supported. The long layout carries one observation per
// row (station, timestamp, variable, value columns). The wide layout,
// matching the workshop data files, carries a station column, a timestamp
// column, and one measurement column per variable, named like
// "Rainfall (mm)".
//
// Structural problems (missing required columns) abort the load with a
// FormatError. Row-level problems (unparseable timestamps or numbers) reject
// the row, count it, and loading continues.
package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rivervane/catchment/internal/dataset"
	"github.com/rivervane/catchment/internal/types"
	"github.com/rivervane/catchment/pkg/config"
)

// FormatError reports a structurally unusable input file. It is fatal: no
// rows are loaded.
type FormatError struct {
	Path    string
	Missing []string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s: missing required column(s): %s", e.Path, strings.Join(e.Missing, ", "))
}

// ParseError reports one rejected row. Rejected rows are counted in the
// Summary; they never abort the load.
type ParseError struct {
	Line  int
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: field %q: %v", e.Line, e.Field, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Summary describes the outcome of a load.
type Summary struct {
	Loaded   int          // measurements successfully loaded
	Rejected int          // rows rejected by per-row parse failures
	Errors   []ParseError // one entry per rejected row
}

// layout describes where the interesting columns live in a parsed header.
type layout struct {
	stationIdx  int
	timeIdx     int
	variableIdx int // -1 in wide layout
	valueIdx    int // -1 in wide layout
	// wide layout: column index -> (variable, unit)
	valueCols map[int]variableColumn
}

type variableColumn struct {
	variable string
	unit     string
}

// Load reads the file at path into a Dataset using the given schema. The
// returned Summary counts loaded measurements and rejected rows; a non-nil
// error means the file was structurally unusable and nothing was loaded.
func Load(path string, schema *config.SchemaData) (*dataset.Dataset, *Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	return load(f, path, schema)
}

func load(r io.Reader, path string, schema *config.SchemaData) (*dataset.Dataset, *Summary, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil, &FormatError{Path: path, Missing: []string{schema.StationColumn, schema.TimeColumn}}
	}
	if err != nil {
		return nil, nil, fmt.Errorf("reading header: %w", err)
	}

	lay, err := resolveLayout(header, path, schema)
	if err != nil {
		return nil, nil, err
	}

	summary := &Summary{}
	var measurements []types.Measurement
	seen := make(map[tripleKey]struct{})

	line := 1
	for {
		line++
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Ragged rows are rejected like any other malformed row.
			summary.reject(ParseError{Line: line, Field: "", Err: err})
			continue
		}

		rowMeasurements, perr := parseRow(record, line, lay, schema)
		if perr != nil {
			summary.reject(*perr)
			continue
		}

		dup := false
		for _, m := range rowMeasurements {
			key := tripleKey{station: m.Station, timestamp: m.Timestamp.UnixNano(), variable: m.Variable}
			if _, ok := seen[key]; ok {
				dup = true
				break
			}
		}
		if dup {
			summary.reject(ParseError{Line: line, Field: lay.stationColumnName(header),
				Err: errors.New("duplicate (station, timestamp, variable)")})
			continue
		}

		for _, m := range rowMeasurements {
			seen[tripleKey{station: m.Station, timestamp: m.Timestamp.UnixNano(), variable: m.Variable}] = struct{}{}
		}
		measurements = append(measurements, rowMeasurements...)
		summary.Loaded += len(rowMeasurements)
	}

	return dataset.New(measurements), summary, nil
}

type tripleKey struct {
	station   string
	timestamp int64
	variable  string
}

func (s *Summary) reject(perr ParseError) {
	s.Rejected++
	s.Errors = append(s.Errors, perr)
}

func (l *layout) stationColumnName(header []string) string {
	return header[l.stationIdx]
}

// valueColIndexes returns the wide-layout measurement column indexes in
// header order, so parse failures are reported deterministically.
func (l *layout) valueColIndexes() []int {
	indexes := make([]int, 0, len(l.valueCols))
	for idx := range l.valueCols {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)
	return indexes
}

func resolveLayout(header []string, path string, schema *config.SchemaData) (*layout, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}

	lay := &layout{stationIdx: -1, timeIdx: -1, variableIdx: -1, valueIdx: -1}
	var missing []string

	if i, ok := index[schema.StationColumn]; ok {
		lay.stationIdx = i
	} else {
		missing = append(missing, schema.StationColumn)
	}
	if i, ok := index[schema.TimeColumn]; ok {
		lay.timeIdx = i
	} else {
		missing = append(missing, schema.TimeColumn)
	}
	if len(missing) > 0 {
		return nil, &FormatError{Path: path, Missing: missing}
	}

	// Long layout requires both a variable and a value column to be
	// configured and present.
	if schema.VariableColumn != "" && schema.ValueColumn != "" {
		vi, vok := index[schema.VariableColumn]
		ci, cok := index[schema.ValueColumn]
		if vok && cok {
			lay.variableIdx = vi
			lay.valueIdx = ci
			return lay, nil
		}
		for _, col := range []string{schema.VariableColumn, schema.ValueColumn} {
			if _, ok := index[col]; !ok {
				missing = append(missing, col)
			}
		}
		return nil, &FormatError{Path: path, Missing: missing}
	}

	// Wide layout: every remaining column is a measurement column.
	lay.valueCols = make(map[int]variableColumn)
	for i, name := range header {
		if i == lay.stationIdx || i == lay.timeIdx {
			continue
		}
		variable, unit := splitVariableName(name)
		if variable == "" {
			continue
		}
		lay.valueCols[i] = variableColumn{variable: variable, unit: unit}
	}
	if len(lay.valueCols) == 0 {
		return nil, &FormatError{Path: path, Missing: []string{"<measurement column>"}}
	}
	return lay, nil
}

// splitVariableName splits a column header like "Rainfall (mm)" into a
// normalized variable name and its unit.
func splitVariableName(header string) (variable, unit string) {
	header = strings.TrimSpace(header)
	if open := strings.LastIndex(header, "("); open > 0 && strings.HasSuffix(header, ")") {
		unit = strings.TrimSpace(header[open+1 : len(header)-1])
		header = strings.TrimSpace(header[:open])
	}
	return strings.ToLower(header), unit
}

func parseRow(record []string, line int, lay *layout, schema *config.SchemaData) ([]types.Measurement, *ParseError) {
	station := strings.TrimSpace(record[lay.stationIdx])
	if station == "" {
		return nil, &ParseError{Line: line, Field: schema.StationColumn, Err: errors.New("empty station identifier")}
	}

	timestamp, err := parseTimestamp(strings.TrimSpace(record[lay.timeIdx]), schema.DayFirst)
	if err != nil {
		return nil, &ParseError{Line: line, Field: schema.TimeColumn, Err: err}
	}

	if lay.valueIdx >= 0 {
		variable := strings.ToLower(strings.TrimSpace(record[lay.variableIdx]))
		if variable == "" {
			return nil, &ParseError{Line: line, Field: schema.VariableColumn, Err: errors.New("empty variable name")}
		}
		value, err := parseValue(record[lay.valueIdx], schema.MissingMarkers)
		if err != nil {
			return nil, &ParseError{Line: line, Field: schema.ValueColumn, Err: err}
		}
		return []types.Measurement{{
			Station:   station,
			Timestamp: timestamp,
			Variable:  variable,
			Value:     value,
		}}, nil
	}

	measurements := make([]types.Measurement, 0, len(lay.valueCols))
	for _, idx := range lay.valueColIndexes() {
		col := lay.valueCols[idx]
		if idx >= len(record) {
			continue
		}
		value, err := parseValue(record[idx], schema.MissingMarkers)
		if err != nil {
			return nil, &ParseError{Line: line, Field: col.variable, Err: err}
		}
		measurements = append(measurements, types.Measurement{
			Station:   station,
			Timestamp: timestamp,
			Variable:  col.variable,
			Unit:      col.unit,
			Value:     value,
		})
	}
	return measurements, nil
}

func parseValue(field string, missingMarkers []string) (types.Value, error) {
	field = strings.TrimSpace(field)
	for _, marker := range missingMarkers {
		if field == marker {
			return types.Missing, nil
		}
	}
	f, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return types.Missing, fmt.Errorf("not a number: %q", field)
	}
	return types.Float(f), nil
}

// Timestamp layouts tried in order. Slash- and dash-delimited forms exist in
// both day-first and month-first variants; dayFirst selects which set wins.
var isoLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

var dayFirstLayouts = []string{
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02/01/2006",
	"02-01-2006",
}

var monthFirstLayouts = []string{
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"01/02/2006",
	"01-02-2006",
}

func parseTimestamp(field string, dayFirst bool) (time.Time, error) {
	layouts := append([]string(nil), isoLayouts...)
	if dayFirst {
		layouts = append(layouts, dayFirstLayouts...)
	} else {
		layouts = append(layouts, monthFirstLayouts...)
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, field); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp: %q", field)
}
