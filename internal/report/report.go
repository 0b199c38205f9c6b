// Package report renders computed statistics as text or JSON. Rendering is
// pure: the caller decides where the output goes.
package report

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rivervane/catchment/internal/stats"
	"github.com/rivervane/catchment/internal/types"
)

// EmptyInputError is returned by Render when FailOnEmpty is set and there
// are no results to render.
type EmptyInputError struct{}

func (e *EmptyInputError) Error() string {
	return "no results to render"
}

// Format selects the output encoding.
type Format int

const (
	FormatText Format = iota
	FormatJSON
)

// ParseFormat maps a user-supplied name to a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	}
	return 0, fmt.Errorf("unknown output format: %q", name)
}

// Renderer formats statistic results. The zero value renders text and
// treats an empty result set as a header-only table.
type Renderer struct {
	Format      Format
	FailOnEmpty bool
}

const timeLayout = "2006-01-02 15:04"

var resultHeader = []string{"STATION", "WINDOW START", "WINDOW END", "STATISTIC", "VALUE", "SAMPLES"}

// Render produces the report for an ordered sequence of results.
func (r *Renderer) Render(results []types.StatisticResult) (string, error) {
	if len(results) == 0 && r.FailOnEmpty {
		return "", &EmptyInputError{}
	}
	if r.Format == FormatJSON {
		return renderResultsJSON(results)
	}

	rows := make([][]string, 0, len(results))
	for _, res := range results {
		rows = append(rows, []string{
			res.Station,
			res.WindowStart.Format(timeLayout),
			res.WindowEnd.Format(timeLayout),
			res.Kind.String(),
			formatValue(res.Value),
			strconv.Itoa(res.Samples),
		})
	}
	return renderTable(resultHeader, rows), nil
}

var exceedanceHeader = []string{"STATION", "TIMESTAMP", "VALUE", "LIMIT"}

// RenderExceedances produces the report for threshold exceedance events.
func (r *Renderer) RenderExceedances(events []stats.Exceedance) (string, error) {
	if len(events) == 0 && r.FailOnEmpty {
		return "", &EmptyInputError{}
	}
	if r.Format == FormatJSON {
		return renderExceedancesJSON(events)
	}

	rows := make([][]string, 0, len(events))
	for _, e := range events {
		rows = append(rows, []string{
			e.Station,
			e.Timestamp.Format(timeLayout),
			formatFloat(e.Value),
			formatFloat(e.Limit),
		})
	}
	return renderTable(exceedanceHeader, rows), nil
}

func formatValue(v types.Value) string {
	if !v.Valid {
		return "N/A"
	}
	return formatFloat(v.Float64)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// renderTable lays out a fixed set of columns, sized to their widest cell.
func renderTable(header []string, rows [][]string) string {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var b strings.Builder
	writeRow := func(cells []string) {
		for i, cell := range cells {
			if i > 0 {
				b.WriteString("  ")
			}
			if i == len(cells)-1 {
				// No trailing padding on the last column.
				b.WriteString(cell)
			} else {
				fmt.Fprintf(&b, "%-*s", widths[i], cell)
			}
		}
		b.WriteString("\n")
	}

	writeRow(header)
	for _, row := range rows {
		writeRow(row)
	}
	return b.String()
}

type resultJSON struct {
	Station     string    `json:"station"`
	Variable    string    `json:"variable"`
	Statistic   string    `json:"statistic"`
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`
	Value       *float64  `json:"value"`
	Samples     int       `json:"samples"`
}

func renderResultsJSON(results []types.StatisticResult) (string, error) {
	rows := make([]resultJSON, 0, len(results))
	for _, res := range results {
		row := resultJSON{
			Station:     res.Station,
			Variable:    res.Variable,
			Statistic:   res.Kind.String(),
			WindowStart: res.WindowStart,
			WindowEnd:   res.WindowEnd,
			Samples:     res.Samples,
		}
		if res.Value.Valid {
			v := res.Value.Float64
			row.Value = &v
		}
		rows = append(rows, row)
	}
	return renderJSON(rows)
}

type exceedanceJSON struct {
	Station   string    `json:"station"`
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
	Limit     float64   `json:"limit"`
}

// renderExceedancesJSON always emits an array, never null for no events.
func renderExceedancesJSON(events []stats.Exceedance) (string, error) {
	rows := make([]exceedanceJSON, 0, len(events))
	for _, e := range events {
		rows = append(rows, exceedanceJSON{
			Station:   e.Station,
			Timestamp: e.Timestamp,
			Value:     e.Value,
			Limit:     e.Limit,
		})
	}
	return renderJSON(rows)
}

func renderJSON(v any) (string, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out) + "\n", nil
}
