package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/rivervane/catchment/internal/report"
	"github.com/rivervane/catchment/internal/types"
	"github.com/rivervane/catchment/pkg/config"
)

func writeInput(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func testApp() *App {
	return New(nil, zap.NewNop().Sugar())
}

const sampleCSV = `Date,Site,Rainfall (mm)
2023-01-01,FP35,2.0
2023-01-02,FP35,
2023-01-01,PL12,4.0
`

func TestRunMeanPerStation(t *testing.T) {
	path := writeInput(t, sampleCSV)

	var out bytes.Buffer
	query := Query{
		InputPath: path,
		Variable:  "rainfall",
		Kind:      types.StatisticMean,
	}
	if err := testApp().Run(context.Background(), query, &out); err != nil {
		t.Fatalf("Run: %v", err)
	}

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header + 2 rows:\n%s", len(lines), out.String())
	}
	if !strings.Contains(lines[1], "FP35") || !strings.Contains(lines[1], "2") {
		t.Errorf("FP35 row = %q", lines[1])
	}
	if !strings.Contains(lines[2], "PL12") || !strings.Contains(lines[2], "4") {
		t.Errorf("PL12 row = %q", lines[2])
	}
}

func TestRunVariableDefaultsWhenUnambiguous(t *testing.T) {
	path := writeInput(t, sampleCSV)

	var out bytes.Buffer
	query := Query{InputPath: path, Kind: types.StatisticCount}
	if err := testApp().Run(context.Background(), query, &out); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(out.String(), "FP35") {
		t.Errorf("output = %q", out.String())
	}
}

func TestRunStationFilter(t *testing.T) {
	path := writeInput(t, sampleCSV)

	var out bytes.Buffer
	query := Query{
		InputPath: path,
		Variable:  "rainfall",
		Kind:      types.StatisticMean,
		Stations:  []string{"PL12"},
	}
	if err := testApp().Run(context.Background(), query, &out); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if strings.Contains(out.String(), "FP35") {
		t.Errorf("filtered station still present:\n%s", out.String())
	}
}

func TestRunNoUsableRows(t *testing.T) {
	path := writeInput(t, "Date,Site,Rainfall (mm)\nnot-a-date,FP35,1.0\n")

	var out bytes.Buffer
	query := Query{InputPath: path, Variable: "rainfall", Kind: types.StatisticMean}
	err := testApp().Run(context.Background(), query, &out)
	if !errors.Is(err, ErrNoUsableRows) {
		t.Errorf("err = %v, want ErrNoUsableRows", err)
	}
}

func TestRunRejectionsCountedNotFatal(t *testing.T) {
	path := writeInput(t, `Date,Site,Rainfall (mm)
2023-01-01,FP35,2.0
garbage,FP35,3.0
`)

	var out bytes.Buffer
	query := Query{InputPath: path, Variable: "rainfall", Kind: types.StatisticCount}
	if err := testApp().Run(context.Background(), query, &out); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(out.String(), "FP35") {
		t.Errorf("valid rows lost:\n%s", out.String())
	}
}

func TestRunJSONFormat(t *testing.T) {
	path := writeInput(t, sampleCSV)

	var out bytes.Buffer
	query := Query{
		InputPath: path,
		Variable:  "rainfall",
		Kind:      types.StatisticMean,
		Format:    report.FormatJSON,
	}
	if err := testApp().Run(context.Background(), query, &out); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.HasPrefix(strings.TrimSpace(out.String()), "[") {
		t.Errorf("JSON output expected, got:\n%s", out.String())
	}
}

type staticProvider struct {
	cfg *config.ConfigData
}

func (p *staticProvider) LoadConfig() (*config.ConfigData, error) { return p.cfg, nil }
func (p *staticProvider) GetSchema() (*config.SchemaData, error)  { return &p.cfg.Schema, nil }
func (p *staticProvider) GetSites() ([]config.SiteData, error)    { return p.cfg.Sites, nil }
func (p *staticProvider) GetCatchments() ([]config.CatchmentData, error) {
	return p.cfg.Catchments, nil
}
func (p *staticProvider) GetThresholds() ([]config.ThresholdData, error) {
	return p.cfg.Thresholds, nil
}
func (p *staticProvider) IsReadOnly() bool { return true }
func (p *staticProvider) Close() error     { return nil }

func TestRunCatchmentAndThreshold(t *testing.T) {
	path := writeInput(t, `Date,Site,Rainfall (mm)
2023-01-01,FP35,65.0
2023-01-02,FP35,10.0
2023-01-01,PL12,80.0
`)

	cfg := &config.ConfigData{
		Sites: []config.SiteData{{Name: "FP35"}, {Name: "PL12"}},
		Catchments: []config.CatchmentData{
			{Name: "Riverdale", Sites: []string{"FP35"}},
		},
		Thresholds: []config.ThresholdData{{Variable: "rainfall", Limit: 60}},
	}
	cfg.Schema.ApplyDefaults()

	application := New(&staticProvider{cfg: cfg}, zap.NewNop().Sugar())

	var out bytes.Buffer
	query := Query{
		InputPath:   path,
		Variable:    "rainfall",
		Catchment:   "Riverdale",
		Exceedances: true,
	}
	if err := application.Run(context.Background(), query, &out); err != nil {
		t.Fatalf("Run: %v", err)
	}
	// Only the catchment member appears; the configured 60 mm limit
	// selects the single FP35 exceedance.
	if !strings.Contains(out.String(), "FP35") || !strings.Contains(out.String(), "65") {
		t.Errorf("exceedance table:\n%s", out.String())
	}
	if strings.Contains(out.String(), "PL12") {
		t.Errorf("non-member station in exceedance table:\n%s", out.String())
	}

	// Unknown catchment is an error.
	query.Catchment = "Atlantis"
	if err := application.Run(context.Background(), query, &out); err == nil {
		t.Error("unknown catchment accepted")
	}
}

func TestRunSmoothing(t *testing.T) {
	path := writeInput(t, `Date,Site,Rainfall (mm)
2023-01-01,FP35,1.0
2023-01-02,FP35,100.0
2023-01-03,FP35,1.0
`)

	var out bytes.Buffer
	query := Query{
		InputPath:    path,
		Variable:     "rainfall",
		Kind:         types.StatisticMax,
		SmoothKernel: 3,
	}
	if err := testApp().Run(context.Background(), query, &out); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if strings.Contains(out.String(), "100") {
		t.Errorf("spike survived smoothing:\n%s", out.String())
	}
}

func TestRunFailOnEmpty(t *testing.T) {
	path := writeInput(t, sampleCSV)

	var out bytes.Buffer
	query := Query{
		InputPath:   path,
		Variable:    "rainfall",
		Kind:        types.StatisticMean,
		Stations:    []string{"ZZ00"},
		FailOnEmpty: true,
	}
	err := testApp().Run(context.Background(), query, &out)
	var emptyErr *report.EmptyInputError
	if !errors.As(err, &emptyErr) {
		t.Errorf("err = %v, want EmptyInputError", err)
	}
}
