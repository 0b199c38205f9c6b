// Package app wires the analysis pipeline together: configuration, the
// loader, the statistics engine, and the report renderer.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/rivervane/catchment/internal/dataset"
	"github.com/rivervane/catchment/internal/loader"
	"github.com/rivervane/catchment/internal/report"
	"github.com/rivervane/catchment/internal/sites"
	"github.com/rivervane/catchment/internal/stats"
	"github.com/rivervane/catchment/internal/types"
	"github.com/rivervane/catchment/pkg/config"
)

// ErrNoUsableRows is returned when loading leaves nothing to analyze.
var ErrNoUsableRows = errors.New("no usable rows in input")

// Query describes one analysis request.
type Query struct {
	InputPath string
	Variable  string
	Kind      types.StatisticKind
	Window    time.Duration
	Stations  []string
	Catchment string
	Start     time.Time
	End       time.Time

	// Exceedances switches from aggregation to threshold-exceedance
	// reporting. Threshold overrides the configured per-variable limit.
	Exceedances bool
	Threshold   *float64

	// SmoothKernel, when > 1, applies a rolling-median pre-pass to the
	// variable's series before analysis. Must be odd.
	SmoothKernel int

	Format      report.Format
	FailOnEmpty bool
}

// App represents the main application
type App struct {
	configProvider config.ConfigProvider
	logger         *zap.SugaredLogger
}

// New creates a new application instance. configProvider may be nil, in
// which case the default configuration is used.
func New(configProvider config.ConfigProvider, logger *zap.SugaredLogger) *App {
	return &App{
		configProvider: configProvider,
		logger:         logger,
	}
}

// Run executes one analysis query and writes the rendered report to out.
func (a *App) Run(ctx context.Context, q Query, out io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}

	registry, err := sites.FromConfig(cfg)
	if err != nil {
		return fmt.Errorf("invalid site configuration: %w", err)
	}

	ds, summary, err := loader.Load(q.InputPath, &cfg.Schema)
	if err != nil {
		return err
	}
	a.logger.Infow("input loaded",
		"path", q.InputPath,
		"measurements", summary.Loaded,
		"rejected", summary.Rejected,
	)
	for _, perr := range summary.Errors {
		a.logger.Debugf("rejected row: %v", &perr)
	}
	if ds.Len() == 0 {
		return fmt.Errorf("%s: %w", q.InputPath, ErrNoUsableRows)
	}

	variable, err := resolveVariable(ds, q.Variable)
	if err != nil {
		return err
	}

	a.warnUnknownStations(ds, registry)

	stationFilter, err := resolveStations(q, registry)
	if err != nil {
		return err
	}
	ds = ds.Filter(stationFilter, q.Start, q.End)

	if q.SmoothKernel > 1 {
		ds = stats.Smooth(ds, variable, q.SmoothKernel)
		a.logger.Debugw("applied rolling-median smoothing", "kernel", q.SmoothKernel)
	}

	renderer := &report.Renderer{Format: q.Format, FailOnEmpty: q.FailOnEmpty}

	if q.Exceedances {
		return a.runExceedances(q, cfg, ds, variable, renderer, out)
	}

	results, err := stats.Aggregate(ds, variable, q.Kind, q.Window)
	if err != nil {
		return err
	}
	rendered, err := renderer.Render(results)
	if err != nil {
		return err
	}
	_, err = io.WriteString(out, rendered)
	return err
}

func (a *App) runExceedances(q Query, cfg *config.ConfigData, ds *dataset.Dataset, variable string, renderer *report.Renderer, out io.Writer) error {
	limit, err := resolveThreshold(q, cfg, variable)
	if err != nil {
		return err
	}

	events := stats.Exceedances(ds, variable, limit)
	counts := stats.ExceedanceCounts(events)
	for _, station := range ds.Stations() {
		if count := counts[station]; count > 0 {
			a.logger.Infow("threshold exceeded", "station", station, "variable", variable, "count", count)
		}
	}

	rendered, err := renderer.RenderExceedances(events)
	if err != nil {
		return err
	}
	_, err = io.WriteString(out, rendered)
	return err
}

func (a *App) loadConfig() (*config.ConfigData, error) {
	if a.configProvider == nil {
		return config.Default(), nil
	}
	cfg, err := a.configProvider.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	cfg.Schema.ApplyDefaults()
	return cfg, nil
}

// resolveVariable picks the variable to analyze. When the query names none
// and the dataset carries exactly one, that one is used.
func resolveVariable(ds *dataset.Dataset, requested string) (string, error) {
	if requested != "" {
		return requested, nil
	}
	variables := ds.Variables()
	if len(variables) == 1 {
		return variables[0], nil
	}
	return "", fmt.Errorf("input carries %d variables; select one with -variable", len(variables))
}

// resolveStations combines the explicit station list with catchment
// membership. With both given, the explicit list is checked against the
// catchment.
func resolveStations(q Query, registry *sites.Registry) ([]string, error) {
	if q.Catchment == "" {
		return q.Stations, nil
	}
	catchment, ok := registry.Catchment(q.Catchment)
	if !ok {
		return nil, fmt.Errorf("unknown catchment: %q", q.Catchment)
	}
	if len(q.Stations) == 0 {
		return catchment.SiteNames(), nil
	}
	for _, station := range q.Stations {
		if !catchment.HasSite(station) {
			return nil, fmt.Errorf("station %q is not in catchment %q", station, q.Catchment)
		}
	}
	return q.Stations, nil
}

func resolveThreshold(q Query, cfg *config.ConfigData, variable string) (float64, error) {
	if q.Threshold != nil {
		return *q.Threshold, nil
	}
	for _, t := range cfg.Thresholds {
		if t.Variable == variable {
			return t.Limit, nil
		}
	}
	return 0, fmt.Errorf("no threshold configured for variable %q; pass -threshold", variable)
}

// warnUnknownStations logs stations present in the data but absent from the
// configured site metadata. Only meaningful when sites were configured.
func (a *App) warnUnknownStations(ds *dataset.Dataset, registry *sites.Registry) {
	if len(registry.SiteNames()) == 0 {
		return
	}
	for _, station := range ds.Stations() {
		if _, ok := registry.Site(station); !ok {
			a.logger.Warnw("station not present in site configuration", "station", station)
		}
	}
}
