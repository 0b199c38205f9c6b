// Command catchment analyzes river-catchment measurement data. It loads a
// delimited measurement file, aggregates one variable over stations and
// time windows, and prints the rendered report.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/rivervane/catchment/internal/app"
	"github.com/rivervane/catchment/internal/log"
	"github.com/rivervane/catchment/internal/report"
	"github.com/rivervane/catchment/internal/types"
	"github.com/rivervane/catchment/pkg/config"
)

const version = "1.0-" + runtime.GOOS + "/" + runtime.GOARCH

func main() {
	cfgFile := flag.String("config", "", "Path to configuration source (optional):\n\t\t\t  YAML: catchment.yaml\n\t\t\t  SQLite: catchment.db")
	cfgBackend := flag.String("config-backend", "yaml", "Configuration backend type: 'yaml' for YAML files, 'sqlite' for SQLite databases")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	showVersion := flag.Bool("version", false, "Show version and exit")

	input := flag.String("input", "", "Path to the delimited measurement file (required)")
	variable := flag.String("variable", "", "Variable to analyze (e.g. rainfall); optional when the input carries a single variable")
	statName := flag.String("stat", "mean", "Statistic to compute: mean, max, min, count, total")
	window := flag.Duration("window", 0, "Bucket width for windowed aggregation (e.g. 24h); 0 aggregates each station's full range")
	startStr := flag.String("start", "", "Inclusive start of the analysis range (2006-01-02 or RFC3339)")
	endStr := flag.String("end", "", "Inclusive end of the analysis range (2006-01-02 or RFC3339)")
	stationsStr := flag.String("stations", "", "Comma-separated station identifiers to include; empty includes all")
	catchmentName := flag.String("catchment", "", "Restrict analysis to the named catchment's sites (requires configuration)")
	exceedances := flag.Bool("exceedances", false, "Report threshold exceedances instead of an aggregate")
	threshold := flag.Float64("threshold", 0, "Exceedance limit; overrides the configured per-variable threshold")
	smooth := flag.Int("smooth", 0, "Rolling-median kernel size for pre-smoothing (odd, > 1); 0 disables")
	formatName := flag.String("format", "text", "Report output format: text or json")
	failOnEmpty := flag.Bool("fail-on-empty", false, "Treat an empty result set as an error")
	output := flag.String("output", "", "Write the report to this file instead of standard output")
	flag.Parse()

	if *showVersion {
		fmt.Printf("catchment %s\n", version)
		os.Exit(0)
	}

	// Set up logging
	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if *input == "" {
		log.Error("no input file given; pass -input. Run with -h for help")
		os.Exit(1)
	}

	query, err := buildQuery(flag.CommandLine, *input, *variable, *statName, *window,
		*startStr, *endStr, *stationsStr, *catchmentName, *exceedances, *threshold,
		*smooth, *formatName, *failOnEmpty)
	if err != nil {
		log.Errorf("Invalid query: %v", err)
		os.Exit(1)
	}

	provider, err := loadConfigProvider(*cfgFile, *cfgBackend)
	if err != nil {
		log.Errorf("Failed to load configuration: %v", err)
		os.Exit(1)
	}
	if provider != nil {
		defer provider.Close()
	}

	out := os.Stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			log.Errorf("Failed to create output file: %v", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}

	application := app.New(provider, log.GetSugaredLogger())
	if err := application.Run(context.Background(), query, out); err != nil {
		if errors.Is(err, app.ErrNoUsableRows) {
			log.Errorf("Input unusable: %v", err)
		} else {
			log.Errorf("Analysis error: %v", err)
		}
		os.Exit(1)
	}
}

func buildQuery(fs *flag.FlagSet, input, variable, statName string, window time.Duration,
	startStr, endStr, stationsStr, catchmentName string, exceedances bool, threshold float64,
	smooth int, formatName string, failOnEmpty bool) (app.Query, error) {

	query := app.Query{
		InputPath:    input,
		Variable:     strings.ToLower(variable),
		Window:       window,
		Catchment:    catchmentName,
		Exceedances:  exceedances,
		SmoothKernel: smooth,
		FailOnEmpty:  failOnEmpty,
	}

	kind, err := types.ParseStatisticKind(statName)
	if err != nil {
		return app.Query{}, err
	}
	query.Kind = kind

	format, err := report.ParseFormat(formatName)
	if err != nil {
		return app.Query{}, err
	}
	query.Format = format

	if startStr != "" {
		query.Start, err = parseTimeFlag(startStr)
		if err != nil {
			return app.Query{}, fmt.Errorf("invalid -start: %w", err)
		}
	}
	if endStr != "" {
		query.End, err = parseTimeFlag(endStr)
		if err != nil {
			return app.Query{}, fmt.Errorf("invalid -end: %w", err)
		}
	}
	if !query.Start.IsZero() && !query.End.IsZero() && query.End.Before(query.Start) {
		return app.Query{}, fmt.Errorf("-end precedes -start")
	}

	if stationsStr != "" {
		for _, station := range strings.Split(stationsStr, ",") {
			if station = strings.TrimSpace(station); station != "" {
				query.Stations = append(query.Stations, station)
			}
		}
	}

	// Distinguish "-threshold 0" from an unset flag.
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "threshold" {
			t := threshold
			query.Threshold = &t
			query.Exceedances = true
		}
	})

	if smooth != 0 && (smooth < 3 || smooth%2 == 0) {
		return app.Query{}, fmt.Errorf("-smooth must be an odd integer greater than 1")
	}

	return query, nil
}

func parseTimeFlag(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable time: %q", s)
}

func loadConfigProvider(cfgFile, cfgBackend string) (config.ConfigProvider, error) {
	if cfgFile == "" {
		return nil, nil
	}
	filename, _ := filepath.Abs(cfgFile)

	switch cfgBackend {
	case "yaml":
		return config.NewYAMLProvider(filename), nil
	case "sqlite":
		provider, err := config.NewSQLiteProvider(filename)
		if err != nil {
			return nil, fmt.Errorf("error creating SQLite provider: %w", err)
		}
		return provider, nil
	default:
		return nil, fmt.Errorf("unsupported configuration backend: %s. Use 'yaml' or 'sqlite'", cfgBackend)
	}
}
