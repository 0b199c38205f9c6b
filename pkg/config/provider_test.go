package config

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultSchema(t *testing.T) {
	cfg := Default()
	if cfg.Schema.StationColumn != "Site" || cfg.Schema.TimeColumn != "Date" {
		t.Errorf("default schema = %+v", cfg.Schema)
	}
	if len(cfg.Schema.MissingMarkers) == 0 {
		t.Error("default schema carries no missing markers")
	}
	if !cfg.Schema.DayFirst {
		t.Error("default schema is not day-first")
	}
}

func TestApplyDefaultsLeavesDayFirstAlone(t *testing.T) {
	var schema SchemaData
	schema.ApplyDefaults()
	if schema.DayFirst {
		t.Error("ApplyDefaults set DayFirst; only Default should")
	}
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	schema := SchemaData{StationColumn: "Gauge", MissingMarkers: []string{"-"}}
	schema.ApplyDefaults()
	if schema.StationColumn != "Gauge" {
		t.Errorf("StationColumn = %q, want Gauge", schema.StationColumn)
	}
	if schema.TimeColumn != "Date" {
		t.Errorf("TimeColumn = %q, want default Date", schema.TimeColumn)
	}
	if len(schema.MissingMarkers) != 1 || schema.MissingMarkers[0] != "-" {
		t.Errorf("MissingMarkers = %v, want [-]", schema.MissingMarkers)
	}
}

func TestYAMLProvider(t *testing.T) {
	yaml := `
schema:
  station-column: Gauge
  time-column: Timestamp
  day-first: true
  missing-markers: ["", "missing"]
sites:
  - name: FP35
    latitude: 50.5
    longitude: -3.5
  - name: PL12
catchments:
  - name: Riverdale
    bounds:
      min-latitude: 50
      max-latitude: 51
      min-longitude: -4
      max-longitude: -3
    sites: [FP35, PL12]
thresholds:
  - variable: rainfall
    limit: 60
`
	path := filepath.Join(t.TempDir(), "catchment.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	provider := NewYAMLProvider(path)
	defer provider.Close()

	cfg, err := provider.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Schema.StationColumn != "Gauge" || cfg.Schema.TimeColumn != "Timestamp" {
		t.Errorf("schema = %+v", cfg.Schema)
	}
	if !cfg.Schema.DayFirst {
		t.Error("DayFirst not set")
	}
	if len(cfg.Schema.MissingMarkers) != 2 {
		t.Errorf("MissingMarkers = %v", cfg.Schema.MissingMarkers)
	}

	sites, err := provider.GetSites()
	if err != nil {
		t.Fatalf("GetSites: %v", err)
	}
	if len(sites) != 2 || sites[0].Name != "FP35" {
		t.Fatalf("sites = %+v", sites)
	}
	if sites[0].Latitude == nil || *sites[0].Latitude != 50.5 {
		t.Errorf("FP35 latitude = %v", sites[0].Latitude)
	}
	if sites[1].Latitude != nil {
		t.Errorf("PL12 latitude = %v, want nil", sites[1].Latitude)
	}

	catchments, err := provider.GetCatchments()
	if err != nil {
		t.Fatalf("GetCatchments: %v", err)
	}
	if len(catchments) != 1 || catchments[0].Bounds.MinLatitude != 50 {
		t.Fatalf("catchments = %+v", catchments)
	}
	if len(catchments[0].Sites) != 2 {
		t.Errorf("catchment sites = %v", catchments[0].Sites)
	}

	thresholds, err := provider.GetThresholds()
	if err != nil {
		t.Fatalf("GetThresholds: %v", err)
	}
	if len(thresholds) != 1 || thresholds[0].Limit != 60 {
		t.Errorf("thresholds = %+v", thresholds)
	}

	if !provider.IsReadOnly() {
		t.Error("YAML provider should be read-only")
	}
}

func TestYAMLProviderSchemaDefaultsWhenOmitted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catchment.yaml")
	if err := os.WriteFile(path, []byte("thresholds:\n  - variable: flow\n    limit: 5\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	schema, err := NewYAMLProvider(path).GetSchema()
	if err != nil {
		t.Fatalf("GetSchema: %v", err)
	}
	if schema.StationColumn != DefaultStationColumn || schema.TimeColumn != DefaultTimeColumn {
		t.Errorf("schema = %+v, want defaults", schema)
	}
}

func TestYAMLProviderMissingFile(t *testing.T) {
	provider := NewYAMLProvider(filepath.Join(t.TempDir(), "absent.yaml"))
	if _, err := provider.LoadConfig(); err == nil {
		t.Error("LoadConfig succeeded for a missing file")
	}
}

func TestSQLiteProvider(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catchment.db")

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	statements := []string{
		`CREATE TABLE schema_settings (key TEXT NOT NULL, value TEXT NOT NULL)`,
		`CREATE TABLE sites (name TEXT PRIMARY KEY, latitude REAL, longitude REAL)`,
		`CREATE TABLE catchments (name TEXT PRIMARY KEY, min_latitude REAL, max_latitude REAL, min_longitude REAL, max_longitude REAL)`,
		`CREATE TABLE catchment_sites (catchment TEXT NOT NULL, site TEXT NOT NULL)`,
		`CREATE TABLE thresholds (variable TEXT PRIMARY KEY, limit_value REAL NOT NULL)`,
		`INSERT INTO schema_settings VALUES ('station_column', 'Gauge'), ('day_first', 'true'), ('missing_marker', ''), ('missing_marker', 'NA')`,
		`INSERT INTO sites VALUES ('FP35', 50.5, -3.5), ('PL12', NULL, NULL)`,
		`INSERT INTO catchments VALUES ('Riverdale', 50, 51, -4, -3)`,
		`INSERT INTO catchment_sites VALUES ('Riverdale', 'FP35'), ('Riverdale', 'PL12')`,
		`INSERT INTO thresholds VALUES ('rainfall', 60)`,
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("%s: %v", stmt, err)
		}
	}
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}

	provider, err := NewSQLiteProvider(path)
	if err != nil {
		t.Fatalf("NewSQLiteProvider: %v", err)
	}
	defer provider.Close()

	cfg, err := provider.LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Schema.StationColumn != "Gauge" {
		t.Errorf("StationColumn = %q, want Gauge", cfg.Schema.StationColumn)
	}
	if cfg.Schema.TimeColumn != DefaultTimeColumn {
		t.Errorf("TimeColumn = %q, want default", cfg.Schema.TimeColumn)
	}
	if !cfg.Schema.DayFirst {
		t.Error("DayFirst not set")
	}
	if len(cfg.Schema.MissingMarkers) != 2 {
		t.Errorf("MissingMarkers = %v", cfg.Schema.MissingMarkers)
	}

	if len(cfg.Sites) != 2 {
		t.Fatalf("sites = %+v", cfg.Sites)
	}
	if cfg.Sites[0].Name != "FP35" || cfg.Sites[0].Latitude == nil {
		t.Errorf("first site = %+v", cfg.Sites[0])
	}
	if cfg.Sites[1].Latitude != nil {
		t.Errorf("PL12 latitude = %v, want nil", cfg.Sites[1].Latitude)
	}

	if len(cfg.Catchments) != 1 || len(cfg.Catchments[0].Sites) != 2 {
		t.Fatalf("catchments = %+v", cfg.Catchments)
	}
	if len(cfg.Thresholds) != 1 || cfg.Thresholds[0].Limit != 60 {
		t.Errorf("thresholds = %+v", cfg.Thresholds)
	}

	if provider.IsReadOnly() {
		t.Error("SQLite provider should not be read-only")
	}
}
