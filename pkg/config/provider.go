// Package config provides configuration loading for the catchment analysis
// tool. Configuration describes the shape of the input data (column names,
// timestamp conventions, missing-value markers) and the study metadata
// (measurement sites, catchment areas, per-variable thresholds). Two
// backends are supported: YAML files and SQLite databases.
package config

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	// Get specific configuration sections
	GetSchema() (*SchemaData, error)
	GetSites() ([]SiteData, error)
	GetCatchments() ([]CatchmentData, error)
	GetThresholds() ([]ThresholdData, error)

	// Configuration management (for future SQLite-specific operations)
	IsReadOnly() bool
	Close() error
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Schema     SchemaData      `json:"schema"`
	Sites      []SiteData      `json:"sites,omitempty"`
	Catchments []CatchmentData `json:"catchments,omitempty"`
	Thresholds []ThresholdData `json:"thresholds,omitempty"`
}

// SchemaData describes the layout of the input measurement files
type SchemaData struct {
	StationColumn  string   `json:"station_column,omitempty"`
	TimeColumn     string   `json:"time_column,omitempty"`
	VariableColumn string   `json:"variable_column,omitempty"`
	ValueColumn    string   `json:"value_column,omitempty"`
	DayFirst       bool     `json:"day_first,omitempty"`
	MissingMarkers []string `json:"missing_markers,omitempty"`
}

// SiteData holds metadata for one measurement site. Coordinates are
// optional; a site without them can still carry measurements but cannot be
// checked for catchment containment.
type SiteData struct {
	Name      string   `json:"name"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// CatchmentData holds metadata for one catchment area
type CatchmentData struct {
	Name   string     `json:"name"`
	Bounds BoundsData `json:"bounds,omitempty"`
	Sites  []string   `json:"sites,omitempty"`
}

// BoundsData is a latitude/longitude bounding box. A zero-valued box means
// the catchment extent is unknown and containment checks are skipped.
type BoundsData struct {
	MinLatitude  float64 `json:"min_latitude,omitempty"`
	MaxLatitude  float64 `json:"max_latitude,omitempty"`
	MinLongitude float64 `json:"min_longitude,omitempty"`
	MaxLongitude float64 `json:"max_longitude,omitempty"`
}

// IsZero reports whether no bounds were configured.
func (b BoundsData) IsZero() bool {
	return b == BoundsData{}
}

// ThresholdData is a per-variable exceedance limit
type ThresholdData struct {
	Variable string  `json:"variable"`
	Limit    float64 `json:"limit"`
}

// Default input schema, matching the workshop data files: a "Site" column,
// a day-first "Date" column, and one measurement column per variable.
const (
	DefaultStationColumn = "Site"
	DefaultTimeColumn    = "Date"
	DefaultDayFirst      = true
)

// DefaultMissingMarkers are the field contents treated as a missing value
// rather than a parse failure.
var DefaultMissingMarkers = []string{"", "NA", "NaN", "nan"}

// ApplyDefaults fills unset string and slice schema fields with the
// defaults above. DayFirst is left alone: an explicit false cannot be told
// apart from an unset field, so only Default applies DefaultDayFirst.
func (s *SchemaData) ApplyDefaults() {
	if s.StationColumn == "" {
		s.StationColumn = DefaultStationColumn
	}
	if s.TimeColumn == "" {
		s.TimeColumn = DefaultTimeColumn
	}
	if s.MissingMarkers == nil {
		s.MissingMarkers = append([]string(nil), DefaultMissingMarkers...)
	}
}

// Default returns a ConfigData carrying only the default schema, for runs
// without a configuration source.
func Default() *ConfigData {
	cfg := &ConfigData{}
	cfg.Schema.DayFirst = DefaultDayFirst
	cfg.Schema.ApplyDefaults()
	return cfg
}
