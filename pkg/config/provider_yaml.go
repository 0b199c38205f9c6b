package config

import (
	"os"

	"gopkg.in/yaml.v2"
)

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string
	config   *ConfigData
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// LoadConfig loads the complete configuration from YAML file
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}

	// Load into temporary struct with YAML tags
	var yamlConfig struct {
		Schema     SchemaYAML      `yaml:"schema,omitempty"`
		Sites      []SiteYAML      `yaml:"sites,omitempty"`
		Catchments []CatchmentYAML `yaml:"catchments,omitempty"`
		Thresholds []ThresholdYAML `yaml:"thresholds,omitempty"`
	}

	err = yaml.Unmarshal(cfgFile, &yamlConfig)
	if err != nil {
		return nil, err
	}

	// Convert to our internal format
	config := &ConfigData{
		Sites:      make([]SiteData, len(yamlConfig.Sites)),
		Catchments: make([]CatchmentData, len(yamlConfig.Catchments)),
		Thresholds: make([]ThresholdData, len(yamlConfig.Thresholds)),
	}

	config.Schema = SchemaData{
		StationColumn:  yamlConfig.Schema.StationColumn,
		TimeColumn:     yamlConfig.Schema.TimeColumn,
		VariableColumn: yamlConfig.Schema.VariableColumn,
		ValueColumn:    yamlConfig.Schema.ValueColumn,
		DayFirst:       yamlConfig.Schema.DayFirst,
		MissingMarkers: yamlConfig.Schema.MissingMarkers,
	}
	config.Schema.ApplyDefaults()

	for i, site := range yamlConfig.Sites {
		config.Sites[i] = SiteData{
			Name:      site.Name,
			Latitude:  site.Latitude,
			Longitude: site.Longitude,
		}
	}

	for i, catchment := range yamlConfig.Catchments {
		config.Catchments[i] = CatchmentData{
			Name: catchment.Name,
			Bounds: BoundsData{
				MinLatitude:  catchment.Bounds.MinLatitude,
				MaxLatitude:  catchment.Bounds.MaxLatitude,
				MinLongitude: catchment.Bounds.MinLongitude,
				MaxLongitude: catchment.Bounds.MaxLongitude,
			},
			Sites: append([]string(nil), catchment.Sites...),
		}
	}

	for i, threshold := range yamlConfig.Thresholds {
		config.Thresholds[i] = ThresholdData{
			Variable: threshold.Variable,
			Limit:    threshold.Limit,
		}
	}

	y.config = config
	return config, nil
}

// GetSchema returns the input schema section
func (y *YAMLProvider) GetSchema() (*SchemaData, error) {
	if err := y.ensureLoaded(); err != nil {
		return nil, err
	}
	schema := y.config.Schema
	return &schema, nil
}

// GetSites returns the site metadata section
func (y *YAMLProvider) GetSites() ([]SiteData, error) {
	if err := y.ensureLoaded(); err != nil {
		return nil, err
	}
	return y.config.Sites, nil
}

// GetCatchments returns the catchment metadata section
func (y *YAMLProvider) GetCatchments() ([]CatchmentData, error) {
	if err := y.ensureLoaded(); err != nil {
		return nil, err
	}
	return y.config.Catchments, nil
}

// GetThresholds returns the per-variable threshold section
func (y *YAMLProvider) GetThresholds() ([]ThresholdData, error) {
	if err := y.ensureLoaded(); err != nil {
		return nil, err
	}
	return y.config.Thresholds, nil
}

// IsReadOnly returns true; YAML configurations are not editable in place
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML providers
func (y *YAMLProvider) Close() error {
	return nil
}

func (y *YAMLProvider) ensureLoaded() error {
	if y.config != nil {
		return nil
	}
	_, err := y.LoadConfig()
	return err
}

// YAML marshaling structures

// SchemaYAML is the YAML representation of the input schema
type SchemaYAML struct {
	StationColumn  string   `yaml:"station-column,omitempty"`
	TimeColumn     string   `yaml:"time-column,omitempty"`
	VariableColumn string   `yaml:"variable-column,omitempty"`
	ValueColumn    string   `yaml:"value-column,omitempty"`
	DayFirst       bool     `yaml:"day-first,omitempty"`
	MissingMarkers []string `yaml:"missing-markers,omitempty"`
}

// SiteYAML is the YAML representation of a measurement site
type SiteYAML struct {
	Name      string   `yaml:"name"`
	Latitude  *float64 `yaml:"latitude,omitempty"`
	Longitude *float64 `yaml:"longitude,omitempty"`
}

// CatchmentYAML is the YAML representation of a catchment area
type CatchmentYAML struct {
	Name   string     `yaml:"name"`
	Bounds BoundsYAML `yaml:"bounds,omitempty"`
	Sites  []string   `yaml:"sites,omitempty"`
}

// BoundsYAML is the YAML representation of a bounding box
type BoundsYAML struct {
	MinLatitude  float64 `yaml:"min-latitude,omitempty"`
	MaxLatitude  float64 `yaml:"max-latitude,omitempty"`
	MinLongitude float64 `yaml:"min-longitude,omitempty"`
	MaxLongitude float64 `yaml:"max-longitude,omitempty"`
}

// ThresholdYAML is the YAML representation of an exceedance threshold
type ThresholdYAML struct {
	Variable string  `yaml:"variable"`
	Limit    float64 `yaml:"limit"`
}
