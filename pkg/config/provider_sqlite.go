package config

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteProvider implements ConfigProvider for SQLite database configuration
type SQLiteProvider struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteProvider creates a new SQLite configuration provider
func NewSQLiteProvider(dbPath string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	return &SQLiteProvider{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// LoadConfig loads the complete configuration from SQLite database
func (s *SQLiteProvider) LoadConfig() (*ConfigData, error) {
	config := &ConfigData{}

	schema, err := s.GetSchema()
	if err != nil {
		return nil, fmt.Errorf("failed to load schema: %w", err)
	}
	config.Schema = *schema

	sites, err := s.GetSites()
	if err != nil {
		return nil, fmt.Errorf("failed to load sites: %w", err)
	}
	config.Sites = sites

	catchments, err := s.GetCatchments()
	if err != nil {
		return nil, fmt.Errorf("failed to load catchments: %w", err)
	}
	config.Catchments = catchments

	thresholds, err := s.GetThresholds()
	if err != nil {
		return nil, fmt.Errorf("failed to load thresholds: %w", err)
	}
	config.Thresholds = thresholds

	return config, nil
}

// GetSchema returns the input schema from the schema_settings key/value table
func (s *SQLiteProvider) GetSchema() (*SchemaData, error) {
	rows, err := s.db.Query(`SELECT key, value FROM schema_settings`)
	if err != nil {
		return nil, fmt.Errorf("failed to query schema settings: %w", err)
	}
	defer rows.Close()

	schema := &SchemaData{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("failed to scan schema setting row: %w", err)
		}
		switch key {
		case "station_column":
			schema.StationColumn = value
		case "time_column":
			schema.TimeColumn = value
		case "variable_column":
			schema.VariableColumn = value
		case "value_column":
			schema.ValueColumn = value
		case "day_first":
			schema.DayFirst = value == "true" || value == "1"
		case "missing_marker":
			schema.MissingMarkers = append(schema.MissingMarkers, value)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read schema settings: %w", err)
	}

	schema.ApplyDefaults()
	return schema, nil
}

// GetSites returns site metadata from the sites table
func (s *SQLiteProvider) GetSites() ([]SiteData, error) {
	rows, err := s.db.Query(`SELECT name, latitude, longitude FROM sites ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sites: %w", err)
	}
	defer rows.Close()

	var sites []SiteData
	for rows.Next() {
		var site SiteData
		var lat, lon sql.NullFloat64

		if err := rows.Scan(&site.Name, &lat, &lon); err != nil {
			return nil, fmt.Errorf("failed to scan site row: %w", err)
		}
		if lat.Valid {
			v := lat.Float64
			site.Latitude = &v
		}
		if lon.Valid {
			v := lon.Float64
			site.Longitude = &v
		}
		sites = append(sites, site)
	}
	return sites, rows.Err()
}

// GetCatchments returns catchment metadata from the catchments and
// catchment_sites tables
func (s *SQLiteProvider) GetCatchments() ([]CatchmentData, error) {
	rows, err := s.db.Query(`
		SELECT name, min_latitude, max_latitude, min_longitude, max_longitude
		FROM catchments ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query catchments: %w", err)
	}
	defer rows.Close()

	var catchments []CatchmentData
	for rows.Next() {
		var c CatchmentData
		var minLat, maxLat, minLon, maxLon sql.NullFloat64

		if err := rows.Scan(&c.Name, &minLat, &maxLat, &minLon, &maxLon); err != nil {
			return nil, fmt.Errorf("failed to scan catchment row: %w", err)
		}
		if minLat.Valid || maxLat.Valid || minLon.Valid || maxLon.Valid {
			c.Bounds = BoundsData{
				MinLatitude:  minLat.Float64,
				MaxLatitude:  maxLat.Float64,
				MinLongitude: minLon.Float64,
				MaxLongitude: maxLon.Float64,
			}
		}
		catchments = append(catchments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range catchments {
		sites, err := s.catchmentSites(catchments[i].Name)
		if err != nil {
			return nil, err
		}
		catchments[i].Sites = sites
	}
	return catchments, nil
}

func (s *SQLiteProvider) catchmentSites(catchment string) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT site FROM catchment_sites WHERE catchment = ? ORDER BY site`, catchment)
	if err != nil {
		return nil, fmt.Errorf("failed to query catchment sites: %w", err)
	}
	defer rows.Close()

	var sites []string
	for rows.Next() {
		var site string
		if err := rows.Scan(&site); err != nil {
			return nil, fmt.Errorf("failed to scan catchment site row: %w", err)
		}
		sites = append(sites, site)
	}
	return sites, rows.Err()
}

// GetThresholds returns exceedance thresholds from the thresholds table
func (s *SQLiteProvider) GetThresholds() ([]ThresholdData, error) {
	rows, err := s.db.Query(`SELECT variable, limit_value FROM thresholds ORDER BY variable`)
	if err != nil {
		return nil, fmt.Errorf("failed to query thresholds: %w", err)
	}
	defer rows.Close()

	var thresholds []ThresholdData
	for rows.Next() {
		var t ThresholdData
		if err := rows.Scan(&t.Variable, &t.Limit); err != nil {
			return nil, fmt.Errorf("failed to scan threshold row: %w", err)
		}
		thresholds = append(thresholds, t)
	}
	return thresholds, rows.Err()
}

// IsReadOnly returns false; SQLite configurations can be edited in place
func (s *SQLiteProvider) IsReadOnly() bool {
	return false
}

// Close closes the database connection
func (s *SQLiteProvider) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
