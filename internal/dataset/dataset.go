// Package dataset provides the immutable in-memory container for catchment
// measurements. A Dataset is built once by the loader and never mutated;
// filtering produces new independent views, which keeps aggregation code free
// of aliasing concerns.
package dataset

import (
	"sort"
	"time"

	"github.com/rivervane/catchment/internal/types"
)

// Point is one (timestamp, value) observation in a station's series.
type Point struct {
	Timestamp time.Time
	Value     types.Value
}

// Dataset is an ordered collection of measurements. Ordering is timestamp
// ascending with ties broken by station then variable, so iteration over any
// view is deterministic.
type Dataset struct {
	measurements []types.Measurement
}

// New builds a Dataset from measurements. The input slice is copied and
// sorted; the caller retains ownership of its slice.
func New(measurements []types.Measurement) *Dataset {
	ms := make([]types.Measurement, len(measurements))
	copy(ms, measurements)
	sortMeasurements(ms)
	return &Dataset{measurements: ms}
}

func sortMeasurements(ms []types.Measurement) {
	sort.SliceStable(ms, func(i, j int) bool {
		if !ms[i].Timestamp.Equal(ms[j].Timestamp) {
			return ms[i].Timestamp.Before(ms[j].Timestamp)
		}
		if ms[i].Station != ms[j].Station {
			return ms[i].Station < ms[j].Station
		}
		return ms[i].Variable < ms[j].Variable
	})
}

// Len returns the number of measurements in the dataset.
func (d *Dataset) Len() int {
	return len(d.measurements)
}

// Measurements returns a copy of the dataset contents in iteration order.
func (d *Dataset) Measurements() []types.Measurement {
	ms := make([]types.Measurement, len(d.measurements))
	copy(ms, d.measurements)
	return ms
}

// Stations enumerates the distinct station identifiers present, sorted.
func (d *Dataset) Stations() []string {
	seen := make(map[string]struct{})
	for _, m := range d.measurements {
		seen[m.Station] = struct{}{}
	}
	stations := make([]string, 0, len(seen))
	for s := range seen {
		stations = append(stations, s)
	}
	sort.Strings(stations)
	return stations
}

// Variables enumerates the distinct variable names present, sorted.
func (d *Dataset) Variables() []string {
	seen := make(map[string]struct{})
	for _, m := range d.measurements {
		seen[m.Variable] = struct{}{}
	}
	vars := make([]string, 0, len(seen))
	for v := range seen {
		vars = append(vars, v)
	}
	sort.Strings(vars)
	return vars
}

// UnitFor returns the unit recorded for a variable, or "" when none was.
func (d *Dataset) UnitFor(variable string) string {
	for _, m := range d.measurements {
		if m.Variable == variable && m.Unit != "" {
			return m.Unit
		}
	}
	return ""
}

// TimeRange returns the earliest and latest timestamps present. ok is false
// for an empty dataset.
func (d *Dataset) TimeRange() (earliest, latest time.Time, ok bool) {
	if len(d.measurements) == 0 {
		return time.Time{}, time.Time{}, false
	}
	earliest = d.measurements[0].Timestamp
	latest = d.measurements[0].Timestamp
	for _, m := range d.measurements[1:] {
		if m.Timestamp.Before(earliest) {
			earliest = m.Timestamp
		}
		if m.Timestamp.After(latest) {
			latest = m.Timestamp
		}
	}
	return earliest, latest, true
}

// Filter returns a new Dataset restricted to the given stations and the
// inclusive time range [start, end]. An empty station list means no station
// restriction; a zero start or end means unbounded on that side. The source
// dataset is never modified.
func (d *Dataset) Filter(stations []string, start, end time.Time) *Dataset {
	var wanted map[string]struct{}
	if len(stations) > 0 {
		wanted = make(map[string]struct{}, len(stations))
		for _, s := range stations {
			wanted[s] = struct{}{}
		}
	}

	kept := make([]types.Measurement, 0, len(d.measurements))
	for _, m := range d.measurements {
		if wanted != nil {
			if _, ok := wanted[m.Station]; !ok {
				continue
			}
		}
		if !start.IsZero() && m.Timestamp.Before(start) {
			continue
		}
		if !end.IsZero() && m.Timestamp.After(end) {
			continue
		}
		kept = append(kept, m)
	}
	// Source is already sorted, so the filtered view is too.
	return &Dataset{measurements: kept}
}

// ValuesFor returns the (timestamp, value) series for one station and
// variable, timestamp ascending. Each call returns a fresh slice, so the
// series can be iterated any number of times.
func (d *Dataset) ValuesFor(station, variable string) []Point {
	var points []Point
	for _, m := range d.measurements {
		if m.Station == station && m.Variable == variable {
			points = append(points, Point{Timestamp: m.Timestamp, Value: m.Value})
		}
	}
	return points
}

// Equal reports whether two datasets hold identical measurements in
// identical order.
func (d *Dataset) Equal(other *Dataset) bool {
	if len(d.measurements) != len(other.measurements) {
		return false
	}
	for i := range d.measurements {
		a, b := d.measurements[i], other.measurements[i]
		if a.Station != b.Station || a.Variable != b.Variable || a.Unit != b.Unit {
			return false
		}
		if !a.Timestamp.Equal(b.Timestamp) {
			return false
		}
		if a.Value != b.Value {
			return false
		}
	}
	return true
}
