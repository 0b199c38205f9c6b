package stats

import (
	"time"

	"github.com/rivervane/catchment/internal/dataset"
)

// Exceedance is one observation strictly above a threshold limit.
type Exceedance struct {
	Station   string
	Timestamp time.Time
	Value     float64
	Limit     float64
}

// Exceedances reports every non-missing observation of a variable strictly
// above limit, ordered by station then timestamp.
func Exceedances(ds *dataset.Dataset, variable string, limit float64) []Exceedance {
	var events []Exceedance
	for _, station := range ds.Stations() {
		for _, p := range ds.ValuesFor(station, variable) {
			if p.Value.Valid && p.Value.Float64 > limit {
				events = append(events, Exceedance{
					Station:   station,
					Timestamp: p.Timestamp,
					Value:     p.Value.Float64,
					Limit:     limit,
				})
			}
		}
	}
	return events
}

// ExceedanceCounts tallies exceedance events per station.
func ExceedanceCounts(events []Exceedance) map[string]int {
	counts := make(map[string]int)
	for _, e := range events {
		counts[e.Station]++
	}
	return counts
}
