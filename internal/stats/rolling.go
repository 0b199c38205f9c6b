package stats

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/rivervane/catchment/internal/dataset"
	"github.com/rivervane/catchment/internal/types"
)

// RollingMedian applies a centered rolling-median filter.
// kernelSize must be a positive odd integer. Windows shrink at the series
// edges rather than padding, so edge values are never dragged toward zero.
func RollingMedian(data []float64, kernelSize int) []float64 {
	if kernelSize < 1 || kernelSize%2 == 0 {
		panic("kernelSize must be positive odd integer")
	}
	n := len(data)
	if n == 0 {
		return nil
	}

	half := kernelSize / 2
	result := make([]float64, n)

	for i := 0; i < n; i++ {
		lo := i - half
		if lo < 0 {
			lo = 0
		}
		hi := i + half + 1
		if hi > n {
			hi = n
		}

		window := append([]float64(nil), data[lo:hi]...)
		sort.Float64s(window)
		result[i] = stat.Quantile(0.5, stat.Empirical, window, nil)
	}
	return result
}

// Smooth returns a new dataset in which each station's series for the given
// variable has been passed through a rolling median. Missing observations
// are carried through untouched and do not participate in any window. Other
// variables are copied unchanged; the source dataset is not modified.
func Smooth(ds *dataset.Dataset, variable string, kernelSize int) *dataset.Dataset {
	smoothed := make(map[seriesPoint]float64)
	for _, station := range ds.Stations() {
		points := ds.ValuesFor(station, variable)
		var values []float64
		var keys []seriesPoint
		for _, p := range points {
			if p.Value.Valid {
				values = append(values, p.Value.Float64)
				keys = append(keys, seriesPoint{station: station, timestamp: p.Timestamp.UnixNano()})
			}
		}
		if len(values) == 0 {
			continue
		}
		for i, v := range RollingMedian(values, kernelSize) {
			smoothed[keys[i]] = v
		}
	}

	measurements := ds.Measurements()
	for i, m := range measurements {
		if m.Variable != variable || !m.Value.Valid {
			continue
		}
		if v, ok := smoothed[seriesPoint{station: m.Station, timestamp: m.Timestamp.UnixNano()}]; ok {
			measurements[i].Value = types.Float(v)
		}
	}
	return dataset.New(measurements)
}

type seriesPoint struct {
	station   string
	timestamp int64
}
