// Package stats computes aggregate statistics over catchment datasets.
//
// Aggregation is deterministic: results are ordered by station, then by
// window start, and identical inputs produce bit-identical output. Missing
// values never contribute to an aggregate; a window whose every value is
// missing yields an explicitly undefined result rather than a zero.
package stats

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/rivervane/catchment/internal/dataset"
	"github.com/rivervane/catchment/internal/types"
)

// Aggregate computes one statistic for a variable across all stations in the
// dataset.
//
// With window == 0 it produces one result per station covering that
// station's full available range. With window > 0 it produces one result per
// (station, bucket), where buckets are non-overlapping, left-closed and
// right-open, and aligned to the earliest timestamp in the dataset. Only
// buckets containing at least one observation (missing or not) are emitted,
// and stations carrying no observations of the variable yield no rows in
// either mode.
func Aggregate(ds *dataset.Dataset, variable string, kind types.StatisticKind, window time.Duration) ([]types.StatisticResult, error) {
	if err := validateKind(kind); err != nil {
		return nil, err
	}
	if window < 0 {
		return nil, fmt.Errorf("negative window: %v", window)
	}

	earliest, _, ok := ds.TimeRange()
	if !ok {
		return nil, nil
	}

	var results []types.StatisticResult
	for _, station := range ds.Stations() {
		points := ds.ValuesFor(station, variable)
		if len(points) == 0 {
			continue
		}
		if window == 0 {
			results = append(results, wholeRange(station, variable, kind, points))
			continue
		}
		results = append(results, bucketed(station, variable, kind, points, earliest, window)...)
	}
	return results, nil
}

func wholeRange(station, variable string, kind types.StatisticKind, points []dataset.Point) types.StatisticResult {
	result := types.StatisticResult{
		Station:  station,
		Variable: variable,
		Kind:     kind,
	}
	result.WindowStart = points[0].Timestamp
	result.WindowEnd = points[len(points)-1].Timestamp
	result.Value, result.Samples = compute(kind, presentValues(points))
	return result
}

func bucketed(station, variable string, kind types.StatisticKind, points []dataset.Point, origin time.Time, window time.Duration) []types.StatisticResult {
	var results []types.StatisticResult
	i := 0
	for i < len(points) {
		idx := int64(points[i].Timestamp.Sub(origin) / window)
		start := origin.Add(time.Duration(idx) * window)
		end := start.Add(window)

		j := i
		for j < len(points) && points[j].Timestamp.Before(end) {
			j++
		}

		value, samples := compute(kind, presentValues(points[i:j]))
		results = append(results, types.StatisticResult{
			Station:     station,
			Variable:    variable,
			Kind:        kind,
			WindowStart: start,
			WindowEnd:   end,
			Value:       value,
			Samples:     samples,
		})
		i = j
	}
	return results
}

func presentValues(points []dataset.Point) []float64 {
	var values []float64
	for _, p := range points {
		if p.Value.Valid {
			values = append(values, p.Value.Float64)
		}
	}
	return values
}

// compute evaluates one statistic over the non-missing values of a window.
// Count is always defined; the others are undefined when values is empty.
func compute(kind types.StatisticKind, values []float64) (types.Value, int) {
	n := len(values)
	if kind == types.StatisticCount {
		return types.Float(float64(n)), n
	}
	if n == 0 {
		return types.Missing, 0
	}
	switch kind {
	case types.StatisticMean:
		return types.Float(stat.Mean(values, nil)), n
	case types.StatisticMax:
		return types.Float(floats.Max(values)), n
	case types.StatisticMin:
		return types.Float(floats.Min(values)), n
	case types.StatisticTotal:
		return types.Float(floats.Sum(values)), n
	}
	return types.Missing, 0
}

func validateKind(kind types.StatisticKind) error {
	switch kind {
	case types.StatisticMean, types.StatisticMax, types.StatisticMin,
		types.StatisticCount, types.StatisticTotal:
		return nil
	}
	return fmt.Errorf("unknown statistic kind: %v", kind)
}
