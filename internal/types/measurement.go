// Package types defines the core data types shared across the catchment
// analysis pipeline: measurements, optional values, and statistic results.
package types

import "time"

// Value is an optional floating-point measurement value, modeled after
// sql.NullFloat64. A missing observation carries Valid == false; aggregate
// code must never substitute a numeric sentinel for a missing value.
type Value struct {
	Float64 float64
	Valid   bool
}

// Float wraps a present value.
func Float(f float64) Value {
	return Value{Float64: f, Valid: true}
}

// Missing is the absent value.
var Missing = Value{}

// Measurement is a single observation from a measurement site. Measurements
// are immutable once created; transformations build new collections rather
// than editing these in place.
type Measurement struct {
	Station   string
	Timestamp time.Time
	Variable  string
	Unit      string
	Value     Value
}
