package types

import (
	"fmt"
	"strings"
	"time"
)

// StatisticKind identifies an aggregate statistic.
type StatisticKind int

const (
	StatisticMean StatisticKind = iota
	StatisticMax
	StatisticMin
	StatisticCount
	StatisticTotal
)

var kindNames = map[StatisticKind]string{
	StatisticMean:  "mean",
	StatisticMax:   "max",
	StatisticMin:   "min",
	StatisticCount: "count",
	StatisticTotal: "total",
}

func (k StatisticKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", int(k))
}

// ParseStatisticKind maps a user-supplied name to a StatisticKind.
func ParseStatisticKind(name string) (StatisticKind, error) {
	for k, n := range kindNames {
		if n == strings.ToLower(name) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown statistic kind: %q", name)
}

// StatisticResult is one aggregate computed over a station and time window.
// Value is undefined (Valid == false) when every input in the window was
// missing; Samples is the number of non-missing inputs that contributed.
type StatisticResult struct {
	Station     string
	Variable    string
	Kind        StatisticKind
	WindowStart time.Time
	WindowEnd   time.Time
	Value       Value
	Samples     int
}
