package stats

import (
	"fmt"
	"strconv"
	"strings"
)

// Metric selects one of the per-instance criteria behind FE, FS, BA and EBA.
type Metric int

const (
	FE Metric = iota
	FS
	BA
	EBA
)

func (m Metric) String() string {
	switch m {
	case FE:
		return "FE"
	case FS:
		return "FS"
	case BA:
		return "BA"
	case EBA:
		return "EBA"
	default:
		return fmt.Sprintf("metric(%d)", int(m))
	}
}

func (m Metric) Valid() bool {
	return m >= FE && m <= EBA
}

// ParseMetric accepts a metric index 0-3 or its name, case-insensitively.
func ParseMetric(raw string) (Metric, error) {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.Atoi(raw); err == nil {
		m := Metric(n)
		if !m.Valid() {
			return 0, fmt.Errorf("metric index %d out of range 0-3", n)
		}
		return m, nil
	}
	for m := FE; m <= EBA; m++ {
		if strings.EqualFold(raw, m.String()) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown metric %q", raw)
}
