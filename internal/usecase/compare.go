package usecase

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/naka-gawa/bench-history/internal/domain"
	"github.com/naka-gawa/bench-history/internal/parser"
)

// Alert compares one benchmark between two runs.
type Alert struct {
	Name           string  `json:"name"`
	Unit           string  `json:"unit"`
	Previous       float64 `json:"previous"`
	Current        float64 `json:"current"`
	Ratio          float64 `json:"ratio"`
	BiggerIsBetter bool    `json:"bigger_is_better"`
}

// Comparer flags regressions between two runs of the same suite.
type Comparer struct {
	threshold float64
}

// NewComparer creates a Comparer. threshold is a ratio, 2.0 meaning "twice as bad".
func NewComparer(threshold float64) *Comparer {
	return &Comparer{threshold: threshold}
}

// Compare returns an alert for every bench of cur that regressed against prev
// by more than the threshold.
func (c *Comparer) Compare(prev, cur domain.BenchmarkRun) []Alert {
	var alerts []Alert
	for _, d := range Diff(prev, cur) {
		if d.Ratio > c.threshold {
			alerts = append(alerts, d)
		}
	}
	return alerts
}

// Threshold returns the ratio above which Compare alerts.
func (c *Comparer) Threshold() float64 { return c.threshold }

// Diff pairs every bench of cur with the same bench of prev. Ratio is above 1
// when cur is worse. Benches absent from prev, or measured in another unit, are
// ignored.
func Diff(prev, cur domain.BenchmarkRun) []Alert {
	var diffs []Alert
	for _, bench := range cur.Benches {
		old, ok := prev.Bench(bench.Name)
		if !ok || old.Unit != bench.Unit {
			continue
		}
		biggerIsBetter := parser.BiggerIsBetter(cur.Tool, bench.Unit)

		num, den := bench.Value, old.Value
		if biggerIsBetter {
			num, den = old.Value, bench.Value
		}
		if den == 0 {
			continue
		}
		diffs = append(diffs, Alert{
			Name:           bench.Name,
			Unit:           bench.Unit,
			Previous:       old.Value,
			Current:        bench.Value,
			Ratio:          num / den,
			BiggerIsBetter: biggerIsBetter,
		})
	}
	return diffs
}

// ParseThreshold accepts a percentage ("200%") or a plain ratio ("2.0").
func ParseThreshold(s string) (float64, error) {
	s = strings.TrimSpace(s)
	pct := strings.HasSuffix(s, "%")
	v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid threshold %q: %w", s, err)
	}
	if pct {
		v /= 100
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("threshold %q must be a finite number", s)
	}
	if v <= 0 {
		return 0, fmt.Errorf("threshold %q must be positive", s)
	}
	return v, nil
}
