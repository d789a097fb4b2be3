package usecase

import (
	"fmt"

	"github.com/montanaflynn/stats"

	"github.com/naka-gawa/bench-history/internal/domain"
)

// BenchTrend summarises the history of one benchmark.
type BenchTrend struct {
	Name   string  `json:"name"`
	Unit   string  `json:"unit"`
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"stddev"`
	Latest float64 `json:"latest"`
	ZScore float64 `json:"z_score"`
}

// Trend computes statistics for every benchmark of runs, or only for name when set.
// Benchmarks are returned in order of first appearance.
func Trend(runs []domain.BenchmarkRun, name string) ([]BenchTrend, error) {
	var order []string
	values := make(map[string]stats.Float64Data)
	units := make(map[string]string)
	for _, run := range runs {
		for _, b := range run.Benches {
			if name != "" && b.Name != name {
				continue
			}
			if _, seen := values[b.Name]; !seen {
				order = append(order, b.Name)
				units[b.Name] = b.Unit
			}
			values[b.Name] = append(values[b.Name], b.Value)
		}
	}
	if name != "" && len(order) == 0 {
		return nil, fmt.Errorf("benchmark %q not found", name)
	}

	trends := make([]BenchTrend, 0, len(order))
	for _, n := range order {
		t, err := summarise(n, units[n], values[n])
		if err != nil {
			return nil, err
		}
		trends = append(trends, t)
	}
	return trends, nil
}

func summarise(name, unit string, data stats.Float64Data) (BenchTrend, error) {
	t := BenchTrend{Name: name, Unit: unit, Count: len(data), Latest: data[len(data)-1]}

	var err error
	if t.Min, err = data.Min(); err != nil {
		return t, fmt.Errorf("failed to compute min for %s: %w", name, err)
	}
	if t.Max, err = data.Max(); err != nil {
		return t, fmt.Errorf("failed to compute max for %s: %w", name, err)
	}
	if t.Mean, err = data.Mean(); err != nil {
		return t, fmt.Errorf("failed to compute mean for %s: %w", name, err)
	}
	if t.Median, err = data.Median(); err != nil {
		return t, fmt.Errorf("failed to compute median for %s: %w", name, err)
	}
	if t.StdDev, err = data.StandardDeviationPopulation(); err != nil {
		return t, fmt.Errorf("failed to compute stddev for %s: %w", name, err)
	}
	if t.StdDev > 0 {
		t.ZScore = (t.Latest - t.Mean) / t.StdDev
	}
	return t, nil
}
