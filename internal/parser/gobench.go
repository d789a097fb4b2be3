package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/montanaflynn/stats"
	"golang.org/x/perf/benchfmt"

	"github.com/naka-gawa/bench-history/internal/domain"
)

// goSample is one line of `go test -bench` output, copied out of the reader's buffers.
type goSample struct {
	iters int
	value float64
	unit  string
	extra []string
}

func parseGo(r io.Reader) ([]domain.Bench, error) {
	reader := benchfmt.NewReader(r, "go-test-bench")

	var order []string
	samples := make(map[string][]goSample)
	for reader.Scan() {
		res, ok := reader.Result().(*benchfmt.Result)
		if !ok || len(res.Values) == 0 {
			continue
		}
		name := "Benchmark" + strings.TrimPrefix(string(res.Name), "Benchmark")

		primary, primaryUnit := originalValue(res.Values[0])
		sample := goSample{iters: res.Iters, value: primary, unit: primaryUnit}
		for _, v := range res.Values[1:] {
			val, unit := originalValue(v)
			sample.extra = append(sample.extra, fmt.Sprintf("%s %s", formatFloat(val), unit))
		}

		if _, seen := samples[name]; !seen {
			order = append(order, name)
		}
		samples[name] = append(samples[name], sample)
	}
	if err := reader.Err(); err != nil {
		return nil, fmt.Errorf("failed to read go benchmark output: %w", err)
	}

	benches := make([]domain.Bench, 0, len(order))
	for _, name := range order {
		bench, err := foldGoSamples(name, samples[name])
		if err != nil {
			return nil, err
		}
		benches = append(benches, bench)
	}
	return benches, nil
}

// originalValue undoes benchfmt's unit normalisation so ns/op stays ns/op.
func originalValue(v benchfmt.Value) (float64, string) {
	if v.OrigUnit != "" {
		return v.OrigValue, v.OrigUnit
	}
	return v.Value, v.Unit
}

// foldGoSamples merges repeated runs of one benchmark (go test -count=N).
// Samples reporting a different primary unit than the first are left out and
// counted in extra.
func foldGoSamples(name string, samples []goSample) (domain.Bench, error) {
	first := samples[0]
	extra := append([]string{fmt.Sprintf("%d times", first.iters)}, first.extra...)

	values := make(stats.Float64Data, 0, len(samples))
	skipped := 0
	for _, s := range samples {
		if s.unit != first.unit {
			skipped++
			continue
		}
		values = append(values, s.value)
	}

	bench := domain.Bench{Name: name, Value: first.value, Unit: first.unit}
	if len(values) > 1 {
		mean, err := values.Mean()
		if err != nil {
			return domain.Bench{}, fmt.Errorf("failed to compute mean for %s: %w", name, err)
		}
		stddev, err := values.StandardDeviationSample()
		if err != nil {
			return domain.Bench{}, fmt.Errorf("failed to compute stddev for %s: %w", name, err)
		}
		bench.Value = mean
		bench.Range = "± " + formatFloat(stddev)
		extra = append(extra, fmt.Sprintf("%d samples", len(values)))
	}
	if skipped > 0 {
		extra = append(extra, fmt.Sprintf("%d skipped (not in %s)", skipped, first.unit))
	}
	bench.Extra = strings.Join(extra, "\n")
	return bench, nil
}
