package parser

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/naka-gawa/bench-history/internal/domain"
)

// pytestOutput is the subset of pytest-benchmark's --benchmark-json output we read.
type pytestOutput struct {
	Benchmarks []struct {
		Group    string `json:"group"`
		Name     string `json:"name"`
		Fullname string `json:"fullname"`
		Stats    struct {
			Min    float64 `json:"min"`
			Max    float64 `json:"max"`
			Mean   float64 `json:"mean"`
			StdDev float64 `json:"stddev"`
			Median float64 `json:"median"`
			Rounds int     `json:"rounds"`
			Ops    float64 `json:"ops"`
		} `json:"stats"`
	} `json:"benchmarks"`
}

func parsePytest(r io.Reader) ([]domain.Bench, error) {
	var out pytestOutput
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode pytest-benchmark output: %w", err)
	}

	benches := make([]domain.Bench, 0, len(out.Benchmarks))
	for _, b := range out.Benchmarks {
		name := b.Fullname
		if name == "" {
			name = b.Name
		}
		benches = append(benches, domain.Bench{
			Name:  name,
			Value: b.Stats.Ops,
			Unit:  "iter/sec",
			Range: "stddev: " + formatFloat(b.Stats.StdDev),
			Extra: fmt.Sprintf("mean: %s msec\nrounds: %d", formatFloat(b.Stats.Mean*1000), b.Stats.Rounds),
		})
	}
	return benches, nil
}

// formatFloat prints the shortest representation that round-trips, the way
// JavaScript's Number#toString does: exponent form below 1e-6 and from 1e21 up.
func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'e', -1, 64)
	mantissa, exp, ok := strings.Cut(s, "e")
	if !ok {
		return s // NaN or ±Inf
	}
	e, err := strconv.Atoi(exp)
	if err != nil || (e >= -6 && e < 21) {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	sign := "+"
	if e < 0 {
		sign, e = "-", -e
	}
	return mantissa + "e" + sign + strconv.Itoa(e)
}
