package parser

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/naka-gawa/bench-history/internal/domain"
)

func parseCustom(r io.Reader) ([]domain.Bench, error) {
	var benches []domain.Bench
	if err := json.NewDecoder(r).Decode(&benches); err != nil {
		return nil, fmt.Errorf("failed to decode custom benchmark output: %w", err)
	}
	for i, b := range benches {
		if b.Name == "" {
			return nil, fmt.Errorf("custom benchmark #%d has no name", i)
		}
		if b.Unit == "" {
			return nil, fmt.Errorf("custom benchmark %q has no unit", b.Name)
		}
	}
	return benches, nil
}
