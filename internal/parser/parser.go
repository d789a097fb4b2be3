// Package parser converts the output of benchmark tools into measurements.
package parser

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/naka-gawa/bench-history/internal/domain"
)

// Supported tool names.
const (
	ToolPytest                = "pytest"
	ToolGo                    = "go"
	ToolCustomBiggerIsBetter  = "customBiggerIsBetter"
	ToolCustomSmallerIsBetter = "customSmallerIsBetter"
)

var (
	// ErrUnknownTool is returned for tool names the parser does not support.
	ErrUnknownTool = errors.New("unknown benchmark tool")
	// ErrNoResults is returned when the tool output holds no measurements.
	ErrNoResults = errors.New("no benchmark results found")
)

// Tools lists every tool Parse accepts.
func Tools() []string {
	return []string{ToolPytest, ToolGo, ToolCustomBiggerIsBetter, ToolCustomSmallerIsBetter}
}

// Parse reads the output of a benchmark tool and returns its measurements.
func Parse(tool string, r io.Reader) ([]domain.Bench, error) {
	var (
		benches []domain.Bench
		err     error
	)
	switch tool {
	case ToolPytest:
		benches, err = parsePytest(r)
	case ToolGo:
		benches, err = parseGo(r)
	case ToolCustomBiggerIsBetter, ToolCustomSmallerIsBetter:
		benches, err = parseCustom(r)
	default:
		return nil, fmt.Errorf("%w: %q (supported: %s)", ErrUnknownTool, tool, strings.Join(Tools(), ", "))
	}
	if err != nil {
		return nil, err
	}
	if len(benches) == 0 {
		return nil, ErrNoResults
	}
	return benches, nil
}

// BiggerIsBetter reports whether a larger value of unit is an improvement for tool.
func BiggerIsBetter(tool, unit string) bool {
	switch tool {
	case ToolPytest, ToolCustomBiggerIsBetter:
		return true
	case ToolGo:
		return strings.HasSuffix(unit, "/s")
	default:
		return false
	}
}
