package store

import (
	"bytes"
	_ "embed"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "https://github.com/naka-gawa/bench-history/schema.json"

// ValidationError reports a snapshot that does not match the snapshot schema.
type ValidationError struct {
	Path string
	Err  error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s is not a valid benchmark snapshot: %v", e.Path, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

var compileSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, doc); err != nil {
		return nil, fmt.Errorf("failed to add embedded schema: %w", err)
	}
	return c.Compile(schemaURL)
})

// validateJSON checks a raw snapshot document against the embedded schema.
func validateJSON(path string, raw []byte) error {
	sch, err := compileSchema()
	if err != nil {
		return err
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return &ValidationError{Path: path, Err: err}
	}
	if err := sch.Validate(inst); err != nil {
		return &ValidationError{Path: path, Err: err}
	}
	return nil
}
