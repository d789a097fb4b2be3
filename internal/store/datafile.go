// Package store reads and writes benchmark snapshot files.
//
// A snapshot is either a script (".js") assigning the document to
// window.BENCHMARK_DATA, as served to the benchmark dashboard, or a plain
// JSON file holding the same document.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/naka-gawa/bench-history/internal/domain"
)

// ScriptPrefix precedes the JSON document in ".js" snapshots.
const ScriptPrefix = "window.BENCHMARK_DATA = "

// ErrNotExist is returned by Load when the snapshot file does not exist yet.
var ErrNotExist = errors.New("snapshot file does not exist")

// IsScript reports whether path is stored in the wrapped script form.
func IsScript(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".js")
}

// Load reads, validates and decodes a snapshot.
func Load(path string) (*domain.BenchmarkData, error) {
	raw, err := readDocument(path)
	if err != nil {
		return nil, err
	}
	if err := validateJSON(path, raw); err != nil {
		return nil, err
	}

	var data domain.BenchmarkData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	if data.Entries == nil {
		data.Entries = make(map[string][]domain.BenchmarkRun)
	}
	return &data, nil
}

// Validate checks that path holds a well-formed snapshot.
func Validate(path string) error {
	raw, err := readDocument(path)
	if err != nil {
		return err
	}
	return validateJSON(path, raw)
}

// Save writes a snapshot, replacing any existing file in a single rename.
func Save(path string, data *domain.BenchmarkData) error {
	var buf bytes.Buffer
	if IsScript(path) {
		buf.WriteString(ScriptPrefix)
	}
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	// Snapshots end at the closing brace, without the newline Encode appends.
	content := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to chmod %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// readDocument returns the JSON document of a snapshot, stripping the script wrapper.
func readDocument(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotExist, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if !IsScript(path) {
		return raw, nil
	}

	doc := bytes.TrimSpace(raw)
	if !bytes.HasPrefix(doc, []byte(ScriptPrefix)) {
		return nil, &ValidationError{Path: path, Err: fmt.Errorf("missing %q prefix", strings.TrimSpace(ScriptPrefix))}
	}
	doc = bytes.TrimPrefix(doc, []byte(ScriptPrefix))
	doc = bytes.TrimSuffix(bytes.TrimSpace(doc), []byte(";"))
	return doc, nil
}
