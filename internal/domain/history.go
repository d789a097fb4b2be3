// Package domain contains the core data structures and domain logic for the application.
package domain

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

var (
	// ErrMissingCommit is returned when a run carries no commit id.
	ErrMissingCommit = errors.New("benchmark run has no commit id")
	// ErrNoBenches is returned when a run has no measurements.
	ErrNoBenches = errors.New("benchmark run has no benches")
	// ErrDuplicateCommit is returned when a suite already holds a run for the commit.
	ErrDuplicateCommit = errors.New("commit already recorded in suite")
	// ErrOutOfOrder is returned when a run is older than the last run of its suite.
	ErrOutOfOrder = errors.New("benchmark run is older than the latest run")
)

// CommitUser identifies the author or committer of a commit.
type CommitUser struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Username string `json:"username,omitempty"`
}

// Commit is the source-control reference a run is keyed by.
type Commit struct {
	Author    CommitUser `json:"author"`
	Committer CommitUser `json:"committer"`
	Distinct  bool       `json:"distinct"`
	ID        string     `json:"id"`
	Message   string     `json:"message"`
	Timestamp string     `json:"timestamp,omitempty"`
	TreeID    string     `json:"tree_id,omitempty"`
	URL       string     `json:"url"`
}

// ShortID returns the first seven characters of the commit hash.
func (c Commit) ShortID() string {
	if len(c.ID) <= 7 {
		return c.ID
	}
	return c.ID[:7]
}

// Bench is a single named measurement.
type Bench struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
	Range string  `json:"range,omitempty"`
	Extra string  `json:"extra,omitempty"`
}

// BenchmarkRun is one record per CI execution.
type BenchmarkRun struct {
	Commit  Commit  `json:"commit"`
	Date    int64   `json:"date"`
	Tool    string  `json:"tool"`
	Benches []Bench `json:"benches"`
}

// Time returns the wall-clock time of the run.
func (r BenchmarkRun) Time() time.Time {
	return time.UnixMilli(r.Date)
}

// Bench looks up a measurement by name.
func (r BenchmarkRun) Bench(name string) (Bench, bool) {
	for _, b := range r.Benches {
		if b.Name == name {
			return b, true
		}
	}
	return Bench{}, false
}

// BenchmarkData is the whole snapshot: every suite and its accumulated runs.
type BenchmarkData struct {
	LastUpdate int64                     `json:"lastUpdate"`
	RepoURL    string                    `json:"repoUrl"`
	Entries    map[string][]BenchmarkRun `json:"entries"`
}

// NewBenchmarkData creates an empty snapshot for a repository.
func NewBenchmarkData(repoURL string) *BenchmarkData {
	return &BenchmarkData{
		RepoURL: repoURL,
		Entries: make(map[string][]BenchmarkRun),
	}
}

// Append adds a run to the end of a suite, creating the suite when needed.
// Existing runs are never modified.
func (d *BenchmarkData) Append(suite string, run BenchmarkRun, now time.Time) error {
	if run.Commit.ID == "" {
		return ErrMissingCommit
	}
	if len(run.Benches) == 0 {
		return ErrNoBenches
	}
	if d.Entries == nil {
		d.Entries = make(map[string][]BenchmarkRun)
	}

	runs := d.Entries[suite]
	for _, existing := range runs {
		if existing.Commit.ID == run.Commit.ID {
			return fmt.Errorf("%w: %s in %q", ErrDuplicateCommit, run.Commit.ShortID(), suite)
		}
	}
	if n := len(runs); n > 0 && run.Date < runs[n-1].Date {
		return fmt.Errorf("%w: %d < %d", ErrOutOfOrder, run.Date, runs[n-1].Date)
	}

	d.Entries[suite] = append(runs, run)
	d.LastUpdate = now.UnixMilli()
	return nil
}

// Suites returns the suite names in sorted order.
func (d *BenchmarkData) Suites() []string {
	names := make([]string, 0, len(d.Entries))
	for name := range d.Entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Runs returns the runs of a suite, oldest first.
func (d *BenchmarkData) Runs(suite string) []BenchmarkRun {
	return d.Entries[suite]
}

// Latest returns the most recent run of a suite.
func (d *BenchmarkData) Latest(suite string) (BenchmarkRun, bool) {
	runs := d.Entries[suite]
	if len(runs) == 0 {
		return BenchmarkRun{}, false
	}
	return runs[len(runs)-1], true
}

// Previous returns the run recorded before the latest one.
func (d *BenchmarkData) Previous(suite string) (BenchmarkRun, bool) {
	runs := d.Entries[suite]
	if len(runs) < 2 {
		return BenchmarkRun{}, false
	}
	return runs[len(runs)-2], true
}

// IsSupersetOf reports whether every suite of older is a prefix of the same suite in d.
// It returns a descriptive error for the first violation found.
func (d *BenchmarkData) IsSupersetOf(older *BenchmarkData) error {
	for _, suite := range older.Suites() {
		oldRuns := older.Entries[suite]
		newRuns, ok := d.Entries[suite]
		if !ok {
			return fmt.Errorf("suite %q was removed", suite)
		}
		if len(newRuns) < len(oldRuns) {
			return fmt.Errorf("suite %q shrank from %d to %d runs", suite, len(oldRuns), len(newRuns))
		}
		for i, run := range oldRuns {
			if !sameRun(run, newRuns[i]) {
				return fmt.Errorf("suite %q run %d (%s) was modified", suite, i, run.Commit.ShortID())
			}
		}
	}
	return nil
}

func sameRun(a, b BenchmarkRun) bool {
	if a.Commit != b.Commit || a.Date != b.Date || a.Tool != b.Tool || len(a.Benches) != len(b.Benches) {
		return false
	}
	for i := range a.Benches {
		if a.Benches[i] != b.Benches[i] {
			return false
		}
	}
	return true
}
