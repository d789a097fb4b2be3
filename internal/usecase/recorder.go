// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"regexp"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/naka-gawa/bench-history/internal/domain"
	"github.com/naka-gawa/bench-history/internal/gateway"
	"github.com/naka-gawa/bench-history/internal/parser"
	"github.com/naka-gawa/bench-history/internal/store"
)

var (
	// ErrRegression is returned after recording when FailOnAlert is set and alerts fired.
	ErrRegression = errors.New("performance regression detected")
	// ErrNoCommitSource is returned when neither an event payload nor a commit was given.
	ErrNoCommitSource = errors.New("no commit to record: set an event payload or a commit")
	// ErrNoFetcher is returned when a commit must be looked up but no GitHub gateway is configured.
	ErrNoFetcher = errors.New("a GitHub token is required to look up commits")
	// ErrDuplicateBench is returned when two output files report a benchmark of the same name.
	ErrDuplicateBench = errors.New("benchmark reported more than once")
)

var fullSHA = regexp.MustCompile(`^[0-9a-f]{40}$`)

// RecordRequest describes one benchmark run to append to a snapshot.
type RecordRequest struct {
	DataFile       string
	Suite          string
	Tool           string
	OutputFiles    []string
	Repository     string
	RepoURL        string
	Commit         string
	EventPath      string
	AlertThreshold float64
	FailOnAlert    bool
	DryRun         bool
}

// RecordResult is what a recorded run produced.
type RecordResult struct {
	Run      domain.BenchmarkRun
	Alerts   []Alert
	Snapshot *domain.BenchmarkData
}

// Recorder is the use case for appending benchmark runs to a snapshot.
// It orchestrates parsing tool output, resolving the commit and persisting the history.
type Recorder struct {
	fetcher gateway.Fetcher
	logger  *log.Logger
	now     func() time.Time
}

// NewRecorder creates a new Recorder instance. fetcher may be nil when every
// commit comes from an event payload.
func NewRecorder(fetcher gateway.Fetcher, logger *log.Logger) *Recorder {
	return &Recorder{
		fetcher: fetcher,
		logger:  logger,
		now:     time.Now,
	}
}

// Record performs the main business logic.
// Tool output files are parsed concurrently while the commit is resolved.
func (r *Recorder) Record(ctx context.Context, req RecordRequest) (*RecordResult, error) {
	r.logger.Println("Usecase: Starting benchmark recording...")
	if len(req.OutputFiles) == 0 {
		return nil, errors.New("no benchmark output files given")
	}

	parsed := make([][]domain.Bench, len(req.OutputFiles))
	var commit *domain.Commit

	eg, egCtx := errgroup.WithContext(ctx)

	for i, path := range req.OutputFiles {
		i, path := i, path
		eg.Go(func() error {
			benches, err := parseFile(req.Tool, path)
			if err != nil {
				return err
			}
			r.logger.Printf("Parsed %d benches from %s\n", len(benches), path)
			parsed[i] = benches
			return nil
		})
	}

	eg.Go(func() error {
		var err error
		commit, err = r.resolveCommit(egCtx, req)
		return err
	})

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	r.logger.Println("Usecase: Benchmark output and commit resolved.")

	run := domain.BenchmarkRun{
		Commit: *commit,
		Date:   r.now().UnixMilli(),
		Tool:   req.Tool,
	}
	seen := make(map[string]string)
	for i, benches := range parsed {
		for _, bench := range benches {
			if first, ok := seen[bench.Name]; ok {
				return nil, fmt.Errorf("%w: %q in %s and %s", ErrDuplicateBench, bench.Name, first, req.OutputFiles[i])
			}
			seen[bench.Name] = req.OutputFiles[i]
			run.Benches = append(run.Benches, bench)
		}
	}

	snapshot, err := store.Load(req.DataFile)
	if errors.Is(err, store.ErrNotExist) {
		r.logger.Printf("Starting a new history at %s\n", req.DataFile)
		snapshot = domain.NewBenchmarkData(repoURL(req))
	} else if err != nil {
		return nil, err
	}

	prev, hasPrev := snapshot.Latest(req.Suite)
	if err := snapshot.Append(req.Suite, run, r.now()); err != nil {
		return nil, fmt.Errorf("failed to append run to %s: %w", req.DataFile, err)
	}

	result := &RecordResult{Run: run, Snapshot: snapshot}
	if hasPrev && req.AlertThreshold > 0 {
		result.Alerts = NewComparer(req.AlertThreshold).Compare(prev, run)
		r.logger.Printf("Compared against %s: %d alert(s)\n", prev.Commit.ShortID(), len(result.Alerts))
	}

	if req.DryRun {
		r.logger.Println("Dry run: snapshot not written.")
	} else if err := store.Save(req.DataFile, snapshot); err != nil {
		return nil, err
	}

	r.logger.Println("Usecase: Recording complete.")
	if req.FailOnAlert && len(result.Alerts) > 0 {
		return result, fmt.Errorf("%w: %d benchmark(s) over threshold", ErrRegression, len(result.Alerts))
	}
	return result, nil
}

// resolveCommit prefers the event payload and falls back to the GitHub API.
func (r *Recorder) resolveCommit(ctx context.Context, req RecordRequest) (*domain.Commit, error) {
	if req.EventPath != "" {
		commit, err := gateway.CommitFromEvent(req.EventPath)
		if err == nil {
			r.logger.Printf("Using commit %s from event payload\n", commit.ShortID())
			return commit, nil
		}
		if !errors.Is(err, gateway.ErrNoHeadCommit) || req.Commit == "" {
			return nil, err
		}
		r.logger.Println("Event payload has no head commit, falling back to the GitHub API.")
	}

	if req.Commit == "" {
		return nil, ErrNoCommitSource
	}
	if r.fetcher == nil {
		return nil, ErrNoFetcher
	}
	owner, repo, err := gateway.SplitRepository(req.Repository)
	if err != nil {
		return nil, err
	}

	sha := req.Commit
	if !fullSHA.MatchString(sha) {
		if sha, err = r.fetcher.ResolveRef(ctx, owner, repo, req.Commit); err != nil {
			return nil, err
		}
	}
	return r.fetcher.FetchCommit(ctx, owner, repo, sha)
}

func parseFile(tool, path string) ([]domain.Bench, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open benchmark output: %w", err)
	}
	defer f.Close()

	benches, err := parser.Parse(tool, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return benches, nil
}

func repoURL(req RecordRequest) string {
	if req.RepoURL != "" {
		return req.RepoURL
	}
	if req.Repository != "" {
		return "https://github.com/" + req.Repository
	}
	return ""
}
