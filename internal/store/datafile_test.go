package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naka-gawa/bench-history/internal/domain"
)

func TestLoad_RealSnapshot(t *testing.T) {
	data, err := Load("testdata/data.js")
	require.NoError(t, err)

	assert.Equal(t, int64(1748518740600), data.LastUpdate)
	assert.Equal(t, "https://github.com/cincibrainlab/autoclean_pipeline", data.RepoURL)
	assert.Equal(t, []string{"Benchmark"}, data.Suites())

	run, ok := data.Latest("Benchmark")
	require.True(t, ok)
	assert.Equal(t, "006f14f413ef7e049995f7b623e10e68e5df42fb", run.Commit.ID)
	assert.Equal(t, "ggammoh", run.Commit.Author.Username)
	assert.Equal(t, "2025-05-29T07:35:43-04:00", run.Commit.Timestamp)
	assert.Equal(t, int64(1748518739535), run.Date)
	assert.Equal(t, "pytest", run.Tool)
	require.Len(t, run.Benches, 1)
	assert.Equal(t, "iter/sec", run.Benches[0].Unit)
	assert.Equal(t, "mean: 164.17352950000463 msec\nrounds: 6", run.Benches[0].Extra)
}

func TestSaveLoad_PreservesHistory(t *testing.T) {
	original, err := Load("testdata/data.js")
	require.NoError(t, err)

	for _, name := range []string{"data.js", "data.json"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "dev", "bench", name)

			require.NoError(t, Save(path, original))
			reloaded, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, original, reloaded)

			raw, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, IsScript(path), strings.HasPrefix(string(raw), ScriptPrefix))
		})
	}
}

func TestSave_RoundTripIsByteIdentical(t *testing.T) {
	original, err := os.ReadFile("testdata/data.js")
	require.NoError(t, err)
	data, err := Load("testdata/data.js")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "data.js")
	require.NoError(t, Save(path, data))
	rewritten, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(original), string(rewritten))
}

func TestSave_AppendedSnapshotIsSuperset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.js")
	older, err := Load("testdata/data.js")
	require.NoError(t, err)
	require.NoError(t, Save(path, older))

	newer, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, newer.Append("Benchmark", domain.BenchmarkRun{
		Commit:  domain.Commit{ID: "1111111111111111111111111111111111111111", URL: "https://example.com"},
		Date:    1748518800000,
		Tool:    "pytest",
		Benches: []domain.Bench{{Name: "b", Value: 1, Unit: "iter/sec"}},
	}, time.UnixMilli(1748518800001)))
	require.NoError(t, Save(path, newer))

	reloaded, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, reloaded.Runs("Benchmark"), 2)
	assert.NoError(t, reloaded.IsSupersetOf(older))
}

func TestLoad_Errors(t *testing.T) {
	testCases := []struct {
		name     string
		file     string
		content  string
		checkErr func(t *testing.T, err error)
	}{
		{
			name: "missing file",
			file: "absent.js",
			checkErr: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrNotExist)
			},
		},
		{
			name:    "script without prefix",
			file:    "data.js",
			content: `{"lastUpdate": 1, "repoUrl": "", "entries": {}}`,
			checkErr: func(t *testing.T, err error) {
				var vErr *ValidationError
				assert.ErrorAs(t, err, &vErr)
				assert.Contains(t, err.Error(), "missing")
			},
		},
		{
			name:    "bench without unit",
			file:    "data.json",
			content: `{"lastUpdate": 1, "repoUrl": "", "entries": {"Benchmark": [{"commit": {"id": "a", "url": "u"}, "date": 1, "tool": "go", "benches": [{"name": "x", "value": 1}]}]}}`,
			checkErr: func(t *testing.T, err error) {
				var vErr *ValidationError
				assert.ErrorAs(t, err, &vErr)
			},
		},
		{
			name:    "run without benches",
			file:    "data.json",
			content: `{"lastUpdate": 1, "repoUrl": "", "entries": {"Benchmark": [{"commit": {"id": "a", "url": "u"}, "date": 1, "tool": "go", "benches": []}]}}`,
			checkErr: func(t *testing.T, err error) {
				var vErr *ValidationError
				assert.ErrorAs(t, err, &vErr)
			},
		},
		{
			name:    "not json",
			file:    "data.js",
			content: ScriptPrefix + `{"lastUpdate": `,
			checkErr: func(t *testing.T, err error) {
				var vErr *ValidationError
				assert.ErrorAs(t, err, &vErr)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tc.file)
			if tc.content != "" {
				require.NoError(t, os.WriteFile(path, []byte(tc.content), 0o644))
			}
			data, err := Load(path)
			assert.Nil(t, data)
			require.Error(t, err)
			tc.checkErr(t, err)
		})
	}
}

func TestLoad_ToleratesTrailingSemicolon(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.js")
	content := ScriptPrefix + `{"lastUpdate": 5, "repoUrl": "https://github.com/org/repo", "entries": {}};` + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	data, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, int64(5), data.LastUpdate)
	assert.Empty(t, data.Suites())
	assert.NoError(t, Validate(path))
}
