package gateway

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-github/v62/github"
	"github.com/shurcooL/githubv4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naka-gawa/bench-history/internal/domain"
)

// setupTestGateway creates a GitHubGateway that communicates with a mock HTTP server.
func setupTestGateway(t *testing.T, handler http.Handler) (*GitHubGateway, *httptest.Server) {
	server := httptest.NewServer(handler)

	restClient := github.NewClient(server.Client())
	baseURL, err := url.Parse(server.URL + "/")
	require.NoError(t, err)
	restClient.BaseURL = baseURL

	graphqlClient := githubv4.NewEnterpriseClient(server.URL, server.Client())
	logger := log.New(io.Discard, "", 0)

	gateway := &GitHubGateway{
		restClient:    restClient,
		graphqlClient: graphqlClient,
		logger:        logger,
	}

	return gateway, server
}

func TestGitHubGateway_FetchCommit(t *testing.T) {
	testCases := []struct {
		name           string
		handlerFunc    func(w http.ResponseWriter, r *http.Request)
		expected       *domain.Commit
		expectError    bool
		expectedErrMsg string
	}{
		{
			name: "happy path - converts the REST commit",
			handlerFunc: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/repos/org/repo/commits/006f14f", r.URL.Path)
				w.WriteHeader(http.StatusOK)
				fmt.Fprint(w, `{
					"sha": "006f14f413ef7e049995f7b623e10e68e5df42fb",
					"html_url": "https://github.com/org/repo/commit/006f14f413ef7e049995f7b623e10e68e5df42fb",
					"author": {"login": "ggammoh"},
					"committer": {"login": "web-flow"},
					"commit": {
						"message": "Fix PowerShell syntax",
						"tree": {"sha": "469aa60f154b7837615053fb0058220bfd4f84d6"},
						"author": {"name": "ggammoh", "email": "g@example.com", "date": "2025-05-29T11:30:00Z"},
						"committer": {"name": "GitHub", "email": "noreply@github.com", "date": "2025-05-29T11:35:43Z"}
					}
				}`)
			},
			expected: &domain.Commit{
				Author:    domain.CommitUser{Email: "g@example.com", Name: "ggammoh", Username: "ggammoh"},
				Committer: domain.CommitUser{Email: "noreply@github.com", Name: "GitHub", Username: "web-flow"},
				Distinct:  true,
				ID:        "006f14f413ef7e049995f7b623e10e68e5df42fb",
				Message:   "Fix PowerShell syntax",
				Timestamp: "2025-05-29T11:35:43Z",
				TreeID:    "469aa60f154b7837615053fb0058220bfd4f84d6",
				URL:       "https://github.com/org/repo/commit/006f14f413ef7e049995f7b623e10e68e5df42fb",
			},
		},
		{
			name: "error case - GitHub API returns an error",
			handlerFunc: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				fmt.Fprint(w, `{"message": "No commit found for SHA: 006f14f"}`)
			},
			expectError:    true,
			expectedErrMsg: "failed to fetch commit with REST API",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gateway, server := setupTestGateway(t, http.HandlerFunc(tc.handlerFunc))
			defer server.Close()
			commit, err := gateway.FetchCommit(context.Background(), "org", "repo", "006f14f")
			if tc.expectError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tc.expectedErrMsg)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tc.expected, commit)
			}
		})
	}
}

func TestGitHubGateway_ResolveRef(t *testing.T) {
	testCases := []struct {
		name           string
		responseBody   string
		expected       string
		expectError    bool
		expectedErrMsg string
	}{
		{
			name:         "happy path - branch resolves to a commit",
			responseBody: `{"data":{"repository":{"object":{"oid":"006f14f413ef7e049995f7b623e10e68e5df42fb"}}}}`,
			expected:     "006f14f413ef7e049995f7b623e10e68e5df42fb",
		},
		{
			name:           "unknown ref",
			responseBody:   `{"data":{"repository":{"object":null}}}`,
			expectError:    true,
			expectedErrMsg: "ref not found",
		},
		{
			name:           "error case - GraphQL errors",
			responseBody:   `{"errors":[{"message":"Something went wrong"}]}`,
			expectError:    true,
			expectedErrMsg: "failed to execute GraphQL query for ref",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			handler := func(w http.ResponseWriter, r *http.Request) {
				body, err := io.ReadAll(r.Body)
				require.NoError(t, err)
				assert.Contains(t, string(body), `"expression":"main"`)

				w.WriteHeader(http.StatusOK)
				fmt.Fprint(w, tc.responseBody)
			}
			gateway, server := setupTestGateway(t, http.HandlerFunc(handler))
			defer server.Close()

			sha, err := gateway.ResolveRef(context.Background(), "org", "repo", "main")

			if tc.expectError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tc.expectedErrMsg)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tc.expected, sha)
			}
		})
	}
}

func TestCommitFromEvent(t *testing.T) {
	testCases := []struct {
		name           string
		payload        string
		expected       *domain.Commit
		expectedErrMsg string
	}{
		{
			name: "push event",
			payload: `{"head_commit": {
				"author": {"email": "g@example.com", "name": "ggammoh", "username": "ggammoh"},
				"committer": {"email": "g@example.com", "name": "ggammoh", "username": "ggammoh"},
				"distinct": true,
				"id": "006f14f413ef7e049995f7b623e10e68e5df42fb",
				"message": "Fix PowerShell syntax",
				"timestamp": "2025-05-29T07:35:43-04:00",
				"tree_id": "469aa60f154b7837615053fb0058220bfd4f84d6",
				"url": "https://github.com/org/repo/commit/006f14f413ef7e049995f7b623e10e68e5df42fb"
			}}`,
			expected: &domain.Commit{
				Author:    domain.CommitUser{Email: "g@example.com", Name: "ggammoh", Username: "ggammoh"},
				Committer: domain.CommitUser{Email: "g@example.com", Name: "ggammoh", Username: "ggammoh"},
				Distinct:  true,
				ID:        "006f14f413ef7e049995f7b623e10e68e5df42fb",
				Message:   "Fix PowerShell syntax",
				Timestamp: "2025-05-29T07:35:43-04:00",
				TreeID:    "469aa60f154b7837615053fb0058220bfd4f84d6",
				URL:       "https://github.com/org/repo/commit/006f14f413ef7e049995f7b623e10e68e5df42fb",
			},
		},
		{
			name: "pull request event",
			payload: `{"pull_request": {
				"title": "Add ICA benchmark",
				"html_url": "https://github.com/org/repo/pull/7",
				"head": {"sha": "abc123", "user": {"login": "octocat"}, "repo": {"updated_at": "2025-05-29T10:00:00Z"}}
			}}`,
			expected: &domain.Commit{
				Author:    domain.CommitUser{Name: "octocat", Username: "octocat"},
				Committer: domain.CommitUser{Name: "octocat", Username: "octocat"},
				Distinct:  true,
				ID:        "abc123",
				Message:   "Add ICA benchmark",
				Timestamp: "2025-05-29T10:00:00Z",
				URL:       "https://github.com/org/repo/pull/7/commits/abc123",
			},
		},
		{
			name:           "workflow dispatch without commit",
			payload:        `{"ref": "refs/heads/main"}`,
			expectedErrMsg: "event payload has no head commit",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "event.json")
			require.NoError(t, os.WriteFile(path, []byte(tc.payload), 0o644))

			commit, err := CommitFromEvent(path)
			if tc.expectedErrMsg != "" {
				assert.ErrorIs(t, err, ErrNoHeadCommit)
				assert.Contains(t, err.Error(), tc.expectedErrMsg)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, commit)
		})
	}
}

func TestSplitRepository(t *testing.T) {
	owner, repo, err := SplitRepository("cincibrainlab/autoclean_pipeline")
	require.NoError(t, err)
	assert.Equal(t, "cincibrainlab", owner)
	assert.Equal(t, "autoclean_pipeline", repo)

	for _, bad := range []string{"", "org", "org/", "/repo", "a/b/c"} {
		_, _, err := SplitRepository(bad)
		assert.Error(t, err, bad)
	}
}
