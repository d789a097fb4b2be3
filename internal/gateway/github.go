// Package gateway provides a gateway to the GitHub API,
// abstracting away the underlying REST and GraphQL clients.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/shurcooL/githubv4"
	"golang.org/x/oauth2"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"

	"github.com/naka-gawa/bench-history/internal/domain"
)

// ErrRefNotFound is returned when a ref does not resolve to any object.
var ErrRefNotFound = errors.New("ref not found")

// Fetcher defines the behavior of a gateway for fetching commit information from GitHub.
type Fetcher interface {
	FetchCommit(ctx context.Context, owner, repo, sha string) (*domain.Commit, error)
	ResolveRef(ctx context.Context, owner, repo, ref string) (string, error)
}

// GitHubGateway is the concrete implementation of the Fetcher interface.
type GitHubGateway struct {
	restClient    *github.Client
	graphqlClient *githubv4.Client
	logger        *log.Logger
}

// resolveRefQuery resolves a branch, tag or abbreviated hash to an object id.
type resolveRefQuery struct {
	Repository struct {
		Object *struct {
			Oid githubv4.GitObjectID
		} `graphql:"object(expression: $expression)"`
	} `graphql:"repository(owner: $owner, name: $name)"`
}

// NewGitHubGateway is a constructor that creates a new instance of GitHubGateway.
func NewGitHubGateway(token string, logger *log.Logger) (Fetcher, error) {
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(nil, github_ratelimit.WithSingleSleepLimit(1*time.Hour, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := &http.Client{
		Transport: &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: ts,
		},
	}
	return &GitHubGateway{
		restClient:    github.NewClient(httpClient),
		graphqlClient: githubv4.NewClient(httpClient),
		logger:        logger,
	}, nil
}

// FetchCommit looks a commit up through the REST API and converts it into a run commit.
func (g *GitHubGateway) FetchCommit(ctx context.Context, owner, repo, sha string) (*domain.Commit, error) {
	g.logger.Printf("Fetching commit %s of %s/%s using REST API...\n", sha, owner, repo)
	rc, _, err := g.restClient.Repositories.GetCommit(ctx, owner, repo, sha, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch commit with REST API: %w", err)
	}

	c := rc.GetCommit()
	commit := &domain.Commit{
		Author: domain.CommitUser{
			Email:    c.GetAuthor().GetEmail(),
			Name:     c.GetAuthor().GetName(),
			Username: rc.GetAuthor().GetLogin(),
		},
		Committer: domain.CommitUser{
			Email:    c.GetCommitter().GetEmail(),
			Name:     c.GetCommitter().GetName(),
			Username: rc.GetCommitter().GetLogin(),
		},
		Distinct: true,
		ID:       rc.GetSHA(),
		Message:  c.GetMessage(),
		TreeID:   c.GetTree().GetSHA(),
		URL:      rc.GetHTMLURL(),
	}
	if date := c.GetCommitter().GetDate(); !date.IsZero() {
		commit.Timestamp = date.Format(time.RFC3339)
	}
	g.logger.Println("Completed fetching commit data.")
	return commit, nil
}

// ResolveRef turns a branch or tag name into a commit hash using the GraphQL API.
func (g *GitHubGateway) ResolveRef(ctx context.Context, owner, repo, ref string) (string, error) {
	g.logger.Printf("Resolving ref %q of %s/%s using GraphQL API...\n", ref, owner, repo)
	variables := map[string]interface{}{
		"owner":      githubv4.String(owner),
		"name":       githubv4.String(repo),
		"expression": githubv4.String(ref),
	}
	var q resolveRefQuery
	if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
		return "", fmt.Errorf("failed to execute GraphQL query for ref: %w", err)
	}
	if q.Repository.Object == nil || q.Repository.Object.Oid == "" {
		return "", fmt.Errorf("%w: %s in %s/%s", ErrRefNotFound, ref, owner, repo)
	}
	return string(q.Repository.Object.Oid), nil
}

// SplitRepository splits an "owner/name" slug.
func SplitRepository(slug string) (owner, repo string, err error) {
	owner, repo, ok := strings.Cut(slug, "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", fmt.Errorf("invalid repository %q, expected owner/name", slug)
	}
	return owner, repo, nil
}
