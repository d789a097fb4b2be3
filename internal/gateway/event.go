package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/naka-gawa/bench-history/internal/domain"
)

// ErrNoHeadCommit is returned when an event payload carries no usable commit.
var ErrNoHeadCommit = errors.New("event payload has no head commit")

// eventPayload is the part of a GitHub Actions event we care about.
// A push event's head_commit already has the shape of a run commit.
type eventPayload struct {
	HeadCommit  *domain.Commit `json:"head_commit"`
	PullRequest *struct {
		Title   string `json:"title"`
		HTMLURL string `json:"html_url"`
		Head    struct {
			SHA  string `json:"sha"`
			User struct {
				Login string `json:"login"`
			} `json:"user"`
			Repo struct {
				UpdatedAt string `json:"updated_at"`
			} `json:"repo"`
		} `json:"head"`
	} `json:"pull_request"`
}

// CommitFromEvent reads the commit that triggered a workflow from its event payload file.
func CommitFromEvent(path string) (*domain.Commit, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read event payload: %w", err)
	}
	var payload eventPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode event payload %s: %w", path, err)
	}

	if payload.HeadCommit != nil && payload.HeadCommit.ID != "" {
		return payload.HeadCommit, nil
	}
	if pr := payload.PullRequest; pr != nil && pr.Head.SHA != "" {
		user := domain.CommitUser{Name: pr.Head.User.Login, Username: pr.Head.User.Login}
		return &domain.Commit{
			Author:    user,
			Committer: user,
			Distinct:  true,
			ID:        pr.Head.SHA,
			Message:   pr.Title,
			Timestamp: pr.Head.Repo.UpdatedAt,
			URL:       fmt.Sprintf("%s/commits/%s", pr.HTMLURL, pr.Head.SHA),
		}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNoHeadCommit, path)
}
