package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultGitHubAPIURL = "https://api.github.com"
	githubCommitLimit   = 5
)

// Repository is the subset of GitHub's repository object the dashboard shows.
type Repository struct {
	Name            string  `json:"name"`
	FullName        string  `json:"full_name"`
	Description     *string `json:"description"`
	HTMLURL         string  `json:"html_url"`
	StargazersCount int     `json:"stargazers_count"`
	ForksCount      int     `json:"forks_count"`
	OpenIssuesCount int     `json:"open_issues_count"`
	Language        *string `json:"language"`
	DefaultBranch   string  `json:"default_branch"`
	PushedAt        string  `json:"pushed_at"`
}

type CommitAuthor struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Date  string `json:"date"`
}

type CommitDetail struct {
	Message string       `json:"message"`
	Author  CommitAuthor `json:"author"`
}

type Commit struct {
	SHA     string       `json:"sha"`
	HTMLURL string       `json:"html_url"`
	Commit  CommitDetail `json:"commit"`
}

// GitHubSummary is the body of GET /api/projects/{id}/github.
type GitHubSummary struct {
	Repo    Repository `json:"repo"`
	Commits []Commit   `json:"commits"`
}

type GitHubService struct {
	client  *http.Client
	baseURL string
	enabled bool
}

// NewGitHubService builds the service. An empty token leaves it unconfigured.
func NewGitHubService(token, baseURL string) *GitHubService {
	if baseURL == "" {
		baseURL = DefaultGitHubAPIURL
	}
	return &GitHubService{
		client:  newBearerClient(token, defaultTimeout),
		baseURL: strings.TrimRight(baseURL, "/"),
		enabled: token != "",
	}
}

var githubHeaders = map[string]string{
	"Accept":               "application/vnd.github+json",
	"X-GitHub-Api-Version": "2022-11-28",
}

// Summary fetches repository metadata and the latest commits concurrently. A
// failed repository call fails the summary; a failed commits call only
// empties the commit list.
func (s *GitHubService) Summary(ctx context.Context, slug string) (*GitHubSummary, error) {
	logger := log.With().Str("service", "github").Str("repo", slug).Logger()

	if !s.enabled {
		return nil, fmt.Errorf("GITHUB_TOKEN: %w", ErrNotConfigured)
	}

	summary := &GitHubSummary{Commits: []Commit{}}
	var (
		commits   []Commit
		commitErr error
	)

	repoURL := fmt.Sprintf("%s/repos/%s", s.baseURL, escapeSlug(slug))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return getJSON(gctx, s.client, "GitHub", repoURL, githubHeaders, &summary.Repo)
	})
	g.Go(func() error {
		commitsURL := fmt.Sprintf("%s/commits?per_page=%d", repoURL, githubCommitLimit)
		commitErr = getJSON(gctx, s.client, "GitHub", commitsURL, githubHeaders, &commits)
		// never fail the group: a missing commit list must not cancel the repo call
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Warn().Err(err).Msg("Failed to fetch repository")
		return nil, err
	}

	if commitErr != nil {
		logger.Warn().Err(commitErr).Msg("Failed to fetch commits, returning repository only")
	} else if commits != nil {
		summary.Commits = commits
	}

	return summary, nil
}

// escapeSlug escapes each segment of an owner/repo slug for use in a path.
func escapeSlug(slug string) string {
	segments := strings.Split(slug, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}
