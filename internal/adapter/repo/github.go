package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"repomind/internal/domain"
	"repomind/internal/port"
)

// maxRecentCommits bounds the commit batch every provider returns.
const maxRecentCommits = 10

// GitHubProvider implements port.RepoProvider against the GitHub REST API.
type GitHubProvider struct {
	baseURL    string
	httpClient *http.Client
}

// NewGitHubProvider creates a GitHub connector. baseURL defaults to the
// public API when empty (overridable for tests and GitHub Enterprise).
func NewGitHubProvider(baseURL string) *GitHubProvider {
	if baseURL == "" {
		baseURL = "https://api.github.com"
	}
	return &GitHubProvider{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Kind returns the provider kind.
func (g *GitHubProvider) Kind() domain.ProviderKind {
	return domain.ProviderGitHub
}

// ListRecentCommits returns up to 10 commits, newest first by commit date.
func (g *GitHubProvider) ListRecentCommits(ctx context.Context, repoURL, token string) ([]domain.CommitInfo, error) {
	owner, name, err := parseGitHubURL(repoURL)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/repos/%s/%s/commits?per_page=25", g.baseURL, owner, name)
	body, err := g.get(ctx, endpoint, token, "application/vnd.github+json")
	if err != nil {
		slog.Warn("github commit listing failed, degrading to empty batch", "repo", repoURL, "error", err)
		return nil, nil
	}

	var raw []struct {
		SHA    string `json:"sha"`
		Commit struct {
			Message string `json:"message"`
			Author  struct {
				Name string    `json:"name"`
				Date time.Time `json:"date"`
			} `json:"author"`
		} `json:"commit"`
		Author *struct {
			AvatarURL string `json:"avatar_url"`
		} `json:"author"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		slog.Warn("github commit listing decode failed, degrading to empty batch", "repo", repoURL, "error", err)
		return nil, nil
	}

	commits := make([]domain.CommitInfo, 0, len(raw))
	for _, c := range raw {
		info := domain.CommitInfo{
			Hash:       c.SHA,
			Message:    c.Commit.Message,
			AuthorName: c.Commit.Author.Name,
			Date:       c.Commit.Author.Date,
		}
		if c.Author != nil {
			info.AuthorAvatar = c.Author.AvatarURL
		}
		commits = append(commits, info)
	}

	return sortAndTruncate(commits), nil
}

// FetchDiff returns the raw unified diff for one commit.
func (g *GitHubProvider) FetchDiff(ctx context.Context, repoURL, commitHash, token string) (string, error) {
	owner, name, err := parseGitHubURL(repoURL)
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s/repos/%s/%s/commits/%s", g.baseURL, owner, name, commitHash)
	body, err := g.get(ctx, endpoint, token, "application/vnd.github.v3.diff")
	if err != nil {
		return "", fmt.Errorf("github diff %s: %w", commitHash, err)
	}
	return string(body), nil
}

func (g *GitHubProvider) get(ctx context.Context, endpoint, token, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", accept)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("github API error (%d): %s", resp.StatusCode, string(body))
	}
	return io.ReadAll(resp.Body)
}

// parseGitHubURL extracts owner and repo name from a repository URL.
// The last two path segments are authoritative, so plain owner/repo,
// https URLs, and trailing .git all resolve the same way.
func parseGitHubURL(repoURL string) (owner, name string, err error) {
	trimmed := strings.TrimSuffix(strings.TrimSuffix(repoURL, "/"), ".git")
	parts := strings.Split(trimmed, "/")
	if len(parts) < 2 {
		return "", "", fmt.Errorf("%w: %q", port.ErrInvalidRepoURL, repoURL)
	}
	owner = parts[len(parts)-2]
	name = parts[len(parts)-1]
	if owner == "" || name == "" || strings.Contains(owner, ":") {
		return "", "", fmt.Errorf("%w: %q", port.ErrInvalidRepoURL, repoURL)
	}
	if _, err := url.Parse(repoURL); err != nil {
		return "", "", fmt.Errorf("%w: %q", port.ErrInvalidRepoURL, repoURL)
	}
	return owner, name, nil
}

// sortAndTruncate orders commits by date descending (hash ascending on equal
// dates, so the order is deterministic) and keeps the most recent 10.
func sortAndTruncate(commits []domain.CommitInfo) []domain.CommitInfo {
	sort.SliceStable(commits, func(i, j int) bool {
		if commits[i].Date.Equal(commits[j].Date) {
			return commits[i].Hash < commits[j].Hash
		}
		return commits[i].Date.After(commits[j].Date)
	})
	if len(commits) > maxRecentCommits {
		commits = commits[:maxRecentCommits]
	}
	return commits
}
