package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"repomind/internal/domain"
	"repomind/internal/port"
)

// GitLabProvider implements port.RepoProvider against the GitLab REST API v4.
type GitLabProvider struct {
	baseURL    string
	httpClient *http.Client
}

// NewGitLabProvider creates a GitLab connector. baseURL defaults to gitlab.com
// when empty (overridable for tests and self-hosted instances).
func NewGitLabProvider(baseURL string) *GitLabProvider {
	if baseURL == "" {
		baseURL = "https://gitlab.com"
	}
	return &GitLabProvider{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Kind returns the provider kind.
func (g *GitLabProvider) Kind() domain.ProviderKind {
	return domain.ProviderGitLab
}

// ListRecentCommits returns up to 10 commits, newest first by commit date.
func (g *GitLabProvider) ListRecentCommits(ctx context.Context, repoURL, token string) ([]domain.CommitInfo, error) {
	projectPath, err := parseGitLabURL(repoURL)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/api/v4/projects/%s/repository/commits?per_page=100&page=1",
		g.baseURL, url.PathEscape(projectPath))
	body, err := g.get(ctx, endpoint, token)
	if err != nil {
		slog.Warn("gitlab commit listing failed, degrading to empty batch", "repo", repoURL, "error", err)
		return nil, nil
	}

	var raw []struct {
		ID              string    `json:"id"`
		Message         string    `json:"message"`
		AuthorName      string    `json:"author_name"`
		AuthorAvatarURL string    `json:"author_avatar_url"`
		CreatedAt       time.Time `json:"created_at"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		slog.Warn("gitlab commit listing decode failed, degrading to empty batch", "repo", repoURL, "error", err)
		return nil, nil
	}

	commits := make([]domain.CommitInfo, 0, len(raw))
	for _, c := range raw {
		commits = append(commits, domain.CommitInfo{
			Hash:         c.ID,
			Message:      c.Message,
			AuthorName:   c.AuthorName,
			AuthorAvatar: c.AuthorAvatarURL,
			Date:         c.CreatedAt,
		})
	}

	return sortAndTruncate(commits), nil
}

// FetchDiff returns the unified diff for one commit. GitLab serves diffs as a
// JSON array of per-file hunks, which are reassembled into one diff text.
func (g *GitLabProvider) FetchDiff(ctx context.Context, repoURL, commitHash, token string) (string, error) {
	projectPath, err := parseGitLabURL(repoURL)
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s/api/v4/projects/%s/repository/commits/%s/diff",
		g.baseURL, url.PathEscape(projectPath), commitHash)
	body, err := g.get(ctx, endpoint, token)
	if err != nil {
		return "", fmt.Errorf("gitlab diff %s: %w", commitHash, err)
	}

	var files []struct {
		OldPath string `json:"old_path"`
		NewPath string `json:"new_path"`
		Diff    string `json:"diff"`
	}
	if err := json.Unmarshal(body, &files); err != nil {
		return "", fmt.Errorf("gitlab diff decode: %w", err)
	}

	var sb strings.Builder
	for _, f := range files {
		fmt.Fprintf(&sb, "diff --git a/%s b/%s\n--- a/%s\n+++ b/%s\n%s\n",
			f.OldPath, f.NewPath, f.OldPath, f.NewPath, f.Diff)
	}
	return sb.String(), nil
}

func (g *GitLabProvider) get(ctx context.Context, endpoint, token string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if token != "" {
		req.Header.Set("PRIVATE-TOKEN", token)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("gitlab API error (%d): %s", resp.StatusCode, string(body))
	}
	return io.ReadAll(resp.Body)
}

// parseGitLabURL extracts the namespace/project path from a repository URL.
// Nested groups are preserved (group/subgroup/project).
func parseGitLabURL(repoURL string) (string, error) {
	trimmed := strings.TrimSuffix(strings.TrimSuffix(repoURL, "/"), ".git")

	if strings.Contains(trimmed, "://") {
		u, err := url.Parse(trimmed)
		if err != nil || u.Host == "" {
			return "", fmt.Errorf("%w: %q", port.ErrInvalidRepoURL, repoURL)
		}
		trimmed = strings.TrimPrefix(u.Path, "/")
	}

	parts := strings.Split(trimmed, "/")
	if len(parts) < 2 {
		return "", fmt.Errorf("%w: %q", port.ErrInvalidRepoURL, repoURL)
	}
	for _, p := range parts {
		if p == "" {
			return "", fmt.Errorf("%w: %q", port.ErrInvalidRepoURL, repoURL)
		}
	}
	return trimmed, nil
}
