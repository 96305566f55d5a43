package port

import (
	"context"

	"repomind/internal/domain"
)

// RepoProvider abstracts commit-history and diff retrieval across repository
// hosts. GitHub and GitLab variants differ only in endpoint shape, pagination,
// and auth headers; both normalize output to domain.CommitInfo.
//
// Error policy, applied consistently to all variants: a repository URL that
// cannot be parsed is a fatal input error (ErrInvalidRepoURL). Transient
// network/API failures on commit listing degrade to an empty batch with a nil
// error, so downstream sync sees "no new commits" instead of crashing.
// Diff-fetch failures are returned to the caller and handled per commit.
type RepoProvider interface {
	// Kind returns the provider this connector targets.
	Kind() domain.ProviderKind

	// ListRecentCommits returns up to 10 commits for the repository, sorted
	// by commit date descending (hash ascending on equal dates). The token is
	// optional; when present it is sent on every request so private
	// repositories work end to end.
	ListRecentCommits(ctx context.Context, repoURL, token string) ([]domain.CommitInfo, error)

	// FetchDiff returns the raw unified diff text for a single commit.
	FetchDiff(ctx context.Context, repoURL, commitHash, token string) (string, error)
}

// RepoProviderRegistry holds RepoProvider implementations keyed by kind.
type RepoProviderRegistry map[domain.ProviderKind]RepoProvider
