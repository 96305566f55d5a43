package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"repomind/internal/domain"
	"repomind/internal/port"
)

// defaultSyncWorkers bounds the per-commit summarization fan-out.
const defaultSyncWorkers = 4

// SyncService is the commit sync pipeline: it fetches the latest upstream
// commits, filters out already-processed ones, summarizes each new commit's
// diff, and persists the results in one batch.
type SyncService struct {
	projects  port.ProjectStore
	commits   port.CommitStore
	providers port.RepoProviderRegistry
	ai        port.AIProvider
	workers   int
}

// NewSyncService creates a new sync service. workers caps concurrent
// summarizations per batch; values < 1 fall back to the default.
func NewSyncService(projects port.ProjectStore, commits port.CommitStore, providers port.RepoProviderRegistry, ai port.AIProvider, workers int) *SyncService {
	if workers < 1 {
		workers = defaultSyncWorkers
	}
	return &SyncService{
		projects:  projects,
		commits:   commits,
		providers: providers,
		ai:        ai,
		workers:   workers,
	}
}

// SyncCommits processes upstream commits not yet stored for the project and
// returns the newly created rows. Running it again with no upstream change is
// a no-op. A failed summarization never drops its commit: the row is
// persisted with an empty summary, and sibling commits are unaffected.
func (s *SyncService) SyncCommits(ctx context.Context, projectID string) ([]domain.Commit, error) {
	project, err := s.projects.GetProjectByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.RepoURL == "" {
		return nil, port.ErrMissingRepoURL
	}

	provider, ok := s.providers[project.Provider]
	if !ok {
		return nil, fmt.Errorf("%w: %q", port.ErrUnknownProvider, project.Provider)
	}

	upstream, err := provider.ListRecentCommits(ctx, project.RepoURL, project.AccessToken)
	if err != nil {
		return nil, err
	}

	unseen, err := s.filterProcessed(ctx, projectID, upstream)
	if err != nil {
		return nil, err
	}
	if len(unseen) == 0 {
		slog.Info("commit sync: nothing new", "project_id", projectID)
		return nil, nil
	}

	summaries := s.summarizeAll(ctx, provider, project, unseen)

	batch := make([]domain.Commit, len(unseen))
	for i, info := range unseen {
		batch[i] = domain.Commit{
			ProjectID:    projectID,
			CommitHash:   info.Hash,
			Message:      info.Message,
			AuthorName:   info.AuthorName,
			AuthorAvatar: info.AuthorAvatar,
			CommitDate:   info.Date,
			Summary:      summaries[i],
		}
	}

	inserted, err := s.commits.InsertCommits(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("persist commits: %w", err)
	}

	slog.Info("commit sync complete", "project_id", projectID, "fetched", len(upstream), "new", len(inserted))
	return inserted, nil
}

// filterProcessed returns the commits whose hashes are not stored yet,
// preserving the upstream order.
func (s *SyncService) filterProcessed(ctx context.Context, projectID string, upstream []domain.CommitInfo) ([]domain.CommitInfo, error) {
	hashes, err := s.commits.ListCommitHashes(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("list processed commits: %w", err)
	}

	seen := make(map[string]bool, len(hashes))
	for _, h := range hashes {
		seen[h] = true
	}

	var unseen []domain.CommitInfo
	for _, c := range upstream {
		if !seen[c.Hash] {
			unseen = append(unseen, c)
		}
	}
	return unseen, nil
}

// summarizeAll fetches and summarizes each commit's diff over a bounded
// worker pool. Every task settles independently; a failure leaves its slot
// as an empty summary.
func (s *SyncService) summarizeAll(ctx context.Context, provider port.RepoProvider, project *domain.Project, commits []domain.CommitInfo) []string {
	summaries := make([]string, len(commits))
	sem := make(chan struct{}, s.workers)
	var wg sync.WaitGroup

	for i, info := range commits {
		wg.Add(1)
		go func(i int, info domain.CommitInfo) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			diff, err := provider.FetchDiff(ctx, project.RepoURL, info.Hash, project.AccessToken)
			if err != nil {
				slog.Warn("diff fetch failed, persisting commit without summary",
					"project_id", project.ID, "commit", info.Hash, "error", err)
				return
			}

			summary, err := s.ai.Chat(ctx, diffSummarySystemPrompt, diffSummaryUserPrompt(diff))
			if err != nil {
				slog.Warn("diff summarization failed, persisting commit without summary",
					"project_id", project.ID, "commit", info.Hash, "error", err)
				return
			}
			summaries[i] = summary
		}(i, info)
	}

	wg.Wait()
	return summaries
}
