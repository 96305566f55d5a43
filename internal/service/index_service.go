package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"repomind/internal/domain"
	"repomind/internal/port"
)

// defaultIndexWorkers bounds the per-file summarize/embed fan-out.
const defaultIndexWorkers = 4

// IndexService builds the knowledge base for a project: it summarizes each
// source file, embeds the summary, and persists the vectorized rows.
type IndexService struct {
	loader    port.FileLoader
	ai        port.AIProvider
	knowledge port.KnowledgeStore
	workers   int
}

// NewIndexService creates a new indexer. workers caps concurrent per-file
// work; values < 1 fall back to the default.
func NewIndexService(loader port.FileLoader, ai port.AIProvider, knowledge port.KnowledgeStore, workers int) *IndexService {
	if workers < 1 {
		workers = defaultIndexWorkers
	}
	return &IndexService{
		loader:    loader,
		ai:        ai,
		knowledge: knowledge,
		workers:   workers,
	}
}

// IndexRepository indexes every file the loader yields and returns the number
// of files actually indexed. A per-file failure (summarization, embedding, or
// persistence) skips that file and never aborts the rest; a row without an
// embedding is never persisted because it could not be retrieved.
// Re-indexing replaces rows for unchanged file names rather than duplicating.
func (s *IndexService) IndexRepository(ctx context.Context, projectID, repoURL, token string) (int, error) {
	files, err := s.loader.LoadFiles(ctx, repoURL, token)
	if err != nil {
		return 0, fmt.Errorf("load repository files: %w", err)
	}

	slog.Info("indexing repository", "project_id", projectID, "files", len(files))

	var indexed, failed atomic.Int64
	sem := make(chan struct{}, s.workers)
	var wg sync.WaitGroup

	for _, file := range files {
		wg.Add(1)
		go func(file domain.SourceFile) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := s.indexFile(ctx, projectID, file); err != nil {
				failed.Add(1)
				slog.Warn("file skipped", "project_id", projectID, "file", file.Path, "error", err)
				return
			}
			indexed.Add(1)
		}(file)
	}
	wg.Wait()

	slog.Info("indexing complete", "project_id", projectID, "indexed", indexed.Load(), "skipped", failed.Load())
	return int(indexed.Load()), nil
}

func (s *IndexService) indexFile(ctx context.Context, projectID string, file domain.SourceFile) error {
	code := truncateSource(file.Content)

	summary, err := s.ai.Chat(ctx, fileSummarySystemPrompt, fileSummaryUserPrompt(file.Path, code))
	if err != nil {
		return fmt.Errorf("summarize: %w", err)
	}

	vector, err := s.ai.Embed(ctx, summary)
	if err != nil {
		return fmt.Errorf("embed summary: %w", err)
	}

	row := &domain.SourceCodeEmbedding{
		ProjectID:  projectID,
		FileName:   file.Path,
		SourceCode: file.Content,
		Summary:    summary,
		Vector:     vector,
	}
	if err := s.knowledge.UpsertEmbedding(ctx, row); err != nil {
		return fmt.Errorf("persist: %w", err)
	}
	return nil
}
