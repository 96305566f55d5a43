package port

import (
	"context"

	"repomind/internal/domain"
)

// FileLoader yields the source files of a repository snapshot for indexing.
// Implementations are expected to exclude binary and vendored paths.
type FileLoader interface {
	LoadFiles(ctx context.Context, repoURL, token string) ([]domain.SourceFile, error)
}
