package port

import (
	"context"

	"repomind/internal/domain"
)

// ProjectStore persists projects.
type ProjectStore interface {
	CreateProject(ctx context.Context, p *domain.Project) (*domain.Project, error)
	GetProjectByID(ctx context.Context, id string) (*domain.Project, error)
	ListProjects(ctx context.Context) ([]domain.Project, error)
	SoftDeleteProject(ctx context.Context, id string) error
}

// CommitStore persists processed commits. The storage layer enforces
// uniqueness on (project_id, commit_hash); InsertCommits deduplicates
// concurrent inserts of the same hash instead of failing.
type CommitStore interface {
	ListCommitHashes(ctx context.Context, projectID string) ([]string, error)
	ListCommits(ctx context.Context, projectID string) ([]domain.Commit, error)

	// InsertCommits inserts the batch in one transaction and returns the rows
	// actually inserted. Rows whose (project_id, commit_hash) already exist
	// are silently skipped.
	InsertCommits(ctx context.Context, commits []domain.Commit) ([]domain.Commit, error)
}

// KnowledgeStore persists and searches vectorized knowledge-base rows.
type KnowledgeStore interface {
	// UpsertEmbedding replaces any prior row for the same (project, file name).
	UpsertEmbedding(ctx context.Context, e *domain.SourceCodeEmbedding) error

	// SearchSimilar returns rows with cosine similarity strictly above
	// minSimilarity, ordered by similarity descending (file name ascending on
	// ties), capped at limit.
	SearchSimilar(ctx context.Context, projectID string, queryVector []float32, minSimilarity float64, limit int) ([]domain.FileReference, error)
}

// QuestionStore persists saved answers.
type QuestionStore interface {
	SaveQuestion(ctx context.Context, q *domain.Question) (*domain.Question, error)
	ListQuestions(ctx context.Context, projectID string) ([]domain.Question, error)
}
