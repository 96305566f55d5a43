package store

import (
	"context"
	"fmt"
	"strings"

	"repomind/internal/domain"
)

// VectorStore handles pgvector-specific operations for knowledge-base rows.
type VectorStore struct {
	store     *PostgresStore
	dimension int
}

// NewVectorStore creates a vector store backed by the given Postgres store.
// All vectors in a deployment share the configured dimension.
func NewVectorStore(store *PostgresStore, dimension int) *VectorStore {
	return &VectorStore{store: store, dimension: dimension}
}

// UpsertEmbedding persists a knowledge-base row, replacing any prior row for
// the same (project, file name) so re-indexing never duplicates.
func (v *VectorStore) UpsertEmbedding(ctx context.Context, e *domain.SourceCodeEmbedding) error {
	if len(e.Vector) != v.dimension {
		return fmt.Errorf("store embedding %s: vector dimension %d, want %d", e.FileName, len(e.Vector), v.dimension)
	}

	query := `INSERT INTO source_code_embeddings (project_id, file_name, source_code, summary, summary_embedding)
	          VALUES ($1, $2, $3, $4, $5::vector)
	          ON CONFLICT (project_id, file_name) DO UPDATE SET
	              source_code = EXCLUDED.source_code,
	              summary = EXCLUDED.summary,
	              summary_embedding = EXCLUDED.summary_embedding`

	_, err := v.store.db.ExecContext(ctx, query,
		e.ProjectID, e.FileName, e.SourceCode, e.Summary, vectorToString(e.Vector),
	)
	if err != nil {
		return fmt.Errorf("store embedding %s: %w", e.FileName, err)
	}
	return nil
}

// SearchSimilar performs a cosine similarity search over a project's rows.
// Only rows with similarity strictly above minSimilarity are returned, ordered
// by similarity descending with file name ascending as the tie-break.
func (v *VectorStore) SearchSimilar(ctx context.Context, projectID string, queryVector []float32, minSimilarity float64, limit int) ([]domain.FileReference, error) {
	vectorStr := vectorToString(queryVector)
	query := `SELECT file_name, source_code, summary,
	                 1 - (summary_embedding <=> $1::vector) AS similarity
	          FROM source_code_embeddings
	          WHERE project_id = $2
	            AND 1 - (summary_embedding <=> $1::vector) > $3
	          ORDER BY similarity DESC, file_name ASC
	          LIMIT $4`

	rows, err := v.store.db.QueryContext(ctx, query, vectorStr, projectID, minSimilarity, limit)
	if err != nil {
		return nil, fmt.Errorf("search similar: %w", err)
	}
	defer rows.Close()

	var refs []domain.FileReference
	for rows.Next() {
		var r domain.FileReference
		if err := rows.Scan(&r.FileName, &r.SourceCode, &r.Summary, &r.Similarity); err != nil {
			return nil, fmt.Errorf("scan similar: %w", err)
		}
		refs = append(refs, r)
	}
	return refs, rows.Err()
}

// DeleteEmbeddingsByProject removes all knowledge-base rows for a project.
func (v *VectorStore) DeleteEmbeddingsByProject(ctx context.Context, projectID string) error {
	query := `DELETE FROM source_code_embeddings WHERE project_id = $1`
	_, err := v.store.db.ExecContext(ctx, query, projectID)
	return err
}

// vectorToString converts a float32 slice to pgvector string format: [0.1,0.2,0.3].
func vectorToString(v []float32) string {
	parts := make([]string, len(v))
	for i, val := range v {
		parts[i] = fmt.Sprintf("%g", val)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
