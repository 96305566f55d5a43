package store

import (
	"context"
	"fmt"
)

// schemaDDL bootstraps the tables this service owns. The uniqueness
// constraints on (project_id, commit_hash) and (project_id, file_name) are
// load-bearing: they make concurrent syncs and re-indexing race-safe.
func schemaDDL(dimension int) []string {
	return []string{
		`CREATE EXTENSION IF NOT EXISTS "pgcrypto"`,
		`CREATE EXTENSION IF NOT EXISTS vector`,

		`CREATE TABLE IF NOT EXISTS projects (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name TEXT NOT NULL,
			repo_url TEXT NOT NULL,
			provider TEXT NOT NULL,
			access_token TEXT NOT NULL DEFAULT '',
			deleted_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS commits (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			project_id UUID NOT NULL REFERENCES projects(id),
			commit_hash TEXT NOT NULL,
			message TEXT NOT NULL DEFAULT '',
			author_name TEXT NOT NULL DEFAULT '',
			author_avatar TEXT NOT NULL DEFAULT '',
			commit_date TIMESTAMPTZ NOT NULL,
			summary TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (project_id, commit_hash)
		)`,

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS source_code_embeddings (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			project_id UUID NOT NULL REFERENCES projects(id),
			file_name TEXT NOT NULL,
			source_code TEXT NOT NULL DEFAULT '',
			summary TEXT NOT NULL DEFAULT '',
			summary_embedding vector(%d) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (project_id, file_name)
		)`, dimension),

		`CREATE TABLE IF NOT EXISTS questions (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			project_id UUID NOT NULL REFERENCES projects(id),
			account_id TEXT NOT NULL DEFAULT '',
			question TEXT NOT NULL,
			answer TEXT NOT NULL DEFAULT '',
			file_references JSONB NOT NULL DEFAULT '[]',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS audit_logs (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			account_id TEXT NOT NULL DEFAULT '',
			action TEXT NOT NULL,
			resource TEXT NOT NULL DEFAULT '',
			resource_id TEXT NOT NULL DEFAULT '',
			details JSONB NOT NULL DEFAULT '{}',
			ip TEXT NOT NULL DEFAULT '',
			user_agent TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_commits_project ON commits (project_id, commit_date DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_embeddings_project ON source_code_embeddings (project_id)`,
		`CREATE INDEX IF NOT EXISTS idx_questions_project ON questions (project_id, created_at DESC)`,
	}
}

// Migrate creates the schema if it does not exist yet.
func (s *PostgresStore) Migrate(ctx context.Context, embeddingDimension int) error {
	for _, stmt := range schemaDDL(embeddingDimension) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
