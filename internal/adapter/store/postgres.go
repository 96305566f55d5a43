package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"repomind/internal/domain"
	"repomind/internal/port"
)

// PostgresStore handles all relational database operations.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection and returns a store instance.
func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use in transactions.
func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

// --- Projects ---

// CreateProject inserts a new project record.
func (s *PostgresStore) CreateProject(ctx context.Context, p *domain.Project) (*domain.Project, error) {
	query := `INSERT INTO projects (name, repo_url, provider, access_token)
	          VALUES ($1, $2, $3, $4)
	          RETURNING id, name, repo_url, provider, access_token, deleted_at, created_at, updated_at`

	var result domain.Project
	err := s.db.QueryRowContext(ctx, query, p.Name, p.RepoURL, p.Provider, p.AccessToken).Scan(
		&result.ID, &result.Name, &result.RepoURL, &result.Provider,
		&result.AccessToken, &result.DeletedAt, &result.CreatedAt, &result.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return &result, nil
}

// GetProjectByID returns a project by its ID. Soft-deleted projects are not found.
func (s *PostgresStore) GetProjectByID(ctx context.Context, id string) (*domain.Project, error) {
	query := `SELECT id, name, repo_url, provider, access_token, deleted_at, created_at, updated_at
	          FROM projects WHERE id = $1 AND deleted_at IS NULL`

	var p domain.Project
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.Name, &p.RepoURL, &p.Provider,
		&p.AccessToken, &p.DeletedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	return &p, nil
}

// ListProjects returns all projects that are not soft-deleted, newest first.
func (s *PostgresStore) ListProjects(ctx context.Context) ([]domain.Project, error) {
	query := `SELECT id, name, repo_url, provider, access_token, deleted_at, created_at, updated_at
	          FROM projects WHERE deleted_at IS NULL ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []domain.Project
	for rows.Next() {
		var p domain.Project
		if err := rows.Scan(
			&p.ID, &p.Name, &p.RepoURL, &p.Provider,
			&p.AccessToken, &p.DeletedAt, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// SoftDeleteProject marks a project as deleted without removing its rows.
func (s *PostgresStore) SoftDeleteProject(ctx context.Context, id string) error {
	query := `UPDATE projects SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`
	res, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("soft delete project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return port.ErrProjectNotFound
	}
	return nil
}

// --- Commits ---

// ListCommitHashes returns every processed commit hash for a project.
func (s *PostgresStore) ListCommitHashes(ctx context.Context, projectID string) ([]string, error) {
	query := `SELECT commit_hash FROM commits WHERE project_id = $1`

	rows, err := s.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("list commit hashes: %w", err)
	}
	defer rows.Close()

	var hashes []string
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, fmt.Errorf("scan commit hash: %w", err)
		}
		hashes = append(hashes, h)
	}
	return hashes, rows.Err()
}

// ListCommits returns stored commits for a project, newest first.
func (s *PostgresStore) ListCommits(ctx context.Context, projectID string) ([]domain.Commit, error) {
	query := `SELECT id, project_id, commit_hash, message, author_name, author_avatar, commit_date, summary, created_at
	          FROM commits WHERE project_id = $1 ORDER BY commit_date DESC, commit_hash ASC`

	rows, err := s.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("list commits: %w", err)
	}
	defer rows.Close()

	var commits []domain.Commit
	for rows.Next() {
		var c domain.Commit
		if err := rows.Scan(
			&c.ID, &c.ProjectID, &c.CommitHash, &c.Message, &c.AuthorName,
			&c.AuthorAvatar, &c.CommitDate, &c.Summary, &c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan commit: %w", err)
		}
		commits = append(commits, c)
	}
	return commits, rows.Err()
}

// InsertCommits inserts the batch in one transaction. Rows whose
// (project_id, commit_hash) already exist are skipped via ON CONFLICT, which
// makes concurrent syncs of the same project safe. Only rows actually
// inserted are returned.
func (s *PostgresStore) InsertCommits(ctx context.Context, commits []domain.Commit) ([]domain.Commit, error) {
	if len(commits) == 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO commits (project_id, commit_hash, message, author_name, author_avatar, commit_date, summary)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (project_id, commit_hash) DO NOTHING
		 RETURNING id, project_id, commit_hash, message, author_name, author_avatar, commit_date, summary, created_at`)
	if err != nil {
		return nil, fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	var inserted []domain.Commit
	for _, c := range commits {
		var row domain.Commit
		err := stmt.QueryRowContext(ctx,
			c.ProjectID, c.CommitHash, c.Message, c.AuthorName, c.AuthorAvatar, c.CommitDate, c.Summary,
		).Scan(
			&row.ID, &row.ProjectID, &row.CommitHash, &row.Message, &row.AuthorName,
			&row.AuthorAvatar, &row.CommitDate, &row.Summary, &row.CreatedAt,
		)
		if errors.Is(err, sql.ErrNoRows) {
			continue // already processed by a concurrent sync
		}
		if err != nil {
			return nil, fmt.Errorf("insert commit %s: %w", c.CommitHash, err)
		}
		inserted = append(inserted, row)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return inserted, nil
}

// --- Questions ---

// SaveQuestion persists an answered question with its file references.
func (s *PostgresStore) SaveQuestion(ctx context.Context, q *domain.Question) (*domain.Question, error) {
	refs, err := json.Marshal(q.References)
	if err != nil {
		return nil, fmt.Errorf("marshal references: %w", err)
	}

	query := `INSERT INTO questions (project_id, account_id, question, answer, file_references)
	          VALUES ($1, $2, $3, $4, $5::jsonb)
	          RETURNING id, created_at`

	result := *q
	err = s.db.QueryRowContext(ctx, query,
		q.ProjectID, q.AccountID, q.Question, q.Answer, string(refs),
	).Scan(&result.ID, &result.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("save question: %w", err)
	}
	return &result, nil
}

// ListQuestions returns saved questions for a project, newest first.
func (s *PostgresStore) ListQuestions(ctx context.Context, projectID string) ([]domain.Question, error) {
	query := `SELECT id, project_id, account_id, question, answer, file_references, created_at
	          FROM questions WHERE project_id = $1 ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var q domain.Question
		var refs []byte
		if err := rows.Scan(
			&q.ID, &q.ProjectID, &q.AccountID, &q.Question, &q.Answer, &refs, &q.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		if err := json.Unmarshal(refs, &q.References); err != nil {
			return nil, fmt.Errorf("decode references: %w", err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// --- Audit Logs ---

// WriteAudit implements middleware.AuditWriter.
func (s *PostgresStore) WriteAudit(accountID, action, resource, resourceID, details, ip, userAgent string) error {
	query := `INSERT INTO audit_logs (account_id, action, resource, resource_id, details, ip, user_agent)
	          VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7)`
	_, err := s.db.ExecContext(context.Background(), query,
		accountID, action, resource, resourceID, details, ip, userAgent,
	)
	return err
}
