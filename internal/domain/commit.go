package domain

import "time"

// Commit is a processed upstream commit with its AI-generated summary.
// Created once per (project, hash); never updated or deleted.
type Commit struct {
	ID           string    `json:"id"             db:"id"`
	ProjectID    string    `json:"project_id"     db:"project_id"`
	CommitHash   string    `json:"commit_hash"    db:"commit_hash"`
	Message      string    `json:"message"        db:"message"`
	AuthorName   string    `json:"author_name"    db:"author_name"`
	AuthorAvatar string    `json:"author_avatar"  db:"author_avatar"`
	CommitDate   time.Time `json:"commit_date"    db:"commit_date"`
	Summary      string    `json:"summary"        db:"summary"` // empty when summarization failed
	CreatedAt    time.Time `json:"created_at"     db:"created_at"`
}

// CommitInfo is the normalized commit shape returned by repository providers.
// Missing author fields degrade to empty strings, never nulls.
type CommitInfo struct {
	Hash         string    `json:"hash"`
	Message      string    `json:"message"`
	AuthorName   string    `json:"author_name"`
	AuthorAvatar string    `json:"author_avatar"`
	Date         time.Time `json:"date"`
}
