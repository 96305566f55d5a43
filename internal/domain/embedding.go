package domain

import "time"

// SourceCodeEmbedding is a knowledge-base row: one indexed source file with
// its summary and the vector computed from that summary.
type SourceCodeEmbedding struct {
	ID         string    `json:"id"          db:"id"`
	ProjectID  string    `json:"project_id"  db:"project_id"`
	FileName   string    `json:"file_name"   db:"file_name"`
	SourceCode string    `json:"source_code" db:"source_code"`
	Summary    string    `json:"summary"     db:"summary"`
	Vector     []float32 `json:"-"           db:"vector"`
	CreatedAt  time.Time `json:"created_at"  db:"created_at"`
}

// FileReference is a retrieved knowledge-base row with its similarity score.
// Scores lie in [0, 1]; rows at or below 0.5 are never returned.
type FileReference struct {
	FileName   string  `json:"file_name"`
	SourceCode string  `json:"source_code"`
	Summary    string  `json:"summary"`
	Similarity float64 `json:"similarity"`
}

// SourceFile is a single file yielded by the repository file loader.
type SourceFile struct {
	Path    string
	Content string
}
