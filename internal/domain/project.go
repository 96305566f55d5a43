package domain

import "time"

// ProviderKind identifies the repository host a project is linked to.
type ProviderKind string

// Supported repository providers.
const (
	ProviderGitHub ProviderKind = "github"
	ProviderGitLab ProviderKind = "gitlab"
)

// Valid reports whether the provider kind is one we support.
func (k ProviderKind) Valid() bool {
	return k == ProviderGitHub || k == ProviderGitLab
}

// Project links a repository to its knowledge base.
// Immutable after creation except for soft deletion.
type Project struct {
	ID          string       `json:"id"           db:"id"`
	Name        string       `json:"name"         db:"name"`
	RepoURL     string       `json:"repo_url"     db:"repo_url"`
	Provider    ProviderKind `json:"provider"     db:"provider"`
	AccessToken string       `json:"-"            db:"access_token"` // never serialized to JSON
	DeletedAt   *time.Time   `json:"deleted_at,omitempty" db:"deleted_at"`
	CreatedAt   time.Time    `json:"created_at"   db:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"   db:"updated_at"`
}
