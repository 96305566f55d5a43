package port

import "errors"

// Sentinel errors used across ports.
var (
	ErrProjectNotFound  = errors.New("project not found")
	ErrMissingRepoURL   = errors.New("project has no repository URL")
	ErrInvalidRepoURL   = errors.New("invalid repository URL")
	ErrUnknownProvider  = errors.New("unknown repository provider")
	ErrNoContent        = errors.New("model returned no content")
	ErrNoEmbedding      = errors.New("no embedding produced")
)
