package port

import "context"

// AIProvider abstracts the AI/LLM backend for embeddings and chat completions.
// Implementations can target Ollama, OpenAI, or any compatible API.
type AIProvider interface {
	// ModelName returns the identifier of the chat model being used.
	ModelName() string

	// Embed generates a vector embedding for the given text.
	// Implementations return an error rather than a partial vector; callers
	// decide whether the failure is fatal (query path) or skippable (indexing).
	Embed(ctx context.Context, text string) ([]float32, error)

	// Chat sends a system + user prompt pair and returns the complete response.
	// An empty completion yields ErrNoContent.
	Chat(ctx context.Context, systemPrompt, userPrompt string) (string, error)

	// ChatStream sends a prompt and streams the response incrementally via
	// channel. The channel is closed when generation finishes or ctx is
	// cancelled; cancellation releases the upstream provider connection.
	ChatStream(ctx context.Context, systemPrompt, userPrompt string) (<-chan string, error)
}
