package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"repomind/internal/port"
)

// OllamaEndpointConfig holds the configuration for a single Ollama endpoint.
type OllamaEndpointConfig struct {
	BaseURL string // e.g. http://localhost:11434 or https://api.ollama.com
	Model   string // e.g. bge-m3, qwen3
	Token   string // Bearer token for Ollama Cloud (empty = no auth)
}

// OllamaProvider implements port.AIProvider using the Ollama REST API.
// Supports separate endpoints for embed vs chat (different URLs, models, and tokens).
type OllamaProvider struct {
	embed      OllamaEndpointConfig
	chat       OllamaEndpointConfig
	httpClient *http.Client
}

// NewOllamaProvider creates a new Ollama-backed AI provider with separate embed/chat configs.
func NewOllamaProvider(embed, chat OllamaEndpointConfig) *OllamaProvider {
	return &OllamaProvider{
		embed:      embed,
		chat:       chat,
		httpClient: &http.Client{},
	}
}

// ModelName returns the chat model identifier.
func (o *OllamaProvider) ModelName() string {
	return o.chat.Model
}

// Embed generates a vector embedding for the given text.
func (o *OllamaProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	payload := map[string]interface{}{
		"model": o.embed.Model,
		"input": text,
	}

	body, err := o.post(ctx, o.embed, "/api/embed", payload)
	if err != nil {
		return nil, fmt.Errorf("ollama embed: %w", err)
	}

	var resp struct {
		Embeddings [][]float32 `json:"embeddings"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("ollama embed decode: %w", err)
	}

	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0]) == 0 {
		return nil, fmt.Errorf("ollama embed: %w", port.ErrNoEmbedding)
	}

	return resp.Embeddings[0], nil
}

// Chat sends a system + user prompt pair and returns the complete response.
func (o *OllamaProvider) Chat(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	payload := map[string]interface{}{
		"model": o.chat.Model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": userPrompt},
		},
		"stream": false,
	}

	body, err := o.post(ctx, o.chat, "/api/chat", payload)
	if err != nil {
		return "", fmt.Errorf("ollama chat: %w", err)
	}

	var resp struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("ollama chat decode: %w", err)
	}

	if resp.Message.Content == "" {
		return "", fmt.Errorf("ollama chat: %w", port.ErrNoContent)
	}

	return resp.Message.Content, nil
}

// ChatStream sends a prompt and streams the response token-by-token.
// The returned channel closes when generation ends or ctx is cancelled;
// cancellation tears down the HTTP response body, releasing the connection.
func (o *OllamaProvider) ChatStream(ctx context.Context, systemPrompt, userPrompt string) (<-chan string, error) {
	payload := map[string]interface{}{
		"model": o.chat.Model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": userPrompt},
		},
		"stream": true,
	}

	payloadBytes, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.chat.BaseURL+"/api/chat", bytes.NewReader(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("ollama stream: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if o.chat.Token != "" {
		req.Header.Set("Authorization", "Bearer "+o.chat.Token)
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("ollama stream: API error (%d): %s", resp.StatusCode, string(body))
	}

	ch := make(chan string, 64)
	go func() {
		defer close(ch)
		defer resp.Body.Close()

		decoder := json.NewDecoder(resp.Body)
		for decoder.More() {
			var chunk struct {
				Message struct {
					Content string `json:"content"`
				} `json:"message"`
				Done bool `json:"done"`
			}
			if err := decoder.Decode(&chunk); err != nil {
				return
			}
			if chunk.Message.Content != "" {
				select {
				case ch <- chunk.Message.Content:
				case <-ctx.Done():
					return
				}
			}
			if chunk.Done {
				return
			}
		}
	}()

	return ch, nil
}

// post is a helper for POST requests to an Ollama endpoint (with optional bearer token).
func (o *OllamaProvider) post(ctx context.Context, cfg OllamaEndpointConfig, path string, payload interface{}) ([]byte, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.BaseURL+path, bytes.NewReader(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.Token)
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama API error (%d): %s", resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}
