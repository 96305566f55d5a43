package ai

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"repomind/internal/port"
)

// OpenAIConfig holds configuration for the OpenAI-backed provider.
type OpenAIConfig struct {
	APIKey         string
	BaseURL        string // empty = api.openai.com; set for Azure/compatible gateways
	ChatModel      string // e.g. gpt-4o
	EmbeddingModel string // e.g. text-embedding-3-small
}

// OpenAIProvider implements port.AIProvider using the OpenAI API.
type OpenAIProvider struct {
	client         *openai.Client
	chatModel      string
	embeddingModel openai.EmbeddingModel
}

// NewOpenAIProvider creates an OpenAI-backed AI provider.
func NewOpenAIProvider(cfg OpenAIConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai: API key is required")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	chatModel := cfg.ChatModel
	if chatModel == "" {
		chatModel = openai.GPT4o
	}
	embeddingModel := openai.EmbeddingModel(cfg.EmbeddingModel)
	if embeddingModel == "" {
		embeddingModel = openai.SmallEmbedding3
	}

	return &OpenAIProvider{
		client:         openai.NewClientWithConfig(clientCfg),
		chatModel:      chatModel,
		embeddingModel: embeddingModel,
	}, nil
}

// ModelName returns the chat model identifier.
func (p *OpenAIProvider) ModelName() string {
	return p.chatModel
}

// Embed generates a vector embedding for the given text.
func (p *OpenAIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: []string{text},
		Model: p.embeddingModel,
	})
	if err != nil {
		return nil, fmt.Errorf("openai embed: %w", err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("openai embed: %w", port.ErrNoEmbedding)
	}
	return resp.Data[0].Embedding, nil
}

// Chat sends a system + user prompt pair and returns the complete response.
func (p *OpenAIProvider) Chat(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai chat: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("openai chat: %w", port.ErrNoContent)
	}
	return resp.Choices[0].Message.Content, nil
}

// ChatStream sends a prompt and streams response deltas via channel.
// The channel closes when the stream finishes or ctx is cancelled.
func (p *OpenAIProvider) ChatStream(ctx context.Context, systemPrompt, userPrompt string) (<-chan string, error) {
	stream, err := p.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model: p.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		Stream: true,
	})
	if err != nil {
		return nil, fmt.Errorf("openai stream: %w", err)
	}

	ch := make(chan string, 64)
	go func() {
		defer close(ch)
		defer stream.Close()

		for {
			resp, err := stream.Recv()
			if err != nil {
				// io.EOF marks normal stream end
				return
			}
			if len(resp.Choices) == 0 {
				continue
			}
			delta := resp.Choices[0].Delta.Content
			if delta == "" {
				continue
			}
			select {
			case ch <- delta:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch, nil
}
