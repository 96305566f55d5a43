package service

import (
	"context"
	"fmt"
	"log/slog"

	"repomind/internal/domain"
	"repomind/internal/port"
)

// Relevance contract: rows must score strictly above minSimilarity, and at
// most maxReferences rows ground an answer. No other ranking signal is used.
const (
	minSimilarity = 0.5
	maxReferences = 10
)

// QAService answers natural-language questions about a project's codebase,
// grounded in the retrieved knowledge-base rows.
type QAService struct {
	ai        port.AIProvider
	knowledge port.KnowledgeStore
	questions port.QuestionStore
}

// NewQAService creates a new question-answering service.
func NewQAService(ai port.AIProvider, knowledge port.KnowledgeStore, questions port.QuestionStore) *QAService {
	return &QAService{ai: ai, knowledge: knowledge, questions: questions}
}

// AnswerQuestionStream embeds the question, retrieves grounding rows, and
// streams the generated answer. The references are resolved before generation
// starts and are returned immediately alongside the stream. The stream stops
// when ctx is cancelled, releasing the upstream provider connection.
//
// When no row clears the similarity threshold the model is not called at all:
// the stream yields the designed insufficiency answer and closes.
func (s *QAService) AnswerQuestionStream(ctx context.Context, projectID, question string) (<-chan string, []domain.FileReference, error) {
	refs, err := s.retrieve(ctx, projectID, question)
	if err != nil {
		return nil, nil, err
	}

	if len(refs) == 0 {
		ch := make(chan string, 1)
		ch <- InsufficientContextAnswer
		close(ch)
		return ch, nil, nil
	}

	stream, err := s.ai.ChatStream(ctx, qaSystemPrompt, qaUserPrompt(buildContextBlock(refs), question))
	if err != nil {
		return nil, nil, fmt.Errorf("generate answer: %w", err)
	}
	return stream, refs, nil
}

// AnswerQuestion is the non-streamed variant, used by the MCP surface and the
// synchronous endpoint.
func (s *QAService) AnswerQuestion(ctx context.Context, projectID, question string) (string, []domain.FileReference, error) {
	refs, err := s.retrieve(ctx, projectID, question)
	if err != nil {
		return "", nil, err
	}

	if len(refs) == 0 {
		return InsufficientContextAnswer, nil, nil
	}

	answer, err := s.ai.Chat(ctx, qaSystemPrompt, qaUserPrompt(buildContextBlock(refs), question))
	if err != nil {
		return "", nil, fmt.Errorf("generate answer: %w", err)
	}
	return answer, refs, nil
}

// retrieve embeds the question and runs the nearest-neighbor search. A failed
// question embedding is fatal: without a query vector there is no retrieval.
func (s *QAService) retrieve(ctx context.Context, projectID, question string) ([]domain.FileReference, error) {
	slog.Info("answering question", "project_id", projectID, "model", s.ai.ModelName())

	queryVector, err := s.ai.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}

	refs, err := s.knowledge.SearchSimilar(ctx, projectID, queryVector, minSimilarity, maxReferences)
	if err != nil {
		return nil, fmt.Errorf("search knowledge base: %w", err)
	}
	return refs, nil
}

// SaveAnswer persists an answered question with the references captured at
// answer time. This is a separate, caller-initiated action.
func (s *QAService) SaveAnswer(ctx context.Context, q *domain.Question) (*domain.Question, error) {
	return s.questions.SaveQuestion(ctx, q)
}

// ListSavedQuestions returns previously saved answers for a project.
func (s *QAService) ListSavedQuestions(ctx context.Context, projectID string) ([]domain.Question, error) {
	return s.questions.ListQuestions(ctx, projectID)
}
