package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"repomind/internal/domain"
)

func qaFixture(ai *fakeAI, knowledge *fakeKnowledgeStore) *QAService {
	return NewQAService(ai, knowledge, &fakeQuestionStore{})
}

func sampleRefs() []domain.FileReference {
	return []domain.FileReference{
		{FileName: "auth/login.go", SourceCode: "func Login() {}", Summary: "handles login", Similarity: 0.92},
		{FileName: "auth/token.go", SourceCode: "func Token() {}", Summary: "issues tokens", Similarity: 0.71},
	}
}

func TestAnswerQuestionNoContextReturnsInsufficiencyAnswer(t *testing.T) {
	ai := &fakeAI{}
	knowledge := &fakeKnowledgeStore{} // search returns nothing
	svc := qaFixture(ai, knowledge)

	answer, refs, err := svc.AnswerQuestion(context.Background(), "p1", "how does billing work?")
	if err != nil {
		t.Fatalf("AnswerQuestion: %v", err)
	}
	if answer != InsufficientContextAnswer {
		t.Errorf("expected the insufficiency answer, got %q", answer)
	}
	if len(refs) != 0 {
		t.Errorf("expected no references, got %d", len(refs))
	}
	if ai.chatCallCount() != 0 {
		t.Errorf("model should not be called without grounding context, got %d calls", ai.chatCallCount())
	}
}

func TestAnswerQuestionStreamNoContext(t *testing.T) {
	ai := &fakeAI{}
	svc := qaFixture(ai, &fakeKnowledgeStore{})

	stream, refs, err := svc.AnswerQuestionStream(context.Background(), "p1", "anything?")
	if err != nil {
		t.Fatalf("AnswerQuestionStream: %v", err)
	}
	if len(refs) != 0 {
		t.Errorf("expected no references, got %d", len(refs))
	}

	var parts []string
	for delta := range stream {
		parts = append(parts, delta)
	}
	if got := strings.Join(parts, ""); got != InsufficientContextAnswer {
		t.Errorf("expected the insufficiency answer, got %q", got)
	}
	if ai.chatCallCount() != 0 {
		t.Errorf("model should not be called without grounding context, got %d calls", ai.chatCallCount())
	}
}

func TestAnswerQuestionGrounded(t *testing.T) {
	ai := &fakeAI{
		chatFunc: func(userPrompt string) (string, error) { return "the login flow starts in auth/login.go", nil },
	}
	knowledge := &fakeKnowledgeStore{
		searchFunc: func(queryVector []float32, minSimilarity float64, limit int) ([]domain.FileReference, error) {
			if minSimilarity != 0.5 {
				t.Errorf("expected similarity floor 0.5, got %v", minSimilarity)
			}
			if limit != 10 {
				t.Errorf("expected result cap 10, got %d", limit)
			}
			return sampleRefs(), nil
		},
	}
	svc := qaFixture(ai, knowledge)

	answer, refs, err := svc.AnswerQuestion(context.Background(), "p1", "how does login work?")
	if err != nil {
		t.Fatalf("AnswerQuestion: %v", err)
	}
	if answer == "" || len(refs) != 2 {
		t.Fatalf("expected grounded answer with 2 references, got %q with %d", answer, len(refs))
	}

	prompt := ai.chatCalls[0]
	if !strings.Contains(prompt, "START CONTEXT BLOCK") || !strings.Contains(prompt, "END OF QUESTION") {
		t.Error("prompt missing context/question markers")
	}
	if !strings.Contains(prompt, "source: auth/login.go") || !strings.Contains(prompt, "summary of file: issues tokens") {
		t.Error("prompt missing retrieved rows")
	}
	first := strings.Index(prompt, "auth/login.go")
	second := strings.Index(prompt, "auth/token.go")
	if first < 0 || second < 0 || first > second {
		t.Error("context rows should keep similarity-descending order")
	}
	if !strings.Contains(prompt, "how does login work?") {
		t.Error("prompt missing the question")
	}
}

func TestAnswerQuestionStreamDeltas(t *testing.T) {
	ai := &fakeAI{
		streamFunc: func(userPrompt string) (<-chan string, error) {
			ch := make(chan string, 3)
			ch <- "The "
			ch <- "login "
			ch <- "flow."
			close(ch)
			return ch, nil
		},
	}
	knowledge := &fakeKnowledgeStore{
		searchFunc: func([]float32, float64, int) ([]domain.FileReference, error) { return sampleRefs(), nil },
	}
	svc := qaFixture(ai, knowledge)

	stream, refs, err := svc.AnswerQuestionStream(context.Background(), "p1", "how does login work?")
	if err != nil {
		t.Fatalf("AnswerQuestionStream: %v", err)
	}
	if len(refs) != 2 {
		t.Fatalf("expected 2 references, got %d", len(refs))
	}

	var sb strings.Builder
	for delta := range stream {
		sb.WriteString(delta)
	}
	if sb.String() != "The login flow." {
		t.Errorf("unexpected streamed answer: %q", sb.String())
	}
}

func TestAnswerQuestionEmbedFailureIsFatal(t *testing.T) {
	ai := &fakeAI{
		embedFunc: func(text string) ([]float32, error) { return nil, errors.New("embedding backend down") },
	}
	svc := qaFixture(ai, &fakeKnowledgeStore{})

	if _, _, err := svc.AnswerQuestion(context.Background(), "p1", "anything?"); err == nil {
		t.Fatal("expected error when the question cannot be embedded")
	}
	if ai.chatCallCount() != 0 {
		t.Error("model should not be called when retrieval fails")
	}
}

func TestSaveAndListQuestions(t *testing.T) {
	svc := qaFixture(&fakeAI{}, &fakeKnowledgeStore{})

	saved, err := svc.SaveAnswer(context.Background(), &domain.Question{
		ProjectID: "p1",
		Question:  "how does login work?",
		Answer:    "via auth/login.go",
		References: []domain.FileReference{
			{FileName: "auth/login.go", Similarity: 0.9},
		},
	})
	if err != nil {
		t.Fatalf("SaveAnswer: %v", err)
	}
	if saved.Question == "" {
		t.Fatal("saved question lost its content")
	}

	questions, err := svc.ListSavedQuestions(context.Background(), "p1")
	if err != nil {
		t.Fatalf("ListSavedQuestions: %v", err)
	}
	if len(questions) != 1 || questions[0].Answer != "via auth/login.go" {
		t.Errorf("unexpected saved questions: %+v", questions)
	}
}
