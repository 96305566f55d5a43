package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"repomind/internal/domain"
)

func TestIndexRepositoryIndexesAllFiles(t *testing.T) {
	ldr := &fakeLoader{files: []domain.SourceFile{
		{Path: "main.go", Content: "package main"},
		{Path: "util/strings.go", Content: "package util"},
	}}
	ai := &fakeAI{}
	knowledge := &fakeKnowledgeStore{}
	svc := NewIndexService(ldr, ai, knowledge, 2)

	indexed, err := svc.IndexRepository(context.Background(), "p1", "https://github.com/acme/demo", "")
	if err != nil {
		t.Fatalf("IndexRepository: %v", err)
	}
	if indexed != 2 {
		t.Fatalf("expected 2 indexed files, got %d", indexed)
	}
	if knowledge.upsertCount() != 2 {
		t.Fatalf("expected 2 upserts, got %d", knowledge.upsertCount())
	}
	for _, row := range knowledge.upserts {
		if row.ProjectID != "p1" {
			t.Errorf("row %s has wrong project: %s", row.FileName, row.ProjectID)
		}
		if row.Summary != "summary" || len(row.Vector) == 0 {
			t.Errorf("row %s missing summary or vector", row.FileName)
		}
	}
}

func TestIndexRepositoryTruncatesSourceForSummarizer(t *testing.T) {
	content := strings.Repeat("a", maxSourceChars) + "OVERFLOW"
	ldr := &fakeLoader{files: []domain.SourceFile{{Path: "big.go", Content: content}}}
	ai := &fakeAI{}
	knowledge := &fakeKnowledgeStore{}
	svc := NewIndexService(ldr, ai, knowledge, 1)

	if _, err := svc.IndexRepository(context.Background(), "p1", "url", ""); err != nil {
		t.Fatalf("IndexRepository: %v", err)
	}

	if len(ai.chatCalls) != 1 {
		t.Fatalf("expected 1 summarization, got %d", len(ai.chatCalls))
	}
	if strings.Contains(ai.chatCalls[0], "OVERFLOW") {
		t.Error("summarizer prompt should only see truncated content")
	}
	if knowledge.upserts[0].SourceCode != content {
		t.Error("stored row should keep the full source code")
	}
}

func TestIndexRepositoryEmbedFailureSkipsFile(t *testing.T) {
	ldr := &fakeLoader{files: []domain.SourceFile{
		{Path: "ok.go", Content: "package ok"},
		{Path: "bad.go", Content: "package bad"},
	}}
	ai := &fakeAI{
		chatFunc: func(userPrompt string) (string, error) {
			if strings.Contains(userPrompt, "bad.go") {
				return "bad summary", nil
			}
			return "ok summary", nil
		},
		embedFunc: func(text string) ([]float32, error) {
			if text == "bad summary" {
				return nil, errors.New("embedding backend down")
			}
			return []float32{0.5}, nil
		},
	}
	knowledge := &fakeKnowledgeStore{}
	svc := NewIndexService(ldr, ai, knowledge, 1)

	indexed, err := svc.IndexRepository(context.Background(), "p1", "url", "")
	if err != nil {
		t.Fatalf("IndexRepository: %v", err)
	}
	if indexed != 1 {
		t.Fatalf("expected 1 indexed file, got %d", indexed)
	}
	if knowledge.upsertCount() != 1 {
		t.Fatalf("expected 1 upsert, got %d", knowledge.upsertCount())
	}
	if knowledge.upserts[0].FileName != "ok.go" {
		t.Errorf("wrong file persisted: %s", knowledge.upserts[0].FileName)
	}
}

func TestIndexRepositorySummarizeFailureSkipsFile(t *testing.T) {
	ldr := &fakeLoader{files: []domain.SourceFile{
		{Path: "a.go", Content: "package a"},
		{Path: "b.go", Content: "package b"},
	}}
	ai := &fakeAI{
		chatFunc: func(userPrompt string) (string, error) {
			if strings.Contains(userPrompt, "a.go") {
				return "", errors.New("model overloaded")
			}
			return "summary", nil
		},
	}
	knowledge := &fakeKnowledgeStore{}
	svc := NewIndexService(ldr, ai, knowledge, 1)

	indexed, err := svc.IndexRepository(context.Background(), "p1", "url", "")
	if err != nil {
		t.Fatalf("IndexRepository: %v", err)
	}
	if indexed != 1 {
		t.Fatalf("expected 1 indexed file, got %d", indexed)
	}
}

func TestIndexRepositoryLoadFailure(t *testing.T) {
	ldr := &fakeLoader{err: errors.New("clone failed")}
	svc := NewIndexService(ldr, &fakeAI{}, &fakeKnowledgeStore{}, 1)

	if _, err := svc.IndexRepository(context.Background(), "p1", "url", ""); err == nil {
		t.Fatal("expected error when the loader fails")
	}
}
