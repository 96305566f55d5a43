package service

import (
	"strings"
	"testing"

	"repomind/internal/domain"
)

func TestTruncateSource(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    int // rune length of result
	}{
		{"short content unchanged", "package main", 12},
		{"exactly at cap", strings.Repeat("x", maxSourceChars), maxSourceChars},
		{"over cap truncated", strings.Repeat("x", maxSourceChars+500), maxSourceChars},
		{"multibyte runes counted as characters", strings.Repeat("é", maxSourceChars+1), maxSourceChars},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncateSource(tt.content)
			if n := len([]rune(got)); n != tt.want {
				t.Errorf("got %d runes, want %d", n, tt.want)
			}
			if !strings.HasPrefix(tt.content, got) {
				t.Error("truncation must be a prefix of the original")
			}
		})
	}
}

func TestBuildContextBlock(t *testing.T) {
	refs := []domain.FileReference{
		{FileName: "a.go", SourceCode: "code A", Summary: "summary A"},
		{FileName: "b.go", SourceCode: "code B", Summary: "summary B"},
	}

	block := buildContextBlock(refs)

	want := "source: a.go\ncode content: code A\nsummary of file: summary A\n\n" +
		"source: b.go\ncode content: code B\nsummary of file: summary B\n\n"
	if block != want {
		t.Errorf("unexpected context block:\n%q\nwant:\n%q", block, want)
	}
}

func TestBuildContextBlockEmpty(t *testing.T) {
	if got := buildContextBlock(nil); got != "" {
		t.Errorf("expected empty block, got %q", got)
	}
}
