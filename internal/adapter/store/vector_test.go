package store

import (
	"context"
	"strings"
	"testing"

	"repomind/internal/domain"
)

func TestVectorToString(t *testing.T) {
	tests := []struct {
		name string
		in   []float32
		want string
	}{
		{"empty", nil, "[]"},
		{"single", []float32{0.5}, "[0.5]"},
		{"multiple", []float32{0.1, 0.2, 0.3}, "[0.1,0.2,0.3]"},
		{"negative and zero", []float32{-1.5, 0, 2}, "[-1.5,0,2]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := vectorToString(tt.in); got != tt.want {
				t.Errorf("vectorToString(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestUpsertEmbeddingDimensionMismatch(t *testing.T) {
	v := NewVectorStore(&PostgresStore{}, 1024)

	err := v.UpsertEmbedding(context.Background(), &domain.SourceCodeEmbedding{
		ProjectID: "p1",
		FileName:  "main.go",
		Vector:    []float32{0.1, 0.2},
	})
	if err == nil {
		t.Fatal("expected dimension mismatch error")
	}
	if !strings.Contains(err.Error(), "dimension") {
		t.Errorf("error should mention the dimension, got %v", err)
	}
}

func TestSchemaDDLUsesConfiguredDimension(t *testing.T) {
	ddl := strings.Join(schemaDDL(768), "\n")
	if !strings.Contains(ddl, "vector(768)") {
		t.Error("schema should declare the configured embedding dimension")
	}
	if !strings.Contains(ddl, "UNIQUE (project_id, commit_hash)") {
		t.Error("schema should enforce commit uniqueness per project")
	}
	if !strings.Contains(ddl, "UNIQUE (project_id, file_name)") {
		t.Error("schema should enforce one row per file per project")
	}
}
