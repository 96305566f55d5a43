package service

import (
	"context"
	"sync"

	"repomind/internal/domain"
	"repomind/internal/port"
)

// fakeAI records prompts and returns configurable results.
type fakeAI struct {
	mu         sync.Mutex
	chatCalls  []string
	embedCalls []string
	chatFunc   func(userPrompt string) (string, error)
	embedFunc  func(text string) ([]float32, error)
	streamFunc func(userPrompt string) (<-chan string, error)
}

func (f *fakeAI) ModelName() string { return "fake-model" }

func (f *fakeAI) Chat(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	f.mu.Lock()
	f.chatCalls = append(f.chatCalls, userPrompt)
	f.mu.Unlock()
	if f.chatFunc != nil {
		return f.chatFunc(userPrompt)
	}
	return "summary", nil
}

func (f *fakeAI) Embed(ctx context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	f.embedCalls = append(f.embedCalls, text)
	f.mu.Unlock()
	if f.embedFunc != nil {
		return f.embedFunc(text)
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func (f *fakeAI) ChatStream(ctx context.Context, systemPrompt, userPrompt string) (<-chan string, error) {
	f.mu.Lock()
	f.chatCalls = append(f.chatCalls, userPrompt)
	f.mu.Unlock()
	if f.streamFunc != nil {
		return f.streamFunc(userPrompt)
	}
	ch := make(chan string, 1)
	ch <- "streamed answer"
	close(ch)
	return ch, nil
}

func (f *fakeAI) chatCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.chatCalls)
}

// fakeProvider serves canned commit listings and diffs.
type fakeProvider struct {
	kind     domain.ProviderKind
	listFunc func(repoURL, token string) ([]domain.CommitInfo, error)
	diffFunc func(commitHash string) (string, error)
}

func (f *fakeProvider) Kind() domain.ProviderKind { return f.kind }

func (f *fakeProvider) ListRecentCommits(ctx context.Context, repoURL, token string) ([]domain.CommitInfo, error) {
	return f.listFunc(repoURL, token)
}

func (f *fakeProvider) FetchDiff(ctx context.Context, repoURL, commitHash, token string) (string, error) {
	if f.diffFunc != nil {
		return f.diffFunc(commitHash)
	}
	return "diff --git a/main.go b/main.go", nil
}

// fakeProjectStore returns a single project by ID.
type fakeProjectStore struct {
	project *domain.Project
}

func (f *fakeProjectStore) CreateProject(ctx context.Context, p *domain.Project) (*domain.Project, error) {
	return p, nil
}

func (f *fakeProjectStore) GetProjectByID(ctx context.Context, id string) (*domain.Project, error) {
	if f.project == nil || f.project.ID != id {
		return nil, port.ErrProjectNotFound
	}
	return f.project, nil
}

func (f *fakeProjectStore) ListProjects(ctx context.Context) ([]domain.Project, error) {
	if f.project == nil {
		return nil, nil
	}
	return []domain.Project{*f.project}, nil
}

func (f *fakeProjectStore) SoftDeleteProject(ctx context.Context, id string) error { return nil }

// fakeCommitStore tracks stored hashes and records inserted batches.
type fakeCommitStore struct {
	mu       sync.Mutex
	hashes   []string
	inserted []domain.Commit
}

func (f *fakeCommitStore) ListCommitHashes(ctx context.Context, projectID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.hashes...), nil
}

func (f *fakeCommitStore) ListCommits(ctx context.Context, projectID string) ([]domain.Commit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Commit(nil), f.inserted...), nil
}

func (f *fakeCommitStore) InsertCommits(ctx context.Context, commits []domain.Commit) ([]domain.Commit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inserted = append(f.inserted, commits...)
	for _, c := range commits {
		f.hashes = append(f.hashes, c.CommitHash)
	}
	return commits, nil
}

// fakeKnowledgeStore records upserts and serves canned search results.
type fakeKnowledgeStore struct {
	mu         sync.Mutex
	upserts    []*domain.SourceCodeEmbedding
	searchFunc func(queryVector []float32, minSimilarity float64, limit int) ([]domain.FileReference, error)
}

func (f *fakeKnowledgeStore) UpsertEmbedding(ctx context.Context, e *domain.SourceCodeEmbedding) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts = append(f.upserts, e)
	return nil
}

func (f *fakeKnowledgeStore) SearchSimilar(ctx context.Context, projectID string, queryVector []float32, minSimilarity float64, limit int) ([]domain.FileReference, error) {
	if f.searchFunc != nil {
		return f.searchFunc(queryVector, minSimilarity, limit)
	}
	return nil, nil
}

func (f *fakeKnowledgeStore) upsertCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.upserts)
}

// fakeQuestionStore keeps saved questions in memory.
type fakeQuestionStore struct {
	saved []domain.Question
}

func (f *fakeQuestionStore) SaveQuestion(ctx context.Context, q *domain.Question) (*domain.Question, error) {
	f.saved = append(f.saved, *q)
	return q, nil
}

func (f *fakeQuestionStore) ListQuestions(ctx context.Context, projectID string) ([]domain.Question, error) {
	return append([]domain.Question(nil), f.saved...), nil
}

// fakeLoader serves a canned file tree.
type fakeLoader struct {
	files []domain.SourceFile
	err   error
}

func (f *fakeLoader) LoadFiles(ctx context.Context, repoURL, token string) ([]domain.SourceFile, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.files, nil
}
