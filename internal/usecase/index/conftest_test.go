package index

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/hangarops/docsense/internal/domain"
	"github.com/hangarops/docsense/internal/domain/vectorstatus"
)

// --- Mocks ---

type mockCorpus struct {
	docs     []domain.DocumentRef
	listErr  error
	fetchErr error
	listFn   func(ctx context.Context) ([]domain.DocumentRef, error)
}

func (m *mockCorpus) List(ctx context.Context) ([]domain.DocumentRef, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return m.docs, m.listErr
}

func (m *mockCorpus) Fetch(_ context.Context, path string) ([]byte, error) {
	if m.fetchErr != nil {
		return nil, m.fetchErr
	}
	return []byte("pdf:" + path), nil
}

type mockExtractor struct {
	texts    map[string]string // fileName -> text
	errs     map[string]error  // fileName -> error
	mu       sync.Mutex
	attempts map[string]int
}

func (m *mockExtractor) Extract(_ context.Context, fileName string, _ []byte) (string, error) {
	m.mu.Lock()
	if m.attempts == nil {
		m.attempts = make(map[string]int)
	}
	m.attempts[fileName]++
	m.mu.Unlock()

	if err, ok := m.errs[fileName]; ok {
		return "", err
	}
	if text, ok := m.texts[fileName]; ok {
		return text, nil
	}
	return "Text of " + fileName + ".", nil
}

type mockEmbedder struct {
	mu        sync.Mutex
	callCount int
	failFirst int // first N calls fail with err
	err       error
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount++
	if m.callCount <= m.failFirst {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: []float32{1, 0, 0}, TotalTokens: 3}, nil
}

// sentenceSplitter splits on periods; one sentence per chunk.
type sentenceSplitter struct{}

func (sentenceSplitter) Split(text string) []string {
	var out []string
	for _, part := range strings.Split(text, ".") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part+".")
		}
	}
	return out
}

type mockStatusRepo struct {
	mu      sync.Mutex
	current vectorstatus.Status
	getErr  error
	updErr  error
}

func (m *mockStatusRepo) Get(_ context.Context) (vectorstatus.Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return vectorstatus.Status{}, m.getErr
	}
	return m.current, nil
}

func (m *mockStatusRepo) Update(
	_ context.Context, mutate func(vectorstatus.Status) vectorstatus.Status,
) (vectorstatus.Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updErr != nil {
		return vectorstatus.Status{}, m.updErr
	}
	next := mutate(m.current)
	m.current = vectorstatus.Reconstruct(
		next.IsInitialized(), next.DocumentCount(), next.LastUpdated(), m.current.Revision()+1,
	)
	return m.current, nil
}

func testClock() func() time.Time {
	fixed := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return fixed }
}
