package analysis

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/hangarops/docsense/internal/domain"
	domanalysis "github.com/hangarops/docsense/internal/domain/analysis"
)

// --- Mocks ---

type mockCorpus struct {
	docs    []domain.DocumentRef
	listErr error
}

func (m *mockCorpus) List(_ context.Context) ([]domain.DocumentRef, error) {
	return m.docs, m.listErr
}

func (m *mockCorpus) Fetch(_ context.Context, path string) ([]byte, error) {
	return []byte("pdf:" + path), nil
}

type mockExtractor struct {
	errs map[string]error // fileName -> error
}

func (m *mockExtractor) Extract(_ context.Context, fileName string, _ []byte) (string, error) {
	if err, ok := m.errs[fileName]; ok {
		return "", err
	}
	return "Extracted text of " + fileName + ".", nil
}

// mockCompleter answers the summary prompt with summaryText and the JSON-mode
// risk prompt with the configured per-document payload.
type mockCompleter struct {
	mu          sync.Mutex
	summaryText string
	riskJSON    map[string]string // document title -> raw model output
	riskErr     error
	failFirst   int // first N calls fail with riskErr
	callCount   int
}

func (m *mockCompleter) Complete(_ context.Context, req domain.CompletionRequest) (domain.CompletionResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount++
	if m.callCount <= m.failFirst {
		return domain.CompletionResult{}, m.riskErr
	}
	if !req.JSONMode {
		return domain.CompletionResult{Content: m.summaryText, TotalTokens: 20}, nil
	}
	for title, raw := range m.riskJSON {
		if containsTitle(req.User, title) {
			return domain.CompletionResult{Content: raw, TotalTokens: 40}, nil
		}
	}
	return domain.CompletionResult{Content: `{"narrative": "no notable risks", "risks": []}`, TotalTokens: 40}, nil
}

func containsTitle(prompt, title string) bool {
	return strings.HasPrefix(prompt, "Document: "+title)
}

type mockRecordRepo struct {
	mu        sync.Mutex
	rows      map[string]domanalysis.Record
	upsertErr error
}

func newMockRecordRepo() *mockRecordRepo {
	return &mockRecordRepo{rows: make(map[string]domanalysis.Record)}
}

func (m *mockRecordRepo) Upsert(_ context.Context, rec domanalysis.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.rows[rec.DocPath()] = rec
	return nil
}

func (m *mockRecordRepo) List(_ context.Context) ([]domanalysis.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domanalysis.Record, 0, len(m.rows))
	for _, rec := range m.rows {
		out = append(out, rec)
	}
	return out, nil
}

func (m *mockRecordRepo) Clear(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.rows)
	m.rows = make(map[string]domanalysis.Record)
	return n, nil
}

func (m *mockRecordRepo) get(path string) (domanalysis.Record, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.rows[path]
	return rec, ok
}

func testClock() func() time.Time {
	fixed := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return fixed }
}
