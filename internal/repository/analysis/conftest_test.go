package analysis

import (
	"context"
	"testing"
	"time"

	domanalysis "github.com/hangarops/docsense/internal/domain/analysis"
)

// mockStore implements the consumer interface for tests. It keeps an
// in-memory hash map so tests can exercise full write-read cycles.
type mockStore struct {
	data map[string]map[string]string

	hsetFn func(ctx context.Context, key string, fields map[string]string) error
	scanFn func(ctx context.Context, pattern string) ([]string, error)
}

func newMockStore() *mockStore {
	return &mockStore{data: map[string]map[string]string{}}
}

func (m *mockStore) HSet(ctx context.Context, key string, fields map[string]string) error {
	if m.hsetFn != nil {
		return m.hsetFn(ctx, key, fields)
	}
	cp := make(map[string]string, len(fields))
	for k, v := range fields {
		cp[k] = v
	}
	m.data[key] = cp
	return nil
}

func (m *mockStore) HGetAll(_ context.Context, key string) (map[string]string, error) {
	return m.data[key], nil
}

func (m *mockStore) HGetAllMulti(_ context.Context, keys []string) ([]map[string]string, error) {
	out := make([]map[string]string, len(keys))
	for i, k := range keys {
		out[i] = m.data[k]
	}
	return out, nil
}

func (m *mockStore) DelMulti(_ context.Context, keys []string) (int64, error) {
	var removed int64
	for _, k := range keys {
		if _, ok := m.data[k]; ok {
			delete(m.data, k)
			removed++
		}
	}
	return removed, nil
}

func (m *mockStore) Scan(ctx context.Context, pattern string) ([]string, error) {
	if m.scanFn != nil {
		return m.scanFn(ctx, pattern)
	}
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	return keys, nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := newMockStore()
	return New(ms), ms
}

func completedRecord(t *testing.T, docPath string, risks []domanalysis.RiskItem) domanalysis.Record {
	t.Helper()
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	rec, err := domanalysis.NewPending(docPath, "Maintenance Manual", "manual.pdf", now)
	if err != nil {
		t.Fatalf("NewPending: %v", err)
	}
	done, err := rec.Complete("short summary", "narrative with bullets", risks, now)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	return done
}
