package analysis

import (
	"context"
	"testing"
	"time"

	"github.com/hangarops/docsense/internal/domain"
	domanalysis "github.com/hangarops/docsense/internal/domain/analysis"
)

func newTestService(corpus *mockCorpus, extract *mockExtractor, complete *mockCompleter, records *mockRecordRepo) *Service {
	return New(corpus, extract, complete, records, 2, 3, 512, 2048).
		WithClock(testClock()).
		WithRetryDelay(time.Millisecond)
}

func twoDocs() []domain.DocumentRef {
	return []domain.DocumentRef{
		{Path: "reports/d1.pdf", Title: "D1", FileName: "d1.pdf"},
		{Path: "reports/d2.pdf", Title: "D2", FileName: "d2.pdf"},
	}
}

func TestRun_DerivesGlobalScoreFromWorstRisk(t *testing.T) {
	records := newMockRecordRepo()
	complete := &mockCompleter{
		summaryText: "A short summary.",
		riskJSON: map[string]string{
			"D1": `{"narrative": "two findings", "risks": [
				{"title": "corrosion", "description": "frame corrosion", "score": 80},
				{"title": "wear", "description": "seal wear", "score": 40}
			]}`,
			"D2": `{"narrative": "clean document", "risks": []}`,
		},
	}
	svc := newTestService(&mockCorpus{docs: twoDocs()}, &mockExtractor{}, complete, records)

	report, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.AnalyzedCount != 2 || report.FailedCount != 0 {
		t.Fatalf("report = {%d, %d}, expected {2, 0}", report.AnalyzedCount, report.FailedCount)
	}

	d1, ok := records.get("reports/d1.pdf")
	if !ok {
		t.Fatal("missing record for d1")
	}
	if d1.Status() != domanalysis.StatusCompleted {
		t.Errorf("d1 status = %s", d1.Status())
	}
	if d1.GlobalRiskScore() != 80 {
		t.Errorf("d1 global score = %d, expected 80", d1.GlobalRiskScore())
	}
	if len(d1.Risks()) != 2 {
		t.Errorf("d1 risks = %d, expected 2", len(d1.Risks()))
	}
	if d1.DocumentSummary() != "A short summary." {
		t.Errorf("d1 summary = %q", d1.DocumentSummary())
	}

	d2, ok := records.get("reports/d2.pdf")
	if !ok {
		t.Fatal("missing record for d2")
	}
	if d2.GlobalRiskScore() != 0 {
		t.Errorf("d2 global score = %d, expected 0 for empty risks", d2.GlobalRiskScore())
	}
	if len(d2.Risks()) != 0 {
		t.Errorf("d2 risks = %d, expected 0", len(d2.Risks()))
	}
}

func TestRun_FaultIsolation(t *testing.T) {
	records := newMockRecordRepo()
	extract := &mockExtractor{errs: map[string]error{"d2.pdf": domain.ErrDocumentUnreadable}}
	complete := &mockCompleter{summaryText: "ok"}
	svc := newTestService(&mockCorpus{docs: twoDocs()}, extract, complete, records)

	report, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.AnalyzedCount != 1 || report.FailedCount != 1 {
		t.Fatalf("report = {%d, %d}, expected {1, 1}", report.AnalyzedCount, report.FailedCount)
	}

	d2, ok := records.get("reports/d2.pdf")
	if !ok {
		t.Fatal("failed document must still have a record")
	}
	if d2.Status() != domanalysis.StatusFailed {
		t.Errorf("d2 status = %s, expected failed", d2.Status())
	}
	if d2.Error() == "" {
		t.Error("failed record must carry the error message")
	}
}

func TestRun_MalformedRiskOutputIsTerminal(t *testing.T) {
	records := newMockRecordRepo()
	complete := &mockCompleter{
		summaryText: "ok",
		riskJSON: map[string]string{
			"D1": `not json at all`,
			"D2": `{"narrative": "", "risks": []}`,
		},
	}
	svc := newTestService(&mockCorpus{docs: twoDocs()}, &mockExtractor{}, complete, records)

	report, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.FailedCount != 2 {
		t.Fatalf("FailedCount = %d, expected 2", report.FailedCount)
	}
	for _, path := range []string{"reports/d1.pdf", "reports/d2.pdf"} {
		rec, ok := records.get(path)
		if !ok {
			t.Fatalf("missing record for %s", path)
		}
		if rec.Status() != domanalysis.StatusFailed {
			t.Errorf("%s status = %s, expected failed", path, rec.Status())
		}
		if rec.GlobalRiskScore() != 0 || len(rec.Risks()) != 0 {
			t.Errorf("%s must not carry partial risk data", path)
		}
	}
}

func TestRun_RerunOverwritesCompletedRecord(t *testing.T) {
	records := newMockRecordRepo()
	complete := &mockCompleter{
		summaryText: "first pass",
		riskJSON: map[string]string{
			"D1": `{"narrative": "one finding", "risks": [{"title": "t", "description": "d", "score": 30}]}`,
		},
	}
	docs := twoDocs()[:1]
	svc := newTestService(&mockCorpus{docs: docs}, &mockExtractor{}, complete, records)

	if _, err := svc.Run(context.Background()); err != nil {
		t.Fatalf("first Run failed: %v", err)
	}

	complete.mu.Lock()
	complete.summaryText = "second pass"
	complete.riskJSON["D1"] = `{"narrative": "worse now", "risks": [{"title": "t", "description": "d", "score": 90}]}`
	complete.mu.Unlock()

	if _, err := svc.Run(context.Background()); err != nil {
		t.Fatalf("second Run failed: %v", err)
	}

	rec, _ := records.get("reports/d1.pdf")
	if rec.DocumentSummary() != "second pass" {
		t.Errorf("summary = %q, rerun must overwrite", rec.DocumentSummary())
	}
	if rec.GlobalRiskScore() != 90 {
		t.Errorf("global score = %d, expected 90", rec.GlobalRiskScore())
	}
}

func TestRun_RetriesTransientCompletionErrors(t *testing.T) {
	records := newMockRecordRepo()
	complete := &mockCompleter{
		summaryText: "ok",
		riskErr:     domain.ErrProviderUnavailable,
		failFirst:   2,
	}
	docs := twoDocs()[:1]
	svc := newTestService(&mockCorpus{docs: docs}, &mockExtractor{}, complete, records)

	report, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.AnalyzedCount != 1 {
		t.Errorf("AnalyzedCount = %d, expected 1 after retries", report.AnalyzedCount)
	}
}

func TestClear_ReportsRemovedCount(t *testing.T) {
	records := newMockRecordRepo()
	complete := &mockCompleter{summaryText: "ok"}
	svc := newTestService(&mockCorpus{docs: twoDocs()}, &mockExtractor{}, complete, records)

	if _, err := svc.Run(context.Background()); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	removed, err := svc.Clear(context.Background())
	if err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, expected 2", removed)
	}

	listed, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(listed) != 0 {
		t.Errorf("expected empty catalog after clear, got %d rows", len(listed))
	}
}
