package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	chirouter "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hangarops/docsense/internal/domain"
	domanalysis "github.com/hangarops/docsense/internal/domain/analysis"
	"github.com/hangarops/docsense/internal/domain/vectorstatus"
	analysisuc "github.com/hangarops/docsense/internal/usecase/analysis"
	answeruc "github.com/hangarops/docsense/internal/usecase/answer"
	healthuc "github.com/hangarops/docsense/internal/usecase/health"
	indexuc "github.com/hangarops/docsense/internal/usecase/index"
)

// --- Mocks ---

type mockIndexManager struct {
	status     vectorstatus.Status
	statusErr  error
	report     indexuc.BuildReport
	initErr    error
	clearErr   error
	reindexErr error
}

func (m *mockIndexManager) Status(_ context.Context) (vectorstatus.Status, error) {
	return m.status, m.statusErr
}

func (m *mockIndexManager) Initialize(_ context.Context) (indexuc.BuildReport, error) {
	return m.report, m.initErr
}

func (m *mockIndexManager) Clear(_ context.Context) error { return m.clearErr }

func (m *mockIndexManager) Reindex(_ context.Context) (indexuc.BuildReport, error) {
	return m.report, m.reindexErr
}

type mockPipeline struct {
	report   analysisuc.RunReport
	runErr   error
	records  []domanalysis.Record
	listErr  error
	removed  int
	clearErr error
}

func (m *mockPipeline) Run(_ context.Context) (analysisuc.RunReport, error) {
	return m.report, m.runErr
}

func (m *mockPipeline) List(_ context.Context) ([]domanalysis.Record, error) {
	return m.records, m.listErr
}

func (m *mockPipeline) Clear(_ context.Context) (int, error) { return m.removed, m.clearErr }

type mockAnswerEngine struct {
	resp answeruc.Response
	err  error
}

func (m *mockAnswerEngine) Answer(_ context.Context, _ string) (answeruc.Response, error) {
	return m.resp, m.err
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(_ context.Context) healthuc.Report { return m.report }

func newTestRouter(index IndexManager, analyses AnalysisPipeline, answers AnswerEngine, health HealthService) http.Handler {
	if health == nil {
		health = &mockHealth{report: healthuc.Report{Status: healthuc.Healthy, Checks: map[string]healthuc.CheckResult{}}}
	}
	server := NewServer(index, analyses, answers, health, zap.NewNop())
	r := chirouter.NewRouter()
	server.Routes(r)
	return r
}

// --- Tests ---

func TestGetVectorDBStatus(t *testing.T) {
	updated := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	index := &mockIndexManager{status: vectorstatus.Reconstruct(true, 7, updated, 3)}
	router := newTestRouter(index, &mockPipeline{}, &mockAnswerEngine{}, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/api/vector-db/status", http.NoBody))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var resp vectorDBStatusResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.IsInitialized || resp.DocumentCount != 7 {
		t.Errorf("resp = %+v", resp)
	}
	if resp.LastUpdated == nil || !resp.LastUpdated.Equal(updated) {
		t.Errorf("lastUpdated = %v, expected %v", resp.LastUpdated, updated)
	}
}

func TestBuildIndex_Success(t *testing.T) {
	index := &mockIndexManager{report: indexuc.BuildReport{DocumentCount: 4, Skipped: 1}}
	router := newTestRouter(index, &mockPipeline{}, &mockAnswerEngine{}, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("POST", "/api/vector-db/index", http.NoBody))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var resp indexResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success || resp.DocumentCount != 4 || resp.Skipped != 1 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestBuildIndex_Busy409(t *testing.T) {
	index := &mockIndexManager{initErr: domain.ErrIndexBusy}
	router := newTestRouter(index, &mockPipeline{}, &mockAnswerEngine{}, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("POST", "/api/vector-db/index", http.NoBody))

	if rr.Code != http.StatusConflict {
		t.Fatalf("status = %d, expected 409", rr.Code)
	}
	var errResp errorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if errResp.Code != codeIndexBusy {
		t.Errorf("code = %s, expected %s", errResp.Code, codeIndexBusy)
	}
}

func TestBuildIndex_RevisionConflict409(t *testing.T) {
	index := &mockIndexManager{initErr: domain.NewRevisionConflict(9)}
	router := newTestRouter(index, &mockPipeline{}, &mockAnswerEngine{}, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("POST", "/api/vector-db/index", http.NoBody))

	if rr.Code != http.StatusConflict {
		t.Fatalf("status = %d, expected 409", rr.Code)
	}
	var body map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["code"] != codeRevisionConflict {
		t.Errorf("code = %v", body["code"])
	}
	if body["current_revision"] != float64(9) {
		t.Errorf("current_revision = %v, expected 9", body["current_revision"])
	}
}

func TestClearIndex(t *testing.T) {
	router := newTestRouter(&mockIndexManager{}, &mockPipeline{}, &mockAnswerEngine{}, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("POST", "/api/vector-db/clear", http.NoBody))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp successResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success {
		t.Error("expected success true")
	}
}

func TestRunAnalyses(t *testing.T) {
	pipeline := &mockPipeline{report: analysisuc.RunReport{AnalyzedCount: 3, FailedCount: 1}}
	router := newTestRouter(&mockIndexManager{}, pipeline, &mockAnswerEngine{}, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("POST", "/api/analyses/run", http.NoBody))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp analysisRunResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.AnalyzedCount != 3 || resp.FailedCount != 1 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestListAnalyses(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	pending, err := domanalysis.NewPending("a.pdf", "A", "a.pdf", now)
	if err != nil {
		t.Fatalf("NewPending: %v", err)
	}
	completed, err := pending.Complete("summary", "narrative", []domanalysis.RiskItem{
		{Title: "corrosion", Description: "frame", Score: 60},
	}, now)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	pipeline := &mockPipeline{records: []domanalysis.Record{completed}}
	router := newTestRouter(&mockIndexManager{}, pipeline, &mockAnswerEngine{}, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/api/analyses", http.NoBody))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var items []analysisRecordResponse
	if err := json.NewDecoder(rr.Body).Decode(&items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("items = %d, expected 1", len(items))
	}
	got := items[0]
	if got.DocPath != "a.pdf" || got.Status != "completed" || got.GlobalRiskScore != 60 {
		t.Errorf("item = %+v", got)
	}
	if len(got.RisksData) != 1 || got.RisksData[0].Title != "corrosion" {
		t.Errorf("risks = %+v", got.RisksData)
	}
	if got.Error != nil {
		t.Errorf("completed record must not carry an error field")
	}
}

func TestClearAnalyses(t *testing.T) {
	pipeline := &mockPipeline{removed: 5}
	router := newTestRouter(&mockIndexManager{}, pipeline, &mockAnswerEngine{}, nil)

	req := httptest.NewRequest("DELETE", "/api/analyses", http.NoBody)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp clearAnalysesResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.RemovedCount != 5 {
		t.Errorf("removedCount = %d, expected 5", resp.RemovedCount)
	}
}

func TestAnswerQuestion(t *testing.T) {
	engine := &mockAnswerEngine{resp: answeruc.Response{
		Answer: "grounded answer",
		Documents: []domain.Citation{
			{Path: "a.pdf", Title: "A", Relevance: 0.9},
		},
	}}
	router := newTestRouter(&mockIndexManager{}, &mockPipeline{}, engine, nil)

	body := bytes.NewBufferString(`{"question": "what are the risks?"}`)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("POST", "/api/answers", body))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var resp answerResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Answer != "grounded answer" {
		t.Errorf("answer = %q", resp.Answer)
	}
	if len(resp.Documents) != 1 || resp.Documents[0].Title != "A" || resp.Documents[0].Relevance != 0.9 {
		t.Errorf("documents = %+v", resp.Documents)
	}
}

func TestAnswerQuestion_NotInitializedGetsFixedAnswer(t *testing.T) {
	engine := &mockAnswerEngine{err: domain.ErrNotInitialized}
	router := newTestRouter(&mockIndexManager{}, &mockPipeline{}, engine, nil)

	body := bytes.NewBufferString(`{"question": "what are the risks?"}`)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("POST", "/api/answers", body))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, expected 200, body = %s", rr.Code, rr.Body.String())
	}
	var resp answerResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Answer != answeruc.NotInitializedAnswer {
		t.Errorf("answer = %q, expected the fixed not-initialized response", resp.Answer)
	}
	if len(resp.Documents) != 0 {
		t.Errorf("documents = %+v, expected none", resp.Documents)
	}
}

func TestAnswerQuestion_EmptyQuestion400(t *testing.T) {
	engine := &mockAnswerEngine{err: domain.ErrInvalidInput}
	router := newTestRouter(&mockIndexManager{}, &mockPipeline{}, engine, nil)

	body := bytes.NewBufferString(`{"question": ""}`)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("POST", "/api/answers", body))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, expected 400", rr.Code)
	}
}

func TestAnswerQuestion_ProviderError502(t *testing.T) {
	engine := &mockAnswerEngine{err: domain.ErrProviderUnavailable}
	router := newTestRouter(&mockIndexManager{}, &mockPipeline{}, engine, nil)

	body := bytes.NewBufferString(`{"question": "q"}`)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("POST", "/api/answers", body))

	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, expected 502", rr.Code)
	}
	var errResp errorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if errResp.Message != domain.ErrProviderUnavailable.Error() {
		t.Errorf("raw errors must be replaced with safe messages, got %q", errResp.Message)
	}
}

func TestHealthCheck_Degraded503(t *testing.T) {
	health := &mockHealth{report: healthuc.Report{
		Status: healthuc.Degraded,
		Checks: map[string]healthuc.CheckResult{"database": healthuc.CheckError},
	}}
	router := newTestRouter(&mockIndexManager{}, &mockPipeline{}, &mockAnswerEngine{}, health)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/healthz", http.NoBody))

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, expected 503", rr.Code)
	}
	var resp healthResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "degraded" || resp.Checks["database"] != "error" {
		t.Errorf("resp = %+v", resp)
	}
}
