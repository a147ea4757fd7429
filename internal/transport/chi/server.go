// Package chi exposes the docsense HTTP API.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	chirouter "github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hangarops/docsense/internal/domain"
	domanalysis "github.com/hangarops/docsense/internal/domain/analysis"
	answeruc "github.com/hangarops/docsense/internal/usecase/answer"
	healthuc "github.com/hangarops/docsense/internal/usecase/health"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server wires the usecase services into HTTP handlers.
type Server struct {
	index         IndexManager
	analyses      AnalysisPipeline
	answers       AnswerEngine
	health        HealthService
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	index IndexManager,
	analyses AnalysisPipeline,
	answers AnswerEngine,
	health HealthService,
	logger *zap.Logger,
) *Server {
	s := &Server{
		index:    index,
		analyses: analyses,
		answers:  answers,
		health:   health,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		revisionConflictHandler,
		sentinelHandler(domain.ErrIndexBusy, http.StatusConflict, codeIndexBusy),
		sentinelHandler(domain.ErrInvalidInput, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrProviderUnavailable, http.StatusBadGateway, codeProviderError),
		sentinelHandler(domain.ErrMalformedOutput, http.StatusBadGateway, codeProviderError),
		sentinelHandler(domain.ErrDocumentUnreadable, http.StatusUnprocessableEntity, codeDocumentUnreadable),
		sentinelHandler(domain.ErrStorage, http.StatusInternalServerError, codeStorageError),
	}
	return s
}

// Routes mounts all API endpoints on the router.
func (s *Server) Routes(r chirouter.Router) {
	r.Route("/api", func(r chirouter.Router) {
		r.Route("/vector-db", func(r chirouter.Router) {
			r.Get("/status", s.GetVectorDBStatus)
			r.Post("/index", s.BuildIndex)
			r.Post("/clear", s.ClearIndex)
			r.Post("/reindex", s.ReindexAll)
		})
		r.Route("/analyses", func(r chirouter.Router) {
			r.Post("/run", s.RunAnalyses)
			r.Get("/", s.ListAnalyses)
			r.Delete("/", s.ClearAnalyses)
		})
		r.Post("/answers", s.AnswerQuestion)
	})
	r.Get("/healthz", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// GetVectorDBStatus handles GET /api/vector-db/status.
func (s *Server) GetVectorDBStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.index.Status(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusToResponse(st))
}

// BuildIndex handles POST /api/vector-db/index.
func (s *Server) BuildIndex(w http.ResponseWriter, r *http.Request) {
	ctx, usage := domain.NewContextWithUsage(r.Context())
	report, err := s.index.Initialize(ctx)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	setUsageHeader(w, usage)
	writeJSON(w, http.StatusOK, indexResponse{
		Success:       true,
		DocumentCount: report.DocumentCount,
		Skipped:       report.Skipped,
	})
}

// ClearIndex handles POST /api/vector-db/clear.
func (s *Server) ClearIndex(w http.ResponseWriter, r *http.Request) {
	if err := s.index.Clear(r.Context()); err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// ReindexAll handles POST /api/vector-db/reindex.
func (s *Server) ReindexAll(w http.ResponseWriter, r *http.Request) {
	ctx, usage := domain.NewContextWithUsage(r.Context())
	report, err := s.index.Reindex(ctx)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	setUsageHeader(w, usage)
	writeJSON(w, http.StatusOK, indexResponse{
		Success:       true,
		DocumentCount: report.DocumentCount,
		Skipped:       report.Skipped,
	})
}

// RunAnalyses handles POST /api/analyses/run.
func (s *Server) RunAnalyses(w http.ResponseWriter, r *http.Request) {
	ctx, usage := domain.NewContextWithUsage(r.Context())
	report, err := s.analyses.Run(ctx)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	setUsageHeader(w, usage)
	writeJSON(w, http.StatusOK, analysisRunResponse{
		Success:       true,
		AnalyzedCount: report.AnalyzedCount,
		FailedCount:   report.FailedCount,
	})
}

// ListAnalyses handles GET /api/analyses.
func (s *Server) ListAnalyses(w http.ResponseWriter, r *http.Request) {
	records, err := s.analyses.List(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	items := make([]analysisRecordResponse, len(records))
	for i := range records {
		items[i] = recordToResponse(&records[i])
	}
	writeJSON(w, http.StatusOK, items)
}

// ClearAnalyses handles DELETE /api/analyses.
func (s *Server) ClearAnalyses(w http.ResponseWriter, r *http.Request) {
	removed, err := s.analyses.Clear(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, clearAnalysesResponse{Success: true, RemovedCount: removed})
}

// AnswerQuestion handles POST /api/answers.
func (s *Server) AnswerQuestion(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	resp, err := s.answers.Answer(ctx, req.Question)
	if errors.Is(err, domain.ErrNotInitialized) {
		// A missing index is an answerable state, not a failure.
		writeJSON(w, http.StatusOK, answerResponse{
			Success:   true,
			Answer:    answeruc.NotInitializedAnswer,
			Documents: []answerDocument{},
		})
		return
	}
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	docs := make([]answerDocument, len(resp.Documents))
	for i, c := range resp.Documents {
		docs[i] = answerDocument{Title: c.Title, Relevance: c.Relevance}
	}
	setUsageHeader(w, usage)
	writeJSON(w, http.StatusOK, answerResponse{
		Success:   true,
		Answer:    resp.Answer,
		Documents: docs,
	})
}

// HealthCheck handles GET /healthz.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}
	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func setUsageHeader(w http.ResponseWriter, usage *domain.TokenUsage) {
	if total, used := usage.Total(); used {
		w.Header().Set("X-Provider-Tokens", strconv.Itoa(total))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without
// exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrIndexBusy,
		domain.ErrInvalidInput,
		domain.ErrNotFound,
		domain.ErrNotInitialized,
		domain.ErrProviderUnavailable,
		domain.ErrMalformedOutput,
		domain.ErrDocumentUnreadable,
		domain.ErrRevisionConflict,
		domain.ErrStorage,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// revisionConflictHandler handles ErrRevisionConflict with the current revision.
func revisionConflictHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, domain.ErrRevisionConflict) {
		return false
	}
	var rce *domain.RevisionConflictError
	if errors.As(err, &rce) {
		writeJSON(w, http.StatusConflict, map[string]any{
			"code":             codeRevisionConflict,
			"message":          msg,
			"current_revision": rce.CurrentRevision,
		})
		return true
	}
	writeError(w, http.StatusConflict, codeRevisionConflict, msg)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}

func recordToResponse(rec *domanalysis.Record) analysisRecordResponse {
	resp := analysisRecordResponse{
		DocPath:         rec.DocPath(),
		Title:           rec.Title(),
		FileName:        rec.FileName(),
		DocumentSummary: rec.DocumentSummary(),
		RiskAnalysis:    rec.RiskAnalysis(),
		RisksData:       rec.Risks(),
		GlobalRiskScore: rec.GlobalRiskScore(),
		AnalysisDate:    rec.AnalysisDate().UTC(),
		Status:          string(rec.Status()),
	}
	if rec.Error() != "" {
		e := rec.Error()
		resp.Error = &e
	}
	if resp.RisksData == nil {
		resp.RisksData = []domanalysis.RiskItem{}
	}
	return resp
}
