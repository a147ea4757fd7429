package chi

import (
	"time"

	domanalysis "github.com/hangarops/docsense/internal/domain/analysis"
	"github.com/hangarops/docsense/internal/domain/vectorstatus"
)

// Error codes returned in the "code" field of error responses.
const (
	codeBadRequest         = "bad_request"
	codeValidationFailed   = "validation_failed"
	codeNotFound           = "not_found"
	codeIndexBusy          = "index_busy"
	codeRevisionConflict   = "revision_conflict"
	codeProviderError      = "provider_error"
	codeDocumentUnreadable = "document_unreadable"
	codeStorageError       = "storage_error"
	codeInternalError      = "internal_error"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type successResponse struct {
	Success bool `json:"success"`
}

type vectorDBStatusResponse struct {
	IsInitialized bool       `json:"isInitialized"`
	DocumentCount int        `json:"documentCount"`
	LastUpdated   *time.Time `json:"lastUpdated,omitempty"`
}

type indexResponse struct {
	Success       bool `json:"success"`
	DocumentCount int  `json:"documentCount"`
	Skipped       int  `json:"skipped"`
}

type analysisRunResponse struct {
	Success       bool `json:"success"`
	AnalyzedCount int  `json:"analyzedCount"`
	FailedCount   int  `json:"failedCount"`
}

type analysisRecordResponse struct {
	DocPath         string                 `json:"docPath"`
	Title           string                 `json:"title"`
	FileName        string                 `json:"fileName"`
	DocumentSummary string                 `json:"documentSummary"`
	RiskAnalysis    string                 `json:"riskAnalysis"`
	RisksData       []domanalysis.RiskItem `json:"risksData"`
	GlobalRiskScore int                    `json:"globalRiskScore"`
	AnalysisDate    time.Time              `json:"analysisDate"`
	Status          string                 `json:"status"`
	Error           *string                `json:"error,omitempty"`
}

type clearAnalysesResponse struct {
	Success      bool `json:"success"`
	RemovedCount int  `json:"removedCount"`
}

type answerRequest struct {
	Question string `json:"question"`
}

type answerDocument struct {
	Title     string  `json:"title"`
	Relevance float64 `json:"relevance"`
}

type answerResponse struct {
	Success   bool             `json:"success"`
	Answer    string           `json:"answer"`
	Documents []answerDocument `json:"documents"`
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func statusToResponse(st vectorstatus.Status) vectorDBStatusResponse {
	resp := vectorDBStatusResponse{
		IsInitialized: st.IsInitialized(),
		DocumentCount: st.DocumentCount(),
	}
	if !st.LastUpdated().IsZero() {
		t := st.LastUpdated().UTC()
		resp.LastUpdated = &t
	}
	return resp
}
