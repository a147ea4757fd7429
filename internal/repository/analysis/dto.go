package analysis

import (
	"strconv"
	"time"

	domanalysis "github.com/hangarops/docsense/internal/domain/analysis"
)

// recordToHash converts a domain Record to a map for HSET.
// risksData is stored as an encoded JSON text blob.
func recordToHash(rec domanalysis.Record) (map[string]string, error) {
	risksBlob, err := domanalysis.EncodeRisks(rec.Risks())
	if err != nil {
		return nil, err
	}
	return map[string]string{
		"doc_path":          rec.DocPath(),
		"title":             rec.Title(),
		"file_name":         rec.FileName(),
		"document_summary":  rec.DocumentSummary(),
		"risk_analysis":     rec.RiskAnalysis(),
		"risks_data":        risksBlob,
		"global_risk_score": strconv.Itoa(rec.GlobalRiskScore()),
		"analysis_date":     strconv.FormatInt(rec.AnalysisDate().UnixMilli(), 10),
		"status":            string(rec.Status()),
		"error":             rec.Error(),
	}, nil
}

// recordFromHash hydrates a domain Record from an HGETALL result map.
// The risks blob decodes leniently: corrupt data yields an empty list.
func recordFromHash(m map[string]string) domanalysis.Record {
	score, _ := strconv.Atoi(m["global_risk_score"])

	var analysisDate time.Time
	if ms, err := strconv.ParseInt(m["analysis_date"], 10, 64); err == nil {
		analysisDate = time.UnixMilli(ms).UTC()
	}

	return domanalysis.Reconstruct(
		m["doc_path"],
		m["title"],
		m["file_name"],
		m["document_summary"],
		m["risk_analysis"],
		domanalysis.DecodeRisks(m["risks_data"]),
		score,
		analysisDate,
		domanalysis.Status(m["status"]),
		m["error"],
	)
}
