// Package analysis holds the per-document risk analysis aggregate.
package analysis

import (
	"encoding/json"
	"fmt"
	"time"
)

// Status is the lifecycle state of an analysis record.
type Status string

// Analysis lifecycle states. A record is created pending and transitions
// once to completed or failed.
const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// MaxRiskScore is the upper bound of individual and global risk scores.
const MaxRiskScore = 100

// RiskItem is one identified risk in a document.
type RiskItem struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Score       int    `json:"score"`
}

// Record is the analysis aggregate, keyed by canonical document path.
type Record struct {
	docPath         string
	title           string
	fileName        string
	documentSummary string
	riskAnalysis    string
	risks           []RiskItem
	globalRiskScore int
	analysisDate    time.Time
	status          Status
	errMsg          string
}

// NewPending creates a record in the pending state.
func NewPending(docPath, title, fileName string, now time.Time) (Record, error) {
	if docPath == "" {
		return Record{}, fmt.Errorf("document path is required")
	}
	return Record{
		docPath:      docPath,
		title:        title,
		fileName:     fileName,
		status:       StatusPending,
		analysisDate: now,
	}, nil
}

// Complete returns a copy in the completed state carrying the analysis results.
// The global score is derived from the items, not accepted from the caller, so a
// completed record is always consistent.
func (r Record) Complete(summary, narrative string, risks []RiskItem, now time.Time) (Record, error) {
	for i, item := range risks {
		if item.Score < 0 || item.Score > MaxRiskScore {
			return Record{}, fmt.Errorf("risk item %d: score %d out of range [0,%d]", i, item.Score, MaxRiskScore)
		}
	}
	c := r
	c.documentSummary = summary
	c.riskAnalysis = narrative
	c.risks = cloneRisks(risks)
	c.globalRiskScore = GlobalScore(risks)
	c.analysisDate = now
	c.status = StatusCompleted
	c.errMsg = ""
	return c, nil
}

// Fail returns a copy in the failed state with the error message set.
func (r Record) Fail(errMsg string, now time.Time) Record {
	c := r
	c.status = StatusFailed
	c.errMsg = errMsg
	c.analysisDate = now
	return c
}

// Reconstruct creates a Record without validation (storage hydration).
func Reconstruct(
	docPath, title, fileName, summary, narrative string,
	risks []RiskItem, globalScore int,
	analysisDate time.Time, status Status, errMsg string,
) Record {
	return Record{
		docPath:         docPath,
		title:           title,
		fileName:        fileName,
		documentSummary: summary,
		riskAnalysis:    narrative,
		risks:           risks,
		globalRiskScore: globalScore,
		analysisDate:    analysisDate,
		status:          status,
		errMsg:          errMsg,
	}
}

// DocPath returns the canonical document path.
func (r *Record) DocPath() string { return r.docPath }

// Title returns the document title.
func (r *Record) Title() string { return r.title }

// FileName returns the source file name.
func (r *Record) FileName() string { return r.fileName }

// DocumentSummary returns the short document summary.
func (r *Record) DocumentSummary() string { return r.documentSummary }

// RiskAnalysis returns the free-text risk narrative.
func (r *Record) RiskAnalysis() string { return r.riskAnalysis }

// Risks returns the structured risk items.
func (r *Record) Risks() []RiskItem { return r.risks }

// GlobalRiskScore returns the aggregate 0-100 risk score.
func (r *Record) GlobalRiskScore() int { return r.globalRiskScore }

// AnalysisDate returns the time of the last state transition.
func (r *Record) AnalysisDate() time.Time { return r.analysisDate }

// Status returns the lifecycle state.
func (r *Record) Status() Status { return r.status }

// Error returns the failure message, set iff status is failed.
func (r *Record) Error() string { return r.errMsg }

// GlobalScore aggregates item scores into the global risk score.
// Policy: the worst risk dominates (maximum); an empty list scores 0.
func GlobalScore(risks []RiskItem) int {
	score := 0
	for _, item := range risks {
		if item.Score > score {
			score = item.Score
		}
	}
	return score
}

// EncodeRisks serializes risk items into the stored text blob.
func EncodeRisks(risks []RiskItem) (string, error) {
	if len(risks) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(risks)
	if err != nil {
		return "", fmt.Errorf("encode risks: %w", err)
	}
	return string(data), nil
}

// DecodeRisks deserializes the stored text blob. A missing or corrupt blob
// decodes to an empty list rather than failing the read.
func DecodeRisks(blob string) []RiskItem {
	if blob == "" {
		return []RiskItem{}
	}
	var risks []RiskItem
	if err := json.Unmarshal([]byte(blob), &risks); err != nil {
		return []RiskItem{}
	}
	if risks == nil {
		return []RiskItem{}
	}
	return risks
}

func cloneRisks(risks []RiskItem) []RiskItem {
	if risks == nil {
		return nil
	}
	c := make([]RiskItem, len(risks))
	copy(c, risks)
	return c
}
