package analysis

import (
	"fmt"

	domanalysis "github.com/hangarops/docsense/internal/domain/analysis"
)

// maxDocumentChars caps how much extracted text is sent to the model.
const maxDocumentChars = 30000

const summarySystemPrompt = `You are a technical document analyst. ` +
	`Summarize the document concisely for an engineering audience. ` +
	`Use at most 10 lines of plain text. Do not add headings or bullet markers.`

const riskSystemPrompt = `You are a risk assessment analyst. ` +
	`Identify the operational, safety, and compliance risks described in or implied by the document. ` +
	`Respond with a single JSON object of the form ` +
	`{"narrative": string, "risks": [{"title": string, "description": string, "score": number}]}. ` +
	`"narrative" is a short prose assessment. Each risk score is an integer from 0 (negligible) to ` +
	`100 (critical). Return an empty "risks" array when the document describes no risks.`

func summaryUserPrompt(title, text string) string {
	return fmt.Sprintf("Document: %s\n\n%s", title, truncate(text, maxDocumentChars))
}

func riskUserPrompt(title, summary, text string) string {
	return fmt.Sprintf(
		"Document: %s\n\nSummary:\n%s\n\nFull text:\n%s",
		title, summary, truncate(text, maxDocumentChars),
	)
}

// riskPayload is the JSON object the model must return in JSON mode.
type riskPayload struct {
	Narrative string                 `json:"narrative"`
	Risks     []domanalysis.RiskItem `json:"risks"`
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	// Cut on a rune boundary.
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
