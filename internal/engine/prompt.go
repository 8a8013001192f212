package engine

import (
	"fmt"
	"strings"

	"github.com/archivelab/docmeta/internal/model"
)

// answerSystemPrompt pins every backend to the same JSON answer contract
// so parsing stays uniform across providers.
const answerSystemPrompt = `You extract metadata fields from OCR-corrected archival documents. Respond with only a valid JSON object: {"value": <extracted value or null>, "confidence": <0.0-1.0>}. Use null for value when the document does not contain the requested field. Never invent information that is not in the text.`

// userPrompt assembles the per-task instruction: the field's prompt, its
// output format hint, and the analyzer-selected context.
func userPrompt(task model.ExtractionTask) string {
	var b strings.Builder
	b.WriteString(task.Field.Prompt)
	if task.Field.OutputHint != "" {
		fmt.Fprintf(&b, "\nAnswer format: %s", task.Field.OutputHint)
	}
	b.WriteString("\n\nText to analyze:\n")
	b.WriteString(task.Context)
	b.WriteString("\n\nExtraction:")
	return b.String()
}
