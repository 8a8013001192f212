package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/archivelab/docmeta/internal/model"
)

// FieldOutput is one field in the output record.
type FieldOutput struct {
	Value      any      `json:"value"`
	Confidence float64  `json:"confidence"`
	Resolution string   `json:"resolution"`
	Models     []string `json:"models,omitempty"`
}

// BuildRecord flattens a report into the output mapping: one entry per
// field plus extraction_metadata and document_analysis.
func BuildRecord(report *model.ExtractionReport) map[string]any {
	record := make(map[string]any, len(report.Fields)+2)

	for _, f := range report.Fields {
		record[f.FieldKey] = FieldOutput{
			Value:      f.Value,
			Confidence: f.Confidence,
			Resolution: string(f.Resolution),
			Models:     f.Models(),
		}
	}

	record["extraction_metadata"] = map[string]any{
		"run_id":        report.RunID,
		"source_id":     report.SourceID,
		"mode":          string(report.Mode),
		"priority":      string(report.Priority),
		"total_time_ms": report.TotalTimeMS,
		"cost_usd":      report.CostUSD,
		"created_at":    report.CreatedAt,
	}
	record["document_analysis"] = map[string]any{
		"document_type":    string(report.Profile.Type),
		"type_confidence":  report.Profile.TypeConfidence,
		"quality_score":    report.Profile.Quality.Overall,
		"text_clarity":     report.Profile.Quality.TextClarity,
		"completeness":     report.Profile.Quality.Completeness,
		"segments":         len(report.Profile.Segments),
		"total_lines":      report.Profile.TotalLines,
		"classifier_model": report.Profile.ClassifierModel,
	}

	return record
}

// MarshalRecord renders the output record as indented JSON.
func MarshalRecord(report *model.ExtractionReport) ([]byte, error) {
	out, err := json.MarshalIndent(BuildRecord(report), "", "  ")
	return out, eris.Wrap(err, "pipeline: marshal record")
}

// Summary renders a short human-readable view of a run for terminal
// output.
func Summary(report *model.ExtractionReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "source: %s\n", report.SourceID)
	fmt.Fprintf(&b, "type:   %s (%.2f)  quality: %.2f\n",
		report.Profile.Type, report.Profile.TypeConfidence, report.Profile.Quality.Overall)
	fmt.Fprintf(&b, "mode:   %s/%s  took %dms  cost $%.4f\n\n", report.Mode, report.Priority, report.TotalTimeMS, report.CostUSD)

	for _, f := range report.Fields {
		if f.Unresolved() {
			fmt.Fprintf(&b, "  %-14s <unresolved>\n", f.FieldKey)
			continue
		}
		fmt.Fprintf(&b, "  %-14s %v  (%.2f, %s", f.FieldKey, f.Value, f.Confidence, f.Resolution)
		if models := f.Models(); len(models) > 0 {
			fmt.Fprintf(&b, " via %s", strings.Join(models, "+"))
		}
		b.WriteString(")\n")
	}

	return b.String()
}
