package model

import "time"

// ExtractionTask is one (field, backend, document) unit of work. Tasks are
// created by the router and consumed exactly once by the engine.
type ExtractionTask struct {
	Field   FieldSpec
	Backend ModelProfile
	// Context is the analyzer-selected text handed to the backend for
	// this field, already trimmed to a char budget.
	Context string
}

// FailureReason classifies why an attempt produced no value.
type FailureReason string

const (
	FailureBackendError FailureReason = "backend_error"
	FailureTimeout      FailureReason = "timeout"
	FailureCanceled     FailureReason = "canceled"
	FailureEmptyAnswer  FailureReason = "empty_answer"
)

// ExtractionAttempt is the immutable result of executing one task.
type ExtractionAttempt struct {
	Backend    string        `json:"backend"`
	Model      string        `json:"model"`
	Value      string        `json:"value,omitempty"`
	Confidence float64       `json:"confidence"`
	// Reported is true when the confidence came from the backend itself
	// rather than being derived heuristically.
	Reported  bool          `json:"reported_confidence"`
	LatencyMS int64         `json:"latency_ms"`
	TokensIn  int64         `json:"tokens_in,omitempty"`
	TokensOut int64         `json:"tokens_out,omitempty"`
	OK        bool          `json:"ok"`
	Reason    FailureReason `json:"failure_reason,omitempty"`
	Err       string        `json:"error,omitempty"`
}

// Resolution names the rule that picked a field's final value.
type Resolution string

const (
	ResolutionSingleSource      Resolution = "single_source"
	ResolutionAgreement         Resolution = "agreement"
	ResolutionHighestConfidence Resolution = "highest_confidence"
	ResolutionAccuracyTiebreak  Resolution = "accuracy_tiebreak"
	ResolutionUnresolved        Resolution = "unresolved"
)

// FieldResult is the aggregated outcome for one field. Value is nil only
// when Resolution is unresolved; Confidence is always in [0,1]. The full
// attempt list is retained for audit, including discarded values.
type FieldResult struct {
	FieldKey   string              `json:"field_key"`
	Value      any                 `json:"value"`
	Confidence float64             `json:"confidence"`
	Resolution Resolution          `json:"resolution"`
	Attempts   []ExtractionAttempt `json:"attempts"`
}

// Unresolved reports whether every attempt for the field failed.
func (r FieldResult) Unresolved() bool {
	return r.Resolution == ResolutionUnresolved
}

// Models returns the backend names that contributed a successful attempt.
func (r FieldResult) Models() []string {
	var out []string
	for _, a := range r.Attempts {
		if a.OK {
			out = append(out, a.Backend)
		}
	}
	return out
}

// ExtractionReport is the full outcome of one run.
type ExtractionReport struct {
	RunID       string          `json:"run_id"`
	SourceID    string          `json:"source_id"`
	Profile     DocumentProfile `json:"document_profile"`
	Fields      []FieldResult   `json:"fields"`
	Mode        Mode            `json:"mode"`
	Priority    Priority        `json:"priority"`
	TotalTimeMS int64           `json:"total_time_ms"`
	CostUSD     float64         `json:"cost_usd"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Field returns the result for a field key, or nil if absent.
func (r *ExtractionReport) Field(key string) *FieldResult {
	for i := range r.Fields {
		if r.Fields[i].FieldKey == key {
			return &r.Fields[i]
		}
	}
	return nil
}

// UnresolvedFields returns the field keys that could not be resolved.
func (r *ExtractionReport) UnresolvedFields() []string {
	var out []string
	for _, f := range r.Fields {
		if f.Unresolved() {
			out = append(out, f.FieldKey)
		}
	}
	return out
}
