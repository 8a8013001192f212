// Package feedback persists extraction outcomes and later human
// corrections. The pipeline only emits events here; learning from them is
// out-of-band tooling reading the same store.
package feedback

import (
	"context"
	"time"

	"github.com/archivelab/docmeta/internal/model"
)

// Correction is a human-supplied ground-truth value for one field of a
// past run.
type Correction struct {
	ID             string    `json:"id"`
	RunID          string    `json:"run_id"`
	FieldKey       string    `json:"field_key"`
	OriginalValue  string    `json:"original_value"`
	CorrectedValue string    `json:"corrected_value"`
	CreatedAt      time.Time `json:"created_at"`
}

// Recorder receives final reports and corrections. Implementations must
// tolerate being called after the run already returned to the user; a
// recording failure never fails a run.
type Recorder interface {
	Record(ctx context.Context, report *model.ExtractionReport) error
	RecordCorrection(ctx context.Context, c Correction) error
}

// NopRecorder discards everything. Used when no feedback store is
// configured.
type NopRecorder struct{}

// Record implements Recorder.
func (NopRecorder) Record(context.Context, *model.ExtractionReport) error { return nil }

// RecordCorrection implements Recorder.
func (NopRecorder) RecordCorrection(context.Context, Correction) error { return nil }

var _ Recorder = NopRecorder{}
