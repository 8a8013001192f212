package feedback

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archivelab/docmeta/internal/model"
)

func testRecorder(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLite(filepath.Join(t.TempDir(), "feedback.db"))
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func testReport(runID string) *model.ExtractionReport {
	return &model.ExtractionReport{
		RunID:    runID,
		SourceID: "newsletter-001.txt",
		Profile: model.DocumentProfile{
			Type:    model.DocTypeNewsletter,
			Quality: model.QualityMetrics{Overall: 0.82},
		},
		Fields: []model.FieldResult{
			{
				FieldKey:   "title",
				Value:      "Community Voice",
				Confidence: 0.9,
				Resolution: model.ResolutionAgreement,
				Attempts: []model.ExtractionAttempt{
					{Backend: "phi-title", Value: "Community Voice", Confidence: 0.9, OK: true},
				},
			},
			{
				FieldKey:   "date",
				Resolution: model.ResolutionUnresolved,
			},
		},
		Mode:        model.ModeConsensus,
		Priority:    model.PriorityBalanced,
		TotalTimeMS: 1200,
		CreatedAt:   time.Now().UTC(),
	}
}

func TestRecordAndGetReport(t *testing.T) {
	r := testRecorder(t)
	ctx := context.Background()

	require.NoError(t, r.Record(ctx, testReport("run-1")))

	got, err := r.GetReport(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, "newsletter-001.txt", got.SourceID)
	require.Len(t, got.Fields, 2)
	assert.Equal(t, "Community Voice", got.Field("title").Value)
	assert.Equal(t, []string{"date"}, got.UnresolvedFields())
}

func TestGetReportMissing(t *testing.T) {
	r := testRecorder(t)

	_, err := r.GetReport(context.Background(), "no-such-run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestListRuns(t *testing.T) {
	r := testRecorder(t)
	ctx := context.Background()

	require.NoError(t, r.Record(ctx, testReport("run-1")))
	require.NoError(t, r.Record(ctx, testReport("run-2")))

	runs, err := r.ListRuns(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
	assert.Equal(t, "newsletter", runs[0].DocType)
	assert.InDelta(t, 0.82, runs[0].Quality, 0.001)
}

func TestCorrectionsAndStats(t *testing.T) {
	r := testRecorder(t)
	ctx := context.Background()

	require.NoError(t, r.Record(ctx, testReport("run-1")))
	require.NoError(t, r.RecordCorrection(ctx, Correction{
		RunID:          "run-1",
		FieldKey:       "title",
		OriginalValue:  "Community Voice",
		CorrectedValue: "The Community Voice",
	}))

	stats, err := r.Stats(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 2)

	byKey := map[string]FieldStats{}
	for _, s := range stats {
		byKey[s.FieldKey] = s
	}
	assert.Equal(t, 1, byKey["title"].Corrections)
	assert.Equal(t, 0, byKey["title"].Unresolved)
	assert.Equal(t, 1, byKey["date"].Unresolved)
	assert.InDelta(t, 0.9, byKey["title"].AvgConfidence, 0.001)
}

func TestNopRecorder(t *testing.T) {
	var r Recorder = NopRecorder{}
	assert.NoError(t, r.Record(context.Background(), testReport("run-1")))
	assert.NoError(t, r.RecordCorrection(context.Background(), Correction{}))
}
