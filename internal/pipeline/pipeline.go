// Package pipeline orchestrates one extraction run: analyze the document,
// route each field, execute the tasks, aggregate the attempts, and emit
// the report to the feedback recorder.
package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/archivelab/docmeta/internal/aggregate"
	"github.com/archivelab/docmeta/internal/analyzer"
	"github.com/archivelab/docmeta/internal/catalog"
	"github.com/archivelab/docmeta/internal/cost"
	"github.com/archivelab/docmeta/internal/engine"
	"github.com/archivelab/docmeta/internal/feedback"
	"github.com/archivelab/docmeta/internal/model"
	"github.com/archivelab/docmeta/internal/router"
)

const defaultContextBudget = 2000

// Pipeline wires the run components together. The catalog and field specs
// are immutable and shared; everything else is per-run state.
type Pipeline struct {
	analyzer      *analyzer.Analyzer
	catalog       *catalog.Catalog
	engine        *engine.Engine
	aggregator    *aggregate.Aggregator
	recorder      feedback.Recorder
	costs         *cost.Calculator
	fields        []model.FieldSpec
	contextBudget int

	feedbackWG sync.WaitGroup
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithRecorder sets the feedback recorder. Default is a no-op.
func WithRecorder(r feedback.Recorder) Option {
	return func(p *Pipeline) {
		if r != nil {
			p.recorder = r
		}
	}
}

// WithFields overrides the default field spec set.
func WithFields(fields []model.FieldSpec) Option {
	return func(p *Pipeline) {
		if len(fields) > 0 {
			p.fields = fields
		}
	}
}

// WithRates overrides the default token pricing used for run cost.
func WithRates(rates cost.Rates) Option {
	return func(p *Pipeline) {
		p.costs = cost.NewCalculator(rates)
	}
}

// WithContextBudget caps how many characters of document context each
// task receives.
func WithContextBudget(budget int) Option {
	return func(p *Pipeline) {
		if budget > 0 {
			p.contextBudget = budget
		}
	}
}

// New creates a Pipeline.
func New(an *analyzer.Analyzer, cat *catalog.Catalog, eng *engine.Engine, agg *aggregate.Aggregator, opts ...Option) *Pipeline {
	p := &Pipeline{
		analyzer:      an,
		catalog:       cat,
		engine:        eng,
		aggregator:    agg,
		recorder:      feedback.NopRecorder{},
		costs:         cost.NewCalculator(cost.DefaultRates()),
		fields:        model.DefaultFieldSpecs(),
		contextBudget: defaultContextBudget,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Run extracts all configured fields from one document. Fatal errors
// (empty input, unroutable fields) abort before any backend call; once
// tasks are dispatched the run always produces a report, possibly with
// unresolved fields.
func (p *Pipeline) Run(ctx context.Context, doc model.Document, mode model.Mode, priority model.Priority) (*model.ExtractionReport, error) {
	log := zap.L().With(
		zap.String("source", doc.SourceID),
		zap.String("mode", string(mode)),
		zap.String("priority", string(priority)),
	)
	log.Info("pipeline: starting extraction")
	start := time.Now()

	profile, err := p.analyzer.Analyze(ctx, doc)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: analyze")
	}

	// Route every field before the first backend call so an unroutable
	// field aborts the run while it is still cheap.
	var tasks []model.ExtractionTask
	for _, field := range p.fields {
		backends, err := router.Route(profile, field, priority, mode, p.catalog)
		if err != nil {
			return nil, eris.Wrapf(err, "pipeline: route field %s", field.Key)
		}
		fieldCtx := analyzer.ContextForField(profile, field.Key, p.contextBudget)
		for _, b := range backends {
			tasks = append(tasks, model.ExtractionTask{
				Field:   field,
				Backend: b,
				Context: fieldCtx,
			})
		}
	}

	attempts := p.engine.Execute(ctx, tasks)

	report := &model.ExtractionReport{
		RunID:     uuid.New().String(),
		SourceID:  doc.SourceID,
		Profile:   *profile,
		Mode:      mode,
		Priority:  priority,
		CreatedAt: time.Now().UTC(),
	}
	for _, field := range p.fields {
		report.Fields = append(report.Fields, p.aggregator.Aggregate(field, attempts[field.Key]))
	}
	report.TotalTimeMS = time.Since(start).Milliseconds()
	report.CostUSD = p.runCost(report.Fields)

	log.Info("pipeline: extraction complete",
		zap.String("run_id", report.RunID),
		zap.Int64("total_ms", report.TotalTimeMS),
		zap.Strings("unresolved", report.UnresolvedFields()),
	)

	p.emitFeedback(report)
	return report, nil
}

// runCost sums token spend across all attempts, including failed ones
// that still consumed tokens.
func (p *Pipeline) runCost(fields []model.FieldResult) float64 {
	var total float64
	for _, f := range fields {
		for _, a := range f.Attempts {
			profile, ok := p.catalog.Get(a.Backend)
			if !ok {
				continue
			}
			total += p.costs.Completion(profile.Provider, profile.Model, a.TokensIn, a.TokensOut)
		}
	}
	return total
}

// emitFeedback hands the report to the recorder without blocking the run.
// Recording failures are logged and dropped.
func (p *Pipeline) emitFeedback(report *model.ExtractionReport) {
	p.feedbackWG.Add(1)
	go func() {
		defer p.feedbackWG.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := p.recorder.Record(ctx, report); err != nil {
			zap.L().Warn("pipeline: feedback record failed",
				zap.String("run_id", report.RunID),
				zap.Error(err),
			)
		}
	}()
}

// Wait blocks until outstanding feedback emissions finish. Called before
// process exit so reports are not lost.
func (p *Pipeline) Wait() {
	p.feedbackWG.Wait()
}
