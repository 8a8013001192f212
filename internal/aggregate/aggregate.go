// Package aggregate resolves multi-backend extraction attempts into one
// value and confidence per field. Aggregation is pure: it touches no
// backend and no shared state, so it is fully testable with synthetic
// attempt lists.
package aggregate

import (
	"sort"

	"github.com/archivelab/docmeta/internal/catalog"
	"github.com/archivelab/docmeta/internal/model"
)

// DefaultEpsilon is the confidence gap under which two disagreeing
// attempts are considered tied and resolved by declared accuracy class.
const DefaultEpsilon = 0.05

// Aggregator resolves field attempts. The catalog supplies declared
// accuracy classes for the tie-break; it is never mutated.
type Aggregator struct {
	catalog *catalog.Catalog
	epsilon float64
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithEpsilon overrides the tie-break confidence gap.
func WithEpsilon(eps float64) Option {
	return func(a *Aggregator) {
		if eps >= 0 {
			a.epsilon = eps
		}
	}
}

// New creates an Aggregator backed by the given catalog.
func New(cat *catalog.Catalog, opts ...Option) *Aggregator {
	a := &Aggregator{catalog: cat, epsilon: DefaultEpsilon}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Aggregate turns all attempts for one field into its FieldResult. Every
// attempt, including failed ones and discarded disagreeing values, stays
// in the result for audit.
func (a *Aggregator) Aggregate(field model.FieldSpec, attempts []model.ExtractionAttempt) model.FieldResult {
	result := model.FieldResult{
		FieldKey: field.Key,
		Attempts: attempts,
	}

	type candidate struct {
		attempt    model.ExtractionAttempt
		normalized string
	}
	var ok []candidate
	for _, att := range attempts {
		if att.OK {
			ok = append(ok, candidate{attempt: att, normalized: Normalize(field.Type, att.Value)})
		}
	}

	switch len(ok) {
	case 0:
		result.Resolution = model.ResolutionUnresolved
		return result
	case 1:
		result.Value = ok[0].normalized
		result.Confidence = clamp01(ok[0].attempt.Confidence)
		result.Resolution = model.ResolutionSingleSource
		return result
	}

	agree := true
	for _, c := range ok[1:] {
		if c.normalized != ok[0].normalized {
			agree = false
			break
		}
	}
	if agree {
		max := 0.0
		for _, c := range ok {
			if c.attempt.Confidence > max {
				max = c.attempt.Confidence
			}
		}
		result.Value = ok[0].normalized
		result.Confidence = clamp01(max)
		result.Resolution = model.ResolutionAgreement
		return result
	}

	// Disagreement: order by confidence, then declared accuracy, then
	// backend name so the outcome is deterministic.
	sort.SliceStable(ok, func(i, j int) bool {
		if ok[i].attempt.Confidence != ok[j].attempt.Confidence {
			return ok[i].attempt.Confidence > ok[j].attempt.Confidence
		}
		if ai, aj := a.accuracyRank(ok[i].attempt.Backend), a.accuracyRank(ok[j].attempt.Backend); ai != aj {
			return ai > aj
		}
		return ok[i].attempt.Backend < ok[j].attempt.Backend
	})

	winner := ok[0]
	resolution := model.ResolutionHighestConfidence

	if ok[0].attempt.Confidence-ok[1].attempt.Confidence <= a.epsilon {
		resolution = model.ResolutionAccuracyTiebreak
		best := a.accuracyRank(winner.attempt.Backend)
		for _, c := range ok[1:] {
			if ok[0].attempt.Confidence-c.attempt.Confidence > a.epsilon {
				break
			}
			if r := a.accuracyRank(c.attempt.Backend); r > best {
				winner, best = c, r
			}
		}
	}

	result.Value = winner.normalized
	result.Confidence = clamp01(winner.attempt.Confidence)
	result.Resolution = resolution
	return result
}

// accuracyRank looks up a backend's declared accuracy class. Unknown
// backends rank lowest.
func (a *Aggregator) accuracyRank(backendName string) int {
	if a.catalog == nil {
		return -1
	}
	p, found := a.catalog.Get(backendName)
	if !found {
		return -1
	}
	return p.Accuracy.Rank()
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
