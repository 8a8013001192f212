// Package router selects inference backends for a field. Route is a pure
// function of its inputs, so the same document profile, field, priority
// and catalog always produce the same selection.
package router

import (
	"errors"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/archivelab/docmeta/internal/catalog"
	"github.com/archivelab/docmeta/internal/model"
)

// ErrNoEligibleBackend is returned when the catalog holds no backend able
// to serve the requested field.
var ErrNoEligibleBackend = errors.New("no eligible backend")

// lowQualityThreshold marks the overall quality score below which routing
// leans harder on accurate backends.
const lowQualityThreshold = 0.5

// consensusSize is how many backends a consensus-mode field fans out to.
const consensusSize = 2

// Route picks the backends that will serve one field. Parallel mode
// returns exactly one profile; consensus mode returns consensusSize
// profiles and errors when the catalog cannot supply that many.
func Route(profile *model.DocumentProfile, field model.FieldSpec, priority model.Priority, mode model.Mode, cat *catalog.Catalog) ([]model.ModelProfile, error) {
	if cat == nil || cat.Len() == 0 {
		return nil, eris.Wrapf(ErrNoEligibleBackend, "router: empty catalog for field %q", field.Key)
	}

	eligible := cat.Eligible(field.Key)
	if len(eligible) == 0 {
		return nil, eris.Wrapf(ErrNoEligibleBackend, "router: no backend supports field %q", field.Key)
	}

	rank(eligible, priority, profile)

	switch mode {
	case model.ModeConsensus:
		if len(eligible) < consensusSize {
			return nil, eris.Wrapf(ErrNoEligibleBackend,
				"router: consensus needs %d backends for field %q, catalog has %d",
				consensusSize, field.Key, len(eligible))
		}
		return eligible[:consensusSize], nil
	default:
		return eligible[:1], nil
	}
}

// rank orders candidates best-first for the given priority. Sorting is
// total (name is the final key) to keep selection deterministic.
func rank(candidates []model.ModelProfile, priority model.Priority, profile *model.DocumentProfile) {
	lowQuality := profile != nil && profile.Quality.Overall < lowQualityThreshold

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]

		switch priority {
		case model.PrioritySpeed:
			if a.Latency.Rank() != b.Latency.Rank() {
				return a.Latency.Rank() < b.Latency.Rank()
			}
			if a.Accuracy.Rank() != b.Accuracy.Rank() {
				return a.Accuracy.Rank() > b.Accuracy.Rank()
			}
		case model.PriorityAccuracy:
			if a.Accuracy.Rank() != b.Accuracy.Rank() {
				return a.Accuracy.Rank() > b.Accuracy.Rank()
			}
			if a.Latency.Rank() != b.Latency.Rank() {
				return a.Latency.Rank() < b.Latency.Rank()
			}
		default:
			sa, sb := balancedScore(a, lowQuality), balancedScore(b, lowQuality)
			if sa != sb {
				return sa > sb
			}
		}

		if a.CostWeight != b.CostWeight {
			return a.CostWeight < b.CostWeight
		}
		return a.Name < b.Name
	})
}

// balancedScore trades accuracy against latency and cost. Noisy documents
// shift the weight toward accuracy, since cheap models degrade fastest on
// poor OCR text.
func balancedScore(p model.ModelProfile, lowQuality bool) float64 {
	accuracyWeight := 1.5
	if lowQuality {
		accuracyWeight = 3.0
	}
	return accuracyWeight*float64(p.Accuracy.Rank()) - float64(p.Latency.Rank()) - p.CostWeight
}
