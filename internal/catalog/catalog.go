// Package catalog holds the immutable registry of inference backends and
// their declared strengths. A catalog is built once at startup, from the
// defaults or a YAML file, and is only read during runs.
package catalog

import (
	"os"
	"sort"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/archivelab/docmeta/internal/model"
)

// Catalog is an immutable set of ModelProfiles keyed by name.
type Catalog struct {
	profiles []model.ModelProfile
	byName   map[string]model.ModelProfile
}

// New builds a catalog from the given profiles. Names must be unique and
// classes must be known values.
func New(profiles []model.ModelProfile) (*Catalog, error) {
	c := &Catalog{
		profiles: make([]model.ModelProfile, 0, len(profiles)),
		byName:   make(map[string]model.ModelProfile, len(profiles)),
	}
	for _, p := range profiles {
		if p.Name == "" {
			return nil, eris.New("catalog: profile with empty name")
		}
		if _, dup := c.byName[p.Name]; dup {
			return nil, eris.Errorf("catalog: duplicate profile %q", p.Name)
		}
		if p.Latency == "" {
			p.Latency = model.LatencyStandard
		}
		if p.Accuracy == "" {
			p.Accuracy = model.AccuracyStandard
		}
		if !validLatency(p.Latency) {
			return nil, eris.Errorf("catalog: profile %q: unknown latency class %q", p.Name, p.Latency)
		}
		if !validAccuracy(p.Accuracy) {
			return nil, eris.Errorf("catalog: profile %q: unknown accuracy class %q", p.Name, p.Accuracy)
		}
		c.byName[p.Name] = p
		c.profiles = append(c.profiles, p)
	}
	sort.Slice(c.profiles, func(i, j int) bool {
		return c.profiles[i].Name < c.profiles[j].Name
	})
	return c, nil
}

func validLatency(l model.LatencyClass) bool {
	switch l {
	case model.LatencyFast, model.LatencyStandard, model.LatencySlow:
		return true
	}
	return false
}

func validAccuracy(a model.AccuracyClass) bool {
	switch a {
	case model.AccuracyApproximate, model.AccuracyStandard, model.AccuracyHigh:
		return true
	}
	return false
}

// Load reads a catalog from a YAML file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "catalog: read %s", path)
	}
	var doc struct {
		Models []model.ModelProfile `yaml:"models"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, eris.Wrapf(err, "catalog: parse %s", path)
	}
	if len(doc.Models) == 0 {
		return nil, eris.Errorf("catalog: %s defines no models", path)
	}
	return New(doc.Models)
}

// Len reports how many profiles the catalog holds.
func (c *Catalog) Len() int { return len(c.profiles) }

// Get returns the profile registered under name.
func (c *Catalog) Get(name string) (model.ModelProfile, bool) {
	p, ok := c.byName[name]
	return p, ok
}

// Profiles returns a copy of all profiles, sorted by name.
func (c *Catalog) Profiles() []model.ModelProfile {
	out := make([]model.ModelProfile, len(c.profiles))
	copy(out, c.profiles)
	return out
}

// Eligible returns the profiles that declare support for the field, sorted
// by name so selection downstream stays deterministic.
func (c *Catalog) Eligible(fieldKey string) []model.ModelProfile {
	var out []model.ModelProfile
	for _, p := range c.profiles {
		if p.Supports(fieldKey) {
			out = append(out, p)
		}
	}
	return out
}

// Default returns the built-in catalog: one small local specialist per
// field, plus two hosted generalists for consensus and accuracy-priority
// runs.
func Default() *Catalog {
	c, err := New([]model.ModelProfile{
		{
			Name:        "phi-title",
			Provider:    "ollama",
			Model:       "phi3.5:3.8b",
			Latency:     model.LatencyFast,
			Accuracy:    model.AccuracyStandard,
			CostWeight:  0.1,
			Tags:        []string{"title"},
			Temperature: 0.1,
		},
		{
			Name:        "llama-date",
			Provider:    "ollama",
			Model:       "llama3.2:1b",
			Latency:     model.LatencyFast,
			Accuracy:    model.AccuracyApproximate,
			CostWeight:  0.05,
			Tags:        []string{"date"},
			Temperature: 0.05,
		},
		{
			Name:        "qwen-description",
			Provider:    "ollama",
			Model:       "qwen2.5:3b",
			Latency:     model.LatencyFast,
			Accuracy:    model.AccuracyStandard,
			CostWeight:  0.1,
			Tags:        []string{"description"},
			Temperature: 0.2,
		},
		{
			Name:        "gemma-volume",
			Provider:    "ollama",
			Model:       "gemma2:2b",
			Latency:     model.LatencyFast,
			Accuracy:    model.AccuracyApproximate,
			CostWeight:  0.05,
			Tags:        []string{"volume_issue"},
			Temperature: 0.05,
		},
		{
			Name:       "claude",
			Provider:   "anthropic",
			Model:      "claude-sonnet-4-5",
			Latency:    model.LatencySlow,
			Accuracy:   model.AccuracyHigh,
			CostWeight: 1.0,
		},
		{
			Name:       "gemini",
			Provider:   "gemini",
			Model:      "gemini-1.5-flash",
			Latency:    model.LatencyStandard,
			Accuracy:   model.AccuracyStandard,
			CostWeight: 0.4,
		},
	})
	if err != nil {
		panic(err)
	}
	return c
}
