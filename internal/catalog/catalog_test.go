package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/archivelab/docmeta/internal/model"
)

func TestNewRejectsDuplicates(t *testing.T) {
	_, err := New([]model.ModelProfile{
		{Name: "a", Provider: "ollama", Model: "m"},
		{Name: "a", Provider: "ollama", Model: "m"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestNewRejectsUnknownClasses(t *testing.T) {
	_, err := New([]model.ModelProfile{
		{Name: "a", Latency: "warp"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "latency")
}

func TestNewDefaultsEmptyClasses(t *testing.T) {
	c, err := New([]model.ModelProfile{{Name: "a", Provider: "ollama", Model: "m"}})
	require.NoError(t, err)

	p, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, model.LatencyStandard, p.Latency)
	assert.Equal(t, model.AccuracyStandard, p.Accuracy)
}

func TestEligibleByTag(t *testing.T) {
	c, err := New([]model.ModelProfile{
		{Name: "dates-only", Tags: []string{"date"}},
		{Name: "generalist"},
	})
	require.NoError(t, err)

	got := c.Eligible("date")
	require.Len(t, got, 2)

	got = c.Eligible("title")
	require.Len(t, got, 1)
	assert.Equal(t, "generalist", got[0].Name)
}

func TestEligibleIsSorted(t *testing.T) {
	c, err := New([]model.ModelProfile{
		{Name: "zeta"},
		{Name: "alpha"},
		{Name: "mid"},
	})
	require.NoError(t, err)

	got := c.Eligible("title")
	require.Len(t, got, 3)
	assert.Equal(t, "alpha", got[0].Name)
	assert.Equal(t, "zeta", got[2].Name)
}

func TestDefaultCatalog(t *testing.T) {
	c := Default()
	assert.Equal(t, 6, c.Len())

	// Every default field has at least one local specialist plus the
	// hosted generalists available for consensus.
	for _, spec := range model.DefaultFieldSpecs() {
		eligible := c.Eligible(spec.Key)
		assert.GreaterOrEqual(t, len(eligible), 3, spec.Key)
	}

	p, ok := c.Get("llama-date")
	require.True(t, ok)
	assert.Equal(t, model.LatencyFast, p.Latency)
	assert.True(t, p.Supports("date"))
	assert.False(t, p.Supports("title"))
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "models.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
models:
  - name: local
    provider: ollama
    model: llama3.2:1b
    latency: fast
    accuracy: approximate
    cost_weight: 0.05
    tags: [date]
  - name: hosted
    provider: anthropic
    model: claude-sonnet-4-5
    latency: slow
    accuracy: high
    cost_weight: 1.0
`), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())

	p, ok := c.Get("local")
	require.True(t, ok)
	assert.Equal(t, []string{"date"}, p.Tags)
}

func TestLoadEmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "models.yaml")
	require.NoError(t, os.WriteFile(path, []byte("models: []\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}
