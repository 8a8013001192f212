package model

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// FieldValueType describes the expected shape of an extracted value.
type FieldValueType string

const (
	ValueTypeText       FieldValueType = "text"
	ValueTypeDate       FieldValueType = "date"
	ValueTypeStructured FieldValueType = "structured"
)

// FieldSpec is the static description of one extractable metadata field.
// Specs are immutable and shared across runs.
type FieldSpec struct {
	Key        string         `json:"key" yaml:"key"`
	Type       FieldValueType `json:"type" yaml:"type"`
	Prompt     string         `json:"prompt" yaml:"prompt"`
	OutputHint string         `json:"output_hint" yaml:"output_hint"`
	MaxTokens  int64          `json:"max_tokens" yaml:"max_tokens"`
}

// DefaultFieldSpecs returns the built-in metadata field set.
func DefaultFieldSpecs() []FieldSpec {
	return []FieldSpec{
		{
			Key:        "title",
			Type:       ValueTypeText,
			Prompt:     "Extract the main title or subject of the document.",
			OutputHint: "a short title string",
			MaxTokens:  64,
		},
		{
			Key:        "date",
			Type:       ValueTypeDate,
			Prompt:     "Extract the publication or writing date of the document.",
			OutputHint: "YYYY-MM-DD, or YYYY if only the year is known",
			MaxTokens:  32,
		},
		{
			Key:        "description",
			Type:       ValueTypeText,
			Prompt:     "Write a brief summary of the document's content.",
			OutputHint: "one or two sentences",
			MaxTokens:  256,
		},
		{
			Key:        "volume_issue",
			Type:       ValueTypeStructured,
			Prompt:     "Extract the volume and issue numbers, if any.",
			OutputHint: `"Volume N, Issue M", "Issue M", or null`,
			MaxTokens:  64,
		},
	}
}

// fieldSpecFile is the on-disk shape of a field spec set.
type fieldSpecFile struct {
	Fields []FieldSpec `yaml:"fields"`
}

// LoadFieldSpecs reads a field spec set from a YAML file. Specs with an
// empty key are rejected; a missing MaxTokens falls back to 128.
func LoadFieldSpecs(path string) ([]FieldSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "fields: read spec file")
	}

	var f fieldSpecFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrap(err, "fields: parse spec file")
	}
	if len(f.Fields) == 0 {
		return nil, eris.New("fields: spec file defines no fields")
	}

	for i := range f.Fields {
		if f.Fields[i].Key == "" {
			return nil, eris.Errorf("fields: spec %d has no key", i)
		}
		if f.Fields[i].Type == "" {
			f.Fields[i].Type = ValueTypeText
		}
		if f.Fields[i].MaxTokens <= 0 {
			f.Fields[i].MaxTokens = 128
		}
	}
	return f.Fields, nil
}
