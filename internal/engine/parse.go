package engine

import (
	"encoding/json"
	"fmt"
	"strings"
)

// parseAnswer extracts the value and any backend-reported confidence from
// a completion. Backends that ignore the JSON contract still contribute:
// their raw text becomes the value and confidence is derived instead.
func parseAnswer(text string) (value string, confidence float64, reported bool) {
	cleaned := cleanJSON(text)

	var parsed struct {
		Value      any      `json:"value"`
		Confidence *float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return strings.TrimSpace(text), 0, false
	}

	switch v := parsed.Value.(type) {
	case nil:
		value = ""
	case string:
		value = strings.TrimSpace(v)
	case float64:
		if v == float64(int64(v)) {
			value = fmt.Sprintf("%d", int64(v))
		} else {
			value = fmt.Sprintf("%g", v)
		}
	default:
		raw, _ := json.Marshal(v)
		value = string(raw)
	}

	if parsed.Confidence != nil && *parsed.Confidence > 0 && *parsed.Confidence <= 1 {
		return value, *parsed.Confidence, true
	}
	return value, 0, false
}

// isEmptyAnswer reports whether a value is a refusal rather than data.
// Only explicit null markers count; a short odd answer like "No" is still
// data and is left for confidence scoring to discount.
func isEmptyAnswer(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "none", "null", "not found", "n/a", "unknown":
		return true
	}
	return false
}

// cleanJSON extracts a JSON object from text that may be wrapped in
// markdown code fences or surrounding prose.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}
