package engine

import (
	"regexp"
	"strings"
)

var (
	isoDate  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	yearOnly = regexp.MustCompile(`^\d{4}$`)
)

// deriveConfidence estimates confidence for backends that do not report
// one, from shape checks on the value plus whether it actually appears in
// the source context.
func deriveConfidence(fieldKey, value, context string) float64 {
	confidence := 0.5

	switch fieldKey {
	case "date":
		if isoDate.MatchString(value) {
			confidence += 0.4
		} else if yearOnly.MatchString(value) {
			confidence += 0.3
		}
	case "title":
		if len(value) >= 10 && len(value) <= 100 {
			confidence += 0.3
		}
		if value != "" && value[0] >= 'A' && value[0] <= 'Z' {
			confidence += 0.1
		}
	case "description":
		if len(value) >= 50 && len(value) <= 500 {
			confidence += 0.3
		}
		if strings.Count(value, ".") >= 2 {
			confidence += 0.1
		}
	case "volume_issue":
		lower := strings.ToLower(value)
		for _, w := range []string{"volume", "vol", "issue", "no"} {
			if strings.Contains(lower, w) {
				confidence += 0.4
				break
			}
		}
	}

	if value != "" && strings.Contains(strings.ToLower(context), strings.ToLower(value)) {
		confidence += 0.1
	}

	if confidence > 1 {
		return 1
	}
	return confidence
}
