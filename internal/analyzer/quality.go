package analyzer

import (
	"strings"
	"unicode"

	"github.com/archivelab/docmeta/internal/model"
)

// qualityMetrics estimates OCR quality from character composition and line
// structure. Noisy text lowers the score; it never causes a failure.
func qualityMetrics(text string) model.QualityMetrics {
	var m model.QualityMetrics
	if text == "" {
		return m
	}

	total := 0
	alpha := 0
	space := 0
	punct := 0
	for _, r := range text {
		total++
		switch {
		case unicode.IsLetter(r):
			alpha++
		case unicode.IsSpace(r):
			space++
		case strings.ContainsRune(".,!?;:", r):
			punct++
		}
	}

	// Readable text is mostly alphabetic with regular spacing and at
	// least some sentence punctuation.
	alphaRatio := float64(alpha) / float64(total)
	spaceRatio := float64(space) / float64(total)
	punctRatio := float64(punct) / float64(total)
	m.TextClarity = clamp01(alphaRatio + spaceRatio*2 + punctRatio*5)

	lines := nonEmptyLines(text)
	if len(lines) > 0 {
		var sum float64
		for _, l := range lines {
			sum += float64(len(l))
		}
		avg := sum / float64(len(lines))

		var variance float64
		for _, l := range lines {
			d := float64(len(l)) - avg
			variance += d * d
		}
		variance /= float64(len(lines))

		m.StructureClarity = clamp01((avg / 100) * (1 - variance/10000))
	}

	hasBeginning := len(text) > 100
	trimmed := strings.TrimSpace(text)
	hasEnd := strings.HasSuffix(trimmed, ".") || strings.HasSuffix(trimmed, "!") ||
		strings.HasSuffix(trimmed, "?") || strings.HasSuffix(trimmed, `"`) || len(text) > 500
	hasStructure := len(lines) > 3
	m.Completeness = (b2f(hasBeginning) + b2f(hasEnd) + b2f(hasStructure)) / 3

	m.Overall = clamp01(m.TextClarity*0.4 + m.StructureClarity*0.3 + m.Completeness*0.3)
	return m
}

func nonEmptyLines(text string) []string {
	var out []string
	for _, l := range strings.Split(text, "\n") {
		if s := strings.TrimSpace(l); s != "" {
			out = append(out, s)
		}
	}
	return out
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

func b2f(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
