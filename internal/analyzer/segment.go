package analyzer

import (
	"regexp"
	"strings"

	"github.com/archivelab/docmeta/internal/model"
)

var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b\d{1,2}[/\-.]\d{1,2}[/\-.]\d{2,4}\b`),
	regexp.MustCompile(`\b\d{4}[/\-.]\d{1,2}[/\-.]\d{1,2}\b`),
	regexp.MustCompile(`(?i)\b(?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2},?\s+\d{4}\b`),
	regexp.MustCompile(`(?i)\b(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)\.?\s+\d{1,2},?\s+\d{4}\b`),
	regexp.MustCompile(`(?i)\b\d{1,2}\s+(?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{4}\b`),
	regexp.MustCompile(`(?i)\b(?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{4}\b`),
}

var titleIndicators = []*regexp.Regexp{
	regexp.MustCompile(`^[A-Z][A-Z\s]{5,50}$`),
	regexp.MustCompile(`^[A-Z][a-zA-Z\s]{10,80}$`),
	regexp.MustCompile(`(?i)^\s*(?:Re:|Subject:|Title:)\s*(.+)$`),
}

var signaturePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:Sincerely|Best regards|Yours truly|Cordially|Respectfully)\b`),
	regexp.MustCompile(`(?i)\b(?:Signed|Signature)\s*:`),
}

var metadataPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:Volume|Vol\.?)\s*\d+`),
	regexp.MustCompile(`(?i)\b(?:Issue|No\.?)\s*\d+`),
	regexp.MustCompile(`(?i)\b(?:Page|P\.?)\s*\d+`),
	regexp.MustCompile(`(?i)\b(?:Edition|Ed\.?)\s*\d+`),
}

// isoDatePattern matches an already-canonical date, which gets the highest
// segment confidence.
var isoDatePattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

var monthDatePattern = regexp.MustCompile(`(?i)\b(?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2},?\s+\d{4}\b`)

// segmentText splits document text into classified spans, one per
// non-empty line. Role assignment depends on line position as well as
// content: titles live near the top, signatures near the bottom.
func segmentText(text string) []model.Segment {
	lines := strings.Split(text, "\n")
	var segments []model.Segment

	offset := 0
	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		pos := offset
		offset += len(raw) + 1
		if line == "" {
			continue
		}

		role := classifyLine(line, i, len(lines))
		segments = append(segments, model.Segment{
			Content:    line,
			Role:       role,
			Confidence: segmentConfidence(line, role),
			Line:       i,
			Offset:     pos,
		})
	}

	return segments
}

func classifyLine(line string, lineNum, totalLines int) model.SegmentRole {
	for _, p := range datePatterns {
		if p.MatchString(line) {
			return model.RoleDate
		}
	}

	// Metadata markers are more specific than the loose title heuristics
	// below, so they win even in the first few lines.
	for _, p := range metadataPatterns {
		if p.MatchString(line) {
			return model.RoleMetadata
		}
	}

	if lineNum < 5 {
		for _, p := range titleIndicators {
			if p.MatchString(line) {
				return model.RoleTitle
			}
		}
		if len(line) > 10 && isUpperByte(line[0]) && strings.Count(line, " ") < 8 {
			return model.RoleTitle
		}
	}

	if lineNum < 3 || (len(line) < 50 && line == strings.ToUpper(line) && strings.ContainsFunc(line, isLetterRune)) {
		return model.RoleHeader
	}

	if lineNum > totalLines-10 {
		for _, p := range signaturePatterns {
			if p.MatchString(line) {
				return model.RoleSignature
			}
		}
	}

	return model.RoleBody
}

func segmentConfidence(line string, role model.SegmentRole) float64 {
	const base = 0.6

	switch role {
	case model.RoleDate:
		if isoDatePattern.MatchString(line) {
			return 0.9
		}
		if monthDatePattern.MatchString(line) {
			return 0.8
		}
	case model.RoleTitle:
		if line == strings.ToUpper(line) && len(line) >= 10 && len(line) <= 60 {
			return 0.8
		}
		if isUpperByte(line[0]) && strings.Count(line, " ") < 8 {
			return 0.7
		}
	case model.RoleSignature:
		lower := strings.ToLower(line)
		for _, w := range []string{"sincerely", "regards", "yours"} {
			if strings.Contains(lower, w) {
				return 0.9
			}
		}
	}

	return base
}

func isUpperByte(b byte) bool {
	return b >= 'A' && b <= 'Z'
}

func isLetterRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// ContextForField selects the segments most relevant to a field and joins
// them within a character budget, falling back to the document head when
// no segment carries a matching role.
func ContextForField(profile *model.DocumentProfile, fieldKey string, budget int) string {
	var picked []model.Segment

	switch fieldKey {
	case "title":
		picked = append(profile.SegmentsByRole(model.RoleTitle), profile.SegmentsByRole(model.RoleHeader)...)
	case "date":
		picked = append(profile.SegmentsByRole(model.RoleDate), profile.SegmentsByRole(model.RoleHeader)...)
	case "description":
		body := profile.SegmentsByRole(model.RoleBody)
		if len(body) > 10 {
			body = body[:10]
		}
		picked = body
	case "volume_issue":
		picked = append(profile.SegmentsByRole(model.RoleMetadata), profile.SegmentsByRole(model.RoleHeader)...)
	}

	if len(picked) == 0 {
		picked = profile.Segments
		if len(picked) > 20 {
			picked = picked[:20]
		}
	}

	seen := make(map[int]bool, len(picked))
	var parts []string
	total := 0
	for _, s := range picked {
		if seen[s.Line] {
			continue
		}
		seen[s.Line] = true
		if total+len(s.Content) > budget {
			break
		}
		parts = append(parts, s.Content)
		total += len(s.Content)
	}

	return strings.Join(parts, "\n")
}
