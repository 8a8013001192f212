package aggregate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/araddon/dateparse"

	"github.com/archivelab/docmeta/internal/model"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	yearOnly      = regexp.MustCompile(`^\d{4}$`)
	isoDate       = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	volumePattern = regexp.MustCompile(`(?i)\b(?:volume|vol)\.?\s*(\d+)`)
	issuePattern  = regexp.MustCompile(`(?i)\b(?:issue|no|number)\.?\s*(\d+)`)
)

// Normalize canonicalizes a raw attempt value so that semantically equal
// answers from different backends compare equal. "Jan 6, 1986" and
// "1986-01-06" agree; "Vol. 3 No. 1" and "Volume 3, Issue 1" agree.
func Normalize(valueType model.FieldValueType, raw string) string {
	cleaned := cleanText(raw)
	if cleaned == "" {
		return ""
	}

	switch valueType {
	case model.ValueTypeDate:
		return normalizeDate(cleaned)
	case model.ValueTypeStructured:
		return normalizeVolumeIssue(cleaned)
	default:
		return cleaned
	}
}

func cleanText(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.Trim(s, `"'`)
	s = whitespaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// normalizeDate canonicalizes to YYYY-MM-DD, or a bare year when that is
// all the value carries. Unparseable values pass through cleaned, so a
// disagreement stays visible instead of being masked by an empty string.
func normalizeDate(cleaned string) string {
	if isoDate.MatchString(cleaned) || yearOnly.MatchString(cleaned) {
		return cleaned
	}
	t, err := dateparse.ParseAny(cleaned)
	if err != nil {
		return cleaned
	}
	return t.Format("2006-01-02")
}

func normalizeVolumeIssue(cleaned string) string {
	vol := volumePattern.FindStringSubmatch(cleaned)
	iss := issuePattern.FindStringSubmatch(cleaned)

	switch {
	case vol != nil && iss != nil:
		return fmt.Sprintf("Volume %s, Issue %s", vol[1], iss[1])
	case vol != nil:
		return fmt.Sprintf("Volume %s", vol[1])
	case iss != nil:
		return fmt.Sprintf("Issue %s", iss[1])
	default:
		return cleaned
	}
}
