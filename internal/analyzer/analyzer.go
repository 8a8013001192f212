// Package analyzer derives a structural and quality profile from corrected
// document text. The profile steers backend routing and prompt context
// selection; it is computed once per run and never mutated.
package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/archivelab/docmeta/internal/backend"
	"github.com/archivelab/docmeta/internal/model"
)

// ErrEmptyDocument is returned when the input text is empty or whitespace.
var ErrEmptyDocument = errors.New("document text is empty")

var letterPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bdear\b`),
	regexp.MustCompile(`(?i)\bsincerely\b`),
	regexp.MustCompile(`(?i)\byours\b`),
	regexp.MustCompile(`(?i)\bbest regards\b`),
	regexp.MustCompile(`(?i)\bfrom:`),
	regexp.MustCompile(`(?i)\bto:`),
	regexp.MustCompile(`(?i)\bsubject:`),
}

var newsletterPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bvolume\b`),
	regexp.MustCompile(`(?i)\bissue\b`),
	regexp.MustCompile(`(?i)\bnewsletter\b`),
	regexp.MustCompile(`(?i)\bpublication\b`),
	regexp.MustCompile(`(?i)\beditor\b`),
	regexp.MustCompile(`(?i)\barticles?\b`),
}

var reportPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\breport\b`),
	regexp.MustCompile(`(?i)\banalysis\b`),
	regexp.MustCompile(`(?i)\bfindings\b`),
	regexp.MustCompile(`(?i)\bconclusion\b`),
	regexp.MustCompile(`(?i)\bexecutive summary\b`),
	regexp.MustCompile(`(?i)\brecommendations?\b`),
}

const classifySystemPrompt = `Classify the document into exactly one document type: letter, newsletter, report, article, form. Respond with a valid JSON object: {"document_type": "<type>", "confidence": <0.0-1.0>}`

// typeScoreThreshold is the minimum pattern hits before a heuristic type
// is trusted without asking a classifier.
const typeScoreThreshold = 2

// classifyBudget caps how much text is sent to the classifier backend.
const classifyBudget = 2000

// Analyzer produces DocumentProfiles.
type Analyzer struct {
	classifier backend.Backend
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithClassifier sets a backend used for one delegated document-type
// classification call when the heuristics are inconclusive. The analyzer
// never retries the call; a failure just leaves the type unknown.
func WithClassifier(b backend.Backend) Option {
	return func(a *Analyzer) {
		a.classifier = b
	}
}

// New creates an Analyzer.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Analyze inspects corrected text and returns its profile. The only fatal
// condition is empty or whitespace-only input; noisy OCR text lowers the
// quality score instead of failing.
func (a *Analyzer) Analyze(ctx context.Context, doc model.Document) (*model.DocumentProfile, error) {
	if strings.TrimSpace(doc.Text) == "" {
		return nil, eris.Wrap(ErrEmptyDocument, "analyzer")
	}

	segments := segmentText(doc.Text)
	lines := strings.Split(doc.Text, "\n")

	profile := &model.DocumentProfile{
		Segments:   segments,
		Quality:    qualityMetrics(doc.Text),
		TotalLines: len(lines),
		TotalChars: len(doc.Text),
	}
	if len(lines) > 0 {
		var sum int
		for _, l := range lines {
			sum += len(l)
		}
		profile.AvgLineLength = float64(sum) / float64(len(lines))
	}

	profile.Type, profile.TypeConfidence = detectType(doc.Text)

	if profile.Type == model.DocTypeUnknown && a.classifier != nil {
		if t, conf, modelName := a.classifyWithBackend(ctx, doc.Text); t != model.DocTypeUnknown {
			profile.Type = t
			profile.TypeConfidence = conf
			profile.ClassifierModel = modelName
		}
	}

	zap.L().Debug("analyzer: profile complete",
		zap.String("source", doc.SourceID),
		zap.String("document_type", string(profile.Type)),
		zap.Float64("quality", profile.Quality.Overall),
		zap.Int("segments", len(profile.Segments)),
	)

	return profile, nil
}

// detectType scores the text against per-type pattern sets. The scores are
// a pure function of the text, so repeated analysis is reproducible.
func detectType(text string) (model.DocumentType, float64) {
	letter := countMatches(text, letterPatterns)
	newsletter := countMatches(text, newsletterPatterns)
	report := countMatches(text, reportPatterns)

	switch {
	case letter >= typeScoreThreshold && letter >= newsletter && letter >= report:
		return model.DocTypeLetter, 0.8
	case newsletter >= typeScoreThreshold && newsletter >= report:
		return model.DocTypeNewsletter, 0.7
	case report >= typeScoreThreshold:
		return model.DocTypeReport, 0.7
	default:
		return model.DocTypeUnknown, 0.5
	}
}

func countMatches(text string, patterns []*regexp.Regexp) int {
	n := 0
	for _, p := range patterns {
		if p.MatchString(text) {
			n++
		}
	}
	return n
}

// classifyWithBackend makes exactly one classification call. Retry policy
// belongs to the caller, so any failure is logged and swallowed.
func (a *Analyzer) classifyWithBackend(ctx context.Context, text string) (model.DocumentType, float64, string) {
	excerpt := text
	if len(excerpt) > classifyBudget {
		cut := classifyBudget
		// Back off to a rune boundary so the excerpt stays valid UTF-8.
		for cut > 0 && !utf8.RuneStart(excerpt[cut]) {
			cut--
		}
		excerpt = excerpt[:cut]
	}

	resp, err := a.classifier.Complete(ctx, backend.Request{
		System:    classifySystemPrompt,
		Prompt:    excerpt,
		MaxTokens: 64,
	})
	if err != nil {
		zap.L().Warn("analyzer: type classification call failed", zap.Error(err))
		return model.DocTypeUnknown, 0, ""
	}

	var parsed struct {
		DocumentType string  `json:"document_type"`
		Confidence   float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(cleanJSON(resp.Text)), &parsed); err != nil {
		zap.L().Warn("analyzer: unparseable classification response", zap.Error(err))
		return model.DocTypeUnknown, 0, ""
	}

	switch t := model.DocumentType(parsed.DocumentType); t {
	case model.DocTypeLetter, model.DocTypeNewsletter, model.DocTypeReport,
		model.DocTypeArticle, model.DocTypeForm:
		return t, clamp01(parsed.Confidence), resp.Model
	default:
		return model.DocTypeUnknown, 0, ""
	}
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
