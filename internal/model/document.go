package model

// Document is one unit of OCR-corrected text submitted for extraction.
// The text is immutable for the lifetime of a run.
type Document struct {
	SourceID string `json:"source_id"`
	Text     string `json:"text"`
}

// DocumentType classifies the overall shape of a document.
type DocumentType string

const (
	DocTypeLetter     DocumentType = "letter"
	DocTypeNewsletter DocumentType = "newsletter"
	DocTypeReport     DocumentType = "report"
	DocTypeArticle    DocumentType = "article"
	DocTypeForm       DocumentType = "form"
	DocTypeUnknown    DocumentType = "unknown"
)

// SegmentRole labels the structural role of a text span.
type SegmentRole string

const (
	RoleHeader    SegmentRole = "header"
	RoleTitle     SegmentRole = "title"
	RoleDate      SegmentRole = "date"
	RoleBody      SegmentRole = "body"
	RoleSignature SegmentRole = "signature"
	RoleMetadata  SegmentRole = "metadata"
)

// Segment is one classified span of document text.
type Segment struct {
	Content    string      `json:"content"`
	Role       SegmentRole `json:"role"`
	Confidence float64     `json:"confidence"`
	Line       int         `json:"line"`
	Offset     int         `json:"offset"`
}

// QualityMetrics holds OCR quality estimates, each in [0,1].
type QualityMetrics struct {
	TextClarity      float64 `json:"text_clarity"`
	StructureClarity float64 `json:"structure_clarity"`
	Completeness     float64 `json:"completeness"`
	Overall          float64 `json:"overall"`
}

// DocumentProfile is the derived structural and quality profile of a
// document. Computed once per run, never mutated afterward.
type DocumentProfile struct {
	Type            DocumentType   `json:"document_type"`
	TypeConfidence  float64        `json:"type_confidence"`
	Quality         QualityMetrics `json:"quality"`
	Segments        []Segment      `json:"segments"`
	TotalLines      int            `json:"total_lines"`
	TotalChars      int            `json:"total_chars"`
	AvgLineLength   float64        `json:"avg_line_length"`
	ClassifierModel string         `json:"classifier_model,omitempty"`
}

// SegmentsByRole returns all segments carrying the given role,
// preserving document order.
func (p *DocumentProfile) SegmentsByRole(role SegmentRole) []Segment {
	var out []Segment
	for _, s := range p.Segments {
		if s.Role == role {
			out = append(out, s)
		}
	}
	return out
}
