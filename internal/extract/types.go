package extract

import (
	"errors"
	"strings"
	"unicode/utf8"
)

var (
	// ErrUnsupportedFormat means no extractor is registered for the detected type.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrExtractionFailed means every candidate extractor failed or the document had no text.
	ErrExtractionFailed = errors.New("extraction failed")

	errNoText = errors.New("no text content")
)

// Type identifies a document format.
type Type string

const (
	TypeUnknown Type = ""
	TypePDF     Type = "pdf"
	TypeDOCX    Type = "docx"
	TypeDOC     Type = "doc"
	TypeXLSX    Type = "xlsx"
	TypeXLS     Type = "xls"
	TypeTXT     Type = "txt"
)

// UploadedDocument is a transient upload: raw bytes plus what the client declared.
type UploadedDocument struct {
	Data     []byte
	MimeType string
	FileName string
}

// SegmentKind describes where a segment came from.
type SegmentKind string

const (
	SegmentPage      SegmentKind = "page"
	SegmentParagraph SegmentKind = "paragraph"
	SegmentRow       SegmentKind = "row"
	SegmentSheet     SegmentKind = "sheet"
)

// Segment is one ordered unit of extracted text.
type Segment struct {
	Kind  SegmentKind `json:"kind"`
	Label string      `json:"label,omitempty"`
	Text  string      `json:"text"`
}

// ExtractedText is the ordered text of one document.
type ExtractedText struct {
	Type      Type
	Extractor string
	Segments  []Segment
}

// String joins all segments with newlines.
func (t ExtractedText) String() string {
	parts := make([]string, 0, len(t.Segments))
	for _, s := range t.Segments {
		parts = append(parts, s.Text)
	}
	return strings.Join(parts, "\n")
}

// Len returns the length of String in runes.
func (t ExtractedText) Len() int {
	return utf8.RuneCountInString(t.String())
}

// Chunks groups segments into pieces of at most maxChars runes, splitting on
// segment boundaries and hard-splitting only segments that are too long alone.
func (t ExtractedText) Chunks(maxChars int) []string {
	if maxChars <= 0 {
		return []string{t.String()}
	}
	var (
		chunks  []string
		current strings.Builder
		size    int
	)
	flush := func() {
		if size > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
			size = 0
		}
	}
	for _, seg := range t.Segments {
		n := utf8.RuneCountInString(seg.Text)
		if size > 0 && size+1+n > maxChars {
			flush()
		}
		if n > maxChars {
			chunks = append(chunks, splitRunes(seg.Text, maxChars)...)
			continue
		}
		if size > 0 {
			current.WriteByte('\n')
			size++
		}
		current.WriteString(seg.Text)
		size += n
	}
	flush()
	return chunks
}

func splitRunes(s string, n int) []string {
	runes := []rune(s)
	out := make([]string, 0, len(runes)/n+1)
	for len(runes) > 0 {
		end := n
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[:end]))
		runes = runes[end:]
	}
	return out
}

// Head returns the first n runes of s.
func Head(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
