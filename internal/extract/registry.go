package extract

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"grc-backend/internal/shared/telemetry"
)

// Extractor turns raw document bytes into ordered text segments.
type Extractor interface {
	Name() string
	Extract(ctx context.Context, data []byte) ([]Segment, error)
}

// Registry maps each document type to its ordered candidate extractors.
type Registry struct {
	byType       map[Type][]Extractor
	minTextChars int
}

// Option configures a Registry.
type Option func(*Registry)

// WithMinTextChars rejects documents whose extracted text is shorter than n runes.
func WithMinTextChars(n int) Option {
	return func(r *Registry) {
		r.minTextChars = n
	}
}

// NewRegistry returns an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{byType: make(map[Type][]Extractor)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// DefaultRegistry registers every extractor linked into this binary.
// Legacy binary Word documents (doc) have no candidate.
func DefaultRegistry(opts ...Option) *Registry {
	r := NewRegistry(opts...)
	r.Register(TypePDF, pdfReader{}, pdfContentStream{})
	r.Register(TypeDOCX, docxReader{})
	r.Register(TypeXLSX, xlsxReader{})
	r.Register(TypeXLS, xlsReader{})
	r.Register(TypeTXT, plainText{})
	return r
}

// Register appends candidates for t in priority order.
func (r *Registry) Register(t Type, candidates ...Extractor) {
	r.byType[t] = append(r.byType[t], candidates...)
}

// Supported lists the types that have at least one candidate.
func (r *Registry) Supported() []Type {
	out := make([]Type, 0, len(r.byType))
	for t, c := range r.byType {
		if len(c) > 0 {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Extract detects the document type and runs candidates in order. The next
// candidate runs only when the previous one returned an error.
func (r *Registry) Extract(ctx context.Context, doc UploadedDocument) (ExtractedText, error) {
	t := Detect(doc.MimeType, doc.FileName, doc.Data)
	candidates := r.byType[t]
	if len(candidates) == 0 {
		label := string(t)
		if label == "" {
			label = describe(doc)
		}
		return ExtractedText{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, label)
	}

	var lastErr error
	for i, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			return ExtractedText{}, err
		}
		segments, err := safeExtract(ctx, candidate, doc.Data)
		if err == nil {
			segments = compact(segments)
			if len(segments) == 0 {
				err = errNoText
			}
		}
		if err != nil {
			lastErr = err
			if i < len(candidates)-1 {
				telemetry.Warn("extract.fallback", map[string]any{
					"type":      string(t),
					"extractor": candidate.Name(),
					"next":      candidates[i+1].Name(),
					"error":     err,
				})
			}
			continue
		}

		text := ExtractedText{Type: t, Extractor: candidate.Name(), Segments: segments}
		if r.minTextChars > 0 && text.Len() < r.minTextChars {
			return ExtractedText{}, fmt.Errorf("%w: extracted text shorter than %d characters", ErrExtractionFailed, r.minTextChars)
		}
		return text, nil
	}
	return ExtractedText{}, fmt.Errorf("%w: %s: %w", ErrExtractionFailed, t, lastErr)
}

// safeExtract converts parser panics on malformed input into errors.
func safeExtract(ctx context.Context, e Extractor, data []byte) (segs []Segment, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			segs = nil
			err = fmt.Errorf("%s panicked: %v", e.Name(), rec)
		}
	}()
	segs, err = e.Extract(ctx, data)
	if err != nil {
		err = fmt.Errorf("%s: %w", e.Name(), err)
	}
	return segs, err
}

func compact(segments []Segment) []Segment {
	out := segments[:0]
	for _, s := range segments {
		s.Text = strings.TrimSpace(s.Text)
		if s.Text == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}

func describe(doc UploadedDocument) string {
	if name := strings.TrimSpace(doc.FileName); name != "" {
		return name
	}
	if doc.MimeType != "" {
		return doc.MimeType
	}
	return "unknown type"
}

