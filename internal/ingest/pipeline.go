package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"grc-backend/internal/extract"
	"grc-backend/internal/shared/metrics"
	"grc-backend/internal/shared/telemetry"
)

// ErrRecordInvalid means a finalized record failed JSON Schema verification.
var ErrRecordInvalid = errors.New("record failed verification")

// DocumentExtractor turns an upload into text.
type DocumentExtractor interface {
	Extract(ctx context.Context, doc extract.UploadedDocument) (extract.ExtractedText, error)
}

// Outcome is the finalized, schema-complete result of one import.
type Outcome struct {
	Schema     string                `json:"schema"`
	Record     map[string]any        `json:"record"`
	Provenance map[string]Provenance `json:"provenance"`
	Review     []string              `json:"review"`
	Text       extract.ExtractedText `json:"-"`
}

// TextLength is the extracted text length in runes.
func (o Outcome) TextLength() int { return o.Text.Len() }

// Pipeline runs extract, field extraction, normalization and verification
// synchronously for one document.
type Pipeline struct {
	extractor  DocumentExtractor
	fields     *FieldExtractor
	normalizer Normalizer
	verifier   *Verifier
}

// NewPipeline wires the pipeline stages.
func NewPipeline(extractor DocumentExtractor, fields *FieldExtractor, normalizer Normalizer) *Pipeline {
	return &Pipeline{
		extractor:  extractor,
		fields:     fields,
		normalizer: normalizer,
		verifier:   NewVerifier(),
	}
}

// Run imports one document. Only extract.ErrUnsupportedFormat and
// extract.ErrExtractionFailed abort; everything else degrades to defaults.
func (p *Pipeline) Run(ctx context.Context, s *Schema, doc extract.UploadedDocument) (Outcome, error) {
	start := time.Now()
	metrics.IncImportStarted()

	text, err := p.extractor.Extract(ctx, doc)
	if err != nil {
		metrics.IncImportFailed()
		telemetry.Warn("import.extract_failed", map[string]any{
			"schema":    s.Name,
			"file_name": doc.FileName,
			"error":     err,
		})
		return Outcome{}, err
	}

	raw := p.fields.Extract(ctx, s, text)
	result := p.normalizer.Normalize(s, raw)
	out, err := p.finish(s, result)
	if err != nil {
		metrics.IncImportFailed()
		return Outcome{}, err
	}
	out.Text = text

	for _, prov := range out.Provenance {
		metrics.IncFieldOutcome(string(prov.Source))
	}
	metrics.IncImportCompleted()
	metrics.ObserveImportDurationMs(metrics.SinceMillis(start))
	telemetry.Info("import.completed", map[string]any{
		"schema":      s.Name,
		"file_name":   doc.FileName,
		"doc_type":    string(text.Type),
		"extractor":   text.Extractor,
		"text_length": text.Len(),
		"review":      len(out.Review),
		"duration_ms": metrics.SinceMillis(start),
	})
	return out, nil
}

// Finalize re-normalizes a record edited by a reviewer.
func (p *Pipeline) Finalize(s *Schema, values map[string]any) (Outcome, error) {
	raw := NewResult(s)
	for _, f := range s.Fields {
		v := values[f.Name]
		if isBlank(v) {
			continue
		}
		raw.Set(f.Name, v, Provenance{Source: SourceReviewed})
	}
	return p.finish(s, p.normalizer.Normalize(s, raw))
}

func (p *Pipeline) finish(s *Schema, result Result) (Outcome, error) {
	record := result.Record(s)
	if err := p.verifier.Verify(s, record); err != nil {
		telemetry.Error("import.verify_failed", map[string]any{"schema": s.Name, "error": err})
		return Outcome{}, fmt.Errorf("%w: %w", ErrRecordInvalid, err)
	}
	return Outcome{
		Schema:     s.Name,
		Record:     record,
		Provenance: result.Provenance,
		Review:     result.Review(s),
	}, nil
}
