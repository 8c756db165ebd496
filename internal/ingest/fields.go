package ingest

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"grc-backend/internal/extract"
	"grc-backend/internal/llm"
	"grc-backend/internal/shared/metrics"
	"grc-backend/internal/shared/telemetry"
)

// titleFallbackChars bounds a title taken from the document's first line.
const titleFallbackChars = 200

var titleLabel = regexp.MustCompile(`(?i)^\s*(?:[a-z]+\s+)?title\s*[:\-]\s*`)

// extractedConfidence is the lowest field-prompt confidence reported as
// extracted rather than inferred.
const extractedConfidence = 0.8

// FieldOptions tunes the field extractor.
type FieldOptions struct {
	FieldTimeout      time.Duration
	MaxAttempts       int
	ChunkChars        int
	MaxChunks         int
	FieldContextChars int
}

// DefaultFieldOptions matches the import defaults.
func DefaultFieldOptions() FieldOptions {
	return FieldOptions{
		FieldTimeout:      30 * time.Second,
		MaxAttempts:       3,
		ChunkChars:        8000,
		MaxChunks:         1,
		FieldContextChars: 3000,
	}
}

// FieldExtractor fills a schema from document text with a language model:
// one aggregate prompt per chunk, then one narrow prompt per field still null.
type FieldExtractor struct {
	completer llm.Completer
	opts      FieldOptions
}

// NewFieldExtractor returns an extractor; zero options take their defaults.
func NewFieldExtractor(c llm.Completer, opts FieldOptions) *FieldExtractor {
	def := DefaultFieldOptions()
	if opts.FieldTimeout <= 0 {
		opts.FieldTimeout = def.FieldTimeout
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = def.MaxAttempts
	}
	if opts.ChunkChars <= 0 {
		opts.ChunkChars = def.ChunkChars
	}
	if opts.MaxChunks <= 0 {
		opts.MaxChunks = def.MaxChunks
	}
	if opts.FieldContextChars <= 0 {
		opts.FieldContextChars = def.FieldContextChars
	}
	if c == nil {
		c = llm.PlaceholderCompleter{}
	}
	return &FieldExtractor{completer: c, opts: opts}
}

// Extract never fails: model errors and malformed replies leave fields null
// with a provenance explaining why.
func (e *FieldExtractor) Extract(ctx context.Context, s *Schema, text extract.ExtractedText) Result {
	res := NewResult(s)

	chunks := text.Chunks(e.opts.ChunkChars)
	if len(chunks) > e.opts.MaxChunks {
		chunks = chunks[:e.opts.MaxChunks]
	}
	for i, chunk := range chunks {
		pending := res.Missing(s)
		if len(pending) == 0 {
			break
		}
		e.aggregate(ctx, s, res, pending, chunk, i)
	}

	head := extract.Head(text.String(), e.opts.FieldContextChars)
	for _, f := range res.Missing(s) {
		e.single(ctx, s, res, f, head)
	}
	fallbackTitles(s, res, text)
	return res
}

// fallbackTitles fills required title fields the model never answered with
// the document's first line, so a dead provider still yields a usable record.
func fallbackTitles(s *Schema, res Result, text extract.ExtractedText) {
	var line string
	for _, f := range res.Missing(s) {
		if f.Type != TypeString || !f.Required || !strings.HasSuffix(f.Name, "Title") {
			continue
		}
		switch res.Provenance[f.Name].Source {
		case SourceModelCallFailed, SourceMalformed:
		default:
			continue
		}
		if line == "" {
			line = firstLine(text)
		}
		if line == "" {
			return
		}
		res.Set(f.Name, line, Provenance{Source: SourceInferred, Note: "first line of document"})
	}
}

func firstLine(text extract.ExtractedText) string {
	for _, l := range strings.Split(text.String(), "\n") {
		l = strings.TrimSpace(l)
		if l == "" || strings.HasPrefix(l, "===") {
			continue
		}
		l = strings.TrimSpace(titleLabel.ReplaceAllString(l, ""))
		if l == "" {
			continue
		}
		return extract.Head(l, titleFallbackChars)
	}
	return ""
}

func (e *FieldExtractor) aggregate(ctx context.Context, s *Schema, res Result, pending []Field, chunk string, chunkIndex int) {
	var obj map[string]any
	failure := e.call(ctx, aggregatePrompt(s, pending, chunk), func(raw string) bool {
		parsed, err := llm.ExtractJSONObject(raw)
		if err != nil {
			return false
		}
		obj = unwrapRecord(s, parsed)
		return true
	})
	if failure != nil {
		telemetry.Warn("import.aggregate_failed", map[string]any{
			"schema": s.Name,
			"chunk":  chunkIndex,
			"source": string(failure.Source),
			"note":   failure.Note,
		})
		for _, f := range pending {
			res.Provenance[f.Name] = *failure
		}
		return
	}

	meta := perFieldMeta(obj)
	for _, f := range pending {
		v, ok := obj[f.Name]
		if !ok || isEmptyValue(v) {
			continue
		}
		p := Provenance{Source: SourceExtracted}
		if m, ok := meta[f.Name].(map[string]any); ok {
			if src, _ := m["source"].(string); strings.EqualFold(src, "AI_GENERATED") {
				p.Source = SourceInferred
			}
			p.Confidence, _ = toFloat(m["confidence"])
		}
		res.Set(f.Name, v, p)
	}
}

func (e *FieldExtractor) single(ctx context.Context, s *Schema, res Result, f Field, head string) {
	var (
		value      any
		confidence float64
	)
	failure := e.call(ctx, fieldPrompt(s, f, head, res.Filled()), func(raw string) bool {
		if obj, err := llm.ExtractJSONObject(raw); err == nil {
			switch {
			case hasKey(obj, "value"):
				value = obj["value"]
				confidence, _ = toFloat(obj["confidence"])
			case hasKey(obj, f.Name):
				value = obj[f.Name]
			case f.Type == TypeJSON:
				value = obj
			default:
				return false
			}
			return true
		}
		if v, ok := llm.ParseScalar(raw); ok {
			value = v
			return true
		}
		return false
	})
	if failure != nil {
		res.Provenance[f.Name] = *failure
		return
	}
	if isEmptyValue(value) {
		res.Provenance[f.Name] = Provenance{Source: SourceNotFound, Note: "model returned no value"}
		return
	}
	p := Provenance{Source: SourceInferred, Confidence: confidence}
	if confidence >= extractedConfidence {
		p.Source = SourceExtracted
	}
	res.Set(f.Name, value, p)
}

// call sends prompt under its own timeout. Malformed replies are retried up to
// MaxAttempts; call errors are not retried. It returns nil when parse accepted
// a reply, else the provenance of the failure.
func (e *FieldExtractor) call(ctx context.Context, prompt string, parse func(raw string) bool) *Provenance {
	for attempt := 1; attempt <= e.opts.MaxAttempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, e.opts.FieldTimeout)
		raw, err := e.completer.Complete(callCtx, prompt)
		cancel()
		metrics.IncModelCall(err != nil)
		if err != nil {
			kind := llm.Classify(err)
			telemetry.Warn("import.model_call_failed", map[string]any{"kind": kind, "error": err})
			return &Provenance{Source: SourceModelCallFailed, Note: kind}
		}
		if parse(raw) {
			return nil
		}
		telemetry.Warn("import.malformed_response", map[string]any{
			"attempt":      attempt,
			"max_attempts": e.opts.MaxAttempts,
			"length":       len(raw),
		})
	}
	return &Provenance{Source: SourceMalformed, Note: fmt.Sprintf("no usable JSON after %d attempts", e.opts.MaxAttempts)}
}

// unwrapRecord accepts {"incidents": [{...}]} style replies and returns the
// first record.
func unwrapRecord(s *Schema, obj map[string]any) map[string]any {
	for _, name := range s.Names() {
		if _, ok := obj[name]; ok {
			return obj
		}
	}
	for _, v := range obj {
		if list, ok := v.([]any); ok && len(list) > 0 {
			if first, ok := list[0].(map[string]any); ok {
				return first
			}
		}
	}
	return obj
}

func perFieldMeta(obj map[string]any) map[string]any {
	meta, _ := obj["_meta"].(map[string]any)
	perField, _ := meta["per_field"].(map[string]any)
	return perField
}

func hasKey(obj map[string]any, key string) bool {
	_, ok := obj[key]
	return ok
}

func isEmptyValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		s := strings.TrimSpace(t)
		return s == "" || strings.EqualFold(s, "null")
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	}
	return 0, false
}
