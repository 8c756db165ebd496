package ingest

// Source tags where a field value came from.
type Source string

const (
	SourceExtracted       Source = "extracted"
	SourceInferred        Source = "inferred"
	SourceDerived         Source = "derived"
	SourceReviewed        Source = "reviewed"
	SourceDefault         Source = "default"
	SourceModelCallFailed Source = "model_call_failed"
	SourceMalformed       Source = "malformed_response"
	SourceNotFound        Source = "not_found"
	SourceInvalid         Source = "invalid"
)

func (s Source) hasValue() bool {
	switch s {
	case SourceExtracted, SourceInferred, SourceDerived, SourceReviewed, SourceDefault:
		return true
	}
	return false
}

// Provenance annotates one field of a result.
type Provenance struct {
	Source     Source  `json:"source"`
	Confidence float64 `json:"confidence,omitempty"`
	Note       string  `json:"note,omitempty"`
}

// NeedsReview reports whether a reviewer should look at the field.
func (p Provenance) NeedsReview() bool {
	switch p.Source {
	case SourceDefault, SourceModelCallFailed, SourceMalformed, SourceInvalid:
		return true
	}
	return false
}

// Result maps every schema field to a value (nil when unknown) and its provenance.
type Result struct {
	Values     map[string]any
	Provenance map[string]Provenance
}

// NewResult returns a schema-complete result with every field null.
func NewResult(s *Schema) Result {
	r := Result{
		Values:     make(map[string]any, len(s.Fields)),
		Provenance: make(map[string]Provenance, len(s.Fields)),
	}
	for _, f := range s.Fields {
		r.Values[f.Name] = nil
		r.Provenance[f.Name] = Provenance{Source: SourceNotFound}
	}
	return r
}

// Set stores a value and its provenance.
func (r Result) Set(name string, value any, p Provenance) {
	r.Values[name] = value
	r.Provenance[name] = p
}

// Missing lists schema fields whose value is still null, in schema order.
func (r Result) Missing(s *Schema) []Field {
	var out []Field
	for _, f := range s.Fields {
		if r.Values[f.Name] == nil {
			out = append(out, f)
		}
	}
	return out
}

// Filled returns the non-null values.
func (r Result) Filled() map[string]any {
	out := make(map[string]any, len(r.Values))
	for k, v := range r.Values {
		if v != nil {
			out[k] = v
		}
	}
	return out
}

// Record renders the DB-ready map keyed by exactly the schema field names.
func (r Result) Record(s *Schema) map[string]any {
	out := make(map[string]any, len(s.Fields))
	for _, f := range s.Fields {
		out[f.Name] = r.Values[f.Name]
	}
	return out
}

// Review lists fields flagged for human review, in schema order.
func (r Result) Review(s *Schema) []string {
	out := []string{}
	for _, f := range s.Fields {
		if r.Provenance[f.Name].NeedsReview() {
			out = append(out, f.Name)
		}
	}
	return out
}
