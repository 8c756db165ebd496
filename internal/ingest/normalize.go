package ingest

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Accepted input date layouts, first match wins.
var dateLayouts = []string{
	dateLayout,
	"2006-1-2",
	"2006/01/02",
	"2006.01.02",
	"01/02/2006",
	"1/2/2006",
	"01-02-2006",
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"2 January 2006",
	"2 Jan 2006",
	"02-Jan-2006",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Normalizer coerces raw extracted values into column types and fills
// required nulls with safe defaults.
type Normalizer struct {
	Now func() time.Time
}

func (n Normalizer) today() string {
	now := time.Now
	if n.Now != nil {
		now = n.Now
	}
	return now().Format(dateLayout)
}

// Normalize returns a schema-complete copy of raw with normalized values.
// Normalizing an already normalized result returns it unchanged.
func (n Normalizer) Normalize(s *Schema, raw Result) Result {
	out := NewResult(s)
	for _, f := range s.Fields {
		v := raw.Values[f.Name]
		p, ok := raw.Provenance[f.Name]
		if !ok {
			p = Provenance{Source: SourceNotFound}
			if !isBlank(v) {
				p.Source = SourceExtracted
			}
		}
		if isBlank(v) {
			if p.Source.hasValue() {
				p = Provenance{Source: SourceNotFound}
			}
			out.Set(f.Name, nil, p)
			continue
		}
		nv, valid := normalizeValue(f, v)
		if !valid {
			out.Set(f.Name, nil, Provenance{
				Source: SourceInvalid,
				Note:   fmt.Sprintf("could not read %s as %s", preview(v), f.Type),
			})
			continue
		}
		out.Set(f.Name, nv, p)
	}

	for _, f := range s.Fields {
		if out.Values[f.Name] != nil || f.Derive == nil {
			continue
		}
		if v, ok := normalizeValue(f, f.Derive(out.Values)); ok && v != nil {
			out.Set(f.Name, v, Provenance{Source: SourceDerived})
		}
	}

	for _, f := range s.Fields {
		if out.Values[f.Name] != nil || !f.Required {
			continue
		}
		prev := out.Provenance[f.Name]
		note := string(prev.Source)
		if prev.Note != "" {
			note += ": " + prev.Note
		}
		out.Set(f.Name, n.defaultFor(f), Provenance{Source: SourceDefault, Note: note})
	}
	return out
}

func (n Normalizer) defaultFor(f Field) any {
	if f.Type == TypeDate && f.Default == DefaultToday {
		return n.today()
	}
	switch d := f.Default.(type) {
	case []any:
		return append([]any{}, d...)
	case map[string]any:
		cp := make(map[string]any, len(d))
		for k, v := range d {
			cp[k] = v
		}
		return cp
	}
	return f.Default
}

// normalizeValue coerces v to the field type. It returns (nil, true) for
// blank input and (nil, false) when v cannot be read as the type.
func normalizeValue(f Field, v any) (any, bool) {
	if isBlank(v) {
		return nil, true
	}
	switch f.Type {
	case TypeString:
		return normalizeString(v)
	case TypeDate:
		return normalizeDate(v)
	case TypeEnum:
		return normalizeEnum(v, f.Choices)
	case TypeNumber:
		num, ok := normalizeNumber(v)
		if !ok {
			return nil, false
		}
		if f.Integer {
			num = math.Round(num)
		}
		if f.Min != nil && num < *f.Min {
			num = *f.Min
		}
		if f.Max != nil && num > *f.Max {
			num = *f.Max
		}
		return num, true
	case TypeBoolean:
		return normalizeBool(v)
	case TypeJSON:
		return normalizeJSON(v)
	}
	return nil, false
}

func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	}
	return false
}

func normalizeString(v any) (any, bool) {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	case map[string]any, []any:
		b, err := json.Marshal(t)
		if err != nil {
			return nil, false
		}
		return string(b), true
	}
	return nil, false
}

func normalizeDate(v any) (any, bool) {
	s, ok := v.(string)
	if !ok {
		return nil, false
	}
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(dateLayout), true
		}
	}
	return nil, false
}

func normalizeEnum(v any, choices []string) (any, bool) {
	var s string
	switch t := v.(type) {
	case string:
		s = strings.TrimSpace(t)
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return nil, false
	}
	for _, c := range choices {
		if strings.EqualFold(s, c) {
			return c, true
		}
	}
	return nil, false
}

func normalizeNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return 0, false
		}
		return t, true
	case int:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		return parseNumber(t)
	}
	return 0, false
}

// parseNumber reads numbers written with either ',' or '.' as the decimal
// separator. When both appear the last one is the decimal separator. A single
// comma followed by exactly three digits is a thousands separator.
func parseNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimSuffix(s, "%")
	s = strings.TrimLeft(s, "$€£")
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00a0', '\u202f', '_', '\'':
			return -1
		}
		return r
	}, s)
	if s == "" {
		return 0, false
	}

	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")
	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		s = resolveSingleSeparator(s, ",")
	case lastDot >= 0:
		s = resolveSingleSeparator(s, ".")
	}

	for i, r := range s {
		if r >= '0' && r <= '9' || r == '.' || (i == 0 && (r == '-' || r == '+')) {
			continue
		}
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func resolveSingleSeparator(s, sep string) string {
	if strings.Count(s, sep) > 1 {
		return strings.ReplaceAll(s, sep, "")
	}
	idx := strings.Index(s, sep)
	if len(s)-idx-1 == 3 && idx > 0 && sep == "," {
		return strings.Replace(s, sep, "", 1)
	}
	return strings.Replace(s, sep, ".", 1)
}

func normalizeBool(v any) (any, bool) {
	switch t := v.(type) {
	case bool:
		return t, true
	case float64:
		switch t {
		case 1:
			return true, true
		case 0:
			return false, true
		}
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "yes", "y", "1":
			return true, true
		case "false", "no", "n", "0":
			return false, true
		}
	}
	return nil, false
}

func normalizeJSON(v any) (any, bool) {
	switch t := v.(type) {
	case map[string]any, []any:
		return t, true
	case string:
		var parsed any
		if err := json.Unmarshal([]byte(strings.TrimSpace(t)), &parsed); err != nil {
			return nil, false
		}
		switch parsed.(type) {
		case map[string]any, []any:
			return parsed, true
		}
	}
	return nil, false
}

func preview(v any) string {
	s := fmt.Sprint(v)
	if len([]rune(s)) > 40 {
		s = string([]rune(s)[:40]) + "..."
	}
	return strconv.Quote(s)
}
