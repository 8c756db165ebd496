package llm

import (
	"encoding/json"
	"errors"
	"sort"
	"strings"
)

// ErrMalformedResponse means a model reply contained no decodable JSON object.
var ErrMalformedResponse = errors.New("malformed model response")

// ExtractJSONObject returns the longest balanced {...} substring of text that
// decodes as a JSON object. Code fences are stripped first and trailing commas
// before } or ] are tolerated.
func ExtractJSONObject(text string) (map[string]any, error) {
	text = stripFences(text)
	candidates := balancedObjects(text)
	sort.SliceStable(candidates, func(i, j int) bool { return len(candidates[i]) > len(candidates[j]) })

	for _, c := range candidates {
		if obj, ok := decodeObject(c); ok {
			return obj, nil
		}
		if obj, ok := decodeObject(removeTrailingCommas(c)); ok {
			return obj, nil
		}
	}
	return nil, ErrMalformedResponse
}

// ParseScalar accepts a reply that is a bare JSON scalar, such as "High", 7 or
// true. Unquoted text is returned as a string.
func ParseScalar(text string) (any, bool) {
	text = strings.TrimSpace(stripFences(text))
	if text == "" || strings.HasPrefix(text, "{") || strings.HasPrefix(text, "[") {
		return nil, false
	}
	var v any
	if err := json.Unmarshal([]byte(text), &v); err == nil {
		switch v.(type) {
		case map[string]any, []any:
			return nil, false
		}
		return v, true
	}
	if strings.ContainsAny(text, "{}\n") {
		return nil, false
	}
	return text, true
}

func stripFences(text string) string {
	if !strings.Contains(text, "```") {
		return text
	}
	lines := strings.Split(text, "\n")
	out := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

func decodeObject(s string) (map[string]any, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

// balancedObjects returns every {...} substring whose braces balance, in a
// single pass. Quotes only open string literals inside a brace, so prose
// apostrophes and quotes before the object are ignored. Unclosed braces are
// dropped without hiding the objects nested in them.
func balancedObjects(text string) []string {
	var (
		out      []string
		open     []int
		inString bool
		escaped  bool
	)
	for i := 0; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = len(open) > 0
		case '{':
			open = append(open, i)
		case '}':
			if n := len(open); n > 0 {
				out = append(out, text[open[n-1]:i+1])
				open = open[:n-1]
			}
		}
	}
	return out
}

func removeTrailingCommas(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			b.WriteByte(c)
			continue
		}
		if c == '"' {
			inString = true
		}
		if c == ',' {
			j := i + 1
			for j < len(s) && strings.IndexByte(" \t\r\n", s[j]) >= 0 {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}
