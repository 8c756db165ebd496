package ingest

import (
	"encoding/json"
	"fmt"
	"strings"
)

func describeField(f Field) string {
	kind := string(f.Type)
	switch {
	case f.Type == TypeEnum:
		kind = "EXACTLY ONE OF: " + oneOf(f.Choices)
	case f.Type == TypeString && len(f.Choices) > 0:
		kind = "string, best fit from: " + oneOf(f.Choices)
	case f.Type == TypeNumber && f.Integer:
		kind = "integer"
	case f.Type == TypeDate:
		kind = "date YYYY-MM-DD"
	case f.Type == TypeJSON:
		kind = "JSON object or array"
	}
	if f.Prompt == "" {
		return fmt.Sprintf("- %s (%s)", f.Name, kind)
	}
	return fmt.Sprintf("- %s (%s): %s", f.Name, kind, f.Prompt)
}

// aggregatePrompt asks for every pending field of one document chunk in a
// single JSON object.
func aggregatePrompt(s *Schema, pending []Field, chunk string) string {
	var b strings.Builder
	b.WriteString(s.Instructions)
	b.WriteString("\n\nDOCUMENT TO ANALYZE:\n\"\"\"")
	b.WriteString(chunk)
	b.WriteString("\"\"\"\n\nEXTRACT THESE FIELDS:\n")
	for _, f := range pending {
		b.WriteString(describeField(f))
		b.WriteByte('\n')
	}
	b.WriteString(`
OUTPUT FORMAT:
Return ONE JSON object whose keys are the field names above. Use null for any field the document does not support.
Add a "_meta" key: {"per_field": {"<field>": {"source": "EXTRACTED" or "AI_GENERATED", "confidence": 0.0-1.0}}}.

CRITICAL RULES:
- Return ONLY valid JSON, no markdown, no code blocks, no explanations
- Use double quotes for all strings
- Booleans must be true/false
- No trailing commas
- Choice fields must match the allowed values exactly
`)
	return b.String()
}

// fieldPrompt asks for a single field using the head of the document and the
// fields already known.
func fieldPrompt(s *Schema, f Field, context string, filled map[string]any) string {
	known, err := json.MarshalIndent(filled, "", "  ")
	if err != nil {
		known = []byte("{}")
	}
	guidance := f.Prompt
	if guidance == "" {
		guidance = "Return a concise, professional value."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Analyze the %s document and extract ONLY the %q field.\n\n", strings.ToLower(s.Title), f.Name)
	fmt.Fprintf(&b, "DOCUMENT CONTEXT (first %d chars):\n\"\"\"%s\"\"\"\n\n", len([]rune(context)), context)
	fmt.Fprintf(&b, "ALREADY EXTRACTED FIELDS:\n%s\n\n", known)
	fmt.Fprintf(&b, "INSTRUCTIONS FOR %q:\n%s\n", f.Name, describeField(f))
	fmt.Fprintf(&b, "%s\n\n", guidance)
	b.WriteString(`REQUIRED OUTPUT FORMAT:
Return ONLY a JSON object in this exact format:
{"value": <extracted or inferred value>, "confidence": <number between 0.0 and 1.0>}

Rules:
1. If the field is explicitly mentioned in the document, extract it (confidence 0.8-1.0)
2. If you must infer it from context, do so (confidence 0.5-0.7)
3. If you cannot determine it, return {"value": null, "confidence": 0.0}
4. Return ONLY the JSON object, no other text
`)
	return b.String()
}
