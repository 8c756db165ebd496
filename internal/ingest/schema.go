package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// FieldType is the expected type of a field value after normalization.
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeDate    FieldType = "date"
	TypeEnum    FieldType = "enum"
	TypeNumber  FieldType = "number"
	TypeBoolean FieldType = "boolean"
	TypeJSON    FieldType = "json"
)

// DefaultToday makes a date field default to the normalizer's current date.
const DefaultToday = "today"

// Field describes one column of a target table.
type Field struct {
	Name     string
	Type     FieldType
	Required bool
	// Choices are the accepted literals of an enum. For string fields they
	// are only hints shown to the model.
	Choices []string
	Default any
	Integer bool
	Min     *float64
	Max     *float64
	Prompt  string
	// Derive computes a value from the other normalized fields when this one
	// is still null.
	Derive func(values map[string]any) any `json:"-"`
}

// Schema is the ordered field set of one target table.
type Schema struct {
	Name         string
	Table        string
	Title        string
	Instructions string
	Fields       []Field
}

// Names returns the field names in schema order.
func (s *Schema) Names() []string {
	out := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		out[i] = f.Name
	}
	return out
}

// Field returns the named field.
func (s *Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Validate checks the static definition: unique names, enums with choices,
// required fields with a default and defaults that are already normalized.
func (s *Schema) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return errors.New("schema name is required")
	}
	if len(s.Fields) == 0 {
		return fmt.Errorf("schema %s has no fields", s.Name)
	}
	seen := make(map[string]struct{}, len(s.Fields))
	for _, f := range s.Fields {
		if strings.TrimSpace(f.Name) == "" {
			return fmt.Errorf("schema %s: field with empty name", s.Name)
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("schema %s: duplicate field %s", s.Name, f.Name)
		}
		seen[f.Name] = struct{}{}

		switch f.Type {
		case TypeString, TypeDate, TypeNumber, TypeBoolean, TypeJSON:
		case TypeEnum:
			if len(f.Choices) == 0 {
				return fmt.Errorf("schema %s: enum field %s has no choices", s.Name, f.Name)
			}
		default:
			return fmt.Errorf("schema %s: field %s has unknown type %q", s.Name, f.Name, f.Type)
		}
		if f.Min != nil && f.Max != nil && *f.Min > *f.Max {
			return fmt.Errorf("schema %s: field %s has min greater than max", s.Name, f.Name)
		}

		if f.Default == nil {
			if f.Required {
				return fmt.Errorf("schema %s: required field %s has no default", s.Name, f.Name)
			}
			continue
		}
		if f.Type == TypeDate && f.Default == DefaultToday {
			continue
		}
		normalized, ok := normalizeValue(f, f.Default)
		if !ok || !reflect.DeepEqual(normalized, f.Default) {
			return fmt.Errorf("schema %s: default of %s is not a normalized %s value", s.Name, f.Name, f.Type)
		}
	}
	return nil
}

// JSONSchema describes the DB-ready record: every field is present, required
// fields are non-null and every value has its column type.
func (s *Schema) JSONSchema() ([]byte, error) {
	props := make(map[string]any, len(s.Fields))
	for _, f := range s.Fields {
		props[f.Name] = fieldJSONSchema(f)
	}
	doc := map[string]any{
		"$schema":              "http://json-schema.org/draft-07/schema#",
		"title":                s.Title,
		"type":                 "object",
		"properties":           props,
		"required":             s.Names(),
		"additionalProperties": false,
	}
	return json.Marshal(doc)
}

func fieldJSONSchema(f Field) map[string]any {
	types := func(t ...string) any {
		if !f.Required {
			t = append(t, "null")
		}
		if len(t) == 1 {
			return t[0]
		}
		return t
	}

	out := map[string]any{}
	switch f.Type {
	case TypeString:
		out["type"] = types("string")
	case TypeDate:
		out["type"] = types("string")
		out["pattern"] = `^\d{4}-\d{2}-\d{2}$`
	case TypeEnum:
		enum := make([]any, 0, len(f.Choices)+1)
		for _, c := range f.Choices {
			enum = append(enum, c)
		}
		if !f.Required {
			enum = append(enum, nil)
		}
		out["enum"] = enum
	case TypeNumber:
		if f.Integer {
			out["type"] = types("integer")
		} else {
			out["type"] = types("number")
		}
		if f.Min != nil {
			out["minimum"] = *f.Min
		}
		if f.Max != nil {
			out["maximum"] = *f.Max
		}
	case TypeBoolean:
		out["type"] = types("boolean")
	case TypeJSON:
		out["type"] = types("object", "array")
	}
	return out
}

func bound(v float64) *float64 { return &v }
