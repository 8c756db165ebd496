package ingest

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()
	if got := strings.Join(c.Names(), ","); got != "incident,risk,risk_instance" {
		t.Fatalf("unexpected schema names %s", got)
	}
	s, ok := c.Get(" Risk_Instance ")
	if !ok || s != RiskInstanceSchema {
		t.Fatalf("expected case-insensitive lookup of risk_instance")
	}
	if _, ok := c.Get("vendor"); ok {
		t.Fatalf("unexpected schema vendor")
	}
}

func TestSchemaValidateRejectsBadDefinitions(t *testing.T) {
	tests := []struct {
		name   string
		fields []Field
		want   string
	}{
		{name: "duplicate", fields: []Field{{Name: "A", Type: TypeString}, {Name: "A", Type: TypeString}}, want: "duplicate field"},
		{name: "enum without choices", fields: []Field{{Name: "A", Type: TypeEnum}}, want: "no choices"},
		{name: "required without default", fields: []Field{{Name: "A", Type: TypeString, Required: true}}, want: "no default"},
		{name: "default outside choices", fields: []Field{{Name: "A", Type: TypeEnum, Choices: []string{"Low"}, Required: true, Default: "Severe"}}, want: "not a normalized"},
		{name: "default wrong casing", fields: []Field{{Name: "A", Type: TypeEnum, Choices: []string{"Low"}, Required: true, Default: "low"}}, want: "not a normalized"},
		{name: "unknown type", fields: []Field{{Name: "A", Type: "money"}}, want: "unknown type"},
		{name: "min above max", fields: []Field{{Name: "A", Type: TypeNumber, Min: bound(5), Max: bound(1)}}, want: "min greater"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Schema{Name: "test", Fields: tt.fields}
			err := s.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestJSONSchemaRequiresEveryField(t *testing.T) {
	raw, err := IncidentSchema.JSONSchema()
	if err != nil {
		t.Fatalf("JSONSchema: %v", err)
	}
	var doc struct {
		Required             []string                  `json:"required"`
		AdditionalProperties bool                      `json:"additionalProperties"`
		Properties           map[string]map[string]any `json:"properties"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(doc.Required) != len(IncidentSchema.Fields) || doc.AdditionalProperties {
		t.Fatalf("schema must require every field and forbid extras: %+v", doc.Required)
	}
	if doc.Properties["Status"]["enum"] == nil {
		t.Fatalf("expected enum for Status")
	}
	if doc.Properties["Description"]["type"] == "string" {
		t.Fatalf("optional Description must allow null")
	}
}
