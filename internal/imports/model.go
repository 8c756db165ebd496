package imports

import (
	"strings"
	"time"

	"grc-backend/internal/ingest"
)

// Record is a reviewed, schema-complete row saved for one target table.
type Record struct {
	ID         string
	SchemaName string
	OwnerID    string
	Title      string
	SourceFile string
	StorageKey string
	Values     map[string]any
	Provenance map[string]ingest.Provenance
	CreatedAt  time.Time
}

// ImportResult is the response to one document upload.
type ImportResult struct {
	Schema              string                       `json:"schema"`
	DocumentName        string                       `json:"documentName"`
	StorageKey          string                       `json:"storageKey,omitempty"`
	ExtractedTextLength int                          `json:"extractedTextLength"`
	Record              map[string]any               `json:"record"`
	Provenance          map[string]ingest.Provenance `json:"provenance"`
	Review              []string                     `json:"review"`
}

// SavedRecord identifies a persisted record.
type SavedRecord struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// SaveError reports why the record at Index was not saved.
type SaveError struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

// SaveResult lists what a batch save persisted and what it rejected.
type SaveResult struct {
	Saved  []SavedRecord `json:"saved"`
	Errors []SaveError   `json:"errors"`
}

// SchemaInfo describes a target schema to clients.
type SchemaInfo struct {
	Name   string      `json:"name"`
	Table  string      `json:"table"`
	Title  string      `json:"title"`
	Fields []FieldInfo `json:"fields"`
}

// FieldInfo describes one schema field.
type FieldInfo struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Required bool     `json:"required"`
	Choices  []string `json:"choices,omitempty"`
	Default  any      `json:"default,omitempty"`
}

// LLMHealth is the outcome of a connectivity probe.
type LLMHealth struct {
	Status    string `json:"status"`
	Provider  string `json:"provider"`
	Model     string `json:"model,omitempty"`
	LatencyMs int64  `json:"latencyMs"`
}

func describeSchema(s *ingest.Schema) SchemaInfo {
	info := SchemaInfo{Name: s.Name, Table: s.Table, Title: s.Title, Fields: make([]FieldInfo, 0, len(s.Fields))}
	for _, f := range s.Fields {
		fi := FieldInfo{Name: f.Name, Type: string(f.Type), Required: f.Required}
		if f.Type == ingest.TypeEnum {
			fi.Choices = f.Choices
		}
		if f.Required {
			fi.Default = f.Default
		}
		info.Fields = append(info.Fields, fi)
	}
	return info
}

// titleOf picks the first non-empty "*Title" field of a record.
func titleOf(s *ingest.Schema, record map[string]any) string {
	for _, f := range s.Fields {
		if !strings.HasSuffix(f.Name, "Title") {
			continue
		}
		if v, ok := record[f.Name].(string); ok && strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
