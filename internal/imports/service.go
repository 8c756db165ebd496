package imports

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"grc-backend/internal/extract"
	"grc-backend/internal/ingest"
	"grc-backend/internal/llm"
	"grc-backend/internal/shared/storage/object"
	"grc-backend/internal/shared/telemetry"
)

const (
	archiveScope    = "imports"
	llmProbeTimeout = 30 * time.Second
)

// Service runs document imports and persists reviewed records.
type Service struct {
	Catalog  *ingest.Catalog
	Pipeline *ingest.Pipeline
	Repo     RecordsRepo
	// Store archives raw uploads and their extracted text. Optional.
	Store object.ObjectStore
	// Completer, Provider and Model back the connectivity probe.
	Completer llm.Completer
	Provider  string
	Model     string
}

// Schema resolves a target schema by name.
func (s *Service) Schema(name string) (*ingest.Schema, error) {
	schema, ok := s.Catalog.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSchema, name)
	}
	return schema, nil
}

// Schemas describes every registered schema.
func (s *Service) Schemas() []SchemaInfo {
	names := s.Catalog.Names()
	out := make([]SchemaInfo, 0, len(names))
	for _, name := range names {
		schema, _ := s.Catalog.Get(name)
		out = append(out, describeSchema(schema))
	}
	return out
}

// Import extracts one uploaded document into a schema-complete record.
func (s *Service) Import(ctx context.Context, ownerID, schemaName string, doc extract.UploadedDocument) (ImportResult, error) {
	schema, err := s.Schema(schemaName)
	if err != nil {
		return ImportResult{}, err
	}
	if strings.TrimSpace(doc.FileName) == "" || len(doc.Data) == 0 {
		return ImportResult{}, fmt.Errorf("%w: file is empty", ErrInvalidInput)
	}

	out, err := s.Pipeline.Run(ctx, schema, doc)
	if err != nil {
		return ImportResult{}, err
	}

	return ImportResult{
		Schema:              schema.Name,
		DocumentName:        doc.FileName,
		StorageKey:          s.archive(ctx, ownerID, schema, doc, out.Text),
		ExtractedTextLength: out.TextLength(),
		Record:              out.Record,
		Provenance:          out.Provenance,
		Review:              out.Review,
	}, nil
}

// archive keeps the upload and its extracted text. Failures are logged only.
func (s *Service) archive(ctx context.Context, ownerID string, schema *ingest.Schema, doc extract.UploadedDocument, text extract.ExtractedText) string {
	if s.Store == nil {
		return ""
	}
	obj, err := s.Store.Save(ctx, path.Join(archiveScope, schema.Name), ownerID, doc.FileName, bytes.NewReader(doc.Data))
	if err != nil {
		telemetry.Warn("import.archive_failed", map[string]any{
			"schema":    schema.Name,
			"file_name": doc.FileName,
			"error":     err,
		})
		return ""
	}
	if _, err := extract.SaveExtracted(ctx, s.Store, obj.Key, text); err != nil {
		telemetry.Warn("import.archive_text_failed", map[string]any{
			"schema":      schema.Name,
			"storage_key": obj.Key,
			"error":       err,
		})
	}
	return obj.Key
}

// SaveRequest carries reviewed records for one schema.
type SaveRequest struct {
	Records    []map[string]any `json:"records"`
	SourceFile string           `json:"documentName"`
	StorageKey string           `json:"storageKey"`
}

// Save re-normalizes and persists each reviewed record. A record that fails
// is reported in Errors and does not stop the rest of the batch.
func (s *Service) Save(ctx context.Context, ownerID, schemaName string, req SaveRequest) (SaveResult, error) {
	schema, err := s.Schema(schemaName)
	if err != nil {
		return SaveResult{}, err
	}
	if len(req.Records) == 0 {
		return SaveResult{}, fmt.Errorf("%w: records are required", ErrInvalidInput)
	}

	result := SaveResult{Saved: []SavedRecord{}, Errors: []SaveError{}}
	for i, values := range req.Records {
		out, err := s.Pipeline.Finalize(schema, values)
		if err != nil {
			result.Errors = append(result.Errors, SaveError{Index: i, Error: err.Error()})
			continue
		}
		rec := Record{
			ID:         uuid.NewString(),
			SchemaName: schema.Name,
			OwnerID:    ownerID,
			Title:      titleOf(schema, out.Record),
			SourceFile: strings.TrimSpace(req.SourceFile),
			StorageKey: strings.TrimSpace(req.StorageKey),
			Values:     out.Record,
			Provenance: out.Provenance,
			CreatedAt:  time.Now().UTC(),
		}
		if err := s.Repo.Create(ctx, rec); err != nil {
			if ctx.Err() != nil {
				return result, err
			}
			telemetry.Error("import.save_failed", map[string]any{"schema": schema.Name, "index": i, "error": err})
			result.Errors = append(result.Errors, SaveError{Index: i, Error: "failed to save record"})
			continue
		}
		result.Saved = append(result.Saved, SavedRecord{ID: rec.ID, Title: rec.Title})
	}

	telemetry.Info("import.records_saved", map[string]any{
		"schema": schema.Name,
		"saved":  len(result.Saved),
		"failed": len(result.Errors),
	})
	return result, nil
}

// List returns saved records of a schema, newest first.
func (s *Service) List(ctx context.Context, schemaName string, limit, offset int) ([]Record, error) {
	schema, err := s.Schema(schemaName)
	if err != nil {
		return nil, err
	}
	return s.Repo.ListBySchema(ctx, schema.Name, limit, offset)
}

// Get returns one saved record.
func (s *Service) Get(ctx context.Context, schemaName, id string) (Record, error) {
	schema, err := s.Schema(schemaName)
	if err != nil {
		return Record{}, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return Record{}, ErrNotFound
	}
	return s.Repo.GetByID(ctx, schema.Name, id)
}

// CheckLLM sends the probe prompt and expects {"ok": true} back.
func (s *Service) CheckLLM(ctx context.Context) (LLMHealth, error) {
	health := LLMHealth{Status: "error", Provider: s.Provider, Model: s.Model}
	completer := s.Completer
	if completer == nil {
		completer = llm.PlaceholderCompleter{}
	}

	ctx, cancel := context.WithTimeout(ctx, llmProbeTimeout)
	defer cancel()
	start := time.Now()
	text, err := completer.Complete(ctx, llm.ProbePrompt)
	health.LatencyMs = time.Since(start).Milliseconds()
	if err != nil {
		if errors.Is(err, llm.ErrNotConfigured) {
			health.Status = "not_configured"
		}
		return health, err
	}
	obj, err := llm.ExtractJSONObject(text)
	if err != nil {
		return health, err
	}
	if ok, _ := obj["ok"].(bool); !ok {
		return health, fmt.Errorf("%w: probe reply missing ok=true", llm.ErrMalformedResponse)
	}
	health.Status = "ok"
	return health, nil
}
