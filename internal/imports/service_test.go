package imports

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"grc-backend/internal/extract"
	"grc-backend/internal/ingest"
	"grc-backend/internal/llm"
	"grc-backend/internal/shared/storage/object"
	localstore "grc-backend/internal/shared/storage/object/local"
)

type completerFunc func(ctx context.Context, prompt string) (string, error)

func (f completerFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// incidentModel answers the aggregate prompt with a title and date and
// every single-field prompt with null.
func incidentModel() completerFunc {
	return func(_ context.Context, prompt string) (string, error) {
		if strings.Contains(prompt, "extract ONLY the") {
			return `{"value": null, "confidence": 0}`, nil
		}
		return `{"IncidentTitle": "Phishing wave", "Date": "03/15/2024", "Criticality": "high"}`, nil
	}
}

func newTestService(t *testing.T, c llm.Completer, store object.ObjectStore, repo RecordsRepo) *Service {
	t.Helper()
	if repo == nil {
		repo = NewMemoryRepo()
	}
	fields := ingest.NewFieldExtractor(c, ingest.FieldOptions{FieldTimeout: 50 * time.Millisecond, MaxAttempts: 1})
	return &Service{
		Catalog:   ingest.DefaultCatalog(),
		Pipeline:  ingest.NewPipeline(extract.DefaultRegistry(), fields, ingest.Normalizer{}),
		Repo:      repo,
		Store:     store,
		Completer: c,
		Provider:  "openai",
		Model:     "gpt-4o-mini",
	}
}

var incidentDoc = extract.UploadedDocument{
	Data:     []byte("Incident report\nPhishing wave hit finance on 03/15/2024.\nCriticality: high\n"),
	MimeType: "text/plain",
	FileName: "phishing.txt",
}

func TestImportArchivesUploadAndText(t *testing.T) {
	store := localstore.New(t.TempDir())
	svc := newTestService(t, incidentModel(), store, nil)

	res, err := svc.Import(context.Background(), "user-1", "Incident", incidentDoc)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.Schema != "incident" || res.DocumentName != "phishing.txt" {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Record["Date"] != "2024-03-15" || res.Record["Criticality"] != "High" || res.Record["Status"] != "Open" {
		t.Fatalf("unexpected record %v", res.Record)
	}
	if res.ExtractedTextLength == 0 {
		t.Fatalf("expected extracted text length")
	}
	if !strings.HasPrefix(res.StorageKey, "imports/incident/") {
		t.Fatalf("unexpected storage key %q", res.StorageKey)
	}

	rc, err := store.Open(context.Background(), extract.ExtractedKey(res.StorageKey))
	if err != nil {
		t.Fatalf("open extracted text: %v", err)
	}
	defer rc.Close()
	text, _ := io.ReadAll(rc)
	if !strings.Contains(string(text), "Phishing wave hit finance") {
		t.Fatalf("unexpected archived text %q", text)
	}
}

type failingStore struct{ object.ObjectStore }

func (failingStore) Save(context.Context, string, string, string, io.Reader) (object.Object, error) {
	return object.Object{}, errors.New("bucket unavailable")
}

func TestImportSurvivesArchiveFailure(t *testing.T) {
	svc := newTestService(t, incidentModel(), failingStore{}, nil)
	res, err := svc.Import(context.Background(), "user-1", "incident", incidentDoc)
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if res.StorageKey != "" {
		t.Fatalf("expected no storage key, got %q", res.StorageKey)
	}
	if res.Record["IncidentTitle"] != "Phishing wave" {
		t.Fatalf("unexpected record %v", res.Record)
	}
}

func TestImportErrors(t *testing.T) {
	calls := 0
	c := completerFunc(func(context.Context, string) (string, error) {
		calls++
		return `{}`, nil
	})
	svc := newTestService(t, c, nil, nil)
	ctx := context.Background()

	if _, err := svc.Import(ctx, "u", "vendor", incidentDoc); !errors.Is(err, ErrUnknownSchema) {
		t.Fatalf("expected ErrUnknownSchema, got %v", err)
	}
	if _, err := svc.Import(ctx, "u", "incident", extract.UploadedDocument{FileName: "empty.txt"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	rtf := extract.UploadedDocument{Data: []byte(`{\rtf1 outage}`), FileName: "notes.rtf"}
	if _, err := svc.Import(ctx, "u", "incident", rtf); !errors.Is(err, extract.ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("expected no model calls, got %d", calls)
	}
}

type failingRepo struct{ *MemoryRepo }

func (failingRepo) Create(context.Context, Record) error { return errors.New("insert failed") }

func TestSaveNormalizesAndPersists(t *testing.T) {
	svc := newTestService(t, nil, nil, nil)
	ctx := context.Background()

	res, err := svc.Save(ctx, "user-1", "risk", SaveRequest{
		Records: []map[string]any{
			{"RiskTitle": "Key supplier insolvency", "RiskLikelihood": "4", "RiskImpact": 9},
			{"RiskTitle": "  "},
		},
		SourceFile: "register.xlsx",
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if len(res.Saved) != 2 || len(res.Errors) != 0 {
		t.Fatalf("unexpected save result %+v", res)
	}
	if res.Saved[0].Title != "Key supplier insolvency" || res.Saved[1].Title != "Untitled Risk" {
		t.Fatalf("unexpected titles %+v", res.Saved)
	}

	records, err := svc.List(ctx, "risk", 10, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	got, err := svc.Get(ctx, "risk", res.Saved[0].ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Values["RiskExposureRating"] != float64(36) || got.SourceFile != "register.xlsx" {
		t.Fatalf("unexpected stored record %+v", got)
	}
	if got.Provenance["RiskTitle"].Source != ingest.SourceReviewed {
		t.Fatalf("expected reviewed provenance, got %+v", got.Provenance["RiskTitle"])
	}

	if _, err := svc.Get(ctx, "risk", "not-a-uuid"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Save(ctx, "user-1", "risk", SaveRequest{}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSaveReportsRepoFailures(t *testing.T) {
	svc := newTestService(t, nil, nil, failingRepo{NewMemoryRepo()})
	res, err := svc.Save(context.Background(), "user-1", "incident", SaveRequest{
		Records: []map[string]any{{"IncidentTitle": "Outage"}},
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if len(res.Saved) != 0 || len(res.Errors) != 1 || res.Errors[0].Index != 0 {
		t.Fatalf("unexpected save result %+v", res)
	}
}

func TestCheckLLM(t *testing.T) {
	tests := []struct {
		name   string
		c      llm.Completer
		status string
		errIs  error
	}{
		{"ok", completerFunc(func(_ context.Context, p string) (string, error) {
			if p != llm.ProbePrompt {
				t.Errorf("unexpected probe prompt %q", p)
			}
			return "```json\n{\"ok\": true}\n```", nil
		}), "ok", nil},
		{"not configured", llm.PlaceholderCompleter{}, "not_configured", llm.ErrNotConfigured},
		{"bad reply", completerFunc(func(context.Context, string) (string, error) {
			return `{"ok": false}`, nil
		}), "error", llm.ErrMalformedResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t, tt.c, nil, nil)
			health, err := svc.CheckLLM(context.Background())
			if tt.errIs == nil && err != nil {
				t.Fatalf("CheckLLM: %v", err)
			}
			if tt.errIs != nil && !errors.Is(err, tt.errIs) {
				t.Fatalf("expected %v, got %v", tt.errIs, err)
			}
			if health.Status != tt.status || health.Provider != "openai" {
				t.Fatalf("unexpected health %+v", health)
			}
		})
	}
}
