package imports

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"grc-backend/internal/ingest"
)

func TestPGRepoCreateStoresJSONColumns(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	rec := Record{
		ID:         "7d3f8a52-3b7e-4c59-9d1a-0d5c2f6b9e11",
		SchemaName: "risk",
		OwnerID:    "user-1",
		Title:      "Key supplier insolvency",
		Values:     map[string]any{"RiskTitle": "Key supplier insolvency"},
		Provenance: map[string]ingest.Provenance{"RiskTitle": {Source: ingest.SourceReviewed}},
		CreatedAt:  time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}

	mock.ExpectExec("INSERT INTO import_records").
		WithArgs(
			rec.ID,
			rec.SchemaName,
			rec.OwnerID,
			sqlmock.AnyArg(), // title
			nil,              // source_file
			nil,              // storage_key
			[]byte(`{"RiskTitle":"Key supplier insolvency"}`),
			[]byte(`{"RiskTitle":{"source":"reviewed"}}`),
			rec.CreatedAt,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := (&PGRepo{DB: db}).Create(context.Background(), rec); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoListBySchemaDecodesRecords(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	created := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "schema_name", "owner_id", "title", "source_file", "storage_key", "record", "provenance", "created_at"}).
		AddRow("id-1", "incident", "user-1", "Laptop stolen", "incident.pdf", nil, []byte(`{"IncidentTitle":"Laptop stolen","Cost":1200}`), []byte(`{"Cost":{"source":"extracted","confidence":0.9}}`), created)

	mock.ExpectQuery("SELECT (.+) FROM import_records").
		WithArgs("incident", 100, 0).
		WillReturnRows(rows)

	got, err := (&PGRepo{DB: db}).ListBySchema(context.Background(), "incident", 500, -1)
	if err != nil {
		t.Fatalf("ListBySchema: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
	rec := got[0]
	if rec.Title != "Laptop stolen" || rec.SourceFile != "incident.pdf" || rec.StorageKey != "" {
		t.Fatalf("unexpected record %+v", rec)
	}
	if rec.Values["Cost"] != float64(1200) {
		t.Fatalf("unexpected values %v", rec.Values)
	}
	if p := rec.Provenance["Cost"]; p.Source != ingest.SourceExtracted || p.Confidence != 0.9 {
		t.Fatalf("unexpected provenance %+v", p)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByIDMapsNoRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectQuery("SELECT (.+) FROM import_records").
		WithArgs("risk", "missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	if _, err := (&PGRepo{DB: db}).GetByID(context.Background(), "risk", "missing"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
