package imports

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"grc-backend/internal/ingest"
)

// PGRepo implements RecordsRepo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new record.
func (r *PGRepo) Create(ctx context.Context, rec Record) error {
	const query = `
INSERT INTO import_records (
    id,
    schema_name,
    owner_id,
    title,
    source_file,
    storage_key,
    record,
    provenance,
    created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	values, err := json.Marshal(rec.Values)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	provenance := []byte("{}")
	if rec.Provenance != nil {
		if provenance, err = json.Marshal(rec.Provenance); err != nil {
			return fmt.Errorf("marshal provenance: %w", err)
		}
	}

	_, err = r.DB.ExecContext(
		ctx,
		query,
		rec.ID,
		rec.SchemaName,
		rec.OwnerID,
		nullString(rec.Title),
		nullString(rec.SourceFile),
		nullString(rec.StorageKey),
		values,
		provenance,
		rec.CreatedAt,
	)
	return err
}

const selectColumns = `id, schema_name, owner_id, title, source_file, storage_key, record, provenance, created_at`

// GetByID fetches a record by ID within a schema.
func (r *PGRepo) GetByID(ctx context.Context, schemaName, id string) (Record, error) {
	query := `
SELECT ` + selectColumns + `
FROM import_records
WHERE schema_name = $1 AND id = $2
LIMIT 1`
	rec, err := scanRecord(r.DB.QueryRowContext(ctx, query, schemaName, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	return rec, nil
}

// ListBySchema lists records ordered newest-first.
func (r *PGRepo) ListBySchema(ctx context.Context, schemaName string, limit, offset int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	query := `
SELECT ` + selectColumns + `
FROM import_records
WHERE schema_name = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

	rows, err := r.DB.QueryContext(ctx, query, schemaName, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var (
		rec        Record
		title      sql.NullString
		sourceFile sql.NullString
		storageKey sql.NullString
		values     []byte
		provenance []byte
	)
	if err := row.Scan(
		&rec.ID,
		&rec.SchemaName,
		&rec.OwnerID,
		&title,
		&sourceFile,
		&storageKey,
		&values,
		&provenance,
		&rec.CreatedAt,
	); err != nil {
		return Record{}, err
	}
	rec.Title = title.String
	rec.SourceFile = sourceFile.String
	rec.StorageKey = storageKey.String
	if err := json.Unmarshal(values, &rec.Values); err != nil {
		return Record{}, fmt.Errorf("decode record %s: %w", rec.ID, err)
	}
	if len(provenance) > 0 {
		rec.Provenance = map[string]ingest.Provenance{}
		if err := json.Unmarshal(provenance, &rec.Provenance); err != nil {
			return Record{}, fmt.Errorf("decode provenance %s: %w", rec.ID, err)
		}
	}
	return rec, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

var _ RecordsRepo = (*PGRepo)(nil)
