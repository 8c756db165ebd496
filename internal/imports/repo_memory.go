package imports

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory implementation of RecordsRepo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string][]Record // schema -> records
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{data: make(map[string][]Record)}
}

// Create stores a record under its schema.
func (r *MemoryRepo) Create(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[rec.SchemaName] = append(r.data[rec.SchemaName], rec)
	return nil
}

// GetByID returns a record by ID within a schema.
func (r *MemoryRepo) GetByID(ctx context.Context, schemaName, id string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, rec := range r.data[schemaName] {
		if rec.ID == id {
			return rec, nil
		}
	}
	return Record{}, ErrNotFound
}

// ListBySchema returns records newest first, honoring limit/offset.
func (r *MemoryRepo) ListBySchema(ctx context.Context, schemaName string, limit, offset int) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = 0
	}

	r.mu.RLock()
	records := make([]Record, len(r.data[schemaName]))
	copy(records, r.data[schemaName])
	r.mu.RUnlock()

	if offset >= len(records) {
		return []Record{}, nil
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	end := len(records)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return records[offset:end], nil
}

var _ RecordsRepo = (*MemoryRepo)(nil)
