package imports

import "context"

// RecordsRepo defines persistence operations for saved import records.
type RecordsRepo interface {
	Create(ctx context.Context, rec Record) error
	GetByID(ctx context.Context, schemaName, id string) (Record, error)
	ListBySchema(ctx context.Context, schemaName string, limit, offset int) ([]Record, error)
}
