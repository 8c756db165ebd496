package health

import (
	"context"
	"database/sql"
	"time"

	"grc-backend/internal/shared/storage/db"
)

const pingTimeout = 2 * time.Second

// Service encapsulates health-related checks.
type Service struct {
	DB          *sql.DB
	LLMProvider string
	Storage     string
}

// NewService constructs a new health service. database may be nil when the
// app runs on in-memory repositories.
func NewService(database *sql.DB, llmProvider, storage string) *Service {
	return &Service{DB: database, LLMProvider: llmProvider, Storage: storage}
}

// Status reports liveness and the state of each dependency. ok is false only
// when a configured database does not answer.
func (s *Service) Status(ctx context.Context) map[string]any {
	database := "memory"
	ok := true
	if s.DB != nil {
		database = "up"
		if err := db.Ping(ctx, s.DB, pingTimeout); err != nil {
			database = "down"
			ok = false
		}
	}
	return map[string]any{
		"ok":          ok,
		"database":    database,
		"llmProvider": s.LLMProvider,
		"storage":     s.Storage,
	}
}
