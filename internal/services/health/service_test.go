package health

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestStatusWithoutDatabase(t *testing.T) {
	got := NewService(nil, "none", "local").Status(context.Background())
	if got["ok"] != true || got["database"] != "memory" || got["llmProvider"] != "none" {
		t.Fatalf("unexpected status %v", got)
	}
}

func TestStatusReportsDatabaseDown(t *testing.T) {
	conn, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	got := NewService(conn, "openai", "s3").Status(context.Background())
	if got["ok"] != false || got["database"] != "down" {
		t.Fatalf("unexpected status %v", got)
	}
}
