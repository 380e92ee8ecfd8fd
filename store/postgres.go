package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"
)

// NewPostgres wraps an open PostgreSQL connection. Migrations are not applied.
func NewPostgres(db *sql.DB, logger *slog.Logger) *SQLStore {
	return newSQLStore(db, postgresDialect, logger)
}

// OpenPostgres connects to PostgreSQL using dsn and applies migrations.
func OpenPostgres(ctx context.Context, dsn string, logger *slog.Logger) (*SQLStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres store requires a DSN")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	s := NewPostgres(db, logger)
	if err := s.applyMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Info("opened postgres store")
	return s, nil
}
