package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

type SQLiteService struct {
	db     *sql.DB
	path   string
	logger *zap.Logger
}

// NewSQLiteService opens the database at path in WAL mode and applies migrations.
func NewSQLiteService(ctx context.Context, path string, logger *zap.Logger) (*SQLiteService, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("make db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite serialises writers; one connection avoids SQLITE_BUSY under concurrent upserts.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA synchronous = NORMAL;",
		"PRAGMA busy_timeout = 5000;",
		"PRAGMA cache_size = -16000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("pragma %q: %w", p, err)
		}
	}

	if err := ApplyMigrations(ctx, db, DialectSQLite); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Info("SQLite opened", zap.String("path", path))

	return &SQLiteService{db: db, path: path, logger: logger}, nil
}

func (s *SQLiteService) GetDB() *sql.DB {
	return s.db
}

func (s *SQLiteService) Dialect() Dialect {
	return DialectSQLite
}

func (s *SQLiteService) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteService) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
