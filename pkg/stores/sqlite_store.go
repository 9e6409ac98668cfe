package stores

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"

	// SQLite driver
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore records build history in a SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// Config holds SQLite store configuration.
type Config struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// NewSQLiteStore creates a new store instance. Init must be called before
// use.
func NewSQLiteStore(cfg Config) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}
	return &SQLiteStore{path: cfg.Path}, nil
}

// Init opens the database connection and enables WAL mode.
func (s *SQLiteStore) Init(ctx context.Context) error {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", s.path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	s.db = db
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Migrate runs the embedded schema migrations.
func (s *SQLiteStore) Migrate(_ context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	driver, err := sqlite3.WithInstance(s.db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// HealthCheck verifies the database is reachable.
func (s *SQLiteStore) HealthCheck(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}
	return s.db.PingContext(ctx)
}

// RecordBuild writes one build-history row. A missing ID is filled in.
func (s *SQLiteStore) RecordBuild(ctx context.Context, rec *BuildRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO builds (id, target, kind, config_path, target_triple, release, status, output_path, error, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		rec.ID,
		rec.Target,
		rec.Kind,
		rec.ConfigPath,
		rec.TargetTriple,
		rec.Release,
		rec.Status,
		rec.OutputPath,
		rec.Error,
		rec.Duration.Milliseconds(),
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record build: %w", err)
	}

	return nil
}

// GetBuild retrieves a build record by ID.
func (s *SQLiteStore) GetBuild(ctx context.Context, id string) (*BuildRecord, error) {
	query := `
		SELECT id, target, kind, config_path, target_triple, release, status, output_path, error, duration_ms, created_at
		FROM builds
		WHERE id = ?
	`

	rec := &BuildRecord{}
	var durationMs int64
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&rec.ID,
		&rec.Target,
		&rec.Kind,
		&rec.ConfigPath,
		&rec.TargetTriple,
		&rec.Release,
		&rec.Status,
		&rec.OutputPath,
		&rec.Error,
		&durationMs,
		&rec.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("build not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get build: %w", err)
	}

	rec.Duration = time.Duration(durationMs) * time.Millisecond
	return rec, nil
}

// ListBuilds lists build history for a target, newest first. An empty
// target lists every build.
func (s *SQLiteStore) ListBuilds(ctx context.Context, target string, limit int) ([]*BuildRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, target, kind, config_path, target_triple, release, status, output_path, error, duration_ms, created_at
		FROM builds
		WHERE (? = '' OR target = ?)
		ORDER BY created_at DESC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, target, target, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list builds: %w", err)
	}
	defer rows.Close()

	records := []*BuildRecord{}
	for rows.Next() {
		rec := &BuildRecord{}
		var durationMs int64
		err := rows.Scan(
			&rec.ID,
			&rec.Target,
			&rec.Kind,
			&rec.ConfigPath,
			&rec.TargetTriple,
			&rec.Release,
			&rec.Status,
			&rec.OutputPath,
			&rec.Error,
			&durationMs,
			&rec.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan build: %w", err)
		}
		rec.Duration = time.Duration(durationMs) * time.Millisecond
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating builds: %w", err)
	}

	return records, nil
}
