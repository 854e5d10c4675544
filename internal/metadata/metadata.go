// Package metadata keeps repository metadata in a SQLite database keyed by
// project name.
package metadata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/spiffcs/stalemate/internal/model"
)

// ErrNotFound is returned when no metadata is recorded for a project.
var ErrNotFound = errors.New("metadata not found")

// DB is the metadata database.
type DB struct {
	*sql.DB
}

// Open opens the database at path and creates its schema.
func Open(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{DB: sqlDB}
	if err := db.Initialize(); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// Initialize creates the schema if it does not exist.
func (db *DB) Initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS repositories (
		project TEXT PRIMARY KEY,
		created_at TIMESTAMP,
		language TEXT NOT NULL DEFAULT '',
		watchers INTEGER NOT NULL DEFAULT 0,
		archived BOOLEAN NOT NULL DEFAULT 0,
		fork BOOLEAN NOT NULL DEFAULT 0
	);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Put inserts or replaces the metadata of a project.
func (db *DB) Put(ctx context.Context, m model.Metadata) error {
	query := `
	INSERT INTO repositories (project, created_at, language, watchers, archived, fork)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(project) DO UPDATE SET
		created_at = excluded.created_at,
		language = excluded.language,
		watchers = excluded.watchers,
		archived = excluded.archived,
		fork = excluded.fork
	`
	var created any
	if !m.CreatedAt.IsZero() {
		created = m.CreatedAt.UTC()
	}
	_, err := db.ExecContext(ctx, query, m.Project, created, m.Language, m.Watchers, m.Archived, m.Fork)
	if err != nil {
		return fmt.Errorf("failed to save metadata for %s: %w", m.Project, err)
	}
	return nil
}

// Get returns the metadata of a project.
func (db *DB) Get(ctx context.Context, project string) (model.Metadata, error) {
	query := `
	SELECT project, created_at, language, watchers, archived, fork
	FROM repositories WHERE project = ?
	`
	m, err := scan(db.QueryRowContext(ctx, query, project))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Metadata{}, fmt.Errorf("%s: %w", project, ErrNotFound)
	}
	if err != nil {
		return model.Metadata{}, fmt.Errorf("failed to load metadata for %s: %w", project, err)
	}
	return m, nil
}

// Has reports whether metadata is recorded for a project.
func (db *DB) Has(ctx context.Context, project string) (bool, error) {
	var n int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM repositories WHERE project = ?`, project).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to query metadata: %w", err)
	}
	return n > 0, nil
}

// List returns the metadata of every project ordered by name.
func (db *DB) List(ctx context.Context) ([]model.Metadata, error) {
	rows, err := db.QueryContext(ctx, `
	SELECT project, created_at, language, watchers, archived, fork
	FROM repositories ORDER BY project
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var all []model.Metadata
	for rows.Next() {
		m, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan metadata: %w", err)
		}
		all = append(all, m)
	}
	return all, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(s scanner) (model.Metadata, error) {
	var m model.Metadata
	var created sql.NullTime
	if err := s.Scan(&m.Project, &created, &m.Language, &m.Watchers, &m.Archived, &m.Fork); err != nil {
		return model.Metadata{}, err
	}
	if created.Valid {
		m.CreatedAt = created.Time.UTC()
	}
	return m, nil
}
