// Package store provides storage backends for finished task records.
//
// This file implements an SQLite-backed store.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "embed"

	"github.com/fieldops/taskbot/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// Constants for SQLite store configuration
const (
	// DefaultDirPermissions defines the default permissions for database directories
	DefaultDirPermissions = 0755
)

//go:embed migrations_sqlite.sql
var sqliteMigrations string

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given DSN.
// The DSN should be a file path to the SQLite database file.
// If the directory doesn't exist, it will be created.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}

	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running SQLite migrations")
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully")

	return &SQLiteStore{db: db}, nil
}

// AddTask appends a finished record and returns the number of rows written.
func (s *SQLiteStore) AddTask(task models.Task) (int64, error) {
	result, err := s.db.Exec(
		`INSERT INTO tasks (id, date, type, description, location, performers) VALUES (?, ?, ?, ?, ?, ?)`,
		task.ID, task.Date, task.Type, task.Description, task.Location, task.Performers,
	)
	if err != nil {
		slog.Error("SQLiteStore AddTask failed", "error", err, "task_id", task.ID)
		return 0, fmt.Errorf("failed to insert task %s: %w", task.ID, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		slog.Error("SQLiteStore AddTask rows affected failed", "error", err, "task_id", task.ID)
		return 0, fmt.Errorf("failed to read rows affected for task %s: %w", task.ID, err)
	}
	slog.Debug("SQLiteStore AddTask succeeded", "task_id", task.ID, "rows", rows)
	return rows, nil
}

// GetTasks returns all stored task records.
func (s *SQLiteStore) GetTasks() ([]models.Task, error) {
	rows, err := s.db.Query(`SELECT id, date, type, description, location, performers FROM tasks`)
	if err != nil {
		slog.Error("SQLiteStore GetTasks query failed", "error", err)
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		var t models.Task
		if err := rows.Scan(&t.ID, &t.Date, &t.Type, &t.Description, &t.Location, &t.Performers); err != nil {
			slog.Error("SQLiteStore GetTasks scan failed", "error", err)
			return nil, fmt.Errorf("failed to scan task row: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		slog.Error("SQLiteStore GetTasks rows iteration failed", "error", err)
		return nil, fmt.Errorf("failed to iterate task rows: %w", err)
	}
	slog.Debug("SQLiteStore GetTasks succeeded", "count", len(tasks))
	return tasks, nil
}

// ClearTasks deletes all records in the tasks table (for tests).
func (s *SQLiteStore) ClearTasks() error {
	_, err := s.db.Exec("DELETE FROM tasks")
	if err != nil {
		slog.Error("SQLiteStore ClearTasks failed", "error", err)
		return err
	}
	return nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	slog.Debug("Closing SQLite database connection")
	err := s.db.Close()
	if err != nil {
		slog.Error("Failed to close SQLite database", "error", err)
	}
	return err
}
