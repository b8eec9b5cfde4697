// Package store provides storage backends for finished task records.
//
// This file implements a PostgreSQL-backed store.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"github.com/fieldops/taskbot/internal/models"
	_ "github.com/lib/pq"
)

// Database connection pool configuration constants
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewPostgresStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running Postgres migrations")
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied successfully")

	return &PostgresStore{db: db}, nil
}

// AddTask appends a finished record and returns the number of rows written.
func (s *PostgresStore) AddTask(task models.Task) (int64, error) {
	result, err := s.db.Exec(
		`INSERT INTO tasks (id, date, type, description, location, performers) VALUES ($1, $2, $3, $4, $5, $6)`,
		task.ID, task.Date, task.Type, task.Description, task.Location, task.Performers,
	)
	if err != nil {
		slog.Error("PostgresStore AddTask failed", "error", err, "task_id", task.ID)
		return 0, fmt.Errorf("failed to insert task %s: %w", task.ID, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		slog.Error("PostgresStore AddTask rows affected failed", "error", err, "task_id", task.ID)
		return 0, fmt.Errorf("failed to read rows affected for task %s: %w", task.ID, err)
	}
	slog.Debug("PostgresStore AddTask succeeded", "task_id", task.ID, "rows", rows)
	return rows, nil
}

// GetTasks returns all stored task records.
func (s *PostgresStore) GetTasks() ([]models.Task, error) {
	rows, err := s.db.Query(`SELECT id, date, type, description, location, performers FROM tasks`)
	if err != nil {
		slog.Error("PostgresStore GetTasks query failed", "error", err)
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		var t models.Task
		if err := rows.Scan(&t.ID, &t.Date, &t.Type, &t.Description, &t.Location, &t.Performers); err != nil {
			slog.Error("PostgresStore GetTasks scan failed", "error", err)
			return nil, fmt.Errorf("failed to scan task row: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		slog.Error("PostgresStore GetTasks rows iteration failed", "error", err)
		return nil, fmt.Errorf("failed to iterate task rows: %w", err)
	}
	slog.Debug("PostgresStore GetTasks succeeded", "count", len(tasks))
	return tasks, nil
}

// ClearTasks deletes all records in the tasks table (for tests).
func (s *PostgresStore) ClearTasks() error {
	_, err := s.db.Exec("DELETE FROM tasks")
	if err != nil {
		slog.Error("PostgresStore ClearTasks failed", "error", err)
		return err
	}
	return nil
}

// Close closes the Postgres database connection.
func (s *PostgresStore) Close() error {
	slog.Debug("Closing Postgres database connection")
	err := s.db.Close()
	if err != nil {
		slog.Error("Failed to close Postgres database", "error", err)
	}
	return err
}
