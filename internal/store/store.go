// Package store provides storage backends for finished task records.
//
// It includes an in-memory store for tests and SQLite/PostgreSQL backed
// stores for production use.
package store

import (
	"log/slog"
	"sync"

	"github.com/fieldops/taskbot/internal/models"
)

// Store is the record store contract. AddTask appends one finished record and
// returns the number of rows written; callers inspect the count to decide
// success or failure messaging. Implementations must never reuse identifiers
// across calls (the engine generates a fresh id per record).
type Store interface {
	AddTask(task models.Task) (int64, error)
	GetTasks() ([]models.Task, error)
	Close() error
}

// InMemoryStore is a simple in-memory task store for tests.
type InMemoryStore struct {
	mu    sync.Mutex
	tasks []models.Task
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// AddTask appends a task record.
func (s *InMemoryStore) AddTask(task models.Task) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, task)
	slog.Debug("InMemoryStore AddTask succeeded", "task_id", task.ID)
	return 1, nil
}

// GetTasks returns all stored task records.
func (s *InMemoryStore) GetTasks() ([]models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tasks := make([]models.Task, len(s.tasks))
	copy(tasks, s.tasks)
	return tasks, nil
}

// ClearTasks removes all stored records (for tests).
func (s *InMemoryStore) ClearTasks() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = nil
	return nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error {
	return nil
}
