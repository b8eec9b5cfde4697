// Package flow implements the conversation engine that drives the multi-step
// record collection dialogue.
package flow

import (
	"log/slog"
	"sync"

	"github.com/fieldops/taskbot/internal/models"
)

// DraftStore is the per-user table of in-progress task drafts. It is owned
// exclusively by the conversation engine; no other component mutates drafts.
// Abandoned drafts are never evicted (known limitation).
type DraftStore struct {
	mu     sync.Mutex
	drafts map[int64]*models.TaskDraft
}

// NewDraftStore creates an empty draft table.
func NewDraftStore() *DraftStore {
	return &DraftStore{drafts: make(map[int64]*models.TaskDraft)}
}

// GetOrCreate returns the existing draft for a user or inserts a fresh one at
// the initial step.
func (ds *DraftStore) GetOrCreate(userID int64) *models.TaskDraft {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	if draft, ok := ds.drafts[userID]; ok {
		return draft
	}
	draft := models.NewTaskDraft()
	ds.drafts[userID] = draft
	slog.Debug("DraftStore created draft", "user_id", userID)
	return draft
}

// Reset replaces the user's draft with a fresh one unconditionally and
// returns the new draft.
func (ds *DraftStore) Reset(userID int64) *models.TaskDraft {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	draft := models.NewTaskDraft()
	ds.drafts[userID] = draft
	slog.Debug("DraftStore reset draft", "user_id", userID)
	return draft
}

// Get returns the draft for a user, or nil when none exists.
func (ds *DraftStore) Get(userID int64) *models.TaskDraft {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	return ds.drafts[userID]
}

// Count returns the number of drafts currently held.
func (ds *DraftStore) Count() int {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	return len(ds.drafts)
}
