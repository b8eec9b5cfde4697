// Package testutil provides common test utilities and helpers for TaskBot tests.
package testutil

import (
	"testing"
	"time"

	"github.com/fieldops/taskbot/internal/models"
	"github.com/fieldops/taskbot/internal/store"
)

// TestChatID is the chat id used by tests across packages.
const TestChatID int64 = 1000

// TextEvent builds a normalized free-text inbound event for tests.
func TextEvent(userID int64, messageID int, text string) models.Event {
	return models.Event{
		Kind:      models.EventKindText,
		UserID:    userID,
		ChatID:    TestChatID,
		MessageID: messageID,
		Text:      text,
		Time:      time.Now().Unix(),
	}
}

// SelectionEvent builds a normalized button-callback inbound event for tests.
func SelectionEvent(userID int64, messageID int, token string) models.Event {
	return models.Event{
		Kind:      models.EventKindSelection,
		UserID:    userID,
		ChatID:    TestChatID,
		MessageID: messageID,
		Token:     token,
		Time:      time.Now().Unix(),
	}
}

// SampleTask returns a valid finished record for store tests.
func SampleTask(id string) models.Task {
	return models.Task{
		ID:          id,
		Date:        time.Date(2025, time.March, 14, 0, 0, 0, 0, time.UTC),
		Type:        "Emergency repair",
		Description: "Replaced the intake valve",
		Location:    "M9",
		Performers:  "A. Kireytsev, M. Matveev",
	}
}

// SeedTestData adds sample records to the store for testing.
func SeedTestData(t *testing.T, st store.Store) {
	t.Helper()

	for _, id := range []string{"task-1", "task-2"} {
		if _, err := st.AddTask(SampleTask(id)); err != nil {
			t.Fatalf("failed to add test task %s: %v", id, err)
		}
	}
}

// AssertTaskCount validates the number of records in the store.
func AssertTaskCount(t *testing.T, st store.Store, expected int, context string) {
	t.Helper()
	tasks, err := st.GetTasks()
	if err != nil {
		t.Fatalf("%s: failed to get tasks: %v", context, err)
	}
	if len(tasks) != expected {
		t.Errorf("%s: expected %d tasks, got %d", context, expected, len(tasks))
	}
}

// AssertTaskEquals compares two Task records field by field.
func AssertTaskEquals(t *testing.T, expected, actual models.Task, context string) {
	t.Helper()
	if actual.ID != expected.ID ||
		!actual.Date.Equal(expected.Date) ||
		actual.Type != expected.Type ||
		actual.Description != expected.Description ||
		actual.Location != expected.Location ||
		actual.Performers != expected.Performers {
		t.Errorf("%s: tasks don't match\nexpected: %+v\nactual: %+v", context, expected, actual)
	}
}
