package models

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func validTask() Task {
	return Task{
		ID:          "task-1",
		Date:        time.Date(2025, time.March, 14, 0, 0, 0, 0, time.UTC),
		Type:        "Emergency repair",
		Description: "Replaced the intake valve",
		Location:    "M9",
		Performers:  "A. Kireytsev, M. Matveev",
	}
}

func TestTaskValidate(t *testing.T) {
	task := validTask()
	if err := task.Validate(); err != nil {
		t.Errorf("Valid task should pass validation: %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(*Task)
		wantErr error
	}{
		{"empty id", func(task *Task) { task.ID = "" }, ErrEmptyTaskID},
		{"zero date", func(task *Task) { task.Date = time.Time{} }, ErrZeroTaskDate},
		{"empty type", func(task *Task) { task.Type = "" }, ErrEmptyTaskType},
		{"empty description", func(task *Task) { task.Description = "" }, ErrEmptyDescription},
		{"empty location", func(task *Task) { task.Location = "" }, ErrEmptyLocation},
		{"no performers", func(task *Task) { task.Performers = "" }, ErrNoPerformers},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := validTask()
			tt.mutate(&task)
			if err := task.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestParseDateToken(t *testing.T) {
	ts, err := ParseDateToken("14.03.2025")
	if err != nil {
		t.Fatalf("ParseDateToken failed: %v", err)
	}
	if ts.Day() != 14 || ts.Month() != time.March || ts.Year() != 2025 {
		t.Errorf("Unexpected parsed date: %v", ts)
	}

	for _, bad := range []string{"", "done", "other", "2025-03-14", "32.01.2025"} {
		if _, err := ParseDateToken(bad); err == nil {
			t.Errorf("ParseDateToken(%q) should fail", bad)
		}
	}
}

func TestNewTaskDraft(t *testing.T) {
	draft := NewTaskDraft()
	if draft.Step != StepStart {
		t.Errorf("New draft should start at StepStart, got %s", draft.Step)
	}
	if draft.CreatedAt.IsZero() || draft.UpdatedAt.IsZero() {
		t.Errorf("New draft should carry timestamps")
	}
	if len(draft.Performers) != 0 {
		t.Errorf("New draft should have no performers")
	}
}

func TestDraftSummary(t *testing.T) {
	draft := &TaskDraft{
		Date:        "14.03.2025",
		TaskType:    "Emergency repair",
		Description: "Replaced the intake valve",
		Location:    "M9",
		Performers:  []string{"A. Kireytsev", "M. Matveev"},
	}

	lines := strings.Split(draft.Summary(), "\n")
	want := []string{"14.03.2025", "Emergency repair", "Replaced the intake valve", "M9", "A. Kireytsev", "M. Matveev"}
	if len(lines) != len(want) {
		t.Fatalf("Expected %d summary lines, got %d: %q", len(want), len(lines), lines)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("Summary line %d: expected %q, got %q", i, want[i], lines[i])
		}
	}
}

func TestReservedTokensNeverParseAsDates(t *testing.T) {
	// The engine relies on sentinel tokens being rejected by the date parser.
	for _, token := range []string{TokenDone, TokenOtherLocation} {
		if _, err := ParseDateToken(token); err == nil {
			t.Errorf("Reserved token %q must not parse as a date", token)
		}
	}
}
