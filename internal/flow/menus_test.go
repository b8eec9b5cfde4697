package flow

import (
	"testing"
	"time"

	"github.com/fieldops/taskbot/internal/models"
)

func pinnedMenus(t *testing.T, pinned time.Time) *Menus {
	t.Helper()
	m := NewMenus()
	m.now = func() time.Time { return pinned }
	return m
}

func TestDateKeyboardLayout(t *testing.T) {
	pinned := time.Date(2025, time.March, 14, 12, 0, 0, 0, time.UTC)
	menus := pinnedMenus(t, pinned)

	keyboard := menus.LayoutFor(QuestionDate)
	if len(keyboard) != 3 {
		t.Fatalf("Expected 3 rows for 7 dates, got %d", len(keyboard))
	}
	if len(keyboard[0]) != 3 || len(keyboard[1]) != 3 || len(keyboard[2]) != 1 {
		t.Errorf("Expected 3/3/1 row layout, got %d/%d/%d", len(keyboard[0]), len(keyboard[1]), len(keyboard[2]))
	}

	if got := keyboard[0][0].Token; got != "14.03.2025" {
		t.Errorf("First button should be today, got %q", got)
	}
	if got := keyboard[0][1].Token; got != "13.03.2025" {
		t.Errorf("Second button should be yesterday, got %q", got)
	}
	if got := keyboard[2][0].Token; got != "08.03.2025" {
		t.Errorf("Last button should be six days back, got %q", got)
	}

	// Month boundaries roll over correctly.
	menus = pinnedMenus(t, time.Date(2025, time.March, 2, 12, 0, 0, 0, time.UTC))
	keyboard = menus.LayoutFor(QuestionDate)
	if got := keyboard[0][2].Token; got != "28.02.2025" {
		t.Errorf("Expected rollover into February, got %q", got)
	}

	// Every token parses back into a timestamp.
	for _, row := range keyboard {
		for _, b := range row {
			if _, err := models.ParseDateToken(b.Token); err != nil {
				t.Errorf("Date token %q should parse: %v", b.Token, err)
			}
		}
	}
}

func TestTypeKeyboardLayout(t *testing.T) {
	keyboard := NewMenus().LayoutFor(QuestionTaskType)
	if len(keyboard) != 2 || len(keyboard[0]) != 2 || len(keyboard[1]) != 2 {
		t.Fatalf("Expected 2x2 type layout, got %v", keyboard)
	}
	for _, row := range keyboard {
		for _, b := range row {
			if b.Label == "" || b.Token != b.Label {
				t.Errorf("Type button should use its label as token, got %+v", b)
			}
		}
	}
}

func TestLocationKeyboardLayout(t *testing.T) {
	keyboard := NewMenus().LayoutFor(QuestionLocation)
	if len(keyboard) != 3 {
		t.Fatalf("Expected 3 location rows, got %d", len(keyboard))
	}
	if len(keyboard[0]) != 3 || len(keyboard[1]) != 3 {
		t.Errorf("Expected two rows of 3 locations, got %d/%d", len(keyboard[0]), len(keyboard[1]))
	}

	last := keyboard[2]
	if len(last) != 1 || last[0].Token != models.TokenOtherLocation {
		t.Errorf("Last row should be the free-text escape, got %+v", last)
	}

	// The reserved token never appears on an ordinary location button.
	for _, row := range keyboard[:2] {
		for _, b := range row {
			if b.Token == models.TokenOtherLocation {
				t.Errorf("Location %q must not reuse the reserved token", b.Label)
			}
		}
	}
}

func TestPerformerKeyboardLayout(t *testing.T) {
	keyboard := NewMenus().LayoutFor(QuestionPerformers)
	if len(keyboard) != 4 {
		t.Fatalf("Expected 4 performer rows, got %d", len(keyboard))
	}

	last := keyboard[3]
	if len(last) != 1 || last[0].Token != models.TokenDone {
		t.Errorf("Last row should be the terminator, got %+v", last)
	}
	for _, row := range keyboard[:3] {
		if len(row) != 2 {
			t.Errorf("Performer rows should hold 2 buttons, got %d", len(row))
		}
		for _, b := range row {
			if b.Token == models.TokenDone {
				t.Errorf("Performer %q must not reuse the reserved token", b.Label)
			}
		}
	}
}

func TestLayoutForUnknownKind(t *testing.T) {
	if keyboard := NewMenus().LayoutFor(QuestionKind("unknown")); keyboard != nil {
		t.Errorf("Unknown question kind should yield no keyboard, got %v", keyboard)
	}
}
