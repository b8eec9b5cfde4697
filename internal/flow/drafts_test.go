package flow

import (
	"testing"

	"github.com/fieldops/taskbot/internal/models"
)

func TestDraftStoreGetOrCreate(t *testing.T) {
	ds := NewDraftStore()

	draft := ds.GetOrCreate(1)
	if draft == nil {
		t.Fatalf("GetOrCreate should return a draft")
	}
	if draft.Step != models.StepStart {
		t.Errorf("New draft should start at the initial step, got %s", draft.Step)
	}
	if ds.Count() != 1 {
		t.Errorf("Expected 1 draft, got %d", ds.Count())
	}

	// The same pointer comes back for the same user.
	draft.Date = "14.03.2025"
	again := ds.GetOrCreate(1)
	if again != draft {
		t.Errorf("GetOrCreate should return the existing draft")
	}
	if again.Date != "14.03.2025" {
		t.Errorf("Existing draft state should be preserved, got %q", again.Date)
	}

	other := ds.GetOrCreate(2)
	if other == draft {
		t.Errorf("Different users must get different drafts")
	}
	if ds.Count() != 2 {
		t.Errorf("Expected 2 drafts, got %d", ds.Count())
	}
}

func TestDraftStoreReset(t *testing.T) {
	ds := NewDraftStore()

	draft := ds.GetOrCreate(1)
	draft.Date = "14.03.2025"
	draft.Step = models.StepDateChosen

	fresh := ds.Reset(1)
	if fresh == draft {
		t.Errorf("Reset should replace the draft")
	}
	if fresh.Step != models.StepStart || fresh.Date != "" {
		t.Errorf("Reset draft should be empty, got %+v", fresh)
	}
	if ds.Get(1) != fresh {
		t.Errorf("Reset draft should be the one stored")
	}

	// Resetting a user with no draft creates one.
	created := ds.Reset(2)
	if created == nil || created.Step != models.StepStart {
		t.Errorf("Reset should create a fresh draft, got %+v", created)
	}
}

func TestDraftStoreGet(t *testing.T) {
	ds := NewDraftStore()
	if ds.Get(99) != nil {
		t.Errorf("Get for an unknown user should return nil")
	}
}
