package history

import (
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestAddAndRecent(t *testing.T) {
	store := newTestStore(t)

	base := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	entries := []*Entry{
		{RegNo: "KA05MN1234", Ticket: "TM111111111", Branch: BranchNewComplaint,
			Sender: "rahul@example.com", Subject: "New Complaint", ProblemArea: "Engine",
			ProcessedAt: base},
		{RegNo: "KA05MN1234", Ticket: "TM222222222", Branch: BranchStatusUpdate,
			Sender: "rahul@example.com", Subject: "Status?", ProblemArea: "General",
			ProcessedAt: base.Add(time.Hour)},
		{Branch: BranchMissingDetails, Sender: "new@example.com",
			Outcome: "requested: Reg No", ProcessedAt: base.Add(2 * time.Hour)},
	}
	for _, e := range entries {
		if err := store.Add(e); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
		if e.ID == 0 {
			t.Error("Add() did not set the entry ID")
		}
	}

	recent, err := store.Recent(2)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("Recent(2) returned %d entries", len(recent))
	}
	// Newest first.
	if recent[0].Branch != BranchMissingDetails {
		t.Errorf("Recent()[0].Branch = %q, want %q", recent[0].Branch, BranchMissingDetails)
	}
	if recent[0].Outcome != "requested: Reg No" {
		t.Errorf("Recent()[0].Outcome = %q", recent[0].Outcome)
	}
	if recent[1].Ticket != "TM222222222" {
		t.Errorf("Recent()[1].Ticket = %q, want TM222222222", recent[1].Ticket)
	}
}

func TestAddDefaultsProcessedAt(t *testing.T) {
	store := newTestStore(t)

	e := &Entry{Branch: BranchClosed, RegNo: "MH12AB3456"}
	if err := store.Add(e); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if e.ProcessedAt.IsZero() {
		t.Error("Add() left ProcessedAt zero")
	}
}

func TestStats(t *testing.T) {
	store := newTestStore(t)

	for _, branch := range []string{
		BranchNewComplaint, BranchNewComplaint, BranchStatusUpdate, BranchClosed,
	} {
		if err := store.Add(&Entry{Branch: branch}); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}

	stats, err := store.Stats()
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	want := map[string]int{
		BranchNewComplaint: 2,
		BranchStatusUpdate: 1,
		BranchClosed:       1,
	}
	for branch, count := range want {
		if stats[branch] != count {
			t.Errorf("Stats()[%q] = %d, want %d", branch, stats[branch], count)
		}
	}
}

func TestRecentEmptyStore(t *testing.T) {
	store := newTestStore(t)

	recent, err := store.Recent(10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(recent) != 0 {
		t.Errorf("Recent() on empty store returned %d entries", len(recent))
	}
}
