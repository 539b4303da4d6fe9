package memory

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestArchive(t *testing.T) *ArchiveStore {
	t.Helper()
	dir := t.TempDir()
	s, err := NewArchiveStore(filepath.Join(dir, "archive.db"), nil)
	if err != nil {
		t.Fatalf("NewArchiveStore() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestIndexAndSearch(t *testing.T) {
	s := openTestArchive(t)
	now := time.Now()

	if err := s.IndexEntry("compliance", "task-1", "flagged profanity violation in segment 4", true, now); err != nil {
		t.Fatalf("IndexEntry() error = %v", err)
	}
	if err := s.IndexEntry("caption", "task-2", "generated 42 caption segments with high confidence", true, now); err != nil {
		t.Fatalf("IndexEntry() error = %v", err)
	}

	results, err := s.Search("violation", "", 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Search(\"violation\") returned %d results, want 1", len(results))
	}
	if results[0].Entry.AgentKey != "compliance" {
		t.Errorf("AgentKey = %q, want compliance", results[0].Entry.AgentKey)
	}
}

func TestSearchFiltersByAgent(t *testing.T) {
	s := openTestArchive(t)
	now := time.Now()
	_ = s.IndexEntry("social", "t1", "scheduled trending post about breaking news", true, now)
	_ = s.IndexEntry("trending", "t2", "detected breaking news spike", true, now)

	results, err := s.Search("breaking", "trending", 10)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	for _, r := range results {
		if r.Entry.AgentKey != "trending" {
			t.Errorf("got result for agent %q, want only trending", r.Entry.AgentKey)
		}
	}
}

func TestSearchEmptyQueryErrors(t *testing.T) {
	s := openTestArchive(t)
	if _, err := s.Search("", "", 10); err == nil {
		t.Fatal("Search(\"\") error = nil, want error")
	}
}

func TestCount(t *testing.T) {
	s := openTestArchive(t)
	now := time.Now()
	_ = s.IndexEntry("caption", "t1", "first entry", true, now)
	_ = s.IndexEntry("caption", "t2", "second entry", true, now)
	_ = s.IndexEntry("social", "t3", "third entry", true, now)

	n, err := s.Count("")
	if err != nil || n != 3 {
		t.Fatalf("Count(\"\") = %d, %v, want 3, nil", n, err)
	}

	n, err = s.Count("caption")
	if err != nil || n != 2 {
		t.Fatalf("Count(\"caption\") = %d, %v, want 2, nil", n, err)
	}
}
