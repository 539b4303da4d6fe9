package memory

import (
	"os"
	"strings"
	"testing"
	"time"
)

func TestOpenJournalCreatesFile(t *testing.T) {
	dir := t.TempDir()
	j, err := OpenJournal(dir, "caption", 0, 0)
	if err != nil {
		t.Fatalf("OpenJournal() error = %v", err)
	}
	if _, err := os.Stat(j.path); err != nil {
		t.Fatalf("journal file not created: %v", err)
	}
	entries, successes, avgMS := j.Stats()
	if entries != 0 || successes != 0 || avgMS != 0 {
		t.Fatalf("fresh journal stats = %d,%d,%d want 0,0,0", entries, successes, avgMS)
	}
}

func TestSlug(t *testing.T) {
	cases := map[string]string{
		"caption":                "caption",
		"ai_production_director": "ai_production_director",
		"Live Fact Check":        "live_fact_check",
	}
	for in, want := range cases {
		if got := Slug(in); got != want {
			t.Errorf("Slug(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestAppendAndStats(t *testing.T) {
	dir := t.TempDir()
	j, err := OpenJournal(dir, "compliance", 0, 0)
	if err != nil {
		t.Fatalf("OpenJournal() error = %v", err)
	}

	now := time.Now()
	if err := j.Append(Entry{
		Timestamp:     now,
		TaskID:        "t-1",
		Success:       true,
		Mode:          "demo",
		InputSummary:  "segment scan",
		OutputSummary: "score=92",
		DurationMS:    120,
	}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := j.Append(Entry{
		Timestamp:     now,
		TaskID:        "t-2",
		Success:       false,
		Mode:          "demo",
		InputSummary:  "segment scan 2",
		OutputSummary: "error",
		DurationMS:    80,
	}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	entries, successes, avgMS := j.Stats()
	if entries != 2 {
		t.Fatalf("entries = %d, want 2", entries)
	}
	if successes != 1 {
		t.Fatalf("successes = %d, want 1", successes)
	}
	if avgMS != 100 {
		t.Fatalf("avgMS = %d, want 100", avgMS)
	}

	body, err := os.ReadFile(j.path)
	if err != nil {
		t.Fatalf("read journal file: %v", err)
	}
	if !strings.Contains(string(body), "t-1") || !strings.Contains(string(body), "t-2") {
		t.Fatalf("journal file missing expected task ids:\n%s", body)
	}
}

func TestAppendTrimsBeyondMaxEntries(t *testing.T) {
	dir := t.TempDir()
	j, err := OpenJournal(dir, "social", 3, 2)
	if err != nil {
		t.Fatalf("OpenJournal() error = %v", err)
	}

	for i := 0; i < 4; i++ {
		if err := j.Append(Entry{
			Timestamp:     time.Now(),
			TaskID:        strings.Repeat("x", i+1),
			Success:       true,
			OutputSummary: "ok",
		}); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	entries, _, _ := j.Stats()
	if entries != 2 {
		t.Fatalf("entries after trim = %d, want 2 (trimTo)", entries)
	}
}

func TestRescanOnReopen(t *testing.T) {
	dir := t.TempDir()
	j, err := OpenJournal(dir, "rights", 0, 0)
	if err != nil {
		t.Fatalf("OpenJournal() error = %v", err)
	}
	_ = j.Append(Entry{Timestamp: time.Now(), TaskID: "t-1", Success: true, DurationMS: 50})

	reopened, err := OpenJournal(dir, "rights", 0, 0)
	if err != nil {
		t.Fatalf("OpenJournal() reopen error = %v", err)
	}
	entries, successes, avgMS := reopened.Stats()
	if entries != 1 || successes != 1 || avgMS != 50 {
		t.Fatalf("reopened stats = %d,%d,%d want 1,1,50", entries, successes, avgMS)
	}
}

func TestSummarizeOutputKnownAgent(t *testing.T) {
	got := SummarizeOutput("caption", map[string]any{
		"segments":       []any{1, 2, 3},
		"confidence_avg": 0.97,
		"irrelevant_key": "ignored",
	})
	if !strings.Contains(got, "segments=3 item(s)") {
		t.Errorf("SummarizeOutput() = %q, missing segments summary", got)
	}
	if !strings.Contains(got, "confidence_avg=0.97") {
		t.Errorf("SummarizeOutput() = %q, missing confidence_avg", got)
	}
	if strings.Contains(got, "irrelevant_key") {
		t.Errorf("SummarizeOutput() = %q, should not include non-mapped keys", got)
	}
}

func TestSummarizeOutputUnknownAgent(t *testing.T) {
	got := SummarizeOutput("unknown_agent", map[string]any{"a": 1, "b": 2})
	if got != "2 field(s)" {
		t.Errorf("SummarizeOutput() = %q, want generic field count", got)
	}
}
