package agents

import (
	"strings"
	"testing"
	"time"
)

func TestRound(t *testing.T) {
	if got := round1(1.25); got != 1.3 && got != 1.2 {
		t.Errorf("round1(1.25) = %v, want 1.2 or 1.3", got)
	}
	if got := round2(0.1234); got != 0.12 {
		t.Errorf("round2(0.1234) = %v, want 0.12", got)
	}
	if got := round3(0.123456); got != 0.123 {
		t.Errorf("round3(0.123456) = %v, want 0.123", got)
	}
}

func TestRandChoiceStaysWithinSet(t *testing.T) {
	set := []string{"a", "b", "c"}
	for i := 0; i < 20; i++ {
		got := randChoice(set)
		found := false
		for _, s := range set {
			if got == s {
				found = true
			}
		}
		if !found {
			t.Errorf("randChoice returned %q, not in %v", got, set)
		}
	}
}

func TestRandSample(t *testing.T) {
	set := []int{1, 2, 3, 4, 5}
	sample := randSample(set, 3)
	if len(sample) != 3 {
		t.Fatalf("randSample(5, 3) returned %d items, want 3", len(sample))
	}
	seen := map[int]bool{}
	for _, v := range sample {
		if seen[v] {
			t.Errorf("randSample returned duplicate value %d", v)
		}
		seen[v] = true
	}
	full := randSample(set, 10)
	if len(full) != len(set) {
		t.Errorf("randSample(n, more-than-len) = %d items, want %d", len(full), len(set))
	}
}

func TestJobID(t *testing.T) {
	id := jobID("ingest")
	if !strings.HasPrefix(id, "ingest-") {
		t.Errorf("jobID(%q) = %q, missing prefix", "ingest", id)
	}
}

func TestRandIDRange(t *testing.T) {
	for i := 0; i < 20; i++ {
		id := randID("LIC-", 1, 5)
		if !strings.HasPrefix(id, "LIC-") {
			t.Errorf("randID = %q, missing prefix", id)
		}
	}
}

func TestTitleSlugTruncatesAndUppercases(t *testing.T) {
	got := titleSlug("breaking news today")
	if got != "BREAKING_NEW" {
		t.Errorf("titleSlug = %q, want BREAKING_NEW", got)
	}
}

func TestTimecodeFormat(t *testing.T) {
	tm := time.Date(2026, 1, 1, 18, 30, 5, 0, time.UTC)
	got := timecode(tm)
	if got != "18:30:05:00" {
		t.Errorf("timecode = %q, want 18:30:05:00", got)
	}
}

func TestAnyToSlice(t *testing.T) {
	out := anyToSlice([]string{"x", "y"})
	if len(out) != 2 || out[0] != "x" || out[1] != "y" {
		t.Errorf("anyToSlice = %v", out)
	}
}
