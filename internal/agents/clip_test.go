package agents

import (
	"testing"

	"github.com/mediaagentiq/orchestrator/internal/agentkit"
)

func TestClipAgentValidate(t *testing.T) {
	a := NewClipAgent(Integrations{})
	if !a.Validate("broadcast.mp4") {
		t.Error("expected .mp4 input to validate")
	}
	if a.Validate("broadcast.txt") {
		t.Error("expected .txt input to fail validation")
	}
}

func TestClipAgentDemoProcessSortsByViralScore(t *testing.T) {
	a := NewClipAgent(Integrations{})
	out, err := a.DemoProcess("broadcast.mp4")
	if err != nil {
		t.Fatalf("DemoProcess returned error: %v", err)
	}
	clips, ok := out["suggested_clips"].([]any)
	if !ok || len(clips) == 0 {
		t.Fatalf("expected non-empty suggested_clips, got %v", out["suggested_clips"])
	}
	prev := 2.0
	for _, c := range clips {
		score := c.(map[string]any)["viral_score"].(float64)
		if score > prev {
			t.Errorf("clips not sorted by descending viral_score: %v after %v", score, prev)
		}
		prev = score
	}
	for _, key := range []string{"viral_moments", "social_posts", "clip_count", "top_score", "duration_s"} {
		if _, ok := out[key]; !ok {
			t.Errorf("missing key %q in output", key)
		}
	}
}

func TestClipAgentProductionRequiresOpenAI(t *testing.T) {
	a := NewClipAgent(Integrations{})
	if _, err := a.ProductionProcess("broadcast.mp4"); err != agentkit.ErrProductionNotReady {
		t.Errorf("expected ErrProductionNotReady, got %v", err)
	}
}
