package agents

import (
	"testing"

	"github.com/mediaagentiq/orchestrator/internal/agentkit"
)

func TestSignalQualityAgentValidate(t *testing.T) {
	a := NewSignalQualityAgent(Integrations{})
	if !a.Validate(map[string]any{"stream_url": "rtmp://live"}) {
		t.Error("expected map with stream_url to validate")
	}
	if a.Validate(map[string]any{}) {
		t.Error("expected empty map to fail validation")
	}
}

func TestSignalQualityAgentDemoProcessScoreMatchesIssues(t *testing.T) {
	a := NewSignalQualityAgent(Integrations{})
	for i := 0; i < 25; i++ {
		out, err := a.DemoProcess("rtmp://live")
		if err != nil {
			t.Fatalf("DemoProcess returned error: %v", err)
		}
		issues := out["issues"].([]any)
		score := out["quality_score"].(int)
		wantScore := 100
		for _, is := range issues {
			if is.(map[string]any)["severity"] == "critical" {
				wantScore -= 25
			} else {
				wantScore -= 10
			}
		}
		if wantScore < 0 {
			wantScore = 0
		}
		if score != wantScore {
			t.Errorf("quality_score = %d, want %d for %d issues", score, wantScore, len(issues))
		}
	}
}

func TestSignalQualityAgentHasNoConfigurableIntegration(t *testing.T) {
	a := NewSignalQualityAgent(Integrations{})
	if got := a.RequiredIntegrations(); len(got) != 0 {
		t.Errorf("expected empty RequiredIntegrations (FFmpeg is not a settings flag), got %v", got)
	}
	if _, err := a.ProductionProcess("rtmp://live"); err != agentkit.ErrProductionNotReady {
		t.Errorf("expected ErrProductionNotReady, got %v", err)
	}
}
