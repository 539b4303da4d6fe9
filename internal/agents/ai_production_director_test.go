package agents

import "testing"

func TestAIProductionDirectorAgentValidateAlwaysTrue(t *testing.T) {
	a := NewAIProductionDirectorAgent(Integrations{})
	if !a.Validate(nil) {
		t.Error("expected Validate(nil) = true")
	}
}

func TestAIProductionDirectorAgentDemoProcess(t *testing.T) {
	a := NewAIProductionDirectorAgent(Integrations{})
	out, err := a.DemoProcess(nil)
	if err != nil {
		t.Fatalf("DemoProcess returned error: %v", err)
	}
	cameraPlan, ok := out["camera_plan"].([]any)
	if !ok || len(cameraPlan) != 6 {
		t.Fatalf("expected 6-shot camera plan, got %v", out["camera_plan"])
	}
	if sid, ok := out["session_id"].(string); !ok || len(sid) < 5 || sid[:5] != "prod_" {
		t.Errorf("expected session_id prefix prod_, got %v", out["session_id"])
	}
	for _, key := range []string{"lower_thirds", "rundown_analysis", "break_optimization", "graphics_queue", "audio_recommendations", "technical_health", "production_log"} {
		if _, ok := out[key]; !ok {
			t.Errorf("missing key %q in output", key)
		}
	}
}
