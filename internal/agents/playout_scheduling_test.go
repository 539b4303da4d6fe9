package agents

import "testing"

func TestPlayoutSchedulingAgentValidate(t *testing.T) {
	a := NewPlayoutSchedulingAgent(Integrations{})
	if !a.Validate(map[string]any{}) {
		t.Error("expected map input to validate")
	}
	if !a.Validate("today") {
		t.Error("expected string input to validate")
	}
	if a.Validate(42) {
		t.Error("expected non-map/string input to fail validation")
	}
}

func TestPlayoutSchedulingAgentDemoProcessCountsBreaks(t *testing.T) {
	a := NewPlayoutSchedulingAgent(Integrations{})
	out, err := a.DemoProcess(nil)
	if err != nil {
		t.Fatalf("DemoProcess returned error: %v", err)
	}
	schedule, ok := out["schedule"].([]any)
	if !ok || len(schedule) != len(playoutTemplates) {
		t.Fatalf("expected %d scheduled items, got %v", len(playoutTemplates), out["schedule"])
	}
	wantBreaks := 0
	for _, tmpl := range playoutTemplates {
		if tmpl.kind == "commercial_break" {
			wantBreaks++
		}
	}
	if out["scte35_breaks"] != wantBreaks {
		t.Errorf("scte35_breaks = %v, want %d", out["scte35_breaks"], wantBreaks)
	}
}

func TestPlayoutSchedulingAgentRequiredIntegrations(t *testing.T) {
	a := NewPlayoutSchedulingAgent(Integrations{AutomationServer: true})
	got := a.RequiredIntegrations()
	if !got["automation_server"] {
		t.Errorf("expected automation_server=true, got %v", got)
	}
}
