package agents

import "testing"

func TestNewsroomIntegrationAgentValidate(t *testing.T) {
	a := NewNewsroomIntegrationAgent(Integrations{})
	if !a.Validate(map[string]any{"show": "Evening News"}) {
		t.Error("expected map input to validate")
	}
	if !a.Validate("Evening News") {
		t.Error("expected string input to validate")
	}
	if a.Validate(42) {
		t.Error("expected non-map/string input to fail validation")
	}
}

func TestNewsroomIntegrationAgentDemoProcess(t *testing.T) {
	a := NewNewsroomIntegrationAgent(Integrations{})
	out, err := a.DemoProcess(map[string]any{"show": "Morning Bulletin"})
	if err != nil {
		t.Fatalf("DemoProcess returned error: %v", err)
	}
	if out["show"] != "Morning Bulletin" {
		t.Errorf("show = %v, want Morning Bulletin", out["show"])
	}
	rundown, ok := out["rundown_items"].([]any)
	if !ok || len(rundown) != 8 {
		t.Fatalf("expected 8 rundown items, got %v", out["rundown_items"])
	}
	wire, ok := out["wire_stories"].([]any)
	if !ok || len(wire) != 5 {
		t.Fatalf("expected 5 wire stories, got %v", out["wire_stories"])
	}
	urgent := out["urgent_wires"].(int)
	if (out["breaking_news"] == true) != (urgent > 0) {
		t.Errorf("breaking_news flag inconsistent with urgent_wires count %d", urgent)
	}
}

func TestNewsroomIntegrationAgentProductionRequiresINews(t *testing.T) {
	a := NewNewsroomIntegrationAgent(Integrations{INews: false})
	if _, err := a.ProductionProcess(map[string]any{"show": "x"}); err == nil {
		t.Error("expected ProductionProcess to fail without iNews configured")
	}
}
