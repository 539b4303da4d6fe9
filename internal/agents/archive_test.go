package agents

import "testing"

func TestParseArchiveQuery(t *testing.T) {
	p := parseArchiveQuery("Show me interviews about the economy from last week with Chen")
	if p.timePeriod != "last week" {
		t.Errorf("timePeriod = %q, want %q", p.timePeriod, "last week")
	}
	if p.contentType != "interview" {
		t.Errorf("contentType = %q, want %q", p.contentType, "interview")
	}
	if len(p.speakers) != 1 || p.speakers[0] != "chen" {
		t.Errorf("speakers = %v, want [chen]", p.speakers)
	}
	if len(p.topics) != 1 || p.topics[0] != "economy" {
		t.Errorf("topics = %v, want [economy]", p.topics)
	}
}

func TestArchiveAgentValidate(t *testing.T) {
	a := NewArchiveAgent(nil)
	if !a.Validate("find election coverage") {
		t.Error("expected non-empty string query to validate")
	}
	if a.Validate("") {
		t.Error("expected empty string to fail validation")
	}
	if !a.Validate(map[string]any{"query": "election"}) {
		t.Error("expected map with query key to validate")
	}
}

func TestArchiveAgentDemoProcessFallsBackToMockWithoutStore(t *testing.T) {
	a := NewArchiveAgent(nil)
	out, err := a.DemoProcess("election coverage")
	if err != nil {
		t.Fatalf("DemoProcess returned error: %v", err)
	}
	results, ok := out["results"].([]any)
	if !ok || len(results) == 0 {
		t.Fatalf("expected mock results fallback, got %v", out["results"])
	}
	for _, key := range []string{"query", "parsed_query", "insights", "indexed_items"} {
		if _, ok := out[key]; !ok {
			t.Errorf("missing key %q in output", key)
		}
	}
}

func TestArchiveAgentRequiredIntegrationsEmpty(t *testing.T) {
	a := NewArchiveAgent(nil)
	if got := a.RequiredIntegrations(); len(got) != 0 {
		t.Errorf("expected empty RequiredIntegrations, got %v", got)
	}
}

func TestArchiveAgentProductionProcessNeverFallsBack(t *testing.T) {
	a := NewArchiveAgent(nil)
	if _, err := a.ProductionProcess("election coverage"); err != nil {
		t.Errorf("archive agent has no production dependency, expected no error, got %v", err)
	}
}
