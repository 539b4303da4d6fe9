package agents

import "testing"

func TestTrendingAgentValidateAlwaysTrue(t *testing.T) {
	a := NewTrendingAgent(Integrations{})
	if !a.Validate(nil) {
		t.Error("TrendingAgent runs without input, expected Validate(nil) = true")
	}
}

func TestTrendingAgentDemoProcessAlertsSortedByPriority(t *testing.T) {
	a := NewTrendingAgent(Integrations{})
	out, err := a.DemoProcess(nil)
	if err != nil {
		t.Fatalf("DemoProcess returned error: %v", err)
	}
	alerts, ok := out["alerts"].([]any)
	if !ok || len(alerts) == 0 {
		t.Fatalf("expected non-empty alerts, got %v", out["alerts"])
	}
	prev := -1
	for _, al := range alerts {
		rank := alertPriorityOrder[al.(map[string]any)["priority"].(string)]
		if rank < prev {
			t.Errorf("alerts not sorted by priority: rank %d after %d", rank, prev)
		}
		prev = rank
	}
	for _, key := range []string{"trends", "breaking_news", "viral_content", "top_topic"} {
		if _, ok := out[key]; !ok {
			t.Errorf("missing key %q in output", key)
		}
	}
}
