package agents

import "testing"

func TestBrandSafetyAgentValidate(t *testing.T) {
	a := NewBrandSafetyAgent(Integrations{})
	if !a.Validate("news transcript") {
		t.Error("expected non-empty string to validate")
	}
	if a.Validate("") {
		t.Error("expected empty string to fail validation")
	}
	if !a.Validate(42) {
		t.Error("expected non-string input to default to valid")
	}
}

func TestBrandSafetyAgentDemoProcessAdvertiserImpactMatchesThresholds(t *testing.T) {
	a := NewBrandSafetyAgent(Integrations{})
	out, err := a.DemoProcess(nil)
	if err != nil {
		t.Fatalf("DemoProcess returned error: %v", err)
	}
	score := out["safety_score"].(int)
	impact := out["advertiser_impact"].(map[string]any)
	for advertiser, minScore := range advertiserProfiles {
		entry := impact[advertiser].(map[string]any)
		wantSafe := score >= minScore
		if entry["safe"] != wantSafe {
			t.Errorf("advertiser %s safe = %v, want %v (score=%d, min=%d)", advertiser, entry["safe"], wantSafe, score, minScore)
		}
	}
}
