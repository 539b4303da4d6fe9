package agents

import "testing"

func TestCarbonIntelligenceAgentValidateAlwaysTrue(t *testing.T) {
	a := NewCarbonIntelligenceAgent(Integrations{})
	if !a.Validate(nil) {
		t.Error("expected Validate(nil) = true")
	}
}

func TestCarbonIntelligenceAgentDemoProcessComputesFootprint(t *testing.T) {
	a := NewCarbonIntelligenceAgent(Integrations{})
	out, err := a.DemoProcess(map[string]any{"broadcast_type": "live_sports"})
	if err != nil {
		t.Fatalf("DemoProcess returned error: %v", err)
	}
	if out["broadcast_type"] != "live_sports" {
		t.Errorf("broadcast_type = %v, want live_sports", out["broadcast_type"])
	}
	footprint := out["carbon_footprint"].(map[string]any)
	if footprint["grid_region"] != "US_Midwest" {
		t.Errorf("grid_region = %v, want US_Midwest", footprint["grid_region"])
	}
	wantKg := out["carbon_footprint_kg"].(float64)
	if footprint["total_kg"] != wantKg {
		t.Errorf("carbon_footprint.total_kg (%v) should match carbon_footprint_kg (%v)", footprint["total_kg"], wantKg)
	}
	esgScore := out["esg_score"].(int)
	if esgScore < 0 || esgScore > 100 {
		t.Errorf("esg_score %d out of [0,100] range", esgScore)
	}
}
