package agents

import "testing"

func TestAudienceIntelligenceAgentValidateAlwaysTrue(t *testing.T) {
	a := NewAudienceIntelligenceAgent(Integrations{})
	if !a.Validate(nil) {
		t.Error("expected Validate(nil) = true")
	}
}

func TestAudienceIntelligenceAgentDemoProcessRetentionCurve(t *testing.T) {
	a := NewAudienceIntelligenceAgent(Integrations{})
	out, err := a.DemoProcess(map[string]any{"content_type": "breaking_news"})
	if err != nil {
		t.Fatalf("DemoProcess returned error: %v", err)
	}
	if out["content_type"] != "breaking_news" {
		t.Errorf("content_type = %v, want breaking_news", out["content_type"])
	}
	curve, ok := out["retention_curve"].([]any)
	if !ok || len(curve) != 12 {
		t.Fatalf("expected 12-point retention curve, got %v", out["retention_curve"])
	}
	breakdown, ok := out["demographic_breakdown"].(map[string]any)
	if !ok || len(breakdown) != 6 {
		t.Errorf("expected 6 demographic bands, got %v", out["demographic_breakdown"])
	}
}

func TestAudienceIntelligenceAgentDemoProcessUnknownContentTypeFallsBack(t *testing.T) {
	a := NewAudienceIntelligenceAgent(Integrations{})
	out, err := a.DemoProcess(map[string]any{"content_type": "unheard_of_format"})
	if err != nil {
		t.Fatalf("DemoProcess returned error: %v", err)
	}
	if out["content_type"] != "unheard_of_format" {
		t.Errorf("content_type should echo input even when unrecognized, got %v", out["content_type"])
	}
}
