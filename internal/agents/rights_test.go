package agents

import "testing"

func TestRightsAgentValidate(t *testing.T) {
	a := NewRightsAgent(Integrations{})
	if !a.Validate("anything") {
		t.Error("expected non-nil input to validate")
	}
	if a.Validate(nil) {
		t.Error("expected nil input to fail validation")
	}
}

func TestRightsAgentDemoProcessFlagsExpiringSoon(t *testing.T) {
	a := NewRightsAgent(Integrations{})
	out, err := a.DemoProcess(nil)
	if err != nil {
		t.Fatalf("DemoProcess returned error: %v", err)
	}
	expiring, ok := out["expiring_soon"].([]any)
	if !ok || len(expiring) == 0 {
		t.Fatalf("expected at least one license expiring soon, got %v", out["expiring_soon"])
	}
	first := expiring[0].(map[string]any)
	if first["id"] != "LIC001" {
		t.Errorf("expected LIC001 (10 days out) to sort first, got %v", first["id"])
	}
	if first["urgency"] != "critical" {
		t.Errorf("expected LIC001 urgency=critical, got %v", first["urgency"])
	}
	violations, ok := out["violations"].([]any)
	if !ok || len(violations) != 2 {
		t.Fatalf("expected 2 mock violations, got %v", out["violations"])
	}
}
