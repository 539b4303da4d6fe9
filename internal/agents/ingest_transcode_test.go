package agents

import "testing"

func TestFirstString(t *testing.T) {
	m := map[string]any{"file": "clip.mov"}
	if got := firstString(m, "url", "file", "stream_url"); got != "clip.mov" {
		t.Errorf("firstString = %q, want clip.mov", got)
	}
	if got := firstString(map[string]any{}, "url", "file"); got != "demo_source" {
		t.Errorf("firstString on empty map = %q, want demo_source", got)
	}
}

func TestContains(t *testing.T) {
	if !contains([]string{"a", "b"}, "b") {
		t.Error("expected contains to find b")
	}
	if contains([]string{"a", "b"}, "c") {
		t.Error("expected contains to not find c")
	}
}

func TestIngestTranscodeAgentValidate(t *testing.T) {
	a := NewIngestTranscodeAgent(Integrations{})
	if !a.Validate(map[string]any{"url": "rtmp://source"}) {
		t.Error("expected map with url to validate")
	}
	if a.Validate(map[string]any{}) {
		t.Error("expected empty map to fail validation")
	}
}

func TestIngestTranscodeAgentDemoProcessDefaultProfiles(t *testing.T) {
	a := NewIngestTranscodeAgent(Integrations{})
	out, err := a.DemoProcess(map[string]any{"url": "rtmp://source"})
	if err != nil {
		t.Fatalf("DemoProcess returned error: %v", err)
	}
	files, ok := out["output_files"].([]any)
	if !ok || len(files) != len(defaultIngestProfiles) {
		t.Fatalf("expected %d output files, got %v", len(defaultIngestProfiles), out["output_files"])
	}
	if out["proxy_generated"] != true {
		t.Errorf("expected proxy_generated=true since proxy_edit is a default profile, got %v", out["proxy_generated"])
	}
}

func TestIngestTranscodeAgentProductionRequiresAWS(t *testing.T) {
	a := NewIngestTranscodeAgent(Integrations{AWS: false})
	if _, err := a.ProductionProcess(map[string]any{"url": "x"}); err == nil {
		t.Error("expected ProductionProcess to fail without AWS configured")
	}
}
