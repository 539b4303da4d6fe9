package agents

import "testing"

func TestTranscriptText(t *testing.T) {
	if got := transcriptText("plain string"); got != "plain string" {
		t.Errorf("transcriptText(string) = %q", got)
	}
	if got := transcriptText(map[string]any{"transcript": "from transcript"}); got != "from transcript" {
		t.Errorf("transcriptText(transcript key) = %q", got)
	}
	if got := transcriptText(map[string]any{"text": "from text"}); got != "from text" {
		t.Errorf("transcriptText(text key) = %q", got)
	}
	if got := transcriptText(42); got != "" {
		t.Errorf("transcriptText(unsupported type) = %q, want empty", got)
	}
}

func TestLiveFactCheckAgentValidate(t *testing.T) {
	a := NewLiveFactCheckAgent(Integrations{})
	if !a.Validate("This is a long enough claim to check.") {
		t.Error("expected long string to validate")
	}
	if a.Validate("short") {
		t.Error("expected short string (<=10 chars) to fail validation")
	}
}

func TestLiveFactCheckAgentDemoProcessExtractsClaims(t *testing.T) {
	a := NewLiveFactCheckAgent(Integrations{})
	out, err := a.DemoProcess("Unemployment dropped sharply. The mayor announced a new budget.")
	if err != nil {
		t.Fatalf("DemoProcess returned error: %v", err)
	}
	claims, ok := out["claims"].([]any)
	if !ok || len(claims) != 2 {
		t.Fatalf("expected 2 extracted claims, got %v", out["claims"])
	}
	if out["session_id"].(string)[:3] != "fc_" {
		t.Errorf("expected session_id prefix fc_, got %v", out["session_id"])
	}
}

func TestLiveFactCheckAgentDemoProcessFallsBackOnEmptyTranscript(t *testing.T) {
	a := NewLiveFactCheckAgent(Integrations{})
	out, err := a.DemoProcess("")
	if err != nil {
		t.Fatalf("DemoProcess returned error: %v", err)
	}
	claims := out["claims"].([]any)
	if len(claims) != 1 {
		t.Fatalf("expected single fallback claim, got %v", claims)
	}
}
