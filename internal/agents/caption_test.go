package agents

import (
	"testing"

	"github.com/mediaagentiq/orchestrator/internal/agentkit"
)

func TestCaptionAgentValidate(t *testing.T) {
	a := NewCaptionAgent(Integrations{})
	cases := []struct {
		name string
		in   any
		want bool
	}{
		{"mp4 file", "segment.mp4", true},
		{"wav file", "interview.WAV", true},
		{"no extension", "raw-feed", false},
		{"non-string", map[string]any{"file": "x.mp4"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := a.Validate(tc.in); got != tc.want {
				t.Errorf("Validate(%v) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestCaptionAgentDemoProcess(t *testing.T) {
	a := NewCaptionAgent(Integrations{})
	out, err := a.DemoProcess("segment.mp4")
	if err != nil {
		t.Fatalf("DemoProcess returned error: %v", err)
	}
	for _, key := range []string{"captions", "srt", "vtt", "segments", "qa_issues", "confidence_avg", "word_count"} {
		if _, ok := out[key]; !ok {
			t.Errorf("missing key %q in output", key)
		}
	}
	srt, ok := out["srt"].(string)
	if !ok || srt == "" {
		t.Errorf("expected non-empty srt string, got %v", out["srt"])
	}
}

func TestCaptionAgentProductionFallsBackWithoutOpenAI(t *testing.T) {
	a := NewCaptionAgent(Integrations{OpenAI: false})
	_, err := a.ProductionProcess("segment.mp4")
	if err != agentkit.ErrProductionNotReady {
		t.Errorf("expected ErrProductionNotReady, got %v", err)
	}
}

func TestCaptionAgentProductionWithOpenAIConfigured(t *testing.T) {
	a := NewCaptionAgent(Integrations{OpenAI: true})
	out, err := a.ProductionProcess("segment.mp4")
	if err != nil {
		t.Fatalf("ProductionProcess returned error: %v", err)
	}
	if _, ok := out["captions"]; !ok {
		t.Errorf("expected captions key in production fallback output")
	}
}

func TestCaptionAgentRequiredIntegrations(t *testing.T) {
	a := NewCaptionAgent(Integrations{OpenAI: true})
	got := a.RequiredIntegrations()
	if !got["openai"] {
		t.Errorf("expected openai=true in RequiredIntegrations, got %v", got)
	}
}
