package gateway

import (
	"strings"
	"testing"

	"github.com/mediaagentiq/orchestrator/internal/queue"
)

func blocksOf(t *testing.T, payload map[string]any) []any {
	t.Helper()
	blocks, ok := payload["blocks"].([]any)
	if !ok {
		t.Fatalf("payload has no blocks: %v", payload)
	}
	return blocks
}

func blockTexts(blocks []any) string {
	var sb strings.Builder
	var visit func(any)
	visit = func(v any) {
		switch n := v.(type) {
		case map[string]any:
			if s, ok := n["text"].(string); ok {
				sb.WriteString(s + "\n")
			}
			for _, child := range n {
				visit(child)
			}
		case []any:
			for _, child := range n {
				visit(child)
			}
		}
	}
	visit(blocks)
	return sb.String()
}

func TestFormatSlackCompliance(t *testing.T) {
	env := &queue.Envelope{
		Success: true,
		Data: map[string]any{
			"risk_score": 42.0,
			"issues": []any{
				map[string]any{"severity": "critical", "fcc_rule": "73.3999", "issue": "Uncensored profanity"},
			},
		},
	}
	payload := FormatSlack("compliance", env)
	text := blockTexts(blocksOf(t, payload))

	if !strings.Contains(text, "Compliance Scan Result") {
		t.Error("missing header")
	}
	if !strings.Contains(text, "42/100") {
		t.Errorf("risk score not rendered:\n%s", text)
	}
	if !strings.Contains(text, "CRITICAL") || !strings.Contains(text, "73.3999") {
		t.Error("issue row not rendered")
	}
	if !strings.Contains(text, "MediaAgentIQ Compliance Agent") {
		t.Error("missing context footer")
	}
}

func TestFormatterActionIDGrammar(t *testing.T) {
	// Every button id in every dedicated template parses as
	// miq_<verb>_<agent_key>.
	env := &queue.Envelope{Success: true, Data: map[string]any{}}
	for agentKey := range slackFormatters {
		payload := FormatSlack(agentKey, env)
		for _, block := range blocksOf(t, payload) {
			m, _ := block.(map[string]any)
			if m["type"] != "actions" {
				continue
			}
			for _, el := range m["elements"].([]any) {
				btn := el.(map[string]any)
				id, _ := btn["action_id"].(string)
				parts := strings.SplitN(id, "_", 3)
				if len(parts) != 3 || parts[0] != "miq" {
					t.Errorf("%s: bad action id %q", agentKey, id)
				}
			}
		}
	}
}

func TestFormatSlackGenericFallback(t *testing.T) {
	env := &queue.Envelope{Success: true, Data: map[string]any{"carbon_footprint_kg": 12.5}}
	payload := FormatSlack("carbon_intelligence", env)
	text := blockTexts(blocksOf(t, payload))
	if !strings.Contains(text, "Carbon Intelligence Result") {
		t.Errorf("generic header missing:\n%s", text)
	}
	if !strings.Contains(text, "carbon_footprint_kg") {
		t.Error("JSON preview missing")
	}
}

func TestFormatSlackErrorCard(t *testing.T) {
	env := &queue.Envelope{Success: false, Error: "decode error"}
	payload := FormatSlack("clip", env)
	text := blockTexts(blocksOf(t, payload))
	if !strings.Contains(text, "Error in clip") || !strings.Contains(text, "decode error") {
		t.Errorf("error card = %s", text)
	}
}

func TestFormatSlackThinkingPlaceholder(t *testing.T) {
	text := blockTexts(blocksOf(t, FormatSlackThinking("live_fact_check")))
	if !strings.Contains(text, "Running Live Fact Check Agent") {
		t.Errorf("placeholder = %s", text)
	}
}

func TestFormatHelpMentionsCommands(t *testing.T) {
	text := blockTexts(blocksOf(t, FormatSlackHelp()))
	if !strings.Contains(text, "Slash Commands") || !strings.Contains(text, "/miq-caption") {
		t.Error("help card missing command reference")
	}
}

func TestFormatTeamsFactSet(t *testing.T) {
	env := &queue.Envelope{
		Success: true,
		Data: map[string]any{
			"quality_score": 88,
			"loudness_lufs": -23.1,
			"issues":        []any{"nested lists are skipped"},
		},
	}
	payload := FormatTeams("signal_quality", env)

	attachments, _ := payload["attachments"].([]any)
	if len(attachments) != 1 {
		t.Fatalf("attachments = %v", payload)
	}
	content := attachments[0].(map[string]any)["content"].(map[string]any)
	if content["type"] != "AdaptiveCard" {
		t.Error("not an adaptive card")
	}
	body := content["body"].([]any)
	title := body[0].(map[string]any)["text"].(string)
	if !strings.Contains(title, "Signal Quality") {
		t.Errorf("title = %q", title)
	}
	facts := body[1].(map[string]any)["facts"].([]any)
	if len(facts) != 2 {
		t.Errorf("facts = %d, want 2 scalars (lists skipped)", len(facts))
	}
}

func TestMarkdownToText(t *testing.T) {
	out := markdownToText("# Title\n\nSome *bold* text with `code`.\n\n- item one\n- item two")
	if strings.Contains(out, "#") || strings.Contains(out, "*") {
		t.Errorf("markdown syntax leaked: %q", out)
	}
	for _, want := range []string{"Title", "bold", "item one"} {
		if !strings.Contains(out, want) {
			t.Errorf("flattened text missing %q: %q", want, out)
		}
	}
}

func TestFormatHopeCards(t *testing.T) {
	created := blockTexts(blocksOf(t, FormatHopeCreated(map[string]any{
		"rule_id": "hope_001", "agent_key": "trending", "schedule": "DAILY 08:00",
		"priority": "NORMAL", "condition": "when a wire mentions us",
	})))
	if !strings.Contains(created, "hope_001") || !strings.Contains(created, "trending") {
		t.Errorf("created card = %s", created)
	}

	cancelled := blockTexts(blocksOf(t, FormatHopeCancelled("hope_001")))
	if !strings.Contains(cancelled, "hope_001") {
		t.Error("cancelled card missing rule id")
	}

	empty := blockTexts(blocksOf(t, FormatHopeList(nil, "archive")))
	if !strings.Contains(empty, "No HOPE rules") {
		t.Errorf("empty list card = %s", empty)
	}
}
