package gateway

import (
	"fmt"

	"github.com/mediaagentiq/orchestrator/internal/queue"
)

// Teams formatting: one Adaptive Card per result, built from a title,
// a FactSet of the scalar data fields, and the uniform action pair.

var teamsTitles = map[string]string{
	"compliance":           "⚖️ Compliance Scan Result",
	"caption":              "📝 Caption Generation Complete",
	"clip":                 "🎬 Viral Clip Detection",
	"trending":             "📈 Trending Now",
	"deepfake_detection":   "🕵️ Deepfake Detection",
	"brand_safety":         "🛡️ Brand Safety Score",
	"live_fact_check":      "✅ Live Fact-Check",
	"social":               "📱 Social Posts Generated",
	"ingest_transcode":     "📥 Ingest & Transcode",
	"signal_quality":       "📡 Signal Quality Report",
	"playout_scheduling":   "📺 Playout Schedule",
	"ott_distribution":     "🌐 OTT Distribution",
	"newsroom_integration": "📰 Newsroom Integration",
}

func tcText(body, size, weight string) map[string]any {
	block := map[string]any{"type": "TextBlock", "text": body, "wrap": true}
	if size != "" {
		block["size"] = size
	}
	if weight != "" {
		block["weight"] = weight
	}
	return block
}

func tcFact(title string, value any) map[string]any {
	v := fmt.Sprintf("%v", value)
	if len(v) > 80 {
		v = v[:80]
	}
	return map[string]any{"title": title, "value": v}
}

func tcActionButton(title string, data map[string]any) map[string]any {
	return map[string]any{"type": "Action.Submit", "title": title, "data": data}
}

func teamsCard(body []any, actions []any) map[string]any {
	return map[string]any{
		"type": "message",
		"attachments": []any{
			map[string]any{
				"contentType": "application/vnd.microsoft.card.adaptive",
				"content": map[string]any{
					"$schema": "http://adaptivecards.io/schemas/adaptive-card.json",
					"type":    "AdaptiveCard",
					"version": "1.4",
					"body":    body,
					"actions": actions,
				},
			},
		},
	}
}

// FormatTeams renders an agent result envelope as a Bot Framework
// Activity carrying one Adaptive Card.
func FormatTeams(agentKey string, result *queue.Envelope) map[string]any {
	if result != nil && !result.Success {
		return teamsCard([]any{
			tcText("❌ Error in "+agentKey, "Large", "Bolder"),
			tcText(result.Error, "", ""),
		}, nil)
	}

	var data map[string]any
	if result != nil {
		data = result.Data
	}
	if data == nil {
		data = map[string]any{}
	}

	title := teamsTitles[agentKey]
	if title == "" {
		title = "🤖 " + titleCase(agentKey)
	}

	facts := make([]any, 0, 8)
	for key, v := range data {
		switch v.(type) {
		case []any, map[string]any:
			continue
		}
		if key == "mode" {
			continue
		}
		facts = append(facts, tcFact(titleCase(key), v))
		if len(facts) >= 8 {
			break
		}
	}

	body := []any{
		tcText(title, "Large", "Bolder"),
		map[string]any{"type": "FactSet", "facts": facts},
	}
	actions := []any{
		tcActionButton("📄 Full Report", map[string]any{"action": "miq_export_" + agentKey, "agent": agentKey}),
		tcActionButton("🔔 Alert Team", map[string]any{"action": "miq_alert_" + agentKey, "agent": agentKey}),
	}
	return teamsCard(body, actions)
}

// FormatTeamsSystem renders status / connectors / help for Teams as a
// flattened-text card; the markdown command reference is reduced to
// plain text for the Adaptive Card body.
func FormatTeamsSystem(command string, data map[string]any) map[string]any {
	switch command {
	case "help":
		return teamsCard([]any{
			tcText("MediaAgentIQ — Available Commands", "Large", "Bolder"),
			tcText(markdownToText(HelpText), "", ""),
		}, nil)
	case "status":
		agents, _ := data["agents"].(map[string]any)
		facts := make([]any, 0, len(agents))
		for key, v := range agents {
			m, _ := v.(map[string]any)
			state := "demo"
			if ready, _ := m["ready"].(bool); !ready {
				state = "unavailable"
			} else if mode := str(m, "mode", ""); mode != "" {
				state = mode
			}
			facts = append(facts, tcFact(key, state))
		}
		return teamsCard([]any{
			tcText("🤖 MediaAgentIQ Agent Status", "Large", "Bolder"),
			map[string]any{"type": "FactSet", "facts": facts},
		}, nil)
	case "connectors":
		summary, _ := data["summary"].(map[string]any)
		return teamsCard([]any{
			tcText("🔌 Connector Status", "Large", "Bolder"),
			tcText(fmt.Sprintf("Connected %v/%v — %v tools available. %s",
				summary["connected"], summary["total"], data["total_tools"],
				jsonPreview(data["tool_names"], 300)), "", ""),
		}, nil)
	default:
		return teamsCard([]any{tcText("Unrecognized command: "+command, "", "")}, nil)
	}
}

// FormatTeamsThinking is the immediate acknowledgment activity.
func FormatTeamsThinking(agentKey string) map[string]any {
	return map[string]any{
		"type": "message",
		"text": fmt.Sprintf("Running %s Agent... ⏳", titleCase(agentKey)),
	}
}
