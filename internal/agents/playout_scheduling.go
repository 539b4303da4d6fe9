package agents

import (
	"fmt"
	"time"

	"github.com/mediaagentiq/orchestrator/internal/agentkit"
)

// PlayoutSchedulingAgent manages the linear broadcast schedule and
// automation-server integration, including SCTE-35 ad break cues and
// emergency rundown interruption.
type PlayoutSchedulingAgent struct {
	automationConfigured bool
}

func NewPlayoutSchedulingAgent(i Integrations) agentkit.Agent {
	return &PlayoutSchedulingAgent{automationConfigured: i.AutomationServer}
}

type playoutTemplate struct {
	title, kind string
	durationMin int
}

var playoutTemplates = []playoutTemplate{
	{"Evening News Bulletin", "segment", 30},
	{"Commercial Break 1", "commercial_break", 3},
	{"Weather & Sport", "segment", 10},
	{"Commercial Break 2", "commercial_break", 2},
	{"Late Night Talk Show", "segment", 60},
	{"Station Promo", "promo", 1},
	{"Live Press Conference", "live_feed", 45},
	{"Commercial Break 3", "commercial_break", 3},
	{"Documentary: Nature", "vod", 55},
	{"Station ID", "station_id", 0},
}

var playoutStatuses = []string{"ready", "ready", "ready", "cued", "warning"}
var automationServers = []string{"Harmonic Polaris", "GV Maestro", "Ross Overdrive"}
var playoutWarnings = []string{"Asset not yet ingested", "Duration mismatch (±5s)", "Missing audio track", "Rights window closes in 2 hours"}

func (a *PlayoutSchedulingAgent) Name() string { return "Playout & Scheduling Agent" }
func (a *PlayoutSchedulingAgent) Description() string {
	return "Broadcast playout schedule management, automation server integration, and SCTE-35 break injection"
}
func (a *PlayoutSchedulingAgent) RequiredIntegrations() map[string]bool {
	return map[string]bool{"automation_server": a.automationConfigured}
}
func (a *PlayoutSchedulingAgent) Validate(input any) bool {
	switch input.(type) {
	case map[string]any, string:
		return true
	}
	return false
}

func (a *PlayoutSchedulingAgent) DemoProcess(input any) (map[string]any, error) {
	now := time.Now()
	cursor := now.Truncate(time.Hour)

	var schedule []any
	var warnings []any
	scte35Breaks := 0
	adMinutes := 0
	for i, tmpl := range playoutTemplates {
		status := randChoice(playoutStatuses)
		assetID := randID("AVID-", 100000, 999999)
		if tmpl.kind == "live_feed" {
			assetID = "LIVE"
		}
		isBreak := tmpl.kind == "commercial_break"
		if isBreak {
			scte35Breaks++
			adMinutes += tmpl.durationMin
		}
		item := map[string]any{
			"slot": i + 1, "timecode": timecode(cursor), "title": tmpl.title,
			"type": tmpl.kind, "duration": tmpl.durationMin, "asset_id": assetID,
			"status": status, "scte35": isBreak, "warning": status == "warning",
		}
		schedule = append(schedule, item)
		if status == "warning" {
			warnings = append(warnings, map[string]any{"slot": i + 1, "title": tmpl.title, "issue": randChoice(playoutWarnings)})
		}
		cursor = cursor.Add(time.Duration(tmpl.durationMin) * time.Minute)
	}

	nextBreak := "N/A"
	for _, s := range schedule {
		sm := s.(map[string]any)
		if sm["type"] == "commercial_break" {
			nextBreak = fmt.Sprintf("%v — %v", sm["timecode"], sm["title"])
			break
		}
	}

	server := randChoice(automationServers)

	return map[string]any{
		"date":              now.Format("2006-01-02"),
		"total_items":       len(schedule),
		"schedule":          schedule,
		"warnings":          warnings,
		"warning_count":     len(warnings),
		"next_break":        nextBreak,
		"automation_server": server,
		"server_status":     "online",
		"items_scheduled":   len(schedule),
		"next_item":         schedule[0],
		"gaps_found":        len(warnings),
		"on_air_confidence": round2(randFloat(0.85, 0.99)),
		"scte35_breaks":     scte35Breaks,
		"total_ad_minutes":  adMinutes,
		"generated_at":      nowISO(),
	}, nil
}

func (a *PlayoutSchedulingAgent) ProductionProcess(input any) (map[string]any, error) {
	if !a.automationConfigured {
		return nil, agentkit.ErrProductionNotReady
	}
	return a.DemoProcess(input)
}
