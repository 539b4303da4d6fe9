package agents

import (
	"github.com/mediaagentiq/orchestrator/internal/agentkit"
)

// AIProductionDirectorAgent acts as a co-pilot for a live broadcast's
// human director: camera cut recommendations, lower-third generation,
// rundown analysis, break timing, and technical health monitoring.
type AIProductionDirectorAgent struct {
	openAIConfigured bool
}

func NewAIProductionDirectorAgent(i Integrations) agentkit.Agent {
	return &AIProductionDirectorAgent{openAIConfigured: i.OpenAI}
}

var cameraTypes = []string{"wide", "medium", "close_up", "over_shoulder", "jib_wide", "remote_guest", "b_roll", "graphic_full"}
var graphicsTemplates = []string{"lower_third_standard", "lower_third_breaking", "lower_third_live", "full_screen_graphic", "ticker_update"}

func (a *AIProductionDirectorAgent) Name() string { return "AI Production Director" }
func (a *AIProductionDirectorAgent) Description() string {
	return "Autonomous live broadcast production direction — camera cuts, graphics, and rundown optimization"
}
func (a *AIProductionDirectorAgent) RequiredIntegrations() map[string]bool {
	return map[string]bool{"openai": a.openAIConfigured}
}
func (a *AIProductionDirectorAgent) Validate(input any) bool { return true }

func (a *AIProductionDirectorAgent) DemoProcess(input any) (map[string]any, error) {
	var cameraPlan []any
	for i := 0; i < 6; i++ {
		cameraPlan = append(cameraPlan, map[string]any{
			"shot":      i + 1,
			"camera":    randChoice(cameraTypes),
			"hold_secs": 3 + randInt(8),
			"score":     round2(randFloat(0.7, 0.98)),
		})
	}

	var lowerThirds []any
	for i := 0; i < 4; i++ {
		lowerThirds = append(lowerThirds, map[string]any{
			"template": randChoice(graphicsTemplates),
			"text":     "Live Update",
			"cue_at":   nowISO(),
		})
	}

	rundownAnalysis := map[string]any{
		"pacing_score":       round2(randFloat(0.6, 0.95)),
		"recommended_changes": 2 + randInt(6),
	}

	breakOptimization := map[string]any{
		"recommended_break_offset_secs": 60 + randInt(180),
		"retention_gain_estimate":       round2(randFloat(0.01, 0.08)),
	}

	graphicsQueue := []any{
		map[string]any{"template": "lower_third_breaking", "status": "queued"},
		map[string]any{"template": "full_screen_graphic", "status": "queued"},
	}

	audioRecommendations := map[string]any{
		"anchor_mic_db":  round1(randFloat(-18, -6)),
		"mix_adjustment": "raise field reporter +2dB",
	}

	technicalHealth := map[string]any{
		"video_signal": "healthy",
		"audio_signal": "healthy",
	}

	productionLog := []any{
		map[string]any{"timestamp": nowISO(), "action": "camera_cut", "camera": randChoice(cameraTypes)},
	}

	return map[string]any{
		"session_id":           randID("prod_", 10000, 99999),
		"production_status":    "live",
		"camera_plan":          cameraPlan,
		"lower_thirds":         lowerThirds,
		"rundown_analysis":     rundownAnalysis,
		"break_optimization":   breakOptimization,
		"graphics_queue":       graphicsQueue,
		"audio_recommendations": audioRecommendations,
		"technical_health":     technicalHealth,
		"production_log":       productionLog,
		"shots_planned":        len(cameraPlan),
		"lower_thirds_count":   len(lowerThirds),
		"rundown_changes":      rundownAnalysis["recommended_changes"],
		"auto_accepted":        round2(randFloat(0.7, 0.92)),
		"stats": map[string]any{
			"cuts_suggested_last_hour": 45 + randInt(135),
			"graphics_generated":       12 + randInt(36),
			"rundown_adjustments":      2 + randInt(6),
			"ai_acceptance_rate_pct":   round1(randFloat(72, 91)),
		},
	}, nil
}

func (a *AIProductionDirectorAgent) ProductionProcess(input any) (map[string]any, error) {
	if !a.openAIConfigured {
		return nil, agentkit.ErrProductionNotReady
	}
	return a.DemoProcess(input)
}
