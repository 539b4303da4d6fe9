package agents

import (
	"github.com/mediaagentiq/orchestrator/internal/agentkit"
)

// AudienceIntelligenceAgent predicts second-by-second viewer retention
// for a live broadcast segment, flags drop-off risk, and recommends
// interventions.
type AudienceIntelligenceAgent struct {
	openAIConfigured bool
}

func NewAudienceIntelligenceAgent(i Integrations) agentkit.Agent {
	return &AudienceIntelligenceAgent{openAIConfigured: i.OpenAI}
}

var contentBaseRetention = map[string]float64{
	"hard_news": 0.72, "breaking_news": 0.85, "weather": 0.68, "sports": 0.79,
	"human_interest": 0.74, "investigative": 0.76, "interview": 0.71, "commercial_break": 0.55,
}

var interventionTypes = []string{
	"tease_next_story", "change_anchor", "cut_to_field", "add_visual",
	"shorten_segment", "break_timing", "social_interaction", "exclusive_preview",
}

func (a *AudienceIntelligenceAgent) Name() string { return "Audience Intelligence Agent" }
func (a *AudienceIntelligenceAgent) Description() string {
	return "Predicts live broadcast audience retention and recommends drop-off interventions"
}
func (a *AudienceIntelligenceAgent) RequiredIntegrations() map[string]bool {
	return map[string]bool{"openai": a.openAIConfigured}
}
func (a *AudienceIntelligenceAgent) Validate(input any) bool { return true }

func (a *AudienceIntelligenceAgent) DemoProcess(input any) (map[string]any, error) {
	contentType := "hard_news"
	if m, ok := input.(map[string]any); ok {
		if ct, ok := m["content_type"].(string); ok && ct != "" {
			contentType = ct
		}
	}
	base, ok := contentBaseRetention[contentType]
	if !ok {
		base = 0.70
	}

	var curve []any
	var totalRetention float64
	const points = 12
	for i := 0; i < points; i++ {
		drift := float64(i) * 0.01
		retention := round3(base - drift + randFloat(-0.04, 0.04))
		if retention < 0 {
			retention = 0
		}
		totalRetention += retention
		curve = append(curve, map[string]any{
			"second_offset":        i * 30,
			"predicted_retention":  retention,
		})
	}

	var dropOff []any
	highRisk := 0
	for i, c := range curve {
		cm := c.(map[string]any)
		retention := cm["predicted_retention"].(float64)
		if retention < base-0.08 {
			highRisk++
			dropOff = append(dropOff, map[string]any{
				"second_offset": cm["second_offset"], "risk": "high",
				"recommended_intervention": randChoice(interventionTypes),
			})
		} else if retention < base-0.04 {
			dropOff = append(dropOff, map[string]any{
				"second_offset": cm["second_offset"], "risk": "medium",
				"recommended_intervention": randChoice(interventionTypes),
			})
		}
		_ = i
	}

	demographics := []any{"18-24", "25-34", "35-44", "45-54", "55-64", "65+"}
	demographicBreakdown := map[string]any{}
	for _, d := range demographics {
		demographicBreakdown[d.(string)] = round2(randFloat(0.4, 0.9))
	}

	return map[string]any{
		"broadcast_id":       randID("bcast_", 10000, 99999),
		"content_type":       contentType,
		"retention_curve":    curve,
		"drop_off_predictions": dropOff,
		"demographic_breakdown": demographicBreakdown,
		"retention_curve_avg": round3(totalRetention / float64(points)),
		"drop_off_risk":       highRisk,
		"engagement_score":    round2(randFloat(0.55, 0.9)),
		"demographic_bands":   anyToSlice(demographics),
		"stats": map[string]any{
			"predicted_avg_retention": round3(totalRetention / float64(points)),
			"high_risk_segments":      highRisk,
			"interventions_suggested": len(dropOff),
			"prediction_confidence":   round3(randFloat(0.78, 0.93)),
		},
	}, nil
}

func (a *AudienceIntelligenceAgent) ProductionProcess(input any) (map[string]any, error) {
	if !a.openAIConfigured {
		return nil, agentkit.ErrProductionNotReady
	}
	return a.DemoProcess(input)
}
