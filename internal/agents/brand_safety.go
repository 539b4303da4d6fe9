package agents

import (
	"strings"

	"github.com/mediaagentiq/orchestrator/internal/agentkit"
)

// BrandSafetyAgent scores live broadcast content for GARM brand-safety
// risk and recommends ad placement windows by advertiser profile.
type BrandSafetyAgent struct {
	openAIConfigured bool
}

func NewBrandSafetyAgent(i Integrations) agentkit.Agent {
	return &BrandSafetyAgent{openAIConfigured: i.OpenAI}
}

var garmCategories = map[string]string{
	"adult_content": "critical", "arms_weapons": "critical", "hate_speech": "critical",
	"violence_gore": "critical", "terrorism": "critical", "illegal_drugs": "high",
	"profanity": "high", "controversial_news": "medium", "tragedy": "medium", "crime_news": "low",
}

var advertiserProfiles = map[string]int{
	"luxury_auto": 80, "pharma": 75, "financial": 70, "fast_food": 60, "family_products": 85, "tech_consumer": 65,
}

func (a *BrandSafetyAgent) Name() string { return "Brand Safety Agent" }
func (a *BrandSafetyAgent) Description() string {
	return "Real-time contextual brand safety scoring and ad placement intelligence for live broadcasts"
}
func (a *BrandSafetyAgent) RequiredIntegrations() map[string]bool {
	return map[string]bool{"openai": a.openAIConfigured}
}

func (a *BrandSafetyAgent) Validate(input any) bool {
	switch v := input.(type) {
	case string:
		return strings.TrimSpace(v) != ""
	default:
		return true
	}
}

func (a *BrandSafetyAgent) DemoProcess(input any) (map[string]any, error) {
	safetyScore := 50 + randInt(50)

	var garmFlags []any
	for cat, sev := range garmCategories {
		if sev == "critical" {
			continue
		}
		if randFloat(0, 1) < 0.15 {
			garmFlags = append(garmFlags, map[string]any{"category": cat, "severity": sev})
		}
	}

	classification := map[string]any{"primary_category": "news_politics", "confidence": round2(randFloat(0.7, 0.95))}

	advertiserImpact := map[string]any{}
	for advertiser, minScore := range advertiserProfiles {
		advertiserImpact[advertiser] = map[string]any{
			"safe":           safetyScore >= minScore,
			"min_safety_score": minScore,
		}
	}

	placementWindows := []any{
		map[string]any{"window": "00:00-05:00", "safety_score": safetyScore, "recommended": safetyScore >= 70},
	}

	cpmModifier := round2(1.0 - float64(100-safetyScore)/200)

	revenueImpact := map[string]any{
		"cpm_modifier":          cpmModifier,
		"estimated_revenue_usd": round2(randFloat(500, 5000)),
	}

	recommendations := []any{"Review controversial_news segments before ad insertion"}

	return map[string]any{
		"safety_scores":       map[string]any{"overall": safetyScore},
		"garm_flags":          garmFlags,
		"content_classification": classification,
		"advertiser_impact":   advertiserImpact,
		"placement_windows":   placementWindows,
		"revenue_impact":      revenueImpact,
		"recommendations":     recommendations,
		"safety_score":        safetyScore,
		"cpm_modifier":        cpmModifier,
		"advertiser_profiles": len(advertiserProfiles),
	}, nil
}

func (a *BrandSafetyAgent) ProductionProcess(input any) (map[string]any, error) {
	if !a.openAIConfigured {
		return nil, agentkit.ErrProductionNotReady
	}
	return a.DemoProcess(input)
}
