package agents

import (
	"github.com/mediaagentiq/orchestrator/internal/agentkit"
	"github.com/mediaagentiq/orchestrator/internal/memory"
)

// NewRegistry builds the key -> Agent map for all 19 concrete agents.
// archiveStore may be nil in configurations
// that skip the FTS5 archive (the archive agent then falls back to its
// mock results on every call).
func NewRegistry(integrations Integrations, archiveStore *memory.ArchiveStore) map[string]agentkit.Agent {
	return map[string]agentkit.Agent{
		"caption":                NewCaptionAgent(integrations),
		"clip":                   NewClipAgent(integrations),
		"archive":                NewArchiveAgent(archiveStore),
		"compliance":             NewComplianceAgent(integrations),
		"social":                 NewSocialAgent(integrations),
		"localization":           NewLocalizationAgent(integrations),
		"rights":                 NewRightsAgent(integrations),
		"trending":               NewTrendingAgent(integrations),
		"deepfake_detection":     NewDeepfakeDetectionAgent(integrations),
		"live_fact_check":        NewLiveFactCheckAgent(integrations),
		"audience_intelligence":  NewAudienceIntelligenceAgent(integrations),
		"ai_production_director": NewAIProductionDirectorAgent(integrations),
		"brand_safety":           NewBrandSafetyAgent(integrations),
		"carbon_intelligence":    NewCarbonIntelligenceAgent(integrations),
		"ingest_transcode":       NewIngestTranscodeAgent(integrations),
		"signal_quality":         NewSignalQualityAgent(integrations),
		"playout_scheduling":     NewPlayoutSchedulingAgent(integrations),
		"ott_distribution":       NewOTTDistributionAgent(integrations),
		"newsroom_integration":   NewNewsroomIntegrationAgent(integrations),
	}
}

// Keys returns the registry's agent keys in a stable, spec-defined order.
func Keys() []string {
	return []string{
		"caption", "clip", "archive", "compliance", "social", "localization",
		"rights", "trending", "deepfake_detection", "live_fact_check",
		"audience_intelligence", "ai_production_director", "brand_safety",
		"carbon_intelligence", "ingest_transcode", "signal_quality",
		"playout_scheduling", "ott_distribution", "newsroom_integration",
	}
}
