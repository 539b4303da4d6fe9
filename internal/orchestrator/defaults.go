package orchestrator

import (
	"time"

	"github.com/mediaagentiq/orchestrator/internal/events"
)

// DefaultSubscriptions is the static event routing table: event kind to
// the ordered agent keys that react to it. Fixed at construction; the
// bus never routes outside this table.
func DefaultSubscriptions() map[events.Kind][]string {
	return map[events.Kind][]string{
		events.NewContent: {
			"caption", "clip", "compliance", "archive",
			"deepfake_detection", "brand_safety", "audience_intelligence",
		},
		events.CaptionComplete: {
			"localization", "social", "live_fact_check",
		},
		events.ClipDetected:      {"social"},
		events.ComplianceAlert:   {"social"},
		events.TrendingSpike:     {"social", "archive"},
		events.LicenseExpiring:   {"rights"},
		events.ViolationDetected: {"rights"},
		events.BreakingNews: {
			"social", "trending", "ai_production_director", "live_fact_check",
		},
	}
}

// SetupDefaultSchedules registers the recurring jobs that keep the
// monitoring agents running without user interaction.
func (c *Core) SetupDefaultSchedules() {
	register := func(agentKey, jobID, mode string, interval time.Duration) {
		c.ScheduleJob(agentKey, map[string]any{"mode": mode}, interval, jobID)
	}

	register("trending", "trending_monitor", "monitor", 5*time.Minute)
	register("compliance", "compliance_monitor", "monitor", 10*time.Minute)
	register("rights", "rights_monitor", "check_expiring", time.Hour)
	register("archive", "archive_optimize", "optimize", 6*time.Hour)

	register("deepfake_detection", "deepfake_monitor", "monitor_incoming", 2*time.Minute)
	register("live_fact_check", "fact_check_live", "live_monitor", 3*time.Minute)
	register("audience_intelligence", "audience_live", "live_prediction", 5*time.Minute)
	register("ai_production_director", "production_director_live", "live_assist", time.Minute)
	register("brand_safety", "brand_safety_monitor", "segment_scan", 2*time.Minute)
	register("carbon_intelligence", "carbon_monitor", "live_monitoring", 30*time.Minute)

	register("signal_quality", "signal_quality_monitor", "live_monitor", 2*time.Minute)
	register("newsroom_integration", "newsroom_sync", "sync", 3*time.Minute)
	register("playout_scheduling", "playout_refresh", "schedule", 5*time.Minute)
	register("ott_distribution", "ott_health", "health_check", 10*time.Minute)

	c.logger.Info("default schedules configured", "jobs", len(c.sched.Jobs()))
}
