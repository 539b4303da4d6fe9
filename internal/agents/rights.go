package agents

import (
	"sort"
	"time"

	"github.com/mediaagentiq/orchestrator/internal/agentkit"
)

// RightsAgent tracks content licenses, flags upcoming expirations, and
// detects unauthorized usage of licensed content across platforms.
type RightsAgent struct {
	openAIConfigured bool
}

func NewRightsAgent(i Integrations) agentkit.Agent {
	return &RightsAgent{openAIConfigured: i.OpenAI}
}

func (a *RightsAgent) Name() string { return "Rights Agent" }
func (a *RightsAgent) Description() string {
	return "Tracks content licenses, upcoming expirations, and unauthorized usage across platforms"
}
func (a *RightsAgent) RequiredIntegrations() map[string]bool {
	return map[string]bool{"openai": a.openAIConfigured}
}
func (a *RightsAgent) Validate(input any) bool { return input != nil }

type mockLicense struct {
	id, title, licenseType string
	endDate                *time.Time
	autoRenewal            bool
}

func mockLicenses() []mockLicense {
	now := time.Now()
	end1 := now.AddDate(0, 0, 10)
	end2 := now.AddDate(0, 8, 0)
	end3 := now.AddDate(0, 6, 0)
	end5 := now.AddDate(0, 4, 0)
	return []mockLicense{
		{"LIC001", "Premier League Highlights", "time_limited", &end1, false},
		{"LIC002", "AP News Feed", "exclusive", &end2, true},
		{"LIC003", "Getty Stock Footage", "non_exclusive", &end3, false},
		{"LIC004", "Epidemic Sound Music", "perpetual", nil, false},
		{"LIC005", "Reuters Video", "time_limited", &end5, false},
	}
}

func (a *RightsAgent) DemoProcess(input any) (map[string]any, error) {
	licenses := mockLicenses()
	now := time.Now()

	var licensesOut []any
	var expiring []any
	for _, l := range licenses {
		entry := map[string]any{
			"id": l.id, "content_title": l.title, "license_type": l.licenseType,
			"auto_renewal": l.autoRenewal,
		}
		if l.endDate != nil {
			entry["end_date"] = l.endDate.Format("2006-01-02")
			days := int(l.endDate.Sub(now).Hours() / 24)
			entry["status"] = "active"
			if days <= 90 {
				urgency := "medium"
				if days <= 14 {
					urgency = "critical"
				} else if days <= 30 {
					urgency = "high"
				}
				expiring = append(expiring, map[string]any{
					"id": l.id, "content_title": l.title, "days_until_expiry": days, "urgency": urgency,
				})
			}
		} else {
			entry["status"] = "active"
			entry["end_date"] = nil
		}
		licensesOut = append(licensesOut, entry)
	}
	sort.Slice(expiring, func(i, j int) bool {
		return expiring[i].(map[string]any)["days_until_expiry"].(int) < expiring[j].(map[string]any)["days_until_expiry"].(int)
	})

	violations := []any{
		map[string]any{
			"id": "VIO001", "type": "unauthorized_rebroadcast", "severity": "high",
			"content_title": "Premier League Highlights", "detected_on": "YouTube",
			"view_count": 150000, "estimated_damages": "$25,000",
		},
		map[string]any{
			"id": "VIO002", "type": "territorial_violation", "severity": "medium",
			"content_title": "Reuters Video", "detected_on": "international streaming platform",
			"view_count": 50000, "estimated_damages": "$10,000",
		},
	}

	var alerts []any
	for _, e := range expiring {
		alerts = append(alerts, map[string]any{"type": "license_expiring", "detail": e})
	}
	for _, v := range violations {
		alerts = append(alerts, map[string]any{"type": "violation", "detail": v})
	}

	return map[string]any{
		"licenses":      licensesOut,
		"expiring_soon": expiring,
		"violations":    violations,
		"alerts":        alerts,
		"report": map[string]any{
			"report_id":    "RPT-" + randID("", 10000, 99999),
			"generated_at": nowISO(),
			"summary": map[string]any{
				"total_licenses":    len(licensesOut),
				"active_licenses":   len(licensesOut),
				"expiring_soon":     len(expiring),
				"active_violations": len(violations),
				"total_annual_cost": "$1,625,000",
			},
		},
		"cleared_pct": round1(randFloat(78, 96)),
		"stats": map[string]any{
			"total_licenses":     len(licensesOut),
			"active_licenses":    len(licensesOut),
			"expiring_30_days":   len(expiring),
			"violations_detected": len(violations),
			"total_content_value": "$2.5M",
		},
	}, nil
}

func (a *RightsAgent) ProductionProcess(input any) (map[string]any, error) {
	if !a.openAIConfigured {
		return nil, agentkit.ErrProductionNotReady
	}
	return a.DemoProcess(input)
}
