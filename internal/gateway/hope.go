package gateway

import (
	"regexp"
)

// HOPE rules are per-agent "when/then" automation notes users register
// from chat. The bookkeeping lives on agentkit.BaseAgent; the gateway
// parses scheduling and priority hints from the raw message.

var (
	hopeDailyRe    = regexp.MustCompile(`(?i)\bevery (morning|day|daily)\b`)
	hopeWeeklyRe   = regexp.MustCompile(`(?i)\bevery week\b|\bweekly\b`)
	hopeCriticalRe = regexp.MustCompile(`(?i)\bbreaking\b|\bcritical\b|\burgent\b`)
	hopeHighRe     = regexp.MustCompile(`(?i)\bimmediately\b|\bright away\b|\basap\b`)
	hopeRuleIDRe   = regexp.MustCompile(`(?i)\bhope_\d+\b`)
)

// handleHopeCreate registers a rule on the mentioned agent, extracting
// a schedule keyword and priority from the phrasing.
func (h *Handler) handleHopeCreate(intent RoutedIntent) map[string]any {
	rawText := str(intent.Params, "raw_text", "")
	if rawText == "" {
		rawText = intent.OriginalMessage
	}

	schedule := "IMMEDIATE"
	if hopeDailyRe.MatchString(rawText) {
		schedule = "DAILY 08:00"
	} else if hopeWeeklyRe.MatchString(rawText) {
		schedule = "WEEKLY MON 08:00"
	}

	priority := "NORMAL"
	if hopeCriticalRe.MatchString(rawText) {
		priority = "CRITICAL"
	} else if hopeHighRe.MatchString(rawText) {
		priority = "HIGH"
	}

	wrapper, ok := h.core.Agents()[intent.AgentKey]
	if !ok {
		// No specific agent detected; ask the user to name one.
		return FormatHopeCreated(map[string]any{
			"rule_id":   "hope_pending",
			"agent_key": "all",
			"schedule":  schedule,
			"priority":  priority,
			"condition": "No specific agent detected — name one (e.g. 'archive agent') to register the rule.",
		})
	}

	rule := wrapper.AddHopeRule(rawText, schedule, "Send channel DM with summary", priority)
	return FormatHopeCreated(map[string]any{
		"rule_id":   rule.ID,
		"agent_key": rule.AgentKey,
		"schedule":  rule.Schedule,
		"priority":  rule.Priority,
		"condition": rule.Condition,
	})
}

// handleHopeCancel removes a rule by the hope_NNN id mentioned in the
// message.
func (h *Handler) handleHopeCancel(intent RoutedIntent) map[string]any {
	rawText := str(intent.Params, "raw_text", "")
	if rawText == "" {
		rawText = intent.OriginalMessage
	}
	ruleID := hopeRuleIDRe.FindString(rawText)
	if ruleID == "" {
		return FormatSlackError("Could not find a rule ID (e.g. hope_001) in your message.", "")
	}

	if wrapper, ok := h.core.Agents()[intent.AgentKey]; ok {
		if rule, found := wrapper.CancelHopeRule(ruleID); found {
			return FormatHopeCancelled(rule.ID)
		}
	} else {
		// No agent named: try every agent until the id matches.
		for _, wrapper := range h.core.Agents() {
			if rule, found := wrapper.CancelHopeRule(ruleID); found {
				return FormatHopeCancelled(rule.ID)
			}
		}
	}
	return FormatSlackError("No HOPE rule "+ruleID+" found.", intent.AgentKey)
}

// handleHopeList shows the rules registered on the mentioned agent, or
// across all agents when none is named.
func (h *Handler) handleHopeList(intent RoutedIntent) map[string]any {
	agentKey := intent.AgentKey
	var rules []map[string]any

	collect := func(key string) {
		wrapper := h.core.Agents()[key]
		if wrapper == nil {
			return
		}
		for _, r := range wrapper.ListHopeRules() {
			rules = append(rules, map[string]any{
				"rule_id":   r.ID,
				"agent_key": r.AgentKey,
				"schedule":  r.Schedule,
				"priority":  r.Priority,
				"condition": r.Condition,
			})
		}
	}

	if agentKey != "" {
		collect(agentKey)
	} else {
		agentKey = "all"
		for key := range h.core.Agents() {
			collect(key)
		}
	}
	return FormatHopeList(rules, agentKey)
}
