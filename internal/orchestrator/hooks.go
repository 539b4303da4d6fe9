package orchestrator

import (
	"github.com/mediaagentiq/orchestrator/internal/events"
	"github.com/mediaagentiq/orchestrator/internal/memory"
	"github.com/mediaagentiq/orchestrator/internal/queue"
)

// completionHook inspects a finished task against the fixed per-agent
// rule set and publishes derived events. This is the sole mechanism by
// which one agent's output feeds other agents. Returns the union of
// subscriber keys enqueued across all emitted events, for the source
// task's journal entry.
func (c *Core) completionHook(t *queue.Task) []string {
	if t.Result == nil || !t.Result.Success {
		return nil
	}
	if t.Hop >= queue.MaxHops {
		c.logger.Warn("event chain hop budget exhausted, not chaining",
			"task_id", t.ID, "agent", t.AgentKey, "hop", t.Hop)
		return nil
	}

	data := t.Result.Data

	var triggered []string
	emit := func(kind events.Kind, payload map[string]any) {
		triggered = append(triggered, c.emitDerived(t, kind, payload)...)
	}

	switch t.AgentKey {
	case "caption":
		emit(events.CaptionComplete, map[string]any{"captions": data})

	case "clip":
		if moments := listField(data, "viral_moments"); len(moments) > 0 {
			emit(events.ClipDetected, map[string]any{"clips": moments})
		}

	case "compliance":
		var critical []any
		for _, issue := range listField(data, "issues") {
			if m, ok := issue.(map[string]any); ok && m["severity"] == "critical" {
				critical = append(critical, m)
			}
		}
		if len(critical) > 0 {
			emit(events.ComplianceAlert, map[string]any{"issues": critical})
		}

	case "trending":
		var hot []any
		for _, trend := range listField(data, "trends") {
			if m, ok := trend.(map[string]any); ok && numField(m, "velocity_score", 0) > 90 {
				hot = append(hot, m)
			}
		}
		if len(hot) > 0 {
			emit(events.TrendingSpike, map[string]any{"trends": hot})
		}
		if breaking := listField(data, "breaking_news"); len(breaking) > 0 {
			emit(events.BreakingNews, map[string]any{"news": breaking})
		}

	case "rights":
		if violations := listField(data, "violations"); len(violations) > 0 {
			emit(events.ViolationDetected, map[string]any{"violations": violations})
		}
		var expiring []any
		for _, lic := range listField(data, "expiring_soon") {
			if m, ok := lic.(map[string]any); ok && numField(m, "days_until_expiry", 999) < 30 {
				expiring = append(expiring, m)
			}
		}
		if len(expiring) > 0 {
			emit(events.LicenseExpiring, map[string]any{"licenses": expiring})
		}
	}

	return triggered
}

// emitDerived publishes one derived event, stamps the hop budget onto
// the payload so chained tasks inherit it, and records the fan-out in
// the inter-agent log.
func (c *Core) emitDerived(t *queue.Task, kind events.Kind, payload map[string]any) []string {
	payload["_hop"] = t.Hop + 1

	subs := c.bus.Publish(events.Event{
		Kind:        kind,
		Data:        payload,
		SourceAgent: t.AgentKey,
		SourceTask:  t.ID,
	})

	c.mu.Lock()
	c.stats.EventsEmitted++
	c.mu.Unlock()

	if c.interAgentLog != nil {
		if err := c.interAgentLog.Append(memory.InterAgentEvent{
			Timestamp:     t.CompletedAt,
			Kind:          string(kind),
			SourceAgent:   t.AgentKey,
			SourceTaskID:  t.ID,
			Subscribers:   subs,
			PayloadSample: summarizeInput(payload),
			TasksQueued:   len(subs),
		}, c.historyMax, c.historyTrim); err != nil {
			c.logger.Error("inter-agent log write failed", "task_id", t.ID, "error", err)
		}
	}
	return subs
}

// PublishSystemEvent injects an externally-originated event (e.g. a
// folder watcher's NEW_CONTENT) into the bus under the system source.
func (c *Core) PublishSystemEvent(kind events.Kind, data map[string]any) []string {
	if data == nil {
		data = map[string]any{}
	}
	subs := c.bus.Publish(events.Event{
		Kind:        kind,
		Data:        data,
		SourceAgent: "system",
	})
	c.mu.Lock()
	c.stats.EventsEmitted++
	c.mu.Unlock()
	return subs
}

// listField reads a []any data key, tolerating absence.
func listField(data map[string]any, key string) []any {
	if data == nil {
		return nil
	}
	v, _ := data[key].([]any)
	return v
}

// numField reads a numeric data key as float64, tolerating the int /
// float64 split between in-process maps and JSON-decoded ones. A
// missing or non-numeric key reads as missing, so absence never
// matches a threshold rule in either direction.
func numField(m map[string]any, key string, missing float64) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return missing
}
