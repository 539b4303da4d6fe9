package agents

import (
	"sort"

	"github.com/mediaagentiq/orchestrator/internal/agentkit"
)

// TrendingAgent monitors social/news sources for breaking news, trending
// topics, and viral content, and raises newsroom alerts when any of
// them crosses an editorial threshold. Runs without input.
type TrendingAgent struct {
	openAIConfigured bool
}

func NewTrendingAgent(i Integrations) agentkit.Agent {
	return &TrendingAgent{openAIConfigured: i.OpenAI}
}

var monitoredSources = map[string]int{
	"social_media": 5, "news_wires": 4, "news_sites": 5, "specialized": 4,
}

func (a *TrendingAgent) Name() string { return "Trending Agent" }
func (a *TrendingAgent) Description() string {
	return "Monitors social and news sources for breaking news, trending topics, and viral content"
}
func (a *TrendingAgent) RequiredIntegrations() map[string]bool {
	return map[string]bool{"openai": a.openAIConfigured}
}
func (a *TrendingAgent) Validate(input any) bool { return true }

func mockTrends() []map[string]any {
	return []map[string]any{
		{"topic": "Tech Layoffs 2024", "category": "business", "velocity": "rising", "velocity_score": 85, "sentiment": "negative"},
		{"topic": "AI Regulation Debate", "category": "technology", "velocity": "rising", "velocity_score": 78, "sentiment": "mixed"},
		{"topic": "Celebrity Announcement", "category": "entertainment", "velocity": "exploding", "velocity_score": 95, "sentiment": "positive"},
		{"topic": "Championship Game Results", "category": "sports", "velocity": "stable", "velocity_score": 70, "sentiment": "positive"},
		{"topic": "Climate Summit Updates", "category": "world", "velocity": "rising", "velocity_score": 65, "sentiment": "mixed"},
	}
}

func mockBreakingNews() []map[string]any {
	return []map[string]any{
		{"headline": "Economic Announcement Rattles Markets", "category": "business", "urgency": "high", "confirmed": true},
		{"headline": "Severe Weather Event Approaching", "category": "weather", "urgency": "high", "confirmed": true},
		{"headline": "Major Tech Acquisition Announced", "category": "technology", "urgency": "medium", "confirmed": false},
	}
}

func mockViralContent() []map[string]any {
	return []map[string]any{
		{"type": "video", "platform": "TikTok", "title": "Viral breaking-news clip", "views": 5200000, "news_potential": "high"},
		{"type": "thread", "platform": "Twitter", "title": "Viral analysis thread", "views": 2800000, "news_potential": "medium"},
	}
}

var alertPriorityOrder = map[string]int{"high": 0, "medium": 1, "low": 2}

func (a *TrendingAgent) DemoProcess(input any) (map[string]any, error) {
	trends := mockTrends()
	breaking := mockBreakingNews()
	viral := mockViralContent()

	var alerts []map[string]any
	for _, b := range breaking {
		if b["urgency"] == "high" {
			alerts = append(alerts, map[string]any{"priority": "high", "type": "breaking_news", "headline": b["headline"]})
		}
	}
	for _, t := range trends {
		if t["velocity_score"].(int) >= 80 {
			alerts = append(alerts, map[string]any{"priority": "medium", "type": "trend", "topic": t["topic"]})
		}
	}
	for _, v := range viral {
		if v["news_potential"] == "high" {
			alerts = append(alerts, map[string]any{"priority": "medium", "type": "viral_content", "title": v["title"]})
		}
	}
	sort.SliceStable(alerts, func(i, j int) bool {
		return alertPriorityOrder[alerts[i]["priority"].(string)] < alertPriorityOrder[alerts[j]["priority"].(string)]
	})

	sourcesMonitored := 0
	for _, n := range monitoredSources {
		sourcesMonitored += n
	}

	topTopic := ""
	if len(trends) > 0 {
		topTopic, _ = trends[0]["topic"].(string)
	}

	highPriority := 0
	for _, al := range alerts {
		if al["priority"] == "high" {
			highPriority++
		}
	}

	storySuggestions := []any{
		"Follow up on tech layoffs with affected-worker interviews",
		"Explain AI regulation debate with a studio explainer segment",
		"Package championship highlights for the morning show",
	}

	return map[string]any{
		"trends":             toAnySlice(trends),
		"breaking_news":      toAnySlice(breaking),
		"viral_content":      toAnySlice(viral),
		"alerts":             toAnySlice(alerts),
		"story_suggestions":  storySuggestions,
		"velocity_score":     trends[0]["velocity_score"],
		"top_topic":          topTopic,
		"stats": map[string]any{
			"topics_monitored":     9,
			"sources_monitored":    sourcesMonitored,
			"trends_detected":      len(trends),
			"breaking_stories":     len(breaking),
			"high_priority_alerts": highPriority,
			"last_updated":         nowISO(),
		},
	}, nil
}

func toAnySlice(items []map[string]any) []any {
	out := make([]any, len(items))
	for i, v := range items {
		out[i] = v
	}
	return out
}

func (a *TrendingAgent) ProductionProcess(input any) (map[string]any, error) {
	if !a.openAIConfigured {
		return nil, agentkit.ErrProductionNotReady
	}
	return a.DemoProcess(input)
}
