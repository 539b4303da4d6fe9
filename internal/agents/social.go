package agents

import (
	"fmt"
	"time"

	"github.com/mediaagentiq/orchestrator/internal/agentkit"
)

// SocialAgent turns broadcast highlights into drafted, scheduled social
// posts across Twitter/Instagram/TikTok, with hashtag recommendations
// and performance predictions.
type SocialAgent struct {
	openAIConfigured bool
}

func NewSocialAgent(i Integrations) agentkit.Agent {
	return &SocialAgent{openAIConfigured: i.OpenAI}
}

var socialPlatforms = []string{"twitter", "instagram", "tiktok"}
var socialPlatformNames = map[string]string{"twitter": "Twitter/X", "instagram": "Instagram", "tiktok": "TikTok"}

func (a *SocialAgent) Name() string { return "Social Publishing Agent" }
func (a *SocialAgent) Description() string {
	return "Drafts, schedules, and predicts performance for social posts generated from broadcast highlights"
}
func (a *SocialAgent) RequiredIntegrations() map[string]bool {
	return map[string]bool{"openai": a.openAIConfigured}
}

func (a *SocialAgent) Validate(input any) bool {
	if m, ok := input.(map[string]any); ok {
		_, hasClip := m["clip"]
		_, hasContent := m["content"]
		_, hasHighlights := m["highlights"]
		return hasClip || hasContent || hasHighlights
	}
	return input != nil
}

func (a *SocialAgent) DemoProcess(input any) (map[string]any, error) {
	highlights := []string{"Breaking: Major Development in Downtown", "Interview: Industry Leader Speaks Out"}

	var posts []any
	var schedule []any
	cursor := time.Now()
	postID := 0
	for _, h := range highlights {
		for _, p := range socialPlatforms {
			postID++
			id := fmt.Sprintf("post_%03d", postID)
			posts = append(posts, map[string]any{
				"id": id, "platform": p, "platform_name": socialPlatformNames[p],
				"content": h, "char_count": len(h), "status": "draft",
				"created_at": nowISO(),
			})
			schedule = append(schedule, map[string]any{
				"post_id": id, "platform": p, "scheduled_time": cursor.Format(time.RFC3339),
				"status": "scheduled", "auto_post": false,
			})
			cursor = cursor.Add(2 * time.Hour)
		}
	}

	hashtags := map[string]any{
		"trending":   []any{"#breakingnews", "#live"},
		"niche":      []any{"#localnews", "#community"},
		"engagement": []any{"#watchnow", "#developing"},
		"branded":    []any{"#miqnews"},
	}

	var predictions []any
	for _, p := range posts {
		pm := p.(map[string]any)
		recs := []any{"Include a call-to-action"}
		if pm["platform"] == "tiktok" {
			recs = []any{"Add trending audio"}
		}
		predictions = append(predictions, map[string]any{
			"post_id":        pm["id"],
			"predicted_reach": 1000 + randInt(50000),
			"confidence":     round2(randFloat(0.6, 0.9)),
			"recommendations": recs,
		})
	}

	return map[string]any{
		"posts":            posts,
		"schedule":         schedule,
		"hashtags":         hashtags,
		"predictions":      predictions,
		"posts_scheduled":  len(schedule),
		"platforms":        anyToSlice(socialPlatforms),
		"reach_estimate":   fmt.Sprintf("%dK", 20+randInt(180)),
		"engagement_score": round2(randFloat(0.4, 0.85)),
		"stats": map[string]any{
			"total_posts":     len(posts),
			"platforms":       anyToSlice(socialPlatforms),
			"scheduled_count": len(schedule),
			"estimated_reach": fmt.Sprintf("%dK", 20+randInt(180)),
		},
	}, nil
}

func randInt(n int) int {
	if n <= 0 {
		return 0
	}
	return int(randFloat(0, float64(n)))
}

func (a *SocialAgent) ProductionProcess(input any) (map[string]any, error) {
	if !a.openAIConfigured {
		return nil, agentkit.ErrProductionNotReady
	}
	return a.DemoProcess(input)
}
