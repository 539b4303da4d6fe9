package agents

import (
	"time"

	"github.com/mediaagentiq/orchestrator/internal/agentkit"
)

// NewsroomIntegrationAgent bridges the editorial and technical broadcast
// workflow: newsroom rundown sync, wire ingestion, and breaking-news
// interruption.
type NewsroomIntegrationAgent struct {
	inewsConfigured bool
}

func NewNewsroomIntegrationAgent(i Integrations) agentkit.Agent {
	return &NewsroomIntegrationAgent{inewsConfigured: i.INews}
}

var storyCategories = []string{"Politics", "Business", "Technology", "Crime", "Health", "Weather", "Sports", "Entertainment", "International"}
var storyStatuses = []string{"filed", "editing", "approved", "ready", "on_air"}
var wireSources = []string{"AP", "Reuters", "AFP", "Bloomberg", "PA Media"}
var newsroomSystems = []string{"iNews", "ENPS", "Octopus"}

func (a *NewsroomIntegrationAgent) Name() string { return "Newsroom Integration Agent" }
func (a *NewsroomIntegrationAgent) Description() string {
	return "Bi-directional newsroom sync, wire ingestion, rundown management, and playout hand-off"
}
func (a *NewsroomIntegrationAgent) RequiredIntegrations() map[string]bool {
	return map[string]bool{"inews": a.inewsConfigured}
}

func (a *NewsroomIntegrationAgent) Validate(input any) bool {
	switch input.(type) {
	case map[string]any, string:
		return true
	}
	return false
}

var storyTitles = []string{
	"Prime Minister addresses parliament over budget crisis",
	"Tech giant announces major layoffs amid AI restructuring",
	"City hospital overwhelmed — winter surge continues",
	"Breaking: Earthquake strikes coastal region",
	"Local sports team secures championship spot",
	"New climate policy unveiled by energy minister",
	"Stock markets fall on inflation data",
	"Weather: Major storm system approaching this weekend",
}

func (a *NewsroomIntegrationAgent) DemoProcess(input any) (map[string]any, error) {
	show := "Evening News"
	if m, ok := input.(map[string]any); ok {
		if s, ok := m["show"].(string); ok && s != "" {
			show = s
		}
	}
	system := randChoice(newsroomSystems)
	cursor := time.Now()

	var rundownItems []any
	readyCount := 0
	totalDurationMin := 0
	for i, title := range randSample(storyTitles, 8) {
		durMin := 1 + randInt(7)
		status := randChoice(storyStatuses)
		if status == "ready" || status == "on_air" {
			readyCount++
		}
		totalDurationMin += durMin
		rundownItems = append(rundownItems, map[string]any{
			"slot": i + 1, "slug": titleSlug(title), "title": title,
			"category": randChoice(storyCategories), "duration": durMin,
			"timecode": timecode(cursor), "status": status,
			"mos_object_id": randID("MOS-", 10000, 99999),
			"wire_source":   randChoice(wireSources),
		})
		cursor = cursor.Add(time.Duration(durMin) * time.Minute)
	}

	var wireStories []any
	urgentCount := 0
	for i := 0; i < 5; i++ {
		priority := randChoice([]string{"URGENT", "ROUTINE", "BULLETIN"})
		if priority == "URGENT" {
			urgentCount++
		}
		wireStories = append(wireStories, map[string]any{
			"headline":  randChoice(storyTitles),
			"source":    randChoice(wireSources),
			"priority":  priority,
			"category":  randChoice(storyCategories),
			"word_count": 150 + randInt(650),
		})
		_ = i
	}

	return map[string]any{
		"show":            show,
		"system":          system,
		"rundown_items":   rundownItems,
		"total_items":     len(rundownItems),
		"ready_items":     readyCount,
		"total_duration":  totalDurationMin,
		"wire_stories":    wireStories,
		"urgent_wires":    urgentCount,
		"breaking_news":   urgentCount > 0,
		"last_sync":       nowISO(),
		"mos_connection":  "active",
		"sync_status":     "active",
		"stories_updated": len(rundownItems),
		"breaking_count":  urgentCount,
	}, nil
}

func (a *NewsroomIntegrationAgent) ProductionProcess(input any) (map[string]any, error) {
	if !a.inewsConfigured {
		return nil, agentkit.ErrProductionNotReady
	}
	return a.DemoProcess(input)
}
