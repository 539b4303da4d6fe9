package agents

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"github.com/mediaagentiq/orchestrator/internal/agentkit"
)

// ClipAgent detects viral-worthy moments in broadcast video and turns
// them into platform-ready social clips.
type ClipAgent struct {
	openAIConfigured bool
}

func NewClipAgent(i Integrations) agentkit.Agent {
	return &ClipAgent{openAIConfigured: i.OpenAI}
}

var clipVideoExtensions = []string{".mp4", ".mov", ".avi", ".mkv", ".webm"}

var emotionKeywords = map[string][]string{
	"excitement":  {"amazing", "incredible", "wow"},
	"surprise":    {"shocking", "unexpected", "surprised"},
	"inspiration": {"inspiring", "hope", "overcome"},
	"humor":       {"funny", "hilarious", "laugh"},
}

func (a *ClipAgent) Name() string { return "Clip Agent" }
func (a *ClipAgent) Description() string {
	return "Detects viral moments in broadcast video and generates platform-ready social clips"
}
func (a *ClipAgent) RequiredIntegrations() map[string]bool {
	return map[string]bool{"openai": a.openAIConfigured}
}

func (a *ClipAgent) Validate(input any) bool {
	s, ok := input.(string)
	if !ok {
		return false
	}
	lower := strings.ToLower(s)
	for _, ext := range clipVideoExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

type viralMoment struct {
	id         int
	start, end float64
	kind       string
	emotion    string
	score      float64
	transcript string
}

func mockViralMoments() []viralMoment {
	return []viralMoment{
		{1, 12.0, 26.0, "breaking_news", "excitement", round2(randFloat(0.85, 0.95)), "Breaking: officials just confirmed the announcement."},
		{2, 88.0, 101.0, "emotional_peak", "inspiration", round2(randFloat(0.85, 0.95)), "Against all odds, she overcame every obstacle to get here."},
		{3, 140.0, 156.0, "interview_highlight", "surprise", round2(randFloat(0.85, 0.95)), "That's honestly shocking, I didn't expect that answer."},
		{4, 210.0, 219.0, "reaction_moment", "humor", round2(randFloat(0.85, 0.95)), "The crowd just burst out laughing at that one."},
		{5, 260.0, 271.0, "key_quote", "excitement", round2(randFloat(0.85, 0.95)), "This is an amazing moment for the whole community."},
	}
}

func clipTitle(kind string) string {
	titles := map[string]string{
		"breaking_news":       "BREAKING: You Won't Believe This",
		"emotional_peak":       "This Moment Will Move You",
		"interview_highlight": "The Answer Nobody Expected",
		"reaction_moment":      "Their Reaction Says It All",
		"key_quote":            "The Quote Everyone's Talking About",
	}
	if t, ok := titles[kind]; ok {
		return t
	}
	return "Must-See Broadcast Moment"
}

func recommendedPlatforms(kind string) []string {
	if kind == "breaking_news" {
		return []string{"Twitter/X", "Instagram"}
	}
	return []string{"Twitter/X", "Instagram", "TikTok"}
}

func clipHashtags(emotion string) []string {
	base := []string{"#news", "#breaking", "#mustwatch"}
	byEmotion := map[string][]string{
		"excitement":  {"#wow", "#viral"},
		"surprise":    {"#shocking", "#unexpected"},
		"inspiration": {"#inspiring", "#hope"},
		"humor":       {"#funny", "#lol"},
	}
	return append(base, byEmotion[emotion]...)
}

func (a *ClipAgent) DemoProcess(input any) (map[string]any, error) {
	moments := mockViralMoments()

	var momentsOut []any
	for _, m := range moments {
		momentsOut = append(momentsOut, map[string]any{
			"id":         m.id,
			"start":      m.start,
			"end":        m.end,
			"type":       m.kind,
			"emotion":    m.emotion,
			"score":      m.score,
			"transcript": m.transcript,
			"thumbnail":  fmt.Sprintf("thumb_%d.jpg", m.id),
		})
	}

	type clipOut struct {
		data  map[string]any
		score float64
	}
	var clips []clipOut
	for _, m := range moments {
		start, end := m.start, m.end
		if end-start < 15.0 {
			pad := (15.0 - (end - start)) / 2
			start -= pad
			end += pad
		}
		platforms := recommendedPlatforms(m.kind)
		formats := make([]any, 0, len(platforms))
		for _, p := range platforms {
			formats = append(formats, map[string]any{"platform": p, "aspect_ratio": "9:16"})
		}
		desc := m.transcript
		if len(desc) > 100 {
			desc = desc[:100]
		}
		clips = append(clips, clipOut{
			data: map[string]any{
				"id":              m.id,
				"title":           clipTitle(m.kind),
				"description":     desc,
				"start":           start,
				"end":             end,
				"viral_score":     m.score,
				"emotion":         m.emotion,
				"platforms":       anyToSlice(platforms),
				"hashtags":        anyToSlice(clipHashtags(m.emotion)),
				"format_versions": formats,
				"status":          "ready",
			},
			score: m.score,
		})
	}
	sort.Slice(clips, func(i, j int) bool { return clips[i].score > clips[j].score })
	var clipsOut []any
	for _, c := range clips {
		clipsOut = append(clipsOut, c.data)
	}

	var socialPosts []any
	limit := 3
	if len(clips) < limit {
		limit = len(clips)
	}
	for _, c := range clips[:limit] {
		for _, platform := range []string{"Twitter", "Instagram", "TikTok"} {
			socialPosts = append(socialPosts, map[string]any{
				"clip_id":    c.data["id"],
				"platform":   platform,
				"text":       fmt.Sprintf("%v", c.data["title"]),
				"char_count": len(fmt.Sprintf("%v", c.data["title"])),
				"best_time":  "18:00",
			})
		}
	}

	return map[string]any{
		"viral_moments":   momentsOut,
		"suggested_clips": clipsOut,
		"social_posts":    socialPosts,
		"clip_count":      len(clipsOut),
		"top_score":       clips[0].score,
		"duration_s":      moments[0].end - moments[0].start,
		"stats": map[string]any{
			"total_moments_detected": len(moments),
			"clips_generated":        len(clipsOut),
			"platforms_ready":        []any{"Twitter/X", "Instagram", "TikTok", "YouTube Shorts"},
			"estimated_reach":        fmt.Sprintf("%dK", 50+rand.Intn(950)),
		},
	}, nil
}

func (a *ClipAgent) ProductionProcess(input any) (map[string]any, error) {
	if !a.openAIConfigured {
		return nil, agentkit.ErrProductionNotReady
	}
	return a.DemoProcess(input)
}
