package agents

import (
	"strings"

	"github.com/mediaagentiq/orchestrator/internal/agentkit"
)

// LocalizationAgent translates broadcast captions into target languages,
// offers AI-dub voice options, and tracks a translation-review workflow.
type LocalizationAgent struct {
	openAIConfigured bool
}

func NewLocalizationAgent(i Integrations) agentkit.Agent {
	return &LocalizationAgent{openAIConfigured: i.OpenAI}
}

var supportedLanguages = map[string]string{
	"en": "English", "es": "Spanish", "fr": "French", "de": "German",
	"pt": "Portuguese", "zh": "Chinese", "ja": "Japanese", "ko": "Korean",
	"ar": "Arabic", "hi": "Hindi", "it": "Italian", "ru": "Russian",
}

var localizationTranslations = map[string]string{
	"es": "Bienvenidos a la transmisión de hoy.",
	"fr": "Bienvenue dans la diffusion d'aujourd'hui.",
	"de": "Willkommen zur heutigen Übertragung.",
	"zh": "欢迎观看今天的节目。",
	"ja": "本日の放送にご参加いただきありがとうございます。",
}

func (a *LocalizationAgent) Name() string { return "Localization Agent" }
func (a *LocalizationAgent) Description() string {
	return "Translates broadcast captions into target languages and manages the dub/review workflow"
}
func (a *LocalizationAgent) RequiredIntegrations() map[string]bool {
	return map[string]bool{"openai": a.openAIConfigured}
}

func (a *LocalizationAgent) Validate(input any) bool {
	if m, ok := input.(map[string]any); ok {
		_, hasContent := m["content"]
		_, hasCaptions := m["captions"]
		_, hasFile := m["file"]
		return hasContent || hasCaptions || hasFile
	}
	return input != nil
}

var sourceSegments = []string{
	"Welcome to today's broadcast.",
	"We begin with breaking news from the capital.",
	"Officials are responding to the developing situation.",
	"Let's turn now to the weather outlook for this weekend.",
	"Thank you for watching, we'll see you tomorrow.",
}

func (a *LocalizationAgent) DemoProcess(input any) (map[string]any, error) {
	targetLanguages := []string{"es", "fr", "de"}
	if m, ok := input.(map[string]any); ok {
		if tl, ok := m["target_languages"].([]string); ok && len(tl) > 0 {
			targetLanguages = tl
		}
	}

	translations := map[string]any{}
	var wordCount int
	for _, lang := range targetLanguages {
		var segs []any
		for i, text := range sourceSegments {
			translated := localizationTranslations[lang]
			if translated == "" {
				translated = "[" + lang + "] " + text
			}
			segs = append(segs, map[string]any{
				"id": i + 1, "original": text, "translated": translated,
				"confidence": round2(randFloat(0.85, 0.98)), "reviewed": false,
			})
			wordCount += len(strings.Fields(text))
		}
		translations[lang] = map[string]any{
			"language": supportedLanguages[lang],
			"segments": segs,
			"status":   "completed",
		}
	}

	dubOptions := map[string]any{}
	for _, lang := range targetLanguages {
		dubOptions[lang] = map[string]any{
			"voices": []any{
				map[string]any{"id": "male_1", "style": "professional"},
				map[string]any{"id": "male_2", "style": "natural"},
				map[string]any{"id": "female_1", "style": "professional"},
				map[string]any{"id": "female_2", "style": "energetic"},
			},
			"estimated_processing_time": randID("", 5, 15) + " min",
			"quality_options":           []any{"standard", "high", "ultra"},
		}
	}

	workflow := map[string]any{
		"steps": []any{
			map[string]any{"name": "Translation", "status": "completed", "progress": 100},
			map[string]any{"name": "Quality Review", "status": "pending", "progress": 0},
			map[string]any{"name": "Timing Adjustment", "status": "pending", "progress": 0},
			map[string]any{"name": "AI Dubbing", "status": "pending", "progress": 0},
			map[string]any{"name": "Lip Sync", "status": "pending", "progress": 0},
			map[string]any{"name": "Final QA", "status": "pending", "progress": 0},
			map[string]any{"name": "Export & Delivery", "status": "pending", "progress": 0},
		},
		"current_step":      2,
		"overall_progress":  14,
		"estimated_completion": "2 hours",
	}

	qualityReport := map[string]any{}
	for _, lang := range targetLanguages {
		qualityReport[lang] = map[string]any{
			"overall_score": round1(randFloat(80, 97)),
			"fluency":       round1(randFloat(80, 97)),
			"accuracy":      round1(randFloat(80, 97)),
		}
	}

	return map[string]any{
		"translations":         translations,
		"dub_options":          dubOptions,
		"workflow":             workflow,
		"quality_report":       qualityReport,
		"languages":            anyToSlice(targetLanguages),
		"segments_localized":   len(sourceSegments) * len(targetLanguages),
		"confidence_avg":       round2(randFloat(0.86, 0.96)),
		"translation_pairs":    len(targetLanguages),
		"stats": map[string]any{
			"source_language":   "English",
			"target_languages":  len(targetLanguages),
			"total_segments":    len(sourceSegments),
			"estimated_time":    "2 hours",
			"dub_available":     len(targetLanguages),
		},
	}, nil
}

func (a *LocalizationAgent) ProductionProcess(input any) (map[string]any, error) {
	if !a.openAIConfigured {
		return nil, agentkit.ErrProductionNotReady
	}
	return a.DemoProcess(input)
}
