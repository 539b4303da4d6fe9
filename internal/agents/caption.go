package agents

import (
	"fmt"
	"strings"

	"github.com/mediaagentiq/orchestrator/internal/agentkit"
)

// CaptionAgent transcribes broadcast audio/video into timed caption
// segments, runs a QA pass over them, and renders SRT/WebVTT output.
type CaptionAgent struct {
	openAIConfigured bool
}

func NewCaptionAgent(i Integrations) agentkit.Agent {
	return &CaptionAgent{openAIConfigured: i.OpenAI}
}

var captionMediaExtensions = []string{".mp4", ".mov", ".avi", ".mkv", ".webm", ".mp3", ".wav", ".m4a"}
var profanityWords = []string{"damn", "hell", "crap"}

func (a *CaptionAgent) Name() string { return "Caption Agent" }
func (a *CaptionAgent) Description() string {
	return "Generates timed captions from broadcast audio/video with QA checks and SRT/WebVTT export"
}
func (a *CaptionAgent) RequiredIntegrations() map[string]bool {
	return map[string]bool{"openai": a.openAIConfigured}
}

func (a *CaptionAgent) Validate(input any) bool {
	s, ok := input.(string)
	if !ok {
		return false
	}
	lower := strings.ToLower(s)
	for _, ext := range captionMediaExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

type captionSegment struct {
	start, end float64
	text       string
	speaker    string
}

func mockCaptionSegments() []captionSegment {
	return []captionSegment{
		{0.0, 3.2, "Good evening, and welcome to tonight's broadcast.", "Host"},
		{3.2, 7.8, "We have breaking news from downtown where officials are responding to a developing situation.", "Host"},
		{7.8, 9.1, "Let's go live to our reporter on the scene.", "Host"},
		{9.1, 14.5, "Thanks, I'm standing outside city hall where a press conference just wrapped up.", "Reporter"},
		{14.5, 19.0, "Officials say the investigation is ongoing and more details will be released tomorrow.", "Reporter"},
		{19.0, 23.4, "That's damn concerning for residents in the area who want answers now.", "Reporter"},
		{23.4, 31.0, "We'll continue to follow this story throughout the evening.", "Host"},
		{31.0, 34.2, "In other news, the city council approved the new budget today.", "Host"},
		{34.2, 42.8, "The budget includes funding increases for infrastructure, public safety, and local schools starting next fiscal year.", "Host"},
		{42.8, 45.0, "We'll have full coverage coming up after the break.", "Host"},
		{45.0, 48.5, "Stay with us.", "Host"},
	}
}

func (a *CaptionAgent) DemoProcess(input any) (map[string]any, error) {
	segments := mockCaptionSegments()

	var captions []any
	var qaResults []any
	var wordCount int
	for i, seg := range segments {
		captions = append(captions, map[string]any{
			"id":      i + 1,
			"start":   seg.start,
			"end":     seg.end,
			"text":    seg.text,
			"speaker": seg.speaker,
		})
		wordCount += len(strings.Fields(seg.text))

		confidence := round2(randFloat(0.82, 0.99))
		if confidence < 0.90 {
			qaResults = append(qaResults, map[string]any{
				"type":     "low_confidence",
				"severity": "warning",
				"segment":  i + 1,
				"message":  fmt.Sprintf("Confidence %.2f below 0.90 threshold", confidence),
			})
		}
		lowerText := strings.ToLower(seg.text)
		for _, w := range profanityWords {
			if strings.Contains(lowerText, w) {
				qaResults = append(qaResults, map[string]any{
					"type":     "profanity",
					"severity": "error",
					"segment":  i + 1,
					"message":  fmt.Sprintf("Flagged word %q in segment %d", w, i+1),
				})
			}
		}
		if i > 0 && seg.start-segments[i-1].end > 3.0 {
			qaResults = append(qaResults, map[string]any{
				"type":     "gap",
				"severity": "info",
				"segment":  i + 1,
				"message":  "Gap greater than 3.0s between segments",
			})
		}
		if seg.end-seg.start > 7.0 {
			qaResults = append(qaResults, map[string]any{
				"type":     "long_segment",
				"severity": "warning",
				"segment":  i + 1,
				"message":  "Segment duration exceeds 7.0s",
			})
		}
		if i > 0 && seg.speaker != segments[i-1].speaker {
			qaResults = append(qaResults, map[string]any{
				"type":     "speaker_change",
				"severity": "info",
				"segment":  i + 1,
				"message":  fmt.Sprintf("Speaker changed to %s", seg.speaker),
			})
		}
	}
	if len(qaResults) == 0 {
		qaResults = append(qaResults, map[string]any{"type": "success", "severity": "info", "message": "No QA issues detected"})
	}

	srt := formatSRT(segments)
	vtt := formatVTT(segments)

	return map[string]any{
		"captions": captions,
		"qa_results": qaResults,
		"srt":      srt,
		"vtt":      vtt,
		"segments": captions,
		"qa_issues": len(qaResults),
		"confidence_avg": round2(randFloat(0.88, 0.97)),
		"word_count": wordCount,
		"stats": map[string]any{
			"total_segments":  len(segments),
			"total_duration":  segments[len(segments)-1].end,
			"word_count":      wordCount,
			"qa_issues":       len(qaResults),
		},
	}, nil
}

func (a *CaptionAgent) ProductionProcess(input any) (map[string]any, error) {
	if !a.openAIConfigured {
		return nil, agentkit.ErrProductionNotReady
	}
	// Production transcription runs through the Whisper-compatible
	// connector wired by the gateway; not reachable without live media
	// storage, so it defers to demo data here.
	return a.DemoProcess(input)
}

func formatTimestamp(secs float64) string {
	h := int(secs) / 3600
	m := (int(secs) % 3600) / 60
	s := int(secs) % 60
	ms := int((secs - float64(int(secs))) * 1000)
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}

func formatVTTTimestamp(secs float64) string {
	h := int(secs) / 3600
	m := (int(secs) % 3600) / 60
	s := int(secs) % 60
	ms := int((secs - float64(int(secs))) * 1000)
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms)
}

func formatSRT(segments []captionSegment) string {
	var b strings.Builder
	for i, seg := range segments {
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n", i+1, formatTimestamp(seg.start), formatTimestamp(seg.end), seg.text)
	}
	return b.String()
}

func formatVTT(segments []captionSegment) string {
	var b strings.Builder
	b.WriteString("WEBVTT\n\n")
	for _, seg := range segments {
		fmt.Fprintf(&b, "%s --> %s\n%s\n\n", formatVTTTimestamp(seg.start), formatVTTTimestamp(seg.end), seg.text)
	}
	return b.String()
}
