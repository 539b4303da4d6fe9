package agents

import (
	"fmt"
	"strings"

	"github.com/mediaagentiq/orchestrator/internal/agentkit"
)

// SignalQualityAgent monitors real-time audio/video signal quality:
// EBU R128 loudness compliance, black/freeze frame detection, and HDR
// gamut validation, raising a NOC alert on critical findings.
type SignalQualityAgent struct{}

func NewSignalQualityAgent(Integrations) agentkit.Agent { return &SignalQualityAgent{} }

func (a *SignalQualityAgent) Name() string { return "Signal Quality Monitor Agent" }
func (a *SignalQualityAgent) Description() string {
	return "Real-time audio/video signal quality monitoring — EBU R128 loudness, black frames, freeze detection"
}
func (a *SignalQualityAgent) RequiredIntegrations() map[string]bool { return map[string]bool{} }

func (a *SignalQualityAgent) Validate(input any) bool {
	switch v := input.(type) {
	case string:
		return strings.TrimSpace(v) != ""
	case map[string]any:
		_, hasURL := v["url"]
		_, hasFile := v["file"]
		_, hasStream := v["stream_url"]
		return hasURL || hasFile || hasStream
	}
	return false
}

func (a *SignalQualityAgent) DemoProcess(input any) (map[string]any, error) {
	source := fmt.Sprintf("%v", input)
	if m, ok := input.(map[string]any); ok {
		source = firstString(m, "url", "file", "stream_url")
	}

	scenario := randChoice([]string{"clean", "clean", "clean", "warning", "critical"})
	loudness := round1(randFloat(-24.0, -14.0))

	var issues []any
	switch scenario {
	case "warning":
		issues = append(issues, map[string]any{
			"type": "audio_loudness", "severity": "warning",
			"description": fmt.Sprintf("Loudness %.1f LUFS outside EBU R128 target (-23 ±1)", loudness),
			"standard": "EBU R128",
		})
	case "critical":
		loudness = round1(randFloat(-30.0, -28.0))
		issues = append(issues,
			map[string]any{"type": "audio_silence", "severity": "critical", "description": "Audio silence detected for >3 seconds"},
			map[string]any{"type": "video_freeze", "severity": "critical", "description": "Video freeze frame detected"},
		)
	}

	score := 100
	for _, i := range issues {
		im := i.(map[string]any)
		if im["severity"] == "critical" {
			score -= 25
		} else {
			score -= 10
		}
	}
	if score < 0 {
		score = 0
	}

	status := "PASS"
	if score < 60 {
		status = "FAIL"
	} else if score < 80 {
		status = "WARNING"
	}

	audio := map[string]any{
		"loudness_lufs":      loudness,
		"loudness_range_lu":  round1(randFloat(4.0, 12.0)),
		"true_peak_dbtp":     round1(randFloat(-3.0, -0.5)),
		"ebu_r128_compliant": loudness >= -25.0 && loudness <= -22.0,
		"sample_rate_hz":     48000,
		"channels":           randChoice([]int{2, 6, 8}),
	}
	video := map[string]any{
		"resolution":  randChoice([]string{"1920x1080", "3840x2160", "1280x720"}),
		"frame_rate":  randChoice([]string{"25", "29.97", "50", "59.94"}),
		"codec":       randChoice([]string{"H.264", "H.265", "ProRes"}),
		"color_space": randChoice([]string{"BT.709", "BT.2020"}),
		"black_frames": 0,
	}

	return map[string]any{
		"source":             source,
		"quality_score":      score,
		"overall_status":     status,
		"issues":             issues,
		"issue_count":        len(issues),
		"audio":              audio,
		"video":              video,
		"loudness_lufs":      loudness,
		"true_peak_dbtp":     audio["true_peak_dbtp"],
		"compliance_status":  status,
		"checked_at":         nowISO(),
	}, nil
}

func (a *SignalQualityAgent) ProductionProcess(input any) (map[string]any, error) {
	return nil, agentkit.ErrProductionNotReady
}
