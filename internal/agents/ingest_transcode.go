package agents

import (
	"fmt"
	"strings"
	"time"

	"github.com/mediaagentiq/orchestrator/internal/agentkit"
)

// IngestTranscodeAgent handles the front door of the broadcast pipeline:
// file/live ingest and transcoding to broadcast delivery profiles.
type IngestTranscodeAgent struct {
	awsConfigured bool
}

func NewIngestTranscodeAgent(i Integrations) agentkit.Agent {
	return &IngestTranscodeAgent{awsConfigured: i.AWS}
}

var outputProfiles = map[string]map[string]string{
	"broadcast_hd": {"codec": "H.264", "resolution": "1920x1080", "bitrate": "50Mbps", "container": "MXF"},
	"broadcast_4k": {"codec": "H.265", "resolution": "3840x2160", "bitrate": "150Mbps", "container": "MXF"},
	"ott_hls":      {"codec": "H.264", "resolution": "1920x1080", "bitrate": "8Mbps", "container": "fMP4"},
	"proxy_edit":   {"codec": "ProRes", "resolution": "1280x720", "bitrate": "45Mbps", "container": "MOV"},
	"web_mp4":      {"codec": "H.264", "resolution": "1280x720", "bitrate": "5Mbps", "container": "MP4"},
}

var defaultIngestProfiles = []string{"broadcast_hd", "ott_hls", "proxy_edit", "web_mp4"}

func (a *IngestTranscodeAgent) Name() string { return "Ingest & Transcode Agent" }
func (a *IngestTranscodeAgent) Description() string {
	return "Ingests media from any source and transcodes to broadcast-ready delivery profiles"
}
func (a *IngestTranscodeAgent) RequiredIntegrations() map[string]bool {
	return map[string]bool{"aws": a.awsConfigured}
}

func (a *IngestTranscodeAgent) Validate(input any) bool {
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

func ingestSource(input any) (string, []string) {
	if m, ok := input.(map[string]any); ok {
		source := firstString(m, "url", "file", "stream_url")
		profiles := defaultIngestProfiles
		if p, ok := m["profiles"].([]string); ok && len(p) > 0 {
			profiles = p
		}
		return source, profiles
	}
	return fmt.Sprintf("%v", input), defaultIngestProfiles
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k].(string); ok && v != "" {
			return v
		}
	}
	return "demo_source"
}

func (a *IngestTranscodeAgent) DemoProcess(input any) (map[string]any, error) {
	source, profiles := ingestSource(input)
	id := jobID("ingest")
	durationSecs := 120 + randInt(7080)
	fileSizeGB := round2(randFloat(0.5, 45.0))

	var outputFiles []any
	for _, profile := range profiles {
		spec := outputProfiles[profile]
		container := strings.ToLower(spec["container"])
		outputFiles = append(outputFiles, map[string]any{
			"profile":     profile,
			"codec":       spec["codec"],
			"resolution":  spec["resolution"],
			"bitrate":     spec["bitrate"],
			"container":   spec["container"],
			"output_path": fmt.Sprintf("s3://mediaagentiq-outputs/%s/%s.%s", id, profile, container),
			"size_gb":      round2(fileSizeGB * randFloat(0.1, 1.2)),
			"status":       "complete",
		})
	}

	metadata := map[string]any{
		"duration_seconds":  durationSecs,
		"duration_timecode": (time.Duration(durationSecs) * time.Second).String(),
		"frame_rate":        randChoice([]string{"25", "29.97", "50", "59.94"}),
		"audio_channels":    randChoice([]int{2, 6, 8}),
		"color_space":       randChoice([]string{"BT.709", "BT.2020", "BT.601"}),
		"hdr":               randChoice([]bool{true, false}),
	}

	return map[string]any{
		"job_id":          id,
		"source_url":      source,
		"status":          "complete",
		"output_profiles": anyToSlice(profiles),
		"output_files":    outputFiles,
		"proxy_generated": contains(profiles, "proxy_edit"),
		"mam_asset_id":    randID("AVID-", 100000, 999999),
		"metadata":        metadata,
		"profiles":        anyToSlice(profiles),
		"duration_s":      durationSecs,
		"bitrate_kbps":    8000,
		"ingested_at":     nowISO(),
	}, nil
}

func contains(items []string, target string) bool {
	for _, i := range items {
		if i == target {
			return true
		}
	}
	return false
}

func (a *IngestTranscodeAgent) ProductionProcess(input any) (map[string]any, error) {
	if !a.awsConfigured {
		return nil, agentkit.ErrProductionNotReady
	}
	return a.DemoProcess(input)
}
