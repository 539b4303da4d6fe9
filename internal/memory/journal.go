// Package memory implements the per-agent persistent memory journal:
// an append-only markdown file per agent with a rewritable two-line
// header, bounded trim, and a pair of shared files (inter-agent event
// log, global task audit table) sharing the same append discipline.
//
// All journal I/O is synchronous and is only ever called from the
// orchestrator's single task-worker goroutine, so no locking is
// required here.
package memory

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

// OutputKeyMap lists, per agent key, the high-value data keys
// extracted into a journal entry's structured output summary.
var OutputKeyMap = map[string][]string{
	"caption":                 {"segments", "qa_issues", "confidence_avg", "word_count"},
	"clip":                    {"viral_moments", "clip_count", "top_score", "duration_s"},
	"archive":                 {"indexed_items", "categories", "storage_used_mb", "retrieval_score"},
	"compliance":              {"issues", "violations", "score", "critical_count"},
	"social":                  {"posts_scheduled", "platforms", "reach_estimate", "engagement_score"},
	"localization":            {"languages", "segments_localized", "confidence_avg", "translation_pairs"},
	"rights":                  {"licenses", "violations", "expiring_soon", "cleared_pct"},
	"trending":                {"trends", "breaking_news", "velocity_score", "top_topic"},
	"deepfake_detection":      {"risk_score", "verdict", "layers_checked", "confidence"},
	"live_fact_check":         {"claims_checked", "false_claims", "confidence", "databases_queried"},
	"audience_intelligence":   {"retention_curve", "drop_off_risk", "engagement_score", "demographic_bands"},
	"ai_production_director":  {"shots_planned", "lower_thirds", "rundown_changes", "auto_accepted"},
	"brand_safety":            {"safety_score", "garm_flags", "cpm_modifier", "advertiser_profiles"},
	"carbon_intelligence":     {"carbon_footprint_kg", "scope", "esg_score", "renewable_pct"},
	"ingest_transcode":        {"profiles", "output_files", "duration_s", "bitrate_kbps"},
	"signal_quality":          {"loudness_lufs", "true_peak_dbtp", "issues", "compliance_status"},
	"playout_scheduling":      {"items_scheduled", "next_item", "gaps_found", "on_air_confidence"},
	"ott_distribution":        {"streams_active", "cdn_health", "bitrate_avg_mbps", "viewer_count"},
	"newsroom_integration":    {"rundown_items", "sync_status", "stories_updated", "breaking_count"},
}

// Entry is a single recorded task outcome.
type Entry struct {
	Timestamp            time.Time
	TaskID               string
	Success              bool
	Mode                 string
	InputSummary         string
	OutputSummary        string
	TriggeredSubscribers []string
	DurationMS           int64
}

const sep = "\n\n---\n\n"

var slugPattern = regexp.MustCompile(`[^a-z0-9_]`)

// Slug normalizes an agent key/display name into a filesystem-safe stem.
func Slug(agentName string) string {
	lower := strings.ToLower(strings.ReplaceAll(agentName, " ", "_"))
	return slugPattern.ReplaceAllString(lower, "")
}

// Journal is the per-agent append-only markdown memory file.
type Journal struct {
	path       string
	agentName  string
	maxEntries int
	trimTo     int

	entries int
	success int
	totalMS int64
}

// OpenJournal creates the agent's journal file (if missing) under
// dir/agents/<slug>.md and loads its current entry/success/duration
// counters by scanning the existing body once.
func OpenJournal(dir, agentName string, maxEntries, trimTo int) (*Journal, error) {
	if maxEntries <= 0 {
		maxEntries = 2000
	}
	if trimTo <= 0 || trimTo >= maxEntries {
		trimTo = 1800
	}
	agentsDir := filepath.Join(dir, "agents")
	if err := os.MkdirAll(agentsDir, 0o755); err != nil {
		return nil, fmt.Errorf("memory: create agents dir: %w", err)
	}
	j := &Journal{
		path:       filepath.Join(agentsDir, Slug(agentName)+".md"),
		agentName:  agentName,
		maxEntries: maxEntries,
		trimTo:     trimTo,
	}

	if _, err := os.Stat(j.path); os.IsNotExist(err) {
		if err := os.WriteFile(j.path, []byte(j.header()), 0o644); err != nil {
			return nil, fmt.Errorf("memory: init journal %s: %w", j.path, err)
		}
		return j, nil
	} else if err != nil {
		return nil, fmt.Errorf("memory: stat journal %s: %w", j.path, err)
	}

	body, err := os.ReadFile(j.path)
	if err != nil {
		return nil, fmt.Errorf("memory: read journal %s: %w", j.path, err)
	}
	j.rescan(string(body))
	return j, nil
}

func (j *Journal) rescan(content string) {
	body := stripHeader(content)
	j.entries = len(splitBlocks(body))
	j.success, j.totalMS = rescanCounters(body)
}

var durationPattern = regexp.MustCompile(`\*\*Duration\*\*: (\d+)ms`)

func parseDurationMS(block string) int64 {
	m := durationPattern.FindStringSubmatch(block)
	if m == nil {
		return 0
	}
	var ms int64
	fmt.Sscanf(m[1], "%d", &ms)
	return ms
}

func (j *Journal) header() string {
	successPct := "n/a"
	avgMS := "n/a"
	if j.entries > 0 {
		successPct = fmt.Sprintf("%.1f%%", 100*float64(j.success)/float64(j.entries))
		avgMS = fmt.Sprintf("%dms", j.totalMS/int64(j.entries))
	}
	return fmt.Sprintf(
		"# %s — Agent Memory\n_Last updated: %s | Entries: %d | Success: %s | Avg duration: %s_\n",
		j.agentName, time.Now().UTC().Format(time.RFC3339), j.entries, successPct, avgMS,
	)
}

// Append records a task outcome, rewrites the two-line header, and
// trims the file if MAX_ENTRIES_PER_AGENT is exceeded.
func (j *Journal) Append(e Entry) error {
	existing, err := os.ReadFile(j.path)
	if err != nil {
		return fmt.Errorf("memory: read journal %s: %w", j.path, err)
	}
	body := stripHeader(string(existing))

	status := "FAILURE"
	if e.Success {
		status = "SUCCESS"
	}
	if e.Mode == "" {
		e.Mode = "demo"
	}
	lines := []string{
		fmt.Sprintf("## [%s] Task `%s` %s (%s)", e.Timestamp.UTC().Format("2006-01-02 15:04:05"), e.TaskID, status, e.Mode),
		fmt.Sprintf("**Input**: `%s`", e.InputSummary),
		fmt.Sprintf("**Output**: %s", e.OutputSummary),
	}
	if len(e.TriggeredSubscribers) > 0 {
		lines = append(lines, fmt.Sprintf("**Triggered**: %s", strings.Join(e.TriggeredSubscribers, ", ")))
	}
	lines = append(lines, fmt.Sprintf("**Duration**: %dms", e.DurationMS))
	entryBlock := strings.Join(lines, "\n")

	if strings.TrimSpace(body) == "" {
		body = entryBlock
	} else {
		body = body + sep + entryBlock
	}

	j.entries++
	if e.Success {
		j.success++
	}
	j.totalMS += e.DurationMS

	if j.entries > j.maxEntries {
		body = trimEntries(body, j.trimTo)
		j.entries = j.trimTo
		j.success, j.totalMS = rescanCounters(body)
	}

	content := j.header() + "\n" + body + "\n"
	tmp := j.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0o644); err != nil {
		return fmt.Errorf("memory: write journal %s: %w", j.path, err)
	}
	return os.Rename(tmp, j.path)
}

// Stats reports the journal's bounded counters: entry count, success
// count, and mean duration in milliseconds.
func (j *Journal) Stats() (entries, successes int, avgMS int64) {
	if j.entries == 0 {
		return 0, 0, 0
	}
	return j.entries, j.success, j.totalMS / int64(j.entries)
}

func stripHeader(content string) string {
	idx := strings.Index(content, "\n\n")
	if idx < 0 {
		return ""
	}
	return strings.TrimLeft(content[idx+2:], "\n")
}

func trimEntries(body string, trimTo int) string {
	blocks := splitBlocks(body)
	if len(blocks) <= trimTo {
		return body
	}
	kept := blocks[len(blocks)-trimTo:]
	return strings.Join(kept, sep)
}

func splitBlocks(body string) []string {
	var out []string
	for _, b := range strings.Split(body, sep) {
		if strings.TrimSpace(b) != "" {
			out = append(out, b)
		}
	}
	return out
}

func rescanCounters(body string) (success int, totalMS int64) {
	for _, b := range splitBlocks(body) {
		if strings.Contains(b, "SUCCESS") {
			success++
		}
		totalMS += parseDurationMS(b)
	}
	return success, totalMS
}

// SummarizeOutput renders the high-value keys for agentKey out of data
// into a compact human-readable line, falling back to a generic
// key-count summary for agents with no dedicated key map.
func SummarizeOutput(agentKey string, data map[string]any) string {
	keys, ok := OutputKeyMap[agentKey]
	if !ok || data == nil {
		return fmt.Sprintf("%d field(s)", len(data))
	}
	var parts []string
	for _, k := range keys {
		v, present := data[k]
		if !present {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s=%v", k, summarizeValue(v)))
	}
	if len(parts) == 0 {
		return "(no high-value keys present)"
	}
	return strings.Join(parts, ", ")
}

func summarizeValue(v any) any {
	switch t := v.(type) {
	case []any:
		return fmt.Sprintf("%d item(s)", len(t))
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return fmt.Sprintf("{%s}", strings.Join(keys, ","))
	default:
		return t
	}
}
