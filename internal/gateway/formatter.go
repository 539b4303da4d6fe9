package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/mediaagentiq/orchestrator/internal/queue"
)

// The formatter converts agent result envelopes into channel-specific
// interactive payloads. Slack gets Block Kit; Teams gets Adaptive
// Cards. Button action ids follow miq_<verb>_<agent_key> so the action
// handler can parse them uniformly.

// ─── Slack Block Kit helpers ───

func slHeader(text string) map[string]any {
	return map[string]any{"type": "header", "text": map[string]any{"type": "plain_text", "text": text}}
}

func slSection(md string) map[string]any {
	return map[string]any{"type": "section", "text": map[string]any{"type": "mrkdwn", "text": md}}
}

func slDivider() map[string]any { return map[string]any{"type": "divider"} }

func slButton(label, actionID, style string) map[string]any {
	btn := map[string]any{
		"type":      "button",
		"text":      map[string]any{"type": "plain_text", "text": label},
		"action_id": actionID,
		"value":     actionID,
	}
	if style == "primary" || style == "danger" {
		btn["style"] = style
	}
	return btn
}

func slActions(buttons ...map[string]any) map[string]any {
	els := make([]any, len(buttons))
	for i, b := range buttons {
		els[i] = b
	}
	return map[string]any{"type": "actions", "elements": els}
}

func slContext(text string) map[string]any {
	return map[string]any{
		"type":     "context",
		"elements": []any{map[string]any{"type": "mrkdwn", "text": text}},
	}
}

func scoreEmoji(score, thresholdOK float64) string {
	switch {
	case score >= 90:
		return "✅"
	case score >= thresholdOK:
		return "⚠️"
	default:
		return "❌"
	}
}

// ─── Per-agent Slack formatters ───

func fmtSlackCompliance(data map[string]any) []any {
	score := num(data, "risk_score")
	issues := list(data, "issues")
	emoji := scoreEmoji(100-score, 30)

	blocks := []any{
		slHeader("⚖️ Compliance Scan Result"),
		slSection(fmt.Sprintf(
			"*Risk Score:* %.0f/100 %s\n*Issues Found:* %d\n*Status:* %s",
			score, emoji, len(issues), str(data, "status", "scanned"))),
	}
	if len(issues) > 0 {
		var lines []string
		for _, issue := range first(issues, 5) {
			m, _ := issue.(map[string]any)
			lines = append(lines, fmt.Sprintf("• [%s] %s — %s",
				strings.ToUpper(str(m, "severity", "")), str(m, "fcc_rule", ""), str(m, "issue", "")))
		}
		blocks = append(blocks, slSection("*Issues:*\n"+strings.Join(lines, "\n")))
	}
	return append(blocks,
		slDivider(),
		slActions(
			slButton("📄 Full Report", "miq_export_compliance", ""),
			slButton("🔔 Alert Team", "miq_alert_compliance", ""),
			slButton("✅ Mark Reviewed", "miq_reviewed_compliance", "primary"),
		),
		slContext("MediaAgentIQ Compliance Agent"),
	)
}

func fmtSlackCaption(data map[string]any) []any {
	segments := list(data, "segments")
	blocks := []any{
		slHeader("📝 Caption Generation Complete"),
		slSection(fmt.Sprintf(
			"*Segments:* %d\n*Word Count:* %.0f\n*Avg Confidence:* %.0f%%\n*QA Issues:* %.0f",
			len(segments), num(data, "word_count"), num(data, "confidence_avg")*100, num(data, "qa_issues"))),
	}
	if len(segments) > 0 {
		var lines []string
		for _, seg := range first(segments, 3) {
			m, _ := seg.(map[string]any)
			lines = append(lines, fmt.Sprintf("`%v` %s", m["start"], str(m, "text", "")))
		}
		blocks = append(blocks, slSection("*Preview:*\n"+strings.Join(lines, "\n")))
	}
	return append(blocks,
		slDivider(),
		slActions(
			slButton("⬇️ Download SRT", "miq_download_caption", ""),
			slButton("⬇️ Download VTT", "miq_downloadvtt_caption", ""),
			slButton("🌍 Translate", "miq_translate_caption", "primary"),
		),
		slContext("MediaAgentIQ Caption Agent"),
	)
}

func fmtSlackClip(data map[string]any) []any {
	moments := list(data, "viral_moments")
	blocks := []any{
		slHeader("🎬 Viral Clip Detection"),
		slSection(fmt.Sprintf("*%d viral moment(s) detected*", len(moments))),
	}
	for _, moment := range first(moments, 3) {
		m, _ := moment.(map[string]any)
		blocks = append(blocks, slSection(fmt.Sprintf(
			"*Moment %v — %s*\n⏱ `%v → %v` | Viral Score: %.0f%%\n_%s_",
			m["id"], str(m, "type", "clip"), m["start"], m["end"],
			num(m, "score")*100, str(m, "transcript", ""))))
	}
	return append(blocks,
		slDivider(),
		slActions(
			slButton("✂️ Export Clips", "miq_export_clip", ""),
			slButton("📱 Publish Social", "miq_publish_clip", "primary"),
		),
		slContext("MediaAgentIQ Clip Agent"),
	)
}

func fmtSlackTrending(data map[string]any) []any {
	trends := first(list(data, "trends"), 5)
	breaking := list(data, "breaking_news")

	var lines []string
	for i, trend := range trends {
		m, _ := trend.(map[string]any)
		lines = append(lines, fmt.Sprintf("*%d. %s*  |  Velocity: %.0f  |  %s",
			i+1, str(m, "topic", ""), num(m, "velocity_score"), str(m, "sentiment", "")))
	}
	body := "_No active trends_"
	if len(lines) > 0 {
		body = strings.Join(lines, "\n")
	}
	blocks := []any{slHeader("📈 Trending Now"), slSection(body)}

	if len(breaking) > 0 {
		var bLines []string
		for _, item := range first(breaking, 3) {
			m, _ := item.(map[string]any)
			bLines = append(bLines, "🚨 "+str(m, "headline", ""))
		}
		blocks = append(blocks, slSection("*Breaking News:*\n"+strings.Join(bLines, "\n")))
	}
	return append(blocks,
		slDivider(),
		slActions(
			slButton("📱 Publish Trending", "miq_publish_trending", ""),
			slButton("📦 Archive Topics", "miq_archive_trending", ""),
			slButton("🔔 Set Alert", "miq_alert_trending", ""),
		),
		slContext("MediaAgentIQ Trending Agent"),
	)
}

func fmtSlackDeepfake(data map[string]any) []any {
	risk := num(data, "risk_score")
	verdict := str(data, "verdict", "unknown")
	held := verdict == "likely_fake" || verdict == "confirmed_fake"

	verdictEmoji := map[string]string{
		"authentic": "✅", "suspicious": "⚠️", "likely_fake": "🔴", "confirmed_fake": "🚫",
	}[verdict]
	if verdictEmoji == "" {
		verdictEmoji = "❓"
	}

	holdLabel := "No"
	if held {
		holdLabel = "Yes 🔒"
	}
	blocks := []any{
		slHeader("🕵️ Deepfake Detection Result"),
		slSection(fmt.Sprintf(
			"*Verdict:* %s %s\n*Risk Score:* %.0f%%\n*Layers Checked:* %.0f\n*Auto-Hold Applied:* %s",
			titleCase(verdict), verdictEmoji,
			risk*100, num(data, "layers_checked"), holdLabel)),
	}

	buttons := []map[string]any{slButton("📄 Full Forensic Report", "miq_export_deepfake_detection", "")}
	if held {
		buttons = append(buttons,
			slButton("✅ Release for Broadcast", "miq_release_deepfake_detection", "primary"),
			slButton("🗑 Reject Content", "miq_reject_deepfake_detection", "danger"))
	} else {
		buttons = append(buttons, slButton("🔒 Hold Content", "miq_hold_deepfake_detection", "danger"))
	}
	return append(blocks, slDivider(), slActions(buttons...),
		slContext("MediaAgentIQ Deepfake Detection Agent"))
}

func fmtSlackBrandSafety(data map[string]any) []any {
	score := num(data, "safety_score")
	flags := list(data, "garm_flags")
	blocked := score < 70

	adLabel := "✅ Approved"
	if blocked {
		adLabel = "🚫 Blocked"
	}
	blocks := []any{
		slHeader("🛡️ Brand Safety Score"),
		slSection(fmt.Sprintf(
			"*Safety Score:* %.0f/100 %s\n*Ad Insertion:* %s\n*GARM Flags:* %d\n*CPM Modifier:* %v",
			score, scoreEmoji(score, 70), adLabel, len(flags), data["cpm_modifier"])),
	}
	if len(flags) > 0 {
		var lines []string
		for _, flag := range first(flags, 5) {
			if m, ok := flag.(map[string]any); ok {
				lines = append(lines, "• "+str(m, "category", ""))
			} else {
				lines = append(lines, fmt.Sprintf("• %v", flag))
			}
		}
		blocks = append(blocks, slSection("*GARM Categories Flagged:*\n"+strings.Join(lines, "\n")))
	}

	buttons := []map[string]any{slButton("📄 Advertiser Report", "miq_export_brand_safety", "")}
	if blocked {
		buttons = append(buttons, slButton("✅ Override & Allow Ads", "miq_override_brand_safety", "primary"))
	} else {
		buttons = append(buttons, slButton("🚫 Block Ad Insertion", "miq_block_brand_safety", "danger"))
	}
	return append(blocks, slDivider(), slActions(buttons...),
		slContext("MediaAgentIQ Brand Safety Agent"))
}

func fmtSlackFactCheck(data map[string]any) []any {
	claims := list(data, "claims")
	blocks := []any{
		slHeader("✅ Live Fact-Check Result"),
		slSection(fmt.Sprintf(
			"*Claims Verified:* %d\n*False Claims:* %.0f\n*Databases Queried:* %.0f",
			len(claims), num(data, "false_claims"), num(data, "databases_queried"))),
	}

	verdictEmoji := map[string]string{
		"true": "✅", "mostly_true": "🟢", "half_true": "🟡",
		"misleading": "🟠", "false": "❌", "unverified": "❓", "outdated": "⏰",
	}
	for _, claim := range first(claims, 4) {
		m, _ := claim.(map[string]any)
		verdict := str(m, "verdict", "unverified")
		emoji := verdictEmoji[verdict]
		if emoji == "" {
			emoji = "❓"
		}
		claimText := str(m, "text", "")
		if len(claimText) > 120 {
			claimText = claimText[:120]
		}
		blocks = append(blocks, slSection(fmt.Sprintf(
			"%s *%s*\n_%s_\nSource: %s | Confidence: %.0f%%",
			emoji, titleCase(verdict),
			claimText, str(m, "source", "N/A"), num(m, "confidence")*100)))
	}
	return append(blocks,
		slDivider(),
		slActions(
			slButton("📄 Full Fact-Check Report", "miq_export_live_fact_check", ""),
			slButton("🔔 Alert Anchor", "miq_alert_live_fact_check", "danger"),
		),
		slContext("MediaAgentIQ Live Fact-Check Agent"),
	)
}

func fmtSlackSocial(data map[string]any) []any {
	posts := list(data, "posts")
	platforms := make([]string, 0, 4)
	seen := map[string]bool{}
	for _, post := range posts {
		m, _ := post.(map[string]any)
		p := str(m, "platform", "")
		if p != "" && !seen[p] {
			seen[p] = true
			platforms = append(platforms, p)
		}
	}

	blocks := []any{
		slHeader("📱 Social Posts Generated"),
		slSection(fmt.Sprintf("*Posts:* %d\n*Platforms:* %s\n*Reach Estimate:* %s",
			len(posts), strings.Join(platforms, ", "), str(data, "reach_estimate", "N/A"))),
	}
	for _, post := range first(posts, 3) {
		m, _ := post.(map[string]any)
		content := str(m, "content", "")
		if len(content) > 200 {
			content = content[:200]
		}
		blocks = append(blocks, slSection(fmt.Sprintf("*%s*\n%s",
			titleCase(str(m, "platform", "")), content)))
	}
	return append(blocks,
		slDivider(),
		slActions(
			slButton("🚀 Publish All", "miq_publish_social", "primary"),
			slButton("✏️ Edit First", "miq_edit_social", ""),
			slButton("📋 Copy Text", "miq_copy_social", ""),
		),
		slContext("MediaAgentIQ Social Publishing Agent"),
	)
}

func fmtSlackIngest(data map[string]any) []any {
	profiles := list(data, "output_profiles")
	var names []string
	for _, p := range profiles {
		names = append(names, fmt.Sprintf("%v", p))
	}
	proxy := "❌"
	if b, _ := data["proxy_generated"].(bool); b {
		proxy = "✅"
	}
	return []any{
		slHeader("📥 Ingest & Transcode"),
		slSection(fmt.Sprintf(
			"*Status:* %s\n*Source:* %s\n*Duration:* %s\n*Output Profiles:* %s\n*Proxy Generated:* %s",
			str(data, "status", "N/A"), clip60(str(data, "source_url", "N/A")),
			str(data, "duration_timecode", "N/A"), strings.Join(names, ", "), proxy)),
		slDivider(),
		slActions(
			slButton("▶️ Process All Agents", "miq_processall_ingest_transcode", "primary"),
			slButton("📤 Send to MAM", "miq_push_ingest_transcode", ""),
			slButton("📄 Ingest Report", "miq_export_ingest_transcode", ""),
		),
		slContext("MediaAgentIQ Ingest & Transcode Agent"),
	}
}

func fmtSlackSignalQuality(data map[string]any) []any {
	score := num(data, "quality_score")
	issues := list(data, "issues")
	compliant := "❌"
	if audio, ok := data["audio"].(map[string]any); ok {
		if b, _ := audio["ebu_r128_compliant"].(bool); b {
			compliant = "✅"
		}
	}

	blocks := []any{
		slHeader("📡 Signal Quality Report"),
		slSection(fmt.Sprintf(
			"*Quality Score:* %.0f/100 %s\n*Loudness:* %v LUFS\n*EBU R128 Compliant:* %s\n*Issues Detected:* %d",
			score, scoreEmoji(score, 70), data["loudness_lufs"], compliant, len(issues))),
	}
	if len(issues) > 0 {
		var lines []string
		for _, issue := range first(issues, 5) {
			m, _ := issue.(map[string]any)
			lines = append(lines, "• "+str(m, "description", ""))
		}
		blocks = append(blocks, slSection("*Issues:*\n"+strings.Join(lines, "\n")))
	}

	buttons := []map[string]any{slButton("📄 Full QC Report", "miq_export_signal_quality", "")}
	if len(issues) > 0 {
		buttons = append(buttons,
			slButton("🔔 Alert NOC", "miq_alert_signal_quality", "danger"),
			slButton("🔧 Auto-Correct", "miq_autocorrect_signal_quality", "primary"))
	}
	return append(blocks, slDivider(), slActions(buttons...),
		slContext("MediaAgentIQ Signal Quality Agent"))
}

func fmtSlackPlayout(data map[string]any) []any {
	schedule := first(list(data, "schedule"), 5)
	blocks := []any{
		slHeader("📺 Playout Schedule"),
		slSection(fmt.Sprintf(
			"*Items Scheduled:* %.0f\n*Next Break:* %s\n*Automation Server:* %s",
			num(data, "total_items"), str(data, "next_break", "N/A"),
			str(data, "automation_server", "N/A"))),
	}
	if len(schedule) > 0 {
		var lines []string
		for _, item := range schedule {
			m, _ := item.(map[string]any)
			warn := ""
			if w, _ := m["warning"].(bool); w {
				warn = " ⚠️"
			}
			title := str(m, "title", "")
			if len(title) > 40 {
				title = title[:40]
			}
			lines = append(lines, fmt.Sprintf("`%s` %s [%s%s]",
				str(m, "timecode", "--:--:--"), title, str(m, "duration", ""), warn))
		}
		blocks = append(blocks, slSection("*Upcoming:*\n"+strings.Join(lines, "\n")))
	}
	return append(blocks,
		slDivider(),
		slActions(
			slButton("✅ Approve Schedule", "miq_approve_playout_scheduling", "primary"),
			slButton("✏️ Edit Schedule", "miq_edit_playout_scheduling", ""),
			slButton("📤 Push to Automation", "miq_push_playout_scheduling", ""),
		),
		slContext("MediaAgentIQ Playout & Scheduling Agent"),
	)
}

func fmtSlackOTT(data map[string]any) []any {
	hlsURL, dashURL := "N/A", "N/A"
	if hls, ok := data["hls"].(map[string]any); ok {
		hlsURL = str(hls, "manifest_url", "N/A")
	}
	if dash, ok := data["dash"].(map[string]any); ok {
		dashURL = str(dash, "manifest_url", "N/A")
	}
	return []any{
		slHeader("🌐 OTT / Multi-Platform Distribution"),
		slSection(fmt.Sprintf(
			"*Platforms Published:* %.0f\n*CDN Health:* %s\n*HLS URL:* %s\n*DASH URL:* %s",
			num(data, "platforms_published"), str(data, "cdn_health", "N/A"),
			clip60(hlsURL), clip60(dashURL))),
		slDivider(),
		slActions(
			slButton("🔗 Copy HLS URL", "miq_copy_ott_distribution", ""),
			slButton("🔗 Copy DASH URL", "miq_copydash_ott_distribution", ""),
			slButton("📊 CDN Analytics", "miq_analytics_ott_distribution", ""),
		),
		slContext("MediaAgentIQ OTT Distribution Agent"),
	}
}

func fmtSlackNewsroom(data map[string]any) []any {
	rundown := first(list(data, "rundown_items"), 6)
	blocks := []any{
		slHeader("📰 Newsroom Integration"),
		slSection(fmt.Sprintf(
			"*Rundown Items:* %.0f\n*Newsroom System:* %s\n*Last Sync:* %s",
			num(data, "total_items"), str(data, "system", "N/A"), str(data, "last_sync", "N/A"))),
	}
	if len(rundown) > 0 {
		var lines []string
		for _, item := range rundown {
			m, _ := item.(map[string]any)
			slug := str(m, "slug", "")
			if len(slug) > 12 {
				slug = slug[:12]
			}
			title := str(m, "title", "")
			if len(title) > 40 {
				title = title[:40]
			}
			lines = append(lines, fmt.Sprintf("`%s` %s [%s] %s",
				slug, title, str(m, "duration", ""), str(m, "status", "")))
		}
		blocks = append(blocks, slSection("*Today's Rundown:*\n"+strings.Join(lines, "\n")))
	}
	return append(blocks,
		slDivider(),
		slActions(
			slButton("🔄 Sync Rundown", "miq_sync_newsroom_integration", "primary"),
			slButton("📤 Push to Playout", "miq_push_newsroom_integration", ""),
			slButton("📄 Export Rundown", "miq_export_newsroom_integration", ""),
		),
		slContext("MediaAgentIQ Newsroom Integration Agent"),
	)
}

// fmtSlackGeneric is the fallback for agents without a dedicated
// template: a flattened markdown preview when the data carries one,
// otherwise a truncated JSON view.
func fmtSlackGeneric(agentKey string, data map[string]any) []any {
	preview := ""
	for _, key := range []string{"report", "summary"} {
		if md := str(data, key, ""); md != "" {
			preview = markdownToText(md)
			break
		}
	}
	if preview == "" {
		raw, _ := json.MarshalIndent(data, "", "  ")
		preview = string(raw)
	}
	if len(preview) > 600 {
		preview = preview[:600]
	}
	return []any{
		slHeader(fmt.Sprintf("🤖 %s Result", titleCase(agentKey))),
		slSection("```" + preview + "```"),
		slDivider(),
		slActions(slButton("📄 Export", "miq_export_"+agentKey, "")),
		slContext("MediaAgentIQ — " + agentKey),
	}
}

func fmtSlackStatus(data map[string]any) []any {
	agents, _ := data["agents"].(map[string]any)
	var lines []string
	for key, v := range agents {
		m, _ := v.(map[string]any)
		check := "❌"
		if ready, _ := m["ready"].(bool); ready {
			check = "✅"
		}
		lines = append(lines, fmt.Sprintf("%s *%s* — %s mode", check, key, str(m, "mode", "demo")))
		if len(lines) >= 19 {
			break
		}
	}
	body := "_No agents registered_"
	if len(lines) > 0 {
		body = strings.Join(lines, "\n")
	}
	return []any{
		slHeader("🤖 MediaAgentIQ Agent Status"),
		slSection(body),
		slDivider(),
		slActions(
			slButton("🔌 Connectors", "miq_show_connectors", ""),
			slButton("📊 Full Dashboard", "miq_open_dashboard", ""),
		),
		slContext("MediaAgentIQ Platform"),
	}
}

func fmtSlackConnectors(data map[string]any) []any {
	summary, _ := data["summary"].(map[string]any)
	byCategory, _ := data["by_category"].(map[string]any)

	var lines []string
	for category, raw := range byCategory {
		connectors, _ := raw.([]map[string]any)
		if connectors == nil {
			if anyList, ok := raw.([]any); ok {
				for _, item := range anyList {
					if m, ok := item.(map[string]any); ok {
						connectors = append(connectors, m)
					}
				}
			}
		}
		for _, c := range connectors {
			emoji := "🔴"
			if str(c, "status", "") == "connected" {
				emoji = "🟢"
			}
			lines = append(lines, fmt.Sprintf("%s *%s* (%s)", emoji, str(c, "name", ""), category))
		}
	}
	body := "_No connectors registered_"
	if len(lines) > 0 {
		if len(lines) > 15 {
			lines = lines[:15]
		}
		body = strings.Join(lines, "\n")
	}
	return []any{
		slHeader("🔌 Connector Status"),
		slSection(fmt.Sprintf(
			"*Total:* %v  |  *Connected:* %v  |  *Health:* %v%%\n*MCP Tools Available:* %v",
			summary["total"], summary["connected"], summary["health_pct"], data["total_tools"])),
		slSection(body),
		slContext("MediaAgentIQ Connector Registry"),
	}
}

// ─── Main Slack dispatch ───

var slackFormatters = map[string]func(map[string]any) []any{
	"compliance":           fmtSlackCompliance,
	"caption":              fmtSlackCaption,
	"clip":                 fmtSlackClip,
	"trending":             fmtSlackTrending,
	"deepfake_detection":   fmtSlackDeepfake,
	"brand_safety":         fmtSlackBrandSafety,
	"live_fact_check":      fmtSlackFactCheck,
	"social":               fmtSlackSocial,
	"ingest_transcode":     fmtSlackIngest,
	"signal_quality":       fmtSlackSignalQuality,
	"playout_scheduling":   fmtSlackPlayout,
	"ott_distribution":     fmtSlackOTT,
	"newsroom_integration": fmtSlackNewsroom,
}

// FormatSlack renders an agent result envelope as a Slack Block Kit
// message payload.
func FormatSlack(agentKey string, result *queue.Envelope) map[string]any {
	if result != nil && !result.Success {
		return FormatSlackError(result.Error, agentKey)
	}
	var data map[string]any
	if result != nil {
		data = result.Data
	}
	if data == nil {
		data = map[string]any{}
	}
	formatter := slackFormatters[agentKey]
	if formatter == nil {
		return map[string]any{"blocks": fmtSlackGeneric(agentKey, data)}
	}
	return map[string]any{"blocks": formatter(data)}
}

// FormatSlackSystem renders status / connectors dashboards.
func FormatSlackSystem(command string, data map[string]any) map[string]any {
	switch command {
	case "status":
		return map[string]any{"blocks": fmtSlackStatus(data)}
	case "connectors":
		return map[string]any{"blocks": fmtSlackConnectors(data)}
	default:
		return FormatSlackUnrecognized(command)
	}
}

// FormatSlackThinking is the loading placeholder posted immediately so
// the user sees acknowledgment within the channel's response deadline.
func FormatSlackThinking(agentKey string) map[string]any {
	return map[string]any{
		"blocks": []any{
			slSection(fmt.Sprintf("_Running %s Agent..._  ⏳", titleCase(agentKey))),
		},
	}
}

// FormatSlackError is the red-style failure card: human-readable error
// and agent key, no stack detail.
func FormatSlackError(errText, agentKey string) map[string]any {
	in := ""
	if agentKey != "" {
		in = " in " + agentKey
	}
	return map[string]any{
		"blocks": []any{
			slSection(fmt.Sprintf("❌ *Error%s:*\n%s", in, errText)),
		},
	}
}

// FormatSlackUnrecognized is the gentle "try /miq-help" card.
func FormatSlackUnrecognized(originalText string) map[string]any {
	return map[string]any{
		"blocks": []any{
			slSection(fmt.Sprintf(
				"🤔 I didn't quite understand: _%s_\n\nTry `/miq-help` to see available commands, "+
					"or be more specific (e.g. *'check compliance on [url]'*).", originalText)),
		},
	}
}

// FormatSlackHelp renders the command reference.
func FormatSlackHelp() map[string]any {
	return map[string]any{
		"blocks": []any{slSection(HelpText)},
	}
}

// ─── HOPE rule cards ───

// FormatHopeCreated confirms a registered rule.
func FormatHopeCreated(rule map[string]any) map[string]any {
	return map[string]any{
		"blocks": []any{
			slHeader("🕊️ HOPE Rule Created"),
			slSection(fmt.Sprintf(
				"*Rule:* `%v`\n*Agent:* %v\n*Schedule:* %v\n*Priority:* %v\n*Condition:* %v",
				rule["rule_id"], rule["agent_key"], rule["schedule"], rule["priority"], rule["condition"])),
			slContext("MediaAgentIQ HOPE Rules"),
		},
	}
}

// FormatHopeCancelled confirms a removed rule.
func FormatHopeCancelled(ruleID string) map[string]any {
	return map[string]any{
		"blocks": []any{
			slSection(fmt.Sprintf("🗑 HOPE rule `%s` cancelled.", ruleID)),
		},
	}
}

// FormatHopeList renders an agent's registered rules.
func FormatHopeList(rules []map[string]any, agentKey string) map[string]any {
	if len(rules) == 0 {
		return map[string]any{
			"blocks": []any{
				slSection(fmt.Sprintf("No HOPE rules registered for *%s*.", agentKey)),
			},
		}
	}
	var lines []string
	for _, r := range rules {
		lines = append(lines, fmt.Sprintf("• `%v` [%v] %v", r["rule_id"], r["priority"], r["condition"]))
	}
	return map[string]any{
		"blocks": []any{
			slHeader("🕊️ HOPE Rules — " + agentKey),
			slSection(strings.Join(lines, "\n")),
			slContext("MediaAgentIQ HOPE Rules"),
		},
	}
}

// HelpText is the command reference shown by /miq-help.
const HelpText = `*MediaAgentIQ — Available Commands*

*Slash Commands (power users):*
• ` + "`/miq-caption [url]`" + ` — Generate captions
• ` + "`/miq-compliance [url]`" + ` — FCC compliance scan
• ` + "`/miq-clip [url]`" + ` — Detect viral moments
• ` + "`/miq-trending [--live] [--topic=X]`" + ` — Trending topics
• ` + "`/miq-deepfake [url]`" + ` — Deepfake detection
• ` + "`/miq-factcheck [text]`" + ` — Fact-check a claim
• ` + "`/miq-social [url]`" + ` — Generate social posts
• ` + "`/miq-archive [query]`" + ` — Search media archive
• ` + "`/miq-brand [url]`" + ` — Brand safety score
• ` + "`/miq-ingest [url]`" + ` — Ingest & transcode
• ` + "`/miq-signal [stream_url]`" + ` — Signal quality check
• ` + "`/miq-playout`" + ` — Playout schedule
• ` + "`/miq-ott [url]`" + ` — Publish to OTT/streaming
• ` + "`/miq-newsroom`" + ` — Sync newsroom rundown
• ` + "`/miq-hope-create [rule]`" + ` — Register a when/then rule
• ` + "`/miq-status`" + ` — Agent health dashboard
• ` + "`/miq-connectors`" + ` — Connector status

*Natural language — just ask:*
• "Check compliance on today's 6pm newscast"
• "What's trending right now?"
• "Translate this clip to Spanish"
• "Is this video a deepfake?"
• "Generate social posts for the election coverage"`

// ─── Shared small helpers ───

func str(m map[string]any, key, fallback string) string {
	if m == nil {
		return fallback
	}
	if v, ok := m[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func num(m map[string]any, key string) float64 {
	if m == nil {
		return 0
	}
	switch v := m[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

func list(m map[string]any, key string) []any {
	if m == nil {
		return nil
	}
	v, _ := m[key].([]any)
	return v
}

func first(items []any, n int) []any {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func clip60(s string) string {
	if len(s) > 60 {
		return s[:60]
	}
	return s
}

func titleCase(key string) string {
	parts := strings.Split(key, "_")
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, " ")
}

// markdownToText flattens markdown to plain text by walking the parsed
// AST and collecting text nodes, block by block.
func markdownToText(md string) string {
	source := []byte(md)
	doc := goldmark.DefaultParser().Parse(text.NewReader(source))

	var sb strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if _, isBlock := n.(*ast.Paragraph); isBlock {
				sb.WriteString("\n")
			}
			if _, isHeading := n.(*ast.Heading); isHeading {
				sb.WriteString("\n")
			}
			return ast.WalkContinue, nil
		}
		if t, ok := n.(*ast.Text); ok {
			sb.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				sb.WriteString("\n")
			}
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}

// jsonPreview renders v as compact JSON, bounded.
func jsonPreview(v any, limit int) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Sprintf("%v", v)
	}
	out := strings.TrimSpace(buf.String())
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
