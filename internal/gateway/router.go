// Package gateway is the inbound/outbound channel layer: it turns raw
// user messages from Slack and Teams into agent invocations (router +
// conversation context), and turns agent result envelopes back into
// interactive channel cards (formatter + webhook handler).
package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
)

// RoutedIntent is the router's output: which agent to call and with
// what parameters, or which built-in system command to run.
type RoutedIntent struct {
	AgentKey        string
	Intent          string
	Params          map[string]any
	Confidence      float64
	OriginalMessage string
	IsSystemCommand bool
	SystemCommand   string
}

// keywordRule pairs a compiled pattern with its target agent. More
// specific patterns sort first; the first match wins.
type keywordRule struct {
	pattern  *regexp.Regexp
	agentKey string
}

// Router resolves user text in three tiers: deterministic slash parse,
// keyword regex, then an optional LLM fallback. Tables are built once
// in NewRouter; no package-level mutable state.
type Router struct {
	logger   *slog.Logger
	llm      *LLMRouter // nil when OpenAI is not configured
	keywords []keywordRule
	slash    map[string]string
	commands map[string]string // agent key -> slash command, for serialization

	statusRe     *regexp.Regexp
	connectorsRe *regexp.Regexp
	helpRe       *regexp.Regexp
	urlRe        *regexp.Regexp
	quoteRe      *regexp.Regexp
	hopeRuleRe   *regexp.Regexp
}

// NewRouter compiles the routing tables. llm may be nil to disable the
// tier-3 fallback.
func NewRouter(logger *slog.Logger, llm *LLMRouter) *Router {
	if logger == nil {
		logger = slog.Default()
	}

	keywordTable := []struct {
		pattern  string
		agentKey string
	}{
		// Pipeline agents first (higher specificity).
		{`\b(ingest|transcode|encoding|proxy|format.convert)\b`, "ingest_transcode"},
		{`\b(signal|loudness|blackframe|freeze|ebu.r128|qc.signal)\b`, "signal_quality"},
		{`\b(playout|scheduling|playlist|automation|scte|break.timing)\b`, "playout_scheduling"},
		{`\b(ott|stream(ing)?|hls|dash|cdn|vod|multi.platform|distribute)\b`, "ott_distribution"},
		{`\b(newsroom|rundown|mos|inews|enps|wire|assignment)\b`, "newsroom_integration"},
		// Original agents.
		{`\b(caption|transcri(be|ption)|subtitle|srt|vtt|closed.caption)\b`, "caption"},
		{`\b(clip|viral|moment|highlight|reel)\b`, "clip"},
		{`\b(compliance|fcc|profanity|political.ad|eas|sponsorship)\b`, "compliance"},
		{`\b(archive|search|find|lookup|asset|mam|library)\b`, "archive"},
		{`\b(social|post|tweet|instagram|tiktok|facebook|youtube|publish)\b`, "social"},
		{`\b(locali(ze|se|zation)|translate|translation|dub(bing)?|language)\b`, "localization"},
		{`\b(rights|license|licence|dmca|copyright|violation|expir)\b`, "rights"},
		{`\b(trend(ing)?|breaking.news|monitor)\b`, "trending"},
		{`\b(deepfake|synthetic|fake|ai.generat|forensic|authentic)\b`, "deepfake_detection"},
		{`\b(fact.?check|verify|claim|misinform|false)\b`, "live_fact_check"},
		{`\b(audience|viewers?|retention|drop.?off|rating)\b`, "audience_intelligence"},
		{`\b(production|director|camera|lower.third|chyron|rundown.live)\b`, "ai_production_director"},
		{`\b(brand.?safety|garm|ad.safe|advertiser|cpm)\b`, "brand_safety"},
		{`\b(carbon|esg|emission|ghg|sustainab|energy)\b`, "carbon_intelligence"},
	}
	keywords := make([]keywordRule, 0, len(keywordTable))
	for _, row := range keywordTable {
		keywords = append(keywords, keywordRule{
			pattern:  regexp.MustCompile(row.pattern),
			agentKey: row.agentKey,
		})
	}

	slash := map[string]string{
		"/miq-caption":        "caption",
		"/miq-clip":           "clip",
		"/miq-compliance":     "compliance",
		"/miq-archive":        "archive",
		"/miq-archive-search": "archive",
		"/miq-social":         "social",
		"/miq-localize":       "localization",
		"/miq-rights":         "rights",
		"/miq-trending":       "trending",
		"/miq-deepfake":       "deepfake_detection",
		"/miq-factcheck":      "live_fact_check",
		"/miq-audience":       "audience_intelligence",
		"/miq-production":     "ai_production_director",
		"/miq-brand":          "brand_safety",
		"/miq-carbon":         "carbon_intelligence",
		"/miq-ingest":         "ingest_transcode",
		"/miq-signal":         "signal_quality",
		"/miq-playout":        "playout_scheduling",
		"/miq-ott":            "ott_distribution",
		"/miq-newsroom":       "newsroom_integration",
		// System commands.
		"/miq-status":      "__status__",
		"/miq-connectors":  "__connectors__",
		"/miq-help":        "__help__",
		"/miq-hope-create": "__hope_create__",
		"/miq-hope-cancel": "__hope_cancel__",
		"/miq-hope-list":   "__hope_list__",
	}

	commands := make(map[string]string, len(slash))
	for cmd, key := range slash {
		if strings.HasPrefix(key, "__") {
			continue
		}
		// Prefer the shortest command for each agent (archive over
		// archive-search) so serialization is stable.
		if existing, ok := commands[key]; !ok || len(cmd) < len(existing) {
			commands[key] = cmd
		}
	}

	return &Router{
		logger:   logger.With("component", "router"),
		llm:      llm,
		keywords: keywords,
		slash:    slash,
		commands: commands,

		statusRe:     regexp.MustCompile(`\b(status|health|agents)\b`),
		connectorsRe: regexp.MustCompile(`\b(connector|integration|connected)\b`),
		helpRe:       regexp.MustCompile(`\b(help|what can|commands?|how to)\b`),
		urlRe:        regexp.MustCompile(`https?://\S+`),
		quoteRe:      regexp.MustCompile(`"([^"]+)"`),
		hopeRuleRe:   regexp.MustCompile(`\bhope rules?\b|\bwhen .* then\b`),
	}
}

// Route resolves user text to an intent. history feeds the LLM tier.
//
// Priority: slash command (deterministic) -> keyword match -> LLM
// fallback for the unrecognized remainder.
func (r *Router) Route(ctx context.Context, text string, history []ChatMessage) RoutedIntent {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "/miq-") {
		return r.parseSlash(text)
	}

	keyword := r.routeByKeywords(text)
	if keyword.Confidence >= 0.85 {
		return keyword
	}

	if r.llm == nil {
		return keyword
	}
	intent, err := r.llm.Route(ctx, text, history)
	if err != nil {
		r.logger.Warn("LLM routing failed, using keyword result", "error", err)
		return keyword
	}
	return intent
}

// parseSlash handles tier 1. Arguments: --k=v sets params[k], --flag
// sets params[flag]=true, a leading http* positional becomes
// params.url, any other free text becomes params.text.
func (r *Router) parseSlash(text string) RoutedIntent {
	parts := strings.Fields(text)
	command := strings.ToLower(parts[0])
	target, ok := r.slash[command]
	if !ok {
		return RoutedIntent{
			Intent:          "unknown_slash",
			Confidence:      1.0,
			OriginalMessage: text,
			Params:          map[string]any{},
		}
	}

	params := map[string]any{}
	var positional []string
	for _, part := range parts[1:] {
		if strings.HasPrefix(part, "--") {
			inner := part[2:]
			if k, v, found := strings.Cut(inner, "="); found {
				params[k] = v
			} else if inner != "" {
				params[inner] = true
			}
			continue
		}
		positional = append(positional, part)
	}
	if len(positional) > 0 {
		joined := strings.Join(positional, " ")
		if strings.HasPrefix(positional[0], "http") {
			params["url"] = joined
		} else {
			params["text"] = joined
		}
	}

	if strings.HasPrefix(target, "__") {
		sysCmd := strings.Trim(target, "_")
		params["raw_text"] = text
		return RoutedIntent{
			Intent:          sysCmd,
			Params:          params,
			Confidence:      1.0,
			OriginalMessage: text,
			IsSystemCommand: true,
			SystemCommand:   sysCmd,
		}
	}

	if command == "/miq-archive-search" {
		if q, ok := params["text"]; ok {
			params["query"] = q
		}
	}

	return RoutedIntent{
		AgentKey:        target,
		Intent:          strings.ReplaceAll(target, "_", " "),
		Params:          params,
		Confidence:      1.0,
		OriginalMessage: text,
	}
}

// routeByKeywords handles tier 2: first matching rule wins; URL and
// quoted substrings are extracted as side effects.
func (r *Router) routeByKeywords(text string) RoutedIntent {
	lower := strings.ToLower(text)

	// HOPE rule phrasing is recognized ahead of agent keywords so
	// "add a hope rule for the archive agent" doesn't route to archive
	// directly.
	if r.hopeRuleRe.MatchString(lower) {
		return r.routeHope(text, lower)
	}

	// Agent keywords are matched against the text with its URL removed,
	// so a host or path segment such as "cdn" cannot pick the agent.
	url := r.urlRe.FindString(text)
	lowerNoURL := strings.ToLower(strings.Replace(text, url, "", 1))
	for _, rule := range r.keywords {
		if !rule.pattern.MatchString(lowerNoURL) {
			continue
		}
		params := map[string]any{}
		if url != "" {
			params["url"] = url
		}
		if quoted := r.quoteRe.FindStringSubmatch(text); quoted != nil {
			params["text"] = quoted[1]
		} else if freeText := strings.TrimSpace(strings.Replace(text, url, "", 1)); freeText != "" {
			params["text"] = freeText
		}
		return RoutedIntent{
			AgentKey:        rule.agentKey,
			Intent:          strings.ReplaceAll(rule.agentKey, "_", " "),
			Params:          params,
			Confidence:      0.85,
			OriginalMessage: text,
		}
	}

	// System commands in natural language.
	switch {
	case r.statusRe.MatchString(lower):
		return systemIntent("status", text)
	case r.connectorsRe.MatchString(lower):
		return systemIntent("connectors", text)
	case r.helpRe.MatchString(lower):
		return systemIntent("help", text)
	}

	return RoutedIntent{
		Intent:          "unrecognized",
		Confidence:      0.0,
		OriginalMessage: text,
		Params:          map[string]any{},
	}
}

// routeHope classifies HOPE rule phrasing into create/cancel/list and
// extracts the mentioned agent, if any.
func (r *Router) routeHope(text, lower string) RoutedIntent {
	sysCmd := "hope_create"
	switch {
	case strings.Contains(lower, "cancel") || strings.Contains(lower, "remove") || strings.Contains(lower, "delete"):
		sysCmd = "hope_cancel"
	case strings.Contains(lower, "list") || strings.Contains(lower, "show"):
		sysCmd = "hope_list"
	}

	intent := systemIntent(sysCmd, text)
	intent.Confidence = 0.85
	intent.Params["raw_text"] = text
	for _, rule := range r.keywords {
		if rule.pattern.MatchString(lower) {
			intent.AgentKey = rule.agentKey
			break
		}
	}
	return intent
}

func systemIntent(cmd, text string) RoutedIntent {
	return RoutedIntent{
		Intent:          cmd,
		Confidence:      1.0,
		OriginalMessage: text,
		IsSystemCommand: true,
		SystemCommand:   cmd,
		Params:          map[string]any{},
	}
}

// SlashForm serializes an agent intent back to its slash command form.
// Round-trips through parseSlash modulo whitespace and flag order.
func (r *Router) SlashForm(intent RoutedIntent) string {
	if intent.IsSystemCommand {
		return "/miq-" + strings.ReplaceAll(intent.SystemCommand, "_", "-")
	}
	cmd, ok := r.commands[intent.AgentKey]
	if !ok {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(cmd)
	if url, ok := intent.Params["url"].(string); ok && url != "" {
		sb.WriteString(" " + url)
	} else if text, ok := intent.Params["text"].(string); ok && text != "" {
		sb.WriteString(" " + text)
	}

	keys := make([]string, 0, len(intent.Params))
	for k := range intent.Params {
		if k == "url" || k == "text" || k == "query" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		switch v := intent.Params[k].(type) {
		case bool:
			if v {
				sb.WriteString(" --" + k)
			}
		default:
			sb.WriteString(fmt.Sprintf(" --%s=%v", k, v))
		}
	}
	return sb.String()
}

// AgentKeys lists the canonical routable agent keys in a stable order,
// used by the LLM tier's prompt and its reply validation.
func AgentKeys() []string {
	return []string{
		"caption", "clip", "archive", "compliance", "social", "localization",
		"rights", "trending", "deepfake_detection", "live_fact_check",
		"audience_intelligence", "ai_production_director", "brand_safety",
		"carbon_intelligence", "ingest_transcode", "signal_quality",
		"playout_scheduling", "ott_distribution", "newsroom_integration",
	}
}
