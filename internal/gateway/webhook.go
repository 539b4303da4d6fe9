package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/net/html"

	"github.com/mediaagentiq/orchestrator/internal/connectors"
	"github.com/mediaagentiq/orchestrator/internal/httpkit"
	"github.com/mediaagentiq/orchestrator/internal/orchestrator"
	"github.com/mediaagentiq/orchestrator/internal/queue"
)

// slackReplayWindow is the maximum accepted age of a signed Slack
// request.
const slackReplayWindow = 5 * time.Minute

// Handler owns the HTTP entry points for the chat channels. Each
// inbound request is acknowledged fast and the real work dispatched to
// a background goroutine that runs route -> orchestrate -> format ->
// send.
type Handler struct {
	logger *slog.Logger

	router   *Router
	conv     *ConversationManager
	core     *orchestrator.Core
	registry *connectors.Registry
	slack    *connectors.SlackConnector
	teams    *connectors.TeamsConnector

	signingSecret string
	client        *http.Client
	resultWait    time.Duration

	receivedEvents atomic.Int64

	// now is swappable in tests for replay-window checks.
	now func() time.Time
}

// HandlerOptions wires the gateway's collaborators.
type HandlerOptions struct {
	Logger        *slog.Logger
	Router        *Router
	Conversations *ConversationManager
	Core          *orchestrator.Core
	Registry      *connectors.Registry
	Slack         *connectors.SlackConnector
	Teams         *connectors.TeamsConnector
	SigningSecret string
	Timeout       time.Duration
}

// NewHandler builds the webhook handler.
func NewHandler(opts HandlerOptions) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Handler{
		logger:        logger.With("component", "webhook"),
		router:        opts.Router,
		conv:          opts.Conversations,
		core:          opts.Core,
		registry:      opts.Registry,
		slack:         opts.Slack,
		teams:         opts.Teams,
		signingSecret: opts.SigningSecret,
		client:        httpkit.NewClient(httpkit.WithTimeout(timeout)),
		resultWait:    2 * timeout,
		now:           time.Now,
	}
}

// Routes registers the gateway endpoints on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /slack/events", h.handleSlackEvents)
	mux.HandleFunc("POST /slack/commands", h.handleSlackCommands)
	mux.HandleFunc("POST /slack/actions", h.handleSlackActions)
	mux.HandleFunc("POST /teams/messages", h.handleTeamsMessages)
	mux.HandleFunc("GET /gateway/health", h.handleHealth)
}

// ReceivedEvents reports how many channel events passed verification.
func (h *Handler) ReceivedEvents() int64 { return h.receivedEvents.Load() }

// ─── Slack signature verification ───

// verifySlackSignature checks HMAC-SHA256 over "v0:<ts>:<body>" with a
// constant-time compare and a replay window on the timestamp.
func (h *Handler) verifySlackSignature(body []byte, timestamp, signature string) bool {
	ts, err := strconv.ParseFloat(strings.TrimSpace(timestamp), 64)
	if err != nil {
		return false
	}
	age := h.now().Unix() - int64(ts)
	if age < 0 {
		age = -age
	}
	if time.Duration(age)*time.Second > slackReplayWindow {
		return false
	}

	mac := hmac.New(sha256.New, []byte(h.signingSecret))
	fmt.Fprintf(mac, "v0:%s:%s", timestamp, body)
	expected := "v0=" + hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// ─── Slack: Events API ───

func (h *Handler) handleSlackEvents(w http.ResponseWriter, r *http.Request) {
	body := readBody(r)
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}

	// URL-verification handshake: echo the challenge immediately.
	if payload["type"] == "url_verification" {
		writeJSON(w, map[string]any{"challenge": payload["challenge"]}, h.logger)
		return
	}

	if h.signingSecret != "" {
		if !h.verifySlackSignature(body,
			r.Header.Get("X-Slack-Request-Timestamp"),
			r.Header.Get("X-Slack-Signature")) {
			http.Error(w, "invalid Slack signature", http.StatusForbidden)
			return
		}
	}

	event, _ := payload["event"].(map[string]any)
	eventType, _ := event["type"].(string)
	if (eventType == "app_mention" || eventType == "message") && event["bot_id"] == nil {
		h.receivedEvents.Add(1)

		text := stripMentions(str(event, "text", ""))
		channel := str(event, "channel", "")
		user := str(event, "user", "unknown")

		go h.dispatch("slack", channel, user, text, func(payload map[string]any) {
			ctx, cancel := context.WithTimeout(context.Background(), h.resultWait)
			defer cancel()
			if res := h.slack.SendMessage(ctx, channel, payload); !res.Success {
				h.logger.Error("slack send failed", "channel", channel, "error", res.Error)
			}
		})
	}

	w.WriteHeader(http.StatusOK)
}

// stripMentions drops <@BOTID> tokens from an app_mention text.
func stripMentions(text string) string {
	words := strings.Fields(text)
	kept := words[:0]
	for _, w := range words {
		if strings.HasPrefix(w, "<@") {
			continue
		}
		kept = append(kept, w)
	}
	return strings.Join(kept, " ")
}

// ─── Slack: Slash commands ───

func (h *Handler) handleSlackCommands(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	command := r.PostFormValue("command")
	text := r.PostFormValue("text")
	channelID := r.PostFormValue("channel_id")
	userID := r.PostFormValue("user_id")
	responseURL := r.PostFormValue("response_url")

	fullText := strings.TrimSpace(command + " " + text)

	go h.dispatch("slack", channelID, userID, fullText, func(payload map[string]any) {
		h.postToResponseURL(responseURL, payload, "in_channel")
	})

	// Immediate Slack-compliant ack, well inside the 3 s deadline.
	writeJSON(w, map[string]any{
		"response_type": "ephemeral",
		"text":          fmt.Sprintf("_Running %s..._  ⏳", command),
	}, h.logger)
}

// postToResponseURL delivers a delayed response through Slack's
// response_url channel.
func (h *Handler) postToResponseURL(responseURL string, payload map[string]any, responseType string) {
	if responseURL == "" {
		return
	}
	body := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		body[k] = v
	}
	if responseType != "" {
		body["response_type"] = responseType
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		h.logger.Error("encode response_url payload", "error", err)
		return
	}
	resp, err := h.client.Post(responseURL, "application/json", &buf)
	if err != nil {
		h.logger.Error("response_url post failed", "error", err)
		return
	}
	httpkit.DrainAndClose(resp.Body, 4096)
}

// ─── Slack: Interactive actions ───

func (h *Handler) handleSlackActions(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(r.PostFormValue("payload")), &payload); err != nil {
		http.Error(w, "bad payload", http.StatusBadRequest)
		return
	}

	user, _ := payload["user"].(map[string]any)
	channel, _ := payload["channel"].(map[string]any)
	responseURL := str(payload, "response_url", "")
	userID := str(user, "id", "unknown")
	channelID := str(channel, "id", "")

	for _, raw := range list(payload, "actions") {
		action, _ := raw.(map[string]any)
		actionID := str(action, "action_id", "")
		h.logger.Info("slack action", "action_id", actionID, "user", userID)

		// Action id grammar: miq_<verb>_<agent_key>.
		parts := strings.SplitN(actionID, "_", 3)
		if len(parts) == 3 && parts[0] == "miq" {
			go h.handleInteractiveAction(parts[1], parts[2], userID, channelID, responseURL)
		}
	}

	w.WriteHeader(http.StatusOK)
}

// actionAcks maps button verbs onto their acknowledgment lines.
var actionAcks = map[string]string{
	"export":   "Exporting %s report...",
	"approve":  "Approving %s decision...",
	"reject":   "Rejecting %s decision...",
	"publish":  "Publishing via %s...",
	"alert":    "Sending alert from %s...",
	"hold":     "Holding content from broadcast...",
	"release":  "Releasing content for broadcast...",
	"sync":     "Syncing...",
	"override": "Override applied.",
	"block":    "Blocking ad insertion...",
	"download": "Preparing download...",
	"push":     "Pushing to automation server...",
	"copy":     "Copied to clipboard.",
}

// followUpVerbs submit a fresh task for the agent on top of the ack.
var followUpVerbs = map[string]string{
	"publish": "publish",
	"sync":    "sync",
	"approve": "approve",
}

// handleInteractiveAction acks the click and, for verbs that mean
// "do the thing", submits a follow-up task.
func (h *Handler) handleInteractiveAction(verb, agentKey, userID, channelID, responseURL string) {
	// A pending approval resolves this session's slot.
	if session := h.conv.Get("slack", channelID, userID); session != nil {
		if verb == "approve" || verb == "reject" {
			session.ClearPendingAction()
		}
	}

	format := actionAcks[verb]
	if format == "" {
		format = "Processing action: " + verb + " on %s..."
	}
	message := format
	if strings.Contains(format, "%s") {
		message = fmt.Sprintf(format, agentKey)
	}

	if mode, ok := followUpVerbs[verb]; ok {
		h.core.SubmitTask(agentKey, map[string]any{"mode": mode, "requested_by": userID},
			queue.Normal, nil, "action:"+verb)
	}

	h.postToResponseURL(responseURL, map[string]any{
		"text":             "✅ " + message,
		"replace_original": false,
	}, "")
}

// ─── Teams: Bot Framework ───

func (h *Handler) handleTeamsMessages(w http.ResponseWriter, r *http.Request) {
	var activity map[string]any
	if err := json.NewDecoder(r.Body).Decode(&activity); err != nil {
		http.Error(w, "bad activity", http.StatusBadRequest)
		return
	}

	if str(activity, "type", "") != "message" {
		writeJSON(w, map[string]any{"type": "ok"}, h.logger)
		return
	}
	h.receivedEvents.Add(1)

	// Teams sometimes delivers HTML-wrapped text; strip the tags
	// before routing.
	text := strings.TrimSpace(stripHTML(str(activity, "text", "")))
	from, _ := activity["from"].(map[string]any)
	conversation, _ := activity["conversation"].(map[string]any)
	userID := str(from, "id", "unknown")
	channelID := str(conversation, "id", "teams-default")
	serviceURL := str(activity, "serviceUrl", "")
	activityID := str(activity, "id", "")

	go h.dispatch("teams", channelID, userID, text, func(payload map[string]any) {
		ctx, cancel := context.WithTimeout(context.Background(), h.resultWait)
		defer cancel()
		if res := h.teams.SendActivity(ctx, serviceURL, channelID, activityID, payload); !res.Success {
			h.logger.Error("teams send failed", "conversation", channelID, "error", res.Error)
		}
	})

	writeJSON(w, map[string]any{"type": "ok"}, h.logger)
}

// stripHTML flattens an HTML fragment to its text content.
func stripHTML(fragment string) string {
	if !strings.Contains(fragment, "<") {
		return fragment
	}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), nil)
	if err != nil {
		return fragment
	}
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return sb.String()
}

// ─── Health ───

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"status":          "ok",
		"active_sessions": h.conv.ActiveCount(),
		"endpoints": map[string]any{
			"slack_events":   "/slack/events",
			"slack_commands": "/slack/commands",
			"slack_actions":  "/slack/actions",
			"teams_messages": "/teams/messages",
		},
	}, h.logger)
}

// ─── Core dispatch pipeline ───

// dispatch is the shared path behind every inbound message: session ->
// route -> orchestrate -> format -> respond. Runs on a background
// goroutine, one per inbound request.
func (h *Handler) dispatch(platform, channelID, userID, text string, respond func(map[string]any)) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("dispatch panicked", "platform", platform, "panic", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), h.resultWait)
	defer cancel()

	session := h.conv.GetOrCreate(platform, channelID, userID)
	history := session.HistoryForLLM()

	intent := h.router.Route(ctx, text, history)
	session.AddUserTurn(text, intent.AgentKey, intent.Params)

	if intent.IsSystemCommand {
		respond(h.systemCommand(platform, intent, session))
		return
	}

	if intent.AgentKey == "" || intent.Confidence < 0.3 {
		if platform == "teams" {
			respond(teamsCard([]any{tcText("🤔 I didn't quite understand: "+text, "", ""),
				tcText("Try /miq-help to see available commands.", "", "")}, nil))
		} else {
			respond(FormatSlackUnrecognized(text))
		}
		return
	}

	if platform == "teams" {
		respond(FormatTeamsThinking(intent.AgentKey))
	} else {
		respond(FormatSlackThinking(intent.AgentKey))
	}

	params := session.ResolveParams(intent.Params)
	var input any = params
	if len(params) == 0 {
		input = text
	}

	done := make(chan *queue.Task, 1)
	h.core.SubmitTask(intent.AgentKey, input, queue.Normal, func(t *queue.Task) {
		done <- t
	}, "user:"+platform)

	var task *queue.Task
	select {
	case task = <-done:
	case <-ctx.Done():
		h.logger.Warn("agent result timed out", "agent", intent.AgentKey, "platform", platform)
		respond(FormatSlackError("The "+intent.AgentKey+" agent is taking too long. Check /miq-status.", intent.AgentKey))
		return
	}

	session.AddAgentTurn(intent.AgentKey, task.Result, "")

	if platform == "teams" {
		respond(FormatTeams(intent.AgentKey, task.Result))
	} else {
		respond(FormatSlack(intent.AgentKey, task.Result))
	}
}

// systemCommand handles the built-ins: help / status / connectors plus
// the HOPE rule intents.
func (h *Handler) systemCommand(platform string, intent RoutedIntent, session *Session) map[string]any {
	switch intent.SystemCommand {
	case "help":
		if platform == "teams" {
			return FormatTeamsSystem("help", nil)
		}
		return FormatSlackHelp()

	case "status":
		agents := map[string]any{}
		for key, wrapper := range h.core.Agents() {
			mode := "demo"
			if wrapper.ProductionReady() {
				mode = "production"
			}
			agents[key] = map[string]any{"ready": true, "mode": mode}
		}
		data := map[string]any{"agents": agents, "orchestrator": h.core.Status()}
		if platform == "teams" {
			return FormatTeamsSystem("status", data)
		}
		return FormatSlackSystem("status", data)

	case "connectors":
		dashboard := h.registry.Dashboard()
		if platform == "teams" {
			return FormatTeamsSystem("connectors", dashboard)
		}
		return FormatSlackSystem("connectors", dashboard)

	case "hope_create":
		return h.handleHopeCreate(intent)
	case "hope_cancel":
		return h.handleHopeCancel(intent)
	case "hope_list":
		return h.handleHopeList(intent)
	}
	return FormatSlackUnrecognized(intent.SystemCommand)
}

// ─── Small HTTP helpers ───

func readBody(r *http.Request) []byte {
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r.Body)
	return buf.Bytes()
}

func writeJSON(w http.ResponseWriter, v any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("failed to write JSON response", "error", err)
	}
}
