package connectors

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mediaagentiq/orchestrator/internal/httpkit"
)

const slackAPIBase = "https://slack.com/api"

// SlackConnector is the bidirectional Slack adapter. Inbound traffic
// (events, slash commands, button clicks) arrives through the gateway's
// webhook handler; this connector owns the outbound side — posting agent
// result cards and proactive alerts — plus channel-history reads.
type SlackConnector struct {
	*Base
	botToken       string
	defaultChannel string
	client         *http.Client
}

// NewSlackConnector builds the Slack adapter. demo is forced on when no
// bot token is configured.
func NewSlackConnector(botToken, defaultChannel string, demo bool, timeout time.Duration, logger *slog.Logger) *SlackConnector {
	if botToken == "" {
		demo = true
	}
	if defaultChannel == "" {
		defaultChannel = "#mediaagentiq"
	}
	return &SlackConnector{
		Base:           NewBase("slack", "Slack", CategoryComms, AuthToken, demo, logger),
		botToken:       botToken,
		defaultChannel: defaultChannel,
		client:         httpkit.NewClient(httpkit.WithTimeout(timeout)),
	}
}

func (c *SlackConnector) Connect(ctx context.Context) bool {
	return c.connect(ctx, c.authenticate)
}

func (c *SlackConnector) authenticate(ctx context.Context) bool {
	if c.Demo() {
		c.Logger().Info("slack connector in demo mode, no real API calls")
		return true
	}
	resp, err := c.apiCall(ctx, "auth.test", nil)
	if err != nil {
		c.Logger().Error("slack auth failed", "error", err)
		return false
	}
	c.Logger().Info("slack authenticated", "bot_id", resp["bot_id"])
	return true
}

func (c *SlackConnector) HealthCheck(ctx context.Context) HealthResult {
	if c.Demo() {
		return c.healthOK("demo mode, always healthy", 1.0)
	}
	start := time.Now()
	if _, err := c.apiCall(ctx, "auth.test", nil); err != nil {
		return c.healthError(err.Error())
	}
	return c.healthOK("Slack API reachable", float64(time.Since(start).Milliseconds()))
}

// Read returns recent channel history.
func (c *SlackConnector) Read(ctx context.Context, params map[string]any) Result {
	if c.Demo() {
		return c.demoResult(map[string]any{
			"messages": []any{
				map[string]any{"user": "U123", "text": "Demo message 1", "ts": "1709000001.000001"},
				map[string]any{"user": "U456", "text": "Demo message 2", "ts": "1709000002.000002"},
			},
		})
	}

	channel := stringParam(params, "channel", c.defaultChannel)
	limit := intParam(params, "limit", 10)
	resp, err := c.apiCall(ctx, "conversations.history", map[string]any{
		"channel": channel,
		"limit":   limit,
	})
	if err != nil {
		return c.errorResult(err.Error())
	}
	return c.productionResult(map[string]any{"messages": resp["messages"]})
}

// Write sends a message to a Slack channel. data carries one of
// "blocks" (Block Kit), "text", or "attachments"; params routes it
// ({"channel": ..., "thread_ts": ..., "update_ts": ...}).
func (c *SlackConnector) Write(ctx context.Context, data any, params map[string]any) Result {
	payload, _ := data.(map[string]any)
	channel := stringParam(params, "channel", "")
	if channel == "" {
		channel = stringParam(payload, "channel", c.defaultChannel)
	}

	if c.Demo() {
		c.Logger().Info("demo slack send", "channel", channel, "payload", truncateForLog(payload, 120))
		return c.demoResult(map[string]any{
			"ts":      fmt.Sprintf("demo.%d", time.Now().UnixNano()),
			"channel": channel,
		})
	}

	body := map[string]any{"channel": channel}
	if blocks, ok := payload["blocks"]; ok {
		body["blocks"] = blocks
		body["text"] = stringParam(payload, "text", "MediaAgentIQ result")
	} else if text, ok := payload["text"]; ok {
		body["text"] = text
	}
	if threadTS := stringParam(params, "thread_ts", ""); threadTS != "" {
		body["thread_ts"] = threadTS
	}

	method := "chat.postMessage"
	if updateTS := stringParam(params, "update_ts", ""); updateTS != "" {
		body["ts"] = updateTS
		method = "chat.update"
	}

	resp, err := c.apiCall(ctx, method, body)
	if err != nil {
		return c.errorResult(err.Error())
	}
	return c.productionResult(map[string]any{
		"ts":      resp["ts"],
		"channel": resp["channel"],
	})
}

// SendMessage posts a Block Kit payload to a channel. High-level helper
// for the gateway's outbound path.
func (c *SlackConnector) SendMessage(ctx context.Context, channel string, payload map[string]any) Result {
	return c.Write(ctx, payload, map[string]any{"channel": channel})
}

// SendAlert posts a proactive alert from an autonomous agent to the
// default (or named) channel.
func (c *SlackConnector) SendAlert(ctx context.Context, title, message, severity, channel, agent string) Result {
	emoji := map[string]string{
		"critical": "🚨", "warning": "⚠️", "info": "ℹ️", "ok": "✅",
	}[severity]
	if emoji == "" {
		emoji = "🔔"
	}
	blocks := []any{
		map[string]any{
			"type": "section",
			"text": map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("%s *%s*\n%s", emoji, title, message)},
		},
		map[string]any{
			"type": "context",
			"elements": []any{map[string]any{
				"type": "mrkdwn",
				"text": fmt.Sprintf("MediaAgentIQ %s • %s", agent, time.Now().Format("15:04:05")),
			}},
		},
	}
	if channel == "" {
		channel = c.defaultChannel
	}
	return c.Write(ctx, map[string]any{"blocks": blocks}, map[string]any{"channel": channel})
}

// UpdateMessage replaces an earlier message (typically the "thinking"
// placeholder) with the final result card.
func (c *SlackConnector) UpdateMessage(ctx context.Context, channel, ts string, payload map[string]any) Result {
	return c.Write(ctx, payload, map[string]any{"channel": channel, "update_ts": ts})
}

func (c *SlackConnector) ToolDefinitions() []ToolDefinition {
	return []ToolDefinition{
		{
			Name:        "slack_send_message",
			Description: "Send a message or Block Kit card to a Slack channel",
			InputSchema: objectSchema([]string{"channel"}, map[string]any{
				"channel": map[string]any{"type": "string", "description": "Channel name or ID"},
				"text":    map[string]any{"type": "string", "description": "Plain text fallback"},
				"blocks":  map[string]any{"type": "array", "description": "Slack Block Kit blocks"},
			}),
			ConnectorID: c.ID(),
			Operation:   OpWrite,
		},
		{
			Name:        "slack_send_alert",
			Description: "Send a proactive alert to the NOC or newsroom Slack channel",
			InputSchema: objectSchema([]string{"title", "message"}, map[string]any{
				"title":    map[string]any{"type": "string"},
				"message":  map[string]any{"type": "string"},
				"severity": map[string]any{"type": "string", "enum": []any{"critical", "warning", "info", "ok"}},
				"channel":  map[string]any{"type": "string"},
			}),
			ConnectorID: c.ID(),
			Operation:   OpWrite,
		},
		{
			Name:        "slack_read_channel",
			Description: "Read recent messages from a Slack channel",
			InputSchema: objectSchema([]string{"channel"}, map[string]any{
				"channel": map[string]any{"type": "string"},
				"limit":   map[string]any{"type": "integer", "default": 10},
			}),
			ConnectorID: c.ID(),
			Operation:   OpRead,
		},
	}
}

// apiCall posts JSON to one Slack Web API method and decodes the
// response, converting Slack's {"ok": false, "error": ...} convention
// into a Go error.
func (c *SlackConnector) apiCall(ctx context.Context, method string, body map[string]any) (map[string]any, error) {
	var buf bytes.Buffer
	if body == nil {
		body = map[string]any{}
	}
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, fmt.Errorf("encode %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, slackAPIBase+"/"+method, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.botToken)
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("slack %s: %w", method, err)
	}
	defer resp.Body.Close()

	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode slack %s response: %w", method, err)
	}
	if ok, _ := decoded["ok"].(bool); !ok {
		return nil, fmt.Errorf("slack %s: %v", method, decoded["error"])
	}
	return decoded, nil
}

// stringParam reads a string key with a fallback.
func stringParam(m map[string]any, key, fallback string) string {
	if m == nil {
		return fallback
	}
	if v, ok := m[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

// intParam reads an integer key with a fallback, tolerating the float64
// JSON decoding produces.
func intParam(m map[string]any, key string, fallback int) int {
	if m == nil {
		return fallback
	}
	switch v := m[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return fallback
}

func truncateForLog(v any, limit int) string {
	s := fmt.Sprintf("%v", v)
	if len(s) > limit {
		return s[:limit]
	}
	return s
}
