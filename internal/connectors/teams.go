package connectors

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/mediaagentiq/orchestrator/internal/httpkit"
)

// TeamsConnector is the Microsoft Teams adapter: Bot Framework client
// credentials auth plus outbound Activity sends to the per-conversation
// service URL Teams supplies on each inbound message.
type TeamsConnector struct {
	*Base
	appID       string
	appPassword string
	tenantID    string
	client      *http.Client

	tokenMu     sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewTeamsConnector builds the Teams adapter. demo is forced on when
// the Bot Framework app registration is not configured.
func NewTeamsConnector(appID, appPassword, tenantID string, demo bool, timeout time.Duration, logger *slog.Logger) *TeamsConnector {
	if appID == "" || appPassword == "" {
		demo = true
	}
	if tenantID == "" {
		tenantID = "common"
	}
	return &TeamsConnector{
		Base:        NewBase("teams", "Microsoft Teams", CategoryComms, AuthOAuth2, demo, logger),
		appID:       appID,
		appPassword: appPassword,
		tenantID:    tenantID,
		client:      httpkit.NewClient(httpkit.WithTimeout(timeout)),
	}
}

func (c *TeamsConnector) Connect(ctx context.Context) bool {
	return c.connect(ctx, c.authenticate)
}

func (c *TeamsConnector) authenticate(ctx context.Context) bool {
	if c.Demo() {
		c.Logger().Info("teams connector in demo mode, no real API calls")
		return true
	}
	if _, err := c.token(ctx); err != nil {
		c.Logger().Error("teams auth failed", "error", err)
		return false
	}
	return true
}

func (c *TeamsConnector) HealthCheck(ctx context.Context) HealthResult {
	if c.Demo() {
		return c.healthOK("demo mode, always healthy", 1.0)
	}
	start := time.Now()
	if _, err := c.token(ctx); err != nil {
		return c.healthError(err.Error())
	}
	return c.healthOK("Bot Framework token endpoint reachable", float64(time.Since(start).Milliseconds()))
}

// Read is not meaningful for the Bot Framework push model; it reports
// the adapter's own state so the tool surface stays uniform.
func (c *TeamsConnector) Read(ctx context.Context, params map[string]any) Result {
	if c.Demo() {
		return c.demoResult(map[string]any{
			"conversations": []any{
				map[string]any{"id": "19:demo-thread@thread.v2", "last_activity": "Demo standup notes"},
			},
		})
	}
	return c.errorResult("teams connector does not support reads; conversations are push-delivered")
}

// Write sends an Activity to a conversation. params requires
// "service_url" and "conversation_id"; "activity_id" makes the send a
// threaded reply.
func (c *TeamsConnector) Write(ctx context.Context, data any, params map[string]any) Result {
	payload, _ := data.(map[string]any)
	serviceURL := stringParam(params, "service_url", "")
	conversationID := stringParam(params, "conversation_id", "")

	if c.Demo() {
		c.Logger().Info("demo teams send", "conversation", conversationID, "payload", truncateForLog(payload, 120))
		return c.demoResult(map[string]any{
			"id":           fmt.Sprintf("demo-activity-%d", time.Now().UnixNano()),
			"conversation": conversationID,
		})
	}

	if serviceURL == "" || conversationID == "" {
		return c.errorResult("teams write requires service_url and conversation_id params")
	}

	token, err := c.token(ctx)
	if err != nil {
		return c.errorResult(err.Error())
	}

	endpoint := fmt.Sprintf("%s/v3/conversations/%s/activities",
		strings.TrimSuffix(serviceURL, "/"), url.PathEscape(conversationID))
	if activityID := stringParam(params, "activity_id", ""); activityID != "" {
		endpoint += "/" + url.PathEscape(activityID)
	}

	activity := map[string]any{"type": "message"}
	for k, v := range payload {
		activity[k] = v
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(activity); err != nil {
		return c.errorResult(fmt.Sprintf("encode activity: %v", err))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return c.errorResult(err.Error())
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return c.errorResult(fmt.Sprintf("teams send: %v", err))
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return c.errorResult(fmt.Sprintf("teams send: %s: %s",
			resp.Status, httpkit.ReadErrorBody(resp.Body, 512)))
	}

	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		decoded = map[string]any{}
	}
	return c.productionResult(map[string]any{
		"id":           decoded["id"],
		"conversation": conversationID,
	})
}

// SendActivity posts a formatted payload back into the conversation an
// inbound message came from. High-level helper for the gateway.
func (c *TeamsConnector) SendActivity(ctx context.Context, serviceURL, conversationID, activityID string, payload map[string]any) Result {
	return c.Write(ctx, payload, map[string]any{
		"service_url":     serviceURL,
		"conversation_id": conversationID,
		"activity_id":     activityID,
	})
}

func (c *TeamsConnector) ToolDefinitions() []ToolDefinition {
	return []ToolDefinition{
		{
			Name:        "teams_send_activity",
			Description: "Send an Adaptive Card or text Activity to a Teams conversation",
			InputSchema: objectSchema([]string{"service_url", "conversation_id"}, map[string]any{
				"service_url":     map[string]any{"type": "string"},
				"conversation_id": map[string]any{"type": "string"},
				"activity_id":     map[string]any{"type": "string", "description": "Reply target; omit for a new thread"},
				"data":            map[string]any{"type": "object", "description": "Activity body (text or attachments)"},
			}),
			ConnectorID: c.ID(),
			Operation:   OpWrite,
		},
	}
}

// token returns a cached Bot Framework access token, refreshing via the
// client-credentials grant when within a minute of expiry.
func (c *TeamsConnector) token(ctx context.Context) (string, error) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	if c.accessToken != "" && time.Until(c.tokenExpiry) > time.Minute {
		return c.accessToken, nil
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.appID},
		"client_secret": {c.appPassword},
		"scope":         {"https://api.botframework.com/.default"},
	}
	endpoint := fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", url.PathEscape(c.tenantID))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("bot framework token: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("bot framework token: %s: %s",
			resp.Status, httpkit.ReadErrorBody(resp.Body, 512))
	}

	var decoded struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	c.accessToken = decoded.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(decoded.ExpiresIn) * time.Second)
	return c.accessToken, nil
}
