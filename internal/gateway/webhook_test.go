package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mediaagentiq/orchestrator/internal/agentkit"
	"github.com/mediaagentiq/orchestrator/internal/connectors"
	"github.com/mediaagentiq/orchestrator/internal/orchestrator"
)

// echoAgent records inputs and returns fixed data.
type echoAgent struct {
	displayName string

	mu     sync.Mutex
	inputs []any
}

func (e *echoAgent) Name() string                          { return e.displayName }
func (e *echoAgent) Description() string                   { return "test" }
func (e *echoAgent) RequiredIntegrations() map[string]bool { return nil }
func (e *echoAgent) Validate(input any) bool               { return true }
func (e *echoAgent) ProductionProcess(input any) (map[string]any, error) {
	return nil, agentkit.ErrProductionNotReady
}

func (e *echoAgent) DemoProcess(input any) (map[string]any, error) {
	e.mu.Lock()
	e.inputs = append(e.inputs, input)
	e.mu.Unlock()
	return map[string]any{"echoed": true}, nil
}

func (e *echoAgent) lastInput() map[string]any {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.inputs) == 0 {
		return nil
	}
	m, _ := e.inputs[len(e.inputs)-1].(map[string]any)
	return m
}

type testGateway struct {
	handler *Handler
	core    *orchestrator.Core
	agents  map[string]*echoAgent
	cancel  context.CancelFunc
}

func newTestGateway(t *testing.T, signingSecret string, agentKeys ...string) *testGateway {
	t.Helper()
	agents := make(map[string]*echoAgent)
	wrapped := make(map[string]*agentkit.BaseAgent)
	for _, key := range agentKeys {
		stub := &echoAgent{displayName: titleCase(key) + " Agent"}
		agents[key] = stub
		wrapped[key] = agentkit.NewBaseAgent(key, stub, nil, false, testLogger())
	}

	core := orchestrator.New(orchestrator.Options{
		Logger:        testLogger(),
		Agents:        wrapped,
		Subscriptions: orchestrator.DefaultSubscriptions(),
	})
	ctx, cancel := context.WithCancel(context.Background())
	core.Start(ctx)
	t.Cleanup(func() {
		core.Stop()
		cancel()
	})

	registry := connectors.NewRegistry(testLogger())
	slack := connectors.NewSlackConnector("", "", true, time.Second, testLogger())
	teams := connectors.NewTeamsConnector("", "", "", true, time.Second, testLogger())
	registry.Register(slack)
	registry.Register(teams)

	handler := NewHandler(HandlerOptions{
		Logger:        testLogger(),
		Router:        NewRouter(testLogger(), nil),
		Conversations: NewConversationManager(testLogger()),
		Core:          core,
		Registry:      registry,
		Slack:         slack,
		Teams:         teams,
		SigningSecret: signingSecret,
		Timeout:       2 * time.Second,
	})
	return &testGateway{handler: handler, core: core, agents: agents, cancel: cancel}
}

func newMux(h *Handler) *http.ServeMux {
	mux := http.NewServeMux()
	h.Routes(mux)
	return mux
}

// Scenario: slash command roundtrip — immediate ephemeral ack, delayed
// help card to the response_url.
func TestSlashCommandRoundtrip(t *testing.T) {
	gw := newTestGateway(t, "")
	mux := newMux(gw.handler)

	delivered := make(chan []byte, 1)
	responseServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		delivered <- readBody(r)
	}))
	defer responseServer.Close()

	form := url.Values{
		"command":      {"/miq-help"},
		"user_id":      {"U1"},
		"channel_id":   {"C1"},
		"response_url": {responseServer.URL},
	}
	req := httptest.NewRequest(http.MethodPost, "/slack/commands", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var ack map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &ack); err != nil {
		t.Fatalf("ack not JSON: %v", err)
	}
	if ack["response_type"] != "ephemeral" {
		t.Errorf("ack = %v", ack)
	}
	if !strings.Contains(ack["text"].(string), "Running /miq-help") {
		t.Errorf("ack text = %v", ack["text"])
	}

	select {
	case body := <-delivered:
		text := string(body)
		if !strings.Contains(text, "Slash Commands") || !strings.Contains(text, "/miq-caption") {
			t.Errorf("delayed response missing help content: %s", text)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no delayed response within 5s")
	}
}

// Scenario: keyword routing + context carry-over across two turns.
func TestKeywordRoutingContextCarryOver(t *testing.T) {
	gw := newTestGateway(t, "", "compliance", "localization")

	responses := make(chan map[string]any, 8)
	respond := func(p map[string]any) { responses <- p }

	gw.handler.dispatch("slack", "C1", "U1",
		"check compliance on https://cdn.example/clip.mp4", respond)

	in := gw.agents["compliance"].lastInput()
	if in == nil || in["url"] != "https://cdn.example/clip.mp4" {
		t.Fatalf("compliance input = %v", in)
	}

	gw.handler.dispatch("slack", "C1", "U1", "now translate it to Spanish", respond)

	in = gw.agents["localization"].lastInput()
	if in == nil {
		t.Fatal("localization agent not invoked")
	}
	if in["url"] != "https://cdn.example/clip.mp4" {
		t.Errorf("carried url = %v", in["url"])
	}
	text, _ := in["text"].(string)
	if !strings.Contains(text, "Spanish") {
		t.Errorf("text = %q, want it to mention Spanish", text)
	}
}

// Scenario: stale signature — 403, no dispatch, counter unchanged.
func TestSignatureRejection(t *testing.T) {
	secret := "shhh"
	gw := newTestGateway(t, secret, "compliance")
	mux := newMux(gw.handler)

	body := []byte(`{"type":"event_callback","event":{"type":"message","text":"check compliance","channel":"C1","user":"U1"}}`)
	staleTS := fmt.Sprintf("%d", time.Now().Add(-10*time.Minute).Unix())

	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "v0:%s:%s", staleTS, body)
	signature := "v0=" + hex.EncodeToString(mac.Sum(nil))

	req := httptest.NewRequest(http.MethodPost, "/slack/events", strings.NewReader(string(body)))
	req.Header.Set("X-Slack-Request-Timestamp", staleTS)
	req.Header.Set("X-Slack-Signature", signature)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if gw.handler.ReceivedEvents() != 0 {
		t.Error("received_events counter should be unchanged")
	}
	if gw.agents["compliance"].lastInput() != nil {
		t.Error("no task should have been dispatched")
	}
}

func TestValidSignatureAccepted(t *testing.T) {
	secret := "shhh"
	gw := newTestGateway(t, secret, "compliance")
	mux := newMux(gw.handler)

	body := []byte(`{"type":"event_callback","event":{"type":"app_mention","text":"<@BOT> check compliance on https://cdn.example/c.mp4","channel":"C1","user":"U1"}}`)
	ts := fmt.Sprintf("%d", time.Now().Unix())
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "v0:%s:%s", ts, body)
	signature := "v0=" + hex.EncodeToString(mac.Sum(nil))

	req := httptest.NewRequest(http.MethodPost, "/slack/events", strings.NewReader(string(body)))
	req.Header.Set("X-Slack-Request-Timestamp", ts)
	req.Header.Set("X-Slack-Signature", signature)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if gw.handler.ReceivedEvents() != 1 {
		t.Errorf("received_events = %d, want 1", gw.handler.ReceivedEvents())
	}

	// Background dispatch reaches the agent with the mention stripped.
	deadline := time.After(3 * time.Second)
	for gw.agents["compliance"].lastInput() == nil {
		select {
		case <-deadline:
			t.Fatal("compliance agent never invoked")
		case <-time.After(20 * time.Millisecond):
		}
	}
	in := gw.agents["compliance"].lastInput()
	if in["url"] != "https://cdn.example/c.mp4" {
		t.Errorf("input = %v", in)
	}
}

func TestURLVerificationChallenge(t *testing.T) {
	gw := newTestGateway(t, "secret-set-but-handshake-skips-it")
	mux := newMux(gw.handler)

	req := httptest.NewRequest(http.MethodPost, "/slack/events",
		strings.NewReader(`{"type":"url_verification","challenge":"abc123"}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	var resp map[string]any
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["challenge"] != "abc123" {
		t.Errorf("challenge echo = %v", resp)
	}
}

func TestActionIDParsing(t *testing.T) {
	gw := newTestGateway(t, "", "brand_safety")
	mux := newMux(gw.handler)

	acked := make(chan []byte, 1)
	responseServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		acked <- readBody(r)
	}))
	defer responseServer.Close()

	payload := map[string]any{
		"user":         map[string]any{"id": "U1"},
		"channel":      map[string]any{"id": "C1"},
		"response_url": responseServer.URL,
		"actions": []any{
			map[string]any{"action_id": "miq_export_brand_safety"},
		},
	}
	raw, _ := json.Marshal(payload)
	form := url.Values{"payload": {string(raw)}}
	req := httptest.NewRequest(http.MethodPost, "/slack/actions", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	select {
	case body := <-acked:
		if !strings.Contains(string(body), "Exporting brand_safety report") {
			t.Errorf("ack = %s", body)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no action ack")
	}
}

func TestTeamsMessageDispatch(t *testing.T) {
	gw := newTestGateway(t, "", "trending")
	mux := newMux(gw.handler)

	activity := map[string]any{
		"type":         "message",
		"text":         "<p>what's <b>trending</b> right now?</p>",
		"from":         map[string]any{"id": "U7"},
		"conversation": map[string]any{"id": "19:thread"},
		"serviceUrl":   "https://smba.example",
		"id":           "act-1",
	}
	raw, _ := json.Marshal(activity)
	req := httptest.NewRequest(http.MethodPost, "/teams/messages", strings.NewReader(string(raw)))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	deadline := time.After(3 * time.Second)
	for gw.agents["trending"].lastInput() == nil {
		select {
		case <-deadline:
			t.Fatal("trending agent never invoked")
		case <-time.After(20 * time.Millisecond):
		}
	}
	in := gw.agents["trending"].lastInput()
	text, _ := in["text"].(string)
	if strings.Contains(text, "<") {
		t.Errorf("HTML not stripped: %q", text)
	}
}

func TestGatewayHealth(t *testing.T) {
	gw := newTestGateway(t, "")
	gw.handler.conv.GetOrCreate("slack", "C1", "U1")
	mux := newMux(gw.handler)

	req := httptest.NewRequest(http.MethodGet, "/gateway/health", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	var resp map[string]any
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["status"] != "ok" {
		t.Errorf("health = %v", resp)
	}
	if resp["active_sessions"] != float64(1) {
		t.Errorf("active_sessions = %v, want 1", resp["active_sessions"])
	}
}

func TestUnrecognizedGetsHelpHint(t *testing.T) {
	gw := newTestGateway(t, "")
	responses := make(chan map[string]any, 2)
	gw.handler.dispatch("slack", "C1", "U1", "zzz qqq", func(p map[string]any) { responses <- p })

	select {
	case p := <-responses:
		text := blockTexts(blocksOf(t, p))
		if !strings.Contains(text, "/miq-help") {
			t.Errorf("unrecognized response = %s", text)
		}
	default:
		t.Fatal("no response")
	}
}
