package connectors

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeConnector is a demo-style connector with scriptable auth outcome,
// used to exercise registry lifecycle paths.
type fakeConnector struct {
	*Base
	authOK    bool
	authCalls int
	reads     int
	writes    int
}

func newFakeConnector(id string, cat Category, authOK bool) *fakeConnector {
	return &fakeConnector{
		Base:   NewBase(id, id, cat, AuthNone, true, testLogger()),
		authOK: authOK,
	}
}

func (f *fakeConnector) Connect(ctx context.Context) bool {
	return f.connect(ctx, func(context.Context) bool {
		f.authCalls++
		return f.authOK
	})
}

func (f *fakeConnector) HealthCheck(ctx context.Context) HealthResult {
	return f.healthOK("fake healthy", 0.5)
}

func (f *fakeConnector) Read(ctx context.Context, params map[string]any) Result {
	f.reads++
	return f.demoResult(map[string]any{"read": true})
}

func (f *fakeConnector) Write(ctx context.Context, data any, params map[string]any) Result {
	f.writes++
	return f.demoResult(map[string]any{"written": data})
}

func (f *fakeConnector) ToolDefinitions() []ToolDefinition {
	return []ToolDefinition{
		{Name: f.ID() + "_read", Description: "read", InputSchema: objectSchema(nil, nil), ConnectorID: f.ID(), Operation: OpRead},
		{Name: f.ID() + "_write", Description: "write", InputSchema: objectSchema(nil, nil), ConnectorID: f.ID(), Operation: OpWrite},
	}
}

func TestRegisterIndexesTools(t *testing.T) {
	reg := NewRegistry(testLogger())
	reg.Register(newFakeConnector("mam", CategoryMAM, true))

	if _, ok := reg.Tool("mam_read"); !ok {
		t.Error("mam_read tool not indexed")
	}
	if _, ok := reg.Tool("mam_write"); !ok {
		t.Error("mam_write tool not indexed")
	}
	if got := len(reg.AllToolDefinitions()); got != 2 {
		t.Errorf("AllToolDefinitions() = %d tools, want 2", got)
	}
}

func TestReRegistrationReplaces(t *testing.T) {
	reg := NewRegistry(testLogger())
	first := newFakeConnector("slack", CategoryComms, true)
	second := newFakeConnector("slack", CategoryComms, true)
	reg.Register(first)
	reg.Register(second)

	got, ok := reg.Get("slack")
	if !ok {
		t.Fatal("slack not registered")
	}
	if got != Connector(second) {
		t.Error("re-registration did not replace the connector")
	}
	if n := len(reg.ByCategory(CategoryComms)); n != 1 {
		t.Errorf("category index has %d entries after replace, want 1", n)
	}
	if n := len(reg.ListIDs()); n != 1 {
		t.Errorf("ListIDs() = %d entries after replace, want 1", n)
	}
}

func TestConnectAllRecordsPerConnectorOutcome(t *testing.T) {
	reg := NewRegistry(testLogger())
	reg.Register(newFakeConnector("good", CategoryMAM, true))
	reg.Register(newFakeConnector("bad", CategoryCDN, false))

	outcome := reg.ConnectAll(context.Background())

	if !outcome["good"] {
		t.Error("good connector should connect")
	}
	if outcome["bad"] {
		t.Error("bad connector should fail")
	}
	if c, _ := reg.Get("bad"); c.Status() != StatusError {
		t.Errorf("bad connector status = %v, want error", c.Status())
	}
	if c, _ := reg.Get("good"); !c.Connected() {
		t.Error("good connector should be connected")
	}
}

func TestCallToolUnknownTool(t *testing.T) {
	reg := NewRegistry(testLogger())
	res := reg.CallTool(context.Background(), "nope", nil)
	if res.Success {
		t.Fatal("unknown tool should fail")
	}
	if res.Error == "" {
		t.Error("failure envelope should carry an error message")
	}
}

func TestCallToolAutoReconnects(t *testing.T) {
	reg := NewRegistry(testLogger())
	c := newFakeConnector("mam", CategoryMAM, true)
	reg.Register(c)

	// Never connected: the call should auto-connect exactly once, then read.
	res := reg.CallTool(context.Background(), "mam_read", map[string]any{})
	if !res.Success {
		t.Fatalf("CallTool failed: %s", res.Error)
	}
	if c.authCalls != 1 {
		t.Errorf("authCalls = %d, want 1 auto-reconnect", c.authCalls)
	}
	if c.reads != 1 {
		t.Errorf("reads = %d, want 1", c.reads)
	}

	// Already connected: no further reconnects.
	reg.CallTool(context.Background(), "mam_read", map[string]any{})
	if c.authCalls != 1 {
		t.Errorf("authCalls = %d after second call, want still 1", c.authCalls)
	}
}

func TestCallToolReconnectFailureReturnsEnvelope(t *testing.T) {
	reg := NewRegistry(testLogger())
	c := newFakeConnector("cdn", CategoryCDN, false)
	reg.Register(c)

	res := reg.CallTool(context.Background(), "cdn_read", map[string]any{})
	if res.Success {
		t.Fatal("tool call on unconnectable connector should fail")
	}
	if c.reads != 0 {
		t.Error("read should not run when reconnect fails")
	}
}

func TestCallToolWriteSplitsDataFromParams(t *testing.T) {
	reg := NewRegistry(testLogger())
	c := newFakeConnector("slack", CategoryComms, true)
	reg.Register(c)

	res := reg.CallTool(context.Background(), "slack_write", map[string]any{
		"data":    map[string]any{"text": "hello"},
		"channel": "#noc",
	})
	if !res.Success {
		t.Fatalf("CallTool write failed: %s", res.Error)
	}
	written, _ := res.Data["written"].(map[string]any)
	if written["text"] != "hello" {
		t.Errorf("payload not split from params: %v", res.Data)
	}
}

func TestHealthHistoryBounded(t *testing.T) {
	reg := NewRegistry(testLogger())
	c := newFakeConnector("mam", CategoryMAM, true)
	reg.Register(c)
	c.Connect(context.Background())

	for i := 0; i < healthHistoryLimit+10; i++ {
		reg.HealthCheckAll(context.Background())
	}

	if got := len(reg.HealthHistory("mam")); got != healthHistoryLimit {
		t.Errorf("health history = %d entries, want %d", got, healthHistoryLimit)
	}
}

func TestHealthCheckAllSkipsDisconnected(t *testing.T) {
	reg := NewRegistry(testLogger())
	reg.Register(newFakeConnector("offline", CategoryMAM, true))

	results := reg.HealthCheckAll(context.Background())
	if len(results) != 0 {
		t.Errorf("health checked %d disconnected connectors, want 0", len(results))
	}
}

func TestDashboardSummary(t *testing.T) {
	reg := NewRegistry(testLogger())
	for i := 0; i < 3; i++ {
		c := newFakeConnector(fmt.Sprintf("c%d", i), CategoryMAM, true)
		reg.Register(c)
		if i < 2 {
			c.Connect(context.Background())
		}
	}

	dash := reg.Dashboard()
	summary := dash["summary"].(map[string]any)
	if summary["total"] != 3 || summary["connected"] != 2 {
		t.Errorf("summary = %v, want total 3 connected 2", summary)
	}
	if summary["health_pct"] != 66 {
		t.Errorf("health_pct = %v, want 66", summary["health_pct"])
	}
	if dash["total_tools"] != 6 {
		t.Errorf("total_tools = %v, want 6", dash["total_tools"])
	}
}

func TestDeregisterRemovesTools(t *testing.T) {
	reg := NewRegistry(testLogger())
	reg.Register(newFakeConnector("mam", CategoryMAM, true))

	if !reg.Deregister("mam") {
		t.Fatal("Deregister returned false for registered connector")
	}
	if _, ok := reg.Tool("mam_read"); ok {
		t.Error("tools should be removed with their connector")
	}
	if reg.Deregister("mam") {
		t.Error("double deregister should return false")
	}
}
