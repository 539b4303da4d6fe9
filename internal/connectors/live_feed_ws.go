package connectors

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// LiveFeedConnector subscribes to the facility's live event feed over
// WebSocket — ingest notifications, CDN edge state, newsroom rundown
// pushes. It is the subscribe-capable connector in the registry: agents
// poll Read for the buffered tail, and Subscribe registers callbacks for
// push delivery.
type LiveFeedConnector struct {
	*Base
	url string

	mu       sync.Mutex
	conn     *websocket.Conn
	buffer   []map[string]any // bounded tail of received feed events
	subs     map[string]feedSub
	subSeq   int
	readDone chan struct{}
}

type feedSub struct {
	event string
	cb    func(map[string]any)
}

// feedBufferLimit bounds the in-memory feed tail.
const feedBufferLimit = 200

// NewLiveFeedConnector builds the live feed adapter. demo is forced on
// when no feed URL is configured.
func NewLiveFeedConnector(url string, demo bool, logger *slog.Logger) *LiveFeedConnector {
	if url == "" {
		demo = true
	}
	return &LiveFeedConnector{
		Base: NewBase("live_feed", "Live Event Feed (WS)", CategoryCDN, AuthToken, demo, logger),
		url:  url,
		subs: make(map[string]feedSub),
	}
}

func (c *LiveFeedConnector) Connect(ctx context.Context) bool {
	return c.connect(ctx, c.authenticate)
}

func (c *LiveFeedConnector) authenticate(ctx context.Context) bool {
	if c.Demo() {
		c.Logger().Info("live feed in demo mode, no WS connection")
		return true
	}

	dialer := websocket.Dialer{
		ReadBufferSize:  64 * 1024,
		WriteBufferSize: 16 * 1024,
	}
	conn, _, err := dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		c.Logger().Error("dial live feed", "url", c.url, "error", err)
		return false
	}

	c.mu.Lock()
	c.conn = conn
	c.readDone = make(chan struct{})
	c.mu.Unlock()

	go c.readLoop(conn)
	return true
}

// readLoop drains the feed until the connection drops. Reconnection is
// the registry's auto-reconnect path, triggered by the next tool call.
func (c *LiveFeedConnector) readLoop(conn *websocket.Conn) {
	defer close(c.readDone)
	for {
		var msg map[string]any
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.Logger().Info("live feed closed normally")
			} else {
				c.Logger().Error("live feed read error, connection lost", "error", err)
				c.setStatus(StatusError)
			}
			return
		}
		c.dispatch(msg)
	}
}

func (c *LiveFeedConnector) dispatch(msg map[string]any) {
	kind := stringParam(msg, "event", "")

	c.mu.Lock()
	c.buffer = append(c.buffer, msg)
	if len(c.buffer) > feedBufferLimit {
		c.buffer = c.buffer[len(c.buffer)-feedBufferLimit:]
	}
	var callbacks []func(map[string]any)
	for _, sub := range c.subs {
		if sub.event == "" || sub.event == kind {
			callbacks = append(callbacks, sub.cb)
		}
	}
	c.mu.Unlock()

	for _, cb := range callbacks {
		cb(msg)
	}
}

func (c *LiveFeedConnector) Disconnect(ctx context.Context) {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()
	if conn != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		_ = conn.Close()
	}
	c.Base.Disconnect(ctx)
}

func (c *LiveFeedConnector) HealthCheck(ctx context.Context) HealthResult {
	if c.Demo() {
		return c.healthOK("demo mode, always healthy", 1.0)
	}
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return c.healthError("no feed connection")
	}
	start := time.Now()
	deadline := time.Now().Add(3 * time.Second)
	if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
		return c.healthError(fmt.Sprintf("feed ping: %v", err))
	}
	return c.healthOK("feed socket live", float64(time.Since(start).Milliseconds()))
}

// Read returns the buffered feed tail, optionally filtered by event
// kind ({"event": "ingest.complete", "limit": 20}).
func (c *LiveFeedConnector) Read(ctx context.Context, params map[string]any) Result {
	if c.Demo() {
		return c.demoResult(map[string]any{
			"events": []any{
				map[string]any{"event": "ingest.complete", "asset": "/news/2026/0801_evening_block.mxf", "ts": time.Now().Add(-4 * time.Minute).Format(time.RFC3339)},
				map[string]any{"event": "cdn.edge_degraded", "edge": "iad-03", "error_rate_pct": 3.4, "ts": time.Now().Add(-1 * time.Minute).Format(time.RFC3339)},
			},
		})
	}

	kind := stringParam(params, "event", "")
	limit := intParam(params, "limit", 50)

	c.mu.Lock()
	events := make([]any, 0, len(c.buffer))
	for _, msg := range c.buffer {
		if kind != "" && stringParam(msg, "event", "") != kind {
			continue
		}
		events = append(events, msg)
	}
	c.mu.Unlock()

	if len(events) > limit {
		events = events[len(events)-limit:]
	}
	return c.productionResult(map[string]any{"events": events})
}

// Write pushes a control frame upstream (e.g., a feed filter change).
func (c *LiveFeedConnector) Write(ctx context.Context, data any, params map[string]any) Result {
	if c.Demo() {
		return c.demoResult(map[string]any{"sent": true})
	}
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return c.errorResult("no feed connection")
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return c.errorResult(fmt.Sprintf("encode control frame: %v", err))
	}
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return c.errorResult(fmt.Sprintf("send control frame: %v", err))
	}
	return c.productionResult(map[string]any{"sent": true})
}

// Subscribe registers a callback for feed events of one kind (empty
// kind receives everything). Returns a subscription id for Unsubscribe.
func (c *LiveFeedConnector) Subscribe(ctx context.Context, event string, cb func(map[string]any)) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subSeq++
	id := fmt.Sprintf("feed-sub-%d", c.subSeq)
	c.subs[id] = feedSub{event: event, cb: cb}
	return id, nil
}

// Unsubscribe removes a feed callback.
func (c *LiveFeedConnector) Unsubscribe(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subs, id)
}

func (c *LiveFeedConnector) ToolDefinitions() []ToolDefinition {
	return []ToolDefinition{
		{
			Name:        "feed_read_events",
			Description: "Read the buffered tail of the live facility event feed",
			InputSchema: objectSchema(nil, map[string]any{
				"event": map[string]any{"type": "string", "description": "Filter by event kind"},
				"limit": map[string]any{"type": "integer", "default": 50},
			}),
			ConnectorID: c.ID(),
			Operation:   OpRead,
		},
		{
			Name:        "feed_subscribe",
			Description: "Subscribe to live feed events (registered in-process, not via call_tool)",
			InputSchema: objectSchema(nil, map[string]any{
				"event": map[string]any{"type": "string"},
			}),
			ConnectorID: c.ID(),
			Operation:   OpSubscribe,
		},
	}
}
