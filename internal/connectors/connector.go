// Package connectors implements the integration layer: adapters that
// expose external systems (chat channels, MAM storage, newsroom wires,
// broadcast telemetry) as MCP-style tools agents can discover and call
// through a single Registry namespace.
//
// Every connector operates in two modes, mirroring the agent dual-mode
// contract: demo (realistic mock responses, no credentials needed) and
// production (real API/SDK calls).
package connectors

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Status is a connector's connection state.
type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusError        Status = "error"
	StatusDegraded     Status = "degraded"
)

// Category classifies a connector by the broadcast-stack concern it
// integrates.
type Category string

const (
	CategoryStorage      Category = "storage"
	CategoryMAM          Category = "mam"
	CategoryNewsroom     Category = "newsroom"
	CategoryPlayout      Category = "playout"
	CategorySocial       Category = "social"
	CategoryAdTech       Category = "adtech"
	CategoryComms        Category = "comms"
	CategoryCDN          Category = "cdn"
	CategoryTranscoding  Category = "transcoding"
	CategoryAnalytics    Category = "analytics"
	CategoryMonitoring   Category = "monitoring"
	CategoryWireServices Category = "wire_services"
	CategoryNLE          Category = "nle"
	CategoryGraphics     Category = "graphics"
)

// Categories lists every category in a stable order, for dashboards and
// the registry's per-category index.
func Categories() []Category {
	return []Category{
		CategoryStorage, CategoryMAM, CategoryNewsroom, CategoryPlayout,
		CategorySocial, CategoryAdTech, CategoryComms, CategoryCDN,
		CategoryTranscoding, CategoryAnalytics, CategoryMonitoring,
		CategoryWireServices, CategoryNLE, CategoryGraphics,
	}
}

// AuthType describes how a connector authenticates.
type AuthType string

const (
	AuthAPIKey      AuthType = "api_key"
	AuthOAuth2      AuthType = "oauth2"
	AuthBasic       AuthType = "basic"
	AuthCertificate AuthType = "certificate"
	AuthToken       AuthType = "token"
	AuthNone        AuthType = "none"
)

// Operation is a tool's side-effect class.
type Operation string

const (
	OpRead      Operation = "read"
	OpWrite     Operation = "write"
	OpSubscribe Operation = "subscribe"
)

// ToolDefinition is an MCP-style tool schema. Names are globally unique
// across the registry; the schema follows the tool-use format so
// definitions can be passed straight into an LLM call.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
	ConnectorID string         `json:"connector_id"`
	Operation   Operation      `json:"operation"`
}

// HealthResult is one health-check outcome.
type HealthResult struct {
	ConnectorID string    `json:"connector_id"`
	Status      Status    `json:"status"`
	LatencyMS   float64   `json:"latency_ms"`
	Message     string    `json:"message"`
	CheckedAt   time.Time `json:"checked_at"`
}

// Result is the normalized envelope every read/write/tool call returns.
// Transport and protocol errors never surface as Go errors to callers;
// they become {Success: false, Error: ...}.
type Result struct {
	Success   bool           `json:"success"`
	Connector string         `json:"connector"`
	Mode      string         `json:"mode"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// Connector is the contract every adapter implements. Concrete
// connectors embed *Base for the shared lifecycle bookkeeping and
// implement the four operation methods themselves.
type Connector interface {
	ID() string
	Name() string
	Category() Category
	AuthType() AuthType
	Enabled() bool
	Demo() bool
	Status() Status
	Connected() bool
	Info() map[string]any

	// Connect authenticates and marks the connector connected. In demo
	// mode it always succeeds without network I/O.
	Connect(ctx context.Context) bool
	Disconnect(ctx context.Context)

	HealthCheck(ctx context.Context) HealthResult
	Read(ctx context.Context, params map[string]any) Result
	Write(ctx context.Context, data any, params map[string]any) Result

	ToolDefinitions() []ToolDefinition
}

// EventSource is the optional subscribe capability for webhook/WS-style
// connectors: register a callback for a named event stream.
type EventSource interface {
	Subscribe(ctx context.Context, event string, cb func(map[string]any)) (string, error)
	Unsubscribe(id string)
}

// Base carries the lifecycle state shared by all connectors: identity,
// status, counters, and the envelope helpers. It is embedded, not
// inherited — concrete connectors own all operation logic.
type Base struct {
	id       string
	name     string
	category Category
	authType AuthType
	demo     bool
	enabled  bool
	logger   *slog.Logger

	mu           sync.Mutex
	status       Status
	connectedAt  time.Time
	lastHealth   *HealthResult
	requestCount int
	errorCount   int
}

// NewBase builds the shared state for one connector. Connectors start
// enabled and disconnected; demo mode is decided by the caller from the
// registry-wide flag and per-connector credentials.
func NewBase(id, name string, category Category, auth AuthType, demo bool, logger *slog.Logger) *Base {
	if logger == nil {
		logger = slog.Default()
	}
	return &Base{
		id:       id,
		name:     name,
		category: category,
		authType: auth,
		demo:     demo,
		enabled:  true,
		logger:   logger.With("connector", id),
		status:   StatusDisconnected,
	}
}

func (b *Base) ID() string         { return b.id }
func (b *Base) Name() string       { return b.name }
func (b *Base) Category() Category { return b.category }
func (b *Base) AuthType() AuthType { return b.authType }
func (b *Base) Demo() bool         { return b.demo }
func (b *Base) Enabled() bool      { return b.enabled }

// SetEnabled toggles whether ConnectAll includes this connector.
func (b *Base) SetEnabled(v bool) { b.enabled = v }

func (b *Base) Status() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.status
}

func (b *Base) setStatus(s Status) {
	b.mu.Lock()
	b.status = s
	b.mu.Unlock()
}

// Connected reports whether the connector is live.
func (b *Base) Connected() bool { return b.Status() == StatusConnected }

// Logger returns the connector-scoped logger.
func (b *Base) Logger() *slog.Logger { return b.logger }

// connect runs the lifecycle around a connector-specific authenticate
// function: status transitions, timestamps, error counting.
func (b *Base) connect(ctx context.Context, authenticate func(context.Context) bool) bool {
	b.setStatus(StatusConnecting)
	b.logger.Info("connecting", "demo", b.demo)

	ok := authenticate(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()
	if ok {
		b.status = StatusConnected
		b.connectedAt = time.Now()
		b.logger.Info("connected")
	} else {
		b.status = StatusError
		b.errorCount++
		b.logger.Error("authentication failed")
	}
	return ok
}

// Disconnect marks the connector disconnected. Connectors holding real
// network resources override this and call it after closing them.
func (b *Base) Disconnect(ctx context.Context) {
	b.setStatus(StatusDisconnected)
	b.logger.Info("disconnected")
}

// recordHealth caches the latest health result and degrades status on
// failure.
func (b *Base) recordHealth(h HealthResult) HealthResult {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastHealth = &h
	if h.Status == StatusError && b.status == StatusConnected {
		b.status = StatusDegraded
	}
	return h
}

// healthOK is the demo-mode health result: always live, negligible latency.
func (b *Base) healthOK(message string, latencyMS float64) HealthResult {
	return b.recordHealth(HealthResult{
		ConnectorID: b.id,
		Status:      StatusConnected,
		LatencyMS:   latencyMS,
		Message:     message,
		CheckedAt:   time.Now(),
	})
}

func (b *Base) healthError(message string) HealthResult {
	return b.recordHealth(HealthResult{
		ConnectorID: b.id,
		Status:      StatusError,
		Message:     message,
		CheckedAt:   time.Now(),
	})
}

// demoResult wraps mock data in the normalized envelope.
func (b *Base) demoResult(data map[string]any) Result {
	return Result{
		Success:   true,
		Connector: b.id,
		Mode:      "demo",
		Timestamp: time.Now(),
		Data:      data,
	}
}

// productionResult wraps real data in the normalized envelope and
// counts the request.
func (b *Base) productionResult(data map[string]any) Result {
	b.mu.Lock()
	b.requestCount++
	b.mu.Unlock()
	return Result{
		Success:   true,
		Connector: b.id,
		Mode:      "production",
		Timestamp: time.Now(),
		Data:      data,
	}
}

// errorResult records a failed operation.
func (b *Base) errorResult(err string) Result {
	b.mu.Lock()
	b.errorCount++
	b.mu.Unlock()
	mode := "production"
	if b.demo {
		mode = "demo"
	}
	return Result{
		Success:   false,
		Connector: b.id,
		Mode:      mode,
		Timestamp: time.Now(),
		Error:     err,
	}
}

// Info returns connector metadata for dashboards.
func (b *Base) Info() map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	info := map[string]any{
		"connector_id":  b.id,
		"name":          b.name,
		"category":      string(b.category),
		"status":        string(b.status),
		"demo_mode":     b.demo,
		"connected":     b.status == StatusConnected,
		"request_count": b.requestCount,
		"error_count":   b.errorCount,
	}
	if !b.connectedAt.IsZero() {
		info["connected_at"] = b.connectedAt.Format(time.RFC3339)
	}
	if b.lastHealth != nil {
		info["last_health_check"] = map[string]any{
			"status":     string(b.lastHealth.Status),
			"latency_ms": b.lastHealth.LatencyMS,
			"message":    b.lastHealth.Message,
		}
	}
	return info
}

// objectSchema is a shorthand for building tool input schemas.
func objectSchema(required []string, props map[string]any) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}
