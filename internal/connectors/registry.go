package connectors

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// healthHistoryLimit bounds the per-connector health result ring.
const healthHistoryLimit = 50

// Registry is the central hub for connector discovery, lifecycle
// management, and tool-name dispatch. Read-mostly after startup;
// individual connector status updates are local to each connector.
type Registry struct {
	logger *slog.Logger

	mu         sync.RWMutex
	connectors map[string]Connector
	order      []string // registration order, for stable listings
	categories map[Category][]string
	tools      map[string]ToolDefinition
	health     map[string][]HealthResult

	createdAt        time.Time
	totalConnected   int
	healthChecksRun  int
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		logger:     logger.With("component", "connector_registry"),
		connectors: make(map[string]Connector),
		categories: make(map[Category][]string),
		tools:      make(map[string]ToolDefinition),
		health:     make(map[string][]HealthResult),
		createdAt:  time.Now(),
	}
}

// Register adds a connector and indexes its tool definitions.
// Re-registration replaces the previous instance.
func (r *Registry) Register(c Connector) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := c.ID()
	if _, exists := r.connectors[id]; exists {
		r.logger.Warn("connector already registered, replacing", "connector", id)
		r.removeLocked(id)
	}

	r.connectors[id] = c
	r.order = append(r.order, id)
	r.categories[c.Category()] = append(r.categories[c.Category()], id)
	r.health[id] = nil

	tools := c.ToolDefinitions()
	for _, tool := range tools {
		r.tools[tool.Name] = tool
	}

	r.logger.Info("registered connector",
		"connector", id, "category", c.Category(), "demo", c.Demo(), "tools", len(tools))
}

// Deregister removes a connector and its tools. Returns false if the id
// is unknown.
func (r *Registry) Deregister(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.connectors[id]; !ok {
		return false
	}
	r.removeLocked(id)
	r.logger.Info("deregistered connector", "connector", id)
	return true
}

func (r *Registry) removeLocked(id string) {
	c := r.connectors[id]
	cat := r.categories[c.Category()]
	for i, cid := range cat {
		if cid == id {
			r.categories[c.Category()] = append(cat[:i], cat[i+1:]...)
			break
		}
	}
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	for _, tool := range c.ToolDefinitions() {
		delete(r.tools, tool.Name)
	}
	delete(r.connectors, id)
	delete(r.health, id)
}

// Get returns a connector by id.
func (r *Registry) Get(id string) (Connector, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.connectors[id]
	return c, ok
}

// ByCategory returns all connectors for a category, connected or not,
// in registration order.
func (r *Registry) ByCategory(cat Category) []Connector {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := r.categories[cat]
	out := make([]Connector, 0, len(ids))
	for _, id := range ids {
		if c, ok := r.connectors[id]; ok {
			out = append(out, c)
		}
	}
	return out
}

// ConnectedConnectors returns only connectors that are currently live.
func (r *Registry) ConnectedConnectors() []Connector {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Connector
	for _, id := range r.order {
		if c := r.connectors[id]; c.Connected() {
			out = append(out, c)
		}
	}
	return out
}

// ListIDs returns all registered connector ids in registration order.
func (r *Registry) ListIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// ConnectAll authenticates every enabled connector in parallel and
// records per-connector outcomes. A single failure never aborts the
// rest — the failed connector is left in ERROR state.
func (r *Registry) ConnectAll(ctx context.Context) map[string]bool {
	r.mu.RLock()
	var enabled []Connector
	for _, id := range r.order {
		if c := r.connectors[id]; c.Enabled() {
			enabled = append(enabled, c)
		}
	}
	r.mu.RUnlock()

	r.logger.Info("connecting connectors", "count", len(enabled))

	outcome := make(map[string]bool, len(enabled))
	var outcomeMu sync.Mutex
	var wg sync.WaitGroup
	for _, c := range enabled {
		wg.Add(1)
		go func(c Connector) {
			defer wg.Done()
			ok := c.Connect(ctx)
			outcomeMu.Lock()
			outcome[c.ID()] = ok
			outcomeMu.Unlock()
		}(c)
	}
	wg.Wait()

	connected := 0
	for _, ok := range outcome {
		if ok {
			connected++
		}
	}
	r.mu.Lock()
	r.totalConnected = connected
	r.mu.Unlock()

	r.logger.Info("connector startup complete", "connected", connected, "enabled", len(enabled))
	return outcome
}

// DisconnectAll closes every connector gracefully.
func (r *Registry) DisconnectAll(ctx context.Context) {
	r.mu.RLock()
	all := make([]Connector, 0, len(r.order))
	for _, id := range r.order {
		all = append(all, r.connectors[id])
	}
	r.mu.RUnlock()
	for _, c := range all {
		c.Disconnect(ctx)
	}
	r.logger.Info("all connectors disconnected")
}

// Reconnect disconnects then reconnects one connector.
func (r *Registry) Reconnect(ctx context.Context, id string) bool {
	c, ok := r.Get(id)
	if !ok {
		return false
	}
	c.Disconnect(ctx)
	return c.Connect(ctx)
}

// HealthCheckAll runs health checks on all currently connected
// connectors in parallel, appending each result to a bounded
// per-connector ring (last 50).
func (r *Registry) HealthCheckAll(ctx context.Context) map[string]HealthResult {
	connected := r.ConnectedConnectors()

	results := make(map[string]HealthResult, len(connected))
	var resultsMu sync.Mutex
	var wg sync.WaitGroup
	for _, c := range connected {
		wg.Add(1)
		go func(c Connector) {
			defer wg.Done()
			h := c.HealthCheck(ctx)
			resultsMu.Lock()
			results[c.ID()] = h
			resultsMu.Unlock()
		}(c)
	}
	wg.Wait()

	r.mu.Lock()
	for id, h := range results {
		ring := append(r.health[id], h)
		if len(ring) > healthHistoryLimit {
			ring = ring[len(ring)-healthHistoryLimit:]
		}
		r.health[id] = ring
	}
	r.healthChecksRun++
	r.mu.Unlock()

	return results
}

// HealthHistory returns the bounded health ring for one connector.
func (r *Registry) HealthHistory(id string) []HealthResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ring := r.health[id]
	out := make([]HealthResult, len(ring))
	copy(out, ring)
	return out
}

// Tool looks up a tool definition by name.
func (r *Registry) Tool(name string) (ToolDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// AllToolDefinitions returns every registered tool. This is the MCP
// discovery endpoint — pass these to an LLM to let it pick operations.
func (r *Registry) AllToolDefinitions() []ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ToolDefinition, 0, len(r.tools))
	for _, id := range r.order {
		for _, tool := range r.connectors[id].ToolDefinitions() {
			if _, ok := r.tools[tool.Name]; ok {
				out = append(out, tool)
			}
		}
	}
	return out
}

// ToolDefinitionsForCategory returns tools from connectors in one category.
func (r *Registry) ToolDefinitionsForCategory(cat Category) []ToolDefinition {
	var out []ToolDefinition
	for _, c := range r.ByCategory(cat) {
		out = append(out, c.ToolDefinitions()...)
	}
	return out
}

// CallTool executes a tool by name. This is the MCP tool-call entry
// point: agents call it without knowing which connector implements the
// tool. A disconnected connector gets one auto-reconnect attempt;
// repeated failure returns a failure envelope, never an error.
func (r *Registry) CallTool(ctx context.Context, toolName string, input map[string]any) Result {
	tool, ok := r.Tool(toolName)
	if !ok {
		return Result{
			Success:   false,
			Timestamp: time.Now(),
			Error:     fmt.Sprintf("unknown tool: %s", toolName),
		}
	}

	c, ok := r.Get(tool.ConnectorID)
	if !ok {
		return Result{
			Success:   false,
			Timestamp: time.Now(),
			Error:     fmt.Sprintf("connector not found: %s", tool.ConnectorID),
		}
	}

	if !c.Connected() {
		r.logger.Info("auto-connecting for tool call", "connector", tool.ConnectorID, "tool", toolName)
		if !c.Connect(ctx) {
			return Result{
				Success:   false,
				Connector: tool.ConnectorID,
				Timestamp: time.Now(),
				Error:     fmt.Sprintf("connector %s not connected", tool.ConnectorID),
			}
		}
	}

	switch tool.Operation {
	case OpRead:
		return c.Read(ctx, input)
	case OpWrite:
		data, params := splitWriteInput(input)
		return c.Write(ctx, data, params)
	default:
		return Result{
			Success:   false,
			Connector: tool.ConnectorID,
			Timestamp: time.Now(),
			Error:     fmt.Sprintf("operation %q not callable via call_tool", tool.Operation),
		}
	}
}

// splitWriteInput separates the payload from routing params: an
// explicit "data" key is the payload and the rest are params; otherwise
// the whole input doubles as both, matching the original tool-call
// convention.
func splitWriteInput(input map[string]any) (any, map[string]any) {
	if data, ok := input["data"]; ok {
		params := make(map[string]any, len(input)-1)
		for k, v := range input {
			if k != "data" {
				params[k] = v
			}
		}
		return data, params
	}
	return input, input
}

// Dashboard returns the full connector status snapshot used by the
// gateway's /miq-connectors card.
func (r *Registry) Dashboard() map[string]any {
	byCategory := make(map[string]any)
	total := 0
	connected := 0
	for _, cat := range Categories() {
		cs := r.ByCategory(cat)
		if len(cs) == 0 {
			continue
		}
		infos := make([]map[string]any, 0, len(cs))
		for _, c := range cs {
			infos = append(infos, c.Info())
			total++
			if c.Connected() {
				connected++
			}
		}
		byCategory[string(cat)] = infos
	}

	healthPct := 0
	if total > 0 {
		healthPct = connected * 100 / total
	}

	r.mu.RLock()
	toolNames := make([]string, 0, len(r.tools))
	for _, id := range r.order {
		for _, tool := range r.connectors[id].ToolDefinitions() {
			if _, ok := r.tools[tool.Name]; ok {
				toolNames = append(toolNames, tool.Name)
			}
		}
	}
	totalTools := len(r.tools)
	checksRun := r.healthChecksRun
	createdAt := r.createdAt
	r.mu.RUnlock()

	return map[string]any{
		"summary": map[string]any{
			"total":        total,
			"connected":    connected,
			"disconnected": total - connected,
			"health_pct":   healthPct,
		},
		"by_category":       byCategory,
		"total_tools":       totalTools,
		"tool_names":        toolNames,
		"health_checks_run": checksRun,
		"uptime_seconds":    time.Since(createdAt).Seconds(),
	}
}

// StatusSummary returns a one-line status summary.
func (r *Registry) StatusSummary() string {
	connected := len(r.ConnectedConnectors())
	r.mu.RLock()
	total := len(r.connectors)
	tools := len(r.tools)
	r.mu.RUnlock()
	return fmt.Sprintf("%d/%d connectors live | %d MCP tools available", connected, total, tools)
}
