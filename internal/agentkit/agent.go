// Package agentkit implements the dual-mode agent contract and the
// BaseAgent runtime wrapper every concrete agent in internal/agents is
// built on: agents implement a small interface, and a shared wrapper
// struct owns the common bookkeeping — there is no type hierarchy.
package agentkit

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mediaagentiq/orchestrator/internal/memory"
	"github.com/mediaagentiq/orchestrator/internal/queue"
)

// Envelope is the canonical agent result shape. Defined in
// package queue to avoid an import cycle (the queue's Task.Result field
// needs it); re-exported here so agent code never has to import queue
// directly for it.
type Envelope = queue.Envelope

// ErrProductionNotReady is returned by a ProductionProcess implementation
// that wants to punt to demo mode explicitly, on top of the wrapper's own
// proactive RequiredIntegrations check.
var ErrProductionNotReady = errors.New("agentkit: production mode not ready")

// Agent is the contract every concrete agent implements. There is no
// base class: agents are plain structs satisfying this interface, kept
// in a key -> factory map (internal/agents.Registry) rather than a type
// hierarchy.
type Agent interface {
	Name() string
	Description() string

	// RequiredIntegrations reports, for each integration this agent
	// depends on in production mode, whether it is currently configured.
	// An agent with no production dependencies returns an empty map.
	RequiredIntegrations() map[string]bool

	// Validate is a cheap precondition check run before any processing.
	Validate(input any) bool

	DemoProcess(input any) (map[string]any, error)
	ProductionProcess(input any) (map[string]any, error)
}

// BaseAgent wraps an Agent with the shared runtime behavior: mode
// selection, production->demo fallback, timing, and memory
// journal write-back. One BaseAgent per registered agent key.
type BaseAgent struct {
	key               string
	agent             Agent
	journal           *memory.Journal
	productionEnabled bool
	logger            *slog.Logger

	hopeMu    sync.Mutex
	hopeRules map[string]HopeRule
	hopeSeq   int
}

// NewBaseAgent builds the runtime wrapper for one registered agent.
// productionEnabled reflects the global PRODUCTION_MODE setting;
// per-call mode selection additionally requires every entry in
// agent.RequiredIntegrations() to be true.
func NewBaseAgent(key string, agent Agent, journal *memory.Journal, productionEnabled bool, logger *slog.Logger) *BaseAgent {
	return &BaseAgent{
		key:               key,
		agent:             agent,
		journal:           journal,
		productionEnabled: productionEnabled,
		logger:            logger,
		hopeRules:         make(map[string]HopeRule),
	}
}

// Key returns the registry key this wrapper was constructed for.
func (b *BaseAgent) Key() string { return b.key }

// Description returns the wrapped agent's self-description.
func (b *BaseAgent) Description() string { return b.agent.Description() }

// ProductionReady reports whether the next Run would take the
// production branch: the global switch is on and every required
// integration is configured.
func (b *BaseAgent) ProductionReady() bool { return b.productionReady() }

// Run executes the wrapped agent once: validate, select mode, invoke,
// fall back on production failure. It does NOT write the memory
// journal — the journal entry carries the triggered-subscriber list,
// which is only known after the orchestrator's event fan-out step;
// callers invoke Record for that once fan-out completes.
func (b *BaseAgent) Run(input any) (env *Envelope, duration time.Duration, counted bool) {
	name := b.agent.Name()

	if !b.agent.Validate(input) {
		return &Envelope{
			Success:   false,
			Agent:     name,
			Timestamp: time.Now().UTC(),
			Error:     "Invalid input",
		}, 0, false
	}

	start := time.Now()
	mode := "demo"
	var data map[string]any
	var err error

	if b.productionReady() {
		data, err = invoke(b.agent.ProductionProcess, input)
		if err != nil {
			if b.logger != nil {
				b.logger.Warn("production_fallback", "agent", name, "error", err)
			}
			data, err = invoke(b.agent.DemoProcess, input)
			mode = "demo"
		} else {
			mode = "production"
		}
	} else {
		data, err = invoke(b.agent.DemoProcess, input)
	}

	duration = time.Since(start)

	if err != nil {
		return &Envelope{
			Success:   false,
			Agent:     name,
			Timestamp: time.Now().UTC(),
			Error:     err.Error(),
			Mode:      mode,
		}, duration, true
	}

	return &Envelope{
		Success:   true,
		Agent:     name,
		Timestamp: time.Now().UTC(),
		Data:      data,
		Mode:      mode,
	}, duration, true
}

// invoke runs one process branch with a recover guard, so a
// programming error inside an agent becomes a failed task (or a
// production->demo fallback) instead of crashing the task worker.
func invoke(branch func(any) (map[string]any, error), input any) (data map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			data = nil
			err = fmt.Errorf("agent panicked: %v", r)
		}
	}()
	return branch(input)
}

func (b *BaseAgent) productionReady() bool {
	if !b.productionEnabled {
		return false
	}
	for _, configured := range b.agent.RequiredIntegrations() {
		if !configured {
			return false
		}
	}
	return true
}

// Record appends a completed task's outcome to this agent's memory
// journal, including the triggered-subscriber list the orchestrator
// computed during event fan-out.
func (b *BaseAgent) Record(taskID string, env *Envelope, duration time.Duration, inputSummary string, triggeredSubscribers []string) error {
	if b.journal == nil {
		return nil
	}
	outputSummary := "(no output)"
	if env.Success {
		outputSummary = memory.SummarizeOutput(b.key, env.Data)
	} else if env.Error != "" {
		outputSummary = "error: " + env.Error
	}
	return b.journal.Append(memory.Entry{
		Timestamp:            env.Timestamp,
		TaskID:               taskID,
		Success:              env.Success,
		Mode:                 env.Mode,
		InputSummary:         inputSummary,
		OutputSummary:        outputSummary,
		TriggeredSubscribers: triggeredSubscribers,
		DurationMS:           duration.Milliseconds(),
	})
}

// HopeRule is a demo-only automation rule bound to one agent: "when
// <condition>, on <schedule>, do <action>." The bookkeeping lives
// here on BaseAgent since none of it is agent-specific.
type HopeRule struct {
	ID        string    `json:"rule_id"`
	AgentKey  string    `json:"agent_key"`
	Condition string    `json:"condition"`
	Schedule  string    `json:"schedule"`
	Action    string    `json:"action"`
	Priority  string    `json:"priority"`
	CreatedAt time.Time `json:"created_at"`
}

// AddHopeRule registers a new rule and returns it with a generated id.
func (b *BaseAgent) AddHopeRule(condition, schedule, action, priority string) HopeRule {
	b.hopeMu.Lock()
	defer b.hopeMu.Unlock()

	b.hopeSeq++
	id := fmt.Sprintf("hope_%03d", b.hopeSeq)
	rule := HopeRule{
		ID:        id,
		AgentKey:  b.key,
		Condition: condition,
		Schedule:  schedule,
		Action:    action,
		Priority:  priority,
		CreatedAt: time.Now().UTC(),
	}
	b.hopeRules[id] = rule
	return rule
}

// CancelHopeRule removes a rule by id, returning the removed rule if found.
func (b *BaseAgent) CancelHopeRule(ruleID string) (HopeRule, bool) {
	b.hopeMu.Lock()
	defer b.hopeMu.Unlock()

	rule, ok := b.hopeRules[ruleID]
	if ok {
		delete(b.hopeRules, ruleID)
	}
	return rule, ok
}

// ListHopeRules returns all rules currently registered on this agent.
func (b *BaseAgent) ListHopeRules() []HopeRule {
	b.hopeMu.Lock()
	defer b.hopeMu.Unlock()

	out := make([]HopeRule, 0, len(b.hopeRules))
	for _, r := range b.hopeRules {
		out = append(out, r)
	}
	return out
}
