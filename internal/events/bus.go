// Package events implements the in-process typed publish/subscribe
// bus. The bus carries a fixed routing table (event kind →
// ordered list of subscribing agent keys) established once at
// construction and never mutated afterward; publishing an event submits
// one task per subscriber rather than broadcasting a copy of the event
// itself.
package events

import (
	"log/slog"
	"sync"
	"time"

	"github.com/mediaagentiq/orchestrator/internal/queue"
)

// Kind enumerates the event kinds the orchestrator core knows about.
type Kind string

const (
	NewContent        Kind = "NEW_CONTENT"
	CaptionComplete   Kind = "CAPTION_COMPLETE"
	ClipDetected      Kind = "CLIP_DETECTED"
	ComplianceAlert   Kind = "COMPLIANCE_ALERT"
	TrendingSpike     Kind = "TRENDING_SPIKE"
	LicenseExpiring   Kind = "LICENSE_EXPIRING"
	ViolationDetected Kind = "VIOLATION_DETECTED"
	BreakingNews      Kind = "BREAKING_NEWS"
)

// highPriorityKinds get priority HIGH on emission; everything else is
// NORMAL.
var highPriorityKinds = map[Kind]bool{
	ComplianceAlert:   true,
	BreakingNews:      true,
	ViolationDetected: true,
}

// Event is a typed signal on the bus.
type Event struct {
	Kind        Kind
	Data        map[string]any
	SourceAgent string // originator agent key, or "system"
	SourceTask  string // the task id that produced this event, if any
	Timestamp   time.Time
}

// Handler is an in-process synchronous observer of published events.
// Handlers must not block — they run inline on the publishing goroutine.
type Handler func(Event)

// SubmitFunc hands a derived task off to the orchestrator's queue. The
// bus never touches the queue directly, keeping this package free of a
// dependency on the orchestrator; collaborators are passed in
// explicitly.
type SubmitFunc func(agentKey string, input any, priority queue.Priority, triggeredBy string)

// Bus holds the static subscription table and dispatches derived tasks
// on Publish.
type Bus struct {
	logger *slog.Logger
	submit SubmitFunc

	mu            sync.RWMutex
	subscriptions map[Kind][]string // fixed at construction; never mutated after New/WithSubscriptions
	handlers      map[Kind][]Handler
}

// New creates a bus with the given static subscription table. The table
// is copied defensively and never changes afterward; it is the sole
// routing rule.
func New(logger *slog.Logger, submit SubmitFunc, subscriptions map[Kind][]string) *Bus {
	copied := make(map[Kind][]string, len(subscriptions))
	for k, v := range subscriptions {
		agents := make([]string, len(v))
		copy(agents, v)
		copied[k] = agents
	}
	return &Bus{
		logger:        logger,
		submit:        submit,
		subscriptions: copied,
		handlers:      make(map[Kind][]Handler),
	}
}

// On registers an in-process handler for a kind. Handlers are invoked
// synchronously, in registration order, after the subscriber fan-out.
func (b *Bus) On(kind Kind, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[kind] = append(b.handlers[kind], h)
}

// Subscribers returns the static subscriber list for a kind.
func (b *Bus) Subscribers(kind Kind) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	subs := b.subscriptions[kind]
	out := make([]string, len(subs))
	copy(out, subs)
	return out
}

// Publish submits one task per subscribed agent for e.Kind and then
// invokes any registered handlers. Returns the list of agent keys that
// were scheduled, so the caller can record it on the source task's
// memory journal entry.
func (b *Bus) Publish(e Event) []string {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	priority := queue.Normal
	if highPriorityKinds[e.Kind] {
		priority = queue.High
	}

	subs := b.Subscribers(e.Kind)
	for _, agentKey := range subs {
		b.submit(agentKey, e.Data, priority, "event:"+string(e.Kind))
	}

	if b.logger != nil {
		b.logger.Debug("event published", "kind", e.Kind, "source", e.SourceAgent, "subscribers", subs)
	}

	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[e.Kind]...)
	b.mu.RUnlock()
	for _, h := range handlers {
		h(e)
	}

	return subs
}
