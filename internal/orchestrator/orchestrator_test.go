package orchestrator

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mediaagentiq/orchestrator/internal/agentkit"
	"github.com/mediaagentiq/orchestrator/internal/events"
	"github.com/mediaagentiq/orchestrator/internal/queue"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubAgent returns canned demo data, or an error when failWith is set.
type stubAgent struct {
	name     string
	data     map[string]any
	failWith error
	calls    int
	lastIn   any
}

func (s *stubAgent) Name() string                          { return s.name }
func (s *stubAgent) Description() string                   { return "stub" }
func (s *stubAgent) RequiredIntegrations() map[string]bool { return nil }
func (s *stubAgent) Validate(input any) bool               { return true }

func (s *stubAgent) DemoProcess(input any) (map[string]any, error) {
	s.calls++
	s.lastIn = input
	if s.failWith != nil {
		return nil, s.failWith
	}
	return s.data, nil
}

func (s *stubAgent) ProductionProcess(input any) (map[string]any, error) {
	return nil, agentkit.ErrProductionNotReady
}

func newTestCore(t *testing.T, stubs map[string]*stubAgent) *Core {
	t.Helper()
	agents := make(map[string]*agentkit.BaseAgent, len(stubs))
	for key, stub := range stubs {
		agents[key] = agentkit.NewBaseAgent(key, stub, nil, false, testLogger())
	}
	return New(Options{
		Logger:        testLogger(),
		Agents:        agents,
		Subscriptions: DefaultSubscriptions(),
	})
}

// drain processes queued tasks until the queue is empty, without
// starting the worker goroutine. Returns processed task count.
func drain(c *Core) int {
	n := 0
	for {
		t := c.queue.Pop()
		if t == nil {
			return n
		}
		c.processTask(t)
		n++
	}
}

func TestUnknownAgentReturnsFailureEnvelope(t *testing.T) {
	c := newTestCore(t, nil)
	id := c.SubmitTask("ghost", "input", queue.Normal, nil, "")
	drain(c)

	status, ok := c.TaskStatus(id)
	if !ok {
		t.Fatal("task vanished")
	}
	if status["status"] != "FAILED" {
		t.Errorf("status = %v, want FAILED", status["status"])
	}
	if errStr, _ := status["error"].(string); !strings.Contains(errStr, "not registered") {
		t.Errorf("error = %q, want agent-not-registered message", errStr)
	}
}

func TestTrendingChainEmitsSpikeAndBreaking(t *testing.T) {
	trending := &stubAgent{
		name: "Trending Agent",
		data: map[string]any{
			"trends": []any{
				map[string]any{"topic": "elections", "velocity_score": 95},
				map[string]any{"topic": "weather", "velocity_score": 40},
			},
			"breaking_news": []any{
				map[string]any{"headline": "Major development"},
			},
		},
	}
	c := newTestCore(t, map[string]*stubAgent{"trending": trending})

	id := c.SubmitTask("trending", map[string]any{"mode": "monitor"}, queue.Normal, nil, "")

	task := c.queue.Pop()
	c.processTask(task)

	// TRENDING_SPIKE -> social, archive; BREAKING_NEWS -> social,
	// trending, ai_production_director, live_fact_check.
	wantSubs := []string{"social", "archive", "social", "trending", "ai_production_director", "live_fact_check"}
	if len(task.TriggeredSubscribers) != len(wantSubs) {
		t.Fatalf("triggered subscribers = %v, want %v", task.TriggeredSubscribers, wantSubs)
	}
	for i, want := range wantSubs {
		if task.TriggeredSubscribers[i] != want {
			t.Errorf("subscriber[%d] = %q, want %q", i, task.TriggeredSubscribers[i], want)
		}
	}

	if c.QueueDepth() != 6 {
		t.Errorf("queue depth = %d, want 6 chained tasks", c.QueueDepth())
	}

	status, _ := c.TaskStatus(id)
	if status["status"] != "COMPLETED" {
		t.Errorf("source task status = %v, want COMPLETED", status["status"])
	}

	c.mu.Lock()
	emitted := c.stats.EventsEmitted
	c.mu.Unlock()
	if emitted != 2 {
		t.Errorf("events emitted = %d, want 2", emitted)
	}
}

func TestCaptionEmitsExactlyOneEventBeforeCompletedRing(t *testing.T) {
	caption := &stubAgent{name: "Caption Agent", data: map[string]any{"segments": []any{}}}
	c := newTestCore(t, map[string]*stubAgent{"caption": caption})

	// Observe the completed ring size at publish time via a bus handler.
	ringAtPublish := -1
	c.Bus().On(events.CaptionComplete, func(e events.Event) {
		ringAtPublish = len(c.CompletedTasks())
	})

	c.SubmitTask("caption", "clip.mp4", queue.Normal, nil, "")
	c.processTask(c.queue.Pop())

	if ringAtPublish != 0 {
		t.Errorf("completed ring had %d entries at publish time, want 0 (publish precedes ring append)", ringAtPublish)
	}
	if len(c.CompletedTasks()) != 1 {
		t.Errorf("completed ring = %d entries, want 1", len(c.CompletedTasks()))
	}

	// Exactly the three CAPTION_COMPLETE subscribers were enqueued.
	if c.QueueDepth() != 3 {
		t.Errorf("queue depth = %d, want 3", c.QueueDepth())
	}
}

func TestChainedTasksCarryEventTrigger(t *testing.T) {
	caption := &stubAgent{name: "Caption Agent", data: map[string]any{}}
	c := newTestCore(t, map[string]*stubAgent{"caption": caption})

	c.SubmitTask("caption", "clip.mp4", queue.Normal, nil, "")
	c.processTask(c.queue.Pop())

	next := c.queue.Pop()
	if next.TriggeredBy != "event:CAPTION_COMPLETE" {
		t.Errorf("triggered_by = %q, want event:CAPTION_COMPLETE", next.TriggeredBy)
	}
	if next.Hop != 1 {
		t.Errorf("hop = %d, want 1", next.Hop)
	}
	if next.Priority != queue.Normal {
		t.Errorf("priority = %v, want NORMAL", next.Priority)
	}
}

func TestHighPriorityEventKinds(t *testing.T) {
	compliance := &stubAgent{
		name: "Compliance Agent",
		data: map[string]any{
			"issues": []any{
				map[string]any{"severity": "critical", "rule": "profanity"},
				map[string]any{"severity": "low", "rule": "sponsorship"},
			},
		},
	}
	c := newTestCore(t, map[string]*stubAgent{"compliance": compliance})

	c.SubmitTask("compliance", "clip.mp4", queue.Normal, nil, "")
	c.processTask(c.queue.Pop())

	chained := c.queue.Pop()
	if chained == nil {
		t.Fatal("no chained task for COMPLIANCE_ALERT")
	}
	if chained.Priority != queue.High {
		t.Errorf("priority = %v, want HIGH for COMPLIANCE_ALERT", chained.Priority)
	}
	// Only the critical issue rides along.
	input, _ := chained.Input.(map[string]any)
	issues, _ := input["issues"].([]any)
	if len(issues) != 1 {
		t.Errorf("chained issues = %d, want 1 (critical only)", len(issues))
	}
}

func TestHopBudgetStopsChaining(t *testing.T) {
	caption := &stubAgent{name: "Caption Agent", data: map[string]any{}}
	c := newTestCore(t, map[string]*stubAgent{"caption": caption})

	c.submit("caption", "clip.mp4", queue.Normal, nil, "", queue.MaxHops)
	task := c.queue.Pop()
	c.processTask(task)

	if len(task.TriggeredSubscribers) != 0 {
		t.Errorf("hop-exhausted task still chained: %v", task.TriggeredSubscribers)
	}
	if c.QueueDepth() != 0 {
		t.Errorf("queue depth = %d, want 0", c.QueueDepth())
	}
}

func TestCancelPendingAndCompleted(t *testing.T) {
	agent := &stubAgent{name: "Caption Agent", data: map[string]any{}}
	c := newTestCore(t, map[string]*stubAgent{"caption": agent})

	id := c.SubmitTask("caption", "x", queue.Normal, nil, "")
	if !c.CancelTask(id) {
		t.Fatal("cancel of pending task should succeed")
	}
	status, ok := c.TaskStatus(id)
	if !ok || status["status"] != "CANCELLED" {
		t.Errorf("status = %v, want CANCELLED", status)
	}

	// Cancelling an already-terminal task is a no-op returning false.
	if c.CancelTask(id) {
		t.Error("second cancel should return false")
	}

	id2 := c.SubmitTask("caption", "y", queue.Normal, nil, "")
	drain(c)
	if c.CancelTask(id2) {
		t.Error("cancel of completed task should return false")
	}
}

func TestPriorityPreemption(t *testing.T) {
	agent := &stubAgent{name: "Archive Agent", data: map[string]any{}}
	c := newTestCore(t, map[string]*stubAgent{"archive": agent})

	var normals []string
	for i := 0; i < 5; i++ {
		normals = append(normals, c.SubmitTask("archive", i, queue.Normal, nil, ""))
	}
	critical := c.SubmitTask("archive", "now", queue.Critical, nil, "")

	first := c.queue.Pop()
	if first.ID != critical {
		t.Errorf("first pop = %s, want critical task %s", first.ID, critical)
	}
	for i, want := range normals {
		got := c.queue.Pop()
		if got.ID != want {
			t.Errorf("pop %d = %s, want %s (FIFO within band)", i, got.ID, want)
		}
	}
}

func TestFailedTaskCountsAndCallbackRuns(t *testing.T) {
	agent := &stubAgent{name: "Clip Agent", failWith: errors.New("decode error")}
	c := newTestCore(t, map[string]*stubAgent{"clip": agent})

	var cbTask *queue.Task
	c.SubmitTask("clip", "bad.mp4", queue.Normal, func(t *queue.Task) { cbTask = t }, "")
	drain(c)

	if cbTask == nil {
		t.Fatal("callback not invoked")
	}
	if cbTask.Status != queue.Failed {
		t.Errorf("status = %v, want FAILED", cbTask.Status)
	}
	if cbTask.Result.Error != "decode error" {
		t.Errorf("error = %q", cbTask.Result.Error)
	}

	c.mu.Lock()
	failed := c.stats.TasksFailed
	c.mu.Unlock()
	if failed != 1 {
		t.Errorf("tasks_failed = %d, want 1", failed)
	}
}

func TestCompletedRingBounded(t *testing.T) {
	agent := &stubAgent{name: "Archive Agent", data: map[string]any{}}
	c := newTestCore(t, map[string]*stubAgent{"archive": agent})

	for i := 0; i < completedRingSize+50; i++ {
		c.SubmitTask("archive", i, queue.Normal, nil, "")
	}
	drain(c)

	if got := len(c.CompletedTasks()); got != completedRingSize {
		t.Errorf("completed ring = %d, want %d", got, completedRingSize)
	}
}

func TestStartStopGraceful(t *testing.T) {
	agent := &stubAgent{name: "Archive Agent", data: map[string]any{}}
	c := newTestCore(t, map[string]*stubAgent{"archive": agent})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.Start(ctx)

	var wg sync.WaitGroup
	wg.Add(1)
	c.SubmitTask("archive", "x", queue.Normal, func(*queue.Task) { wg.Done() }, "")

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("worker did not process task within 3s")
	}

	c.Stop()
	status := c.Status()
	if status["running"] != false {
		t.Error("status should report not running after Stop")
	}
}

func TestStatusSnapshot(t *testing.T) {
	agent := &stubAgent{name: "Archive Agent", data: map[string]any{}}
	c := newTestCore(t, map[string]*stubAgent{"archive": agent})
	c.SetupDefaultSchedules()

	status := c.Status()
	if status["scheduled_jobs"] != 14 {
		t.Errorf("scheduled_jobs = %v, want 14", status["scheduled_jobs"])
	}
	agents, _ := status["registered_agents"].([]string)
	if len(agents) != 1 {
		t.Errorf("registered_agents = %v", agents)
	}
}
