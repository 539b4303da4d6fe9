// Package orchestrator implements the autonomous control plane: the
// priority task queue consumer, the recurring-job scheduler loop, the
// event bus fan-out, and the completion hooks that chain agent results
// into new work. One Core per process; all collaborators are passed in
// explicitly at construction.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mediaagentiq/orchestrator/internal/agentkit"
	"github.com/mediaagentiq/orchestrator/internal/events"
	"github.com/mediaagentiq/orchestrator/internal/memory"
	"github.com/mediaagentiq/orchestrator/internal/queue"
	"github.com/mediaagentiq/orchestrator/internal/scheduler"
)

// ErrAgentNotRegistered marks a task submitted for an unknown agent key.
// It surfaces as a failure envelope on the task, never as a panic.
var ErrAgentNotRegistered = errors.New("orchestrator: agent not registered")

// completedRingSize bounds the completed-task history ring.
const completedRingSize = 1000

// idleSleep is how long the task worker sleeps when the queue is empty.
const idleSleep = 100 * time.Millisecond

// Stats are the monitor's counters.
type Stats struct {
	TasksProcessed int
	TasksFailed    int
	EventsEmitted  int
	UptimeStart    time.Time
}

// Core owns the queue, bus, and scheduler, and runs the three
// long-lived goroutines: task-worker, scheduler-loop, and monitor.
type Core struct {
	logger *slog.Logger

	queue *queue.Queue
	bus   *events.Bus
	sched *scheduler.Scheduler

	agents map[string]*agentkit.BaseAgent

	interAgentLog *memory.SharedLog
	taskHistory   *memory.SharedLog
	historyMax    int
	historyTrim   int

	mu        sync.Mutex
	running   map[string]*queue.Task
	completed []*queue.Task
	stats     Stats
	started   bool

	workflowMu sync.Mutex
	workflows  map[string]*workflowState
	taskToFlow map[string]string

	onTaskComplete func(*queue.Task)

	monitorInterval time.Duration
	stopCh          chan struct{}
	wg              sync.WaitGroup
}

// Options carries the collaborators Core needs. InterAgentLog and
// TaskHistory may be nil (audit rows are then skipped — useful in tests).
type Options struct {
	Logger        *slog.Logger
	Agents        map[string]*agentkit.BaseAgent
	Subscriptions map[events.Kind][]string
	InterAgentLog *memory.SharedLog
	TaskHistory   *memory.SharedLog
	HistoryMax    int
	HistoryTrim   int

	// OnTaskComplete runs on the task-worker goroutine after a task's
	// audit writes, before its callback. Used to feed collaborators
	// like the archive index.
	OnTaskComplete func(*queue.Task)
}

// New wires the queue, bus, and scheduler together. The bus and
// scheduler submit through the Core so every producer path funnels into
// the one priority queue.
func New(opts Options) *Core {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	historyMax := opts.HistoryMax
	if historyMax == 0 {
		historyMax = 2000
	}
	historyTrim := opts.HistoryTrim
	if historyTrim == 0 {
		historyTrim = 1800
	}

	c := &Core{
		logger:          logger.With("component", "orchestrator"),
		queue:           queue.New(),
		agents:          opts.Agents,
		interAgentLog:   opts.InterAgentLog,
		taskHistory:     opts.TaskHistory,
		historyMax:      historyMax,
		historyTrim:     historyTrim,
		onTaskComplete:  opts.OnTaskComplete,
		running:         make(map[string]*queue.Task),
		workflows:       make(map[string]*workflowState),
		taskToFlow:      make(map[string]string),
		monitorInterval: 60 * time.Second,
	}

	submit := func(agentKey string, input any, priority queue.Priority, triggeredBy string) {
		c.submit(agentKey, input, priority, nil, triggeredBy, 0)
	}
	c.bus = events.New(logger, c.submitFromEvent, opts.Subscriptions)
	c.sched = scheduler.New(logger, submit)
	return c
}

// Bus exposes the event bus for in-process handler registration and
// system-originated publishes.
func (c *Core) Bus() *events.Bus { return c.bus }

// Scheduler exposes the recurring-job wheel.
func (c *Core) Scheduler() *scheduler.Scheduler { return c.sched }

// Agents returns the BaseAgent wrapper for a key.
func (c *Core) Agents() map[string]*agentkit.BaseAgent { return c.agents }

// submitFromEvent is the bus's SubmitFunc: derived tasks inherit the
// hop budget accounting from the event's source task via the data map.
func (c *Core) submitFromEvent(agentKey string, input any, priority queue.Priority, triggeredBy string) {
	hop := 0
	if m, ok := input.(map[string]any); ok {
		if h, ok := m["_hop"].(int); ok {
			hop = h
		}
	}
	c.submit(agentKey, input, priority, nil, triggeredBy, hop)
}

// SubmitTask queues work for an agent and returns the task id.
func (c *Core) SubmitTask(agentKey string, input any, priority queue.Priority, callback queue.Callback, triggeredBy string) string {
	return c.submit(agentKey, input, priority, callback, triggeredBy, 0)
}

func (c *Core) submit(agentKey string, input any, priority queue.Priority, callback queue.Callback, triggeredBy string, hop int) string {
	t := &queue.Task{
		ID:          shortID(),
		AgentKey:    agentKey,
		Input:       input,
		Priority:    priority,
		Status:      queue.Pending,
		CreatedAt:   time.Now(),
		TriggeredBy: triggeredBy,
		Callback:    callback,
		Hop:         hop,
	}
	c.queue.Submit(t)
	c.logger.Info("task submitted",
		"task_id", t.ID, "agent", agentKey, "priority", priority.String(), "triggered_by", triggeredBy)
	return t.ID
}

// shortID returns the 8-char display form of a fresh UUID.
func shortID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return id.String()[:8]
}

// CancelTask removes a PENDING task by id. Running and terminal tasks
// are untouched; cancelling them is a no-op returning false.
func (c *Core) CancelTask(id string) bool {
	t, ok := c.queue.Get(id)
	if !ok {
		return false
	}
	if !c.queue.Cancel(id) {
		return false
	}
	c.queue.Forget(id)
	c.appendCompleted(t)
	c.logger.Info("task cancelled", "task_id", id)
	return true
}

// TaskStatus reports a task wherever it currently lives: running,
// queued, or in the completed ring.
func (c *Core) TaskStatus(id string) (map[string]any, bool) {
	c.mu.Lock()
	if t, ok := c.running[id]; ok {
		c.mu.Unlock()
		return taskDict(t), true
	}
	for _, t := range c.completed {
		if t.ID == id {
			c.mu.Unlock()
			return taskDict(t), true
		}
	}
	c.mu.Unlock()

	if t, ok := c.queue.Get(id); ok {
		return taskDict(t), true
	}
	return nil, false
}

func taskDict(t *queue.Task) map[string]any {
	d := map[string]any{
		"id":           t.ID,
		"agent_key":    t.AgentKey,
		"priority":     t.Priority.String(),
		"status":       t.Status.String(),
		"created_at":   t.CreatedAt.UTC().Format(time.RFC3339),
		"has_result":   t.Result != nil,
		"triggered_by": t.TriggeredBy,
	}
	if !t.StartedAt.IsZero() {
		d["started_at"] = t.StartedAt.UTC().Format(time.RFC3339)
	}
	if !t.CompletedAt.IsZero() {
		d["completed_at"] = t.CompletedAt.UTC().Format(time.RFC3339)
	}
	if t.Result != nil && t.Result.Error != "" {
		d["error"] = t.Result.Error
	}
	return d
}

// ScheduleJob registers a recurring job firing immediately and then
// every interval. Returns the job id.
func (c *Core) ScheduleJob(agentKey string, input any, interval time.Duration, jobID string) string {
	if jobID == "" {
		jobID = shortID()
	}
	c.sched.Register(&scheduler.Job{
		ID:       jobID,
		AgentKey: agentKey,
		Input:    input,
		Interval: interval,
		Enabled:  true,
		NextRun:  time.Now(),
	})
	c.logger.Info("job scheduled", "job_id", jobID, "agent", agentKey, "interval", interval)
	return jobID
}

// PauseJob disables a scheduled job.
func (c *Core) PauseJob(jobID string) bool { return c.sched.Pause(jobID) }

// ResumeJob re-enables a scheduled job; it fires within the next tick.
func (c *Core) ResumeJob(jobID string) bool { return c.sched.Resume(jobID) }

// Start launches the task-worker, scheduler-loop, and monitor
// goroutines. Safe to call once; a second call is a no-op.
func (c *Core) Start(ctx context.Context) {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		c.logger.Warn("orchestrator already running")
		return
	}
	c.started = true
	c.stats.UptimeStart = time.Now()
	c.stopCh = make(chan struct{})
	c.mu.Unlock()

	c.wg.Add(3)
	go func() {
		defer c.wg.Done()
		c.taskWorker(ctx)
	}()
	go func() {
		defer c.wg.Done()
		c.sched.Start(ctx)
	}()
	go func() {
		defer c.wg.Done()
		c.monitor(ctx)
	}()

	c.logger.Info("orchestrator started", "agents", len(c.agents))
}

// Stop shuts down gracefully: the worker finishes its current task,
// then all three loops exit.
func (c *Core) Stop() {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return
	}
	c.started = false
	close(c.stopCh)
	c.mu.Unlock()

	c.sched.Stop()
	c.wg.Wait()
	c.logger.Info("orchestrator stopped")
}

// taskWorker is the single queue consumer. Agent dispatch is fully
// serialized here, which is what lets the memory journals go lockless.
func (c *Core) taskWorker(ctx context.Context) {
	c.logger.Info("task worker started")
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("task worker stopped")
			return
		case <-c.stopCh:
			c.logger.Info("task worker stopped")
			return
		default:
		}

		t := c.queue.Pop()
		if t == nil {
			time.Sleep(idleSleep)
			continue
		}
		c.processTask(t)
	}
}

// processTask runs one task start to finish: mark running, invoke the
// agent runtime, emit derived events, journal, ring, callback.
func (c *Core) processTask(t *queue.Task) {
	t.Status = queue.Running
	t.StartedAt = time.Now()
	c.mu.Lock()
	c.running[t.ID] = t
	c.mu.Unlock()
	c.queue.Forget(t.ID)

	agent, ok := c.agents[t.AgentKey]

	var env *agentkit.Envelope
	var duration time.Duration
	if !ok {
		env = &agentkit.Envelope{
			Success:   false,
			Agent:     t.AgentKey,
			Timestamp: time.Now().UTC(),
			Error:     fmt.Sprintf("%v: %s", ErrAgentNotRegistered, t.AgentKey),
		}
	} else {
		env, duration, _ = agent.Run(t.Input)
	}

	t.Result = env
	t.CompletedAt = time.Now()
	if env.Success {
		t.Status = queue.Completed
	} else {
		t.Status = queue.Failed
	}

	c.mu.Lock()
	delete(c.running, t.ID)
	if env.Success {
		c.stats.TasksProcessed++
	} else {
		c.stats.TasksFailed++
	}
	c.mu.Unlock()

	c.logger.Info("task finished",
		"task_id", t.ID, "agent", t.AgentKey, "status", t.Status.String(),
		"duration_ms", duration.Milliseconds(), "mode", env.Mode)

	// Derived events first, so the journal entry can carry the
	// triggered-subscriber list; the completed ring comes last so any
	// chained task sees its parent as a prior audit entry.
	t.TriggeredSubscribers = c.completionHook(t)

	if ok {
		if err := agent.Record(t.ID, env, duration, summarizeInput(t.Input), t.TriggeredSubscribers); err != nil {
			c.logger.Error("journal write failed", "task_id", t.ID, "agent", t.AgentKey, "error", err)
		}
	}
	if c.taskHistory != nil {
		if err := c.taskHistory.Append(memory.TaskHistoryRow{
			Timestamp:  t.CompletedAt,
			Agent:      t.AgentKey,
			TaskID:     t.ID,
			Status:     t.Status.String(),
			DurationMS: duration.Milliseconds(),
		}, c.historyMax, c.historyTrim); err != nil {
			c.logger.Error("task history write failed", "task_id", t.ID, "error", err)
		}
	}

	c.appendCompleted(t)
	c.advanceWorkflow(t)

	if c.onTaskComplete != nil {
		c.onTaskComplete(t)
	}

	if t.Callback != nil {
		func() {
			defer func() {
				if r := recover(); r != nil {
					c.logger.Error("task callback panicked", "task_id", t.ID, "panic", r)
				}
			}()
			t.Callback(t)
		}()
	}
}

func (c *Core) appendCompleted(t *queue.Task) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.completed = append(c.completed, t)
	if len(c.completed) > completedRingSize {
		c.completed = c.completed[len(c.completed)-completedRingSize:]
	}
}

// monitor logs a structured status line every interval.
func (c *Core) monitor(ctx context.Context) {
	c.logger.Info("monitor started")
	ticker := time.NewTicker(c.monitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.mu.Lock()
			s := c.stats
			runningCount := len(c.running)
			c.mu.Unlock()
			c.logger.Info("orchestrator stats",
				"queue_depth", c.queue.Len(),
				"running", runningCount,
				"processed", s.TasksProcessed,
				"failed", s.TasksFailed,
				"events", s.EventsEmitted)
		}
	}
}

// Status returns the orchestrator snapshot used by /miq-status.
func (c *Core) Status() map[string]any {
	c.mu.Lock()
	s := c.stats
	runningCount := len(c.running)
	started := c.started
	c.mu.Unlock()

	agents := make([]string, 0, len(c.agents))
	for key := range c.agents {
		agents = append(agents, key)
	}

	status := map[string]any{
		"running":           started,
		"queue_size":        c.queue.Len(),
		"running_tasks":     runningCount,
		"scheduled_jobs":    len(c.sched.Jobs()),
		"registered_agents": agents,
		"stats": map[string]any{
			"tasks_processed":  s.TasksProcessed,
			"tasks_failed":     s.TasksFailed,
			"events_triggered": s.EventsEmitted,
		},
	}
	if !s.UptimeStart.IsZero() {
		status["uptime_seconds"] = time.Since(s.UptimeStart).Seconds()
	}
	return status
}

// CompletedTasks returns a snapshot of the completed ring, oldest first.
func (c *Core) CompletedTasks() []*queue.Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*queue.Task, len(c.completed))
	copy(out, c.completed)
	return out
}

// QueueDepth reports pending task count.
func (c *Core) QueueDepth() int { return c.queue.Len() }

// summarizeInput renders a one-line input summary for the journal.
func summarizeInput(input any) string {
	var s string
	switch v := input.(type) {
	case string:
		s = v
	case map[string]any:
		if url, ok := v["url"].(string); ok && url != "" {
			s = url
		} else if text, ok := v["text"].(string); ok && text != "" {
			s = text
		} else if mode, ok := v["mode"].(string); ok && mode != "" {
			s = "mode=" + mode
		} else {
			s = fmt.Sprintf("%d keys", len(v))
		}
	default:
		s = fmt.Sprintf("%v", v)
	}
	s = oneLine(s)
	if len(s) > 120 {
		s = s[:120]
	}
	return s
}

func oneLine(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '\n' || r == '\r' {
			r = ' '
		}
		out = append(out, r)
	}
	return string(out)
}
