// Package scheduler runs the periodic wheel of recurring job
// definitions. A single 1-second tick loop scans every job each tick
// rather than keeping a timer per job — this avoids per-job timer
// bookkeeping and makes the no-catch-up guarantee ("next_run = now + interval", never
// "last_run + interval") trivial to enforce uniformly.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mediaagentiq/orchestrator/internal/queue"
)

// Job is a recurring schedule entry. Submitting a task for a due job is
// the scheduler's only side effect; it never runs agent code itself.
type Job struct {
	ID       string
	AgentKey string
	Input    any
	Interval time.Duration
	Enabled  bool
	LastRun  time.Time
	NextRun  time.Time
	RunCount int
}

// SubmitFunc is how the scheduler hands a due job off to the
// orchestrator. It is supplied by the caller (internal/orchestrator) so
// this package has no dependency on the orchestrator or agent runtime —
// it only knows how to decide "is this job due" and "submit its task".
type SubmitFunc func(agentKey string, input any, priority queue.Priority, triggeredBy string)

// Scheduler holds the set of registered jobs and ticks once a second.
type Scheduler struct {
	logger *slog.Logger
	submit SubmitFunc

	mu   sync.Mutex
	jobs []*Job // insertion order; tie-breaking within a tick uses this order
	byID map[string]*Job

	stopCh  chan struct{}
	wg      sync.WaitGroup
	running bool
}

// New creates a scheduler. submit is called once per due job, per tick.
func New(logger *slog.Logger, submit SubmitFunc) *Scheduler {
	return &Scheduler{
		logger: logger,
		submit: submit,
		byID:   make(map[string]*Job),
	}
}

// Register adds a job and enables it. If NextRun is zero, it defaults to
// now+interval (the job's first fire is one interval after registration,
// matching the "no catch-up" semantics applied uniformly from the start).
func (s *Scheduler) Register(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job.Enabled = true
	if job.NextRun.IsZero() {
		job.NextRun = time.Now().Add(job.Interval)
	}
	s.jobs = append(s.jobs, job)
	s.byID[job.ID] = job
}

// Pause disables a job; in-flight tasks it already spawned continue
// unaffected. Returns false if the job id is unknown.
func (s *Scheduler) Pause(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.byID[id]
	if !ok {
		return false
	}
	job.Enabled = false
	return true
}

// Resume re-enables a job and sets NextRun = now, so it fires on the
// very next tick rather than waiting out whatever was left of its
// paused interval.
func (s *Scheduler) Resume(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.byID[id]
	if !ok {
		return false
	}
	job.Enabled = true
	job.NextRun = time.Now()
	return true
}

// Get returns a snapshot copy of a job.
func (s *Scheduler) Get(id string) (Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.byID[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// Jobs returns a snapshot of all registered jobs, in insertion order.
func (s *Scheduler) Jobs() []Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Job, len(s.jobs))
	for i, j := range s.jobs {
		out[i] = *j
	}
	return out
}

// Start runs the 1-second tick loop until ctx is cancelled or Stop is
// called. Intended to be launched in its own goroutine by the
// orchestrator.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	s.wg.Add(1)
	defer s.wg.Done()

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	s.logger.Debug("scheduler started")
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case now := <-ticker.C:
			s.tick(now)
		}
	}
}

// Stop halts the tick loop and waits for it to exit.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()
	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

// tick scans every job in insertion order and fires the due ones.
// next_run is always derived from now, never from last_run, so a job
// that was due ten intervals ago still fires exactly once this tick.
func (s *Scheduler) tick(now time.Time) {
	s.mu.Lock()
	due := make([]*Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		if job.Enabled && !job.NextRun.After(now) {
			job.LastRun = now
			job.NextRun = now.Add(job.Interval)
			job.RunCount++
			due = append(due, job)
		}
	}
	s.mu.Unlock()

	for _, job := range due {
		s.logger.Debug("scheduled job firing", "job_id", job.ID, "agent", job.AgentKey, "run_count", job.RunCount)
		s.submit(job.AgentKey, job.Input, queue.Normal, "schedule:"+job.ID)
	}
}
