package orchestrator

import (
	"github.com/mediaagentiq/orchestrator/internal/queue"
)

// workflowState tracks a named ordered agent chain: each step consumes
// the previous step's result data. Lives in memory for the process
// lifetime; a failed step ends the chain.
type workflowState struct {
	id        string
	name      string
	remaining []string
	results   []*queue.Envelope
	done      bool
	failed    bool
}

// SubmitWorkflow dispatches the first agent of a sequence and arranges
// for each successful step's result to feed the next. Returns the
// workflow id, or "" for an empty sequence.
func (c *Core) SubmitWorkflow(name string, input any, sequence []string) string {
	if len(sequence) == 0 {
		return ""
	}

	flowID := shortID()
	state := &workflowState{
		id:        flowID,
		name:      name,
		remaining: sequence[1:],
	}

	c.workflowMu.Lock()
	c.workflows[flowID] = state
	c.workflowMu.Unlock()

	taskID := c.submit(sequence[0], input, queue.Normal, nil, "workflow:"+flowID, 0)

	c.workflowMu.Lock()
	c.taskToFlow[taskID] = flowID
	c.workflowMu.Unlock()

	c.logger.Info("workflow submitted", "workflow_id", flowID, "name", name, "steps", len(sequence))
	return flowID
}

// advanceWorkflow runs in the task-worker after each task completes:
// if the task belonged to a workflow, chain the next step or finish.
func (c *Core) advanceWorkflow(t *queue.Task) {
	c.workflowMu.Lock()
	flowID, ok := c.taskToFlow[t.ID]
	if !ok {
		c.workflowMu.Unlock()
		return
	}
	delete(c.taskToFlow, t.ID)
	state := c.workflows[flowID]
	c.workflowMu.Unlock()
	if state == nil {
		return
	}

	state.results = append(state.results, t.Result)

	if t.Result == nil || !t.Result.Success {
		state.done = true
		state.failed = true
		c.logger.Warn("workflow step failed, chain stopped",
			"workflow_id", flowID, "name", state.name, "agent", t.AgentKey)
		return
	}

	if len(state.remaining) == 0 {
		state.done = true
		c.logger.Info("workflow complete", "workflow_id", flowID, "name", state.name, "steps", len(state.results))
		return
	}

	next := state.remaining[0]
	state.remaining = state.remaining[1:]

	// Step N+1 consumes step N's result data.
	var nextInput any = t.Result.Data
	if nextInput == nil {
		nextInput = map[string]any{}
	}

	taskID := c.submit(next, nextInput, queue.Normal, nil, t.ID, t.Hop)

	c.workflowMu.Lock()
	c.taskToFlow[taskID] = flowID
	c.workflowMu.Unlock()
}

// WorkflowStatus reports a workflow's progress.
func (c *Core) WorkflowStatus(flowID string) (map[string]any, bool) {
	c.workflowMu.Lock()
	defer c.workflowMu.Unlock()
	state, ok := c.workflows[flowID]
	if !ok {
		return nil, false
	}
	return map[string]any{
		"workflow_id":     state.id,
		"name":            state.name,
		"steps_completed": len(state.results),
		"steps_remaining": len(state.remaining),
		"done":            state.done,
		"failed":          state.failed,
	}, true
}

// WorkflowResults returns the accumulated step envelopes.
func (c *Core) WorkflowResults(flowID string) ([]*queue.Envelope, bool) {
	c.workflowMu.Lock()
	defer c.workflowMu.Unlock()
	state, ok := c.workflows[flowID]
	if !ok {
		return nil, false
	}
	out := make([]*queue.Envelope, len(state.results))
	copy(out, state.results)
	return out, true
}
