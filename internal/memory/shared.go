package memory

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// SharedLog is the bounded-append discipline shared by the inter-agent
// event log and the global task-history audit table.
type SharedLog struct {
	path    string
	header  string
	render  func(any) string
	entries int
}

func openSharedLog(path, header string, render func(any) string) (*SharedLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("memory: create dir for %s: %w", path, err)
	}
	l := &SharedLog{path: path, header: header, render: render}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.WriteFile(path, []byte(header), 0o644); err != nil {
			return nil, fmt.Errorf("memory: init %s: %w", path, err)
		}
		return l, nil
	} else if err != nil {
		return nil, fmt.Errorf("memory: stat %s: %w", path, err)
	}
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("memory: read %s: %w", path, err)
	}
	l.entries = countEntries(string(body), header)
	return l, nil
}

func countEntries(content, header string) int {
	rest := strings.TrimPrefix(content, header)
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return 0
	}
	return len(strings.Split(rest, "\n"))
}

// Append records a row, bounded to maxRows (trimmed to trimTo once exceeded).
func (l *SharedLog) Append(row any, maxRows, trimTo int) error {
	line := l.render(row)
	content, err := os.ReadFile(l.path)
	if err != nil {
		return fmt.Errorf("memory: read %s: %w", l.path, err)
	}
	rest := strings.TrimPrefix(string(content), l.header)
	rest = strings.TrimRight(rest, "\n")

	var lines []string
	if rest != "" {
		lines = strings.Split(rest, "\n")
	}
	lines = append(lines, line)
	l.entries = len(lines)

	if maxRows > 0 && l.entries > maxRows {
		if trimTo <= 0 || trimTo >= maxRows {
			trimTo = maxRows * 9 / 10
		}
		lines = lines[len(lines)-trimTo:]
		l.entries = len(lines)
	}

	out := l.header + strings.Join(lines, "\n") + "\n"
	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(out), 0o644); err != nil {
		return fmt.Errorf("memory: write %s: %w", l.path, err)
	}
	return os.Rename(tmp, l.path)
}

// InterAgentEvent is a row in inter_agent_comms.md.
type InterAgentEvent struct {
	Timestamp     time.Time
	Kind          string
	SourceAgent   string
	SourceTaskID  string
	Subscribers   []string
	PayloadSample string
	TasksQueued   int
}

// TaskHistoryRow is a row in task_history.md.
type TaskHistoryRow struct {
	Timestamp time.Time
	Agent     string
	TaskID    string
	Status    string
	DurationMS int64
}

const taskHistoryHeader = "# Task History — Global Audit Log\n" +
	"_Compact per-task log across all agents_\n\n" +
	"| Timestamp | Agent | Task ID | Status | Duration |\n" +
	"|-----------|-------|---------|--------|----------|\n"

const interAgentHeader = "# Inter-Agent Event Log\n" +
	"_One row per published event, with its subscriber fan-out_\n\n"

// OpenTaskHistory opens memory/agents/task_history.md.
func OpenTaskHistory(dir string) (*SharedLog, error) {
	return openSharedLog(filepath.Join(dir, "agents", "task_history.md"), taskHistoryHeader, func(v any) string {
		r := v.(TaskHistoryRow)
		return fmt.Sprintf("| %s | %s | %s | %s | %dms |",
			r.Timestamp.UTC().Format("2006-01-02 15:04:05"), r.Agent, r.TaskID, r.Status, r.DurationMS)
	})
}

// OpenInterAgentLog opens memory/agents/inter_agent_comms.md.
func OpenInterAgentLog(dir string) (*SharedLog, error) {
	return openSharedLog(filepath.Join(dir, "agents", "inter_agent_comms.md"), interAgentHeader, func(v any) string {
		e := v.(InterAgentEvent)
		return fmt.Sprintf("- [%s] `%s` from `%s` (task %s) -> %v (queued %d) :: %s",
			e.Timestamp.UTC().Format(time.RFC3339), e.Kind, e.SourceAgent, e.SourceTaskID,
			e.Subscribers, e.TasksQueued, e.PayloadSample)
	})
}
