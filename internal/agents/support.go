// Package agents implements the 19 concrete agents on top of the
// agentkit.Agent contract. Each agent is a plain struct with no shared
// base class: DemoProcess generates realistic mock output in code.
// ProductionProcess returns agentkit.ErrProductionNotReady when the
// agent's integration is unconfigured and otherwise returns the same
// output as DemoProcess; no agent calls an external service itself, and
// signal_quality's ProductionProcess always returns ErrProductionNotReady.
package agents

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

// Integrations snapshots which external systems are configured at
// startup, computed once from config.Settings. Agents hold the subset
// of flags relevant to their own RequiredIntegrations().
type Integrations struct {
	OpenAI           bool
	AWS              bool
	INews            bool
	AutomationServer bool
}

func nowISO() string { return time.Now().UTC().Format(time.RFC3339) }

func randFloat(min, max float64) float64 {
	return min + rand.Float64()*(max-min)
}

func round1(f float64) float64 { return float64(int(f*10+0.5)) / 10 }
func round2(f float64) float64 { return float64(int(f*100+0.5)) / 100 }
func round3(f float64) float64 { return float64(int(f*1000+0.5)) / 1000 }

func randChoice[T any](items []T) T {
	return items[rand.Intn(len(items))]
}

func randSample[T any](items []T, n int) []T {
	if n >= len(items) {
		out := make([]T, len(items))
		copy(out, items)
		return out
	}
	idx := rand.Perm(len(items))[:n]
	out := make([]T, n)
	for i, j := range idx {
		out[i] = items[j]
	}
	return out
}

func jobID(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, time.Now().UTC().Format("20060102-150405"))
}

func randID(prefix string, lo, hi int) string {
	return fmt.Sprintf("%s%d", prefix, lo+rand.Intn(hi-lo+1))
}

func timecode(t time.Time) string {
	return t.Format("15:04:05") + ":00"
}

func titleSlug(title string) string {
	s := title
	if len(s) > 12 {
		s = s[:12]
	}
	return strings.ToUpper(strings.ReplaceAll(s, " ", "_"))
}

func anyToSlice[T any](items []T) []any {
	out := make([]any, len(items))
	for i, v := range items {
		out[i] = v
	}
	return out
}
