package gateway

import (
	"testing"
	"time"

	"github.com/mediaagentiq/orchestrator/internal/queue"
)

func TestSessionContextCarryOver(t *testing.T) {
	m := NewConversationManager(testLogger())
	s := m.GetOrCreate("slack", "C1", "U1")

	s.AddUserTurn("check compliance on https://cdn.example/clip.mp4", "compliance",
		map[string]any{"url": "https://cdn.example/clip.mp4"})
	if s.LastURL != "https://cdn.example/clip.mp4" {
		t.Fatalf("LastURL = %q", s.LastURL)
	}

	// Follow-up without a URL resolves from context.
	resolved := s.ResolveParams(map[string]any{"text": "Spanish"})
	if resolved["url"] != "https://cdn.example/clip.mp4" {
		t.Errorf("resolved url = %v", resolved["url"])
	}
	if resolved["text"] != "Spanish" {
		t.Errorf("resolved text = %v", resolved["text"])
	}

	// An explicit URL is never overwritten.
	resolved = s.ResolveParams(map[string]any{"url": "https://other/x.mp4"})
	if resolved["url"] != "https://other/x.mp4" {
		t.Errorf("explicit url overwritten: %v", resolved["url"])
	}
}

func TestSessionAgentTurnUpdatesContext(t *testing.T) {
	m := NewConversationManager(testLogger())
	s := m.GetOrCreate("slack", "C1", "U1")

	env := &queue.Envelope{Success: true, Agent: "Compliance Agent"}
	s.AddAgentTurn("compliance", env, "ts-1")

	if s.LastAgentKey != "compliance" {
		t.Errorf("LastAgentKey = %q", s.LastAgentKey)
	}
	if s.LastResult != env {
		t.Error("LastResult not updated")
	}
	if s.Turns[len(s.Turns)-1].MessageRef != "ts-1" {
		t.Error("message ref not recorded")
	}
}

func TestSessionExpiryReplacedOnNextUse(t *testing.T) {
	m := NewConversationManager(testLogger())
	s := m.GetOrCreate("slack", "C1", "U1")
	s.AddUserTurn("hello", "", map[string]any{})
	s.LastActive = time.Now().Add(-SessionTTL - time.Minute)

	if got := m.Get("slack", "C1", "U1"); got != nil {
		t.Error("expired session should not be returned by Get")
	}

	replacement := m.GetOrCreate("slack", "C1", "U1")
	if replacement == s {
		t.Error("expired session should be replaced, not resumed")
	}
	if len(replacement.Turns) != 0 {
		t.Error("replacement session should start empty")
	}
}

func TestCleanupExpired(t *testing.T) {
	m := NewConversationManager(testLogger())
	live := m.GetOrCreate("slack", "C1", "U1")
	stale := m.GetOrCreate("slack", "C2", "U2")
	stale.LastActive = time.Now().Add(-SessionTTL - time.Minute)

	if removed := m.CleanupExpired(); removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if m.ActiveCount() != 1 {
		t.Errorf("active = %d, want 1", m.ActiveCount())
	}
	if m.Get("slack", "C1", "U1") != live {
		t.Error("live session lost in sweep")
	}
}

func TestPendingActionSlot(t *testing.T) {
	m := NewConversationManager(testLogger())
	s := m.GetOrCreate("teams", "19:x", "U9")

	s.SetPendingAction(map[string]any{"type": "approve_broadcast", "agent": "playout_scheduling"})
	action := s.ClearPendingAction()
	if action["type"] != "approve_broadcast" {
		t.Errorf("pending action = %v", action)
	}
	if s.ClearPendingAction() != nil {
		t.Error("slot should be empty after clear")
	}
}

func TestHistoryForLLMWindow(t *testing.T) {
	m := NewConversationManager(testLogger())
	s := m.GetOrCreate("slack", "C1", "U1")
	for i := 0; i < 10; i++ {
		s.AddUserTurn("msg", "", map[string]any{})
	}
	history := s.HistoryForLLM()
	if len(history) != 6 {
		t.Errorf("history window = %d turns, want 6", len(history))
	}
	if history[0].Role != "user" {
		t.Errorf("role = %q", history[0].Role)
	}
}
