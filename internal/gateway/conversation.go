package gateway

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mediaagentiq/orchestrator/internal/queue"
)

// SessionTTL is how long a conversation session stays alive after its
// last activity. An expired session is replaced on next use, not
// resumed.
const SessionTTL = 30 * time.Minute

// Turn is a single exchange in a conversation.
type Turn struct {
	Role       string // "user" | "agent"
	Content    string
	AgentKey   string
	Result     *queue.Envelope
	Params     map[string]any
	Timestamp  time.Time
	MessageRef string // channel message id, for later updates
}

// Session is one user's conversation in one channel. The channel
// platforms deliver messages for a conversation serially, so sessions
// carry no lock of their own; the manager's map access is what is
// synchronized.
type Session struct {
	UserID    string
	ChannelID string
	Platform  string // "slack" | "teams"

	Turns      []Turn
	LastActive time.Time

	// Context carried across turns.
	LastURL       string
	LastAgentKey  string
	LastResult    *queue.Envelope
	PendingAction map[string]any
}

// Expired reports whether the session has been idle past the TTL.
func (s *Session) Expired() bool {
	return time.Since(s.LastActive) > SessionTTL
}

// AddUserTurn records an inbound message and refreshes the carried
// context (last agent, last URL).
func (s *Session) AddUserTurn(content, agentKey string, params map[string]any) *Turn {
	turn := Turn{
		Role:      "user",
		Content:   content,
		AgentKey:  agentKey,
		Params:    params,
		Timestamp: time.Now(),
	}
	s.Turns = append(s.Turns, turn)
	s.LastActive = time.Now()
	if agentKey != "" {
		s.LastAgentKey = agentKey
	}
	if url, ok := params["url"].(string); ok && url != "" {
		s.LastURL = url
	}
	return &s.Turns[len(s.Turns)-1]
}

// AddAgentTurn records an agent completion and updates the carried
// result context.
func (s *Session) AddAgentTurn(agentKey string, result *queue.Envelope, messageRef string) *Turn {
	turn := Turn{
		Role:       "agent",
		Content:    agentKey + " completed",
		AgentKey:   agentKey,
		Result:     result,
		Timestamp:  time.Now(),
		MessageRef: messageRef,
	}
	s.Turns = append(s.Turns, turn)
	s.LastActive = time.Now()
	s.LastAgentKey = agentKey
	s.LastResult = result
	return &s.Turns[len(s.Turns)-1]
}

// SetPendingAction stores the single awaiting-approval slot.
func (s *Session) SetPendingAction(action map[string]any) {
	s.PendingAction = action
}

// ClearPendingAction pops the awaiting-approval slot.
func (s *Session) ClearPendingAction() map[string]any {
	action := s.PendingAction
	s.PendingAction = nil
	return action
}

// ResolveParams merges new params with carried context: a missing URL
// is filled from the last URL mentioned, so "translate it to Spanish"
// after a compliance check on a URL reuses that URL.
func (s *Session) ResolveParams(params map[string]any) map[string]any {
	resolved := make(map[string]any, len(params)+1)
	for k, v := range params {
		resolved[k] = v
	}
	if url, _ := resolved["url"].(string); url == "" && s.LastURL != "" {
		resolved["url"] = s.LastURL
	}
	return resolved
}

// HistoryForLLM returns the last 6 turns in chat-message form for the
// router's LLM tier.
func (s *Session) HistoryForLLM() []ChatMessage {
	turns := s.Turns
	if len(turns) > 6 {
		turns = turns[len(turns)-6:]
	}
	out := make([]ChatMessage, 0, len(turns))
	for _, turn := range turns {
		role := "assistant"
		if turn.Role == "user" {
			role = "user"
		}
		out = append(out, ChatMessage{Role: role, Content: turn.Content})
	}
	return out
}

type sessionKey struct {
	platform  string
	channelID string
	userID    string
}

// ConversationManager holds active sessions keyed by
// (platform, channel, user). Sessions are created lazily, mutated
// in-place, and garbage-collected by the cleanup sweep once expired.
type ConversationManager struct {
	logger *slog.Logger

	mu       sync.Mutex
	sessions map[sessionKey]*Session
}

// NewConversationManager creates an empty session registry.
func NewConversationManager(logger *slog.Logger) *ConversationManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConversationManager{
		logger:   logger.With("component", "conversations"),
		sessions: make(map[sessionKey]*Session),
	}
}

// GetOrCreate returns the live session for a conversation, replacing
// any expired one.
func (m *ConversationManager) GetOrCreate(platform, channelID, userID string) *Session {
	key := sessionKey{platform, channelID, userID}
	m.mu.Lock()
	defer m.mu.Unlock()

	session := m.sessions[key]
	if session == nil || session.Expired() {
		session = &Session{
			UserID:     userID,
			ChannelID:  channelID,
			Platform:   platform,
			LastActive: time.Now(),
		}
		m.sessions[key] = session
		m.logger.Debug("new conversation session", "platform", platform, "channel", channelID, "user", userID)
	}
	return session
}

// Get returns a live session or nil.
func (m *ConversationManager) Get(platform, channelID, userID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	session := m.sessions[sessionKey{platform, channelID, userID}]
	if session == nil || session.Expired() {
		return nil
	}
	return session
}

// CleanupExpired removes expired sessions, returning the count removed.
func (m *ConversationManager) CleanupExpired() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for key, session := range m.sessions {
		if session.Expired() {
			delete(m.sessions, key)
			removed++
		}
	}
	if removed > 0 {
		m.logger.Info("cleaned up expired sessions", "count", removed)
	}
	return removed
}

// ActiveCount reports live sessions, for the health endpoint.
func (m *ConversationManager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, session := range m.sessions {
		if !session.Expired() {
			n++
		}
	}
	return n
}

// StartSweeper runs the periodic cleanup until ctx is cancelled.
// Intended to be launched as its own goroutine.
func (m *ConversationManager) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.CleanupExpired()
		}
	}
}
