package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mediaagentiq/orchestrator/internal/httpkit"
)

const openAIChatCompletions = "https://api.openai.com/v1/chat/completions"

// ChatMessage is one turn of conversation history fed to the LLM tier.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// LLMRouter is the router's tier-3 fallback: a single chat completion
// classifying the message onto an agent key, with a two-line output
// contract (line 1: agent key; optional line 2: JSON params).
type LLMRouter struct {
	apiKey string
	model  string
	logger *slog.Logger
	client *http.Client
}

// NewLLMRouter builds the fallback classifier. Returns nil when no API
// key is configured, which disables tier 3 entirely.
func NewLLMRouter(apiKey, model string, timeout time.Duration, logger *slog.Logger) *LLMRouter {
	if apiKey == "" {
		return nil
	}
	if model == "" {
		model = "gpt-4-turbo-preview"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LLMRouter{
		apiKey: apiKey,
		model:  model,
		logger: logger.With("component", "llm_router"),
		client: httpkit.NewClient(httpkit.WithTimeout(timeout)),
	}
}

// Route classifies one message. Errors bubble up so the caller can
// degrade to the keyword-tier result.
func (l *LLMRouter) Route(ctx context.Context, text string, history []ChatMessage) (RoutedIntent, error) {
	keys := append(AgentKeys(), "__status__", "__connectors__", "__help__")
	var list strings.Builder
	for _, k := range keys {
		list.WriteString("  - " + k + "\n")
	}

	messages := []ChatMessage{{
		Role: "system",
		Content: "You are a media broadcast AI dispatcher. " +
			"Given a user message, return ONLY the agent key (one of the list below) " +
			"and optionally a JSON params object on a second line. " +
			"If you extract a URL, include it as {\"url\": \"...\"}. " +
			"If extracting text content, include {\"text\": \"...\"}.\n\n" +
			"Available agents:\n" + list.String(),
	}}
	if len(history) > 4 {
		history = history[len(history)-4:]
	}
	messages = append(messages, history...)
	messages = append(messages, ChatMessage{Role: "user", Content: text})

	raw, err := l.complete(ctx, messages)
	if err != nil {
		return RoutedIntent{}, err
	}

	line1, line2, _ := strings.Cut(strings.TrimSpace(raw), "\n")
	agentKey := strings.ToLower(strings.TrimSpace(line1))

	params := map[string]any{}
	if line2 = strings.TrimSpace(line2); line2 != "" {
		// A malformed params line is ignored, not fatal.
		_ = json.Unmarshal([]byte(line2), &params)
	}

	if strings.HasPrefix(agentKey, "__") {
		sysCmd := strings.Trim(agentKey, "_")
		return RoutedIntent{
			Intent:          sysCmd,
			Params:          params,
			Confidence:      0.95,
			OriginalMessage: text,
			IsSystemCommand: true,
			SystemCommand:   sysCmd,
		}, nil
	}

	known := false
	for _, k := range AgentKeys() {
		if k == agentKey {
			known = true
			break
		}
	}
	if !known {
		return RoutedIntent{}, fmt.Errorf("llm returned unknown agent key %q", agentKey)
	}

	return RoutedIntent{
		AgentKey:        agentKey,
		Intent:          strings.ReplaceAll(agentKey, "_", " "),
		Params:          params,
		Confidence:      0.95,
		OriginalMessage: text,
	}, nil
}

// complete runs one chat completion and returns the first choice text.
func (l *LLMRouter) complete(ctx context.Context, messages []ChatMessage) (string, error) {
	body := map[string]any{
		"model":       l.model,
		"messages":    messages,
		"max_tokens":  100,
		"temperature": 0,
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, openAIChatCompletions, &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+l.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("chat completion: %s: %s",
			resp.Status, httpkit.ReadErrorBody(resp.Body, 512))
	}

	var decoded struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode chat completion: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return decoded.Choices[0].Message.Content, nil
}
