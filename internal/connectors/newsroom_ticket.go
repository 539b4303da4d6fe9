package connectors

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/go-github/v68/github"

	"github.com/mediaagentiq/orchestrator/internal/httpkit"
)

// NewsroomTicketConnector files and tracks newsroom assignment-desk
// tickets as GitHub issues: compliance violations, rights disputes, and
// fact-check follow-ups each become a labeled issue the desk works
// through its normal triage board.
type NewsroomTicketConnector struct {
	*Base
	repo  string // "owner/name"
	token string

	client *github.Client
	owner  string
	name   string
}

// NewNewsroomTicketConnector builds the ticket adapter. demo is forced
// on when no repository or token is configured.
func NewNewsroomTicketConnector(repo, token string, demo bool, timeout time.Duration, logger *slog.Logger) *NewsroomTicketConnector {
	if repo == "" || token == "" {
		demo = true
	}
	c := &NewsroomTicketConnector{
		Base:  NewBase("newsroom_tickets", "Newsroom Tickets (GitHub)", CategoryNewsroom, AuthToken, demo, logger),
		repo:  repo,
		token: token,
	}
	if owner, name, ok := strings.Cut(repo, "/"); ok {
		c.owner, c.name = owner, name
	}
	if !demo {
		c.client = github.NewClient(httpkit.NewClient(httpkit.WithTimeout(timeout))).WithAuthToken(token)
	}
	return c
}

func (c *NewsroomTicketConnector) Connect(ctx context.Context) bool {
	return c.connect(ctx, c.authenticate)
}

func (c *NewsroomTicketConnector) authenticate(ctx context.Context) bool {
	if c.Demo() {
		c.Logger().Info("ticket connector in demo mode, no GitHub calls")
		return true
	}
	if c.owner == "" || c.name == "" {
		c.Logger().Error("bad ticket repo", "repo", c.repo)
		return false
	}
	if _, _, err := c.client.Repositories.Get(ctx, c.owner, c.name); err != nil {
		c.Logger().Error("ticket repo unreachable", "repo", c.repo, "error", err)
		return false
	}
	return true
}

func (c *NewsroomTicketConnector) HealthCheck(ctx context.Context) HealthResult {
	if c.Demo() {
		return c.healthOK("demo mode, always healthy", 1.0)
	}
	start := time.Now()
	if _, _, err := c.client.Repositories.Get(ctx, c.owner, c.name); err != nil {
		return c.healthError(err.Error())
	}
	return c.healthOK("GitHub API reachable", float64(time.Since(start).Milliseconds()))
}

// Read lists open desk tickets, optionally filtered by label
// ({"label": "compliance"}).
func (c *NewsroomTicketConnector) Read(ctx context.Context, params map[string]any) Result {
	if c.Demo() {
		return c.demoResult(map[string]any{
			"tickets": []any{
				map[string]any{"number": 214, "title": "[compliance] Critical: uncensored profanity in 6pm block", "labels": []any{"compliance", "critical"}, "state": "open"},
				map[string]any{"number": 209, "title": "[rights] License expiring: stock footage pack #4411", "labels": []any{"rights"}, "state": "open"},
			},
		})
	}

	opts := &github.IssueListByRepoOptions{
		State:       "open",
		ListOptions: github.ListOptions{PerPage: intParam(params, "limit", 20)},
	}
	if label := stringParam(params, "label", ""); label != "" {
		opts.Labels = []string{label}
	}
	issues, _, err := c.client.Issues.ListByRepo(ctx, c.owner, c.name, opts)
	if err != nil {
		return c.errorResult(fmt.Sprintf("list tickets: %v", err))
	}

	tickets := make([]any, 0, len(issues))
	for _, issue := range issues {
		labels := make([]any, 0, len(issue.Labels))
		for _, l := range issue.Labels {
			labels = append(labels, l.GetName())
		}
		tickets = append(tickets, map[string]any{
			"number": issue.GetNumber(),
			"title":  issue.GetTitle(),
			"labels": labels,
			"state":  issue.GetState(),
			"url":    issue.GetHTMLURL(),
		})
	}
	return c.productionResult(map[string]any{"tickets": tickets})
}

// Write files a new ticket. data: {"title": ..., "body": ...,
// "labels": [...]}.
func (c *NewsroomTicketConnector) Write(ctx context.Context, data any, params map[string]any) Result {
	payload, _ := data.(map[string]any)
	title := stringParam(payload, "title", "")
	if title == "" {
		return c.errorResult("ticket write requires a title")
	}

	if c.Demo() {
		c.Logger().Info("demo ticket filed", "title", title)
		return c.demoResult(map[string]any{
			"number": 200 + int(time.Now().Unix()%100),
			"title":  title,
			"filed":  true,
		})
	}

	req := &github.IssueRequest{Title: &title}
	if body := stringParam(payload, "body", ""); body != "" {
		req.Body = &body
	}
	if raw, ok := payload["labels"].([]any); ok {
		labels := make([]string, 0, len(raw))
		for _, l := range raw {
			if s, ok := l.(string); ok {
				labels = append(labels, s)
			}
		}
		req.Labels = &labels
	}

	issue, _, err := c.client.Issues.Create(ctx, c.owner, c.name, req)
	if err != nil {
		return c.errorResult(fmt.Sprintf("file ticket: %v", err))
	}
	return c.productionResult(map[string]any{
		"number": issue.GetNumber(),
		"title":  issue.GetTitle(),
		"url":    issue.GetHTMLURL(),
		"filed":  true,
	})
}

func (c *NewsroomTicketConnector) ToolDefinitions() []ToolDefinition {
	return []ToolDefinition{
		{
			Name:        "newsroom_list_tickets",
			Description: "List open assignment-desk tickets",
			InputSchema: objectSchema(nil, map[string]any{
				"label": map[string]any{"type": "string", "description": "Filter by label, e.g. compliance"},
				"limit": map[string]any{"type": "integer", "default": 20},
			}),
			ConnectorID: c.ID(),
			Operation:   OpRead,
		},
		{
			Name:        "newsroom_file_ticket",
			Description: "File a new assignment-desk ticket (compliance violation, rights dispute, fact-check follow-up)",
			InputSchema: objectSchema([]string{"title"}, map[string]any{
				"title":  map[string]any{"type": "string"},
				"body":   map[string]any{"type": "string"},
				"labels": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			}),
			ConnectorID: c.ID(),
			Operation:   OpWrite,
		},
	}
}
