package connectors

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/emersion/go-message"
	"github.com/emersion/go-message/mail"
)

// WireIMAPConfig points the wire-service connector at the alert mailbox
// agencies deliver into.
type WireIMAPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	TLS      bool
	Folder   string
}

// WireServiceConnector ingests wire-service alerts (AP, Reuters, AFP)
// from an IMAP mailbox. Each unseen message is one wire story; the
// trending and newsroom agents read them for breaking-news detection.
type WireServiceConnector struct {
	*Base
	cfg         WireIMAPConfig
	demoStories []map[string]any

	mu     sync.Mutex
	client *imapclient.Client
}

// NewWireServiceConnector builds the wire mailbox adapter. demo is
// forced on when no IMAP server is configured. demoStories overrides
// the built-in demo wire feed (nil keeps the default).
func NewWireServiceConnector(cfg WireIMAPConfig, demoStories []map[string]any, demo bool, logger *slog.Logger) *WireServiceConnector {
	if cfg.Host == "" {
		demo = true
	}
	if cfg.Port == 0 {
		cfg.Port = 993
		cfg.TLS = true
	}
	if cfg.Folder == "" {
		cfg.Folder = "INBOX"
	}
	if demoStories == nil {
		demoStories = defaultDemoWireStories
	}
	return &WireServiceConnector{
		Base:        NewBase("wire_services", "Wire Services (IMAP)", CategoryWireServices, AuthBasic, demo, logger),
		cfg:         cfg,
		demoStories: demoStories,
	}
}

var defaultDemoWireStories = []map[string]any{
	{
		"source": "AP", "priority": "urgent",
		"headline": "Severe weather system approaching metro area, evacuations ordered",
		"received": "2m ago",
	},
	{
		"source": "Reuters", "priority": "routine",
		"headline": "Markets close mixed as tech sector rallies",
		"received": "11m ago",
	},
	{
		"source": "AFP", "priority": "bulletin",
		"headline": "Election results certified in three contested districts",
		"received": "26m ago",
	},
}

func (c *WireServiceConnector) Connect(ctx context.Context) bool {
	return c.connect(ctx, c.authenticate)
}

func (c *WireServiceConnector) authenticate(ctx context.Context) bool {
	if c.Demo() {
		c.Logger().Info("wire connector in demo mode, no mailbox connection")
		return true
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectLocked() == nil
}

// connectLocked dials and logs in. Caller must hold c.mu.
func (c *WireServiceConnector) connectLocked() error {
	if c.client != nil {
		_ = c.client.Close()
		c.client = nil
	}

	addr := net.JoinHostPort(c.cfg.Host, fmt.Sprintf("%d", c.cfg.Port))
	var opts imapclient.Options
	if c.cfg.TLS {
		opts.TLSConfig = &tls.Config{ServerName: c.cfg.Host}
	}

	var client *imapclient.Client
	var err error
	if c.cfg.TLS {
		client, err = imapclient.DialTLS(addr, &opts)
	} else {
		client, err = imapclient.DialInsecure(addr, &opts)
	}
	if err != nil {
		c.Logger().Error("dial wire mailbox", "addr", addr, "error", err)
		return err
	}

	if err := client.Login(c.cfg.Username, c.cfg.Password).Wait(); err != nil {
		_ = client.Close()
		c.Logger().Error("wire mailbox login", "user", c.cfg.Username, "error", err)
		return err
	}

	c.client = client
	return nil
}

// ensureConnected checks liveness with a NOOP and reconnects if stale.
// Caller must hold c.mu.
func (c *WireServiceConnector) ensureConnected() error {
	if c.client != nil {
		if err := c.client.Noop().Wait(); err == nil {
			return nil
		}
		c.Logger().Debug("wire mailbox connection stale, reconnecting")
	}
	return c.connectLocked()
}

func (c *WireServiceConnector) Disconnect(ctx context.Context) {
	c.mu.Lock()
	if c.client != nil {
		_ = c.client.Close()
		c.client = nil
	}
	c.mu.Unlock()
	c.Base.Disconnect(ctx)
}

func (c *WireServiceConnector) HealthCheck(ctx context.Context) HealthResult {
	if c.Demo() {
		return c.healthOK("demo mode, always healthy", 1.0)
	}
	start := time.Now()
	c.mu.Lock()
	err := c.ensureConnected()
	c.mu.Unlock()
	if err != nil {
		return c.healthError(err.Error())
	}
	return c.healthOK("mailbox reachable", float64(time.Since(start).Milliseconds()))
}

// Read returns recent wire stories. params: {"limit": N, "unseen": bool}.
func (c *WireServiceConnector) Read(ctx context.Context, params map[string]any) Result {
	if c.Demo() {
		stories := make([]any, len(c.demoStories))
		for i, s := range c.demoStories {
			stories[i] = s
		}
		return c.demoResult(map[string]any{"stories": stories, "folder": c.cfg.Folder})
	}

	limit := intParam(params, "limit", 20)
	unseenOnly := true
	if v, ok := params["unseen"].(bool); ok {
		unseenOnly = v
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.ensureConnected(); err != nil {
		return c.errorResult(err.Error())
	}

	if _, err := c.client.Select(c.cfg.Folder, nil).Wait(); err != nil {
		return c.errorResult(fmt.Sprintf("select %s: %v", c.cfg.Folder, err))
	}

	criteria := &imap.SearchCriteria{}
	if unseenOnly {
		criteria.NotFlag = append(criteria.NotFlag, imap.FlagSeen)
	}
	searchData, err := c.client.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return c.errorResult(fmt.Sprintf("search %s: %v", c.cfg.Folder, err))
	}

	allUIDs := searchData.AllUIDs()
	if len(allUIDs) > limit {
		allUIDs = allUIDs[len(allUIDs)-limit:]
	}
	if len(allUIDs) == 0 {
		return c.productionResult(map[string]any{"stories": []any{}, "folder": c.cfg.Folder})
	}

	uidSet := imap.UIDSet{}
	for _, uid := range allUIDs {
		uidSet.AddNum(uid)
	}

	fetchCmd := c.client.Fetch(uidSet, &imap.FetchOptions{
		UID:      true,
		Envelope: true,
		BodySection: []*imap.FetchItemBodySection{
			{Peek: true}, // reading the wire feed must not mark stories \Seen
		},
	})
	var stories []any
	for {
		msg := fetchCmd.Next()
		if msg == nil {
			break
		}
		var story map[string]any
		var rawBody []byte
		for {
			item := msg.Next()
			if item == nil {
				break
			}
			switch data := item.(type) {
			case imapclient.FetchItemDataEnvelope:
				if data.Envelope != nil {
					story = map[string]any{
						"source":   wireSource(data.Envelope),
						"headline": data.Envelope.Subject,
						"priority": wirePriority(data.Envelope.Subject),
						"received": data.Envelope.Date.Format(time.RFC3339),
					}
				}
			case imapclient.FetchItemDataBodySection:
				// The literal streams off the IMAP connection; read it
				// now or lose it when msg.Next() advances.
				if data.Literal == nil {
					continue
				}
				var readErr error
				rawBody, readErr = io.ReadAll(io.LimitReader(data.Literal, maxWireStorySize))
				_, _ = io.Copy(io.Discard, data.Literal)
				if readErr != nil {
					rawBody = nil
				}
			}
		}
		if story == nil {
			continue
		}
		if preview := wireBodyPreview(rawBody); preview != "" {
			story["body_preview"] = preview
		}
		stories = append(stories, story)
	}
	if err := fetchCmd.Close(); err != nil {
		return c.errorResult(fmt.Sprintf("fetch stories: %v", err))
	}

	// Newest-first.
	for i, j := 0, len(stories)-1; i < j; i, j = i+1, j-1 {
		stories[i], stories[j] = stories[j], stories[i]
	}
	return c.productionResult(map[string]any{"stories": stories, "folder": c.cfg.Folder})
}

// wireSource maps the sending address onto an agency name.
func wireSource(env *imap.Envelope) string {
	if len(env.From) == 0 {
		return "unknown"
	}
	host := env.From[0].Host
	switch {
	case strings.Contains(host, "ap.org"):
		return "AP"
	case strings.Contains(host, "reuters"):
		return "Reuters"
	case strings.Contains(host, "afp"):
		return "AFP"
	default:
		return host
	}
}

// maxWireStorySize bounds the raw RFC822 bytes buffered per story.
const maxWireStorySize = 256 * 1024

// wireBodyPreview extracts the first text/plain part of a wire story
// and truncates it for the story record. go-message may return a valid
// reader alongside an unknown-charset error; those are non-fatal.
func wireBodyPreview(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if mr == nil || (err != nil && !message.IsUnknownCharset(err)) {
		return ""
	}
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return ""
		}
		if err != nil && !message.IsUnknownCharset(err) {
			return ""
		}
		if part == nil {
			continue
		}
		header, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		contentType, _, _ := header.ContentType()
		if contentType != "text/plain" {
			continue
		}
		body, err := io.ReadAll(io.LimitReader(part.Body, 1024))
		if err != nil {
			return ""
		}
		preview := strings.TrimSpace(string(body))
		if len(preview) > 280 {
			preview = preview[:280]
		}
		return preview
	}
}

// wirePriority reads the agency priority convention off the subject
// line prefix.
func wirePriority(subject string) string {
	upper := strings.ToUpper(subject)
	switch {
	case strings.HasPrefix(upper, "FLASH"):
		return "flash"
	case strings.HasPrefix(upper, "BULLETIN"):
		return "bulletin"
	case strings.HasPrefix(upper, "URGENT"):
		return "urgent"
	default:
		return "routine"
	}
}

// Write is unsupported: wire mailboxes are inbound-only.
func (c *WireServiceConnector) Write(ctx context.Context, data any, params map[string]any) Result {
	return c.errorResult("wire service mailbox is read-only")
}

func (c *WireServiceConnector) ToolDefinitions() []ToolDefinition {
	return []ToolDefinition{
		{
			Name:        "wire_read_stories",
			Description: "Read recent wire-service stories from the agency alert mailbox",
			InputSchema: objectSchema(nil, map[string]any{
				"limit":  map[string]any{"type": "integer", "default": 20},
				"unseen": map[string]any{"type": "boolean", "default": true},
			}),
			ConnectorID: c.ID(),
			Operation:   OpRead,
		},
	}
}
