package connectors

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	qrcode "github.com/skip2/go-qrcode"
)

// SecondScreenQRConnector renders second-screen QR codes for social
// campaigns: the social publishing agent attaches one to each on-air
// lower third so viewers can jump to the clip or poll from their phone.
// QR generation is local, so demo and production differ only in whether
// the PNG is persisted for the graphics playout chain.
type SecondScreenQRConnector struct {
	*Base
	outputDir string
}

// NewSecondScreenQRConnector builds the QR generator. outputDir is
// where production PNGs land (empty keeps codes in-memory only).
func NewSecondScreenQRConnector(outputDir string, demo bool, logger *slog.Logger) *SecondScreenQRConnector {
	return &SecondScreenQRConnector{
		Base:      NewBase("social_qr", "Second-Screen QR", CategorySocial, AuthNone, demo, logger),
		outputDir: outputDir,
	}
}

func (c *SecondScreenQRConnector) Connect(ctx context.Context) bool {
	return c.connect(ctx, func(context.Context) bool { return true })
}

func (c *SecondScreenQRConnector) HealthCheck(ctx context.Context) HealthResult {
	// Rendering is local; health is a self-test encode.
	start := time.Now()
	if _, err := qrcode.Encode("https://example.com/health", qrcode.Low, 64); err != nil {
		return c.healthError(err.Error())
	}
	return c.healthOK("encoder operational", float64(time.Since(start).Milliseconds()))
}

// Read reports generation capabilities.
func (c *SecondScreenQRConnector) Read(ctx context.Context, params map[string]any) Result {
	data := map[string]any{
		"formats":         []any{"png"},
		"recovery_levels": []any{"low", "medium", "high", "highest"},
		"max_size_px":     1024,
	}
	if c.Demo() {
		return c.demoResult(data)
	}
	return c.productionResult(data)
}

// Write renders a QR code for a URL. data: {"url": ..., "size": 256,
// "label": "campaign slug"}. The PNG comes back base64-encoded; in
// production mode it is also written under outputDir for the graphics
// chain to pick up.
func (c *SecondScreenQRConnector) Write(ctx context.Context, data any, params map[string]any) Result {
	payload, _ := data.(map[string]any)
	target := stringParam(payload, "url", "")
	if target == "" {
		return c.errorResult("qr write requires a url")
	}
	size := intParam(payload, "size", 256)
	if size < 64 || size > 1024 {
		size = 256
	}

	png, err := qrcode.Encode(target, qrcode.Medium, size)
	if err != nil {
		return c.errorResult(fmt.Sprintf("encode qr: %v", err))
	}

	result := map[string]any{
		"url":        target,
		"size_px":    size,
		"png_base64": base64.StdEncoding.EncodeToString(png),
	}

	if c.Demo() {
		return c.demoResult(result)
	}

	if c.outputDir != "" {
		label := stringParam(payload, "label", "qr")
		file := filepath.Join(c.outputDir, fmt.Sprintf("%s-%d.png", memorySafeSlug(label), time.Now().Unix()))
		if err := os.MkdirAll(c.outputDir, 0o755); err != nil {
			return c.errorResult(fmt.Sprintf("create qr dir: %v", err))
		}
		if err := os.WriteFile(file, png, 0o644); err != nil {
			return c.errorResult(fmt.Sprintf("write qr png: %v", err))
		}
		result["file"] = file
	}
	return c.productionResult(result)
}

// memorySafeSlug keeps QR filenames filesystem-safe.
func memorySafeSlug(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			out = append(out, r)
		case r >= 'A' && r <= 'Z':
			out = append(out, r+('a'-'A'))
		case r == ' ':
			out = append(out, '_')
		}
	}
	if len(out) == 0 {
		return "qr"
	}
	return string(out)
}

func (c *SecondScreenQRConnector) ToolDefinitions() []ToolDefinition {
	return []ToolDefinition{
		{
			Name:        "social_generate_qr",
			Description: "Render a second-screen QR code PNG for a campaign URL",
			InputSchema: objectSchema([]string{"url"}, map[string]any{
				"url":   map[string]any{"type": "string"},
				"size":  map[string]any{"type": "integer", "default": 256},
				"label": map[string]any{"type": "string", "description": "Campaign slug used in the output filename"},
			}),
			ConnectorID: c.ID(),
			Operation:   OpWrite,
		},
	}
}
