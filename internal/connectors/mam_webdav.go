package connectors

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/emersion/go-webdav"

	"github.com/mediaagentiq/orchestrator/internal/httpkit"
)

// MAMStorageConnector exposes the facility's media asset store over
// WebDAV: proxy browsing for the archive agent, sidecar uploads
// (captions, compliance reports) for the pipeline agents.
type MAMStorageConnector struct {
	*Base
	endpoint string
	username string
	password string
	timeout  time.Duration

	client *webdav.Client
}

// NewMAMStorageConnector builds the MAM adapter. demo is forced on when
// no WebDAV endpoint is configured.
func NewMAMStorageConnector(endpoint, username, password string, demo bool, timeout time.Duration, logger *slog.Logger) *MAMStorageConnector {
	if endpoint == "" {
		demo = true
	}
	return &MAMStorageConnector{
		Base:     NewBase("mam_storage", "MAM Storage (WebDAV)", CategoryMAM, AuthBasic, demo, logger),
		endpoint: endpoint,
		username: username,
		password: password,
		timeout:  timeout,
	}
}

func (c *MAMStorageConnector) Connect(ctx context.Context) bool {
	return c.connect(ctx, c.authenticate)
}

func (c *MAMStorageConnector) authenticate(ctx context.Context) bool {
	if c.Demo() {
		c.Logger().Info("MAM connector in demo mode, no WebDAV connection")
		return true
	}

	httpClient := webdav.HTTPClientWithBasicAuth(
		httpkit.NewClient(httpkit.WithTimeout(c.timeout)), c.username, c.password)
	client, err := webdav.NewClient(httpClient, c.endpoint)
	if err != nil {
		c.Logger().Error("webdav client", "endpoint", c.endpoint, "error", err)
		return false
	}
	if _, err := client.Stat(ctx, "/"); err != nil {
		c.Logger().Error("webdav root stat", "error", err)
		return false
	}
	c.client = client
	return true
}

func (c *MAMStorageConnector) HealthCheck(ctx context.Context) HealthResult {
	if c.Demo() {
		return c.healthOK("demo mode, always healthy", 1.0)
	}
	if c.client == nil {
		return c.healthError("no WebDAV session")
	}
	start := time.Now()
	if _, err := c.client.Stat(ctx, "/"); err != nil {
		return c.healthError(err.Error())
	}
	return c.healthOK("WebDAV endpoint reachable", float64(time.Since(start).Milliseconds()))
}

// Read lists a collection or stats a single asset.
// params: {"path": "/news/2026", "recursive": bool}.
func (c *MAMStorageConnector) Read(ctx context.Context, params map[string]any) Result {
	assetPath := stringParam(params, "path", "/")

	if c.Demo() {
		return c.demoResult(map[string]any{
			"path": assetPath,
			"assets": []any{
				map[string]any{"path": "/news/2026/0801_evening_block.mxf", "size_mb": 4820, "mime": "application/mxf"},
				map[string]any{"path": "/news/2026/0801_evening_block_proxy.mp4", "size_mb": 310, "mime": "video/mp4"},
				map[string]any{"path": "/promo/fall_lineup_v3.mov", "size_mb": 1240, "mime": "video/quicktime"},
			},
		})
	}
	if c.client == nil {
		return c.errorResult("no WebDAV session")
	}

	recursive := false
	if v, ok := params["recursive"].(bool); ok {
		recursive = v
	}
	infos, err := c.client.ReadDir(ctx, assetPath, recursive)
	if err != nil {
		return c.errorResult(fmt.Sprintf("readdir %s: %v", assetPath, err))
	}

	assets := make([]any, 0, len(infos))
	for _, info := range infos {
		if info.IsDir {
			continue
		}
		assets = append(assets, map[string]any{
			"path":     info.Path,
			"size_mb":  info.Size / (1024 * 1024),
			"mime":     info.MIMEType,
			"modified": info.ModTime.Format(time.RFC3339),
		})
	}
	return c.productionResult(map[string]any{"path": assetPath, "assets": assets})
}

// Write uploads a sidecar artifact next to an asset. data is the file
// body (string or []byte); params: {"path": "/news/clip.srt"}.
func (c *MAMStorageConnector) Write(ctx context.Context, data any, params map[string]any) Result {
	assetPath := stringParam(params, "path", "")
	if assetPath == "" {
		return c.errorResult("mam write requires a path param")
	}

	if c.Demo() {
		c.Logger().Info("demo MAM upload", "path", assetPath)
		return c.demoResult(map[string]any{"path": assetPath, "uploaded": true})
	}
	if c.client == nil {
		return c.errorResult("no WebDAV session")
	}

	var body []byte
	switch v := data.(type) {
	case string:
		body = []byte(v)
	case []byte:
		body = v
	default:
		return c.errorResult(fmt.Sprintf("unsupported payload type %T for MAM upload", data))
	}

	if dir := path.Dir(assetPath); dir != "/" && dir != "." {
		// Best-effort; an existing collection is not an error.
		_ = c.client.Mkdir(ctx, dir)
	}

	w, err := c.client.Create(ctx, assetPath)
	if err != nil {
		return c.errorResult(fmt.Sprintf("create %s: %v", assetPath, err))
	}
	if _, err := io.Copy(w, strings.NewReader(string(body))); err != nil {
		_ = w.Close()
		return c.errorResult(fmt.Sprintf("upload %s: %v", assetPath, err))
	}
	if err := w.Close(); err != nil {
		return c.errorResult(fmt.Sprintf("finalize %s: %v", assetPath, err))
	}
	return c.productionResult(map[string]any{"path": assetPath, "uploaded": true, "bytes": len(body)})
}

func (c *MAMStorageConnector) ToolDefinitions() []ToolDefinition {
	return []ToolDefinition{
		{
			Name:        "mam_list_assets",
			Description: "List media assets in a MAM storage collection",
			InputSchema: objectSchema(nil, map[string]any{
				"path":      map[string]any{"type": "string", "default": "/"},
				"recursive": map[string]any{"type": "boolean", "default": false},
			}),
			ConnectorID: c.ID(),
			Operation:   OpRead,
		},
		{
			Name:        "mam_upload_sidecar",
			Description: "Upload a sidecar artifact (SRT/VTT captions, QC report) next to a MAM asset",
			InputSchema: objectSchema([]string{"path", "data"}, map[string]any{
				"path": map[string]any{"type": "string"},
				"data": map[string]any{"type": "string", "description": "File body"},
			}),
			ConnectorID: c.ID(),
			Operation:   OpWrite,
		},
	}
}
