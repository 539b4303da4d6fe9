package connectors

import (
	"log/slog"
	"path/filepath"
	"time"

	"github.com/mediaagentiq/orchestrator/internal/config"
)

// RegisterDefaults registers the standard connector set. The
// registry-wide demo default is !cfg.ProductionMode; a connector with
// real credentials configured switches to production independently,
// while one missing credentials forces itself back to demo.
func RegisterDefaults(reg *Registry, cfg *config.Settings, logger *slog.Logger) {
	demo := !cfg.ProductionMode
	timeout := time.Duration(cfg.APITimeoutSeconds) * time.Second

	reg.Register(NewSlackConnector(
		cfg.SlackBotToken, cfg.SlackDefaultChannel, demo || !cfg.IsSlackConfigured(), timeout, logger))

	reg.Register(NewTeamsConnector(
		cfg.TeamsAppID, cfg.TeamsAppPassword, cfg.TeamsTenantID, demo || !cfg.IsTeamsConfigured(), timeout, logger))

	reg.Register(NewSignalTelemetryConnector(
		cfg.SignalMQTTBroker, demo, logger))

	reg.Register(NewWireServiceConnector(WireIMAPConfig{
		Host:     cfg.WireIMAPServer,
		Username: cfg.WireIMAPUsername,
		Password: cfg.WireIMAPPassword,
		TLS:      true,
	}, nil, demo, logger))

	reg.Register(NewMAMStorageConnector(
		cfg.MAMWebDAVURL, cfg.MAMWebDAVUsername, cfg.MAMWebDAVPassword, demo, timeout, logger))

	reg.Register(NewNewsroomTicketConnector(
		cfg.NewsroomGitHubRepo, cfg.GitHubToken, demo, timeout, logger))

	reg.Register(NewSecondScreenQRConnector(
		filepath.Join(cfg.MemoryDir, "qr"), demo, logger))

	reg.Register(NewLiveFeedConnector(
		cfg.LiveFeedWSURL, demo, logger))
}
