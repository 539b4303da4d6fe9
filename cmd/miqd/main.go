// Package main is the entry point for the MediaAgentIQ orchestrator
// daemon.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mediaagentiq/orchestrator/internal/agentkit"
	"github.com/mediaagentiq/orchestrator/internal/agents"
	"github.com/mediaagentiq/orchestrator/internal/buildinfo"
	"github.com/mediaagentiq/orchestrator/internal/config"
	"github.com/mediaagentiq/orchestrator/internal/connectors"
	"github.com/mediaagentiq/orchestrator/internal/gateway"
	"github.com/mediaagentiq/orchestrator/internal/httpkit"
	"github.com/mediaagentiq/orchestrator/internal/memory"
	"github.com/mediaagentiq/orchestrator/internal/orchestrator"
	"github.com/mediaagentiq/orchestrator/internal/queue"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	if flag.NArg() > 0 {
		switch flag.Arg(0) {
		case "serve":
			runServe(logger, *configPath)
		case "status":
			runStatus(logger, *configPath)
		case "version":
			fmt.Println(buildinfo.String())
			for k, v := range buildinfo.BuildInfo() {
				fmt.Printf("  %-12s %s\n", k+":", v)
			}
		default:
			fmt.Fprintf(os.Stderr, "unknown command: %s\n", flag.Arg(0))
			os.Exit(1)
		}
		return
	}

	fmt.Println("miqd - MediaAgentIQ Autonomous Orchestrator")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  serve    Start the orchestrator and gateway")
	fmt.Println("  status   Query a running instance's health")
	fmt.Println("  version  Show version")
	fmt.Println()
	fmt.Println("Flags:")
	flag.PrintDefaults()
}

// loadSettings finds and loads the config file, falling back to
// environment-only settings when none exists.
func loadSettings(logger *slog.Logger, configPath string) *config.Settings {
	path, err := config.FindConfig(configPath)
	if err != nil {
		if configPath != "" {
			logger.Error("config", "error", err)
			os.Exit(1)
		}
		logger.Info("no config file found, using environment")
		return config.FromEnv()
	}

	cfg, err := config.Load(path)
	if err != nil {
		logger.Error("config", "path", path, "error", err)
		os.Exit(1)
	}
	logger.Info("config loaded", "path", path)
	return cfg
}

func buildLogger(cfg *config.Settings) *slog.Logger {
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	if cfg.LogLevel != "" {
		if parsed, err := config.ParseLogLevel(cfg.LogLevel); err == nil {
			level = parsed
		}
	}
	opts := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: config.ReplaceLogLevelNames,
	}
	if cfg.Debug {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func runServe(bootLogger *slog.Logger, configPath string) {
	cfg := loadSettings(bootLogger, configPath)
	logger := buildLogger(cfg)
	slog.SetDefault(logger)

	logger.Info("starting", "build", buildinfo.String(), "production_mode", cfg.ProductionMode)

	// Memory layer.
	if err := memory.EnsureUserProfile(cfg.MemoryDir); err != nil {
		logger.Warn("user profile init failed", "error", err)
	}
	taskHistory, err := memory.OpenTaskHistory(cfg.MemoryDir)
	if err != nil {
		logger.Error("task history", "error", err)
		os.Exit(1)
	}
	interAgentLog, err := memory.OpenInterAgentLog(cfg.MemoryDir)
	if err != nil {
		logger.Error("inter-agent log", "error", err)
		os.Exit(1)
	}

	var archiveStore *memory.ArchiveStore
	if cfg.ArchiveDBPath != "off" {
		archiveStore, err = memory.NewArchiveStore(cfg.ArchiveDBPath, logger)
		if err != nil {
			logger.Warn("archive database unavailable, archive agent degrades to mock results", "error", err)
			archiveStore = nil
		} else {
			defer archiveStore.Close()
		}
	}

	// Agents behind their runtime wrappers.
	integrations := agents.Integrations{
		OpenAI:           cfg.IsOpenAIConfigured(),
		AWS:              cfg.IsAWSConfigured(),
		INews:            cfg.IsINewsConfigured(),
		AutomationServer: cfg.IsAutomationConfigured(),
	}
	registry := agents.NewRegistry(integrations, archiveStore)
	wrapped := make(map[string]*agentkit.BaseAgent, len(registry))
	for key, agent := range registry {
		journal, err := memory.OpenJournal(cfg.MemoryDir, agent.Name(),
			cfg.MemoryMaxEntriesPerAgent, cfg.MemoryTrimTo)
		if err != nil {
			logger.Error("journal", "agent", key, "error", err)
			os.Exit(1)
		}
		wrapped[key] = agentkit.NewBaseAgent(key, agent, journal, cfg.ProductionMode, logger)
	}

	// Orchestrator core.
	core := orchestrator.New(orchestrator.Options{
		Logger:        logger,
		Agents:        wrapped,
		Subscriptions: orchestrator.DefaultSubscriptions(),
		InterAgentLog: interAgentLog,
		TaskHistory:   taskHistory,
		HistoryMax:    cfg.MemoryMaxEntriesPerAgent,
		HistoryTrim:   cfg.MemoryTrimTo,
		OnTaskComplete: func(t *queue.Task) {
			if archiveStore == nil || t.Result == nil {
				return
			}
			content := fmt.Sprintf("%v", t.Input)
			if t.Result.Data != nil {
				content += " :: " + memory.SummarizeOutput(t.AgentKey, t.Result.Data)
			}
			if err := archiveStore.IndexEntry(t.AgentKey, t.ID, content, t.Result.Success, t.CompletedAt); err != nil {
				logger.Debug("archive index failed", "task_id", t.ID, "error", err)
			}
		},
	})
	core.SetupDefaultSchedules()

	// Connectors.
	connReg := connectors.NewRegistry(logger)
	connectors.RegisterDefaults(connReg, cfg, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	connReg.ConnectAll(ctx)
	logger.Info(connReg.StatusSummary())

	// Periodic connector health checks.
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				connReg.HealthCheckAll(ctx)
			}
		}
	}()

	core.Start(ctx)

	// Gateway.
	timeout := time.Duration(cfg.APITimeoutSeconds) * time.Second
	llm := gateway.NewLLMRouter(cfg.OpenAIAPIKey, cfg.OpenAIModel, timeout, logger)
	conv := gateway.NewConversationManager(logger)
	go conv.StartSweeper(ctx, 5*time.Minute)

	slackConn, _ := connReg.Get("slack")
	teamsConn, _ := connReg.Get("teams")
	handler := gateway.NewHandler(gateway.HandlerOptions{
		Logger:        logger,
		Router:        gateway.NewRouter(logger, llm),
		Conversations: conv,
		Core:          core,
		Registry:      connReg,
		Slack:         slackConn.(*connectors.SlackConnector),
		Teams:         teamsConn.(*connectors.TeamsConnector),
		SigningSecret: cfg.SlackSigningSecret,
		Timeout:       timeout,
	})

	mux := http.NewServeMux()
	handler.Routes(mux)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("gateway listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "error", err)
	}
	core.Stop()
	connReg.DisconnectAll(shutdownCtx)
	logger.Info("goodbye")
}

// runStatus queries a running instance's gateway health endpoint.
func runStatus(bootLogger *slog.Logger, configPath string) {
	cfg := loadSettings(bootLogger, configPath)

	client := httpkit.NewClient(httpkit.WithTimeout(5 * time.Second))
	url := fmt.Sprintf("http://%s:%d/gateway/health", cfg.Host, cfg.Port)
	resp, err := client.Get(url)
	if err != nil {
		fmt.Fprintf(os.Stderr, "not reachable: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	var health map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		fmt.Fprintf(os.Stderr, "bad health payload: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("status:           %v\n", health["status"])
	fmt.Printf("active sessions:  %v\n", health["active_sessions"])
}
