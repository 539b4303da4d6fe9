// Package config handles MediaAgentIQ configuration loading.
//
// Settings come from two layers: an optional YAML config file (located
// via DefaultSearchPaths) and environment variables, which always win.
// Missing credentials for a production integration never fail startup —
// the affected integration simply runs in demo mode.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultSearchPaths returns the config file search order.
// An explicit path (from -config flag) is checked first.
// Then: ./config.yaml, ~/.config/miqd/config.yaml, /config/config.yaml,
// /etc/miqd/config.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"config.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "miqd", "config.yaml"))
	}

	paths = append(paths, "/config/config.yaml") // Container convention
	paths = append(paths, "/etc/miqd/config.yaml")
	return paths
}

// searchPathsFunc is swappable in tests so FindConfig doesn't pick up
// real config files on developer machines.
var searchPathsFunc = DefaultSearchPaths

// FindConfig locates a config file. If explicit is non-empty, it must exist.
// Otherwise, searches DefaultSearchPaths and returns the first that exists.
// Returns the path found, or an error if nothing was found.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range searchPathsFunc() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched: %v)", searchPathsFunc())
}

// Settings holds all MediaAgentIQ configuration. Field names mirror the
// flat environment key table; the YAML file uses the lowercase form.
type Settings struct {
	// Master switch: when false every agent runs its demo branch
	// regardless of which credentials are present.
	ProductionMode bool `yaml:"production_mode"`

	// OpenAI — enables production branches of LLM-backed agents and the
	// router's tier-3 fallback.
	OpenAIAPIKey string `yaml:"openai_api_key"`
	OpenAIModel  string `yaml:"openai_model"`

	// Slack channel connector.
	SlackBotToken       string `yaml:"slack_bot_token"`
	SlackSigningSecret  string `yaml:"slack_signing_secret"`
	SlackDefaultChannel string `yaml:"slack_default_channel"`

	// Teams channel connector (Bot Framework).
	TeamsAppID       string `yaml:"teams_app_id"`
	TeamsAppPassword string `yaml:"teams_app_password"`
	TeamsTenantID    string `yaml:"teams_tenant_id"`

	// Memory journal sizing.
	MemoryDir                  string `yaml:"memory_dir"`
	MemoryMaxEntriesPerAgent   int    `yaml:"memory_max_entries_per_agent"`
	MemoryTrimTo               int    `yaml:"memory_trim_to"`
	MemoryRecentContextEntries int    `yaml:"memory_recent_context_entries"`

	// Archive database (FTS5 search collaborator). Defaults to
	// <memory_dir>/archive.db; the literal value "off" disables it.
	ArchiveDBPath string `yaml:"archive_db_path"`

	// Broadcast-stack integrations consumed by individual connectors and
	// agents. All optional; absence downgrades the consumer to demo.
	AWSMediaConvertEndpoint string `yaml:"aws_mediaconvert_endpoint"`
	AWSMediaConvertRoleARN  string `yaml:"aws_mediaconvert_role_arn"`
	AutomationServerURL     string `yaml:"automation_server_url"`
	AutomationServerType    string `yaml:"automation_server_type"`
	INewsAPIURL             string `yaml:"inews_api_url"`
	CDNProvider             string `yaml:"cdn_provider"`

	// Connector transports.
	SignalMQTTBroker   string `yaml:"signal_mqtt_broker"`
	WireIMAPServer     string `yaml:"wire_imap_server"`
	WireIMAPUsername   string `yaml:"wire_imap_username"`
	WireIMAPPassword   string `yaml:"wire_imap_password"`
	MAMWebDAVURL       string `yaml:"mam_webdav_url"`
	MAMWebDAVUsername  string `yaml:"mam_webdav_username"`
	MAMWebDAVPassword  string `yaml:"mam_webdav_password"`
	NewsroomGitHubRepo string `yaml:"newsroom_github_repo"` // "owner/repo"
	GitHubToken        string `yaml:"github_token"`
	LiveFeedWSURL      string `yaml:"live_feed_ws_url"`

	// External call timeout, seconds.
	APITimeoutSeconds int `yaml:"api_timeout_seconds"`

	// HTTP server binding.
	Host  string `yaml:"host"`
	Port  int    `yaml:"port"`
	Debug bool   `yaml:"debug"`

	LogLevel string `yaml:"log_level"`
}

// applyEnv overlays recognized environment keys onto s. Unknown
// environment keys are simply never looked up, which matches the
// "unknown keys are ignored" contract.
func (s *Settings) applyEnv(lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(key); ok {
			switch strings.ToLower(strings.TrimSpace(v)) {
			case "1", "true", "yes", "on":
				*dst = true
			case "0", "false", "no", "off":
				*dst = false
			}
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := lookup(key); ok {
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				*dst = n
			}
		}
	}

	boolean("PRODUCTION_MODE", &s.ProductionMode)
	str("OPENAI_API_KEY", &s.OpenAIAPIKey)
	str("OPENAI_MODEL", &s.OpenAIModel)
	str("SLACK_BOT_TOKEN", &s.SlackBotToken)
	str("SLACK_SIGNING_SECRET", &s.SlackSigningSecret)
	str("SLACK_DEFAULT_CHANNEL", &s.SlackDefaultChannel)
	str("TEAMS_APP_ID", &s.TeamsAppID)
	str("TEAMS_APP_PASSWORD", &s.TeamsAppPassword)
	str("TEAMS_TENANT_ID", &s.TeamsTenantID)
	str("MEMORY_DIR", &s.MemoryDir)
	integer("MEMORY_MAX_ENTRIES_PER_AGENT", &s.MemoryMaxEntriesPerAgent)
	integer("MEMORY_TRIM_TO", &s.MemoryTrimTo)
	integer("MEMORY_RECENT_CONTEXT_ENTRIES", &s.MemoryRecentContextEntries)
	str("ARCHIVE_DB_PATH", &s.ArchiveDBPath)
	str("AWS_MEDIACONVERT_ENDPOINT", &s.AWSMediaConvertEndpoint)
	str("AWS_MEDIACONVERT_ROLE_ARN", &s.AWSMediaConvertRoleARN)
	str("AUTOMATION_SERVER_URL", &s.AutomationServerURL)
	str("AUTOMATION_SERVER_TYPE", &s.AutomationServerType)
	str("INEWS_API_URL", &s.INewsAPIURL)
	str("CDN_PROVIDER", &s.CDNProvider)
	str("SIGNAL_MQTT_BROKER", &s.SignalMQTTBroker)
	str("WIRE_IMAP_SERVER", &s.WireIMAPServer)
	str("WIRE_IMAP_USERNAME", &s.WireIMAPUsername)
	str("WIRE_IMAP_PASSWORD", &s.WireIMAPPassword)
	str("MAM_WEBDAV_URL", &s.MAMWebDAVURL)
	str("MAM_WEBDAV_USERNAME", &s.MAMWebDAVUsername)
	str("MAM_WEBDAV_PASSWORD", &s.MAMWebDAVPassword)
	str("NEWSROOM_GITHUB_REPO", &s.NewsroomGitHubRepo)
	str("GITHUB_TOKEN", &s.GitHubToken)
	str("LIVE_FEED_WS_URL", &s.LiveFeedWSURL)
	integer("API_TIMEOUT_SECONDS", &s.APITimeoutSeconds)
	str("HOST", &s.Host)
	integer("PORT", &s.Port)
	boolean("DEBUG", &s.Debug)
	str("LOG_LEVEL", &s.LogLevel)
}

// Load reads the YAML file at path (skipped when path is empty), overlays
// environment variables, applies defaults, and validates the result.
// After Load returns successfully, all fields are usable without
// additional nil/empty checks.
func Load(path string) (*Settings, error) {
	s := &Settings{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		// Expand environment variables (e.g., ${SLACK_BOT_TOKEN}) so
		// secrets can be referenced from container env without being
		// written into the file.
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), s); err != nil {
			return nil, err
		}
	}

	s.applyEnv(os.LookupEnv)
	s.applyDefaults()

	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return s, nil
}

// FromEnv builds Settings from environment variables only, with defaults
// applied. Used when no config file exists; never fails on missing keys.
func FromEnv() *Settings {
	s := &Settings{}
	s.applyEnv(os.LookupEnv)
	s.applyDefaults()
	return s
}

// applyDefaults fills in zero-value fields with sensible defaults.
func (s *Settings) applyDefaults() {
	if s.OpenAIModel == "" {
		s.OpenAIModel = "gpt-4-turbo-preview"
	}
	if s.SlackDefaultChannel == "" {
		s.SlackDefaultChannel = "#mediaagentiq"
	}
	if s.TeamsTenantID == "" {
		s.TeamsTenantID = "common"
	}
	if s.MemoryDir == "" {
		s.MemoryDir = "memory"
	}
	if s.MemoryMaxEntriesPerAgent == 0 {
		s.MemoryMaxEntriesPerAgent = 2000
	}
	if s.MemoryTrimTo == 0 {
		s.MemoryTrimTo = 1800
	}
	if s.MemoryRecentContextEntries == 0 {
		s.MemoryRecentContextEntries = 10
	}
	if s.ArchiveDBPath == "" {
		s.ArchiveDBPath = filepath.Join(s.MemoryDir, "archive.db")
	}
	if s.AutomationServerType == "" {
		s.AutomationServerType = "harmonic"
	}
	if s.CDNProvider == "" {
		s.CDNProvider = "cloudfront"
	}
	if s.APITimeoutSeconds == 0 {
		s.APITimeoutSeconds = 30
	}
	if s.Host == "" {
		s.Host = "127.0.0.1"
	}
	if s.Port == 0 {
		s.Port = 8000
	}
}

// Validate checks that the configuration is internally consistent.
// It runs after applyDefaults, so it can assume defaults are populated.
// Returns an error describing the first problem found, or nil.
func (s *Settings) Validate() error {
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("port %d out of range (1-65535)", s.Port)
	}
	if s.MemoryTrimTo > s.MemoryMaxEntriesPerAgent {
		return fmt.Errorf("memory_trim_to %d exceeds memory_max_entries_per_agent %d",
			s.MemoryTrimTo, s.MemoryMaxEntriesPerAgent)
	}
	if s.APITimeoutSeconds < 1 {
		return fmt.Errorf("api_timeout_seconds must be positive, got %d", s.APITimeoutSeconds)
	}
	if s.LogLevel != "" {
		if _, err := ParseLogLevel(s.LogLevel); err != nil {
			return err
		}
	}
	return nil
}

// IsOpenAIConfigured reports whether LLM-backed production branches and
// the router's LLM fallback can run.
func (s *Settings) IsOpenAIConfigured() bool { return s.OpenAIAPIKey != "" }

// IsSlackConfigured reports whether the production Slack adapter has the
// credentials it needs for outbound sends. Inbound webhook verification
// additionally needs the signing secret.
func (s *Settings) IsSlackConfigured() bool { return s.SlackBotToken != "" }

// IsTeamsConfigured reports whether the production Teams adapter can
// authenticate against the Bot Framework.
func (s *Settings) IsTeamsConfigured() bool {
	return s.TeamsAppID != "" && s.TeamsAppPassword != ""
}

// IsAWSConfigured reports whether cloud transcode is available.
func (s *Settings) IsAWSConfigured() bool {
	return s.AWSMediaConvertEndpoint != "" && s.AWSMediaConvertRoleARN != ""
}

// IsINewsConfigured reports whether the newsroom system API is reachable.
func (s *Settings) IsINewsConfigured() bool { return s.INewsAPIURL != "" }

// IsAutomationConfigured reports whether a playout automation server is
// configured.
func (s *Settings) IsAutomationConfigured() bool { return s.AutomationServerURL != "" }

// Default returns a demo-mode configuration with all defaults applied,
// suitable for local development without any credentials.
func Default() *Settings {
	s := &Settings{}
	s.applyDefaults()
	return s
}
