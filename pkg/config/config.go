package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
)

// FlexibleStringSlice is a []string that also accepts JSON numbers, so
// allow_from can contain both "123" and 123.
type FlexibleStringSlice []string

func (f *FlexibleStringSlice) UnmarshalJSON(data []byte) error {
	var ss []string
	if err := json.Unmarshal(data, &ss); err == nil {
		*f = ss
		return nil
	}

	var raw []interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	result := make([]string, 0, len(raw))
	for _, v := range raw {
		switch val := v.(type) {
		case string:
			result = append(result, val)
		case float64:
			result = append(result, fmt.Sprintf("%.0f", val))
		default:
			result = append(result, fmt.Sprintf("%v", val))
		}
	}
	*f = result
	return nil
}

type Config struct {
	Guest     GuestConfig     `json:"guest"`
	Agent     AgentConfig     `json:"agent"`
	Providers ProvidersConfig `json:"providers"`
	Telegram  TelegramConfig  `json:"telegram"`
	Mailbox   MailboxConfig   `json:"mailbox"`
	Memory    MemoryConfig    `json:"memory"`
	Notify    NotifyConfig    `json:"notify"`
	Ambition  AmbitionConfig  `json:"ambition"`
	Robot     RobotConfig     `json:"robot"`
	Camera    CameraConfig    `json:"camera"`
	Logging   LoggingConfig   `json:"logging"`
}

// GuestConfig describes how to launch the hosted process whose serial I/O the
// bridge owns.
type GuestConfig struct {
	Command string   `json:"command" env:"GENESISBRIDGE_GUEST_COMMAND"`
	Args    []string `json:"args" env:"GENESISBRIDGE_GUEST_ARGS"`
}

type AgentConfig struct {
	Model             string  `json:"model" env:"GENESISBRIDGE_AGENT_MODEL"`
	MaxTokens         int     `json:"max_tokens" env:"GENESISBRIDGE_AGENT_MAX_TOKENS"`
	Temperature       float64 `json:"temperature" env:"GENESISBRIDGE_AGENT_TEMPERATURE"`
	MaxToolIterations int     `json:"max_tool_iterations" env:"GENESISBRIDGE_AGENT_MAX_TOOL_ITERATIONS"`
	HistorySize       int     `json:"history_size" env:"GENESISBRIDGE_AGENT_HISTORY_SIZE"`
	Workspace         string  `json:"workspace" env:"GENESISBRIDGE_AGENT_WORKSPACE"`
	ExecTimeoutSecs   int     `json:"exec_timeout_secs" env:"GENESISBRIDGE_AGENT_EXEC_TIMEOUT_SECS"`
	ExecOutputLimit   int     `json:"exec_output_limit" env:"GENESISBRIDGE_AGENT_EXEC_OUTPUT_LIMIT"`
}

type ProvidersConfig struct {
	Anthropic ProviderConfig `json:"anthropic"`
	OpenAI    ProviderConfig `json:"openai"`
}

type ProviderConfig struct {
	APIKey  string `json:"api_key"`
	APIBase string `json:"api_base"`
}

type TelegramConfig struct {
	Enabled     bool                `json:"enabled" env:"GENESISBRIDGE_TELEGRAM_ENABLED"`
	Token       string              `json:"token" env:"GENESISBRIDGE_TELEGRAM_TOKEN"`
	ChatID      string              `json:"chat_id" env:"GENESISBRIDGE_TELEGRAM_CHAT_ID"`
	AllowFrom   FlexibleStringSlice `json:"allow_from" env:"GENESISBRIDGE_TELEGRAM_ALLOW_FROM"`
	PollTimeout int                 `json:"poll_timeout" env:"GENESISBRIDGE_TELEGRAM_POLL_TIMEOUT"` // seconds
}

type MailboxConfig struct {
	Dir          string `json:"dir" env:"GENESISBRIDGE_MAILBOX_DIR"`
	ScanInterval int    `json:"scan_interval" env:"GENESISBRIDGE_MAILBOX_SCAN_INTERVAL"` // seconds
}

type MemoryConfig struct {
	Dir string `json:"dir" env:"GENESISBRIDGE_MEMORY_DIR"`
}

type NotifyConfig struct {
	MinInterval int `json:"min_interval" env:"GENESISBRIDGE_NOTIFY_MIN_INTERVAL"` // seconds between ambient notifications
}

type AmbitionConfig struct {
	Schedule string `json:"schedule" env:"GENESISBRIDGE_AMBITION_SCHEDULE"` // cron expression for the morning prompt
}

type RobotConfig struct {
	Enabled bool   `json:"enabled" env:"GENESISBRIDGE_ROBOT_ENABLED"`
	URL     string `json:"url" env:"GENESISBRIDGE_ROBOT_URL"`
}

type CameraConfig struct {
	Device string `json:"device" env:"GENESISBRIDGE_CAMERA_DEVICE"`
}

type LoggingConfig struct {
	FileEnabled bool   `json:"file_enabled" env:"GENESISBRIDGE_LOGGING_FILE_ENABLED"`
	FilePath    string `json:"file_path" env:"GENESISBRIDGE_LOGGING_FILE_PATH"`
	MaxSizeMB   int    `json:"max_size_mb" env:"GENESISBRIDGE_LOGGING_MAX_SIZE_MB"`
	Debug       bool   `json:"debug" env:"GENESISBRIDGE_LOGGING_DEBUG"`
}

func DefaultConfig() *Config {
	return &Config{
		Guest: GuestConfig{
			Command: "qemu-system-x86_64",
			Args: []string{
				"-drive", "format=raw,file=bootimage-genesis_kernel.bin",
				"-m", "128M",
				"-serial", "stdio",
				"-display", "none",
				"-no-reboot",
			},
		},
		Agent: AgentConfig{
			Model:             "claude-sonnet-4-5",
			MaxTokens:         4096,
			Temperature:       0.7,
			MaxToolIterations: 10,
			HistorySize:       20,
			Workspace:         "~/.genesis/workspace",
			ExecTimeoutSecs:   30,
			ExecOutputLimit:   10000,
		},
		Telegram: TelegramConfig{
			Enabled:     false,
			AllowFrom:   FlexibleStringSlice{},
			PollTimeout: 30,
		},
		Mailbox: MailboxConfig{
			Dir:          "~/.genesis/mailbox",
			ScanInterval: 2,
		},
		Memory: MemoryConfig{
			Dir: "~/.genesis/memory",
		},
		Notify: NotifyConfig{
			MinInterval: 300,
		},
		Ambition: AmbitionConfig{
			Schedule: "0 8 * * *",
		},
		Robot: RobotConfig{
			Enabled: false,
			URL:     "ws://192.168.1.100:8765",
		},
		Logging: LoggingConfig{
			FileEnabled: true,
			FilePath:    "~/.genesis/bridge.log",
			MaxSizeMB:   50,
		},
	}
}

// LoadConfig reads the JSON config at path (missing file is not an error) and
// applies GENESISBRIDGE_* environment overrides on top.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	} else if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	applyProviderEnv(cfg)

	return cfg, nil
}

// applyProviderEnv lets the standard vendor variables configure providers so a
// bare ANTHROPIC_API_KEY in the environment is enough to enable the service.
func applyProviderEnv(cfg *Config) {
	bindings := []struct {
		target *ProviderConfig
		keys   []string
	}{
		{&cfg.Providers.Anthropic, []string{"GENESISBRIDGE_PROVIDERS_ANTHROPIC_API_KEY", "ANTHROPIC_API_KEY"}},
		{&cfg.Providers.OpenAI, []string{"GENESISBRIDGE_PROVIDERS_OPENAI_API_KEY", "OPENAI_API_KEY"}},
	}
	for _, b := range bindings {
		for _, key := range b.keys {
			if v := strings.TrimSpace(os.Getenv(key)); v != "" {
				b.target.APIKey = v
				break
			}
		}
		b.target.APIKey = resolveEnvRef(b.target.APIKey)
		b.target.APIBase = resolveEnvRef(b.target.APIBase)
	}
	if tok := strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN")); tok != "" && cfg.Telegram.Token == "" {
		cfg.Telegram.Token = tok
	}
	cfg.Telegram.Token = resolveEnvRef(cfg.Telegram.Token)
}

// resolveEnvRef expands "$NAME" / "${NAME}" values so secrets can live in the
// environment while the config file stays committable.
func resolveEnvRef(v string) string {
	s := strings.TrimSpace(v)
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		if val, ok := os.LookupEnv(strings.TrimSpace(s[2 : len(s)-1])); ok {
			return val
		}
		return v
	}
	if strings.HasPrefix(s, "$") && len(s) > 1 {
		if val, ok := os.LookupEnv(strings.TrimSpace(s[1:])); ok {
			return val
		}
	}
	return v
}

func SaveConfig(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) WorkspacePath() string { return ExpandHome(c.Agent.Workspace) }
func (c *Config) MemoryPath() string    { return ExpandHome(c.Memory.Dir) }
func (c *Config) MailboxPath() string   { return ExpandHome(c.Mailbox.Dir) }

func ExpandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	home, _ := os.UserHomeDir()
	if len(path) > 1 && path[1] == '/' {
		return home + path[1:]
	}
	return home
}
