// Package config provides configuration for the copilot service.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultSystemPrompt tells the model how to phrase file edits so they can
// be applied automatically.
const DefaultSystemPrompt = `You are a helpful assistant that edits source code.
When you want to create a file, write a line "New <relative path>:" followed by the full file content.
When you want to change a file, write a line "Modified <relative path>:" followed by the full new file content.
Paths are relative to the project directory. Answer in plain prose when no file needs to change.`

// Config holds the copilot configuration.
type Config struct {
	// Server settings
	HTTPPort    int      `yaml:"http_port"`
	RPCPort     int      `yaml:"rpc_port"`
	CORSOrigins []string `yaml:"cors_origins"`

	// Database
	DatabaseURL string `yaml:"database_url"`

	// Language model
	Mode         string        `yaml:"mode"`
	LLMBaseURL   string        `yaml:"llm_base_url"`
	LLMAPIKey    string        `yaml:"llm_api_key"`
	LLMModel     string        `yaml:"llm_model"`
	LLMTimeout   time.Duration `yaml:"llm_timeout"`
	SystemPrompt string        `yaml:"system_prompt"`

	// MaxPromptTokens caps the prompt by dropping the oldest exchanges.
	// Zero means no cap.
	MaxPromptTokens int `yaml:"max_prompt_tokens"`

	// Workspace
	RootDir         string   `yaml:"root_dir"`
	ExcludePatterns []string `yaml:"exclude_patterns"`
	FenceLanguages  []string `yaml:"fence_languages"`
	PolicyFile      string   `yaml:"policy_file"`

	// Websocket
	WSPingInterval   time.Duration `yaml:"ws_ping_interval"`
	WSWriteTimeout   time.Duration `yaml:"ws_write_timeout"`
	WSReadTimeout    time.Duration `yaml:"ws_read_timeout"`
	WSMaxMessageSize int64         `yaml:"ws_max_message_size"`

	// Logging
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		HTTPPort:         8000,
		RPCPort:          0,
		CORSOrigins:      []string{"http://localhost:3000"},
		DatabaseURL:      "file:copilot.db?cache=shared&mode=rwc",
		LLMBaseURL:       "https://api.openai.com",
		LLMModel:         "gpt-4o-mini",
		LLMTimeout:       120 * time.Second,
		SystemPrompt:     DefaultSystemPrompt,
		ExcludePatterns:  []string{"**/node_modules", "**/venv"},
		FenceLanguages:   []string{"python"},
		WSPingInterval:   30 * time.Second,
		WSWriteTimeout:   10 * time.Second,
		WSReadTimeout:    60 * time.Second,
		WSMaxMessageSize: 1 << 20,
		LogLevel:         "info",
		LogFormat:        "text",
	}
}

// Load loads configuration: defaults, then the YAML file named by
// CONFIG_FILE (if any), then environment variables.
func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := LoadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	cfg.HTTPPort = getEnvInt("HTTP_PORT", cfg.HTTPPort)
	cfg.RPCPort = getEnvInt("RPC_PORT", cfg.RPCPort)
	cfg.CORSOrigins = getEnvList("CORS_ORIGINS", cfg.CORSOrigins)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.Mode = getEnv("COPILOT_MODE", cfg.Mode)
	cfg.LLMBaseURL = getEnv("LLM_BASE_URL", cfg.LLMBaseURL)
	cfg.LLMAPIKey = getEnv("LLM_API_KEY", getEnv("OPENAI_API_KEY", cfg.LLMAPIKey))
	cfg.LLMModel = getEnv("LLM_MODEL", cfg.LLMModel)
	cfg.LLMTimeout = getEnvDuration("LLM_TIMEOUT_MS", cfg.LLMTimeout)
	cfg.SystemPrompt = getEnv("SYSTEM_PROMPT", cfg.SystemPrompt)
	cfg.MaxPromptTokens = getEnvInt("MAX_PROMPT_TOKENS", cfg.MaxPromptTokens)
	cfg.RootDir = getEnv("ROOT_DIR", cfg.RootDir)
	cfg.ExcludePatterns = getEnvList("EXCLUDE_PATTERNS", cfg.ExcludePatterns)
	cfg.FenceLanguages = getEnvList("FENCE_LANGUAGES", cfg.FenceLanguages)
	cfg.PolicyFile = getEnv("POLICY_FILE", cfg.PolicyFile)
	cfg.WSPingInterval = getEnvDuration("WS_PING_INTERVAL_MS", cfg.WSPingInterval)
	cfg.WSWriteTimeout = getEnvDuration("WS_WRITE_TIMEOUT_MS", cfg.WSWriteTimeout)
	cfg.WSReadTimeout = getEnvDuration("WS_READ_TIMEOUT_MS", cfg.WSReadTimeout)
	cfg.WSMaxMessageSize = int64(getEnvInt("WS_MAX_MESSAGE_SIZE", int(cfg.WSMaxMessageSize)))
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("LOG_FORMAT", cfg.LogFormat)

	return cfg, nil
}

// LoadFile overlays the YAML file at path onto cfg. Keys missing from the
// file keep their current value.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

// getEnvDuration reads a millisecond count.
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	return time.Duration(getEnvInt(key, int(defaultVal/time.Millisecond))) * time.Millisecond
}

func getEnvList(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	var out []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
