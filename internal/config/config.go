package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hession/culinai/internal/logger"
	"github.com/hession/culinai/internal/recipe"
)

var (
	// configDir is the configuration directory path
	// Can be set via SetConfigDir before loading config
	configDir     string
	configDirInit bool
)

// SetConfigDir sets a custom configuration directory
// Must be called before any config loading functions
func SetConfigDir(dir string) {
	configDir = dir
	configDirInit = true
}

// GetConfigDir returns the configuration directory
// Priority: 1. Manually set via SetConfigDir, 2. ./config in current directory
func GetConfigDir() string {
	if !configDirInit {
		cwd, err := os.Getwd()
		if err == nil {
			configDir = filepath.Join(cwd, "config")
		}
		configDirInit = true
	}
	return configDir
}

// Environment variables that override file and secrets values.
const (
	EnvSpoonacularAPIKey = "SPOONACULAR_API_KEY"
	EnvOpenAIAPIKey      = "OPENAI_API_KEY"
	EnvLogLevel          = "LOG_LEVEL"
)

// Config application configuration structure
type Config struct {
	Model       ModelConfig       `yaml:"model"`
	Spoonacular SpoonacularConfig `yaml:"spoonacular"`
	Memory      MemoryConfig      `yaml:"memory"`
	Agent       AgentConfig       `yaml:"agent"`
	Server      ServerConfig      `yaml:"server"`
	Log         LogConfig         `yaml:"log"`
}

// ModelConfig LLM model configuration
type ModelConfig struct {
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// SpoonacularConfig recipe API configuration
type SpoonacularConfig struct {
	APIKey            string  `yaml:"api_key"`
	BaseURL           string  `yaml:"base_url"`
	TimeoutSeconds    int     `yaml:"timeout_seconds"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
	UserAgent         string  `yaml:"user_agent"`

	Candidates            int  `yaml:"candidates"`
	FallbackOnDetailError bool `yaml:"fallback_on_detail_error"`
	BasicIgnoresLaziness  bool `yaml:"basic_ignores_laziness"`
}

// Policy returns the resolver policy described by this section.
func (s SpoonacularConfig) Policy() recipe.Policy {
	return recipe.Policy{
		Candidates:            s.Candidates,
		FallbackOnDetailError: s.FallbackOnDetailError,
		BasicIgnoresLaziness:  s.BasicIgnoresLaziness,
	}
}

// MemoryConfig memory storage configuration
type MemoryConfig struct {
	DBPath             string `yaml:"db_path"`
	MaxContextMessages int    `yaml:"max_context_messages"`
}

// AgentConfig agent loop configuration
type AgentConfig struct {
	MaxToolIterations int  `yaml:"max_tool_iterations"`
	DetailedByDefault bool `yaml:"detailed_by_default"`
}

// DefaultMode is the resolution mode used when a tool call does not ask for one.
func (a AgentConfig) DefaultMode() recipe.Mode {
	if a.DetailedByDefault {
		return recipe.ModeDetailed
	}
	return recipe.ModeBasic
}

// ServerConfig HTTP tool endpoint configuration
type ServerConfig struct {
	Address             string  `yaml:"address"`
	Port                int     `yaml:"port"`
	RateLimit           float64 `yaml:"rate_limit"`
	RateLimitBurst      int     `yaml:"rate_limit_burst"`
	ReadTimeoutSeconds  int     `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int     `yaml:"write_timeout_seconds"`
	ShutdownSeconds     int     `yaml:"shutdown_timeout_seconds"`
}

// LogConfig logging configuration
type LogConfig struct {
	Level   string `yaml:"level"`
	MaxDays int    `yaml:"max_days"`
	Console bool   `yaml:"console"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		Model: ModelConfig{
			BaseURL:     "https://api.openai.com",
			Model:       "gpt-4o-mini",
			Temperature: 0.7,
			MaxTokens:   4096,
		},
		Spoonacular: SpoonacularConfig{
			BaseURL:           "https://api.spoonacular.com",
			TimeoutSeconds:    15,
			RequestsPerSecond: 1,
			Burst:             2,
			UserAgent:         "CulinAI/0.1",
			Candidates:        1,
		},
		Memory: MemoryConfig{
			DBPath:             filepath.Join(homeDir, ".culinai", "memory.db"),
			MaxContextMessages: 20,
		},
		Agent: AgentConfig{
			MaxToolIterations: 10,
		},
		Server: ServerConfig{
			Address:             "127.0.0.1",
			Port:                8080,
			RateLimit:           10,
			RateLimitBurst:      20,
			ReadTimeoutSeconds:  10,
			WriteTimeoutSeconds: 30,
			ShutdownSeconds:     10,
		},
		Log: LogConfig{
			Level:   "info",
			MaxDays: 7,
		},
	}
}

// ConfigDir returns the configuration directory path
func ConfigDir() (string, error) {
	dir := GetConfigDir()
	if dir == "" {
		return "", fmt.Errorf("failed to determine config directory")
	}
	return dir, nil
}

// LogDir returns the log directory path
func LogDir() string {
	dir := GetConfigDir()
	if dir == "" {
		return "logs"
	}
	return filepath.Join(dir, "logs")
}

// ConfigPath returns the configuration file path
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load loads configuration from file, then merges secrets and environment
// overrides. A default config file is written on first run.
func Load() (*Config, error) {
	configPath, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		// the file on disk never carries secrets
		if err := Save(cfg); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	secrets, err := LoadSecrets()
	if err != nil {
		return nil, fmt.Errorf("failed to read secrets: %w", err)
	}
	cfg.applySecrets(secrets)
	cfg.applyEnv(os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applySecrets fills API keys the config file left empty.
func (c *Config) applySecrets(s *Secrets) {
	if c.Model.APIKey == "" {
		c.Model.APIKey = s.GetModelAPIKey()
	}
	if c.Spoonacular.APIKey == "" {
		c.Spoonacular.APIKey = s.GetSpoonacularAPIKey()
	}
}

// applyEnv lets the environment override API keys and the log level.
func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvSpoonacularAPIKey); ok && strings.TrimSpace(v) != "" {
		c.Spoonacular.APIKey = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvOpenAIAPIKey); ok && strings.TrimSpace(v) != "" {
		c.Model.APIKey = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvLogLevel); ok && strings.TrimSpace(v) != "" {
		c.Log.Level = strings.TrimSpace(v)
	}
}

// Save saves configuration to file
func Save(cfg *Config) error {
	configPath, err := ConfigPath()
	if err != nil {
		return err
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	content := "# CulinAI Configuration File\n# API keys belong in .secrets or the environment.\n\n" + string(data)

	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Model.BaseURL == "" {
		return fmt.Errorf("config error: model.base_url cannot be empty")
	}
	if c.Model.Model == "" {
		return fmt.Errorf("config error: model.model cannot be empty")
	}
	if c.Model.Temperature < 0 || c.Model.Temperature > 2 {
		return fmt.Errorf("config error: model.temperature must be between 0 and 2")
	}
	if c.Model.MaxTokens <= 0 {
		return fmt.Errorf("config error: model.max_tokens must be greater than 0")
	}

	if strings.TrimSpace(c.Spoonacular.BaseURL) == "" {
		return fmt.Errorf("config error: spoonacular.base_url cannot be empty")
	}
	if c.Spoonacular.TimeoutSeconds <= 0 {
		return fmt.Errorf("config error: spoonacular.timeout_seconds must be greater than 0")
	}
	if c.Spoonacular.RequestsPerSecond < 0 {
		return fmt.Errorf("config error: spoonacular.requests_per_second cannot be negative")
	}
	if c.Spoonacular.Candidates < 0 {
		return fmt.Errorf("config error: spoonacular.candidates cannot be negative")
	}

	if c.Memory.DBPath == "" {
		return fmt.Errorf("config error: memory.db_path cannot be empty")
	}
	if c.Memory.MaxContextMessages <= 0 {
		return fmt.Errorf("config error: memory.max_context_messages must be greater than 0")
	}

	if c.Agent.MaxToolIterations <= 0 {
		return fmt.Errorf("config error: agent.max_tool_iterations must be greater than 0")
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config error: server.port must be between 1 and 65535")
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("config error: server.rate_limit cannot be negative")
	}
	if c.Server.RateLimit > 0 && c.Server.RateLimitBurst <= 0 {
		return fmt.Errorf("config error: server.rate_limit_burst must be greater than 0 when server.rate_limit is set")
	}

	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("config error: log.level: %w", err)
	}

	return nil
}

// IsAPIKeyConfigured checks if the LLM API key is configured
func (c *Config) IsAPIKeyConfigured() bool {
	return c.Model.APIKey != ""
}

// IsSpoonacularConfigured checks if the recipe API key is configured
func (c *Config) IsSpoonacularConfigured() bool {
	return strings.TrimSpace(c.Spoonacular.APIKey) != ""
}

// String returns string representation of config (hides sensitive info)
func (c *Config) String() string {
	return fmt.Sprintf(`CulinAI Configuration:
  Model:
    API Key: %s
    Base URL: %s
    Model: %s
    Temperature: %.1f
    Max Tokens: %d
  Spoonacular:
    API Key: %s
    Base URL: %s
    Timeout Seconds: %d
    Requests Per Second: %.2f
    Burst: %d
    Candidates: %d
    Fallback On Detail Error: %v
    Basic Ignores Laziness: %v
  Memory:
    DB Path: %s
    Max Context Messages: %d
  Agent:
    Max Tool Iterations: %d
    Detailed By Default: %v
  Server:
    Listen: %s:%d
    Rate Limit: %.1f/s (burst %d)
  Log:
    Level: %s
    Max Days: %d`,
		redactAPIKey(c.Model.APIKey),
		c.Model.BaseURL,
		c.Model.Model,
		c.Model.Temperature,
		c.Model.MaxTokens,
		redactAPIKey(c.Spoonacular.APIKey),
		c.Spoonacular.BaseURL,
		c.Spoonacular.TimeoutSeconds,
		c.Spoonacular.RequestsPerSecond,
		c.Spoonacular.Burst,
		c.Spoonacular.Candidates,
		c.Spoonacular.FallbackOnDetailError,
		c.Spoonacular.BasicIgnoresLaziness,
		c.Memory.DBPath,
		c.Memory.MaxContextMessages,
		c.Agent.MaxToolIterations,
		c.Agent.DetailedByDefault,
		c.Server.Address,
		c.Server.Port,
		c.Server.RateLimit,
		c.Server.RateLimitBurst,
		c.Log.Level,
		c.Log.MaxDays,
	)
}

func redactAPIKey(value string) string {
	if value == "" {
		return "(not configured)"
	}
	if len(value) > 8 {
		return value[:8] + "..."
	}
	return "***"
}
