package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// DefaultModel is the model used when neither the CLI nor the config names one.
const DefaultModel = "llama3.3-70b-groq"

// ClientConfig holds per-user defaults for chat requests.
type ClientConfig struct {
	Model      string `yaml:"model,omitempty"`       // Default model name or partial name
	ModelsFile string `yaml:"models_file,omitempty"` // Model catalog (json, yaml or toml)

	MaxRetry              int    `yaml:"max_retry,omitempty"`
	SleepBetweenRetriesMs int    `yaml:"sleep_between_retries_ms,omitempty"`
	Timeout               string `yaml:"timeout,omitempty"` // "d" (model default), "n" (none) or milliseconds
	SchemaMaxTry          int    `yaml:"schema_max_try,omitempty"`

	// Side channels applied to every request unless the CLI overrides them.
	DumpPromptAt  string `yaml:"dump_prompt_at,omitempty"`
	DumpJSONAt    string `yaml:"dump_json_at,omitempty"`
	RecordUsageAt string `yaml:"record_usage_at,omitempty"`

	OllamaHost string `yaml:"ollama_host,omitempty"` // Used by model discovery
}

// SleepBetweenRetries returns the configured pause as a duration.
func (c *ClientConfig) SleepBetweenRetries() time.Duration {
	return time.Duration(c.SleepBetweenRetriesMs) * time.Millisecond
}

// DefaultClientConfig returns the built-in defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Model:                 DefaultModel,
		MaxRetry:              0,
		SleepBetweenRetriesMs: 5000,
		Timeout:               "d",
		SchemaMaxTry:          3,
	}
}

// GetClientConfigPath returns the default client config file path.
// Can be overridden via CHATAPI_CONFIG_PATH environment variable.
func GetClientConfigPath() string {
	if envPath := os.Getenv("CHATAPI_CONFIG_PATH"); envPath != "" {
		return expandPath(envPath)
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./.chatapi/config.yaml"
	}
	return filepath.Join(homeDir, ".chatapi", "config.yaml")
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(homeDir, path[2:])
	}
	return path
}

// SaveClientConfig saves the client configuration to the specified path.
func SaveClientConfig(cfg *ClientConfig, path string) error {
	expandedPath := expandPath(path)

	dir := filepath.Dir(expandedPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(expandedPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// LoadClientConfig loads client-side configuration.
// Returns defaults if config file doesn't exist.
func LoadClientConfig(path string) (*ClientConfig, error) {
	defaults := DefaultClientConfig()

	expandedPath := expandPath(path)
	if _, err := os.Stat(expandedPath); err != nil {
		return &defaults, nil
	}

	configYAML, err := os.ReadFile(expandedPath) //#nosec 304 -- intentional file read for config
	if err != nil {
		return nil, fmt.Errorf("failed to read client config file %q: %w", expandedPath, err)
	}

	var config ClientConfig
	if err := yaml.Unmarshal(configYAML, &config); err != nil {
		return nil, fmt.Errorf("failed to parse client config: %w", err)
	}

	// Merge loaded config onto defaults
	if err := mergo.Merge(&defaults, config, mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("failed to merge client config: %w", err)
	}

	return &defaults, nil
}
