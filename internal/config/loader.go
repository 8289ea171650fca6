package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Load loads config from the default path (~/.helmsman/config.json).
// A missing file is not an error: the daemon runs on defaults plus
// environment overrides.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	path := filepath.Join(home, ".helmsman", "config.json")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()
		applyEnvOverrides(cfg)
		expandWorkspacePath(cfg)
		return cfg, nil
	}
	return LoadFromFile(path)
}

// LoadFromFile loads config from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file %s: %w", path, err)
	}
	defer f.Close()
	return LoadFromReader(f)
}

// LoadFromReader loads config from an io.Reader, applying defaults and env overrides.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := DefaultConfig()

	if err := json.NewDecoder(r).Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyEnvOverrides(cfg)
	expandWorkspacePath(cfg)

	return cfg, nil
}

// applyEnvOverrides applies HELMSMAN_-prefixed environment variable overrides.
func applyEnvOverrides(cfg *Config) {
	envMap := map[string]*string{
		"HELMSMAN_PROVIDERS_OPENAI_APIKEY":    &cfg.Providers.OpenAI.APIKey,
		"HELMSMAN_PROVIDERS_ANTHROPIC_APIKEY": &cfg.Providers.Anthropic.APIKey,
		"HELMSMAN_PROVIDERS_CUSTOM_APIKEY":    &cfg.Providers.Custom.APIKey,
		"HELMSMAN_PROVIDERS_CUSTOM_BASEURL":   &cfg.Providers.Custom.BaseURL,
		"HELMSMAN_ASSISTANT_PROVIDER":         &cfg.Assistant.Provider,
		"HELMSMAN_ASSISTANT_MODEL":            &cfg.Assistant.Model,
		"HELMSMAN_ASSISTANT_WORKSPACE":        &cfg.Assistant.Workspace,
		"HELMSMAN_CHANNELS_TELEGRAM_TOKEN":    &cfg.Channels.Telegram.Token,
		"HELMSMAN_CHANNELS_DISCORD_TOKEN":     &cfg.Channels.Discord.Token,
		"HELMSMAN_NOTIFY_CHANNEL":             &cfg.Notify.Channel,
		"HELMSMAN_NOTIFY_CHATID":              &cfg.Notify.ChatID,
	}

	for env, ptr := range envMap {
		if val := os.Getenv(env); val != "" {
			*ptr = val
		}
	}
}

// expandWorkspacePath expands a leading ~ in the workspace path.
func expandWorkspacePath(cfg *Config) {
	ws := cfg.Assistant.Workspace
	if len(ws) >= 2 && ws[0] == '~' && ws[1] == '/' {
		home, err := os.UserHomeDir()
		if err == nil {
			cfg.Assistant.Workspace = filepath.Join(home, ws[2:])
		}
	}
}
