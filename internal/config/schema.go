package config

import "time"

// Config is the top-level configuration
type Config struct {
	Providers ProvidersConfig `json:"providers"`
	Assistant AssistantConfig `json:"assistant"`
	Scheduler SchedulerConfig `json:"scheduler"`
	Channels  ChannelsConfig  `json:"channels"`
	Notify    NotifyConfig    `json:"notify"`
}

// ProvidersConfig holds API keys and settings for LLM providers
type ProvidersConfig struct {
	OpenAI    ProviderConfig `json:"openai"`
	Anthropic ProviderConfig `json:"anthropic"`
	Custom    ProviderConfig `json:"custom"`
}

type ProviderConfig struct {
	APIKey       string `json:"apiKey"`
	BaseURL      string `json:"baseUrl"`
	DefaultModel string `json:"defaultModel"`
}

// AssistantConfig controls the decision engine itself.
type AssistantConfig struct {
	Workspace         string  `json:"workspace"`
	BotName           string  `json:"botName"`
	Provider          string  `json:"provider"` // "openai", "anthropic", "custom"
	Model             string  `json:"model"`
	MaxTokens         int     `json:"maxTokens"`
	Temperature       float64 `json:"temperature"`
	MaxToolIterations int     `json:"maxToolIterations"`
	MaxResponseLen    int     `json:"maxResponseLen"`
	DefaultTimezone   string  `json:"defaultTimezone"`
	CronMaxJobs       int     `json:"cronMaxJobs"`
}

// SchedulerConfig holds the trigger intervals; zero disables a trigger.
type SchedulerConfig struct {
	StatusIntervalMin    int `json:"statusIntervalMin"`
	HeartbeatIntervalMin int `json:"heartbeatIntervalMin"`
	ProactiveIntervalMin int `json:"proactiveIntervalMin"`
	MaxCatchUp           int `json:"maxCatchUp"`
}

// StatusInterval returns the status trigger period.
func (s SchedulerConfig) StatusInterval() time.Duration {
	return time.Duration(s.StatusIntervalMin) * time.Minute
}

// HeartbeatInterval returns the heartbeat trigger period.
func (s SchedulerConfig) HeartbeatInterval() time.Duration {
	return time.Duration(s.HeartbeatIntervalMin) * time.Minute
}

// ProactiveInterval returns the proactive-check trigger period.
func (s SchedulerConfig) ProactiveInterval() time.Duration {
	return time.Duration(s.ProactiveIntervalMin) * time.Minute
}

type ChannelsConfig struct {
	Telegram TelegramConfig `json:"telegram"`
	Discord  DiscordConfig  `json:"discord"`
}

type TelegramConfig struct {
	Token        string   `json:"token"`
	AllowedUsers []string `json:"allowedUsers"`
}

type DiscordConfig struct {
	Token        string   `json:"token"`
	AllowedUsers []string `json:"allowedUsers"`
}

// NotifyConfig names where scheduler-originated output is delivered.
type NotifyConfig struct {
	Channel string `json:"channel"`
	ChatID  string `json:"chatId"`
}

// DefaultConfig returns a Config with sensible defaults applied.
func DefaultConfig() *Config {
	return &Config{
		Assistant: AssistantConfig{
			Workspace:         "~/.helmsman",
			Provider:          "openai",
			Model:             "gpt-4o",
			MaxTokens:         4096,
			Temperature:       0.7,
			MaxToolIterations: 12,
			MaxResponseLen:    4000,
			CronMaxJobs:       16,
		},
		Scheduler: SchedulerConfig{
			HeartbeatIntervalMin: 30,
			ProactiveIntervalMin: 120,
			MaxCatchUp:           10,
		},
	}
}
