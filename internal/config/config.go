package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"agentchat/internal/agent"

	"github.com/pelletier/go-toml/v2"
)

// Providers 支持的 agent 传输方式。
const (
	ProviderHTTP      = "http"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderEcho      = "echo"
)

const defaultTimeoutSeconds = 120

// Config is the only persisted config file schema.
type Config struct {
	Provider              string `toml:"provider"`
	URL                   string `toml:"url"`
	Token                 string `toml:"token"`
	Model                 string `toml:"model,omitempty"`
	AgentID               string `toml:"agent_id"`
	UserID                string `toml:"user_id,omitempty"`
	SystemPrompt          string `toml:"system_prompt,omitempty"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
	Source                string `toml:"-"`
}

func Default() Config {
	return Config{
		Provider:              ProviderHTTP,
		AgentID:               agent.AgentID,
		RequestTimeoutSeconds: defaultTimeoutSeconds,
	}
}

func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".agentchat", "config.toml")
}

// Load reads path (DefaultPath when empty). A missing file yields defaults;
// AGENTCHAT_* environment variables override the file either way.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath()
	}
	if path == "" {
		return cfg, errors.New("config path is empty and $HOME is not set")
	}
	cfg.Source = path

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return applyEnv(cfg), nil
		}
		return cfg, err
	}

	if err := toml.Unmarshal(content, &cfg); err != nil {
		return cfg, err
	}
	return applyEnv(cfg), nil
}

func applyEnv(cfg Config) Config {
	if env := strings.TrimSpace(os.Getenv("AGENTCHAT_PROVIDER")); env != "" {
		cfg.Provider = env
	}
	if env := strings.TrimSpace(os.Getenv("AGENTCHAT_URL")); env != "" {
		cfg.URL = env
	}
	if env := strings.TrimSpace(os.Getenv("AGENTCHAT_TOKEN")); env != "" {
		cfg.Token = env
	}
	if env := strings.TrimSpace(os.Getenv("AGENTCHAT_MODEL")); env != "" {
		cfg.Model = env
	}
	return cfg
}

// Timeout returns the per-request HTTP timeout; zero or negative disables it.
func (c Config) Timeout() time.Duration {
	if c.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// ResolvedAgentID falls back to the built-in agent.
func (c Config) ResolvedAgentID() string {
	if id := strings.TrimSpace(c.AgentID); id != "" {
		return id
	}
	return agent.AgentID
}
