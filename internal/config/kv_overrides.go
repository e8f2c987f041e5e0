package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ErrUnknownKey 表示不支持的配置键。
type ErrUnknownKey struct {
	Key string
}

func (e ErrUnknownKey) Error() string {
	return fmt.Sprintf("unknown config key %q", e.Key)
}

var setters = map[string]func(*Config, string) error{
	"provider": func(c *Config, v string) error {
		switch v {
		case ProviderHTTP, ProviderOpenAI, ProviderAnthropic, ProviderEcho:
			c.Provider = v
			return nil
		}
		return fmt.Errorf("unsupported provider %q", v)
	},
	"url":           func(c *Config, v string) error { c.URL = v; return nil },
	"token":         func(c *Config, v string) error { c.Token = v; return nil },
	"model":         func(c *Config, v string) error { c.Model = v; return nil },
	"agent_id":      func(c *Config, v string) error { c.AgentID = v; return nil },
	"user_id":       func(c *Config, v string) error { c.UserID = v; return nil },
	"system_prompt": func(c *Config, v string) error { c.SystemPrompt = v; return nil },
	"request_timeout_seconds": func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("request_timeout_seconds: %w", err)
		}
		c.RequestTimeoutSeconds = n
		return nil
	},
}

// Keys lists the settable keys in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IsKey reports whether key is a persisted config key.
func IsKey(key string) bool {
	_, ok := setters[key]
	return ok
}

// Set assigns one key, validating the value.
func Set(cfg Config, key, val string) (Config, error) {
	set, ok := setters[strings.TrimSpace(key)]
	if !ok {
		return cfg, ErrUnknownKey{Key: key}
	}
	if err := set(&cfg, strings.TrimSpace(val)); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ApplyKVOverrides applies free-form -c key=value overrides. Unknown keys and
// invalid values are skipped; runtime-only keys are handled by the caller.
func ApplyKVOverrides(cfg Config, overrides []string) Config {
	if len(overrides) == 0 {
		return cfg
	}
	for _, raw := range overrides {
		parts := strings.SplitN(raw, "=", 2)
		if len(parts) != 2 {
			continue
		}
		if next, err := Set(cfg, parts[0], parts[1]); err == nil {
			cfg = next
		}
	}
	return cfg
}

// Get returns the value of key formatted for display; tokens are masked.
func Get(cfg Config, key string) (string, error) {
	switch key {
	case "provider":
		return cfg.Provider, nil
	case "url":
		return cfg.URL, nil
	case "token":
		return mask(cfg.Token), nil
	case "model":
		return cfg.Model, nil
	case "agent_id":
		return cfg.AgentID, nil
	case "user_id":
		return cfg.UserID, nil
	case "system_prompt":
		return cfg.SystemPrompt, nil
	case "request_timeout_seconds":
		return strconv.Itoa(cfg.RequestTimeoutSeconds), nil
	}
	return "", ErrUnknownKey{Key: key}
}

func mask(token string) string {
	if token == "" {
		return ""
	}
	if len(token) <= 8 {
		return "****"
	}
	return token[:4] + "…" + token[len(token)-4:]
}
