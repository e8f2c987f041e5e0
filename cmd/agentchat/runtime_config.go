package main

import (
	"strconv"
	"strings"
	"time"

	"agentchat/internal/agent"
	"agentchat/internal/chat"
	"agentchat/internal/features"
)

// runtimeConfig holds settings that only live for one run: they are never
// written to config.toml and can only be set with -c/--enable/--disable.
type runtimeConfig struct {
	AgentName  string
	RetryDelay time.Duration
	Features   map[string]bool
}

func defaultRuntimeConfig() runtimeConfig {
	return runtimeConfig{
		AgentName:  agent.AgentName,
		RetryDelay: chat.DefaultRetryDelay,
		Features:   map[string]bool{},
	}
}

func applyRuntimeKVOverrides(cfg runtimeConfig, overrides []string) runtimeConfig {
	for _, raw := range overrides {
		parts := strings.SplitN(raw, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		val := strings.TrimSpace(parts[1])
		switch {
		case key == "agent_name" || key == "agent-name":
			if val != "" {
				cfg.AgentName = val
			}
		case key == "retry_delay_ms" || key == "retry-delay-ms":
			if n, err := strconv.Atoi(val); err == nil && n > 0 {
				cfg.RetryDelay = time.Duration(n) * time.Millisecond
			}
		case strings.HasPrefix(key, "features."):
			name := strings.TrimPrefix(key, "features.")
			if !features.IsKnown(name) {
				log.Warnf("ignoring unknown feature %q", name)
				continue
			}
			on, err := strconv.ParseBool(val)
			if err != nil {
				log.Warnf("ignoring feature %s=%q: %v", name, val, err)
				continue
			}
			if cfg.Features == nil {
				cfg.Features = map[string]bool{}
			}
			cfg.Features[name] = on
		}
	}
	return cfg
}
