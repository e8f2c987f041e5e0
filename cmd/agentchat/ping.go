package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"agentchat/internal/agent"
	"agentchat/internal/config"

	"github.com/google/uuid"
)

func pingMain(root rootArgs, args []string) {
	if err := runPing(root, args, os.Stdout); err != nil {
		log.Fatalf("ping failed: %v", err)
	}
}

// runPing 用当前配置发送一条消息，验证 agent 端点可用。
func runPing(root rootArgs, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("ping", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var cfgPath string
	var message string
	var timeoutSeconds int
	var overrides stringSlice

	fs.StringVar(&cfgPath, "config", "", "Path to config file (default ~/.agentchat/config.toml)")
	fs.StringVar(&message, "message", "ping", "Message to send")
	fs.IntVar(&timeoutSeconds, "timeout", 30, "Timeout seconds")
	fs.Var(&overrides, "c", "Override config value key=value (repeatable)")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	cfg = config.ApplyKVOverrides(cfg, prependOverrides(root.overrides, []string(overrides)))

	if timeoutSeconds <= 0 {
		timeoutSeconds = 30
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSeconds)*time.Second)
	defer cancel()

	url := strings.TrimSpace(cfg.URL)
	if url != "" && cfg.Provider != config.ProviderEcho {
		if err := agent.CheckReachable(ctx, url); err != nil {
			return err
		}
	}

	caller, provider := buildCaller(cfg)
	res, err := caller.Call(ctx, message, cfg.ResolvedAgentID(), agent.Options{SessionID: uuid.NewString()})
	if err != nil {
		return err
	}
	if !res.Success {
		return errors.New(agent.FailureText(res))
	}
	_, _ = fmt.Fprintf(out, "ok (%s): %s\n", provider, agent.ReplyText(res))
	return nil
}
