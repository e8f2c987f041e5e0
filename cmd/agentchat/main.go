package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"agentchat/internal/agent"
	anthropicagent "agentchat/internal/agent/anthropic"
	"agentchat/internal/agent/httpagent"
	openaiagent "agentchat/internal/agent/openai"
	"agentchat/internal/chat"
	"agentchat/internal/config"
	"agentchat/internal/conversation"
	"agentchat/internal/demo"
	"agentchat/internal/events"
	"agentchat/internal/features"
	"agentchat/internal/logger"
	"agentchat/internal/repl"
	"agentchat/internal/tui"

	"golang.org/x/term"
)

var log = logger.Named("main")

func main() {
	logger.Configure()
	if logFile, _, err := logger.SetupFile(logger.DefaultLogPath); err != nil {
		log.Warnf("failed to initialize log file: %v", err)
	} else {
		defer logFile.Close()
	}
	if agentCloser, _, err := logger.SetupAgentLog(logger.DefaultAgentLogPath); err != nil {
		log.Warnf("failed to initialize agent log (%s): %v", logger.DefaultAgentLogPath, err)
	} else if agentCloser != nil {
		defer agentCloser.Close()
	}

	root, rest, err := parseRootArgs(os.Args[1:])
	if err != nil {
		log.Fatalf("parse args: %v", err)
	}
	if len(rest) > 0 {
		switch rest[0] {
		case "plain":
			runInteractive(root, rest[1:], true)
			return
		case "ping":
			pingMain(root, rest[1:])
			return
		case "render":
			renderMain(root, rest[1:])
			return
		case "config":
			configMain(root, rest[1:])
			return
		case "features":
			featuresMain(root, rest[1:])
			return
		case "completion":
			completionMain(rest[1:])
			return
		}
	}

	runInteractive(root, rest, false)
}

func runInteractive(root rootArgs, args []string, forcePlain bool) {
	fs, cli := newInteractiveFlagSet("agentchat")
	if err := fs.Parse(args); err != nil {
		log.Fatalf("parse args: %v", err)
	}
	cli.finalizePrompt(fs)
	overrides := prependOverrides(root.overrides, []string(cli.configOverrides))

	cfg, err := config.Load(cli.cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	cfg = config.ApplyKVOverrides(cfg, overrides)
	rt := applyRuntimeKVOverrides(defaultRuntimeConfig(), overrides)
	feats := features.NewSet(rt.Features)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	bus := events.NewBus()
	defer bus.Close()
	sinkLog, sinkCloser := events.NewSinkLogger(events.DefaultLogPath)
	if sinkCloser != nil {
		defer sinkCloser.Close()
	}
	go events.RunLogSink(ctx, bus, sinkLog)

	caller, desc := buildCaller(cfg)
	log.WithField("transport", desc).Info("starting chat")
	store := conversation.NewStore(conversation.Options{})
	ctl, err := chat.New(chat.Options{
		Store:      store,
		Caller:     caller,
		AgentID:    cfg.ResolvedAgentID(),
		RetryDelay: rt.RetryDelay,
		Bus:        bus,
	})
	if err != nil {
		log.Fatalf("init chat: %v", err)
	}

	demoActive := false
	if cli.demo || feats.Enabled(features.DemoOnStart) {
		if err := demo.Toggle(store, true, time.Now()); err != nil {
			log.Warnf("failed to load sample conversations: %v", err)
		} else {
			demoActive = true
		}
	}

	if forcePlain || cli.plain || !isTerminal() {
		err := repl.Run(ctx, repl.Options{
			Controller:    ctl,
			Bus:           bus,
			AgentName:     rt.AgentName,
			Features:      feats,
			DemoActive:    demoActive,
			InitialPrompt: cli.prompt,
		})
		if err != nil {
			log.Fatalf("line mode exit: %v", err)
		}
		return
	}

	res, err := tui.Run(tui.Options{
		Controller:    ctl,
		AgentName:     rt.AgentName,
		Features:      feats,
		DemoActive:    demoActive,
		InitialPrompt: cli.prompt,
		Context:       ctx,
	})
	if err != nil {
		log.Fatalf("program exit: %v", err)
	}
	log.WithField("conversations", res.Conversations).WithField("recovered", res.Recovered).Info("chat finished")
	if res.Conversations > 0 {
		fmt.Println("Conversations are kept in memory only; use /export to keep a copy next time.")
	}
}

// isTerminal 要求 stdin 与 stdout 都是终端才启动全屏界面。
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// buildCaller 按配置选择 agent 传输；缺少凭据时退回 echo 模式。
func buildCaller(cfg config.Config) (agent.Caller, string) {
	provider := strings.TrimSpace(cfg.Provider)
	fallback := func(reason string) (agent.Caller, string) {
		log.Warnf("%s; falling back to echo mode", reason)
		return agent.WithLogging(agent.EchoCaller{Prefix: "echo: "}, nil), config.ProviderEcho
	}
	var (
		caller agent.Caller
		err    error
	)
	switch provider {
	case config.ProviderEcho:
		return agent.WithLogging(agent.EchoCaller{Prefix: "echo: "}, nil), config.ProviderEcho
	case config.ProviderOpenAI:
		caller, err = openaiagent.New(openaiagent.Options{
			APIKey:       cfg.Token,
			BaseURL:      cfg.URL,
			Model:        cfg.Model,
			SystemPrompt: cfg.SystemPrompt,
		})
	case config.ProviderAnthropic:
		caller, err = anthropicagent.New(anthropicagent.Options{
			Token:        cfg.Token,
			BaseURL:      cfg.URL,
			Model:        cfg.Model,
			SystemPrompt: cfg.SystemPrompt,
		})
	case config.ProviderHTTP, "":
		provider = config.ProviderHTTP
		caller, err = httpagent.New(httpagent.Options{
			URL:     cfg.URL,
			Token:   cfg.Token,
			UserID:  cfg.UserID,
			Timeout: cfg.Timeout(),
		})
	default:
		return fallback(fmt.Sprintf("unknown provider %q", provider))
	}
	if err != nil {
		return fallback(fmt.Sprintf("%s provider unavailable: %v", provider, err))
	}
	return agent.WithLogging(caller, nil), provider
}
