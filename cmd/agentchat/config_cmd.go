package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"agentchat/internal/config"
)

func configMain(root rootArgs, args []string) {
	if err := runConfig(root, args, os.Stdout); err != nil {
		log.Fatalf("config: %v", err)
	}
}

// runConfig 实现 config show|get|set|path；set 只写入持久化的键。
func runConfig(root rootArgs, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var cfgPath string
	fs.StringVar(&cfgPath, "config", "", "Path to config file (default ~/.agentchat/config.toml)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	action := "show"
	if len(rest) > 0 {
		action, rest = rest[0], rest[1:]
	}
	if cfgPath == "" {
		cfgPath = config.DefaultPath()
	}

	switch action {
	case "path":
		_, err := fmt.Fprintln(out, cfgPath)
		return err
	case "show":
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		cfg = config.ApplyKVOverrides(cfg, root.overrides)
		for _, key := range config.Keys() {
			val, _ := config.Get(cfg, key)
			if _, err := fmt.Fprintf(out, "%s = %q\n", key, val); err != nil {
				return err
			}
		}
		return nil
	case "get":
		if len(rest) != 1 {
			return errors.New("usage: agentchat config get <key>")
		}
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		val, err := config.Get(cfg, rest[0])
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, val)
		return err
	case "set":
		if len(rest) == 0 {
			return errors.New("usage: agentchat config set key=value [key=value...]")
		}
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		for _, raw := range rest {
			key, val, ok := strings.Cut(raw, "=")
			if !ok {
				return fmt.Errorf("expected key=value, got %q", raw)
			}
			if cfg, err = config.Set(cfg, key, val); err != nil {
				return err
			}
		}
		if err := config.Save(cfgPath, cfg); err != nil {
			return err
		}
		_, err = fmt.Fprintf(out, "saved %s\n", cfgPath)
		return err
	default:
		return fmt.Errorf("unknown config action %q (use show, get, set or path)", action)
	}
}
