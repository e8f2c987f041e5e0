package main

import (
	"flag"
	"strings"
)

// interactiveArgs captures flags shared by the interactive entrypoints (agentchat, agentchat plain).
type interactiveArgs struct {
	cfgPath         string
	prompt          string
	plain           bool
	demo            bool
	configOverrides stringSlice
}

func newInteractiveFlagSet(name string) (*flag.FlagSet, *interactiveArgs) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	args := &interactiveArgs{}

	fs.StringVar(&args.cfgPath, "config", "", "Path to config file (default ~/.agentchat/config.toml)")
	fs.StringVar(&args.prompt, "prompt", "", "Message to send as soon as the chat starts")
	fs.BoolVar(&args.plain, "plain", false, "Use line mode instead of the full-screen interface")
	fs.BoolVar(&args.demo, "demo", false, "Start with the sample conversations loaded")
	fs.Var(&args.configOverrides, "c", "Override config value key=value (repeatable)")

	return fs, args
}

func (i *interactiveArgs) finalizePrompt(fs *flag.FlagSet) {
	if i.prompt == "" && fs.NArg() > 0 {
		i.prompt = strings.Join(fs.Args(), " ")
	}
}
