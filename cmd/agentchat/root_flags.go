package main

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"agentchat/internal/features"
)

// rootArgs 是出现在子命令之前的全局参数，作为最低优先级的覆盖项。
type rootArgs struct {
	overrides []string
}

// parseRootArgs 解析到第一个非 flag 参数为止，其余原样交给子命令。
func parseRootArgs(args []string) (rootArgs, []string, error) {
	fs := flag.NewFlagSet("agentchat", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var overrides stringSlice
	var toggles featureToggles
	fs.Var(&overrides, "c", "Override config value key=value (repeatable, applied before subcommand overrides)")
	fs.Var(toggleFlag{&toggles, true}, "enable", "Enable features, comma separated or repeated (same as -c features.<name>=true)")
	fs.Var(toggleFlag{&toggles, false}, "disable", "Disable features, comma separated or repeated (same as -c features.<name>=false)")

	rest, err := parseKnown(fs, args)
	if err != nil {
		return rootArgs{}, nil, err
	}
	return rootArgs{overrides: append([]string(overrides), toggles.raw()...)}, rest, nil
}

// parseKnown 遇到未知 flag 时停止，把它连同后续参数交给子命令的 FlagSet。
func parseKnown(fs *flag.FlagSet, args []string) ([]string, error) {
	for i := 0; i < len(args); i++ {
		name, ok := flagName(args[i])
		if !ok {
			return args[i:], nil
		}
		if fs.Lookup(name) == nil {
			return args[i:], nil
		}
		n := 1
		if !strings.Contains(args[i], "=") && i+1 < len(args) {
			n = 2
		}
		if err := fs.Parse(args[i : i+n]); err != nil {
			return nil, err
		}
		i += n - 1
	}
	return nil, nil
}

func flagName(arg string) (string, bool) {
	if arg == "--" || !strings.HasPrefix(arg, "-") || arg == "-" {
		return "", false
	}
	name := strings.TrimLeft(arg, "-")
	name, _, _ = strings.Cut(name, "=")
	return name, name != ""
}

func prependOverrides(root []string, overrides []string) []string {
	merged := append([]string{}, root...)
	return append(merged, overrides...)
}

// featureToggles 按出现顺序记录 key=value 形式的覆盖项。
type featureToggles []string

func (t *featureToggles) String() string { return strings.Join(*t, ",") }

func (t *featureToggles) Set(v string) error {
	*t = append(*t, v)
	return nil
}

func (t featureToggles) raw() []string { return append([]string(nil), t...) }

type toggleFlag struct {
	into *featureToggles
	on   bool
}

func (f toggleFlag) String() string { return "" }

func (f toggleFlag) Set(v string) error {
	for _, name := range strings.Split(v, ",") {
		key := normalizeFeature(name)
		if key == "" {
			continue
		}
		if !features.IsKnown(key) {
			return fmt.Errorf("unknown feature flag: %s", strings.TrimSpace(name))
		}
		*f.into = append(*f.into, fmt.Sprintf("features.%s=%t", key, f.on))
	}
	return nil
}

func normalizeFeature(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
}
