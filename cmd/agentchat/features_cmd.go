package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"agentchat/internal/features"
)

func featuresMain(root rootArgs, args []string) {
	var overrides stringSlice
	fs := flag.NewFlagSet("features", flag.ExitOnError)
	fs.Var(&overrides, "c", "Override config value key=value (repeatable)")
	if err := fs.Parse(args); err != nil {
		log.Fatalf("parse features args: %v", err)
	}
	if err := listFeatures(os.Stdout, prependOverrides(root.overrides, []string(overrides))); err != nil {
		log.Fatalf("features: %v", err)
	}
}

func listFeatures(out io.Writer, overrides []string) error {
	rt := applyRuntimeKVOverrides(defaultRuntimeConfig(), overrides)
	set := features.NewSet(rt.Features)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, spec := range features.Specs {
		fmt.Fprintf(w, "%s\t%s\t%t\t%s\n", spec.Key, spec.Stage, set.Enabled(spec.Key), spec.Description)
	}
	return w.Flush()
}
