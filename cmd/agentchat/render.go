package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"agentchat/internal/features"
	"agentchat/internal/markdown"
	"agentchat/internal/repl"

	"gopkg.in/yaml.v3"
)

func renderMain(root rootArgs, args []string) {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	var format string
	var overrides stringSlice
	fs.StringVar(&format, "format", "ansi", "Output format: ansi, text or yaml")
	fs.Var(&overrides, "c", "Override config value key=value (repeatable)")
	if err := fs.Parse(args); err != nil {
		log.Fatalf("parse render args: %v", err)
	}

	in := io.Reader(os.Stdin)
	if fs.NArg() > 0 && fs.Arg(0) != "-" {
		f, err := os.Open(fs.Arg(0))
		if err != nil {
			log.Fatalf("open %s: %v", fs.Arg(0), err)
		}
		defer f.Close()
		in = f
	}
	rt := applyRuntimeKVOverrides(defaultRuntimeConfig(), prependOverrides(root.overrides, []string(overrides)))
	highlight := features.NewSet(rt.Features).Enabled(features.SyntaxHighlight)
	if err := runRender(in, os.Stdout, format, highlight); err != nil {
		log.Fatalf("render failed: %v", err)
	}
}

// runRender 把 markdown 文本按指定格式输出，便于在终端外检查渲染结果。
func runRender(in io.Reader, out io.Writer, format string, highlight bool) error {
	data, err := io.ReadAll(in)
	if err != nil {
		return err
	}
	doc := markdown.Render(string(data))
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "ansi":
		for _, line := range (repl.Printer{Highlight: highlight}).Document(doc) {
			if _, err := fmt.Fprintln(out, line); err != nil {
				return err
			}
		}
		return nil
	case "text":
		_, err := fmt.Fprintln(out, doc.PlainText())
		return err
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(documentView(doc)); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported render format %q", format)
	}
}

type blockView struct {
	Kind     string     `yaml:"kind"`
	Level    int        `yaml:"level,omitempty"`
	Ordinal  int        `yaml:"ordinal,omitempty"`
	Language string     `yaml:"language,omitempty"`
	Text     string     `yaml:"text,omitempty"`
	Spans    []spanView `yaml:"spans,omitempty"`
}

type spanView struct {
	Kind string `yaml:"kind"`
	Text string `yaml:"text"`
}

func documentView(doc markdown.Document) []blockView {
	out := make([]blockView, 0, len(doc.Blocks))
	for _, b := range doc.Blocks {
		v := blockView{
			Kind:     b.Kind.String(),
			Level:    b.Level,
			Ordinal:  b.Ordinal,
			Language: b.Language,
		}
		if b.Kind == markdown.BlockCode {
			v.Text = b.Text
		}
		for _, s := range b.Spans {
			v.Spans = append(v.Spans, spanView{Kind: s.Kind.String(), Text: s.Text})
		}
		out = append(out, v)
	}
	return out
}
