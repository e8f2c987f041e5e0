package repl

import (
	"time"

	"agentchat/internal/markdown"
	"agentchat/internal/tui/render"

	"github.com/fatih/color"
)

// RetryHint 行模式下没有快捷键，只提示命令。
const RetryHint = "↻ /retry to try again"

var (
	agentColor  = color.New(color.FgMagenta, color.Bold)
	metaColor   = color.New(color.Faint)
	errorColor  = color.New(color.FgRed)
	noticeColor = color.New(color.FgYellow)
	okColor     = color.New(color.FgGreen)
)

// replyCell 是一条 assistant 回复。
type replyCell struct {
	agentName  string
	content    string
	failed     bool
	at         time.Time
	now        time.Time
	timestamps bool
	printer    Printer
}

func (c replyCell) Lines() []string {
	header := agentColor.Sprint(c.agentName)
	if c.timestamps && !c.at.IsZero() {
		header += metaColor.Sprint(" · " + render.FormatTimestamp(c.at, c.now))
	}
	lines := []string{header}
	if c.failed {
		return append(lines, errorColor.Sprint(c.content), metaColor.Sprint(RetryHint), "")
	}
	lines = append(lines, c.printer.Document(markdown.Render(c.content))...)
	return append(lines, "")
}

// noticeCell 是单行提示。
type noticeCell struct {
	text  string
	color *color.Color
}

func (c noticeCell) Lines() []string {
	if c.color == nil {
		return []string{c.text}
	}
	return []string{c.color.Sprint(c.text)}
}

// textCell 原样输出多行文本。
type textCell []string

func (c textCell) Lines() []string { return c }
