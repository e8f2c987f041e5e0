package render

import (
	"fmt"
	"strings"
	"time"

	"agentchat/internal/conversation"
	"agentchat/internal/markdown"

	"github.com/charmbracelet/lipgloss"
)

const (
	userPrefix      = "› "
	assistantPrefix = "• "
	continuation    = "  "

	// RetryHint 显示在失败回复下方。
	RetryHint = "↻ ctrl+r or /retry to try again"
)

var (
	userPrefixStyle      = lipgloss.NewStyle().Bold(true)
	assistantPrefixStyle = lipgloss.NewStyle().Foreground(accentColor)
	metaStyle            = lipgloss.NewStyle().Faint(true)
	errorStyle           = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7768E"))
	pendingStyle         = lipgloss.NewStyle().Faint(true).Italic(true)
)

// TranscriptOptions 控制会话记录的排版。
type TranscriptOptions struct {
	AgentName  string
	Timestamps bool
	Highlight  bool
	Now        time.Time
}

// Transcript 缓存每条消息按宽度排版后的行；消息内容不可变，
// 只有状态会变，因此以 id+状态+宽度 为键即可。
type Transcript struct {
	opts  TranscriptOptions
	cache map[string][]Line
}

// NewTranscript 创建空缓存。
func NewTranscript(opts TranscriptOptions) *Transcript {
	return &Transcript{opts: opts, cache: map[string][]Line{}}
}

// SetOptions 更新选项；选项变化时清空缓存。
func (t *Transcript) SetOptions(opts TranscriptOptions) {
	if t.opts.AgentName != opts.AgentName || t.opts.Timestamps != opts.Timestamps || t.opts.Highlight != opts.Highlight {
		t.cache = map[string][]Line{}
	}
	t.opts = opts
}

// Render 排版整段会话，消息之间空一行。
func (t *Transcript) Render(messages []conversation.Message, width int) []Line {
	now := t.opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	out := []Line{}
	live := make(map[string]struct{}, len(messages))
	for i, msg := range messages {
		if i > 0 {
			out = append(out, Line{})
		}
		key := t.key(msg, width, now)
		live[key] = struct{}{}
		lines, ok := t.cache[key]
		if !ok {
			lines = RenderMessage(msg, width, t.optsAt(now))
			t.cache[key] = lines
		}
		out = append(out, lines...)
	}
	for k := range t.cache {
		if _, ok := live[k]; !ok {
			delete(t.cache, k)
		}
	}
	return out
}

// Invalidate 清空缓存。
func (t *Transcript) Invalidate() {
	t.cache = map[string][]Line{}
}

func (t *Transcript) optsAt(now time.Time) TranscriptOptions {
	opts := t.opts
	opts.Now = now
	return opts
}

func (t *Transcript) key(msg conversation.Message, width int, now time.Time) string {
	stamp := ""
	if t.opts.Timestamps {
		stamp = FormatTimestamp(msg.Timestamp, now)
	}
	return fmt.Sprintf("%s|%s|%d|%s", msg.ID, msg.Status, width, stamp)
}

// RenderMessage 排版单条消息：一行元信息 + 正文。
func RenderMessage(msg conversation.Message, width int, opts TranscriptOptions) []Line {
	innerWidth := width - len(continuation)
	if width > 0 && innerWidth < 1 {
		innerWidth = 1
	}
	out := []Line{metaLine(msg, opts)}

	switch {
	case msg.Role == conversation.RoleUser:
		var body []Line
		for _, raw := range strings.Split(msg.Content, "\n") {
			body = append(body, WrapSpans([]Span{{Text: raw}}, innerWidth)...)
		}
		out = append(out, PrefixLines(body,
			Span{Text: userPrefix, Style: userPrefixStyle},
			Span{Text: continuation})...)
	case msg.IsError():
		body := WrapSpans([]Span{{Text: msg.Content, Style: errorStyle}}, innerWidth)
		out = append(out, PrefixLines(body,
			Span{Text: assistantPrefix, Style: errorStyle},
			Span{Text: continuation})...)
		out = append(out, Line{Spans: []Span{{Text: continuation}, {Text: RetryHint, Style: metaStyle}}})
	default:
		body := TrimTrailingBlank(RenderDocument(markdown.Render(msg.Content), innerWidth, DocumentOptions{Highlight: opts.Highlight}))
		if len(body) == 0 {
			body = []Line{{}}
		}
		out = append(out, PrefixLines(body,
			Span{Text: assistantPrefix, Style: assistantPrefixStyle},
			Span{Text: continuation})...)
	}
	return out
}

func metaLine(msg conversation.Message, opts TranscriptOptions) Line {
	label := "You"
	if msg.Role == conversation.RoleAssistant {
		label = opts.AgentName
		if label == "" {
			label = "Agent"
		}
	}
	spans := []Span{{Text: label, Style: metaStyle.Bold(true)}}
	if opts.Timestamps && !msg.Timestamp.IsZero() {
		spans = append(spans, Span{Text: " · " + FormatTimestamp(msg.Timestamp, opts.Now), Style: metaStyle})
	}
	if msg.Status == conversation.StatusPending {
		spans = append(spans, Span{Text: " · sending", Style: pendingStyle})
	}
	return Line{Spans: spans}
}

// ThinkingLine 是等待回复时追加在末尾的占位行。
func ThinkingLine(agentName string) Line {
	return Line{Spans: []Span{
		{Text: assistantPrefix, Style: assistantPrefixStyle},
		{Text: agentName + " is thinking…", Style: pendingStyle},
	}}
}
