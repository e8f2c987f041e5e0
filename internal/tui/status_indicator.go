package tui

import (
	"fmt"
	"time"

	"agentchat/internal/tui/render"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// StatusIndicatorState 是状态行可显示的状态。
type StatusIndicatorState int

const (
	// StatusReady 表示 agent 空闲，可以发送。
	StatusReady StatusIndicatorState = iota
	// StatusWorking 表示 agent 正在处理，计时器持续累加。
	StatusWorking
)

func (s StatusIndicatorState) String() string {
	switch s {
	case StatusReady:
		return "ready"
	case StatusWorking:
		return "working"
	default:
		return "unknown"
	}
}

// StatusIndicatorOptions 控制指示器的初始化行为。
type StatusIndicatorOptions struct {
	AgentName         string
	AnimationsEnabled bool
	Clock             func() time.Time
}

var (
	readyDotStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#9ECE6A"))
	workingDotStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))
	hintStyle       = lipgloss.NewStyle().Faint(true)
)

// StatusIndicatorWidget 渲染状态行（spinner + agent 名 + 计时）。
type StatusIndicatorWidget struct {
	agentName         string
	state             StatusIndicatorState
	animationsEnabled bool
	startedAt         time.Time
	clock             func() time.Time
}

// NewStatusIndicatorWidget 构造指示器，默认处于 Ready。
func NewStatusIndicatorWidget(opts StatusIndicatorOptions) *StatusIndicatorWidget {
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	name := opts.AgentName
	if name == "" {
		name = "Agent"
	}
	return &StatusIndicatorWidget{
		agentName:         name,
		animationsEnabled: opts.AnimationsEnabled,
		clock:             clock,
	}
}

// Sync 根据 busy 状态切换；进入 Working 时从 startedAt 开始计时。
func (w *StatusIndicatorWidget) Sync(busy bool, startedAt time.Time) {
	if w == nil {
		return
	}
	if !busy {
		w.state = StatusReady
		w.startedAt = time.Time{}
		return
	}
	if startedAt.IsZero() {
		startedAt = w.clock()
	}
	w.state = StatusWorking
	w.startedAt = startedAt
}

// State 返回当前状态。
func (w *StatusIndicatorWidget) State() StatusIndicatorState {
	if w == nil {
		return StatusReady
	}
	return w.state
}

// ElapsedSeconds 返回 Working 状态下累计秒数。
func (w *StatusIndicatorWidget) ElapsedSeconds() uint64 {
	if w == nil || w.state != StatusWorking {
		return 0
	}
	d := w.clock().Sub(w.startedAt)
	if d < 0 {
		return 0
	}
	return uint64(d.Seconds())
}

// DesiredHeight 满足 Renderable 接口。
func (w *StatusIndicatorWidget) DesiredHeight(_ int) int {
	if w == nil {
		return 0
	}
	return 1
}

// CursorPos 满足 Renderable 接口。
func (w *StatusIndicatorWidget) CursorPos(render.Rect) *render.CursorPos {
	return nil
}

// Render 绘制状态行。
func (w *StatusIndicatorWidget) Render(area render.Rect, buf *render.Buffer) {
	if w == nil || buf == nil || area.Height <= 0 || area.Width <= 0 {
		return
	}
	var spans []render.Span
	switch w.state {
	case StatusWorking:
		spans = []render.Span{
			{Text: w.spinnerFrame(w.clock()), Style: workingDotStyle},
			{Text: " "},
			{Text: w.agentName},
			{Text: " "},
			{Text: fmt.Sprintf("Working (%s)", fmtElapsedCompact(w.ElapsedSeconds())), Style: hintStyle},
		}
	default:
		spans = []render.Span{
			{Text: "●", Style: readyDotStyle},
			{Text: " "},
			{Text: w.agentName},
			{Text: " "},
			{Text: "Ready", Style: hintStyle},
		}
	}
	clamped := clampSpans(spans, area.Width)
	if len(clamped) == 0 {
		return
	}
	buf.WriteLine(render.Line{Spans: clamped})
}

func (w *StatusIndicatorWidget) spinnerFrame(now time.Time) string {
	if w.animationsEnabled {
		frames := []string{"-", "\\", "|", "/"}
		idx := int(now.UnixMilli()/120) % len(frames)
		return frames[idx]
	}
	return "•"
}

// fmtElapsedCompact 将秒数格式化为紧凑的时长字符串。
func fmtElapsedCompact(elapsedSecs uint64) string {
	switch {
	case elapsedSecs < 60:
		return fmt.Sprintf("%ds", elapsedSecs)
	case elapsedSecs < 3600:
		minutes := elapsedSecs / 60
		seconds := elapsedSecs % 60
		return fmt.Sprintf("%dm %02ds", minutes, seconds)
	default:
		hours := elapsedSecs / 3600
		minutes := (elapsedSecs % 3600) / 60
		seconds := elapsedSecs % 60
		return fmt.Sprintf("%dh %02dm %02ds", hours, minutes, seconds)
	}
}

func clampSpans(spans []render.Span, width int) []render.Span {
	if width <= 0 {
		return nil
	}
	remaining := width
	out := make([]render.Span, 0, len(spans))
	for _, sp := range spans {
		if remaining <= 0 {
			break
		}
		tw := runewidth.StringWidth(sp.Text)
		if tw <= remaining {
			out = append(out, sp)
			remaining -= tw
			continue
		}
		text := runewidth.Truncate(sp.Text, remaining, "")
		if text != "" {
			sp.Text = text
			out = append(out, sp)
		}
		remaining = 0
	}
	return out
}
