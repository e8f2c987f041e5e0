package tui

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"agentchat/internal/chat"
	"agentchat/internal/conversation"
	"agentchat/internal/features"
	"agentchat/internal/logger"
	"agentchat/internal/tui/render"
	"agentchat/internal/tui/slash"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var log = logger.Named("tui")

type Options struct {
	Controller *chat.Controller
	AgentName  string
	Features   features.Set
	// ExportDir 为空时使用 export.DefaultDir。
	ExportDir string
	// DemoActive 表示启动前已载入示例会话（/demo 从关闭开始切换）。
	DemoActive bool
	// InitialPrompt 非空时启动后立即发送。
	InitialPrompt string
	Context       context.Context
	Clock         func() time.Time
}

// turnDoneMsg 携带后台 agent 调用的结果，回到事件循环后交给 Complete。
type turnDoneMsg struct {
	Outcome chat.Outcome
}

// resendMsg 在重试延迟结束后触发重发。
type resendMsg struct {
	Plan chat.RetryPlan
}

type Model struct {
	ctl        *chat.Controller
	store      *conversation.Store
	agentName  string
	features   features.Set
	exportDir  string
	ctx        context.Context
	clock      func() time.Time
	demoActive bool
	initial    string

	textarea   textarea.Model
	viewport   render.Viewport
	transcript *render.Transcript
	picker     list.Model
	slash      *slash.State
	history    promptHistory
	status     *StatusIndicatorWidget
	spin       spinner.Model

	picking  bool
	showHelp bool
	notice   string
	noticeOK bool
	// crashed 非空时只显示恢复界面
	crashed string

	width           int
	height          int
	transcriptDirty bool
}

func New(opts Options) *Model {
	ti := textarea.New()
	ti.Placeholder = "Type a message…  (/ for commands)"
	ti.Prompt = "› "
	ti.CharLimit = 0
	ti.SetWidth(90)
	ti.SetHeight(1)
	ti.ShowLineNumbers = false
	ti.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter", "ctrl+j"))
	ti.Focus()

	picker := list.New(nil, list.NewDefaultDelegate(), 40, 12)
	picker.Title = "Conversations"
	picker.SetShowStatusBar(false)
	picker.DisableQuitKeybindings()

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))

	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	name := opts.AgentName
	if name == "" {
		name = "Agent"
	}

	m := &Model{
		ctl:        opts.Controller,
		agentName:  name,
		features:   opts.Features,
		exportDir:  opts.ExportDir,
		ctx:        ctx,
		clock:      clock,
		demoActive: opts.DemoActive,
		initial:    opts.InitialPrompt,
		textarea:   ti,
		viewport:   render.NewViewport(90, 12),
		picker:     picker,
		slash:      slash.NewState(slash.Options{}),
		status:     NewStatusIndicatorWidget(StatusIndicatorOptions{AgentName: name, Clock: clock, AnimationsEnabled: true}),
		spin:       spin,
		width:      90,
		height:     24,
	}
	if m.ctl != nil {
		m.store = m.ctl.Store()
	}
	m.transcript = render.NewTranscript(m.transcriptOptions())
	m.refreshTranscript()
	return m
}

func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textarea.Blink, m.spin.Tick}
	if text := strings.TrimSpace(m.initial); text != "" {
		m.initial = ""
		cmds = append(cmds, m.send(text))
	}
	return tea.Batch(cmds...)
}

// Update 是唯一修改 store 的地方；panic 会被转换成恢复界面。
func (m *Model) Update(msg tea.Msg) (model tea.Model, cmd tea.Cmd) {
	defer func() {
		if r := recover(); r != nil {
			m.crash(r)
			model, cmd = m, nil
		}
	}()
	if m.crashed != "" {
		return m.updateRecovery(msg)
	}

	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m.finish(cmds...)
	case spinner.TickMsg:
		var c tea.Cmd
		m.spin, c = m.spin.Update(msg)
		cmds = append(cmds, c)
		return m.finish(cmds...)
	case turnDoneMsg:
		m.completeTurn(msg.Outcome)
		return m.finish(cmds...)
	case resendMsg:
		cmds = append(cmds, m.beginTurn(msg.Plan.Text, msg.Plan.ConversationID))
		return m.finish(cmds...)
	case tea.MouseMsg:
		cmds = append(cmds, m.viewport.HandleUpdate(msg))
		return m.finish(cmds...)
	case tea.KeyMsg:
		if c, handled := m.handleKey(msg); handled {
			cmds = append(cmds, c)
			return m.finish(cmds...)
		}
	}

	var c tea.Cmd
	m.textarea, c = m.textarea.Update(msg)
	cmds = append(cmds, c)
	m.afterInputChange()
	return m.finish(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	if msg.String() == "ctrl+c" {
		return tea.Quit, true
	}
	if m.picking {
		return m.updatePicker(msg), true
	}
	if m.showHelp {
		m.showHelp = false
		return nil, true
	}
	if m.slash.Open() {
		if act, handled := m.slash.HandleKey(msg.String()); handled {
			return m.applySlash(act), true
		}
	}
	switch msg.String() {
	case "pgup":
		m.viewport.PageUp()
		return nil, true
	case "pgdown":
		m.viewport.PageDown()
		return nil, true
	case "alt+up":
		m.viewport.ScrollUp(1)
		return nil, true
	case "alt+down":
		m.viewport.ScrollDown(1)
		return nil, true
	case "up":
		if m.textarea.Line() == 0 {
			if text, ok := m.history.Prev(m.textarea.Value()); ok {
				m.textarea.SetValue(text)
				m.afterInputChange()
				return nil, true
			}
		}
	case "down":
		if m.history.Browsing() && m.textarea.Line() >= m.textarea.LineCount()-1 {
			if text, ok := m.history.Next(); ok {
				m.textarea.SetValue(text)
				m.afterInputChange()
				return nil, true
			}
		}
	case "ctrl+n":
		return m.runCommand(slash.CommandNew, ""), true
	case "ctrl+o":
		return m.runCommand(slash.CommandChats, ""), true
	case "ctrl+r":
		return m.runCommand(slash.CommandRetry, ""), true
	case "ctrl+t":
		return m.runCommand(slash.CommandDemo, ""), true
	case "enter":
		return m.submit(), true
	}
	return nil, false
}

// submit 处理 Enter：斜杠命令或普通消息。
func (m *Model) submit() tea.Cmd {
	value := m.textarea.Value()
	if strings.TrimSpace(value) == "" {
		return nil
	}
	act := m.slash.ResolveSubmit(strings.TrimSpace(value))
	if act.Kind != slash.ActionNone {
		return m.applySlash(act)
	}
	return m.send(value)
}

func (m *Model) send(text string) tea.Cmd {
	cmd := m.beginTurn(text, m.store.ActiveID())
	if cmd != nil {
		m.history.Add(text)
		m.resetComposer()
	}
	return cmd
}

// beginTurn 在事件循环上执行 Begin，并把 agent 调用放到后台命令中。
func (m *Model) beginTurn(text, conversationID string) tea.Cmd {
	if m.ctl.InFlight() {
		m.setNotice(fmt.Sprintf("%s is still replying…", m.agentName), false)
		return nil
	}
	turn, ok := m.ctl.Begin(text, conversationID)
	if !ok {
		return nil
	}
	m.clearNotice()
	m.status.Sync(true, turn.StartedAt)
	m.refreshTranscript()
	ctl, ctx := m.ctl, m.ctx
	return func() tea.Msg {
		return turnDoneMsg{Outcome: ctl.Call(ctx, turn)}
	}
}

func (m *Model) completeTurn(out chat.Outcome) {
	if _, err := m.ctl.Complete(out); err != nil {
		log.WithError(err).Debug("turn outcome not recorded")
	}
	m.status.Sync(m.ctl.InFlight(), m.ctl.Flight().StartedAt)
	m.refreshTranscript()
}

// retryLatest 重试当前会话中最近一条失败的回复。
func (m *Model) retryLatest() tea.Cmd {
	conv, ok := m.store.Active()
	if !ok {
		m.setNotice("no active conversation", false)
		return nil
	}
	failed, ok := conv.LatestFailed()
	if !ok {
		m.setNotice("nothing to retry", false)
		return nil
	}
	if m.ctl.InFlight() {
		m.setNotice(fmt.Sprintf("%s is still replying…", m.agentName), false)
		return nil
	}
	plan, ok := m.ctl.PrepareRetry(failed.ID)
	if !ok {
		return nil
	}
	m.refreshTranscript()
	if !plan.Resend {
		return nil
	}
	return tea.Tick(plan.Delay, func(time.Time) tea.Msg {
		return resendMsg{Plan: plan}
	})
}

func (m *Model) afterInputChange() {
	m.setComposerHeight()
	m.slash.SyncInput(slash.Input{
		Value:        m.textarea.Value(),
		CursorLine:   m.textarea.Line(),
		CursorColumn: m.textarea.LineInfo().StartColumn + m.textarea.LineInfo().ColumnOffset,
		Blocked:      m.picking,
	})
}

func (m *Model) resetComposer() {
	m.textarea.Reset()
	m.history.ResetBrowsing()
	m.slash.Close()
	m.setComposerHeight()
}

func (m *Model) setComposerHeight() {
	lines := strings.Count(m.textarea.Value(), "\n") + 1
	if lines > 6 {
		lines = 6
	}
	if m.textarea.Height() != lines {
		m.textarea.SetHeight(lines)
		m.resize(m.width, m.height)
	}
}

func (m *Model) setNotice(text string, ok bool) {
	m.notice = text
	m.noticeOK = ok
}

func (m *Model) clearNotice() {
	m.notice = ""
}

func (m *Model) finish(cmds ...tea.Cmd) (tea.Model, tea.Cmd) {
	if m.transcriptDirty {
		m.flushTranscript()
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	m.width = width
	m.height = height
	fixed := lipgloss.Height(m.renderBanner()) +
		m.textarea.Height() + 2 + // composer + border
		1 + // notice
		1 + // status
		1 // hints
	viewHeight := height - fixed - 2 // chat pane border
	if viewHeight < 3 {
		viewHeight = 3
	}
	chatWidth := width - 4 // border + padding
	if chatWidth < 20 {
		chatWidth = 20
	}
	m.viewport.Resize(chatWidth, viewHeight)
	m.textarea.SetWidth(chatWidth)
	m.picker.SetSize(maxInt(30, width/2), maxInt(8, height/2))
	m.refreshTranscript()
}

func (m *Model) transcriptOptions() render.TranscriptOptions {
	return render.TranscriptOptions{
		AgentName:  m.agentName,
		Timestamps: m.features.Enabled(features.Timestamps),
		Highlight:  m.features.Enabled(features.SyntaxHighlight),
		Now:        m.clock(),
	}
}

func (m *Model) refreshTranscript() {
	m.transcriptDirty = true
}

func (m *Model) flushTranscript() {
	m.transcriptDirty = false
	m.viewport.SetLines(m.renderTranscriptLines())
}

func (m *Model) renderTranscriptLines() []string {
	width := m.viewport.Width
	if width <= 0 {
		width = 80
	}
	conv, ok := m.activeConversation()
	if !ok || len(conv.Messages) == 0 {
		return render.LinesToStrings(emptyStateLines(m.agentName, width))
	}
	m.transcript.SetOptions(m.transcriptOptions())
	lines := m.transcript.Render(conv.Messages, width)
	if f := m.ctl.Flight(); f.State == chat.FlightAwaiting && f.ConversationID == conv.ID {
		lines = append(lines, render.Line{}, render.ThinkingLine(m.agentName))
	}
	return render.LinesToStrings(lines)
}

func (m *Model) activeConversation() (conversation.Conversation, bool) {
	if m.store == nil {
		return conversation.Conversation{}, false
	}
	return m.store.Active()
}

// crash 记录 panic 并切换到恢复界面。
func (m *Model) crash(r any) {
	m.crashed = fmt.Sprint(r)
	log.WithField("stack", string(debug.Stack())).Errorf("recovered from panic: %v", r)
}

func (m *Model) updateRecovery(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case tea.KeyMsg:
		switch msg.String() {
		case "r", "R":
			m.reset()
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	}
	return m, nil
}

// reset 清空全部状态，回到初始界面。
func (m *Model) reset() {
	m.ctl.Reset()
	m.crashed = ""
	m.demoActive = false
	m.picking = false
	m.showHelp = false
	m.transcript.Invalidate()
	m.viewport.Invalidate()
	m.resetComposer()
	m.status.Sync(false, time.Time{})
	m.setNotice("state was reset", true)
	m.resize(m.width, m.height)
	m.flushTranscript()
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
