// Package repl 是不依赖全屏终端的行模式聊天界面，供管道或 --plain 使用。
package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"time"

	"agentchat/internal/chat"
	"agentchat/internal/conversation"
	"agentchat/internal/events"
	"agentchat/internal/features"
	"agentchat/internal/logger"
	"agentchat/internal/tui/slash"

	"github.com/fatih/color"
	"github.com/peterh/liner"
)

var log = logger.Named("repl")

// Prompt 是输入提示符；liner 按字节宽度计算，不加颜色。
const Prompt = "› "

// LineReader 抽象行编辑器，*liner.State 满足该接口。
type LineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
	Close() error
}

type Options struct {
	Controller *chat.Controller
	// Bus 必须是 Controller 广播所用的同一个 bus。
	Bus        *events.Bus
	AgentName  string
	Features   features.Set
	ExportDir  string
	DemoActive bool
	// InitialPrompt 非空时在第一次读取输入前发送。
	InitialPrompt string
	// Input 为空时使用 liner。
	Input  LineReader
	Output io.Writer
	Clock  func() time.Time
}

type Session struct {
	ctl        *chat.Controller
	store      *conversation.Store
	in         LineReader
	out        io.Writer
	renderer   *Renderer
	sub        <-chan events.Event
	slash      *slash.State
	agentName  string
	exportDir  string
	clock      func() time.Time
	demoActive bool
	initial    string
}

func New(opts Options) (*Session, error) {
	if opts.Controller == nil {
		return nil, errors.New("repl: controller is required")
	}
	if opts.Bus == nil {
		return nil, errors.New("repl: event bus is required")
	}
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	name := opts.AgentName
	if name == "" {
		name = "Agent"
	}
	in := opts.Input
	if in == nil {
		line := liner.NewLiner()
		line.SetCtrlCAborts(true)
		in = line
	}
	return &Session{
		ctl:   opts.Controller,
		store: opts.Controller.Store(),
		in:    in,
		out:   out,
		renderer: NewRenderer(RendererOptions{
			AgentName:  name,
			Writer:     out,
			Timestamps: opts.Features.Enabled(features.Timestamps),
			Highlight:  opts.Features.Enabled(features.SyntaxHighlight),
			Now:        clock,
		}),
		sub:        opts.Bus.Subscribe(),
		slash:      slash.NewState(slash.Options{}),
		agentName:  name,
		exportDir:  opts.ExportDir,
		clock:      clock,
		demoActive: opts.DemoActive,
		initial:    opts.InitialPrompt,
	}, nil
}

// Run 读取输入直到 EOF、Ctrl+C、/quit 或 ctx 结束。
func (s *Session) Run(ctx context.Context) error {
	defer s.in.Close()
	s.greet()
	if s.initial != "" {
		s.renderer.Append(textCell{userLine(s.initial)})
		if quit := s.HandleLine(ctx, s.initial); quit {
			return nil
		}
	}
	for {
		if ctx.Err() != nil {
			return nil
		}
		line, err := s.in.Prompt(Prompt)
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(s.out)
				return nil
			}
			return err
		}
		if strings.TrimSpace(line) != "" {
			s.in.AppendHistory(line)
		}
		if quit := s.HandleLine(ctx, line); quit {
			return nil
		}
	}
}

// Run 创建会话并运行到结束。
func Run(ctx context.Context, opts Options) error {
	s, err := New(opts)
	if err != nil {
		return err
	}
	return s.Run(ctx)
}

// HandleLine 处理一行输入并报告是否应退出。panic 会清空全部状态后继续。
func (s *Session) HandleLine(ctx context.Context, line string) (quit bool) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField("stack", string(debug.Stack())).Errorf("recovered from panic: %v", r)
			s.ctl.Reset()
			s.demoActive = false
			s.drain()
			s.notice(fmt.Sprintf("something went wrong: %v", r), errorColor)
			quit = false
		}
	}()
	text := strings.TrimSpace(line)
	if text == "" {
		return false
	}
	act := s.slash.ResolveSubmit(text)
	switch act.Kind {
	case slash.ActionSubmitCommand:
		return s.runCommand(ctx, act.Command, act.Args)
	case slash.ActionSubmitStarter:
		s.renderer.Append(textCell{userLine(act.SubmitText)})
		s.send(ctx, act.SubmitText, s.store.ActiveID())
	case slash.ActionError:
		s.notice(act.Message, noticeColor)
	default:
		s.send(ctx, text, s.store.ActiveID())
	}
	return false
}

// send 拆成 Begin/Call/Complete，以便在阻塞调用前输出“thinking”。
func (s *Session) send(ctx context.Context, text, conversationID string) {
	turn, ok := s.ctl.Begin(text, conversationID)
	if !ok {
		s.notice("message was not sent", noticeColor)
		return
	}
	s.drain()
	if _, err := s.ctl.Complete(s.ctl.Call(ctx, turn)); err != nil {
		log.WithError(err).Debug("turn outcome not recorded")
	}
	s.drain()
}

// drain 输出 controller 同步发布、尚在缓冲中的事件。
func (s *Session) drain() {
	for {
		select {
		case evt, ok := <-s.sub:
			if !ok {
				return
			}
			s.renderer.Handle(evt)
		default:
			return
		}
	}
}

func (s *Session) notice(text string, c *color.Color) {
	s.renderer.Append(noticeCell{text: text, color: c})
}

func (s *Session) greet() {
	if conv, ok := s.store.Active(); ok && len(conv.Messages) > 0 {
		s.renderer.Replay(conv)
		return
	}
	lines := []string{
		agentColor.Sprint("Chat with " + s.agentName),
		"Type a message, or try one of these:",
	}
	for _, st := range slash.Starters {
		lines = append(lines, fmt.Sprintf("  %s  %s", bulletColor.Sprint("/"+st.Token()), st.Text))
	}
	lines = append(lines, metaColor.Sprint("/help lists commands, Ctrl+D quits"), "")
	s.renderer.Append(textCell(lines))
}
