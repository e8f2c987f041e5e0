package repl

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"agentchat/internal/conversation"
	"agentchat/internal/demo"
	"agentchat/internal/export"
	"agentchat/internal/tui/render"
	"agentchat/internal/tui/slash"

	"github.com/atotto/clipboard"
)

// writeClipboard 便于测试替换。
var writeClipboard = clipboard.WriteAll

func (s *Session) runCommand(ctx context.Context, cmd slash.Command, args string) bool {
	switch cmd {
	case slash.CommandQuit, slash.CommandExit:
		return true
	case slash.CommandNew:
		conv := s.store.Create()
		s.notice("started "+conv.DisplayTitle(), okColor)
	case slash.CommandChats:
		s.chats(args)
	case slash.CommandDelete:
		s.deleteActive()
	case slash.CommandRetry:
		s.retryLatest(ctx)
	case slash.CommandDemo:
		s.toggleDemo()
	case slash.CommandCopy:
		s.copyLatestReply()
	case slash.CommandExport:
		s.exportActive(args)
	case slash.CommandStatus:
		s.notice(s.statusSummary(), okColor)
	case slash.CommandHelp:
		s.renderer.Append(textCell(append(slash.Help(), "")))
	}
	return false
}

// chats 无参数时列出会话；"/chats N" 或 "/chats <id>" 切换到对应会话。
func (s *Session) chats(args string) {
	convs := s.store.List()
	if len(convs) == 0 {
		s.notice("no conversations yet", noticeColor)
		return
	}
	args = strings.TrimSpace(args)
	if args == "" {
		now := s.clock()
		active := s.store.ActiveID()
		lines := make([]string, 0, len(convs)+1)
		for i, c := range convs {
			marker := " "
			if c.ID == active {
				marker = "*"
			}
			lines = append(lines, fmt.Sprintf("%s %2d. %s  %s", marker, i+1, c.DisplayTitle(),
				metaColor.Sprint(render.FormatTimestamp(c.CreatedAt, now))))
		}
		lines = append(lines, metaColor.Sprint("/chats N switches conversation"))
		s.renderer.Append(textCell(lines))
		return
	}
	id := args
	if n, err := strconv.Atoi(args); err == nil {
		if n < 1 || n > len(convs) {
			s.notice(fmt.Sprintf("no conversation #%d", n), noticeColor)
			return
		}
		id = convs[n-1].ID
	}
	if err := s.store.SetActive(id); err != nil {
		s.notice(err.Error(), noticeColor)
		return
	}
	if conv, ok := s.store.Active(); ok {
		s.renderer.Replay(conv)
	}
}

func (s *Session) deleteActive() {
	id := s.store.ActiveID()
	if id == "" {
		s.notice("no active conversation", noticeColor)
		return
	}
	if err := s.store.Delete(id); err != nil {
		s.notice(err.Error(), noticeColor)
		return
	}
	s.notice("conversation deleted", okColor)
}

// retryLatest 移除最近一条失败回复，等待重试延迟后重发。
func (s *Session) retryLatest(ctx context.Context) {
	conv, ok := s.store.Active()
	if !ok {
		s.notice("no active conversation", noticeColor)
		return
	}
	failed, ok := conv.LatestFailed()
	if !ok {
		s.notice("nothing to retry", noticeColor)
		return
	}
	plan, ok := s.ctl.PrepareRetry(failed.ID)
	s.drain()
	if !ok || !plan.Resend {
		return
	}
	timer := time.NewTimer(plan.Delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}
	s.send(ctx, plan.Text, plan.ConversationID)
}

func (s *Session) toggleDemo() {
	on := !s.demoActive
	if err := demo.Toggle(s.store, on, s.clock()); err != nil {
		log.WithError(err).Warn("toggle demo")
		s.notice("demo: "+err.Error(), errorColor)
		return
	}
	s.demoActive = on
	if !on {
		s.notice("sample conversations cleared", okColor)
		return
	}
	s.notice("sample conversations loaded", okColor)
	if conv, ok := s.store.Active(); ok {
		s.renderer.Replay(conv)
	}
}

func (s *Session) copyLatestReply() {
	conv, ok := s.store.Active()
	if !ok {
		s.notice("no active conversation", noticeColor)
		return
	}
	for i := len(conv.Messages) - 1; i >= 0; i-- {
		msg := conv.Messages[i]
		if msg.Role != conversation.RoleAssistant || msg.IsError() {
			continue
		}
		if err := writeClipboard(msg.Content); err != nil {
			s.notice("copy failed: "+err.Error(), errorColor)
			return
		}
		s.notice("reply copied to clipboard", okColor)
		return
	}
	s.notice("no reply to copy", noticeColor)
}

func (s *Session) exportActive(args string) {
	conv, ok := s.store.Active()
	if !ok {
		s.notice("no active conversation", noticeColor)
		return
	}
	format, err := export.ParseFormat(args)
	if err != nil {
		s.notice(err.Error(), noticeColor)
		return
	}
	path, err := export.Save(s.exportDir, conv, format, s.agentName, s.clock())
	if err != nil {
		log.WithError(err).Warn("export conversation")
		s.notice("export failed: "+err.Error(), errorColor)
		return
	}
	s.notice("exported to "+path, okColor)
}

func (s *Session) statusSummary() string {
	parts := []string{
		fmt.Sprintf("%s (%s)", s.agentName, s.ctl.AgentID()),
		s.ctl.Status(),
		fmt.Sprintf("%d conversations", s.store.Len()),
	}
	if conv, ok := s.store.Active(); ok {
		parts = append(parts, "session "+conv.SessionID)
	}
	if s.demoActive {
		parts = append(parts, "demo on")
	}
	return strings.Join(parts, " • ")
}
