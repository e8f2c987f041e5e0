package tui

import (
	"fmt"
	"strings"

	"agentchat/internal/conversation"
	"agentchat/internal/demo"
	"agentchat/internal/export"
	"agentchat/internal/tui/slash"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
)

// writeClipboard 便于测试替换。
var writeClipboard = clipboard.WriteAll

func (m *Model) applySlash(act slash.Action) tea.Cmd {
	switch act.Kind {
	case slash.ActionInsert:
		m.textarea.SetValue(act.NewValue)
		m.afterInputChange()
		return nil
	case slash.ActionSubmitCommand:
		m.resetComposer()
		return m.runCommand(act.Command, act.Args)
	case slash.ActionSubmitStarter:
		m.slash.Close()
		return m.send(act.SubmitText)
	case slash.ActionError:
		m.setNotice(act.Message, false)
		return nil
	case slash.ActionClose:
		m.slash.Close()
		return nil
	}
	return nil
}

func (m *Model) runCommand(cmd slash.Command, args string) tea.Cmd {
	switch cmd {
	case slash.CommandQuit, slash.CommandExit:
		return tea.Quit
	case slash.CommandNew:
		conv := m.store.Create()
		m.setNotice("started "+conv.DisplayTitle(), true)
	case slash.CommandChats:
		m.openPicker()
	case slash.CommandDelete:
		m.deleteActive()
	case slash.CommandRetry:
		return m.retryLatest()
	case slash.CommandDemo:
		m.toggleDemo()
	case slash.CommandCopy:
		m.copyLatestReply()
	case slash.CommandExport:
		m.exportActive(args)
	case slash.CommandStatus:
		m.setNotice(m.statusSummary(), true)
	case slash.CommandHelp:
		m.showHelp = true
	}
	m.refreshTranscript()
	return nil
}

func (m *Model) deleteActive() {
	id := m.store.ActiveID()
	if id == "" {
		m.setNotice("no active conversation", false)
		return
	}
	if err := m.store.Delete(id); err != nil {
		m.setNotice(err.Error(), false)
		return
	}
	m.transcript.Invalidate()
	m.setNotice("conversation deleted", true)
}

func (m *Model) toggleDemo() {
	on := !m.demoActive
	if err := demo.Toggle(m.store, on, m.clock()); err != nil {
		log.WithError(err).Warn("toggle demo")
		m.setNotice("demo: "+err.Error(), false)
		return
	}
	m.demoActive = on
	m.transcript.Invalidate()
	if on {
		m.setNotice("sample conversations loaded", true)
		return
	}
	m.setNotice("sample conversations cleared", true)
}

func (m *Model) copyLatestReply() {
	conv, ok := m.store.Active()
	if !ok {
		m.setNotice("no active conversation", false)
		return
	}
	for i := len(conv.Messages) - 1; i >= 0; i-- {
		msg := conv.Messages[i]
		if msg.Role != conversation.RoleAssistant || msg.IsError() {
			continue
		}
		if err := writeClipboard(msg.Content); err != nil {
			m.setNotice("copy failed: "+err.Error(), false)
			return
		}
		m.setNotice("reply copied to clipboard", true)
		return
	}
	m.setNotice("no reply to copy", false)
}

func (m *Model) exportActive(args string) {
	conv, ok := m.store.Active()
	if !ok {
		m.setNotice("no active conversation", false)
		return
	}
	format, err := export.ParseFormat(args)
	if err != nil {
		m.setNotice(err.Error(), false)
		return
	}
	path, err := export.Save(m.exportDir, conv, format, m.agentName, m.clock())
	if err != nil {
		log.WithError(err).Warn("export conversation")
		m.setNotice("export failed: "+err.Error(), false)
		return
	}
	m.setNotice("exported to "+path, true)
}

func (m *Model) statusSummary() string {
	parts := []string{
		fmt.Sprintf("%s (%s)", m.agentName, m.ctl.AgentID()),
		m.ctl.Status(),
		fmt.Sprintf("%d conversations", m.store.Len()),
	}
	if conv, ok := m.store.Active(); ok {
		parts = append(parts, "session "+conv.SessionID)
	}
	if m.demoActive {
		parts = append(parts, "demo on")
	}
	return strings.Join(parts, " • ")
}
