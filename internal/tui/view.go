package tui

import (
	"fmt"
	"strings"

	"agentchat/internal/tui/render"
	"agentchat/internal/tui/slash"

	"github.com/charmbracelet/lipgloss"
)

var (
	accent     = lipgloss.Color("#7D56F4")
	mutedColor = lipgloss.Color("#7D7A85")

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(1).
			BorderForeground(lipgloss.Color("#FFB454"))
	noticeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#E0AF68")).Padding(0, 1)
	noticeOKStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#9ECE6A")).Padding(0, 1)
	mutedStyle    = lipgloss.NewStyle().Foreground(mutedColor)
	starterStyle  = lipgloss.NewStyle().Foreground(accent)
)

// View 渲染整个界面；渲染期间的 panic 同样进入恢复界面。
func (m *Model) View() (out string) {
	defer func() {
		if r := recover(); r != nil {
			m.crash(r)
			out = m.recoveryView()
		}
	}()
	if m.crashed != "" {
		return m.recoveryView()
	}

	chatPane := renderPane("", m.viewport.View(), m.width)
	parts := []string{m.renderBanner(), chatPane}
	if m.slash.Open() {
		parts = append(parts, modalStyle.Padding(0, 1).Render(m.slash.View(maxInt(30, m.width-8))))
	}
	parts = append(parts,
		m.renderNotice(),
		renderPane("", m.textarea.View(), m.width),
		m.renderStatus(),
		renderHints(m.width),
	)
	content := lipgloss.JoinVertical(lipgloss.Left, parts...)

	if m.picking {
		return lipgloss.JoinVertical(lipgloss.Left, content, modalStyle.Render(m.picker.View()))
	}
	if m.showHelp {
		help := append([]string{"Commands"}, slash.Help()...)
		help = append(help, "", "Enter send • Alt+Enter newline • ↑/↓ history • PgUp/PgDn scroll • Ctrl+C quit")
		return lipgloss.JoinVertical(lipgloss.Left, content, modalStyle.Render(strings.Join(help, "\n")))
	}
	return content
}

func (m *Model) renderBanner() string {
	title := "no conversation selected"
	if conv, ok := m.activeConversation(); ok {
		title = conv.DisplayTitle()
	}
	line1 := lipgloss.NewStyle().Bold(true).Foreground(accent).Render(">_ " + m.agentName)
	line2 := mutedStyle.Render(fmt.Sprintf("conversation: %s   ctrl+o to switch • ctrl+n new", title))
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Padding(0, 1).
		Width(maxInt(40, m.width-2)).
		Render(line1 + "\n" + line2)
}

func renderPane(title string, body string, width int) string {
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#5E6472")).
		Padding(0, 1)
	if width > 0 {
		style = style.Width(maxInt(20, width-2))
	}
	content := body
	if strings.TrimSpace(title) != "" {
		titleText := lipgloss.NewStyle().Bold(true).Foreground(accent).Render(title)
		content = lipgloss.JoinVertical(lipgloss.Left, titleText, body)
	}
	return style.Render(content)
}

func (m *Model) renderNotice() string {
	if m.notice == "" {
		return ""
	}
	if m.noticeOK {
		return noticeOKStyle.Render(m.notice)
	}
	return noticeStyle.Render(m.notice)
}

func (m *Model) renderStatus() string {
	lines := render.RenderToLines(m.status, maxInt(20, m.width-2))
	text := strings.Join(render.LinesToStrings(lines), "\n")
	return lipgloss.NewStyle().Padding(0, 1).Render(text)
}

func renderHints(width int) string {
	hint := "Enter send • / commands • Ctrl+R retry • Ctrl+O chats • Ctrl+N new • Ctrl+T demo • /help"
	return mutedStyle.
		Padding(0, 1).
		Width(maxInt(20, width)).
		Render(hint)
}

// emptyStateLines 是没有消息时显示的欢迎页与建议开场白。
func emptyStateLines(agentName string, width int) []render.Line {
	lines := []render.Line{
		{Spans: []render.Span{{Text: "Chat with " + agentName, Style: lipgloss.NewStyle().Bold(true)}}},
		{},
	}
	intro := "Start a conversation below or choose one of the suggestions to get started."
	lines = append(lines, render.WrapSpans([]render.Span{{Text: intro, Style: mutedStyle}}, width)...)
	lines = append(lines, render.Line{})
	for _, st := range slash.Starters {
		lines = append(lines, render.Line{Spans: []render.Span{
			{Text: "  /" + st.Token(), Style: starterStyle},
			{Text: "  " + st.Text},
		}})
	}
	return lines
}

func (m *Model) recoveryView() string {
	body := []string{
		lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F7768E")).Render("Something went wrong"),
		"",
		m.crashed,
		"",
		"Press r to reset all conversations and start over, q to quit.",
	}
	return modalStyle.Width(maxInt(40, m.width-4)).Render(strings.Join(body, "\n"))
}
