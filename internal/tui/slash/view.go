package slash

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

var (
	nameStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#C4A1FF"))
	descStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
	highlightStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#EBCB8B"))
	selectedStyle  = lipgloss.NewStyle().Background(lipgloss.Color("#2F2A3D"))
)

// View 渲染弹窗内容（不含外围边框）；每个条目占一行，描述超宽时截断。
func (s *State) View(width int) string {
	if s == nil || !s.open {
		return ""
	}
	contentWidth := width
	if contentWidth <= 20 {
		contentWidth = 20
	}
	if len(s.matches) == 0 {
		return lipgloss.NewStyle().Width(contentWidth).Render(descStyle.Render("no matches"))
	}

	nameWidth := s.nameColumnWidth(contentWidth)
	descWidth := contentWidth - nameWidth - 2
	start, end := s.window()
	lines := make([]string, 0, end-start)
	for idx := start; idx < end; idx++ {
		m := s.matches[idx]
		name := lipgloss.NewStyle().Width(nameWidth).Render(applyHighlights(m.item.DisplayName(), m.highlights))
		desc := descStyle.Render(runewidth.Truncate(m.item.Description, descWidth, "…"))
		line := name + "  " + desc
		if idx == s.selected {
			line = selectedStyle.Render(line)
		}
		lines = append(lines, line)
	}
	return lipgloss.NewStyle().Width(contentWidth).Render(strings.Join(lines, "\n"))
}

// window 返回包含选中项的可见区间。
func (s *State) window() (int, int) {
	n := len(s.matches)
	if n <= s.maxLines {
		return 0, n
	}
	start := 0
	if s.selected >= s.maxLines {
		start = s.selected - s.maxLines + 1
	}
	return start, start + s.maxLines
}

func (s *State) nameColumnWidth(contentWidth int) int {
	maxName := 10
	for _, m := range s.matches {
		if w := runewidth.StringWidth(m.item.DisplayName()); w > maxName {
			maxName = w
		}
	}
	if maxName > contentWidth-12 {
		maxName = contentWidth - 12
	}
	return maxName
}

func applyHighlights(name string, indexes []int) string {
	if len(indexes) == 0 {
		return nameStyle.Render(name)
	}
	marked := map[int]bool{}
	for _, idx := range indexes {
		marked[idx] = true
	}
	var b strings.Builder
	for i, r := range []rune(name) {
		// indexes 基于无斜杠的 token，DisplayName 多一个前导 /
		if i > 0 && marked[i-1] {
			b.WriteString(highlightStyle.Render(string(r)))
			continue
		}
		b.WriteString(nameStyle.Render(string(r)))
	}
	return b.String()
}
