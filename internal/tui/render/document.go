package render

import (
	"strconv"
	"strings"

	"agentchat/internal/markdown"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

var (
	accentColor = lipgloss.Color("#7D56F4")

	headingStyles = map[int]lipgloss.Style{
		1: lipgloss.NewStyle().Bold(true).Underline(true).Foreground(accentColor),
		2: lipgloss.NewStyle().Bold(true).Foreground(accentColor),
		3: lipgloss.NewStyle().Bold(true),
	}
	boldStyle       = lipgloss.NewStyle().Bold(true)
	inlineCodeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF9E64"))
	bulletStyle     = lipgloss.NewStyle().Foreground(accentColor)
	codeGutterStyle = lipgloss.NewStyle().Faint(true)
	codeTextStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#C0CAF5"))
	codeLabelStyle  = lipgloss.NewStyle().Faint(true).Italic(true)
)

// DocumentOptions 控制文档渲染。
type DocumentOptions struct {
	// Highlight 为 true 时代码块使用 chroma 着色。
	Highlight bool
}

// RenderDocument 将 markdown 文档按给定宽度排版为样式化的行。
func RenderDocument(doc markdown.Document, width int, opts DocumentOptions) []Line {
	out := []Line{}
	for _, block := range doc.Blocks {
		switch block.Kind {
		case markdown.BlockSpacer:
			out = append(out, Line{})
		case markdown.BlockHeading:
			style, ok := headingStyles[block.Level]
			if !ok {
				style = boldStyle
			}
			out = append(out, WrapSpans(styledSpans(block.Spans, style), width)...)
		case markdown.BlockListItem:
			out = append(out, hangingItem("• ", block.Spans, width)...)
		case markdown.BlockOrderedItem:
			out = append(out, hangingItem(strconv.Itoa(block.Ordinal)+". ", block.Spans, width)...)
		case markdown.BlockCode:
			out = append(out, codeLines(block, width, opts.Highlight)...)
		default:
			out = append(out, WrapSpans(styledSpans(block.Spans, lipgloss.NewStyle()), width)...)
		}
	}
	return out
}

// styledSpans 把行内片段映射为带样式的 span，base 叠加在每个片段上。
func styledSpans(spans []markdown.Span, base lipgloss.Style) []Span {
	out := make([]Span, 0, len(spans))
	for _, sp := range spans {
		style := base
		switch sp.Kind {
		case markdown.SpanBold:
			style = style.Bold(true)
		case markdown.SpanCode:
			style = style.Inherit(inlineCodeStyle)
		}
		out = append(out, Span{Text: sp.Text, Style: style})
	}
	return out
}

func hangingItem(marker string, spans []markdown.Span, width int) []Line {
	indent := strings.Repeat(" ", runewidth.StringWidth(marker))
	inner := width - len(indent)
	if width > 0 && inner < 1 {
		inner = 1
	}
	body := WrapSpans(styledSpans(spans, lipgloss.NewStyle()), inner)
	return PrefixLines(body, Span{Text: marker, Style: bulletStyle}, Span{Text: indent})
}

func codeLines(block markdown.Block, width int, highlight bool) []Line {
	var lines []Line
	if highlight {
		lines = HighlightCode(block.Language, block.Text)
	} else {
		lines = plainCodeLines(block.Text)
	}
	gutter := Span{Text: "│ ", Style: codeGutterStyle}
	inner := width - 2
	if width > 0 && inner < 1 {
		inner = 1
	}
	out := []Line{}
	if block.Language != "" {
		out = append(out, Line{Spans: []Span{gutter, {Text: block.Language, Style: codeLabelStyle}}})
	}
	for _, l := range lines {
		for _, wrapped := range BreakSpans(l.Spans, inner) {
			spans := append([]Span{gutter}, wrapped.Spans...)
			out = append(out, Line{Spans: spans})
		}
	}
	return out
}
