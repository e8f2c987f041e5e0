package repl

import (
	"strings"

	"agentchat/internal/markdown"
	"agentchat/internal/tui/render"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/fatih/color"
)

var (
	headingColors = map[int]*color.Color{
		1: color.New(color.FgMagenta, color.Bold, color.Underline),
		2: color.New(color.FgMagenta, color.Bold),
		3: color.New(color.Bold),
	}
	boldColor   = color.New(color.Bold)
	codeColor   = color.New(color.FgYellow)
	bulletColor = color.New(color.FgMagenta)
	gutterColor = color.New(color.Faint)
	labelColor  = color.New(color.Faint, color.Italic)
)

const codeGutter = "│ "

// Printer 把 markdown 文档转成带 ANSI 颜色的行，终端负责软换行。
type Printer struct {
	Highlight bool
}

func (p Printer) Document(doc markdown.Document) []string {
	out := make([]string, 0, len(doc.Blocks))
	for _, b := range doc.Blocks {
		switch b.Kind {
		case markdown.BlockSpacer:
			out = append(out, "")
		case markdown.BlockHeading:
			c, ok := headingColors[b.Level]
			if !ok {
				c = headingColors[3]
			}
			out = append(out, c.Sprint(markdown.SpansText(b.Spans)))
		case markdown.BlockListItem:
			out = append(out, bulletColor.Sprint("• ")+inline(b.Spans))
		case markdown.BlockOrderedItem:
			out = append(out, bulletColor.Sprintf("%d. ", b.Ordinal)+inline(b.Spans))
		case markdown.BlockCode:
			out = append(out, p.code(b.Language, b.Text)...)
		default:
			out = append(out, inline(b.Spans))
		}
	}
	return out
}

func inline(spans []markdown.Span) string {
	var b strings.Builder
	for _, s := range spans {
		switch s.Kind {
		case markdown.SpanBold:
			b.WriteString(boldColor.Sprint(s.Text))
		case markdown.SpanCode:
			b.WriteString(codeColor.Sprint(s.Text))
		default:
			b.WriteString(s.Text)
		}
	}
	return b.String()
}

func (p Printer) code(language, text string) []string {
	source := strings.Split(text, "\n")
	var body []string
	if p.Highlight && !color.NoColor {
		body = highlightLines(language, text, len(source))
	}
	if body == nil {
		body = source
	}
	out := make([]string, 0, len(body)+1)
	if language != "" {
		out = append(out, labelColor.Sprint(language))
	}
	for _, line := range body {
		out = append(out, gutterColor.Sprint(codeGutter)+line)
	}
	return out
}

// highlightLines 逐行调用 terminal256 formatter，避免颜色跨行泄漏。
// 失败时返回 nil，由调用方回退为纯文本。
func highlightLines(language, code string, want int) []string {
	lexer := lexers.Get(language)
	if lexer == nil && language == "" {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		return nil
	}
	lexer = chroma.Coalesce(lexer)
	style := styles.Get(render.HighlightStyle)
	if style == nil {
		style = styles.Fallback
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}
	it, err := lexer.Tokenise(nil, code)
	if err != nil {
		return nil
	}
	lines := chroma.SplitTokensIntoLines(it.Tokens())
	out := make([]string, 0, want)
	for _, tokens := range lines {
		if len(out) == want {
			break
		}
		var buf strings.Builder
		if err := formatter.Format(&buf, style, chroma.Literator(tokens...)); err != nil {
			return nil
		}
		out = append(out, strings.ReplaceAll(buf.String(), "\n", ""))
	}
	for len(out) < want {
		out = append(out, "")
	}
	return out
}

// userLine 回放历史时显示用户消息。
func userLine(text string) string {
	return bulletColor.Sprint("› ") + text
}
