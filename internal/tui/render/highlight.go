package render

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
)

// HighlightStyle 是代码块使用的 chroma 主题名。
const HighlightStyle = "monokai"

// HighlightCode 使用 chroma 将代码拆成带样式的行。
// language 为空时按内容推断；识别失败时退回纯文本。
func HighlightCode(language, code string) []Line {
	lexer := lexers.Get(language)
	if lexer == nil && strings.TrimSpace(language) == "" {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		return plainCodeLines(code)
	}
	lexer = chroma.Coalesce(lexer)

	style := chromaStyles.Get(HighlightStyle)
	if style == nil {
		style = chromaStyles.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return plainCodeLines(code)
	}

	lines := []Line{{}}
	for _, token := range iterator.Tokens() {
		tokenStyle := styleForToken(style, token.Type)
		parts := strings.Split(token.Value, "\n")
		for i, part := range parts {
			if i > 0 {
				lines = append(lines, Line{})
			}
			if part == "" {
				continue
			}
			last := &lines[len(lines)-1]
			last.Spans = append(last.Spans, Span{Text: part, Style: tokenStyle})
		}
	}
	// chroma 会在末尾补换行
	if n := len(lines); n > 1 && len(lines[n-1].Spans) == 0 && !strings.HasSuffix(code, "\n") {
		lines = lines[:n-1]
	}
	return lines
}

func styleForToken(style *chroma.Style, tokenType chroma.TokenType) lipgloss.Style {
	entry := style.Get(tokenType)
	out := lipgloss.NewStyle()
	if entry.Colour.IsSet() {
		out = out.Foreground(lipgloss.Color(entry.Colour.String()))
	}
	if entry.Bold == chroma.Yes {
		out = out.Bold(true)
	}
	if entry.Italic == chroma.Yes {
		out = out.Italic(true)
	}
	return out
}

func plainCodeLines(code string) []Line {
	raw := strings.Split(code, "\n")
	lines := make([]Line, 0, len(raw))
	for _, l := range raw {
		if l == "" {
			lines = append(lines, Line{})
			continue
		}
		lines = append(lines, Line{Spans: []Span{{Text: l, Style: codeTextStyle}}})
	}
	return lines
}
