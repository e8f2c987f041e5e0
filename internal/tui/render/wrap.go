package render

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// wrapText 使用词级别换行，宽度按终端显示宽度计算。
func wrapText(text string, width int) []string {
	if width <= 0 {
		return []string{text}
	}
	lines := []string{}
	for _, raw := range strings.Split(text, "\n") {
		if raw == "" {
			lines = append(lines, "")
			continue
		}
		for _, l := range WrapSpans([]Span{{Text: raw}}, width) {
			lines = append(lines, l.Plain())
		}
	}
	if len(lines) == 0 {
		lines = append(lines, "")
	}
	return lines
}

// unit 是一个不可拆分的词（可能跨多个 span）及其前导空白。
type unit struct {
	lead []Span
	body []Span
}

func spansWidth(spans []Span) int {
	w := 0
	for _, sp := range spans {
		w += runewidth.StringWidth(sp.Text)
	}
	return w
}

func splitUnits(spans []Span) []unit {
	units := []unit{}
	cur := unit{}
	for _, sp := range spans {
		text := sp.Text
		for text != "" {
			if text[0] == ' ' {
				n := len(text) - len(strings.TrimLeft(text, " "))
				if len(cur.body) > 0 {
					units = append(units, cur)
					cur = unit{}
				}
				cur.lead = append(cur.lead, Span{Text: text[:n], Style: sp.Style})
				text = text[n:]
				continue
			}
			j := strings.IndexByte(text, ' ')
			if j < 0 {
				j = len(text)
			}
			cur.body = append(cur.body, Span{Text: text[:j], Style: sp.Style})
			text = text[j:]
		}
	}
	if len(cur.body) > 0 {
		units = append(units, cur)
	}
	return units
}

// WrapSpans 按词换行并保留每个 span 的样式；超长的词按字符硬断。
func WrapSpans(spans []Span, width int) []Line {
	if width <= 0 {
		return []Line{{Spans: append([]Span(nil), spans...)}}
	}
	var (
		out    []Line
		line   []Span
		lineW  int
		flush  = func() { out = append(out, Line{Spans: line}); line = nil; lineW = 0 }
		hasOut = func() bool { return len(line) > 0 }
	)
	for _, u := range splitUnits(spans) {
		bw := spansWidth(u.body)
		lw := spansWidth(u.lead)
		if hasOut() && lineW+lw+bw > width {
			flush()
		}
		if bw > width {
			if hasOut() {
				flush()
			}
			chunks := BreakSpans(u.body, width)
			out = append(out, chunks[:len(chunks)-1]...)
			line = chunks[len(chunks)-1].Spans
			lineW = spansWidth(line)
			continue
		}
		if hasOut() {
			line = append(line, u.lead...)
			lineW += lw
		}
		line = append(line, u.body...)
		lineW += bw
	}
	if hasOut() || len(out) == 0 {
		flush()
	}
	return out
}

// BreakSpans 按显示宽度逐字符断行，保留空白（用于代码块）。
func BreakSpans(spans []Span, width int) []Line {
	if width <= 0 {
		return []Line{{Spans: append([]Span(nil), spans...)}}
	}
	var (
		out   []Line
		line  []Span
		lineW int
	)
	for _, sp := range spans {
		var b strings.Builder
		for _, r := range sp.Text {
			rw := runewidth.RuneWidth(r)
			if lineW+rw > width && lineW > 0 {
				if b.Len() > 0 {
					line = append(line, Span{Text: b.String(), Style: sp.Style})
					b.Reset()
				}
				out = append(out, Line{Spans: line})
				line = nil
				lineW = 0
			}
			b.WriteRune(r)
			lineW += rw
		}
		if b.Len() > 0 {
			line = append(line, Span{Text: b.String(), Style: sp.Style})
		}
	}
	out = append(out, Line{Spans: line})
	return out
}
