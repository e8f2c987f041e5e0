package markdown

import "strings"

const (
	boldDelim = "**"
	codeDelim = "`"
)

type scanState int

const (
	stateText scanState = iota
	stateInBold
	stateInCode
)

// ParseInline splits text into plain, bold and code spans in a single
// left-to-right scan.
//
// The leftmost opener that has a matching closer wins and its content is
// taken literally, so a code span that opens first protects any "**" inside
// it and vice versa. A delimiter without a closer is plain text. Code spans
// need at least one character of content; empty spans are dropped.
func ParseInline(text string) []Span {
	var (
		spans []Span
		buf   strings.Builder
		state = stateText
		start int
	)
	flush := func(kind SpanKind, s string) {
		if s == "" {
			return
		}
		if kind == SpanText && len(spans) > 0 && spans[len(spans)-1].Kind == SpanText {
			spans[len(spans)-1].Text += s
			return
		}
		spans = append(spans, Span{Kind: kind, Text: s})
	}

	i := 0
	for i < len(text) {
		switch state {
		case stateText:
			rest := text[i:]
			if strings.HasPrefix(rest, boldDelim) && strings.Contains(rest[len(boldDelim):], boldDelim) {
				flush(SpanText, buf.String())
				buf.Reset()
				state = stateInBold
				i += len(boldDelim)
				start = i
				continue
			}
			if strings.HasPrefix(rest, codeDelim) && closesCode(rest[len(codeDelim):]) {
				flush(SpanText, buf.String())
				buf.Reset()
				state = stateInCode
				i += len(codeDelim)
				start = i
				continue
			}
			buf.WriteByte(text[i])
			i++
		case stateInBold:
			end := strings.Index(text[i:], boldDelim)
			flush(SpanBold, text[start:i+end])
			i += end + len(boldDelim)
			state = stateText
		case stateInCode:
			end := strings.Index(text[i:], codeDelim)
			flush(SpanCode, text[start:i+end])
			i += end + len(codeDelim)
			state = stateText
		}
	}
	flush(SpanText, buf.String())
	return spans
}

// closesCode reports whether s, the text after an opening backtick, starts
// with content and holds a closing backtick.
func closesCode(s string) bool {
	return s != "" && s[0] != '`' && strings.Contains(s, codeDelim)
}
