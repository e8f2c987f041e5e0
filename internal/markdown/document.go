// Package markdown 将 agent 的原始回复解析为块/行内文档模型。
package markdown

import "strings"

// BlockKind 区分块类型。
type BlockKind int

const (
	BlockParagraph BlockKind = iota
	BlockHeading
	BlockListItem
	BlockOrderedItem
	BlockCode
	BlockSpacer
)

func (k BlockKind) String() string {
	switch k {
	case BlockParagraph:
		return "paragraph"
	case BlockHeading:
		return "heading"
	case BlockListItem:
		return "list_item"
	case BlockOrderedItem:
		return "ordered_item"
	case BlockCode:
		return "code"
	case BlockSpacer:
		return "spacer"
	default:
		return "unknown"
	}
}

// SpanKind 区分行内片段类型。
type SpanKind int

const (
	SpanText SpanKind = iota
	SpanBold
	SpanCode
)

func (k SpanKind) String() string {
	switch k {
	case SpanText:
		return "text"
	case SpanBold:
		return "bold"
	case SpanCode:
		return "code"
	default:
		return "unknown"
	}
}

// Span is a run of inline text with a single format.
type Span struct {
	Kind SpanKind
	Text string
}

// Block is one rendered unit in source order.
//
// Level is set for headings (1-3), Ordinal for ordered items, Language for
// fenced code when the opening fence carries an info string. Text holds the
// raw content (the verbatim lines for code blocks); Spans holds the inline
// parse for headings, list items and paragraphs.
type Block struct {
	Kind     BlockKind
	Level    int
	Ordinal  int
	Language string
	Text     string
	Spans    []Span
}

// Document is the ordered output of Render.
type Document struct {
	Blocks []Block
}

// Empty reports whether the document has no blocks.
func (d Document) Empty() bool {
	return len(d.Blocks) == 0
}

// PlainText 去掉格式，只保留文本内容，用于复制与导出。
func (d Document) PlainText() string {
	var b strings.Builder
	for i, block := range d.Blocks {
		if i > 0 {
			b.WriteByte('\n')
		}
		switch block.Kind {
		case BlockSpacer:
		case BlockCode:
			b.WriteString(block.Text)
		default:
			b.WriteString(SpansText(block.Spans))
		}
	}
	return b.String()
}

// SpansText concatenates span text without formatting.
func SpansText(spans []Span) string {
	var b strings.Builder
	for _, s := range spans {
		b.WriteString(s.Text)
	}
	return b.String()
}
