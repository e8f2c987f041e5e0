package markdown

import (
	"reflect"
	"testing"
)

func TestParseInline(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want []Span
	}{
		{name: "empty", in: "", want: nil},
		{name: "plain", in: "hello", want: []Span{{SpanText, "hello"}}},
		{
			name: "bold and code",
			in:   "**bold** and `code`",
			want: []Span{{SpanBold, "bold"}, {SpanText, " and "}, {SpanCode, "code"}},
		},
		{
			name: "two bold pairs",
			in:   "a **b** c **d**",
			want: []Span{{SpanText, "a "}, {SpanBold, "b"}, {SpanText, " c "}, {SpanBold, "d"}},
		},
		{
			name: "code protects bold markers",
			in:   "run `a **b** c` now",
			want: []Span{{SpanText, "run "}, {SpanCode, "a **b** c"}, {SpanText, " now"}},
		},
		{
			name: "bold content is literal",
			in:   "**see `x`**",
			want: []Span{{SpanBold, "see `x`"}},
		},
		{name: "unpaired bold", in: "**open only", want: []Span{{SpanText, "**open only"}}},
		{name: "unpaired code", in: "tick ` here", want: []Span{{SpanText, "tick ` here"}}},
		{name: "odd bold count", in: "**a** and **b", want: []Span{{SpanBold, "a"}, {SpanText, " and **b"}}},
		{name: "empty code stays literal", in: "a `` b", want: []Span{{SpanText, "a `` b"}}},
		{name: "empty bold dropped", in: "x****y", want: []Span{{SpanText, "xy"}}},
		{name: "single asterisks", in: "2 * 3 * 4", want: []Span{{SpanText, "2 * 3 * 4"}}},
		{name: "unicode", in: "**你好** 世界", want: []Span{{SpanBold, "你好"}, {SpanText, " 世界"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseInline(tc.in)
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("ParseInline(%q) = %#v, want %#v", tc.in, got, tc.want)
			}
		})
	}
}

func TestParseInlineNoFalseEmphasis(t *testing.T) {
	for _, in := range []string{"**", "`", "**x", "x**", "`x", "x`"} {
		for _, s := range ParseInline(in) {
			if s.Kind != SpanText {
				t.Fatalf("ParseInline(%q) produced %v span %q", in, s.Kind, s.Text)
			}
		}
	}
}
