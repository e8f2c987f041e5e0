package render

import (
	"slices"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestWrapTextWithWideRunes(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		width int
		want  []string
	}{
		{
			name:  "pure wide runes",
			text:  "你好世界",
			width: 4,
			want:  []string{"你好", "世界"},
		},
		{
			name:  "mix wide and ascii",
			text:  "你好 hello",
			width: 4,
			want:  []string{"你好", "hell", "o"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := wrapText(tt.text, tt.width)
			if !slices.Equal(got, tt.want) {
				t.Fatalf("wrapText(%q,%d)=%v want %v", tt.text, tt.width, got, tt.want)
			}
		})
	}
}

func TestWrapSpansKeepsStylesAcrossBreaks(t *testing.T) {
	bold := lipgloss.NewStyle().Bold(true)
	spans := []Span{{Text: "alpha "}, {Text: "beta gamma", Style: bold}, {Text: " delta"}}

	lines := WrapSpans(spans, 10)
	got := LinesToPlainStrings(lines)
	want := []string{"alpha beta", "gamma", "delta"}
	if !slices.Equal(got, want) {
		t.Fatalf("WrapSpans() = %q, want %q", got, want)
	}
	if len(lines[1].Spans) != 1 || !lines[1].Spans[0].Style.GetBold() {
		t.Fatalf("second line should carry the bold style: %+v", lines[1].Spans)
	}
}

func TestWrapSpansGluesAdjacentSpans(t *testing.T) {
	spans := []Span{{Text: "see "}, {Text: "code"}, {Text: ", then"}}
	got := LinesToPlainStrings(WrapSpans(spans, 9))
	want := []string{"see code,", "then"}
	if !slices.Equal(got, want) {
		t.Fatalf("WrapSpans() = %q, want %q", got, want)
	}
}

func TestWrapSpansEmptyInput(t *testing.T) {
	lines := WrapSpans(nil, 10)
	if len(lines) != 1 || lines[0].Plain() != "" {
		t.Fatalf("WrapSpans(nil) = %+v, want one empty line", lines)
	}
}

func TestBreakSpansPreservesSpaces(t *testing.T) {
	got := LinesToPlainStrings(BreakSpans([]Span{{Text: "  if x {"}}, 4))
	want := []string{"  if", " x {"}
	if !slices.Equal(got, want) {
		t.Fatalf("BreakSpans() = %q, want %q", got, want)
	}
}
