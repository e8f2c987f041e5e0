package render

import "testing"

func TestViewportSetLinesKeepsBottom(t *testing.T) {
	vp := NewViewport(10, 2)
	vp.SetLines([]string{"a", "b"})
	vp.GotoBottom()

	if changed := vp.SetLines([]string{"a", "b", "c"}); !changed {
		t.Fatalf("SetLines() changed = false, want true")
	}
	if !vp.AtBottom() {
		t.Fatalf("viewport should stay anchored at bottom after append")
	}
}

func TestViewportSetLinesSkipsIdenticalContent(t *testing.T) {
	vp := NewViewport(10, 2)
	vp.SetLines([]string{"a", "b", "c"})
	if changed := vp.SetLines([]string{"a", "b", "c"}); changed {
		t.Fatalf("SetLines() changed = true for identical content")
	}
	vp.Invalidate()
	if changed := vp.SetLines([]string{"a", "b", "c"}); !changed {
		t.Fatalf("SetLines() after Invalidate changed = false")
	}
}

func TestViewportKeepsScrollPositionWhenNotAtBottom(t *testing.T) {
	vp := NewViewport(8, 2)
	vp.SetLines([]string{"a", "b", "c", "d"})
	vp.SetYOffset(0)

	vp.SetLines([]string{"a", "b", "c", "d", "e"})
	if vp.YOffset != 0 {
		t.Fatalf("YOffset = %d, want 0", vp.YOffset)
	}
}

func TestViewportResizeInvalidatesOnWidthChange(t *testing.T) {
	vp := NewViewport(8, 2)
	vp.SetLines([]string{"a"})
	vp.Resize(12, 2)
	if vp.lastLines != nil {
		t.Fatalf("lastLines should be cleared after width change")
	}
	vp.SetLines([]string{"a"})
	vp.Resize(12, 5)
	if vp.lastLines == nil {
		t.Fatalf("height-only resize should keep cache")
	}
}
