package render

// Rect 表示矩形区域。
type Rect struct {
	X, Y          int
	Width, Height int
}

// CursorPos 代表光标位置。
type CursorPos struct {
	X int
	Y int
}

// Renderable 是状态栏等小部件的渲染约定：先报告高度，再写入 Buffer。
type Renderable interface {
	Render(area Rect, buf *Buffer)
	DesiredHeight(width int) int
	CursorPos(area Rect) *CursorPos
}

// RenderToLines 以给定宽度渲染为行；高度取部件自己报告的值。
func RenderToLines(r Renderable, width int) []Line {
	if r == nil || width <= 0 {
		return nil
	}
	buf := Buffer{}
	r.Render(Rect{Width: width, Height: r.DesiredHeight(width)}, &buf)
	return buf.Lines
}
