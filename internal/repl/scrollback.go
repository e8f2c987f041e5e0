package repl

import (
	"fmt"
	"io"
	"os"
)

// Scrollback 是终端的历史区：完成的 cell 直接追加写入，不再重绘。
// 它只负责输出，不保存会话内容。
type Scrollback struct {
	w io.Writer
}

func NewScrollback(w io.Writer) *Scrollback {
	if w == nil {
		w = os.Stdout
	}
	return &Scrollback{w: w}
}

// AppendCell 将一个已完成的 HistoryCell 写入 scrollback。
func (s *Scrollback) AppendCell(cell HistoryCell) {
	if s == nil || cell == nil || s.w == nil {
		return
	}
	for _, line := range cell.Lines() {
		fmt.Fprintln(s.w, line)
	}
}
