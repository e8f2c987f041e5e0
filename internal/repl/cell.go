package repl

// HistoryCell is an append-only block of terminal output. Each bus event
// maps to at most one cell.
type HistoryCell interface {
	// Lines returns the already colored output lines.
	Lines() []string
}
