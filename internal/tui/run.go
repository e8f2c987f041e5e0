package tui

import (
	"errors"

	"agentchat/internal/features"

	tea "github.com/charmbracelet/bubbletea"
)

// Result 返回 TUI 运行结束后的摘要。
type Result struct {
	Conversations int
	Recovered     bool
}

// Run 封装 Bubble Tea 入口。
func Run(opts Options) (Result, error) {
	if opts.Controller == nil {
		return Result{}, errors.New("tui: controller is required")
	}
	programOptions := []tea.ProgramOption{tea.WithMouseCellMotion()}
	if opts.Features.Enabled(features.AltScreen) {
		programOptions = append(programOptions, tea.WithAltScreen())
	}
	if opts.Context != nil {
		programOptions = append(programOptions, tea.WithContext(opts.Context))
	}
	program := tea.NewProgram(New(opts), programOptions...)
	m, err := program.Run()
	if err != nil {
		return Result{}, err
	}
	tuiModel, ok := m.(*Model)
	if !ok {
		return Result{}, errors.New("unexpected tui model")
	}
	return Result{
		Conversations: tuiModel.store.Len(),
		Recovered:     tuiModel.crashed != "",
	}, nil
}
