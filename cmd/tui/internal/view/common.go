package view

import (
	tea "github.com/charmbracelet/bubbletea"
)

// CommonModel carries the terminal dimensions shared by every screen.
type CommonModel struct {
	Width  int
	Height int
}

// BackMsg tells the root model to return to the main menu.
type BackMsg struct{}

// Back is used directly as a tea.Cmd by screens that want to exit.
func Back() tea.Msg {
	return BackMsg{}
}
