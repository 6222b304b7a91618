package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/calband/calchart/internal/models"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var _ tea.Msg = Msg{}

const (
	MsgShowsLoaded MsgKind = iota
)

// showsLoadedMsg is the constructor for [MsgShowsLoaded]
func showsLoadedMsg(shows []*models.Show, err error) Msg {
	return Msg{
		kind: MsgShowsLoaded,
		data: struct {
			shows []*models.Show
			err   error
		}{shows, err},
	}
}
