// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI is an operator's view over the persisted shows:
//  1. [ShowListView] : Browse all shows with their published and band badges
//  2. [ShowDetailView] : Inspect one show's metadata and document summary
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern,
// receiving messages via the Msg union type. Shows load asynchronously from the
// repository so the interface never blocks on the database.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, r, q) with
// contextual help displayed via charmbracelet/bubbles/help.
package ui
