package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/calband/calchart/internal/models"
	"github.com/calband/calchart/internal/repositories"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	ShowListView ViewState = iota
	ShowDetailView
)

// Model represents the TUI application state.
type Model struct {
	view     ViewState
	shows    *repositories.ShowRepository
	width    int
	height   int
	showList list.Model
	selected *models.Show
	keys     keyMap
	help     help.Model
	loading  bool
	err      error
}

// NewModel creates the TUI model over the show repository.
func NewModel(shows *repositories.ShowRepository) Model {
	delegate := list.NewDefaultDelegate()
	showList := list.New([]list.Item{}, delegate, 0, 0)
	showList.Title = "Calchart Shows"
	showList.SetShowHelp(false)

	return Model{
		view:     ShowListView,
		shows:    shows,
		showList: showList,
		keys:     newKeyMap(),
		help:     help.New(),
		loading:  true,
	}
}

// Run starts the TUI over the given repository and blocks until it exits.
func Run(shows *repositories.ShowRepository) error {
	program := tea.NewProgram(NewModel(shows), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("tui exited with error: %w", err)
	}
	return nil
}

func (m Model) Init() tea.Cmd {
	return m.loadShows
}

// loadShows fetches every show from the repository.
func (m Model) loadShows() tea.Msg {
	shows, err := m.shows.List(nil)
	return showsLoadedMsg(shows, err)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.showList.SetSize(msg.Width, msg.Height-4)
		return m, nil

	case Msg:
		return m.handleMsg(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

// handleMsg processes application messages.
func (m Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgShowsLoaded:
		data := msg.data.(struct {
			shows []*models.Show
			err   error
		})

		m.loading = false
		m.err = data.err
		if data.err != nil {
			return m, nil
		}

		items := make([]list.Item, 0, len(data.shows))
		for _, show := range data.shows {
			items = append(items, showItem{show: show})
		}
		return m, m.showList.SetItems(items)
	}

	return m, nil
}

// handleKey processes keyboard input for the current view.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.refresh):
		m.loading = true
		return m, m.loadShows

	case key.Matches(msg, m.keys.enter):
		if m.view == ShowListView {
			if item, ok := m.showList.SelectedItem().(showItem); ok {
				m.selected = item.show
				m.view = ShowDetailView
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.back):
		if m.view == ShowDetailView {
			m.view = ShowListView
			m.selected = nil
		}
		return m, nil
	}

	if m.view == ShowListView {
		var cmd tea.Cmd
		m.showList, cmd = m.showList.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v", m.err)) + "\n" + m.helpView()
	}
	if m.loading {
		return styles.title.Render("Calchart Shows") + "\nLoading shows..."
	}

	switch m.view {
	case ShowDetailView:
		return m.detailView()
	default:
		return m.showList.View() + "\n" + m.helpView()
	}
}

// detailView renders one show's metadata.
func (m Model) detailView() string {
	if m.selected == nil {
		return m.showList.View()
	}

	show := m.selected

	status := "unpublished"
	if show.Published() {
		status = styles.ok.Render("published")
	}

	kind := "personal"
	if show.IsBand() {
		kind = styles.badge.Render("band")
	}

	document := "not set up"
	if show.IsInitialized() {
		document = fmt.Sprintf("%d bytes", len(show.Data()))
	}

	return fmt.Sprintf("%s\nSlug: %s\nKind: %s\nStatus: %s\nDocument: %s\nAdded: %s\n\n%s",
		styles.title.Render(show.Name()),
		show.Slug(),
		kind,
		status,
		document,
		show.DateAdded().Format("2006-01-02"),
		m.helpView(),
	)
}

func (m Model) helpView() string {
	return styles.help.Render(m.help.View(m.keys))
}
