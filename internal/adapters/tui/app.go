package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"lexshelf/internal/adapters/tui/views"
	"lexshelf/internal/application"
	"lexshelf/internal/ports"
)

// ViewState represents the current view
type ViewState int

const (
	ViewBrowser ViewState = iota
	ViewSearch
	ViewPreview
	ViewStats
	ViewHelp
)

// App is the main TUI application model
type App struct {
	state   ViewState
	back    ViewState // where the preview returns to
	browser *views.BrowserModel
	search  *views.SearchModel
	preview *views.PreviewModel
	stats   *views.StatsModel
	help    *views.HelpModel
}

// NewApp creates a new TUI application over the repository
func NewApp(store ports.LeafStore, indexer *application.IndexBuilder, capacity int) *App {
	return &App{
		state:   ViewBrowser,
		browser: views.NewBrowserModel(store, capacity),
		search:  views.NewSearchModel(store),
		preview: views.NewPreviewModel(store),
		stats:   views.NewStatsModel(store, indexer),
		help:    views.NewHelpModel(capacity),
	}
}

// Init initializes the application
func (a *App) Init() tea.Cmd {
	return a.browser.Init()
}

// State returns the view being shown
func (a *App) State() ViewState {
	return a.state
}

// Update handles messages for the application
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}

	case tea.WindowSizeMsg:
		a.browser.SetSize(msg.Width, msg.Height)
		a.search.SetSize(msg.Width, msg.Height)
		a.preview.SetSize(msg.Width, msg.Height)
		a.stats.SetSize(msg.Width, msg.Height)
		a.help.SetSize(msg.Width, msg.Height)
		return a, nil

	// View switching messages
	case views.SwitchToSearchMsg:
		a.state = ViewSearch
		a.search.Reset()
		return a, a.search.Init()

	case views.SwitchToStatsMsg:
		a.state = ViewStats
		return a, a.stats.Load(false)

	case views.SwitchToHelpMsg:
		a.state = ViewHelp
		return a, nil

	case views.OpenDocumentMsg:
		a.back = a.state
		a.state = ViewPreview
		return a, a.preview.Open(msg.RelPath)

	case views.SwitchToBrowserMsg:
		if a.state == ViewPreview && a.back == ViewSearch {
			a.state = ViewSearch
			return a, nil
		}
		a.state = ViewBrowser
		return a, nil
	}

	// Delegate to current view
	var cmd tea.Cmd
	switch a.state {
	case ViewBrowser:
		_, cmd = a.browser.Update(msg)
	case ViewSearch:
		_, cmd = a.search.Update(msg)
	case ViewPreview:
		_, cmd = a.preview.Update(msg)
	case ViewStats:
		_, cmd = a.stats.Update(msg)
	case ViewHelp:
		_, cmd = a.help.Update(msg)
	}

	return a, cmd
}

// View renders the current view
func (a *App) View() string {
	switch a.state {
	case ViewSearch:
		return a.search.View()
	case ViewPreview:
		return a.preview.View()
	case ViewStats:
		return a.stats.View()
	case ViewHelp:
		return a.help.View()
	default:
		return a.browser.View()
	}
}
