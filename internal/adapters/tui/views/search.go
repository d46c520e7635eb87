package views

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"lexshelf/internal/adapters/tui/styles"
	"lexshelf/internal/application/commands"
	"lexshelf/internal/ports"
)

// SearchKeyMap defines key bindings for the search view
type SearchKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
	Copy   key.Binding
	Cancel key.Binding
}

var SearchKeys = SearchKeyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "ctrl+p"),
		key.WithHelp("↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "ctrl+n"),
		key.WithHelp("↓", "down"),
	),
	Select: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "open"),
	),
	Copy: key.NewBinding(
		key.WithKeys("ctrl+y"),
		key.WithHelp("ctrl+y", "copy path"),
	),
	Cancel: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "back"),
	),
}

// searchPageSize is the number of results shown at once
const searchPageSize = 10

// SearchModel searches the document catalog as the user types
type SearchModel struct {
	ViewState
	store   ports.LeafStore
	input   textinput.Model
	results []commands.SearchResult
	pager   *Paginator
	query   string // query the results belong to
}

// NewSearchModel creates a new search view model
func NewSearchModel(store ports.LeafStore) *SearchModel {
	input := textinput.New()
	input.Placeholder = "id, title, jurisdiction, domain or type..."
	input.Focus()

	return &SearchModel{
		store: store,
		input: input,
		pager: NewPaginator(searchPageSize),
	}
}

// Init initializes the search view
func (m *SearchModel) Init() tea.Cmd {
	return textinput.Blink
}

// Reset clears the query and results
func (m *SearchModel) Reset() {
	m.input.SetValue("")
	m.results = nil
	m.query = ""
	m.pager.SetTotal(0)
	m.ClearMessage()
	m.input.Focus()
}

type searchResultsMsg struct {
	query   string
	results []commands.SearchResult
}

// Update handles messages for the search view
func (m *SearchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case searchResultsMsg:
		// Drop results of a query the user has typed past
		if msg.query != m.input.Value() {
			return m, nil
		}
		m.query = msg.query
		m.results = msg.results
		m.pager.SetTotal(len(msg.results))
		m.pager.SetCursor(0)
		return m, nil

	case errMsg:
		m.SetMessage(msg.err.Error(), true)
		return m, nil

	case copiedMsg:
		m.SetMessage("Copied "+msg.text, false)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, SearchKeys.Cancel):
			return m, func() tea.Msg { return SwitchToBrowserMsg{} }

		case key.Matches(msg, SearchKeys.Up):
			m.pager.CursorUp()
			return m, nil

		case key.Matches(msg, SearchKeys.Down):
			m.pager.CursorDown()
			return m, nil

		case key.Matches(msg, SearchKeys.Select):
			if r, ok := m.selected(); ok {
				return m, func() tea.Msg { return OpenDocumentMsg{RelPath: r.FilePath} }
			}
			return m, nil

		case key.Matches(msg, SearchKeys.Copy):
			if r, ok := m.selected(); ok {
				return m, copyPath(m.store.AbsPath(r.FilePath))
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)

	query := m.input.Value()
	switch {
	case query == m.query:
	case len(query) >= 2:
		return m, tea.Batch(cmd, m.search(query))
	default:
		m.results = nil
		m.query = query
		m.pager.SetTotal(0)
	}
	return m, cmd
}

func (m *SearchModel) search(query string) tea.Cmd {
	return func() tea.Msg {
		results, err := commands.NewSearchCommand(m.store, query, 0).Execute(context.Background())
		if err != nil {
			return errMsg{err}
		}
		return searchResultsMsg{query: query, results: results}
	}
}

func (m *SearchModel) selected() (commands.SearchResult, bool) {
	i := m.pager.Cursor()
	if i >= 0 && i < len(m.results) {
		return m.results[i], true
	}
	return commands.SearchResult{}, false
}

// View renders the search view
func (m *SearchModel) View() string {
	v := NewViewBuilder().Title("Search").
		Line(styles.InputFocused.Render(m.input.View())).
		BlankLine()

	switch {
	case len(m.results) > 0:
		v.Subtitle(fmt.Sprintf("%d results", len(m.results)))
		start, end := m.pager.VisibleRange()
		for i := start; i < end; i++ {
			v.Line(m.renderResult(m.results[i], i == m.pager.Cursor()))
		}
		if m.pager.TotalPages() > 1 {
			v.Muted(fmt.Sprintf("page %d/%d", m.pager.CurrentPage(), m.pager.TotalPages()))
		}
	case len(m.input.Value()) >= 2:
		v.Muted("No results found")
	default:
		v.Muted("Type at least 2 characters to search")
	}

	return v.Message(m.Message, m.MessageErr).
		Help(SearchKeys.Up, SearchKeys.Down, SearchKeys.Select, SearchKeys.Copy, SearchKeys.Cancel).
		String()
}

func (m *SearchModel) renderResult(r commands.SearchResult, selected bool) string {
	text := fmt.Sprintf("%s  %s", r.ID, r.Title)
	if selected {
		text = styles.NodeSelected.Render(text)
	}
	return text + "  " + styles.MutedText.Render(fmt.Sprintf("[%s, %s] %s", r.Jurisdiction, r.DocumentType, r.FilePath))
}
