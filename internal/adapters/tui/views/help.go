package views

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"lexshelf/internal/adapters/tui/styles"
)

// HelpKeyMap defines key bindings for the help view
type HelpKeyMap struct {
	Close key.Binding
}

var HelpKeys = HelpKeyMap{
	Close: key.NewBinding(
		key.WithKeys("esc", "q", "?"),
		key.WithHelp("esc/q/?", "close"),
	),
}

// HelpModel is the model for the help view
type HelpModel struct {
	ViewState
	capacity int
}

// NewHelpModel creates a new help view model
func NewHelpModel(capacity int) *HelpModel {
	return &HelpModel{capacity: capacity}
}

// Init initializes the help view
func (m *HelpModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the help view
func (m *HelpModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, HelpKeys.Close) {
			return m, func() tea.Msg { return SwitchToBrowserMsg{} }
		}
	}
	return m, nil
}

// View renders the help view
func (m *HelpModel) View() string {
	v := NewViewBuilder().Title("lexshelf Help").Subtitle("Capacity-bounded legal document repository")

	v.Section("Navigation").
		Line(helpLine("j / k / ↑ / ↓", "Move up/down")).
		Line(helpLine("pgup / pgdn", "Previous/next page")).
		Line(helpLine("h / ←", "Collapse / go to parent")).
		Line(helpLine("l / → / Enter", "Expand / open document")).
		BlankLine()

	v.Section("Actions").
		Line(helpLine("/", "Search the catalog")).
		Line(helpLine("s", "Statistics")).
		Line(helpLine("y", "Copy path to clipboard")).
		Line(helpLine("r", "Reload tree")).
		BlankLine()

	v.Section("General").
		Line(helpLine("?", "Toggle help")).
		Line(helpLine("q / Ctrl+C", "Quit")).
		BlankLine()

	v.Section("Layout").
		Muted("  date range / category / subcategory / [batch_NNN /] id.json").
		Muted("  A directory never holds more than " + strconv.Itoa(m.capacity) + " documents;").
		Muted("  a full leaf overflows into batch_001, batch_002, ...").
		Muted("  Search uses the catalog written by lexshelf-cli reindex.")

	return v.Help(HelpKeys.Close).String()
}

func helpLine(key, desc string) string {
	return "  " + styles.HelpKey.Render(padRight(key, 20)) + styles.HelpDesc.Render(desc)
}

func padRight(s string, length int) string {
	n := len([]rune(s))
	if n >= length {
		return s
	}
	return s + strings.Repeat(" ", length-n)
}
