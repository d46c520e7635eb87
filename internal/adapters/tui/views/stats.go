package views

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"lexshelf/internal/application"
	"lexshelf/internal/application/commands"
	"lexshelf/internal/domain"
	"lexshelf/internal/ports"
)

// StatsKeyMap defines key bindings for the statistics view
type StatsKeyMap struct {
	Rescan key.Binding
	Back   key.Binding
}

var StatsKeys = StatsKeyMap{
	Rescan: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "rescan"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc", "q", "s"),
		key.WithHelp("esc", "back"),
	),
}

// StatsModel shows the repository index statistics
type StatsModel struct {
	ViewState
	store   ports.LeafStore
	indexer *application.IndexBuilder
	result  *commands.StatsResult
}

// NewStatsModel creates a new statistics view model
func NewStatsModel(store ports.LeafStore, indexer *application.IndexBuilder) *StatsModel {
	return &StatsModel{store: store, indexer: indexer}
}

type statsLoadedMsg struct {
	result *commands.StatsResult
}

// Load reads the last index, or scans the tree when fresh is set
func (m *StatsModel) Load(fresh bool) tea.Cmd {
	m.ClearMessage()
	return func() tea.Msg {
		result, err := commands.NewStatsCommand(m.store, m.indexer, fresh).Execute(context.Background())
		if err != nil {
			return errMsg{err}
		}
		return statsLoadedMsg{result}
	}
}

// Init initializes the statistics view; data is loaded by Load
func (m *StatsModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the statistics view
func (m *StatsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)

	case statsLoadedMsg:
		m.result = msg.result

	case errMsg:
		m.SetMessage(msg.err.Error(), true)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, StatsKeys.Back):
			return m, func() tea.Msg { return SwitchToBrowserMsg{} }
		case key.Matches(msg, StatsKeys.Rescan):
			return m, m.Load(true)
		}
	}
	return m, nil
}

// View renders the statistics
func (m *StatsModel) View() string {
	v := NewViewBuilder().Title("Statistics")
	if m.result == nil {
		if m.Message == "" {
			v.Muted("Loading...")
		}
		return v.Message(m.Message, m.MessageErr).Help(StatsKeys.Back).String()
	}

	idx := m.result.Index
	info := idx.RepositoryInfo
	source := "index of " + info.CreatedAt
	if m.result.Fresh {
		source = "scanned now"
	}
	v.Subtitle(source).
		Line(RenderLabelValue("Documents", fmt.Sprint(info.TotalDocuments))).
		Line(RenderLabelValue("Leaves", fmt.Sprint(info.Leaves))).
		Line(RenderLabelValue("Capacity", fmt.Sprint(info.Capacity))).
		Line(RenderLabelValue("Corrupt skipped", fmt.Sprint(info.CorruptSkipped))).
		BlankLine()

	v.Section("Date ranges").Line(countsLine(idx.Statistics.ByDateRange))
	v.Section("Categories").Line(countsLine(idx.Statistics.ByCategory))
	v.Section("Jurisdictions").Line(countsLine(idx.Statistics.ByJurisdiction))
	v.Section("Document types").Line(countsLine(idx.Statistics.ByDocumentType))

	return v.Message(m.Message, m.MessageErr).Help(StatsKeys.Rescan, StatsKeys.Back).String()
}

func countsLine(counts map[string]int) string {
	if len(counts) == 0 {
		return "  -"
	}
	parts := make([]string, 0, len(counts))
	for _, k := range domain.SortedKeys(counts) {
		parts = append(parts, fmt.Sprintf("%s %d", k, counts[k]))
	}
	return "  " + strings.Join(parts, ", ")
}
