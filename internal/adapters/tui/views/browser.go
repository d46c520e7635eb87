package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"lexshelf/internal/adapters/tui/styles"
	"lexshelf/internal/domain"
	"lexshelf/internal/ports"
)

// BrowserKeyMap defines key bindings for the browser view
type BrowserKeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Left     key.Binding
	Right    key.Binding
	Enter    key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Copy     key.Binding
	Reload   key.Binding
	Search   key.Binding
	Stats    key.Binding
	Help     key.Binding
	Quit     key.Binding
}

var BrowserKeys = BrowserKeyMap{
	Up: key.NewBinding(
		key.WithKeys("k", "up"),
		key.WithHelp("k/↑", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("j", "down"),
		key.WithHelp("j/↓", "down"),
	),
	Left: key.NewBinding(
		key.WithKeys("h", "left"),
		key.WithHelp("h/←", "collapse"),
	),
	Right: key.NewBinding(
		key.WithKeys("l", "right"),
		key.WithHelp("l/→", "expand"),
	),
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "toggle/open"),
	),
	PageUp: key.NewBinding(
		key.WithKeys("pgup", "ctrl+u"),
		key.WithHelp("pgup", "page up"),
	),
	PageDown: key.NewBinding(
		key.WithKeys("pgdown", "ctrl+d"),
		key.WithHelp("pgdn", "page down"),
	),
	Copy: key.NewBinding(
		key.WithKeys("y"),
		key.WithHelp("y", "copy path"),
	),
	Reload: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reload"),
	),
	Search: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "search"),
	),
	Stats: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "stats"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// browserChrome is the number of rows used by title, message and help
const browserChrome = 9

// BrowserModel is the model for the repository tree browser
type BrowserModel struct {
	ViewState
	store     ports.LeafStore
	capacity  int
	root      *domain.TreeNode
	flatNodes []*domain.TreeNode
	pager     *Paginator
}

// NewBrowserModel creates a new browser model
func NewBrowserModel(store ports.LeafStore, capacity int) *BrowserModel {
	return &BrowserModel{
		store:    store,
		capacity: capacity,
		pager:    NewPaginator(20),
	}
}

// Init initializes the browser
func (m *BrowserModel) Init() tea.Cmd {
	return m.loadTree
}

func (m *BrowserModel) loadTree() tea.Msg {
	root, err := m.store.BuildTree()
	if err != nil {
		return errMsg{err}
	}
	return treeLoadedMsg{root}
}

type treeLoadedMsg struct {
	root *domain.TreeNode
}

type childrenLoadedMsg struct {
	node *domain.TreeNode
}

// Update handles messages for the browser
func (m *BrowserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case treeLoadedMsg:
		m.root = msg.root
		m.refreshFlatNodes()
		return m, nil

	case childrenLoadedMsg:
		m.refreshFlatNodes()
		return m, nil

	case errMsg:
		m.SetMessage(msg.err.Error(), true)
		return m, nil

	case copiedMsg:
		m.SetMessage("Copied "+msg.text, false)
		return m, nil

	case tea.KeyMsg:
		m.ClearMessage()

		switch {
		case key.Matches(msg, BrowserKeys.Quit):
			return m, tea.Quit

		case key.Matches(msg, BrowserKeys.Up):
			m.pager.CursorUp()
			return m, nil

		case key.Matches(msg, BrowserKeys.Down):
			m.pager.CursorDown()
			return m, nil

		case key.Matches(msg, BrowserKeys.PageUp):
			m.pager.PrevPage()
			return m, nil

		case key.Matches(msg, BrowserKeys.PageDown):
			m.pager.NextPage()
			return m, nil

		case key.Matches(msg, BrowserKeys.Left):
			if node := m.SelectedNode(); node != nil {
				if node.IsExpanded {
					node.Collapse()
					m.refreshFlatNodes()
				} else if node.Parent != nil && node.Parent.Kind != domain.NodeRoot {
					m.selectNode(node.Parent)
				}
			}
			return m, nil

		case key.Matches(msg, BrowserKeys.Right), key.Matches(msg, BrowserKeys.Enter):
			node := m.SelectedNode()
			if node == nil {
				return m, nil
			}
			if node.Kind == domain.NodeDocument {
				if key.Matches(msg, BrowserKeys.Enter) {
					return m, func() tea.Msg { return OpenDocumentMsg{RelPath: node.RelPath} }
				}
				return m, nil
			}
			if !node.IsExpanded {
				node.Expand()
				return m, m.loadNodeChildren(node)
			}
			if key.Matches(msg, BrowserKeys.Enter) {
				node.Collapse()
				m.refreshFlatNodes()
			}
			return m, nil

		case key.Matches(msg, BrowserKeys.Copy):
			if node := m.SelectedNode(); node != nil {
				return m, copyPath(m.store.AbsPath(node.RelPath))
			}
			return m, nil

		case key.Matches(msg, BrowserKeys.Reload):
			return m, m.Reload()

		case key.Matches(msg, BrowserKeys.Search):
			return m, func() tea.Msg { return SwitchToSearchMsg{} }

		case key.Matches(msg, BrowserKeys.Stats):
			return m, func() tea.Msg { return SwitchToStatsMsg{} }

		case key.Matches(msg, BrowserKeys.Help):
			return m, func() tea.Msg { return SwitchToHelpMsg{} }
		}
	}

	return m, nil
}

func (m *BrowserModel) loadNodeChildren(node *domain.TreeNode) tea.Cmd {
	return func() tea.Msg {
		if err := m.store.LoadChildren(node); err != nil {
			return errMsg{err}
		}
		return childrenLoadedMsg{node}
	}
}

// SelectedNode returns the node under the cursor
func (m *BrowserModel) SelectedNode() *domain.TreeNode {
	i := m.pager.Cursor()
	if i >= 0 && i < len(m.flatNodes) {
		return m.flatNodes[i]
	}
	return nil
}

func (m *BrowserModel) selectNode(target *domain.TreeNode) {
	for i, n := range m.flatNodes {
		if n == target {
			m.pager.SetCursor(i)
			return
		}
	}
}

func (m *BrowserModel) refreshFlatNodes() {
	if m.root == nil {
		return
	}
	m.flatNodes = m.root.Flatten()
	// Skip root node in display
	if len(m.flatNodes) > 0 {
		m.flatNodes = m.flatNodes[1:]
	}
	m.pager.SetTotal(len(m.flatNodes))
}

// View renders the browser
func (m *BrowserModel) View() string {
	if m.root == nil {
		return "Loading..."
	}

	v := NewViewBuilder().
		Title("lexshelf").
		Subtitle(fmt.Sprintf("%s • capacity %d per directory", m.store.Root(), m.capacity))

	if len(m.flatNodes) == 0 {
		v.Muted("Repository is empty. Store documents with lexshelf-cli ingest.")
	}
	start, end := m.pager.VisibleRange()
	for i := start; i < end; i++ {
		v.Line(m.renderNode(m.flatNodes[i], i == m.pager.Cursor()))
	}
	if m.pager.TotalPages() > 1 {
		v.Muted(fmt.Sprintf("page %d/%d", m.pager.CurrentPage(), m.pager.TotalPages()))
	}

	return v.Message(m.Message, m.MessageErr).
		Help(BrowserKeys.Up, BrowserKeys.Right, BrowserKeys.Enter, BrowserKeys.Copy,
			BrowserKeys.Search, BrowserKeys.Stats, BrowserKeys.Help, BrowserKeys.Quit).
		String()
}

func (m *BrowserModel) renderNode(node *domain.TreeNode, selected bool) string {
	indent := strings.Repeat("  ", node.Depth()-1)

	var prefix string
	switch {
	case node.Kind == domain.NodeDocument:
		prefix = styles.TreeLeaf
	case node.IsExpanded:
		prefix = styles.TreeExpanded
	default:
		prefix = styles.TreeCollapsed
	}

	text := node.Name
	var style lipgloss.Style
	switch node.Kind {
	case domain.NodeDateRange:
		style = styles.NodeDateRange
	case domain.NodeCategory:
		style = styles.NodeCategory
	case domain.NodeSubcategory:
		style = styles.NodeSubcategory
	case domain.NodeBatch:
		style = styles.NodeBatch
	default:
		style = styles.NodeDocument
		text = strings.TrimSuffix(text, ".json")
	}

	styled := style.Render(text)
	if selected {
		styled = styles.NodeSelected.Render(text)
	}

	line := indent + styles.TreeBranch.Render(prefix) + styled
	if node.IsLeaf() {
		line += " " + RenderOccupancy(node.Count, m.capacity)
	}
	return line
}

// SetSize updates the view dimensions and the number of visible rows
func (m *BrowserModel) SetSize(width, height int) {
	m.ViewState.SetSize(width, height)
	m.pager.SetPageSize(height - browserChrome)
}

// Reload reloads the tree from disk
func (m *BrowserModel) Reload() tea.Cmd {
	m.root = nil
	m.flatNodes = nil
	m.pager.SetTotal(0)
	return m.loadTree
}
