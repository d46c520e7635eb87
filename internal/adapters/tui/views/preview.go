package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/wordwrap"

	"lexshelf/internal/adapters/tui/styles"
	"lexshelf/internal/domain"
	"lexshelf/internal/ports"
)

// PreviewKeyMap defines key bindings for the document preview
type PreviewKeyMap struct {
	Scroll key.Binding
	Copy   key.Binding
	Back   key.Binding
}

var PreviewKeys = PreviewKeyMap{
	Scroll: key.NewBinding(
		key.WithKeys("j", "k", "up", "down", "pgup", "pgdown"),
		key.WithHelp("j/k", "scroll"),
	),
	Copy: key.NewBinding(
		key.WithKeys("y"),
		key.WithHelp("y", "copy path"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc", "q"),
		key.WithHelp("esc/q", "back"),
	),
}

// previewChrome is the number of rows around the viewport
const previewChrome = 8

// PreviewModel shows one stored document with its content word-wrapped
type PreviewModel struct {
	ViewState
	store    ports.LeafStore
	relPath  string
	doc      *domain.Document
	viewport viewport.Model
}

// NewPreviewModel creates a new preview model
func NewPreviewModel(store ports.LeafStore) *PreviewModel {
	return &PreviewModel{
		store:    store,
		viewport: viewport.New(80, 20),
	}
}

type documentLoadedMsg struct {
	relPath string
	doc     *domain.Document
}

// Open loads the document at relPath
func (m *PreviewModel) Open(relPath string) tea.Cmd {
	m.relPath = relPath
	m.doc = nil
	m.ClearMessage()
	return func() tea.Msg {
		doc, err := m.store.ReadDocument(relPath)
		if err != nil {
			return errMsg{fmt.Errorf("%s: %w", relPath, err)}
		}
		return documentLoadedMsg{relPath: relPath, doc: doc}
	}
}

// Init initializes the preview; documents are loaded by Open
func (m *PreviewModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the preview
func (m *PreviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case documentLoadedMsg:
		if msg.relPath != m.relPath {
			return m, nil
		}
		m.doc = msg.doc
		m.refreshContent()
		return m, nil

	case errMsg:
		m.SetMessage(msg.err.Error(), true)
		return m, nil

	case copiedMsg:
		m.SetMessage("Copied "+msg.text, false)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, PreviewKeys.Back):
			return m, func() tea.Msg { return SwitchToBrowserMsg{} }
		case key.Matches(msg, PreviewKeys.Copy):
			return m, copyPath(m.store.AbsPath(m.relPath))
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *PreviewModel) refreshContent() {
	if m.doc == nil {
		return
	}
	width := m.viewport.Width
	if width <= 0 {
		width = 80
	}

	var b strings.Builder
	fields := []struct{ label, value string }{
		{"Title", m.doc.Title},
		{"Jurisdiction", m.doc.Jurisdiction},
		{"Court", m.doc.Court},
		{"Type", m.doc.DocumentType},
		{"Domain", m.doc.LegalDomain},
		{"Filed", m.doc.DateFiled},
		{"Source", m.doc.Source},
		{"Stored", m.doc.CreatedAt},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		b.WriteString(RenderLabelValue(f.label, f.value))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(wordwrap.String(m.doc.Content, width))

	m.viewport.SetContent(b.String())
	m.viewport.GotoTop()
}

// View renders the preview
func (m *PreviewModel) View() string {
	v := NewViewBuilder().Title(m.title()).Muted(m.relPath)
	if m.doc == nil && m.Message == "" {
		v.Muted("Loading...")
	} else if m.doc != nil {
		v.Line(styles.Preview.Render(m.viewport.View()))
		v.Muted(fmt.Sprintf("%3.f%%", m.viewport.ScrollPercent()*100))
	}
	return v.Message(m.Message, m.MessageErr).
		Help(PreviewKeys.Scroll, PreviewKeys.Copy, PreviewKeys.Back).
		String()
}

func (m *PreviewModel) title() string {
	if m.doc == nil {
		return "Document"
	}
	return m.doc.ID
}

// SetSize resizes the viewport to the window
func (m *PreviewModel) SetSize(width, height int) {
	m.ViewState.SetSize(width, height)
	// App padding and the preview border take 8 columns
	m.viewport.Width = max(width-8, 20)
	m.viewport.Height = max(height-previewChrome-4, 5)
	m.refreshContent()
}
