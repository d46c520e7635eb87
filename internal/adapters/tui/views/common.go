package views

import (
	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
)

// Every view is a bubbletea model
var (
	_ tea.Model = (*BrowserModel)(nil)
	_ tea.Model = (*SearchModel)(nil)
	_ tea.Model = (*PreviewModel)(nil)
	_ tea.Model = (*StatsModel)(nil)
	_ tea.Model = (*HelpModel)(nil)
)

// ViewState contains common state shared by all view models.
// Embed this struct in view models to get width/height and message handling.
type ViewState struct {
	Width      int
	Height     int
	Message    string
	MessageErr bool
}

// SetSize updates the view dimensions
func (s *ViewState) SetSize(width, height int) {
	s.Width = width
	s.Height = height
}

// SetMessage sets a message to display in the view
func (s *ViewState) SetMessage(msg string, isErr bool) {
	s.Message = msg
	s.MessageErr = isErr
}

// ClearMessage clears the current message
func (s *ViewState) ClearMessage() {
	s.Message = ""
	s.MessageErr = false
}

// Messages for view switching
type SwitchToSearchMsg struct{}

type SwitchToHelpMsg struct{}

type SwitchToStatsMsg struct{}

type SwitchToBrowserMsg struct{}

// OpenDocumentMsg asks the app to preview the document at RelPath
type OpenDocumentMsg struct {
	RelPath string
}

type errMsg struct {
	err error
}

type copiedMsg struct {
	text string
}

// copyPath puts a document path on the clipboard
func copyPath(path string) tea.Cmd {
	return func() tea.Msg {
		if err := clipboard.WriteAll(path); err != nil {
			return errMsg{err}
		}
		return copiedMsg{path}
	}
}
