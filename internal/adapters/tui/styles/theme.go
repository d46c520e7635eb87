package styles

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	Primary   = lipgloss.Color("#7C3AED") // Purple
	Secondary = lipgloss.Color("#10B981") // Green
	Muted     = lipgloss.Color("#6B7280") // Gray
	Warning   = lipgloss.Color("#F59E0B") // Amber
	Error     = lipgloss.Color("#EF4444") // Red
	White     = lipgloss.Color("#FFFFFF")
	Black     = lipgloss.Color("#000000")
	Blue      = lipgloss.Color("#60A5FA")

	// Base styles
	App = lipgloss.NewStyle().
		Padding(1, 2)

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary).
		MarginBottom(1)

	Subtitle = lipgloss.NewStyle().
			Foreground(Muted).
			Italic(true)

	// Tree node styles
	NodeDateRange = lipgloss.NewStyle().
			Bold(true)

	NodeCategory = lipgloss.NewStyle().
			Foreground(Secondary)

	NodeSubcategory = lipgloss.NewStyle().
			Foreground(Blue)

	NodeBatch = lipgloss.NewStyle().
			Foreground(Muted).
			Italic(true)

	NodeDocument = lipgloss.NewStyle()

	NodeSelected = lipgloss.NewStyle().
			Background(Primary).
			Foreground(White).
			Bold(true)

	// Tree indicators
	TreeBranch    = lipgloss.NewStyle().Foreground(Muted)
	TreeExpanded  = "▼ "
	TreeCollapsed = "▶ "
	TreeLeaf      = "  "

	// Status bar
	StatusBar = lipgloss.NewStyle().
			Background(lipgloss.Color("#1F2937")).
			Foreground(White).
			Padding(0, 1)

	// Labels
	InputLabel = lipgloss.NewStyle().
			Foreground(Secondary).
			Bold(true)

	InputFocused = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Secondary).
			Padding(0, 1)

	// Document preview frame
	Preview = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Muted).
		Padding(0, 1)

	// Help styles
	HelpKey = lipgloss.NewStyle().
		Foreground(Primary).
		Bold(true)

	HelpDesc = lipgloss.NewStyle().
			Foreground(Muted)

	HelpSeparator = lipgloss.NewStyle().
			Foreground(Muted).
			SetString(" • ")

	// Message styles
	Success = lipgloss.NewStyle().
		Foreground(Secondary).
		Bold(true)

	ErrorMsg = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	MutedText = lipgloss.NewStyle().
			Foreground(Muted)
)

// OccupancyColor returns the color for a leaf holding count of capacity documents
func OccupancyColor(count, capacity int) lipgloss.Color {
	switch {
	case capacity <= 0:
		return Muted
	case count > capacity:
		return Error
	case count*10 >= capacity*9:
		return Warning
	default:
		return Secondary
	}
}
