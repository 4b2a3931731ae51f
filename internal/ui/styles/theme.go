package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/pdash/internal/models"
)

// Palette is the dashboard color scheme. Each status has its own color so a
// badge, a bar and a row marker of the same task always agree.
type Palette struct {
	Name string

	Surface lipgloss.Color // badge text on colored backgrounds
	Text    lipgloss.Color
	TextDim lipgloss.Color

	Primary   lipgloss.Color // titles, keys, selection text
	Secondary lipgloss.Color // dependency ids

	Planned    lipgloss.Color
	InProgress lipgloss.Color
	Delayed    lipgloss.Color
	AtRisk     lipgloss.Color
	Done       lipgloss.Color
	Today      lipgloss.Color

	Border      lipgloss.Color
	BorderFocus lipgloss.Color
	Selection   lipgloss.Color
}

// TokyoNight is the default palette
var TokyoNight = Palette{
	Name: "Tokyo Night",

	Surface: lipgloss.Color("#1a1b26"),
	Text:    lipgloss.Color("#c0caf5"),
	TextDim: lipgloss.Color("#565f89"),

	Primary:   lipgloss.Color("#7aa2f7"),
	Secondary: lipgloss.Color("#bb9af7"),

	Planned:    lipgloss.Color("#a9b1d6"),
	InProgress: lipgloss.Color("#7dcfff"),
	Delayed:    lipgloss.Color("#f7768e"),
	AtRisk:     lipgloss.Color("#e0af68"),
	Done:       lipgloss.Color("#9ece6a"),
	Today:      lipgloss.Color("#ff9e64"),

	Border:      lipgloss.Color("#3b4261"),
	BorderFocus: lipgloss.Color("#7aa2f7"),
	Selection:   lipgloss.Color("#33467c"),
}

// Current holds the active palette
var Current = TokyoNight

// MaxWidth caps the content width; the timeline wants more than 80 columns
const MaxWidth = 140

// ContentWidth returns the usable width for a terminal of the given width
func ContentWidth(terminalWidth int) int {
	return min(terminalWidth, MaxWidth)
}

// CenterView centers content horizontally on terminals wider than MaxWidth
func CenterView(content string, terminalWidth, terminalHeight int) string {
	if terminalWidth <= MaxWidth {
		return content
	}
	return lipgloss.Place(terminalWidth, terminalHeight,
		lipgloss.Center, lipgloss.Top,
		content,
	)
}

// StatusColor returns the palette color of a task or project status
func (p Palette) StatusColor(status models.Status) lipgloss.Color {
	switch status {
	case models.StatusDone:
		return p.Done
	case models.StatusInProgress:
		return p.InProgress
	case models.StatusDelayed:
		return p.Delayed
	case models.StatusAtRisk:
		return p.AtRisk
	default:
		return p.Planned
	}
}

// Styles holds the pre-computed styles of every view
type Styles struct {
	palette Palette

	Title      lipgloss.Style
	TitleMuted lipgloss.Style

	ListItem     lipgloss.Style
	ListSelected lipgloss.Style

	Popup        lipgloss.Style
	Input        lipgloss.Style
	InputFocused lipgloss.Style

	Badge   lipgloss.Style
	Notice  lipgloss.Style
	Warning lipgloss.Style

	// Timeline
	Axis  lipgloss.Style
	Today lipgloss.Style
	Deps  lipgloss.Style

	Help      lipgloss.Style
	HelpKey   lipgloss.Style
	StatusBar lipgloss.Style
}

// NewStyles builds styles from the current palette
func NewStyles() *Styles {
	p := Current
	bordered := func(c lipgloss.Color) lipgloss.Style {
		return lipgloss.NewStyle().
			Foreground(p.Text).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(c).
			Padding(0, 1)
	}
	dim := lipgloss.NewStyle().Foreground(p.TextDim)

	return &Styles{
		palette: p,

		Title:      lipgloss.NewStyle().Foreground(p.Primary).Bold(true),
		TitleMuted: dim,

		ListItem: lipgloss.NewStyle().Foreground(p.Text).Padding(0, 2),
		ListSelected: lipgloss.NewStyle().
			Foreground(p.Primary).
			Background(p.Selection).
			Padding(0, 2).
			Bold(true),

		Popup:        bordered(p.Border),
		Input:        bordered(p.Border),
		InputFocused: bordered(p.BorderFocus),

		Badge:   lipgloss.NewStyle().Foreground(p.Surface).Padding(0, 1).Bold(true),
		Notice:  lipgloss.NewStyle().Foreground(p.AtRisk),
		Warning: lipgloss.NewStyle().Foreground(p.Delayed).Bold(true),

		Axis:  dim,
		Today: lipgloss.NewStyle().Foreground(p.Today).Bold(true),
		Deps:  lipgloss.NewStyle().Foreground(p.Secondary),

		Help:      dim.Padding(1, 2),
		HelpKey:   lipgloss.NewStyle().Foreground(p.Primary).Bold(true),
		StatusBar: dim.Padding(0, 1),
	}
}

// StatusBadge renders a status as a colored badge
func (s *Styles) StatusBadge(status models.Status) string {
	return s.Badge.Background(s.palette.StatusColor(status)).Render(status.Label())
}

// StatusText renders text in the color of a status
func (s *Styles) StatusText(status models.Status, text string) string {
	return lipgloss.NewStyle().Foreground(s.palette.StatusColor(status)).Render(text)
}
