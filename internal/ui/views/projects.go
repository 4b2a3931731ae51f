package views

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/pdash/internal/models"
	"github.com/tgienger/pdash/internal/schedule"
	"github.com/tgienger/pdash/internal/ui/keys"
	"github.com/tgienger/pdash/internal/ui/styles"
)

// SnapshotInfo describes where the data on screen came from
type SnapshotInfo struct {
	FetchedAt time.Time
	Source    string
	Stale     bool
	Err       error
	Loading   bool
}

// SelectedProject asks the app to open a project timeline
type SelectedProject struct {
	ProjectID int64
}

// SelectedDepartment asks the app to open a department timeline
type SelectedDepartment struct {
	Name string
}

// BackToProjects signals to go back to project list
type BackToProjects struct{}

// RefreshRequested asks the app to reload the snapshot now
type RefreshRequested struct{}

// DepartmentChanged reports a new department filter; empty means all
type DepartmentChanged struct {
	Name string
}

type projectItem struct {
	project *models.Project
}

func (i projectItem) Title() string { return i.project.Name }

func (i projectItem) Description() string {
	p := i.project
	c := p.Counts
	parts := []string{}
	if p.Department != "" {
		parts = append(parts, p.Department)
	}
	parts = append(parts, fmt.Sprintf("%d tasks: %d open, %d delayed, %d done", c.Total, c.Open, c.Delayed, c.Done))
	if !p.DateEnd.IsZero() {
		parts = append(parts, "ends "+p.DateEnd.Format("2006-01-02"))
	}
	if p.UserName != "" {
		parts = append(parts, p.UserName)
	}
	return strings.Join(parts, " • ")
}

func (i projectItem) FilterValue() string { return i.project.Name + " " + i.project.Department }

type projectDelegate struct {
	styles *styles.Styles
	width  int
}

func (d projectDelegate) Height() int                               { return 2 }
func (d projectDelegate) Spacing() int                              { return 1 }
func (d projectDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d projectDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	p, ok := item.(projectItem)
	if !ok {
		return
	}

	selected := index == m.Index()
	width := max(d.width-4, 20)

	var titleStyle, descStyle lipgloss.Style
	if selected {
		titleStyle = d.styles.ListSelected.Width(width)
		descStyle = d.styles.ListSelected.Foreground(styles.Current.TextDim).Width(width)
	} else {
		titleStyle = d.styles.ListItem.Width(width)
		descStyle = d.styles.ListItem.Foreground(styles.Current.TextDim).Width(width)
	}

	badge := d.styles.StatusBadge(p.project.Status)
	nameWidth := max(width-lipgloss.Width(badge)-5, 8)
	title := titleStyle.Render(truncate(p.Title(), nameWidth) + "  " + badge)
	desc := descStyle.Render(truncate(p.Description(), width-4))

	fmt.Fprintf(w, "%s\n%s", title, desc)
}

// ProjectListView shows every project with its rolled-up status
type ProjectListView struct {
	list     list.Model
	delegate *projectDelegate
	styles   *styles.Styles
	keys     keys.KeyMap
	width    int
	height   int
	loaded   bool

	result      *schedule.Result
	departments []string
	department  string // "" = all
	info        SnapshotInfo

	// Help popup (shown with ?)
	showHelpPopup bool
}

// NewProjectListView creates an empty project list; data arrives via SetData
func NewProjectListView() *ProjectListView {
	s := styles.NewStyles()

	// Setup custom delegate
	delegate := &projectDelegate{styles: s, width: 80}

	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = "Projects"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = s.Title
	l.SetShowHelp(false)

	return &ProjectListView{
		list:     l,
		delegate: delegate,
		styles:   s,
		keys:     keys.DefaultKeyMap(),
	}
}

// SetData replaces the projects on screen, keeping the selection when the
// selected project is still present
func (v *ProjectListView) SetData(res *schedule.Result, departments []string, info SnapshotInfo) {
	var selectedID int64
	if item, ok := v.list.SelectedItem().(projectItem); ok {
		selectedID = item.project.ID
	}

	v.result = res
	v.departments = departments
	v.info = info
	v.loaded = true
	if v.department != "" && !contains(departments, v.department) {
		v.department = ""
	}
	v.refreshItems(selectedID)
}

// SetInfo updates the snapshot status line only
func (v *ProjectListView) SetInfo(info SnapshotInfo) {
	v.info = info
}

// SetDepartment sets the department filter; empty means all
func (v *ProjectListView) SetDepartment(name string) {
	v.department = name
	if v.result != nil {
		v.refreshItems(0)
	}
}

// Department returns the active department filter
func (v *ProjectListView) Department() string {
	return v.department
}

func (v *ProjectListView) refreshItems(selectedID int64) {
	var items []list.Item
	selected := 0
	if v.result != nil {
		for _, p := range v.result.Projects {
			if v.department != "" && !strings.EqualFold(p.Department, v.department) {
				continue
			}
			if p.ID == selectedID {
				selected = len(items)
			}
			items = append(items, projectItem{project: p})
		}
	}
	v.list.SetItems(items)
	v.list.Select(selected)

	v.list.Title = "Projects"
	if v.department != "" {
		v.list.Title = "Projects · " + v.department
	}
}

// nextDepartment cycles all → first → ... → last → all
func (v *ProjectListView) nextDepartment() string {
	if len(v.departments) == 0 {
		return ""
	}
	if v.department == "" {
		return v.departments[0]
	}
	for i, d := range v.departments {
		if strings.EqualFold(d, v.department) {
			if i+1 < len(v.departments) {
				return v.departments[i+1]
			}
			return ""
		}
	}
	return ""
}

// Init initializes the view
func (v *ProjectListView) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (v *ProjectListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		// Use content width (capped at MaxWidth) for internal layout
		contentWidth := styles.ContentWidth(msg.Width)
		v.delegate.width = contentWidth
		v.list.SetSize(contentWidth-4, msg.Height-7)
		return v, nil

	case tea.KeyMsg:
		// Handle help popup first - any key closes it
		if v.showHelpPopup {
			v.showHelpPopup = false
			return v, nil
		}

		// While the list filter is being typed every key belongs to it
		if v.list.FilterState() == list.Filtering {
			break
		}

		switch {
		case key.Matches(msg, v.keys.Quit):
			return v, tea.Quit
		case key.Matches(msg, v.keys.Help):
			v.showHelpPopup = true
			return v, nil
		case key.Matches(msg, v.keys.Refresh):
			return v, func() tea.Msg { return RefreshRequested{} }
		case key.Matches(msg, v.keys.Department):
			next := v.nextDepartment()
			v.SetDepartment(next)
			return v, func() tea.Msg { return DepartmentChanged{Name: next} }
		case key.Matches(msg, v.keys.Tab):
			if v.department != "" {
				name := v.department
				return v, func() tea.Msg { return SelectedDepartment{Name: name} }
			}
			return v, nil
		case key.Matches(msg, v.keys.Enter):
			if item, ok := v.list.SelectedItem().(projectItem); ok {
				id := item.project.ID
				return v, func() tea.Msg {
					return SelectedProject{ProjectID: id}
				}
			}
		}
	}

	var cmd tea.Cmd
	v.list, cmd = v.list.Update(msg)
	return v, cmd
}

// View renders the view
func (v *ProjectListView) View() string {
	if v.showHelpPopup {
		return v.renderHelpPopup()
	}

	if !v.loaded {
		return v.styles.TitleMuted.Render("Loading...")
	}

	if len(v.list.Items()) == 0 {
		return v.renderEmpty()
	}

	content := v.list.View() + "\n" + renderStatusLine(v.styles, v.info) + "\n" + v.renderHelp()
	return styles.CenterView(content, v.width, v.height)
}

func (v *ProjectListView) renderEmpty() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	hint := "No active projects in the snapshot"
	if v.department != "" {
		hint = "No projects in " + v.department + ". Press 'd' for the next department"
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Render("No Projects"),
		"",
		s.TitleMuted.Render(hint),
		"",
		renderStatusLine(s, v.info),
	)

	// Center within content width, then center that in terminal
	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		content,
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *ProjectListView) renderHelp() string {
	contentWidth := styles.ContentWidth(v.width)
	// At narrow widths, show hint to press ? for help
	if contentWidth > 0 && contentWidth < 60 {
		return v.styles.Help.Render(v.styles.HelpKey.Render("?") + " help")
	}
	return v.styles.Help.Render(
		fmt.Sprintf("%s timeline • %s filter • %s department • %s department timeline • %s refresh • %s quit",
			v.styles.HelpKey.Render("↵"),
			v.styles.HelpKey.Render("/"),
			v.styles.HelpKey.Render("d"),
			v.styles.HelpKey.Render("tab"),
			v.styles.HelpKey.Render("r"),
			v.styles.HelpKey.Render("q"),
		),
	)
}

func (v *ProjectListView) renderHelpPopup() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	helpItems := []string{
		s.HelpKey.Render("↵") + "      open timeline",
		s.HelpKey.Render("/") + "      filter by name",
		s.HelpKey.Render("d") + "      next department",
		s.HelpKey.Render("tab") + "    department timeline",
		s.HelpKey.Render("r") + "      refresh now",
		s.HelpKey.Render("q") + "      quit",
		"",
		s.TitleMuted.Render("Press any key to close"),
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		append([]string{s.Title.Render("Keyboard Shortcuts"), ""}, helpItems...)...,
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		s.Popup.Render(content),
	)
	return styles.CenterView(centered, v.width, v.height)
}

// renderStatusLine shows snapshot freshness and the last fetch error
func renderStatusLine(s *styles.Styles, info SnapshotInfo) string {
	var parts []string
	switch {
	case info.Loading:
		parts = append(parts, "refreshing...")
	case !info.FetchedAt.IsZero():
		parts = append(parts, fmt.Sprintf("%s snapshot from %s", info.Source, info.FetchedAt.Local().Format("2006-01-02 15:04")))
	}
	line := s.StatusBar.Render(strings.Join(parts, " "))

	if info.Stale {
		line += s.Notice.Render(" (cached)")
	}
	if info.Err != nil {
		line += " " + s.Warning.Render("fetch failed: "+info.Err.Error())
	}
	return line
}

func contains(items []string, s string) bool {
	for _, item := range items {
		if strings.EqualFold(item, s) {
			return true
		}
	}
	return false
}

// truncate shortens s to width cells, marking the cut with an ellipsis
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}
