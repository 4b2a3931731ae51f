package views

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tgienger/pdash/internal/models"
	"github.com/tgienger/pdash/internal/schedule"
	"github.com/tgienger/pdash/internal/ui/keys"
	"github.com/tgienger/pdash/internal/ui/styles"
)

// clamp returns val clamped between minVal and maxVal
func clamp(val, minVal, maxVal int) int {
	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}
	return val
}

// Column widths of a timeline row, outside the bar
const (
	labelWidth = 34
	depsWidth  = 14
)

// TimelineView shows one project's tasks, or every task of a department, as
// an indented Gantt chart
type TimelineView struct {
	projectID  int64
	department string // set for a department timeline
	project    *models.Project
	result    *schedule.Result
	info      SnapshotInfo
	rows      []*models.Task
	styles    *styles.Styles
	keys      keys.KeyMap

	width  int
	height int

	// UI state
	cursor      int
	scrollY     int
	shift       int   // days the chart window is moved from its fitted position
	focusID     int64 // 0 = whole project
	searching   bool
	searchInput textinput.Model
	showDetail  bool

	// Help popup (shown with ?)
	showHelpPopup bool
}

// NewTimelineView creates a timeline for a project; data arrives via SetResult
func NewTimelineView(projectID int64) *TimelineView {
	search := textinput.New()
	search.Placeholder = "Search tasks..."
	search.CharLimit = 100

	return &TimelineView{
		projectID:   projectID,
		styles:      styles.NewStyles(),
		keys:        keys.DefaultKeyMap(),
		searchInput: search,
	}
}

// NewDepartmentTimelineView creates a timeline over every project of a
// department
func NewDepartmentTimelineView(department string) *TimelineView {
	v := NewTimelineView(0)
	v.department = department
	return v
}

// ProjectID returns the project shown; 0 for a department timeline
func (v *TimelineView) ProjectID() int64 {
	return v.projectID
}

// Department returns the department shown, if any
func (v *TimelineView) Department() string {
	return v.department
}

// SetResult swaps in a new pipeline result, keeping the cursor on the same
// task when it still exists
func (v *TimelineView) SetResult(res *schedule.Result, info SnapshotInfo) {
	var selectedID int64
	if t := v.selected(); t != nil {
		selectedID = t.ID
	}

	v.result = res
	v.info = info
	v.project = nil
	if res != nil {
		for _, p := range res.Projects {
			if v.department == "" && p.ID == v.projectID {
				v.project = p
				break
			}
		}
		if v.focusID != 0 {
			if _, ok := res.Task(v.focusID); !ok {
				v.focusID = 0
			}
		}
	}
	v.rebuildRows(selectedID)
}

// SetInfo updates the snapshot status line only
func (v *TimelineView) SetInfo(info SnapshotInfo) {
	v.info = info
}

// rebuildRows recomputes the visible rows from the result, focus and search
func (v *TimelineView) rebuildRows(selectedID int64) {
	var base []*models.Task
	if v.result != nil {
		switch {
		case v.focusID != 0:
			base = v.result.Focus(v.focusID)
		case v.department != "":
			base = v.result.Department(v.department)
		default:
			base = v.result.ByProject[v.projectID]
		}
	}

	query := strings.ToLower(strings.TrimSpace(v.searchInput.Value()))
	rows := make([]*models.Task, 0, len(base))
	for _, t := range base {
		if query != "" && !strings.Contains(strings.ToLower(t.Name), query) {
			continue
		}
		rows = append(rows, t)
	}
	v.rows = rows

	v.cursor = 0
	for i, t := range v.rows {
		if t.ID == selectedID {
			v.cursor = i
			break
		}
	}
	v.ensureVisible()
}

func (v *TimelineView) selected() *models.Task {
	if v.cursor < 0 || v.cursor >= len(v.rows) {
		return nil
	}
	return v.rows[v.cursor]
}

// Init initializes the view
func (v *TimelineView) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (v *TimelineView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		v.searchInput.Width = clamp(styles.ContentWidth(v.width)-12, 10, 40)
		v.ensureVisible()
		return v, nil

	case tea.KeyMsg:
		// Handle help popup first - any key closes it
		if v.showHelpPopup {
			v.showHelpPopup = false
			return v, nil
		}

		if v.searching {
			return v.updateSearch(msg)
		}

		return v.updateNormal(msg)
	}

	return v, nil
}

func (v *TimelineView) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.searching = false
		v.searchInput.Blur()
		v.searchInput.Reset()
		v.rebuildRows(0)
		return v, nil
	case key.Matches(msg, v.keys.Enter):
		v.searching = false
		v.searchInput.Blur()
		return v, nil
	}

	var cmd tea.Cmd
	v.searchInput, cmd = v.searchInput.Update(msg)
	v.rebuildRows(0)
	return v, cmd
}

func (v *TimelineView) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit

	case key.Matches(msg, v.keys.Back):
		// Back leaves the innermost mode first
		switch {
		case v.showDetail:
			v.showDetail = false
		case v.focusID != 0:
			v.toggleFocus()
		case v.searchInput.Value() != "":
			v.searchInput.Reset()
			v.rebuildRows(v.selectedID())
		default:
			return v, func() tea.Msg { return BackToProjects{} }
		}
		return v, nil

	case key.Matches(msg, v.keys.Up):
		if v.cursor > 0 {
			v.cursor--
			v.ensureVisible()
		}
		return v, nil

	case key.Matches(msg, v.keys.Down):
		if v.cursor < len(v.rows)-1 {
			v.cursor++
			v.ensureVisible()
		}
		return v, nil

	case key.Matches(msg, v.keys.Left):
		v.shift -= 7
		return v, nil

	case key.Matches(msg, v.keys.Right):
		v.shift += 7
		return v, nil

	case key.Matches(msg, v.keys.Today):
		v.shift = 0
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		if v.selected() != nil {
			v.showDetail = !v.showDetail
		}
		return v, nil

	case key.Matches(msg, v.keys.Focus):
		v.toggleFocus()
		return v, nil

	case key.Matches(msg, v.keys.Search):
		v.searching = true
		v.searchInput.Focus()
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Refresh):
		return v, func() tea.Msg { return RefreshRequested{} }

	case key.Matches(msg, v.keys.Help):
		v.showHelpPopup = true
		return v, nil
	}

	return v, nil
}

func (v *TimelineView) selectedID() int64 {
	if t := v.selected(); t != nil {
		return t.ID
	}
	return 0
}

// toggleFocus narrows the rows to the selected task's dependencies and
// dependents, or widens back to the whole project
func (v *TimelineView) toggleFocus() {
	id := v.selectedID()
	if v.focusID != 0 {
		v.focusID = 0
	} else if id != 0 {
		v.focusID = id
	}
	v.rebuildRows(id)
}

// visibleRows is how many task rows fit under the header and above the help
func (v *TimelineView) visibleRows() int {
	reserved := 9
	if v.showDetail {
		reserved += 6
	}
	return max(v.height-reserved, 1)
}

func (v *TimelineView) ensureVisible() {
	visible := v.visibleRows()
	if v.cursor < v.scrollY {
		v.scrollY = v.cursor
	} else if v.cursor >= v.scrollY+visible {
		v.scrollY = v.cursor - visible + 1
	}
	v.scrollY = clamp(v.scrollY, 0, max(len(v.rows)-1, 0))
}

// View renders the view
func (v *TimelineView) View() string {
	if v.showHelpPopup {
		return v.renderHelpPopup()
	}

	var b strings.Builder

	b.WriteString(v.renderHeader())
	b.WriteString("\n\n")
	b.WriteString(v.renderChart())

	if v.showDetail {
		b.WriteString("\n")
		b.WriteString(v.renderDetail())
	}

	b.WriteString("\n")
	b.WriteString(renderStatusLine(v.styles, v.info))
	b.WriteString("\n")
	b.WriteString(v.renderHelp())

	return styles.CenterView(b.String(), v.width, v.height)
}

func (v *TimelineView) renderHeader() string {
	s := v.styles

	var lines []string
	switch {
	case v.department != "":
		var c models.Counts
		if v.result != nil {
			c = schedule.CountTasks(v.result.Department(v.department))
		}
		lines = append(lines,
			s.Title.Render("Department · "+v.department),
			s.TitleMuted.Render(fmt.Sprintf("%d tasks • %d planned • %d in progress • %d delayed • %d done",
				c.Total, c.Planned, c.InProgress, c.Delayed, c.Done)),
		)
	case v.project == nil && v.projectID == 0:
		lines = append(lines, s.Title.Render("Unassigned tasks"))
	case v.project == nil:
		return s.Title.Render(fmt.Sprintf("Project #%d", v.projectID)) + "  " +
			s.Warning.Render("not in the current snapshot")
	default:
		p := v.project
		c := p.Counts
		roots := 0
		if v.result.Graph != nil {
			roots = len(v.result.Graph.Roots(p.ID))
		}
		lines = append(lines,
			s.Title.Render(p.Name)+"  "+s.StatusBadge(p.Status),
			s.TitleMuted.Render(fmt.Sprintf("%d tasks (%d top-level) • %d planned • %d in progress • %d delayed • %d done",
				c.Total, roots, c.Planned, c.InProgress, c.Delayed, c.Done)),
		)
	}

	if v.focusID != 0 {
		if t, ok := v.result.Task(v.focusID); ok {
			lines = append(lines, s.Notice.Render("Focus: "+t.Name+" (esc to leave)"))
		}
	}
	if v.searching || v.searchInput.Value() != "" {
		inputStyle := s.Input
		if v.searching {
			inputStyle = s.InputFocused
		}
		lines = append(lines, inputStyle.Render(v.searchInput.View()))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (v *TimelineView) barWidth() int {
	return max(styles.ContentWidth(v.width)-labelWidth-depsWidth-4, 10)
}

func (v *TimelineView) renderChart() string {
	s := v.styles

	if len(v.rows) == 0 {
		if v.searchInput.Value() != "" {
			return s.TitleMuted.Render("No tasks match the search.")
		}
		if v.department != "" {
			return s.TitleMuted.Render("No tasks in this department.")
		}
		return s.TitleMuted.Render("No tasks in this project.")
	}

	today := v.today()
	scale := newGanttScale(v.rows, today, v.barWidth(), v.shift)

	lines := []string{
		strings.Repeat(" ", labelWidth+2) + s.Axis.Render(scale.axis()),
	}

	end := min(v.scrollY+v.visibleRows(), len(v.rows))
	for i := v.scrollY; i < end; i++ {
		lines = append(lines, v.renderRow(v.rows[i], scale, today, i == v.cursor))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (v *TimelineView) renderRow(t *models.Task, scale ganttScale, today time.Time, selected bool) string {
	s := v.styles

	indent := strings.Repeat("  ", min(t.Depth, 6))
	label := truncate(indent+t.Name, labelWidth-2)
	label = fmt.Sprintf("%-*s", labelWidth-2, label)

	labelStyle := s.ListItem.Padding(0, 1)
	if selected {
		labelStyle = s.ListSelected.Padding(0, 1)
	}

	bar := scale.bar(t, today)
	bar = strings.ReplaceAll(bar, string(glyphToday), s.Today.Render(string(glyphToday)))
	bar = colorBar(bar, s, t.Status)

	return labelStyle.Render(s.StatusText(t.Status, "●")+" "+label) +
		bar + " " + s.Deps.Render(truncate(depsLabel(t), depsWidth))
}

// colorBar paints the bar glyphs of a row in the task's status color
func colorBar(row string, s *styles.Styles, status models.Status) string {
	for _, g := range []rune{glyphBar, glyphOpenEnd, glyphOverrun} {
		row = strings.ReplaceAll(row, string(g), s.StatusText(status, string(g)))
	}
	return row
}

// depsLabel lists the task's dependency ids
func depsLabel(t *models.Task) string {
	if len(t.DependsOn) == 0 {
		return ""
	}
	ids := make([]string, len(t.DependsOn))
	for i, id := range t.DependsOn {
		ids[i] = "#" + strconv.FormatInt(id, 10)
	}
	return "← " + strings.Join(ids, " ")
}

func (v *TimelineView) renderDetail() string {
	s := v.styles
	t := v.selected()
	if t == nil {
		return ""
	}

	date := func(d time.Time) string {
		if d.IsZero() {
			return "unknown"
		}
		return d.Format("2006-01-02")
	}

	var dependents, subtasks []string
	if v.result != nil && v.result.Graph != nil {
		for _, id := range v.result.Graph.Dependents(t.ID) {
			dependents = append(dependents, "#"+strconv.FormatInt(id, 10))
		}
		for _, id := range v.result.Graph.Children(t.ID) {
			subtasks = append(subtasks, "#"+strconv.FormatInt(id, 10))
		}
	}

	stage := t.RawStage
	if t.RawState != "" {
		stage = strings.TrimSpace(stage + " (" + t.RawState + ")")
	}

	lines := []string{
		s.Title.Render(fmt.Sprintf("#%d %s", t.ID, t.Name)) + "  " + s.StatusBadge(t.Status),
		fmt.Sprintf("Created %s • Starts %s • Deadline %s", date(t.CreateDate), date(t.CalculatedStart), date(t.Deadline)),
		"Stage: " + stage,
		"Depends on: " + strings.TrimPrefix(depsLabel(t), "← ") + " • Blocks: " + strings.Join(dependents, " "),
	}
	if t.HasParent() {
		lines = append(lines, fmt.Sprintf("Parent: #%d %s", t.ParentID, t.ParentName))
	}
	if len(subtasks) > 0 {
		lines = append(lines, "Subtasks: "+strings.Join(subtasks, " "))
	}
	return s.Popup.Width(max(styles.ContentWidth(v.width)-4, 20)).Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func (v *TimelineView) today() time.Time {
	if v.result != nil && !v.result.Now.IsZero() {
		return v.result.Now
	}
	return schedule.StartOfDay(time.Now())
}

func (v *TimelineView) renderHelp() string {
	contentWidth := styles.ContentWidth(v.width)
	// At narrow widths, show hint to press ? for help
	if contentWidth > 0 && contentWidth < 80 {
		return v.styles.Help.Render(v.styles.HelpKey.Render("?") + " help")
	}

	focusLabel := "focus"
	if v.focusID != 0 {
		focusLabel = "unfocus"
	}

	return v.styles.Help.Render(
		fmt.Sprintf("%s details • %s %s • %s search • %s/%s scroll • %s today • %s refresh • %s back • %s quit",
			v.styles.HelpKey.Render("↵"),
			v.styles.HelpKey.Render("f"),
			focusLabel,
			v.styles.HelpKey.Render("/"),
			v.styles.HelpKey.Render("h"),
			v.styles.HelpKey.Render("l"),
			v.styles.HelpKey.Render("t"),
			v.styles.HelpKey.Render("r"),
			v.styles.HelpKey.Render("esc"),
			v.styles.HelpKey.Render("q"),
		),
	)
}

func (v *TimelineView) renderHelpPopup() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	helpItems := []string{
		s.HelpKey.Render("↵") + "      task details",
		s.HelpKey.Render("f") + "      focus on dependencies",
		s.HelpKey.Render("/") + "      search tasks",
		s.HelpKey.Render("h/l") + "    move chart a week",
		s.HelpKey.Render("t") + "      back to today",
		s.HelpKey.Render("r") + "      refresh now",
		s.HelpKey.Render("esc") + "    back",
		s.HelpKey.Render("q") + "      quit",
		"",
		s.TitleMuted.Render(fmt.Sprintf("%c bar  %c no deadline  %c deadline before start  %c today",
			glyphBar, glyphOpenEnd, glyphOverrun, glyphToday)),
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
