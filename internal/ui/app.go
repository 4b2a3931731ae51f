package ui

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tgienger/pdash/internal/db"
	"github.com/tgienger/pdash/internal/models"
	"github.com/tgienger/pdash/internal/schedule"
	"github.com/tgienger/pdash/internal/ui/views"
)

// Currently active view
type View int

const (
	ViewProjects View = iota
	ViewTimeline
)

// Loader supplies snapshots. It must always return a usable snapshot and
// report source failures through the error.
type Loader interface {
	Fetch(ctx context.Context) (models.Snapshot, error)
}

// Options tune refresh behavior
type Options struct {
	Refresh     time.Duration // periodic reload; 0 disables
	LoadTimeout time.Duration // bound on one reload, including cache fallback
	Fallback    time.Duration // assumed length of undated dependencies
}

type tickMsg time.Time

type snapshotLoadedMsg struct {
	result      *schedule.Result
	departments []string
	info        views.SnapshotInfo
}

type App struct {
	db          *db.DB // optional, stores UI settings
	loader      Loader
	opts        Options
	logger      *slog.Logger
	now         func() time.Time
	currentView View
	projectList *views.ProjectListView
	timeline    *views.TimelineView
	result      *schedule.Result
	info        views.SnapshotInfo
	loading     bool
	restored    bool
	width       int
	height      int
}

// Creates a new application
func NewApp(loader Loader, database *db.DB, opts Options, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.LoadTimeout <= 0 {
		opts.LoadTimeout = 30 * time.Second
	}
	return &App{
		db:          database,
		loader:      loader,
		opts:        opts,
		logger:      logger,
		now:         time.Now,
		currentView: ViewProjects,
		projectList: views.NewProjectListView(),
	}
}

func (a *App) Init() tea.Cmd {
	if dept := a.setting(db.SettingDepartment); dept != "" {
		a.projectList.SetDepartment(dept)
	}
	a.loading = true
	return tea.Batch(a.loadCmd(), tickEvery(a.opts.Refresh))
}

func (a *App) loadCmd() tea.Cmd {
	loader, database, opts, now := a.loader, a.db, a.opts, a.now
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), opts.LoadTimeout)
		defer cancel()

		snap, err := loader.Fetch(ctx)
		res := schedule.Run(snap, schedule.Options{Now: now(), Fallback: opts.Fallback})

		departments := res.Departments()
		if database != nil {
			// The cache folds department names case-insensitively
			if names, dbErr := database.ListDepartments(); dbErr == nil && len(names) > 0 {
				departments = names
			}
		}

		return snapshotLoadedMsg{
			result:      res,
			departments: departments,
			info: views.SnapshotInfo{
				FetchedAt: snap.FetchedAt,
				Source:    snap.Source,
				Stale:     snap.Stale,
				Err:       err,
			},
		}
	}
}

func tickEvery(d time.Duration) tea.Cmd {
	if d <= 0 {
		return nil
	}
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// refresh starts a reload unless one is already running
func (a *App) refresh() tea.Cmd {
	if a.loading {
		return nil
	}
	a.loading = true
	info := a.info
	info.Loading = true
	a.setInfo(info)
	return a.loadCmd()
}

func (a *App) setInfo(info views.SnapshotInfo) {
	a.projectList.SetInfo(info)
	if a.timeline != nil {
		a.timeline.SetInfo(info)
	}
}

func (a *App) openProject(id int64) tea.Cmd {
	a.currentView = ViewTimeline
	a.timeline = views.NewTimelineView(id)
	a.timeline.SetResult(a.result, a.info)

	// Save as last opened project
	a.saveSetting(db.SettingLastProject, strconv.FormatInt(id, 10))

	// Initialize timeline with window size
	return tea.Batch(
		a.timeline.Init(),
		func() tea.Msg {
			return tea.WindowSizeMsg{Width: a.width, Height: a.height}
		},
	)
}

func (a *App) openDepartment(name string) tea.Cmd {
	a.currentView = ViewTimeline
	a.timeline = views.NewDepartmentTimelineView(name)
	a.timeline.SetResult(a.result, a.info)

	return tea.Batch(
		a.timeline.Init(),
		func() tea.Msg {
			return tea.WindowSizeMsg{Width: a.width, Height: a.height}
		},
	)
}

// restoreProject reopens the last viewed project once, after the first load
func (a *App) restoreProject() tea.Cmd {
	if a.restored {
		return nil
	}
	a.restored = true

	id, err := strconv.ParseInt(a.setting(db.SettingLastProject), 10, 64)
	if err != nil {
		return nil
	}
	for _, p := range a.result.Projects {
		if p.ID == id {
			return a.openProject(id)
		}
	}
	return nil
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// Always update project list size since it persists
		a.projectList.Update(msg)

	case tickMsg:
		return a, tea.Batch(a.refresh(), tickEvery(a.opts.Refresh))

	case views.RefreshRequested:
		return a, a.refresh()

	case snapshotLoadedMsg:
		a.loading = false
		a.result = msg.result
		a.info = msg.info
		if msg.info.Err != nil {
			a.logger.Warn("showing fallback snapshot", "error", msg.info.Err, "stale", msg.info.Stale)
		}
		a.logger.Debug("snapshot applied",
			"projects", len(msg.result.Projects),
			"tasks", len(msg.result.Tasks),
			"duplicates", msg.result.Duplicates,
		)
		a.projectList.SetData(msg.result, msg.departments, msg.info)
		if a.timeline != nil {
			a.timeline.SetResult(msg.result, msg.info)
		}
		return a, a.restoreProject()

	case views.SelectedProject:
		return a, a.openProject(msg.ProjectID)

	case views.SelectedDepartment:
		return a, a.openDepartment(msg.Name)

	case views.DepartmentChanged:
		a.saveSetting(db.SettingDepartment, msg.Name)
		return a, nil

	case views.BackToProjects:
		a.currentView = ViewProjects
		a.timeline = nil
		a.saveSetting(db.SettingLastProject, "")
		return a, tea.Batch(
			a.projectList.Init(),
			func() tea.Msg {
				return tea.WindowSizeMsg{Width: a.width, Height: a.height}
			},
		)
	}

	var cmd tea.Cmd
	switch a.currentView {
	case ViewProjects:
		_, cmd = a.projectList.Update(msg)
	case ViewTimeline:
		_, cmd = a.timeline.Update(msg)
	}

	return a, cmd
}

func (a *App) View() string {
	switch a.currentView {
	case ViewTimeline:
		if a.timeline != nil {
			return a.timeline.View()
		}
	}
	return a.projectList.View()
}

func (a *App) setting(key string) string {
	if a.db == nil {
		return ""
	}
	value, err := a.db.GetSetting(key)
	if err != nil {
		a.logger.Warn("failed to read setting", "key", key, "error", err)
		return ""
	}
	return value
}

func (a *App) saveSetting(key, value string) {
	if a.db == nil {
		return
	}
	if err := a.db.SetSetting(key, value); err != nil {
		a.logger.Warn("failed to save setting", "key", key, "error", err)
	}
}
