// Command pdash is a terminal dashboard for Odoo projects. It resolves task
// start dates through their dependencies and shows each project as a
// timeline with rolled-up status.
//
// Usage:
//
//	pdash [flags] [tui]
//	pdash [flags] summary
//	pdash [flags] export FILE
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	flag "github.com/spf13/pflag"

	"github.com/tgienger/pdash/internal/config"
	"github.com/tgienger/pdash/internal/db"
	"github.com/tgienger/pdash/internal/schedule"
	"github.com/tgienger/pdash/internal/source"
	"github.com/tgienger/pdash/internal/ui"
)

// Version information set via ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const usage = `Usage: pdash [flags] [command]

Commands:
  tui            interactive dashboard (default)
  summary        print one line per project and exit
  export FILE    write the enriched snapshot as JSON and exit

Flags:
`

type options struct {
	configPath string
	file       string
	dsn        string
	cachePath  string
	department string
	refresh    int
	debug      bool
	version    bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	var opts options
	fs := flag.NewFlagSet("pdash", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVarP(&opts.configPath, "config", "c", "", "config file (default $XDG_CONFIG_HOME/pdash/config.json)")
	fs.StringVarP(&opts.file, "file", "f", "", "read snapshots from a JSON dump instead of Odoo")
	fs.StringVar(&opts.dsn, "dsn", "", "Odoo PostgreSQL connection string")
	fs.StringVar(&opts.cachePath, "cache", "", "snapshot cache database")
	fs.StringVarP(&opts.department, "department", "d", "", "only show projects of this department (summary)")
	fs.IntVar(&opts.refresh, "refresh", 0, "refresh interval in seconds")
	fs.BoolVar(&opts.debug, "debug", false, "log at debug level")
	fs.BoolVarP(&opts.version, "version", "v", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			printUsage(stdout, fs)
			return 0
		}
		fmt.Fprintln(stderr, "error:", err)
		printUsage(stderr, fs)
		return 2
	}

	if opts.version {
		fmt.Fprintf(stdout, "pdash %s (commit: %s, built: %s)\n", version, commit, date)
		return 0
	}

	command, rest := "tui", fs.Args()
	if len(rest) > 0 {
		command, rest = rest[0], rest[1:]
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}

	logger, closeLog, err := openLogger(cfg.LogPath, opts.debug)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	defer closeLog()

	switch command {
	case "tui":
		err = runTUI(cfg, logger)
	case "summary":
		err = runSummary(cfg, logger, opts.department, stdout)
	case "export":
		if len(rest) != 1 {
			fmt.Fprintln(stderr, "error: export needs exactly one FILE argument")
			return 2
		}
		err = runExport(cfg, logger, rest[0], stdout)
	default:
		fmt.Fprintf(stderr, "error: unknown command %q\n", command)
		printUsage(stderr, fs)
		return 2
	}

	if err != nil {
		logger.Error("command failed", "command", command, "error", err)
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	return 0
}

func printUsage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprint(w, usage)
	fmt.Fprint(w, fs.FlagUsages())
}

// loadConfig applies CLI overrides on top of file and environment
// configuration, then validates the result
func loadConfig(opts options) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	if opts.file != "" {
		cfg.Source = config.SourceFile
		cfg.SnapshotFile = opts.file
	}
	if opts.dsn != "" {
		cfg.Source = config.SourceOdoo
		cfg.Odoo.DSN = opts.dsn
	}
	if opts.cachePath != "" {
		cfg.CachePath = opts.cachePath
	}
	if opts.refresh != 0 {
		cfg.RefreshInterval = opts.refresh
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openLogger writes text logs to path; the terminal belongs to the UI
func openLogger(path string, debug bool) (*slog.Logger, func(), error) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
	logger = logger.With("pid", os.Getpid())
	return logger, func() { f.Close() }, nil
}

// openFetcher wires the configured source to the snapshot cache
func openFetcher(cfg *config.Config, logger *slog.Logger) (*source.Fetcher, *db.DB, func(), error) {
	cache, err := db.New(cfg.CachePath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open cache: %w", err)
	}

	var primary source.Source
	closeAll := func() { cache.Close() }
	switch cfg.Source {
	case config.SourceFile:
		primary = source.NewFile(cfg.SnapshotFile, cfg.Odoo.HoursPerDay, logger)
	default:
		odoo := source.NewOdoo(cfg.Odoo, logger)
		primary = odoo
		closeAll = func() {
			odoo.Close()
			cache.Close()
		}
	}

	logger.Info("starting", "version", version, "source", primary.Name(), "cache", cfg.CachePath)
	return source.NewFetcher(primary, cache, cfg.Timeout(), logger), cache, closeAll, nil
}

func runTUI(cfg *config.Config, logger *slog.Logger) error {
	fetcher, cache, closeAll, err := openFetcher(cfg, logger)
	if err != nil {
		return err
	}
	defer closeAll()

	app := ui.NewApp(fetcher, cache, ui.Options{
		Refresh:     cfg.Refresh(),
		LoadTimeout: cfg.Timeout() + 5*time.Second,
		Fallback:    cfg.Fallback(),
	}, logger)

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run dashboard: %w", err)
	}
	return nil
}

// loadOnce fetches one snapshot and runs the pipeline. A failed fetch is
// reported on w and the cached snapshot is used; it is only an error when
// nothing is cached either.
func loadOnce(cfg *config.Config, logger *slog.Logger, w io.Writer) (*schedule.Result, *db.DB, func(), error) {
	fetcher, cache, closeAll, err := openFetcher(cfg, logger)
	if err != nil {
		return nil, nil, nil, err
	}

	snap, err := fetcher.Fetch(context.Background())
	if err != nil {
		if snap.IsEmpty() {
			closeAll()
			return nil, nil, nil, err
		}
		fmt.Fprintf(w, "warning: %v; using cached snapshot from %s\n", err, snap.FetchedAt.Local().Format("2006-01-02 15:04"))
	}

	res := schedule.Run(snap, schedule.Options{Now: time.Now(), Fallback: cfg.Fallback()})
	if res.Duplicates > 0 {
		logger.Warn("duplicate task ids in snapshot", "count", res.Duplicates)
	}
	return res, cache, closeAll, nil
}

func runSummary(cfg *config.Config, logger *slog.Logger, department string, w io.Writer) error {
	res, cache, closeAll, err := loadOnce(cfg, logger, w)
	if err != nil {
		return err
	}
	defer closeAll()

	fmt.Fprint(w, summaryTable(res, department))
	fmt.Fprintln(w)

	footer, err := cacheFooter(cache, department)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, lipgloss.NewStyle().Faint(true).Render(footer))
	return nil
}

// cacheFooter describes what the snapshot cache holds
func cacheFooter(cache *db.DB, department string) (string, error) {
	projects, err := cache.ProjectCount()
	if err != nil {
		return "", fmt.Errorf("count cached projects: %w", err)
	}
	tasks, err := cache.TaskCount()
	if err != nil {
		return "", fmt.Errorf("count cached tasks: %w", err)
	}

	footer := fmt.Sprintf("cache: %d projects, %d tasks", projects, tasks)
	if department != "" {
		n, err := cache.DepartmentProjectCount(department)
		if err != nil {
			return "", fmt.Errorf("count department projects: %w", err)
		}
		footer += fmt.Sprintf(", %d in %s", n, department)
	}
	return footer, nil
}

// summaryTable renders one row per project, optionally limited to one
// department
func summaryTable(res *schedule.Result, department string) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "PROJECT", "DEPARTMENT", "STATUS", "TASKS", "OPEN", "DELAYED", "DONE", "END")

	for _, p := range res.Projects {
		if department != "" && !strings.EqualFold(p.Department, department) {
			continue
		}
		end := ""
		if !p.DateEnd.IsZero() {
			end = p.DateEnd.Format("2006-01-02")
		}
		c := p.Counts
		t.Row(
			strconv.FormatInt(p.ID, 10),
			p.Name,
			p.Department,
			p.Status.Label(),
			strconv.Itoa(c.Total),
			strconv.Itoa(c.Open),
			strconv.Itoa(c.Delayed),
			strconv.Itoa(c.Done),
			end,
		)
	}
	return t.Render()
}

func runExport(cfg *config.Config, logger *slog.Logger, path string, w io.Writer) error {
	res, _, closeAll, err := loadOnce(cfg, logger, w)
	if err != nil {
		return err
	}
	defer closeAll()

	if err := source.WriteExport(path, res, time.Now()); err != nil {
		return err
	}
	logger.Info("snapshot exported", "path", path, "tasks", len(res.Tasks))
	fmt.Fprintf(w, "wrote %d projects and %d tasks to %s\n", len(res.Projects), len(res.Tasks), path)
	return nil
}
