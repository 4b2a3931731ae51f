package source

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tgienger/pdash/internal/config"
	"github.com/tgienger/pdash/internal/models"
)

// Odoo reads projects and tasks straight from an Odoo PostgreSQL database.
// Translatable names are jsonb keyed by language.
type Odoo struct {
	connStr     string
	mu          sync.Mutex
	pool        *pgxpool.Pool // nil until the first successful connect
	lang        string
	hoursPerDay float64
	logger      *slog.Logger
}

// NewPool creates a new PostgreSQL connection pool.
func NewPool(ctx context.Context, connStr string) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parse db config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	return pool, nil
}

// NewOdoo prepares a source for the Odoo database described by cfg. The
// connection opens on the first Fetch and is retried by later ones until it
// succeeds.
func NewOdoo(cfg config.OdooConfig, logger *slog.Logger) *Odoo {
	if logger == nil {
		logger = slog.Default()
	}
	lang := cfg.Lang
	if lang == "" {
		lang = "en_US"
	}
	return &Odoo{connStr: cfg.ConnString(), lang: lang, hoursPerDay: cfg.HoursPerDay, logger: logger}
}

func (o *Odoo) connect(ctx context.Context) (*pgxpool.Pool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.pool != nil {
		return o.pool, nil
	}
	pool, err := NewPool(ctx, o.connStr)
	if err != nil {
		return nil, &FetchError{Source: o.Name(), Op: "connect", Err: err}
	}
	o.pool = pool
	return pool, nil
}

// Name returns "odoo"
func (o *Odoo) Name() string {
	return "odoo"
}

// Close releases the connection pool
func (o *Odoo) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.pool != nil {
		o.pool.Close()
		o.pool = nil
	}
}

// Fetch loads active projects and the tasks that belong to them
func (o *Odoo) Fetch(ctx context.Context) (models.Snapshot, error) {
	start := time.Now()

	pool, err := o.connect(ctx)
	if err != nil {
		return models.Snapshot{}, err
	}

	projects, err := o.projects(ctx, pool)
	if err != nil {
		return models.Snapshot{}, &FetchError{Source: o.Name(), Op: "projects", Err: err}
	}

	tasks, err := o.tasks(ctx, pool)
	if err != nil {
		return models.Snapshot{}, &FetchError{Source: o.Name(), Op: "tasks", Err: err}
	}

	o.logger.Debug("odoo snapshot loaded",
		"projects", len(projects),
		"tasks", len(tasks),
		"elapsed", time.Since(start),
	)
	return models.Snapshot{Projects: projects, Tasks: tasks, Source: o.Name()}, nil
}

const projectsQuery = `
	SELECT p.id::bigint,
	       COALESCE(p.name->>$1, p.name->>'en_US', ''),
	       p.date_start::timestamp,
	       p.date::timestamp,
	       COALESCE(p.user_id, 0)::bigint,
	       COALESCE(rp.name, ''),
	       COALESCE(p.last_update_status, ''),
	       COALESCE((
	           SELECT COALESCE(tg.name->>$1, tg.name->>'en_US')
	           FROM project_project_project_tags_rel rel
	           JOIN project_tags tg ON tg.id = rel.project_tags_id
	           WHERE rel.project_project_id = p.id
	           ORDER BY tg.id
	           LIMIT 1
	       ), '')
	FROM project_project p
	LEFT JOIN res_users u ON u.id = p.user_id
	LEFT JOIN res_partner rp ON rp.id = u.partner_id
	WHERE p.active
	ORDER BY p.id`

// projectRow mirrors one projectsQuery row
type projectRow struct {
	ID         int64
	Name       string
	DateStart  *time.Time
	DateEnd    *time.Time
	UserID     int64
	UserName   string
	State      string
	Department string
}

func (r projectRow) raw() models.RawProject {
	return models.RawProject{
		ID:         r.ID,
		Name:       r.Name,
		DateStart:  utc(r.DateStart),
		DateEnd:    utc(r.DateEnd),
		Department: r.Department,
		User:       models.Ref{ID: r.UserID, Name: r.UserName},
		State:      r.State,
		Active:     true,
	}
}

func (o *Odoo) projects(ctx context.Context, pool *pgxpool.Pool) ([]models.RawProject, error) {
	rows, err := pool.Query(ctx, projectsQuery, o.lang)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []models.RawProject
	for rows.Next() {
		var r projectRow
		if err := rows.Scan(&r.ID, &r.Name, &r.DateStart, &r.DateEnd, &r.UserID, &r.UserName, &r.State, &r.Department); err != nil {
			return nil, err
		}
		projects = append(projects, r.raw())
	}
	return projects, rows.Err()
}

const tasksQuery = `
	SELECT t.id::bigint,
	       COALESCE(t.name, ''),
	       t.create_date,
	       t.date_deadline::timestamp,
	       COALESCE(t.parent_id, 0)::bigint,
	       COALESCE(pt.name, ''),
	       t.project_id::bigint,
	       COALESCE(p.name->>$1, p.name->>'en_US', ''),
	       COALESCE(t.state, ''),
	       COALESCE(s.name->>$1, s.name->>'en_US', ''),
	       COALESCE(t.allocated_hours, 0)::float8,
	       ARRAY(
	           SELECT d.depends_on_id::bigint
	           FROM task_dependencies_rel d
	           WHERE d.task_id = t.id
	           ORDER BY d.depends_on_id
	       )
	FROM project_task t
	JOIN project_project p ON p.id = t.project_id AND p.active
	LEFT JOIN project_task pt ON pt.id = t.parent_id
	LEFT JOIN project_task_type s ON s.id = t.stage_id
	WHERE t.active
	ORDER BY t.id`

// taskRow mirrors one tasksQuery row
type taskRow struct {
	ID             int64
	Name           string
	CreateDate     *time.Time
	Deadline       *time.Time
	ParentID       int64
	ParentName     string
	ProjectID      int64
	ProjectName    string
	State          string
	Stage          string
	AllocatedHours float64
	DependsOn      []int64
}

func (r taskRow) raw(hoursPerDay float64) models.RawTask {
	t := models.RawTask{
		ID:                   r.ID,
		Name:                 r.Name,
		CreateDate:           utc(r.CreateDate),
		Deadline:             utc(r.Deadline),
		Parent:               models.Ref{ID: r.ParentID, Name: r.ParentName},
		Project:              models.Ref{ID: r.ProjectID, Name: r.ProjectName},
		State:                r.State,
		Stage:                r.Stage,
		ExpectedDurationDays: hoursToDays(r.AllocatedHours, hoursPerDay),
	}
	for _, id := range r.DependsOn {
		t.DependsOn = append(t.DependsOn, models.Ref{ID: id})
	}
	return t
}

func (o *Odoo) tasks(ctx context.Context, pool *pgxpool.Pool) ([]models.RawTask, error) {
	rows, err := pool.Query(ctx, tasksQuery, o.lang)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectTasks(rows, o.hoursPerDay)
}

func collectTasks(rows pgx.Rows, hoursPerDay float64) ([]models.RawTask, error) {
	var tasks []models.RawTask
	for rows.Next() {
		var r taskRow
		err := rows.Scan(&r.ID, &r.Name, &r.CreateDate, &r.Deadline, &r.ParentID, &r.ParentName,
			&r.ProjectID, &r.ProjectName, &r.State, &r.Stage, &r.AllocatedHours, &r.DependsOn)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, r.raw(hoursPerDay))
	}
	return tasks, rows.Err()
}

// utc converts a nullable timestamp; Odoo stores naive UTC values
func utc(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}
