package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/tailscale/hujson"
)

// ErrInvalid is wrapped by every validation failure
var ErrInvalid = errors.New("invalid config")

// Source kinds
const (
	SourceOdoo = "odoo"
	SourceFile = "file"
)

// Config represents the full pdash configuration
type Config struct {
	Source          string     `json:"source"`
	SnapshotFile    string     `json:"snapshot_file"`
	Odoo            OdooConfig `json:"odoo"`
	CachePath       string     `json:"cache_path"`
	LogPath         string     `json:"log_path"`
	RefreshInterval int        `json:"refresh_interval"` // seconds
	FetchTimeout    int        `json:"fetch_timeout"`    // seconds
	FallbackDays    float64    `json:"fallback_days"`
}

// OdooConfig describes how to reach the Odoo PostgreSQL database
type OdooConfig struct {
	DSN         string  `json:"dsn"`
	Host        string  `json:"host"`
	Port        int     `json:"port"`
	Database    string  `json:"database"`
	User        string  `json:"user"`
	Password    string  `json:"password"`
	Lang        string  `json:"lang"`          // key for translated jsonb names
	HoursPerDay float64 `json:"hours_per_day"` // converts allocated hours to days
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Source:    SourceOdoo,
		CachePath: filepath.Join(dataDir(), "pdash.db"),
		LogPath:   filepath.Join(stateDir(), "pdash.log"),
		Odoo: OdooConfig{
			Host:        "localhost",
			Port:        5432,
			Lang:        "en_US",
			HoursPerDay: 8,
		},
		RefreshInterval: 90,
		FetchTimeout:    15,
		FallbackDays:    7,
	}
}

// Refresh returns the refresh interval as a duration
func (c *Config) Refresh() time.Duration {
	return time.Duration(c.RefreshInterval) * time.Second
}

// Timeout returns the fetch timeout as a duration
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.FetchTimeout) * time.Second
}

// Fallback returns the assumed length of an undated dependency
func (c *Config) Fallback() time.Duration {
	return time.Duration(c.FallbackDays * float64(24*time.Hour))
}

// ConnString returns the Postgres connection string for the Odoo database.
// An explicit DSN wins; otherwise one is assembled from the parts.
func (o OdooConfig) ConnString() string {
	if o.DSN != "" {
		return o.DSN
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(o.Host, strconv.Itoa(o.Port)),
		Path:   "/" + o.Database,
	}
	switch {
	case o.User != "" && o.Password != "":
		u.User = url.UserPassword(o.User, o.Password)
	case o.User != "":
		u.User = url.User(o.User)
	}
	return u.String()
}

// Load reads configuration with the following precedence (highest wins):
// 1. Defaults
// 2. Config file: path if non-empty (must exist), else the global file if present
// 3. Environment (ODOO_HOST, ODOO_DB, ODOO_USER, ODOO_PASSWORD, ODOO_DB_PORT, PDASH_DSN)
//
// CLI overrides come last, so Load does not validate; call Validate once
// they are applied.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	mustExist := path != ""
	if path == "" {
		path = GlobalPath()
	}

	if path != "" {
		fileCfg, found, err := loadFile(path, mustExist)
		if err != nil {
			return nil, err
		}
		if found {
			cfg = Merge(cfg, fileCfg)
		}
	}

	if err := applyEnv(cfg, os.Getenv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, mustExist bool) (*Config, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !mustExist {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, false, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, true, nil
}

// Parse decodes a JSONC config document
func Parse(data []byte) (*Config, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid JSONC: %w", ErrInvalid, err)
	}

	var cfg Config
	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %w", ErrInvalid, err)
	}
	return &cfg, nil
}

// Merge overlays the non-zero fields of overlay onto base
func Merge(base, overlay *Config) *Config {
	merged := *base

	if overlay.Source != "" {
		merged.Source = overlay.Source
	}
	if overlay.SnapshotFile != "" {
		merged.SnapshotFile = overlay.SnapshotFile
	}
	if overlay.CachePath != "" {
		merged.CachePath = overlay.CachePath
	}
	if overlay.LogPath != "" {
		merged.LogPath = overlay.LogPath
	}
	if overlay.RefreshInterval != 0 {
		merged.RefreshInterval = overlay.RefreshInterval
	}
	if overlay.FetchTimeout != 0 {
		merged.FetchTimeout = overlay.FetchTimeout
	}
	if overlay.FallbackDays != 0 {
		merged.FallbackDays = overlay.FallbackDays
	}

	// Merge Odoo config
	if overlay.Odoo.DSN != "" {
		merged.Odoo.DSN = overlay.Odoo.DSN
	}
	if overlay.Odoo.Host != "" {
		merged.Odoo.Host = overlay.Odoo.Host
	}
	if overlay.Odoo.Port != 0 {
		merged.Odoo.Port = overlay.Odoo.Port
	}
	if overlay.Odoo.Database != "" {
		merged.Odoo.Database = overlay.Odoo.Database
	}
	if overlay.Odoo.User != "" {
		merged.Odoo.User = overlay.Odoo.User
	}
	if overlay.Odoo.Password != "" {
		merged.Odoo.Password = overlay.Odoo.Password
	}
	if overlay.Odoo.Lang != "" {
		merged.Odoo.Lang = overlay.Odoo.Lang
	}
	if overlay.Odoo.HoursPerDay != 0 {
		merged.Odoo.HoursPerDay = overlay.Odoo.HoursPerDay
	}

	return &merged
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	if v := getenv("PDASH_DSN"); v != "" {
		cfg.Odoo.DSN = v
	}
	if v := getenv("ODOO_HOST"); v != "" {
		cfg.Odoo.Host = v
	}
	if v := getenv("ODOO_DB"); v != "" {
		cfg.Odoo.Database = v
	}
	if v := getenv("ODOO_USER"); v != "" {
		cfg.Odoo.User = v
	}
	if v := getenv("ODOO_PASSWORD"); v != "" {
		cfg.Odoo.Password = v
	}
	if v := getenv("ODOO_DB_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: ODOO_DB_PORT: %w", ErrInvalid, err)
		}
		cfg.Odoo.Port = port
	}
	return nil
}

// Validate checks that the configuration can be used
func (c *Config) Validate() error {
	switch c.Source {
	case SourceOdoo:
		if c.Odoo.DSN == "" && c.Odoo.Database == "" {
			return fmt.Errorf("%w: odoo source needs odoo.dsn or odoo.database", ErrInvalid)
		}
	case SourceFile:
		if c.SnapshotFile == "" {
			return fmt.Errorf("%w: file source needs snapshot_file", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown source %q", ErrInvalid, c.Source)
	}

	if c.RefreshInterval <= 0 {
		return fmt.Errorf("%w: refresh_interval must be positive", ErrInvalid)
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("%w: fetch_timeout must be positive", ErrInvalid)
	}
	if c.FallbackDays < 0 {
		return fmt.Errorf("%w: fallback_days must not be negative", ErrInvalid)
	}
	if c.Odoo.HoursPerDay <= 0 {
		return fmt.Errorf("%w: odoo.hours_per_day must be positive", ErrInvalid)
	}
	return nil
}

// GlobalPath returns $XDG_CONFIG_HOME/pdash/config.json, falling back to
// ~/.config/pdash/config.json. Empty if the home directory is unknown.
func GlobalPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "pdash", "config.json")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "pdash", "config.json")
}

// dataDir returns the XDG data directory for pdash
func dataDir() string {
	return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

// stateDir returns the XDG state directory for pdash
func stateDir() string {
	return xdgDir("XDG_STATE_HOME", filepath.Join(".local", "state"))
}

func xdgDir(env, fallback string) string {
	base := os.Getenv(env)
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = os.TempDir()
		}
		base = filepath.Join(home, fallback)
	}
	return filepath.Join(base, "pdash")
}
