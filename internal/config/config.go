package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/adrg/xdg"
	"github.com/pelletier/go-toml/v2"

	"lexshelf/internal/domain"
)

const (
	EnvRoot      = "LEXSHELF_ROOT"
	EnvCapacity  = "LEXSHELF_CAPACITY"
	EnvLogLevel  = "LEXSHELF_LOG_LEVEL"
	EnvLogFormat = "LEXSHELF_LOG_FORMAT"
	EnvMinioKey  = "LEXSHELF_MINIO_ACCESS_KEY"
	EnvMinioPass = "LEXSHELF_MINIO_SECRET_KEY"

	// FileName is the rules file looked up at the repository root
	FileName = ".lexshelf.toml"
	// StateDir holds the dedup index, mirror database and lock files
	StateDir = ".lexshelf"
)

// Dedup backends
const (
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
	BackendMemory = "memory"
	BackendNone   = "none"
	BackendMinio  = "minio"
)

// DateRangeConfig is one closed range of the date table
type DateRangeConfig struct {
	UpTo  int    `toml:"up_to"`
	Label string `toml:"label"`
}

// PlacementConfig is the target of a legal_domain entry
type PlacementConfig struct {
	Category    string `toml:"category"`
	Subcategory string `toml:"subcategory"`
}

// DedupConfig selects the persistent duplicate index
type DedupConfig struct {
	Backend string `toml:"backend"`
	Path    string `toml:"path"`
}

// MirrorConfig selects the optional secondary sink
type MirrorConfig struct {
	Backend   string `toml:"backend"`
	Path      string `toml:"path"`
	Endpoint  string `toml:"endpoint"`
	Bucket    string `toml:"bucket"`
	Prefix    string `toml:"prefix"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	UseSSL    bool   `toml:"use_ssl"`
}

// LockingConfig controls bucket locking
type LockingConfig struct {
	CrossProcess bool `toml:"cross_process"`
}

// LogConfig controls the logger
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config is the repository configuration. Root and Path are resolved at
// load time and never read from the file.
type Config struct {
	Root string `toml:"-"`
	Path string `toml:"-"`

	Capacity       int                        `toml:"capacity"`
	MaxBatches     int                        `toml:"max_batches"`
	FallbackYear   int                        `toml:"fallback_year"`
	OpenRangeLabel string                     `toml:"open_range_label"`
	DateRanges     []DateRangeConfig          `toml:"date_ranges"`
	States         []string                   `toml:"states"`
	Domains        map[string]PlacementConfig `toml:"domains"`

	Dedup   DedupConfig   `toml:"dedup"`
	Mirror  MirrorConfig  `toml:"mirror"`
	Locking LockingConfig `toml:"locking"`
	Log     LogConfig     `toml:"log"`
}

// RepositoryRoot returns the repository root: flag, then LEXSHELF_ROOT,
// then $XDG_DATA_HOME/lexshelf/repository.
func RepositoryRoot(flag string) string {
	if flag != "" {
		return flag
	}
	if env := os.Getenv(EnvRoot); env != "" {
		return env
	}
	return filepath.Join(xdg.DataHome, "lexshelf", "repository")
}

// Default returns the configuration used when no rules file exists
func Default(root string) *Config {
	rules := domain.DefaultRules()

	cfg := &Config{
		Root:           root,
		Path:           filepath.Join(root, FileName),
		Capacity:       rules.Capacity,
		MaxBatches:     rules.MaxBatches,
		FallbackYear:   rules.FallbackYear,
		OpenRangeLabel: rules.OpenRangeLabel,
		States:         append([]string(nil), rules.States...),
		Domains:        make(map[string]PlacementConfig, len(rules.Domains)),
		Dedup:          DedupConfig{Backend: BackendSQLite},
		Mirror:         MirrorConfig{Backend: BackendNone},
		Log:            LogConfig{Level: "info", Format: "text"},
	}
	for _, r := range rules.DateRanges {
		cfg.DateRanges = append(cfg.DateRanges, DateRangeConfig{UpTo: r.UpTo, Label: r.Label})
	}
	for name, p := range rules.Domains {
		cfg.Domains[name] = PlacementConfig{Category: p.Category, Subcategory: p.Subcategory}
	}
	return cfg
}

// Load reads the rules file for root. path overrides <root>/.lexshelf.toml.
// A missing file yields the defaults. Environment overrides are applied last.
func Load(root, path string) (*Config, error) {
	cfg := Default(root)
	if path != "" {
		cfg.Path = path
	}

	data, err := os.ReadFile(cfg.Path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		var file Config
		if err := toml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", cfg.Path, err)
		}
		cfg.merge(&file)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.resolvePaths()
	return cfg, nil
}

// merge overlays every field set in the file on top of the defaults.
// Tables and lists replace the default ones as a whole.
func (c *Config) merge(f *Config) {
	if f.Capacity != 0 {
		c.Capacity = f.Capacity
	}
	if f.MaxBatches != 0 {
		c.MaxBatches = f.MaxBatches
	}
	if f.FallbackYear != 0 {
		c.FallbackYear = f.FallbackYear
	}
	if f.OpenRangeLabel != "" {
		c.OpenRangeLabel = f.OpenRangeLabel
	}
	if f.DateRanges != nil {
		c.DateRanges = f.DateRanges
	}
	if f.States != nil {
		c.States = f.States
	}
	if f.Domains != nil {
		c.Domains = f.Domains
	}
	if f.Dedup.Backend != "" {
		c.Dedup.Backend = f.Dedup.Backend
	}
	if f.Dedup.Path != "" {
		c.Dedup.Path = f.Dedup.Path
	}
	if f.Mirror.Backend != "" {
		c.Mirror = f.Mirror
	}
	c.Locking = f.Locking
	if f.Log.Level != "" {
		c.Log.Level = f.Log.Level
	}
	if f.Log.Format != "" {
		c.Log.Format = f.Log.Format
	}
}

func (c *Config) applyEnv() error {
	if env := os.Getenv(EnvCapacity); env != "" {
		n, err := strconv.Atoi(env)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvCapacity, err)
		}
		c.Capacity = n
	}
	if env := os.Getenv(EnvLogLevel); env != "" {
		c.Log.Level = env
	}
	if env := os.Getenv(EnvLogFormat); env != "" {
		c.Log.Format = env
	}
	if env := os.Getenv(EnvMinioKey); env != "" {
		c.Mirror.AccessKey = env
	}
	if env := os.Getenv(EnvMinioPass); env != "" {
		c.Mirror.SecretKey = env
	}
	return nil
}

// resolvePaths fills backend paths left empty and anchors relative ones at the root
func (c *Config) resolvePaths() {
	if c.Dedup.Path == "" {
		switch c.Dedup.Backend {
		case BackendSQLite:
			c.Dedup.Path = filepath.Join(StateDir, "dedup.db")
		case BackendBadger:
			c.Dedup.Path = filepath.Join(StateDir, "dedup.badger")
		}
	}
	if c.Mirror.Backend == BackendSQLite && c.Mirror.Path == "" {
		c.Mirror.Path = filepath.Join(StateDir, "mirror.db")
	}

	c.Dedup.Path = c.anchor(c.Dedup.Path)
	if c.Mirror.Backend == BackendSQLite {
		c.Mirror.Path = c.anchor(c.Mirror.Path)
	}
}

func (c *Config) anchor(p string) string {
	if p == "" || filepath.IsAbs(p) || strings.HasPrefix(p, "~") {
		return p
	}
	return filepath.Join(c.Root, p)
}

// LockDir is where cross-process bucket lock files live
func (c *Config) LockDir() string {
	return filepath.Join(c.Root, StateDir, "locks")
}

// Rules builds the placement rules and validates them
func (c *Config) Rules() (domain.Rules, error) {
	rules := domain.Rules{
		Capacity:       c.Capacity,
		MaxBatches:     c.MaxBatches,
		FallbackYear:   c.FallbackYear,
		OpenRangeLabel: c.OpenRangeLabel,
		States:         append([]string(nil), c.States...),
		Domains:        make(map[string]domain.Placement, len(c.Domains)),
	}
	for _, r := range c.DateRanges {
		rules.DateRanges = append(rules.DateRanges, domain.DateRange{UpTo: r.UpTo, Label: r.Label})
	}
	for name, p := range c.Domains {
		rules.Domains[name] = domain.Placement{Category: p.Category, Subcategory: p.Subcategory}
	}

	if err := rules.Validate(); err != nil {
		return domain.Rules{}, fmt.Errorf("%s: %w", c.Path, err)
	}
	return rules, nil
}

// Validate checks the backend selections
func (c *Config) Validate() error {
	switch c.Dedup.Backend {
	case BackendSQLite, BackendBadger, BackendMemory, BackendNone:
	default:
		return fmt.Errorf("unknown dedup backend %q", c.Dedup.Backend)
	}
	switch c.Mirror.Backend {
	case BackendNone, BackendSQLite:
	case BackendMinio:
		if c.Mirror.Endpoint == "" || c.Mirror.Bucket == "" {
			return fmt.Errorf("minio mirror needs endpoint and bucket")
		}
	default:
		return fmt.Errorf("unknown mirror backend %q", c.Mirror.Backend)
	}
	_, err := c.Rules()
	return err
}

// Encode renders the configuration as TOML. Secrets are left out.
func (c *Config) Encode() ([]byte, error) {
	out := *c
	out.Mirror.AccessKey = ""
	out.Mirror.SecretKey = ""
	return toml.Marshal(out)
}
