package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// DirName is the name of both the global (~/.tabscribe) and repo config directories.
const DirName = ".tabscribe"

// Duration is a time.Duration that reads and writes as a string ("24h", "15s")
// in JSON and environment variables.
type Duration struct {
	time.Duration
}

// D wraps a time.Duration.
func D(d time.Duration) Duration { return Duration{d} }

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// Config holds application configuration.
type Config struct {
	// TrashRetentionDays is how long a soft-deleted card stays in the trash
	// before the reaper purges it.
	TrashRetentionDays int `json:"trash_retention_days,omitempty" env:"TABSCRIBE_TRASH_RETENTION_DAYS"`

	// SweepInterval is the delay between reaper sweeps after the startup sweep.
	SweepInterval Duration `json:"sweep_interval,omitempty" env:"TABSCRIBE_SWEEP_INTERVAL"`

	// LensTTL is how long a cached lens payload stays valid.
	LensTTL Duration `json:"lens_ttl,omitempty" env:"TABSCRIBE_LENS_TTL"`

	// GraphPageSize caps hydrated references and citing works per expansion.
	GraphPageSize int `json:"graph_page_size,omitempty" env:"TABSCRIBE_GRAPH_PAGE_SIZE"`

	OpenAlexURL string `json:"openalex_url,omitempty" env:"TABSCRIBE_OPENALEX_URL"`
	CrossrefURL string `json:"crossref_url,omitempty" env:"TABSCRIBE_CROSSREF_URL"`

	// Mailto is sent to both providers to join their polite pools. Optional.
	Mailto string `json:"mailto,omitempty" env:"TABSCRIBE_MAILTO"`

	// HTTPTimeout bounds every outbound provider request.
	HTTPTimeout Duration `json:"http_timeout,omitempty" env:"TABSCRIBE_HTTP_TIMEOUT"`

	// ListenAddr is the address `tabscribe serve` binds the API to.
	ListenAddr string `json:"listen_addr,omitempty" env:"TABSCRIBE_LISTEN_ADDR"`

	// OllamaURL points AI actions at a local Ollama server. Empty disables them.
	OllamaURL   string `json:"ollama_url,omitempty" env:"TABSCRIBE_OLLAMA_URL"`
	OllamaModel string `json:"ollama_model,omitempty" env:"TABSCRIBE_OLLAMA_MODEL"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// The default of 1 serializes all database access, so concurrent writes
	// to the same card apply one after another.
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty" env:"TABSCRIBE_DB_MAX_OPEN_CONNS"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	// 0 means use sql.DB default. Typically set equal to DBMaxOpenConns.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty" env:"TABSCRIBE_DB_MAX_IDLE_CONNS"`

	// AllowedPaths lists extra directories exports may be written to,
	// besides ~/.tabscribe/exports. Only absolute paths are honored.
	AllowedPaths []string `json:"allowed_paths,omitempty" env:"TABSCRIBE_ALLOWED_PATHS" envSeparator:","`

	// AllowUnsafePaths lifts the directory restriction on export paths.
	// Symlink checks still apply.
	AllowUnsafePaths bool `json:"allow_unsafe_paths,omitempty" env:"TABSCRIBE_ALLOW_UNSAFE_PATHS"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty" env:"TABSCRIBE_DISABLED_TOOLS" envSeparator:","`

	// DisabledTypes is a list of type names to disable entirely.
	// All tools belonging to disabled types are excluded from registration.
	// Known types: "card", "project", "lens". Unknown type names are logged as warnings.
	DisabledTypes []string `json:"disabled_types,omitempty" env:"TABSCRIBE_DISABLED_TYPES" envSeparator:","`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		TrashRetentionDays: 10,
		SweepInterval:      D(24 * time.Hour),
		LensTTL:            D(7 * 24 * time.Hour),
		GraphPageSize:      20,
		OpenAlexURL:        "https://api.openalex.org",
		CrossrefURL:        "https://api.crossref.org",
		HTTPTimeout:        D(15 * time.Second),
		ListenAddr:         "127.0.0.1:7717",
		OllamaModel:        "llama3.2",
		DBMaxOpenConns:     1,
	}
}

// TrashRetention returns the retention window as a duration.
func (c *Config) TrashRetention() time.Duration {
	return time.Duration(c.TrashRetentionDays) * 24 * time.Hour
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.tabscribe.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// LoadWithRepo loads configuration from both global (~/.tabscribe) and repo (.tabscribe) directories.
// Repo config is found by walking upward from startDir to find the nearest .tabscribe/config.json.
// Repo config takes precedence for scalar values; arrays are merged (deduplicated).
// Either or both configs may be missing.
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	repoConfigPath := FindRepoConfig(startDir)
	repo, err := loadFileRaw(repoConfigPath)
	if err != nil {
		return nil, err
	}

	// Apply defaults, then global, then repo
	return Merge(Merge(DefaultConfig(), global), repo), nil
}

// ApplyEnv overlays TABSCRIBE_* environment variables onto cfg.
// envFile, when non-empty and present, is loaded first; variables already
// set in the process environment win over the file.
func ApplyEnv(cfg *Config, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	overlay := &Config{}
	if err := env.Parse(overlay); err != nil {
		return nil, err
	}
	return Merge(cfg, overlay), nil
}

// FindRepoConfig walks upward from startDir to find the nearest .tabscribe/config.json.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	dir := startDir
	for {
		configPath := filepath.Join(dir, DirName, "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	if configPath == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{
		TrashRetentionDays: pickInt(overlay.TrashRetentionDays, base.TrashRetentionDays),
		SweepInterval:      pickDuration(overlay.SweepInterval, base.SweepInterval),
		LensTTL:            pickDuration(overlay.LensTTL, base.LensTTL),
		GraphPageSize:      pickInt(overlay.GraphPageSize, base.GraphPageSize),
		OpenAlexURL:        pickString(overlay.OpenAlexURL, base.OpenAlexURL),
		CrossrefURL:        pickString(overlay.CrossrefURL, base.CrossrefURL),
		Mailto:             pickString(overlay.Mailto, base.Mailto),
		HTTPTimeout:        pickDuration(overlay.HTTPTimeout, base.HTTPTimeout),
		ListenAddr:         pickString(overlay.ListenAddr, base.ListenAddr),
		OllamaURL:          pickString(overlay.OllamaURL, base.OllamaURL),
		OllamaModel:        pickString(overlay.OllamaModel, base.OllamaModel),
		DBMaxOpenConns:     pickInt(overlay.DBMaxOpenConns, base.DBMaxOpenConns),
		DBMaxIdleConns:     pickInt(overlay.DBMaxIdleConns, base.DBMaxIdleConns),
	}

	// Booleans: true wins
	result.AllowUnsafePaths = base.AllowUnsafePaths || overlay.AllowUnsafePaths

	// Arrays: merge and deduplicate
	result.AllowedPaths = mergeStringSlice(base.AllowedPaths, overlay.AllowedPaths)
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)
	result.DisabledTypes = mergeStringSlice(base.DisabledTypes, overlay.DisabledTypes)

	return result
}

func pickInt(overlay, base int) int {
	if overlay != 0 {
		return overlay
	}
	return base
}

func pickString(overlay, base string) string {
	if strings.TrimSpace(overlay) != "" {
		return strings.TrimSpace(overlay)
	}
	return base
}

func pickDuration(overlay, base Duration) Duration {
	if overlay.Duration != 0 {
		return overlay
	}
	return base
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range append(append([]string{}, a...), b...) {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
