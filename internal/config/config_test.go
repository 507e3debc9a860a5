package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeRepoConfig(t *testing.T, root, content string) string {
	t.Helper()
	dir := filepath.Join(root, DirName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestLoad_DefaultWhenMissing(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	def := DefaultConfig()
	if cfg.TrashRetentionDays != 10 {
		t.Errorf("TrashRetentionDays = %d, want 10", cfg.TrashRetentionDays)
	}
	if cfg.SweepInterval.Duration != 24*time.Hour {
		t.Errorf("SweepInterval = %v, want 24h", cfg.SweepInterval)
	}
	if cfg.LensTTL.Duration != 7*24*time.Hour {
		t.Errorf("LensTTL = %v, want 168h", cfg.LensTTL)
	}
	if cfg.GraphPageSize != def.GraphPageSize {
		t.Errorf("GraphPageSize = %d, want %d", cfg.GraphPageSize, def.GraphPageSize)
	}
	if cfg.DBMaxOpenConns != 1 {
		t.Errorf("DBMaxOpenConns = %d, want 1", cfg.DBMaxOpenConns)
	}
	if cfg.TrashRetention() != 10*24*time.Hour {
		t.Errorf("TrashRetention() = %v, want 240h", cfg.TrashRetention())
	}
}

func TestLoad_OverridesFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	content := `{"trash_retention_days": 3, "lens_ttl": "1h", "mailto": "me@example.org"}`
	if err := os.WriteFile(filepath.Join(tmpDir, "config.json"), []byte(content), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.TrashRetentionDays != 3 {
		t.Errorf("TrashRetentionDays = %d, want 3", cfg.TrashRetentionDays)
	}
	if cfg.LensTTL.Duration != time.Hour {
		t.Errorf("LensTTL = %v, want 1h", cfg.LensTTL)
	}
	if cfg.Mailto != "me@example.org" {
		t.Errorf("Mailto = %q, want me@example.org", cfg.Mailto)
	}
	if cfg.SweepInterval.Duration != 24*time.Hour {
		t.Errorf("SweepInterval = %v, want default 24h", cfg.SweepInterval)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, "config.json"), []byte(`{not json}`), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if _, err := Load(tmpDir); err == nil {
		t.Fatalf("Load() expected error, got nil")
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, "config.json"), []byte(`{"sweep_interval": "daily"}`), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if _, err := Load(tmpDir); err == nil {
		t.Fatalf("Load() expected error for bad duration, got nil")
	}
}

func TestLoad_DisabledTools(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, "config.json"), []byte(`{"disabled_tools": ["card_purge", "project_delete"]}`), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(cfg.DisabledTools) != 2 {
		t.Fatalf("DisabledTools length = %d, want 2", len(cfg.DisabledTools))
	}
	if cfg.DisabledTools[0] != "card_purge" {
		t.Errorf("DisabledTools[0] = %q, want %q", cfg.DisabledTools[0], "card_purge")
	}
	if cfg.DisabledTools[1] != "project_delete" {
		t.Errorf("DisabledTools[1] = %q, want %q", cfg.DisabledTools[1], "project_delete")
	}
}

func TestLoadWithRepo_BothPresent(t *testing.T) {
	globalDir := t.TempDir()
	repoRoot := t.TempDir()

	globalConfig := `{"graph_page_size": 10, "disabled_tools": ["card_purge"]}`
	if err := os.WriteFile(filepath.Join(globalDir, "config.json"), []byte(globalConfig), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	writeRepoConfig(t, repoRoot, `{"graph_page_size": 5, "disabled_tools": ["project_delete"]}`)

	cfg, err := LoadWithRepo(globalDir, repoRoot)
	if err != nil {
		t.Fatalf("LoadWithRepo() error = %v", err)
	}

	if cfg.GraphPageSize != 5 {
		t.Errorf("GraphPageSize = %d, want 5 (repo override)", cfg.GraphPageSize)
	}
	if len(cfg.DisabledTools) != 2 {
		t.Errorf("DisabledTools length = %d, want 2", len(cfg.DisabledTools))
	}
}

func TestLoadWithRepo_NeitherPresent(t *testing.T) {
	cfg, err := LoadWithRepo(t.TempDir(), t.TempDir())
	if err != nil {
		t.Fatalf("LoadWithRepo() error = %v", err)
	}

	if cfg.GraphPageSize != 20 {
		t.Errorf("GraphPageSize = %d, want 20", cfg.GraphPageSize)
	}
	if len(cfg.DisabledTools) != 0 {
		t.Errorf("DisabledTools = %v, want empty", cfg.DisabledTools)
	}
}

func TestLoadWithRepo_WalksUpward(t *testing.T) {
	tmpDir := t.TempDir()
	writeRepoConfig(t, tmpDir, `{"disabled_types": ["lens"]}`)

	subdir := filepath.Join(tmpDir, "subdir", "deeper")
	if err := os.MkdirAll(subdir, 0755); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}

	cfg, err := LoadWithRepo(t.TempDir(), subdir)
	if err != nil {
		t.Fatalf("LoadWithRepo() error = %v", err)
	}
	if len(cfg.DisabledTypes) != 1 || cfg.DisabledTypes[0] != "lens" {
		t.Errorf("DisabledTypes = %v, want [lens]", cfg.DisabledTypes)
	}
}

func TestFindRepoConfig_NotFound(t *testing.T) {
	if found := FindRepoConfig(t.TempDir()); found != "" {
		t.Errorf("FindRepoConfig() = %q, want empty string", found)
	}
}

func TestFindRepoConfig_InCurrentDir(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := writeRepoConfig(t, tmpDir, `{}`)

	if found := FindRepoConfig(tmpDir); found != configPath {
		t.Errorf("FindRepoConfig() = %q, want %q", found, configPath)
	}
}

func TestMerge_ScalarOverride(t *testing.T) {
	base := &Config{GraphPageSize: 20, DBMaxOpenConns: 5, OpenAlexURL: "https://a"}
	overlay := &Config{GraphPageSize: 7, LensTTL: D(time.Minute)}

	result := Merge(base, overlay)

	if result.GraphPageSize != 7 {
		t.Errorf("GraphPageSize = %d, want 7 (overlay)", result.GraphPageSize)
	}
	if result.DBMaxOpenConns != 5 {
		t.Errorf("DBMaxOpenConns = %d, want 5 (base, overlay is zero)", result.DBMaxOpenConns)
	}
	if result.OpenAlexURL != "https://a" {
		t.Errorf("OpenAlexURL = %q, want base", result.OpenAlexURL)
	}
	if result.LensTTL.Duration != time.Minute {
		t.Errorf("LensTTL = %v, want 1m", result.LensTTL)
	}
}

func TestMerge_ArrayMergeDedup(t *testing.T) {
	base := &Config{DisabledTools: []string{"card_purge", "project_delete"}}
	overlay := &Config{DisabledTools: []string{" project_delete ", "lens_refresh"}}

	result := Merge(base, overlay)

	want := []string{"card_purge", "project_delete", "lens_refresh"}
	if len(result.DisabledTools) != len(want) {
		t.Fatalf("DisabledTools = %v, want %v", result.DisabledTools, want)
	}
	for i := range want {
		if result.DisabledTools[i] != want[i] {
			t.Errorf("DisabledTools[%d] = %q, want %q", i, result.DisabledTools[i], want[i])
		}
	}
}

func TestApplyEnv_Overrides(t *testing.T) {
	t.Setenv("TABSCRIBE_GRAPH_PAGE_SIZE", "3")
	t.Setenv("TABSCRIBE_SWEEP_INTERVAL", "90m")
	t.Setenv("TABSCRIBE_DISABLED_TOOLS", "card_purge,lens_refresh")

	cfg, err := ApplyEnv(DefaultConfig(), "")
	if err != nil {
		t.Fatalf("ApplyEnv() error = %v", err)
	}
	if cfg.GraphPageSize != 3 {
		t.Errorf("GraphPageSize = %d, want 3", cfg.GraphPageSize)
	}
	if cfg.SweepInterval.Duration != 90*time.Minute {
		t.Errorf("SweepInterval = %v, want 90m", cfg.SweepInterval)
	}
	if len(cfg.DisabledTools) != 2 {
		t.Errorf("DisabledTools = %v, want 2 entries", cfg.DisabledTools)
	}
	if cfg.TrashRetentionDays != 10 {
		t.Errorf("TrashRetentionDays = %d, want untouched default", cfg.TrashRetentionDays)
	}
}

func TestApplyEnv_DotEnvFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(envFile, []byte("TABSCRIBE_MAILTO=lab@example.org\n"), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	// godotenv sets the variable for the process; make sure it is cleared afterwards.
	t.Setenv("TABSCRIBE_MAILTO", "")
	os.Unsetenv("TABSCRIBE_MAILTO")

	cfg, err := ApplyEnv(DefaultConfig(), envFile)
	if err != nil {
		t.Fatalf("ApplyEnv() error = %v", err)
	}
	if cfg.Mailto != "lab@example.org" {
		t.Errorf("Mailto = %q, want lab@example.org", cfg.Mailto)
	}
}

func TestApplyEnv_MissingFileIgnored(t *testing.T) {
	if _, err := ApplyEnv(DefaultConfig(), filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Fatalf("ApplyEnv() error = %v", err)
	}
}
