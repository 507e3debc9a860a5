package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tabscribe/tabscribe/internal/api"
	"github.com/tabscribe/tabscribe/internal/config"
	"github.com/tabscribe/tabscribe/internal/lens"
	"github.com/tabscribe/tabscribe/internal/mcp"
	"github.com/tabscribe/tabscribe/internal/ops"
	"github.com/tabscribe/tabscribe/internal/reaper"
	"github.com/tabscribe/tabscribe/internal/scholar"
	"github.com/tabscribe/tabscribe/internal/settings"
	"github.com/tabscribe/tabscribe/internal/similarity"
	"github.com/tabscribe/tabscribe/internal/store"
	"github.com/tabscribe/tabscribe/internal/transform"
)

// services holds everything a command may need, wired once per process.
type services struct {
	cfg    *config.Config
	log    *zap.SugaredLogger
	st     *store.Store
	set    *settings.Settings
	orch   *lens.Orchestrator
	finder *scholar.Finder
	tr     *transform.Ollama // nil when ollama_url is unset
	reaper *reaper.Reaper
}

// baseDir returns ~/.tabscribe.
func baseDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".tabscribe"), nil
}

// loadConfig reads the global and repo config files, then applies
// TABSCRIBE_* variables from the environment and ./.env.
func loadConfig(dir string) (*config.Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	cfg, err := config.LoadWithRepo(dir, cwd)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg, err = config.ApplyEnv(cfg, ".env")
	if err != nil {
		return nil, fmt.Errorf("failed to apply environment: %w", err)
	}
	return cfg, nil
}

// newLogger builds a stderr logger. stdout stays reserved for JSON output
// and the MCP stdio transport.
func newLogger(debug bool) (*zap.SugaredLogger, error) {
	zcfg := zap.NewProductionConfig()
	if debug {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	}
	zcfg.OutputPaths = []string{"stderr"}
	zcfg.ErrorOutputPaths = []string{"stderr"}
	logger, err := zcfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}

// openServices opens the store under dir and wires the lens pipeline,
// the AI transformer and the trash reaper around it.
func openServices(dir string, cfg *config.Config, log *zap.SugaredLogger) (*services, error) {
	for _, unknown := range mcp.ValidateDisabledTools(cfg.DisabledTools) {
		log.Warnw("unknown tool in disabled_tools", "tool", unknown)
	}
	for _, unknown := range mcp.ValidateDisabledTypes(cfg.DisabledTypes) {
		log.Warnw("unknown type in disabled_types", "type", unknown)
	}

	st, err := store.Open(dir, cfg, store.WithLogger(log.Named("store")))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	set := settings.Open(dir)

	clientOpts := []scholar.ClientOption{
		scholar.WithTimeout(cfg.HTTPTimeout.Duration),
		scholar.WithMailto(cfg.Mailto),
		scholar.WithLogger(log.Named("scholar")),
	}
	oa := scholar.NewOpenAlex(cfg.OpenAlexURL, clientOpts...)
	cr := scholar.NewCrossref(cfg.CrossrefURL, clientOpts...)

	orch := lens.New(
		lens.NewCache(st.DB(), lens.WithTTL(cfg.LensTTL.Duration)),
		scholar.NewResolver(oa, cr, log.Named("resolver")),
		scholar.NewExpander(oa, cfg.GraphPageSize, log.Named("expander")),
		similarity.New(),
		lens.WithOnline(func(context.Context) bool { return set.Online() }),
		lens.WithLogger(log.Named("lens")),
	)

	svc := &services{
		cfg:    cfg,
		log:    log,
		st:     st,
		set:    set,
		orch:   orch,
		finder: scholar.NewFinder(oa, cr, log.Named("finder")),
		reaper: reaper.New(st,
			reaper.WithRetention(cfg.TrashRetention()),
			reaper.WithInterval(cfg.SweepInterval.Duration),
			reaper.WithLogger(log.Named("reaper")),
		),
	}
	if cfg.OllamaURL != "" {
		svc.tr = transform.NewOllama(cfg.OllamaURL, cfg.OllamaModel, cfg.HTTPTimeout.Duration, log.Named("ollama"))
	}
	return svc, nil
}

// transformer returns the AI transformer as the ops interface, keeping a
// nil *Ollama from turning into a non-nil interface.
func (s *services) transformer() ops.Transformer {
	if s.tr == nil {
		return nil
	}
	return s.tr
}

func (s *services) mcpDeps() mcp.Deps {
	return mcp.Deps{
		Store:       s.st,
		Settings:    s.set,
		Config:      s.cfg,
		Lens:        s.orch,
		Finder:      s.finder,
		Transformer: s.transformer(),
		Sweeper:     s.reaper,
		Logger:      s.log.Named("mcp"),
	}
}

func (s *services) apiDeps() api.Deps {
	return api.Deps{
		Store:       s.st,
		Settings:    s.set,
		Config:      s.cfg,
		Lens:        s.orch,
		Finder:      s.finder,
		Transformer: s.transformer(),
		Sweeper:     s.reaper,
		Logger:      s.log.Named("api"),
	}
}

// Close releases the store and flushes the logger.
func (s *services) Close() error {
	_ = s.log.Sync()
	return s.st.Close()
}
