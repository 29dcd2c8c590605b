package main

import (
	"context"
	"fmt"
	"log/slog"

	"subgen/internal/beacon"
	"subgen/internal/blacklist"
	"subgen/internal/catalog"
	"subgen/internal/config"
	"subgen/internal/lexicon"
	"subgen/internal/logging"
	"subgen/internal/priority"
	"subgen/internal/progress"
	"subgen/internal/store"
)

// commandContext lazily loads configuration and opens the store for the
// admin commands.
type commandContext struct {
	configFlag *string
	cfg        *config.Config
	logger     *slog.Logger
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	path := ""
	if c.configFlag != nil {
		path = *c.configFlag
	}
	if path == "" {
		path = config.DefaultConfigPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	c.cfg = cfg
	return cfg, nil
}

func (c *commandContext) ensureLogger() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	level, format := "info", "console"
	if c.cfg != nil {
		level, format = c.cfg.Log.Level, c.cfg.Log.Format
	}
	logger, err := logging.New(logging.Options{Level: level, Format: format})
	if err != nil {
		logger = logging.NewNop()
	}
	c.logger = logger
	return logger
}

// adminHandles are the store-backed components the CLI talks to directly.
type adminHandles struct {
	store   *store.Store
	catalog *catalog.Catalog
	lane    *priority.Lane
	guard   *blacklist.Guard
	beacon  *beacon.Beacon
	ledger  *progress.Ledger
	lexicon *lexicon.Store
}

func (c *commandContext) openAdmin(ctx context.Context) (*adminHandles, func(), error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	logger := c.ensureLogger()

	st, err := store.Connect(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect store: %w", err)
	}
	cat := catalog.New(st, logger, cfg.Workflow.PrioritiseEmbed)
	handles := &adminHandles{
		store:   st,
		catalog: cat,
		lane:    priority.NewLane(st, cat, logger),
		guard:   blacklist.NewGuard(st, logger),
		beacon:  beacon.New(st, logger),
		ledger:  progress.NewLedger(st, logger),
		lexicon: lexicon.NewStore(st, logger),
	}
	cleanup := func() {
		closeCtx, cancel := store.WithOpTimeout(context.Background())
		defer cancel()
		_ = st.Close(closeCtx)
	}
	return handles, cleanup, nil
}
