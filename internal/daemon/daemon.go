package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"subgen/internal/beacon"
	"subgen/internal/blacklist"
	"subgen/internal/catalog"
	"subgen/internal/config"
	"subgen/internal/lexicon"
	"subgen/internal/logging"
	"subgen/internal/priority"
	"subgen/internal/progress"
	"subgen/internal/scheduler"
	"subgen/internal/store"
)

// Components are the wired collaborators the daemon manages.
type Components struct {
	Store     *store.Store
	Scheduler *scheduler.Manager
	Lane      *priority.Lane
	Guard     *blacklist.Guard
	Beacon    *beacon.Beacon
	Ledger    *progress.Ledger
	Lexicon   *lexicon.Store
	Catalog   *catalog.Catalog
}

// Daemon coordinates background processing and enforces single-instance
// execution.
type Daemon struct {
	cfg    *config.Config
	comps  Components
	logger *slog.Logger

	lockPath string
	lock     *flock.Flock
	api      *apiServer

	running atomic.Bool
	cancel  context.CancelFunc
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, comps Components, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || comps.Store == nil || comps.Scheduler == nil {
		return nil, errors.New("daemon requires config, store, and scheduler")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "subgend.lock")
	d := &Daemon{
		cfg:      cfg,
		comps:    comps,
		logger:   logging.WithComponent(logger, "daemon"),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	d.api = newAPIServer(cfg, d, logger)
	return d, nil
}

// Start acquires the instance lock and launches the scheduler and API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another subgen daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	if err := d.comps.Scheduler.Start(runCtx); err != nil {
		_ = d.lock.Unlock()
		cancel()
		d.cancel = nil
		return fmt.Errorf("start scheduler: %w", err)
	}
	if d.api != nil {
		if err := d.api.start(runCtx); err != nil {
			d.comps.Scheduler.Stop()
			_ = d.lock.Unlock()
			cancel()
			d.cancel = nil
			return err
		}
	}

	d.running.Store(true)
	d.logger.Info("daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop stops background processing and releases the instance lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	d.comps.Scheduler.Stop()
	if d.api != nil {
		d.api.stop()
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close(ctx context.Context) error {
	d.Stop()
	if d.comps.Store != nil {
		return d.comps.Store.Close(ctx)
	}
	return nil
}

// Running reports whether the daemon is active.
func (d *Daemon) Running() bool { return d.running.Load() }
