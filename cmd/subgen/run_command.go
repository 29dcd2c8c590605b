package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"subgen/internal/daemon"
	"subgen/internal/deps"
	"subgen/internal/fetch"
	"subgen/internal/lexicon"
	"subgen/internal/logging"
	"subgen/internal/media"
	"subgen/internal/mediacache"
	"subgen/internal/notifications"
	"subgen/internal/pipeline"
	"subgen/internal/scheduler"
	"subgen/internal/tagging"
	"subgen/internal/transcribe"
	"subgen/internal/translate"
)

// executorAdapter narrows the pipeline executor to the scheduler contract.
type executorAdapter struct {
	exec *pipeline.Executor
}

func (a executorAdapter) Prepare(ctx context.Context, item media.Item) (scheduler.Job, error) {
	job, err := a.exec.Prepare(ctx, item)
	if err != nil {
		return nil, err
	}
	return job, nil
}

func (a executorAdapter) Execute(ctx context.Context, job scheduler.Job, lang string) (string, error) {
	concrete, ok := job.(*pipeline.Job)
	if !ok {
		return "", fmt.Errorf("unexpected job type %T", job)
	}
	return a.exec.Execute(ctx, concrete, lang)
}

func (a executorAdapter) Cleanup(job scheduler.Job) {
	if concrete, ok := job.(*pipeline.Job); ok {
		a.exec.Cleanup(concrete)
	}
}

func buildDaemon(ctx context.Context, cctx *commandContext) (*daemon.Daemon, *scheduler.Manager, func(), error) {
	cfg, err := cctx.ensureConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, nil, nil, fmt.Errorf("ensure directories: %w", err)
	}

	statuses := deps.CheckBinaries(deps.Requirements(cfg))
	if missing := deps.MissingRequired(statuses); len(missing) > 0 {
		return nil, nil, nil, fmt.Errorf("missing required binaries: %s", strings.Join(missing, ", "))
	}

	logger, err := logging.NewForDir(cfg.Log.Level, cfg.Log.Format, cfg.Paths.LogDir)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logging: %w", err)
	}
	cctx.logger = logger
	for _, status := range statuses {
		if !status.Available {
			logger.Warn("optional binary unavailable",
				logging.String("name", status.Name),
				logging.String("detail", status.Detail),
			)
		}
	}

	handles, closeStore, err := cctx.openAdmin(ctx)
	if err != nil {
		return nil, nil, nil, err
	}

	var cache *mediacache.Cache
	if cfg.Cache.Enabled {
		cache, err = mediacache.Open(cfg.Cache.Dir, cfg.Cache.MaxGiB, logger)
		if err != nil {
			closeStore()
			return nil, nil, nil, fmt.Errorf("open media cache: %w", err)
		}
	}

	executor := pipeline.NewExecutor(
		cfg,
		fetch.NewFetcher(cfg.IPFS, logger),
		transcribe.NewService(cfg.Whisper),
		translate.NewClient(cfg.Translator),
		tagging.NewClient(cfg.Tagger, logger),
		fetch.NewPublisher(cfg.IPFS, cfg.Workflow, logger),
		vocabularyAdapter{handles.lexicon},
		cache,
		logger,
	)

	sched := scheduler.NewManager(
		cfg,
		handles.catalog,
		handles.lane,
		handles.guard,
		handles.beacon,
		handles.ledger,
		executorAdapter{executor},
		logger,
	)
	sched.SetNotifier(notifications.NewService(cfg))

	d, err := daemon.New(cfg, daemon.Components{
		Store:     handles.store,
		Scheduler: sched,
		Lane:      handles.lane,
		Guard:     handles.guard,
		Beacon:    handles.beacon,
		Ledger:    handles.ledger,
		Lexicon:   handles.lexicon,
		Catalog:   handles.catalog,
	}, logger)
	if err != nil {
		closeStore()
		return nil, nil, nil, err
	}

	cleanup := func() {
		_ = cache.Close()
		closeStore()
	}
	return d, sched, cleanup, nil
}

// vocabularyAdapter exposes the lexicon store under the pipeline contract.
type vocabularyAdapter struct {
	store *lexicon.Store
}

func (v vocabularyAdapter) Hotwords(ctx context.Context) []string {
	return v.store.Hotwords(ctx)
}

func (v vocabularyAdapter) Corrections(ctx context.Context) []lexicon.Correction {
	return v.store.Corrections(ctx)
}

func newRunCommand(cctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the subtitle generation daemon in the foreground",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			d, _, cleanup, err := buildDaemon(ctx, cctx)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := d.Start(ctx); err != nil {
				return err
			}
			<-ctx.Done()
			// Restore default signal handling so a second interrupt kills
			// immediately instead of waiting for the in-flight sub-task.
			stop()
			d.Stop()
			return nil
		},
	}
}

func newOnceCommand(cctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "once",
		Short: "Run a single scheduling pass and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			_, sched, cleanup, err := buildDaemon(ctx, cctx)
			if err != nil {
				return err
			}
			defer cleanup()

			result, err := sched.RunBatch(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "candidates=%d processed=%d skipped=%d failed=%d\n",
				result.Candidates, result.Processed, result.Skipped, result.Failed)
			return nil
		},
	}
}
