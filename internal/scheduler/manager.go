package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"subgen/internal/config"
	"subgen/internal/logging"
	"subgen/internal/media"
	"subgen/internal/services"
)

// Manager owns the scheduling loop.
type Manager struct {
	cfg      *config.Config
	catalog  Catalog
	lane     Lane
	guard    Guard
	beacon   Beacon
	progress Progress
	executor Executor
	logger   *slog.Logger

	notifier Notifier

	mu      sync.RWMutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	stopCh  chan struct{}
	stats   Stats
	lastErr error
}

// NewManager wires the loop's collaborators.
func NewManager(cfg *config.Config, catalog Catalog, lane Lane, guard Guard, beacon Beacon, progress Progress, executor Executor, logger *slog.Logger) *Manager {
	return &Manager{
		cfg:      cfg,
		catalog:  catalog,
		lane:     lane,
		guard:    guard,
		beacon:   beacon,
		progress: progress,
		executor: executor,
		logger:   logging.WithComponent(logger, "scheduler"),
	}
}

// SetNotifier installs an optional milestone notifier. Call before Start.
func (m *Manager) SetNotifier(n Notifier) {
	m.notifier = n
}

func (m *Manager) notifyCompleted(ctx context.Context, item media.Item, subtitles int) {
	if m.notifier == nil {
		return
	}
	if err := m.notifier.NotifyItemCompleted(ctx, item.Owner, item.Permlink, subtitles); err != nil {
		m.logger.Warn("completion notification failed", logging.Error(err))
	}
}

func (m *Manager) notifyFailed(ctx context.Context, item media.Item, cause error) {
	if m.notifier == nil {
		return
	}
	if err := m.notifier.NotifyItemFailed(ctx, item.Owner, item.Permlink, cause); err != nil {
		m.logger.Warn("failure notification failed", logging.Error(err))
	}
}

// Start begins background processing.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("scheduler already running")
	}
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.stopCh = make(chan struct{})
	m.running = true
	m.wg.Add(1)
	m.mu.Unlock()

	go m.runLoop(runCtx)
	return nil
}

// Stop requests a graceful shutdown and waits for it. The in-flight
// sub-task finishes; remaining work stays for the next run.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	stopCh := m.stopCh
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	close(stopCh)
	m.wg.Wait()
	cancel()
}

// Running reports whether the loop is active.
func (m *Manager) Running() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}

// Snapshot returns a copy of the loop counters.
func (m *Manager) Snapshot() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stats
}

// LastError returns the most recent pass-level failure, if any.
func (m *Manager) LastError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}

func (m *Manager) stopping() bool {
	m.mu.RLock()
	stopCh := m.stopCh
	m.mu.RUnlock()
	if stopCh == nil {
		return false
	}
	select {
	case <-stopCh:
		return true
	default:
		return false
	}
}

func (m *Manager) runLoop(ctx context.Context) {
	defer m.wg.Done()

	// A crash may have left a stale beacon behind.
	if err := m.beacon.Clear(ctx); err != nil {
		m.logger.Warn("stale beacon clear failed", logging.Error(err))
	}

	for {
		if ctx.Err() != nil || m.stopping() {
			return
		}

		result, err := m.RunBatch(ctx)
		m.mu.Lock()
		m.lastErr = err
		m.mu.Unlock()
		if err != nil {
			m.logger.Error("pass failed", logging.Error(err))
		} else {
			m.logger.Info("pass complete",
				logging.Int("candidates", result.Candidates),
				logging.Int("processed", result.Processed),
				logging.Int("skipped", result.Skipped),
				logging.Int("failed", result.Failed),
			)
		}

		select {
		case <-ctx.Done():
			return
		case <-m.stopCh:
			return
		case <-time.After(m.cfg.PollInterval()):
		}
	}
}

// RunBatch performs one full pass: drain the priority lane, then walk the
// merged backlog from the cursor.
func (m *Manager) RunBatch(ctx context.Context) (BatchResult, error) {
	var result BatchResult

	if err := m.drainPriority(ctx, &result); err != nil {
		return result, err
	}
	if ctx.Err() != nil || m.stopping() {
		return result, ctx.Err()
	}

	legacySince, embedSince, err := m.bounds(ctx)
	if err != nil {
		return result, err
	}

	items := m.catalog.ItemsSince(ctx, legacySince, embedSince)
	result.Candidates = len(items)

	for _, item := range items {
		if ctx.Err() != nil || m.stopping() {
			return result, ctx.Err()
		}
		// Priority requests queued mid-pass jump ahead of the backlog.
		if err := m.drainPriority(ctx, &result); err != nil {
			m.logger.Warn("mid-pass priority drain failed", logging.Error(err))
		}

		processed, err := m.processItem(ctx, item, false)
		switch {
		case err != nil:
			result.Failed++
		case processed:
			result.Processed++
			m.pause(ctx)
		default:
			result.Skipped++
			m.countSkip()
		}
	}

	// A request queued while the last candidate ran is still served this
	// pass; a single-batch run has no next pass to pick it up.
	if err := m.drainPriority(ctx, &result); err != nil {
		m.logger.Warn("final priority drain failed", logging.Error(err))
	}

	m.mu.Lock()
	m.stats.PassesCompleted++
	m.stats.LastPassAt = time.Now().UTC()
	m.mu.Unlock()
	return result, nil
}

// bounds derives the backlog lower bounds. The legacy bound is the durable
// cursor (or the configured start date when the ledger is ahead of it);
// embed and audio use the start date alone so a far-advanced cursor never
// starves them.
func (m *Manager) bounds(ctx context.Context) (time.Time, time.Time, error) {
	cursor, err := m.progress.LastSourceCreatedAt(ctx)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	var embedSince time.Time
	if start, ok := m.cfg.StartDate(); ok {
		embedSince = start
	}
	legacySince := cursor
	if legacySince.Before(embedSince) {
		legacySince = embedSince
	}
	return legacySince, embedSince, nil
}

func (m *Manager) drainPriority(ctx context.Context, result *BatchResult) error {
	for {
		if ctx.Err() != nil || m.stopping() {
			return ctx.Err()
		}
		req, err := m.lane.DequeueNext(ctx)
		if err != nil {
			return err
		}
		if req == nil {
			return nil
		}

		m.mu.Lock()
		m.stats.PriorityServed++
		m.mu.Unlock()

		item, err := m.catalog.Find(ctx, req.Author, req.Permlink)
		if err != nil {
			// The request is already consumed; an unresolvable one is
			// dropped rather than wedging the lane.
			m.logger.Warn("priority request unresolvable; dropping",
				logging.String(logging.FieldOwner, req.Author),
				logging.String(logging.FieldPermlink, req.Permlink),
				logging.Error(err),
			)
			continue
		}

		if req.Reprocess {
			if err := m.progress.Forget(ctx, req.Author, req.Permlink); err != nil {
				m.logger.Warn("reprocess reset failed",
					logging.String(logging.FieldOwner, req.Author),
					logging.String(logging.FieldPermlink, req.Permlink),
					logging.Error(err),
				)
				continue
			}
		}

		processed, err := m.processItem(ctx, *item, true)
		switch {
		case err != nil:
			result.Failed++
		case processed:
			result.Processed++
		default:
			result.Skipped++
			m.countSkip()
		}
	}
}

// processItem runs one candidate end to end. It returns (false, nil) when
// the item was skipped without touching the executor.
func (m *Manager) processItem(ctx context.Context, item media.Item, fromPriority bool) (bool, error) {
	requestID := uuid.NewString()
	logger := m.logger.With(
		logging.String(logging.FieldRequestID, requestID),
		logging.String(logging.FieldOwner, item.Owner),
		logging.String(logging.FieldPermlink, item.Permlink),
		logging.String(logging.FieldSource, string(item.Source)),
	)

	if m.guard.IsBlocked(ctx, item.Owner, item.Permlink) {
		logger.Info("skipping blacklisted item")
		return false, nil
	}
	if only := m.cfg.Workflow.ProcessOnly; only != "" {
		owner, permlink, err := media.SplitKey(only)
		if err != nil || owner != item.Owner || permlink != item.Permlink {
			return false, nil
		}
	}

	completed, err := m.progress.Completed(ctx, item.Owner, item.Permlink)
	if err != nil {
		logger.Warn("completion lookup failed; skipping this pass", logging.Error(err))
		return false, err
	}
	if remaining := missingLanguages(m.cfg.LanguageCodes(), completed); len(remaining) == 0 {
		logger.Debug("all languages already done")
		return false, nil
	}

	if err := m.beacon.Set(ctx, item); err != nil {
		logger.Warn("beacon set failed; processing anyway", logging.Error(err))
	}
	defer func() {
		if err := m.beacon.Clear(ctx); err != nil {
			logger.Warn("beacon clear failed", logging.Error(err))
		}
	}()

	started := time.Now()
	job, err := m.executor.Prepare(ctx, item)
	if err != nil {
		logger.Error("prepare failed", logging.Error(err), logging.Bool("retryable", services.Retryable(err)))
		m.countFailure()
		m.notifyFailed(ctx, item, err)
		return false, err
	}
	defer m.executor.Cleanup(job)

	if tags := job.Tags(); len(tags) > 0 {
		if err := m.progress.SaveTags(ctx, item.Owner, item.Permlink, tags); err != nil {
			logger.Warn("tag save failed", logging.Error(err))
		}
	}

	languages := missingLanguages(m.cfg.EligibleLanguages(job.MediaDuration()), completed)
	var firstErr error
	done := 0
	for _, lang := range languages {
		if ctx.Err() != nil {
			break
		}
		ref, err := m.executor.Execute(ctx, job, lang)
		if err != nil {
			logger.Error("sub-task failed",
				logging.String(logging.FieldLanguage, lang),
				logging.Error(err),
			)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if err := m.progress.RecordSubTask(ctx, item, lang, ref); err != nil {
			logger.Error("sub-task record failed; artifact exists but is untracked",
				logging.String(logging.FieldLanguage, lang),
				logging.Error(err),
			)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		done++
		m.mu.Lock()
		m.stats.SubTasksDone++
		m.mu.Unlock()
		// A graceful stop lets the current sub-task land, then yields.
		if m.stopping() {
			break
		}
	}

	if done > 0 {
		if err := m.progress.RecordDuration(ctx, item.Owner, item.Permlink, time.Since(started), job.MediaDuration(), job.DetectedLanguage()); err != nil {
			logger.Warn("duration record failed", logging.Error(err))
		}
	}

	if firstErr != nil {
		m.countFailure()
		m.notifyFailed(ctx, item, firstErr)
		return done > 0, firstErr
	}
	m.mu.Lock()
	m.stats.ItemsProcessed++
	m.mu.Unlock()
	logger.Info("item processed",
		logging.Int("sub_tasks", done),
		logging.Duration("elapsed", time.Since(started)),
		logging.Bool("priority", fromPriority),
	)
	m.notifyCompleted(ctx, item, done)
	return true, nil
}

func (m *Manager) countFailure() {
	m.mu.Lock()
	m.stats.ItemsFailed++
	m.mu.Unlock()
}

func (m *Manager) countSkip() {
	m.mu.Lock()
	m.stats.ItemsSkipped++
	m.mu.Unlock()
}

func (m *Manager) pause(ctx context.Context) {
	delay := m.cfg.ItemDelay()
	if delay <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(delay):
	}
}

func missingLanguages(configured, completed []string) []string {
	done := make(map[string]struct{}, len(completed))
	for _, code := range completed {
		done[code] = struct{}{}
	}
	var missing []string
	for _, code := range configured {
		if _, ok := done[code]; !ok {
			missing = append(missing, code)
		}
	}
	return missing
}
