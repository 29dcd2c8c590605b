package pipeline

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"subgen/internal/config"
	"subgen/internal/lexicon"
	"subgen/internal/logging"
	"subgen/internal/media"
	"subgen/internal/services"
	"subgen/internal/subtitle"
	"subgen/internal/transcribe"
)

// MediaFetcher materializes source media locally.
type MediaFetcher interface {
	FetchMedia(ctx context.Context, item media.Item, workDir string) (string, error)
	Duration(ctx context.Context, path string) (time.Duration, error)
}

// Transcriber produces timed segments from local media.
type Transcriber interface {
	Transcribe(ctx context.Context, source, outputDir string, hotwords []string) (transcribe.Result, error)
}

// Translator converts segment texts between languages.
type Translator interface {
	Translate(ctx context.Context, texts []string, sourceLang, targetLang string) ([]string, error)
}

// Tagger classifies a transcript into topic tags.
type Tagger interface {
	Tags(ctx context.Context, transcript string) []string
}

// Publisher pushes a finished artifact and returns its content reference.
type Publisher interface {
	Add(ctx context.Context, path string) (string, error)
}

// Vocabulary supplies the operator lexicon.
type Vocabulary interface {
	Hotwords(ctx context.Context) []string
	Corrections(ctx context.Context) []lexicon.Correction
}

// MediaCache short-circuits repeat downloads. Implementations tolerate a
// nil receiver.
type MediaCache interface {
	Lookup(ctx context.Context, cid string) (string, bool)
	Store(ctx context.Context, cid, sourcePath string) error
}

// Job is the shared per-item state between Prepare and Execute.
type Job struct {
	Item      media.Item
	tags      []string
	workDir   string
	mediaPath string
	cached    bool
	duration  time.Duration
	result    transcribe.Result
	rules     []subtitle.Replacement
}

// DetectedLanguage returns the ISO 639-1 code of the spoken language.
func (j *Job) DetectedLanguage() string { return j.result.Language }

// MediaDuration returns the probed media length.
func (j *Job) MediaDuration() time.Duration { return j.duration }

// Tags returns the topic tags classified from the transcript.
func (j *Job) Tags() []string { return j.tags }

// Executor implements the per-item pipeline.
type Executor struct {
	cfg        *config.Config
	fetcher    MediaFetcher
	transcribe Transcriber
	translator Translator
	tagger     Tagger
	publisher  Publisher
	vocabulary Vocabulary
	cache      MediaCache
	logger     *slog.Logger
}

// NewExecutor wires the pipeline dependencies.
func NewExecutor(cfg *config.Config, fetcher MediaFetcher, transcriber Transcriber, translator Translator, tagger Tagger, publisher Publisher, vocabulary Vocabulary, cache MediaCache, logger *slog.Logger) *Executor {
	return &Executor{
		cfg:        cfg,
		fetcher:    fetcher,
		transcribe: transcriber,
		translator: translator,
		tagger:     tagger,
		publisher:  publisher,
		vocabulary: vocabulary,
		cache:      cache,
		logger:     logging.WithComponent(logger, "pipeline"),
	}
}

// Prepare fetches and transcribes the item's media once. The returned Job
// carries everything Execute needs per language.
func (e *Executor) Prepare(ctx context.Context, item media.Item) (*Job, error) {
	workDir := filepath.Join(e.cfg.Paths.WorkDir, item.Owner, item.Permlink)
	job := &Job{Item: item, workDir: workDir}

	mediaPath, cached := e.cache.Lookup(ctx, item.ContentRef)
	if !cached {
		var err error
		mediaPath, err = e.fetcher.FetchMedia(ctx, item, workDir)
		if err != nil {
			return nil, err
		}
		if err := e.cache.Store(ctx, item.ContentRef, mediaPath); err != nil {
			e.logger.Warn("media cache store failed",
				logging.String("cid", item.ContentRef),
				logging.Error(err),
			)
		}
	}
	job.mediaPath = mediaPath
	job.cached = cached

	duration, err := e.fetcher.Duration(ctx, mediaPath)
	if err != nil {
		e.logger.Warn("media probe failed; duration limits will not apply",
			logging.String(logging.FieldOwner, item.Owner),
			logging.String(logging.FieldPermlink, item.Permlink),
			logging.Error(err),
		)
	}
	job.duration = duration

	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return nil, services.Wrap(services.ErrValidation, "pipeline", "prepare", "ensure work dir", err)
	}
	result, err := e.transcribe.Transcribe(ctx, mediaPath, workDir, e.vocabulary.Hotwords(ctx))
	if err != nil {
		return nil, err
	}
	job.result = result

	for _, rule := range e.vocabulary.Corrections(ctx) {
		job.rules = append(job.rules, subtitle.Replacement{From: rule.From, To: rule.To})
	}
	job.tags = e.tagger.Tags(ctx, result.Text())

	e.logger.Info("item prepared",
		logging.String(logging.FieldOwner, item.Owner),
		logging.String(logging.FieldPermlink, item.Permlink),
		logging.String(logging.FieldLanguage, result.Language),
		logging.Duration("media_duration", duration),
		logging.Bool("cache_hit", cached),
	)
	return job, nil
}

// Execute renders one language track and returns the published content
// reference. The detected language skips translation.
func (e *Executor) Execute(ctx context.Context, job *Job, lang string) (string, error) {
	cues := make([]subtitle.Cue, len(job.result.Segments))
	for i, seg := range job.result.Segments {
		cues[i] = subtitle.Cue{Start: seg.Start, End: seg.End, Text: seg.Text}
	}

	if lang != job.result.Language {
		texts := make([]string, len(cues))
		for i, cue := range cues {
			texts[i] = cue.Text
		}
		translated, err := e.translator.Translate(ctx, texts, job.result.Language, lang)
		if err != nil {
			return "", err
		}
		for i := range cues {
			cues[i].Text = translated[i]
		}
	}
	cues = subtitle.ApplyCorrections(cues, job.rules)

	path := subtitle.PathFor(e.cfg.Paths.SubtitleDir, job.Item.Owner, job.Item.Permlink, lang)
	if err := subtitle.WriteSRT(path, cues); err != nil {
		return "", services.Wrap(services.ErrValidation, "pipeline", "execute", "render srt", err)
	}
	if issues := subtitle.Validate(path, job.duration.Seconds()); len(issues) > 0 {
		e.logger.Warn("subtitle validation issues",
			logging.String(logging.FieldOwner, job.Item.Owner),
			logging.String(logging.FieldPermlink, job.Item.Permlink),
			logging.String(logging.FieldLanguage, lang),
			logging.Any("issues", issues),
		)
	}

	ref, err := e.publisher.Add(ctx, path)
	if err != nil {
		return "", err
	}
	if !e.cfg.Workflow.KeepLocalSubtitles {
		if err := os.Remove(path); err != nil {
			e.logger.Warn("could not remove local subtitle", logging.String("path", path), logging.Error(err))
		}
	}
	return ref, nil
}

// Cleanup removes the item's scratch directory. Cached media stays in the
// cache; only the working copies go.
func (e *Executor) Cleanup(job *Job) {
	if job == nil || !e.cfg.Workflow.CleanupMedia {
		return
	}
	if err := os.RemoveAll(job.workDir); err != nil {
		e.logger.Warn("work dir cleanup failed", logging.String("path", job.workDir), logging.Error(err))
	}
}
