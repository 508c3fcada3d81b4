package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"popquiz/internal/config"
	"popquiz/internal/deps"
	"popquiz/internal/fileutil"
	"popquiz/internal/ledger"
	"popquiz/internal/logging"
	"popquiz/internal/quiz"
	"popquiz/internal/render"
	"popquiz/internal/render/filtergraph"
	"popquiz/internal/render/pipeline"
	"popquiz/internal/services"
	"popquiz/internal/services/ytdlp"
	"popquiz/internal/sheets"
	"popquiz/internal/sources"
)

const lockFileName = ".popquiz.lock"

// Runner produces every artifact for a quiz round.
type Runner struct {
	cfg    *config.Config
	store  *ledger.Store
	base   *slog.Logger
	logger *slog.Logger

	downloader ytdlp.Client
	engine     render.Engine
	resume     bool
	dryRun     bool
}

// Option configures optional Runner behavior.
type Option func(*Runner)

// WithResume reuses outputs already on disk instead of re-rendering them.
func WithResume(resume bool) Option {
	return func(r *Runner) { r.resume = resume }
}

// WithDryRun logs the production plan without fetching or rendering.
func WithDryRun(dryRun bool) Option {
	return func(r *Runner) { r.dryRun = dryRun }
}

// WithDownloader overrides the yt-dlp client (used in tests).
func WithDownloader(client ytdlp.Client) Option {
	return func(r *Runner) { r.downloader = client }
}

// WithEngine overrides engine selection (used in tests).
func WithEngine(engine render.Engine) Option {
	return func(r *Runner) { r.engine = engine }
}

// New constructs a Runner.
func New(cfg *config.Config, store *ledger.Store, logger *slog.Logger, opts ...Option) *Runner {
	r := &Runner{
		cfg:    cfg,
		store:  store,
		base:   logger,
		logger: logging.NewComponentLogger(logger, "workflow"),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.downloader == nil {
		r.downloader = ytdlp.NewCLI(ytdlp.WithBinary(cfg.DownloaderBinary()))
	}
	return r
}

// Outcome summarizes a production run.
type Outcome struct {
	Round    int
	RoundDir string
	Plan     []PlanEntry
	Items    []*ledger.Item
	Sheets   []string
	Rendered int
	Reused   int
	Elapsed  time.Duration
	DryRun   bool
}

// Run produces the round described by the file at roundPath: preflight,
// source acquisition, title cards, per-question videos, combined reels, and
// sheets, with every video tracked in the ledger. The first failed stage
// aborts the run; completed artifacts keep their ledger state so a later
// --resume run picks up where this one stopped.
func (r *Runner) Run(ctx context.Context, roundPath string) (*Outcome, error) {
	start := time.Now()

	round, err := quiz.ReadRound(roundPath)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "workflow", "round file", "", err)
	}

	jobID := uuid.NewString()
	ctx = services.WithJobID(services.WithRound(ctx, round.Round), jobID)
	logger := logging.WithContext(ctx, r.logger)

	rn := &run{
		store:    r.store,
		logger:   r.logger,
		round:    round,
		fileDir:  filepath.Dir(roundPath),
		roundDir: r.cfg.RoundDir(round.Round),
		jobID:    jobID,
		reuse:    r.resume || round.UseCachedVideoFiles,
		sampler:  logging.NewProgressSampler(0),
		items:    make(map[itemKey]*ledger.Item),
		paths:    make(map[itemKey]string),
	}

	engine, version, err := r.selectEngine(ctx, logger, rn.onProgress)
	if err != nil {
		return nil, err
	}
	rn.engine = engine

	plan := planRound(r.cfg, round)
	outcome := &Outcome{
		Round:    round.Round,
		RoundDir: rn.roundDir,
		DryRun:   r.dryRun,
	}
	for _, entry := range plan {
		outcome.Plan = append(outcome.Plan, PlanEntry{
			Label:  entry.label(round.Round),
			Path:   entry.path,
			Cached: fileExists(entry.path),
		})
	}

	logger.Info("starting round production",
		logging.String(logging.FieldBackend, engine.Name()),
		logging.Int("questions", len(round.Questions)),
		logging.Int("artifacts", len(plan)),
		logging.String("round_file", roundPath),
	)

	if r.dryRun {
		for _, entry := range outcome.Plan {
			logger.Info("dry run: would render",
				logging.String("artifact", entry.Label),
				logging.String(logging.FieldOutput, entry.Path),
				logging.Bool("cached", entry.Cached),
			)
		}
		outcome.Elapsed = time.Since(start)
		return outcome, nil
	}

	if err := r.cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	release, err := r.acquireLock(logger)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := r.runPreflight(ctx, logger, round.HasWebSources()); err != nil {
		return nil, err
	}

	if err := fileutil.EnsureDir(rn.roundDir); err != nil {
		return nil, fmt.Errorf("create round directory: %w", err)
	}

	var composerOpts []render.ComposerOption
	if round.BackgroundImage != "" {
		// Relative paths resolve against the round file's directory, like
		// local sources.
		bg := round.BackgroundImage
		if !filepath.IsAbs(bg) {
			bg = filepath.Join(rn.fileDir, bg)
		}
		composerOpts = append(composerOpts, render.WithBackgroundImage(bg))
	}
	rn.composer = render.NewComposer(engine, r.cfg, version, r.base, composerOpts...)
	rn.fetcher = sources.NewFetcher(r.cfg, r.downloader, engine, r.base)
	rn.sheets = sheets.NewWriter(r.base)

	if err := rn.execute(ctx, plan, outcome); err != nil {
		return nil, err
	}

	outcome.Elapsed = time.Since(start)
	logger.Info("round production complete",
		logging.Int("rendered", outcome.Rendered),
		logging.Int("reused", outcome.Reused),
		logging.Int("sheets", len(outcome.Sheets)),
		logging.Duration("elapsed", outcome.Elapsed),
		logging.String(logging.FieldOutput, rn.roundDir),
	)
	return outcome, nil
}

// Fetch acquires every source the round references without rendering
// anything. It returns the number of distinct source files now on disk.
func (r *Runner) Fetch(ctx context.Context, roundPath string, force bool) (int, error) {
	round, err := quiz.ReadRound(roundPath)
	if err != nil {
		return 0, services.Wrap(services.ErrValidation, "workflow", "round file", "", err)
	}

	ctx = services.WithRound(ctx, round.Round)
	logger := logging.WithContext(ctx, r.logger)

	if err := r.cfg.EnsureDirectories(); err != nil {
		return 0, err
	}

	release, err := r.acquireLock(logger)
	if err != nil {
		return 0, err
	}
	defer release()

	engine, _, err := r.selectEngine(ctx, logger, nil)
	if err != nil {
		return 0, err
	}

	fetcher := sources.NewFetcher(r.cfg, r.downloader, engine, r.base, sources.WithForce(force))
	media, err := fetcher.FetchAll(ctx, round, filepath.Dir(roundPath))
	if err != nil {
		return 0, err
	}

	distinct := make(map[string]struct{})
	for _, question := range media {
		for _, m := range question {
			distinct[m.Path] = struct{}{}
		}
	}
	logger.Info("sources ready",
		logging.Int("sources", len(distinct)),
		logging.String(logging.FieldOutput, r.cfg.Paths.SourcesDir),
	)
	return len(distinct), nil
}

// selectEngine builds the configured render engine. The ffmpeg version probe
// is best effort; an empty version falls back to conservative filter syntax.
func (r *Runner) selectEngine(ctx context.Context, logger *slog.Logger, progress render.ProgressFunc) (render.Engine, string, error) {
	version := ""
	if !r.dryRun {
		probed, err := deps.FFmpegVersion(ctx, r.cfg.FFmpegBinary())
		if err != nil {
			logger.Warn("could not determine ffmpeg version", logging.Error(err))
		} else {
			version = probed
		}
	}

	if r.engine != nil {
		return r.engine, version, nil
	}

	opts := render.OptionsFromConfig(r.cfg, version)
	switch r.cfg.Render.Backend {
	case filtergraph.Name, "":
		return filtergraph.New(opts, r.base, filtergraph.WithBinary(r.cfg.FFmpegBinary())), version, nil
	case pipeline.Name:
		eng := pipeline.New(opts, r.cfg.Paths.StagingDir, r.base,
			pipeline.WithBinaries(r.cfg.FFmpegBinary(), r.cfg.FFprobeBinary()),
			pipeline.WithProgress(progress),
			pipeline.WithKeepStaging(r.cfg.Render.KeepStaging),
		)
		return eng, version, nil
	default:
		return nil, "", services.Wrap(services.ErrConfiguration, "workflow", "engine",
			fmt.Sprintf("unknown render backend %q", r.cfg.Render.Backend), nil)
	}
}

func (r *Runner) acquireLock(logger *slog.Logger) (func(), error) {
	lock := flock.New(filepath.Join(r.cfg.Paths.OutputDir, lockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire run lock: %w", err)
	}
	if !locked {
		return nil, errors.New("another popquiz run is already in progress")
	}
	return func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("failed to release run lock", logging.Error(err))
		}
	}, nil
}
