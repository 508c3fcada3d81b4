package sources

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"popquiz/internal/config"
	"popquiz/internal/fileutil"
	"popquiz/internal/logging"
	"popquiz/internal/media/ffprobe"
	"popquiz/internal/quiz"
	"popquiz/internal/render"
	"popquiz/internal/services"
	"popquiz/internal/services/ytdlp"
)

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithForce refetches sources even when they are already on disk.
func WithForce(force bool) Option {
	return func(f *Fetcher) {
		f.force = force
	}
}

// Fetcher resolves round sources into files in the sources directory.
type Fetcher struct {
	cfg        *config.Config
	downloader ytdlp.Client
	engine     render.Engine
	logger     *slog.Logger
	force      bool

	probes map[string]ffprobe.Result
}

// NewFetcher builds a fetcher. The engine renders text and image sources;
// the downloader handles youtube ones.
func NewFetcher(cfg *config.Config, downloader ytdlp.Client, engine render.Engine, logger *slog.Logger, opts ...Option) *Fetcher {
	fetcher := &Fetcher{
		cfg:        cfg,
		downloader: downloader,
		engine:     engine,
		logger:     logging.NewComponentLogger(logger, "sources"),
		probes:     make(map[string]ffprobe.Result),
	}
	for _, opt := range opts {
		opt(fetcher)
	}
	return fetcher
}

// Fetch ensures one source is on disk and returns its path. roundFileDir is
// the directory of the round file, which anchors local files and relative
// image paths. Sources already present are reused unless the fetcher was
// built with WithForce.
func (f *Fetcher) Fetch(ctx context.Context, source quiz.Source, roundFileDir string) (string, error) {
	if err := fileutil.EnsureDir(f.cfg.Paths.SourcesDir); err != nil {
		return "", fmt.Errorf("sources directory: %w", err)
	}

	target := filepath.Join(f.cfg.Paths.SourcesDir, source.FileName())
	if !f.force {
		if _, err := os.Stat(target); err == nil {
			f.logger.Info("skipping creation of source, already on disk",
				logging.String("identifier", source.Identifier))
			return target, nil
		}
	}

	switch source.Kind {
	case quiz.SourceYouTube:
		return f.fetchYouTube(ctx, source, target)
	case quiz.SourceLocal:
		return f.fetchLocal(source, roundFileDir, target)
	case quiz.SourceText:
		return f.renderText(ctx, source, target)
	case quiz.SourceImage:
		return f.renderImage(ctx, source, roundFileDir, target)
	default:
		return "", services.Wrap(services.ErrValidation, "sources", source.Kind, "unsupported source kind", nil)
	}
}

func (f *Fetcher) fetchYouTube(ctx context.Context, source quiz.Source, target string) (string, error) {
	f.logger.Info("downloading video from youtube",
		logging.String("identifier", source.Identifier),
		logging.String("format", source.Format))

	downloaded, err := f.downloader.Download(ctx, source.Identifier, source.Format, f.cfg.Paths.SourcesDir)
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "sources", "youtube", source.Identifier, err)
	}
	// The downloader names files after the raw video id; line the result up
	// with the canonical source name when sanitization changed it.
	if downloaded != target {
		if err := os.Rename(downloaded, target); err != nil {
			return "", fmt.Errorf("move download into place: %w", err)
		}
	}
	return target, nil
}

func (f *Fetcher) fetchLocal(source quiz.Source, roundFileDir, target string) (string, error) {
	candidates := []string{
		filepath.Join(roundFileDir, "sources", source.FileName()),
		filepath.Join(roundFileDir, source.FileName()),
	}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err != nil {
			continue
		}
		f.logger.Info("copying local source",
			logging.String("identifier", source.Identifier),
			logging.String("from", candidate))
		if err := fileutil.CopyFileVerified(candidate, target); err != nil {
			return "", fmt.Errorf("copy local source: %w", err)
		}
		return target, nil
	}
	return "", services.Wrap(services.ErrNotFound, "sources", "local",
		fmt.Sprintf("%q not found next to the round file", source.FileName()), nil)
}

func (f *Fetcher) renderText(ctx context.Context, source quiz.Source, target string) (string, error) {
	f.logger.Info("rendering text source",
		logging.String("identifier", source.Identifier),
		logging.Int("lines", len(source.Text)))

	card, err := f.engine.TextCard(source.Text, float64(source.Duration))
	if err != nil {
		return "", fmt.Errorf("text source %q: %w", source.Identifier, err)
	}
	if err := f.engine.Render(ctx, card, target); err != nil {
		return "", fmt.Errorf("text source %q: %w", source.Identifier, err)
	}
	return target, nil
}

func (f *Fetcher) renderImage(ctx context.Context, source quiz.Source, roundFileDir, target string) (string, error) {
	imagePath := source.Identifier
	if !filepath.IsAbs(imagePath) {
		imagePath = filepath.Join(roundFileDir, imagePath)
	}
	if _, err := os.Stat(imagePath); err != nil {
		return "", services.Wrap(services.ErrNotFound, "sources", "image", imagePath, err)
	}

	f.logger.Info("rendering image source", logging.String("image", imagePath))

	card, err := f.engine.ImageCard(imagePath, float64(source.Duration))
	if err != nil {
		return "", fmt.Errorf("image source %q: %w", source.Identifier, err)
	}
	if err := f.engine.Render(ctx, card, target); err != nil {
		return "", fmt.Errorf("image source %q: %w", source.Identifier, err)
	}
	return target, nil
}

// FetchAll fetches every source of every question and probes the results,
// returning per-question media lists in source order for the composer.
func (f *Fetcher) FetchAll(ctx context.Context, round *quiz.Round, roundFileDir string) ([][]render.Media, error) {
	media := make([][]render.Media, len(round.Questions))
	for qi, question := range round.Questions {
		list := make([]render.Media, len(question.Sources))
		for si, source := range question.Sources {
			path, err := f.Fetch(ctx, source, roundFileDir)
			if err != nil {
				return nil, fmt.Errorf("question %d source %d: %w", qi+1, si, err)
			}
			probe, err := f.probe(ctx, path)
			if err != nil {
				return nil, fmt.Errorf("question %d source %d: %w", qi+1, si, err)
			}
			list[si] = render.Media{Path: path, AudioOnly: probe.IsAudioOnly()}
		}
		media[qi] = list
	}
	return media, nil
}

// probe caches ffprobe results so sources shared between questions are
// inspected once per run.
func (f *Fetcher) probe(ctx context.Context, path string) (ffprobe.Result, error) {
	if result, ok := f.probes[path]; ok {
		return result, nil
	}
	result, err := ffprobe.Inspect(ctx, f.cfg.FFprobeBinary(), path)
	if err != nil {
		return ffprobe.Result{}, err
	}
	f.probes[path] = result
	return result, nil
}
