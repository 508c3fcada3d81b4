package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/floostack/transcoder"
	ffmpegtrans "github.com/floostack/transcoder/ffmpeg"

	"popquiz/internal/fileutil"
	"popquiz/internal/logging"
	"popquiz/internal/quiz"
	"popquiz/internal/render"
	"popquiz/internal/services/ffmpegcli"
)

// Name identifies this engine in configuration and logs.
const Name = "pipeline"

// TranscoderFactory builds the staged transcoder; tests substitute a fake.
type TranscoderFactory func(*ffmpegtrans.Config) transcoder.Transcoder

// Option configures the engine.
type Option func(*Engine)

// WithBinaries points the engine at specific ffmpeg and ffprobe executables.
func WithBinaries(ffmpegBin, ffprobeBin string) Option {
	return func(e *Engine) {
		if strings.TrimSpace(ffmpegBin) != "" {
			e.ffmpegBin = ffmpegBin
		}
		if strings.TrimSpace(ffprobeBin) != "" {
			e.ffprobeBin = ffprobeBin
		}
	}
}

// WithRunner injects the direct ffmpeg client used for synthetic inputs,
// beep mixes, and the final mux.
func WithRunner(runner ffmpegcli.Runner) Option {
	return func(e *Engine) {
		if runner != nil {
			e.runner = runner
		}
	}
}

// WithTranscoderFactory overrides how staged transcoder instances are built.
func WithTranscoderFactory(factory TranscoderFactory) Option {
	return func(e *Engine) {
		if factory != nil {
			e.newTranscoder = factory
		}
	}
}

// WithProgress registers a callback invoked as stages advance.
func WithProgress(fn render.ProgressFunc) Option {
	return func(e *Engine) {
		e.progress = fn
	}
}

// WithKeepStaging leaves intermediate stage files on disk after a
// successful render instead of removing them.
func WithKeepStaging(keep bool) Option {
	return func(e *Engine) {
		e.keepStaging = keep
	}
}

// Engine implements render.Engine with staged intermediate files.
type Engine struct {
	opts        render.Options
	stagingDir  string
	ffmpegBin   string
	ffprobeBin  string
	keepStaging bool

	runner        ffmpegcli.Runner
	newTranscoder TranscoderFactory
	progress      render.ProgressFunc
	logger        *slog.Logger
	seq           atomic.Int64

	stagedMu sync.Mutex
	staged   []string
}

// New constructs a pipeline engine staging intermediates under stagingDir.
func New(opts render.Options, stagingDir string, logger *slog.Logger, engineOpts ...Option) *Engine {
	e := &Engine{
		opts:       opts,
		stagingDir: stagingDir,
		ffmpegBin:  "ffmpeg",
		ffprobeBin: "ffprobe",
		logger:     logging.NewComponentLogger(logger, Name),
		newTranscoder: func(cfg *ffmpegtrans.Config) transcoder.Transcoder {
			return ffmpegtrans.New(cfg)
		},
	}
	for _, opt := range engineOpts {
		opt(e)
	}
	if e.runner == nil {
		e.runner = ffmpegcli.New(ffmpegcli.WithBinary(e.ffmpegBin))
	}
	return e
}

// Name returns the engine identifier.
func (e *Engine) Name() string { return Name }

type mediaKind int

const (
	mediaVideo mediaKind = iota
	mediaAudio
)

type legKind int

const (
	legSource legKind = iota
	legSynth
	legConcat
	legBeep
)

// leg is one node in a clip's staged plan. Trim and filter work buffers on
// the node and is applied when the node materializes.
type leg struct {
	media mediaKind
	kind  legKind

	src   string  // legSource input file
	spec  string  // legSynth lavfi graph
	image string  // legSynth looped still
	dur   float64 // legSynth duration

	parts []*leg // legConcat inputs
	base  *leg   // legBeep input
	beeps []quiz.Interval

	hasTrim    bool
	start, end float64
	filters    []string
}

func (l *leg) pending() bool { return l.hasTrim || len(l.filters) > 0 }

// wrapLeg pushes a finished node down one level so new trim or filter work
// applies to its materialized output.
func wrapLeg(l *leg) *leg {
	return &leg{media: l.media, kind: legConcat, parts: []*leg{l}}
}

func trimLeg(l *leg, start, end float64) *leg {
	if l == nil {
		return nil
	}
	if l.kind != legSource || l.pending() {
		l = wrapLeg(l)
	}
	l.hasTrim, l.start, l.end = true, start, end
	return l
}

func appendFilters(l *leg, filters ...string) *leg {
	if l == nil {
		return nil
	}
	if l.kind == legBeep {
		l = wrapLeg(l)
	}
	l.filters = append(l.filters, filters...)
	return l
}

// concatLegs joins b after a, extending a's part list when that keeps the
// join to a single run. Self-joins always build a fresh node.
func concatLegs(a, b *leg) *leg {
	if a.kind == legConcat && !a.pending() && a != b {
		a.parts = append(a.parts, b)
		return a
	}
	return &leg{media: a.media, kind: legConcat, parts: []*leg{a, b}}
}

type clip struct {
	eng   *Engine
	video *leg
	audio *leg
	err   error
}

// Open loads both tracks of a media file.
func (e *Engine) Open(path string) (render.Clip, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("media path required")
	}
	return &clip{
		eng:   e,
		video: &leg{media: mediaVideo, kind: legSource, src: path},
		audio: &leg{media: mediaAudio, kind: legSource, src: path},
	}, nil
}

// OpenVideo loads only the video track of a media file.
func (e *Engine) OpenVideo(path string) (render.Clip, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("media path required")
	}
	return &clip{eng: e, video: &leg{media: mediaVideo, kind: legSource, src: path}}, nil
}

// OpenAudio loads only the audio track of a media file.
func (e *Engine) OpenAudio(path string) (render.Clip, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("media path required")
	}
	return &clip{eng: e, audio: &leg{media: mediaAudio, kind: legSource, src: path}}, nil
}

// Canvas synthesizes a video-only black canvas of the given duration.
func (e *Engine) Canvas(duration float64) (render.Clip, error) {
	if duration <= 0 {
		return nil, fmt.Errorf("canvas duration %.2f must be positive", duration)
	}
	return &clip{
		eng:   e,
		video: e.colorLeg(duration),
	}, nil
}

// TextCard synthesizes a silent card with lines centered on black.
func (e *Engine) TextCard(lines []string, duration float64) (render.Clip, error) {
	if duration <= 0 {
		return nil, fmt.Errorf("text card duration %.2f must be positive", duration)
	}
	video := e.colorLeg(duration)
	lineHeight := e.opts.FontSize * 3 / 2
	blockTop := (e.opts.Height - lineHeight*len(lines)) / 2
	for i, line := range lines {
		video.filters = append(video.filters, cardTextFilter(e.opts, line, blockTop+i*lineHeight))
	}
	return &clip{eng: e, video: video, audio: e.silenceLeg(duration)}, nil
}

// ImageCard synthesizes a silent video looping a still image. The still is
// probed and fitted onto the canvas when the card materializes.
func (e *Engine) ImageCard(path string, duration float64) (render.Clip, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("image path required")
	}
	if duration <= 0 {
		return nil, fmt.Errorf("image card duration %.2f must be positive", duration)
	}
	video := &leg{media: mediaVideo, kind: legSynth, image: path, dur: duration}
	return &clip{eng: e, video: video, audio: e.silenceLeg(duration)}, nil
}

// Mux pairs the video track of one clip with the audio track of another.
func (e *Engine) Mux(video, audio render.Clip) (render.Clip, error) {
	v, err := e.cast(video)
	if err != nil {
		return nil, err
	}
	a, err := e.cast(audio)
	if err != nil {
		return nil, err
	}
	if err := errors.Join(v.err, a.err); err != nil {
		return nil, err
	}
	if v.video == nil {
		return nil, errors.New("mux needs a clip with a video track")
	}
	if a.audio == nil {
		return nil, errors.New("mux needs a clip with an audio track")
	}
	return &clip{eng: e, video: v.video, audio: a.audio}, nil
}

// Render materializes the clip's legs stage by stage and muxes the result.
func (e *Engine) Render(ctx context.Context, target render.Clip, outPath string) error {
	c, err := e.cast(target)
	if err != nil {
		return err
	}
	if c.err != nil {
		return fmt.Errorf("assemble pipeline for %s: %w", outPath, c.err)
	}
	if c.video == nil && c.audio == nil {
		return errors.New("clip has no streams to render")
	}
	if err := fileutil.EnsureDir(e.stagingDir); err != nil {
		return fmt.Errorf("prepare staging dir: %w", err)
	}

	memo := map[*leg]string{}
	var videoPath, audioPath string
	if c.video != nil {
		videoPath, err = e.materialize(ctx, c.video, memo)
		if err != nil {
			return fmt.Errorf("render video leg for %s: %w", outPath, err)
		}
	}
	if c.audio != nil {
		audioPath, err = e.materialize(ctx, c.audio, memo)
		if err != nil {
			return fmt.Errorf("render audio leg for %s: %w", outPath, err)
		}
	}
	if err := e.assemble(ctx, videoPath, audioPath, outPath); err != nil {
		return err
	}
	// Failed renders keep their intermediates so the last staged file can
	// be inspected.
	e.cleanupStaging()
	return nil
}

// cleanupStaging removes the stage files written since the last cleanup,
// unless the engine was configured to keep them.
func (e *Engine) cleanupStaging() {
	e.stagedMu.Lock()
	staged := e.staged
	e.staged = nil
	e.stagedMu.Unlock()

	if e.keepStaging {
		return
	}
	for _, path := range staged {
		if err := fileutil.RemoveIfExists(path); err != nil {
			e.logger.Warn("could not remove staged file",
				logging.String(logging.FieldOutput, path),
				logging.Error(err))
		}
	}
}

func (e *Engine) cast(c render.Clip) (*clip, error) {
	pc, ok := c.(*clip)
	if !ok || pc == nil {
		return nil, fmt.Errorf("clip does not belong to the %s engine", Name)
	}
	return pc, nil
}

func (e *Engine) colorLeg(duration float64) *leg {
	return &leg{
		media: mediaVideo,
		kind:  legSynth,
		spec: fmt.Sprintf("color=c=black:s=%dx%d:r=%d:d=%s",
			e.opts.Width, e.opts.Height, e.opts.FPS, render.FormatSeconds(duration)),
		dur: duration,
	}
}

func (e *Engine) silenceLeg(duration float64) *leg {
	return &leg{
		media: mediaAudio,
		kind:  legSynth,
		spec:  "anullsrc=r=44100:cl=stereo",
		dur:   duration,
	}
}

func (e *Engine) stagePath(media mediaKind) string {
	ext := videoStageExt
	if media == mediaAudio {
		ext = audioStageExt
	}
	path := filepath.Join(e.stagingDir, fmt.Sprintf("stage-%04d%s", e.seq.Add(1), ext))
	e.stagedMu.Lock()
	e.staged = append(e.staged, path)
	e.stagedMu.Unlock()
	return path
}

// Trim keeps the span between start and end seconds.
func (c *clip) Trim(start, end float64) render.Clip {
	if c.err != nil {
		return c
	}
	c.video = trimLeg(c.video, start, end)
	c.audio = trimLeg(c.audio, start, end)
	return c
}

// Reverse plays the clip backwards.
func (c *clip) Reverse() render.Clip {
	if c.err != nil {
		return c
	}
	c.video = appendFilters(c.video, "reverse")
	c.audio = appendFilters(c.audio, "areverse")
	return c
}

// FadeInOut fades in at the start and out at the end of a clip lasting
// length seconds.
func (c *clip) FadeInOut(fade, length float64) render.Clip {
	if c.err != nil {
		return c
	}
	outStart := length - fade
	if outStart < 0 {
		outStart = 0
	}
	c.video = appendFilters(c.video,
		fadeFilter("fade", "in", 0, fade),
		fadeFilter("fade", "out", outStart, fade))
	c.audio = appendFilters(c.audio,
		fadeFilter("afade", "in", 0, fade),
		fadeFilter("afade", "out", outStart, fade))
	return c
}

// Scale fits the video onto the canvas, padding with black.
func (c *clip) Scale() render.Clip {
	if c.err != nil || c.video == nil {
		return c
	}
	c.video = appendFilters(c.video, scaleFilter(c.eng.opts), padFilter(c.eng.opts))
	return c
}

// DrawTextInBox draws a translucent gray box with white text at the top or
// bottom of the frame.
func (c *clip) DrawTextInBox(text string, length float64, move, top bool) render.Clip {
	if c.err != nil || c.video == nil {
		return c
	}
	c.video = appendFilters(c.video,
		drawBoxFilter(c.eng.opts, top),
		drawTextFilter(c.eng.opts, text, length, move, top))
	return c
}

// Mute silences the audio track.
func (c *clip) Mute() render.Clip {
	if c.err != nil || c.audio == nil {
		return c
	}
	c.audio = appendFilters(c.audio, "volume=0")
	return c
}

// Beep silences the original audio inside each interval and overlays a
// sine beep. Intervals are relative to the trimmed clip.
func (c *clip) Beep(beeps []quiz.Interval) render.Clip {
	if c.err != nil || c.audio == nil || len(beeps) == 0 {
		return c
	}
	c.audio = &leg{media: mediaAudio, kind: legBeep, base: c.audio, beeps: beeps}
	return c
}

// Repeat doubles the clip by concatenating it with itself.
func (c *clip) Repeat() render.Clip {
	if c.err != nil {
		return c
	}
	if c.video != nil {
		c.video = &leg{media: mediaVideo, kind: legConcat, parts: []*leg{c.video, c.video}}
	}
	if c.audio != nil {
		c.audio = &leg{media: mediaAudio, kind: legConcat, parts: []*leg{c.audio, c.audio}}
	}
	return c
}

// Append concatenates another clip of the same shape after this one.
func (c *clip) Append(other render.Clip) render.Clip {
	if c.err != nil {
		return c
	}
	oc, err := c.eng.cast(other)
	if err != nil {
		c.err = err
		return c
	}
	if oc.err != nil {
		c.err = oc.err
		return c
	}
	if (c.video != nil) != (oc.video != nil) || (c.audio != nil) != (oc.audio != nil) {
		c.err = errors.New("append needs clips with matching tracks")
		return c
	}
	if c.video != nil {
		c.video = concatLegs(c.video, oc.video)
	}
	if c.audio != nil {
		c.audio = concatLegs(c.audio, oc.audio)
	}
	return c
}

// AddSpacer prepends a card whose text moves across a black canvas.
func (c *clip) AddSpacer(text string, duration float64) render.Clip {
	if c.err != nil {
		return c
	}
	if c.video == nil {
		c.err = errors.New("spacer needs a clip with a video track")
		return c
	}
	spacer := c.eng.colorLeg(duration)
	spacer.filters = append(spacer.filters, spacerTextFilter(c.eng.opts, text, duration))
	c.video = concatLegs(spacer, c.video)
	if c.audio != nil {
		c.audio = concatLegs(c.eng.silenceLeg(duration), c.audio)
	}
	return c
}

// Err reports the first buffered operation failure.
func (c *clip) Err() error { return c.err }

var (
	_ render.Engine = (*Engine)(nil)
	_ render.Clip   = (*clip)(nil)
)
