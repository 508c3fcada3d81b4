package filtergraph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	ffmpeg_go "github.com/u2takey/ffmpeg-go"

	"popquiz/internal/logging"
	"popquiz/internal/quiz"
	"popquiz/internal/render"
)

// Name identifies this engine in configuration and logs.
const Name = "filtergraph"

// Option configures the engine.
type Option func(*Engine)

// WithBinary points the engine at a specific ffmpeg executable.
func WithBinary(binary string) Option {
	return func(e *Engine) {
		if strings.TrimSpace(binary) != "" {
			e.binary = binary
		}
	}
}

// Engine implements render.Engine on top of ffmpeg filter graphs.
type Engine struct {
	opts   render.Options
	binary string
	logger *slog.Logger
}

// New constructs a filter graph engine.
func New(opts render.Options, logger *slog.Logger, engineOpts ...Option) *Engine {
	e := &Engine{
		opts:   opts,
		logger: logging.NewComponentLogger(logger, Name),
	}
	for _, opt := range engineOpts {
		opt(e)
	}
	return e
}

// Name returns the engine identifier.
func (e *Engine) Name() string { return Name }

type clip struct {
	eng   *Engine
	video *ffmpeg_go.Stream
	audio *ffmpeg_go.Stream
	err   error
}

// Open loads both tracks of a media file.
func (e *Engine) Open(path string) (render.Clip, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("media path required")
	}
	input := ffmpeg_go.Input(path)
	return &clip{eng: e, video: input.Video(), audio: input.Audio()}, nil
}

// OpenVideo loads only the video track of a media file.
func (e *Engine) OpenVideo(path string) (render.Clip, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("media path required")
	}
	return &clip{eng: e, video: ffmpeg_go.Input(path).Video()}, nil
}

// OpenAudio loads only the audio track of a media file.
func (e *Engine) OpenAudio(path string) (render.Clip, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("media path required")
	}
	return &clip{eng: e, audio: ffmpeg_go.Input(path).Audio()}, nil
}

// Canvas synthesizes a video-only black canvas of the given duration.
func (e *Engine) Canvas(duration float64) (render.Clip, error) {
	if duration <= 0 {
		return nil, fmt.Errorf("canvas duration %.2f must be positive", duration)
	}
	return &clip{eng: e, video: e.colorInput(duration)}, nil
}

// TextCard synthesizes a silent card with lines centered on black.
func (e *Engine) TextCard(lines []string, duration float64) (render.Clip, error) {
	if duration <= 0 {
		return nil, fmt.Errorf("text card duration %.2f must be positive", duration)
	}
	video := e.colorInput(duration)
	lineHeight := e.opts.FontSize * 3 / 2
	blockTop := (e.opts.Height - lineHeight*len(lines)) / 2
	for i, line := range lines {
		video = video.Filter("drawtext", nil, ffmpeg_go.KwArgs{
			"text":      line,
			"fontcolor": "white",
			"fontsize":  e.opts.FontSize,
			"x":         "(w - text_w) / 2",
			"y":         blockTop + i*lineHeight,
		})
	}
	return &clip{eng: e, video: video, audio: e.silenceInput(duration)}, nil
}

// ImageCard synthesizes a silent video looping a still image, fitted onto
// the canvas.
func (e *Engine) ImageCard(path string, duration float64) (render.Clip, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("image path required")
	}
	if duration <= 0 {
		return nil, fmt.Errorf("image card duration %.2f must be positive", duration)
	}
	video := ffmpeg_go.Input(path, ffmpeg_go.KwArgs{
		"loop":      1,
		"framerate": e.opts.FPS,
		"t":         render.FormatSeconds(duration),
	}).Video()
	c := &clip{eng: e, video: video, audio: e.silenceInput(duration)}
	c.Scale()
	return c, nil
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

// Render compiles the filter graph and runs ffmpeg.
func (e *Engine) Render(ctx context.Context, target render.Clip, outPath string) error {
	out, err := e.output(target, outPath)
	if err != nil {
		return fmt.Errorf("assemble graph for %s: %w", outPath, err)
	}
	out.Context = ctx

	e.logger.Info("running ffmpeg filter graph",
		logging.String(logging.FieldOutput, outPath),
		logging.String("command", commandLine(out)))
	if err := out.Run(); err != nil {
		return fmt.Errorf("render %s: %w", outPath, err)
	}
	return nil
}

// Preview compiles the ffmpeg invocation for a clip without running it.
func (e *Engine) Preview(target render.Clip, outPath string) (string, error) {
	out, err := e.output(target, outPath)
	if err != nil {
		return "", err
	}
	return commandLine(out), nil
}

func commandLine(out *ffmpeg_go.Stream) string {
	return strings.Join(out.GetArgs(), " ")
}

func (e *Engine) output(target render.Clip, outPath string) (*ffmpeg_go.Stream, error) {
	c, err := e.cast(target)
	if err != nil {
		return nil, err
	}
	if c.err != nil {
		return nil, c.err
	}

	streams := make([]*ffmpeg_go.Stream, 0, 2)
	if c.video != nil {
		streams = append(streams, c.video)
	}
	if c.audio != nil {
		streams = append(streams, c.audio)
	}
	if len(streams) == 0 {
		return nil, errors.New("clip has no streams to render")
	}

	out := ffmpeg_go.Output(streams, outPath).
		OverWriteOutput().
		ErrorToStdOut().
		Silent(true)
	if e.binary != "" {
		out = out.SetFfmpegPath(e.binary)
	}
	return out, nil
}

func (e *Engine) cast(c render.Clip) (*clip, error) {
	fc, ok := c.(*clip)
	if !ok || fc == nil {
		return nil, fmt.Errorf("clip does not belong to the %s engine", Name)
	}
	return fc, nil
}

func (e *Engine) colorInput(duration float64) *ffmpeg_go.Stream {
	spec := fmt.Sprintf("color=c=black:s=%dx%d:r=%d:d=%s",
		e.opts.Width, e.opts.Height, e.opts.FPS, render.FormatSeconds(duration))
	return ffmpeg_go.Input(spec, ffmpeg_go.KwArgs{"f": "lavfi"})
}

func (e *Engine) silenceInput(duration float64) *ffmpeg_go.Stream {
	return ffmpeg_go.Input("anullsrc=r=44100:cl=stereo", ffmpeg_go.KwArgs{
		"f": "lavfi",
		"t": render.FormatSeconds(duration),
	})
}

func (e *Engine) sineInput(duration float64) *ffmpeg_go.Stream {
	spec := fmt.Sprintf("sine=frequency=%d:duration=%s",
		e.opts.BeepFrequency, render.FormatSeconds(duration))
	return ffmpeg_go.Input(spec, ffmpeg_go.KwArgs{"f": "lavfi"})
}

// Trim keeps the span between start and end seconds and resets timestamps.
func (c *clip) Trim(start, end float64) render.Clip {
	if c.err != nil {
		return c
	}
	if c.video != nil {
		c.video = c.video.
			Filter("trim", nil, ffmpeg_go.KwArgs{
				"start": render.FormatSeconds(start),
				"end":   render.FormatSeconds(end),
			}).
			Filter("setpts", ffmpeg_go.Args{"PTS-STARTPTS"})
	}
	if c.audio != nil {
		c.audio = c.audio.
			Filter("atrim", nil, ffmpeg_go.KwArgs{
				"start": render.FormatSeconds(start),
				"end":   render.FormatSeconds(end),
			}).
			Filter("asetpts", ffmpeg_go.Args{"PTS-STARTPTS"})
	}
	return c
}

// Reverse plays the clip backwards.
func (c *clip) Reverse() render.Clip {
	if c.err != nil {
		return c
	}
	if c.video != nil {
		c.video = c.video.Filter("reverse", nil)
	}
	if c.audio != nil {
		c.audio = c.audio.Filter("areverse", nil)
	}
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
	if c.video != nil {
		c.video = c.video.
			Filter("fade", nil, ffmpeg_go.KwArgs{
				"type":       "in",
				"start_time": 0,
				"duration":   render.FormatSeconds(fade),
			}).
			Filter("fade", nil, ffmpeg_go.KwArgs{
				"type":       "out",
				"start_time": render.FormatSeconds(outStart),
				"duration":   render.FormatSeconds(fade),
			})
	}
	if c.audio != nil {
		c.audio = c.audio.
			Filter("afade", nil, ffmpeg_go.KwArgs{
				"type":       "in",
				"start_time": 0,
				"duration":   render.FormatSeconds(fade),
			}).
			Filter("afade", nil, ffmpeg_go.KwArgs{
				"type":       "out",
				"start_time": render.FormatSeconds(outStart),
				"duration":   render.FormatSeconds(fade),
			})
	}
	return c
}

// Scale fits the video onto the canvas, padding with black.
func (c *clip) Scale() render.Clip {
	if c.err != nil || c.video == nil {
		return c
	}
	opts := c.eng.opts
	c.video = c.video.
		Filter("scale", nil, ffmpeg_go.KwArgs{
			"width":                       opts.Width,
			"height":                      opts.Height,
			"force_original_aspect_ratio": 1,
		}).
		Filter("pad", nil, ffmpeg_go.KwArgs{
			"width":  opts.Width,
			"height": opts.Height,
			"x":      "(ow-iw)/2",
			"y":      "(oh-ih)/2",
			"color":  "black",
		})
	return c
}

// DrawTextInBox draws a translucent gray box with white text at the top or
// bottom of the frame.
func (c *clip) DrawTextInBox(text string, length float64, move, top bool) render.Clip {
	if c.err != nil || c.video == nil {
		return c
	}
	opts := c.eng.opts
	c.video = c.video.
		Filter("drawbox", nil, ffmpeg_go.KwArgs{
			"x":         0,
			"y":         opts.BoxOriginY(top),
			"width":     opts.Width,
			"height":    opts.BoxHeight,
			"color":     "gray@0.5",
			"thickness": opts.BoxThickness(),
		}).
		Filter("drawtext", nil, ffmpeg_go.KwArgs{
			"text":      text,
			"fontcolor": "white",
			"fontsize":  opts.FontSize,
			"x":         opts.TextXExpr(length, move),
			"y":         opts.TextOriginY(top),
		})
	return c
}

// Mute silences the audio track.
func (c *clip) Mute() render.Clip {
	if c.err != nil || c.audio == nil {
		return c
	}
	c.audio = c.audio.Filter("volume", ffmpeg_go.Args{"0"})
	return c
}

// Beep silences the original audio inside each interval and overlays a
// sine beep. Intervals are relative to the trimmed clip.
func (c *clip) Beep(beeps []quiz.Interval) render.Clip {
	if c.err != nil || c.audio == nil || len(beeps) == 0 {
		return c
	}
	for _, beep := range beeps {
		c.audio = c.audio.Filter("volume", nil, ffmpeg_go.KwArgs{
			"volume": 0,
			"enable": fmt.Sprintf("between(t,%d,%d)", beep.Start, beep.End),
		})
		tone := c.eng.sineInput(float64(beep.Duration())).
			Filter("adelay", nil, ffmpeg_go.KwArgs{
				"delays": beep.Start * 1000,
				"all":    1,
			})
		c.audio = ffmpeg_go.Filter(
			[]*ffmpeg_go.Stream{c.audio, tone},
			"amix", nil,
			ffmpeg_go.KwArgs{"inputs": 2, "duration": "first"},
		).Filter("volume", ffmpeg_go.Args{"2"})
	}
	return c
}

// Repeat doubles the clip by concatenating it with itself.
func (c *clip) Repeat() render.Clip {
	if c.err != nil {
		return c
	}
	switch {
	case c.video != nil && c.audio != nil:
		vsplit := c.video.Split()
		asplit := ffmpeg_go.FilterMultiOutput([]*ffmpeg_go.Stream{c.audio}, "asplit", nil)
		c.concatStreams(
			[]*ffmpeg_go.Stream{vsplit.Get("0"), vsplit.Get("1")},
			[]*ffmpeg_go.Stream{asplit.Get("0"), asplit.Get("1")},
		)
	case c.video != nil:
		vsplit := c.video.Split()
		c.concatStreams([]*ffmpeg_go.Stream{vsplit.Get("0"), vsplit.Get("1")}, nil)
	case c.audio != nil:
		asplit := ffmpeg_go.FilterMultiOutput([]*ffmpeg_go.Stream{c.audio}, "asplit", nil)
		c.concatStreams(nil, []*ffmpeg_go.Stream{asplit.Get("0"), asplit.Get("1")})
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
	var videos, audios []*ffmpeg_go.Stream
	if c.video != nil {
		videos = []*ffmpeg_go.Stream{c.video, oc.video}
	}
	if c.audio != nil {
		audios = []*ffmpeg_go.Stream{c.audio, oc.audio}
	}
	c.concatStreams(videos, audios)
	return c
}

// AddSpacer prepends a card whose text moves across a black canvas.
func (c *clip) AddSpacer(text string, duration float64) render.Clip {
	if c.err != nil {
		return c
	}
	opts := c.eng.opts
	spacerVideo := c.eng.colorInput(duration).Filter("drawtext", nil, ffmpeg_go.KwArgs{
		"text":      text,
		"fontcolor": "white",
		"fontsize":  opts.FontSize,
		"x":         opts.TextXExpr(duration, true),
		"y":         "(h - text_h) / 2",
	})
	spacer := &clip{eng: c.eng, video: spacerVideo}
	if c.audio != nil {
		spacer.audio = c.eng.silenceInput(duration)
	}
	if (spacer.video != nil) != (c.video != nil) {
		c.err = errors.New("spacer needs a clip with a video track")
		return c
	}
	spacer.Append(c)
	c.video, c.audio, c.err = spacer.video, spacer.audio, spacer.err
	return c
}

// Err reports the first buffered operation failure.
func (c *clip) Err() error { return c.err }

// concatStreams joins interleaved video/audio pairs (or bare legs) with the
// concat filter, fifo-buffered the way multi-branch graphs require.
func (c *clip) concatStreams(videos, audios []*ffmpeg_go.Stream) {
	n := len(videos)
	if n == 0 {
		n = len(audios)
	}
	if len(videos) > 0 && len(audios) > 0 {
		interleaved := make([]*ffmpeg_go.Stream, 0, n*2)
		for i := 0; i < n; i++ {
			interleaved = append(interleaved,
				videos[i].Filter("fifo", nil),
				audios[i].Filter("afifo", nil))
		}
		joined := ffmpeg_go.FilterMultiOutput(interleaved, "concat", nil,
			ffmpeg_go.KwArgs{"n": n, "v": 1, "a": 1})
		c.video, c.audio = joined.Get("0"), joined.Get("1")
		return
	}
	if len(videos) > 0 {
		buffered := make([]*ffmpeg_go.Stream, 0, n)
		for _, v := range videos {
			buffered = append(buffered, v.Filter("fifo", nil))
		}
		c.video = ffmpeg_go.Filter(buffered, "concat", nil,
			ffmpeg_go.KwArgs{"n": n, "v": 1, "a": 0})
		return
	}
	buffered := make([]*ffmpeg_go.Stream, 0, n)
	for _, a := range audios {
		buffered = append(buffered, a.Filter("afifo", nil))
	}
	c.audio = ffmpeg_go.Filter(buffered, "concat", nil,
		ffmpeg_go.KwArgs{"n": n, "v": 0, "a": 1})
}
