package render

import (
	"context"
	"fmt"
	"strings"

	"popquiz/internal/config"
	"popquiz/internal/quiz"
)

// Options carries the canvas geometry and presentation settings shared by
// both engines.
type Options struct {
	Width         int
	Height        int
	FPS           int
	FadeSeconds   float64
	BoxHeight     int
	FontSize      int
	BeepFrequency int

	// FFmpegVersion drives version-dependent filter arguments, notably the
	// drawbox thickness value renamed between major releases.
	FFmpegVersion string
}

// OptionsFromConfig builds engine options from the video section of the
// configuration plus the probed ffmpeg version.
func OptionsFromConfig(cfg *config.Config, ffmpegVersion string) Options {
	return Options{
		Width:         cfg.Video.Width,
		Height:        cfg.Video.Height,
		FPS:           cfg.Video.FPS,
		FadeSeconds:   cfg.Video.FadeSeconds,
		BoxHeight:     cfg.Video.BoxHeight,
		FontSize:      cfg.Video.FontSize,
		BeepFrequency: cfg.Video.BeepFrequency,
		FFmpegVersion: ffmpegVersion,
	}
}

// Clip is a composition being assembled on one engine. Operations buffer
// into the engine's plan and return the clip for chaining; failures are
// carried along and surface when the clip is rendered.
type Clip interface {
	// Trim keeps the span between start and end seconds and resets timestamps.
	Trim(start, end float64) Clip
	// Reverse plays the clip backwards.
	Reverse() Clip
	// FadeInOut fades in from black at the start and out at the end of a
	// clip lasting length seconds. Audio fades alongside.
	FadeInOut(fade, length float64) Clip
	// Scale fits the video onto the engine canvas, padding with black.
	Scale() Clip
	// DrawTextInBox draws a translucent gray box at the top or bottom of the
	// frame with white text, either centered or moving left-to-right over
	// the clip length.
	DrawTextInBox(text string, length float64, move, top bool) Clip
	// Mute silences the audio track.
	Mute() Clip
	// Beep silences the original audio inside each interval and overlays a
	// sine beep. Intervals are relative to the trimmed clip.
	Beep(beeps []quiz.Interval) Clip
	// Repeat doubles the clip by concatenating it with itself.
	Repeat() Clip
	// Append concatenates another clip of the same shape after this one.
	Append(other Clip) Clip
	// AddSpacer prepends a card whose text moves across a black canvas.
	AddSpacer(text string, duration float64) Clip
	// Err reports the first operation failure buffered so far.
	Err() error
}

// Engine is a media backend able to assemble and materialize clips.
type Engine interface {
	// Name identifies the engine in logs and the ledger.
	Name() string
	// Open loads both tracks of a media file.
	Open(path string) (Clip, error)
	// OpenVideo loads only the video track of a media file.
	OpenVideo(path string) (Clip, error)
	// OpenAudio loads only the audio track of a media file.
	OpenAudio(path string) (Clip, error)
	// Canvas synthesizes a video-only black canvas of the given duration,
	// used to back audio-only sources whose sound arrives through the
	// audio track.
	Canvas(duration float64) (Clip, error)
	// TextCard synthesizes a silent card with lines centered on black.
	TextCard(lines []string, duration float64) (Clip, error)
	// ImageCard synthesizes a silent video looping a still image.
	ImageCard(path string, duration float64) (Clip, error)
	// Mux pairs the video track of one clip with the audio track of another.
	Mux(video, audio Clip) (Clip, error)
	// Render materializes the composition at outPath.
	Render(ctx context.Context, clip Clip, outPath string) error
}

// ProgressFunc receives render progress in percent where the engine can
// estimate it, for ledger updates and console output.
type ProgressFunc func(stage string, percent float64)

// ScaledSize fits a source of srcW x srcH inside maxW x maxH preserving
// aspect ratio. The smaller scale factor wins, so 800x600 inside 1200x300
// yields 400x300 and 400x300 inside 800x700 yields 800x600.
func ScaledSize(srcW, srcH, maxW, maxH int) (int, int) {
	if srcW <= 0 || srcH <= 0 || maxW <= 0 || maxH <= 0 {
		return maxW, maxH
	}
	scaleW := float64(maxW) / float64(srcW)
	scaleH := float64(maxH) / float64(srcH)
	scale := scaleW
	if scaleH < scaleW {
		scale = scaleH
	}
	return int(float64(srcW) * scale), int(float64(srcH) * scale)
}

// BoxOriginY is the y origin of the text box: flush with the top of the
// frame or sitting on the bottom edge.
func (o Options) BoxOriginY(top bool) int {
	if top {
		return 0
	}
	return o.Height - o.BoxHeight
}

// TextOriginY vertically places text inside the box: a quarter into a top
// box, three quarters down the frame for a bottom box.
func (o Options) TextOriginY(top bool) int {
	if top {
		return o.BoxHeight / 4
	}
	return o.Height - o.BoxHeight*3/4
}

// TextXExpr is the drawtext x expression: text crossing the frame over
// length seconds when moving, otherwise centered.
func (o Options) TextXExpr(length float64, move bool) string {
	if move {
		return fmt.Sprintf("%d * t / %s", o.Width, FormatSeconds(length))
	}
	return fmt.Sprintf("%d - text_w / 2", o.Width/2)
}

// BoxThickness selects the drawbox fill argument. The value "max" was
// renamed to "fill" in ffmpeg 5; nightly builds ("N" prefix) are assumed new.
func (o Options) BoxThickness() string {
	version := strings.TrimSpace(o.FFmpegVersion)
	if strings.HasPrefix(version, "N") {
		return "fill"
	}
	digits := 0
	for digits < len(version) && version[digits] >= '0' && version[digits] <= '9' {
		digits++
	}
	if digits > 0 {
		major := 0
		for _, c := range version[:digits] {
			major = major*10 + int(c-'0')
		}
		if major >= 5 {
			return "fill"
		}
	}
	return "max"
}

// FormatSeconds renders a duration in seconds as a compact ffmpeg argument,
// without a trailing decimal point for whole values.
func FormatSeconds(seconds float64) string {
	if seconds == float64(int64(seconds)) {
		return fmt.Sprintf("%d", int64(seconds))
	}
	out := strings.TrimRight(fmt.Sprintf("%.3f", seconds), "0")
	return strings.TrimSuffix(out, ".")
}
