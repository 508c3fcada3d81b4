package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	ffmpegtrans "github.com/floostack/transcoder/ffmpeg"

	"popquiz/internal/logging"
	"popquiz/internal/media/ffprobe"
	"popquiz/internal/render"
)

// Stage container choices. H.264 in MPEG-TS and AAC in ADTS both survive
// concat-protocol joins with plain stream copies.
const (
	videoStageExt    = ".ts"
	audioStageExt    = ".aac"
	videoStageCodec  = "libx264"
	audioStageCodec  = "aac"
	videoStageFormat = "mpegts"
	audioStageFormat = "adts"
)

// stageWork describes the trim, filter, and codec arguments of one run.
type stageWork struct {
	trim       bool
	start, end float64
	filters    []string
	copyCodec  bool
}

func (e *Engine) materialize(ctx context.Context, l *leg, memo map[*leg]string) (string, error) {
	if path, ok := memo[l]; ok {
		return path, nil
	}
	var (
		path string
		err  error
	)
	switch l.kind {
	case legSource:
		path, err = e.applyWork(ctx, l.src, l, true)
	case legSynth:
		path, err = e.synthesize(ctx, l)
	case legConcat:
		path, err = e.joinParts(ctx, l, memo)
		if err == nil {
			path, err = e.applyWork(ctx, path, l, false)
		}
	case legBeep:
		var base string
		base, err = e.materialize(ctx, l.base, memo)
		if err == nil {
			path, err = e.applyBeeps(ctx, base, l)
		}
	default:
		err = fmt.Errorf("unknown leg kind %d", l.kind)
	}
	if err != nil {
		return "", err
	}
	memo[l] = path
	return path, nil
}

// applyWork runs the node's pending trim and filters as separate stages.
// The split keeps fade and drawtext timestamps relative to the trimmed
// clip; a single run would filter the untrimmed timeline.
func (e *Engine) applyWork(ctx context.Context, input string, l *leg, forceEncode bool) (string, error) {
	current := input
	encoded := false
	var err error
	if l.hasTrim {
		current, err = e.stageRun(ctx, "trim", current, l.media,
			stageWork{trim: true, start: l.start, end: l.end})
		if err != nil {
			return "", err
		}
		encoded = true
	}
	if len(l.filters) > 0 {
		current, err = e.stageRun(ctx, "filter", current, l.media,
			stageWork{filters: l.filters})
		if err != nil {
			return "", err
		}
		encoded = true
	}
	if forceEncode && !encoded {
		current, err = e.stageRun(ctx, "transcode", current, l.media, stageWork{})
		if err != nil {
			return "", err
		}
	}
	return current, nil
}

func (e *Engine) joinParts(ctx context.Context, l *leg, memo map[*leg]string) (string, error) {
	paths := make([]string, 0, len(l.parts))
	for _, part := range l.parts {
		path, err := e.materialize(ctx, part, memo)
		if err != nil {
			return "", err
		}
		paths = append(paths, path)
	}
	if len(paths) == 1 {
		return paths[0], nil
	}
	input := "concat:" + strings.Join(paths, "|")
	return e.stageRun(ctx, "concat", input, l.media, stageWork{copyCodec: true})
}

// stageRun performs one staged transcode into a fresh intermediate file.
func (e *Engine) stageRun(ctx context.Context, stage, input string, media mediaKind, work stageWork) (string, error) {
	out := e.stagePath(media)
	e.logger.Debug("running pipeline stage",
		logging.String(logging.FieldStage, stage),
		logging.String("input", input),
		logging.String(logging.FieldOutput, out))
	if err := e.runTranscoder(ctx, stage, input, out, buildStageOptions(media, work)); err != nil {
		return "", err
	}
	if err := e.verifyOutput(out); err != nil {
		return "", fmt.Errorf("%s stage: %w", stage, err)
	}
	return out, nil
}

func buildStageOptions(media mediaKind, work stageWork) ffmpegtrans.Options {
	opts := ffmpegtrans.Options{Overwrite: optBool(true)}
	if media == mediaVideo {
		opts.SkipAudio = optBool(true)
		opts.OutputFormat = optStr(videoStageFormat)
		if work.copyCodec {
			opts.VideoCodec = optStr("copy")
		} else {
			opts.VideoCodec = optStr(videoStageCodec)
			if len(work.filters) > 0 {
				opts.VideoFilter = optStr(strings.Join(work.filters, ","))
			}
		}
	} else {
		opts.SkipVideo = optBool(true)
		opts.OutputFormat = optStr(audioStageFormat)
		if work.copyCodec {
			opts.AudioCodec = optStr("copy")
		} else {
			opts.AudioCodec = optStr(audioStageCodec)
			if len(work.filters) > 0 {
				opts.AudioFilter = optStr(strings.Join(work.filters, ","))
			}
		}
	}
	if work.trim {
		opts.SeekTime = optStr(render.FormatSeconds(work.start))
		opts.Duration = optStr(render.FormatSeconds(work.end - work.start))
	}
	return opts
}

// runTranscoder drives one staged run. Start loses the command's exit
// status once progress reporting is enabled, so callers verify outputs on
// disk afterwards.
func (e *Engine) runTranscoder(ctx context.Context, stage, input, output string, opts ffmpegtrans.Options) error {
	cfg := &ffmpegtrans.Config{
		FfmpegBinPath:   e.ffmpegBin,
		FfprobeBinPath:  e.ffprobeBin,
		ProgressEnabled: true,
	}
	progressChan, err := e.newTranscoder(cfg).
		Input(input).
		Output(output).
		WithContext(&ctx).
		Start(opts)
	if err != nil {
		return fmt.Errorf("%s stage: %w", stage, err)
	}
	for update := range progressChan {
		if e.progress != nil {
			e.progress(stage, update.GetProgress())
		}
	}
	return nil
}

func (e *Engine) synthesize(ctx context.Context, l *leg) (string, error) {
	out := e.stagePath(l.media)
	filters := l.filters
	args := make([]string, 0, 16)
	switch {
	case l.image != "":
		fitted, err := e.imageFitFilters(ctx, l.image)
		if err != nil {
			return "", err
		}
		filters = append(fitted, filters...)
		args = append(args,
			"-loop", "1",
			"-framerate", strconv.Itoa(e.opts.FPS),
			"-t", render.FormatSeconds(l.dur),
			"-i", l.image)
	default:
		args = append(args, "-f", "lavfi", "-i", l.spec, "-t", render.FormatSeconds(l.dur))
	}
	if l.media == mediaVideo {
		if len(filters) > 0 {
			args = append(args, "-vf", strings.Join(filters, ","))
		}
		args = append(args, "-an", "-c:v", videoStageCodec, "-f", videoStageFormat)
	} else {
		if len(filters) > 0 {
			args = append(args, "-af", strings.Join(filters, ","))
		}
		args = append(args, "-vn", "-c:a", audioStageCodec, "-f", audioStageFormat)
	}
	args = append(args, "-y", out)
	if err := e.runDirect(ctx, "synthesize", args); err != nil {
		return "", err
	}
	return out, e.verifyOutput(out)
}

// imageFitFilters probes the still and fits it onto the canvas.
func (e *Engine) imageFitFilters(ctx context.Context, path string) ([]string, error) {
	result, err := ffprobe.Inspect(ctx, e.ffprobeBin, path)
	if err != nil {
		return nil, fmt.Errorf("probe image %s: %w", path, err)
	}
	fitW, fitH := e.opts.Width, e.opts.Height
	if w, h, ok := result.Dimensions(); ok {
		fitW, fitH = render.ScaledSize(w, h, e.opts.Width, e.opts.Height)
	}
	return []string{
		fmt.Sprintf("scale=%d:%d", fitW, fitH),
		padFilter(e.opts),
		"format=yuv420p",
	}, nil
}

func (e *Engine) applyBeeps(ctx context.Context, input string, l *leg) (string, error) {
	current := input
	for _, beep := range l.beeps {
		out := e.stagePath(mediaAudio)
		sine := fmt.Sprintf("sine=frequency=%d:duration=%d", e.opts.BeepFrequency, beep.Duration())
		graph := fmt.Sprintf(
			"[0:a]volume=enable='between(t,%d,%d)':volume=0[muted];"+
				"[1:a]adelay=all=1:delays=%d[tone];"+
				"[muted][tone]amix=inputs=2:duration=first,volume=2[beeped]",
			beep.Start, beep.End, beep.Start*1000)
		args := []string{
			"-i", current,
			"-f", "lavfi", "-i", sine,
			"-filter_complex", graph,
			"-map", "[beeped]",
			"-c:a", audioStageCodec, "-f", audioStageFormat,
			"-y", out,
		}
		if err := e.runDirect(ctx, "beep", args); err != nil {
			return "", err
		}
		if err := e.verifyOutput(out); err != nil {
			return "", err
		}
		current = out
	}
	return current, nil
}

// assemble muxes the materialized legs into the final container.
func (e *Engine) assemble(ctx context.Context, videoPath, audioPath, outPath string) error {
	args := make([]string, 0, 16)
	if videoPath != "" {
		args = append(args, "-i", videoPath)
	}
	if audioPath != "" {
		args = append(args, "-i", audioPath)
	}
	if videoPath != "" && audioPath != "" {
		args = append(args, "-map", "0:v", "-map", "1:a")
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(outPath), "."))
	switch {
	case ext == "webm":
		args = append(args, "-c:v", "libvpx-vp9", "-c:a", "libopus")
	case videoPath == "":
		// The stage stream only survives a copy into ADTS-style targets;
		// other audio containers re-encode with the muxer default codec.
		if ext == "aac" || ext == "ts" {
			args = append(args, "-c", "copy")
		}
	default:
		args = append(args, "-c", "copy")
		if audioPath != "" && muxNeedsASC(ext) {
			args = append(args, "-bsf:a", "aac_adtstoasc")
		}
	}
	args = append(args, "-y", outPath)
	if err := e.runDirect(ctx, "mux", args); err != nil {
		return fmt.Errorf("mux %s: %w", outPath, err)
	}
	return e.verifyOutput(outPath)
}

// muxNeedsASC reports whether the container stores AAC as ASC rather than
// ADTS, requiring the bitstream filter during stream copies.
func muxNeedsASC(ext string) bool {
	switch ext {
	case "mp4", "m4a", "mov", "mkv":
		return true
	}
	return false
}

func (e *Engine) runDirect(ctx context.Context, stage string, args []string) error {
	e.logger.Debug("running ffmpeg",
		logging.String(logging.FieldStage, stage),
		logging.String("command", strings.Join(args, " ")))
	if e.progress != nil {
		e.progress(stage, 0)
	}
	if err := e.runner.Run(ctx, args, nil); err != nil {
		return fmt.Errorf("%s stage: %w", stage, err)
	}
	return nil
}

func (e *Engine) verifyOutput(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("output missing: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("output %s is empty", path)
	}
	return nil
}

func optStr(v string) *string { return &v }

func optBool(v bool) *bool { return &v }
