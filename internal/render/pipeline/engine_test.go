package pipeline_test

import (
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/floostack/transcoder"
	ffmpegtrans "github.com/floostack/transcoder/ffmpeg"

	"popquiz/internal/logging"
	"popquiz/internal/quiz"
	"popquiz/internal/render"
	"popquiz/internal/render/pipeline"
	"popquiz/internal/services/ffmpegcli"
)

type stageCall struct {
	input  string
	output string
	args   []string
}

type stageRecorder struct {
	calls []stageCall
}

// fakeTranscoder records staged runs and fabricates their outputs so the
// engine's on-disk verification passes.
type fakeTranscoder struct {
	rec    *stageRecorder
	input  string
	output string
}

func (f *fakeTranscoder) Input(in string) transcoder.Transcoder { f.input = in; return f }

func (f *fakeTranscoder) Output(out string) transcoder.Transcoder { f.output = out; return f }

func (f *fakeTranscoder) InputPipe(*io.WriteCloser, *io.ReadCloser) transcoder.Transcoder {
	return f
}

func (f *fakeTranscoder) OutputPipe(*io.WriteCloser, *io.ReadCloser) transcoder.Transcoder {
	return f
}

func (f *fakeTranscoder) WithOptions(transcoder.Options) transcoder.Transcoder { return f }

func (f *fakeTranscoder) WithAdditionalOptions(transcoder.Options) transcoder.Transcoder {
	return f
}

func (f *fakeTranscoder) WithContext(*context.Context) transcoder.Transcoder { return f }

func (f *fakeTranscoder) GetMetadata() (transcoder.Metadata, error) { return nil, nil }

func (f *fakeTranscoder) GetRunningCmdInstance() *exec.Cmd { return nil }

func (f *fakeTranscoder) Start(opts transcoder.Options) (<-chan transcoder.Progress, error) {
	f.rec.calls = append(f.rec.calls, stageCall{
		input:  f.input,
		output: f.output,
		args:   opts.GetStrArguments(),
	})
	if err := os.WriteFile(f.output, []byte("stage"), 0o644); err != nil {
		return nil, err
	}
	ch := make(chan transcoder.Progress)
	close(ch)
	return ch, nil
}

// fakeRunner records direct ffmpeg invocations and fabricates the output
// file named by the final argument.
type fakeRunner struct {
	commands [][]string
}

func (f *fakeRunner) Run(_ context.Context, args []string, _ func(ffmpegcli.ProgressUpdate)) error {
	f.commands = append(f.commands, append([]string(nil), args...))
	return os.WriteFile(args[len(args)-1], []byte("direct"), 0o644)
}

func (f *fakeRunner) Version(context.Context) (string, error) { return "6.1", nil }

func newTestEngine(t *testing.T, extra ...pipeline.Option) (*pipeline.Engine, *stageRecorder, *fakeRunner) {
	t.Helper()
	return newTestEngineWithStaging(t, t.TempDir(), extra...)
}

func newTestEngineWithStaging(t *testing.T, stagingDir string, extra ...pipeline.Option) (*pipeline.Engine, *stageRecorder, *fakeRunner) {
	t.Helper()
	rec := &stageRecorder{}
	runner := &fakeRunner{}
	opts := render.Options{
		Width:         1280,
		Height:        720,
		FPS:           25,
		FadeSeconds:   1,
		BoxHeight:     100,
		FontSize:      50,
		BeepFrequency: 1000,
		FFmpegVersion: "6.1",
	}
	engineOpts := []pipeline.Option{
		pipeline.WithRunner(runner),
		pipeline.WithTranscoderFactory(func(*ffmpegtrans.Config) transcoder.Transcoder {
			return &fakeTranscoder{rec: rec}
		}),
	}
	engineOpts = append(engineOpts, extra...)
	engine := pipeline.New(opts, stagingDir, logging.NewNop(), engineOpts...)
	return engine, rec, runner
}

func outputPath(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join(t.TempDir(), name)
}

func hasArg(args []string, want string) bool {
	for _, arg := range args {
		if arg == want {
			return true
		}
	}
	return false
}

func hasArgPair(args []string, flag, value string) bool {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == flag && args[i+1] == value {
			return true
		}
	}
	return false
}

func argValue(t *testing.T, args []string, flag string) string {
	t.Helper()
	for i := 0; i+1 < len(args); i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	t.Fatalf("flag %s missing from %v", flag, args)
	return ""
}

func TestRenderStagesTrimBeforeFilters(t *testing.T) {
	engine, rec, runner := newTestEngine(t)
	c, err := engine.Open("song.mp4")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	c = c.Trim(10, 20).FadeInOut(1, 10).Scale()

	if err := engine.Render(context.Background(), c, outputPath(t, "out.mp4")); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if len(rec.calls) != 4 {
		t.Fatalf("expected 4 staged runs, got %d", len(rec.calls))
	}

	videoTrim := rec.calls[0]
	if videoTrim.input != "song.mp4" {
		t.Fatalf("video trim input = %q, want song.mp4", videoTrim.input)
	}
	if !hasArgPair(videoTrim.args, "-ss", "10") || !hasArgPair(videoTrim.args, "-t", "10") {
		t.Fatalf("video trim missing seek arguments: %v", videoTrim.args)
	}
	if !hasArgPair(videoTrim.args, "-c:v", "libx264") || !hasArgPair(videoTrim.args, "-f", "mpegts") {
		t.Fatalf("video trim missing stage codec: %v", videoTrim.args)
	}

	videoFilter := rec.calls[1]
	if videoFilter.input != videoTrim.output {
		t.Fatalf("filter stage should consume the trim output, got %q", videoFilter.input)
	}
	vf := argValue(t, videoFilter.args, "-vf")
	for _, want := range []string{
		"fade=type=in:start_time=0:duration=1",
		"fade=type=out:start_time=9:duration=1",
		"scale=width=1280:height=720:force_original_aspect_ratio=1",
		"pad=width=1280:height=720",
	} {
		if !strings.Contains(vf, want) {
			t.Fatalf("-vf missing %q: %s", want, vf)
		}
	}

	audioTrim := rec.calls[2]
	if !hasArg(audioTrim.args, "-vn") || !hasArgPair(audioTrim.args, "-c:a", "aac") {
		t.Fatalf("audio trim missing stage arguments: %v", audioTrim.args)
	}
	af := argValue(t, rec.calls[3].args, "-af")
	if !strings.Contains(af, "afade=type=in") || !strings.Contains(af, "afade=type=out") {
		t.Fatalf("-af missing fades: %s", af)
	}

	if len(runner.commands) != 1 {
		t.Fatalf("expected 1 direct run for the mux, got %d", len(runner.commands))
	}
	mux := runner.commands[0]
	if !hasArgPair(mux, "-map", "0:v") || !hasArgPair(mux, "-map", "1:a") {
		t.Fatalf("mux missing stream maps: %v", mux)
	}
	if !hasArgPair(mux, "-c", "copy") || !hasArgPair(mux, "-bsf:a", "aac_adtstoasc") {
		t.Fatalf("mux should stream copy with the ADTS filter: %v", mux)
	}
}

func TestRenderJoinsAppendedClips(t *testing.T) {
	engine, rec, runner := newTestEngine(t)
	first, err := engine.Open("a.mp4")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	second, err := engine.Open("b.mp4")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	joined := first.Append(second)
	if joined.Err() != nil {
		t.Fatalf("Append failed: %v", joined.Err())
	}

	if err := engine.Render(context.Background(), joined, outputPath(t, "out.mp4")); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if len(rec.calls) != 6 {
		t.Fatalf("expected 6 staged runs, got %d", len(rec.calls))
	}

	videoConcat := rec.calls[2]
	if !strings.HasPrefix(videoConcat.input, "concat:") {
		t.Fatalf("join should use the concat protocol, got %q", videoConcat.input)
	}
	if parts := strings.Split(strings.TrimPrefix(videoConcat.input, "concat:"), "|"); len(parts) != 2 {
		t.Fatalf("expected 2 joined parts, got %v", parts)
	}
	if !hasArgPair(videoConcat.args, "-c:v", "copy") {
		t.Fatalf("join should stream copy: %v", videoConcat.args)
	}
	if len(runner.commands) != 1 {
		t.Fatalf("expected 1 direct run for the mux, got %d", len(runner.commands))
	}
}

func TestRenderRepeatReusesMaterializedLeg(t *testing.T) {
	engine, rec, _ := newTestEngine(t)
	c, err := engine.Open("song.mp4")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	c = c.Trim(0, 10).Repeat()

	if err := engine.Render(context.Background(), c, outputPath(t, "out.mp4")); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if len(rec.calls) != 4 {
		t.Fatalf("repeat should reuse the trimmed leg, got %d staged runs", len(rec.calls))
	}

	videoConcat := rec.calls[1]
	parts := strings.Split(strings.TrimPrefix(videoConcat.input, "concat:"), "|")
	if len(parts) != 2 || parts[0] != parts[1] {
		t.Fatalf("repeat should join the same intermediate twice, got %v", parts)
	}
}

func TestRenderBeepRunsFilterComplex(t *testing.T) {
	engine, rec, runner := newTestEngine(t)
	c, err := engine.OpenAudio("tune.mp3")
	if err != nil {
		t.Fatalf("OpenAudio failed: %v", err)
	}
	c = c.Trim(5, 15).Beep([]quiz.Interval{{Start: 2, End: 4}})

	if err := engine.Render(context.Background(), c, outputPath(t, "out.aac")); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if len(rec.calls) != 1 {
		t.Fatalf("expected 1 staged trim run, got %d", len(rec.calls))
	}
	if len(runner.commands) != 2 {
		t.Fatalf("expected beep and mux direct runs, got %d", len(runner.commands))
	}

	beep := runner.commands[0]
	graph := argValue(t, beep, "-filter_complex")
	for _, want := range []string{
		"between(t,2,4)",
		"adelay=all=1:delays=2000",
		"amix=inputs=2:duration=first",
	} {
		if !strings.Contains(graph, want) {
			t.Fatalf("filter graph missing %q: %s", want, graph)
		}
	}
	if !hasArg(beep, "sine=frequency=1000:duration=2") {
		t.Fatalf("beep run missing sine input: %v", beep)
	}
	if !hasArgPair(runner.commands[1], "-c", "copy") {
		t.Fatalf("aac target should stream copy: %v", runner.commands[1])
	}
}

func TestRenderTextCardSynthesizesLavfi(t *testing.T) {
	engine, rec, runner := newTestEngine(t)
	c, err := engine.TextCard([]string{"Round 03", "Hits"}, 10)
	if err != nil {
		t.Fatalf("TextCard failed: %v", err)
	}

	if err := engine.Render(context.Background(), c, outputPath(t, "title.mp4")); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if len(rec.calls) != 0 {
		t.Fatalf("synthetic cards should bypass staged transcodes, got %d", len(rec.calls))
	}
	if len(runner.commands) != 3 {
		t.Fatalf("expected video synth, audio synth, and mux, got %d", len(runner.commands))
	}

	videoSynth := runner.commands[0]
	if !hasArgPair(videoSynth, "-f", "lavfi") {
		t.Fatalf("video synth should be a lavfi input: %v", videoSynth)
	}
	if !hasArgPair(videoSynth, "-i", "color=c=black:s=1280x720:r=25:d=10") {
		t.Fatalf("video synth missing color input: %v", videoSynth)
	}
	vf := argValue(t, videoSynth, "-vf")
	// Two 75px lines centered on a 720px canvas start at y=285.
	for _, want := range []string{"drawtext=text=Round 03", "y=285", "y=360"} {
		if !strings.Contains(vf, want) {
			t.Fatalf("-vf missing %q: %s", want, vf)
		}
	}
	if !hasArgPair(runner.commands[1], "-i", "anullsrc=r=44100:cl=stereo") {
		t.Fatalf("audio synth missing silence input: %v", runner.commands[1])
	}
}

func TestRenderImageCardFitsProbedStill(t *testing.T) {
	stub := filepath.Join(t.TempDir(), "ffprobe")
	script := "#!/bin/sh\necho '{\"streams\":[{\"codec_type\":\"video\",\"width\":800,\"height\":600}],\"format\":{}}'\n"
	if err := os.WriteFile(stub, []byte(script), 0o755); err != nil {
		t.Fatalf("write ffprobe stub: %v", err)
	}

	engine, _, runner := newTestEngine(t, pipeline.WithBinaries("ffmpeg", stub))
	c, err := engine.ImageCard("cover.png", 10)
	if err != nil {
		t.Fatalf("ImageCard failed: %v", err)
	}

	if err := engine.Render(context.Background(), c, outputPath(t, "card.mp4")); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	videoSynth := runner.commands[0]
	if !hasArgPair(videoSynth, "-loop", "1") || !hasArgPair(videoSynth, "-framerate", "25") {
		t.Fatalf("image synth missing loop arguments: %v", videoSynth)
	}
	vf := argValue(t, videoSynth, "-vf")
	for _, want := range []string{"scale=960:720", "pad=width=1280:height=720", "format=yuv420p"} {
		if !strings.Contains(vf, want) {
			t.Fatalf("-vf missing %q: %s", want, vf)
		}
	}
}

func TestRenderSpacerPrependsBeforeClip(t *testing.T) {
	engine, rec, runner := newTestEngine(t)
	c, err := engine.Open("part.mp4")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	c = c.AddSpacer("Question 4", 4)
	if c.Err() != nil {
		t.Fatalf("AddSpacer failed: %v", c.Err())
	}

	if err := engine.Render(context.Background(), c, outputPath(t, "out.mp4")); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	spacerOut := runner.commands[0][len(runner.commands[0])-1]
	vf := argValue(t, runner.commands[0], "-vf")
	if !strings.Contains(vf, "1280 * t / 4") {
		t.Fatalf("spacer text should scroll across the frame: %s", vf)
	}
	videoConcat := rec.calls[1]
	if !strings.HasPrefix(videoConcat.input, "concat:"+spacerOut+"|") {
		t.Fatalf("spacer should come first in the join, got %q", videoConcat.input)
	}
}

func TestRenderWebmReencodes(t *testing.T) {
	engine, _, runner := newTestEngine(t)
	c, err := engine.Open("song.mp4")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if err := engine.Render(context.Background(), c, outputPath(t, "out.webm")); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	mux := runner.commands[len(runner.commands)-1]
	if !hasArgPair(mux, "-c:v", "libvpx-vp9") || !hasArgPair(mux, "-c:a", "libopus") {
		t.Fatalf("webm target should re-encode: %v", mux)
	}
	if hasArgPair(mux, "-c", "copy") {
		t.Fatalf("webm target must not stream copy: %v", mux)
	}
}

func TestDrawTextEscapesSpecials(t *testing.T) {
	engine, rec, _ := newTestEngine(t)
	c, err := engine.OpenVideo("in.mp4")
	if err != nil {
		t.Fatalf("OpenVideo failed: %v", err)
	}
	c = c.DrawTextInBox("Don't: stop", 10, false, true)

	if err := engine.Render(context.Background(), c, outputPath(t, "out.mp4")); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	vf := argValue(t, rec.calls[0].args, "-vf")
	if !strings.Contains(vf, `Don\'t\: stop`) {
		t.Fatalf("drawtext should escape quote and colon: %s", vf)
	}
}

func TestAppendRejectsMismatchedTracks(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	video, err := engine.OpenVideo("in.mp4")
	if err != nil {
		t.Fatalf("OpenVideo failed: %v", err)
	}
	audio, err := engine.OpenAudio("in.mp3")
	if err != nil {
		t.Fatalf("OpenAudio failed: %v", err)
	}
	if video.Append(audio).Err() == nil {
		t.Fatal("expected error appending audio-only to video-only clip")
	}
}

func TestMuxRequiresBothTracks(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	audio, err := engine.OpenAudio("in.mp3")
	if err != nil {
		t.Fatalf("OpenAudio failed: %v", err)
	}
	if _, err := engine.Mux(audio, audio); err == nil {
		t.Fatal("expected error muxing audio-only clip as video leg")
	}
}

func TestNameIdentifiesEngine(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	if got := engine.Name(); got != pipeline.Name {
		t.Fatalf("Name() = %q, want %q", got, pipeline.Name)
	}
}

func stagedFiles(t *testing.T, stagingDir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(stagingDir, "stage-*"))
	if err != nil {
		t.Fatalf("glob staging dir: %v", err)
	}
	return matches
}

func TestRenderRemovesStagedIntermediates(t *testing.T) {
	staging := t.TempDir()
	engine, rec, _ := newTestEngineWithStaging(t, staging)

	c, err := engine.Open("song.mp4")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := engine.Render(context.Background(), c.Trim(10, 20), outputPath(t, "out.mp4")); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	if len(rec.calls) == 0 {
		t.Fatal("expected staged runs")
	}
	if left := stagedFiles(t, staging); len(left) != 0 {
		t.Fatalf("staged intermediates survived the render: %v", left)
	}
}

func TestRenderKeepStagingLeavesIntermediates(t *testing.T) {
	staging := t.TempDir()
	engine, rec, _ := newTestEngineWithStaging(t, staging, pipeline.WithKeepStaging(true))

	c, err := engine.Open("song.mp4")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := engine.Render(context.Background(), c.Trim(10, 20), outputPath(t, "out.mp4")); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	left := stagedFiles(t, staging)
	if len(left) != len(rec.calls) {
		t.Fatalf("expected %d staged files kept, found %v", len(rec.calls), left)
	}
}
