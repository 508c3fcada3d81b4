package filtergraph_test

import (
	"context"
	"strings"
	"testing"

	"popquiz/internal/logging"
	"popquiz/internal/quiz"
	"popquiz/internal/render"
	"popquiz/internal/render/filtergraph"
)

func newEngine(t *testing.T) *filtergraph.Engine {
	t.Helper()
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
	return filtergraph.New(opts, logging.NewNop())
}

func mustPreview(t *testing.T, e *filtergraph.Engine, c render.Clip) string {
	t.Helper()
	command, err := e.Preview(c, "out.mp4")
	if err != nil {
		t.Fatalf("Preview failed: %v", err)
	}
	return command
}

func assertContains(t *testing.T, command string, wants ...string) {
	t.Helper()
	for _, want := range wants {
		if !strings.Contains(command, want) {
			t.Fatalf("command missing %q:\n%s", want, command)
		}
	}
}

func TestTrimResetsTimestampsOnBothTracks(t *testing.T) {
	e := newEngine(t)
	c, err := e.Open("in.mp4")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	c = c.Trim(10, 20).FadeInOut(1, 10)

	command := mustPreview(t, e, c)
	assertContains(t, command,
		"-filter_complex",
		"trim=", "start=10", "end=20",
		"setpts=PTS-STARTPTS", "atrim=", "asetpts=PTS-STARTPTS",
		"fade=", "afade=", "type=in", "type=out",
		"start_time=9", "duration=1",
		"-y", "out.mp4",
	)
}

func TestScalePadsToCanvas(t *testing.T) {
	e := newEngine(t)
	c, err := e.OpenVideo("in.mp4")
	if err != nil {
		t.Fatalf("OpenVideo failed: %v", err)
	}
	c = c.Scale()

	command := mustPreview(t, e, c)
	assertContains(t, command,
		"scale=", "force_original_aspect_ratio=1",
		"pad=", "color=black", "(ow-iw)/2", "(oh-ih)/2",
	)
}

func TestDrawTextInBoxPlacesBoxAtBottom(t *testing.T) {
	e := newEngine(t)
	c, err := e.OpenVideo("in.mp4")
	if err != nil {
		t.Fatalf("OpenVideo failed: %v", err)
	}
	c = c.DrawTextInBox("Question_3.2", 20, true, false)

	command := mustPreview(t, e, c)
	assertContains(t, command,
		"drawbox=", "color=gray@0.5", "thickness=fill", "y=620",
		"drawtext=", "fontcolor=white", "fontsize=50",
		"1280 * t / 20", "y=645",
	)
}

func TestDrawTextInBoxStaticTopBox(t *testing.T) {
	e := newEngine(t)
	c, err := e.OpenVideo("in.mp4")
	if err != nil {
		t.Fatalf("OpenVideo failed: %v", err)
	}
	c = c.DrawTextInBox("answer", 20, false, true)

	command := mustPreview(t, e, c)
	assertContains(t, command, "640 - text_w / 2", "y=0", "y=25")
}

func TestCanvasSynthesizesVideoOnlyBlack(t *testing.T) {
	e := newEngine(t)
	c, err := e.Canvas(4)
	if err != nil {
		t.Fatalf("Canvas failed: %v", err)
	}

	command := mustPreview(t, e, c)
	assertContains(t, command,
		"-f lavfi",
		"color=c=black:s=1280x720:r=25:d=4",
	)
	if strings.Contains(command, "anullsrc") {
		t.Fatalf("canvas should carry no audio leg, got: %s", command)
	}
}

func TestCanvasRejectsNonPositiveDuration(t *testing.T) {
	e := newEngine(t)
	if _, err := e.Canvas(0); err == nil {
		t.Fatal("expected error for zero duration")
	}
}

func TestTextCardCentersLines(t *testing.T) {
	e := newEngine(t)
	c, err := e.TextCard([]string{"Round_03", "theme"}, 10)
	if err != nil {
		t.Fatalf("TextCard failed: %v", err)
	}

	command := mustPreview(t, e, c)
	// Two 75px lines centered on a 720px canvas start at y=285.
	assertContains(t, command,
		"drawtext=", "(w - text_w) / 2", "y=285", "y=360",
		"anullsrc=",
	)
}

func TestImageCardLoopsAndScalesStill(t *testing.T) {
	e := newEngine(t)
	c, err := e.ImageCard("cover.png", 10)
	if err != nil {
		t.Fatalf("ImageCard failed: %v", err)
	}

	command := mustPreview(t, e, c)
	assertContains(t, command,
		"-loop 1", "-framerate 25", "cover.png",
		"scale=", "pad=",
	)
}

func TestMuteZeroesAudio(t *testing.T) {
	e := newEngine(t)
	c, err := e.OpenAudio("in.mp3")
	if err != nil {
		t.Fatalf("OpenAudio failed: %v", err)
	}
	c = c.Mute()

	command := mustPreview(t, e, c)
	assertContains(t, command, "volume=0")
}

func TestBeepSilencesIntervalAndMixesSine(t *testing.T) {
	e := newEngine(t)
	c, err := e.OpenAudio("in.mp3")
	if err != nil {
		t.Fatalf("OpenAudio failed: %v", err)
	}
	c = c.Beep([]quiz.Interval{{Start: 2, End: 4}})

	command := mustPreview(t, e, c)
	assertContains(t, command,
		"between(t", "sine=frequency=1000:duration=2",
		"adelay=", "amix=", "duration=first",
	)
}

func TestRepeatDoublesViaSplitAndConcat(t *testing.T) {
	e := newEngine(t)
	c, err := e.Open("in.mp4")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	c = c.Repeat()

	command := mustPreview(t, e, c)
	assertContains(t, command, "split", "asplit", "fifo", "afifo", "concat=")
}

func TestAppendJoinsTwoClips(t *testing.T) {
	e := newEngine(t)
	first, err := e.Open("a.mp4")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	second, err := e.Open("b.mp4")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	joined := first.Append(second)
	if joined.Err() != nil {
		t.Fatalf("Append failed: %v", joined.Err())
	}

	command := mustPreview(t, e, joined)
	assertContains(t, command, "a.mp4", "b.mp4", "concat=")
}

func TestAppendRejectsMismatchedTracks(t *testing.T) {
	e := newEngine(t)
	video, err := e.OpenVideo("in.mp4")
	if err != nil {
		t.Fatalf("OpenVideo failed: %v", err)
	}
	audio, err := e.OpenAudio("in.mp3")
	if err != nil {
		t.Fatalf("OpenAudio failed: %v", err)
	}
	if video.Append(audio).Err() == nil {
		t.Fatal("expected error appending audio-only to video-only clip")
	}
}

func TestAddSpacerPrependsMovingText(t *testing.T) {
	e := newEngine(t)
	c, err := e.Open("part.mp4")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	c = c.AddSpacer("Question_4", 4)
	if c.Err() != nil {
		t.Fatalf("AddSpacer failed: %v", c.Err())
	}

	command := mustPreview(t, e, c)
	assertContains(t, command,
		"color=c=black", "drawtext=", "1280 * t / 4",
		"part.mp4", "concat=",
	)
}

func TestMuxPairsVideoWithAudio(t *testing.T) {
	e := newEngine(t)
	video, err := e.OpenVideo("in.mp4")
	if err != nil {
		t.Fatalf("OpenVideo failed: %v", err)
	}
	audio, err := e.OpenAudio("in.mp3")
	if err != nil {
		t.Fatalf("OpenAudio failed: %v", err)
	}
	muxed, err := e.Mux(video, audio)
	if err != nil {
		t.Fatalf("Mux failed: %v", err)
	}

	command := mustPreview(t, e, muxed)
	assertContains(t, command, "in.mp4", "in.mp3")
}

func TestMuxRequiresBothTracks(t *testing.T) {
	e := newEngine(t)
	audio, err := e.OpenAudio("in.mp3")
	if err != nil {
		t.Fatalf("OpenAudio failed: %v", err)
	}
	if _, err := e.Mux(audio, audio); err == nil {
		t.Fatal("expected error muxing audio-only clip as video leg")
	}
}

func TestRenderReportsAssemblyError(t *testing.T) {
	e := newEngine(t)
	video, err := e.OpenVideo("in.mp4")
	if err != nil {
		t.Fatalf("OpenVideo failed: %v", err)
	}
	audio, err := e.OpenAudio("in.mp3")
	if err != nil {
		t.Fatalf("OpenAudio failed: %v", err)
	}
	broken := video.Append(audio)

	if err := e.Render(context.Background(), broken, "out.mp4"); err == nil {
		t.Fatal("expected render to surface the append error")
	}
}

func TestNameIdentifiesEngine(t *testing.T) {
	if got := newEngine(t).Name(); got != filtergraph.Name {
		t.Fatalf("Name() = %q, want %q", got, filtergraph.Name)
	}
}
