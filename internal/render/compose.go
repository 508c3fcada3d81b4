package render

import (
	"context"
	"fmt"
	"log/slog"

	"popquiz/internal/config"
	"popquiz/internal/logging"
	"popquiz/internal/quiz"
)

// Media locates a fetched source on disk. AudioOnly marks files without a
// video stream, which the composer backs with the round's background image,
// or a black canvas, when a video clip references them.
type Media struct {
	Path      string
	AudioOnly bool
}

// ComposerOption adjusts a composer beyond the config-derived defaults.
type ComposerOption func(*Composer)

// WithBackgroundImage backs audio-only sources with the image at path
// instead of a black canvas.
func WithBackgroundImage(path string) ComposerOption {
	return func(c *Composer) {
		c.background = path
	}
}

// Composer assembles quiz videos on an engine: per-question question and
// answer videos from the round's clip lists, title cards, and the combined
// reels. It owns the presentation rules (overlays, fades, repetition,
// spacers); the engine owns how those turn into ffmpeg work.
type Composer struct {
	engine        Engine
	opts          Options
	titleSeconds  float64
	spacerSeconds float64
	background    string
	logger        *slog.Logger
}

// NewComposer builds a composer on top of engine using the video settings
// from cfg. ffmpegVersion selects version-dependent filter arguments.
func NewComposer(engine Engine, cfg *config.Config, ffmpegVersion string, logger *slog.Logger, opts ...ComposerOption) *Composer {
	c := &Composer{
		engine:        engine,
		opts:          OptionsFromConfig(cfg, ffmpegVersion),
		titleSeconds:  cfg.Video.TitleSeconds,
		spacerSeconds: cfg.Video.SpacerSeconds,
		logger:        logging.NewComponentLogger(logger, "composer"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// QuestionVideo renders the question or answer video for the question at
// index to outPath. media maps the question's source indexes to fetched
// files, in source order.
func (c *Composer) QuestionVideo(ctx context.Context, round *quiz.Round, index int, kind quiz.Kind, media []Media, outPath string) error {
	question := round.Questions[index]
	if len(media) != len(question.Sources) {
		return fmt.Errorf("question %d: got %d media files for %d sources", index, len(media), len(question.Sources))
	}
	questionID := round.QuestionID(index)

	c.logger.Debug("assembling question video",
		logging.Int(logging.FieldRound, round.Round),
		logging.Int(logging.FieldQuestion, questionID),
		logging.String("kind", string(kind)),
		logging.String(logging.FieldOutput, outPath))

	video, err := c.videoTrack(round, question, kind, questionID, media)
	if err != nil {
		return fmt.Errorf("question %d.%d %s video track: %w", round.Round, questionID, kind, err)
	}
	audio, err := c.audioTrack(question, kind, media)
	if err != nil {
		return fmt.Errorf("question %d.%d %s audio track: %w", round.Round, questionID, kind, err)
	}
	combined, err := c.engine.Mux(video, audio)
	if err != nil {
		return fmt.Errorf("question %d.%d %s: %w", round.Round, questionID, kind, err)
	}

	// A repetition count of 2n plays the question 2^n times; each Repeat
	// doubles the clip. A count of 1 leaves it alone.
	for i := 0; i < question.RepeatCount()/2; i++ {
		combined = combined.Repeat()
	}

	return c.engine.Render(ctx, combined, outPath)
}

// videoTrack chains the video legs of the question's clip list: each clip is
// trimmed, faded, fitted to the canvas and labeled, with answer videos
// additionally carrying the answer text in a box at the top.
func (c *Composer) videoTrack(round *quiz.Round, question quiz.Question, kind quiz.Kind, questionID int, media []Media) (Clip, error) {
	label := quiz.Label(round.Round, questionID)
	answers := question.AnswerTexts(round.Questioned)

	var track Clip
	for i, part := range question.VideoClips(kind) {
		m := media[part.Source]
		length := float64(part.Interval.Duration())

		var leg Clip
		var err error
		if m.AudioOnly {
			if c.background != "" {
				leg, err = c.engine.ImageCard(c.background, length)
			} else {
				leg, err = c.engine.Canvas(length)
			}
		} else {
			leg, err = c.engine.OpenVideo(m.Path)
		}
		if err != nil {
			return nil, fmt.Errorf("clip %d: %w", i, err)
		}
		if !m.AudioOnly {
			leg = leg.Trim(float64(part.Interval.Start), float64(part.Interval.End))
			if part.Reverse {
				leg = leg.Reverse()
			}
		}
		leg = leg.FadeInOut(c.opts.FadeSeconds, length).
			Scale().
			DrawTextInBox(label, length, true, false)
		if kind == quiz.KindAnswer {
			leg = leg.DrawTextInBox(answers[i], length, false, true)
		}

		if track == nil {
			track = leg
		} else {
			track = track.Append(leg)
		}
	}
	return track, nil
}

// audioTrack chains the audio legs of the question's clip list: trim, fade,
// then the per-clip mute or missing-word beeps.
func (c *Composer) audioTrack(question quiz.Question, kind quiz.Kind, media []Media) (Clip, error) {
	var track Clip
	for i, part := range question.AudioClips(kind) {
		m := media[part.Source]
		length := float64(part.Interval.Duration())

		leg, err := c.engine.OpenAudio(m.Path)
		if err != nil {
			return nil, fmt.Errorf("clip %d: %w", i, err)
		}
		leg = leg.Trim(float64(part.Interval.Start), float64(part.Interval.End))
		if part.Reverse {
			leg = leg.Reverse()
		}
		leg = leg.FadeInOut(c.opts.FadeSeconds, length)
		if part.Mute {
			leg = leg.Mute()
		}
		if len(part.Beeps) > 0 {
			leg = leg.Beep(part.Beeps)
		}

		if track == nil {
			track = leg
		} else {
			track = track.Append(leg)
		}
	}
	return track, nil
}

// TitleVideo renders the title card opening the questions or answers reel.
func (c *Composer) TitleVideo(ctx context.Context, round *quiz.Round, kind quiz.Kind, outPath string) error {
	heading := fmt.Sprintf("Round %02d", round.Round)
	if kind == quiz.KindAnswer {
		heading = fmt.Sprintf("Answers for round %02d", round.Round)
	}
	lines := []string{heading, `"` + round.Theme + `"`}

	c.logger.Debug("assembling title video",
		logging.Int(logging.FieldRound, round.Round),
		logging.String("kind", string(kind)),
		logging.String(logging.FieldOutput, outPath))

	card, err := c.engine.TextCard(lines, c.titleSeconds)
	if err != nil {
		return fmt.Errorf("round %d %s title: %w", round.Round, kind, err)
	}
	card = card.FadeInOut(c.opts.FadeSeconds, c.titleSeconds)
	return c.engine.Render(ctx, card, outPath)
}

// ReelPart is one rendered segment of a combined reel. Kind controls spacer
// placement: spacer cards precede question videos only.
type ReelPart struct {
	Path string
	Kind quiz.Kind
}

// Reel concatenates the title video and the per-question videos into the
// combined reel at outPath. When the round defines spacer text, a spacer
// card announcing the next question precedes every question part.
func (c *Composer) Reel(ctx context.Context, round *quiz.Round, titlePath string, parts []ReelPart, outPath string) error {
	c.logger.Debug("assembling combined reel",
		logging.Int(logging.FieldRound, round.Round),
		logging.Int("parts", len(parts)),
		logging.String(logging.FieldOutput, outPath))

	reel, err := c.engine.Open(titlePath)
	if err != nil {
		return fmt.Errorf("round %d reel title: %w", round.Round, err)
	}
	for i, part := range parts {
		segment, err := c.engine.Open(part.Path)
		if err != nil {
			return fmt.Errorf("round %d reel part %d: %w", round.Round, i, err)
		}
		if round.Spacers != "" && part.Kind == quiz.KindQuestion {
			segment = segment.AddSpacer(round.Spacers, c.spacerSeconds)
		}
		reel = reel.Append(segment)
	}
	return c.engine.Render(ctx, reel, outPath)
}
