package quiz

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Validate checks the round for the cross-references a renderable round has
// to satisfy. It reports the first problem found.
func (r *Round) Validate() error {
	if r.Round < 0 {
		return fmt.Errorf("round number %d must not be negative", r.Round)
	}
	if strings.TrimSpace(r.Theme) == "" {
		return errors.New("round file must set a theme")
	}
	if len(r.Questioned) == 0 {
		return errors.New("round file must list at least one questioned field")
	}
	if len(r.Questions) == 0 {
		return errors.New("round file must contain at least one question")
	}

	for index, question := range r.Questions {
		if err := question.validate(r.Questioned); err != nil {
			return fmt.Errorf("question %d: %w", index+1, err)
		}
	}
	return nil
}

func (q Question) validate(questioned []string) error {
	if len(q.Sources) == 0 {
		return errors.New("needs at least one source")
	}
	for index, source := range q.Sources {
		if err := source.validate(); err != nil {
			return fmt.Errorf("source %d: %w", index, err)
		}
	}

	clipLists := []struct {
		name  string
		clips []Clip
	}{
		{"question_video", q.QuestionVideo},
		{"question_audio", q.QuestionAudio},
		{"answer_video", q.AnswerVideo},
		{"answer_audio", q.AnswerAudio},
	}
	for _, list := range clipLists {
		if len(list.clips) == 0 {
			return fmt.Errorf("%s must list at least one clip", list.name)
		}
		for index, clip := range list.clips {
			if err := clip.validate(len(q.Sources)); err != nil {
				return fmt.Errorf("%s clip %d: %w", list.name, index, err)
			}
		}
	}

	if q.Repetitions != 0 && q.Repetitions != 1 && q.Repetitions%2 != 0 {
		return fmt.Errorf("repetitions must be 1 or an even number, got %d", q.Repetitions)
	}

	if len(q.Answers) == 0 {
		return errors.New("needs at least one answer")
	}
	if len(q.Answers) != len(q.AnswerVideo) {
		return fmt.Errorf("expected %d answers, got %d", len(q.AnswerVideo), len(q.Answers))
	}

	questionVideoTime := TotalDuration(q.QuestionVideo)
	questionAudioTime := TotalDuration(q.QuestionAudio)
	if questionVideoTime != questionAudioTime {
		return fmt.Errorf("mismatching question audio (%ds) and video (%ds) runtime", questionAudioTime, questionVideoTime)
	}
	answerVideoTime := TotalDuration(q.AnswerVideo)
	answerAudioTime := TotalDuration(q.AnswerAudio)
	if answerVideoTime != answerAudioTime {
		return fmt.Errorf("mismatching answer audio (%ds) and video (%ds) runtime", answerAudioTime, answerVideoTime)
	}

	answerKeys := make([]string, 0, len(q.Answers))
	for _, answer := range q.Answers {
		for key := range answer {
			answerKeys = append(answerKeys, key)
		}
	}
	sort.Strings(answerKeys)
	wanted := append([]string(nil), questioned...)
	sort.Strings(wanted)
	if !equalStrings(answerKeys, wanted) {
		return fmt.Errorf("answer keys %v must match the questioned fields %v", answerKeys, wanted)
	}

	return nil
}

func (s Source) validate() error {
	if strings.TrimSpace(s.Identifier) == "" {
		return errors.New("identifier must be set")
	}
	switch s.Kind {
	case SourceYouTube:
		if s.Format == "" {
			return errors.New("youtube source needs a format")
		}
		if len(s.Text) > 0 || s.Duration != 0 {
			return errors.New("youtube source only takes identifier and format")
		}
	case SourceLocal:
		if s.Format == "" {
			return errors.New("local source needs a format")
		}
		if len(s.Text) > 0 || s.Duration != 0 {
			return errors.New("local source only takes identifier and format")
		}
	case SourceText:
		if s.Format != "" {
			return errors.New("text source does not take a format")
		}
		if len(s.Text) == 0 {
			return errors.New("text source needs at least one text line")
		}
		if s.Duration <= 0 {
			return errors.New("text source needs a positive duration")
		}
	case SourceImage:
		if len(s.Text) > 0 {
			return errors.New("image source does not take text lines")
		}
		if s.Duration <= 0 {
			return errors.New("image source needs a positive duration")
		}
	default:
		return fmt.Errorf("unsupported source kind %q", s.Kind)
	}
	return nil
}

func (c Clip) validate(sourceCount int) error {
	if c.Source < 0 || c.Source >= sourceCount {
		return fmt.Errorf("source index %d is out of range (question has %d sources)", c.Source, sourceCount)
	}
	if !c.Interval.Valid() {
		return fmt.Errorf("invalid interval %s", c.Interval)
	}
	for index, beep := range c.Beeps {
		if !beep.Valid() {
			return fmt.Errorf("beep %d has invalid interval %s", index, beep)
		}
		if beep.End > c.Interval.Duration() {
			return fmt.Errorf("beep %d (%s) runs past the clip, which is %ds long", index, beep, c.Interval.Duration())
		}
	}
	return nil
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
