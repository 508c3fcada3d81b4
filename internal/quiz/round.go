package quiz

import (
	"fmt"
	"strings"

	"popquiz/internal/textutil"
)

// Source kinds accepted in round files.
const (
	SourceYouTube = "youtube"
	SourceLocal   = "local"
	SourceText    = "text"
	SourceImage   = "image"
)

// Kind distinguishes question material from answer material.
type Kind string

const (
	KindQuestion Kind = "question"
	KindAnswer   Kind = "answer"
)

// Round is a parsed popquiz round file.
type Round struct {
	Round                  int        `json:"round"`
	Theme                  string     `json:"theme"`
	Spacers                string     `json:"spacers,omitempty"`
	UseCachedVideoFiles    bool       `json:"use_cached_video_files,omitempty"`
	BackgroundImage        string     `json:"background_image,omitempty"`
	FirstQuestionIsExample bool       `json:"first_question_is_example,omitempty"`
	Questioned             []string   `json:"questioned"`
	Questions              []Question `json:"questions"`
}

// Question describes one quiz question: where its media comes from and which
// clips make up the question and answer videos.
type Question struct {
	Sources       []Source            `json:"sources"`
	QuestionVideo []Clip              `json:"question_video"`
	QuestionAudio []Clip              `json:"question_audio"`
	AnswerVideo   []Clip              `json:"answer_video"`
	AnswerAudio   []Clip              `json:"answer_audio"`
	Repetitions   int                 `json:"repetitions,omitempty"`
	Answers       []map[string]string `json:"answers"`
	Variables     map[string]any      `json:"variables,omitempty"`
}

// Source references a piece of media: a YouTube video, a local file, a text
// card, or a still image.
type Source struct {
	Kind       string   `json:"source"`
	Identifier string   `json:"identifier"`
	Format     string   `json:"format,omitempty"`
	Text       []string `json:"text,omitempty"`
	Duration   int      `json:"duration,omitempty"`
}

// Clip selects an interval from one of the question's sources.
type Clip struct {
	Source   int        `json:"source"`
	Interval Interval   `json:"interval"`
	Reverse  bool       `json:"reverse,omitempty"`
	Mute     bool       `json:"mute,omitempty"`
	Beeps    []Interval `json:"beeps,omitempty"`
}

// FileName returns the on-disk name a fetched source is stored under.
func (s Source) FileName() string {
	return textutil.SanitizeFileName(s.Identifier) + "." + s.Format
}

// VideoClips returns the clip list forming the video track for kind.
func (q Question) VideoClips(kind Kind) []Clip {
	if kind == KindAnswer {
		return q.AnswerVideo
	}
	return q.QuestionVideo
}

// AudioClips returns the clip list forming the audio track for kind.
func (q Question) AudioClips(kind Kind) []Clip {
	if kind == KindAnswer {
		return q.AnswerAudio
	}
	return q.QuestionAudio
}

// RepeatCount reports how often the question plays: 1 or an even number.
func (q Question) RepeatCount() int {
	if q.Repetitions == 0 {
		return 1
	}
	return q.Repetitions
}

// AnswerTexts renders the display line for each answer entry, with the fields
// ordered the way the round lists them under questioned, e.g. "artist - title".
func (q Question) AnswerTexts(questioned []string) []string {
	texts := make([]string, 0, len(q.Answers))
	for _, answer := range q.Answers {
		fields := make([]string, 0, len(questioned))
		for _, key := range questioned {
			if value, ok := answer[key]; ok {
				fields = append(fields, value)
			}
		}
		texts = append(texts, strings.Join(fields, " - "))
	}
	return texts
}

// QuestionID numbers the question at index for display and file naming.
// Numbering starts at 1, or at 0 when the first question is an example.
func (r Round) QuestionID(index int) int {
	if r.FirstQuestionIsExample {
		return index
	}
	return index + 1
}

// IsExample reports whether the question at index is the example question.
func (r Round) IsExample(index int) bool {
	return r.FirstQuestionIsExample && index == 0
}

// HasWebSources reports whether any question pulls media from the web and
// will therefore need the downloader.
func (r Round) HasWebSources() bool {
	for _, question := range r.Questions {
		for _, source := range question.Sources {
			if source.Kind == SourceYouTube {
				return true
			}
		}
	}
	return false
}

// TotalDuration sums the interval durations of a clip list in seconds.
func TotalDuration(clips []Clip) int {
	total := 0
	for _, clip := range clips {
		total += clip.Interval.Duration()
	}
	return total
}

// Label is the human-readable question label, e.g. "Question 3.2".
func Label(round, question int) string {
	return fmt.Sprintf("Question %d.%d", round, question)
}
