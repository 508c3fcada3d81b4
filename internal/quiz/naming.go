package quiz

import (
	"fmt"
	"strings"
)

// VideoFileName names a rendered per-question video, e.g. "03_02_question.mp4".
func VideoFileName(round, question int, kind Kind, format string) string {
	return fmt.Sprintf("%02d_%02d_%s.%s", round, question, kind, format)
}

// TitleFileName names a round title video, e.g. "03_questions_title.mp4".
func TitleFileName(round int, kind Kind, format string) string {
	return fmt.Sprintf("%02d_%ss_title.%s", round, kind, format)
}

// CombinedFileName names the stitched full-round video, e.g. "03_questions.mp4".
func CombinedFileName(round int, kind Kind, format string) string {
	return fmt.Sprintf("%02d_%ss.%s", round, kind, format)
}

// SheetFileName names a printable sheet, e.g. "03_question.md".
func SheetFileName(round int, kind Kind) string {
	return fmt.Sprintf("%02d_%s.md", round, kind)
}

// OutputFormat picks the container for the rendered video of kind: the
// format of the first video clip's source, or mp4 when that source is an
// audio container and the render therefore adds a video stream.
func (q Question) OutputFormat(kind Kind) string {
	clips := q.VideoClips(kind)
	format := q.Sources[clips[0].Source].Format
	if format == "" || IsAudioFormat(format) {
		return "mp4"
	}
	return format
}

// IsAudioFormat reports whether format names an audio-only container.
func IsAudioFormat(format string) bool {
	switch strings.ToLower(format) {
	case "mp3", "m4a", "wav", "flac", "ogg", "opus", "aac":
		return true
	}
	return false
}
