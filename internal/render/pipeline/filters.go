package pipeline

import (
	"fmt"
	"strings"

	"popquiz/internal/render"
)

func scaleFilter(o render.Options) string {
	return fmt.Sprintf("scale=width=%d:height=%d:force_original_aspect_ratio=1",
		o.Width, o.Height)
}

func padFilter(o render.Options) string {
	return fmt.Sprintf("pad=width=%d:height=%d:x=(ow-iw)/2:y=(oh-ih)/2:color=black",
		o.Width, o.Height)
}

func drawBoxFilter(o render.Options, top bool) string {
	return fmt.Sprintf("drawbox=x=0:y=%d:width=%d:height=%d:color=gray@0.5:thickness=%s",
		o.BoxOriginY(top), o.Width, o.BoxHeight, o.BoxThickness())
}

func drawTextFilter(o render.Options, text string, length float64, move, top bool) string {
	return fmt.Sprintf("drawtext=text=%s:fontcolor=white:fontsize=%d:x=%s:y=%d",
		escapeFilterText(text), o.FontSize, o.TextXExpr(length, move), o.TextOriginY(top))
}

// spacerTextFilter scrolls text across the vertical middle of the frame.
func spacerTextFilter(o render.Options, text string, duration float64) string {
	return fmt.Sprintf("drawtext=text=%s:fontcolor=white:fontsize=%d:x=%s:y=(h - text_h) / 2",
		escapeFilterText(text), o.FontSize, o.TextXExpr(duration, true))
}

// cardTextFilter centers one title card line at a fixed height.
func cardTextFilter(o render.Options, text string, y int) string {
	return fmt.Sprintf("drawtext=text=%s:fontcolor=white:fontsize=%d:x=(w - text_w) / 2:y=%d",
		escapeFilterText(text), o.FontSize, y)
}

func fadeFilter(name, direction string, start, duration float64) string {
	return fmt.Sprintf("%s=type=%s:start_time=%s:duration=%s",
		name, direction, render.FormatSeconds(start), render.FormatSeconds(duration))
}

// escapeFilterText guards the characters the filter graph parser treats
// specially inside drawtext values.
func escapeFilterText(text string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`,
		`'`, `\'`,
		`:`, `\:`,
		`,`, `\,`,
		`;`, `\;`,
		`=`, `\=`,
		`[`, `\[`,
		`]`, `\]`,
	)
	return replacer.Replace(text)
}
