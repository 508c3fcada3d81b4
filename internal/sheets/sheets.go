package sheets

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"popquiz/internal/logging"
	"popquiz/internal/quiz"
)

const (
	questionColumnWidth = 10
	fieldColumnWidth    = 40
)

// Writer renders sheets to disk.
type Writer struct {
	logger *slog.Logger
}

// NewWriter builds a sheet writer.
func NewWriter(logger *slog.Logger) *Writer {
	return &Writer{logger: logging.NewComponentLogger(logger, "sheets")}
}

// Write renders the sheet for kind into dir and returns the written path.
func (w *Writer) Write(round *quiz.Round, kind quiz.Kind, dir string) (string, error) {
	path := filepath.Join(dir, quiz.SheetFileName(round.Round, kind))
	w.logger.Info("writing sheet",
		logging.Int(logging.FieldRound, round.Round),
		logging.String("kind", string(kind)),
		logging.String(logging.FieldOutput, path))

	if err := os.WriteFile(path, []byte(Build(round, kind)), 0o644); err != nil {
		return "", fmt.Errorf("write %s sheet: %w", kind, err)
	}
	return path, nil
}

// Build renders the Markdown sheet for kind: a round header followed by a
// table with one row per question.
func Build(round *quiz.Round, kind quiz.Kind) string {
	headers, rows := Columns(round, kind)

	var b strings.Builder
	fmt.Fprintf(&b, "Round %02d: %s\n", round.Round, round.Theme)
	b.WriteString("================\n\n")

	widths := columnWidths(headers)
	writeRow(&b, headers, widths)
	separator := make([]string, len(headers))
	for i, width := range widths {
		separator[i] = strings.Repeat("-", width)
	}
	fmt.Fprintf(&b, "|-%s-|\n", strings.Join(separator, "-|-"))
	for _, row := range rows {
		writeRow(&b, row, widths)
	}
	return b.String()
}

// Columns returns the sheet table as headers plus one row per question,
// for the Markdown sheet and the terminal preview alike. The question sheet
// keeps the answer fields blank; the answer sheet fills them from the first
// answer entry.
func Columns(round *quiz.Round, kind quiz.Kind) ([]string, [][]string) {
	title := cases.Title(language.Und)
	headers := make([]string, 0, len(round.Questioned)+1)
	headers = append(headers, "Question")
	for _, field := range round.Questioned {
		headers = append(headers, title.String(field))
	}

	rows := make([][]string, 0, len(round.Questions))
	for index, question := range round.Questions {
		row := make([]string, 0, len(headers))
		row = append(row, fmt.Sprintf("%d.%d", round.Round, round.QuestionID(index)))
		for _, field := range round.Questioned {
			value := ""
			if kind == quiz.KindAnswer && len(question.Answers) > 0 {
				value = question.Answers[0][field]
			}
			row = append(row, value)
		}
		rows = append(rows, row)
	}
	return headers, rows
}

func columnWidths(headers []string) []int {
	widths := make([]int, len(headers))
	for i := range headers {
		if i == 0 {
			widths[i] = questionColumnWidth
			continue
		}
		widths[i] = fieldColumnWidth
	}
	return widths
}

func writeRow(b *strings.Builder, cells []string, widths []int) {
	padded := make([]string, len(cells))
	for i, cell := range cells {
		padded[i] = fmt.Sprintf("%-*s", widths[i], cell)
	}
	fmt.Fprintf(b, "| %s |\n", strings.Join(padded, " | "))
}
