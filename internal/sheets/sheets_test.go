package sheets_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"popquiz/internal/logging"
	"popquiz/internal/quiz"
	"popquiz/internal/sheets"
)

func sheetRound() *quiz.Round {
	return &quiz.Round{
		Round:      7,
		Theme:      "One-hit wonders",
		Questioned: []string{"artist", "title"},
		Questions: []quiz.Question{
			{Answers: []map[string]string{{"artist": "Chesney Hawkes", "title": "The One and Only"}}},
			{Answers: []map[string]string{{"artist": "Los del Rio", "title": "Macarena"}}},
		},
	}
}

func TestBuildQuestionSheetLeavesAnswersBlank(t *testing.T) {
	content := sheets.Build(sheetRound(), quiz.KindQuestion)

	lines := strings.Split(content, "\n")
	if lines[0] != "Round 07: One-hit wonders" {
		t.Fatalf("header = %q", lines[0])
	}
	if lines[1] != "================" {
		t.Fatalf("rule = %q", lines[1])
	}
	if lines[2] != "" {
		t.Fatalf("expected blank line, got %q", lines[2])
	}
	if !strings.HasPrefix(lines[3], "| Question   | Artist") {
		t.Fatalf("table header = %q", lines[3])
	}
	if !strings.HasPrefix(lines[4], "|------------|-") {
		t.Fatalf("separator = %q", lines[4])
	}
	if !strings.HasPrefix(lines[5], "| 7.1        |") {
		t.Fatalf("first row = %q", lines[5])
	}
	if strings.Contains(content, "Chesney Hawkes") {
		t.Fatal("question sheet must not leak answers")
	}
}

func TestBuildAnswerSheetFillsFirstAnswerEntry(t *testing.T) {
	content := sheets.Build(sheetRound(), quiz.KindAnswer)

	if !strings.Contains(content, "Chesney Hawkes") || !strings.Contains(content, "The One and Only") {
		t.Fatalf("answer sheet missing values:\n%s", content)
	}
	if !strings.Contains(content, "| 7.2        | Los del Rio") {
		t.Fatalf("second row malformed:\n%s", content)
	}
}

func TestColumnsTitleCaseHeadersAndNumbering(t *testing.T) {
	round := sheetRound()
	round.FirstQuestionIsExample = true

	headers, rows := sheets.Columns(round, quiz.KindQuestion)
	if len(headers) != 3 || headers[0] != "Question" || headers[1] != "Artist" || headers[2] != "Title" {
		t.Fatalf("headers = %v", headers)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %v", rows)
	}
	// The example question is numbered zero.
	if rows[0][0] != "7.0" || rows[1][0] != "7.1" {
		t.Fatalf("numbering = %q, %q", rows[0][0], rows[1][0])
	}
}

func TestWriteSheetToRoundDir(t *testing.T) {
	dir := t.TempDir()
	writer := sheets.NewWriter(logging.NewNop())

	path, err := writer.Write(sheetRound(), quiz.KindAnswer, dir)
	if err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if path != filepath.Join(dir, "07_answer.md") {
		t.Fatalf("path = %q", path)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sheet: %v", err)
	}
	if !strings.Contains(string(content), "Macarena") {
		t.Fatalf("sheet content missing answers:\n%s", content)
	}
}
