package workflow

import (
	"fmt"
	"os"
	"path/filepath"

	"popquiz/internal/config"
	"popquiz/internal/ledger"
	"popquiz/internal/quiz"
)

// PlanEntry describes one artifact a run will produce.
type PlanEntry struct {
	Label  string
	Path   string
	Cached bool
}

type planEntry struct {
	kind     ledger.ArtifactKind
	question int
	index    int
	path     string
}

func (p planEntry) label(round int) string {
	if p.kind.RoundLevel() {
		return fmt.Sprintf("%02d %s", round, p.kind)
	}
	return fmt.Sprintf("%02d.%02d %s", round, p.question, p.kind)
}

// planRound lists every artifact for the round in production order: the two
// title cards, question and answer videos per question, then the reels.
func planRound(cfg *config.Config, round *quiz.Round) []planEntry {
	dir := cfg.RoundDir(round.Round)
	format := cfg.Render.Format

	entries := []planEntry{
		{kind: ledger.ArtifactQuestionTitle, index: -1, path: filepath.Join(dir, quiz.TitleFileName(round.Round, quiz.KindQuestion, format))},
		{kind: ledger.ArtifactAnswerTitle, index: -1, path: filepath.Join(dir, quiz.TitleFileName(round.Round, quiz.KindAnswer, format))},
	}
	for idx := range round.Questions {
		id := round.QuestionID(idx)
		question := round.Questions[idx]
		entries = append(entries,
			planEntry{
				kind:     ledger.ArtifactQuestion,
				question: id,
				index:    idx,
				path:     filepath.Join(dir, quiz.VideoFileName(round.Round, id, quiz.KindQuestion, question.OutputFormat(quiz.KindQuestion))),
			},
			planEntry{
				kind:     ledger.ArtifactAnswer,
				question: id,
				index:    idx,
				path:     filepath.Join(dir, quiz.VideoFileName(round.Round, id, quiz.KindAnswer, question.OutputFormat(quiz.KindAnswer))),
			},
		)
	}
	entries = append(entries,
		planEntry{kind: ledger.ArtifactQuestionReel, index: -1, path: filepath.Join(dir, quiz.CombinedFileName(round.Round, quiz.KindQuestion, format))},
		planEntry{kind: ledger.ArtifactAnswerReel, index: -1, path: filepath.Join(dir, quiz.CombinedFileName(round.Round, quiz.KindAnswer, format))},
	)
	return entries
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
