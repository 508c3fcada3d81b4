package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unicode"

	"popquiz/internal/fileutil"
	"popquiz/internal/ledger"
	"popquiz/internal/logging"
	"popquiz/internal/quiz"
	"popquiz/internal/render"
	"popquiz/internal/services"
	"popquiz/internal/sheets"
	"popquiz/internal/sources"
)

type itemKey struct {
	kind     ledger.ArtifactKind
	question int
}

// run holds the mutable state of a single production run.
type run struct {
	store    *ledger.Store
	logger   *slog.Logger
	round    *quiz.Round
	fileDir  string
	roundDir string
	jobID    string
	reuse    bool

	engine   render.Engine
	composer *render.Composer
	fetcher  *sources.Fetcher
	sheets   *sheets.Writer
	sampler  *logging.ProgressSampler

	items   map[itemKey]*ledger.Item
	paths   map[itemKey]string
	ordered []*ledger.Item

	rendered int
	reused   int

	mu        sync.Mutex
	active    *ledger.Item
	activeCtx context.Context
}

func (rn *run) execute(ctx context.Context, plan []planEntry, outcome *Outcome) error {
	for _, entry := range plan {
		item, err := rn.store.Upsert(ctx, rn.round.Round, entry.question, entry.kind)
		if err != nil {
			return fmt.Errorf("plan ledger items: %w", err)
		}
		key := itemKey{entry.kind, entry.question}
		rn.items[key] = item
		rn.paths[key] = entry.path
		rn.ordered = append(rn.ordered, item)
	}

	media, err := rn.fetchSources(ctx)
	if err != nil {
		return err
	}
	if err := rn.renderTitles(ctx); err != nil {
		return err
	}
	if err := rn.renderQuestions(ctx, media); err != nil {
		return err
	}
	if err := rn.renderReels(ctx); err != nil {
		return err
	}
	if err := rn.writeSheets(outcome); err != nil {
		return err
	}

	for _, entry := range plan {
		outcome.Items = append(outcome.Items, rn.items[itemKey{entry.kind, entry.question}])
	}
	outcome.Rendered = rn.rendered
	outcome.Reused = rn.reused
	return nil
}

// fetchSources acquires every source the round references. A fetch failure
// aborts the run and fails every planned item, since no artifact can be
// produced without its media.
func (rn *run) fetchSources(ctx context.Context) ([][]render.Media, error) {
	stageCtx := services.WithStage(ctx, "sources")
	logger := logging.WithContext(stageCtx, rn.logger)

	for _, item := range rn.ordered {
		item.Status = ledger.StatusFetching
		item.JobID = rn.jobID
		item.Backend = rn.engine.Name()
		item.SetProgress("Fetching sources", "", 0)
		item.ErrorMessage = ""
		if err := rn.store.Update(stageCtx, item); err != nil {
			return nil, fmt.Errorf("persist fetching transition: %w", err)
		}
	}

	logger.Info("fetching sources", logging.Int("questions", len(rn.round.Questions)))
	media, err := rn.fetcher.FetchAll(stageCtx, rn.round, rn.fileDir)
	if err != nil {
		message := failureMessage(err)
		for _, item := range rn.ordered {
			item.SetFailed(message)
			if uerr := rn.store.Update(stageCtx, item); uerr != nil {
				logger.Error("failed to persist fetch failure", logging.Error(uerr))
			}
		}
		logger.Error("source fetch failed", logging.Error(err))
		return nil, err
	}

	// Back to pending so items a later stage never reaches do not read as
	// in-flight after an aborted run.
	for _, item := range rn.ordered {
		item.Status = ledger.StatusPending
		item.SetProgress("Sources ready", "", 0)
		if err := rn.store.Update(stageCtx, item); err != nil {
			return nil, fmt.Errorf("persist fetched state: %w", err)
		}
	}
	return media, nil
}

func (rn *run) renderTitles(ctx context.Context) error {
	if err := rn.renderArtifact(ctx, itemKey{ledger.ArtifactQuestionTitle, 0}, func(stageCtx context.Context, outPath string) error {
		return rn.composer.TitleVideo(stageCtx, rn.round, quiz.KindQuestion, outPath)
	}); err != nil {
		return err
	}
	return rn.renderArtifact(ctx, itemKey{ledger.ArtifactAnswerTitle, 0}, func(stageCtx context.Context, outPath string) error {
		return rn.composer.TitleVideo(stageCtx, rn.round, quiz.KindAnswer, outPath)
	})
}

func (rn *run) renderQuestions(ctx context.Context, media [][]render.Media) error {
	for idx := range rn.round.Questions {
		id := rn.round.QuestionID(idx)
		questionCtx := services.WithQuestion(ctx, id)
		if err := rn.renderArtifact(questionCtx, itemKey{ledger.ArtifactQuestion, id}, func(stageCtx context.Context, outPath string) error {
			return rn.composer.QuestionVideo(stageCtx, rn.round, idx, quiz.KindQuestion, media[idx], outPath)
		}); err != nil {
			return err
		}
		if err := rn.renderArtifact(questionCtx, itemKey{ledger.ArtifactAnswer, id}, func(stageCtx context.Context, outPath string) error {
			return rn.composer.QuestionVideo(stageCtx, rn.round, idx, quiz.KindAnswer, media[idx], outPath)
		}); err != nil {
			return err
		}
	}
	return nil
}

func (rn *run) renderReels(ctx context.Context) error {
	questionParts := make([]render.ReelPart, 0, len(rn.round.Questions)+1)
	answerParts := make([]render.ReelPart, 0, len(rn.round.Questions))
	for idx := range rn.round.Questions {
		id := rn.round.QuestionID(idx)
		questionPath := rn.paths[itemKey{ledger.ArtifactQuestion, id}]
		answerPath := rn.paths[itemKey{ledger.ArtifactAnswer, id}]
		questionParts = append(questionParts, render.ReelPart{Path: questionPath, Kind: quiz.KindQuestion})
		if rn.round.IsExample(idx) {
			// The example's answer plays inside the question reel, right
			// after the example question itself.
			questionParts = append(questionParts, render.ReelPart{Path: answerPath, Kind: quiz.KindAnswer})
		} else {
			answerParts = append(answerParts, render.ReelPart{Path: answerPath, Kind: quiz.KindAnswer})
		}
	}

	questionTitle := rn.paths[itemKey{ledger.ArtifactQuestionTitle, 0}]
	answerTitle := rn.paths[itemKey{ledger.ArtifactAnswerTitle, 0}]

	if err := rn.renderArtifact(ctx, itemKey{ledger.ArtifactQuestionReel, 0}, func(stageCtx context.Context, outPath string) error {
		return rn.composer.Reel(stageCtx, rn.round, questionTitle, questionParts, outPath)
	}); err != nil {
		return err
	}
	return rn.renderArtifact(ctx, itemKey{ledger.ArtifactAnswerReel, 0}, func(stageCtx context.Context, outPath string) error {
		return rn.composer.Reel(stageCtx, rn.round, answerTitle, answerParts, outPath)
	})
}

func (rn *run) writeSheets(outcome *Outcome) error {
	for _, kind := range []quiz.Kind{quiz.KindQuestion, quiz.KindAnswer} {
		path, err := rn.sheets.Write(rn.round, kind, rn.roundDir)
		if err != nil {
			return fmt.Errorf("write %s sheet: %w", kind, err)
		}
		outcome.Sheets = append(outcome.Sheets, path)
	}
	return nil
}

// renderArtifact applies ledger transition semantics around one render:
// rendering on entry, completed or failed on exit. When reuse is active and
// the output already exists the render is skipped entirely.
func (rn *run) renderArtifact(ctx context.Context, key itemKey, fn func(context.Context, string) error) error {
	item := rn.items[key]
	outPath := rn.paths[key]
	stageCtx := services.WithStage(ctx, string(key.kind))
	logger := logging.WithContext(stageCtx, rn.logger)

	if rn.reuse && fileExists(outPath) {
		item.JobID = rn.jobID
		item.Backend = rn.engine.Name()
		item.SetCompleted(outPath)
		if err := rn.store.Update(stageCtx, item); err != nil {
			return fmt.Errorf("persist reused artifact: %w", err)
		}
		rn.reused++
		logger.Info("reusing video already on disk", logging.String(logging.FieldOutput, outPath))
		return nil
	}

	label := stageLabel(key.kind)
	item.Status = ledger.StatusRendering
	item.JobID = rn.jobID
	item.Backend = rn.engine.Name()
	item.SetProgress(label, label+" started", 0)
	item.ErrorMessage = ""
	if err := rn.store.Update(stageCtx, item); err != nil {
		return fmt.Errorf("persist rendering transition: %w", err)
	}
	logger.Info("stage started",
		logging.String("artifact", item.Label()),
		logging.String(logging.FieldOutput, outPath),
	)

	// A leftover output from an aborted run could be half-written.
	if err := fileutil.RemoveIfExists(outPath); err != nil {
		return rn.failStage(stageCtx, logger, item, fmt.Errorf("remove stale output: %w", err))
	}

	rn.setActive(stageCtx, item)
	err := fn(stageCtx, outPath)
	rn.clearActive()
	if err != nil {
		return rn.failStage(stageCtx, logger, item, err)
	}

	item.SetCompleted(outPath)
	if err := rn.store.Update(stageCtx, item); err != nil {
		return fmt.Errorf("persist stage result: %w", err)
	}
	rn.rendered++
	logger.Info("stage completed",
		logging.String("artifact", item.Label()),
		logging.String(logging.FieldOutput, outPath),
	)
	return nil
}

func (rn *run) failStage(ctx context.Context, logger *slog.Logger, item *ledger.Item, stageErr error) error {
	item.SetFailed(failureMessage(stageErr))
	logger.Error("stage failed",
		logging.String("artifact", item.Label()),
		logging.String("error_message", item.ErrorMessage),
		logging.Error(stageErr),
	)
	if err := rn.store.Update(ctx, item); err != nil {
		logger.Error("failed to persist stage failure", logging.Error(err))
	}
	return stageErr
}

func (rn *run) setActive(ctx context.Context, item *ledger.Item) {
	rn.mu.Lock()
	rn.active = item
	rn.activeCtx = ctx
	rn.mu.Unlock()
	// Each clip starts with fresh sampler state so its first progress
	// event is always logged.
	rn.sampler.Reset()
}

func (rn *run) clearActive() {
	rn.mu.Lock()
	rn.active = nil
	rn.activeCtx = nil
	rn.mu.Unlock()
}

// onProgress receives engine progress callbacks and samples them into the
// ledger item currently rendering.
func (rn *run) onProgress(stage string, percent float64) {
	rn.mu.Lock()
	item, ctx := rn.active, rn.activeCtx
	rn.mu.Unlock()
	if item == nil || ctx == nil {
		return
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	if rn.sampler.ShouldLog(percent, stage) {
		logging.WithContext(ctx, rn.logger).Info("render progress",
			logging.String("progress_stage", stage),
			logging.Float64("percent", percent),
		)
	}
	item.SetProgress(stage, fmt.Sprintf("%s %.0f%%", stage, percent), percent)
	if err := rn.store.Update(ctx, item); err != nil {
		rn.logger.Debug("failed to persist render progress", logging.Error(err))
	}
}

func failureMessage(err error) string {
	if err == nil {
		return "stage failed"
	}
	details := services.Details(err)
	message := strings.TrimSpace(details.Message)
	if message == "" {
		message = strings.TrimSpace(err.Error())
	}
	return message
}

// stageLabel turns an artifact kind into a progress label, e.g.
// "question_reel" becomes "Question Reel".
func stageLabel(kind ledger.ArtifactKind) string {
	parts := strings.Fields(strings.ReplaceAll(string(kind), "_", " "))
	for i, part := range parts {
		runes := []rune(part)
		runes[0] = unicode.ToUpper(runes[0])
		parts[i] = string(runes)
	}
	return strings.Join(parts, " ")
}
