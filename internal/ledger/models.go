package ledger

import (
	"fmt"
	"strings"
	"time"
)

// Status represents the lifecycle of a ledger item.
type Status string

const (
	StatusPending   Status = "pending"
	StatusFetching  Status = "fetching"
	StatusRendering Status = "rendering"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

var allStatuses = []Status{
	StatusPending,
	StatusFetching,
	StatusRendering,
	StatusCompleted,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var processingStatuses = map[Status]struct{}{
	StatusFetching:  {},
	StatusRendering: {},
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// ArtifactKind identifies which rendered artifact an item tracks.
type ArtifactKind string

const (
	ArtifactQuestion      ArtifactKind = "question"
	ArtifactAnswer        ArtifactKind = "answer"
	ArtifactQuestionTitle ArtifactKind = "question_title"
	ArtifactAnswerTitle   ArtifactKind = "answer_title"
	ArtifactQuestionReel  ArtifactKind = "question_reel"
	ArtifactAnswerReel    ArtifactKind = "answer_reel"
)

var allKinds = []ArtifactKind{
	ArtifactQuestion,
	ArtifactAnswer,
	ArtifactQuestionTitle,
	ArtifactAnswerTitle,
	ArtifactQuestionReel,
	ArtifactAnswerReel,
}

var kindSet = func() map[ArtifactKind]struct{} {
	set := make(map[ArtifactKind]struct{}, len(allKinds))
	for _, kind := range allKinds {
		set[kind] = struct{}{}
	}
	return set
}()

// AllKinds returns the ordered list of known artifact kinds.
func AllKinds() []ArtifactKind {
	cp := make([]ArtifactKind, len(allKinds))
	copy(cp, allKinds)
	return cp
}

// ParseKind converts a string into a known ArtifactKind.
func ParseKind(value string) (ArtifactKind, bool) {
	normalized := ArtifactKind(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := kindSet[normalized]
	return normalized, ok
}

// RoundLevel reports whether the kind describes an artifact spanning the
// whole round rather than a single question.
func (k ArtifactKind) RoundLevel() bool {
	switch k {
	case ArtifactQuestionTitle, ArtifactAnswerTitle, ArtifactQuestionReel, ArtifactAnswerReel:
		return true
	}
	return false
}

// Item represents one render artifact persisted in SQLite.
type Item struct {
	ID              int64
	Round           int
	Question        int
	Kind            ArtifactKind
	Status          Status
	Backend         string
	OutputPath      string
	ErrorMessage    string
	JobID           string
	ProgressStage   string
	ProgressPercent float64
	ProgressMessage string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Label returns the short identifier used in CLI and log output, e.g.
// "03.02 question" or "03 answer_reel" for round-level artifacts.
func (i Item) Label() string {
	if i.Kind.RoundLevel() {
		return fmt.Sprintf("%02d %s", i.Round, i.Kind)
	}
	return fmt.Sprintf("%02d.%02d %s", i.Round, i.Question, i.Kind)
}

// IsProcessing returns true when the status reflects an in-flight operation.
func (i Item) IsProcessing() bool {
	_, ok := processingStatuses[i.Status]
	return ok
}

// SetProgress updates all three progress fields atomically. Use this instead
// of setting ProgressStage, ProgressPercent, and ProgressMessage individually.
func (i *Item) SetProgress(stage, message string, percent float64) {
	i.ProgressStage = stage
	i.ProgressMessage = message
	i.ProgressPercent = percent
}

// SetCompleted marks the item done and records where the artifact landed.
func (i *Item) SetCompleted(outputPath string) {
	i.Status = StatusCompleted
	i.OutputPath = outputPath
	i.ErrorMessage = ""
	i.SetProgress("Completed", "", 100)
}

// SetFailed marks the item as failed with the given error message.
func (i *Item) SetFailed(message string) {
	i.Status = StatusFailed
	i.ErrorMessage = message
	i.ProgressStage = "Failed"
	i.ProgressPercent = 0
	i.ProgressMessage = message
}

// DatabaseHealth captures diagnostic information about the ledger database.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	TableExists      bool
	ColumnsPresent   []string
	MissingColumns   []string
	IntegrityCheck   bool
	TotalItems       int
	Error            string
}
