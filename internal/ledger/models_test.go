package ledger_test

import (
	"testing"

	"popquiz/internal/ledger"
)

func TestParseStatus(t *testing.T) {
	status, ok := ledger.ParseStatus("  Rendering ")
	if !ok || status != ledger.StatusRendering {
		t.Fatalf("ParseStatus = %s, %v", status, ok)
	}
	if _, ok := ledger.ParseStatus("exploded"); ok {
		t.Fatal("expected unknown status to be rejected")
	}
	if _, ok := ledger.ParseStatus(""); ok {
		t.Fatal("expected empty status to be rejected")
	}
}

func TestParseKind(t *testing.T) {
	kind, ok := ledger.ParseKind("QUESTION_REEL")
	if !ok || kind != ledger.ArtifactQuestionReel {
		t.Fatalf("ParseKind = %s, %v", kind, ok)
	}
	if _, ok := ledger.ParseKind("poster"); ok {
		t.Fatal("expected unknown kind to be rejected")
	}
}

func TestKindRoundLevel(t *testing.T) {
	if ledger.ArtifactQuestion.RoundLevel() {
		t.Fatal("question artifacts belong to a single question")
	}
	for _, kind := range []ledger.ArtifactKind{
		ledger.ArtifactQuestionTitle,
		ledger.ArtifactAnswerTitle,
		ledger.ArtifactQuestionReel,
		ledger.ArtifactAnswerReel,
	} {
		if !kind.RoundLevel() {
			t.Fatalf("%s should be round level", kind)
		}
	}
}

func TestItemLabel(t *testing.T) {
	perQuestion := ledger.Item{Round: 3, Question: 2, Kind: ledger.ArtifactQuestion}
	if got := perQuestion.Label(); got != "03.02 question" {
		t.Fatalf("label = %q", got)
	}
	roundLevel := ledger.Item{Round: 3, Kind: ledger.ArtifactAnswerReel}
	if got := roundLevel.Label(); got != "03 answer_reel" {
		t.Fatalf("label = %q", got)
	}
}

func TestItemTransitions(t *testing.T) {
	item := ledger.Item{Status: ledger.StatusRendering}
	if !item.IsProcessing() {
		t.Fatal("rendering should be processing")
	}

	item.SetFailed("ffmpeg exited with status 1")
	if item.Status != ledger.StatusFailed || item.ErrorMessage == "" {
		t.Fatalf("unexpected failure state: %#v", item)
	}
	if item.ProgressStage != "Failed" || item.ProgressPercent != 0 {
		t.Fatalf("unexpected failure progress: %#v", item)
	}

	item.SetCompleted("/tmp/out.mp4")
	if item.Status != ledger.StatusCompleted || item.OutputPath != "/tmp/out.mp4" {
		t.Fatalf("unexpected completed state: %#v", item)
	}
	if item.ErrorMessage != "" || item.ProgressPercent != 100 {
		t.Fatalf("completion should clear errors: %#v", item)
	}
}
