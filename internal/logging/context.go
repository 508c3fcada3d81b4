package logging

import (
	"context"
	"log/slog"

	"popquiz/internal/services"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRound is the standardized structured logging key for quiz round numbers.
	FieldRound = "round"
	// FieldQuestion is the standardized structured logging key for question numbers.
	FieldQuestion = "question"
	// FieldStage is the standardized structured logging key for workflow stage names.
	FieldStage = "stage"
	// FieldJobID is the standardized structured logging key for job correlation identifiers.
	FieldJobID = "job_id"
	// FieldBackend is the standardized structured logging key for the active render backend.
	FieldBackend = "backend"
	// FieldOutput is the standardized structured logging key for produced file paths.
	FieldOutput = "output"
)

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 4)
	if round, ok := services.RoundFromContext(ctx); ok {
		fields = append(fields, slog.Int(FieldRound, round))
	}
	if question, ok := services.QuestionFromContext(ctx); ok {
		fields = append(fields, slog.Int(FieldQuestion, question))
	}
	if stage, ok := services.StageFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldStage, stage))
	}
	if jobID, ok := services.JobIDFromContext(ctx); ok {
		fields = append(fields, slog.String(FieldJobID, jobID))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
