package services

import "context"

type contextKey string

const (
	roundKey    contextKey = "round"
	questionKey contextKey = "question"
	stageKey    contextKey = "stage"
	jobIDKey    contextKey = "job_id"
)

// WithRound annotates context with the quiz round number.
func WithRound(ctx context.Context, round int) context.Context {
	return context.WithValue(ctx, roundKey, round)
}

// RoundFromContext extracts the round number if present.
func RoundFromContext(ctx context.Context) (int, bool) {
	if v, ok := ctx.Value(roundKey).(int); ok {
		return v, true
	}
	return 0, false
}

// WithQuestion annotates context with the question identifier within a round.
func WithQuestion(ctx context.Context, question int) context.Context {
	return context.WithValue(ctx, questionKey, question)
}

// QuestionFromContext extracts the question identifier if present.
func QuestionFromContext(ctx context.Context) (int, bool) {
	if v, ok := ctx.Value(questionKey).(int); ok {
		return v, true
	}
	return 0, false
}

// WithStage annotates context with the production stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	if str, ok := ctx.Value(stageKey).(string); ok && str != "" {
		return str, true
	}
	return "", false
}

// WithJobID annotates context with the render job correlation identifier.
func WithJobID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, jobIDKey, id)
}

// JobIDFromContext extracts the render job identifier if present.
func JobIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(jobIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
