// Package logging assembles the structured slog loggers shared by every
// popquiz command and service.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so render and download code can
// automatically tag log lines with round numbers, question numbers, stages,
// and job IDs. The package also provides a no-op logger for tests and wiring
// code that cannot fail, plus a progress sampler that keeps ffmpeg and
// yt-dlp progress streams from flooding the log.
//
// Prefer these constructors over hand-rolled slog setup so new components
// emit data with the same shape as the rest of the tool.
package logging
