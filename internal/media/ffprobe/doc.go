// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// This package has no popquiz-specific dependencies and could be extracted
// as a standalone library.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual audio/video stream properties
//   - Format: container-level metadata (duration, size, format name)
//
// Primary entry point:
//   - Inspect: executes ffprobe and returns parsed Result
//
// Helper methods on Result answer the questions the render pipeline asks:
// source dimensions for scaling, whether a source is audio-only and needs a
// canvas, and container durations for progress reporting.
package ffprobe
