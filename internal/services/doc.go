// Package services defines shared utilities consumed by the production
// stages and external tool integrations.
//
// Key responsibilities:
//   - Context helpers that stamp round numbers, question identifiers, stage
//     names, and render job IDs for logging and tracing.
//   - Structured error markers plus the Wrap helper that keep failure
//     classification consistent (bad input vs broken tool vs transient).
//
// Use these helpers when wiring new stage logic so operational behaviour
// (error handling, observability) stays uniform across the pipeline.
package services
