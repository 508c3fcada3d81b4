// Package workflow sequences a full production run for a quiz round:
// preflight checks, source acquisition, per-question question and answer
// videos, round title cards, the combined reels, and printable sheets.
//
// A Runner executes one round at a time under a file lock. Every rendered
// artifact is tracked as a ledger item whose status moves pending ->
// fetching -> rendering -> completed (or failed), so interrupted runs can
// be inspected and resumed through the CLI. Stages run sequentially in
// round order; the render engines parallelize internally where it matters.
package workflow
