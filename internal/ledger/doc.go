// Package ledger persists render artifacts in SQLite and exposes helpers
// for driving their lifecycle.
//
// Every video popquiz produces for a round (per-question clips, title
// cards, stitched reels) is tracked as a ledger item keyed by round,
// question, and artifact kind. Items move from pending through fetching
// and rendering to completed or failed, carrying progress and error detail
// so interrupted runs can resume without re-rendering finished work.
//
// The database is transient storage for render runs rather than a
// long-term archive. Schema changes bump the version in schema.go; users
// clear the ledger to adopt the new schema.
package ledger
