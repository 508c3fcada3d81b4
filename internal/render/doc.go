// Package render turns round material into question and answer videos.
//
// The Engine interface abstracts a media backend: it opens clips from
// source files (or synthesizes cards from text, images, and silence),
// exposes the editing operations popquiz needs (trim, fades, scaling,
// text boxes, reversal, muting, beeps, repetition, concatenation), and
// materializes compositions into video files. Two engines implement it:
// filtergraph builds a single ffmpeg filter graph per output, pipeline
// chains staged ffmpeg runs producing stream-copyable intermediates.
//
// The Composer sits above the engines and encodes the quiz semantics:
// which clips form a question or answer video, where labels and answer
// texts go, how example questions and spacers slot into the combined
// reels. Engines stay free of round-file knowledge.
package render
