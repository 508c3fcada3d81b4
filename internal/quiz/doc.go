// Package quiz models a popquiz round: the parsed round file, its questions,
// sources, and clip intervals.
//
// Round files are JSON or YAML documents describing one quiz round. The
// package reads them, substitutes per-question variables, applies defaults,
// and validates the cross-references a renderable round has to satisfy
// (matching audio/video runtimes, answer keys that line up with the
// questioned fields, clip indices that point at declared sources). It also
// owns the derived naming scheme for rendered videos and sheets so every
// component agrees on file locations.
package quiz
