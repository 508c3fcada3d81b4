// Package ffmpegcli mediates direct ffmpeg invocations shared by the render
// engines.
//
// The filtergraph engine compiles its graphs to argument lists and the
// pipeline engine builds lavfi and concat invocations by hand; both hand the
// final argv to this package so binary resolution, -progress parsing, and
// error-output capture stay in one place. Tests swap in a fake Executor to
// exercise argument construction without the binary installed.
package ffmpegcli
