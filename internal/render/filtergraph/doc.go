// Package filtergraph renders compositions through a single ffmpeg filter
// graph per output file.
//
// Every operation extends the video and audio legs of an in-memory graph;
// nothing touches disk until Render compiles the graph into one ffmpeg
// invocation. Synthetic material (black canvases, text cards, beeps) comes
// from lavfi inputs wired into the same graph, so a question video with
// trims, fades, text boxes, and repeats is still a single process run.
package filtergraph
