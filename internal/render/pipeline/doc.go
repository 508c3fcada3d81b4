// Package pipeline renders compositions as a sequence of staged ffmpeg
// runs instead of one large filter graph. Each clip operation records work
// on a small plan; Render walks the plan bottom-up, materializing video
// legs as H.264 MPEG-TS intermediates and audio legs as ADTS AAC so that
// joins reduce to concat-protocol stream copies.
//
// Heavy per-clip transcodes run through the floostack transcoder, which
// probes inputs and reports percentage progress. Synthetic inputs (black
// canvas, sine beeps, looped stills) and the final mux cannot be expressed
// that way and run through the direct ffmpeg client instead.
package pipeline
