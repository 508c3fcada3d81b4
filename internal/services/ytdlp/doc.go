// Package ytdlp wraps the yt-dlp command-line downloader used to fetch
// YouTube sources.
//
// It builds format selectors that pin the requested container so downloads
// land as sources/<id>.<format>, classifies stderr into sentinel errors
// (missing video, rate limiting, missing binary), and reads the final file
// path that yt-dlp prints after post-processing. The youtube-dl binary works
// through the same flag surface for installations that still carry it.
package ytdlp
