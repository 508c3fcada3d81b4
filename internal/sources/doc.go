// Package sources acquires the media a quiz round builds on. YouTube
// sources are downloaded with yt-dlp, local files are copied from next to
// the round file with checksum verification, and text or image sources are
// synthesized through the active render engine. Fetched files land in the
// shared sources directory under their canonical names and are reused on
// later runs.
package sources
