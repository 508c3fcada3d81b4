// Command popquiz turns quiz round files into question and answer videos
// plus printable sheets. It downloads the sources a round references,
// renders every artifact through the configured ffmpeg backend, and keeps
// a ledger of what has been produced so interrupted runs can resume.
package main
