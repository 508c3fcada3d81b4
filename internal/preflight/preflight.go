package preflight

import (
	"context"

	"popquiz/internal/config"
)

// Result reports the outcome of a single preflight check. Optional checks
// may fail without blocking a run.
type Result struct {
	Name     string
	Passed   bool
	Optional bool
	Detail   string
}

// RunAll executes all preflight checks for the given config: directory
// access for every working directory, then the external tools. Ffmpeg must
// start and report a version; ffprobe only needs to be present. The
// downloader check is optional since rounds without web sources never
// invoke it.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	return []Result{
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
		CheckDirectoryAccess("Sources directory", cfg.Paths.SourcesDir),
		CheckDirectoryAccess("Staging directory", cfg.Paths.StagingDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckFFmpeg(ctx, cfg.FFmpegBinary()),
		CheckFFprobe(cfg.FFprobeBinary()),
		CheckDownloader(ctx, cfg.DownloaderBinary()),
	}
}

// Passed reports whether every required check passed.
func Passed(results []Result) bool {
	for _, result := range results {
		if !result.Passed && !result.Optional {
			return false
		}
	}
	return true
}
