package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"popquiz/internal/logging"
	"popquiz/internal/preflight"
	"popquiz/internal/services"
)

// runPreflight validates tool and directory readiness before any work
// starts. Returns nil when every check the round depends on passes, or an
// error naming every failure. Optional checks count as failures only when
// needsDownloader is set; a round without web sources runs without the
// downloader installed.
func (r *Runner) runPreflight(ctx context.Context, logger *slog.Logger, needsDownloader bool) error {
	results := preflight.RunAll(ctx, r.cfg)
	if len(results) == 0 {
		return nil
	}

	var failures []string
	for _, res := range results {
		switch {
		case res.Passed:
			logger.Debug("preflight check passed",
				logging.String("check", res.Name),
				logging.String("detail", res.Detail),
			)
		case res.Optional && !needsDownloader:
			logger.Warn("preflight check failed for unused tool",
				logging.String("check", res.Name),
				logging.String("detail", res.Detail),
			)
		default:
			logger.Error("preflight check failed",
				logging.String("check", res.Name),
				logging.String("detail", res.Detail),
			)
			failures = append(failures, fmt.Sprintf("%s: %s", res.Name, res.Detail))
		}
	}

	if len(failures) > 0 {
		return services.Wrap(services.ErrConfiguration, "workflow", "preflight",
			strings.Join(failures, "; "), nil)
	}
	return nil
}
