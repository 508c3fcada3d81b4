package preflight

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"popquiz/internal/config"
)

// ToolProbe reports the detected state of one external tool.
type ToolProbe struct {
	Name      string
	Binary    string
	Available bool
	Version   string
}

// ProbeTools snapshots the external tools popquiz drives, with versions
// where the tools report one.
func ProbeTools(ctx context.Context, cfg *config.Config) []ToolProbe {
	if cfg == nil {
		return nil
	}
	return []ToolProbe{
		probeTool(ctx, "FFmpeg", cfg.FFmpegBinary(), "-version", "ffmpeg version "),
		probeTool(ctx, "FFprobe", cfg.FFprobeBinary(), "-version", "ffprobe version "),
		probeTool(ctx, "Downloader", cfg.DownloaderBinary(), "--version", ""),
	}
}

// probeTool runs the tool's version command and keeps the first line,
// stripped of the conventional "name version " prefix and Copyright tail.
func probeTool(ctx context.Context, name, binary, flag, prefix string) ToolProbe {
	probe := ToolProbe{Name: name, Binary: binary}
	if _, err := exec.LookPath(binary); err != nil {
		return probe
	}

	probeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	output, err := exec.CommandContext(probeCtx, binary, flag).Output()
	if err != nil {
		return probe
	}
	line := strings.TrimSpace(strings.SplitN(string(output), "\n", 2)[0])
	if prefix != "" {
		line = strings.TrimPrefix(line, prefix)
		if idx := strings.Index(line, " Copyright"); idx >= 0 {
			line = line[:idx]
		}
	}

	probe.Available = true
	probe.Version = strings.TrimSpace(line)
	return probe
}

// Detail renders a display-friendly summary for status UIs.
func (p ToolProbe) Detail() string {
	if !p.Available {
		return fmt.Sprintf("%s not found", p.Binary)
	}
	if p.Version == "" {
		return p.Binary
	}
	return fmt.Sprintf("%s (%s)", p.Binary, p.Version)
}
